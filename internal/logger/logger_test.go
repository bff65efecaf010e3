package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"
)

func TestLogger_Log(t *testing.T) {
	var buf bytes.Buffer
	logger := New(LevelInfo, &buf)

	tests := []struct {
		name    string
		level   Level
		message string
		fields  Fields
		err     error
		want    bool // should log
	}{
		{
			name:    "info message",
			level:   LevelInfo,
			message: "extracted prayer times",
			fields:  Fields{"tier": "marker"},
			want:    true,
		},
		{
			name:    "debug below threshold",
			level:   LevelDebug,
			message: "row skipped",
			want:    false,
		},
		{
			name:    "error with err",
			level:   LevelError,
			message: "upstream fetch failed",
			err:     errors.New("connection refused"),
			want:    true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := buf.Len()
			logger.log(tt.level, tt.message, tt.fields, tt.err)
			logged := buf.Len() > before

			if logged != tt.want {
				t.Errorf("log() logged = %v, want %v", logged, tt.want)
			}
		})
	}
}

func TestLogger_JSONLine(t *testing.T) {
	var buf bytes.Buffer
	logger := New(LevelDebug, &buf)

	logger.Error("extraction failed", Fields{"kind": "TableMissing"}, errors.New("boom"))

	line := strings.TrimSpace(buf.String())
	var entry Entry
	if err := json.Unmarshal([]byte(line), &entry); err != nil {
		t.Fatalf("log line is not JSON: %v (%q)", err, line)
	}

	if entry.Level != "ERROR" {
		t.Errorf("Level = %q, want ERROR", entry.Level)
	}
	if entry.Message != "extraction failed" {
		t.Errorf("Message = %q", entry.Message)
	}
	if entry.Error != "boom" {
		t.Errorf("Error = %q, want boom", entry.Error)
	}
	if entry.Fields["kind"] != "TableMissing" {
		t.Errorf("Fields[kind] = %v", entry.Fields["kind"])
	}
	if _, err := time.Parse(time.RFC3339, entry.Timestamp); err != nil {
		t.Errorf("Timestamp %q is not RFC3339: %v", entry.Timestamp, err)
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input   string
		want    Level
		wantErr bool
	}{
		{"debug", LevelDebug, false},
		{"INFO", LevelInfo, false},
		{" warn ", LevelWarn, false},
		{"warning", LevelWarn, false},
		{"Error", LevelError, false},
		{"verbose", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseLevel(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseLevel(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseLevel(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestLogger_Levels(t *testing.T) {
	tests := []struct {
		name      string
		minLevel  Level
		logLevel  Level
		shouldLog bool
	}{
		{"debug logs at debug", LevelDebug, LevelDebug, true},
		{"info logs at debug", LevelDebug, LevelInfo, true},
		{"debug doesn't log at info", LevelInfo, LevelDebug, false},
		{"warn doesn't log at error", LevelError, LevelWarn, false},
		{"error always logs", LevelDebug, LevelError, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			logger := New(tt.minLevel, &buf)

			logger.log(tt.logLevel, "test", nil, nil)

			if logged := buf.Len() > 0; logged != tt.shouldLog {
				t.Errorf("shouldLog = %v, want %v", logged, tt.shouldLog)
			}
		})
	}
}

func TestLogger_With(t *testing.T) {
	var buf bytes.Buffer
	base := New(LevelInfo, &buf)
	base.now = func() time.Time { return time.Date(2024, 3, 14, 9, 30, 0, 0, time.UTC) }

	child := base.With(Fields{"date": "2024-03-14", "tier": "day"})
	child.Info("extracted", Fields{"tier": "marker"})
	base.Info("plain", nil)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("got %d lines, want 2", len(lines))
	}

	var first, second Entry
	if err := json.Unmarshal([]byte(lines[0]), &first); err != nil {
		t.Fatal(err)
	}
	if err := json.Unmarshal([]byte(lines[1]), &second); err != nil {
		t.Fatal(err)
	}

	if first.Fields["date"] != "2024-03-14" || first.Fields["tier"] != "marker" {
		t.Errorf("child fields = %v", first.Fields)
	}
	if first.Timestamp != "2024-03-14T09:30:00Z" {
		t.Errorf("Timestamp = %q", first.Timestamp)
	}
	if len(second.Fields) != 0 {
		t.Errorf("parent picked up child fields: %v", second.Fields)
	}
}

func TestMetrics_Counter(t *testing.T) {
	m := NewMetrics()

	m.IncrCounter("extract.tier.day")
	m.IncrCounter("extract.tier.day")
	m.IncrCounter("extract.tier.day")

	if got := m.Snapshot().Counters["extract.tier.day"]; got != 3 {
		t.Errorf("snapshot counter = %v, want 3", got)
	}
	if m.Counter("extract.tier.day") != 3 {
		t.Errorf("Counter() = %v, want 3", m.Counter("extract.tier.day"))
	}
	if m.Counter("missing") != 0 {
		t.Errorf("Counter(missing) = %v, want 0", m.Counter("missing"))
	}
}

func TestMetrics_Gauge(t *testing.T) {
	m := NewMetrics()

	m.SetGauge("cache.entries", 1)
	m.SetGauge("cache.entries", 2)

	if got := m.Snapshot().Gauges["cache.entries"]; got != 2 {
		t.Errorf("Gauge = %v, want 2", got)
	}
}

func TestMetrics_Timing(t *testing.T) {
	m := NewMetrics()

	m.RecordTiming("upstream.fetch", 100*time.Millisecond)
	m.RecordTiming("upstream.fetch", 200*time.Millisecond)
	m.RecordTiming("upstream.fetch", 150*time.Millisecond)

	want := TimingStats{Count: 3, Total: "450ms", Average: "150ms", Min: "100ms", Max: "200ms"}
	if got := m.Snapshot().Timings["upstream.fetch"]; got != want {
		t.Errorf("timing = %+v, want %+v", got, want)
	}
}

func TestMetrics_SnapshotIsCopy(t *testing.T) {
	m := NewMetrics()
	m.IncrCounter("a")

	snap := m.Snapshot()
	m.IncrCounter("a")

	if snap.Counters["a"] != 1 {
		t.Errorf("snapshot changed after update: %v", snap.Counters["a"])
	}
}
