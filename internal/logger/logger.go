// Package logger provides structured JSON logging and metrics tracking for bonetider.
//
// Every log entry is one JSON object per line with a timestamp, level, message,
// optional fields and error text. With derives a logger that stamps the same
// fields on every entry, which is how request and date context travels.
//
// Metrics keeps counters, gauges and timing aggregates in memory. The service
// layer counts extraction tiers, failure kinds and fallbacks; the HTTP server
// exposes the snapshot on /metrics.
//
//	logger.Info("Extracted prayer times", logger.Fields{"date": "2024-03-14", "tier": "marker"})
//	logger.IncrCounter("extract.tier.marker")
package logger

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"
)

// Level represents log severity
type Level string

const (
	LevelDebug Level = "DEBUG"
	LevelInfo  Level = "INFO"
	LevelWarn  Level = "WARN"
	LevelError Level = "ERROR"
)

var levelRank = map[Level]int{
	LevelDebug: 0,
	LevelInfo:  1,
	LevelWarn:  2,
	LevelError: 3,
}

// ParseLevel converts a case-insensitive level name into a Level.
func ParseLevel(s string) (Level, error) {
	level := Level(strings.ToUpper(strings.TrimSpace(s)))
	if level == "WARNING" {
		level = LevelWarn
	}
	if _, ok := levelRank[level]; !ok {
		return "", fmt.Errorf("unknown log level: %q", s)
	}
	return level, nil
}

// Fields represents structured log fields
type Fields map[string]interface{}

// Entry is one serialized log line
type Entry struct {
	Timestamp string `json:"timestamp"`
	Level     Level  `json:"level"`
	Message   string `json:"message"`
	Fields    Fields `json:"fields,omitempty"`
	Error     string `json:"error,omitempty"`
}

// sink serializes writes from a logger and everything derived from it
type sink struct {
	mu  sync.Mutex
	enc *json.Encoder
	out io.Writer
}

// Logger writes structured entries at or above a minimum level
type Logger struct {
	sink     *sink
	minLevel Level
	fields   Fields
	now      func() time.Time
}

var defaultLogger = New(LevelInfo, os.Stderr)

// New creates a logger writing to output. Entries below level are discarded.
func New(level Level, output io.Writer) *Logger {
	return &Logger{
		sink:     &sink{enc: json.NewEncoder(output), out: output},
		minLevel: level,
		now:      time.Now,
	}
}

// SetDefault replaces the logger behind the package-level functions
func SetDefault(logger *Logger) {
	defaultLogger = logger
}

// Default returns the package-level logger
func Default() *Logger {
	return defaultLogger
}

// With returns a logger that adds fields to every entry. Fields passed to a
// single call win over these on key collisions.
func (l *Logger) With(fields Fields) *Logger {
	child := *l
	child.fields = merge(l.fields, fields)
	return &child
}

// Enabled reports whether entries at level are written
func (l *Logger) Enabled(level Level) bool {
	return levelRank[level] >= levelRank[l.minLevel]
}

func (l *Logger) log(level Level, message string, fields Fields, err error) {
	if !l.Enabled(level) {
		return
	}

	entry := Entry{
		Timestamp: l.now().UTC().Format(time.RFC3339),
		Level:     level,
		Message:   message,
		Fields:    merge(l.fields, fields),
	}
	if err != nil {
		entry.Error = err.Error()
	}

	l.sink.mu.Lock()
	defer l.sink.mu.Unlock()

	if encErr := l.sink.enc.Encode(entry); encErr != nil {
		// unencodable field values still leave a trace
		fmt.Fprintf(l.sink.out, "[%s] %s: %s (encode error: %v)\n",
			entry.Timestamp, entry.Level, entry.Message, encErr)
	}
}

func merge(base, extra Fields) Fields {
	if len(base) == 0 {
		return extra
	}
	if len(extra) == 0 {
		return base
	}
	out := make(Fields, len(base)+len(extra))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range extra {
		out[k] = v
	}
	return out
}

func (l *Logger) Debug(message string, fields Fields) {
	l.log(LevelDebug, message, fields, nil)
}

func (l *Logger) Info(message string, fields Fields) {
	l.log(LevelInfo, message, fields, nil)
}

// Warn logs degraded but working conditions, such as a shape-only row match.
func (l *Logger) Warn(message string, fields Fields) {
	l.log(LevelWarn, message, fields, nil)
}

func (l *Logger) Error(message string, fields Fields, err error) {
	l.log(LevelError, message, fields, err)
}

// Debug logs with the default logger
func Debug(message string, fields Fields) {
	defaultLogger.Debug(message, fields)
}

// Info logs with the default logger
func Info(message string, fields Fields) {
	defaultLogger.Info(message, fields)
}

// Warn logs with the default logger
func Warn(message string, fields Fields) {
	defaultLogger.Warn(message, fields)
}

// Error logs with the default logger
func Error(message string, fields Fields, err error) {
	defaultLogger.Error(message, fields, err)
}
