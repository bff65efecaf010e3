package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(New())
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.Upstream.City != "Uddevalla, SE" {
		t.Errorf("Upstream.City = %q", cfg.Upstream.City)
	}
	if !strings.HasPrefix(cfg.Upstream.UserAgent, "Mozilla/5.0 ") {
		t.Errorf("Upstream.UserAgent = %q, want a browser user agent", cfg.Upstream.UserAgent)
	}
	if cfg.Upstream.Timeout != 30*time.Second {
		t.Errorf("Upstream.Timeout = %v, want 30s", cfg.Upstream.Timeout)
	}
	if cfg.Extract.ContainerID != "ifis_bonetider" {
		t.Errorf("Extract.ContainerID = %q", cfg.Extract.ContainerID)
	}
	if cfg.Extract.MinCells != 7 {
		t.Errorf("Extract.MinCells = %d, want 7", cfg.Extract.MinCells)
	}
	if len(cfg.Extract.TodayMarkers) == 0 {
		t.Error("Extract.TodayMarkers is empty")
	}

	want := [6]string{"06:26", "08:54", "12:17", "13:19", "15:31", "18:55"}
	if cfg.Fallback.Times() != want {
		t.Errorf("Fallback.Times() = %v, want %v", cfg.Fallback.Times(), want)
	}

	if cfg.Server.Port != 8888 {
		t.Errorf("Server.Port = %d, want 8888", cfg.Server.Port)
	}

	loc, err := cfg.Location()
	if err != nil {
		t.Fatalf("Location() error: %v", err)
	}
	if loc.String() != "Europe/Stockholm" {
		t.Errorf("Location() = %q", loc)
	}

	opts := cfg.EngineOptions()
	if opts.ContainerID != cfg.Extract.ContainerID || opts.MinCells != 7 {
		t.Errorf("EngineOptions() = %+v", opts)
	}
}

func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bonetider.yaml")
	content := `
timezone: Europe/Oslo
upstream:
  city: "Göteborg, SE"
  timeout: 5s
fallback:
  fajr: "5:10"
server:
  port: 9090
  cache_ttl: 1h
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	v := New()
	if err := ReadFile(v, path); err != nil {
		t.Fatalf("ReadFile() error: %v", err)
	}

	cfg, err := Load(v)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.Timezone != "Europe/Oslo" {
		t.Errorf("Timezone = %q", cfg.Timezone)
	}
	if cfg.Upstream.City != "Göteborg, SE" {
		t.Errorf("Upstream.City = %q", cfg.Upstream.City)
	}
	if cfg.Upstream.Timeout != 5*time.Second {
		t.Errorf("Upstream.Timeout = %v, want 5s", cfg.Upstream.Timeout)
	}
	if cfg.Fallback.Fajr != "5:10" {
		t.Errorf("Fallback.Fajr = %q", cfg.Fallback.Fajr)
	}
	if cfg.Fallback.Isha != "18:55" {
		t.Errorf("Fallback.Isha = %q, want default", cfg.Fallback.Isha)
	}
	if cfg.Server.Port != 9090 || cfg.Server.CacheTTL != time.Hour {
		t.Errorf("Server = %+v", cfg.Server)
	}
}

func TestReadFile_MissingExplicitFile(t *testing.T) {
	v := New()
	if err := ReadFile(v, filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("ReadFile() expected error for missing explicit file")
	}
}

func TestLoad_Env(t *testing.T) {
	t.Setenv("BONETIDER_UPSTREAM_CITY", "Malmö, SE")
	t.Setenv("BONETIDER_SERVER_PORT", "7070")
	t.Setenv("BONETIDER_FALLBACK_ISHA", "19:05")
	t.Setenv("BONETIDER_NOTIFY_TELEGRAM_CHAT_ID", "-100123")

	cfg, err := Load(New())
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.Upstream.City != "Malmö, SE" {
		t.Errorf("Upstream.City = %q", cfg.Upstream.City)
	}
	if cfg.Server.Port != 7070 {
		t.Errorf("Server.Port = %d", cfg.Server.Port)
	}
	if cfg.Fallback.Isha != "19:05" {
		t.Errorf("Fallback.Isha = %q", cfg.Fallback.Isha)
	}
	if cfg.Notify.Telegram.ChatID != "-100123" {
		t.Errorf("Notify.Telegram.ChatID = %q", cfg.Notify.Telegram.ChatID)
	}
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		key     string
		value   interface{}
		wantMsg string
	}{
		{"malformed fallback time", "fallback.asr", "13.19", "Fallback.Asr must be H:MM"},
		{"empty container", "extract.container_id", "", "Extract.ContainerID is required"},
		{"port out of range", "server.port", 70000, "Server.Port"},
		{"unknown timezone", "timezone", "Mars/Olympus", "Timezone"},
		{"bad log level", "log.level", "chatty", "Log.Level must be one of"},
		{"bad upstream url", "upstream.url", "not a url", "Upstream.URL"},
		{"zero timeout", "upstream.timeout", 0, "Upstream.Timeout"},
		{"bad telegram url", "notify.telegram.api_url", "::", "Notify.Telegram.APIURL"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := New()
			v.Set(tt.key, tt.value)

			_, err := Load(v)
			if err == nil {
				t.Fatal("Load() expected error")
			}
			if !strings.Contains(err.Error(), tt.wantMsg) {
				t.Errorf("Load() error = %q, want it to contain %q", err, tt.wantMsg)
			}
		})
	}
}
