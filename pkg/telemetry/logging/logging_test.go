package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
)

func TestSetupWriter_JSON(t *testing.T) {
	var buf bytes.Buffer
	logger := SetupWriter(&buf, "info", "json")

	logger.Info("gateway started", "listen", "127.0.0.1:8080")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("expected JSON log output, got %q: %v", buf.String(), err)
	}
	if entry["msg"] != "gateway started" {
		t.Errorf("unexpected message: %v", entry["msg"])
	}
	if entry["listen"] != "127.0.0.1:8080" {
		t.Errorf("unexpected attr: %v", entry["listen"])
	}
}

func TestSetupWriter_Text(t *testing.T) {
	var buf bytes.Buffer
	logger := SetupWriter(&buf, "info", "text")

	logger.Info("gateway started")
	if !strings.Contains(buf.String(), "msg=\"gateway started\"") {
		t.Errorf("expected text format, got %q", buf.String())
	}
}

func TestSetupWriter_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := SetupWriter(&buf, "warn", "json")

	logger.Info("suppressed")
	if buf.Len() != 0 {
		t.Errorf("expected info suppressed at warn level, got %q", buf.String())
	}

	logger.Warn("emitted")
	if buf.Len() == 0 {
		t.Error("expected warn emitted at warn level")
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"WARN", slog.LevelWarn},
		{"error", slog.LevelError},
		{"bogus", slog.LevelInfo},
		{"", slog.LevelInfo},
	}
	for _, tt := range tests {
		if got := parseLevel(tt.in); got != tt.want {
			t.Errorf("parseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestSetup_InstallsDefault(t *testing.T) {
	prev := slog.Default()
	defer slog.SetDefault(prev)

	var buf bytes.Buffer
	SetupWriter(&buf, "info", "json")

	slog.Info("via default")
	if !strings.Contains(buf.String(), "via default") {
		t.Error("expected SetupWriter to install the default logger")
	}
}
