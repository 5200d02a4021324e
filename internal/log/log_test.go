package log

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want zerolog.Level
	}{
		{"debug", zerolog.DebugLevel},
		{" WARN ", zerolog.WarnLevel},
		{"warning", zerolog.WarnLevel},
		{"error", zerolog.ErrorLevel},
		{"off", zerolog.Disabled},
		{"", zerolog.InfoLevel},
		{"nonsense", zerolog.InfoLevel},
	}
	for _, tt := range tests {
		if got := parseLevel(tt.in); got != tt.want {
			t.Errorf("parseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestNewJSONLogger_Level(t *testing.T) {
	var buf bytes.Buffer
	l := NewJSONLogger(&buf, "warn")
	l.Info().Msg("hidden")
	l.Warn().Str("address", "oct1").Msg("shown")

	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	if len(lines) != 1 {
		t.Fatalf("logged %d lines, want 1: %s", len(lines), buf.String())
	}
	var entry map[string]any
	if err := json.Unmarshal(lines[0], &entry); err != nil {
		t.Fatalf("decode log line: %v", err)
	}
	if entry["message"] != "shown" || entry["address"] != "oct1" {
		t.Errorf("entry = %v", entry)
	}
}

func TestInit_ComponentLoggers(t *testing.T) {
	file := filepath.Join(t.TempDir(), "octra.log")
	if err := Init("debug", true, file); err != nil {
		t.Fatalf("Init() error: %v", err)
	}
	defer Init("warn", false, "")

	if Wallet.GetLevel() != zerolog.DebugLevel || RPC.GetLevel() != zerolog.DebugLevel {
		t.Error("component loggers should follow the configured level")
	}
}
