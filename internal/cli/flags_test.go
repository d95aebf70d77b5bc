package cli

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

func TestParseLogOptions(t *testing.T) {
	tests := []struct {
		name       string
		args       []string
		wantFormat string
		wantLevel  string
	}{
		{"defaults", []string{"task", "list"}, "text", "info"},
		{"separate values", []string{"--log-level", "debug", "today", "--log-format", "json"}, "json", "debug"},
		{"equals form", []string{"serve", "--log-level=warn"}, "text", "warn"},
		{"ignores other flags", []string{"task", "list", "--tag", "dev", "--json"}, "text", "info"},
		{"stops at terminator", []string{"extract", "--", "--log-level", "debug"}, "text", "info"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts, err := ParseLogOptions(tt.args)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if opts.Format != tt.wantFormat || opts.Level != tt.wantLevel {
				t.Errorf("got %+v, want format=%s level=%s", opts, tt.wantFormat, tt.wantLevel)
			}
		})
	}
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	logger, err := NewLogger(LogOptions{Format: "json", Level: "warn"}, &buf)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	logger.Info("hidden")
	logger.Warn("shown", "task_id", "t1")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 1 {
		t.Fatalf("expected 1 log line, got %d: %q", len(lines), buf.String())
	}
	var record map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &record); err != nil {
		t.Fatalf("log line is not JSON: %v", err)
	}
	if record["msg"] != "shown" || record["task_id"] != "t1" {
		t.Errorf("unexpected record: %v", record)
	}
}

func TestNewLogger_Invalid(t *testing.T) {
	if _, err := NewLogger(LogOptions{Format: "xml", Level: "info"}, &bytes.Buffer{}); err == nil {
		t.Error("expected error for unknown format")
	}
	if _, err := NewLogger(LogOptions{Format: "text", Level: "loud"}, &bytes.Buffer{}); err == nil {
		t.Error("expected error for unknown level")
	}
}

func TestParseStatus(t *testing.T) {
	if s, err := parseStatus(""); err != nil || s != "" {
		t.Errorf("parseStatus(\"\") = %q, %v", s, err)
	}
	if s, err := parseStatus("waiting"); err != nil || s != "waiting" {
		t.Errorf("parseStatus(waiting) = %q, %v", s, err)
	}
	if _, err := parseStatus("blocked"); err == nil {
		t.Error("expected error for unknown status")
	}
}

func TestParseDirection(t *testing.T) {
	tests := map[string]int{"up": -1, "UP": -1, "left": -1, "-1": -1, "down": 1, "right": 1, "1": 1, "+1": 1}
	for input, want := range tests {
		got, err := parseDirection(input)
		if err != nil || got != want {
			t.Errorf("parseDirection(%q) = %d, %v, want %d", input, got, err, want)
		}
	}
	if _, err := parseDirection("0"); err == nil {
		t.Error("expected error for 0")
	}
}
