package cli

import (
	"encoding/json"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/valter-silva-au/taskdesk/internal/observability"
)

// --- parseSinceDuration unit tests ---

func TestParseSinceDuration(t *testing.T) {
	now := baseTime
	tests := []struct {
		name    string
		input   string
		want    time.Time
		wantErr bool
		errMsg  string
	}{
		{"empty defaults to 7d", "", now.UTC().AddDate(0, 0, -7), false, ""},
		{"whitespace defaults to 7d", "  ", now.UTC().AddDate(0, 0, -7), false, ""},
		{"valid 30d", "30d", now.UTC().AddDate(0, 0, -30), false, ""},
		{"valid 24h", "24h", now.UTC().Add(-24 * time.Hour), false, ""},
		{"invalid suffix", "abc", time.Time{}, true, "unsupported duration format"},
		{"invalid day number", "xd", time.Time{}, true, "invalid day duration"},
		{"invalid hour number", "yh", time.Time{}, true, "invalid hour duration"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseSinceDuration(tt.input, now)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				if tt.errMsg != "" && !strings.Contains(err.Error(), tt.errMsg) {
					t.Errorf("error %q should contain %q", err.Error(), tt.errMsg)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !got.Equal(tt.want) {
				t.Errorf("parseSinceDuration(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

// --- metricsCmd tests ---

type metricsMock struct {
	calcFn func(since time.Time) (*observability.Metrics, error)
}

func (m *metricsMock) Calculate(since time.Time) (*observability.Metrics, error) {
	return m.calcFn(since)
}

func TestMetricsCmd_NilCalculator(t *testing.T) {
	orig := MetricsCalc
	defer func() { MetricsCalc = orig }()
	MetricsCalc = nil

	_, err := runCmd(t, metricsCmd)
	if err == nil || !strings.Contains(err.Error(), "not initialized") {
		t.Errorf("expected not initialized error, got %v", err)
	}
}

func TestMetricsCmd_InvalidSinceFormat(t *testing.T) {
	orig := MetricsCalc
	defer func() { MetricsCalc = orig }()
	MetricsCalc = &metricsMock{
		calcFn: func(since time.Time) (*observability.Metrics, error) {
			return &observability.Metrics{}, nil
		},
	}
	setFlags(t, metricsCmd, map[string]string{"since": "abc"})

	_, err := runCmd(t, metricsCmd)
	if err == nil || !strings.Contains(err.Error(), "unsupported duration format") {
		t.Errorf("expected format error, got %v", err)
	}
}

func TestMetricsCmd_Success_TableFormat(t *testing.T) {
	setupBoard(t, sampleWorkspace())
	orig := MetricsCalc
	defer func() { MetricsCalc = orig }()

	var gotSince time.Time
	MetricsCalc = &metricsMock{
		calcFn: func(since time.Time) (*observability.Metrics, error) {
			gotSince = since
			return &observability.Metrics{
				TasksCreated:   5,
				TasksCreatedBy: map[string]int{"manual": 3, "extracted": 2},
				TasksCompleted: 3,
				TaskSwitches:   4,
				EventCount:     42,
			}, nil
		},
	}

	out, err := runCmd(t, metricsCmd)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if want := baseTime.UTC().AddDate(0, 0, -7); !gotSince.Equal(want) {
		t.Errorf("since = %v, want %v", gotSince, want)
	}
	for _, want := range []string{"Events recorded:", "42", "Task switches:", "extracted:", "manual:"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	if strings.Index(out, "extracted:") > strings.Index(out, "manual:") {
		t.Errorf("sources should be sorted:\n%s", out)
	}
}

func TestMetricsCmd_Success_JSONFormat(t *testing.T) {
	orig := MetricsCalc
	defer func() { MetricsCalc = orig }()
	MetricsCalc = &metricsMock{
		calcFn: func(since time.Time) (*observability.Metrics, error) {
			return &observability.Metrics{TasksCreated: 2, EventCount: 10}, nil
		},
	}
	setFlags(t, metricsCmd, map[string]string{"json": "true"})

	out, err := runCmd(t, metricsCmd)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var decoded map[string]any
	if err := json.Unmarshal([]byte(out), &decoded); err != nil {
		t.Fatalf("decoding JSON: %v", err)
	}
	if decoded["event_count"] != float64(10) {
		t.Errorf("event_count = %v, want 10", decoded["event_count"])
	}
}

func TestMetricsCmd_CalculateError(t *testing.T) {
	orig := MetricsCalc
	defer func() { MetricsCalc = orig }()
	MetricsCalc = &metricsMock{
		calcFn: func(since time.Time) (*observability.Metrics, error) {
			return nil, fmt.Errorf("event log corrupted")
		},
	}

	_, err := runCmd(t, metricsCmd)
	if err == nil || !strings.Contains(err.Error(), "calculating metrics") {
		t.Errorf("unexpected error: %v", err)
	}
}
