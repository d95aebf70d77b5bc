package observability

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestSlackNotifier_NoAlerts(t *testing.T) {
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	n := NewSlackNotifier(srv.URL)
	err := n.Notify(context.Background(), nil)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if called {
		t.Fatal("expected no HTTP request for empty alerts")
	}

	err = n.Notify(context.Background(), []Alert{})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if called {
		t.Fatal("expected no HTTP request for empty alerts slice")
	}
}

func TestSlackNotifier_SendsAlerts(t *testing.T) {
	var receivedBody []byte
	var receivedContentType string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		receivedContentType = r.Header.Get("Content-Type")
		var err error
		receivedBody, err = io.ReadAll(r.Body)
		if err != nil {
			t.Fatalf("reading request body: %v", err)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	n := NewSlackNotifier(srv.URL)
	alerts := []Alert{
		{
			ID:          "timer-t1",
			Condition:   ConditionForgottenTimer,
			Severity:    SeverityHigh,
			Message:     `timer for "Write report" has been running for 9h`,
			TaskID:      "t1",
			TriggeredAt: time.Date(2025, 1, 15, 10, 30, 0, 0, time.Local),
		},
		{
			ID:          "waiting-t2",
			Condition:   ConditionStaleWaiting,
			Severity:    SeverityMedium,
			Message:     `"Vendor reply" has been waiting for more than 3 days`,
			TaskID:      "t2",
			TriggeredAt: time.Date(2025, 1, 15, 10, 30, 0, 0, time.Local),
		},
	}

	err := n.Notify(context.Background(), alerts)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if receivedContentType != "application/json" {
		t.Errorf("expected Content-Type application/json, got %s", receivedContentType)
	}

	var msg slackMessage
	if err := json.Unmarshal(receivedBody, &msg); err != nil {
		t.Fatalf("unmarshaling request body: %v", err)
	}

	wantTypes := []string{"header", "context", "divider", "section", "context", "divider", "section", "context"}
	if len(msg.Blocks) != len(wantTypes) {
		t.Fatalf("expected %d blocks, got %d", len(wantTypes), len(msg.Blocks))
	}
	for i, want := range wantTypes {
		if msg.Blocks[i].Type != want {
			t.Errorf("block %d type = %s, want %s", i, msg.Blocks[i].Type, want)
		}
	}
	if msg.Blocks[0].Text == nil || msg.Blocks[0].Text.Text != "taskdesk alerts" {
		t.Errorf("expected header text 'taskdesk alerts', got %v", msg.Blocks[0].Text)
	}
	if got := msg.Blocks[1].Elements[0].Text; got != "2 alert(s): 1 high, 1 medium" {
		t.Errorf("summary = %q", got)
	}
	if got := msg.Blocks[4].Elements[0].Text; got != "task `t1`" {
		t.Errorf("task context = %q", got)
	}

	// Verify alert content is present in the section blocks
	body := string(receivedBody)
	if !strings.Contains(body, "Write report") {
		t.Error("expected body to contain the first task name")
	}
	if !strings.Contains(body, "Vendor reply") {
		t.Error("expected body to contain the second task name")
	}
	if !strings.Contains(body, "2025-01-15 10:30") {
		t.Error("expected body to contain triggered time")
	}
}

func TestSlackNotifier_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	n := NewSlackNotifier(srv.URL)
	alerts := []Alert{
		{
			ID:          "test-alert",
			Condition:   ConditionForgottenTimer,
			Severity:    SeverityHigh,
			Message:     "test alert",
			TriggeredAt: time.Now().UTC(),
		},
	}

	err := n.Notify(context.Background(), alerts)
	if err == nil {
		t.Fatal("expected error for 500 response, got nil")
	}
	if !strings.Contains(err.Error(), "500") {
		t.Errorf("expected error to contain status code 500, got: %s", err.Error())
	}
}

func TestSlackNotifier_SeverityEmojis(t *testing.T) {
	tests := []struct {
		severity AlertSeverity
		emoji    string
	}{
		{SeverityHigh, "\U0001f534"},
		{SeverityMedium, "\U0001f7e1"},
		{SeverityLow, "\U0001f535"},
	}

	for _, tt := range tests {
		t.Run(string(tt.severity), func(t *testing.T) {
			var receivedBody []byte
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				var err error
				receivedBody, err = io.ReadAll(r.Body)
				if err != nil {
					t.Fatalf("reading request body: %v", err)
				}
				w.WriteHeader(http.StatusOK)
			}))
			defer srv.Close()

			n := NewSlackNotifier(srv.URL)
			alerts := []Alert{
				{
					ID:          "emoji-test",
					Condition:   "test",
					Severity:    tt.severity,
					Message:     "test message",
					TriggeredAt: time.Now().UTC(),
				},
			}

			err := n.Notify(context.Background(), alerts)
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			body := string(receivedBody)
			if !strings.Contains(body, tt.emoji) {
				t.Errorf("expected body to contain emoji %s for severity %s", tt.emoji, tt.severity)
			}
		})
	}
}

func TestSummarizeAlerts(t *testing.T) {
	alerts := []Alert{
		{Severity: SeverityLow},
		{Severity: SeverityHigh},
		{Severity: SeverityLow},
	}
	if got := summarizeAlerts(alerts); got != "3 alert(s): 1 high, 2 low" {
		t.Errorf("summarizeAlerts() = %q", got)
	}
}

func TestSlackNotifier_OmitsTaskContextWithoutTaskID(t *testing.T) {
	msg := (&slackNotifier{}).buildMessage([]Alert{{
		ID:        "open-tasks",
		Condition: ConditionTooManyOpen,
		Severity:  SeverityLow,
		Message:   "31 open tasks (threshold 30)",
	}})
	if len(msg.Blocks) != 4 {
		t.Fatalf("expected 4 blocks, got %d", len(msg.Blocks))
	}
	if msg.Blocks[3].Type != "section" {
		t.Errorf("last block type = %s, want section", msg.Blocks[3].Type)
	}
}
