package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestHTTPMailer_SendCode(t *testing.T) {
	var got mailRequest
	var auth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		body, _ := io.ReadAll(r.Body)
		json.Unmarshal(body, &got)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	m := NewHTTPMailer(srv.URL, "mail-key", "noreply@example.com")
	if err := m.SendCode(context.Background(), "a@example.com", "123456", 5*time.Minute); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if auth != "Bearer mail-key" {
		t.Errorf("Authorization = %q", auth)
	}
	if got.From != "noreply@example.com" || len(got.To) != 1 || got.To[0] != "a@example.com" {
		t.Errorf("request = %+v", got)
	}
	if got.Subject != loginCodeSubject {
		t.Errorf("Subject = %q", got.Subject)
	}
	if !strings.Contains(got.HTML, "123456") || !strings.Contains(got.HTML, "5 minutes") {
		t.Errorf("HTML missing code or validity:\n%s", got.HTML)
	}
}

func TestHTTPMailer_ErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		io.WriteString(w, "invalid recipient")
	}))
	defer srv.Close()

	err := NewHTTPMailer(srv.URL, "", "x@example.com").SendCode(context.Background(), "a@example.com", "123456", time.Minute)
	if err == nil || !strings.Contains(err.Error(), "422") || !strings.Contains(err.Error(), "invalid recipient") {
		t.Errorf("err = %v", err)
	}
}

func TestLogMailer_SendCode(t *testing.T) {
	var buf bytes.Buffer
	m := NewLogMailer(slog.New(slog.NewTextHandler(&buf, nil)))
	if err := m.SendCode(context.Background(), "a@example.com", "654321", 5*time.Minute); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, "a@example.com") || !strings.Contains(out, "654321") {
		t.Errorf("log output missing details: %s", out)
	}
}
