package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

const loginCodeSubject = "taskdesk login code"

// HTTPMailer sends login codes through a transactional mail API that
// accepts {from, to, subject, html} with bearer authentication.
type HTTPMailer struct {
	endpoint string
	apiKey   string
	from     string
	client   *http.Client
}

// NewHTTPMailer creates a mailer posting to endpoint.
func NewHTTPMailer(endpoint, apiKey, from string) *HTTPMailer {
	return &HTTPMailer{
		endpoint: endpoint,
		apiKey:   apiKey,
		from:     from,
		client:   &http.Client{Timeout: 15 * time.Second},
	}
}

type mailRequest struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	HTML    string   `json:"html"`
}

// SendCode delivers code to email.
func (m *HTTPMailer) SendCode(ctx context.Context, email, code string, validFor time.Duration) error {
	body, err := json.Marshal(mailRequest{
		From:    m.from,
		To:      []string{email},
		Subject: loginCodeSubject,
		HTML:    loginCodeHTML(code, validFor),
	})
	if err != nil {
		return fmt.Errorf("marshaling mail: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("creating mail request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if m.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+m.apiKey)
	}

	resp, err := m.client.Do(req)
	if err != nil {
		return fmt.Errorf("sending mail: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("mail API returned status %d: %s", resp.StatusCode, bytes.TrimSpace(detail))
	}
	return nil
}

func loginCodeHTML(code string, validFor time.Duration) string {
	return fmt.Sprintf(`<div style="font-family: sans-serif; max-width: 480px; margin: 0 auto; padding: 20px;">
<h2>Your login code</h2>
<p>Enter this code to sign in:</p>
<div style="font-size: 32px; font-weight: bold; letter-spacing: 8px; padding: 20px; background: #f5f5f5; text-align: center;">%s</div>
<p style="color: #666; font-size: 14px;">The code is valid for %d minutes.</p>
<p style="color: #666; font-size: 14px;">If you did not request it, ignore this email.</p>
</div>`, code, int(validFor.Minutes()))
}

// LogMailer writes codes to the logger instead of sending them. It is used
// when no mail endpoint is configured.
type LogMailer struct {
	logger *slog.Logger
}

// NewLogMailer creates a LogMailer.
func NewLogMailer(logger *slog.Logger) *LogMailer {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogMailer{logger: logger}
}

// SendCode logs the code at info level.
func (m *LogMailer) SendCode(_ context.Context, email, code string, validFor time.Duration) error {
	m.logger.Info("login code issued", "email", email, "code", code, "valid_for", validFor.String())
	return nil
}
