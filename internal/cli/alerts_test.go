package cli

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/valter-silva-au/taskdesk/internal/observability"
)

type notifierMock struct {
	notifyFn func(alerts []observability.Alert) error
}

func (m *notifierMock) Notify(_ context.Context, alerts []observability.Alert) error {
	return m.notifyFn(alerts)
}

func useAlertEngine(t *testing.T) {
	t.Helper()
	orig := AlertEngine
	t.Cleanup(func() { AlertEngine = orig })
	AlertEngine = observability.NewAlertEngine(observability.DefaultAlertThresholds())
}

func TestAlertsCmd_NilEngine(t *testing.T) {
	orig := AlertEngine
	defer func() { AlertEngine = orig }()
	AlertEngine = nil

	_, err := runCmd(t, alertsCmd)
	if err == nil || !strings.Contains(err.Error(), "not initialized") {
		t.Errorf("expected not initialized error, got %v", err)
	}
}

func TestAlertsCmd_NoAlerts(t *testing.T) {
	setupBoard(t, sampleWorkspace())
	useAlertEngine(t)

	out, err := runCmd(t, alertsCmd)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out, "No active alerts.") {
		t.Errorf("unexpected output: %q", out)
	}
}

func TestAlertsCmd_ForgottenTimer(t *testing.T) {
	clk := setupBoard(t, sampleWorkspace())
	useAlertEngine(t)
	if _, err := Board.Start(reportID); err != nil {
		t.Fatal(err)
	}
	clk.Advance(9 * time.Hour)

	out, err := runCmd(t, alertsCmd)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out, "1 active alert(s)") || !strings.Contains(out, "[HIGH]") {
		t.Errorf("unexpected output:\n%s", out)
	}
	if !strings.Contains(out, `"Write report"`) {
		t.Errorf("alert should name the task:\n%s", out)
	}
}

func TestAlertsCmd_Notify(t *testing.T) {
	clk := setupBoard(t, sampleWorkspace())
	useAlertEngine(t)
	if _, err := Board.Start(reportID); err != nil {
		t.Fatal(err)
	}
	clk.Advance(9 * time.Hour)

	origNotifier := Notifier
	defer func() { Notifier = origNotifier }()
	var sent []observability.Alert
	Notifier = &notifierMock{notifyFn: func(alerts []observability.Alert) error {
		sent = alerts
		return nil
	}}
	setFlags(t, alertsCmd, map[string]string{"notify": "true"})

	out, err := runCmd(t, alertsCmd)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(sent) != 1 || sent[0].Condition != observability.ConditionForgottenTimer {
		t.Errorf("unexpected notified alerts: %+v", sent)
	}
	if !strings.Contains(out, "Notification sent.") {
		t.Errorf("unexpected output:\n%s", out)
	}
}

func TestAlertsCmd_NotifyErrors(t *testing.T) {
	clk := setupBoard(t, sampleWorkspace())
	useAlertEngine(t)
	if _, err := Board.Start(reportID); err != nil {
		t.Fatal(err)
	}
	clk.Advance(9 * time.Hour)
	setFlags(t, alertsCmd, map[string]string{"notify": "true"})

	origNotifier := Notifier
	defer func() { Notifier = origNotifier }()

	Notifier = nil
	if _, err := runCmd(t, alertsCmd); err == nil || !strings.Contains(err.Error(), "no notifier configured") {
		t.Errorf("expected missing notifier error, got %v", err)
	}

	Notifier = &notifierMock{notifyFn: func([]observability.Alert) error {
		return fmt.Errorf("webhook returned 500")
	}}
	if _, err := runCmd(t, alertsCmd); err == nil || !strings.Contains(err.Error(), "sending notification") {
		t.Errorf("expected notification error, got %v", err)
	}
}
