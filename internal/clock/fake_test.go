package clock

import (
	"testing"
	"time"
)

func TestFakeClock_AdvanceFiresDueCallbacks(t *testing.T) {
	start := time.Date(2025, 1, 15, 10, 0, 0, 0, time.UTC)
	c := Fake(start)

	var fired []string
	c.AfterFunc(2*time.Second, func() { fired = append(fired, "second") })
	c.AfterFunc(time.Second, func() { fired = append(fired, "first") })
	c.AfterFunc(10*time.Second, func() { fired = append(fired, "late") })

	c.Advance(5 * time.Second)

	if len(fired) != 2 || fired[0] != "first" || fired[1] != "second" {
		t.Fatalf("expected [first second], got %v", fired)
	}
	if c.PendingCount() != 1 {
		t.Errorf("expected 1 pending callback, got %d", c.PendingCount())
	}
	if !c.Now().Equal(start.Add(5 * time.Second)) {
		t.Errorf("expected now %v, got %v", start.Add(5*time.Second), c.Now())
	}
}

func TestFakeClock_StopPreventsFiring(t *testing.T) {
	c := Fake(time.Date(2025, 1, 15, 10, 0, 0, 0, time.UTC))

	fired := false
	timer := c.AfterFunc(time.Second, func() { fired = true })
	if !timer.Stop() {
		t.Fatal("expected Stop to report an active timer")
	}
	if timer.Stop() {
		t.Error("second Stop should report false")
	}

	c.Advance(time.Minute)
	if fired {
		t.Error("stopped timer fired")
	}
}
