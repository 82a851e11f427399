package countdown

import (
	"context"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
)

func TestTargetTimeAddsDurationExactly(t *testing.T) {
	start := time.Date(2026, 3, 14, 18, 30, 0, 0, time.UTC)
	cases := []struct {
		seconds int
		want    time.Time
	}{
		{300, time.Date(2026, 3, 14, 18, 35, 0, 0, time.UTC)},
		{60, time.Date(2026, 3, 14, 18, 31, 0, 0, time.UTC)},
		{3600, time.Date(2026, 3, 14, 19, 30, 0, 0, time.UTC)},
	}
	for _, tc := range cases {
		if got := TargetTime(start, tc.seconds); !got.Equal(tc.want) {
			t.Fatalf("duration %d: expected %s, got %s", tc.seconds, tc.want, got)
		}
	}
}

func TestValidateDurationBounds(t *testing.T) {
	for _, ok := range []int{60, 300, 3600} {
		if err := ValidateDuration(ok, 60, 3600); err != nil {
			t.Fatalf("expected %d accepted, got %v", ok, err)
		}
	}
	for _, bad := range []int{0, 59, 3601} {
		if err := ValidateDuration(bad, 60, 3600); err == nil {
			t.Fatalf("expected %d rejected", bad)
		}
	}
}

func TestRemainingClampsAtZero(t *testing.T) {
	now := time.Now()
	if got := Remaining(now.Add(-time.Second), now); got != 0 {
		t.Fatalf("expected 0, got %s", got)
	}
	if got := Remaining(now.Add(2*time.Second), now); got != 2*time.Second {
		t.Fatalf("expected 2s, got %s", got)
	}
}

func TestSchedulerTicksThenCompletes(t *testing.T) {
	clock := clockwork.NewFakeClock()
	sched := NewScheduler(clock)
	ticks := make(chan time.Duration, 4)
	done := make(chan struct{})

	sched.Start("ABC123", clock.Now().Add(10*time.Second), 4*time.Second, Handlers{
		OnTick:     func(remaining time.Duration) { ticks <- remaining },
		OnComplete: func() { close(done) },
	})
	waitForWaiters(t, clock, 2)

	clock.Advance(4 * time.Second)
	select {
	case remaining := <-ticks:
		if remaining != 6*time.Second {
			t.Fatalf("expected 6s remaining, got %s", remaining)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for tick")
	}

	clock.Advance(6 * time.Second)
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for completion")
	}
	if sched.Active("ABC123") {
		t.Fatalf("expected countdown to be finished")
	}
}

func TestSchedulerCancelSuppressesCompletion(t *testing.T) {
	clock := clockwork.NewFakeClock()
	sched := NewScheduler(clock)
	done := make(chan struct{}, 1)

	sched.Start("ABC123", clock.Now().Add(5*time.Second), 0, Handlers{
		OnComplete: func() { done <- struct{}{} },
	})
	waitForWaiters(t, clock, 1)
	sched.Cancel("ABC123")
	clock.Advance(10 * time.Second)

	select {
	case <-done:
		t.Fatalf("expected no completion after cancel")
	case <-time.After(100 * time.Millisecond):
	}
}

func TestSchedulerRestartReplacesCountdown(t *testing.T) {
	clock := clockwork.NewFakeClock()
	sched := NewScheduler(clock)
	first := make(chan struct{}, 1)
	second := make(chan struct{}, 1)

	sched.Start("ABC123", clock.Now().Add(5*time.Second), 0, Handlers{
		OnComplete: func() { first <- struct{}{} },
	})
	sched.Start("ABC123", clock.Now().Add(8*time.Second), 0, Handlers{
		OnComplete: func() { second <- struct{}{} },
	})
	clock.Advance(8 * time.Second)

	select {
	case <-second:
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for replacement countdown")
	}
	select {
	case <-first:
		t.Fatalf("replaced countdown must not complete")
	default:
	}
}

func waitForWaiters(t *testing.T, clock *clockwork.FakeClock, n int) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := clock.BlockUntilContext(ctx, n); err != nil {
		t.Fatalf("waiting for %d timers: %v", n, err)
	}
}
