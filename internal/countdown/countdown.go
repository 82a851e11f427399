// Package countdown computes event countdown deadlines and drives the
// per-event tick/complete timers.
package countdown

import (
	"fmt"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

// TargetTime is the instant the countdown started at start ends.
func TargetTime(start time.Time, durationSeconds int) time.Time {
	return start.Add(time.Duration(durationSeconds) * time.Second)
}

// Remaining never returns a negative duration.
func Remaining(target, now time.Time) time.Duration {
	left := target.Sub(now)
	if left < 0 {
		return 0
	}
	return left
}

func ValidateDuration(seconds, min, max int) error {
	if seconds < min || seconds > max {
		return fmt.Errorf("countdown duration must be between %d and %d seconds", min, max)
	}
	return nil
}

type Handlers struct {
	OnTick     func(remaining time.Duration)
	OnComplete func()
}

type entry struct {
	stop chan struct{}
}

// Scheduler runs at most one countdown per key. Starting a key again replaces
// the running countdown.
type Scheduler struct {
	clock   clockwork.Clock
	mu      sync.Mutex
	entries map[string]*entry
}

func NewScheduler(clock clockwork.Clock) *Scheduler {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Scheduler{
		clock:   clock,
		entries: make(map[string]*entry),
	}
}

func (s *Scheduler) Clock() clockwork.Clock {
	return s.clock
}

func (s *Scheduler) Start(key string, target time.Time, tick time.Duration, handlers Handlers) {
	e := &entry{stop: make(chan struct{})}
	s.mu.Lock()
	if existing, ok := s.entries[key]; ok {
		close(existing.stop)
	}
	s.entries[key] = e
	s.mu.Unlock()

	remaining := Remaining(target, s.clock.Now())
	timer := s.clock.NewTimer(remaining)
	var ticks <-chan time.Time
	var ticker clockwork.Ticker
	if tick > 0 && remaining > tick {
		ticker = s.clock.NewTicker(tick)
		ticks = ticker.Chan()
	}

	go func() {
		defer timer.Stop()
		if ticker != nil {
			defer ticker.Stop()
		}
		for {
			select {
			case <-e.stop:
				return
			case <-ticks:
				left := Remaining(target, s.clock.Now())
				if left > 0 && handlers.OnTick != nil {
					handlers.OnTick(left)
				}
			case <-timer.Chan():
				if !s.finish(key, e) {
					return
				}
				if handlers.OnComplete != nil {
					handlers.OnComplete()
				}
				return
			}
		}
	}()
}

func (s *Scheduler) finish(key string, e *entry) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.entries[key]
	if !ok || current != e {
		return false
	}
	delete(s.entries, key)
	return true
}

func (s *Scheduler) Cancel(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok := s.entries[key]; ok {
		close(e.stop)
		delete(s.entries, key)
	}
}

func (s *Scheduler) Active(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.entries[key]
	return ok
}

// Stop cancels every running countdown.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for key, e := range s.entries {
		close(e.stop)
		delete(s.entries, key)
	}
}
