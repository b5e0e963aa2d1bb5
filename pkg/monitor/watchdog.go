package monitor

import (
	"context"
	"sync"
	"time"
)

const (
	// DefaultWatchdogTimeout is how long the board may stay silent.
	DefaultWatchdogTimeout = 2500 * time.Millisecond
	// WatchdogPoll is how often Run checks for silence.
	WatchdogPoll = 100 * time.Millisecond
)

// Watchdog raises an alarm when no data arrived for longer than its timeout.
// It fires once and re-arms on the next Feed.
type Watchdog struct {
	mu      sync.Mutex
	timeout time.Duration
	now     func() time.Time
	last    time.Time
	armed   bool
	fire    func(silence time.Duration)
}

// NewWatchdog creates an armed watchdog. fire is called from Check (and so
// from Run's goroutine) with the length of the silence.
func NewWatchdog(timeout time.Duration, fire func(silence time.Duration)) *Watchdog {
	if timeout <= 0 {
		timeout = DefaultWatchdogTimeout
	}
	return &Watchdog{
		timeout: timeout,
		now:     time.Now,
		last:    time.Now(),
		armed:   true,
		fire:    fire,
	}
}

// SetClock replaces the time source and restarts the silence period.
func (w *Watchdog) SetClock(now func() time.Time) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.now = now
	w.last = now()
}

// SetTimeout changes the allowed silence.
func (w *Watchdog) SetTimeout(timeout time.Duration) {
	if timeout <= 0 {
		return
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	w.timeout = timeout
}

// Feed records that data arrived and re-arms the watchdog.
func (w *Watchdog) Feed() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.last = w.now()
	w.armed = true
}

// Check fires the alarm if the watchdog is armed and the silence exceeds the
// timeout. It reports whether the alarm fired.
func (w *Watchdog) Check() bool {
	w.mu.Lock()
	silence := w.now().Sub(w.last)
	if !w.armed || silence <= w.timeout {
		w.mu.Unlock()
		return false
	}
	w.armed = false
	fire := w.fire
	w.mu.Unlock()

	if fire != nil {
		fire(silence)
	}
	return true
}

// Run calls Check every WatchdogPoll until ctx is done.
func (w *Watchdog) Run(ctx context.Context) error {
	ticker := time.NewTicker(WatchdogPoll)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			w.Check()
		}
	}
}
