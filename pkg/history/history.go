// Package history keeps a time window of temperature frames and notifies
// listeners when it changes.
package history

import (
	"sync"
	"time"

	"github.com/itohio/thermwatch/pkg/sample"
)

// DefaultWindow is how much history is kept when none is configured.
const DefaultWindow = 10 * time.Minute

var _ Recorder = (*History)(nil)

// Recorder processes frames and exposes the buffered window.
type Recorder interface {
	ProcessFrames(input <-chan sample.Frame)
	Frames() []sample.Frame               // Oldest first
	Latest() (sample.Frame, bool)         // Most recent frame
	Max() (int, bool)                     // Hottest channel of the most recent frame
	OnUpdate(func(frames []sample.Frame)) // Register callback for updates
}

// History implements Recorder. Frames older than the window, measured from
// the newest frame's timestamp, are dropped.
type History struct {
	mu     sync.RWMutex
	frames []sample.Frame
	window time.Duration

	callbacks []func(frames []sample.Frame)
	cbMu      sync.RWMutex

	// Set when the input channel closes, suppresses further callbacks.
	shutdown bool
}

// New creates a history keeping window worth of frames.
func New(window time.Duration) *History {
	if window <= 0 {
		window = DefaultWindow
	}
	return &History{
		frames: make([]sample.Frame, 0),
		window: window,
	}
}

// SetWindow changes the window. It applies from the next frame on.
func (h *History) SetWindow(window time.Duration) {
	if window <= 0 {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	h.window = window
}

// ProcessFrames consumes frames until input closes, then stops notifying.
func (h *History) ProcessFrames(input <-chan sample.Frame) {
	for f := range input {
		h.processFrame(f)
	}
	h.mu.Lock()
	h.shutdown = true
	h.mu.Unlock()
}

func (h *History) processFrame(f sample.Frame) {
	h.mu.Lock()
	h.frames = append(h.frames, f)

	cutoff := f.Timestamp.Add(-h.window)
	drop := 0
	for drop < len(h.frames) && !h.frames[drop].Timestamp.After(cutoff) {
		drop++
	}
	if drop > 0 {
		h.frames = append(h.frames[:0], h.frames[drop:]...)
	}

	notify := !h.shutdown
	h.mu.Unlock()

	if notify {
		h.notifyCallbacks()
	}
}

// Frames returns a copy of the buffered frames, oldest first.
func (h *History) Frames() []sample.Frame {
	h.mu.RLock()
	defer h.mu.RUnlock()

	result := make([]sample.Frame, len(h.frames))
	copy(result, h.frames)
	return result
}

// Latest returns the most recent frame.
func (h *History) Latest() (sample.Frame, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if len(h.frames) == 0 {
		return sample.Frame{}, false
	}
	return h.frames[len(h.frames)-1], true
}

// Max returns the hottest channel of the most recent frame.
func (h *History) Max() (int, bool) {
	f, ok := h.Latest()
	if !ok {
		return 0, false
	}
	return f.Max()
}

// Peak returns the hottest value of a channel over the whole window.
func (h *History) Peak(ch int) (int, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	var peak int
	var ok bool
	for _, f := range h.frames {
		if ch < 0 || ch >= len(f.Valid) || !f.Valid[ch] {
			continue
		}
		if !ok || f.Celsius[ch] > peak {
			peak = f.Celsius[ch]
			ok = true
		}
	}
	return peak, ok
}

// WindowMax returns the hottest value of any channel over the whole window.
func (h *History) WindowMax() (int, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	var hottest int
	var ok bool
	for _, f := range h.frames {
		if c, valid := f.Max(); valid && (!ok || c > hottest) {
			hottest = c
			ok = true
		}
	}
	return hottest, ok
}

// Rate returns the average rate of change of a channel over the window in
// degrees per minute, from its oldest to its newest valid value.
func (h *History) Rate(ch int) (float64, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	first, last := -1, -1
	for i, f := range h.frames {
		if ch < 0 || ch >= len(f.Valid) || !f.Valid[ch] {
			continue
		}
		if first < 0 {
			first = i
		}
		last = i
	}
	if first < 0 || first == last {
		return 0, false
	}

	a, b := h.frames[first], h.frames[last]
	dt := b.Timestamp.Sub(a.Timestamp).Minutes()
	if dt <= 0 {
		return 0, false
	}
	return float64(b.Celsius[ch]-a.Celsius[ch]) / dt, true
}

// OnUpdate registers a callback invoked after every frame with a copy of the
// window. Callbacks should return quickly.
func (h *History) OnUpdate(callback func(frames []sample.Frame)) {
	h.cbMu.Lock()
	defer h.cbMu.Unlock()
	h.callbacks = append(h.callbacks, callback)
}

// ResetShutdown allows callbacks again before a new ProcessFrames chain.
func (h *History) ResetShutdown() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.shutdown = false
}

func (h *History) notifyCallbacks() {
	frames := h.Frames()

	h.cbMu.RLock()
	callbacks := make([]func(frames []sample.Frame), len(h.callbacks))
	copy(callbacks, h.callbacks)
	h.cbMu.RUnlock()

	for _, cb := range callbacks {
		if cb != nil {
			cb(frames)
		}
	}
}
