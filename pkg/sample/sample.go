// Package sample groups per-line readings from a board into frames, one per
// acquisition cycle.
package sample

import (
	"time"

	"github.com/itohio/thermwatch/pkg/device"
	log "github.com/sirupsen/logrus"
)

// Frame holds one acquisition cycle: the value of every channel at the time
// the cycle started. Channels that did not report are not Valid.
type Frame struct {
	Timestamp time.Time
	Celsius   []int
	Valid     []bool
}

// NewFrame returns an empty frame for n channels.
func NewFrame(n int, ts time.Time) Frame {
	return Frame{
		Timestamp: ts,
		Celsius:   make([]int, n),
		Valid:     make([]bool, n),
	}
}

// Max returns the highest valid channel value. ok is false for an empty frame.
func (f Frame) Max() (celsius int, ok bool) {
	for i, v := range f.Valid {
		if !v {
			continue
		}
		if !ok || f.Celsius[i] > celsius {
			celsius = f.Celsius[i]
			ok = true
		}
	}
	return celsius, ok
}

// Count returns the number of channels that reported.
func (f Frame) Count() int {
	n := 0
	for _, v := range f.Valid {
		if v {
			n++
		}
	}
	return n
}

// Converter is a function type that converts a Reading channel to a Frame channel.
type Converter func(in <-chan device.Reading) <-chan Frame

// NewConverter creates a converter that assembles frames for a board with the
// given number of channels. A frame is emitted once every channel has
// reported or when the channel index wraps around, whichever comes first.
// Readings for unknown channels are dropped. The output is closed after the
// input closes, flushing a partial frame.
func NewConverter(channels int, bufSize int) Converter {
	if bufSize <= 0 {
		bufSize = 100
	}

	return func(in <-chan device.Reading) <-chan Frame {
		out := make(chan Frame, bufSize)

		go func() {
			defer close(out)

			var a assembler
			a.channels = channels
			emit := func(f Frame) {
				select {
				case out <- f:
				case <-time.After(time.Second):
					log.Warn("converter output channel full, dropping frame")
				}
			}

			for r := range in {
				if f, ok := a.add(r); ok {
					emit(f)
				}
			}
			if f, ok := a.flush(); ok {
				emit(f)
			}
		}()

		return out
	}
}

type assembler struct {
	channels int
	frame    Frame
	count    int
	last     int
}

// add stores r and returns a completed frame, if any.
func (a *assembler) add(r device.Reading) (Frame, bool) {
	if r.Channel < 0 || r.Channel >= a.channels {
		log.WithField("channel", r.Channel).Debug("reading for unknown channel dropped")
		return Frame{}, false
	}

	var done Frame
	var ok bool
	if a.count > 0 && r.Channel <= a.last {
		done, ok = a.flush()
	}

	if a.count == 0 {
		a.frame = NewFrame(a.channels, r.Timestamp)
	}
	a.frame.Celsius[r.Channel] = r.Celsius
	a.frame.Valid[r.Channel] = true
	a.count++
	a.last = r.Channel

	if a.count == a.channels {
		// After a wrap count is 1, so done is never pending here.
		return a.flush()
	}
	return done, ok
}

func (a *assembler) flush() (Frame, bool) {
	if a.count == 0 {
		return Frame{}, false
	}
	f := a.frame
	a.frame = Frame{}
	a.count = 0
	return f, true
}
