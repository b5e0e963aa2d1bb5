// Package acquire runs the sample → convert → report cycle over every channel
// of a registry. The analog input, the output sink and the pacing clock are
// injected, so the same loop drives the MCU firmware, a Linux host with an
// external ADC and the tests.
package acquire

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/itohio/thermwatch/pkg/channel"
	"github.com/itohio/thermwatch/pkg/report"
	"github.com/itohio/thermwatch/pkg/thermistor"
)

const (
	// DefaultChannelDelay lets the ADC multiplexer settle between channels.
	DefaultChannelDelay = 50 * time.Millisecond
	// DefaultCycleDelay is the pause between full passes over the channels.
	DefaultCycleDelay = time.Second
)

// Sampler reads one raw 10-bit sample from a channel.
type Sampler interface {
	Sample(ch channel.Channel) (uint16, error)
}

// SamplerFunc adapts a function to Sampler.
type SamplerFunc func(ch channel.Channel) (uint16, error)

// Sample implements Sampler.
func (f SamplerFunc) Sample(ch channel.Channel) (uint16, error) {
	return f(ch)
}

// Logger is the subset of a logger the loop needs. *logrus.Logger and
// *log.Logger both satisfy it.
type Logger interface {
	Printf(format string, args ...any)
}

// Reading is the result for one channel in one cycle.
type Reading struct {
	Channel channel.Channel
	thermistor.Reading
}

// Options tune the loop.
type Options struct {
	ChannelDelay time.Duration
	CycleDelay   time.Duration
	Logger       Logger
	// OnReading is called for every converted channel before the next sample.
	OnReading func(Reading)
}

// DefaultOptions returns the pacing used by the given board revision.
// Revision A reads its channels back to back.
func DefaultOptions(rev channel.Revision) Options {
	opts := Options{
		ChannelDelay: DefaultChannelDelay,
		CycleDelay:   DefaultCycleDelay,
	}
	if rev == channel.RevisionA {
		opts.ChannelDelay = 0
	}
	return opts
}

// Loop is the acquisition loop.
type Loop struct {
	reg     *channel.Registry
	sampler Sampler
	out     io.Writer
	clock   Clock
	opts    Options

	buf []byte
}

// New creates a loop. A nil clock means SystemClock.
func New(reg *channel.Registry, sampler Sampler, out io.Writer, clock Clock, opts Options) *Loop {
	if clock == nil {
		clock = SystemClock{}
	}
	return &Loop{
		reg:     reg,
		sampler: sampler,
		out:     out,
		clock:   clock,
		opts:    opts,
		buf:     make([]byte, 0, 32),
	}
}

// Cycle samples every channel once in registry order and writes one report
// line per channel. A channel whose sample fails is logged and skipped.
// Write errors and context cancellation abort the cycle.
func (l *Loop) Cycle(ctx context.Context) ([]Reading, error) {
	readings := make([]Reading, 0, l.reg.Len())
	consts := l.reg.Constants()

	for ch := range l.reg.All() {
		if err := ctx.Err(); err != nil {
			return readings, err
		}

		raw, err := l.sampler.Sample(ch)
		if err != nil {
			l.logf("channel %d (%s): sample failed: %v", ch.Index, ch.Label, err)
		} else {
			r := Reading{Channel: ch, Reading: consts.Read(raw)}
			if err := l.emit(r); err != nil {
				return readings, err
			}
			readings = append(readings, r)
			if l.opts.OnReading != nil {
				l.opts.OnReading(r)
			}
		}

		if l.opts.ChannelDelay > 0 {
			if err := l.clock.Sleep(ctx, l.opts.ChannelDelay); err != nil {
				return readings, err
			}
		}
	}

	return readings, nil
}

// Run repeats Cycle followed by the cycle delay until ctx is done or a cycle
// fails. It never returns nil.
func (l *Loop) Run(ctx context.Context) error {
	for {
		if _, err := l.Cycle(ctx); err != nil {
			return err
		}
		if err := l.clock.Sleep(ctx, l.opts.CycleDelay); err != nil {
			return err
		}
	}
}

func (l *Loop) emit(r Reading) error {
	l.buf = report.Append(l.buf[:0], r.Channel.Index, r.Reported())
	l.buf = append(l.buf, '\n')
	if _, err := l.out.Write(l.buf); err != nil {
		return fmt.Errorf("failed to write report for channel %d: %w", r.Channel.Index, err)
	}
	return nil
}

func (l *Loop) logf(format string, args ...any) {
	if l.opts.Logger != nil {
		l.opts.Logger.Printf(format, args...)
	}
}
