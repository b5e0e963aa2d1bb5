package device

import (
	"context"
	"errors"
	"io"

	"github.com/itohio/thermwatch/pkg/acquire"
	"github.com/itohio/thermwatch/pkg/adc"
	"github.com/itohio/thermwatch/pkg/channel"
	"github.com/itohio/thermwatch/pkg/config"
	log "github.com/sirupsen/logrus"
)

// Mock simulates a board for testing and development. It runs the real
// acquisition loop over simulated thermistors and parses the text it prints,
// so everything after the UART behaves as with hardware.
type Mock struct {
	lifecycle

	reg    *channel.Registry
	sim    *adc.Simulator
	opts   acquire.Options
	clock  acquire.Clock
	stream *stream
	pr     *io.PipeReader
}

// NewMock creates a mocked board. A nil cfg uses the default mock settings
// and a nil registry the revision B channel list.
func NewMock(cfg *config.MockConfig, reg *channel.Registry, opts acquire.Options) *Mock {
	if reg == nil {
		reg = channel.New(channel.RevisionB)
	}
	if opts.Logger == nil {
		opts.Logger = log.StandardLogger()
	}

	limits := DefaultLimits()
	limits.Channels = reg.Len()

	m := &Mock{
		reg:    reg,
		sim:    adc.NewSimulator(cfg, reg.Constants()),
		opts:   opts,
		clock:  acquire.SystemClock{},
		stream: newStream(limits, DefaultBufferSize),
	}
	m.init()
	return m
}

// Simulator exposes the thermal model driving the mock.
func (m *Mock) Simulator() *adc.Simulator {
	return m.sim
}

// Connect starts the simulated board.
func (m *Mock) Connect() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.begin(); err != nil {
		return err
	}

	pr, pw := io.Pipe()
	m.pr = pr
	m.connected = true

	loop := acquire.New(m.reg, m.sim, pw, m.clock, m.opts)

	m.wg.Add(2)
	go func() {
		defer m.wg.Done()
		err := loop.Run(m.ctx)
		if err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, io.ErrClosedPipe) {
			log.WithError(err).Error("mock board stopped")
		}
		pw.CloseWithError(err)
	}()
	go func() {
		defer m.wg.Done()
		m.stream.consume(m.ctx, pr)
	}()

	return nil
}

// Close stops the simulated board and waits for it to wind down.
func (m *Mock) Close() error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil
	}
	m.closed = true
	m.cancel()

	if !m.connected {
		close(m.stream.readings)
		m.mu.Unlock()
		return nil
	}

	m.pr.Close()
	m.connected = false
	m.mu.Unlock()

	m.wg.Wait()
	return nil
}

// Readings returns the channel of validated readings.
func (m *Mock) Readings() <-chan Reading {
	return m.stream.readings
}

// Errors returns the channel of rejected lines.
func (m *Mock) Errors() <-chan error {
	return m.stream.errs
}
