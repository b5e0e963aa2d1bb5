// Package device connects the host to a thermal-monitoring board and turns
// its report lines into readings.
package device

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/itohio/thermwatch/pkg/report"
	log "github.com/sirupsen/logrus"
)

const (
	// DefaultBaudRate is the UART speed of the board.
	DefaultBaudRate = 115200
	// DefaultBufferSize is the default size for the readings channel buffer.
	DefaultBufferSize = 100
)

var (
	// ErrAlreadyConnected is returned by Connect on an open device.
	ErrAlreadyConnected = errors.New("already connected")
	// ErrClosed is returned by Connect after Close. Devices are single use.
	ErrClosed = errors.New("device closed")
)

// Reading is one validated report line.
type Reading struct {
	Timestamp time.Time // host time the line was received
	Channel   int
	Celsius   int
}

// Limits bound the values accepted from the board.
type Limits struct {
	Channels   int
	MinCelsius int
	MaxCelsius int
}

// DefaultLimits accepts the eight channel board with the plausible range of
// the fitted thermistors.
func DefaultLimits() Limits {
	return Limits{
		Channels:   8,
		MinCelsius: report.MinCelsius,
		MaxCelsius: report.MaxCelsius,
	}
}

// Device defines the interface for boards (real or mocked).
type Device interface {
	Connect() error
	Close() error
	// Readings is closed once the device stops producing data.
	Readings() <-chan Reading
	// Errors carries malformed and out of range lines. It is never closed
	// and drops errors nobody reads.
	Errors() <-chan error
	IsConnected() bool
}

var (
	_ Device = (*Serial)(nil)
	_ Device = (*Mock)(nil)
)

// stream parses a line oriented byte stream into readings.
type stream struct {
	limits   Limits
	readings chan Reading
	errs     chan error
	now      func() time.Time
}

func newStream(limits Limits, bufSize int) *stream {
	if bufSize <= 0 {
		bufSize = DefaultBufferSize
	}
	return &stream{
		limits:   limits,
		readings: make(chan Reading, bufSize),
		errs:     make(chan error, bufSize),
		now:      time.Now,
	}
}

// consume reads r until EOF, a read error or ctx is done, then closes the
// readings channel.
func (s *stream) consume(ctx context.Context, r io.Reader) {
	defer close(s.readings)
	defer func() {
		if rec := recover(); rec != nil {
			log.WithField("panic", rec).Error("line reader crashed")
		}
	}()

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		if ctx.Err() != nil {
			return
		}

		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		reading, err := s.parse(line)
		if err != nil {
			log.WithError(err).Debug("rejected line")
			s.report(err)
			continue
		}

		select {
		case s.readings <- reading:
		default:
			log.WithField("channel", reading.Channel).Warn("readings channel full, dropping reading")
		}
	}

	if err := scanner.Err(); err != nil && ctx.Err() == nil && !errors.Is(err, io.ErrClosedPipe) {
		log.WithError(err).Error("error reading from device")
		s.report(fmt.Errorf("read failed: %w", err))
	}
}

func (s *stream) parse(line string) (Reading, error) {
	l, err := report.Parse(line)
	if err != nil {
		return Reading{}, err
	}
	if err := l.Validate(s.limits.Channels, s.limits.MinCelsius, s.limits.MaxCelsius); err != nil {
		return Reading{}, err
	}
	return Reading{
		Timestamp: s.now(),
		Channel:   l.Channel,
		Celsius:   l.Celsius,
	}, nil
}

func (s *stream) report(err error) {
	select {
	case s.errs <- err:
	default:
	}
}

// lifecycle is the connect/close state shared by Serial and Mock.
type lifecycle struct {
	mu        sync.RWMutex
	ctx       context.Context
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	connected bool
	closed    bool
}

func (l *lifecycle) init() {
	l.ctx, l.cancel = context.WithCancel(context.Background())
}

// begin must be called with mu held.
func (l *lifecycle) begin() error {
	if l.closed {
		return ErrClosed
	}
	if l.connected {
		return ErrAlreadyConnected
	}
	return nil
}

// IsConnected returns whether the device is currently connected.
func (l *lifecycle) IsConnected() bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.connected
}
