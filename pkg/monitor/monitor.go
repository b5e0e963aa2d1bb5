// Package monitor watches the temperature stream of a board on the host: it
// keeps the log book, trips the over-temperature guard, raises the watchdog
// alarm when the board goes silent and feeds the history.
package monitor

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/itohio/thermwatch/pkg/config"
	"github.com/itohio/thermwatch/pkg/device"
	"github.com/itohio/thermwatch/pkg/history"
	"github.com/itohio/thermwatch/pkg/sample"
	log "github.com/sirupsen/logrus"
)

// AlertKind tells alerts apart.
type AlertKind int

const (
	AlertWatchdog AlertKind = iota // board silent
	AlertOverTemp                  // guard tripped
)

func (k AlertKind) String() string {
	switch k {
	case AlertWatchdog:
		return "watchdog"
	case AlertOverTemp:
		return "over-temperature"
	}
	return "unknown"
}

// Alert is raised for conditions needing user attention.
type Alert struct {
	Kind    AlertKind
	Time    time.Time
	Message string
	Reading device.Reading // set for AlertOverTemp
}

// Monitor wires a device to the log book, guard, watchdog and history.
type Monitor struct {
	dev       device.Device
	logbook   *Logbook
	guard     *Guard
	watchdog  *Watchdog
	hist      *history.History
	converter sample.Converter

	mu         sync.RWMutex
	thresholds history.Thresholds
	alerts     []func(Alert)
}

// New creates a monitor for dev configured from cfg. logbook and action may
// be nil.
func New(dev device.Device, cfg *config.Config, logbook *Logbook, action Action) *Monitor {
	channels := cfg.Revision().Pins()

	m := &Monitor{
		dev:       dev,
		logbook:   logbook,
		guard:     NewGuard(cfg.Monitor.ShutdownCelsius, action),
		hist:      history.New(cfg.Monitor.History),
		converter: sample.NewConverter(len(channels), device.DefaultBufferSize),
		thresholds: history.Thresholds{
			Warm: cfg.Monitor.WarnCelsius,
			Hot:  cfg.Monitor.HotCelsius,
		},
	}
	m.watchdog = NewWatchdog(cfg.Monitor.WatchdogTimeout, m.silent)
	return m
}

// History returns the frame history fed by Run.
func (m *Monitor) History() *history.History {
	return m.hist
}

// Watchdog returns the watchdog fed by Run.
func (m *Monitor) Watchdog() *Watchdog {
	return m.watchdog
}

// Guard returns the over-temperature guard.
func (m *Monitor) Guard() *Guard {
	return m.guard
}

// Thresholds returns the display thresholds.
func (m *Monitor) Thresholds() history.Thresholds {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.thresholds
}

// Level classifies the hottest value seen on any channel within the history
// window, so a short spike keeps the level raised until it ages out.
func (m *Monitor) Level() (history.Level, int, bool) {
	hottest, ok := m.hist.WindowMax()
	if !ok {
		return history.LevelNormal, 0, false
	}
	return history.Classify(hottest, m.Thresholds()), hottest, true
}

// OnAlert registers a callback for alerts. Callbacks run on the monitor's
// goroutines and should return quickly.
func (m *Monitor) OnAlert(fn func(Alert)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.alerts = append(m.alerts, fn)
}

// Apply updates thresholds and timeouts from a reloaded configuration.
// The channel count and serial settings take effect on the next monitor.
func (m *Monitor) Apply(cfg *config.Config) {
	m.mu.Lock()
	m.thresholds = history.Thresholds{
		Warm: cfg.Monitor.WarnCelsius,
		Hot:  cfg.Monitor.HotCelsius,
	}
	m.mu.Unlock()

	m.guard.SetThreshold(cfg.Monitor.ShutdownCelsius)
	m.watchdog.SetTimeout(cfg.Monitor.WatchdogTimeout)
	m.hist.SetWindow(cfg.Monitor.History)
}

// Run processes the device streams until the readings channel closes or ctx
// is done. The device must already be connected; Run does not close it.
func (m *Monitor) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		m.watchdog.Run(ctx)
	}()

	relay := make(chan device.Reading, device.DefaultBufferSize)
	frames := m.converter(relay)
	go func() {
		defer wg.Done()
		m.hist.ProcessFrames(frames)
	}()

	m.watchdog.Feed()
	err := m.pump(ctx, relay)

	close(relay)
	cancel()
	wg.Wait()
	return err
}

func (m *Monitor) pump(ctx context.Context, relay chan<- device.Reading) error {
	readings := m.dev.Readings()
	errs := m.dev.Errors()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case err := <-errs:
			m.watchdog.Feed()
			log.WithError(err).Warn("bad data from board")
			if m.logbook != nil {
				m.logbook.Error(err)
			}
		case r, ok := <-readings:
			if !ok {
				log.Info("device stream closed")
				return nil
			}
			m.watchdog.Feed()
			m.handle(ctx, r)
			select {
			case relay <- r:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}
}

func (m *Monitor) handle(ctx context.Context, r device.Reading) {
	if m.logbook != nil {
		m.logbook.Reading(r)
	}

	if !m.guard.Check(r) {
		return
	}

	// The record and the alert go out before the action, which may power
	// the host off.
	threshold := m.guard.Threshold()
	if m.logbook != nil {
		m.logbook.Shutdown(r, threshold)
	}
	msg := fmt.Sprintf("Temp %d exceeded %dC", r.Channel, threshold)
	m.raise(Alert{Kind: AlertOverTemp, Time: r.Timestamp, Message: msg, Reading: r})

	if err := m.guard.Act(ctx, r); err != nil {
		log.WithError(err).Error("shutdown action failed")
		if m.logbook != nil {
			m.logbook.Error(err)
		}
	}
}

func (m *Monitor) silent(silence time.Duration) {
	msg := fmt.Sprintf("No data received for %s - possible sensor system failure", silence.Round(100*time.Millisecond))
	log.Error(msg)
	if m.logbook != nil {
		m.logbook.Error(errors.New(msg))
	}
	m.raise(Alert{Kind: AlertWatchdog, Time: time.Now(), Message: msg})
}

func (m *Monitor) raise(a Alert) {
	m.mu.RLock()
	alerts := make([]func(Alert), len(m.alerts))
	copy(alerts, m.alerts)
	m.mu.RUnlock()

	for _, fn := range alerts {
		fn(a)
	}
}
