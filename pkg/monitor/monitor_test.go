package monitor

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/itohio/thermwatch/pkg/config"
	"github.com/itohio/thermwatch/pkg/device"
	"github.com/itohio/thermwatch/pkg/history"
	"github.com/itohio/thermwatch/pkg/report"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeDevice is a connected device fed by the test.
type fakeDevice struct {
	readings chan device.Reading
	errs     chan error
}

func newFakeDevice() *fakeDevice {
	return &fakeDevice{
		readings: make(chan device.Reading, 64),
		errs:     make(chan error, 8),
	}
}

func (d *fakeDevice) Connect() error                  { return nil }
func (d *fakeDevice) Close() error                    { return nil }
func (d *fakeDevice) Readings() <-chan device.Reading { return d.readings }
func (d *fakeDevice) Errors() <-chan error            { return d.errs }
func (d *fakeDevice) IsConnected() bool               { return true }

// syncBuffer is a bytes.Buffer safe for the monitor goroutine and the test.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func revisionA() *config.Config {
	cfg := config.Default()
	cfg.Board.Revision = "A"
	return cfg
}

func TestMonitor_Pipeline(t *testing.T) {
	dev := newFakeDevice()
	var logs syncBuffer
	var shutdowns []device.Reading
	action := func(_ context.Context, r device.Reading) error {
		shutdowns = append(shutdowns, r)
		return nil
	}

	m := New(dev, revisionA(), NewLogbook(&logs), action)

	var alerts []Alert
	var mu sync.Mutex
	m.OnAlert(func(a Alert) {
		mu.Lock()
		alerts = append(alerts, a)
		mu.Unlock()
	})

	now := time.Unix(1000, 0)
	for cycle, values := range [][]int{{30, 31, 32, 33}, {40, 41, 102, 43}} {
		for ch, v := range values {
			dev.readings <- device.Reading{
				Timestamp: now.Add(time.Duration(cycle) * time.Second),
				Channel:   ch,
				Celsius:   v,
			}
		}
	}
	dev.errs <- report.ErrMalformed
	close(dev.readings)

	done := make(chan error, 1)
	go func() { done <- m.Run(context.Background()) }()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after the device stream closed")
	}

	frames := m.History().Frames()
	require.Len(t, frames, 2)
	assert.Equal(t, []int{30, 31, 32, 33}, frames[0].Celsius)
	assert.Equal(t, []int{40, 41, 102, 43}, frames[1].Celsius)

	level, hottest, ok := m.Level()
	require.True(t, ok)
	assert.Equal(t, 102, hottest)
	assert.Equal(t, history.LevelHot, level)

	require.Len(t, shutdowns, 1)
	assert.Equal(t, 2, shutdowns[0].Channel)

	mu.Lock()
	require.Len(t, alerts, 1)
	assert.Equal(t, AlertOverTemp, alerts[0].Kind)
	assert.Equal(t, "Temp 2 exceeded 100C", alerts[0].Message)
	mu.Unlock()

	out := logs.String()
	assert.Equal(t, 8, strings.Count(out, " - Temp "))
	assert.Contains(t, out, " - Temp 2: 102C\n")
	assert.Contains(t, out, " - Shutdown triggered: Temp 2 exceeded 100C\n")
}

func TestMonitor_ShutdownRecordedBeforeAction(t *testing.T) {
	dev := newFakeDevice()
	var logs syncBuffer
	var atAction string
	action := func(context.Context, device.Reading) error {
		atAction = logs.String()
		return errors.New("shutdown refused")
	}

	m := New(dev, revisionA(), NewLogbook(&logs), action)

	var alerted bool
	m.OnAlert(func(a Alert) {
		if a.Kind == AlertOverTemp {
			alerted = atAction == ""
		}
	})

	dev.readings <- device.Reading{Timestamp: time.Unix(1000, 0), Channel: 1, Celsius: 120}
	close(dev.readings)

	done := make(chan error, 1)
	go func() { done <- m.Run(context.Background()) }()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after the device stream closed")
	}

	assert.Contains(t, atAction, " - Temp 1: 120C\n")
	assert.Contains(t, atAction, " - Shutdown triggered: Temp 1 exceeded 100C\n")
	assert.True(t, alerted, "alert should be raised before the action runs")
	assert.Contains(t, logs.String(), "ERROR: shutdown refused")
}

func TestMonitor_LevelUsesWindowMax(t *testing.T) {
	dev := newFakeDevice()
	m := New(dev, revisionA(), nil, nil)

	now := time.Unix(1000, 0)
	for cycle, values := range [][]int{{30, 85, 30, 30}, {30, 31, 30, 30}, {30, 32, 30, 30}} {
		for ch, v := range values {
			dev.readings <- device.Reading{
				Timestamp: now.Add(time.Duration(cycle) * time.Second),
				Channel:   ch,
				Celsius:   v,
			}
		}
	}
	close(dev.readings)

	require.NoError(t, m.Run(context.Background()))

	level, hottest, ok := m.Level()
	require.True(t, ok)
	assert.Equal(t, 85, hottest)
	assert.Equal(t, history.LevelHot, level)
}

func TestMonitor_BadDataLogged(t *testing.T) {
	dev := newFakeDevice()
	var logs syncBuffer
	m := New(dev, revisionA(), NewLogbook(&logs), nil)

	dev.errs <- errors.New("malformed report line: invalid prefix")

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- m.Run(ctx) }()

	require.Eventually(t, func() bool {
		return strings.Contains(logs.String(), "ERROR: malformed report line")
	}, 5*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestMonitor_WatchdogAlert(t *testing.T) {
	dev := newFakeDevice()
	cfg := revisionA()
	cfg.Monitor.WatchdogTimeout = 50 * time.Millisecond
	var logs syncBuffer
	m := New(dev, cfg, NewLogbook(&logs), nil)

	alerts := make(chan Alert, 4)
	m.OnAlert(func(a Alert) { alerts <- a })

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go m.Run(ctx)

	select {
	case a := <-alerts:
		assert.Equal(t, AlertWatchdog, a.Kind)
		assert.Contains(t, a.Message, "No data received")
	case <-time.After(5 * time.Second):
		t.Fatal("watchdog alert not raised")
	}
	assert.Contains(t, logs.String(), "ERROR: No data received")
}

func TestMonitor_Apply(t *testing.T) {
	m := New(newFakeDevice(), config.Default(), nil, nil)
	assert.Equal(t, history.Thresholds{Warm: 65, Hot: 80}, m.Thresholds())

	cfg := config.Default()
	cfg.Monitor.WarnCelsius = 50
	cfg.Monitor.HotCelsius = 60
	cfg.Monitor.ShutdownCelsius = 90
	m.Apply(cfg)

	assert.Equal(t, history.Thresholds{Warm: 50, Hot: 60}, m.Thresholds())
	assert.Equal(t, 90, m.Guard().Threshold())
}

func TestAlertKind_String(t *testing.T) {
	assert.Equal(t, "watchdog", AlertWatchdog.String())
	assert.Equal(t, "over-temperature", AlertOverTemp.String())
	assert.Equal(t, "unknown", AlertKind(7).String())
}
