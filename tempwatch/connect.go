package main

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/dialog"
	"github.com/itohio/thermwatch/pkg/acquire"
	"github.com/itohio/thermwatch/pkg/channel"
	"github.com/itohio/thermwatch/pkg/device"
	"github.com/itohio/thermwatch/pkg/monitor"
	"github.com/itohio/thermwatch/pkg/sample"
	log "github.com/sirupsen/logrus"
)

// updateInterval throttles scope refreshes.
const updateInterval = 250 * time.Millisecond

// autoConnect reconnects to the last used port when it is still present and
// asks for a port otherwise.
func autoConnect(state *appState) {
	if state.useMock {
		handleConnect(state)
		return
	}

	ports, err := device.Ports()
	if err != nil {
		log.WithError(err).Warn("cannot list serial ports")
	}
	present := slices.ContainsFunc(ports, func(p device.Port) bool {
		return p.Name == state.cfg.Serial.Port
	})
	if present && connect(state) == nil {
		return
	}
	showPortSelector(state)
}

// handleConnect handles the connect/disconnect button click.
func handleConnect(state *appState) {
	if state.chain != nil {
		closeChain(state.chain)
		state.chain = nil
		state.status.SetText("Disconnected")
		return
	}

	if err := connect(state); err != nil {
		dialog.ShowError(err, state.window)
	}
}

// connect starts a new chain for the configured device.
func connect(state *appState) error {
	cfg := state.cfg
	rev := cfg.Revision()
	reg := channel.New(rev)

	limits := device.Limits{
		Channels:   reg.Len(),
		MinCelsius: cfg.Monitor.MinCelsius,
		MaxCelsius: cfg.Monitor.MaxCelsius,
	}

	var dev device.Device
	name := cfg.Serial.Port
	if state.useMock {
		opts := acquire.DefaultOptions(rev)
		opts.ChannelDelay = cfg.Acquisition.ChannelDelay
		opts.CycleDelay = cfg.Acquisition.CycleDelay
		dev = device.NewMock(&cfg.Mock, reg, opts)
		name = "simulated board"
	} else {
		dev = device.New(cfg.Serial.Port, cfg.Serial.BaudRate, device.DefaultBufferSize, limits)
	}

	if err := dev.Connect(); err != nil {
		return fmt.Errorf("failed to connect to %s: %w", name, err)
	}

	logbook, err := monitor.OpenLogbook(cfg.Monitor.LogFile)
	if err != nil {
		dev.Close()
		return err
	}

	mon := monitor.New(dev, cfg, logbook, monitor.CommandAction(cfg.Monitor.ShutdownCommand))
	mon.OnAlert(func(a monitor.Alert) {
		fyne.Do(func() { showAlert(state, a) })
	})
	mon.History().OnUpdate(func(frames []sample.Frame) {
		state.updateMu.Lock()
		now := time.Now()
		if now.Sub(state.lastUpdateTime) < updateInterval {
			state.updateMu.Unlock()
			return
		}
		state.lastUpdateTime = now
		state.updateMu.Unlock()

		level, hottest, ok := mon.Level()
		thresholds := mon.Thresholds()
		fyne.Do(func() {
			state.scopeWidget.UpdateData(frames, thresholds)
			if ok {
				updateTray(state, hottest, thresholds)
				state.status.SetText(fmt.Sprintf("%s: peak %dC (%s)", name, hottest, level))
			}
		})
	})

	ctx, cancel := context.WithCancel(context.Background())
	c := &chain{
		device:  dev,
		monitor: mon,
		logbook: logbook,
		cancel:  cancel,
		done:    make(chan struct{}),
	}
	go func() {
		defer close(c.done)
		if err := mon.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.WithError(err).Error("monitor stopped")
		}
	}()

	state.chain = c
	state.status.SetText("Connected to " + name)
	log.WithField("port", name).Info("monitoring")
	return nil
}

// closeChain stops the monitor, closes the device and the log book.
func closeChain(c *chain) {
	if c == nil {
		return
	}
	c.cancel()
	c.device.Close()
	<-c.done
	if err := c.logbook.Close(); err != nil {
		log.WithError(err).Warn("failed to close log book")
	}
}

func showAlert(state *appState, a monitor.Alert) {
	switch a.Kind {
	case monitor.AlertWatchdog:
		dialog.ShowInformation("Sensor System Error",
			"The thermal sensor system is not responding.\nPlease check all connections.", state.window)
	case monitor.AlertOverTemp:
		dialog.ShowError(fmt.Errorf("over-temperature: %s", a.Message), state.window)
	}
	state.window.Show()
	state.window.RequestFocus()
}
