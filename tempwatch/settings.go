package main

import (
	"fmt"
	"strconv"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/widget"
	"github.com/itohio/thermwatch/pkg/device"
)

// showSettingsDialog displays a settings dialog with tabs for all configuration options.
func showSettingsDialog(state *appState) {
	tabs := container.NewAppTabs(
		createSerialTab(state),
		createMonitorTab(state),
		createMockTab(state),
	)

	content := container.NewBorder(nil, nil, nil, nil, tabs)
	d := dialog.NewCustom("Settings", "Close", content, state.window)
	d.Resize(fyne.NewSize(500, 420))
	d.Show()
}

// showPortSelector asks for a serial port and connects to it.
func showPortSelector(state *appState) {
	portSelect, portName := newPortSelect(state)
	form := dialog.NewForm("Select Serial Port", "Connect", "Cancel",
		[]*widget.FormItem{{Text: "Serial Port", Widget: portSelect}},
		func(ok bool) {
			if !ok || portSelect.Selected == "" {
				return
			}
			selectPort(state, portName(portSelect.Selected))
		}, state.window)
	form.Show()
}

// newPortSelect lists serial ports with the configured one preselected.
func newPortSelect(state *appState) (*widget.Select, func(string) string) {
	ports, err := device.Ports()
	options := []string{}
	names := make(map[string]string) // display name → port name

	if err == nil {
		for _, port := range ports {
			display := port.Name
			if port.Description != "" && port.Description != port.Name {
				display = fmt.Sprintf("%s (%s)", port.Name, port.Description)
			}
			options = append(options, display)
			names[display] = port.Name
		}
	}

	current := state.cfg.Serial.Port
	currentDisplay := current
	found := false
	for _, opt := range options {
		if names[opt] == current {
			currentDisplay = opt
			found = true
			break
		}
	}
	if !found && current != "" {
		options = append(options, current)
		names[current] = current
	}

	sel := widget.NewSelect(options, nil)
	if currentDisplay != "" {
		sel.SetSelected(currentDisplay)
	}
	return sel, func(display string) string {
		if name := names[display]; name != "" {
			return name
		}
		return display
	}
}

// selectPort remembers the port and (re)connects to it.
func selectPort(state *appState, port string) {
	state.cfg.Serial.Port = port
	saveConfig(state)

	if state.chain != nil {
		closeChain(state.chain)
		state.chain = nil
	}
	if err := connect(state); err != nil {
		dialog.ShowError(err, state.window)
	}
}

func saveConfig(state *appState) {
	if err := state.cfg.Save(state.configPath); err != nil {
		dialog.ShowError(fmt.Errorf("failed to save config: %w", err), state.window)
	}
}

// createSerialTab creates the Serial configuration tab.
func createSerialTab(state *appState) *container.TabItem {
	portSelect, portName := newPortSelect(state)

	revisionSelect := widget.NewSelect([]string{"A", "B"}, nil)
	revisionSelect.SetSelected(state.cfg.Revision().String())

	form := &widget.Form{
		Items: []*widget.FormItem{
			{Text: "Serial Port", Widget: portSelect},
			{Text: "Board Revision", Widget: revisionSelect},
		},
		OnSubmit: func() {
			if portSelect.Selected == "" {
				return
			}
			port := portName(portSelect.Selected)
			revChanged := revisionSelect.Selected != "" && revisionSelect.Selected != state.cfg.Board.Revision
			if revChanged {
				state.cfg.Board.Revision = revisionSelect.Selected
			}
			if port == state.cfg.Serial.Port && state.chain != nil && !revChanged {
				return
			}
			selectPort(state, port)
		},
	}

	return container.NewTabItem("Serial", form)
}

// createMonitorTab creates the thresholds and log configuration tab.
func createMonitorTab(state *appState) *container.TabItem {
	m := &state.cfg.Monitor

	warnEntry := widget.NewEntry()
	warnEntry.SetText(strconv.Itoa(m.WarnCelsius))

	hotEntry := widget.NewEntry()
	hotEntry.SetText(strconv.Itoa(m.HotCelsius))

	shutdownEntry := widget.NewEntry()
	shutdownEntry.SetText(strconv.Itoa(m.ShutdownCelsius))

	watchdogEntry := widget.NewEntry()
	watchdogEntry.SetText(m.WatchdogTimeout.String())

	logEntry := widget.NewEntry()
	logEntry.SetText(m.LogFile)

	form := &widget.Form{
		Items: []*widget.FormItem{
			{Text: "Warm from (C)", Widget: warnEntry},
			{Text: "Hot from (C)", Widget: hotEntry},
			{Text: "Shutdown above (C)", Widget: shutdownEntry},
			{Text: "Watchdog timeout", Widget: watchdogEntry},
			{Text: "Log file", Widget: logEntry},
		},
		OnSubmit: func() {
			if v, err := strconv.Atoi(warnEntry.Text); err == nil {
				m.WarnCelsius = v
			}
			if v, err := strconv.Atoi(hotEntry.Text); err == nil {
				m.HotCelsius = v
			}
			if v, err := strconv.Atoi(shutdownEntry.Text); err == nil {
				m.ShutdownCelsius = v
			}
			if d, err := time.ParseDuration(watchdogEntry.Text); err == nil {
				m.WatchdogTimeout = d
			}
			if logEntry.Text != "" {
				m.LogFile = logEntry.Text
			}
			saveConfig(state)
			if state.chain != nil {
				state.chain.monitor.Apply(state.cfg)
			}
		},
	}

	return container.NewTabItem("Monitor", form)
}

// createMockTab creates the simulated board configuration tab.
func createMockTab(state *appState) *container.TabItem {
	m := &state.cfg.Mock

	ambientEntry := widget.NewEntry()
	ambientEntry.SetText(fmt.Sprintf("%.1f", m.Ambient))

	riseEntry := widget.NewEntry()
	riseEntry.SetText(fmt.Sprintf("%.1f", m.LoadRise))

	durationEntry := widget.NewEntry()
	durationEntry.SetText(m.LoadDuration.String())

	periodEntry := widget.NewEntry()
	periodEntry.SetText(m.LoadPeriod.String())

	tauEntry := widget.NewEntry()
	tauEntry.SetText(m.ThermalTau.String())

	noiseEntry := widget.NewEntry()
	noiseEntry.SetText(fmt.Sprintf("%.2f", m.NoiseLevel))

	form := &widget.Form{
		Items: []*widget.FormItem{
			{Text: "Ambient (C)", Widget: ambientEntry},
			{Text: "Load Rise (C)", Widget: riseEntry},
			{Text: "Load Duration", Widget: durationEntry},
			{Text: "Load Period", Widget: periodEntry},
			{Text: "Thermal Tau", Widget: tauEntry},
			{Text: "Noise Level (C)", Widget: noiseEntry},
		},
		OnSubmit: func() {
			if v, err := strconv.ParseFloat(ambientEntry.Text, 64); err == nil {
				m.Ambient = v
			}
			if v, err := strconv.ParseFloat(riseEntry.Text, 64); err == nil {
				m.LoadRise = v
			}
			if d, err := time.ParseDuration(durationEntry.Text); err == nil {
				m.LoadDuration = d
			}
			if d, err := time.ParseDuration(periodEntry.Text); err == nil {
				m.LoadPeriod = d
			}
			if d, err := time.ParseDuration(tauEntry.Text); err == nil {
				m.ThermalTau = d
			}
			if v, err := strconv.ParseFloat(noiseEntry.Text, 64); err == nil {
				m.NoiseLevel = v
			}
			saveConfig(state)
		},
	}

	return container.NewTabItem("Mock", form)
}
