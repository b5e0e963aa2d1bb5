package main

import (
	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/driver/desktop"
	"github.com/itohio/thermwatch/pkg/history"
	"github.com/itohio/thermwatch/pkg/scope"
	log "github.com/sirupsen/logrus"
)

// setupTray installs the tray menu when the driver supports one.
func setupTray(state *appState) {
	desk, ok := state.app.(desktop.App)
	if !ok {
		log.Debug("no system tray available")
		return
	}

	menu := fyne.NewMenu("Temperature Monitor",
		fyne.NewMenuItem("Open", func() {
			state.window.Show()
			state.window.RequestFocus()
		}),
	)
	desk.SetSystemTrayMenu(menu)
}

// updateTray shows the hottest channel in the tray icon.
func updateTray(state *appState, celsius int, t history.Thresholds) {
	desk, ok := state.app.(desktop.App)
	if !ok {
		return
	}

	data, err := scope.TrayIconPNG(celsius, t)
	if err != nil {
		log.WithError(err).Warn("tray icon")
		return
	}
	desk.SetSystemTrayIcon(fyne.NewStaticResource("temperature.png", data))
}
