// Command tempwatch is the desktop temperature monitor: a live chart of
// every thermistor channel, a colour-coded tray icon, the temperature log
// book and the over-temperature shutdown guard.
package main

import (
	"flag"
	"sync"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"
	"github.com/itohio/thermwatch/pkg/config"
	"github.com/itohio/thermwatch/pkg/device"
	"github.com/itohio/thermwatch/pkg/history"
	"github.com/itohio/thermwatch/pkg/monitor"
	"github.com/itohio/thermwatch/pkg/scope"
	log "github.com/sirupsen/logrus"
)

func main() {
	var (
		portFlag   = flag.String("p", "", "Serial port override (e.g., COM3 or /dev/ttyACM0)")
		configFlag = flag.String("config", "config.yaml", "Configuration file path")
		mockFlag   = flag.Bool("mock", false, "Use simulated board instead of serial port")
		debugFlag  = flag.Bool("debug", false, "Enable debug logging")
	)
	flag.Parse()

	if *debugFlag {
		log.SetLevel(log.DebugLevel)
	}

	cfg, err := config.Load(*configFlag)
	if err != nil {
		log.WithError(err).Fatal("failed to load configuration")
	}

	if *portFlag != "" {
		cfg.Serial.Port = *portFlag
	}

	application := app.NewWithID("com.itohio.thermwatch")

	window := application.NewWindow("Temperature Monitor")
	window.Resize(fyne.NewSize(900, 600))
	window.CenterOnScreen()

	state := &appState{
		app:        application,
		cfg:        cfg,
		configPath: *configFlag,
		window:     window,
		useMock:    *mockFlag,
	}

	toolbar := createToolbar(state)

	state.scopeWidget = scope.New(cfg.Monitor.History, history.Thresholds{
		Warm: cfg.Monitor.WarnCelsius,
		Hot:  cfg.Monitor.HotCelsius,
	})
	state.status = widget.NewLabel("Disconnected")

	content := container.NewBorder(
		toolbar,
		state.status,
		nil,
		nil,
		state.scopeWidget,
	)
	window.SetContent(content)

	setupTray(state)

	// Closing the window keeps monitoring from the tray.
	window.SetCloseIntercept(func() {
		window.Hide()
	})

	window.Show()
	autoConnect(state)
	application.Run()

	closeChain(state.chain)
}

// chain is one running device → monitor pipeline.
type chain struct {
	device  device.Device
	monitor *monitor.Monitor
	logbook *monitor.Logbook
	cancel  func()
	done    chan struct{} // Closed when the monitor goroutine exits
}

// appState holds the application state.
type appState struct {
	app         fyne.App
	cfg         *config.Config
	configPath  string
	window      fyne.Window
	scopeWidget *scope.ScopeWidget
	status      *widget.Label
	connectBtn  *widget.Button
	useMock     bool
	chain       *chain // nil if not connected

	// Throttling for scope updates
	lastUpdateTime time.Time
	updateMu       sync.Mutex
}

// createToolbar creates the application toolbar with Connect and Settings buttons.
func createToolbar(state *appState) fyne.CanvasObject {
	connectBtn := widget.NewButtonWithIcon("", theme.LoginIcon(), func() {
		handleConnect(state)
	})
	state.connectBtn = connectBtn

	settingsBtn := widget.NewButtonWithIcon("", theme.SettingsIcon(), func() {
		showSettingsDialog(state)
	})

	return container.NewHBox(connectBtn, settingsBtn)
}
