package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os/signal"
	"sync"
	"syscall"

	"github.com/itohio/thermwatch/pkg/acquire"
	"github.com/itohio/thermwatch/pkg/channel"
	"github.com/itohio/thermwatch/pkg/config"
	"github.com/itohio/thermwatch/pkg/device"
	"github.com/itohio/thermwatch/pkg/monitor"
	"github.com/itohio/thermwatch/pkg/sample"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

func monitorCmd(g *globals) *cobra.Command {
	var (
		port     string
		mock     bool
		noLog    bool
		jsonLogs bool
	)

	cmd := &cobra.Command{
		Use:   "monitor",
		Short: "Watch a board from the terminal",
		Long: "Reads report lines from the board, prints every cycle coloured by level,\n" +
			"keeps the log book and runs the watchdog and the over-temperature guard.\n" +
			"Threshold changes in the configuration file apply without a restart.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := g.load()
			if err != nil {
				return err
			}
			if port != "" {
				cfg.Serial.Port = port
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			var dev device.Device
			if mock {
				opts := acquire.DefaultOptions(cfg.Revision())
				opts.ChannelDelay = cfg.Acquisition.ChannelDelay
				opts.CycleDelay = cfg.Acquisition.CycleDelay
				dev = device.NewMock(&cfg.Mock, channel.New(cfg.Revision()), opts)
			} else {
				dev = device.New(cfg.Serial.Port, cfg.Serial.BaudRate, device.DefaultBufferSize, device.Limits{
					Channels:   len(cfg.Revision().Pins()),
					MinCelsius: cfg.Monitor.MinCelsius,
					MaxCelsius: cfg.Monitor.MaxCelsius,
				})
			}

			var logbook *monitor.Logbook
			if !noLog {
				if logbook, err = monitor.OpenLogbook(cfg.Monitor.LogFile); err != nil {
					return err
				}
				defer logbook.Close()
			}

			if jsonLogs {
				log.SetFormatter(&log.JSONFormatter{})
			}

			return runMonitor(ctx, dev, cfg, logbook, g.configPath, cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVarP(&port, "port", "p", "", "serial port (default from config)")
	cmd.Flags().BoolVar(&mock, "mock", false, "use the simulated board")
	cmd.Flags().BoolVar(&noLog, "no-log", false, "do not write the log book")
	cmd.Flags().BoolVar(&jsonLogs, "json", false, "log diagnostics as JSON")
	return cmd
}

// runMonitor connects dev and prints frames to out until ctx is done or the
// device stream ends. The device is closed on return.
func runMonitor(ctx context.Context, dev device.Device, cfg *config.Config, logbook *monitor.Logbook, configPath string, out io.Writer) error {
	theme := DefaultTheme()

	if err := dev.Connect(); err != nil {
		return err
	}
	defer dev.Close()

	mon := monitor.New(dev, cfg, logbook, monitor.CommandAction(cfg.Monitor.ShutdownCommand))

	var mu sync.Mutex
	emit := func(s string) {
		mu.Lock()
		defer mu.Unlock()
		fmt.Fprintln(out, s)
	}

	mon.OnAlert(func(a monitor.Alert) {
		emit(theme.Banner(a))
	})
	mon.History().OnUpdate(func(frames []sample.Frame) {
		if len(frames) == 0 {
			return
		}
		emit(theme.Frame(frames[len(frames)-1], mon.Thresholds()))
	})

	if configPath != "" {
		go func() {
			err := config.Watch(ctx, configPath, mon.Apply)
			if err != nil && !errors.Is(err, context.Canceled) {
				log.WithError(err).Warn("config watch stopped")
			}
		}()
	}

	err := mon.Run(ctx)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
