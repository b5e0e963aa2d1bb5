package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os/signal"
	"syscall"
	"time"

	"github.com/itohio/thermwatch/pkg/acquire"
	"github.com/itohio/thermwatch/pkg/adc"
	"github.com/itohio/thermwatch/pkg/channel"
	"github.com/itohio/thermwatch/pkg/config"
	"github.com/itohio/thermwatch/pkg/thermistor"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"go.bug.st/serial"
	"periph.io/x/conn/v3/physic"
)

type acquireFlags struct {
	adc          string
	out          string
	cycles       int
	channelDelay time.Duration
	cycleDelay   time.Duration
}

func acquireCmd(g *globals) *cobra.Command {
	f := &acquireFlags{}

	cmd := &cobra.Command{
		Use:   "acquire",
		Short: "Sample the thermistors and print report lines",
		Long: "Runs the acquisition loop on this host. Samples come from an MCP3008 on SPI\n" +
			"or from the simulated thermistor bank; report lines go to stdout or a serial port.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := g.load()
			if err != nil {
				return err
			}
			f.apply(cmd, cfg)

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			return runAcquire(ctx, cfg, f.cycles, cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVar(&f.adc, "adc", "", "analog input: mcp3008, ads1115 or sim (default from config)")
	cmd.Flags().StringVarP(&f.out, "out", "o", "", `output: "-" for stdout or a serial port (default from config)`)
	cmd.Flags().IntVarP(&f.cycles, "cycles", "n", 0, "number of cycles, 0 runs until interrupted")
	cmd.Flags().DurationVar(&f.channelDelay, "channel-delay", 0, "delay between channels (default from config)")
	cmd.Flags().DurationVar(&f.cycleDelay, "cycle-delay", 0, "delay between cycles (default from config)")
	return cmd
}

// apply overrides the configuration with explicitly set flags.
func (f *acquireFlags) apply(cmd *cobra.Command, cfg *config.Config) {
	if f.adc != "" {
		cfg.Acquisition.ADC = f.adc
	}
	if f.out != "" {
		cfg.Acquisition.Output = f.out
	}
	if cmd.Flags().Changed("channel-delay") {
		cfg.Acquisition.ChannelDelay = f.channelDelay
	}
	if cmd.Flags().Changed("cycle-delay") {
		cfg.Acquisition.CycleDelay = f.cycleDelay
	}
}

type sampler interface {
	acquire.Sampler
	io.Closer
}

// simSampler has nothing to release.
type simSampler struct {
	*adc.Simulator
}

func (simSampler) Close() error { return nil }

func openSampler(cfg *config.Config, reg *channel.Registry) (sampler, error) {
	switch cfg.Acquisition.ADC {
	case "sim":
		return simSampler{adc.NewSimulator(&cfg.Mock, reg.Constants())}, nil
	case "mcp3008":
		return adc.OpenMCP3008(cfg.Acquisition.SPIPort)
	case "ads1115":
		supply := physic.ElectricPotential(cfg.Acquisition.SupplyVoltage * float64(physic.Volt))
		return adc.OpenADS1115(cfg.Acquisition.I2CBus, supply)
	}
	return nil, fmt.Errorf("unknown ADC %q", cfg.Acquisition.ADC)
}

// nopCloser keeps the command's stdout open.
type nopCloser struct{ io.Writer }

func (nopCloser) Close() error { return nil }

func openOutput(name string, baudRate int, stdout io.Writer) (io.WriteCloser, error) {
	if name == "-" {
		return nopCloser{stdout}, nil
	}
	port, err := serial.Open(name, &serial.Mode{BaudRate: baudRate})
	if err != nil {
		return nil, fmt.Errorf("failed to open serial port %s: %w", name, err)
	}
	return port, nil
}

func runAcquire(ctx context.Context, cfg *config.Config, cycles int, stdout io.Writer) error {
	rev := cfg.Revision()
	reg := channel.New(rev)

	in, err := openSampler(cfg, reg)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := openOutput(cfg.Acquisition.Output, cfg.Serial.BaudRate, stdout)
	if err != nil {
		return err
	}
	defer out.Close()

	opts := acquire.Options{
		ChannelDelay: cfg.Acquisition.ChannelDelay,
		CycleDelay:   cfg.Acquisition.CycleDelay,
		Logger:       log.StandardLogger(),
		OnReading: func(r acquire.Reading) {
			entry := log.WithField("channel", r.Channel.Index).WithField("celsius", r.Reported())
			if r.Fault != thermistor.FaultNone {
				entry = entry.WithField("fault", r.Fault)
			}
			entry.Debug("sample")
		},
	}
	loop := acquire.New(reg, in, out, acquire.SystemClock{}, opts)

	log.WithFields(log.Fields{
		"revision": rev,
		"channels": reg.Len(),
		"adc":      cfg.Acquisition.ADC,
		"output":   cfg.Acquisition.Output,
	}).Info("acquiring")

	if cycles <= 0 {
		err = loop.Run(ctx)
	} else {
		err = runCycles(ctx, loop, cycles, cfg.Acquisition.CycleDelay)
	}
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func runCycles(ctx context.Context, loop *acquire.Loop, cycles int, delay time.Duration) error {
	clock := acquire.SystemClock{}
	for i := range cycles {
		if _, err := loop.Cycle(ctx); err != nil {
			return err
		}
		if i < cycles-1 {
			if err := clock.Sleep(ctx, delay); err != nil {
				return err
			}
		}
	}
	return nil
}
