package main

import (
	"github.com/itohio/thermwatch/pkg/config"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// globals are the persistent flags shared by all subcommands.
type globals struct {
	configPath string
	debug      bool
}

func (g *globals) load() (*config.Config, error) {
	return config.Load(g.configPath)
}

func newRootCmd() *cobra.Command {
	g := &globals{}

	cmd := &cobra.Command{
		Use:          "thermctl",
		Short:        "Thermistor acquisition and monitoring",
		SilenceUsage: true,
		PersistentPreRun: func(_ *cobra.Command, _ []string) {
			if g.debug {
				log.SetLevel(log.DebugLevel)
			}
		},
	}

	cmd.PersistentFlags().StringVar(&g.configPath, "config", "config.yaml", "configuration file path")
	cmd.PersistentFlags().BoolVar(&g.debug, "debug", false, "enable debug logging")

	cmd.AddCommand(
		acquireCmd(g),
		monitorCmd(g),
		portsCmd(),
	)
	return cmd
}
