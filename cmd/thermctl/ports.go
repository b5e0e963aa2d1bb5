package main

import (
	"fmt"

	"github.com/itohio/thermwatch/pkg/device"
	"github.com/spf13/cobra"
)

var listPorts = device.Ports

func portsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ports",
		Short: "List serial ports",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ports, err := listPorts()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(ports) == 0 {
				fmt.Fprintln(out, "(no serial ports found)")
				return nil
			}
			for _, p := range ports {
				fmt.Fprintln(out, p.Name)
			}
			return nil
		},
	}
}
