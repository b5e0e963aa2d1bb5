// Command thermctl runs the thermistor acquisition loop on a Linux host and
// monitors a board from a terminal.
package main

import "os"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
