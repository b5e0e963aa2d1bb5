//go:build tinygo

package main

import "machine"

const (
	// ADC configuration
	ADC_REFERENCE_MV = 3300 // Reference voltage in millivolts (3.3V)
	ADC_RESOLUTION   = 10   // ADC resolution in bits (10-bit = 0-1023)

	// machine.ADC.Get scales every resolution to 16 bits.
	ADC_SHIFT = 16 - ADC_RESOLUTION

	// Serial configuration
	// Each line is at most "Temp 7: 999C\n" = 13 bytes, 8 lines per second.
	SERIAL_BAUD_RATE = 115200

	// Board revision: B fits all eight thermistors.
	BOARD_REVISION = "B"
)

// Thermistor divider inputs, indexed by analog pin number.
var analogPins = [...]machine.Pin{
	machine.A0,
	machine.A1,
	machine.A2,
	machine.A3,
	machine.A4,
	machine.A5,
	machine.A6,
	machine.A7,
}
