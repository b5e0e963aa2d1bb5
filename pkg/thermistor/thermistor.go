// Package thermistor converts raw 10-bit ADC samples taken across an NTC
// thermistor voltage divider into degrees Celsius using the Beta model.
//
// All arithmetic is single precision and follows IEEE-754 semantics, so the
// degenerate samples 0 and 1023 never trap: they propagate through
// infinities and settle at absolute zero, which the reporting clamp turns
// into 0.
package thermistor

import (
	"math"

	"github.com/chewxy/math32"
)

const (
	// ADCMax is the full-scale reading of the 10-bit converter.
	ADCMax = 1023
	// KelvinOffset converts between Celsius and Kelvin.
	KelvinOffset float32 = 273.15
)

// Constants holds the calibration shared by every channel of the board.
type Constants struct {
	NominalResistance  float32 // Ohms at NominalTemperature
	NominalTemperature float32 // Celsius
	Beta               float32 // Beta coefficient of the thermistor material
	SeriesResistor     float32 // Ohms of the fixed divider resistor
}

// Default is the calibration of the 100k/3950 thermistors fitted to the board
// with a 4k7 series resistor.
var Default = Constants{
	NominalResistance:  100000,
	NominalTemperature: 25,
	Beta:               3950,
	SeriesResistor:     4700,
}

// Resistance recovers the thermistor resistance from a raw divider reading.
// raw is a float so synthetic (fractional) samples can be evaluated.
func (c Constants) Resistance(raw float32) float32 {
	ratio := ADCMax/raw - 1
	return c.SeriesResistor / ratio
}

// Celsius maps a thermistor resistance to a temperature with the Beta model.
func (c Constants) Celsius(resistance float32) float32 {
	x := resistance / c.NominalResistance
	invKelvin := math32.Log(x)/c.Beta + 1/(c.NominalTemperature+KelvinOffset)
	kelvin := 1 / invKelvin
	return kelvin - KelvinOffset
}

// Convert maps a raw ADC sample to Celsius. It performs no clamping.
func (c Constants) Convert(raw uint16) float32 {
	return c.Celsius(c.Resistance(float32(raw)))
}

// Raw is the inverse of Convert: the (fractional) ADC count that a thermistor
// at celsius would produce.
func (c Constants) Raw(celsius float32) float32 {
	invKelvin := 1 / (celsius + KelvinOffset)
	lnx := (invKelvin - 1/(c.NominalTemperature+KelvinOffset)) * c.Beta
	resistance := c.NominalResistance * math32.Exp(lnx)
	ratio := c.SeriesResistor / resistance
	return ADCMax / (ratio + 1)
}

// Truncate drops the fractional part of a temperature (toward zero).
// ok is false when celsius is NaN or infinite, or does not fit an int32.
func Truncate(celsius float32) (deg int, ok bool) {
	if math32.IsNaN(celsius) || math32.IsInf(celsius, 0) {
		return 0, false
	}
	if celsius >= math.MaxInt32 || celsius <= math.MinInt32 {
		return 0, false
	}
	return int(celsius), true
}

// Clamp floors a reported temperature at zero.
func Clamp(deg int) int {
	if deg < 0 {
		return 0
	}
	return deg
}
