package adc

import (
	"fmt"
	"sync"

	"github.com/itohio/thermwatch/pkg/acquire"
	"github.com/itohio/thermwatch/pkg/channel"
	"github.com/itohio/thermwatch/pkg/thermistor"
	"periph.io/x/conn/v3/analog"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/devices/v3/ads1x15"
	"periph.io/x/host/v3"
)

// ADS1115Rate is the conversion rate requested per read.
const ADS1115Rate = 128 * physic.Hertz

var _ acquire.Sampler = (*ADS1115)(nil)

var ads1115Inputs = [...]ads1x15.Channel{ads1x15.Channel0, ads1x15.Channel1, ads1x15.Channel2, ads1x15.Channel3}

// analogReader is the part of an ADC pin the sampler uses.
type analogReader interface {
	Read() (analog.Sample, error)
	Halt() error
}

// ADS1115 is a 4 channel 16-bit I2C ADC matching the revision A board. Each
// conversion is scaled to the 10-bit range of the MCU so the thermistor
// divider maths stay the same.
type ADS1115 struct {
	mu     sync.Mutex
	supply physic.ElectricPotential
	open   func(pin uint8) (analogReader, error)
	pins   [4]analogReader
	bus    i2c.BusCloser
}

// OpenADS1115 initialises periph host drivers and opens the ADC on the named
// I2C bus (empty name selects the first bus). supply is the divider voltage.
func OpenADS1115(name string, supply physic.ElectricPotential) (*ADS1115, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialise host drivers: %w", err)
	}

	bus, err := i2creg.Open(name)
	if err != nil {
		return nil, fmt.Errorf("failed to open I2C bus %q: %w", name, err)
	}

	dev, err := ads1x15.NewADS1115(bus, &ads1x15.DefaultOpts)
	if err != nil {
		bus.Close()
		return nil, fmt.Errorf("failed to open ADS1115: %w", err)
	}

	a := newADS1115(supply, func(pin uint8) (analogReader, error) {
		return dev.PinForChannel(ads1115Inputs[pin], supply, ADS1115Rate, ads1x15.BestQuality)
	})
	a.bus = bus
	return a, nil
}

func newADS1115(supply physic.ElectricPotential, open func(pin uint8) (analogReader, error)) *ADS1115 {
	return &ADS1115{supply: supply, open: open}
}

// Sample reads a single-ended conversion and scales it to 0..1023.
func (a *ADS1115) Sample(ch channel.Channel) (uint16, error) {
	if int(ch.Pin) >= len(a.pins) {
		return 0, fmt.Errorf("ADS1115 has no input %d", ch.Pin)
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	p := a.pins[ch.Pin]
	if p == nil {
		var err error
		if p, err = a.open(ch.Pin); err != nil {
			return 0, fmt.Errorf("failed to configure ADS1115 input %d: %w", ch.Pin, err)
		}
		a.pins[ch.Pin] = p
	}

	s, err := p.Read()
	if err != nil {
		return 0, fmt.Errorf("ADS1115 read failed: %w", err)
	}
	return scale(s.V, a.supply), nil
}

// Close halts the configured inputs and releases the bus if this instance
// opened it.
func (a *ADS1115) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	for i, p := range a.pins {
		if p != nil {
			p.Halt()
			a.pins[i] = nil
		}
	}
	if a.bus == nil {
		return nil
	}
	err := a.bus.Close()
	a.bus = nil
	return err
}

// scale maps v in [0, supply] to [0, ADCMax], rounding to nearest.
func scale(v, supply physic.ElectricPotential) uint16 {
	if supply <= 0 || v <= 0 {
		return 0
	}
	if v >= supply {
		return thermistor.ADCMax
	}
	return uint16((int64(v)*thermistor.ADCMax + int64(supply)/2) / int64(supply))
}
