//go:build tinygo

//go:generate tinygo flash -target=xiao

package main

import (
	"context"
	"fmt"
	"machine"
	"time"

	"github.com/itohio/thermwatch/pkg/acquire"
	"github.com/itohio/thermwatch/pkg/channel"
)

var adcs [len(analogPins)]machine.ADC

// printLogger reports sampling problems on the debug console.
type printLogger struct{}

func (printLogger) Printf(format string, args ...any) {
	println(fmt.Sprintf(format, args...))
}

// sample reads one thermistor divider as a 10-bit count.
func sample(ch channel.Channel) (uint16, error) {
	if int(ch.Pin) >= len(adcs) {
		return 0, fmt.Errorf("no analog input A%d", ch.Pin)
	}
	return adcs[ch.Pin].Get() >> ADC_SHIFT, nil
}

func main() {
	machine.InitADC()

	adcConfig := machine.ADCConfig{
		Reference:  ADC_REFERENCE_MV,
		Resolution: ADC_RESOLUTION,
	}
	for i, pin := range analogPins {
		pin.Configure(machine.PinConfig{Mode: machine.PinInput})
		adcs[i] = machine.ADC{Pin: pin}
		adcs[i].Configure(adcConfig)
	}

	machine.Serial.Configure(machine.UARTConfig{
		BaudRate: SERIAL_BAUD_RATE,
	})

	rev, _ := channel.ParseRevision(BOARD_REVISION)
	opts := acquire.DefaultOptions(rev)
	opts.Logger = printLogger{}

	loop := acquire.New(
		channel.New(rev),
		acquire.SamplerFunc(sample),
		machine.Serial,
		acquire.SystemClock{},
		opts,
	)

	// Run only returns on write failure. Keep reporting regardless.
	for {
		if err := loop.Run(context.Background()); err != nil {
			println(err.Error())
			time.Sleep(opts.CycleDelay)
		}
	}
}
