package adc

import (
	"errors"
	"testing"

	"github.com/itohio/thermwatch/pkg/channel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"periph.io/x/conn/v3/analog"
	"periph.io/x/conn/v3/physic"
)

type fakePin struct {
	v      physic.ElectricPotential
	err    error
	halted bool
}

func (p *fakePin) Read() (analog.Sample, error) {
	return analog.Sample{V: p.v}, p.err
}

func (p *fakePin) Halt() error {
	p.halted = true
	return nil
}

func TestADS1115_Sample(t *testing.T) {
	supply := 3300 * physic.MilliVolt
	pins := map[uint8]*fakePin{
		0: {v: 0},
		1: {v: supply / 2},
		2: {v: supply},
		3: {v: 4 * physic.Volt},
	}
	opened := 0
	a := newADS1115(supply, func(pin uint8) (analogReader, error) {
		opened++
		return pins[pin], nil
	})

	reg := channel.New(channel.RevisionA)
	want := []uint16{0, 512, 1023, 1023}
	for i, ch := range reg.Channels() {
		raw, err := a.Sample(ch)
		require.NoError(t, err)
		assert.Equal(t, want[i], raw, "pin %d", ch.Pin)
	}

	// Inputs are configured once.
	_, err := a.Sample(reg.Channels()[1])
	require.NoError(t, err)
	assert.Equal(t, 4, opened)

	require.NoError(t, a.Close())
	for pin, p := range pins {
		assert.True(t, p.halted, "pin %d", pin)
	}
}

func TestADS1115_Errors(t *testing.T) {
	a := newADS1115(3300*physic.MilliVolt, func(pin uint8) (analogReader, error) {
		if pin == 1 {
			return nil, errors.New("mux busy")
		}
		return &fakePin{err: errors.New("nack")}, nil
	})

	_, err := a.Sample(channel.Channel{Pin: 4})
	assert.ErrorContains(t, err, "no input 4")

	_, err = a.Sample(channel.Channel{Pin: 1})
	assert.ErrorContains(t, err, "mux busy")

	_, err = a.Sample(channel.Channel{Pin: 0})
	assert.ErrorContains(t, err, "nack")
}

func TestScale(t *testing.T) {
	supply := 5 * physic.Volt
	assert.Equal(t, uint16(0), scale(-physic.MilliVolt, supply))
	assert.Equal(t, uint16(0), scale(physic.Volt, 0))
	assert.Equal(t, uint16(205), scale(physic.Volt, supply))
	assert.Equal(t, uint16(1023), scale(6*physic.Volt, supply))
}
