package adc

import (
	"testing"
	"time"

	"github.com/itohio/thermwatch/pkg/channel"
	"github.com/itohio/thermwatch/pkg/config"
	"github.com/itohio/thermwatch/pkg/thermistor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stepClock struct {
	t time.Time
}

func (c *stepClock) now() time.Time { return c.t }

func quietConfig() *config.MockConfig {
	return &config.MockConfig{
		Ambient:      30,
		LoadRise:     35,
		LoadDuration: 60 * time.Second,
		LoadPeriod:   180 * time.Second,
		ThermalTau:   20 * time.Second,
		Spread:       2,
	}
}

func TestSimulator_Ambient(t *testing.T) {
	clk := &stepClock{t: time.Unix(1000, 0)}
	sim := NewSimulator(quietConfig(), thermistor.Default)
	sim.SetClock(clk.now)

	for pin := uint8(0); pin < 8; pin++ {
		raw, err := sim.Sample(channel.Channel{Pin: pin})
		require.NoError(t, err)
		assert.InDelta(t, 30, thermistor.Default.Convert(raw), 0.5, "pin %d", pin)
	}
}

func TestSimulator_LoadBurst(t *testing.T) {
	clk := &stepClock{t: time.Unix(1000, 0)}
	sim := NewSimulator(quietConfig(), thermistor.Default)
	sim.SetClock(clk.now)

	ch0 := channel.Channel{Index: 0, Pin: 0}
	ch3 := channel.Channel{Index: 3, Pin: 3}
	_, err := sim.Sample(ch0)
	require.NoError(t, err)
	_, err = sim.Sample(ch3)
	require.NoError(t, err)

	// Well past the thermal time constant, inside the first burst.
	clk.t = clk.t.Add(181 * time.Second)
	raw0, err := sim.Sample(ch0)
	require.NoError(t, err)
	raw3, err := sim.Sample(ch3)
	require.NoError(t, err)

	assert.InDelta(t, 65, sim.Temperature(0), 1e-9)
	assert.InDelta(t, 71, sim.Temperature(3), 1e-9)
	assert.InDelta(t, 65, thermistor.Default.Convert(raw0), 0.5)
	assert.InDelta(t, 71, thermistor.Default.Convert(raw3), 0.5)

	// Once the burst ends the bank settles back to ambient.
	clk.t = clk.t.Add(60 * time.Second)
	_, err = sim.Sample(ch0)
	require.NoError(t, err)
	assert.InDelta(t, 30, sim.Temperature(0), 1e-9)
}

func TestSimulator_ThermalLag(t *testing.T) {
	cfg := quietConfig()
	cfg.LoadPeriod = 10 * time.Second
	cfg.LoadDuration = 100 * time.Second
	clk := &stepClock{t: time.Unix(0, 0)}
	sim := NewSimulator(cfg, thermistor.Default)
	sim.SetClock(clk.now)

	ch := channel.Channel{Pin: 0}
	_, err := sim.Sample(ch)
	require.NoError(t, err)

	clk.t = clk.t.Add(10 * time.Second)
	_, err = sim.Sample(ch)
	require.NoError(t, err)

	// dt/tau = 0.5 of the 35 degree step.
	assert.InDelta(t, 47.5, sim.Temperature(0), 1e-9)
}

func TestSimulator_RawInRange(t *testing.T) {
	cfg := quietConfig()
	cfg.Ambient = -300
	sim := NewSimulator(cfg, thermistor.Default)

	raw, err := sim.Sample(channel.Channel{Pin: 1})
	require.NoError(t, err)
	assert.LessOrEqual(t, raw, uint16(thermistor.ADCMax))
}

func TestSimulator_UnsampledPin(t *testing.T) {
	sim := NewSimulator(nil, thermistor.Default)
	assert.Equal(t, config.Default().Mock.Ambient, sim.Temperature(5))
}
