package adc

import (
	"math"
	"sync"
	"time"

	"github.com/itohio/thermwatch/pkg/acquire"
	"github.com/itohio/thermwatch/pkg/channel"
	"github.com/itohio/thermwatch/pkg/config"
	"github.com/itohio/thermwatch/pkg/thermistor"
)

var _ acquire.Sampler = (*Simulator)(nil)

// Simulator produces raw samples for a bank of thermistors that heat up during
// periodic load bursts and cool back to ambient with first order lag.
type Simulator struct {
	cfg       config.MockConfig
	constants thermistor.Constants
	now       func() time.Time

	mu    sync.Mutex
	start time.Time
	pins  map[uint8]*simPin
}

type simPin struct {
	temperature float64
	updated     time.Time
}

// NewSimulator creates a simulator. A nil cfg uses the default mock settings.
func NewSimulator(cfg *config.MockConfig, constants thermistor.Constants) *Simulator {
	if cfg == nil {
		cfg = &config.Default().Mock
	}
	return &Simulator{
		cfg:       *cfg,
		constants: constants,
		now:       time.Now,
		pins:      make(map[uint8]*simPin),
	}
}

// SetClock replaces the time source. It must be called before the first Sample.
func (s *Simulator) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

// Sample advances the thermal model of the channel's pin to the current time
// and returns the matching ADC count.
func (s *Simulator) Sample(ch channel.Channel) (uint16, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if s.start.IsZero() {
		s.start = now
	}
	elapsed := now.Sub(s.start)

	p, ok := s.pins[ch.Pin]
	if !ok {
		p = &simPin{temperature: s.cfg.Ambient, updated: now}
		s.pins[ch.Pin] = p
	}

	target := s.cfg.Ambient
	if s.loaded(elapsed) {
		target += s.cfg.LoadRise + s.cfg.Spread*float64(ch.Pin)
	}

	// Thermal lag
	dt := now.Sub(p.updated).Seconds()
	alpha := 1.0
	if tau := s.cfg.ThermalTau.Seconds(); tau > 0 {
		alpha = math.Min(dt/tau, 1)
	}
	p.temperature += alpha * (target - p.temperature)
	p.updated = now

	t := float64(elapsed.Nanoseconds()) * 1e-9
	noise := (math.Sin(t*1.7+float64(ch.Pin)) + math.Cos(t*2.3)) * s.cfg.NoiseLevel * 0.5

	raw := math.Round(float64(s.constants.Raw(float32(p.temperature + noise))))
	if math.IsNaN(raw) || raw < 0 {
		raw = 0
	} else if raw > thermistor.ADCMax {
		raw = thermistor.ADCMax
	}

	return uint16(raw), nil
}

// Temperature returns the modelled temperature of a pin without noise.
func (s *Simulator) Temperature(pin uint8) float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p, ok := s.pins[pin]; ok {
		return p.temperature
	}
	return s.cfg.Ambient
}

// loaded reports whether a load burst is active. The first burst starts one
// period after the simulation starts.
func (s *Simulator) loaded(elapsed time.Duration) bool {
	if s.cfg.LoadPeriod <= 0 || elapsed < s.cfg.LoadPeriod {
		return false
	}
	return elapsed%s.cfg.LoadPeriod < s.cfg.LoadDuration
}
