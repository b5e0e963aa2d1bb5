package thermistor

// Fault describes why a reading cannot be trusted.
type Fault uint8

const (
	FaultNone    Fault = iota
	FaultShorted       // raw sample of 0: thermistor resistance collapsed to zero
	FaultOpen          // raw sample at full scale: thermistor disconnected
	FaultInvalid       // sample outside the ADC range or a non-finite result
)

func (f Fault) String() string {
	switch f {
	case FaultNone:
		return "ok"
	case FaultShorted:
		return "shorted"
	case FaultOpen:
		return "open"
	case FaultInvalid:
		return "invalid"
	}
	return "unknown"
}

// Reading is one converted sample together with its fault status.
type Reading struct {
	Raw     uint16
	Celsius float32
	Degrees int // Celsius truncated toward zero, 0 when not finite
	Fault   Fault
}

// Read converts raw and classifies the result. The temperature fields are
// filled in even for faulted samples so the reported value matches Convert.
func (c Constants) Read(raw uint16) Reading {
	r := Reading{
		Raw:     raw,
		Celsius: c.Convert(raw),
	}

	deg, ok := Truncate(r.Celsius)
	r.Degrees = deg

	switch {
	case raw == 0:
		r.Fault = FaultShorted
	case raw == ADCMax:
		r.Fault = FaultOpen
	case raw > ADCMax || !ok:
		r.Fault = FaultInvalid
	}

	return r
}

// Reported is the value put on the wire: Degrees floored at zero.
func (r Reading) Reported() int {
	return Clamp(r.Degrees)
}
