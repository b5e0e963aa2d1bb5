// Package channel holds the fixed bank of analog thermistor inputs of the
// board and the calibration they share.
package channel

import (
	"iter"
	"strconv"

	"github.com/itohio/thermwatch/pkg/thermistor"
)

// Revision identifies a board layout.
type Revision int

const (
	// RevisionA is the first board: four thermistors on A0..A3.
	RevisionA Revision = iota
	// RevisionB is the final board: eight thermistors on A0..A7.
	RevisionB
)

// ParseRevision accepts "a"/"A" and "b"/"B".
func ParseRevision(s string) (Revision, bool) {
	switch s {
	case "a", "A":
		return RevisionA, true
	case "b", "B":
		return RevisionB, true
	}
	return RevisionB, false
}

func (r Revision) String() string {
	if r == RevisionA {
		return "A"
	}
	return "B"
}

// Pins returns the analog pin numbers fitted on the revision, in board order.
func (r Revision) Pins() []uint8 {
	if r == RevisionA {
		return []uint8{0, 1, 2, 3}
	}
	return []uint8{0, 1, 2, 3, 4, 5, 6, 7}
}

// Channel is one analog input line.
type Channel struct {
	Index int    // 0-based position, used as the report label
	Pin   uint8  // platform analog pin number (A<Pin>)
	Label string // "A<Pin>"
}

// Registry is an immutable ordered list of channels with shared constants.
type Registry struct {
	channels  []Channel
	constants thermistor.Constants
}

// New builds the registry for a board revision with the default thermistor
// calibration.
func New(rev Revision) *Registry {
	return NewFromPins(rev.Pins()...)
}

// NewFromPins builds a registry over an arbitrary fixed pin list. The list is
// allocated once and never resized.
func NewFromPins(pins ...uint8) *Registry {
	channels := make([]Channel, len(pins))
	for i, pin := range pins {
		channels[i] = Channel{
			Index: i,
			Pin:   pin,
			Label: "A" + strconv.Itoa(int(pin)),
		}
	}
	return &Registry{
		channels:  channels,
		constants: thermistor.Default,
	}
}

// Channels returns a copy of the channel list in index order.
func (r *Registry) Channels() []Channel {
	out := make([]Channel, len(r.channels))
	copy(out, r.channels)
	return out
}

// All iterates channels in index order without allocating.
func (r *Registry) All() iter.Seq[Channel] {
	return func(yield func(Channel) bool) {
		for _, ch := range r.channels {
			if !yield(ch) {
				return
			}
		}
	}
}

// Len returns the number of channels.
func (r *Registry) Len() int {
	return len(r.channels)
}

// Constants returns the calibration shared by all channels.
func (r *Registry) Constants() thermistor.Constants {
	return r.constants
}
