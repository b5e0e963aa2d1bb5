package monitor

import (
	"context"
	"fmt"
	"os/exec"
	"sync"

	"github.com/itohio/thermwatch/pkg/device"
	log "github.com/sirupsen/logrus"
)

// DefaultShutdownCelsius is the temperature above which the guard trips.
const DefaultShutdownCelsius = 100

// Action is run when the guard trips.
type Action func(ctx context.Context, r device.Reading) error

// CommandAction runs an external command, e.g. the OS shutdown command.
// An empty command yields a nil Action: the trip is only logged.
func CommandAction(command []string) Action {
	if len(command) == 0 {
		return nil
	}
	args := append([]string(nil), command...)
	return func(ctx context.Context, r device.Reading) error {
		out, err := exec.CommandContext(ctx, args[0], args[1:]...).CombinedOutput()
		if err != nil {
			return fmt.Errorf("shutdown command %q failed: %w (%s)", args[0], err, out)
		}
		return nil
	}
}

// Guard trips when any channel exceeds the threshold. The action runs once per
// trip; the guard re-arms when the channel that tripped it cools down to the
// threshold or below.
type Guard struct {
	mu        sync.Mutex
	threshold int
	action    Action
	tripped   bool
	channel   int
}

// NewGuard creates an armed guard. action may be nil.
func NewGuard(threshold int, action Action) *Guard {
	return &Guard{threshold: threshold, action: action}
}

// SetThreshold changes the trip temperature.
func (g *Guard) SetThreshold(threshold int) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.threshold = threshold
}

// Threshold returns the trip temperature.
func (g *Guard) Threshold() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.threshold
}

// Tripped reports whether the guard is currently tripped.
func (g *Guard) Tripped() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.tripped
}

// Check evaluates a reading and reports whether it trips the guard. It does
// not run the action; callers record the trip first and then call Act.
func (g *Guard) Check(r device.Reading) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.tripped {
		if r.Channel == g.channel && r.Celsius <= g.threshold {
			g.tripped = false
			log.WithField("channel", r.Channel).WithField("celsius", r.Celsius).Info("over-temperature guard re-armed")
		}
		return false
	}
	if r.Celsius <= g.threshold {
		return false
	}
	g.tripped = true
	g.channel = r.Channel

	log.WithField("channel", r.Channel).WithField("celsius", r.Celsius).Error("over-temperature guard tripped")
	return true
}

// Act runs the action for the reading that tripped the guard. A nil action
// does nothing.
func (g *Guard) Act(ctx context.Context, r device.Reading) error {
	g.mu.Lock()
	action := g.action
	g.mu.Unlock()

	if action == nil {
		return nil
	}
	return action(ctx, r)
}
