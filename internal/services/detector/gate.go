package detector

import "time"

// State is the gate's position in the capture state machine.
type State int

const (
	// StateIdle means no recent commit constrains the next capture.
	StateIdle State = iota
	// StateCoolingDown means a capture committed less than the cooldown ago.
	StateCoolingDown
)

func (s State) String() string {
	if s == StateCoolingDown {
		return "cooling_down"
	}
	return "idle"
}

// Gate decides whether a gated frame becomes a committed capture. It holds the
// confidence threshold and enforces the minimum inter-capture spacing. The
// threshold is whatever the caller configured; the gate bakes in no default.
//
// Gate is used from a single acquisition loop and needs no locking.
type Gate struct {
	threshold float64 // percent, 0-100
	cooldown  time.Duration

	lastCapture time.Time
	committed   bool // false until the first commit; a source with zero frames never cools down
}

// New creates a gate with the externally supplied threshold and cooldown.
func New(threshold float64, cooldown time.Duration) *Gate {
	return &Gate{
		threshold: threshold,
		cooldown:  cooldown,
	}
}

// InCooldown reports whether a commit at instant now would violate the
// inter-capture spacing.
func (g *Gate) InCooldown(now time.Time) bool {
	if !g.committed {
		return false
	}
	return now.Sub(g.lastCapture) < g.cooldown
}

// Offer presents the enhanced-pass confidence for a frame observed at instant
// now. It returns true when the frame commits, in which case the cooldown
// window restarts at now. Frames arriving during cooldown or below the
// threshold are discarded.
func (g *Gate) Offer(now time.Time, confidence float64) bool {
	if g.InCooldown(now) {
		return false
	}
	if confidence < g.threshold {
		return false
	}
	g.lastCapture = now
	g.committed = true
	return true
}

// State returns the gate's current state as of instant now.
func (g *Gate) State(now time.Time) State {
	if g.InCooldown(now) {
		return StateCoolingDown
	}
	return StateIdle
}

// Threshold returns the configured confidence threshold.
func (g *Gate) Threshold() float64 {
	return g.threshold
}
