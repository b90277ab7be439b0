package components

import (
	"github.com/mlange-42/ark/ecs"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/hexforage/hex"
)

// BehaviorState is the decision-loop state of an agent.
type BehaviorState uint8

const (
	StateIdle       BehaviorState = iota // Standing still, rolling to explore
	StateRandomMove                      // Exploring along a preferred direction
	StateForaging                        // Hungry, pathing to a reserved food entity
	StateFlee                            // Predator in range, foraging suppressed
)

var stateNames = [...]string{"idle", "random_move", "foraging", "flee"}

// String returns the display name for a BehaviorState.
func (s BehaviorState) String() string {
	if int(s) < len(stateNames) {
		return stateNames[s]
	}
	return "unknown"
}

// BehaviorStates returns every state in declaration order.
func BehaviorStates() []BehaviorState {
	return []BehaviorState{StateIdle, StateRandomMove, StateForaging, StateFlee}
}

// Timer is a one-shot cooldown in seconds.
type Timer struct {
	Duration float32
	Elapsed  float32
}

// NewReadyTimer returns a timer that reports finished on its first tick.
func NewReadyTimer(duration float32) Timer {
	return Timer{Duration: duration, Elapsed: duration}
}

// Tick advances the timer by dt and reports whether it has finished.
func (t *Timer) Tick(dt float32) bool {
	t.Elapsed += dt
	if t.Elapsed >= t.Duration {
		t.Elapsed = t.Duration
		return true
	}
	return false
}

// Finished reports whether the timer has run out without advancing it.
func (t *Timer) Finished() bool {
	return t.Elapsed >= t.Duration
}

// Reset restarts the timer.
func (t *Timer) Reset() {
	t.Elapsed = 0
}

// Preference biases exploration toward a direction in cube space.
// A zero Direction means no direction has been chosen yet.
type Preference struct {
	Direction r3.Vec
	Strength  float64 // 0..1, how much the direction weighs when scoring neighbours
	Stability float64 // 0..1, how much of the old direction survives each step
}

// Exploration is the bookkeeping for one RandomMove burst.
type Exploration struct {
	Direction      r3.Vec
	StepsRemaining int8
	Base           hex.Position
}

// Agent is the per-animal decision record.
type Agent struct {
	State      BehaviorState
	IdleStreak uint32
	Cooldown   Timer

	// Satiety is in hundredths of a unit.
	Satiety   int32
	DecayRate float32 // units per second
	Food      Kind
	FleeFrom  []Kind // predator kinds that trigger Flee
	FleeRange int    // hex distance, 0 disables Flee

	// Target is a weak reference; check World.Alive and the reservation before use.
	Target     ecs.Entity
	HasTarget  bool
	TargetCell hex.Position
	Path       []hex.Position

	Preference  Preference
	Exploration Exploration
}

// SetTarget records a reserved food entity and where it was seen.
func (a *Agent) SetTarget(e ecs.Entity, cell hex.Position) {
	a.Target = e
	a.HasTarget = true
	a.TargetCell = cell
	a.Path = a.Path[:0]
}

// ClearTarget drops the local reference. Callers release the reservation first.
func (a *Agent) ClearTarget() {
	a.Target = ecs.Entity{}
	a.HasTarget = false
	a.TargetCell = hex.Position{}
	a.Path = a.Path[:0]
}

// ClearExploration forgets the current direction so the next RandomMove picks a fresh one.
func (a *Agent) ClearExploration() {
	a.Preference.Direction = r3.Vec{}
	a.Exploration = Exploration{}
}

// Edible marks an entity that can be reserved and eaten.
type Edible struct {
	ReservedBy ecs.Entity
	Reserved   bool
}

// IsReservedBy reports whether e holds the reservation.
func (ed *Edible) IsReservedBy(e ecs.Entity) bool {
	return ed.Reserved && ed.ReservedBy == e
}

// Reserve sets the reservation. Returns false if someone already holds it.
func (ed *Edible) Reserve(e ecs.Entity) bool {
	if ed.Reserved {
		return ed.ReservedBy == e
	}
	ed.ReservedBy = e
	ed.Reserved = true
	return true
}

// Release clears the reservation if e holds it.
func (ed *Edible) Release(e ecs.Entity) {
	if ed.IsReservedBy(e) {
		ed.ReservedBy = ecs.Entity{}
		ed.Reserved = false
	}
}
