// Package telemetry provides window stats, perf timing, bookmarks and run output.
package telemetry

import (
	"math"

	"github.com/pthm-cable/hexforage/components"
	"github.com/pthm-cable/hexforage/systems"
)

var _ systems.Events = (*Collector)(nil)

// Census is the world state sampled at the end of a window.
type Census struct {
	Population map[components.Kind]int
	States     map[components.BehaviorState]int
	Satiety    []float64 // one value per living agent
	Reserved   int       // edibles currently held by a reservation
}

// Collector accumulates events within time windows and produces WindowStats.
type Collector struct {
	windowDurationSec   float64
	windowDurationTicks int32
	dt                  float32

	// Current window tracking
	windowStartTick int32

	// Event counters for current window
	reservations int
	meals        map[components.Kind]int // keyed by eater
	staleTargets int
	pathFailures int
	explorations int
	fleeEntries  int
	starvations  int
	regrown      int
}

// NewCollector creates a new stats collector.
// windowDurationSec: how long each stats window lasts in simulation seconds
// dt: seconds per tick (used for tick-to-time conversion)
func NewCollector(windowDurationSec float64, dt float32) *Collector {
	// dt is float32, so the quotient lands just below whole tick counts.
	ticksPerWindow := int32(math.Round(windowDurationSec / float64(dt)))
	if ticksPerWindow < 1 {
		ticksPerWindow = 1
	}

	return &Collector{
		windowDurationSec:   windowDurationSec,
		windowDurationTicks: ticksPerWindow,
		dt:                  dt,
		meals:               make(map[components.Kind]int),
	}
}

// RecordReservation records a forager claiming an edible.
func (c *Collector) RecordReservation() { c.reservations++ }

// RecordConsumption records a meal.
func (c *Collector) RecordConsumption(eater, food components.Kind) { c.meals[eater]++ }

// RecordStaleTarget records a held target that failed re-validation.
func (c *Collector) RecordStaleTarget() { c.staleTargets++ }

// RecordPathFailure records a forager that could not reach its target.
func (c *Collector) RecordPathFailure() { c.pathFailures++ }

// RecordExploration records an Idle -> RandomMove transition.
func (c *Collector) RecordExploration() { c.explorations++ }

// RecordFlee records an agent entering Flee.
func (c *Collector) RecordFlee() { c.fleeEntries++ }

// RecordStarvation records an agent removed at the starvation floor.
func (c *Collector) RecordStarvation(kind components.Kind) { c.starvations++ }

// RecordRegrowth records grass spawned by regrowth.
func (c *Collector) RecordRegrowth(n int) { c.regrown += n }

// ShouldFlush returns true if enough ticks have passed to flush the window.
func (c *Collector) ShouldFlush(currentTick int32) bool {
	return currentTick-c.windowStartTick >= c.windowDurationTicks
}

// Flush produces a WindowStats and resets counters for the next window.
func (c *Collector) Flush(currentTick int32, census Census) WindowStats {
	satiety := ComputeSatietyStats(census.Satiety)

	stats := WindowStats{
		WindowStartTick: c.windowStartTick,
		WindowEndTick:   currentTick,
		SimTimeSec:      float64(currentTick) * float64(c.dt),

		Rabbits: census.Population[components.KindRabbit],
		Foxes:   census.Population[components.KindFox],
		Grass:   census.Population[components.KindGrass],

		Idle:       census.States[components.StateIdle],
		RandomMove: census.States[components.StateRandomMove],
		Foraging:   census.States[components.StateForaging],
		Fleeing:    census.States[components.StateFlee],
		Reserved:   census.Reserved,

		Reservations: c.reservations,
		RabbitMeals:  c.meals[components.KindRabbit],
		FoxMeals:     c.meals[components.KindFox],
		StaleTargets: c.staleTargets,
		PathFailures: c.pathFailures,
		Explorations: c.explorations,
		FleeEntries:  c.fleeEntries,
		Starvations:  c.starvations,
		Regrown:      c.regrown,

		SatietyMean: satiety.Mean,
		SatietyStd:  satiety.Std,
		SatietyP10:  satiety.P10,
		SatietyP50:  satiety.P50,
		SatietyP90:  satiety.P90,
	}

	// Reset for next window
	c.windowStartTick = currentTick
	c.reservations = 0
	clear(c.meals)
	c.staleTargets = 0
	c.pathFailures = 0
	c.explorations = 0
	c.fleeEntries = 0
	c.starvations = 0
	c.regrown = 0

	return stats
}

// WindowDurationTicks returns the number of ticks per window.
func (c *Collector) WindowDurationTicks() int32 {
	return c.windowDurationTicks
}
