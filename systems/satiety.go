package systems

import (
	"log/slog"
	"math"
	"slices"

	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/hexforage/components"
	"github.com/pthm-cable/hexforage/config"
)

// SatietyClock drains agent satiety in batches.
// Elapsed time accumulates every tick; every Nth tick each agent loses
// floor(elapsed * rate * 100) hundredths and the accumulator resets.
type SatietyClock struct {
	filter    ecs.Filter2[components.Identity, components.Agent]
	despawner *Despawner
	events    Events

	every      int
	counter    int
	elapsed    float32
	starvation bool
	starveAt   int32

	starving []ecs.Entity
}

// NewSatietyClock creates a decay clock. despawner is used only when starvation is enabled.
func NewSatietyClock(w *ecs.World, despawner *Despawner, events Events) *SatietyClock {
	cfg := config.Cfg()
	return &SatietyClock{
		filter:     *ecs.NewFilter2[components.Identity, components.Agent](w),
		despawner:  despawner,
		events:     orNoEvents(events),
		every:      cfg.Sim.DecayEvery,
		starvation: cfg.Satiety.Starvation,
		starveAt:   int32(cfg.Satiety.StarveAt),
	}
}

// Advance records one tick of dt seconds. It returns the elapsed time to apply
// and true when this tick is a decay tick, resetting the accumulator.
func (c *SatietyClock) Advance(dt float32) (float32, bool) {
	c.elapsed += dt
	c.counter++
	if c.counter%c.every != 0 {
		return 0, false
	}
	elapsed := c.elapsed
	c.counter = 0
	c.elapsed = 0
	return elapsed, true
}

// Decay returns the satiety loss for elapsed seconds at rate units per second.
func Decay(elapsed, rate float32) int32 {
	return int32(math.Floor(float64(elapsed) * float64(rate) * 100))
}

// Update advances the clock and, on decay ticks, drains every agent.
// Returns the number of agents removed by starvation.
func (c *SatietyClock) Update(dt float32) int {
	elapsed, due := c.Advance(dt)
	if !due {
		return 0
	}

	c.starving = c.starving[:0]
	query := c.filter.Query()
	for query.Next() {
		id, agent := query.Get()
		agent.Satiety -= Decay(elapsed, agent.DecayRate)
		if c.starvation && agent.Satiety <= c.starveAt {
			c.starving = append(c.starving, query.Entity())
			c.events.RecordStarvation(id.Kind)
		}
	}

	// Remove after the query closes.
	slices.SortFunc(c.starving, cmpEntity)
	for _, e := range c.starving {
		slog.Info("starved", "entity", e.ID())
		c.despawner.Despawn(e)
	}
	return len(c.starving)
}
