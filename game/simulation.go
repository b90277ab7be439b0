package game

import (
	"context"

	"github.com/pthm-cable/hexforage/systems"
)

// bindPhases wires the tick phases to the game's systems.
func (g *Game) bindPhases() error {
	phases := []struct {
		id  string
		run func(dt float32)
	}{
		{systems.PhaseDecay, func(dt float32) { g.clock.Update(dt) }},
		{systems.PhaseBehavior, g.behavior.Update},
		{systems.PhaseRegrowth, func(dt float32) { g.spawner.Update(dt, g) }},
		{systems.PhaseTelemetry, func(float32) { g.flushTelemetry() }},
		{systems.PhasePublish, func(float32) { g.publish() }},
	}
	for _, p := range phases {
		if err := g.registry.Bind(p.id, p.run); err != nil {
			return err
		}
	}
	return nil
}

// Update advances the simulation by one tick, running every phase on the
// caller's goroutine. Tick() already reports the new tick while phases run.
func (g *Game) Update() {
	g.perfCollector.StartTick()
	g.tick++
	g.registry.Run(g.dt, g.perfCollector.StartPhase)
	g.perfCollector.EndTick()
}

func (g *Game) publish() {
	if g.publisher != nil && g.tick%g.publishEvery == 0 {
		g.publisher.Publish(g.Frame())
	}
}

// Run ticks until maxTicks is reached (0 = unlimited) or ctx is done.
// Returns ctx.Err() when cancelled.
func (g *Game) Run(ctx context.Context, maxTicks int) error {
	for maxTicks <= 0 || int(g.tick) < maxTicks {
		select {
		case <-ctx.Done():
			g.logWorldState("run cancelled")
			return ctx.Err()
		default:
		}
		g.Update()
	}
	g.logWorldState("max ticks reached")
	return nil
}
