package game

import (
	"log/slog"

	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/hexforage/components"
)

// onDespawn runs before the despawner removes e. Grass removals are too
// frequent to log.
func (g *Game) onDespawn(e ecs.Entity, kind components.Kind) {
	g.removed[kind]++
	if !kind.IsAgent() || !g.agentMap.Has(e) {
		return
	}

	agent := g.agentMap.Get(e)
	attrs := []any{
		"kind", kind.String(),
		"tick", g.tick,
		"state", agent.State.String(),
		"satiety", agent.Satiety,
	}
	if g.identMap.Has(e) {
		attrs = append(attrs, "id", g.identMap.Get(e).ID)
	}
	if agent.Satiety <= 0 {
		slog.Debug("agent starved", attrs...)
	} else {
		slog.Debug("agent eaten", attrs...)
	}
}
