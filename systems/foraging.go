package systems

import (
	"log/slog"
	"slices"

	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/hexforage/components"
	"github.com/pthm-cable/hexforage/hex"
)

// Forage runs one foraging decision for agent e.
// Returns false when the agent did nothing: it is fleeing, sated, or found no food.
//
// The target is a weak reference. Before acting on it the agent checks that the
// entity is alive, still indexed, and still reserved by this agent.
func (s *BehaviorSystem) Forage(e ecs.Entity) bool {
	agent := s.agentMap.Get(e)

	if agent.State == components.StateFlee {
		return false
	}
	if agent.Satiety >= s.satedAt {
		s.despawner.ReleaseTarget(e, agent)
		agent.State = components.StateIdle
		agent.IdleStreak = 0
		return false
	}
	agent.State = components.StateForaging

	if agent.HasTarget && !s.revalidateTarget(e, agent) {
		s.events.RecordStaleTarget()
		slog.Debug("forage target dropped", "entity", e.ID(), "target", agent.Target.ID())
	}

	if !agent.HasTarget && !s.reserveNearest(e, agent) {
		return false
	}

	here := s.posMap.Get(e).Cell
	if here == agent.TargetCell {
		s.consume(e, agent)
		return true
	}

	path := s.planner.FindPath(here, agent.TargetCell)
	if len(path) <= 1 {
		s.events.RecordPathFailure()
		slog.Debug("no path to forage target", "entity", e.ID(), "from", here, "to", agent.TargetCell)
		return false
	}
	agent.Path = append(agent.Path[:0], path...)

	next := path[1]
	s.moveTo(e, next)
	if next == agent.TargetCell {
		s.consume(e, agent)
	}
	return true
}

// revalidateTarget checks the held target and refreshes its cell for moving targets.
// On failure the local reference is dropped; our own reservation is released first.
func (s *BehaviorSystem) revalidateTarget(e ecs.Entity, agent *components.Agent) bool {
	t := agent.Target
	if !s.world.Alive(t) || !s.edibleMap.Has(t) {
		agent.ClearTarget()
		return false
	}
	ed := s.edibleMap.Get(t)
	if !ed.IsReservedBy(e) {
		agent.ClearTarget()
		return false
	}
	cell, ok := s.partition.Lookup(t, agent.Food)
	if !ok {
		ed.Release(e)
		agent.ClearTarget()
		return false
	}
	agent.TargetCell = cell
	return true
}

// reserveNearest reserves the closest unreserved food entity, first-fit by hex distance.
// Ties keep entity-id order.
func (s *BehaviorSystem) reserveNearest(e ecs.Entity, agent *components.Agent) bool {
	candidates := s.partition.EntitiesByKind(agent.Food)
	if len(candidates) == 0 {
		slog.Debug("no food to forage", "entity", e.ID(), "food", agent.Food)
		return false
	}

	here := s.posMap.Get(e).Cell
	slices.SortStableFunc(candidates, func(a, b Placement) int {
		return hex.Distance(a.Cell, here) - hex.Distance(b.Cell, here)
	})

	for _, c := range candidates {
		if c.Entity == e || !s.edibleMap.Has(c.Entity) {
			continue
		}
		ed := s.edibleMap.Get(c.Entity)
		if ed.Reserved {
			continue
		}
		ed.Reserve(e)
		agent.SetTarget(c.Entity, c.Cell)
		s.events.RecordReservation()
		slog.Debug("forage target reserved", "entity", e.ID(), "target", c.Entity.ID(), "cell", c.Cell)
		return true
	}

	slog.Debug("all food reserved", "entity", e.ID(), "food", agent.Food)
	return false
}

// consume eats the held target. The target is removed last: its removal may move
// component storage, so no component pointer is used afterwards.
func (s *BehaviorSystem) consume(e ecs.Entity, agent *components.Agent) {
	target := agent.Target
	eater := s.identMap.Get(e).Kind

	agent.Satiety += s.consumeAmount
	if s.edibleMap.Has(target) {
		s.edibleMap.Get(target).Release(e)
	}
	agent.ClearTarget()
	s.events.RecordConsumption(eater, agent.Food)

	s.despawner.Despawn(target)
}
