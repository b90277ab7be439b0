package systems

import (
	"log/slog"

	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/hexforage/components"
)

// Despawner removes entities from the world and from the spatial partition.
// An agent's own reservation is released before it disappears, so nothing it
// had claimed stays reserved.
type Despawner struct {
	world     *ecs.World
	posMap    *ecs.Map[components.Position]
	identMap  *ecs.Map[components.Identity]
	agentMap  *ecs.Map[components.Agent]
	edibleMap *ecs.Map[components.Edible]
	partition *SpatialPartition

	// OnDespawn, if set, is called before the entity is removed.
	OnDespawn func(e ecs.Entity, kind components.Kind)
}

// NewDespawner creates a despawner for w and partition.
func NewDespawner(w *ecs.World, partition *SpatialPartition) *Despawner {
	return &Despawner{
		world:     w,
		posMap:    ecs.NewMap[components.Position](w),
		identMap:  ecs.NewMap[components.Identity](w),
		agentMap:  ecs.NewMap[components.Agent](w),
		edibleMap: ecs.NewMap[components.Edible](w),
		partition: partition,
	}
}

// ReleaseTarget clears agent's reservation on its target, then the local reference.
// The reservation is cleared first so an abandoned resource is never left reserved.
func (d *Despawner) ReleaseTarget(self ecs.Entity, agent *components.Agent) {
	if !agent.HasTarget {
		return
	}
	if d.world.Alive(agent.Target) && d.edibleMap.Has(agent.Target) {
		d.edibleMap.Get(agent.Target).Release(self)
	}
	agent.ClearTarget()
}

// Despawn releases e's reservation, unindexes it and removes it from the world.
// Dead entities are ignored.
func (d *Despawner) Despawn(e ecs.Entity) {
	if !d.world.Alive(e) {
		return
	}

	kind := components.KindCell
	if d.identMap.Has(e) {
		kind = d.identMap.Get(e).Kind
	}
	if d.OnDespawn != nil {
		d.OnDespawn(e, kind)
	}

	if d.agentMap.Has(e) {
		d.ReleaseTarget(e, d.agentMap.Get(e))
	}
	if d.posMap.Has(e) {
		cell := d.posMap.Get(e).Cell
		if at, ok := d.partition.Lookup(e, kind); ok && at == cell {
			d.partition.Remove(e, cell, kind)
		}
	}

	slog.Debug("despawn", "entity", e.ID(), "kind", kind)
	d.world.RemoveEntity(e)
}
