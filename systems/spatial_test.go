package systems

import (
	"testing"

	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/hexforage/components"
	"github.com/pthm-cable/hexforage/hex"
)

// newEntities creates n bare entities in a fresh world.
func newEntities(n int) (*ecs.World, []ecs.Entity) {
	w := ecs.NewWorld()
	mapper := ecs.NewMap1[components.Identity](w)
	out := make([]ecs.Entity, n)
	for i := range out {
		out[i] = mapper.NewEntity(&components.Identity{ID: uint32(i + 1)})
	}
	return w, out
}

func containsPlacement(ps []Placement, e ecs.Entity, pos hex.Position) bool {
	for _, p := range ps {
		if p.Entity == e && p.Cell == pos {
			return true
		}
	}
	return false
}

func containsEntity(es []ecs.Entity, e ecs.Entity) bool {
	for _, x := range es {
		if x == e {
			return true
		}
	}
	return false
}

func TestPartitionInsertRemove(t *testing.T) {
	_, es := newEntities(2)
	part := NewSpatialPartition(10, 10, 16)
	grass := es[0]
	pos := hex.FromOffset(4, 7)

	part.Insert(grass, pos, components.KindGrass)
	if !containsPlacement(part.EntitiesByKind(components.KindGrass), grass, pos) {
		t.Fatal("EntitiesByKind missing inserted grass")
	}
	if !containsEntity(part.EntitiesAt(pos), grass) {
		t.Fatal("EntitiesAt missing inserted grass")
	}

	part.Remove(grass, pos, components.KindGrass)
	if len(part.EntitiesByKind(components.KindGrass)) != 0 {
		t.Error("EntitiesByKind still returns removed grass")
	}
	if len(part.EntitiesAt(pos)) != 0 {
		t.Error("EntitiesAt still returns removed grass")
	}
}

func TestPartitionLayers(t *testing.T) {
	_, es := newEntities(4)
	part := NewSpatialPartition(10, 10, 16)
	pos := hex.FromOffset(2, 2)

	part.Insert(es[0], pos, components.KindCell)
	part.Insert(es[1], pos, components.KindGrass)
	part.Insert(es[2], pos, components.KindRabbit)
	part.Insert(es[3], pos, components.KindFox)

	at := part.EntitiesAt(pos)
	if len(at) != 3 {
		t.Fatalf("expected grass and two agents, got %d entities", len(at))
	}
	if at[0] != es[1] {
		t.Error("ground occupants should come first")
	}
	if containsEntity(at, es[0]) {
		t.Error("terrain cell leaked into EntitiesAt")
	}
	if cell, ok := part.CellAt(pos); !ok || cell != es[0] {
		t.Error("CellAt lost the terrain entity")
	}
	if part.CountAt(pos, es[2]) != 2 {
		t.Errorf("CountAt excluding rabbit = %d, want 2", part.CountAt(pos, es[2]))
	}
}

func TestPartitionMove(t *testing.T) {
	_, es := newEntities(1)
	part := NewSpatialPartition(10, 10, 16)
	from := hex.FromOffset(1, 1)
	to := hex.FromOffset(2, 1)

	part.Insert(es[0], from, components.KindRabbit)
	part.Move(es[0], from, to, components.KindRabbit)

	if len(part.EntitiesAt(from)) != 0 {
		t.Error("entity still at old cell")
	}
	if got, ok := part.Lookup(es[0], components.KindRabbit); !ok || got != to {
		t.Errorf("Lookup = %v, %v; want %v", got, ok, to)
	}
}

func TestPartitionEmptyKind(t *testing.T) {
	part := NewSpatialPartition(4, 4, 16)
	got := part.EntitiesByKind(components.KindFox)
	if got == nil || len(got) != 0 {
		t.Errorf("expected empty non-nil slice, got %v", got)
	}
}

func TestPartitionValidNeighbors(t *testing.T) {
	part := NewSpatialPartition(10, 10, 16)

	if n := len(part.ValidNeighbors(hex.FromOffset(5, 5))); n != 6 {
		t.Errorf("interior cell has %d valid neighbors", n)
	}
	corner := part.ValidNeighbors(hex.FromOffset(0, 0))
	if len(corner) >= 6 || len(corner) == 0 {
		t.Errorf("corner cell has %d valid neighbors", len(corner))
	}
	for _, n := range corner {
		if !part.IsValidPosition(n) {
			t.Errorf("invalid neighbor %v", n)
		}
	}

	part.SetObstacle(hex.FromOffset(6, 5), true)
	for _, n := range part.ValidNeighbors(hex.FromOffset(5, 5)) {
		if part.IsObstacle(n) {
			t.Errorf("obstacle %v returned as valid neighbor", n)
		}
	}
}

func TestPartitionCanPlace(t *testing.T) {
	_, es := newEntities(2)
	part := NewSpatialPartition(6, 6, 16)
	pos := hex.FromOffset(3, 3)

	part.Insert(es[0], pos, components.KindGrass)
	if part.CanPlace(pos, components.KindGrass) {
		t.Error("second grass allowed on occupied ground slot")
	}
	if !part.CanPlace(pos, components.KindRabbit) {
		t.Error("agent refused on a cell holding only grass")
	}
	part.Insert(es[1], pos, components.KindRabbit)
	if part.CanPlace(pos, components.KindFox) {
		t.Error("placement allowed on occupied other slot")
	}
	if part.CanPlace(hex.FromOffset(6, 0), components.KindGrass) {
		t.Error("placement allowed outside map")
	}
}

func TestPartitionNearest(t *testing.T) {
	_, es := newEntities(2)
	part := NewSpatialPartition(10, 10, 16)
	part.Insert(es[0], hex.FromOffset(8, 8), components.KindFox)
	part.Insert(es[1], hex.FromOffset(4, 5), components.KindFox)

	got, d, ok := part.Nearest(hex.FromOffset(4, 4), components.KindFox, 3)
	if !ok || got.Entity != es[1] || d != 1 {
		t.Errorf("Nearest = %v, %d, %v", got, d, ok)
	}
	if _, _, ok := part.Nearest(hex.FromOffset(0, 0), components.KindFox, 2); ok {
		t.Error("found a fox outside the radius")
	}
}

func TestPartitionNearestCell(t *testing.T) {
	part := NewSpatialPartition(10, 10, 16)
	for _, p := range []hex.Position{hex.FromOffset(0, 0), hex.FromOffset(3, 4), hex.FromOffset(9, 9)} {
		x, y := part.CellToWorld(p)
		if got := part.NearestCell(x+2, y-1); got != p {
			t.Errorf("NearestCell near %v = %v", p, got)
		}
	}
}

func TestPartitionContractPanics(t *testing.T) {
	expectPanic := func(name string, fn func()) {
		t.Helper()
		defer func() {
			if recover() == nil {
				t.Errorf("%s: expected panic", name)
			}
		}()
		fn()
	}

	_, es := newEntities(1)
	part := NewSpatialPartition(5, 5, 16)
	pos := hex.FromOffset(1, 1)
	part.Insert(es[0], pos, components.KindGrass)

	expectPanic("double insert", func() { part.Insert(es[0], pos, components.KindGrass) })
	expectPanic("stale remove", func() { part.Remove(es[0], hex.FromOffset(2, 2), components.KindGrass) })
	expectPanic("out of bounds", func() { part.EntitiesAt(hex.FromOffset(7, 1)) })

	// The failed calls must not have corrupted the index.
	if !containsPlacement(part.EntitiesByKind(components.KindGrass), es[0], pos) {
		t.Error("index corrupted by rejected calls")
	}
	if !containsEntity(part.EntitiesAt(pos), es[0]) {
		t.Error("cell set corrupted by rejected calls")
	}
}
