// Package systems provides ECS systems for the simulation.
package systems

import (
	"fmt"
	"slices"

	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/hexforage/components"
	"github.com/pthm-cable/hexforage/hex"
)

// Placement pairs an entity with the cell it was indexed at.
type Placement struct {
	Entity ecs.Entity
	Cell   hex.Position
}

type entitySet map[ecs.Entity]struct{}

// SpatialPartition indexes entities by hex cell and by kind.
//
// Each cell has one exclusive terrain slot plus two sets: ground occupants
// (resources) and other occupants (agents). The by-kind index and the per-cell
// sets are always updated together. Contract violations (double insert, remove
// with coordinates other than those used at insert, out-of-bounds cells) panic.
type SpatialPartition struct {
	width    int
	height   int
	cellSize float32

	cells     []ecs.Entity
	hasCell   []bool
	obstacles []bool
	ground    []entitySet
	other     []entitySet
	byKind    map[components.Kind]map[ecs.Entity]hex.Position
}

// NewSpatialPartition creates an empty partition for a width x height map.
func NewSpatialPartition(width, height int, cellSize float32) *SpatialPartition {
	if width <= 0 || height <= 0 {
		panic(fmt.Sprintf("spatial: invalid map size %dx%d", width, height))
	}
	n := width * height
	return &SpatialPartition{
		width:     width,
		height:    height,
		cellSize:  cellSize,
		cells:     make([]ecs.Entity, n),
		hasCell:   make([]bool, n),
		obstacles: make([]bool, n),
		ground:    make([]entitySet, n),
		other:     make([]entitySet, n),
		byKind:    make(map[components.Kind]map[ecs.Entity]hex.Position),
	}
}

// Width returns the number of cells per row.
func (p *SpatialPartition) Width() int { return p.width }

// Height returns the number of rows.
func (p *SpatialPartition) Height() int { return p.height }

// CellSize returns the world-space cell size.
func (p *SpatialPartition) CellSize() float32 { return p.cellSize }

// index converts a cell to its slot. Panics when out of bounds.
func (p *SpatialPartition) index(pos hex.Position) int {
	if !p.IsValidPosition(pos) {
		panic(fmt.Sprintf("spatial: cell %v outside %dx%d map", pos, p.width, p.height))
	}
	return pos.Y*p.width + pos.X
}

// Insert registers e at pos under kind.
func (p *SpatialPartition) Insert(e ecs.Entity, pos hex.Position, kind components.Kind) {
	idx := p.index(pos)

	idxKind := p.byKind[kind]
	if idxKind == nil {
		idxKind = make(map[ecs.Entity]hex.Position)
		p.byKind[kind] = idxKind
	}
	if prev, dup := idxKind[e]; dup {
		panic(fmt.Sprintf("spatial: entity %d already indexed as %v at %v", e.ID(), kind, prev))
	}

	switch kind.Layer() {
	case components.LayerCell:
		if p.hasCell[idx] {
			panic(fmt.Sprintf("spatial: terrain slot %v already holds entity %d", pos, p.cells[idx].ID()))
		}
		p.cells[idx] = e
		p.hasCell[idx] = true
	case components.LayerGround:
		p.ground[idx] = addTo(p.ground[idx], e)
	default:
		p.other[idx] = addTo(p.other[idx], e)
	}
	idxKind[e] = pos
}

// Remove unregisters e. pos and kind must match the values used at Insert.
func (p *SpatialPartition) Remove(e ecs.Entity, pos hex.Position, kind components.Kind) {
	idx := p.index(pos)

	at, ok := p.byKind[kind][e]
	if !ok {
		panic(fmt.Sprintf("spatial: entity %d not indexed as %v", e.ID(), kind))
	}
	if at != pos {
		panic(fmt.Sprintf("spatial: entity %d removed at %v but indexed at %v", e.ID(), pos, at))
	}

	switch kind.Layer() {
	case components.LayerCell:
		p.cells[idx] = ecs.Entity{}
		p.hasCell[idx] = false
	case components.LayerGround:
		delete(p.ground[idx], e)
	default:
		delete(p.other[idx], e)
	}
	delete(p.byKind[kind], e)
}

// Move re-indexes e from one cell to another.
func (p *SpatialPartition) Move(e ecs.Entity, from, to hex.Position, kind components.Kind) {
	if from == to {
		return
	}
	p.Remove(e, from, kind)
	p.Insert(e, to, kind)
}

// IsValidPosition reports whether pos lies inside the map.
func (p *SpatialPartition) IsValidPosition(pos hex.Position) bool {
	return pos.X >= 0 && pos.X < p.width && pos.Y >= 0 && pos.Y < p.height
}

// IsObstacle reports whether pos is impassable. Cells outside the map are not obstacles;
// check IsValidPosition first.
func (p *SpatialPartition) IsObstacle(pos hex.Position) bool {
	if !p.IsValidPosition(pos) {
		return false
	}
	return p.obstacles[pos.Y*p.width+pos.X]
}

// SetObstacle marks or clears an impassable cell.
func (p *SpatialPartition) SetObstacle(pos hex.Position, blocked bool) {
	p.obstacles[p.index(pos)] = blocked
}

// Walkable reports whether pos is inside the map and not an obstacle.
func (p *SpatialPartition) Walkable(pos hex.Position) bool {
	return p.IsValidPosition(pos) && !p.IsObstacle(pos)
}

// ValidNeighbors returns the walkable neighbours of pos in hex.CubeDirections order.
func (p *SpatialPartition) ValidNeighbors(pos hex.Position) []hex.Position {
	return p.AppendValidNeighbors(make([]hex.Position, 0, 6), pos)
}

// AppendValidNeighbors appends the walkable neighbours of pos to dst.
// Reuse dst across calls to avoid allocations.
func (p *SpatialPartition) AppendValidNeighbors(dst []hex.Position, pos hex.Position) []hex.Position {
	for _, n := range pos.Neighbors() {
		if p.Walkable(n) {
			dst = append(dst, n)
		}
	}
	return dst
}

// EntitiesAt returns the ground and other occupants of pos, each group ordered by entity id.
// The terrain slot is not included.
func (p *SpatialPartition) EntitiesAt(pos hex.Position) []ecs.Entity {
	idx := p.index(pos)
	out := make([]ecs.Entity, 0, len(p.ground[idx])+len(p.other[idx]))
	out = appendSorted(out, p.ground[idx])
	out = appendSorted(out, p.other[idx])
	return out
}

// CountAt returns how many ground and other occupants of pos are not exclude.
func (p *SpatialPartition) CountAt(pos hex.Position, exclude ecs.Entity) int {
	idx := p.index(pos)
	n := len(p.ground[idx]) + len(p.other[idx])
	if _, ok := p.ground[idx][exclude]; ok {
		n--
	}
	if _, ok := p.other[idx][exclude]; ok {
		n--
	}
	return n
}

// EntitiesByKind returns a snapshot of every entity indexed under kind, ordered by entity id.
// Returns an empty slice when there are none.
func (p *SpatialPartition) EntitiesByKind(kind components.Kind) []Placement {
	idxKind := p.byKind[kind]
	out := make([]Placement, 0, len(idxKind))
	for e, pos := range idxKind {
		out = append(out, Placement{Entity: e, Cell: pos})
	}
	slices.SortFunc(out, func(a, b Placement) int {
		return cmpEntity(a.Entity, b.Entity)
	})
	return out
}

// Count returns the number of entities indexed under kind.
func (p *SpatialPartition) Count(kind components.Kind) int {
	return len(p.byKind[kind])
}

// Lookup returns where e is indexed under kind.
func (p *SpatialPartition) Lookup(e ecs.Entity, kind components.Kind) (hex.Position, bool) {
	pos, ok := p.byKind[kind][e]
	return pos, ok
}

// Nearest returns the closest entity of kind within radius of center.
// Ties go to the lower entity id.
func (p *SpatialPartition) Nearest(center hex.Position, kind components.Kind, radius int) (Placement, int, bool) {
	var best Placement
	bestD := -1
	for e, pos := range p.byKind[kind] {
		d := hex.Distance(center, pos)
		if d > radius {
			continue
		}
		if bestD < 0 || d < bestD || (d == bestD && cmpEntity(e, best.Entity) < 0) {
			best = Placement{Entity: e, Cell: pos}
			bestD = d
		}
	}
	return best, bestD, bestD >= 0
}

// CellAt returns the terrain entity at pos.
func (p *SpatialPartition) CellAt(pos hex.Position) (ecs.Entity, bool) {
	idx := p.index(pos)
	return p.cells[idx], p.hasCell[idx]
}

// CanPlace reports whether an entity of kind may be placed at pos.
// Placement is exclusive per layer: one terrain cell, one ground resource and
// one other occupant per cell. Agents moving afterwards may still share a cell.
func (p *SpatialPartition) CanPlace(pos hex.Position, kind components.Kind) bool {
	if !p.IsValidPosition(pos) {
		return false
	}
	if kind != components.KindCell && p.IsObstacle(pos) {
		return false
	}
	idx := pos.Y*p.width + pos.X
	switch kind.Layer() {
	case components.LayerCell:
		return !p.hasCell[idx]
	case components.LayerGround:
		return len(p.ground[idx]) == 0
	default:
		return len(p.other[idx]) == 0
	}
}

// NearestCell maps a world point to the closest cell. The result may lie outside the map.
func (p *SpatialPartition) NearestCell(wx, wy float32) hex.Position {
	return hex.NearestHex(wx, wy, p.cellSize)
}

// CellToWorld returns the world-space centre of pos.
func (p *SpatialPartition) CellToWorld(pos hex.Position) (float32, float32) {
	return hex.ToWorld(pos, p.cellSize)
}

// Bounds returns the world-space extent covered by the map, including the
// half-cell stagger of odd rows.
func (p *SpatialPartition) Bounds() (w, h float32) {
	right, _ := hex.ToWorld(hex.FromOffset(p.width-1, 1), p.cellSize)
	_, bottom := hex.ToWorld(hex.FromOffset(0, p.height-1), p.cellSize)
	pad := p.cellSize
	return right + pad, bottom + pad
}

func addTo(s entitySet, e ecs.Entity) entitySet {
	if s == nil {
		s = make(entitySet, 2)
	}
	if _, dup := s[e]; dup {
		panic(fmt.Sprintf("spatial: entity %d already in cell set", e.ID()))
	}
	s[e] = struct{}{}
	return s
}

func appendSorted(dst []ecs.Entity, s entitySet) []ecs.Entity {
	start := len(dst)
	for e := range s {
		dst = append(dst, e)
	}
	slices.SortFunc(dst[start:], cmpEntity)
	return dst
}

func cmpEntity(a, b ecs.Entity) int {
	switch {
	case a.ID() < b.ID():
		return -1
	case a.ID() > b.ID():
		return 1
	}
	return 0
}
