package game

import (
	"fmt"

	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/hexforage/components"
	"github.com/pthm-cable/hexforage/config"
	"github.com/pthm-cable/hexforage/hex"
	"github.com/pthm-cable/hexforage/level"
)

// overrides carries per-placement values from a level file.
type overrides struct {
	decayRate *float64
	satiety   *int
}

// loadLevel builds the terrain grid and seeds the initial placements.
func (g *Game) loadLevel(lvl *level.Level) error {
	for y := 0; y < lvl.Height; y++ {
		for x := 0; x < lvl.Width; x++ {
			g.spawnCell(hex.FromOffset(x, y))
		}
	}
	for _, c := range lvl.Obstacles {
		g.partition.SetObstacle(c.Pos(), true)
	}

	for i, p := range lvl.Entities {
		kind, err := p.Kind()
		if err != nil {
			return fmt.Errorf("level entity %d: %w", i, err)
		}
		if _, err := g.place(kind, p.Pos(), overrides{decayRate: p.DecayRate, satiety: p.Satiety}); err != nil {
			return fmt.Errorf("level entity %d: %w", i, err)
		}
	}
	return nil
}

// PlaceAt spawns an entity of kind at pos and registers it in the partition.
// Fails with ErrOutOfBounds or ErrCellOccupied; placement is exclusive per layer.
func (g *Game) PlaceAt(kind components.Kind, pos hex.Position) (ecs.Entity, error) {
	return g.place(kind, pos, overrides{})
}

func (g *Game) place(kind components.Kind, pos hex.Position, ov overrides) (ecs.Entity, error) {
	if !g.partition.IsValidPosition(pos) {
		return ecs.Entity{}, fmt.Errorf("placing %s at %v: %w", kind, pos, ErrOutOfBounds)
	}
	if !g.partition.CanPlace(pos, kind) {
		return ecs.Entity{}, fmt.Errorf("placing %s at %v: %w", kind, pos, ErrCellOccupied)
	}

	switch kind {
	case components.KindGrass:
		return g.spawnGrass(pos), nil
	case components.KindRabbit, components.KindFox:
		agent, err := g.newAgent(kind, ov)
		if err != nil {
			return ecs.Entity{}, err
		}
		return g.spawnAgent(kind, pos, &agent), nil
	default:
		return ecs.Entity{}, fmt.Errorf("placing %s: %w", kind, components.ErrUnknownKind)
	}
}

func (g *Game) newPosition(pos hex.Position) components.Position {
	x, y := g.partition.CellToWorld(pos)
	return components.Position{Cell: pos, X: x, Y: y}
}

func (g *Game) newIdentity(kind components.Kind) components.Identity {
	g.nextID++
	return components.Identity{ID: g.nextID, Kind: kind}
}

func (g *Game) spawnCell(pos hex.Position) ecs.Entity {
	p := g.newPosition(pos)
	id := g.newIdentity(components.KindCell)
	e := g.cellMap.NewEntity(&p, &id)
	g.partition.Insert(e, pos, components.KindCell)
	return e
}

func (g *Game) spawnGrass(pos hex.Position) ecs.Entity {
	p := g.newPosition(pos)
	id := g.newIdentity(components.KindGrass)
	e := g.grassMap.NewEntity(&p, &id, &components.Edible{})
	g.partition.Insert(e, pos, components.KindGrass)
	return e
}

// spawnAgent creates an agent. Rabbits are themselves edible.
func (g *Game) spawnAgent(kind components.Kind, pos hex.Position, agent *components.Agent) ecs.Entity {
	p := g.newPosition(pos)
	id := g.newIdentity(kind)

	var e ecs.Entity
	if kind == components.KindRabbit {
		e = g.rabbitMap.NewEntity(&p, &id, agent, &components.Edible{})
	} else {
		e = g.foxMap.NewEntity(&p, &id, agent)
	}
	g.partition.Insert(e, pos, kind)
	return e
}

// newAgent builds the decision record from the kind's archetype.
func (g *Game) newAgent(kind components.Kind, ov overrides) (components.Agent, error) {
	cfg := config.Cfg()
	arch, ok := cfg.Archetype(kind.String())
	if !ok {
		return components.Agent{}, fmt.Errorf("no archetype for %s: %w", kind, components.ErrUnknownKind)
	}
	food, err := components.ParseKind(arch.Food)
	if err != nil {
		return components.Agent{}, fmt.Errorf("archetype %s food: %w", arch.Name, err)
	}

	var fleeFrom []components.Kind
	if arch.FleeRadius > 0 {
		for _, name := range cfg.Derived.PredatorsOf[arch.Name] {
			pred, err := components.ParseKind(name)
			if err != nil {
				return components.Agent{}, fmt.Errorf("archetype %s predator: %w", arch.Name, err)
			}
			fleeFrom = append(fleeFrom, pred)
		}
	}

	agent := components.Agent{
		State:     components.StateIdle,
		Cooldown:  components.NewReadyTimer(float32(arch.MoveCooldown)),
		Satiety:   int32(cfg.Satiety.Initial),
		DecayRate: float32(arch.DecayRate),
		Food:      food,
		FleeFrom:  fleeFrom,
		FleeRange: arch.FleeRadius,
		Preference: components.Preference{
			Strength:  cfg.Exploration.Strength,
			Stability: cfg.Exploration.Stability,
		},
	}
	if ov.decayRate != nil {
		agent.DecayRate = float32(*ov.decayRate)
	}
	if ov.satiety != nil {
		agent.Satiety = int32(*ov.satiety)
	}
	return agent, nil
}
