package level

import (
	"fmt"
	"math/rand"

	"github.com/pthm-cable/hexforage/components"
	"github.com/pthm-cable/hexforage/hex"
	"github.com/pthm-cable/hexforage/systems"
)

// GenConfig controls procedural level generation.
type GenConfig struct {
	Name     string
	Width    int
	Height   int
	CellSize float64
	Seed     int64

	Rabbits int
	Foxes   int
	Grass   int

	FertilityScale     float64
	FertilityThreshold float64

	// RockThreshold marks cells whose rock noise is at or above it as
	// obstacles. 0 disables rocks.
	RockThreshold float64
}

// DefaultGenConfig returns a generator setup for a width x height map.
func DefaultGenConfig(width, height int, seed int64) GenConfig {
	return GenConfig{
		Name:               fmt.Sprintf("generated-%d", seed),
		Width:              width,
		Height:             height,
		Seed:               seed,
		Rabbits:            12,
		Foxes:              3,
		Grass:              width * height / 6,
		FertilityScale:     0.12,
		FertilityThreshold: 0.45,
		RockThreshold:      0.8,
	}
}

// Generate builds a level. Grass lands on fertile cells, agents on any open
// cell, and nothing lands on rocks. Counts shrink when the map runs out of room.
func Generate(cfg GenConfig) (*Level, error) {
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return nil, fmt.Errorf("%w: size %dx%d", ErrInvalidLevel, cfg.Width, cfg.Height)
	}
	rng := rand.New(rand.NewSource(cfg.Seed))
	fertility := systems.NewFertilityField(cfg.Seed, cfg.FertilityScale, cfg.FertilityThreshold)

	lvl := &Level{
		Name:     cfg.Name,
		Width:    cfg.Width,
		Height:   cfg.Height,
		CellSize: cfg.CellSize,
		Seed:     cfg.Seed,
	}

	var open, fertile []Cell
	if cfg.RockThreshold > 0 {
		rocks := systems.NewFertilityField(cfg.Seed+1, cfg.FertilityScale*2, cfg.RockThreshold)
		for y := 0; y < cfg.Height; y++ {
			for x := 0; x < cfg.Width; x++ {
				if rocks.Fertile(hex.FromOffset(x, y)) {
					lvl.Obstacles = append(lvl.Obstacles, Cell{X: x, Y: y})
				}
			}
		}
	}
	blocked := make(map[Cell]bool, len(lvl.Obstacles))
	for _, c := range lvl.Obstacles {
		blocked[c] = true
	}
	for y := 0; y < cfg.Height; y++ {
		for x := 0; x < cfg.Width; x++ {
			c := Cell{X: x, Y: y}
			if blocked[c] {
				continue
			}
			open = append(open, c)
			if fertility.Fertile(c.Pos()) {
				fertile = append(fertile, c)
			}
		}
	}

	place := func(kind components.Kind, cells []Cell, n int) {
		rng.Shuffle(len(cells), func(i, j int) { cells[i], cells[j] = cells[j], cells[i] })
		n = min(n, len(cells))
		for _, c := range cells[:n] {
			lvl.Entities = append(lvl.Entities, Placement{Type: kind.String(), X: c.X, Y: c.Y})
		}
	}

	place(components.KindGrass, fertile, cfg.Grass)

	// Agents share the other layer, so rabbits and foxes draw from one shuffle.
	rng.Shuffle(len(open), func(i, j int) { open[i], open[j] = open[j], open[i] })
	rabbits := min(cfg.Rabbits, len(open))
	place(components.KindRabbit, open[:rabbits], rabbits)
	place(components.KindFox, open[rabbits:], cfg.Foxes)

	if err := lvl.Validate(); err != nil {
		return nil, fmt.Errorf("generated level: %w", err)
	}
	return lvl, nil
}
