package systems

import (
	"log/slog"
	"math/rand"

	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/hexforage/components"
	"github.com/pthm-cable/hexforage/config"
	"github.com/pthm-cable/hexforage/hex"
)

// Placer spawns an entity of kind at a cell and registers it in the partition.
type Placer interface {
	PlaceAt(kind components.Kind, pos hex.Position) (ecs.Entity, error)
}

// GrassSpawner regrows grass on fertile, empty cells at a fixed interval.
type GrassSpawner struct {
	partition *SpatialPartition
	rng       *rand.Rand
	events    Events

	interval float32
	batch    int
	max      int
	timer    float32

	fertile []hex.Position // static, computed once
	open    []hex.Position
}

// NewGrassSpawner creates a spawner over the fertile cells of field.
func NewGrassSpawner(partition *SpatialPartition, field *FertilityField, rng *rand.Rand, events Events) *GrassSpawner {
	cfg := config.Cfg().Grass
	s := &GrassSpawner{
		partition: partition,
		rng:       rng,
		events:    orNoEvents(events),
		interval:  float32(cfg.RegrowInterval),
		batch:     cfg.RegrowBatch,
		max:       cfg.Max,
	}
	for y := 0; y < partition.Height(); y++ {
		for x := 0; x < partition.Width(); x++ {
			p := hex.FromOffset(x, y)
			if field.Fertile(p) && !partition.IsObstacle(p) {
				s.fertile = append(s.fertile, p)
			}
		}
	}
	return s
}

// FertileCells returns how many cells can ever hold regrown grass.
func (s *GrassSpawner) FertileCells() int {
	return len(s.fertile)
}

// Update advances the regrowth timer and spawns a batch when it fires.
// Returns the number of grass entities placed.
func (s *GrassSpawner) Update(dt float32, placer Placer) int {
	if s.interval <= 0 || s.batch <= 0 {
		return 0
	}
	s.timer += dt
	if s.timer < s.interval {
		return 0
	}
	s.timer -= s.interval

	room := s.max - s.partition.Count(components.KindGrass)
	n := min(s.batch, room)
	if n <= 0 {
		return 0
	}

	s.open = s.open[:0]
	for _, p := range s.fertile {
		if s.partition.CanPlace(p, components.KindGrass) {
			s.open = append(s.open, p)
		}
	}

	placed := 0
	for placed < n && len(s.open) > 0 {
		i := s.rng.Intn(len(s.open))
		p := s.open[i]
		s.open[i] = s.open[len(s.open)-1]
		s.open = s.open[:len(s.open)-1]

		if _, err := placer.PlaceAt(components.KindGrass, p); err != nil {
			slog.Warn("grass regrowth failed", "cell", p, "error", err)
			continue
		}
		placed++
	}
	if placed > 0 {
		s.events.RecordRegrowth(placed)
	}
	return placed
}
