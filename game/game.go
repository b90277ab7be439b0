package game

import (
	"errors"
	"fmt"
	"log/slog"
	"math/rand"

	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/hexforage/components"
	"github.com/pthm-cable/hexforage/config"
	"github.com/pthm-cable/hexforage/level"
	"github.com/pthm-cable/hexforage/systems"
	"github.com/pthm-cable/hexforage/telemetry"
)

var (
	// ErrOutOfBounds is returned when a placement targets a cell outside the map.
	ErrOutOfBounds = errors.New("cell out of bounds")
	// ErrCellOccupied is returned when the placement layer at a cell is taken or blocked.
	ErrCellOccupied = errors.New("cell occupied")
)

// Game holds the complete simulation state.
type Game struct {
	world *ecs.World
	rng   *rand.Rand
	seed  int64
	name  string

	// Entity mappers, one per archetype
	cellMap   *ecs.Map2[components.Position, components.Identity]
	grassMap  *ecs.Map3[components.Position, components.Identity, components.Edible]
	rabbitMap *ecs.Map4[components.Position, components.Identity, components.Agent, components.Edible]
	foxMap    *ecs.Map3[components.Position, components.Identity, components.Agent]

	// Component mappers for lookups
	posMap    *ecs.Map[components.Position]
	identMap  *ecs.Map[components.Identity]
	agentMap  *ecs.Map[components.Agent]
	edibleMap *ecs.Map[components.Edible]

	agentFilter *ecs.Filter3[components.Position, components.Identity, components.Agent]

	// Simulation systems
	partition *systems.SpatialPartition
	despawner *systems.Despawner
	behavior  *systems.BehaviorSystem
	clock     *systems.SatietyClock
	spawner   *systems.GrassSpawner
	registry  *systems.SystemRegistry

	// Telemetry
	collector        *telemetry.Collector
	perfCollector    *telemetry.PerfCollector
	bookmarkDetector *telemetry.BookmarkDetector
	outputManager    *telemetry.OutputManager
	logStats         bool
	snapshotDir      string
	statsCallback    func(telemetry.WindowStats)

	// Presentation feed
	publisher    Publisher
	publishEvery int32

	// State
	tick    int32
	nextID  uint32
	dt      float32
	removed map[components.Kind]int
}

// NewGameWithOptions builds a game from a level, or from a generated level
// when opts.Level is nil.
func NewGameWithOptions(opts Options) (*Game, error) {
	cfg := config.Cfg()

	lvl := opts.Level
	if lvl == nil {
		gen := level.DefaultGenConfig(cfg.World.Width, cfg.World.Height, opts.Seed)
		gen.Grass = cfg.Grass.Initial
		gen.FertilityScale = cfg.Grass.FertilityScale
		gen.FertilityThreshold = cfg.Grass.FertilityThreshold
		if a, ok := cfg.Archetype(components.KindRabbit.String()); ok {
			gen.Rabbits = a.Initial
		}
		if a, ok := cfg.Archetype(components.KindFox.String()); ok {
			gen.Foxes = a.Initial
		}
		var err error
		if lvl, err = level.Generate(gen); err != nil {
			return nil, fmt.Errorf("generating level: %w", err)
		}
	}

	cellSize := float32(lvl.CellSize)
	if cellSize <= 0 {
		cellSize = cfg.Derived.CellSize32
	}
	statsWindow := opts.StatsWindowSec
	if statsWindow <= 0 {
		statsWindow = cfg.Telemetry.StatsWindow
	}

	world := ecs.NewWorld()
	g := &Game{
		world:     world,
		rng:       rand.New(rand.NewSource(opts.Seed)),
		seed:      opts.Seed,
		name:      lvl.Name,
		cellMap:   ecs.NewMap2[components.Position, components.Identity](world),
		grassMap:  ecs.NewMap3[components.Position, components.Identity, components.Edible](world),
		rabbitMap: ecs.NewMap4[components.Position, components.Identity, components.Agent, components.Edible](world),
		foxMap:    ecs.NewMap3[components.Position, components.Identity, components.Agent](world),
		posMap:    ecs.NewMap[components.Position](world),
		identMap:  ecs.NewMap[components.Identity](world),
		agentMap:  ecs.NewMap[components.Agent](world),
		edibleMap: ecs.NewMap[components.Edible](world),

		agentFilter: ecs.NewFilter3[components.Position, components.Identity, components.Agent](world),

		registry:         systems.NewSystemRegistry(),
		collector:        telemetry.NewCollector(statsWindow, cfg.Derived.DT32),
		perfCollector:    telemetry.NewPerfCollector(cfg.Telemetry.PerfWindow),
		bookmarkDetector: telemetry.NewBookmarkDetector(10),
		logStats:         opts.LogStats,
		snapshotDir:      opts.SnapshotDir,
		statsCallback:    opts.StatsCallback,
		publisher:        opts.Publisher,
		publishEvery:     int32(max(1, cfg.Observer.PublishEvery)),
		dt:               cfg.Derived.DT32,
		removed:          make(map[components.Kind]int),
	}

	g.partition = systems.NewSpatialPartition(lvl.Width, lvl.Height, cellSize)
	g.despawner = systems.NewDespawner(world, g.partition)
	g.despawner.OnDespawn = g.onDespawn
	g.behavior = systems.NewBehaviorSystem(world, g.partition, g.despawner, g.rng, g.collector)
	g.clock = systems.NewSatietyClock(world, g.despawner, g.collector)

	if err := g.loadLevel(lvl); err != nil {
		return nil, err
	}

	fertility := systems.NewFertilityField(lvl.Seed, cfg.Grass.FertilityScale, cfg.Grass.FertilityThreshold)
	g.spawner = systems.NewGrassSpawner(g.partition, fertility, g.rng, g.collector)
	if err := g.bindPhases(); err != nil {
		return nil, err
	}

	om, err := telemetry.NewOutputManager(opts.OutputDir)
	if err != nil {
		return nil, err
	}
	g.outputManager = om
	if err := om.WriteConfig(cfg); err != nil {
		slog.Error("failed to write config", "error", err)
	}

	slog.Info("game created",
		"level", g.name,
		"width", lvl.Width,
		"height", lvl.Height,
		"rabbits", g.partition.Count(components.KindRabbit),
		"foxes", g.partition.Count(components.KindFox),
		"grass", g.partition.Count(components.KindGrass),
		"fertile_cells", g.spawner.FertileCells(),
		"seed", g.seed,
	)
	return g, nil
}

// Tick returns the number of completed ticks.
func (g *Game) Tick() int32 { return g.tick }

// Seed returns the RNG seed.
func (g *Game) Seed() int64 { return g.seed }

// Partition exposes the spatial index for read-only queries.
func (g *Game) Partition() *systems.SpatialPartition { return g.partition }

// Registry returns the tick phase registry.
func (g *Game) Registry() *systems.SystemRegistry { return g.registry }

// SetPublisher installs the presentation feed. nil disables it.
func (g *Game) SetPublisher(p Publisher) { g.publisher = p }

// Close flushes and closes run output.
func (g *Game) Close() error {
	if g.snapshotDir != "" || g.outputManager != nil {
		g.saveSnapshot(nil)
	}
	return g.outputManager.Close()
}
