package systems

import (
	"log/slog"
	"math/rand"
	"slices"

	"github.com/mlange-42/ark/ecs"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/hexforage/components"
	"github.com/pthm-cable/hexforage/config"
	"github.com/pthm-cable/hexforage/hex"
)

// BehaviorSystem runs the per-agent state machine: Idle, RandomMove, Foraging and Flee.
//
// Agents are stepped one at a time in entity-id order. Reservation, movement and
// consumption all complete inside an agent's step, so a reservation written by one
// agent is visible to every agent stepped after it in the same tick.
type BehaviorSystem struct {
	world     *ecs.World
	filter    ecs.Filter1[components.Agent]
	posMap    *ecs.Map[components.Position]
	identMap  *ecs.Map[components.Identity]
	agentMap  *ecs.Map[components.Agent]
	edibleMap *ecs.Map[components.Edible]

	partition *SpatialPartition
	planner   *PathPlanner
	despawner *Despawner
	events    Events
	rng       *rand.Rand

	forageBelow   int32
	satedAt       int32
	consumeAmount int32
	minSteps      int
	maxSteps      int

	// Reusable buffers
	order     []ecs.Entity
	neighbors []hex.Position
	weights   []float64
}

// NewBehaviorSystem creates a behavior system. events may be nil.
func NewBehaviorSystem(w *ecs.World, partition *SpatialPartition, despawner *Despawner, rng *rand.Rand, events Events) *BehaviorSystem {
	cfg := config.Cfg()
	return &BehaviorSystem{
		world:         w,
		filter:        *ecs.NewFilter1[components.Agent](w),
		posMap:        ecs.NewMap[components.Position](w),
		identMap:      ecs.NewMap[components.Identity](w),
		agentMap:      ecs.NewMap[components.Agent](w),
		edibleMap:     ecs.NewMap[components.Edible](w),
		partition:     partition,
		planner:       NewPathPlanner(partition),
		despawner:     despawner,
		events:        orNoEvents(events),
		rng:           rng,
		forageBelow:   int32(cfg.Satiety.ForageBelow),
		satedAt:       int32(cfg.Satiety.SatedAt),
		consumeAmount: int32(cfg.Satiety.ConsumeAmount),
		minSteps:      cfg.Exploration.MinSteps,
		maxSteps:      cfg.Exploration.MaxSteps,
		neighbors:     make([]hex.Position, 0, 6),
		weights:       make([]float64, 0, 6),
	}
}

// Update steps every agent once.
func (s *BehaviorSystem) Update(dt float32) {
	// Collect first: steps may remove entities.
	s.order = s.order[:0]
	query := s.filter.Query()
	for query.Next() {
		s.order = append(s.order, query.Entity())
	}
	slices.SortFunc(s.order, cmpEntity)

	for _, e := range s.order {
		// Eaten earlier this tick
		if !s.world.Alive(e) {
			continue
		}
		s.Step(e, dt)
	}
}

// Step runs one decision for agent e with dt seconds elapsed.
func (s *BehaviorSystem) Step(e ecs.Entity, dt float32) {
	agent := s.agentMap.Get(e)

	if !agent.Cooldown.Tick(dt) {
		return
	}
	agent.Cooldown.Reset()

	s.evaluateFlee(e, agent)

	if agent.State != components.StateFlee && agent.State != components.StateForaging &&
		agent.Satiety <= s.forageBelow {
		agent.State = components.StateForaging
		agent.IdleStreak = 0
		agent.ClearExploration()
	}

	switch agent.State {
	case components.StateForaging:
		s.Forage(e)
	case components.StateFlee:
		s.flee(e, agent)
	default:
		s.idle(e, agent)
	}
}

// evaluateFlee enters Flee when a predator is within range and leaves it when none is.
func (s *BehaviorSystem) evaluateFlee(e ecs.Entity, agent *components.Agent) {
	if agent.FleeRange <= 0 {
		return
	}
	_, threatened := s.nearestThreat(e, agent)

	switch {
	case threatened && agent.State != components.StateFlee:
		s.despawner.ReleaseTarget(e, agent)
		agent.ClearExploration()
		agent.IdleStreak = 0
		agent.State = components.StateFlee
		s.events.RecordFlee()
		slog.Debug("flee", "entity", e.ID())
	case !threatened && agent.State == components.StateFlee:
		agent.State = components.StateIdle
		agent.IdleStreak = 0
	}
}

func (s *BehaviorSystem) nearestThreat(e ecs.Entity, agent *components.Agent) (hex.Position, bool) {
	here := s.posMap.Get(e).Cell
	var best hex.Position
	bestD := -1
	for _, k := range agent.FleeFrom {
		p, d, ok := s.partition.Nearest(here, k, agent.FleeRange)
		if ok && (bestD < 0 || d < bestD) {
			best, bestD = p.Cell, d
		}
	}
	return best, bestD >= 0
}

// flee steps to the walkable neighbour farthest from the nearest predator.
// Stays put when no neighbour gains distance.
func (s *BehaviorSystem) flee(e ecs.Entity, agent *components.Agent) {
	threat, ok := s.nearestThreat(e, agent)
	if !ok {
		return
	}
	here := s.posMap.Get(e).Cell
	bestD := hex.Distance(here, threat)
	best := here

	s.neighbors = s.partition.AppendValidNeighbors(s.neighbors[:0], here)
	for _, n := range s.neighbors {
		if d := hex.Distance(n, threat); d > bestD {
			best, bestD = n, d
		}
	}
	if best != here {
		s.moveTo(e, best)
	}
}

// idle handles the Idle and RandomMove states.
func (s *BehaviorSystem) idle(e ecs.Entity, agent *components.Agent) {
	if agent.State == components.StateIdle {
		agent.IdleStreak++
		if !ShouldExplore(agent.IdleStreak, s.rng.Intn(100)) {
			return
		}
		agent.State = components.StateRandomMove
		agent.IdleStreak = 0
		agent.ClearExploration()
		s.events.RecordExploration()
	}

	here := s.posMap.Get(e).Cell
	s.neighbors = s.partition.AppendValidNeighbors(s.neighbors[:0], here)
	if len(s.neighbors) == 0 {
		slog.Debug("random move blocked", "entity", e.ID(), "cell", here)
		agent.State = components.StateIdle
		agent.IdleStreak = 0
		return
	}

	// Fresh burst: pick a direction and take the first step along it.
	if agent.Preference.Direction == (r3.Vec{}) {
		target := s.neighbors[s.rng.Intn(len(s.neighbors))]
		dir := CubeDirection(here, target)
		agent.Preference.Direction = dir
		agent.Exploration = components.Exploration{
			Direction:      dir,
			StepsRemaining: int8(s.minSteps + s.rng.Intn(s.maxSteps-s.minSteps)),
			Base:           here,
		}
		s.moveTo(e, target)
		return
	}

	agent.Exploration.StepsRemaining--
	if agent.Exploration.StepsRemaining < 0 {
		agent.State = components.StateIdle
		agent.IdleStreak = 0
		return
	}

	s.weights = s.weights[:0]
	for _, n := range s.neighbors {
		dir := CubeDirection(here, n)
		risk := CollisionRisk(s.partition, n, e)
		s.weights = append(s.weights, NeighborWeight(dir, agent.Preference.Direction, agent.Preference.Strength, risk))
	}
	next := s.neighbors[WeightedChoice(s.weights, s.rng.Float64())]

	agent.Preference.Direction = BlendPreference(agent.Preference.Direction, CubeDirection(here, next), agent.Preference.Stability)
	s.moveTo(e, next)
}

// moveTo advances e one cell and keeps the partition and world position in sync.
func (s *BehaviorSystem) moveTo(e ecs.Entity, next hex.Position) {
	pos := s.posMap.Get(e)
	kind := s.identMap.Get(e).Kind
	s.partition.Move(e, pos.Cell, next, kind)
	pos.Cell = next
	pos.X, pos.Y = s.partition.CellToWorld(next)
}
