package systems

import (
	"github.com/mlange-42/ark/ecs"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/hexforage/config"
	"github.com/pthm-cable/hexforage/hex"
)

// WeightedChoice picks an index with probability proportional to its weight.
// u must be in [0,1). Floating-point remainder falls through to the last index.
// Returns -1 for an empty slice.
func WeightedChoice(weights []float64, u float64) int {
	if len(weights) == 0 {
		return -1
	}
	var total float64
	for _, w := range weights {
		total += w
	}
	r := u * total
	for i, w := range weights {
		r -= w
		if r <= 0 {
			return i
		}
	}
	return len(weights) - 1
}

// ExploreChance returns the Idle -> RandomMove chance in percent for a streak.
func ExploreChance(streak uint32) int {
	cfg := config.Cfg().Idle
	chance := cfg.BaseChance + cfg.StreakStep*int(streak)
	return min(cfg.MaxChance, chance)
}

// ShouldExplore decides the Idle roll. roll must be in [0,100).
func ShouldExplore(streak uint32, roll int) bool {
	return roll < ExploreChance(streak)
}

// CollisionRisk scores how crowded target is for self.
// It is OccupiedRisk if anything else stands on target, otherwise CrowdRisk per
// entity on the walkable cells around target, taking the larger of the two.
func CollisionRisk(part *SpatialPartition, target hex.Position, self ecs.Entity) float64 {
	cfg := config.Cfg().Exploration

	var risk float64
	if part.CountAt(target, self) > 0 {
		risk = cfg.OccupiedRisk
	}
	for _, n := range target.Neighbors() {
		if !part.Walkable(n) {
			continue
		}
		risk = max(risk, float64(part.CountAt(n, self))*cfg.CrowdRisk)
	}
	return risk
}

// CubeDirection returns the unit cube-space vector from one cell to another.
// Returns the zero vector when from == to.
func CubeDirection(from, to hex.Position) r3.Vec {
	d := to.Cube().Sub(from.Cube())
	v := r3.Vec{X: float64(d.Q), Y: float64(d.R), Z: float64(d.S)}
	if r3.Norm(v) == 0 {
		return r3.Vec{}
	}
	return r3.Unit(v)
}

// NeighborWeight scores a candidate step for RandomMove.
func NeighborWeight(dir, preference r3.Vec, strength, risk float64) float64 {
	cfg := config.Cfg().Exploration
	var score float64
	if r3.Norm(preference) > 0 {
		score = r3.Dot(dir, r3.Unit(preference))
	}
	w := 1 + score*strength - risk*cfg.RiskPenalty
	return max(cfg.MinWeight, w)
}

// BlendPreference drifts the preferred direction toward the step just taken.
// stability is the share of the old direction kept.
func BlendPreference(preference, taken r3.Vec, stability float64) r3.Vec {
	v := r3.Add(r3.Scale(stability, preference), r3.Scale(1-stability, taken))
	if r3.Norm(v) == 0 {
		return preference
	}
	return r3.Unit(v)
}
