package systems

import (
	"math"
	"math/rand"
	"testing"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/hexforage/components"
	"github.com/pthm-cable/hexforage/config"
	"github.com/pthm-cable/hexforage/hex"
)

func TestWeightedChoice(t *testing.T) {
	testCases := []struct {
		name    string
		weights []float64
		u       float64
		want    int
	}{
		{"empty", nil, 0.5, -1},
		{"single", []float64{3}, 0.99, 0},
		{"zero draw picks first", []float64{1, 1, 1}, 0, 0},
		{"first bucket edge", []float64{1, 1, 2}, 0.25, 0},
		{"second bucket", []float64{1, 1, 2}, 0.4, 1},
		{"third bucket", []float64{1, 1, 2}, 0.75, 2},
		{"heavy middle", []float64{0.01, 10, 0.01}, 0.5, 1},
		{"remainder falls to last", []float64{0.1, 0.2, 0.3}, math.Nextafter(1, 0), 2},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if got := WeightedChoice(tc.weights, tc.u); got != tc.want {
				t.Errorf("WeightedChoice(%v, %v) = %d, want %d", tc.weights, tc.u, got, tc.want)
			}
		})
	}
}

func TestWeightedChoiceDistribution(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	weights := []float64{1, 3}
	counts := make([]int, 2)
	const n = 20000
	for i := 0; i < n; i++ {
		counts[WeightedChoice(weights, rng.Float64())]++
	}
	got := float64(counts[1]) / n
	if math.Abs(got-0.75) > 0.02 {
		t.Errorf("heavy candidate picked %.3f of the time, want ~0.75", got)
	}
}

func TestExploreChance(t *testing.T) {
	config.MustInit("")

	testCases := []struct {
		streak uint32
		want   int
	}{
		{0, 50},
		{1, 60},
		{3, 80},
		{4, 90},
		{5, 99},
		{10, 99},
	}
	prev := 0
	for _, tc := range testCases {
		got := ExploreChance(tc.streak)
		if got != tc.want {
			t.Errorf("ExploreChance(%d) = %d, want %d", tc.streak, got, tc.want)
		}
		if got < prev {
			t.Errorf("chance decreased at streak %d", tc.streak)
		}
		prev = got
	}
}

// TestExploreEmpiricalRates samples the Idle roll and checks it tracks min(99, 50+10k).
func TestExploreEmpiricalRates(t *testing.T) {
	config.MustInit("")
	rng := rand.New(rand.NewSource(42))

	const n = 20000
	for _, streak := range []uint32{0, 3, 5, 10} {
		hits := 0
		for i := 0; i < n; i++ {
			if ShouldExplore(streak, rng.Intn(100)) {
				hits++
			}
		}
		rate := float64(hits) / n * 100
		want := float64(min(99, 50+10*int(streak)))
		if math.Abs(rate-want) > 1.5 {
			t.Errorf("streak %d: empirical rate %.2f%%, want ~%.0f%%", streak, rate, want)
		}
		t.Logf("streak %d: %.2f%%", streak, rate)
	}
}

func TestCollisionRisk(t *testing.T) {
	config.MustInit("")
	_, es := newEntities(4)
	part := NewSpatialPartition(10, 10, 16)
	self := es[0]
	here := hex.FromOffset(5, 5)
	part.Insert(self, here, components.KindRabbit)

	target := hex.FromOffset(6, 5)

	// Only self nearby: no risk.
	if r := CollisionRisk(part, target, self); r != 0 {
		t.Errorf("risk with only self nearby = %v", r)
	}

	// One other entity next to the target.
	crowd := hex.FromOffset(7, 5)
	part.Insert(es[1], crowd, components.KindRabbit)
	if r := CollisionRisk(part, target, self); math.Abs(r-0.3) > 1e-9 {
		t.Errorf("risk with one crowding neighbor = %v, want 0.3", r)
	}

	// Two around the same neighbour cell.
	part.Insert(es[2], crowd, components.KindGrass)
	if r := CollisionRisk(part, target, self); math.Abs(r-0.6) > 1e-9 {
		t.Errorf("risk with two crowding = %v, want 0.6", r)
	}

	// Occupied target dominates.
	part.Insert(es[3], target, components.KindFox)
	if r := CollisionRisk(part, target, self); r != 1.0 {
		t.Errorf("risk on occupied target = %v, want 1.0", r)
	}
}

func TestNeighborWeight(t *testing.T) {
	config.MustInit("")
	from := hex.FromOffset(5, 5)
	ns := from.Neighbors()
	pref := CubeDirection(from, ns[0])

	along := NeighborWeight(CubeDirection(from, ns[0]), pref, 0.7, 0)
	against := NeighborWeight(CubeDirection(from, ns[3]), pref, 0.7, 0)
	if along <= against {
		t.Errorf("step along preference (%v) should outweigh step against it (%v)", along, against)
	}
	if math.Abs(along-1.7) > 1e-9 {
		t.Errorf("along weight = %v, want 1.7", along)
	}

	risky := NeighborWeight(CubeDirection(from, ns[0]), pref, 0.7, 1.0)
	if risky != 0.01 {
		t.Errorf("risky step weight = %v, want floor 0.01", risky)
	}

	noPref := NeighborWeight(CubeDirection(from, ns[2]), r3.Vec{}, 0.7, 0)
	if noPref != 1 {
		t.Errorf("weight without preference = %v, want 1", noPref)
	}
}

func TestBlendPreference(t *testing.T) {
	a := r3.Vec{X: 1}
	b := r3.Vec{Y: 1}
	got := BlendPreference(a, b, 0.8)
	if math.Abs(r3.Norm(got)-1) > 1e-9 {
		t.Errorf("blend not unit length: %v", got)
	}
	if got.X <= got.Y {
		t.Errorf("stable blend should stay closer to old direction, got %v", got)
	}
	// Opposite vectors at 0.5 cancel; keep the old preference.
	if back := BlendPreference(a, r3.Vec{X: -1}, 0.5); back != a {
		t.Errorf("cancelled blend = %v, want %v", back, a)
	}
}
