package systems

import (
	"math/rand"
	"testing"

	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/hexforage/components"
	"github.com/pthm-cable/hexforage/config"
	"github.com/pthm-cable/hexforage/hex"
)

type placerFunc func(kind components.Kind, pos hex.Position) (ecs.Entity, error)

func (fn placerFunc) PlaceAt(kind components.Kind, pos hex.Position) (ecs.Entity, error) {
	return fn(kind, pos)
}

func TestDecay(t *testing.T) {
	testCases := []struct {
		elapsed, rate float32
		want          int32
	}{
		{0, 2, 0},
		{1, 2, 200},
		{0.5, 1.5, 75},
		{0.004, 2, 0}, // 0.8 hundredths floors to zero
		{0.1666667, 2, 33},
	}
	for _, tc := range testCases {
		if got := Decay(tc.elapsed, tc.rate); got != tc.want {
			t.Errorf("Decay(%v, %v) = %d, want %d", tc.elapsed, tc.rate, got, tc.want)
		}
	}
}

func TestSatietyClockCadence(t *testing.T) {
	f := newFixture(t, 1)
	r := f.rabbit(3, 3, 10000)
	clock := NewSatietyClock(f.world, f.despawner, f.events)

	// Nine ticks accumulate without draining.
	for i := 0; i < 9; i++ {
		clock.Update(0.1)
		if got := f.agentMap.Get(r).Satiety; got != 10000 {
			t.Fatalf("tick %d: satiety drained early to %d", i+1, got)
		}
	}

	// Tenth tick applies one second at rate 2.
	clock.Update(0.1)
	got := f.agentMap.Get(r).Satiety
	if got < 9799 || got > 9801 {
		t.Errorf("satiety after decay = %d, want ~9800", got)
	}

	// Accumulator reset: nine more ticks change nothing.
	for i := 0; i < 9; i++ {
		clock.Update(0.1)
	}
	if f.agentMap.Get(r).Satiety != got {
		t.Error("accumulator not reset after decay tick")
	}
}

func TestSatietyClockStarvation(t *testing.T) {
	f := newFixture(t, 1)
	config.Cfg().Satiety.Starvation = true
	defer func() { config.Cfg().Satiety.Starvation = false }()

	r := f.rabbit(3, 3, 100)
	g := f.grass(8, 8)
	f.edibleMap.Get(g).Reserve(r)
	f.agentMap.Get(r).SetTarget(g, hex.FromOffset(8, 8))

	clock := NewSatietyClock(f.world, f.despawner, f.events)
	removed := 0
	for i := 0; i < 10; i++ {
		removed += clock.Update(0.1)
	}

	if removed != 1 || f.world.Alive(r) {
		t.Fatalf("removed=%d alive=%v, want starved agent gone", removed, f.world.Alive(r))
	}
	if f.edibleMap.Get(g).Reserved {
		t.Error("starved agent left its grass reserved")
	}
	if f.part.Count(components.KindRabbit) != 0 {
		t.Error("starved agent still indexed")
	}
	if f.events.starvations != 1 {
		t.Errorf("starvation events = %d", f.events.starvations)
	}
}

func TestGrassSpawner(t *testing.T) {
	config.MustInit("")
	f := newFixture(t, 1)
	field := NewFertilityField(11, 0.12, 0) // threshold 0: every cell fertile
	spawner := NewGrassSpawner(f.part, field, rand.New(rand.NewSource(3)), f.events)

	if spawner.FertileCells() != 12*12 {
		t.Fatalf("fertile cells = %d, want all", spawner.FertileCells())
	}

	placer := placerFunc(func(kind components.Kind, pos hex.Position) (ecs.Entity, error) {
		return f.grass(pos.X, pos.Y), nil
	})

	interval := float32(config.Cfg().Grass.RegrowInterval)
	if n := spawner.Update(interval/2, placer); n != 0 {
		t.Fatalf("spawned %d before the interval", n)
	}
	n := spawner.Update(interval/2, placer)
	if n != config.Cfg().Grass.RegrowBatch {
		t.Fatalf("spawned %d, want batch of %d", n, config.Cfg().Grass.RegrowBatch)
	}
	if f.part.Count(components.KindGrass) != n || f.events.regrown != n {
		t.Errorf("indexed %d grass, events %d", f.part.Count(components.KindGrass), f.events.regrown)
	}
}

func TestFertilityRange(t *testing.T) {
	field := NewFertilityField(5, 0.2, 0.5)
	for y := 0; y < 20; y++ {
		for x := 0; x < 20; x++ {
			v := field.At(hex.FromOffset(x, y))
			if v < 0 || v > 1 {
				t.Fatalf("fertility %v outside [0,1] at (%d,%d)", v, x, y)
			}
		}
	}
}
