package telemetry

import (
	"math"
	"testing"

	"github.com/pthm-cable/hexforage/components"
)

func TestComputeSatietyStats(t *testing.T) {
	values := []float64{1000, 200, 900, 400, 300, 600, 500, 800, 700, 100}
	d := ComputeSatietyStats(values)

	if math.Abs(d.Mean-550) > 1e-9 {
		t.Errorf("mean = %v, want 550", d.Mean)
	}
	// Population std of 100..1000 step 100.
	if math.Abs(d.Std-287.228) > 0.01 {
		t.Errorf("std = %v, want ~287.23", d.Std)
	}
	if d.P10 != 100 || d.P50 != 500 || d.P90 != 900 {
		t.Errorf("percentiles = %v/%v/%v, want 100/500/900", d.P10, d.P50, d.P90)
	}
	if values[0] != 1000 {
		t.Error("input slice was reordered")
	}
}

func TestComputeSatietyStatsEmpty(t *testing.T) {
	if d := ComputeSatietyStats(nil); d != (Distribution{}) {
		t.Errorf("empty input = %+v, want zeros", d)
	}
}

func TestCollectorWindowTicks(t *testing.T) {
	tests := []struct {
		sec  float64
		dt   float32
		want int32
	}{
		{10.0, 0.0166667, 600},
		{1.0, 0.1, 10},
		{1.0, 1.0 / 60, 60},
		{0.01, 0.1, 1},
	}
	for _, tt := range tests {
		if got := NewCollector(tt.sec, tt.dt).WindowDurationTicks(); got != tt.want {
			t.Errorf("NewCollector(%v, %v) ticks = %d, want %d", tt.sec, tt.dt, got, tt.want)
		}
	}
}

func TestCollectorFlush(t *testing.T) {
	c := NewCollector(1.0, 0.1)
	if c.WindowDurationTicks() != 10 {
		t.Fatalf("ticks per window = %d, want 10", c.WindowDurationTicks())
	}

	c.RecordReservation()
	c.RecordReservation()
	c.RecordConsumption(components.KindRabbit, components.KindGrass)
	c.RecordConsumption(components.KindFox, components.KindRabbit)
	c.RecordConsumption(components.KindRabbit, components.KindGrass)
	c.RecordStaleTarget()
	c.RecordPathFailure()
	c.RecordExploration()
	c.RecordFlee()
	c.RecordStarvation(components.KindFox)
	c.RecordRegrowth(4)

	if c.ShouldFlush(9) {
		t.Error("flush due before the window elapsed")
	}
	if !c.ShouldFlush(10) {
		t.Error("flush not due at window end")
	}

	census := Census{
		Population: map[components.Kind]int{components.KindRabbit: 3, components.KindFox: 1, components.KindGrass: 20},
		States:     map[components.BehaviorState]int{components.StateIdle: 2, components.StateForaging: 2},
		Satiety:    []float64{4000, 6000, 8000, 10000},
		Reserved:   2,
	}
	s := c.Flush(10, census)

	if s.WindowStartTick != 0 || s.WindowEndTick != 10 {
		t.Errorf("window = [%d,%d]", s.WindowStartTick, s.WindowEndTick)
	}
	if math.Abs(s.SimTimeSec-1.0) > 1e-6 {
		t.Errorf("sim time = %v", s.SimTimeSec)
	}
	if s.Rabbits != 3 || s.Foxes != 1 || s.Grass != 20 {
		t.Errorf("population = %d/%d/%d", s.Rabbits, s.Foxes, s.Grass)
	}
	if s.Idle != 2 || s.Foraging != 2 || s.Fleeing != 0 || s.Reserved != 2 {
		t.Errorf("states = %+v", s)
	}
	if s.Reservations != 2 || s.RabbitMeals != 2 || s.FoxMeals != 1 {
		t.Errorf("events = reservations %d rabbit meals %d fox meals %d", s.Reservations, s.RabbitMeals, s.FoxMeals)
	}
	if s.StaleTargets != 1 || s.PathFailures != 1 || s.Explorations != 1 ||
		s.FleeEntries != 1 || s.Starvations != 1 || s.Regrown != 4 {
		t.Errorf("counters = %+v", s)
	}
	if s.SatietyMean != 7000 {
		t.Errorf("satiety mean = %v", s.SatietyMean)
	}

	next := c.Flush(20, Census{})
	if next.WindowStartTick != 10 || next.Reservations != 0 || next.RabbitMeals != 0 || next.Regrown != 0 {
		t.Errorf("counters not reset: %+v", next)
	}
}
