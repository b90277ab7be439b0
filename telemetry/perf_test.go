package telemetry

import (
	"math"
	"testing"
	"time"

	"github.com/pthm-cable/hexforage/systems"
)

// runTicks records n ticks, sleeping per phase.
func runTicks(pc *PerfCollector, n int, phases map[string]time.Duration, order ...string) {
	for i := 0; i < n; i++ {
		pc.StartTick()
		for _, phase := range order {
			pc.StartPhase(phase)
			if d := phases[phase]; d > 0 {
				time.Sleep(d)
			}
		}
		pc.EndTick()
	}
}

func TestPerfCollectorPhases(t *testing.T) {
	pc := NewPerfCollector(10)
	runTicks(pc, 5, map[string]time.Duration{
		systems.PhaseDecay:    100 * time.Microsecond,
		systems.PhaseBehavior: 200 * time.Microsecond,
	}, systems.PhaseDecay, systems.PhaseBehavior)

	stats := pc.Stats()
	if stats.AvgTickDuration <= 0 {
		t.Fatal("expected positive average tick duration")
	}
	for _, phase := range []string{systems.PhaseDecay, systems.PhaseBehavior} {
		if stats.PhaseAvg[phase] <= 0 {
			t.Errorf("%s not tracked", phase)
		}
	}
	if stats.PhaseAvg[systems.PhaseBehavior] > stats.AvgTickDuration {
		t.Errorf("phase %v longer than tick %v", stats.PhaseAvg[systems.PhaseBehavior], stats.AvgTickDuration)
	}
}

func TestPerfCollectorOrdering(t *testing.T) {
	pc := NewPerfCollector(20)
	runTicks(pc, 20, map[string]time.Duration{"work": 20 * time.Microsecond}, "work")

	s := pc.Stats()
	if !(s.MinTickDuration <= s.AvgTickDuration && s.AvgTickDuration <= s.MaxTickDuration) {
		t.Errorf("avg %v outside [%v, %v]", s.AvgTickDuration, s.MinTickDuration, s.MaxTickDuration)
	}
	if !(s.MinTickDuration <= s.P95TickDuration && s.P95TickDuration <= s.MaxTickDuration) {
		t.Errorf("p95 %v outside [%v, %v]", s.P95TickDuration, s.MinTickDuration, s.MaxTickDuration)
	}
	if s.TicksPerSecond <= 0 {
		t.Error("expected positive ticks per second")
	}
}

func TestPerfCollectorRollingWindow(t *testing.T) {
	pc := NewPerfCollector(5)

	// Slow ticks first, then enough fast ticks to push them out.
	runTicks(pc, 5, map[string]time.Duration{"work": 2 * time.Millisecond}, "work")
	runTicks(pc, 5, nil, "work")

	if s := pc.Stats(); s.MaxTickDuration >= 2*time.Millisecond {
		t.Errorf("max %v still includes evicted ticks", s.MaxTickDuration)
	}
}

// recordTick records a tick with fixed timings instead of measured ones.
func recordTick(pc *PerfCollector, tick time.Duration, phases map[string]time.Duration) {
	clear(pc.open)
	for phase, d := range phases {
		pc.open[pc.slot(phase)] = d
	}
	pc.record(tick)
}

func TestPerfCollectorPhasePercentages(t *testing.T) {
	pc := NewPerfCollector(10)
	for i := 0; i < 5; i++ {
		recordTick(pc, 10*time.Millisecond, map[string]time.Duration{
			"fast": 1 * time.Millisecond,
			"slow": 9 * time.Millisecond,
		})
	}

	stats := pc.Stats()
	if got := stats.PhaseAvg["slow"]; got != 9*time.Millisecond {
		t.Errorf("slow avg = %v, want 9ms", got)
	}
	fast, slow := stats.PhasePct["fast"], stats.PhasePct["slow"]
	if math.Abs(fast-10) > 1e-9 || math.Abs(slow-90) > 1e-9 {
		t.Errorf("pct fast=%v slow=%v, want 10 and 90", fast, slow)
	}
}

func TestPerfCollectorPhasePercentagesMeasured(t *testing.T) {
	pc := NewPerfCollector(10)
	runTicks(pc, 3, map[string]time.Duration{
		"fast": 1 * time.Millisecond,
		"slow": 10 * time.Millisecond,
	}, "fast", "slow")

	stats := pc.Stats()
	if fast, slow := stats.PhasePct["fast"], stats.PhasePct["slow"]; slow <= fast {
		t.Errorf("expected slow phase (%v%%) > fast phase (%v%%)", slow, fast)
	}
}

func TestPerfCollectorLatePhase(t *testing.T) {
	pc := NewPerfCollector(4)
	runTicks(pc, 2, nil, systems.PhaseDecay)
	runTicks(pc, 2, map[string]time.Duration{systems.PhasePublish: 50 * time.Microsecond},
		systems.PhaseDecay, systems.PhasePublish)

	stats := pc.Stats()
	// Two of four ticks ran the publish phase.
	if avg := stats.PhaseAvg[systems.PhasePublish]; avg < 25*time.Microsecond {
		t.Errorf("publish avg = %v, want at least half of 50us", avg)
	}
}

func TestPerfCollectorEmptyStats(t *testing.T) {
	stats := NewPerfCollector(10).Stats()
	if stats.AvgTickDuration != 0 {
		t.Error("expected zero avg tick duration for empty collector")
	}
	if stats.PhaseAvg == nil || stats.PhasePct == nil {
		t.Error("expected non-nil phase maps")
	}
}

func TestPerfStatsToCSV(t *testing.T) {
	pc := NewPerfCollector(4)
	runTicks(pc, 4, map[string]time.Duration{systems.PhaseBehavior: 50 * time.Microsecond},
		systems.PhaseDecay, systems.PhaseBehavior)

	row := pc.Stats().ToCSV(240)
	if row.WindowEnd != 240 {
		t.Errorf("WindowEnd = %d", row.WindowEnd)
	}
	if row.BehaviorPct <= 0 || row.BehaviorPct > 100 {
		t.Errorf("BehaviorPct = %v, want (0,100]", row.BehaviorPct)
	}
	if row.RegrowthPct != 0 {
		t.Errorf("untimed phase reported %v%%", row.RegrowthPct)
	}
	if row.P95TickUS < row.MinTickUS || row.P95TickUS > row.MaxTickUS {
		t.Errorf("p95 %d outside [%d, %d]", row.P95TickUS, row.MinTickUS, row.MaxTickUS)
	}
}
