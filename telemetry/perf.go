package telemetry

import (
	"log/slog"
	"slices"
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/pthm-cable/hexforage/systems"
)

// PerfCollector keeps a rolling window of tick and phase timings.
//
// Phases get a slot the first time they are started; per-tick bookkeeping
// writes into fixed ring buffers, so a running simulation does not allocate.
type PerfCollector struct {
	window int
	next   int // ring write position
	filled int

	ticks  []time.Duration   // ring of whole-tick durations
	phases []string          // slot -> phase id
	slots  map[string]int    // phase id -> slot
	spent  [][]time.Duration // slot -> ring of durations
	open   []time.Duration   // slot -> time accumulated in the current tick

	tickStart  time.Time
	phaseStart time.Time
	current    int // slot being timed, -1 between phases
}

// NewPerfCollector creates a collector averaging over window ticks
// (e.g. 60 for one second at 60 ticks/s).
func NewPerfCollector(window int) *PerfCollector {
	if window < 1 {
		window = 60
	}
	return &PerfCollector{
		window:  window,
		ticks:   make([]time.Duration, window),
		slots:   make(map[string]int),
		current: -1,
	}
}

// StartTick begins timing a new simulation tick.
func (p *PerfCollector) StartTick() {
	p.tickStart = time.Now()
	clear(p.open)
	p.current = -1
}

// StartPhase closes the running phase, if any, and starts timing phase.
func (p *PerfCollector) StartPhase(phase string) {
	now := time.Now()
	p.closePhase(now)
	p.current = p.slot(phase)
	p.phaseStart = now
}

// EndTick closes the running phase and records the tick.
func (p *PerfCollector) EndTick() {
	now := time.Now()
	p.closePhase(now)
	p.record(now.Sub(p.tickStart))
}

// record pushes a tick of duration d, with the phase time accumulated in
// open, into the ring.
func (p *PerfCollector) record(d time.Duration) {
	p.ticks[p.next] = d
	for i := range p.spent {
		p.spent[i][p.next] = p.open[i]
	}
	p.next = (p.next + 1) % p.window
	p.filled = min(p.filled+1, p.window)
}

func (p *PerfCollector) closePhase(now time.Time) {
	if p.current >= 0 {
		p.open[p.current] += now.Sub(p.phaseStart)
	}
}

// slot returns the buffer index for phase, allocating one on first use.
// Ticks recorded before a phase existed count as zero for it.
func (p *PerfCollector) slot(phase string) int {
	if i, ok := p.slots[phase]; ok {
		return i
	}
	i := len(p.phases)
	p.slots[phase] = i
	p.phases = append(p.phases, phase)
	p.spent = append(p.spent, make([]time.Duration, p.window))
	p.open = append(p.open, 0)
	return i
}

// PerfStats holds aggregated performance statistics.
type PerfStats struct {
	AvgTickDuration time.Duration
	MinTickDuration time.Duration
	MaxTickDuration time.Duration
	P95TickDuration time.Duration

	// Average duration and share of the average tick, per phase id
	PhaseAvg map[string]time.Duration
	PhasePct map[string]float64

	TicksPerSecond float64
}

// Stats aggregates the current window.
func (p *PerfCollector) Stats() PerfStats {
	s := PerfStats{
		PhaseAvg: make(map[string]time.Duration, len(p.phases)),
		PhasePct: make(map[string]float64, len(p.phases)),
	}
	if p.filled == 0 {
		return s
	}

	ticks := slices.Clone(p.ticks[:p.filled])
	slices.Sort(ticks)
	ns := make([]float64, len(ticks))
	var total time.Duration
	for i, d := range ticks {
		ns[i] = float64(d)
		total += d
	}

	s.AvgTickDuration = total / time.Duration(len(ticks))
	s.MinTickDuration = ticks[0]
	s.MaxTickDuration = ticks[len(ticks)-1]
	s.P95TickDuration = time.Duration(stat.Quantile(0.95, stat.Empirical, ns, nil))
	if s.AvgTickDuration > 0 {
		s.TicksPerSecond = float64(time.Second) / float64(s.AvgTickDuration)
	}

	for i, phase := range p.phases {
		var sum time.Duration
		for _, d := range p.spent[i][:p.filled] {
			sum += d
		}
		avg := sum / time.Duration(p.filled)
		s.PhaseAvg[phase] = avg
		if s.AvgTickDuration > 0 {
			s.PhasePct[phase] = float64(avg) / float64(s.AvgTickDuration) * 100
		}
	}
	return s
}

// LogStats logs one line with a percentage per registered phase, in tick order.
func (s PerfStats) LogStats(reg *systems.SystemRegistry) {
	attrs := []any{
		"avg_tick_us", s.AvgTickDuration.Microseconds(),
		"p95_tick_us", s.P95TickDuration.Microseconds(),
		"max_tick_us", s.MaxTickDuration.Microseconds(),
		"ticks_per_sec", int(s.TicksPerSecond),
	}
	for _, phase := range reg.IDs() {
		if pct, ok := s.PhasePct[phase]; ok && pct > 0.1 {
			attrs = append(attrs, phase+"_pct", float64(int(pct*10))/10.0)
		}
	}
	slog.Info("perf", attrs...)
}

// LogValue implements slog.LogValuer.
func (s PerfStats) LogValue() slog.Value {
	attrs := []slog.Attr{
		slog.Int64("avg_tick_us", s.AvgTickDuration.Microseconds()),
		slog.Int64("min_tick_us", s.MinTickDuration.Microseconds()),
		slog.Int64("p95_tick_us", s.P95TickDuration.Microseconds()),
		slog.Int64("max_tick_us", s.MaxTickDuration.Microseconds()),
		slog.Float64("ticks_per_sec", s.TicksPerSecond),
	}
	for phase, pct := range s.PhasePct {
		attrs = append(attrs, slog.Float64(phase+"_pct", pct))
	}
	return slog.GroupValue(attrs...)
}

// PerfStatsCSV is one row of perf.csv.
type PerfStatsCSV struct {
	WindowEnd    int32   `csv:"window_end"`
	AvgTickUS    int64   `csv:"avg_tick_us"`
	MinTickUS    int64   `csv:"min_tick_us"`
	P95TickUS    int64   `csv:"p95_tick_us"`
	MaxTickUS    int64   `csv:"max_tick_us"`
	TicksPerSec  float64 `csv:"ticks_per_sec"`
	DecayPct     float64 `csv:"decay_pct"`
	BehaviorPct  float64 `csv:"behavior_pct"`
	RegrowthPct  float64 `csv:"regrowth_pct"`
	TelemetryPct float64 `csv:"telemetry_pct"`
	PublishPct   float64 `csv:"publish_pct"`
}

// ToCSV flattens the stats for the window ending at windowEnd.
func (s PerfStats) ToCSV(windowEnd int32) PerfStatsCSV {
	return PerfStatsCSV{
		WindowEnd:    windowEnd,
		AvgTickUS:    s.AvgTickDuration.Microseconds(),
		MinTickUS:    s.MinTickDuration.Microseconds(),
		P95TickUS:    s.P95TickDuration.Microseconds(),
		MaxTickUS:    s.MaxTickDuration.Microseconds(),
		TicksPerSec:  s.TicksPerSecond,
		DecayPct:     s.PhasePct[systems.PhaseDecay],
		BehaviorPct:  s.PhasePct[systems.PhaseBehavior],
		RegrowthPct:  s.PhasePct[systems.PhaseRegrowth],
		TelemetryPct: s.PhasePct[systems.PhaseTelemetry],
		PublishPct:   s.PhasePct[systems.PhasePublish],
	}
}
