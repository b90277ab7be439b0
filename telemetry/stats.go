package telemetry

import (
	"log/slog"
	"slices"

	"gonum.org/v1/gonum/stat"
)

// WindowStats holds aggregated statistics for a time window.
type WindowStats struct {
	WindowStartTick int32   `csv:"-"`
	WindowEndTick   int32   `csv:"window_end"`
	SimTimeSec      float64 `csv:"sim_time"`

	// Population counts at window end
	Rabbits int `csv:"rabbits"`
	Foxes   int `csv:"foxes"`
	Grass   int `csv:"grass"`

	// Behavior states at window end
	Idle       int `csv:"idle"`
	RandomMove int `csv:"random_move"`
	Foraging   int `csv:"foraging"`
	Fleeing    int `csv:"flee"`
	Reserved   int `csv:"reserved"`

	// Events during window
	Reservations int `csv:"reservations"`
	RabbitMeals  int `csv:"rabbit_meals"`
	FoxMeals     int `csv:"fox_meals"`
	StaleTargets int `csv:"stale_targets"`
	PathFailures int `csv:"path_failures"`
	Explorations int `csv:"explorations"`
	FleeEntries  int `csv:"flee_entries"`
	Starvations  int `csv:"starvations"`
	Regrown      int `csv:"regrown"`

	// Satiety distribution (sampled at window end)
	SatietyMean float64 `csv:"satiety_mean"`
	SatietyStd  float64 `csv:"satiety_std"`
	SatietyP10  float64 `csv:"satiety_p10"`
	SatietyP50  float64 `csv:"satiety_p50"`
	SatietyP90  float64 `csv:"satiety_p90"`
}

// Distribution summarizes a sample.
type Distribution struct {
	Mean, Std     float64
	P10, P50, P90 float64
}

// ComputeSatietyStats returns the population mean and standard deviation and
// the empirical 10th, 50th and 90th percentiles. Empty input yields zeros.
func ComputeSatietyStats(values []float64) Distribution {
	if len(values) == 0 {
		return Distribution{}
	}
	sorted := slices.Clone(values)
	slices.Sort(sorted)

	var d Distribution
	d.Mean, d.Std = stat.PopMeanStdDev(sorted, nil)
	d.P10 = stat.Quantile(0.10, stat.Empirical, sorted, nil)
	d.P50 = stat.Quantile(0.50, stat.Empirical, sorted, nil)
	d.P90 = stat.Quantile(0.90, stat.Empirical, sorted, nil)
	return d
}

// LogValue implements slog.LogValuer for structured logging.
func (s WindowStats) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("window_start", int(s.WindowStartTick)),
		slog.Int("window_end", int(s.WindowEndTick)),
		slog.Float64("sim_time", s.SimTimeSec),
		slog.Int("rabbits", s.Rabbits),
		slog.Int("foxes", s.Foxes),
		slog.Int("grass", s.Grass),
		slog.Int("idle", s.Idle),
		slog.Int("random_move", s.RandomMove),
		slog.Int("foraging", s.Foraging),
		slog.Int("flee", s.Fleeing),
		slog.Int("reserved", s.Reserved),
		slog.Int("reservations", s.Reservations),
		slog.Int("rabbit_meals", s.RabbitMeals),
		slog.Int("fox_meals", s.FoxMeals),
		slog.Int("stale_targets", s.StaleTargets),
		slog.Int("path_failures", s.PathFailures),
		slog.Int("explorations", s.Explorations),
		slog.Int("flee_entries", s.FleeEntries),
		slog.Int("starvations", s.Starvations),
		slog.Int("regrown", s.Regrown),
		slog.Float64("satiety_mean", s.SatietyMean),
		slog.Float64("satiety_std", s.SatietyStd),
		slog.Float64("satiety_p10", s.SatietyP10),
		slog.Float64("satiety_p50", s.SatietyP50),
		slog.Float64("satiety_p90", s.SatietyP90),
	)
}

// LogStats logs the window stats using slog.
func (s WindowStats) LogStats() {
	slog.Info("stats",
		"window_end", s.WindowEndTick,
		"sim_time", s.SimTimeSec,
		"rabbits", s.Rabbits,
		"foxes", s.Foxes,
		"grass", s.Grass,
		"idle", s.Idle,
		"random_move", s.RandomMove,
		"foraging", s.Foraging,
		"flee", s.Fleeing,
		"reserved", s.Reserved,
		"reservations", s.Reservations,
		"rabbit_meals", s.RabbitMeals,
		"fox_meals", s.FoxMeals,
		"stale_targets", s.StaleTargets,
		"path_failures", s.PathFailures,
		"explorations", s.Explorations,
		"flee_entries", s.FleeEntries,
		"starvations", s.Starvations,
		"regrown", s.Regrown,
		"satiety_mean", s.SatietyMean,
		"satiety_p50", s.SatietyP50,
	)
}
