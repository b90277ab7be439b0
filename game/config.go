package game

import (
	"github.com/pthm-cable/hexforage/level"
	"github.com/pthm-cable/hexforage/telemetry"
)

// Options holds configuration for game initialization.
type Options struct {
	Seed           int64
	Level          *level.Level // nil: generate from config
	LogStats       bool
	StatsWindowSec float64 // 0: telemetry.stats_window
	SnapshotDir    string  // bookmark snapshots; empty uses OutputDir/snapshots
	OutputDir      string  // CSV logs and config; empty disables output

	StatsCallback func(telemetry.WindowStats)
	Publisher     Publisher
}
