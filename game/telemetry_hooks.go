package game

import (
	"log/slog"

	"github.com/pthm-cable/hexforage/components"
	"github.com/pthm-cable/hexforage/hex"
	"github.com/pthm-cable/hexforage/telemetry"
)

// flushTelemetry checks if the stats window should be flushed and handles bookmarks.
func (g *Game) flushTelemetry() {
	if !g.collector.ShouldFlush(g.tick) {
		return
	}

	stats := g.collector.Flush(g.tick, g.census())
	perfStats := g.perfCollector.Stats()

	if g.statsCallback != nil {
		g.statsCallback(stats)
	}

	if g.logStats {
		stats.LogStats()
		perfStats.LogStats(g.registry)
	}

	if g.outputManager != nil {
		if err := g.outputManager.WriteTelemetry(stats); err != nil {
			slog.Error("failed to write telemetry", "error", err)
		}
		if err := g.outputManager.WritePerf(perfStats, stats.WindowEndTick); err != nil {
			slog.Error("failed to write perf", "error", err)
		}
	}

	for _, bm := range g.bookmarkDetector.Check(stats) {
		if g.logStats {
			bm.LogBookmark()
		}
		if g.outputManager != nil {
			if err := g.outputManager.WriteBookmark(bm); err != nil {
				slog.Error("failed to write bookmark", "error", err)
			}
		}
		g.saveSnapshot(&bm)
	}
}

// census samples populations, states, satiety and live reservations.
func (g *Game) census() telemetry.Census {
	c := telemetry.Census{
		Population: make(map[components.Kind]int, 3),
		States:     make(map[components.BehaviorState]int, 4),
	}
	for _, k := range components.Kinds() {
		if k != components.KindCell {
			c.Population[k] = g.partition.Count(k)
		}
	}

	query := g.agentFilter.Query()
	for query.Next() {
		_, _, agent := query.Get()
		c.States[agent.State]++
		c.Satiety = append(c.Satiety, float64(agent.Satiety))
	}

	for _, k := range []components.Kind{components.KindGrass, components.KindRabbit} {
		for _, p := range g.partition.EntitiesByKind(k) {
			if g.edibleMap.Has(p.Entity) && g.edibleMap.Get(p.Entity).Reserved {
				c.Reserved++
			}
		}
	}
	return c
}

// saveSnapshot writes a snapshot to the snapshot dir, or into the output dir.
func (g *Game) saveSnapshot(bookmark *telemetry.Bookmark) {
	if g.snapshotDir == "" && g.outputManager == nil {
		return
	}
	snapshot := g.createSnapshot(bookmark)

	var path string
	var err error
	if g.snapshotDir != "" {
		path, err = telemetry.SaveSnapshot(snapshot, g.snapshotDir)
	} else {
		path, err = g.outputManager.WriteSnapshot(snapshot)
	}
	if err != nil {
		slog.Error("failed to save snapshot", "error", err)
		return
	}

	slog.Info("snapshot saved", "path", path, "tick", g.tick)
}

// createSnapshot builds a snapshot from the current state.
func (g *Game) createSnapshot(bookmark *telemetry.Bookmark) *telemetry.Snapshot {
	snapshot := &telemetry.Snapshot{
		Version:  telemetry.SnapshotVersion,
		Seed:     g.seed,
		Level:    g.name,
		Width:    g.partition.Width(),
		Height:   g.partition.Height(),
		Tick:     g.tick,
		Bookmark: bookmark,
	}

	query := g.agentFilter.Query()
	for query.Next() {
		pos, id, agent := query.Get()
		state := telemetry.AgentState{
			ID:      id.ID,
			Kind:    id.Kind.String(),
			Col:     pos.Cell.X,
			Row:     pos.Cell.Y,
			State:   agent.State.String(),
			Satiety: agent.Satiety,
		}
		if agent.HasTarget && g.world.Alive(agent.Target) && g.identMap.Has(agent.Target) {
			target := g.identMap.Get(agent.Target).ID
			state.TargetID = &target
		}
		snapshot.Agents = append(snapshot.Agents, state)
	}

	for _, p := range g.partition.EntitiesByKind(components.KindGrass) {
		snapshot.Grass = append(snapshot.Grass, telemetry.CellState{Col: p.Cell.X, Row: p.Cell.Y})
	}
	for y := 0; y < g.partition.Height(); y++ {
		for x := 0; x < g.partition.Width(); x++ {
			if g.partition.IsObstacle(hex.FromOffset(x, y)) {
				snapshot.Obstacles = append(snapshot.Obstacles, telemetry.CellState{Col: x, Row: y})
			}
		}
	}

	return snapshot
}
