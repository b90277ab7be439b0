package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pthm-cable/hexforage/config"
	"github.com/pthm-cable/hexforage/game"
	"github.com/pthm-cable/hexforage/level"
	"github.com/pthm-cable/hexforage/observer"
)

func main() {
	// CLI flags
	configPath := flag.String("config", "", "Path to config.yaml (empty = use defaults)")
	levelPath := flag.String("level", "", "Level YAML file (empty = generate from config)")
	logStats := flag.Bool("log-stats", false, "Output stats via slog")
	logLevel := flag.String("log-level", "info", "Log level: debug, info, warn, error")
	statsWindow := flag.Float64("stats-window", 0, "Stats window size in seconds (0 = use config)")
	snapshotDir := flag.String("snapshot-dir", "", "Directory for snapshot files")
	outputDir := flag.String("output-dir", "", "Output directory for CSV logs and config snapshot")
	seed := flag.Int64("seed", 0, "RNG seed (0 = time-based)")
	maxTicks := flag.Int("max-ticks", 0, "Stop after N ticks (0 = unlimited)")
	observe := flag.String("observe", "", "Serve frames over websocket on this address, e.g. 127.0.0.1:8080")
	realtime := flag.Bool("realtime", false, "Pace ticks to sim.dt (default on when observing)")

	flag.Parse()

	// Set up slog (JSON to stdout for structured logging)
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(*logLevel)); err != nil {
		lvl = slog.LevelInfo
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl}))
	slog.SetDefault(logger)

	// Initialize config before anything else
	if err := config.Init(*configPath); err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	cfg := config.Cfg()

	rngSeed := *seed
	if rngSeed == 0 {
		rngSeed = time.Now().UnixNano()
	}

	opts := game.Options{
		Seed:           rngSeed,
		LogStats:       *logStats,
		StatsWindowSec: *statsWindow,
		SnapshotDir:    *snapshotDir,
		OutputDir:      *outputDir,
	}
	if *levelPath != "" {
		l, err := level.Load(*levelPath)
		if err != nil {
			slog.Error("failed to load level", "error", err)
			os.Exit(1)
		}
		opts.Level = l
	}

	g, err := game.NewGameWithOptions(opts)
	if err != nil {
		slog.Error("failed to create game", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := g.Close(); err != nil {
			slog.Error("failed to close output", "error", err)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	paced := *realtime
	if *observe != "" {
		srv := observer.NewServer(cfg.Observer.ClientBuffer)
		g.SetPublisher(srv)
		httpSrv := &http.Server{Addr: *observe, Handler: srv.Handler()}
		go func() {
			slog.Info("observer listening", "addr", *observe)
			if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				slog.Error("observer server failed", "error", err)
				stop()
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Second)
			defer cancel()
			_ = httpSrv.Shutdown(shutdownCtx)
		}()
		paced = true
	}

	slog.Info("starting simulation",
		"seed", rngSeed,
		"max_ticks", *maxTicks,
		"realtime", paced,
	)

	if paced {
		err = runPaced(ctx, g, *maxTicks, time.Duration(cfg.Sim.DT*float64(time.Second)))
	} else {
		err = g.Run(ctx, *maxTicks)
	}
	if err != nil && !errors.Is(err, context.Canceled) {
		slog.Error("simulation stopped", "error", err)
	}
}

// runPaced ticks once per interval so observers see real-time motion.
func runPaced(ctx context.Context, g *game.Game, maxTicks int, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for maxTicks <= 0 || int(g.Tick()) < maxTicks {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			g.Update()
		}
	}
	return nil
}
