// Command minersim runs a single miner episode on a generated or hand-drawn
// island map.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"math/rand"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/nTorre/HolyCrabUI/internal/agents"
	"github.com/nTorre/HolyCrabUI/internal/api"
	"github.com/nTorre/HolyCrabUI/internal/beacon"
	"github.com/nTorre/HolyCrabUI/internal/config"
	"github.com/nTorre/HolyCrabUI/internal/engine"
	"github.com/nTorre/HolyCrabUI/internal/island"
	"github.com/nTorre/HolyCrabUI/internal/oracle"
	"github.com/nTorre/HolyCrabUI/internal/persistence"
	"github.com/nTorre/HolyCrabUI/internal/sim"
	"github.com/nTorre/HolyCrabUI/internal/world"
)

func main() {
	configPath := flag.String("config", "", "YAML config file (default $MINER_CONFIG)")
	mapPath := flag.String("map", "", "hand-drawn map file; overrides world generation")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(2)
	}
	if *mapPath != "" {
		cfg.World.MapFile = *mapPath
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel(cfg.LogLevel),
	}))
	slog.SetDefault(logger)

	if err := run(cfg); err != nil {
		slog.Error("run failed", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config) error {
	started := time.Now()
	if cfg.World.Seed == 0 {
		cfg.World.Seed = rand.Int63()
	}

	// ── World ─────────────────────────────────────────────────────────
	truth, start, err := loadWorld(cfg)
	if err != nil {
		return err
	}
	for kind, n := range world.KindCounts(truth) {
		slog.Debug("terrain", "kind", kind, "count", n)
	}
	slog.Info("world ready",
		"size", truth.Size,
		"seed", cfg.World.Seed,
		"islands", len(island.Detect(truth)),
		"start", start,
	)

	// ── Journal ───────────────────────────────────────────────────────
	var db *persistence.DB
	var runID string
	if cfg.Storage.DBPath != "" {
		db, err = persistence.Open(cfg.Storage.DBPath)
		if err != nil {
			return err
		}
		defer db.Close()
		if runID, err = db.StartRun(cfg.World.Seed, truth.Size); err != nil {
			return err
		}
		slog.Info("journal opened", "path", cfg.Storage.DBPath, "run", runID)
	} else {
		slog.Warn("storage.db_path empty, run journal disabled")
	}

	// ── Miner ─────────────────────────────────────────────────────────
	w, err := sim.New(truth, start, sim.Options{FullKnowledge: cfg.Agent.FullKnowledge})
	if err != nil {
		return fmt.Errorf("start cell %v: %w", start, err)
	}
	b := beacon.New()
	miner := agents.NewMiner(cfg.Agent.Name, w, oracle.New(), b, cfg.MinerParams())
	simulation := engine.NewSimulation(w, miner, b)

	eng := engine.NewEngine()
	eng.Interval = cfg.Engine.TickInterval
	eng.MaxTicks = cfg.Engine.MaxTicks
	eng.CheckpointEvery = cfg.Engine.CheckpointEvery
	eng.Halted = b.Halted
	eng.OnTick = func(tick uint64) {
		simulation.Step(tick)
		if db == nil {
			return
		}
		if err := db.SaveEvents(runID, simulation.DrainPending()); err != nil {
			slog.Error("save events failed", "tick", tick, "error", err)
		}
	}
	eng.OnCheckpoint = func(tick uint64) {
		if db == nil {
			return
		}
		if err := db.SaveSnapshot(runID, tick, simulation.KnownGrid()); err != nil {
			slog.Error("checkpoint failed", "tick", tick, "error", err)
		}
	}

	// ── HTTP API ──────────────────────────────────────────────────────
	var apiServer *api.Server
	if cfg.API.Port > 0 {
		if cfg.API.AdminKey == "" {
			slog.Warn("MINER_ADMIN_KEY not set, admin POST endpoints will be disabled")
		}
		apiServer = &api.Server{
			Sim:      simulation,
			Eng:      eng,
			DB:       db,
			RunID:    runID,
			Port:     cfg.API.Port,
			AdminKey: cfg.API.AdminKey,
		}
		apiServer.Start()
		fmt.Printf("API: http://localhost:%d/api/v1/status\n", cfg.API.Port)
	}

	// ── Run ───────────────────────────────────────────────────────────
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	fmt.Println("Starting episode... (Ctrl+C to stop)")
	eng.Run(ctx)

	outcome := "stopped"
	switch {
	case b.Halted():
		outcome = "halted: " + b.HaltReason()
	case eng.MaxTicks > 0 && eng.Tick >= eng.MaxTicks:
		outcome = "tick limit"
	}

	if apiServer != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		if err := apiServer.Shutdown(shutdownCtx); err != nil {
			slog.Warn("API shutdown", "error", err)
		}
		cancel()
	}

	if db != nil {
		if err := db.SaveEvents(runID, simulation.DrainPending()); err != nil {
			slog.Error("final events save failed", "error", err)
		}
		if err := db.SaveSnapshot(runID, eng.Tick, simulation.KnownGrid()); err != nil {
			slog.Error("final checkpoint failed", "error", err)
		}
		if err := db.FinishRun(runID, outcome, eng.Tick, miner.Rocks, miner.Bridges); err != nil {
			slog.Error("finish run failed", "error", err)
		}
	}

	stats := w.Stats()
	fmt.Printf("\nEpisode over after %s ticks (%s): %s\n",
		humanize.Comma(int64(eng.Tick)), humanize.RelTime(started, time.Now(), "", ""), outcome)
	fmt.Printf("Bridges %d, rocks held %d, harvested %s, paved %s tiles, revealed %s tiles, energy used %s.\n",
		miner.Bridges, miner.Rocks,
		humanize.Comma(int64(stats.Harvested)),
		humanize.Comma(int64(stats.Paved)),
		humanize.Comma(int64(stats.Revealed)),
		humanize.Comma(int64(stats.EnergyUsed)),
	)
	fmt.Printf("Islands remaining: %d\n", len(island.Detect(w.Truth())))
	return nil
}

// loadWorld parses the map file when one is configured and generates terrain
// otherwise. A map without a start marker starts near the centre.
func loadWorld(cfg *config.Config) (*world.Grid, world.Coord, error) {
	if cfg.World.MapFile != "" {
		raw, err := os.ReadFile(cfg.World.MapFile)
		if err != nil {
			return nil, world.Coord{}, fmt.Errorf("read map: %w", err)
		}
		g, start, err := world.Parse(strings.Split(string(raw), "\n"))
		if err != nil {
			return nil, world.Coord{}, err
		}
		if g.InBounds(start.Row, start.Col) {
			return g, start, nil
		}
		return withStart(g)
	}

	slog.Info("generating world...", "size", cfg.World.Size, "seed", cfg.World.Seed)
	return withStart(world.Generate(cfg.GenConfig()))
}

func withStart(g *world.Grid) (*world.Grid, world.Coord, error) {
	start, ok := world.FindStart(g)
	if !ok {
		return nil, world.Coord{}, fmt.Errorf("map has no walkable tile")
	}
	return g, start, nil
}

func logLevel(s string) slog.Level {
	switch s {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
