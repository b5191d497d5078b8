package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/udisondev/xrprefetch/internal/assets"
	"github.com/udisondev/xrprefetch/internal/config"
	"github.com/udisondev/xrprefetch/internal/db"
	"github.com/udisondev/xrprefetch/internal/events"
	"github.com/udisondev/xrprefetch/internal/gamedata"
	"github.com/udisondev/xrprefetch/internal/prefetch"
	"github.com/udisondev/xrprefetch/internal/sim"
)

const ConfigPath = "config/prefetch.yaml"

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		slog.Info("shutting down", "signal", sig)
		cancel()
	}()

	if err := run(ctx); err != nil {
		slog.Error("fatal", "err", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	// Load config FIRST to determine log level
	cfgPath := ConfigPath
	if p := os.Getenv("XRPREFETCH_CONFIG"); p != "" {
		cfgPath = p
	}
	cfg, err := config.LoadPrefetch(cfgPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	// Configure slog based on config.LogLevel
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: parseLogLevel(cfg.LogLevel),
	})))

	slog.Info("xrprefetch starting", "log_level", cfg.LogLevel)

	// Load section registry
	registry, err := loadRegistry(cfg.Gamedata.Root)
	if err != nil {
		return fmt.Errorf("loading section registry: %w", err)
	}

	// Seed the simulation world
	world := sim.NewWorld()
	if err := seedWorld(ctx, cfg, world); err != nil {
		return fmt.Errorf("seeding world: %w", err)
	}
	world.SetActorID(cfg.Simulation.ActorID)

	// Pick the enumeration strategy once, before any pass runs.
	view, err := sim.NewView(world)
	if err != nil {
		return fmt.Errorf("creating simulation view: %w", err)
	}

	// Model warmup pool
	loader := assets.NewPrefetcher(assets.Options{
		ModelRoot:    cfg.Assets.ModelRoot,
		ModelExt:     cfg.Assets.ModelExt,
		Workers:      cfg.Assets.Workers,
		QueueSize:    cfg.Assets.QueueSize,
		MaxModelSize: cfg.Assets.MaxModelSize,
	})

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := loader.Start(gctx); err != nil && !errors.Is(err, context.Canceled) {
			return fmt.Errorf("prefetcher: %w", err)
		}
		return nil
	})

	// Wire the coordinator into the session lifecycle and replay it.
	dispatcher := events.NewDispatcher()
	coordinator := prefetch.NewCoordinator(registry, view, loader)
	coordinator.Register(dispatcher)

	dispatcher.Fire(ctx, events.GameStart)
	dispatcher.Fire(ctx, events.ActorSpawn)
	dispatcher.Fire(ctx, events.ActorFirstUpdate)

	// Everything is queued; close the intake and drain.
	loader.Close()
	if err := g.Wait(); err != nil {
		return err
	}

	st := loader.Stats()
	slog.Info("session warmup finished",
		"loaded", st.Loaded,
		"bytes", st.Bytes,
		"failed", st.Failed,
		"dropped", st.Dropped,
		"oversized", st.Oversized,
		"duplicates", st.Duplicates)

	return nil
}

// loadRegistry builds the section registry from a single root .ltx or a
// directory of them.
func loadRegistry(root string) (*gamedata.Registry, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("stat gamedata root: %w", err)
	}
	if info.IsDir() {
		return gamedata.LoadDir(root)
	}
	return gamedata.LoadFile(root)
}

// seedWorld populates the world from the configured snapshot source.
func seedWorld(ctx context.Context, cfg config.Prefetch, world *sim.World) error {
	switch cfg.Simulation.Source {
	case config.SourceFile:
		objects, err := gamedata.LoadSimObjects(cfg.Simulation.Snapshot)
		if err != nil {
			return fmt.Errorf("loading snapshot %s: %w", cfg.Simulation.Snapshot, err)
		}
		world.Seed(objects)
		return nil

	case config.SourceDatabase:
		database, err := db.New(ctx, cfg.Database.DSN())
		if err != nil {
			return fmt.Errorf("connecting to database: %w", err)
		}
		defer database.Close()
		slog.Info("database connected")

		objects, err := db.NewSimObjectRepository(database.Pool()).LoadAll(ctx)
		if err != nil {
			return fmt.Errorf("loading snapshot from database: %w", err)
		}
		world.Seed(objects)
		return nil
	}

	return fmt.Errorf("unknown simulation source %q", cfg.Simulation.Source)
}

// parseLogLevel converts string log level to slog.Level.
// Defaults to Info if invalid or empty.
func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
