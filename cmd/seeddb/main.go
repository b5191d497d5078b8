// seeddb loads a spawn snapshot .ltx into the sim_objects table so that
// cmd/prefetch can run with simulation.source set to "database".
//
// Usage:
//
//	go run ./cmd/seeddb
//	go run ./cmd/seeddb -snapshot gamedata/spawns/all.ltx -config config/prefetch.yaml
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/udisondev/xrprefetch/internal/config"
	"github.com/udisondev/xrprefetch/internal/db"
	"github.com/udisondev/xrprefetch/internal/gamedata"
)

func main() {
	cfgPath := flag.String("config", "config/prefetch.yaml", "prefetch config with database settings")
	snapshot := flag.String("snapshot", "", "spawn snapshot .ltx (default: simulation.snapshot from config)")
	flag.Parse()

	if err := run(context.Background(), *cfgPath, *snapshot); err != nil {
		slog.Error("fatal", "err", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfgPath, snapshot string) error {
	cfg, err := config.LoadPrefetch(cfgPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})))

	if snapshot == "" {
		snapshot = cfg.Simulation.Snapshot
	}

	objects, err := gamedata.LoadSimObjects(snapshot)
	if err != nil {
		return fmt.Errorf("loading snapshot %s: %w", snapshot, err)
	}

	database, err := db.New(ctx, cfg.Database.DSN())
	if err != nil {
		return fmt.Errorf("connecting to database: %w", err)
	}
	defer database.Close()
	slog.Info("database connected")

	if err := db.RunMigrations(ctx, cfg.Database.DSN()); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}
	slog.Info("database migrations applied")

	repo := db.NewSimObjectRepository(database.Pool())
	if err := repo.ReplaceAll(ctx, objects); err != nil {
		return fmt.Errorf("replacing snapshot: %w", err)
	}

	count, err := repo.Count(ctx)
	if err != nil {
		return fmt.Errorf("counting objects: %w", err)
	}

	slog.Info("snapshot seeded", "source", snapshot, "objects", count)
	return nil
}
