package main

import (
	"context"
	"flag"
	"fmt"
	"time"

	"github.com/joho/godotenv"

	"github.com/Scarage1/API-Watch/internal/core/config"
	"github.com/Scarage1/API-Watch/internal/infra/history"
)

func main() {
	configPath := flag.String("config", "apiwatch.yaml", "Path to configuration file")
	olderThan := flag.Duration("older-than", 0, "Delete records older than this (default is the configured retention)")
	flag.Parse()

	_ = godotenv.Load()

	cfg, err := config.LoadOrDefault(*configPath)
	if err != nil {
		panic(err)
	}

	age := *olderThan
	if age <= 0 {
		age = cfg.History.Retention
	}
	if age <= 0 {
		fmt.Println("No retention configured and no -older-than given, nothing to do")
		return
	}

	ctx := context.Background()
	store, err := history.OpenSQLite(ctx, cfg.History)
	if err != nil {
		panic(err)
	}
	defer func() {
		_ = store.Close()
	}()

	n, err := store.Prune(ctx, time.Now().Add(-age))
	if err != nil {
		panic(err)
	}

	if err := store.Vacuum(ctx); err != nil {
		panic(err)
	}

	stats, err := store.Stats(ctx)
	if err != nil {
		panic(err)
	}

	fmt.Printf("Successfully compacted %s: removed %d record(s), %d remaining\n", cfg.History.Path, n, stats.Total)
}
