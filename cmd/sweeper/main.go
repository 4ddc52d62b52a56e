package main

import (
	"context"
	"database/sql"
	"flag"
	"log"
	"os"
	"time"

	_ "github.com/lib/pq"

	"github.com/truevault/tv-dvr/internal/config"
	"github.com/truevault/tv-dvr/internal/data"
	"github.com/truevault/tv-dvr/internal/quota"
)

// One-shot retention sweep, intended for cron.
func main() {
	days := flag.Int("days", 0, "Override retention window in days")
	flag.Parse()

	cfg, err := config.Load(os.Getenv("CONFIG_PATH"))
	if err != nil {
		log.Fatalf("Config error: %v", err)
	}
	if cfg.DatabaseURL == "" {
		log.Fatal("DATABASE_URL is required")
	}

	retention := cfg.Storage.RetentionDays
	if *days > 0 {
		retention = *days
	}

	db, err := sql.Open("postgres", cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("DB open error: %v", err)
	}
	defer db.Close()
	if err := db.Ping(); err != nil {
		log.Fatalf("DB ping error: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	sweeper := quota.NewSweeper(data.RecordingModel{DB: db}, nil, cfg.Storage.ClipsDir, cfg.Storage.ThumbsDir)

	start := time.Now()
	res, err := sweeper.SweepAll(ctx, retention)
	if err != nil {
		log.Fatalf("Sweep failed: %v", err)
	}

	log.Printf("Sweep completed in %v: deleted=%d freed=%d bytes (retention %dd)",
		time.Since(start), res.Deleted, res.FreedBytes, retention)
}
