package main

import (
	"context"
	"encoding/json"
	"flag"
	"log"
	"os"
	"strings"
	"time"

	"trailstatus/internal/app"
	"trailstatus/internal/config"

	"github.com/google/uuid"
)

func main() {
	pointID := flag.String("point", "", "refresh a single monitored point by id")
	all := flag.Bool("all", false, "refresh every monitored point")
	force := flag.Bool("force", false, "bypass staleness thresholds")
	workers := flag.Int("workers", 4, "concurrent refresh workers for -all")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger := log.Default()

	container, err := app.NewContainer(cfg, logger)
	if err != nil {
		log.Fatalf("failed to init container: %v", err)
	}
	defer func() {
		_ = container.Close()
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	switch {
	case strings.TrimSpace(*pointID) != "":
		id, err := uuid.Parse(strings.TrimSpace(*pointID))
		if err != nil {
			log.Fatalf("invalid point id: %v", err)
		}

		conditions, err := container.Conditions.ForceRefresh(ctx, id)
		if err != nil {
			log.Fatalf("refresh failed: %v", err)
		}
		printJSON(conditions)

	case *all:
		summary, err := container.Bulk.RefreshAll(ctx, *workers, *force)
		if err != nil {
			log.Fatalf("bulk refresh failed: %v", err)
		}
		log.Printf(
			"bulk refresh done | points=%d refreshed=%d skipped=%d degraded=%d",
			summary.Points, summary.Refreshed, summary.Skipped, summary.Degraded,
		)

	default:
		log.Fatalf("provide -point <id> or -all")
	}
}

func printJSON(v any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		log.Fatalf("encode output: %v", err)
	}
}
