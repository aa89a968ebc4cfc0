// Command backfill runs the historical candle backfill (or the gap repair)
// once and exits. It shares the service wiring with the API server, so the
// same config file drives both.
package main

import (
	"context"
	"flag"
	"log"
	"os/signal"
	"syscall"
	"time"

	"breadth-api/internal/cli"
	"breadth-api/internal/config"
	"breadth-api/internal/svc"
)

var (
	configFile = flag.String("f", "etc/breadth-api.yaml", "the config file")
	repair     = flag.Bool("repair", false, "scan for and refetch missing candles instead of backfilling")
	days       = flag.Int("days", 0, "override the lookback window in days (1-60)")
)

func main() {
	flag.Parse()
	log.SetFlags(log.Ldate | log.Ltime | log.Lmicroseconds)

	cfg := config.MustLoad(*configFile)
	if *days != 0 {
		if *days < 1 || *days > 60 {
			log.Fatalf("[main] days must be between 1 and 60, got %d", *days)
		}
		cfg.Index.BackfillDays = *days
	}

	log.Printf("[main] Configuration loaded:")
	for _, line := range cli.ConfigSummaryLines(cfg) {
		log.Printf("  - %s", line)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	svcCtx := svc.NewServiceContext(*cfg)
	if err := svcCtx.Index.Registry().Load(ctx); err != nil {
		log.Fatalf("[main] Failed to load base prices: %v", err)
	}

	started := time.Now()
	if *repair {
		summary, err := svcCtx.Index.Repair(ctx, time.Time{}, time.Time{}, cfg.Index.BackfillDays)
		if err != nil {
			log.Fatalf("[main] Repair failed: %v", err)
		}
		log.Printf("[main] Repair finished in %s: %d symbols checked, %d repaired, %d records",
			time.Since(started).Round(time.Second),
			summary.CheckedSymbols, summary.RepairedSymbolCount, summary.TotalRepairedRecords)
		return
	}

	if err := svcCtx.Index.Backfill(ctx); err != nil {
		log.Fatalf("[main] Backfill failed: %v", err)
	}
	log.Printf("[main] Backfill finished in %s", time.Since(started).Round(time.Second))
}
