package index

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/zeromicro/go-zero/core/logx"
	"golang.org/x/sync/errgroup"

	"breadth-api/internal/model"
	"breadth-api/pkg/breadth"
	"breadth-api/pkg/market"
)

// backfillBatchLimit is the kline page size during backfill.
const backfillBatchLimit = 500

// failureCooldown is how long a backfill pauses after every tenth failure.
const failureCooldown = 5 * time.Second

// Backfill runs the two-phase historical fill and unblocks live collection
// on success. Phase 1 fills from either the last stored bucket or
// BackfillDays back, with its end frozen at the latest bucket closed at
// startup; phase 2 catches the buckets that closed while phase 1 ran.
func (s *Service) Backfill(ctx context.Context) error {
	if !s.backfillInProgress.CompareAndSwap(false, true) {
		return errors.New("index: backfill already running")
	}
	defer s.backfillInProgress.Store(false)

	started := time.Now()
	if err := s.registry.Load(ctx); err != nil {
		return fmt.Errorf("index: load base prices: %w", err)
	}

	phase1End := market.LatestClosedBucket(started)
	phase1Start, run, err := s.phase1Start(ctx, phase1End)
	if err != nil {
		return err
	}
	if !run {
		logx.Infof("backfill skipped, candle store already reaches %s", FormatUTC(phase1End))
		s.backfillComplete.Store(true)
		return nil
	}

	symbols, err := s.deps.Provider.ActiveSymbols(ctx)
	if err != nil {
		return fmt.Errorf("index: list active symbols: %w", err)
	}
	if len(symbols) == 0 {
		return errors.New("index: empty active symbol list, backfill aborted")
	}

	logx.Infof("backfill phase 1: %s -> %s, %d symbols, concurrency %d",
		FormatUTC(phase1Start), FormatUTC(phase1End), len(symbols), s.conf.BackfillConcurrency)
	collected, err := s.backfillPhase(ctx, symbols, phase1Start, phase1End, true)
	if err != nil {
		return err
	}
	if len(collected) > 0 {
		adopted, err := s.registry.AdoptBatch(ctx, collected, time.Now().UTC().UnixMilli())
		if err != nil {
			return fmt.Errorf("index: adopt backfill bases: %w", err)
		}
		if adopted > 0 {
			logx.Infof("backfill adopted %d base prices", adopted)
		}
	}
	if _, err := s.computeIndexRange(ctx, phase1Start, phase1End); err != nil {
		return err
	}

	phase2Start := phase1End.Add(market.BucketInterval)
	phase2End := market.LatestClosedBucket(time.Now())
	if !phase2Start.After(phase2End) {
		logx.Infof("backfill phase 2: %s -> %s", FormatUTC(phase2Start), FormatUTC(phase2End))
		if _, err := s.backfillPhase(ctx, symbols, phase2Start, phase2End, false); err != nil {
			return err
		}
		if _, err := s.computeIndexRange(ctx, phase2Start, phase2End); err != nil {
			return err
		}
	}

	s.backfillComplete.Store(true)
	logx.Infof("backfill complete in %s", time.Since(started).Round(time.Second))
	return nil
}

// phase1Start resolves where phase 1 begins. run is false when the store
// already holds the latest closed bucket.
func (s *Service) phase1Start(ctx context.Context, phase1End time.Time) (time.Time, bool, error) {
	latestMs, found, err := s.deps.Candles.LatestBucket(ctx)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("index: read latest candle bucket: %w", err)
	}
	if !found {
		return phase1End.AddDate(0, 0, -s.conf.BackfillDays), true, nil
	}
	latest := time.UnixMilli(latestMs).UTC()
	if !latest.Before(phase1End) {
		return time.Time{}, false, nil
	}
	return latest.Add(market.BucketInterval), true, nil
}

// backfillPhase fills [start, end] for every symbol with bounded
// concurrency. When collectBases is set, each symbol's first fetched open
// price is returned as its tentative base. Worker failures are counted, not
// propagated; every tenth failure pauses the whole phase briefly.
func (s *Service) backfillPhase(ctx context.Context, symbols []string, start, end time.Time, collectBases bool) (map[string]float64, error) {
	existing, err := s.deps.Candles.DistinctBucketsBetween(ctx, start.UnixMilli(), end.UnixMilli())
	if err != nil {
		return nil, fmt.Errorf("index: preload existing buckets: %w", err)
	}
	existingSet := make(map[int64]struct{}, len(existing))
	for _, ms := range existing {
		existingSet[ms] = struct{}{}
	}
	if len(existingSet) > 0 {
		logx.Infof("backfill phase skips %d already-present buckets", len(existingSet))
	}

	var (
		mu        sync.Mutex
		collected = make(map[string]float64)
		failures  atomic.Int64
		saved     atomic.Int64
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.conf.BackfillConcurrency)
	for _, symbol := range symbols {
		symbol := symbol
		g.Go(func() error {
			cursor := start
			firstBatch := true
			for !cursor.After(end) {
				if latched, reason := s.deps.Provider.RateLimited(); latched {
					logx.WithContext(gctx).Errorf("rate limited (%s), stopping backfill of %s", reason, symbol)
					return nil
				}

				batch, err := s.deps.Provider.KlineRange(gctx, symbol, "5m", cursor, end, backfillBatchLimit)
				if err != nil {
					n := failures.Add(1)
					logx.WithContext(gctx).Errorf("backfill %s: %v", symbol, err)
					if n%10 == 0 {
						logx.Infof("%d backfill failures, cooling down %s", n, failureCooldown)
						sleepCtx(gctx, failureCooldown)
					}
					return nil
				}
				if len(batch) == 0 {
					return nil
				}

				if collectBases && firstBatch {
					mu.Lock()
					if _, ok := collected[symbol]; !ok {
						collected[symbol] = batch[0].Open
					}
					mu.Unlock()
					firstBatch = false
				}

				rows := filterBackfillRows(batch, existingSet, end)
				if len(rows) > 0 {
					n, err := s.deps.Candles.BulkInsert(gctx, rows)
					if err != nil {
						failures.Add(1)
						logx.WithContext(gctx).Errorf("backfill insert %s: %v", symbol, err)
					} else {
						saved.Add(n)
					}
				}

				cursor = market.AlignBucket(batch[len(batch)-1].OpenTime).Add(market.BucketInterval)
				sleepCtx(gctx, s.conf.RequestInterval)
			}
			return nil
		})
	}
	_ = g.Wait() // workers never return errors

	logx.Infof("backfill phase done: saved=%d failures=%d", saved.Load(), failures.Load())
	return collected, nil
}

// filterBackfillRows drops buckets already present in the store, zero
// closes, and anything newer than the phase end.
func filterBackfillRows(batch []market.Kline, existing map[int64]struct{}, end time.Time) []model.Candle {
	rows := make([]model.Candle, 0, len(batch))
	for _, k := range batch {
		open := market.AlignBucket(k.OpenTime)
		if open.After(end) || k.Close <= 0 {
			continue
		}
		if _, ok := existing[open.UnixMilli()]; ok {
			continue
		}
		rows = append(rows, model.Candle{
			Symbol:        k.Symbol,
			BucketStartMs: open.UnixMilli(),
			OpenPrice:     k.Open,
			HighPrice:     k.High,
			LowPrice:      k.Low,
			ClosePrice:    k.Close,
			QuoteVolume:   k.QuoteVolume,
		})
	}
	return rows
}

// computeIndexRange writes an index row for every candle bucket in
// [start, end] that lacks one. Returns how many rows were written.
func (s *Service) computeIndexRange(ctx context.Context, start, end time.Time) (int, error) {
	startMs, endMs := start.UnixMilli(), end.UnixMilli()

	buckets, err := s.deps.Candles.DistinctBucketsBetween(ctx, startMs, endMs)
	if err != nil {
		return 0, fmt.Errorf("index: list candle buckets: %w", err)
	}
	existing, err := s.deps.Index.BucketsBetween(ctx, startMs, endMs)
	if err != nil {
		return 0, fmt.Errorf("index: list index buckets: %w", err)
	}
	existingSet := make(map[int64]struct{}, len(existing))
	for _, ms := range existing {
		existingSet[ms] = struct{}{}
	}

	bases := s.registry.Snapshot()
	var rows []model.MarketIndex
	for _, bucketMs := range buckets {
		if _, ok := existingSet[bucketMs]; ok {
			continue
		}
		candles, err := s.deps.Candles.ListByBucket(ctx, bucketMs)
		if err != nil {
			return 0, fmt.Errorf("index: read candles at %d: %w", bucketMs, err)
		}
		point, ok := breadth.Aggregate(time.UnixMilli(bucketMs).UTC(), rowsToBreadth(candles), bases)
		if !ok {
			continue
		}
		rows = append(rows, indexPointToRow(point))
	}
	if len(rows) == 0 {
		return 0, nil
	}
	if _, err := s.deps.Index.BulkInsert(ctx, rows); err != nil {
		return 0, fmt.Errorf("index: insert index rows: %w", err)
	}
	logx.Infof("computed %d index rows for %s -> %s", len(rows), FormatUTC(start), FormatUTC(end))
	return len(rows), nil
}

// sleepCtx pauses for d unless the context ends first.
func sleepCtx(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}
