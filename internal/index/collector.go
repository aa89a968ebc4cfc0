package index

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/zeromicro/go-zero/core/logx"
	"golang.org/x/sync/errgroup"

	"breadth-api/internal/model"
	"breadth-api/pkg/breadth"
	"breadth-api/pkg/market"
)

// Collect runs one live tick: fetch every active symbol's latest closed
// candle, aggregate them into an index row, and persist both. It is
// idempotent per bucket.
func (s *Service) Collect(ctx context.Context) error {
	return s.collectAt(ctx, time.Now())
}

func (s *Service) collectAt(ctx context.Context, now time.Time) error {
	if s.backfillInProgress.Load() {
		logx.WithContext(ctx).Infof("collect skipped, backfill in progress")
		return nil
	}

	expected := market.LatestClosedBucket(now)
	exists, err := s.deps.Index.ExistsAtBucket(ctx, expected.UnixMilli())
	if err != nil {
		return fmt.Errorf("index: check bucket %s: %w", FormatUTC(expected), err)
	}
	if exists {
		return nil
	}

	symbols, err := s.deps.Provider.ActiveSymbols(ctx)
	if err != nil {
		return fmt.Errorf("index: list active symbols: %w", err)
	}
	if len(symbols) == 0 {
		logx.WithContext(ctx).Errorf("collect skipped, empty active symbol list")
		return nil
	}

	if revoked, err := s.registry.ReconcileWithActive(ctx, symbols); err != nil {
		logx.WithContext(ctx).Errorf("reconcile delisted symbols: %v", err)
	} else if len(revoked) > 0 {
		logx.WithContext(ctx).Infof("revoked %d delisted base prices", len(revoked))
	}

	klines := s.fetchLatestKlines(ctx, symbols)
	if len(klines) == 0 {
		logx.WithContext(ctx).Errorf("collect: no closed candles returned for %d symbols", len(symbols))
		return nil
	}

	// The bucket comes from the candles themselves; anything newer than the
	// latest closed bucket is never written.
	bucket := deriveBucket(klines, expected)
	if bucket.IsZero() {
		logx.WithContext(ctx).Errorf("collect: all %d candles are for unclosed buckets", len(klines))
		return nil
	}
	matched := klinesAtBucket(klines, bucket)
	bucketMs := bucket.UnixMilli()

	exists, err = s.deps.Index.ExistsAtBucket(ctx, bucketMs)
	if err != nil {
		return fmt.Errorf("index: recheck bucket %s: %w", FormatUTC(bucket), err)
	}
	if exists {
		return nil
	}

	// Snapshot before adoption: a freshly adopted symbol joins from the next
	// bucket on, it does not contribute to this one.
	bases := s.registry.Snapshot()
	nowMs := now.UTC().UnixMilli()
	for _, k := range matched {
		if _, ok := bases[k.Symbol]; ok {
			continue
		}
		if adopted, err := s.registry.AdoptIfMissing(ctx, k.Symbol, k.Close, nowMs); err != nil {
			logx.WithContext(ctx).Errorf("adopt base for %s: %v", k.Symbol, err)
		} else if adopted {
			logx.WithContext(ctx).Infof("new symbol %s, base price frozen at %v", k.Symbol, k.Close)
		}
	}

	point, ok := breadth.Aggregate(bucket, klinesToBreadth(matched), bases)
	if ok {
		row := indexPointToRow(point)
		if err := s.deps.Index.Insert(ctx, &row); err != nil {
			return fmt.Errorf("index: insert index row %s: %w", FormatUTC(bucket), err)
		}
	}
	if _, err := s.deps.Candles.BulkInsert(ctx, klinesToRows(matched)); err != nil {
		return fmt.Errorf("index: insert candles %s: %w", FormatUTC(bucket), err)
	}
	if ok {
		s.InvalidateUptrendCache()
		logx.WithContext(ctx).Infof(
			"index saved: bucket=%s value=%.4f up/down=%d/%d adr=%.2f coins=%d",
			FormatUTC(bucket), point.Value, point.UpCount, point.DownCount, point.ADR, point.CoinCount)
	} else {
		logx.WithContext(ctx).Infof("no contributing symbols at %s, candles persisted only", FormatUTC(bucket))
	}
	return nil
}

func (s *Service) fetchLatestKlines(ctx context.Context, symbols []string) []market.Kline {
	var (
		mu     sync.Mutex
		klines []market.Kline
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.conf.CollectConcurrency)
	for _, symbol := range symbols {
		symbol := symbol
		g.Go(func() error {
			k, ok, err := s.deps.Provider.LatestClosedKline(gctx, symbol)
			if err != nil {
				logx.WithContext(gctx).Errorf("fetch latest kline %s: %v", symbol, err)
				return nil
			}
			if !ok {
				return nil
			}
			mu.Lock()
			klines = append(klines, k)
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait() // workers never return errors
	return klines
}

// deriveBucket picks the newest bucket among the candles that is not past
// the latest closed bucket.
func deriveBucket(klines []market.Kline, latestClosed time.Time) time.Time {
	var bucket time.Time
	for _, k := range klines {
		open := market.AlignBucket(k.OpenTime)
		if open.After(latestClosed) {
			continue
		}
		if open.After(bucket) {
			bucket = open
		}
	}
	return bucket
}

func klinesAtBucket(klines []market.Kline, bucket time.Time) []market.Kline {
	out := klines[:0:0]
	for _, k := range klines {
		if market.AlignBucket(k.OpenTime).Equal(bucket) && k.Close > 0 {
			out = append(out, k)
		}
	}
	return out
}

func klinesToBreadth(klines []market.Kline) []breadth.Candle {
	out := make([]breadth.Candle, 0, len(klines))
	for _, k := range klines {
		out = append(out, breadth.Candle{
			Symbol:      k.Symbol,
			BucketStart: market.AlignBucket(k.OpenTime),
			Open:        k.Open,
			High:        k.High,
			Low:         k.Low,
			Close:       k.Close,
			QuoteVolume: k.QuoteVolume,
		})
	}
	return out
}

func klinesToRows(klines []market.Kline) []model.Candle {
	out := make([]model.Candle, 0, len(klines))
	for _, k := range klines {
		out = append(out, model.Candle{
			Symbol:        k.Symbol,
			BucketStartMs: market.AlignBucket(k.OpenTime).UnixMilli(),
			OpenPrice:     k.Open,
			HighPrice:     k.High,
			LowPrice:      k.Low,
			ClosePrice:    k.Close,
			QuoteVolume:   k.QuoteVolume,
		})
	}
	return out
}

func rowsToBreadth(rows []model.Candle) []breadth.Candle {
	out := make([]breadth.Candle, 0, len(rows))
	for _, row := range rows {
		out = append(out, breadth.Candle{
			Symbol:      row.Symbol,
			BucketStart: time.UnixMilli(row.BucketStartMs).UTC(),
			Open:        row.OpenPrice,
			High:        row.HighPrice,
			Low:         row.LowPrice,
			Close:       row.ClosePrice,
			QuoteVolume: row.QuoteVolume,
		})
	}
	return out
}

func indexPointToRow(p breadth.IndexPoint) model.MarketIndex {
	return model.MarketIndex{
		BucketStartMs: p.BucketStart.UnixMilli(),
		IndexValue:    p.Value,
		TotalVolume:   p.TotalVolume,
		CoinCount:     int64(p.CoinCount),
		UpCount:       int64(p.UpCount),
		DownCount:     int64(p.DownCount),
		Adr:           p.ADR,
	}
}
