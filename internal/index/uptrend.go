package index

import (
	"context"
	"fmt"
	"time"

	"breadth-api/internal/cache"
	"breadth-api/pkg/breadth"
	"breadth-api/pkg/market"
)

// UptrendByHours runs the wave scan over the last hours (fractional).
func (s *Service) UptrendByHours(ctx context.Context, hours float64, params breadth.WaveParams) (*breadth.Uptrend, error) {
	end := market.AlignBucket(time.Now())
	start := end.Add(-time.Duration(hours*60) * time.Minute)
	return s.uptrend(ctx, start, end, params)
}

// UptrendByRange runs the wave scan between two UTC instants.
func (s *Service) UptrendByRange(ctx context.Context, start, end time.Time, params breadth.WaveParams) (*breadth.Uptrend, error) {
	return s.uptrend(ctx, market.AlignBucket(start), market.AlignBucket(end), params)
}

func (s *Service) uptrend(ctx context.Context, start, end time.Time, params breadth.WaveParams) (*breadth.Uptrend, error) {
	key := cache.UptrendKey(s.cacheGen.Load(),
		start.UnixMilli(), end.UnixMilli(),
		params.KeepRatio, params.MinUptrendPct, params.SidewaysCandles)

	value, err := s.uptrendCache.Take(key, func() (any, error) {
		return s.computeUptrend(ctx, start, end, params)
	})
	if err != nil {
		return nil, err
	}
	result, _ := value.(*breadth.Uptrend)
	return result, nil
}

func (s *Service) computeUptrend(ctx context.Context, start, end time.Time, params breadth.WaveParams) (*breadth.Uptrend, error) {
	rows, err := s.deps.Candles.ListBetweenOrderBySymbolTime(ctx, start.UnixMilli(), end.UnixMilli())
	if err != nil {
		return nil, fmt.Errorf("index: read candles for wave scan: %w", err)
	}
	if len(rows) == 0 {
		return nil, nil
	}

	var waves []breadth.Wave
	seriesStart := 0
	for i := 1; i <= len(rows); i++ {
		if i < len(rows) && rows[i].Symbol == rows[seriesStart].Symbol {
			continue
		}
		series := rowsToBreadth(rows[seriesStart:i])
		waves = append(waves, breadth.ScanWaves(rows[seriesStart].Symbol, series, params)...)
		seriesStart = i
	}
	return breadth.BuildUptrend(time.Now(), waves, params), nil
}
