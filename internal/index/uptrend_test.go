package index

import (
	"context"
	"sort"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"breadth-api/internal/model"
	"breadth-api/pkg/breadth"
)

func (f *fakeCandles) ListBetweenOrderBySymbolTime(ctx context.Context, startMs, endMs int64) ([]model.Candle, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	atomic.AddInt64(&f.listBetweenCalls, 1)
	var out []model.Candle
	for _, row := range f.rows {
		if row.BucketStartMs >= startMs && row.BucketStartMs <= endMs {
			out = append(out, row)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Symbol != out[j].Symbol {
			return out[i].Symbol < out[j].Symbol
		}
		return out[i].BucketStartMs < out[j].BucketStartMs
	})
	return out, nil
}

var waveParams = breadth.WaveParams{KeepRatio: 0.75, SidewaysCandles: 6, MinUptrendPct: 4}

func TestUptrendByRangeFindsWave(t *testing.T) {
	f := newCollectorFixture(t)

	// A clean ramp: low 100 to high 112, well past the 4% floor.
	prices := []struct{ open, high, low, close float64 }{
		{100, 102, 100, 101},
		{101, 105, 101, 104},
		{104, 109, 104, 108},
		{108, 112, 108, 111},
	}
	for i, p := range prices {
		seedCandle(f.candles, "AAAUSDT", day.Add(time.Duration(i)*5*time.Minute), p.open, p.high, p.low, p.close)
	}

	result, err := f.svc.UptrendByRange(context.Background(), day, day.Add(time.Hour), waveParams)
	require.NoError(t, err)
	require.NotNil(t, result)
	require.Equal(t, 1, result.TotalCoins)
	require.Len(t, result.AllCoinsRanking, 1)

	wave := result.AllCoinsRanking[0]
	require.Equal(t, "AAAUSDT", wave.Symbol)
	require.InDelta(t, 12.0, wave.UptrendPercent, 1e-9)
	require.True(t, wave.Ongoing)
}

func TestUptrendResultIsCachedUntilInvalidated(t *testing.T) {
	f := newCollectorFixture(t)
	for i, close := range []float64{101, 104, 108, 111} {
		seedCandle(f.candles, "AAAUSDT", day.Add(time.Duration(i)*5*time.Minute), close-1, close+1, close-2, close)
	}

	ctx := context.Background()
	start, end := day, day.Add(time.Hour)

	_, err := f.svc.UptrendByRange(ctx, start, end, waveParams)
	require.NoError(t, err)
	_, err = f.svc.UptrendByRange(ctx, start, end, waveParams)
	require.NoError(t, err)
	require.Equal(t, int64(1), atomic.LoadInt64(&f.candles.listBetweenCalls),
		"second identical query is served from cache")

	f.svc.InvalidateUptrendCache()
	_, err = f.svc.UptrendByRange(ctx, start, end, waveParams)
	require.NoError(t, err)
	require.Equal(t, int64(2), atomic.LoadInt64(&f.candles.listBetweenCalls),
		"invalidation forces a recompute")
}

func TestUptrendEmptyWindow(t *testing.T) {
	f := newCollectorFixture(t)
	result, err := f.svc.UptrendByRange(context.Background(), day, day.Add(time.Hour), waveParams)
	require.NoError(t, err)
	require.Nil(t, result)
}
