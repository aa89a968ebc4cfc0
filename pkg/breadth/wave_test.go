package breadth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var waveParams = WaveParams{KeepRatio: 0.75, SidewaysCandles: 6, MinUptrendPct: 1}

func TestScanWavesGivebackTermination(t *testing.T) {
	candles := flatCandles(waveStart(), 100, 104, 108, 112, 108.5)

	waves := ScanWaves("AUSDT", candles, waveParams)
	require.Len(t, waves, 1)

	w := waves[0]
	assert.Equal(t, "AUSDT", w.Symbol)
	assert.InDelta(t, 12.0, w.UptrendPercent, 1e-9)
	assert.False(t, w.Ongoing)
	assert.InDelta(t, 100.0, w.StartPrice, 1e-9)
	assert.InDelta(t, 112.0, w.PeakPrice, 1e-9)
	assert.Equal(t, candles[0].BucketStart.UnixMilli(), w.StartTime)
	assert.Equal(t, candles[3].BucketStart.UnixMilli(), w.PeakTime)
}

func TestScanWavesSidewaysTermination(t *testing.T) {
	candles := flatCandles(waveStart(), 100, 105, 105, 105, 105, 105, 105, 105)

	waves := ScanWaves("BUSDT", candles, waveParams)
	require.Len(t, waves, 1)

	w := waves[0]
	assert.InDelta(t, 5.0, w.UptrendPercent, 1e-9)
	assert.False(t, w.Ongoing)
	assert.Equal(t, candles[1].BucketStart.UnixMilli(), w.PeakTime)
}

func TestScanWavesMonotonicRiseStaysOngoing(t *testing.T) {
	closes := make([]float64, 0, 12)
	for i := 0; i < 12; i++ {
		closes = append(closes, 100+float64(i))
	}
	candles := flatCandles(waveStart(), closes...)

	waves := ScanWaves("CUSDT", candles, waveParams)
	require.Len(t, waves, 1)

	w := waves[0]
	assert.True(t, w.Ongoing)
	assert.InDelta(t, 100.0, w.StartPrice, 1e-9)
	assert.InDelta(t, 111.0, w.PeakPrice, 1e-9)
	assert.Equal(t, candles[0].BucketStart.UnixMilli(), w.StartTime)
	assert.Equal(t, candles[len(candles)-1].BucketStart.UnixMilli(), w.PeakTime)
	assert.InDelta(t, 11.0, w.UptrendPercent, 1e-9)
	assert.Greater(t, w.PeakTime, w.StartTime)
}

func TestScanWavesBreakdownDiscardsWave(t *testing.T) {
	start := waveStart()
	candles := flatCandles(start, 100, 104, 108)
	// A low under the wave's floor invalidates the segment outright.
	candles = append(candles, Candle{
		Symbol:      "DUSDT",
		BucketStart: start.Add(3 * 5 * time.Minute),
		Open:        97, High: 97, Low: 95, Close: 96,
	})

	waves := ScanWaves("DUSDT", candles, WaveParams{KeepRatio: 0.75, SidewaysCandles: 6, MinUptrendPct: 2})
	assert.Empty(t, waves, "the eight percent leg must vanish when its floor breaks")
}

func TestScanWavesBackScanFindsDip(t *testing.T) {
	start := waveStart()
	at := func(i int) time.Time { return start.Add(time.Duration(i) * 5 * time.Minute) }
	candles := []Candle{
		{BucketStart: at(0), Open: 100, High: 100, Low: 100, Close: 100},
		{BucketStart: at(1), Open: 109, High: 110, Low: 109, Close: 110},
		// Six candles shy of the peak: sideways trigger at index 7, with a
		// dip at index 3 that the restart must measure from.
		{BucketStart: at(2), Open: 109.5, High: 109.8, Low: 109.2, Close: 109.6},
		{BucketStart: at(3), Open: 109.3, High: 109.5, Low: 105, Close: 109.4},
		{BucketStart: at(4), Open: 109.4, High: 109.7, Low: 109, Close: 109.5},
		{BucketStart: at(5), Open: 109.5, High: 109.6, Low: 109.1, Close: 109.3},
		{BucketStart: at(6), Open: 109.3, High: 109.4, Low: 109, Close: 109.2},
		{BucketStart: at(7), Open: 109.2, High: 109.6, Low: 109, Close: 109.5},
		{BucketStart: at(8), Open: 110, High: 112, Low: 111, Close: 111.8},
	}

	waves := ScanWaves("EUSDT", candles, waveParams)
	require.Len(t, waves, 2)

	first := waves[0]
	assert.InDelta(t, 10.0, first.UptrendPercent, 1e-9)
	assert.False(t, first.Ongoing)
	assert.Equal(t, at(1).UnixMilli(), first.PeakTime)

	second := waves[1]
	assert.InDelta(t, 105.0, second.StartPrice, 1e-9, "restart must measure from the post-peak dip")
	assert.Equal(t, at(3).UnixMilli(), second.StartTime)
	assert.True(t, second.Ongoing)
	assert.InDelta(t, 112.0, second.PeakPrice, 1e-9)
}

func TestScanWavesGuards(t *testing.T) {
	t.Run("fewer than two candles", func(t *testing.T) {
		assert.Nil(t, ScanWaves("AUSDT", flatCandles(waveStart(), 100), waveParams))
	})

	t.Run("below minimum magnitude", func(t *testing.T) {
		// Peaks at +0.5%, under the 1% floor.
		candles := flatCandles(waveStart(), 100, 100.5, 100.1, 100.1, 100.1, 100.1, 100.1, 100.1)
		assert.Empty(t, ScanWaves("AUSDT", candles, waveParams))
	})

	t.Run("start candle holds the peak", func(t *testing.T) {
		start := waveStart()
		candles := []Candle{
			{BucketStart: start, Open: 105, High: 110, Low: 100, Close: 109},
			{BucketStart: start.Add(5 * time.Minute), Open: 102, High: 109, Low: 100.5, Close: 101},
		}
		assert.Empty(t, ScanWaves("AUSDT", candles, waveParams),
			"a wave whose start and peak share a candle is never emitted")
	})
}

func TestScanWavesHighLowFallbackToClose(t *testing.T) {
	// Rows persisted before OHLC capture carry zero highs and lows.
	candles := flatCandles(waveStart(), 100, 104, 108, 112, 108.5)
	for i := range candles {
		candles[i].High = 0
		candles[i].Low = 0
	}

	waves := ScanWaves("FUSDT", candles, waveParams)
	require.Len(t, waves, 1)
	assert.InDelta(t, 12.0, waves[0].UptrendPercent, 1e-9)
}

func TestBuildUptrendAssembly(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	waves := []Wave{
		{Symbol: "AUSDT", UptrendPercent: 4.2, Ongoing: false},
		{Symbol: "BUSDT", UptrendPercent: 12.37, Ongoing: true},
		{Symbol: "CUSDT", UptrendPercent: 7.5, Ongoing: true},
	}

	data := BuildUptrend(now, waves, waveParams)
	require.NotNil(t, data)
	assert.Equal(t, now.UnixMilli(), data.Timestamp)
	assert.Equal(t, 3, data.TotalCoins)
	assert.InDelta(t, 0.75, data.PullbackThreshold, 1e-9)
	assert.Equal(t, 2, data.OngoingCount)
	assert.InDelta(t, 12.37, data.MaxUptrend, 1e-9)
	assert.InDelta(t, 8.02, data.AvgUptrend, 1e-9)

	require.Len(t, data.AllCoinsRanking, 3)
	assert.Equal(t, "BUSDT", data.AllCoinsRanking[0].Symbol)
	assert.Equal(t, "CUSDT", data.AllCoinsRanking[1].Symbol)
	assert.Equal(t, "AUSDT", data.AllCoinsRanking[2].Symbol)

	total, ongoing := 0, 0
	for _, b := range data.Distribution {
		total += b.Count
		ongoing += b.Ongoing
		assert.Len(t, b.Waves, b.Count)
	}
	assert.Equal(t, 3, total)
	assert.Equal(t, 2, ongoing)
}

func TestBuildUptrendEmpty(t *testing.T) {
	assert.Nil(t, BuildUptrend(time.Now(), nil, waveParams))
}

// --- helpers ---

func waveStart() time.Time {
	return time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
}

// flatCandles builds five-minute candles whose open, high, low and close all
// sit at the given values.
func flatCandles(start time.Time, closes ...float64) []Candle {
	out := make([]Candle, len(closes))
	for i, c := range closes {
		out[i] = Candle{
			BucketStart: start.Add(time.Duration(i) * 5 * time.Minute),
			Open:        c,
			High:        c,
			Low:         c,
			Close:       c,
			QuoteVolume: 100,
		}
	}
	return out
}
