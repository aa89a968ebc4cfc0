package breadth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var distNow = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func TestBuildDistributionAdaptiveStep(t *testing.T) {
	changes := []CoinChange{
		{Symbol: "AUSDT", ChangePercent: -0.3},
		{Symbol: "BUSDT", ChangePercent: 0.1},
		{Symbol: "CUSDT", ChangePercent: 0.4},
		{Symbol: "DUSDT", ChangePercent: 0.9},
	}

	data := BuildDistribution(distNow, changes)
	require.NotNil(t, data)
	assert.Equal(t, 4, data.TotalCoins)
	assert.Equal(t, 3, data.UpCount)
	assert.Equal(t, 1, data.DownCount)

	// Range 1.2 selects a 0.2 step covering [-0.4, 1.0).
	require.Len(t, data.Distribution, 7)
	counts := make(map[string]int, len(data.Distribution))
	for _, b := range data.Distribution {
		counts[b.Range] = b.Count
	}
	assert.Equal(t, 1, counts["-0.4%~-0.2%"])
	assert.Equal(t, 1, counts["0.0%~0.2%"])
	assert.Equal(t, 1, counts["0.4%~0.6%"])
	assert.Equal(t, 1, counts["0.8%~1.0%"])
	assert.Equal(t, 0, counts["-0.2%~0.0%"])
	assert.Equal(t, 0, counts["0.2%~0.4%"])
	assert.Equal(t, 0, counts["0.6%~0.8%"])

	total := 0
	for _, b := range data.Distribution {
		total += b.Count
	}
	assert.Equal(t, data.TotalCoins, total)
	assert.Equal(t, data.TotalCoins, data.UpCount+data.DownCount+1)
}

func TestStepForRange(t *testing.T) {
	tests := []struct {
		r    float64
		want float64
	}{
		{0.5, 0.2},
		{2.0, 0.2},
		{2.1, 0.5},
		{5.0, 0.5},
		{5.5, 1},
		{20.0, 1},
		{20.5, 2},
		{50.0, 2},
		{50.5, 5},
		{300, 5},
	}
	for _, tt := range tests {
		assert.InDelta(t, tt.want, stepForRange(tt.r), 1e-12, "range %v", tt.r)
	}
}

func TestBuildDistributionOrdering(t *testing.T) {
	changes := []CoinChange{
		{Symbol: "AUSDT", ChangePercent: 1.1, MaxChangePercent: 2.0, MinChangePercent: -0.5},
		{Symbol: "BUSDT", ChangePercent: 9.4, MaxChangePercent: 10.1, MinChangePercent: 0.2},
		{Symbol: "CUSDT", ChangePercent: 9.9, MaxChangePercent: 11.0, MinChangePercent: 1.0},
		{Symbol: "DUSDT", ChangePercent: -4.0, MaxChangePercent: 0.5, MinChangePercent: -6.0},
	}

	data := BuildDistribution(distNow, changes)
	require.NotNil(t, data)

	require.Len(t, data.AllCoinsRanking, 4)
	assert.Equal(t, "CUSDT", data.AllCoinsRanking[0].Symbol)
	assert.Equal(t, "BUSDT", data.AllCoinsRanking[1].Symbol)
	assert.Equal(t, "AUSDT", data.AllCoinsRanking[2].Symbol)
	assert.Equal(t, "DUSDT", data.AllCoinsRanking[3].Symbol)

	// Range 13.9 selects a 1 step covering [-4, 10) in axis order.
	require.Len(t, data.Distribution, 14)
	assert.Equal(t, "-4%~-3%", data.Distribution[0].Range)
	assert.Equal(t, "9%~10%", data.Distribution[13].Range)

	for _, b := range data.Distribution {
		for i := 1; i < len(b.CoinDetails); i++ {
			assert.GreaterOrEqual(t, b.CoinDetails[i-1].ChangePercent, b.CoinDetails[i].ChangePercent)
		}
		assert.Len(t, b.Coins, b.Count)
	}
}

func TestBuildDistributionDegenerateWindows(t *testing.T) {
	t.Run("empty input", func(t *testing.T) {
		assert.Nil(t, BuildDistribution(distNow, nil))
	})

	t.Run("all changes equal off-grid", func(t *testing.T) {
		changes := []CoinChange{
			{Symbol: "AUSDT", ChangePercent: 0.1},
			{Symbol: "BUSDT", ChangePercent: 0.1},
		}
		data := BuildDistribution(distNow, changes)
		require.NotNil(t, data)
		nonEmpty := 0
		for _, b := range data.Distribution {
			if b.Count > 0 {
				nonEmpty++
			}
		}
		assert.Equal(t, 1, nonEmpty)
		assert.Equal(t, 2, data.TotalCoins)
	})

	t.Run("all changes zero", func(t *testing.T) {
		changes := []CoinChange{{Symbol: "AUSDT"}, {Symbol: "BUSDT"}}
		data := BuildDistribution(distNow, changes)
		require.NotNil(t, data)
		assert.Empty(t, data.Distribution, "a zero-width axis produces no cells")
		assert.Equal(t, 2, data.TotalCoins)
		assert.Equal(t, 0, data.UpCount)
		assert.Equal(t, 0, data.DownCount)
	})
}

func TestBuildDistributionTimestamp(t *testing.T) {
	data := BuildDistribution(distNow, []CoinChange{{Symbol: "AUSDT", ChangePercent: 1}})
	require.NotNil(t, data)
	assert.Equal(t, distNow.UnixMilli(), data.Timestamp)
}
