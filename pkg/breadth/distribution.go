package breadth

import (
	"fmt"
	"math"
	"sort"
	"time"
)

// CoinChange carries one symbol's percent changes over a query window: the
// close-vs-base change plus the extremes reached by the window's highs and
// lows against the same base.
type CoinChange struct {
	Symbol           string  `json:"symbol"`
	ChangePercent    float64 `json:"changePercent"`
	MaxChangePercent float64 `json:"maxChangePercent"`
	MinChangePercent float64 `json:"minChangePercent"`
}

// DistributionBucket is one histogram cell with its member symbols.
type DistributionBucket struct {
	Range       string       `json:"range"`
	Count       int          `json:"count"`
	Coins       []string     `json:"coins"`
	CoinDetails []CoinChange `json:"coinDetails"`
}

// Distribution is the rise-distribution histogram over a window.
type Distribution struct {
	Timestamp       int64                `json:"timestamp"`
	TotalCoins      int                  `json:"totalCoins"`
	UpCount         int                  `json:"upCount"`
	DownCount       int                  `json:"downCount"`
	Distribution    []DistributionBucket `json:"distribution"`
	AllCoinsRanking []CoinChange         `json:"allCoinsRanking"`
}

// BuildDistribution buckets per-symbol changes with an adaptive step and
// assembles bucket details and the overall ranking, both sorted by
// ChangePercent descending. Returns nil when changes is empty.
func BuildDistribution(now time.Time, changes []CoinChange) *Distribution {
	if len(changes) == 0 {
		return nil
	}

	minChange := changes[0].ChangePercent
	maxChange := changes[0].ChangePercent
	up, down := 0, 0
	for _, cc := range changes {
		if cc.ChangePercent < minChange {
			minChange = cc.ChangePercent
		}
		if cc.ChangePercent > maxChange {
			maxChange = cc.ChangePercent
		}
		switch {
		case cc.ChangePercent > 0:
			up++
		case cc.ChangePercent < 0:
			down++
		}
	}

	axis := newBucketAxis(minChange, maxChange)
	members := make([][]CoinChange, axis.size())
	for _, cc := range changes {
		if idx, ok := axis.slot(cc.ChangePercent); ok {
			members[idx] = append(members[idx], cc)
		}
	}

	buckets := make([]DistributionBucket, 0, axis.size())
	for i := 0; i < axis.size(); i++ {
		details := members[i]
		sort.Slice(details, func(a, b int) bool {
			return details[a].ChangePercent > details[b].ChangePercent
		})
		coins := make([]string, len(details))
		for j, d := range details {
			coins[j] = d.Symbol
		}
		buckets = append(buckets, DistributionBucket{
			Range:       axis.label(i),
			Count:       len(details),
			Coins:       coins,
			CoinDetails: details,
		})
	}

	ranking := make([]CoinChange, len(changes))
	copy(ranking, changes)
	sort.Slice(ranking, func(a, b int) bool {
		return ranking[a].ChangePercent > ranking[b].ChangePercent
	})

	return &Distribution{
		Timestamp:       now.UnixMilli(),
		TotalCoins:      len(changes),
		UpCount:         up,
		DownCount:       down,
		Distribution:    buckets,
		AllCoinsRanking: ranking,
	}
}

// stepForRange picks the histogram step in percent for a value spread r.
func stepForRange(r float64) float64 {
	switch {
	case r <= 2:
		return 0.2
	case r <= 5:
		return 0.5
	case r <= 20:
		return 1
	case r <= 50:
		return 2
	default:
		return 5
	}
}

// bucketAxis maps percent values onto half-open cells of width step covering
// [floor(min/step)*step, ceil(max/step)*step).
type bucketAxis struct {
	step float64
	lo   int
	hi   int
}

func newBucketAxis(min, max float64) bucketAxis {
	step := stepForRange(max - min)
	return bucketAxis{
		step: step,
		lo:   int(math.Floor(min / step)),
		hi:   int(math.Ceil(max / step)),
	}
}

func (a bucketAxis) size() int {
	if a.hi <= a.lo {
		return 0
	}
	return a.hi - a.lo
}

// slot returns the cell offset for v, false when v falls outside the axis.
func (a bucketAxis) slot(v float64) (int, bool) {
	idx := int(math.Floor(v / a.step))
	if idx < a.lo || idx >= a.hi {
		return 0, false
	}
	return idx - a.lo, true
}

func (a bucketAxis) label(offset int) string {
	lo := float64(a.lo+offset) * a.step
	hi := float64(a.lo+offset+1) * a.step
	if a.step < 1 {
		return fmt.Sprintf("%.1f%%~%.1f%%", lo, hi)
	}
	return fmt.Sprintf("%.0f%%~%.0f%%", lo, hi)
}
