package breadth

import (
	"math"
	"sort"
	"time"
)

// WaveParams tunes the uptrend segmentation.
type WaveParams struct {
	// KeepRatio is the fraction of the peak-over-start gain the close must
	// retain for the wave to stay alive (giveback trigger fires below it).
	KeepRatio float64
	// SidewaysCandles is how many candles without a new high end a wave.
	SidewaysCandles int
	// MinUptrendPct filters out waves whose peak gain is below this percent.
	MinUptrendPct float64
}

// Wave is one completed or ongoing uptrend segment for a symbol.
type Wave struct {
	Symbol         string  `json:"symbol"`
	UptrendPercent float64 `json:"uptrendPercent"`
	Ongoing        bool    `json:"ongoing"`
	StartTime      int64   `json:"startTime"`
	PeakTime       int64   `json:"peakTime"`
	StartPrice     float64 `json:"startPrice"`
	PeakPrice      float64 `json:"peakPrice"`
}

// WaveBucket is one histogram cell of waves.
type WaveBucket struct {
	Range   string `json:"range"`
	Count   int    `json:"count"`
	Ongoing int    `json:"ongoing"`
	Waves   []Wave `json:"waves"`
}

// Uptrend is the assembled uptrend-wave response for a window.
type Uptrend struct {
	Timestamp         int64        `json:"timestamp"`
	TotalCoins        int          `json:"totalCoins"`
	PullbackThreshold float64      `json:"pullbackThreshold"`
	AvgUptrend        float64      `json:"avgUptrend"`
	MaxUptrend        float64      `json:"maxUptrend"`
	OngoingCount      int          `json:"ongoingCount"`
	Distribution      []WaveBucket `json:"distribution"`
	AllCoinsRanking   []Wave       `json:"allCoinsRanking"`
}

// ScanWaves segments one symbol's candles (ascending by time) into
// monotone-up waves. A wave starts at a candle's low, tracks the running
// peak high, and ends when the close gives back too much of the gain without
// a new high, or when SidewaysCandles pass without a new high. A low below
// the wave's lowest low invalidates the wave without emission. After a wave
// ends the next one starts at the lowest low seen strictly after the peak,
// so a post-peak dip becomes the new measuring point.
func ScanWaves(symbol string, candles []Candle, p WaveParams) []Wave {
	if len(candles) < 2 {
		return nil
	}

	var waves []Wave
	var (
		inWave     bool
		startPrice float64
		startTime  time.Time
		peakPrice  float64
		peakTime   time.Time
		lowestLow  float64
		noNewHigh  int
	)

	for i, c := range candles {
		high := c.High
		if high <= 0 {
			high = c.Close
		}
		low := c.Low
		if low <= 0 {
			low = c.Close
		}

		if !inWave {
			startPrice, startTime = low, c.BucketStart
			lowestLow = low
			peakPrice, peakTime = high, c.BucketStart
			noNewHigh = 0
			inWave = true
			continue
		}

		madeNewHigh := false
		if high > peakPrice {
			peakPrice, peakTime = high, c.BucketStart
			noNewHigh = 0
			madeNewHigh = true
		} else {
			noNewHigh++
		}

		// A low under the wave's floor is a genuine breakdown: restart here,
		// nothing is emitted.
		if low < lowestLow {
			startPrice, startTime = low, c.BucketStart
			lowestLow = low
			peakPrice, peakTime = high, c.BucketStart
			noNewHigh = 0
			continue
		}

		gain := peakPrice - startPrice
		positionRatio := 1.0
		if gain > 0 {
			positionRatio = (c.Close - startPrice) / gain
		}

		givebackTrigger := !madeNewHigh && positionRatio < p.KeepRatio && gain > 0
		sidewaysTrigger := noNewHigh >= p.SidewaysCandles
		if !givebackTrigger && !sidewaysTrigger {
			continue
		}

		pct := 0.0
		if startPrice > 0 {
			pct = (peakPrice - startPrice) / startPrice * 100
		}
		if pct >= p.MinUptrendPct && !startTime.Equal(peakTime) {
			waves = append(waves, Wave{
				Symbol:         symbol,
				UptrendPercent: round2(pct),
				Ongoing:        false,
				StartTime:      startTime.UnixMilli(),
				PeakTime:       peakTime.UnixMilli(),
				StartPrice:     startPrice,
				PeakPrice:      peakPrice,
			})
		}

		// Back-scan for the lowest low strictly after the old peak; the new
		// wave measures from that dip rather than from the current candle.
		newLow, newLowTime := low, c.BucketStart
		for j := i - 1; j >= 0; j-- {
			if !candles[j].BucketStart.After(peakTime) {
				break
			}
			jl := candles[j].Low
			if jl <= 0 {
				jl = candles[j].Close
			}
			if jl < newLow {
				newLow, newLowTime = jl, candles[j].BucketStart
			}
		}
		startPrice, startTime = newLow, newLowTime
		lowestLow = newLow
		peakPrice, peakTime = high, c.BucketStart
		noNewHigh = 0
	}

	if inWave && startPrice > 0 && peakPrice > startPrice {
		pct := (peakPrice - startPrice) / startPrice * 100
		if pct >= p.MinUptrendPct && !startTime.Equal(peakTime) {
			waves = append(waves, Wave{
				Symbol:         symbol,
				UptrendPercent: round2(pct),
				Ongoing:        noNewHigh < p.SidewaysCandles,
				StartTime:      startTime.UnixMilli(),
				PeakTime:       peakTime.UnixMilli(),
				StartPrice:     startPrice,
				PeakPrice:      peakPrice,
			})
		}
	}

	return waves
}

// BuildUptrend ranks waves from all symbols and buckets them with the same
// adaptive step as the rise distribution. Returns nil when waves is empty.
func BuildUptrend(now time.Time, waves []Wave, p WaveParams) *Uptrend {
	if len(waves) == 0 {
		return nil
	}

	ranked := make([]Wave, len(waves))
	copy(ranked, waves)
	sort.Slice(ranked, func(a, b int) bool {
		return ranked[a].UptrendPercent > ranked[b].UptrendPercent
	})

	var total float64
	ongoing := 0
	for _, w := range ranked {
		total += w.UptrendPercent
		if w.Ongoing {
			ongoing++
		}
	}
	maxPct := ranked[0].UptrendPercent
	minPct := ranked[len(ranked)-1].UptrendPercent

	axis := newBucketAxis(minPct, maxPct)
	members := make([][]Wave, axis.size())
	for _, w := range ranked {
		if idx, ok := axis.slot(w.UptrendPercent); ok {
			members[idx] = append(members[idx], w)
		}
	}
	buckets := make([]WaveBucket, 0, axis.size())
	for i := 0; i < axis.size(); i++ {
		cellOngoing := 0
		for _, w := range members[i] {
			if w.Ongoing {
				cellOngoing++
			}
		}
		buckets = append(buckets, WaveBucket{
			Range:   axis.label(i),
			Count:   len(members[i]),
			Ongoing: cellOngoing,
			Waves:   members[i],
		})
	}

	return &Uptrend{
		Timestamp:         now.UnixMilli(),
		TotalCoins:        len(ranked),
		PullbackThreshold: p.KeepRatio,
		AvgUptrend:        round2(total / float64(len(ranked))),
		MaxUptrend:        round2(maxPct),
		OngoingCount:      ongoing,
		Distribution:      buckets,
		AllCoinsRanking:   ranked,
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
