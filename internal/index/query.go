package index

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"breadth-api/internal/model"
	"breadth-api/pkg/breadth"
	"breadth-api/pkg/market"
)

// Latest returns the newest index row, or model.ErrNotFound.
func (s *Service) Latest(ctx context.Context) (*model.MarketIndex, error) {
	return s.deps.Index.Latest(ctx)
}

// History returns index rows after now − hours, oldest first.
func (s *Service) History(ctx context.Context, hours int) ([]model.MarketIndex, error) {
	since := time.Now().UTC().Add(-time.Duration(hours) * time.Hour)
	return s.deps.Index.ListAfter(ctx, since.UnixMilli())
}

// WindowStats summarizes one look-back window of index values.
type WindowStats struct {
	Change float64
	High   float64
	Low    float64
}

// Stats is the multi-window overview of the index. Window pointers are nil
// when the window holds one row or fewer.
type Stats struct {
	Current    *float64
	CoinCount  *int64
	LastUpdate *int64

	Day1  *WindowStats
	Day3  *WindowStats
	Day7  *WindowStats
	Day30 *WindowStats
}

// QueryStats assembles the stats overview from the last 24h/3d/7d/30d of
// index rows.
func (s *Service) QueryStats(ctx context.Context) (*Stats, error) {
	out := &Stats{}

	latest, err := s.deps.Index.Latest(ctx)
	if err != nil && err != model.ErrNotFound {
		return nil, fmt.Errorf("index: read latest index: %w", err)
	}
	if latest != nil {
		out.Current = &latest.IndexValue
		out.CoinCount = &latest.CoinCount
		out.LastUpdate = &latest.BucketStartMs
	}

	windows := []struct {
		hours int
		dst   **WindowStats
	}{
		{24, &out.Day1},
		{72, &out.Day3},
		{168, &out.Day7},
		{720, &out.Day30},
	}
	for _, w := range windows {
		rows, err := s.History(ctx, w.hours)
		if err != nil {
			return nil, fmt.Errorf("index: read %dh history: %w", w.hours, err)
		}
		if len(rows) <= 1 {
			continue
		}
		ws := &WindowStats{
			Change: rows[len(rows)-1].IndexValue - rows[0].IndexValue,
			High:   math.Inf(-1),
			Low:    math.Inf(1),
		}
		for _, row := range rows {
			ws.High = math.Max(ws.High, row.IndexValue)
			ws.Low = math.Min(ws.Low, row.IndexValue)
		}
		*w.dst = ws
	}
	return out, nil
}

// DistributionByHours computes the rise distribution over the last hours
// (fractional), anchored at the current aligned UTC instant. A nil result
// means the window holds no usable data.
func (s *Service) DistributionByHours(ctx context.Context, hours float64) (*breadth.Distribution, error) {
	latest, err := s.deps.Candles.SnapshotLatest(ctx)
	if err != nil {
		return nil, fmt.Errorf("index: read latest snapshot: %w", err)
	}
	if len(latest) == 0 {
		return nil, nil
	}
	latestTime := time.UnixMilli(latest[0].BucketStartMs).UTC()

	minutes := time.Duration(hours*60) * time.Minute
	baseTime := market.AlignBucket(time.Now()).Add(-minutes)

	base, err := s.deps.Candles.SnapshotEarliestAfter(ctx, baseTime.UnixMilli())
	if err != nil {
		return nil, fmt.Errorf("index: read base snapshot: %w", err)
	}
	if len(base) == 0 {
		return nil, nil
	}
	return s.assembleDistribution(ctx, base, latest, baseTime, latestTime)
}

// DistributionByRange computes the rise distribution between two UTC
// instants, both floored to their buckets.
func (s *Service) DistributionByRange(ctx context.Context, start, end time.Time) (*breadth.Distribution, error) {
	alignedStart := market.AlignBucket(start)
	alignedEnd := market.AlignBucket(end)

	base, err := s.deps.Candles.SnapshotEarliestAfter(ctx, alignedStart.UnixMilli())
	if err != nil {
		return nil, fmt.Errorf("index: read base snapshot: %w", err)
	}
	if len(base) == 0 {
		return nil, nil
	}
	endRows, err := s.deps.Candles.SnapshotLatestBefore(ctx, alignedEnd.UnixMilli())
	if err != nil {
		return nil, fmt.Errorf("index: read end snapshot: %w", err)
	}
	if len(endRows) == 0 {
		return nil, nil
	}
	actualStart := time.UnixMilli(base[0].BucketStartMs).UTC()
	actualEnd := time.UnixMilli(endRows[0].BucketStartMs).UTC()
	return s.assembleDistribution(ctx, base, endRows, actualStart, actualEnd)
}

// assembleDistribution turns a base snapshot (open prices) and an end
// snapshot (close prices) plus window extremes into the histogram.
func (s *Service) assembleDistribution(ctx context.Context, base, end []model.Candle, extremesStart, extremesEnd time.Time) (*breadth.Distribution, error) {
	startMs, endMs := extremesStart.UnixMilli(), extremesEnd.UnixMilli()
	maxHighs, err := s.deps.Candles.MaxHighBySymbolBetween(ctx, startMs, endMs)
	if err != nil {
		return nil, fmt.Errorf("index: read window highs: %w", err)
	}
	minLows, err := s.deps.Candles.MinLowBySymbolBetween(ctx, startMs, endMs)
	if err != nil {
		return nil, fmt.Errorf("index: read window lows: %w", err)
	}

	basePrices := make(map[string]float64, len(base))
	for _, row := range base {
		if row.OpenPrice > 0 {
			basePrices[row.Symbol] = row.OpenPrice
		}
	}

	var changes []breadth.CoinChange
	for _, row := range end {
		basePrice, ok := basePrices[row.Symbol]
		if !ok || basePrice <= 0 || row.ClosePrice <= 0 {
			continue
		}
		change := breadth.CoinChange{
			Symbol:        row.Symbol,
			ChangePercent: (row.ClosePrice - basePrice) / basePrice * 100,
		}
		if high, ok := maxHighs[row.Symbol]; ok && high > 0 {
			change.MaxChangePercent = (high - basePrice) / basePrice * 100
		}
		if low, ok := minLows[row.Symbol]; ok && low > 0 {
			change.MinChangePercent = (low - basePrice) / basePrice * 100
		}
		changes = append(changes, change)
	}
	if len(changes) == 0 {
		return nil, nil
	}
	return breadth.BuildDistribution(time.Now(), changes), nil
}

// CoinPrices returns one symbol's candles since start, newest first.
func (s *Service) CoinPrices(ctx context.Context, symbol string, start time.Time) ([]model.Candle, error) {
	return s.deps.Candles.ListBySymbolSince(ctx, symbol, start.UnixMilli())
}

// BasePrices returns the stored base-price rows, by symbol.
func (s *Service) BasePrices(ctx context.Context) ([]model.BasePrice, error) {
	return s.deps.BasePrices.List(ctx)
}

// VerifyCoin is one symbol's line in the verification ranking.
type VerifyCoin struct {
	Symbol        string  `json:"symbol"`
	BasePrice     float64 `json:"basePrice"`
	LatestPrice   float64 `json:"latestPrice"`
	ChangePercent float64 `json:"changePercent"`
}

// Verification compares a fresh index computation with the stored row.
type Verification struct {
	BasePriceTime    string
	LatestPriceTime  string
	BasePriceCount   int
	LatestPriceCount int

	TotalCoins      int
	UpCount         int
	DownCount       int
	CalculatedIndex float64

	StoredIndex     *float64
	StoredIndexTime *string
	IndexMatch      *bool

	Coins []VerifyCoin
}

// Verify recomputes the index from the latest candle snapshot against the
// in-memory bases and compares it with the stored head row. A nil result
// with a message means verification could not run.
func (s *Service) Verify(ctx context.Context) (*Verification, string, error) {
	bases := s.registry.Snapshot()
	if len(bases) == 0 {
		return nil, "base prices not initialized", nil
	}

	stored, err := s.deps.BasePrices.List(ctx)
	if err != nil {
		return nil, "", fmt.Errorf("index: list base prices: %w", err)
	}
	basePriceTime := "unknown"
	if len(stored) > 0 {
		basePriceTime = FormatUTC(time.UnixMilli(stored[0].CreatedAtMs))
	}

	latest, err := s.deps.Candles.SnapshotLatest(ctx)
	if err != nil {
		return nil, "", fmt.Errorf("index: read latest snapshot: %w", err)
	}
	if len(latest) == 0 {
		return nil, "no price data stored yet", nil
	}

	v := &Verification{
		BasePriceTime:    basePriceTime,
		LatestPriceTime:  FormatUTC(time.UnixMilli(latest[0].BucketStartMs)),
		BasePriceCount:   len(bases),
		LatestPriceCount: len(latest),
	}

	total := 0.0
	for _, row := range latest {
		basePrice, ok := bases[row.Symbol]
		if !ok || basePrice <= 0 || row.ClosePrice <= 0 {
			continue
		}
		change := (row.ClosePrice - basePrice) / basePrice * 100
		v.Coins = append(v.Coins, VerifyCoin{
			Symbol:        row.Symbol,
			BasePrice:     basePrice,
			LatestPrice:   row.ClosePrice,
			ChangePercent: round4(change),
		})
		total += change
		v.TotalCoins++
		if change > 0 {
			v.UpCount++
		} else if change < 0 {
			v.DownCount++
		}
	}
	sort.Slice(v.Coins, func(i, j int) bool { return v.Coins[i].ChangePercent > v.Coins[j].ChangePercent })

	if v.TotalCoins > 0 {
		v.CalculatedIndex = total / float64(v.TotalCoins)
	}
	calculated := v.CalculatedIndex
	v.CalculatedIndex = round4(v.CalculatedIndex)

	head, err := s.deps.Index.Latest(ctx)
	if err != nil && err != model.ErrNotFound {
		return nil, "", fmt.Errorf("index: read stored index: %w", err)
	}
	if head != nil {
		storedValue := round4(head.IndexValue)
		storedTime := FormatUTC(time.UnixMilli(head.BucketStartMs))
		match := math.Abs(calculated-head.IndexValue) < 1e-4
		v.StoredIndex = &storedValue
		v.StoredIndexTime = &storedTime
		v.IndexMatch = &match
	}
	return v, "", nil
}

func round4(v float64) float64 {
	return math.Round(v*10000) / 10000
}
