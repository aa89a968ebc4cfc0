package index

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/zeromicro/go-zero/core/logx"

	"breadth-api/pkg/market"
)

// RepairDetail reports what was filled for one symbol.
type RepairDetail struct {
	Symbol         string   `json:"symbol"`
	RepairedCount  int      `json:"repairedCount"`
	RepairedRanges []string `json:"repairedRanges"`
}

// RepairSummary is the result of one gap-repair run.
type RepairSummary struct {
	CheckedSymbols       int            `json:"checkedSymbols"`
	RepairedSymbolCount  int            `json:"repairedSymbolCount"`
	TotalRepairedRecords int            `json:"totalRepairedRecords"`
	TimeRange            string         `json:"timeRange"`
	Details              []RepairDetail `json:"repairedDetails"`
}

// Repair scans every active symbol's candle series in [start, end] against
// the expected five-minute grid and refetches the missing runs. A zero start
// defaults to days back from now; a zero end defaults to the latest closed
// bucket.
func (s *Service) Repair(ctx context.Context, start, end time.Time, days int) (*RepairSummary, error) {
	now := time.Now().UTC()
	if start.IsZero() {
		start = now.AddDate(0, 0, -days)
	}
	if end.IsZero() {
		end = market.LatestClosedBucket(now)
	}
	logx.WithContext(ctx).Infof("repair scan %s -> %s", FormatUTC(start), FormatUTC(end))

	symbols, err := s.deps.Provider.ActiveSymbols(ctx)
	if err != nil {
		return nil, fmt.Errorf("index: list active symbols: %w", err)
	}
	if len(symbols) == 0 {
		return nil, errors.New("index: empty active symbol list")
	}

	summary := &RepairSummary{
		CheckedSymbols: len(symbols),
		TimeRange:      FormatUTC(start) + " ~ " + FormatUTC(end),
	}
	for _, symbol := range symbols {
		detail, err := s.repairSymbol(ctx, symbol, start, end)
		if err != nil {
			logx.WithContext(ctx).Errorf("repair %s: %v", symbol, err)
			continue
		}
		if detail == nil {
			continue
		}
		summary.Details = append(summary.Details, *detail)
		summary.RepairedSymbolCount++
		summary.TotalRepairedRecords += detail.RepairedCount
	}

	logx.WithContext(ctx).Infof("repair done: %d symbols repaired, %d records",
		summary.RepairedSymbolCount, summary.TotalRepairedRecords)
	return summary, nil
}

func (s *Service) repairSymbol(ctx context.Context, symbol string, start, end time.Time) (*RepairDetail, error) {
	present, err := s.deps.Candles.BucketsBySymbolBetween(ctx, symbol, start.UnixMilli(), end.UnixMilli())
	if err != nil {
		return nil, err
	}
	presentSet := make(map[int64]struct{}, len(present))
	for _, ms := range present {
		presentSet[ms] = struct{}{}
	}

	var missing []int64
	for t := market.AlignBucket(start); !t.After(end); t = t.Add(market.BucketInterval) {
		if _, ok := presentSet[t.UnixMilli()]; !ok {
			missing = append(missing, t.UnixMilli())
		}
	}
	if len(missing) == 0 {
		return nil, nil
	}

	detail := &RepairDetail{Symbol: symbol}
	for _, run := range groupRuns(missing) {
		runStart := time.UnixMilli(run.startMs).UTC()
		runEnd := time.UnixMilli(run.endMs).UTC()
		// A single-bucket run still needs a non-empty fetch window.
		fetchEnd := runEnd
		if !fetchEnd.After(runStart) {
			fetchEnd = runStart.Add(market.BucketInterval)
		}

		klines, err := s.deps.Provider.KlineRangePaged(ctx, symbol, "5m", runStart, fetchEnd, backfillBatchLimit)
		if err != nil {
			logx.WithContext(ctx).Errorf("repair fetch %s %s -> %s: %v", symbol, FormatUTC(runStart), FormatUTC(fetchEnd), err)
			continue
		}
		rows := filterBackfillRows(klines, nil, end)
		if len(rows) == 0 {
			continue
		}
		if _, err := s.deps.Candles.BulkInsert(ctx, rows); err != nil {
			logx.WithContext(ctx).Errorf("repair insert %s: %v", symbol, err)
			continue
		}
		detail.RepairedCount += len(rows)
		detail.RepairedRanges = append(detail.RepairedRanges, FormatUTC(runStart)+" ~ "+FormatUTC(runEnd))
	}
	if detail.RepairedCount == 0 {
		return nil, nil
	}
	logx.WithContext(ctx).Infof("repaired %s: %d records over %v", symbol, detail.RepairedCount, detail.RepairedRanges)
	return detail, nil
}

type bucketRun struct {
	startMs int64
	endMs   int64
}

// groupRuns folds sorted missing buckets into contiguous ranges; a gap wider
// than one bucket starts a new run.
func groupRuns(missing []int64) []bucketRun {
	if len(missing) == 0 {
		return nil
	}
	intervalMs := market.BucketInterval.Milliseconds()

	var runs []bucketRun
	cur := bucketRun{startMs: missing[0], endMs: missing[0]}
	for _, ms := range missing[1:] {
		if ms-cur.endMs > intervalMs {
			runs = append(runs, cur)
			cur = bucketRun{startMs: ms, endMs: ms}
			continue
		}
		cur.endMs = ms
	}
	return append(runs, cur)
}
