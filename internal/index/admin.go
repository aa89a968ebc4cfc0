package index

import (
	"context"
	"fmt"
	"time"

	"github.com/zeromicro/go-zero/core/logx"
)

// RangeDeletion reports an admin range delete.
type RangeDeletion struct {
	DeletedIndexCount      int64
	DeletedPriceTimePoints int64
}

// DeleteRange removes index rows and candles in [start, end]. Both tables
// move in lockstep; base prices are untouched.
func (s *Service) DeleteRange(ctx context.Context, start, end time.Time) (*RangeDeletion, error) {
	startMs, endMs := start.UnixMilli(), end.UnixMilli()

	// Count the distinct candle buckets before they go.
	buckets, err := s.deps.Candles.DistinctBucketCountBetween(ctx, startMs, endMs)
	if err != nil {
		return nil, fmt.Errorf("index: count candle buckets: %w", err)
	}
	deletedIndex, err := s.deps.Index.DeleteBetween(ctx, startMs, endMs)
	if err != nil {
		return nil, fmt.Errorf("index: delete index rows: %w", err)
	}
	if _, err := s.deps.Candles.DeleteBetween(ctx, startMs, endMs); err != nil {
		return nil, fmt.Errorf("index: delete candles: %w", err)
	}
	s.InvalidateUptrendCache()

	logx.WithContext(ctx).Infof("deleted range %s -> %s: %d index rows, %d candle buckets",
		FormatUTC(start), FormatUTC(end), deletedIndex, buckets)
	return &RangeDeletion{DeletedIndexCount: deletedIndex, DeletedPriceTimePoints: buckets}, nil
}

// SymbolDeletion reports an admin per-symbol purge.
type SymbolDeletion struct {
	Symbol            string
	DeletedPriceCount int64
	DeletedBasePrice  bool
}

// DeleteSymbol purges one symbol's candles and base price. Index rows stay;
// history already aggregated is not rewritten.
func (s *Service) DeleteSymbol(ctx context.Context, symbol string) (*SymbolDeletion, error) {
	_, hadBase := s.registry.Base(symbol)

	deleted, err := s.deps.Candles.DeleteBySymbol(ctx, symbol)
	if err != nil {
		return nil, fmt.Errorf("index: delete candles of %s: %w", symbol, err)
	}
	if _, err := s.registry.Revoke(ctx, symbol); err != nil {
		return nil, fmt.Errorf("index: revoke base of %s: %w", symbol, err)
	}
	s.InvalidateUptrendCache()

	logx.WithContext(ctx).Infof("purged symbol %s: %d candles, base price removed: %v", symbol, deleted, hadBase)
	return &SymbolDeletion{Symbol: symbol, DeletedPriceCount: deleted, DeletedBasePrice: hadBase}, nil
}
