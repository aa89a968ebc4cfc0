package market

import (
	"context"
	"time"
)

// BucketInterval is the candle bucket width used throughout the service.
const BucketInterval = 5 * time.Minute

// AlignBucket floors t to the start of its five-minute bucket, in UTC.
func AlignBucket(t time.Time) time.Time {
	return t.UTC().Truncate(BucketInterval)
}

// LatestClosedBucket returns the open time of the newest bucket that has
// already closed at instant t.
func LatestClosedBucket(t time.Time) time.Time {
	return AlignBucket(t).Add(-BucketInterval)
}

// Provider exposes exchange-agnostic perpetual market data.
//
// Implementations carry a one-way rate-limit tripwire: once the exchange
// signals a limit breach, every data call returns empty results without
// network I/O until an operator resets the latch.
type Provider interface {
	// ActiveSymbols returns tradeable symbols after quote-suffix and
	// exclusion filtering.
	ActiveSymbols(ctx context.Context) ([]string, error)
	// LatestClosedKline returns the newest candle whose bucket has closed.
	// ok is false when no closed candle is available.
	LatestClosedKline(ctx context.Context, symbol string) (Kline, bool, error)
	// KlineRange returns up to limit candles with open times in
	// [start, end], oldest first.
	KlineRange(ctx context.Context, symbol, interval string, start, end time.Time, limit int) ([]Kline, error)
	// KlineRangePaged walks KlineRange across [start, end] in batches,
	// pausing the configured inter-request interval between pages.
	KlineRangePaged(ctx context.Context, symbol, interval string, start, end time.Time, batchLimit int) ([]Kline, error)
	// RateLimited reports whether the tripwire has latched, and why.
	RateLimited() (bool, string)
	// ResetRateLimit releases a latched tripwire.
	ResetRateLimit()
}

// Kline is a normalized candlestick for one symbol and one bucket.
type Kline struct {
	Symbol      string
	OpenTime    time.Time // bucket open, UTC
	Open        float64
	High        float64
	Low         float64
	Close       float64
	QuoteVolume float64 // quote-denominated turnover for the bucket
}
