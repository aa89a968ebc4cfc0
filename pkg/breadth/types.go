package breadth

import "time"

// Candle is one five-minute OHLCV bar for a single contract. BucketStart is
// UTC and aligned to a five-minute boundary. High and Low may be zero when the
// source row predates OHLC capture; consumers fall back to Close.
type Candle struct {
	Symbol      string
	BucketStart time.Time
	Open        float64
	High        float64
	Low         float64
	Close       float64
	QuoteVolume float64
}

// IndexPoint is one aggregated breadth reading for a bucket.
type IndexPoint struct {
	BucketStart time.Time
	Value       float64
	TotalVolume float64
	CoinCount   int
	UpCount     int
	DownCount   int
	ADR         float64
}
