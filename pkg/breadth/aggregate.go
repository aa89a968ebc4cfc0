package breadth

import "time"

// Aggregate folds a batch of candles sharing one bucket into a single index
// point. A candle contributes only when its symbol has a positive base price
// and a positive close; pct is (close-base)/base*100 and the index value is
// the simple mean over contributing symbols. The second return is false when
// nothing contributed, in which case no row should be written.
//
// Aggregate performs no I/O; adoption of missing bases is the caller's job
// and must happen against a snapshot taken before this call so that a symbol
// adopted in this bucket does not contribute to it.
func Aggregate(bucketStart time.Time, candles []Candle, bases map[string]float64) (IndexPoint, bool) {
	var (
		sum         float64
		totalVolume float64
		count       int
		up, down    int
	)
	for _, c := range candles {
		base, ok := bases[c.Symbol]
		if !ok || base <= 0 || c.Close <= 0 {
			continue
		}
		pct := (c.Close - base) / base * 100
		sum += pct
		totalVolume += c.QuoteVolume
		count++
		switch {
		case pct > 0:
			up++
		case pct < 0:
			down++
		}
	}
	if count == 0 {
		return IndexPoint{}, false
	}

	adr := float64(up)
	if down > 0 {
		adr = float64(up) / float64(down)
	}
	return IndexPoint{
		BucketStart: bucketStart,
		Value:       sum / float64(count),
		TotalVolume: totalVolume,
		CoinCount:   count,
		UpCount:     up,
		DownCount:   down,
		ADR:         adr,
	}, true
}
