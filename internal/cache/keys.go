package cache

import (
	"fmt"
	"strings"
	"time"

	"github.com/zeromicro/go-zero/core/collection"
)

// Namespace prefixes every cache key of the breadth service.
const Namespace = "breadth"

const (
	// UptrendTTL bounds how long a computed uptrend distribution stays valid
	// without a new index tick.
	UptrendTTL = 5 * time.Minute
	// UptrendLimit caps the number of cached parameter combinations.
	UptrendLimit = 10
)

// NewUptrendCache builds the in-process LRU used for uptrend distribution
// results.
func NewUptrendCache() (*collection.Cache, error) {
	return collection.NewCache(UptrendTTL,
		collection.WithLimit(UptrendLimit),
		collection.WithName("uptrend"))
}

func formatKey(parts ...string) string {
	values := make([]string, 0, len(parts)+1)
	values = append(values, Namespace)
	for _, part := range parts {
		clean := strings.TrimSpace(part)
		if clean == "" {
			continue
		}
		values = append(values, clean)
	}
	return strings.Join(values, ":")
}

// UptrendKey identifies one uptrend distribution computation. The generation
// counter is bumped whenever new candles land, so stale entries are simply
// never looked up again and age out of the LRU.
func UptrendKey(generation uint64, startMs, endMs int64, keepRatio, minUptrendPct float64, sidewaysCandles int) string {
	return formatKey("uptrend",
		fmt.Sprintf("g%d", generation),
		fmt.Sprintf("%d-%d", startMs, endMs),
		fmt.Sprintf("k%.4f", keepRatio),
		fmt.Sprintf("n%d", sidewaysCandles),
		fmt.Sprintf("m%.4f", minUptrendPct),
	)
}
