package index

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"breadth-api/internal/model"
	"breadth-api/pkg/market"
)

// fakeProvider serves canned symbols and latest klines. Unimplemented
// Provider methods panic via the embedded nil interface.
type fakeProvider struct {
	market.Provider
	symbols []string
	latest  map[string]market.Kline
	history map[string][]market.Kline
}

func (f *fakeProvider) ActiveSymbols(ctx context.Context) ([]string, error) {
	return f.symbols, nil
}

func (f *fakeProvider) LatestClosedKline(ctx context.Context, symbol string) (market.Kline, bool, error) {
	k, ok := f.latest[symbol]
	return k, ok, nil
}

func (f *fakeProvider) RateLimited() (bool, string) { return false, "" }

type fakeCandles struct {
	model.CandlesModel
	mu               sync.Mutex
	rows             map[string]model.Candle
	listBetweenCalls int64
}

func newFakeCandles() *fakeCandles {
	return &fakeCandles{rows: make(map[string]model.Candle)}
}

func (f *fakeCandles) BulkInsert(ctx context.Context, rows []model.Candle) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var inserted int64
	for _, row := range rows {
		key := fmt.Sprintf("%s|%d", row.Symbol, row.BucketStartMs)
		if _, ok := f.rows[key]; ok {
			continue
		}
		f.rows[key] = row
		inserted++
	}
	return inserted, nil
}

func (f *fakeCandles) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.rows)
}

type fakeIndexModel struct {
	model.MarketIndexModel
	mu   sync.Mutex
	rows map[int64]model.MarketIndex
}

func newFakeIndexModel() *fakeIndexModel {
	return &fakeIndexModel{rows: make(map[int64]model.MarketIndex)}
}

func (f *fakeIndexModel) ExistsAtBucket(ctx context.Context, bucketMs int64) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.rows[bucketMs]
	return ok, nil
}

func (f *fakeIndexModel) Insert(ctx context.Context, row *model.MarketIndex) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.rows[row.BucketStartMs]; ok {
		return nil
	}
	f.rows[row.BucketStartMs] = *row
	return nil
}

type fakeBasePrices struct {
	model.BasePricesModel
	mu   sync.Mutex
	rows map[string]model.BasePrice
}

func newFakeBasePrices() *fakeBasePrices {
	return &fakeBasePrices{rows: make(map[string]model.BasePrice)}
}

func (f *fakeBasePrices) List(ctx context.Context) ([]model.BasePrice, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]model.BasePrice, 0, len(f.rows))
	for _, row := range f.rows {
		out = append(out, row)
	}
	return out, nil
}

func (f *fakeBasePrices) Insert(ctx context.Context, row *model.BasePrice) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.rows[row.Symbol]; ok {
		return nil
	}
	f.rows[row.Symbol] = *row
	return nil
}

func (f *fakeBasePrices) Delete(ctx context.Context, symbol string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.rows[symbol]; !ok {
		return 0, nil
	}
	delete(f.rows, symbol)
	return 1, nil
}

type collectorFixture struct {
	svc        *Service
	candles    *fakeCandles
	indexModel *fakeIndexModel
	bases      *fakeBasePrices
	provider   *fakeProvider
}

func newCollectorFixture(t *testing.T) *collectorFixture {
	t.Helper()
	f := &collectorFixture{
		candles:    newFakeCandles(),
		indexModel: newFakeIndexModel(),
		bases:      newFakeBasePrices(),
		provider:   &fakeProvider{latest: make(map[string]market.Kline)},
	}
	svc, err := NewService(Dependencies{
		Candles:    f.candles,
		Index:      f.indexModel,
		BasePrices: f.bases,
		Provider:   f.provider,
	}, Config{CollectConcurrency: 2})
	require.NoError(t, err)
	f.svc = svc
	return f
}

var day = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func kline(symbol string, bucket time.Time, open, high, low, close, qv float64) market.Kline {
	return market.Kline{
		Symbol: symbol, OpenTime: bucket,
		Open: open, High: high, Low: low, Close: close, QuoteVolume: qv,
	}
}

func TestCollectAdoptsNewSymbolWithoutContribution(t *testing.T) {
	f := newCollectorFixture(t)
	f.provider.symbols = []string{"AAAUSDT"}
	f.provider.latest["AAAUSDT"] = kline("AAAUSDT", day, 100, 105, 99, 102, 1000)

	// Tick fires at 12:05:10, so 12:00 is the latest closed bucket.
	err := f.svc.collectAt(context.Background(), day.Add(5*time.Minute+10*time.Second))
	require.NoError(t, err)

	price, ok := f.svc.Registry().Base("AAAUSDT")
	require.True(t, ok)
	require.Equal(t, 102.0, price)
	require.Contains(t, f.bases.rows, "AAAUSDT")
	require.Equal(t, 102.0, f.bases.rows["AAAUSDT"].Price)

	require.Empty(t, f.indexModel.rows, "an adopted symbol must not contribute to its adoption bucket")
	require.Equal(t, 1, f.candles.count(), "the candle itself is still persisted")
}

func TestCollectFirstContributingTick(t *testing.T) {
	f := newCollectorFixture(t)
	f.provider.symbols = []string{"AAAUSDT"}

	f.bases.rows["AAAUSDT"] = model.BasePrice{Symbol: "AAAUSDT", Price: 102, CreatedAtMs: day.UnixMilli()}
	require.NoError(t, f.svc.Registry().Load(context.Background()))

	bucket := day.Add(5 * time.Minute)
	f.provider.latest["AAAUSDT"] = kline("AAAUSDT", bucket, 102, 107.5, 101, 107.1, 2000)

	err := f.svc.collectAt(context.Background(), day.Add(10*time.Minute+10*time.Second))
	require.NoError(t, err)

	row, ok := f.indexModel.rows[bucket.UnixMilli()]
	require.True(t, ok)
	require.InDelta(t, 5.0, row.IndexValue, 1e-9)
	require.Equal(t, int64(1), row.UpCount)
	require.Equal(t, int64(0), row.DownCount)
	require.Equal(t, 1.0, row.Adr)
	require.Equal(t, 2000.0, row.TotalVolume)
	require.Equal(t, int64(1), row.CoinCount)
}

func TestCollectIdempotentRerun(t *testing.T) {
	f := newCollectorFixture(t)
	f.provider.symbols = []string{"AAAUSDT"}

	f.bases.rows["AAAUSDT"] = model.BasePrice{Symbol: "AAAUSDT", Price: 102, CreatedAtMs: day.UnixMilli()}
	require.NoError(t, f.svc.Registry().Load(context.Background()))

	bucket := day.Add(5 * time.Minute)
	f.provider.latest["AAAUSDT"] = kline("AAAUSDT", bucket, 102, 107.5, 101, 107.1, 2000)

	now := day.Add(10*time.Minute + 10*time.Second)
	require.NoError(t, f.svc.collectAt(context.Background(), now))
	require.NoError(t, f.svc.collectAt(context.Background(), now))

	require.Len(t, f.indexModel.rows, 1)
	require.Equal(t, 1, f.candles.count())
}

func TestCollectSkipsDuringBackfill(t *testing.T) {
	f := newCollectorFixture(t)
	f.provider.symbols = []string{"AAAUSDT"}
	f.provider.latest["AAAUSDT"] = kline("AAAUSDT", day, 100, 105, 99, 102, 1000)
	f.svc.backfillInProgress.Store(true)

	require.NoError(t, f.svc.collectAt(context.Background(), day.Add(5*time.Minute+10*time.Second)))
	require.Empty(t, f.indexModel.rows)
	require.Equal(t, 0, f.candles.count())
}

func TestCollectNeverWritesUnclosedBucket(t *testing.T) {
	f := newCollectorFixture(t)
	f.provider.symbols = []string{"AAAUSDT"}

	f.bases.rows["AAAUSDT"] = model.BasePrice{Symbol: "AAAUSDT", Price: 102, CreatedAtMs: day.UnixMilli()}
	require.NoError(t, f.svc.Registry().Load(context.Background()))

	// The exchange hands back a candle of the still-open bucket.
	open := day.Add(5 * time.Minute)
	f.provider.latest["AAAUSDT"] = kline("AAAUSDT", open, 102, 107.5, 101, 107.1, 2000)

	require.NoError(t, f.svc.collectAt(context.Background(), day.Add(5*time.Minute+10*time.Second)))
	require.Empty(t, f.indexModel.rows)
	require.Equal(t, 0, f.candles.count())
}

func TestCollectRevokesDelistedBase(t *testing.T) {
	f := newCollectorFixture(t)
	f.provider.symbols = []string{"AAAUSDT"}

	f.bases.rows["AAAUSDT"] = model.BasePrice{Symbol: "AAAUSDT", Price: 102, CreatedAtMs: day.UnixMilli()}
	f.bases.rows["GONEUSDT"] = model.BasePrice{Symbol: "GONEUSDT", Price: 3, CreatedAtMs: day.UnixMilli()}
	require.NoError(t, f.svc.Registry().Load(context.Background()))

	bucket := day.Add(5 * time.Minute)
	f.provider.latest["AAAUSDT"] = kline("AAAUSDT", bucket, 102, 107.5, 101, 107.1, 2000)

	require.NoError(t, f.svc.collectAt(context.Background(), day.Add(10*time.Minute+10*time.Second)))

	_, ok := f.svc.Registry().Base("GONEUSDT")
	require.False(t, ok, "delisted symbol keeps no base")
	require.NotContains(t, f.bases.rows, "GONEUSDT")
}
