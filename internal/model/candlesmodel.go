package model

import (
	"context"
	"fmt"
	"strings"

	"github.com/zeromicro/go-zero/core/stores/sqlx"
)

// insertChunkSize bounds the number of rows per multi-row INSERT statement.
const insertChunkSize = 2000

var _ CandlesModel = (*defaultCandlesModel)(nil)

// Candle is one sealed five-minute bucket for a symbol. BucketStartMs is the
// bucket's open instant in UTC epoch milliseconds; (Symbol, BucketStartMs) is
// the table key, so re-inserting an existing pair is a silent no-op.
type Candle struct {
	Symbol        string  `db:"symbol"`
	BucketStartMs int64   `db:"bucket_start_ms"`
	OpenPrice     float64 `db:"open_price"`
	HighPrice     float64 `db:"high_price"`
	LowPrice      float64 `db:"low_price"`
	ClosePrice    float64 `db:"close_price"`
	QuoteVolume   float64 `db:"quote_volume"`
}

type (
	// CandlesModel wraps all storage access for candle rows.
	CandlesModel interface {
		BulkInsert(ctx context.Context, rows []Candle) (int64, error)
		ExistsAtBucket(ctx context.Context, bucketMs int64) (bool, error)
		LatestBucket(ctx context.Context) (int64, bool, error)
		DistinctBucketsBetween(ctx context.Context, startMs, endMs int64) ([]int64, error)
		DistinctBucketCountBetween(ctx context.Context, startMs, endMs int64) (int64, error)
		ListByBucket(ctx context.Context, bucketMs int64) ([]Candle, error)
		ListBySymbolSince(ctx context.Context, symbol string, startMs int64) ([]Candle, error)
		ListBySymbolBetween(ctx context.Context, symbol string, startMs, endMs int64) ([]Candle, error)
		ListBetweenOrderBySymbolTime(ctx context.Context, startMs, endMs int64) ([]Candle, error)
		BucketsBySymbolBetween(ctx context.Context, symbol string, startMs, endMs int64) ([]int64, error)
		MaxHighBySymbolBetween(ctx context.Context, startMs, endMs int64) (map[string]float64, error)
		MinLowBySymbolBetween(ctx context.Context, startMs, endMs int64) (map[string]float64, error)
		SnapshotLatest(ctx context.Context) ([]Candle, error)
		SnapshotEarliestAfter(ctx context.Context, bucketMs int64) ([]Candle, error)
		SnapshotLatestBefore(ctx context.Context, bucketMs int64) ([]Candle, error)
		DeleteBetween(ctx context.Context, startMs, endMs int64) (int64, error)
		DeleteBySymbol(ctx context.Context, symbol string) (int64, error)
	}

	defaultCandlesModel struct {
		conn  sqlx.SqlConn
		table string
	}
)

// NewCandlesModel returns a model for the candles table.
func NewCandlesModel(conn sqlx.SqlConn) CandlesModel {
	return &defaultCandlesModel{conn: conn, table: "public.candles"}
}

// BulkInsert appends candle rows, chunked so no single statement exceeds
// insertChunkSize rows. Rows whose (symbol, bucket_start_ms) already exists
// are skipped. Returns the number of rows actually inserted.
func (m *defaultCandlesModel) BulkInsert(ctx context.Context, rows []Candle) (int64, error) {
	if len(rows) == 0 {
		return 0, nil
	}

	var inserted int64
	for start := 0; start < len(rows); start += insertChunkSize {
		end := start + insertChunkSize
		if end > len(rows) {
			end = len(rows)
		}
		n, err := m.insertChunk(ctx, rows[start:end])
		if err != nil {
			return inserted, err
		}
		inserted += n
	}
	return inserted, nil
}

func (m *defaultCandlesModel) insertChunk(ctx context.Context, rows []Candle) (int64, error) {
	var sb strings.Builder
	sb.WriteString(`INSERT INTO ` + m.table + ` (symbol, bucket_start_ms, open_price, high_price, low_price, close_price, quote_volume) VALUES `)

	args := make([]any, 0, len(rows)*7)
	for i := range rows {
		if i > 0 {
			sb.WriteByte(',')
		}
		base := i * 7
		fmt.Fprintf(&sb, "($%d,$%d,$%d,$%d,$%d,$%d,$%d)",
			base+1, base+2, base+3, base+4, base+5, base+6, base+7)
		args = append(args,
			rows[i].Symbol, rows[i].BucketStartMs, rows[i].OpenPrice,
			rows[i].HighPrice, rows[i].LowPrice, rows[i].ClosePrice, rows[i].QuoteVolume)
	}
	sb.WriteString(" ON CONFLICT (symbol, bucket_start_ms) DO NOTHING")

	res, err := m.conn.ExecCtx(ctx, sb.String(), args...)
	if err != nil {
		return 0, fmt.Errorf("candles.BulkInsert exec: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("candles.BulkInsert rows affected: %w", err)
	}
	return n, nil
}

// ExistsAtBucket reports whether any candle was stored for the given bucket.
func (m *defaultCandlesModel) ExistsAtBucket(ctx context.Context, bucketMs int64) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM ` + m.table + ` WHERE bucket_start_ms = $1)`

	var exists bool
	if err := m.conn.QueryRowCtx(ctx, &exists, query, bucketMs); err != nil {
		return false, fmt.Errorf("candles.ExistsAtBucket query: %w", err)
	}
	return exists, nil
}

// LatestBucket returns the newest stored bucket. The bool is false when the
// table is empty.
func (m *defaultCandlesModel) LatestBucket(ctx context.Context) (int64, bool, error) {
	query := `SELECT COALESCE(MAX(bucket_start_ms), -1) FROM ` + m.table

	var latest int64
	if err := m.conn.QueryRowCtx(ctx, &latest, query); err != nil {
		return 0, false, fmt.Errorf("candles.LatestBucket query: %w", err)
	}
	if latest < 0 {
		return 0, false, nil
	}
	return latest, true, nil
}

// DistinctBucketsBetween returns every distinct bucket in [startMs, endMs] in
// ascending order.
func (m *defaultCandlesModel) DistinctBucketsBetween(ctx context.Context, startMs, endMs int64) ([]int64, error) {
	query := `
SELECT DISTINCT bucket_start_ms
FROM ` + m.table + `
WHERE bucket_start_ms >= $1 AND bucket_start_ms <= $2
ORDER BY bucket_start_ms ASC`

	var buckets []int64
	if err := m.conn.QueryRowsCtx(ctx, &buckets, query, startMs, endMs); err != nil {
		return nil, fmt.Errorf("candles.DistinctBucketsBetween query: %w", err)
	}
	return buckets, nil
}

// DistinctBucketCountBetween counts the distinct buckets in [startMs, endMs].
func (m *defaultCandlesModel) DistinctBucketCountBetween(ctx context.Context, startMs, endMs int64) (int64, error) {
	query := `
SELECT COUNT(DISTINCT bucket_start_ms)
FROM ` + m.table + `
WHERE bucket_start_ms >= $1 AND bucket_start_ms <= $2`

	var count int64
	if err := m.conn.QueryRowCtx(ctx, &count, query, startMs, endMs); err != nil {
		return 0, fmt.Errorf("candles.DistinctBucketCountBetween query: %w", err)
	}
	return count, nil
}

// ListByBucket returns all symbols' candles stored at exactly the given bucket.
func (m *defaultCandlesModel) ListByBucket(ctx context.Context, bucketMs int64) ([]Candle, error) {
	query := `
SELECT symbol, bucket_start_ms, open_price, high_price, low_price, close_price, quote_volume
FROM ` + m.table + `
WHERE bucket_start_ms = $1`

	var rows []Candle
	if err := m.conn.QueryRowsCtx(ctx, &rows, query, bucketMs); err != nil {
		return nil, fmt.Errorf("candles.ListByBucket query: %w", err)
	}
	return rows, nil
}

// ListBySymbolSince returns one symbol's candles at or after startMs, newest
// first.
func (m *defaultCandlesModel) ListBySymbolSince(ctx context.Context, symbol string, startMs int64) ([]Candle, error) {
	query := `
SELECT symbol, bucket_start_ms, open_price, high_price, low_price, close_price, quote_volume
FROM ` + m.table + `
WHERE symbol = $1 AND bucket_start_ms >= $2
ORDER BY bucket_start_ms DESC`

	var rows []Candle
	if err := m.conn.QueryRowsCtx(ctx, &rows, query, symbol, startMs); err != nil {
		return nil, fmt.Errorf("candles.ListBySymbolSince query: %w", err)
	}
	return rows, nil
}

// ListBySymbolBetween returns one symbol's candles in [startMs, endMs] in time
// order.
func (m *defaultCandlesModel) ListBySymbolBetween(ctx context.Context, symbol string, startMs, endMs int64) ([]Candle, error) {
	query := `
SELECT symbol, bucket_start_ms, open_price, high_price, low_price, close_price, quote_volume
FROM ` + m.table + `
WHERE symbol = $1 AND bucket_start_ms >= $2 AND bucket_start_ms <= $3
ORDER BY bucket_start_ms ASC`

	var rows []Candle
	if err := m.conn.QueryRowsCtx(ctx, &rows, query, symbol, startMs, endMs); err != nil {
		return nil, fmt.Errorf("candles.ListBySymbolBetween query: %w", err)
	}
	return rows, nil
}

// ListBetweenOrderBySymbolTime returns every candle in [startMs, endMs]
// ordered by (symbol, bucket_start_ms) so callers can split per-symbol series
// in one pass.
func (m *defaultCandlesModel) ListBetweenOrderBySymbolTime(ctx context.Context, startMs, endMs int64) ([]Candle, error) {
	query := `
SELECT symbol, bucket_start_ms, open_price, high_price, low_price, close_price, quote_volume
FROM ` + m.table + `
WHERE bucket_start_ms >= $1 AND bucket_start_ms <= $2
ORDER BY symbol ASC, bucket_start_ms ASC`

	var rows []Candle
	if err := m.conn.QueryRowsCtx(ctx, &rows, query, startMs, endMs); err != nil {
		return nil, fmt.Errorf("candles.ListBetweenOrderBySymbolTime query: %w", err)
	}
	return rows, nil
}

// BucketsBySymbolBetween returns just the buckets one symbol holds in
// [startMs, endMs], ascending. Gap detection needs only the timestamps, not
// full rows.
func (m *defaultCandlesModel) BucketsBySymbolBetween(ctx context.Context, symbol string, startMs, endMs int64) ([]int64, error) {
	query := `
SELECT bucket_start_ms
FROM ` + m.table + `
WHERE symbol = $1 AND bucket_start_ms >= $2 AND bucket_start_ms <= $3
ORDER BY bucket_start_ms ASC`

	var buckets []int64
	if err := m.conn.QueryRowsCtx(ctx, &buckets, query, symbol, startMs, endMs); err != nil {
		return nil, fmt.Errorf("candles.BucketsBySymbolBetween query: %w", err)
	}
	return buckets, nil
}

// MaxHighBySymbolBetween returns each symbol's highest high in [startMs, endMs].
func (m *defaultCandlesModel) MaxHighBySymbolBetween(ctx context.Context, startMs, endMs int64) (map[string]float64, error) {
	query := `
SELECT symbol, MAX(high_price) AS extreme
FROM ` + m.table + `
WHERE bucket_start_ms >= $1 AND bucket_start_ms <= $2
GROUP BY symbol`

	return m.extremesBySymbol(ctx, query, startMs, endMs, "candles.MaxHighBySymbolBetween")
}

// MinLowBySymbolBetween returns each symbol's lowest low in [startMs, endMs].
func (m *defaultCandlesModel) MinLowBySymbolBetween(ctx context.Context, startMs, endMs int64) (map[string]float64, error) {
	query := `
SELECT symbol, MIN(low_price) AS extreme
FROM ` + m.table + `
WHERE bucket_start_ms >= $1 AND bucket_start_ms <= $2
GROUP BY symbol`

	return m.extremesBySymbol(ctx, query, startMs, endMs, "candles.MinLowBySymbolBetween")
}

func (m *defaultCandlesModel) extremesBySymbol(ctx context.Context, query string, startMs, endMs int64, label string) (map[string]float64, error) {
	var rows []symbolExtremeRow
	if err := m.conn.QueryRowsCtx(ctx, &rows, query, startMs, endMs); err != nil {
		return nil, fmt.Errorf("%s query: %w", label, err)
	}

	out := make(map[string]float64, len(rows))
	for _, row := range rows {
		out[row.Symbol] = row.Extreme
	}
	return out, nil
}

// SnapshotLatest returns all symbols' candles at the single newest bucket.
func (m *defaultCandlesModel) SnapshotLatest(ctx context.Context) ([]Candle, error) {
	query := `
SELECT symbol, bucket_start_ms, open_price, high_price, low_price, close_price, quote_volume
FROM ` + m.table + `
WHERE bucket_start_ms = (SELECT MAX(bucket_start_ms) FROM ` + m.table + `)`

	var rows []Candle
	if err := m.conn.QueryRowsCtx(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("candles.SnapshotLatest query: %w", err)
	}
	return rows, nil
}

// SnapshotEarliestAfter returns all symbols' candles at the single earliest
// bucket at or after bucketMs.
func (m *defaultCandlesModel) SnapshotEarliestAfter(ctx context.Context, bucketMs int64) ([]Candle, error) {
	query := `
SELECT symbol, bucket_start_ms, open_price, high_price, low_price, close_price, quote_volume
FROM ` + m.table + `
WHERE bucket_start_ms = (SELECT MIN(bucket_start_ms) FROM ` + m.table + ` WHERE bucket_start_ms >= $1)`

	var rows []Candle
	if err := m.conn.QueryRowsCtx(ctx, &rows, query, bucketMs); err != nil {
		return nil, fmt.Errorf("candles.SnapshotEarliestAfter query: %w", err)
	}
	return rows, nil
}

// SnapshotLatestBefore returns all symbols' candles at the single latest
// bucket at or before bucketMs.
func (m *defaultCandlesModel) SnapshotLatestBefore(ctx context.Context, bucketMs int64) ([]Candle, error) {
	query := `
SELECT symbol, bucket_start_ms, open_price, high_price, low_price, close_price, quote_volume
FROM ` + m.table + `
WHERE bucket_start_ms = (SELECT MAX(bucket_start_ms) FROM ` + m.table + ` WHERE bucket_start_ms <= $1)`

	var rows []Candle
	if err := m.conn.QueryRowsCtx(ctx, &rows, query, bucketMs); err != nil {
		return nil, fmt.Errorf("candles.SnapshotLatestBefore query: %w", err)
	}
	return rows, nil
}

// DeleteBetween removes every candle in [startMs, endMs] and returns the
// number of rows removed.
func (m *defaultCandlesModel) DeleteBetween(ctx context.Context, startMs, endMs int64) (int64, error) {
	query := `DELETE FROM ` + m.table + ` WHERE bucket_start_ms >= $1 AND bucket_start_ms <= $2`

	res, err := m.conn.ExecCtx(ctx, query, startMs, endMs)
	if err != nil {
		return 0, fmt.Errorf("candles.DeleteBetween exec: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("candles.DeleteBetween rows affected: %w", err)
	}
	return n, nil
}

// DeleteBySymbol removes every candle for one symbol and returns the number
// of rows removed.
func (m *defaultCandlesModel) DeleteBySymbol(ctx context.Context, symbol string) (int64, error) {
	query := `DELETE FROM ` + m.table + ` WHERE symbol = $1`

	res, err := m.conn.ExecCtx(ctx, query, symbol)
	if err != nil {
		return 0, fmt.Errorf("candles.DeleteBySymbol exec: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("candles.DeleteBySymbol rows affected: %w", err)
	}
	return n, nil
}

type symbolExtremeRow struct {
	Symbol  string  `db:"symbol"`
	Extreme float64 `db:"extreme"`
}
