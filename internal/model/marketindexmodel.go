package model

import (
	"context"
	"fmt"
	"strings"

	"github.com/zeromicro/go-zero/core/stores/sqlx"
)

var _ MarketIndexModel = (*defaultMarketIndexModel)(nil)

// MarketIndex is one computed breadth-index row. BucketStartMs is unique and
// rows are never updated once written.
type MarketIndex struct {
	BucketStartMs int64   `db:"bucket_start_ms"`
	IndexValue    float64 `db:"index_value"`
	TotalVolume   float64 `db:"total_volume"`
	CoinCount     int64   `db:"coin_count"`
	UpCount       int64   `db:"up_count"`
	DownCount     int64   `db:"down_count"`
	Adr           float64 `db:"adr"`
}

type (
	// MarketIndexModel wraps all storage access for index rows.
	MarketIndexModel interface {
		Insert(ctx context.Context, row *MarketIndex) error
		BulkInsert(ctx context.Context, rows []MarketIndex) (int64, error)
		Latest(ctx context.Context) (*MarketIndex, error)
		ListAfter(ctx context.Context, startMs int64) ([]MarketIndex, error)
		ListBetween(ctx context.Context, startMs, endMs int64) ([]MarketIndex, error)
		ExistsAtBucket(ctx context.Context, bucketMs int64) (bool, error)
		BucketsBetween(ctx context.Context, startMs, endMs int64) ([]int64, error)
		DeleteBetween(ctx context.Context, startMs, endMs int64) (int64, error)
	}

	defaultMarketIndexModel struct {
		conn  sqlx.SqlConn
		table string
	}
)

// NewMarketIndexModel returns a model for the market_index table.
func NewMarketIndexModel(conn sqlx.SqlConn) MarketIndexModel {
	return &defaultMarketIndexModel{conn: conn, table: "public.market_index"}
}

// Insert writes one index row. A row already present at the same bucket is
// left untouched.
func (m *defaultMarketIndexModel) Insert(ctx context.Context, row *MarketIndex) error {
	query := `
INSERT INTO ` + m.table + ` (bucket_start_ms, index_value, total_volume, coin_count, up_count, down_count, adr)
VALUES ($1, $2, $3, $4, $5, $6, $7)
ON CONFLICT (bucket_start_ms) DO NOTHING`

	if _, err := m.conn.ExecCtx(ctx, query,
		row.BucketStartMs, row.IndexValue, row.TotalVolume,
		row.CoinCount, row.UpCount, row.DownCount, row.Adr); err != nil {
		return fmt.Errorf("marketindex.Insert exec: %w", err)
	}
	return nil
}

// BulkInsert writes index rows in chunks, skipping buckets that already have
// a row. Returns the number of rows actually inserted.
func (m *defaultMarketIndexModel) BulkInsert(ctx context.Context, rows []MarketIndex) (int64, error) {
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

func (m *defaultMarketIndexModel) insertChunk(ctx context.Context, rows []MarketIndex) (int64, error) {
	var sb strings.Builder
	sb.WriteString(`INSERT INTO ` + m.table + ` (bucket_start_ms, index_value, total_volume, coin_count, up_count, down_count, adr) VALUES `)

	args := make([]any, 0, len(rows)*7)
	for i := range rows {
		if i > 0 {
			sb.WriteByte(',')
		}
		base := i * 7
		fmt.Fprintf(&sb, "($%d,$%d,$%d,$%d,$%d,$%d,$%d)",
			base+1, base+2, base+3, base+4, base+5, base+6, base+7)
		args = append(args,
			rows[i].BucketStartMs, rows[i].IndexValue, rows[i].TotalVolume,
			rows[i].CoinCount, rows[i].UpCount, rows[i].DownCount, rows[i].Adr)
	}
	sb.WriteString(" ON CONFLICT (bucket_start_ms) DO NOTHING")

	res, err := m.conn.ExecCtx(ctx, sb.String(), args...)
	if err != nil {
		return 0, fmt.Errorf("marketindex.BulkInsert exec: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("marketindex.BulkInsert rows affected: %w", err)
	}
	return n, nil
}

// Latest returns the most recent index row, or ErrNotFound when the table is
// empty.
func (m *defaultMarketIndexModel) Latest(ctx context.Context) (*MarketIndex, error) {
	query := `
SELECT bucket_start_ms, index_value, total_volume, coin_count, up_count, down_count, adr
FROM ` + m.table + `
ORDER BY bucket_start_ms DESC
LIMIT 1`

	var row MarketIndex
	if err := m.conn.QueryRowCtx(ctx, &row, query); err != nil {
		if err == sqlx.ErrNotFound {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("marketindex.Latest query: %w", err)
	}
	return &row, nil
}

// ListAfter returns index rows strictly after startMs in ascending order.
func (m *defaultMarketIndexModel) ListAfter(ctx context.Context, startMs int64) ([]MarketIndex, error) {
	query := `
SELECT bucket_start_ms, index_value, total_volume, coin_count, up_count, down_count, adr
FROM ` + m.table + `
WHERE bucket_start_ms > $1
ORDER BY bucket_start_ms ASC`

	var rows []MarketIndex
	if err := m.conn.QueryRowsCtx(ctx, &rows, query, startMs); err != nil {
		return nil, fmt.Errorf("marketindex.ListAfter query: %w", err)
	}
	return rows, nil
}

// ListBetween returns index rows in [startMs, endMs] in ascending order.
func (m *defaultMarketIndexModel) ListBetween(ctx context.Context, startMs, endMs int64) ([]MarketIndex, error) {
	query := `
SELECT bucket_start_ms, index_value, total_volume, coin_count, up_count, down_count, adr
FROM ` + m.table + `
WHERE bucket_start_ms >= $1 AND bucket_start_ms <= $2
ORDER BY bucket_start_ms ASC`

	var rows []MarketIndex
	if err := m.conn.QueryRowsCtx(ctx, &rows, query, startMs, endMs); err != nil {
		return nil, fmt.Errorf("marketindex.ListBetween query: %w", err)
	}
	return rows, nil
}

// ExistsAtBucket reports whether an index row was stored for the given bucket.
func (m *defaultMarketIndexModel) ExistsAtBucket(ctx context.Context, bucketMs int64) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM ` + m.table + ` WHERE bucket_start_ms = $1)`

	var exists bool
	if err := m.conn.QueryRowCtx(ctx, &exists, query, bucketMs); err != nil {
		return false, fmt.Errorf("marketindex.ExistsAtBucket query: %w", err)
	}
	return exists, nil
}

// BucketsBetween returns the buckets holding index rows in [startMs, endMs],
// ascending.
func (m *defaultMarketIndexModel) BucketsBetween(ctx context.Context, startMs, endMs int64) ([]int64, error) {
	query := `
SELECT bucket_start_ms
FROM ` + m.table + `
WHERE bucket_start_ms >= $1 AND bucket_start_ms <= $2
ORDER BY bucket_start_ms ASC`

	var buckets []int64
	if err := m.conn.QueryRowsCtx(ctx, &buckets, query, startMs, endMs); err != nil {
		return nil, fmt.Errorf("marketindex.BucketsBetween query: %w", err)
	}
	return buckets, nil
}

// DeleteBetween removes every index row in [startMs, endMs] and returns the
// number of rows removed.
func (m *defaultMarketIndexModel) DeleteBetween(ctx context.Context, startMs, endMs int64) (int64, error) {
	query := `DELETE FROM ` + m.table + ` WHERE bucket_start_ms >= $1 AND bucket_start_ms <= $2`

	res, err := m.conn.ExecCtx(ctx, query, startMs, endMs)
	if err != nil {
		return 0, fmt.Errorf("marketindex.DeleteBetween exec: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("marketindex.DeleteBetween rows affected: %w", err)
	}
	return n, nil
}
