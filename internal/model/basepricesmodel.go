package model

import (
	"context"
	"fmt"

	"github.com/zeromicro/go-zero/core/stores/sqlx"
)

var _ BasePricesModel = (*defaultBasePricesModel)(nil)

// BasePrice is a symbol's frozen reference price. CreatedAtMs records when
// the base was adopted, in UTC epoch milliseconds.
type BasePrice struct {
	Symbol      string  `db:"symbol"`
	Price       float64 `db:"price"`
	CreatedAtMs int64   `db:"created_at_ms"`
}

type (
	// BasePricesModel wraps all storage access for base price rows.
	BasePricesModel interface {
		List(ctx context.Context) ([]BasePrice, error)
		Insert(ctx context.Context, row *BasePrice) error
		Delete(ctx context.Context, symbol string) (int64, error)
	}

	defaultBasePricesModel struct {
		conn  sqlx.SqlConn
		table string
	}
)

// NewBasePricesModel returns a model for the base_prices table.
func NewBasePricesModel(conn sqlx.SqlConn) BasePricesModel {
	return &defaultBasePricesModel{conn: conn, table: "public.base_prices"}
}

// List returns every stored base price ordered by symbol.
func (m *defaultBasePricesModel) List(ctx context.Context) ([]BasePrice, error) {
	query := `
SELECT symbol, price, created_at_ms
FROM ` + m.table + `
ORDER BY symbol ASC`

	var rows []BasePrice
	if err := m.conn.QueryRowsCtx(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("baseprices.List query: %w", err)
	}
	return rows, nil
}

// Insert stores a symbol's base price. A symbol that already holds a base
// keeps it: bases freeze at first observation and only Delete revokes them.
func (m *defaultBasePricesModel) Insert(ctx context.Context, row *BasePrice) error {
	query := `
INSERT INTO ` + m.table + ` (symbol, price, created_at_ms)
VALUES ($1, $2, $3)
ON CONFLICT (symbol) DO NOTHING`

	if _, err := m.conn.ExecCtx(ctx, query, row.Symbol, row.Price, row.CreatedAtMs); err != nil {
		return fmt.Errorf("baseprices.Insert exec: %w", err)
	}
	return nil
}

// Delete revokes one symbol's base price. Returns the number of rows removed,
// which is zero when the symbol held no base.
func (m *defaultBasePricesModel) Delete(ctx context.Context, symbol string) (int64, error) {
	query := `DELETE FROM ` + m.table + ` WHERE symbol = $1`

	res, err := m.conn.ExecCtx(ctx, query, symbol)
	if err != nil {
		return 0, fmt.Errorf("baseprices.Delete exec: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("baseprices.Delete rows affected: %w", err)
	}
	return n, nil
}
