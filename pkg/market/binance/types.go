package binance

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"breadth-api/pkg/market"
)

// ticker24h is the subset of the 24-hour ticker payload the service consumes.
type ticker24h struct {
	Symbol string `json:"symbol"`
}

// Kline rows arrive as positional JSON arrays:
// [openTime, open, high, low, close, volume, closeTime, quoteVolume, ...].
// Only openTime, open, high, low, close and quoteVolume are consumed.
const (
	klineIdxOpenTime = 0
	klineIdxOpen     = 1
	klineIdxHigh     = 2
	klineIdxLow      = 3
	klineIdxClose    = 4
	klineIdxQuoteVol = 7
)

func parseKlineRows(data []byte, symbol string) ([]market.Kline, error) {
	var rows [][]json.RawMessage
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, fmt.Errorf("binance: decode klines for %s: %w", symbol, err)
	}
	klines := make([]market.Kline, 0, len(rows))
	for i, row := range rows {
		kline, err := parseKlineRow(row, symbol)
		if err != nil {
			return nil, fmt.Errorf("binance: kline row %d for %s: %w", i, symbol, err)
		}
		klines = append(klines, kline)
	}
	return klines, nil
}

func parseKlineRow(row []json.RawMessage, symbol string) (market.Kline, error) {
	if len(row) <= klineIdxQuoteVol {
		return market.Kline{}, fmt.Errorf("short row: %d fields", len(row))
	}
	openMs, err := rowInt64(row, klineIdxOpenTime)
	if err != nil {
		return market.Kline{}, err
	}
	kline := market.Kline{
		Symbol:   symbol,
		OpenTime: time.UnixMilli(openMs).UTC(),
	}
	for _, field := range []struct {
		idx int
		dst *float64
	}{
		{klineIdxOpen, &kline.Open},
		{klineIdxHigh, &kline.High},
		{klineIdxLow, &kline.Low},
		{klineIdxClose, &kline.Close},
		{klineIdxQuoteVol, &kline.QuoteVolume},
	} {
		value, err := rowFloat(row, field.idx)
		if err != nil {
			return market.Kline{}, err
		}
		*field.dst = value
	}
	return kline, nil
}

func rowInt64(row []json.RawMessage, idx int) (int64, error) {
	var value int64
	if err := json.Unmarshal(row[idx], &value); err != nil {
		return 0, fmt.Errorf("field %d: %w", idx, err)
	}
	return value, nil
}

// rowFloat accepts both quoted decimal strings (the usual encoding) and bare
// JSON numbers.
func rowFloat(row []json.RawMessage, idx int) (float64, error) {
	var text string
	if err := json.Unmarshal(row[idx], &text); err == nil {
		value, parseErr := strconv.ParseFloat(text, 64)
		if parseErr != nil {
			return 0, fmt.Errorf("field %d: parse %q: %w", idx, text, parseErr)
		}
		return value, nil
	}
	var value float64
	if err := json.Unmarshal(row[idx], &value); err != nil {
		return 0, fmt.Errorf("field %d: %w", idx, err)
	}
	return value, nil
}
