package types

import "breadth-api/pkg/breadth"

// IndexPoint is one index row as served to clients.
type IndexPoint struct {
	Timestamp   int64   `json:"timestamp"`
	IndexValue  float64 `json:"indexValue"`
	TotalVolume float64 `json:"totalVolume"`
	CoinCount   int64   `json:"coinCount"`
	UpCount     int64   `json:"upCount"`
	DownCount   int64   `json:"downCount"`
	Adr         float64 `json:"adr"`
}

type CurrentResp struct {
	Success bool        `json:"success"`
	Data    *IndexPoint `json:"data,omitempty"`
	Message string      `json:"message,omitempty"`
}

type HistoryReq struct {
	Hours int `form:"hours,default=168"`
}

type HistoryResp struct {
	Success bool         `json:"success"`
	Count   int          `json:"count"`
	Data    []IndexPoint `json:"data"`
}

// StatsBody carries the multi-window overview. Window fields appear only
// when the window holds more than one row.
type StatsBody struct {
	Current    *float64 `json:"current,omitempty"`
	CoinCount  *int64   `json:"coinCount,omitempty"`
	LastUpdate *int64   `json:"lastUpdate,omitempty"`

	Change24h *float64 `json:"change24h,omitempty"`
	High24h   *float64 `json:"high24h,omitempty"`
	Low24h    *float64 `json:"low24h,omitempty"`

	Change3d *float64 `json:"change3d,omitempty"`
	High3d   *float64 `json:"high3d,omitempty"`
	Low3d    *float64 `json:"low3d,omitempty"`

	Change7d *float64 `json:"change7d,omitempty"`
	High7d   *float64 `json:"high7d,omitempty"`
	Low7d    *float64 `json:"low7d,omitempty"`

	Change30d *float64 `json:"change30d,omitempty"`
	High30d   *float64 `json:"high30d,omitempty"`
	Low30d    *float64 `json:"low30d,omitempty"`
}

type StatsResp struct {
	Success bool      `json:"success"`
	Stats   StatsBody `json:"stats"`
}

type DistributionReq struct {
	Hours    float64 `form:"hours,default=168"`
	Start    string  `form:"start,optional"`
	End      string  `form:"end,optional"`
	Timezone string  `form:"timezone,default=Asia/Shanghai"`
}

type DistributionResp struct {
	Success bool                  `json:"success"`
	Mode    string                `json:"mode,omitempty"`
	Hours   *float64              `json:"hours,omitempty"`
	Data    *breadth.Distribution `json:"data,omitempty"`
	Message string                `json:"message,omitempty"`
	Error   string                `json:"error,omitempty"`

	InputTimezone string `json:"inputTimezone,omitempty"`
	InputStart    string `json:"inputStart,omitempty"`
	InputEnd      string `json:"inputEnd,omitempty"`
	UtcStart      string `json:"utcStart,omitempty"`
	UtcEnd        string `json:"utcEnd,omitempty"`
}

type UptrendDistributionReq struct {
	Hours           float64 `form:"hours,default=168"`
	KeepRatio       float64 `form:"keepRatio,default=0.75"`
	NoNewHighCandles int    `form:"noNewHighCandles,default=6"`
	MinUptrend      float64 `form:"minUptrend,default=4"`
	Start           string  `form:"start,optional"`
	End             string  `form:"end,optional"`
	Timezone        string  `form:"timezone,default=Asia/Shanghai"`
}

type UptrendDistributionResp struct {
	Success bool             `json:"success"`
	Mode    string           `json:"mode,omitempty"`
	Hours   *float64         `json:"hours,omitempty"`
	Data    *breadth.Uptrend `json:"data,omitempty"`
	Message string           `json:"message,omitempty"`
	Error   string           `json:"error,omitempty"`

	KeepRatio        float64 `json:"keepRatio"`
	NoNewHighCandles int     `json:"noNewHighCandles"`
	MinUptrend       float64 `json:"minUptrend"`

	InputTimezone string `json:"inputTimezone,omitempty"`
	InputStart    string `json:"inputStart,omitempty"`
	InputEnd      string `json:"inputEnd,omitempty"`
}

type DebugPricesReq struct {
	Symbol string  `form:"symbol"`
	Hours  float64 `form:"hours,default=1"`
}

type DebugPrice struct {
	Timestamp   string  `json:"timestamp"`
	TimestampCN string  `json:"timestampCN"`
	OpenPrice   float64 `json:"openPrice"`
	HighPrice   float64 `json:"highPrice"`
	LowPrice    float64 `json:"lowPrice"`
	ClosePrice  float64 `json:"closePrice"`
}

type DebugPricesResp struct {
	Success        bool         `json:"success"`
	Message        string       `json:"message,omitempty"`
	Symbol         string       `json:"symbol"`
	QueryStartTime string       `json:"queryStartTime"`
	Count          int          `json:"count"`
	Data           []DebugPrice `json:"data"`
}

type BasePriceItem struct {
	Symbol    string  `json:"symbol"`
	Price     float64 `json:"price"`
	CreatedAt string  `json:"createdAt"`
}

type DebugBasePricesResp struct {
	Success   bool            `json:"success"`
	Count     int             `json:"count"`
	CreatedAt string          `json:"createdAt,omitempty"`
	Data      []BasePriceItem `json:"data"`
}

type VerifyCoin struct {
	Symbol        string  `json:"symbol"`
	BasePrice     float64 `json:"basePrice"`
	LatestPrice   float64 `json:"latestPrice"`
	ChangePercent float64 `json:"changePercent"`
}

type DebugVerifyResp struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`

	BasePriceTime    string `json:"basePriceTime,omitempty"`
	LatestPriceTime  string `json:"latestPriceTime,omitempty"`
	BasePriceCount   int    `json:"basePriceCount,omitempty"`
	LatestPriceCount int    `json:"latestPriceCount,omitempty"`

	TotalCoins      int      `json:"totalCoins"`
	UpCount         int      `json:"upCount"`
	DownCount       int      `json:"downCount"`
	CalculatedIndex float64  `json:"calculatedIndex"`
	StoredIndex     *float64 `json:"storedIndex,omitempty"`
	StoredIndexTime *string  `json:"storedIndexTime,omitempty"`
	IndexMatch      *bool    `json:"indexMatch,omitempty"`

	Coins []VerifyCoin `json:"coins,omitempty"`
}

type DeleteDataReq struct {
	Start    string `form:"start"`
	End      string `form:"end"`
	Timezone string `form:"timezone,default=Asia/Shanghai"`
}

type DeleteDataResp struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`

	InputTimezone string `json:"inputTimezone,omitempty"`
	InputStart    string `json:"inputStart,omitempty"`
	InputEnd      string `json:"inputEnd,omitempty"`
	UtcStart      string `json:"utcStart,omitempty"`
	UtcEnd        string `json:"utcEnd,omitempty"`

	DeletedIndexCount      int64 `json:"deletedIndexCount"`
	DeletedPriceTimePoints int64 `json:"deletedPriceTimePoints"`
}

type DeleteSymbolReq struct {
	Symbol string `path:"symbol"`
}

type DeleteSymbolResp struct {
	Success           bool   `json:"success"`
	Message           string `json:"message,omitempty"`
	Symbol            string `json:"symbol,omitempty"`
	DeletedPriceCount int64  `json:"deletedPriceCount"`
	DeletedBasePrice  bool   `json:"deletedBasePrice"`
}

type RepairReq struct {
	Days  int    `form:"days,default=7"`
	Start string `form:"start,optional"`
	End   string `form:"end,optional"`
}

type RepairDetail struct {
	Symbol         string   `json:"symbol"`
	RepairedCount  int      `json:"repairedCount"`
	RepairedRanges []string `json:"repairedRanges"`
}

type RepairResp struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`

	CheckedSymbols       int            `json:"checkedSymbols"`
	RepairedSymbolCount  int            `json:"repairedSymbolCount"`
	TotalRepairedRecords int            `json:"totalRepairedRecords"`
	TimeRange            string         `json:"timeRange,omitempty"`
	RepairedDetails      []RepairDetail `json:"repairedDetails"`
}

type RateLimitStatusResp struct {
	Success     bool   `json:"success"`
	RateLimited bool   `json:"rateLimited"`
	Reason      string `json:"reason,omitempty"`
}

type RateLimitResetResp struct {
	Success    bool `json:"success"`
	WasLimited bool `json:"wasLimited"`
}
