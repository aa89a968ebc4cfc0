package logic

import (
	"context"
	"strings"
	"time"

	"github.com/zeromicro/go-zero/core/logx"

	"breadth-api/internal/index"
	"breadth-api/internal/svc"
	"breadth-api/internal/types"
)

type DebugPricesLogic struct {
	logx.Logger
	ctx    context.Context
	svcCtx *svc.ServiceContext
}

func NewDebugPricesLogic(ctx context.Context, svcCtx *svc.ServiceContext) *DebugPricesLogic {
	return &DebugPricesLogic{
		Logger: logx.WithContext(ctx),
		ctx:    ctx,
		svcCtx: svcCtx,
	}
}

func (l *DebugPricesLogic) DebugPrices(req *types.DebugPricesReq) (*types.DebugPricesResp, error) {
	symbol := strings.ToUpper(strings.TrimSpace(req.Symbol))
	if symbol == "" {
		return nil, &BadRequestError{Resp: &types.DebugPricesResp{
			Success: false,
			Message: "symbol is required",
		}}
	}

	start := time.Now().UTC().Add(-time.Duration(req.Hours*60) * time.Minute)
	rows, err := l.svcCtx.Index.CoinPrices(l.ctx, symbol, start)
	if err != nil {
		return nil, err
	}

	cn, err := time.LoadLocation("Asia/Shanghai")
	if err != nil {
		return nil, err
	}
	data := make([]types.DebugPrice, 0, len(rows))
	for _, row := range rows {
		ts := time.UnixMilli(row.BucketStartMs).UTC()
		data = append(data, types.DebugPrice{
			Timestamp:   index.FormatUTC(ts),
			TimestampCN: ts.In(cn).Format("2006-01-02T15:04:05"),
			OpenPrice:   row.OpenPrice,
			HighPrice:   row.HighPrice,
			LowPrice:    row.LowPrice,
			ClosePrice:  row.ClosePrice,
		})
	}
	return &types.DebugPricesResp{
		Success:        true,
		Symbol:         symbol,
		QueryStartTime: index.FormatUTC(start),
		Count:          len(data),
		Data:           data,
	}, nil
}
