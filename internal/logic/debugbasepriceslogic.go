package logic

import (
	"context"
	"time"

	"github.com/zeromicro/go-zero/core/logx"

	"breadth-api/internal/index"
	"breadth-api/internal/svc"
	"breadth-api/internal/types"
)

type DebugBasePricesLogic struct {
	logx.Logger
	ctx    context.Context
	svcCtx *svc.ServiceContext
}

func NewDebugBasePricesLogic(ctx context.Context, svcCtx *svc.ServiceContext) *DebugBasePricesLogic {
	return &DebugBasePricesLogic{
		Logger: logx.WithContext(ctx),
		ctx:    ctx,
		svcCtx: svcCtx,
	}
}

func (l *DebugBasePricesLogic) DebugBasePrices() (*types.DebugBasePricesResp, error) {
	rows, err := l.svcCtx.Index.BasePrices(l.ctx)
	if err != nil {
		return nil, err
	}

	resp := &types.DebugBasePricesResp{
		Success: true,
		Count:   len(rows),
		Data:    make([]types.BasePriceItem, 0, len(rows)),
	}
	for _, row := range rows {
		created := index.FormatUTC(time.UnixMilli(row.CreatedAtMs).UTC())
		if resp.CreatedAt == "" {
			resp.CreatedAt = created
		}
		resp.Data = append(resp.Data, types.BasePriceItem{
			Symbol:    row.Symbol,
			Price:     row.Price,
			CreatedAt: created,
		})
	}
	return resp, nil
}
