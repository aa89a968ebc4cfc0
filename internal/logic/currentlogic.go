package logic

import (
	"context"

	"github.com/zeromicro/go-zero/core/logx"

	"breadth-api/internal/model"
	"breadth-api/internal/svc"
	"breadth-api/internal/types"
)

type CurrentLogic struct {
	logx.Logger
	ctx    context.Context
	svcCtx *svc.ServiceContext
}

func NewCurrentLogic(ctx context.Context, svcCtx *svc.ServiceContext) *CurrentLogic {
	return &CurrentLogic{
		Logger: logx.WithContext(ctx),
		ctx:    ctx,
		svcCtx: svcCtx,
	}
}

func (l *CurrentLogic) Current() (*types.CurrentResp, error) {
	latest, err := l.svcCtx.Index.Latest(l.ctx)
	if err == model.ErrNotFound {
		return &types.CurrentResp{Success: false, Message: "no index data yet"}, nil
	}
	if err != nil {
		return nil, err
	}
	point := toIndexPoint(latest)
	return &types.CurrentResp{Success: true, Data: &point}, nil
}

func toIndexPoint(row *model.MarketIndex) types.IndexPoint {
	return types.IndexPoint{
		Timestamp:   row.BucketStartMs,
		IndexValue:  row.IndexValue,
		TotalVolume: row.TotalVolume,
		CoinCount:   row.CoinCount,
		UpCount:     row.UpCount,
		DownCount:   row.DownCount,
		Adr:         row.Adr,
	}
}
