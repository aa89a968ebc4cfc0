package logic

import (
	"context"

	"github.com/zeromicro/go-zero/core/logx"

	"breadth-api/internal/index"
	"breadth-api/internal/svc"
	"breadth-api/internal/types"
)

type StatsLogic struct {
	logx.Logger
	ctx    context.Context
	svcCtx *svc.ServiceContext
}

func NewStatsLogic(ctx context.Context, svcCtx *svc.ServiceContext) *StatsLogic {
	return &StatsLogic{
		Logger: logx.WithContext(ctx),
		ctx:    ctx,
		svcCtx: svcCtx,
	}
}

func (l *StatsLogic) Stats() (*types.StatsResp, error) {
	stats, err := l.svcCtx.Index.QueryStats(l.ctx)
	if err != nil {
		return nil, err
	}

	body := types.StatsBody{
		Current:    stats.Current,
		CoinCount:  stats.CoinCount,
		LastUpdate: stats.LastUpdate,
	}
	fillWindow(stats.Day1, &body.Change24h, &body.High24h, &body.Low24h)
	fillWindow(stats.Day3, &body.Change3d, &body.High3d, &body.Low3d)
	fillWindow(stats.Day7, &body.Change7d, &body.High7d, &body.Low7d)
	fillWindow(stats.Day30, &body.Change30d, &body.High30d, &body.Low30d)

	return &types.StatsResp{Success: true, Stats: body}, nil
}

func fillWindow(w *index.WindowStats, change, high, low **float64) {
	if w == nil {
		return
	}
	c, h, lo := w.Change, w.High, w.Low
	*change, *high, *low = &c, &h, &lo
}
