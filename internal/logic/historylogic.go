package logic

import (
	"context"

	"github.com/zeromicro/go-zero/core/logx"

	"breadth-api/internal/svc"
	"breadth-api/internal/types"
)

type HistoryLogic struct {
	logx.Logger
	ctx    context.Context
	svcCtx *svc.ServiceContext
}

func NewHistoryLogic(ctx context.Context, svcCtx *svc.ServiceContext) *HistoryLogic {
	return &HistoryLogic{
		Logger: logx.WithContext(ctx),
		ctx:    ctx,
		svcCtx: svcCtx,
	}
}

func (l *HistoryLogic) History(req *types.HistoryReq) (*types.HistoryResp, error) {
	rows, err := l.svcCtx.Index.History(l.ctx, req.Hours)
	if err != nil {
		return nil, err
	}
	data := make([]types.IndexPoint, 0, len(rows))
	for i := range rows {
		data = append(data, toIndexPoint(&rows[i]))
	}
	return &types.HistoryResp{Success: true, Count: len(data), Data: data}, nil
}
