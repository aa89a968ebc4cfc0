package logic

import (
	"context"

	"github.com/zeromicro/go-zero/core/logx"

	"breadth-api/internal/svc"
	"breadth-api/internal/types"
)

type RateLimitStatusLogic struct {
	logx.Logger
	ctx    context.Context
	svcCtx *svc.ServiceContext
}

func NewRateLimitStatusLogic(ctx context.Context, svcCtx *svc.ServiceContext) *RateLimitStatusLogic {
	return &RateLimitStatusLogic{
		Logger: logx.WithContext(ctx),
		ctx:    ctx,
		svcCtx: svcCtx,
	}
}

func (l *RateLimitStatusLogic) RateLimitStatus() (*types.RateLimitStatusResp, error) {
	limited, reason := l.svcCtx.Index.RateLimited()
	return &types.RateLimitStatusResp{
		Success:     true,
		RateLimited: limited,
		Reason:      reason,
	}, nil
}
