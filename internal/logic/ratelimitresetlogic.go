package logic

import (
	"context"

	"github.com/zeromicro/go-zero/core/logx"

	"breadth-api/internal/svc"
	"breadth-api/internal/types"
)

type RateLimitResetLogic struct {
	logx.Logger
	ctx    context.Context
	svcCtx *svc.ServiceContext
}

func NewRateLimitResetLogic(ctx context.Context, svcCtx *svc.ServiceContext) *RateLimitResetLogic {
	return &RateLimitResetLogic{
		Logger: logx.WithContext(ctx),
		ctx:    ctx,
		svcCtx: svcCtx,
	}
}

func (l *RateLimitResetLogic) RateLimitReset() (*types.RateLimitResetResp, error) {
	was := l.svcCtx.Index.ResetRateLimit()
	l.Infof("rate limit latch reset, was limited: %v", was)
	return &types.RateLimitResetResp{
		Success:    true,
		WasLimited: was,
	}, nil
}
