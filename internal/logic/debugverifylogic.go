package logic

import (
	"context"

	"github.com/zeromicro/go-zero/core/logx"

	"breadth-api/internal/svc"
	"breadth-api/internal/types"
)

type DebugVerifyLogic struct {
	logx.Logger
	ctx    context.Context
	svcCtx *svc.ServiceContext
}

func NewDebugVerifyLogic(ctx context.Context, svcCtx *svc.ServiceContext) *DebugVerifyLogic {
	return &DebugVerifyLogic{
		Logger: logx.WithContext(ctx),
		ctx:    ctx,
		svcCtx: svcCtx,
	}
}

func (l *DebugVerifyLogic) DebugVerify() (*types.DebugVerifyResp, error) {
	v, message, err := l.svcCtx.Index.Verify(l.ctx)
	if err != nil {
		return nil, err
	}
	if v == nil {
		return &types.DebugVerifyResp{Success: false, Message: message}, nil
	}

	coins := make([]types.VerifyCoin, 0, len(v.Coins))
	for _, c := range v.Coins {
		coins = append(coins, types.VerifyCoin{
			Symbol:        c.Symbol,
			BasePrice:     c.BasePrice,
			LatestPrice:   c.LatestPrice,
			ChangePercent: c.ChangePercent,
		})
	}
	return &types.DebugVerifyResp{
		Success:          true,
		BasePriceTime:    v.BasePriceTime,
		LatestPriceTime:  v.LatestPriceTime,
		BasePriceCount:   v.BasePriceCount,
		LatestPriceCount: v.LatestPriceCount,
		TotalCoins:       v.TotalCoins,
		UpCount:          v.UpCount,
		DownCount:        v.DownCount,
		CalculatedIndex:  v.CalculatedIndex,
		StoredIndex:      v.StoredIndex,
		StoredIndexTime:  v.StoredIndexTime,
		IndexMatch:       v.IndexMatch,
		Coins:            coins,
	}, nil
}
