package logic

import (
	"context"
	"strings"

	"github.com/zeromicro/go-zero/core/logx"

	"breadth-api/internal/svc"
	"breadth-api/internal/types"
)

type DeleteSymbolLogic struct {
	logx.Logger
	ctx    context.Context
	svcCtx *svc.ServiceContext
}

func NewDeleteSymbolLogic(ctx context.Context, svcCtx *svc.ServiceContext) *DeleteSymbolLogic {
	return &DeleteSymbolLogic{
		Logger: logx.WithContext(ctx),
		ctx:    ctx,
		svcCtx: svcCtx,
	}
}

func (l *DeleteSymbolLogic) DeleteSymbol(req *types.DeleteSymbolReq) (*types.DeleteSymbolResp, error) {
	symbol := strings.ToUpper(strings.TrimSpace(req.Symbol))
	if symbol == "" {
		return nil, &BadRequestError{Resp: &types.DeleteSymbolResp{
			Success: false,
			Message: "symbol is required",
		}}
	}

	result, err := l.svcCtx.Index.DeleteSymbol(l.ctx, symbol)
	if err != nil {
		return nil, err
	}
	l.Infof("deleted symbol %s: %d candles, base price removed=%v",
		symbol, result.DeletedPriceCount, result.DeletedBasePrice)
	return &types.DeleteSymbolResp{
		Success:           true,
		Message:           "symbol data deleted",
		Symbol:            symbol,
		DeletedPriceCount: result.DeletedPriceCount,
		DeletedBasePrice:  result.DeletedBasePrice,
	}, nil
}
