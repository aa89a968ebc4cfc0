package logic

import (
	"context"

	"github.com/zeromicro/go-zero/core/logx"

	"breadth-api/internal/index"
	"breadth-api/internal/svc"
	"breadth-api/internal/types"
)

type DeleteDataLogic struct {
	logx.Logger
	ctx    context.Context
	svcCtx *svc.ServiceContext
}

func NewDeleteDataLogic(ctx context.Context, svcCtx *svc.ServiceContext) *DeleteDataLogic {
	return &DeleteDataLogic{
		Logger: logx.WithContext(ctx),
		ctx:    ctx,
		svcCtx: svcCtx,
	}
}

func (l *DeleteDataLogic) DeleteData(req *types.DeleteDataReq) (*types.DeleteDataResp, error) {
	start, end, badResp := parseRange(req.Start, req.End, req.Timezone)
	if badResp != nil {
		return nil, &BadRequestError{Resp: &types.DeleteDataResp{
			Success: false,
			Message: badResp.message,
			Error:   badResp.detail,
		}}
	}

	result, err := l.svcCtx.Index.DeleteRange(l.ctx, start, end)
	if err != nil {
		return nil, err
	}
	l.Infof("deleted %d index rows and %d candle time points in [%s, %s]",
		result.DeletedIndexCount, result.DeletedPriceTimePoints, index.FormatUTC(start), index.FormatUTC(end))
	return &types.DeleteDataResp{
		Success:                true,
		Message:                "data deleted",
		InputTimezone:          req.Timezone,
		InputStart:             req.Start,
		InputEnd:               req.End,
		UtcStart:               index.FormatUTC(start),
		UtcEnd:                 index.FormatUTC(end),
		DeletedIndexCount:      result.DeletedIndexCount,
		DeletedPriceTimePoints: result.DeletedPriceTimePoints,
	}, nil
}
