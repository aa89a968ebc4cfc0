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

type RepairLogic struct {
	logx.Logger
	ctx    context.Context
	svcCtx *svc.ServiceContext
}

func NewRepairLogic(ctx context.Context, svcCtx *svc.ServiceContext) *RepairLogic {
	return &RepairLogic{
		Logger: logx.WithContext(ctx),
		ctx:    ctx,
		svcCtx: svcCtx,
	}
}

func (l *RepairLogic) Repair(req *types.RepairReq) (*types.RepairResp, error) {
	var start, end time.Time
	if strings.TrimSpace(req.Start) != "" {
		var err error
		start, err = index.ParseTimeInZone(req.Start, index.DefaultZone)
		if err == nil && strings.TrimSpace(req.End) != "" {
			end, err = index.ParseTimeInZone(req.End, index.DefaultZone)
		}
		if err == nil && !end.IsZero() && start.After(end) {
			return nil, &BadRequestError{Resp: &types.RepairResp{
				Success: false,
				Message: "start must not be after end",
			}}
		}
		if err != nil {
			return nil, &BadRequestError{Resp: &types.RepairResp{
				Success: false,
				Message: "bad time format, expected yyyy-MM-dd HH:mm",
			}}
		}
	} else if req.Days < 1 || req.Days > 60 {
		return nil, &BadRequestError{Resp: &types.RepairResp{
			Success: false,
			Message: "days must be between 1 and 60",
		}}
	}

	summary, err := l.svcCtx.Index.Repair(l.ctx, start, end, req.Days)
	if err != nil {
		return nil, err
	}

	details := make([]types.RepairDetail, 0, len(summary.Details))
	for _, d := range summary.Details {
		details = append(details, types.RepairDetail{
			Symbol:         d.Symbol,
			RepairedCount:  d.RepairedCount,
			RepairedRanges: d.RepairedRanges,
		})
	}
	return &types.RepairResp{
		Success:              true,
		Message:              "repair finished",
		CheckedSymbols:       summary.CheckedSymbols,
		RepairedSymbolCount:  summary.RepairedSymbolCount,
		TotalRepairedRecords: summary.TotalRepairedRecords,
		TimeRange:            summary.TimeRange,
		RepairedDetails:      details,
	}, nil
}
