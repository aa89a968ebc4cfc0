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

// BadRequestError marks a logic error that maps to HTTP 400.
type BadRequestError struct {
	Resp any
}

func (e *BadRequestError) Error() string { return "bad request" }

type DistributionLogic struct {
	logx.Logger
	ctx    context.Context
	svcCtx *svc.ServiceContext
}

func NewDistributionLogic(ctx context.Context, svcCtx *svc.ServiceContext) *DistributionLogic {
	return &DistributionLogic{
		Logger: logx.WithContext(ctx),
		ctx:    ctx,
		svcCtx: svcCtx,
	}
}

func (l *DistributionLogic) Distribution(req *types.DistributionReq) (*types.DistributionResp, error) {
	// Absolute mode wins when both start and end are present.
	if strings.TrimSpace(req.Start) != "" && strings.TrimSpace(req.End) != "" {
		return l.byRange(req)
	}

	data, err := l.svcCtx.Index.DistributionByHours(l.ctx, req.Hours)
	if err != nil {
		return nil, err
	}
	if data == nil {
		return &types.DistributionResp{Success: false, Message: "no distribution data available"}, nil
	}
	hours := req.Hours
	return &types.DistributionResp{
		Success: true,
		Mode:    "hours",
		Hours:   &hours,
		Data:    data,
	}, nil
}

func (l *DistributionLogic) byRange(req *types.DistributionReq) (*types.DistributionResp, error) {
	start, end, badResp := parseRange(req.Start, req.End, req.Timezone)
	if badResp != nil {
		return nil, &BadRequestError{Resp: &types.DistributionResp{
			Success: false,
			Message: badResp.message,
			Error:   badResp.detail,
		}}
	}

	data, err := l.svcCtx.Index.DistributionByRange(l.ctx, start, end)
	if err != nil {
		return nil, err
	}
	resp := &types.DistributionResp{
		Mode:          "timeRange",
		InputTimezone: req.Timezone,
		InputStart:    req.Start,
		InputEnd:      req.End,
		UtcStart:      index.FormatUTC(start),
		UtcEnd:        index.FormatUTC(end),
	}
	if data == nil {
		resp.Success = false
		resp.Message = "no distribution data in the requested range"
		return resp, nil
	}
	resp.Success = true
	resp.Data = data
	return resp, nil
}

type rangeError struct {
	message string
	detail  string
}

// parseRange parses client start/end in the request zone and validates
// ordering. A non-nil rangeError maps to HTTP 400.
func parseRange(startRaw, endRaw, zone string) (time.Time, time.Time, *rangeError) {
	start, err := index.ParseTimeInZone(startRaw, zone)
	if err != nil {
		return time.Time{}, time.Time{}, &rangeError{
			message: "bad time format, expected yyyy-MM-dd HH:mm",
			detail:  err.Error(),
		}
	}
	end, err := index.ParseTimeInZone(endRaw, zone)
	if err != nil {
		return time.Time{}, time.Time{}, &rangeError{
			message: "bad time format, expected yyyy-MM-dd HH:mm",
			detail:  err.Error(),
		}
	}
	if start.After(end) {
		return time.Time{}, time.Time{}, &rangeError{message: "start must not be after end"}
	}
	return start, end, nil
}
