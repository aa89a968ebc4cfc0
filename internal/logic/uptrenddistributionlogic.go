package logic

import (
	"context"
	"strings"

	"github.com/zeromicro/go-zero/core/logx"

	"breadth-api/internal/svc"
	"breadth-api/internal/types"
	"breadth-api/pkg/breadth"
)

type UptrendDistributionLogic struct {
	logx.Logger
	ctx    context.Context
	svcCtx *svc.ServiceContext
}

func NewUptrendDistributionLogic(ctx context.Context, svcCtx *svc.ServiceContext) *UptrendDistributionLogic {
	return &UptrendDistributionLogic{
		Logger: logx.WithContext(ctx),
		ctx:    ctx,
		svcCtx: svcCtx,
	}
}

func (l *UptrendDistributionLogic) UptrendDistribution(req *types.UptrendDistributionReq) (*types.UptrendDistributionResp, error) {
	params := breadth.WaveParams{
		KeepRatio:       req.KeepRatio,
		SidewaysCandles: req.NoNewHighCandles,
		MinUptrendPct:   req.MinUptrend,
	}
	if strings.TrimSpace(req.Start) != "" && strings.TrimSpace(req.End) != "" {
		return l.byRange(req, params)
	}

	data, err := l.svcCtx.Index.UptrendByHours(l.ctx, req.Hours, params)
	if err != nil {
		return nil, err
	}
	resp := l.baseResp(req)
	if data == nil {
		resp.Success = false
		resp.Message = "no uptrend data available"
		return resp, nil
	}
	hours := req.Hours
	resp.Success = true
	resp.Mode = "hours"
	resp.Hours = &hours
	resp.Data = data
	return resp, nil
}

func (l *UptrendDistributionLogic) byRange(req *types.UptrendDistributionReq, params breadth.WaveParams) (*types.UptrendDistributionResp, error) {
	start, end, badResp := parseRange(req.Start, req.End, req.Timezone)
	if badResp != nil {
		resp := l.baseResp(req)
		resp.Success = false
		resp.Message = badResp.message
		resp.Error = badResp.detail
		return nil, &BadRequestError{Resp: resp}
	}

	data, err := l.svcCtx.Index.UptrendByRange(l.ctx, start, end, params)
	if err != nil {
		return nil, err
	}
	resp := l.baseResp(req)
	resp.Mode = "timeRange"
	resp.InputTimezone = req.Timezone
	resp.InputStart = req.Start
	resp.InputEnd = req.End
	if data == nil {
		resp.Success = false
		resp.Message = "no uptrend data in the requested range"
		return resp, nil
	}
	resp.Success = true
	resp.Data = data
	return resp, nil
}

// baseResp echoes the wave knobs back so a caller can see what was applied.
func (l *UptrendDistributionLogic) baseResp(req *types.UptrendDistributionReq) *types.UptrendDistributionResp {
	return &types.UptrendDistributionResp{
		KeepRatio:        req.KeepRatio,
		NoNewHighCandles: req.NoNewHighCandles,
		MinUptrend:       req.MinUptrend,
	}
}
