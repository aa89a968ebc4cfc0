package handler

import (
	"net/http"

	"github.com/zeromicro/go-zero/rest/httpx"

	"breadth-api/internal/logic"
	"breadth-api/internal/svc"
	"breadth-api/internal/types"
)

func DistributionHandler(svcCtx *svc.ServiceContext) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req types.DistributionReq
		if err := httpx.Parse(r, &req); err != nil {
			httpx.ErrorCtx(r.Context(), w, err)
			return
		}

		l := logic.NewDistributionLogic(r.Context(), svcCtx)
		resp, err := l.Distribution(&req)
		respond(w, r, resp, err)
	}
}
