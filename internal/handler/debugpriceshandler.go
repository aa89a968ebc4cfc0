package handler

import (
	"net/http"

	"github.com/zeromicro/go-zero/rest/httpx"

	"breadth-api/internal/logic"
	"breadth-api/internal/svc"
	"breadth-api/internal/types"
)

func DebugPricesHandler(svcCtx *svc.ServiceContext) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req types.DebugPricesReq
		if err := httpx.Parse(r, &req); err != nil {
			httpx.ErrorCtx(r.Context(), w, err)
			return
		}

		l := logic.NewDebugPricesLogic(r.Context(), svcCtx)
		resp, err := l.DebugPrices(&req)
		respond(w, r, resp, err)
	}
}
