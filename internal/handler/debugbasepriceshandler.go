package handler

import (
	"net/http"

	"breadth-api/internal/logic"
	"breadth-api/internal/svc"
)

func DebugBasePricesHandler(svcCtx *svc.ServiceContext) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		l := logic.NewDebugBasePricesLogic(r.Context(), svcCtx)
		resp, err := l.DebugBasePrices()
		respond(w, r, resp, err)
	}
}
