package handler

import (
	"net/http"

	"breadth-api/internal/logic"
	"breadth-api/internal/svc"
)

func StatsHandler(svcCtx *svc.ServiceContext) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		l := logic.NewStatsLogic(r.Context(), svcCtx)
		resp, err := l.Stats()
		respond(w, r, resp, err)
	}
}
