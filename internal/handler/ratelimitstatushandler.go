package handler

import (
	"net/http"

	"breadth-api/internal/logic"
	"breadth-api/internal/svc"
)

func RateLimitStatusHandler(svcCtx *svc.ServiceContext) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		l := logic.NewRateLimitStatusLogic(r.Context(), svcCtx)
		resp, err := l.RateLimitStatus()
		respond(w, r, resp, err)
	}
}
