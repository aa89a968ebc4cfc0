package handler

import (
	"net/http"

	"breadth-api/internal/logic"
	"breadth-api/internal/svc"
)

func RateLimitResetHandler(svcCtx *svc.ServiceContext) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		l := logic.NewRateLimitResetLogic(r.Context(), svcCtx)
		resp, err := l.RateLimitReset()
		respond(w, r, resp, err)
	}
}
