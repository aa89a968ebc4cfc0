package handler

import (
	"net/http"

	"breadth-api/internal/logic"
	"breadth-api/internal/svc"
)

func CurrentHandler(svcCtx *svc.ServiceContext) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		l := logic.NewCurrentLogic(r.Context(), svcCtx)
		resp, err := l.Current()
		respond(w, r, resp, err)
	}
}
