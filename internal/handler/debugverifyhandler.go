package handler

import (
	"net/http"

	"breadth-api/internal/logic"
	"breadth-api/internal/svc"
)

func DebugVerifyHandler(svcCtx *svc.ServiceContext) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		l := logic.NewDebugVerifyLogic(r.Context(), svcCtx)
		resp, err := l.DebugVerify()
		respond(w, r, resp, err)
	}
}
