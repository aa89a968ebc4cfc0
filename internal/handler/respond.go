package handler

import (
	"errors"
	"net/http"

	"github.com/zeromicro/go-zero/rest/httpx"

	"breadth-api/internal/logic"
)

// respond writes the logic result. A BadRequestError carries its own
// response body and maps to HTTP 400.
func respond(w http.ResponseWriter, r *http.Request, resp any, err error) {
	if err != nil {
		var bad *logic.BadRequestError
		if errors.As(err, &bad) {
			httpx.WriteJsonCtx(r.Context(), w, http.StatusBadRequest, bad.Resp)
			return
		}
		httpx.ErrorCtx(r.Context(), w, err)
		return
	}
	httpx.OkJsonCtx(r.Context(), w, resp)
}
