package handler

import (
	"net/http"

	"github.com/zeromicro/go-zero/rest"

	"breadth-api/internal/svc"
)

func RegisterHandlers(server *rest.Server, serverCtx *svc.ServiceContext) {
	server.AddRoutes(
		[]rest.Route{
			{
				Method:  http.MethodGet,
				Path:    "/current",
				Handler: CurrentHandler(serverCtx),
			},
			{
				Method:  http.MethodGet,
				Path:    "/history",
				Handler: HistoryHandler(serverCtx),
			},
			{
				Method:  http.MethodGet,
				Path:    "/stats",
				Handler: StatsHandler(serverCtx),
			},
			{
				Method:  http.MethodGet,
				Path:    "/distribution",
				Handler: DistributionHandler(serverCtx),
			},
			{
				Method:  http.MethodGet,
				Path:    "/uptrend-distribution",
				Handler: UptrendDistributionHandler(serverCtx),
			},
			{
				Method:  http.MethodGet,
				Path:    "/debug/prices",
				Handler: DebugPricesHandler(serverCtx),
			},
			{
				Method:  http.MethodGet,
				Path:    "/debug/basePrices",
				Handler: DebugBasePricesHandler(serverCtx),
			},
			{
				Method:  http.MethodGet,
				Path:    "/debug/verify",
				Handler: DebugVerifyHandler(serverCtx),
			},
			{
				Method:  http.MethodDelete,
				Path:    "/data",
				Handler: DeleteDataHandler(serverCtx),
			},
			{
				Method:  http.MethodDelete,
				Path:    "/symbol/:symbol",
				Handler: DeleteSymbolHandler(serverCtx),
			},
			{
				Method:  http.MethodPost,
				Path:    "/repair",
				Handler: RepairHandler(serverCtx),
			},
			{
				Method:  http.MethodGet,
				Path:    "/ratelimit",
				Handler: RateLimitStatusHandler(serverCtx),
			},
			{
				Method:  http.MethodPost,
				Path:    "/ratelimit/reset",
				Handler: RateLimitResetHandler(serverCtx),
			},
		},
		rest.WithPrefix("/api/index"),
	)
}
