// Code scaffolded by goctl. Safe to edit.
// goctl 1.9.2

package main

import (
	"context"
	"flag"
	"fmt"

	"github.com/zeromicro/go-zero/core/logx"
	"github.com/zeromicro/go-zero/core/service"
	"github.com/zeromicro/go-zero/core/threading"
	"github.com/zeromicro/go-zero/rest"

	"breadth-api/internal/cli"
	"breadth-api/internal/config"
	"breadth-api/internal/handler"
	"breadth-api/internal/scheduler"
	"breadth-api/internal/svc"
)

var configFile = flag.String("f", "etc/breadth-api.yaml", "the config file")

func main() {
	flag.Parse()

	cfg := config.MustLoad(*configFile)
	cli.LogConfigSummary(cfg)

	server := rest.MustNewServer(cfg.RestConf)

	ctx := svc.NewServiceContext(*cfg)
	handler.RegisterHandlers(server, ctx)

	if err := ctx.Index.Registry().Load(context.Background()); err != nil {
		logx.Errorf("load base prices: %v", err)
	}

	if cfg.Index.BackfillOnStart {
		threading.GoSafe(func() {
			if err := ctx.Index.Backfill(context.Background()); err != nil {
				logx.Errorf("startup backfill: %v", err)
			}
		})
	} else {
		ctx.Index.MarkBackfillComplete()
	}

	group := service.NewServiceGroup()
	defer group.Stop()
	group.Add(scheduler.New(ctx.Index))
	group.Add(server)

	fmt.Printf("Starting server at %s:%d...\n", cfg.Host, cfg.Port)
	group.Start()
}
