package svc

import (
	"database/sql"
	"log"

	_ "github.com/jackc/pgx/v5/stdlib" // register pgx driver
	"github.com/zeromicro/go-zero/core/stores/sqlx"

	"breadth-api/internal/config"
	"breadth-api/internal/index"
	"breadth-api/internal/model"
	marketpkg "breadth-api/pkg/market"
	_ "breadth-api/pkg/market/binance"
)

type ServiceContext struct {
	Config config.Config

	DBConn           sqlx.SqlConn
	CandlesModel     model.CandlesModel
	MarketIndexModel model.MarketIndexModel
	BasePricesModel  model.BasePricesModel

	MarketConfig   *marketpkg.Config
	MarketProvider marketpkg.Provider

	Index *index.Service
}

func NewServiceContext(c config.Config) *ServiceContext {
	svc := &ServiceContext{Config: c}

	if c.Market.Value == nil {
		log.Fatalf("market config section is required")
	}
	svc.MarketConfig = c.Market.Value
	provider, err := svc.MarketConfig.BuildDefault()
	if err != nil {
		log.Fatalf("failed to build market provider: %v", err)
	}
	svc.MarketProvider = provider

	if c.Postgres.DSN == "" {
		log.Fatalf("postgres dsn is required")
	}
	db, err := sql.Open("pgx", c.Postgres.DSN)
	if err != nil {
		log.Fatalf("failed to open postgres: %v", err)
	}
	db.SetMaxOpenConns(c.Postgres.MaxOpenConns)
	db.SetMaxIdleConns(c.Postgres.MaxIdleConns)
	conn := sqlx.NewSqlConnFromDB(db)
	svc.DBConn = conn
	svc.CandlesModel = model.NewCandlesModel(conn)
	svc.MarketIndexModel = model.NewMarketIndexModel(conn)
	svc.BasePricesModel = model.NewBasePricesModel(conn)

	idxConf := index.Config{
		BackfillDays:        c.Index.BackfillDays,
		BackfillConcurrency: c.Index.BackfillConcurrency,
		CollectConcurrency:  c.Index.CollectConcurrency,
	}
	providerName := svc.MarketConfig.Default
	if providerName == "" && len(svc.MarketConfig.Providers) == 1 {
		for name := range svc.MarketConfig.Providers {
			providerName = name
		}
	}
	if providerCfg, ok := svc.MarketConfig.Providers[providerName]; ok {
		idxConf.RequestInterval = providerCfg.RequestInterval
	}
	idx, err := index.NewService(index.Dependencies{
		Candles:    svc.CandlesModel,
		Index:      svc.MarketIndexModel,
		BasePrices: svc.BasePricesModel,
		Provider:   svc.MarketProvider,
	}, idxConf)
	if err != nil {
		log.Fatalf("failed to build index service: %v", err)
	}
	svc.Index = idx

	return svc
}
