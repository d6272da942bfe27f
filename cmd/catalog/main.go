package main

import (
	"io"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"ApniDukan/internal/catalog"
	"ApniDukan/internal/config"
	"ApniDukan/internal/dbmigrate"
	"ApniDukan/pkg/kit"
)

func main() {
	cfg := config.Load("catalog", "8082")
	log := kit.NewLogger(cfg.Service)
	defer func() { _ = log.Sync() }()

	var store catalog.Store = catalog.NewStore()
	var closers []io.Closer
	if cfg.Postgres.DSN != "" {
		db, err := dbmigrate.Open(cfg.Postgres.DSN)
		if err != nil {
			log.Fatal("open postgres failed", zap.Error(err))
		}
		closers = append(closers, db)
		store = catalog.NewPostgresStore(db)
	} else {
		log.Warn("DATABASE_URL not set, shops and products are kept in memory")
	}

	h := catalog.NewHandler(&catalog.Server{Store: store, Log: log}, catalog.HTTPDeps{
		Log:            log,
		Service:        cfg.Service,
		Registry:       prometheus.NewRegistry(),
		MetricsEnabled: cfg.Metrics.Enabled,
		MetricsToken:   cfg.Metrics.Token,
	})

	if err := kit.RunHTTPServer(cfg.HTTP.Addr, h, log, closers...); err != nil {
		log.Fatal("http server stopped", zap.Error(err))
	}
}
