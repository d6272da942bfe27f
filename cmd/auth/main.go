package main

import (
	"io"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"ApniDukan/internal/auth"
	"ApniDukan/internal/config"
	"ApniDukan/internal/dbmigrate"
	"ApniDukan/pkg/kit"
)

func main() {
	cfg := config.Load("auth", "8081")
	log := kit.NewLogger(cfg.Service)
	defer func() { _ = log.Sync() }()

	if len(cfg.JWTSecret) < 32 {
		log.Fatal("JWT_SECRET is required and must be at least 32 chars")
	}

	var store auth.UserStore = auth.NewStore()
	var closers []io.Closer
	if cfg.Postgres.DSN != "" {
		db, err := dbmigrate.Open(cfg.Postgres.DSN)
		if err != nil {
			log.Fatal("open postgres failed", zap.Error(err))
		}
		closers = append(closers, db)
		store = auth.NewPostgresStore(db)
	} else {
		log.Warn("DATABASE_URL not set, users are kept in memory")
	}

	s := &auth.Server{
		Log:      log,
		Store:    store,
		JWT:      auth.NewTokenMaker(cfg.JWTSecret),
		TokenTTL: cfg.TokenTTL,
	}

	h := auth.NewHandler(s, auth.HTTPDeps{
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
