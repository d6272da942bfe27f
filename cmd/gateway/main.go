package main

import (
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"ApniDukan/internal/config"
	"ApniDukan/internal/gateway"
	"ApniDukan/pkg/kit"
)

func main() {
	cfg := config.Load("gateway", "8080")
	log := kit.NewLogger(cfg.Service)
	defer func() { _ = log.Sync() }()

	if len(cfg.JWTSecret) < 32 {
		log.Fatal("JWT_SECRET is required and must be at least 32 chars")
	}

	deps := gateway.Deps{
		JWTSecret:  cfg.JWTSecret,
		AuthURL:    cfg.Upstream.AuthURL,
		CatalogURL: cfg.Upstream.CatalogURL,
		OrderURL:   cfg.Upstream.OrderURL,
		UploadURL:  cfg.Upstream.UploadURL,
	}

	h, err := gateway.NewHandler(deps, gateway.HTTPDeps{
		Log:            log,
		Service:        cfg.Service,
		Registry:       prometheus.NewRegistry(),
		MetricsEnabled: cfg.Metrics.Enabled,
		MetricsToken:   cfg.Metrics.Token,
	})
	if err != nil {
		log.Fatal("init gateway handler failed", zap.Error(err))
	}

	if err := kit.RunHTTPServer(cfg.HTTP.Addr, h, log); err != nil {
		log.Fatal("http server stopped", zap.Error(err))
	}
}
