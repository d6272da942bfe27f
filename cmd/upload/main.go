package main

import (
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"ApniDukan/internal/config"
	"ApniDukan/internal/upload"
	"ApniDukan/pkg/kit"
)

func main() {
	cfg := config.Load("upload", "8084")
	log := kit.NewLogger(cfg.Service)
	defer func() { _ = log.Sync() }()

	if err := os.MkdirAll(cfg.UploadDir, 0o755); err != nil {
		log.Fatal("create upload dir failed", zap.String("dir", cfg.UploadDir), zap.Error(err))
	}

	h := upload.NewHandler(&upload.Server{Dir: cfg.UploadDir, Log: log}, upload.HTTPDeps{
		Log:            log,
		Service:        cfg.Service,
		Registry:       prometheus.NewRegistry(),
		MetricsEnabled: cfg.Metrics.Enabled,
		MetricsToken:   cfg.Metrics.Token,
	})

	if err := kit.RunHTTPServer(cfg.HTTP.Addr, h, log); err != nil {
		log.Fatal("http server stopped", zap.Error(err))
	}
}
