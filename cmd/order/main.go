package main

import (
	"io"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"ApniDukan/internal/config"
	"ApniDukan/internal/dbmigrate"
	"ApniDukan/internal/order"
	"ApniDukan/pkg/kit"
)

func main() {
	cfg := config.Load("order", "8083")
	log := kit.NewLogger(cfg.Service)
	defer func() { _ = log.Sync() }()

	var store order.Store = order.NewStore()
	var closers []io.Closer
	if cfg.Postgres.DSN != "" {
		db, err := dbmigrate.Open(cfg.Postgres.DSN)
		if err != nil {
			log.Fatal("open postgres failed", zap.Error(err))
		}
		closers = append(closers, db)
		store = order.NewPostgresStore(db)
	} else {
		log.Warn("DATABASE_URL not set, orders are kept in memory")
	}

	var events order.Publisher = order.NopPublisher{}
	if len(cfg.Kafka.Brokers) > 0 {
		kp := order.NewKafkaPublisher(cfg.Kafka.Topic, cfg.Kafka.Brokers...)
		closers = append(closers, kp)
		events = kp
		log.Info("publishing order events", zap.Strings("brokers", cfg.Kafka.Brokers), zap.String("topic", cfg.Kafka.Topic))
	}

	s := &order.Server{
		Store:   store,
		Catalog: order.NewCatalogClient(cfg.Upstream.CatalogURL, cfg.CallTimeout, log),
		Events:  events,
		Log:     log,
	}

	h := order.NewHandler(s, order.HTTPDeps{
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
