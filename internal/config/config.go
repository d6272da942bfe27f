package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type HTTP struct {
	Addr string
}

type Metrics struct {
	Enabled bool
	Token   string
}

type Postgres struct {
	DSN string
}

type Kafka struct {
	Brokers []string
	Topic   string
}

type Upstreams struct {
	AuthURL    string
	CatalogURL string
	OrderURL   string
	UploadURL  string
}

type Config struct {
	Service string

	HTTP     HTTP
	Metrics  Metrics
	Postgres Postgres
	Kafka    Kafka
	Upstream Upstreams

	JWTSecret   string
	TokenTTL    time.Duration
	UploadDir   string
	CallTimeout time.Duration
}

// Load reads an optional .env file and then the process environment.
// defaultPort is the service's conventional listen port.
func Load(service, defaultPort string) Config {
	_ = godotenv.Load()

	return Config{
		Service: service,
		HTTP: HTTP{
			Addr: ":" + envDefault("PORT", defaultPort),
		},
		Metrics: Metrics{
			Enabled: envBool("METRICS_ENABLED", true),
			Token:   os.Getenv("METRICS_TOKEN"),
		},
		Postgres: Postgres{
			DSN: strings.TrimSpace(os.Getenv("DATABASE_URL")),
		},
		Kafka: Kafka{
			Brokers: splitCSV(os.Getenv("KAFKA_BROKERS")),
			Topic:   envDefault("KAFKA_TOPIC", "order-events"),
		},
		Upstream: Upstreams{
			AuthURL:    envDefault("AUTH_URL", "http://auth:8081"),
			CatalogURL: envDefault("CATALOG_URL", "http://catalog:8082"),
			OrderURL:   envDefault("ORDER_URL", "http://order:8083"),
			UploadURL:  envDefault("UPLOAD_URL", "http://upload:8084"),
		},
		JWTSecret:   os.Getenv("JWT_SECRET"),
		TokenTTL:    envDuration("TOKEN_TTL", 24*time.Hour),
		UploadDir:   envDefault("UPLOAD_DIR", "uploads"),
		CallTimeout: envDuration("CALL_TIMEOUT", 3*time.Second),
	}
}

func envDefault(k, def string) string {
	if v := strings.TrimSpace(os.Getenv(k)); v != "" {
		return v
	}
	return def
}

func envBool(k string, def bool) bool {
	v := strings.TrimSpace(os.Getenv(k))
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

// envDuration accepts Go duration strings ("1.5s") or plain milliseconds ("1500").
func envDuration(k string, def time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(k))
	if v == "" {
		return def
	}
	if ms, err := strconv.Atoi(v); err == nil {
		return time.Duration(ms) * time.Millisecond
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def
	}
	return d
}

func splitCSV(s string) []string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	raw := strings.Split(s, ",")
	out := make([]string, 0, len(raw))
	for _, p := range raw {
		if t := strings.TrimSpace(p); t != "" {
			out = append(out, t)
		}
	}
	return out
}
