package kit

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

const readyCheckTimeout = time.Second

// ServiceDeps is what every HTTP service needs besides its own state.
// A nil Registry turns metrics off.
type ServiceDeps struct {
	Log      *zap.Logger
	Service  string
	Registry *prometheus.Registry

	MetricsEnabled bool
	MetricsToken   string
}

func (d ServiceDeps) Logger() *zap.Logger {
	if d.Log == nil {
		return zap.NewNop()
	}
	return d.Log
}

// NewServiceRouter returns a router with the shared middleware, metrics and /healthz installed.
func NewServiceRouter(deps ServiceDeps) chi.Router {
	r := chi.NewRouter()
	Base(r, deps.Logger())
	MountMetrics(r, MetricsDeps{
		Service:  deps.Service,
		Registry: deps.Registry,
		Enabled:  deps.MetricsEnabled,
		Token:    deps.MetricsToken,
	})
	r.Get("/healthz", Healthz)
	return r
}

// Readyz answers 200 when ping succeeds within a second and 503 otherwise.
func Readyz(log *zap.Logger, ping func(ctx context.Context) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), readyCheckTimeout)
		defer cancel()

		if err := ping(ctx); err != nil {
			log.Warn("readyz failed", zap.Error(err))
			WriteError(w, r, http.StatusServiceUnavailable, "not ready", nil)
			return
		}
		w.WriteHeader(http.StatusOK)
	}
}
