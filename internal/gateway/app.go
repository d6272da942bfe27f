package gateway

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"ApniDukan/internal/auth"
	"ApniDukan/pkg/kit"
)

type HTTPDeps = kit.ServiceDeps

type Deps struct {
	AuthURL    string
	CatalogURL string
	OrderURL   string
	UploadURL  string
	JWTSecret  string
}

const (
	readyTimeout      = 2 * time.Second
	readyProbeTimeout = 700 * time.Millisecond
)

var readyClient = &http.Client{
	Transport: &http.Transport{
		MaxIdleConns:        50,
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     30 * time.Second,
	},
}

type upstream struct {
	name string
	url  string
}

func (d Deps) upstreams() []upstream {
	return []upstream{
		{"auth", d.AuthURL},
		{"catalog", d.CatalogURL},
		{"order", d.OrderURL},
		{"upload", d.UploadURL},
	}
}

func NewHandler(deps Deps, httpDeps HTTPDeps) (http.Handler, error) {
	log := httpDeps.Logger()

	proxies := make(map[string]http.Handler, 4)
	for _, u := range deps.upstreams() {
		p, err := NewReverseProxy(u.url, log)
		if err != nil {
			return nil, fmt.Errorf("%s proxy: %w", u.name, err)
		}
		proxies[u.name] = p
	}

	authn := AuthJWT(auth.NewTokenMaker(deps.JWTSecret))

	r := kit.NewServiceRouter(httpDeps)
	r.Get("/readyz", readyz(deps, log))

	authProxy := InjectHeaders(proxies["auth"])
	r.Handle("/auth", authProxy)
	r.Handle("/auth/*", authProxy)

	catalogProxy := readsPublic(authn, proxies["catalog"])
	r.Handle("/shops", catalogProxy)
	r.Handle("/shops/*", catalogProxy)
	r.Handle("/products", catalogProxy)
	r.Handle("/products/*", catalogProxy)

	r.Handle("/uploads/*", InjectHeaders(proxies["upload"]))

	r.Group(func(pr chi.Router) {
		pr.Use(authn)
		pr.Use(InjectHeaders)

		pr.Handle("/orders", proxies["order"])
		pr.Handle("/orders/*", proxies["order"])
		pr.Handle("/upload", proxies["upload"])
		pr.Handle("/upload/*", proxies["upload"])
	})

	return r, nil
}

func readyz(deps Deps, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), readyTimeout)
		defer cancel()

		for _, u := range deps.upstreams() {
			if err := checkReady(ctx, u.url+"/readyz"); err != nil {
				log.Warn("readyz failed", zap.String("upstream", u.name), zap.Error(err))
				kit.WriteError(w, r, http.StatusServiceUnavailable, u.name+" not ready", nil)
				return
			}
		}

		w.WriteHeader(http.StatusOK)
	}
}

func checkReady(ctx context.Context, url string) error {
	cctx, cancel := context.WithTimeout(ctx, readyProbeTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(cctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}

	resp, err := readyClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("status=%d", resp.StatusCode)
	}

	return nil
}
