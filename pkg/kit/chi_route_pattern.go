package kit

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

const unmatchedRoute = "unmatched"

func routePattern(r *http.Request) string {
	if rc := chi.RouteContext(r.Context()); rc != nil {
		return rc.RoutePattern()
	}
	return ""
}

// ChiRoutePatternOrPath is meant for logs: it falls back to the raw path.
func ChiRoutePatternOrPath(r *http.Request) string {
	if rp := routePattern(r); rp != "" {
		return rp
	}
	return r.URL.Path
}

// RouteLabel is meant for metric labels. Requests that matched no route share
// one label so probing random paths cannot grow series without bound.
func RouteLabel(r *http.Request) string {
	if rp := routePattern(r); rp != "" && rp != "/*" {
		return rp
	}
	return unmatchedRoute
}
