package gateway

import (
	"net/http"
	"net/http/httputil"
	"net/url"

	"go.uber.org/zap"

	"ApniDukan/internal/auth"
	"ApniDukan/pkg/kit"
)

// AuthJWT verifies the bearer token and stores the caller identity in the request context.
func AuthJWT(jwt *auth.TokenMaker) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tok, ok := kit.BearerToken(r)
			if !ok {
				kit.WriteError(w, r, http.StatusUnauthorized, "Authentication required", nil)
				return
			}
			claims, err := jwt.Parse(tok)
			if err != nil {
				kit.WriteError(w, r, http.StatusUnauthorized, "Invalid or expired token", nil)
				return
			}

			next.ServeHTTP(w, r.WithContext(kit.WithIdentity(r.Context(), claims.Identity())))
		})
	}
}

// InjectHeaders replaces any client-supplied identity headers with the verified identity.
func InjectHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		for _, h := range kit.IdentityHeaders() {
			r.Header.Del(h)
		}

		if id, ok := kit.IdentityFromContext(r.Context()); ok && id.UserID != "" {
			r.Header.Set(kit.HeaderUserID, id.UserID)
			r.Header.Set(kit.HeaderUserRole, id.Role)
			r.Header.Set(kit.HeaderUserName, id.Name)
			r.Header.Set(kit.HeaderUserEmail, id.Email)
		}

		next.ServeHTTP(w, r)
	})
}

func NewReverseProxy(target string, log *zap.Logger) (*httputil.ReverseProxy, error) {
	u, err := url.Parse(target)
	if err != nil {
		return nil, err
	}

	p := httputil.NewSingleHostReverseProxy(u)
	p.ErrorHandler = func(w http.ResponseWriter, r *http.Request, err error) {
		log.Warn("upstream error",
			zap.String("upstream", u.Host),
			zap.String("path", r.URL.Path),
			zap.Error(err))
		kit.WriteError(w, r, http.StatusBadGateway, "upstream unavailable", nil)
	}
	return p, nil
}

// readsPublic lets GET and HEAD through anonymously and requires a token for writes.
func readsPublic(authn func(http.Handler) http.Handler, next http.Handler) http.Handler {
	public := InjectHeaders(next)
	private := authn(InjectHeaders(next))

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet, http.MethodHead, http.MethodOptions:
			public.ServeHTTP(w, r)
		default:
			private.ServeHTTP(w, r)
		}
	})
}
