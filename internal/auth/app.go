package auth

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"ApniDukan/pkg/kit"
)

type HTTPDeps = kit.ServiceDeps

const (
	loginLimitPerMin    = 5
	registerLimitPerMin = 3
	limitWindow         = time.Minute
)

func NewHandler(s *Server, deps HTTPDeps) http.Handler {
	if s.Log == nil {
		s.Log = deps.Logger()
	}

	r := kit.NewServiceRouter(deps)
	r.Get("/readyz", kit.Readyz(s.Log, s.Store.Ping))
	s.routes(r)
	return r
}

func (s *Server) routes(r chi.Router) {
	loginLimiter := kit.NewIPRateLimiter(loginLimitPerMin, limitWindow)
	registerLimiter := kit.NewIPRateLimiter(registerLimitPerMin, limitWindow)

	r.Route("/auth", func(rr chi.Router) {
		rr.With(loginLimiter.Middleware).Post("/login", s.handleLogin)
		rr.With(registerLimiter.Middleware).Post("/register", s.handleRegister)

		rr.Group(func(pr chi.Router) {
			pr.Use(s.requireToken)
			pr.Post("/logout", s.handleLogout)
			pr.Get("/me", s.handleMe)
			pr.Put("/profile", s.handleProfile)
			pr.Put("/password", s.handlePassword)
		})
	})
}
