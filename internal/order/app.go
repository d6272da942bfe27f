package order

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"ApniDukan/pkg/kit"
)

type HTTPDeps = kit.ServiceDeps

func NewHandler(s *Server, deps HTTPDeps) http.Handler {
	if s.Log == nil {
		s.Log = deps.Logger()
	}
	if s.Events == nil {
		s.Events = NopPublisher{}
	}

	r := kit.NewServiceRouter(deps)
	r.Get("/readyz", kit.Readyz(s.Log, s.Store.Ping))

	r.Group(func(pr chi.Router) {
		pr.Use(kit.RequireUserHeaders)
		pr.Get("/orders", s.list)
		pr.Post("/orders", s.create)
		pr.Get("/orders/{id}", s.get)
		pr.Put("/orders/{id}/status", s.updateStatus)
	})
	return r
}
