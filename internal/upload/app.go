package upload

import (
	"net/http"

	"ApniDukan/pkg/kit"
)

type HTTPDeps = kit.ServiceDeps

func NewHandler(s *Server, deps HTTPDeps) http.Handler {
	if s.Log == nil {
		s.Log = deps.Logger()
	}

	r := kit.NewServiceRouter(deps)
	s.routes(r)
	return r
}
