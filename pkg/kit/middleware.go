package kit

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// Recoverer turns a panicking handler into a JSON 500 and logs the panic.
func Recoverer(log *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				log.Error("handler panic",
					zap.String("request_id", middleware.GetReqID(r.Context())),
					zap.String("path", r.URL.Path),
					zap.Any("panic", rec),
					zap.StackSkip("stack", 2),
				)
				WriteError(w, r, http.StatusInternalServerError, "server error", nil)
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// Logging writes one line per request. Requests that reached a service
// through the gateway also carry the caller's id and role.
func Logging(log *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			fields := []zap.Field{
				zap.String("request_id", middleware.GetReqID(r.Context())),
				zap.String("method", r.Method),
				zap.String("route", ChiRoutePatternOrPath(r)),
				zap.Int("status", ww.Status()),
				zap.Int("bytes", ww.BytesWritten()),
				zap.Duration("duration", time.Since(start)),
			}
			if uid := r.Header.Get(HeaderUserID); uid != "" {
				fields = append(fields, zap.String("user_id", uid), zap.String("role", r.Header.Get(HeaderUserRole)))
			}

			switch {
			case ww.Status() >= http.StatusInternalServerError:
				log.Warn("request", fields...)
			case r.URL.Path == "/healthz" || r.URL.Path == "/readyz":
				log.Debug("request", fields...)
			default:
				log.Info("request", fields...)
			}
		})
	}
}

// Base installs the middleware every service shares.
func Base(r interface{ Use(...func(http.Handler) http.Handler) }, log *zap.Logger) {
	if log == nil {
		log = zap.NewNop()
	}
	r.Use(middleware.RequestID)
	r.Use(Recoverer(log))
	r.Use(Logging(log))
}
