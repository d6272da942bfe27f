package kit

import (
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/time/rate"
)

const maxTrackedClients = 10000

// IPRateLimiter gives every client address a token bucket of limit requests
// refilled evenly over window. The least recently seen clients are forgotten
// once maxTrackedClients is reached.
type IPRateLimiter struct {
	limit  int
	window time.Duration
	now    func() time.Time

	mu      sync.Mutex
	buckets *lru.Cache[string, *rate.Limiter]
}

func NewIPRateLimiter(limit int, window time.Duration) *IPRateLimiter {
	buckets, _ := lru.New[string, *rate.Limiter](maxTrackedClients)
	return &IPRateLimiter{
		limit:   limit,
		window:  window,
		now:     time.Now,
		buckets: buckets,
	}
}

func (l *IPRateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !l.Allow(clientIP(r)) {
			w.Header().Set("Retry-After", strconv.Itoa(int(l.window.Seconds())))
			WriteError(w, r, http.StatusTooManyRequests, "Too many requests, please try again later", nil)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (l *IPRateLimiter) Allow(key string) bool {
	l.mu.Lock()
	b, ok := l.buckets.Get(key)
	if !ok {
		b = rate.NewLimiter(rate.Every(l.window/time.Duration(l.limit)), l.limit)
		l.buckets.Add(key, b)
	}
	l.mu.Unlock()

	return b.AllowN(l.now(), 1)
}

// clientIP prefers the first X-Forwarded-For hop set by a fronting proxy.
func clientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil && host != "" {
		return host
	}
	return r.RemoteAddr
}
