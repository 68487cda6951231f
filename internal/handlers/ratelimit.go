package handlers

import (
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/ShameelMohamed/FASHN8/config"
	"github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"
)

const limiterIdleTTL = 10 * time.Minute

// RateLimiter hands out a token bucket per authenticated user, falling back
// to the client address for anonymous requests.
type RateLimiter struct {
	limit    rate.Limit
	burst    int
	mu       sync.Mutex
	limiters *cache.Cache
}

// NewRateLimiter returns nil when cfg disables limiting.
func NewRateLimiter(cfg config.RateLimitConfig) *RateLimiter {
	if cfg.RPS <= 0 {
		return nil
	}
	burst := cfg.Burst
	if burst < 1 {
		burst = 1
	}
	return &RateLimiter{
		limit:    rate.Limit(cfg.RPS),
		burst:    burst,
		limiters: cache.New(limiterIdleTTL, limiterIdleTTL),
	}
}

// Middleware rejects requests over the limit with 429. A nil limiter lets
// everything through.
func (l *RateLimiter) Middleware(next http.Handler) http.Handler {
	if l == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !l.limiter(clientKey(r)).Allow() {
			w.Header().Set("Retry-After", "1")
			writeError(w, http.StatusTooManyRequests, "too many requests")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (l *RateLimiter) limiter(key string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	if v, ok := l.limiters.Get(key); ok {
		l.limiters.SetDefault(key, v)
		return v.(*rate.Limiter)
	}
	lim := rate.NewLimiter(l.limit, l.burst)
	l.limiters.SetDefault(key, lim)
	return lim
}

func clientKey(r *http.Request) string {
	if username, err := usernameFromContext(r.Context()); err == nil {
		return "user:" + username
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	return "ip:" + host
}
