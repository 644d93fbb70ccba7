package middleware

import (
	apperrors "busbook/pkg/errors"
	httputil "busbook/pkg/http"
	"busbook/pkg/logger"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"
)

// ClientKeyFunc identifies the caller a request is counted against.
type ClientKeyFunc func(r *http.Request) string

// ClientRateLimiter is a sliding-window limiter keyed by client.
type ClientRateLimiter struct {
	mu       sync.Mutex
	requests map[string][]time.Time
	limit    int
	window   time.Duration
	keyFunc  ClientKeyFunc
	log      *logger.Logger
	now      func() time.Time
	stopCh   chan struct{}
	stopOnce sync.Once
}

func NewClientRateLimiter(limit int, window time.Duration, keyFunc ClientKeyFunc, log *logger.Logger) *ClientRateLimiter {
	if keyFunc == nil {
		keyFunc = ClientIP
	}
	limiter := &ClientRateLimiter{
		requests: make(map[string][]time.Time),
		limit:    limit,
		window:   window,
		keyFunc:  keyFunc,
		log:      log,
		now:      time.Now,
		stopCh:   make(chan struct{}),
	}

	go limiter.evictLoop()

	return limiter
}

func (rl *ClientRateLimiter) evictLoop() {
	interval := rl.window * 10
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			rl.evict()
		case <-rl.stopCh:
			return
		}
	}
}

func (rl *ClientRateLimiter) evict() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	for key, stamps := range rl.requests {
		if len(stamps) == 0 || now.Sub(stamps[len(stamps)-1]) >= rl.window {
			delete(rl.requests, key)
		}
	}
}

func (rl *ClientRateLimiter) Stop() {
	rl.stopOnce.Do(func() { close(rl.stopCh) })
}

// Allow records a request for key and reports whether it is within the limit.
func (rl *ClientRateLimiter) Allow(key string) bool {
	if key == "" || rl.limit <= 0 {
		return true
	}

	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	stamps := rl.requests[key]
	kept := stamps[:0]
	for _, ts := range stamps {
		if now.Sub(ts) < rl.window {
			kept = append(kept, ts)
		}
	}

	if len(kept) >= rl.limit {
		rl.requests[key] = kept
		return false
	}

	rl.requests[key] = append(kept, now)
	return true
}

func RateLimit(limiter *ClientRateLimiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := limiter.keyFunc(r)
			if limiter.Allow(key) {
				next.ServeHTTP(w, r)
				return
			}

			limiter.log.Warn("Rate limit exceeded",
				"request_id", RequestIDFrom(r.Context()),
				"client", key,
				"path", r.URL.Path,
			)
			w.Header().Set("Retry-After", retryAfter(limiter.window))
			if writeErr := httputil.WriteError(w, apperrors.RateLimited("Rate limit exceeded")); writeErr != nil {
				limiter.log.Error("failed to write error response", "middleware", "RateLimit", "error", writeErr)
			}
		})
	}
}

func retryAfter(window time.Duration) string {
	secs := int(window / time.Second)
	if secs < 1 {
		secs = 1
	}
	return strconv.Itoa(secs)
}

// ClientIP keys requests by the first X-Forwarded-For hop, else the peer address.
func ClientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		first, _, _ := strings.Cut(fwd, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
