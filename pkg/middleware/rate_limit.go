package middleware

import (
	"math"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	apperrors "tablebook/pkg/errors"
	"tablebook/pkg/logger"

	"golang.org/x/time/rate"
)

// ClientKeyFunc identifies the caller a request is charged to.
type ClientKeyFunc func(r *http.Request) string

type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter is a token bucket per client. The bucket refills at
// limit/window and holds up to limit requests, so a client can burst the
// whole window at once but not sustain more than limit per window.
type RateLimiter struct {
	mu         sync.Mutex
	clients    map[string]*clientLimiter
	every      rate.Limit
	burst      int
	idleAfter  time.Duration
	retryAfter string // seconds until one token refills
	keyFunc    ClientKeyFunc
	log        *logger.Logger
	stopCh     chan struct{}
	stopOnce   sync.Once
}

func NewRateLimiter(limit int, window time.Duration, keyFunc ClientKeyFunc, log *logger.Logger) *RateLimiter {
	if keyFunc == nil {
		keyFunc = ClientIP
	}
	rl := &RateLimiter{
		clients:    make(map[string]*clientLimiter),
		every:      rate.Limit(float64(limit) / window.Seconds()),
		burst:      limit,
		idleAfter:  window * 2,
		retryAfter: strconv.Itoa(int(math.Ceil(window.Seconds() / float64(limit)))),
		keyFunc:    keyFunc,
		log:        log,
		stopCh:     make(chan struct{}),
	}

	go rl.cleanup()

	return rl
}

func (rl *RateLimiter) Allow(key string) bool {
	if key == "" {
		return true
	}

	rl.mu.Lock()
	c, ok := rl.clients[key]
	if !ok {
		c = &clientLimiter{limiter: rate.NewLimiter(rl.every, rl.burst)}
		rl.clients[key] = c
	}
	c.lastSeen = time.Now()
	rl.mu.Unlock()

	return c.limiter.Allow()
}

func (rl *RateLimiter) cleanup() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			rl.mu.Lock()
			for key, c := range rl.clients {
				if time.Since(c.lastSeen) > rl.idleAfter {
					delete(rl.clients, key)
				}
			}
			rl.mu.Unlock()
		case <-rl.stopCh:
			return
		}
	}
}

func (rl *RateLimiter) Stop() {
	rl.stopOnce.Do(func() { close(rl.stopCh) })
}

func RateLimit(limiter *RateLimiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := limiter.keyFunc(r)
			if !limiter.Allow(key) {
				limiter.log.Warn("Rate limit exceeded",
					"request_id", RequestID(r.Context()),
					"client", key,
					"path", r.URL.Path,
				)
				w.Header().Set("Retry-After", limiter.retryAfter)
				rejectRequest(w, r, limiter.log, apperrors.RateLimited())
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// ClientIP keys requests by the first X-Forwarded-For hop, falling back to
// the remote address.
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
