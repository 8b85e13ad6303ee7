package middleware

import (
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"
)

// RateLimiter is a per-IP token bucket. It guards the snapshot intake
// route: a misconfigured forwarder hammering the API must not starve the
// render pipeline.
type RateLimiter struct {
	mu        sync.RWMutex
	buckets   map[string]*bucket
	rate      int
	window    time.Duration
	cleanup   time.Duration
	whitelist map[string]struct{}
	logger    *slog.Logger
}

type bucket struct {
	tokens      int
	windowStart time.Time
}

type RateLimiterStats struct {
	TrackedIPs       int     `json:"trackedIps"`
	RatePerWindow    int     `json:"ratePerWindow"`
	WindowSeconds    float64 `json:"windowSeconds"`
	WhitelistEntries int     `json:"whitelistEntries"`
}

// NewRateLimiter allows rate requests per window for each client IP.
// Whitelisted IPs bypass the limiter entirely.
func NewRateLimiter(rate int, window time.Duration, whitelist []string, logger *slog.Logger) *RateLimiter {
	wl := make(map[string]struct{}, len(whitelist))
	for _, ip := range whitelist {
		ip = strings.TrimSpace(ip)
		if ip != "" {
			wl[ip] = struct{}{}
		}
	}

	rl := &RateLimiter{
		buckets:   make(map[string]*bucket),
		rate:      rate,
		window:    window,
		cleanup:   window * 2,
		whitelist: wl,
		logger:    logger.With("component", "rate_limiter"),
	}

	go rl.cleanupLoop()

	return rl
}

// cleanupLoop drops buckets idle for two windows so the map does not grow
// with every IP that ever connected.
func (rl *RateLimiter) cleanupLoop() {
	ticker := time.NewTicker(rl.cleanup)
	defer ticker.Stop()
	for range ticker.C {
		rl.mu.Lock()
		now := time.Now()
		for ip, b := range rl.buckets {
			if now.Sub(b.windowStart) > rl.cleanup {
				delete(rl.buckets, ip)
			}
		}
		rl.mu.Unlock()
	}
}

func (rl *RateLimiter) IsWhitelisted(ip string) bool {
	_, ok := rl.whitelist[ip]
	return ok
}

// Allow consumes one token for the IP, refilling when its window rolled
// over.
func (rl *RateLimiter) Allow(ip string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	b, exists := rl.buckets[ip]

	if !exists {
		rl.buckets[ip] = &bucket{
			tokens:      rl.rate - 1,
			windowStart: now,
		}
		return true
	}

	if now.Sub(b.windowStart) > rl.window {
		b.tokens = rl.rate - 1
		b.windowStart = now
		return true
	}

	if b.tokens > 0 {
		b.tokens--
		return true
	}

	return false
}

func (rl *RateLimiter) Middleware(next http.Handler) http.Handler {
	retryAfter := strconv.Itoa(int(rl.window.Seconds()))

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := getClientIP(r)
		if rl.IsWhitelisted(ip) {
			next.ServeHTTP(w, r)
			return
		}

		if !rl.Allow(ip) {
			rl.logger.Warn("rate limit exceeded", "ip", ip, "path", r.URL.Path)
			w.Header().Set("Retry-After", retryAfter)
			http.Error(w, "Too Many Requests", http.StatusTooManyRequests)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// getClientIP prefers proxy headers over RemoteAddr. X-Forwarded-For may
// carry a chain ("client, proxy1, proxy2"); the first hop is the client.
func getClientIP(r *http.Request) string {
	if xff := strings.TrimSpace(r.Header.Get("X-Forwarded-For")); xff != "" {
		first := strings.TrimSpace(strings.Split(xff, ",")[0])
		if host, _, err := net.SplitHostPort(first); err == nil {
			return host
		}
		return first
	}

	if xri := strings.TrimSpace(r.Header.Get("X-Real-IP")); xri != "" {
		return xri
	}

	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}

func (rl *RateLimiter) Stats() RateLimiterStats {
	rl.mu.RLock()
	defer rl.mu.RUnlock()

	return RateLimiterStats{
		TrackedIPs:       len(rl.buckets),
		RatePerWindow:    rl.rate,
		WindowSeconds:    rl.window.Seconds(),
		WhitelistEntries: len(rl.whitelist),
	}
}
