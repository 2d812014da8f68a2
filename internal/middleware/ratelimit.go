package middleware

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// RateLimiter provides per-IP sliding-window rate limiting backed by Redis
// sorted sets. Each generated answer costs an inference call, so the
// dialogue endpoint is limited per client.
type RateLimiter struct {
	client    redis.Cmdable
	scope     string
	maxReqs   int
	windowSec int
}

// NewRateLimiter creates a rate limiter that allows maxReqs per windowSec
// seconds for each client IP within scope.
func NewRateLimiter(client redis.Cmdable, scope string, maxReqs, windowSec int) *RateLimiter {
	return &RateLimiter{client: client, scope: scope, maxReqs: maxReqs, windowSec: windowSec}
}

// Middleware returns an HTTP middleware that enforces the rate limit.
// On Redis errors it fails open (allows the request through).
func (rl *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := clientIP(r)
		key := "ratelimit:" + rl.scope + ":" + ip

		allowed, err := rl.allow(r.Context(), key)
		if err != nil {
			slog.Warn("rate limiter: redis error, failing open", "error", err, "ip", ip, "scope", rl.scope)
			next.ServeHTTP(w, r)
			return
		}

		if !allowed {
			slog.Info("rate limit exceeded", "ip", ip, "scope", rl.scope)
			w.Header().Set("Retry-After", strconv.Itoa(rl.windowSec))
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusTooManyRequests)
			_, _ = w.Write([]byte(`{"error":"too many requests"}` + "\n"))
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (rl *RateLimiter) allow(ctx context.Context, key string) (bool, error) {
	now := time.Now()
	windowStart := float64(now.Add(-time.Duration(rl.windowSec) * time.Second).UnixMilli())
	member := strconv.FormatInt(now.UnixNano(), 10)
	score := float64(now.UnixMilli())

	pipe := rl.client.Pipeline()
	pipe.ZRemRangeByScore(ctx, key, "-inf", fmt.Sprintf("%f", windowStart))
	countCmd := pipe.ZCard(ctx, key)
	pipe.ZAdd(ctx, key, redis.Z{Score: score, Member: member})
	pipe.Expire(ctx, key, time.Duration(rl.windowSec)*time.Second+time.Second)

	if _, err := pipe.Exec(ctx); err != nil {
		return false, err
	}

	return countCmd.Val() < int64(rl.maxReqs), nil
}

func clientIP(r *http.Request) string {
	// First X-Forwarded-For hop, set by the trusted reverse proxy.
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		return strings.TrimSpace(first)
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
