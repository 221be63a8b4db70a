package gateway

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// Counter increments a fixed-window counter and reports the new count along
// with the time left in the window.
type Counter interface {
	Incr(ctx context.Context, key string, window time.Duration) (int64, time.Duration, error)
}

type RedisCounter struct {
	client *redis.Client
}

func NewRedisCounter(client *redis.Client) *RedisCounter {
	return &RedisCounter{client: client}
}

func (c *RedisCounter) Incr(ctx context.Context, key string, window time.Duration) (int64, time.Duration, error) {
	count, err := c.client.Incr(ctx, key).Result()
	if err != nil {
		return 0, 0, err
	}

	// The first hit opens the window.
	if count == 1 {
		if err := c.client.Expire(ctx, key, window).Err(); err != nil {
			return 0, 0, err
		}
		return count, window, nil
	}

	ttl, err := c.client.TTL(ctx, key).Result()
	if err != nil {
		return 0, 0, err
	}
	// A key without expiry means a previous Expire was lost; repair it.
	if ttl < 0 {
		if err := c.client.Expire(ctx, key, window).Err(); err != nil {
			return 0, 0, err
		}
		ttl = window
	}
	return count, ttl, nil
}

// RateLimiter allows limit requests per window for each client, method and
// route pattern. When the counter is unavailable requests are let through.
type RateLimiter struct {
	counter Counter
	limit   int
	window  time.Duration
	logger  *slog.Logger
}

func NewRateLimiter(counter Counter, limit int, window time.Duration, logger *slog.Logger) *RateLimiter {
	return &RateLimiter{
		counter: counter,
		limit:   limit,
		window:  window,
		logger:  logger,
	}
}

func (l *RateLimiter) Middleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		route := r.Pattern
		if route == "" {
			route = r.Method + " " + r.URL.Path
		}
		key := "rl:" + clientIP(r) + ":" + route

		count, ttl, err := l.counter.Incr(r.Context(), key, l.window)
		if err != nil {
			l.logger.Warn("rate limiter unavailable, allowing request", "error", err, "route", route)
			next(w, r)
			return
		}

		remaining := l.limit - int(count)
		if remaining < 0 {
			remaining = 0
		}
		reset := int(ttl.Round(time.Second).Seconds())

		w.Header().Set("X-RateLimit-Limit", strconv.Itoa(l.limit))
		w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(remaining))
		w.Header().Set("X-RateLimit-Reset", strconv.Itoa(reset))

		if int(count) > l.limit {
			w.Header().Set("Retry-After", strconv.Itoa(reset))
			l.logger.Info("rate limit exceeded", "route", route, "count", count)
			writeJSONError(w, l.logger, http.StatusTooManyRequests, "too many requests")
			return
		}

		next(w, r)
	}
}

func clientIP(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		first, _, _ := strings.Cut(forwarded, ",")
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
