package middleware

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/AnshRaj112/gather-web/pkg/clientip"
)

const (
	// RateLimitWindow is 120 seconds
	RateLimitWindow = 120 * time.Second
	// RateLimitMaxRequests is the maximum number of requests allowed in the window
	RateLimitMaxRequests = 300
	// RateLimitKeyPrefix is the Redis key prefix for rate limiting
	RateLimitKeyPrefix = "gather_ratelimit:"
	// BlockedIPKeyPrefix is the Redis key prefix for blocked IPs
	BlockedIPKeyPrefix = "gather_blocked_ip:"
	// BlockedIPDuration is how long an IP stays blocked
	BlockedIPDuration = 15 * time.Minute
)

// RedisRateLimit is a fixed-window limiter shared by every instance.
// An IP that exceeds the window is blocked for BlockedIPDuration.
type RedisRateLimit struct {
	rdb *redis.Client
}

func NewRedisRateLimit(rdb *redis.Client) *RedisRateLimit {
	return &RedisRateLimit{rdb: rdb}
}

// Middleware fails open when Redis is unavailable.
func (l *RedisRateLimit) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		ipAddress := clientip.RealClientIP(r)

		blockedKey := BlockedIPKeyPrefix + ipAddress
		isBlocked, err := l.rdb.Exists(ctx, blockedKey).Result()
		if err == nil && isBlocked > 0 {
			http.Error(w, "Your IP has been temporarily blocked due to excessive requests. Please try again later.", http.StatusTooManyRequests)
			return
		}

		rateLimitKey := RateLimitKeyPrefix + ipAddress
		count, err := l.rdb.Incr(ctx, rateLimitKey).Result()
		if err != nil {
			// If Redis fails, allow the request (fail open)
			next.ServeHTTP(w, r)
			return
		}
		if count == 1 {
			// First request in this window
			l.rdb.Expire(ctx, rateLimitKey, RateLimitWindow)
		}

		newCount := int(count)
		if newCount > RateLimitMaxRequests {
			l.rdb.Set(ctx, blockedKey, "1", BlockedIPDuration)
			w.Header().Set("Retry-After", strconv.Itoa(int(BlockedIPDuration.Seconds())))
			http.Error(w, fmt.Sprintf("Rate limit exceeded. Try again in %d minutes.", int(BlockedIPDuration.Minutes())), http.StatusTooManyRequests)
			return
		}

		w.Header().Set("X-RateLimit-Limit", strconv.Itoa(RateLimitMaxRequests))
		w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(RateLimitMaxRequests-newCount))
		next.ServeHTTP(w, r)
	})
}
