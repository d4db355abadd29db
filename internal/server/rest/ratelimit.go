package rest

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/dmitrijs2005/moodjournal/internal/common"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

// Limiter decides whether another request for key fits in the window.
type Limiter interface {
	Allow(ctx context.Context, key string) (allowed bool, retryAfter time.Duration, err error)
}

// atomic INCR, PEXPIRE on the first hit of a window
var incrExpireScript = redis.NewScript(`
local current = redis.call("INCR", KEYS[1])
if current == 1 then
  redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
return {current, redis.call("PTTL", KEYS[1])}
`)

// RedisLimiter is a fixed-window counter kept in Redis.
type RedisLimiter struct {
	rdb    redis.Scripter
	limit  int
	window time.Duration
}

func NewRedisLimiter(rdb redis.Scripter, limit int, window time.Duration) *RedisLimiter {
	return &RedisLimiter{rdb: rdb, limit: limit, window: window}
}

func (l *RedisLimiter) Allow(ctx context.Context, key string) (bool, time.Duration, error) {
	res, err := incrExpireScript.Run(ctx, l.rdb, []string{key}, l.window.Milliseconds()).Int64Slice()
	if err != nil {
		return false, 0, err
	}
	count, ttl := res[0], res[1]
	if count > int64(l.limit) {
		if ttl < 0 {
			ttl = l.window.Milliseconds()
		}
		return false, time.Duration(ttl) * time.Millisecond, nil
	}
	return true, 0, nil
}

func rateLimitKey(c *gin.Context) string {
	path := c.FullPath()
	if path == "" {
		path = c.Request.URL.Path
	}
	ip := c.ClientIP()
	if ip == "" {
		ip = "unknown"
	}
	return "rl:path:" + path + ":ip:" + ip
}

// rateLimit fails open: a Redis error is logged and the request proceeds.
func (s *RESTServer) rateLimit() gin.HandlerFunc {
	if s.opts.Limiter == nil {
		return func(c *gin.Context) { c.Next() }
	}
	return func(c *gin.Context) {
		if strings.EqualFold(c.Request.Method, http.MethodOptions) {
			c.Next()
			return
		}

		allowed, retry, err := s.opts.Limiter.Allow(c.Request.Context(), rateLimitKey(c))
		if err != nil {
			s.logger.Warn(c.Request.Context(), "rate limiter unavailable", "error", err)
			c.Next()
			return
		}
		if !allowed {
			if secs := int(retry.Round(time.Second).Seconds()); secs > 0 {
				c.Header("Retry-After", strconv.Itoa(secs))
			}
			s.writeError(c, common.ErrorRateLimited)
			return
		}
		c.Next()
	}
}
