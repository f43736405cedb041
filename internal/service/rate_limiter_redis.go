package service

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// Ventana deslizante sobre un sorted set: purga entradas viejas, cuenta las
// vigentes y registra el request solo si queda cupo.
const redisSlidingWindowScript = `
local cutoff = tonumber(ARGV[1]) - tonumber(ARGV[2])
redis.call("ZREMRANGEBYSCORE", KEYS[1], "-inf", cutoff)
local current = redis.call("ZCARD", KEYS[1])
if current >= tonumber(ARGV[3]) then
  return 0
end
redis.call("ZADD", KEYS[1], ARGV[1], ARGV[1] .. "-" .. ARGV[4])
redis.call("PEXPIRE", KEYS[1], ARGV[2])
return 1
`

type redisRateLimiter struct {
	client redisEvaler
	window time.Duration
	max    int
	prefix string
}

type redisEvaler interface {
	Eval(ctx context.Context, script string, keys []string, args ...interface{}) *redis.Cmd
}

// NewRedisRateLimiter construye el limitador distribuido. Ante cualquier
// error de Redis deja pasar: degradar el limite es preferible a degradar
// el servicio.
func NewRedisRateLimiter(client *redis.Client, window time.Duration, max int) RateLimiter {
	if client == nil {
		return nil
	}
	if window <= 0 {
		window = time.Minute
	}
	if max <= 0 {
		max = 12
	}
	return &redisRateLimiter{
		client: client,
		window: window,
		max:    max,
		prefix: "resilience:rl:",
	}
}

func (l *redisRateLimiter) Allow(userID string) bool {
	if l == nil || l.client == nil {
		return true
	}
	normalizedKey := strings.ToLower(strings.TrimSpace(userID))
	if normalizedKey == "" {
		normalizedKey = "anonymous"
	}
	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()

	now := time.Now().UnixMilli()
	allowed, err := l.client.Eval(ctx, redisSlidingWindowScript,
		[]string{l.prefix + normalizedKey},
		now,
		l.window.Milliseconds(),
		l.max,
		strconv.FormatInt(time.Now().UnixNano(), 10),
	).Int()
	if err != nil {
		return true
	}
	return allowed == 1
}
