package middleware

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"atlascrm/internal/apierror"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// ── Fixed-window limiter ──────────────────────────────────────────────────────

// windowCounter counts hits per key within the current window.
type windowCounter interface {
	hit(ctx context.Context, key string, window time.Duration) (int64, time.Duration, error)
}

// redisCounter shares the counters between every API instance.
type redisCounter struct{ rdb *redis.Client }

func (r redisCounter) hit(ctx context.Context, key string, window time.Duration) (int64, time.Duration, error) {
	pipe := r.rdb.TxPipeline()
	incr := pipe.Incr(ctx, key)
	pipe.ExpireNX(ctx, key, window)
	ttl := pipe.PTTL(ctx, key)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, 0, err
	}
	return incr.Val(), ttl.Val(), nil
}

type memEntry struct {
	count     int64
	windowEnd time.Time
}

// memCounter is used when Redis is not configured.
type memCounter struct {
	mu      sync.Mutex
	entries map[string]*memEntry
	lastGC  time.Time
}

func newMemCounter() *memCounter {
	return &memCounter{entries: make(map[string]*memEntry), lastGC: time.Now()}
}

func (m *memCounter) hit(_ context.Context, key string, window time.Duration) (int64, time.Duration, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now()
	if now.Sub(m.lastGC) > 5*time.Minute {
		for k, e := range m.entries {
			if now.After(e.windowEnd) {
				delete(m.entries, k)
			}
		}
		m.lastGC = now
	}

	e, ok := m.entries[key]
	if !ok || now.After(e.windowEnd) {
		e = &memEntry{windowEnd: now.Add(window)}
		m.entries[key] = e
	}
	e.count++
	return e.count, e.windowEnd.Sub(now), nil
}

// RateLimiter allows limit requests per client IP and window. Counters live
// in Redis when rdb is set. A Redis failure lets the request through.
func RateLimiter(rdb *redis.Client, name string, limit int, window time.Duration) gin.HandlerFunc {
	var counter windowCounter = newMemCounter()
	if rdb != nil {
		counter = redisCounter{rdb: rdb}
	}
	return rateLimit(counter, name, limit, window)
}

func rateLimit(counter windowCounter, name string, limit int, window time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := fmt.Sprintf("ratelimit:%s:%s", name, c.ClientIP())
		count, ttl, err := counter.hit(c.Request.Context(), key, window)
		if err != nil {
			log.Warn().Err(err).Str("limiter", name).Msg("rate limiter unavailable")
			c.Next()
			return
		}
		if count > int64(limit) {
			if ttl <= 0 {
				ttl = window
			}
			c.Header("Retry-After", strconv.Itoa(int(ttl.Seconds())+1))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, apierror.New("Trop de requêtes. Réessayez dans un instant."))
			return
		}
		c.Next()
	}
}
