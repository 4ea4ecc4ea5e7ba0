package httpmiddleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

// staleAfter is how long an idle client keeps its bucket. The kiosk surface
// normally serves a single panel, so pruning only matters when the panel
// reconnects from changing addresses.
const staleAfter = 10 * time.Minute

// TokenBucket is an in-memory per-client limiter for the kiosk panel. Tokens
// refill fractionally, so a wedged front panel recovers one request at a time
// instead of in bursts.
type TokenBucket struct {
	capacity float64
	perMin   float64
	now      func() time.Time

	mu      sync.Mutex
	clients map[string]*clientBucket
	swept   time.Time
}

type clientBucket struct {
	tokens float64
	seen   time.Time
}

// NewTokenBucket creates a limiter with capacity tokens refilled at
// perMinute per minute.
func NewTokenBucket(capacity, perMinute int) *TokenBucket {
	if capacity <= 0 {
		capacity = perMinute
	}
	return &TokenBucket{
		capacity: float64(capacity),
		perMin:   float64(perMinute),
		now:      time.Now,
		clients:  make(map[string]*clientBucket),
	}
}

// GinMiddleware returns a gin handler enforcing per-IP limits.
func (l *TokenBucket) GinMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		ip := c.ClientIP()
		if ip == "" {
			ip = "unknown"
		}
		if !l.allow(ip) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"message": "rate limit"})
			return
		}
		c.Next()
	}
}

func (l *TokenBucket) allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	now := l.now()
	l.sweepLocked(now)

	b, ok := l.clients[key]
	if !ok {
		l.clients[key] = &clientBucket{tokens: l.capacity - 1, seen: now}
		return true
	}
	b.tokens += now.Sub(b.seen).Minutes() * l.perMin
	if b.tokens > l.capacity {
		b.tokens = l.capacity
	}
	b.seen = now
	if b.tokens < 1 {
		return false
	}
	b.tokens--
	return true
}

// sweepLocked drops buckets idle past staleAfter, at most once per minute.
func (l *TokenBucket) sweepLocked(now time.Time) {
	if now.Sub(l.swept) < time.Minute {
		return
	}
	l.swept = now
	for key, b := range l.clients {
		if now.Sub(b.seen) > staleAfter {
			delete(l.clients, key)
		}
	}
}
