package middleware

import (
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	appErrors "github.com/noah-isme/studyplan-api/pkg/errors"
	"github.com/noah-isme/studyplan-api/pkg/response"
)

// RateLimitConfig sets the per-caller token bucket.
type RateLimitConfig struct {
	RequestsPerSecond float64
	Burst             int
	// IdleTTL drops buckets of callers that have been quiet this long.
	IdleTTL time.Duration
}

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter keeps one token bucket per authenticated user, falling back to client IP.
type RateLimiter struct {
	cfg      RateLimitConfig
	mu       sync.Mutex
	visitors map[string]*visitor
	now      func() time.Time
}

// NewRateLimiter builds a limiter. A non-positive rate disables limiting.
func NewRateLimiter(cfg RateLimitConfig) *RateLimiter {
	if cfg.Burst <= 0 {
		cfg.Burst = int(math.Max(1, math.Ceil(cfg.RequestsPerSecond)))
	}
	if cfg.IdleTTL <= 0 {
		cfg.IdleTTL = 10 * time.Minute
	}
	return &RateLimiter{cfg: cfg, visitors: make(map[string]*visitor), now: time.Now}
}

// Handler rejects callers that exhausted their bucket with 429 and a Retry-After hint.
func (l *RateLimiter) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if l == nil || l.cfg.RequestsPerSecond <= 0 {
			c.Next()
			return
		}
		key := "ip:" + c.ClientIP()
		if claims := Claims(c); claims != nil && claims.UserID != "" {
			key = "user:" + claims.UserID
		}
		if !l.allow(key) {
			retry := int(math.Ceil(1 / l.cfg.RequestsPerSecond))
			c.Header("Retry-After", fmt.Sprintf("%d", retry))
			response.Error(c, appErrors.ErrRateLimited)
			return
		}
		c.Next()
	}
}

func (l *RateLimiter) allow(key string) bool {
	now := l.now()
	l.mu.Lock()
	defer l.mu.Unlock()
	v, ok := l.visitors[key]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(rate.Limit(l.cfg.RequestsPerSecond), l.cfg.Burst)}
		l.visitors[key] = v
	}
	v.lastSeen = now
	return v.limiter.AllowN(now, 1)
}

// Sweep forgets idle callers and returns how many were removed.
func (l *RateLimiter) Sweep() int {
	cutoff := l.now().Add(-l.cfg.IdleTTL)
	l.mu.Lock()
	defer l.mu.Unlock()
	removed := 0
	for key, v := range l.visitors {
		if v.lastSeen.Before(cutoff) {
			delete(l.visitors, key)
			removed++
		}
	}
	return removed
}
