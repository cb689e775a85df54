package middlewares

import (
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/time/rate"
)

// maxTrackedClients bounds the per-IP limiter table. Least recently seen
// clients are evicted and start again with a full burst.
const maxTrackedClients = 10_000

type RateLimiter struct {
	mu      sync.Mutex
	rate    rate.Limit
	burst   int
	clients *lru.Cache[string, *rate.Limiter]
}

// NewRateLimiter allows perSecond requests per client IP with the given burst.
func NewRateLimiter(perSecond, burst int) *RateLimiter {
	clients, _ := lru.New[string, *rate.Limiter](maxTrackedClients)
	return &RateLimiter{
		rate:    rate.Limit(perSecond),
		burst:   burst,
		clients: clients,
	}
}

func (rl *RateLimiter) limiter(ip string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	if l, ok := rl.clients.Get(ip); ok {
		return l
	}
	l := rate.NewLimiter(rl.rate, rl.burst)
	rl.clients.Add(ip, l)
	return l
}

func (rl *RateLimiter) RateLimitMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !rl.limiter(c.ClientIP()).Allow() {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "rate limit exceeded"})
			return
		}
		c.Next()
	}
}
