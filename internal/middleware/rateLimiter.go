package middleware

import (
	"sync"
	"time"

	"github.com/akolanti/alexandria/internal/config"
	"golang.org/x/time/rate"
)

var limiterInstance = NewIPRateLimiter(rate.Limit(config.RATE_LIMIT_PER_SECOND), config.BURST_RATE_LIMIT_PER_SECOND)

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

type IPRateLimiter struct {
	ips       map[string]*visitor
	mu        sync.Mutex
	rateLimit rate.Limit
	burstRate int
	maxIPs    int
	idleTTL   time.Duration
	now       func() time.Time
}

func NewIPRateLimiter(r rate.Limit, b int) *IPRateLimiter {
	return &IPRateLimiter{
		ips:       make(map[string]*visitor),
		rateLimit: r,
		burstRate: b,
		maxIPs:    config.RateLimiterMaxTrackedIPs,
		idleTTL:   config.RateLimiterIdleTTL,
		now:       time.Now,
	}
}

// GetLimiter returns the limiter for ip. Once the table is full, visitors idle for longer than idleTTL are dropped.
func (i *IPRateLimiter) GetLimiter(ip string) *rate.Limiter {
	i.mu.Lock()
	defer i.mu.Unlock()
	now := i.now()
	v, exists := i.ips[ip]
	if !exists {
		if len(i.ips) >= i.maxIPs {
			i.evictIdle(now)
		}
		v = &visitor{limiter: rate.NewLimiter(i.rateLimit, i.burstRate)}
		i.ips[ip] = v
	}
	v.lastSeen = now
	return v.limiter
}

func (i *IPRateLimiter) evictIdle(now time.Time) {
	for ip, v := range i.ips {
		if now.Sub(v.lastSeen) > i.idleTTL {
			delete(i.ips, ip)
		}
	}
}

//TODO: move the per-ip limiters to redis once more than one instance serves traffic
