package middleware

import (
	"sync"

	"golang.org/x/time/rate"
)

type IPRateLimiter struct {
	mu        sync.Mutex
	ips       map[string]*rate.Limiter
	rateLimit rate.Limit
	burst     int
}

func NewIPRateLimiter(perSecond, burst int) *IPRateLimiter {
	return &IPRateLimiter{
		ips:       make(map[string]*rate.Limiter),
		rateLimit: rate.Limit(perSecond),
		burst:     burst,
	}
}

func (l *IPRateLimiter) Get(ip string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	limiter, exists := l.ips[ip]
	if !exists {
		limiter = rate.NewLimiter(l.rateLimit, l.burst)
		l.ips[ip] = limiter
	}
	return limiter
}

// TODO: move the per-IP map to redis once the service runs with more
// than one replica.
