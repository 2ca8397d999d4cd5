package utility

import (
	"errors"
	"fmt"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"
)

// ErrRateLimited is returned when a client has used up its allowance.
var ErrRateLimited = errors.New("too many requests, please try again later")

const defaultLimiterEntries = 4096

// IPRateLimiter hands out one token bucket per client IP. Buckets live in an
// LRU so idle clients do not grow memory without bound.
type IPRateLimiter struct {
	mu       sync.Mutex
	limiters *lru.Cache[string, *rate.Limiter]
	rps      rate.Limit
	burst    int
}

// NewIPRateLimiter allows rps requests per second with the given burst per IP.
func NewIPRateLimiter(rps float64, burst int) (*IPRateLimiter, error) {
	if rps <= 0 {
		return nil, fmt.Errorf("rate limit must be positive, got %v", rps)
	}
	if burst <= 0 {
		burst = 1
	}
	cache, err := lru.New[string, *rate.Limiter](defaultLimiterEntries)
	if err != nil {
		return nil, fmt.Errorf("failed to create limiter cache: %w", err)
	}
	return &IPRateLimiter{limiters: cache, rps: rate.Limit(rps), burst: burst}, nil
}

// CheckIPRateLimit consumes one token for ip or returns ErrRateLimited.
func (l *IPRateLimiter) CheckIPRateLimit(ip string) error {
	if !l.limiter(ip).Allow() {
		return ErrRateLimited
	}
	return nil
}

func (l *IPRateLimiter) limiter(ip string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	if lim, ok := l.limiters.Get(ip); ok {
		return lim
	}
	lim := rate.NewLimiter(l.rps, l.burst)
	l.limiters.Add(ip, lim)
	return lim
}

// LoggerFromContext returns the request-scoped logger set by the logging
// middleware, or the global logger.
func LoggerFromContext(c echo.Context) *zerolog.Logger {
	if logger, ok := c.Get("logger").(*zerolog.Logger); ok && logger != nil {
		return logger
	}
	return &log.Logger
}
