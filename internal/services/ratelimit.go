package services

import (
	"sync"
	"time"
)

// RateLimiter bounds how often a caller may hit a rate-limited route within
// a window. RedisSessionCache implements it for multi-instance deployments;
// MemoryRateLimiter is the single-instance default.
type RateLimiter interface {
	Allow(key string, limit int, window time.Duration) (bool, error)
}

type rateWindow struct {
	count   int
	resetAt time.Time
}

// MemoryRateLimiter counts requests per key in fixed windows. Windows are
// replaced lazily on the first request after expiry.
type MemoryRateLimiter struct {
	mu      sync.Mutex
	windows map[string]*rateWindow
}

func NewMemoryRateLimiter() *MemoryRateLimiter {
	return &MemoryRateLimiter{
		windows: make(map[string]*rateWindow),
	}
}

func (l *MemoryRateLimiter) Allow(key string, limit int, window time.Duration) (bool, error) {
	now := time.Now()

	l.mu.Lock()
	defer l.mu.Unlock()

	w, ok := l.windows[key]
	if !ok || now.After(w.resetAt) {
		l.windows[key] = &rateWindow{count: 1, resetAt: now.Add(window)}
		return true, nil
	}

	w.count++
	return w.count <= limit, nil
}
