/*
Package limiter provides rate limiting keyed by datagram source address.

It utilizes the Token Bucket algorithm (rate.Limiter) to bound the request
frequency of each client address before dispatch, and includes a cleanup
goroutine that periodically removes inactive limiters to prevent memory leaks.
*/
package limiter

import (
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/GuahBy/projetISY/internal/pkg/logx"
)

// AddrRateLimiter implements a rate limiter keyed by client source address.
type AddrRateLimiter struct {
	// mu is used to protect concurrent access to the limits map.
	mu sync.RWMutex

	// limits stores the map from source address to the *rate.Limiter instance.
	limits map[string]*rate.Limiter

	// r is the rate (rate.Limit) of the limiter, defining the number of events allowed per second.
	r rate.Limit

	// b is the burst size (token bucket size) of the limiter, defining the maximum burst of requests allowed.
	b int
}

// NewAddrRateLimiter creates and returns a new AddrRateLimiter instance.
// It accepts rate r and burst capacity b, and starts a background goroutine to
// periodically clean up inactive limiters.
func NewAddrRateLimiter(r rate.Limit, b int) *AddrRateLimiter {
	l := &AddrRateLimiter{
		limits: make(map[string]*rate.Limiter),
		r:      r,
		b:      b,
	}

	go l.cleanUpVisitors()

	return l
}

// Allow reports whether a request from addr may proceed right now.
func (l *AddrRateLimiter) Allow(addr string) bool {
	return l.getLimiter(addr).Allow()
}

// getLimiter retrieves the rate limiter corresponding to the given address.
// If the limiter for that address does not exist, a new one is created and stored in the map.
// It uses a Double-Checked Locking pattern to ensure concurrent-safe creation of new limiters.
func (l *AddrRateLimiter) getLimiter(addr string) *rate.Limiter {
	l.mu.RLock()
	limiter, exists := l.limits[addr]
	l.mu.RUnlock()

	if !exists {
		l.mu.Lock()
		limiter, exists = l.limits[addr]
		if !exists {
			limiter = rate.NewLimiter(l.r, l.b)
			l.limits[addr] = limiter
		}
		l.mu.Unlock()
	}

	return limiter
}

// cleanUpVisitors periodically cleans up inactive rate limiters.
// An address is considered inactive and removed if its token bucket is full
// (i.e., tokens equal to the burst capacity), which frees up memory.
func (l *AddrRateLimiter) cleanUpVisitors() {
	ticker := time.NewTicker(3 * time.Minute)
	defer ticker.Stop()

	for range ticker.C {
		l.mu.Lock()
		count := 0
		for addr, limiter := range l.limits {
			if limiter.TokensAt(time.Now()) >= float64(limiter.Burst()) {
				delete(l.limits, addr)
				count++
			}
		}
		remaining := len(l.limits)
		l.mu.Unlock()
		logx.Info("Rate limiter cleanup finished.", "removed", count, "remaining", remaining)
	}
}
