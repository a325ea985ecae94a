package http

import (
	"sync"
	"sync/atomic"
	"time"
)

const (
	rateLimitWindow   = time.Minute
	cleanupInterval   = 5 * time.Minute
	staleClientCutoff = 10 * time.Minute
)

// rateLimiter caps mutating requests per client IP inside a fixed one
// minute window. The per-minute budget comes from configuration.
type rateLimiter struct {
	mu           sync.Mutex
	perMinute    int
	clients      map[string]*clientWindow
	stopCleanup  chan struct{}
	shutdownOnce sync.Once
}

type clientWindow struct {
	windowStart time.Time
	requests    int
}

func newRateLimiter(perMinute int) *rateLimiter {
	rl := &rateLimiter{
		perMinute:   perMinute,
		clients:     make(map[string]*clientWindow),
		stopCleanup: make(chan struct{}),
	}
	go rl.cleanupLoop()
	return rl
}

func (rl *rateLimiter) cleanupLoop() {
	ticker := time.NewTicker(cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			rl.dropStaleClients()
		case <-rl.stopCleanup:
			return
		}
	}
}

// dropStaleClients forgets clients whose window opened long enough ago
// that their budget has fully reset.
func (rl *rateLimiter) dropStaleClients() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	cutoff := time.Now().Add(-staleClientCutoff)
	for ip, client := range rl.clients {
		if client.windowStart.Before(cutoff) {
			delete(rl.clients, ip)
		}
	}
}

// stop ends the background cleanup goroutine. Safe to call more than once.
func (rl *rateLimiter) stop() {
	rl.shutdownOnce.Do(func() {
		close(rl.stopCleanup)
	})
}

// allow reports whether a request from the given IP fits in its current
// window, counting a rate limit hit against metrics when it does not.
func (rl *rateLimiter) allow(clientIP string, metrics *securityMetrics) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	client, exists := rl.clients[clientIP]
	if !exists || now.Sub(client.windowStart) > rateLimitWindow {
		rl.clients[clientIP] = &clientWindow{windowStart: now, requests: 1}
		return true
	}

	client.requests++
	if client.requests > rl.perMinute {
		if metrics != nil {
			atomic.AddInt64(&metrics.rateLimitHits, 1)
		}
		return false
	}
	return true
}
