package http

import (
	"sync"
	"time"
)

// Rate limiting tunables. Mutating endpoints are field-officer actions
// entered by hand, so the per-client budget stays small.
const (
	defaultMutationsPerMinute = 60
	rateLimitWindow           = time.Minute
	rateLimitCleanupInterval  = 5 * time.Minute
	rateLimitStaleAfter       = 10 * time.Minute
)

// rateLimiter tracks per-client request counts over a fixed window.
type rateLimiter struct {
	mu           sync.Mutex
	limit        int
	windows      map[string]*clientWindow
	now          func() time.Time
	stopCleanup  chan struct{}
	shutdownOnce sync.Once
}

// clientWindow is one client's count within its current window.
type clientWindow struct {
	start time.Time
	count int
}

func newRateLimiter(limit int) *rateLimiter {
	rl := &rateLimiter{
		limit:       limit,
		windows:     make(map[string]*clientWindow),
		now:         time.Now,
		stopCleanup: make(chan struct{}),
	}
	go rl.runCleanup()
	return rl
}

// runCleanup periodically drops clients that have gone quiet, keeping the
// map bounded under churning client IPs.
func (rl *rateLimiter) runCleanup() {
	ticker := time.NewTicker(rateLimitCleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			rl.dropStaleWindows()
		case <-rl.stopCleanup:
			return
		}
	}
}

func (rl *rateLimiter) dropStaleWindows() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	cutoff := rl.now().Add(-rateLimitStaleAfter)
	for ip, w := range rl.windows {
		if w.start.Before(cutoff) {
			delete(rl.windows, ip)
		}
	}
}

// stop ends the cleanup goroutine. Safe to call more than once.
func (rl *rateLimiter) stop() {
	rl.shutdownOnce.Do(func() {
		close(rl.stopCleanup)
	})
}

// allow reports whether clientIP still has budget in its current window,
// opening a fresh window when the previous one has expired.
func (rl *rateLimiter) allow(clientIP string, metrics *securityMetrics) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	w, ok := rl.windows[clientIP]
	if !ok || now.Sub(w.start) > rateLimitWindow {
		rl.windows[clientIP] = &clientWindow{start: now, count: 1}
		return true
	}

	w.count++
	if w.count > rl.limit {
		if metrics != nil {
			metrics.recordRateLimitHit()
		}
		return false
	}
	return true
}
