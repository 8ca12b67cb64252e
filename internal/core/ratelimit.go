package core

import (
	"sync"
	"time"
)

// staleWindowGrace is how long a window may sit past its own reset time
// before the sweep reclaims it.
const staleWindowGrace = 60 * time.Second

type rateWindow struct {
	count   int
	resetAt time.Time
}

// RateLimiter applies fixed-window admission control per client id.
type RateLimiter struct {
	mu      sync.Mutex
	limit   int
	window  time.Duration
	clients map[string]*rateWindow
	now     func() time.Time
}

// NewRateLimiter admits up to limit messages per window for each client.
// A non-positive limit disables the limiter.
func NewRateLimiter(limit int, window time.Duration) *RateLimiter {
	return &RateLimiter{
		limit:   limit,
		window:  window,
		clients: make(map[string]*rateWindow),
		now:     time.Now,
	}
}

// Check counts one message against the client's current window and reports
// whether it is admitted. The read-reset-increment sequence is atomic with
// respect to concurrent callers for the same id.
func (l *RateLimiter) Check(clientID string) bool {
	if l.limit <= 0 {
		return true
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	w, exists := l.clients[clientID]
	if !exists {
		w = &rateWindow{resetAt: now.Add(l.window)}
		l.clients[clientID] = w
	}
	if now.After(w.resetAt) {
		w.count = 0
		w.resetAt = now.Add(l.window)
	}
	w.count++
	return w.count <= l.limit
}

// Sweep removes window state that is more than a minute past its own reset
// time, bounding memory for clients that went silent or disconnected.
// Returns the number of entries removed.
func (l *RateLimiter) Sweep() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	removed := 0
	now := l.now()
	for id, w := range l.clients {
		if now.After(w.resetAt.Add(staleWindowGrace)) {
			delete(l.clients, id)
			removed++
		}
	}
	return removed
}
