package api

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

// RateLimitStore is the keyed counter store behind the rate limiter. It is
// injected rather than held in a module-level map so tests can supply their
// own store and a deployment can swap in an external TTL store.
type RateLimitStore interface {
	// Incr increments the counter for key and returns its new value. The
	// counter resets once window has elapsed since its first increment.
	Incr(key string, window time.Duration) int
}

// MemoryRateLimitStore is the in-process RateLimitStore.
type MemoryRateLimitStore struct {
	mu      sync.Mutex
	entries map[string]*rateEntry
}

type rateEntry struct {
	count     int
	expiresAt time.Time
}

// NewMemoryRateLimitStore creates an empty store.
func NewMemoryRateLimitStore() *MemoryRateLimitStore {
	return &MemoryRateLimitStore{entries: make(map[string]*rateEntry)}
}

// Incr implements RateLimitStore.
func (s *MemoryRateLimitStore) Incr(key string, window time.Duration) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	entry, ok := s.entries[key]
	if !ok || now.After(entry.expiresAt) {
		entry = &rateEntry{expiresAt: now.Add(window)}
		s.entries[key] = entry
	}
	entry.count++
	return entry.count
}

// RateLimitMiddleware enforces a fixed-window per-caller request budget.
// Authenticated requests are keyed by user id, anonymous ones by client IP.
func RateLimitMiddleware(store RateLimitStore, requestsPerMinute int) gin.HandlerFunc {
	return func(c *gin.Context) {
		if requestsPerMinute <= 0 {
			c.Next()
			return
		}

		key := c.ClientIP()
		if idRaw, exists := c.Get(ContextUserIDKey); exists {
			if idStr, ok := idRaw.(string); ok {
				key = idStr
			}
		}

		if store.Incr(key, time.Minute) > requestsPerMinute {
			respondError(c, http.StatusTooManyRequests, CodeRateLimited, "Too many requests")
			return
		}
		c.Next()
	}
}
