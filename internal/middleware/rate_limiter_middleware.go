package middleware

import (
	"strings"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
)

// FixedWindowLimiter caps requests per key to max within a fixed window.
// Counters live in the instance, so separate limiters never share budget.
type FixedWindowLimiter struct {
	mu        sync.Mutex
	max       int
	window    time.Duration
	now       func() time.Time
	keys      map[string]*windowEntry
	lastSweep time.Time
}

type windowEntry struct {
	count       int
	windowStart time.Time
}

func NewFixedWindowLimiter(max int, window time.Duration) *FixedWindowLimiter {
	if max <= 0 {
		max = 50
	}
	if window <= 0 {
		window = time.Minute
	}
	return &FixedWindowLimiter{
		max:    max,
		window: window,
		now:    time.Now,
		keys:   make(map[string]*windowEntry),
	}
}

// Admit records one request for key and reports whether it fits the
// current window. Crossing a window boundary resets the count to zero
// before the request is counted.
func (l *FixedWindowLimiter) Admit(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	l.sweep(now)
	entry, ok := l.keys[key]
	if !ok || now.Sub(entry.windowStart) >= l.window {
		entry = &windowEntry{windowStart: now}
		l.keys[key] = entry
	}
	if entry.count >= l.max {
		return false
	}
	entry.count++
	return true
}

// sweep drops entries whose window has lapsed so keys seen once do not
// accumulate forever. Runs at most once per window. Caller holds mu.
func (l *FixedWindowLimiter) sweep(now time.Time) {
	if now.Sub(l.lastSweep) < l.window {
		return
	}
	for key, entry := range l.keys {
		if now.Sub(entry.windowStart) >= l.window {
			delete(l.keys, key)
		}
	}
	l.lastSweep = now
}

// Handler adapts the limiter to a Fiber middleware. Requests are keyed by
// bearer token when present, falling back to client IP.
func (l *FixedWindowLimiter) Handler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		key := limiterKey(c)
		if !l.Admit(key) {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"success": false,
				"error":   "Too many requests. Please try again later.",
			})
		}
		return c.Next()
	}
}

func limiterKey(c *fiber.Ctx) string {
	auth := c.Get(fiber.HeaderAuthorization)
	if token, ok := strings.CutPrefix(auth, "Bearer "); ok && token != "" {
		return token
	}
	return c.IP()
}
