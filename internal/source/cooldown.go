package source

import (
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"
)

// DefaultCooldown is how long a provider is suppressed after a 429 or 403.
const DefaultCooldown = 60 * time.Second

// ErrCoolingDown is returned by Search while a provider is suppressed.
var ErrCoolingDown = errors.New("source is cooling down after a rate-limit response")

// RateLimitError is returned when a provider answers 429 or 403.
type RateLimitError struct {
	Source string
	Status int
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("%s: rate limited (HTTP %d)", e.Source, e.Status)
}

// IsRateLimitStatus reports whether status should start a cooldown.
func IsRateLimitStatus(status int) bool {
	return status == http.StatusTooManyRequests || status == http.StatusForbidden
}

// Cooldown suppresses calls for a fixed window after Trigger. Each client
// owns its own instance.
type Cooldown struct {
	mu     sync.Mutex
	until  time.Time
	window time.Duration
	now    func() time.Time
}

// NewCooldown creates a Cooldown. A non-positive window uses
// DefaultCooldown and a nil clock uses time.Now.
func NewCooldown(window time.Duration, now func() time.Time) *Cooldown {
	if window <= 0 {
		window = DefaultCooldown
	}
	if now == nil {
		now = time.Now
	}
	return &Cooldown{window: window, now: now}
}

// Trigger starts or extends the suppression window.
func (c *Cooldown) Trigger() {
	c.mu.Lock()
	c.until = c.now().Add(c.window)
	c.mu.Unlock()
}

// Active reports whether the window is still open.
func (c *Cooldown) Active() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now().Before(c.until)
}

// Remaining returns the time left in the window, or zero.
func (c *Cooldown) Remaining() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	if d := c.until.Sub(c.now()); d > 0 {
		return d
	}
	return 0
}
