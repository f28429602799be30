package ratelimit

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Limiter caps tool invocations per minute, tracked per tool name.
type Limiter struct {
	mu        sync.Mutex
	byTool    map[string]*rate.Limiter
	perMinute int
}

// New creates a per-tool limiter. A non-positive perMinute returns nil,
// which disables limiting.
func New(perMinute int) *Limiter {
	if perMinute <= 0 {
		return nil
	}
	return &Limiter{
		byTool:    make(map[string]*rate.Limiter),
		perMinute: perMinute,
	}
}

// Allow reports whether one more invocation of the named tool fits in
// the per-minute budget. A nil Limiter always allows.
func (l *Limiter) Allow(tool string) bool {
	if l == nil {
		return true
	}
	l.mu.Lock()
	limiter, ok := l.byTool[tool]
	if !ok {
		limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(l.perMinute)), l.perMinute)
		l.byTool[tool] = limiter
	}
	l.mu.Unlock()
	return limiter.Allow()
}
