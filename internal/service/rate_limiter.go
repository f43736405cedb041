package service

import (
	"strings"
	"sync"
	"time"
)

// RateLimiter decide si un usuario puede emitir otro request.
type RateLimiter interface {
	Allow(userID string) bool
}

// SlidingWindowLimiter es la ventana deslizante en proceso: descarta
// timestamps mas viejos que window y admite hasta max por usuario.
// Protegida con mutex para hosts que atienden requests en paralelo.
type SlidingWindowLimiter struct {
	mu      sync.Mutex
	window  time.Duration
	max     int
	entries map[string][]time.Time
	now     func() time.Time
}

func NewSlidingWindowLimiter(window time.Duration, max int) *SlidingWindowLimiter {
	if window <= 0 {
		window = time.Minute
	}
	if max <= 0 {
		max = 12
	}
	return &SlidingWindowLimiter{
		window:  window,
		max:     max,
		entries: make(map[string][]time.Time),
		now:     time.Now,
	}
}

func (l *SlidingWindowLimiter) Allow(userID string) bool {
	key := strings.TrimSpace(userID)
	if key == "" {
		key = "anonymous"
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	cutoff := now.Add(-l.window)

	kept := l.entries[key][:0]
	for _, ts := range l.entries[key] {
		if ts.After(cutoff) {
			kept = append(kept, ts)
		}
	}

	if len(kept) >= l.max {
		l.entries[key] = kept
		return false
	}

	l.entries[key] = append(kept, now)
	return true
}
