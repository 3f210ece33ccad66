package ratelimit

import (
	"sync"
	"time"
)

// Limiter is a token bucket: tokens refill at a fixed rate up to burst
// and each allowed event consumes one.
type Limiter struct {
	rate       float64 // tokens per second
	burst      int
	tokens     float64
	lastRefill time.Time
	mu         sync.Mutex
}

func NewLimiter(rate float64, burst int) *Limiter {
	return &Limiter{
		rate:       rate,
		burst:      burst,
		tokens:     float64(burst),
		lastRefill: time.Now(),
	}
}

// Allow reports whether one more event fits within the limit.
func (l *Limiter) Allow() bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	l.tokens += now.Sub(l.lastRefill).Seconds() * l.rate
	l.lastRefill = now
	if l.tokens > float64(l.burst) {
		l.tokens = float64(l.burst)
	}

	if l.tokens < 1 {
		return false
	}
	l.tokens--
	return true
}
