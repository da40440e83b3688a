// Package ratelimit throttles login attempts per client IP with in-memory
// token buckets. State is process-local: a single-user front-end has no
// shared limiter to coordinate with.
package ratelimit

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const pruneAfter = 10 * time.Minute

type client struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

type Limiter struct {
	mu      sync.Mutex
	clients map[string]*client
	rate    rate.Limit
	burst   int
}

// New returns a Limiter allowing attemptsPerMinute sustained attempts per
// key with the given burst.
func New(attemptsPerMinute, burst int) *Limiter {
	return &Limiter{
		clients: make(map[string]*client),
		rate:    rate.Every(time.Minute / time.Duration(attemptsPerMinute)),
		burst:   burst,
	}
}

// Allow reports whether the attempt for key should proceed.
func (l *Limiter) Allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	c, ok := l.clients[key]
	if !ok {
		c = &client{limiter: rate.NewLimiter(l.rate, l.burst)}
		l.clients[key] = c
		l.prune()
	}
	c.lastSeen = time.Now()
	return c.limiter.Allow()
}

// prune drops buckets idle long enough to be full again. Called with the
// lock held, only when a new key is added, so steady-state traffic from a
// single client never pays for it.
func (l *Limiter) prune() {
	cutoff := time.Now().Add(-pruneAfter)
	for key, c := range l.clients {
		if c.lastSeen.Before(cutoff) {
			delete(l.clients, key)
		}
	}
}
