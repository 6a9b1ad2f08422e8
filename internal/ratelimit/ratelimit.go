package ratelimit

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// DefaultIdleTTL is how long an idle client's bucket is kept.
const DefaultIdleTTL = 10 * time.Minute

// ClientLimiter enforces a token-bucket request rate per client key
// (typically the remote IP).
type ClientLimiter struct {
	mu      sync.Mutex
	clients map[string]*client
	r       rate.Limit
	b       int
	idleTTL time.Duration
	now     func() time.Time
	lastGC  time.Time
}

type client struct {
	lim      *rate.Limiter
	lastSeen time.Time
}

// NewClientLimiter allows reqPerSec sustained requests per client with the
// given burst.
func NewClientLimiter(reqPerSec float64, burst int) *ClientLimiter {
	if burst < 1 {
		burst = 1
	}
	return &ClientLimiter{
		clients: make(map[string]*client),
		r:       rate.Limit(reqPerSec),
		b:       burst,
		idleTTL: DefaultIdleTTL,
		now:     time.Now,
	}
}

// Allow reports whether key may make a request now. When it may not, the
// returned duration is how long until the next token is available.
func (l *ClientLimiter) Allow(key string) (bool, time.Duration) {
	now := l.now()
	lim := l.limiterFor(key, now)

	res := lim.ReserveN(now, 1)
	if !res.OK() {
		return false, 0
	}
	delay := res.DelayFrom(now)
	if delay == 0 {
		return true, 0
	}
	res.CancelAt(now)
	return false, delay
}

// Len returns the number of tracked clients.
func (l *ClientLimiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.clients)
}

// Sweep forgets clients idle for longer than the idle TTL and returns how
// many were removed.
func (l *ClientLimiter) Sweep() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.sweepLocked(l.now())
}

func (l *ClientLimiter) sweepLocked(now time.Time) int {
	n := 0
	for k, c := range l.clients {
		if now.Sub(c.lastSeen) >= l.idleTTL {
			delete(l.clients, k)
			n++
		}
	}
	l.lastGC = now
	return n
}

func (l *ClientLimiter) limiterFor(key string, now time.Time) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	if now.Sub(l.lastGC) >= l.idleTTL {
		l.sweepLocked(now)
	}

	c, ok := l.clients[key]
	if !ok {
		c = &client{lim: rate.NewLimiter(l.r, l.b)}
		l.clients[key] = c
	}
	c.lastSeen = now
	return c.lim
}
