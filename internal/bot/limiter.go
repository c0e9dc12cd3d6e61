package bot

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Limiter applies a token bucket per phone number.
type Limiter struct {
	mu       sync.Mutex
	visitors map[string]*visitor
	limit    rate.Limit
	burst    int
}

type visitor struct {
	lim      *rate.Limiter
	lastSeen time.Time
}

// NewLimiter allows perMinute messages per phone with the given burst.
// perMinute <= 0 disables limiting.
func NewLimiter(perMinute, burst int) *Limiter {
	limit := rate.Inf
	if perMinute > 0 {
		limit = rate.Every(time.Minute / time.Duration(perMinute))
	}
	if burst < 1 {
		burst = 1
	}
	return &Limiter{
		visitors: make(map[string]*visitor),
		limit:    limit,
		burst:    burst,
	}
}

func (l *Limiter) Allow(phone string) bool {
	l.mu.Lock()
	v, ok := l.visitors[phone]
	if !ok {
		v = &visitor{lim: rate.NewLimiter(l.limit, l.burst)}
		l.visitors[phone] = v
	}
	v.lastSeen = time.Now()
	l.mu.Unlock()

	return v.lim.Allow()
}

// Cleanup forgets phones not seen within maxAge.
func (l *Limiter) Cleanup(maxAge time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	for phone, v := range l.visitors {
		if now.Sub(v.lastSeen) > maxAge {
			delete(l.visitors, phone)
		}
	}
}
