package crawler

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// PerHostLimiter enforces a minimum interval between requests to the same
// host. Each host gets its own burst-1 limiter, so workers targeting the
// same host serialize FIFO on admission while workers targeting different
// hosts proceed independently. One limiter is shared across all crawl
// activity for the session.
type PerHostLimiter struct {
	mu       sync.Mutex
	interval time.Duration
	hosts    map[string]*rate.Limiter
}

// NewPerHostLimiter creates a limiter with the given minimum interval
// between requests to one host. A non-positive interval disables limiting.
func NewPerHostLimiter(minInterval time.Duration) *PerHostLimiter {
	return &PerHostLimiter{
		interval: minInterval,
		hosts:    make(map[string]*rate.Limiter),
	}
}

func (l *PerHostLimiter) limiter(host string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()
	lim, ok := l.hosts[host]
	if !ok {
		lim = rate.NewLimiter(rate.Every(l.interval), 1)
		l.hosts[host] = lim
	}
	return lim
}

// Wait blocks until the host's minimum interval has elapsed since the
// previous admitted request, or until ctx is canceled. It never busy-waits.
func (l *PerHostLimiter) Wait(ctx context.Context, host string) error {
	if l.interval <= 0 {
		return nil
	}
	return l.limiter(host).Wait(ctx)
}
