// Package ratelimit caps requests per client in fixed one-minute windows.
package ratelimit

import (
	"context"
	"net/http"
	"strconv"
	"sync"
	"sync/atomic"
	"time"
)

const (
	window = time.Minute
	// idle keys are forgotten after this many windows
	staleAfter = 10 * window
)

type Config struct {
	RequestsPerMinute int
	CleanupInterval   time.Duration
}

func DefaultConfig() Config {
	return Config{RequestsPerMinute: 60, CleanupInterval: 5 * time.Minute}
}

// Limiter counts requests per key. Each key's window opens on its first
// request and lasts one minute.
type Limiter struct {
	limit int
	now   func() time.Time

	mu      sync.Mutex
	windows map[string]*counter

	rejected atomic.Int64
	stop     context.CancelFunc
}

type counter struct {
	opened time.Time
	seen   time.Time
	n      int
}

// NewLimiter starts a limiter with a background sweep of idle keys. Call
// Stop to end the sweep.
func NewLimiter(cfg Config) *Limiter {
	def := DefaultConfig()
	if cfg.RequestsPerMinute <= 0 {
		cfg.RequestsPerMinute = def.RequestsPerMinute
	}
	if cfg.CleanupInterval <= 0 {
		cfg.CleanupInterval = def.CleanupInterval
	}

	ctx, cancel := context.WithCancel(context.Background())
	l := &Limiter{
		limit:   cfg.RequestsPerMinute,
		now:     time.Now,
		windows: make(map[string]*counter),
		stop:    cancel,
	}
	go l.sweepEvery(ctx, cfg.CleanupInterval)
	return l
}

// Allow counts one request for key and reports whether it fits the limit.
func (l *Limiter) Allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	c := l.windows[key]
	if c == nil || now.Sub(c.opened) >= window {
		c = &counter{opened: now}
		l.windows[key] = c
	}
	c.seen = now
	c.n++
	if c.n > l.limit {
		l.rejected.Add(1)
		return false
	}
	return true
}

// RetryAfter returns the whole seconds until key's window closes.
func (l *Limiter) RetryAfter(key string) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	c := l.windows[key]
	if c == nil {
		return 0
	}
	left := c.opened.Add(window).Sub(l.now())
	if left <= 0 {
		return 0
	}
	return int(left/time.Second) + 1
}

func (l *Limiter) sweepEvery(ctx context.Context, every time.Duration) {
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			l.sweep()
		}
	}
}

func (l *Limiter) sweep() {
	l.mu.Lock()
	defer l.mu.Unlock()
	cutoff := l.now().Add(-staleAfter)
	for key, c := range l.windows {
		if c.seen.Before(cutoff) {
			delete(l.windows, key)
		}
	}
}

func (l *Limiter) ActiveClients() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.windows)
}

// Stop ends the sweep goroutine. Calling it again is a no-op.
func (l *Limiter) Stop() { l.stop() }

type Metrics struct {
	Rejected    int64 `json:"rejected"`
	ClientCount int64 `json:"clients"`
}

func (l *Limiter) GetMetrics() Metrics {
	return Metrics{Rejected: l.rejected.Load(), ClientCount: int64(l.ActiveClients())}
}

// Middleware limits the requests selected by match, keyed by keyOf. A nil
// match selects every request; a nil onLimit writes a plain 429.
func (l *Limiter) Middleware(keyOf func(*http.Request) string, match func(*http.Request) bool, onLimit http.HandlerFunc) func(http.Handler) http.Handler {
	if onLimit == nil {
		onLimit = func(w http.ResponseWriter, _ *http.Request) {
			http.Error(w, "Rate limit exceeded. Please try again later.", http.StatusTooManyRequests)
		}
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if match == nil || match(r) {
				key := keyOf(r)
				if !l.Allow(key) {
					w.Header().Set("Retry-After", strconv.Itoa(l.RetryAfter(key)))
					onLimit(w, r)
					return
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}
