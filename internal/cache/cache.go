// Package cache provides the in-process LRU used for report aggregates and
// event de-duplication, plus a janitor that expires entries on a timer.
package cache

import (
	"log/slog"
	"sync"
	"time"
)

// Cache is a string-keyed store of values of type T.
type Cache[T any] interface {
	Get(key string) (T, bool)
	Set(key string, value T)
	Delete(key string)
	// DeletePrefix drops every key starting with prefix and returns the count.
	DeletePrefix(prefix string) int
	Size() int
}

// Cleaner is implemented by caches with expiring entries.
type Cleaner interface {
	CleanExpired() int
}

// Manager periodically expires entries in the caches registered with it.
type Manager struct {
	mu      sync.Mutex
	caches  []Cleaner
	done    chan struct{}
	stopped chan struct{}
	running bool
	once    sync.Once
}

func NewManager() *Manager {
	return &Manager{done: make(chan struct{}), stopped: make(chan struct{})}
}

func (m *Manager) Register(c Cleaner) {
	m.mu.Lock()
	m.caches = append(m.caches, c)
	m.mu.Unlock()
}

// StartCleanup runs CleanNow every interval until Stop. Only the first call
// starts the loop.
func (m *Manager) StartCleanup(interval time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.running {
		return
	}
	m.running = true

	go func() {
		defer close(m.stopped)
		t := time.NewTicker(interval)
		defer t.Stop()
		for {
			select {
			case <-m.done:
				return
			case <-t.C:
				if n := m.CleanNow(); n > 0 {
					slog.Debug("Expired cache entries removed", "count", n)
				}
			}
		}
	}()
}

// CleanNow expires entries in every registered cache and returns the total.
func (m *Manager) CleanNow() int {
	m.mu.Lock()
	caches := make([]Cleaner, len(m.caches))
	copy(caches, m.caches)
	m.mu.Unlock()

	n := 0
	for _, c := range caches {
		n += c.CleanExpired()
	}
	return n
}

// Stop ends the cleanup loop and waits for it. Calling it again is a no-op.
func (m *Manager) Stop() {
	m.once.Do(func() {
		close(m.done)
		m.mu.Lock()
		running := m.running
		m.mu.Unlock()
		if running {
			<-m.stopped
		}
	})
}
