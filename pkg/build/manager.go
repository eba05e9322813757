package build

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"domainkit/pkg/filtering"
)

// Manager keeps the latest build result and rebuilds it periodically.
type Manager struct {
	builder        *Builder
	updateInterval time.Duration
	log            *slog.Logger
	matcher        *filtering.Matcher

	mu      sync.Mutex
	current atomic.Pointer[Result]
}

// NewManager creates a new Manager instance.
func NewManager(builder *Builder, updateInterval time.Duration, log *slog.Logger) *Manager {
	if log == nil {
		log = slog.Default()
	}
	return &Manager{
		builder:        builder,
		updateInterval: updateInterval,
		log:            log,
		matcher:        filtering.NewMatcher(),
	}
}

// LoadOnce runs a build and publishes its result. A failed build keeps the
// previous result.
func (m *Manager) LoadOnce(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	res, err := m.builder.Run(ctx)
	if err != nil {
		return err
	}
	m.current.Store(res)
	m.matcher.Update(res.Block, res.Allow)
	return nil
}

// Start begins a background rebuild loop.
func (m *Manager) Start(ctx context.Context) {
	if m.updateInterval <= 0 {
		return
	}
	ticker := time.NewTicker(m.updateInterval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := m.LoadOnce(ctx); err != nil {
					m.log.Error("failed to rebuild lists", "error", err)
				}
			}
		}
	}()
}

// Current returns the most recent successful result, or nil before the first
// build.
func (m *Manager) Current() *Result {
	return m.current.Load()
}

// Matcher returns a matcher that tracks the current result.
func (m *Manager) Matcher() *filtering.Matcher {
	return m.matcher
}
