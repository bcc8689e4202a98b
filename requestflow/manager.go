package requestflow

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/liamcoop/wardline/internal/logger"
)

// ErrFlowNotFound is returned for unknown flow ids
var ErrFlowNotFound = errors.New("flow not found")

// Manager keeps the open request forms, one per resident session
type Manager struct {
	deps  *Deps
	flows map[string]*Flow
	mu    sync.RWMutex
}

// NewManager creates a manager whose flows share deps
func NewManager(deps *Deps) *Manager {
	return &Manager{
		deps:  deps,
		flows: make(map[string]*Flow),
	}
}

// Create opens a new flow for an existing ward
func (m *Manager) Create(ctx context.Context, wardID int) (*Flow, error) {
	if _, err := m.deps.Wards.GetByID(ctx, wardID); err != nil {
		return nil, err
	}

	f := NewFlow(uuid.NewString(), wardID, m.deps)

	m.mu.Lock()
	m.flows[f.ID] = f
	m.mu.Unlock()

	return f, nil
}

// Get returns the flow with the given id
func (m *Manager) Get(id string) (*Flow, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	f, exists := m.flows[id]
	if !exists {
		return nil, fmt.Errorf("flow %s: %w", id, ErrFlowNotFound)
	}
	return f, nil
}

// Delete discards a flow
func (m *Manager) Delete(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.flows[id]; !exists {
		return fmt.Errorf("flow %s: %w", id, ErrFlowNotFound)
	}
	delete(m.flows, id)
	return nil
}

// Len returns the number of open flows
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.flows)
}

// Prune drops flows untouched for longer than ttl that have no call pending
func (m *Manager) Prune(ttl time.Duration) int {
	cutoff := m.deps.now().Add(-ttl)

	m.mu.Lock()
	defer m.mu.Unlock()

	removed := 0
	for id, f := range m.flows {
		if f.idleSince(cutoff) {
			delete(m.flows, id)
			removed++
		}
	}
	return removed
}

// RunJanitor prunes stale flows every interval until ctx is done
func (m *Manager) RunJanitor(ctx context.Context, interval, ttl time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := m.Prune(ttl); n > 0 {
				logger.Debug("Pruned stale request flows", "removed", n, "remaining", m.Len())
			}
		}
	}
}
