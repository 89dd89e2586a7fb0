// internal/service/space/manager.go

package space

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"hive/internal/domain/space"
	"hive/internal/metrics"
)

// SpaceStore defines the storage interface for spaces
type SpaceStore interface {
	// SaveSpace saves a space to storage
	SaveSpace(ctx context.Context, s space.Space) error

	// GetSpace retrieves a space by ID
	GetSpace(ctx context.Context, id string) (*space.Space, error)

	// FindSpaces finds spaces matching the filter
	FindSpaces(ctx context.Context, filter space.Filter) ([]space.Space, error)

	// SetLifecycleState updates just the lifecycle state of a space
	SetLifecycleState(ctx context.Context, spaceID string, state space.LifecycleState) error

	// TouchActivity updates a space's last-activity time
	TouchActivity(ctx context.Context, spaceID string, at time.Time) error
}

// Notifier publishes lifecycle events
type Notifier interface {
	PublishEvent(subject string, payload interface{})
}

// ManagerConfig contains configuration for the space manager
type ManagerConfig struct {
	EventsTopic    string
	DormancyWindow time.Duration
	SweepLimit     int
}

// Manager implements the space.Manager interface. Transitions follow
// created → active → dormant → archived; archived is terminal and
// manual-only.
type Manager struct {
	store             SpaceStore
	notifier          Notifier
	config            ManagerConfig
	lifecycleHandlers []func(space.Space, space.LifecycleState) error
	now               func() time.Time
	mu                sync.RWMutex
}

// NewManager creates a new space lifecycle manager
func NewManager(store SpaceStore, notifier Notifier, config ManagerConfig) *Manager {
	if config.SweepLimit <= 0 {
		config.SweepLimit = 500
	}
	return &Manager{
		store:    store,
		notifier: notifier,
		config:   config,
		now:      time.Now,
	}
}

// GetSpace returns a space by ID
func (m *Manager) GetSpace(ctx context.Context, id string) (*space.Space, error) {
	return m.store.GetSpace(ctx, id)
}

// ListSpaces returns spaces matching the given filter
func (m *Manager) ListSpaces(ctx context.Context, filter space.Filter) ([]space.Space, error) {
	return m.store.FindSpaces(ctx, filter)
}

// ActivateOnFirstTool applies the created → active transition when the
// first tool lands in a space. A space already past created only gets its
// activity time bumped.
func (m *Manager) ActivateOnFirstTool(ctx context.Context, spaceID string, at time.Time) error {
	s, err := m.store.GetSpace(ctx, spaceID)
	if err != nil {
		return fmt.Errorf("error getting space: %w", err)
	}

	if err := m.store.TouchActivity(ctx, spaceID, at); err != nil {
		return fmt.Errorf("error updating activity time: %w", err)
	}

	if s.LifecycleState != space.StateCreated {
		return nil
	}
	return m.transition(ctx, s, space.StateActive)
}

// MarkActivity bumps a space's last-activity time. A dormant space is
// re-promoted to active, mirroring the first-placement activation rule.
func (m *Manager) MarkActivity(ctx context.Context, spaceID string, at time.Time) error {
	s, err := m.store.GetSpace(ctx, spaceID)
	if err != nil {
		return fmt.Errorf("error getting space: %w", err)
	}

	if err := m.store.TouchActivity(ctx, spaceID, at); err != nil {
		return fmt.Errorf("error updating activity time: %w", err)
	}

	if s.LifecycleState != space.StateDormant {
		return nil
	}
	return m.transition(ctx, s, space.StateActive)
}

// Archive moves a space to the terminal archived state. Admin-only; there
// is no automated path here.
func (m *Manager) Archive(ctx context.Context, spaceID, adminID string) error {
	s, err := m.store.GetSpace(ctx, spaceID)
	if err != nil {
		return fmt.Errorf("error getting space: %w", err)
	}
	if s.LifecycleState == space.StateArchived {
		return nil
	}
	if !space.ValidTransition(s.LifecycleState, space.StateArchived) {
		return space.ErrInvalidTransition
	}

	if err := m.transition(ctx, s, space.StateArchived); err != nil {
		return err
	}
	log.Printf("space %s archived by %s", spaceID, adminID)
	return nil
}

// RunDormancySweep demotes active spaces whose last tool interaction is
// absent or older than the dormancy window. Safe to run repeatedly: a
// space already dormant is not matched, and a space with recent activity
// is never demoted regardless of sweep frequency.
func (m *Manager) RunDormancySweep(ctx context.Context) (int, error) {
	metrics.DormancySweeps.Inc()

	cutoff := m.now().Add(-m.config.DormancyWindow)
	stale, err := m.store.FindSpaces(ctx, space.Filter{
		LifecycleStates: []space.LifecycleState{space.StateActive},
		ActiveBefore:    cutoff,
		Limit:           m.config.SweepLimit,
	})
	if err != nil {
		return 0, fmt.Errorf("error finding stale spaces: %w", err)
	}

	demoted := 0
	for i := range stale {
		s := stale[i]
		// The store filter may lag a concurrent interaction write; recheck
		// against the loaded row before demoting.
		if s.LastActivityAt != nil && s.LastActivityAt.After(cutoff) {
			continue
		}
		if err := m.transition(ctx, &s, space.StateDormant); err != nil {
			log.Printf("sweep: error demoting space %s: %v", s.ID, err)
			continue
		}
		demoted++
		metrics.SpacesDemoted.Inc()
	}

	return demoted, nil
}

// RegisterLifecycleHandler registers a callback for lifecycle changes
func (m *Manager) RegisterLifecycleHandler(handler func(space.Space, space.LifecycleState) error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lifecycleHandlers = append(m.lifecycleHandlers, handler)
}

// transition moves a space to the target state, persists it, publishes the
// lifecycle event and invokes registered handlers.
func (m *Manager) transition(ctx context.Context, s *space.Space, to space.LifecycleState) error {
	if s.LifecycleState == to {
		return nil
	}
	if !space.ValidTransition(s.LifecycleState, to) {
		return space.ErrInvalidTransition
	}

	prev := s.LifecycleState
	s.LifecycleState = to
	if err := m.store.SetLifecycleState(ctx, s.ID, to); err != nil {
		s.LifecycleState = prev
		return fmt.Errorf("error saving lifecycle state: %w", err)
	}

	m.notifier.PublishEvent(fmt.Sprintf("%s.%s.lifecycle", m.config.EventsTopic, s.ID), map[string]interface{}{
		"space_id":   s.ID,
		"prev_state": prev,
		"new_state":  to,
		"at":         m.now(),
	})
	m.callLifecycleHandlers(*s, to)
	return nil
}

// callLifecycleHandlers calls all registered lifecycle handlers
func (m *Manager) callLifecycleHandlers(s space.Space, state space.LifecycleState) {
	m.mu.RLock()
	handlers := make([]func(space.Space, space.LifecycleState) error, len(m.lifecycleHandlers))
	copy(handlers, m.lifecycleHandlers)
	m.mu.RUnlock()

	for _, handler := range handlers {
		if err := handler(s, state); err != nil {
			log.Printf("error in lifecycle handler: %v", err)
		}
	}
}
