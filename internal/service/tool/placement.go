// internal/service/tool/placement.go

package tool

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"hive/internal/domain/space"
	"hive/internal/domain/tool"
	"hive/internal/metrics"
)

// ToolStore defines the storage interface for tools
type ToolStore interface {
	// SaveTool saves a tool to storage
	SaveTool(ctx context.Context, t tool.Tool) error

	// GetTool retrieves a tool by ID
	GetTool(ctx context.Context, id string) (*tool.Tool, error)

	// FindToolsForSpace lists a space's tools
	FindToolsForSpace(ctx context.Context, spaceID string) ([]tool.Tool, error)

	// RecordInteraction atomically increments the interaction count and
	// stamps the interaction time
	RecordInteraction(ctx context.Context, toolID string, at time.Time) error

	// SetSurgeScore persists a recomputed surge score
	SetSurgeScore(ctx context.Context, toolID string, score float64) error
}

// SpaceStore is the slice of space storage the placement service needs
type SpaceStore interface {
	GetSpace(ctx context.Context, id string) (*space.Space, error)
	AppendCustomTool(ctx context.Context, spaceID, toolID string) error

	// MarkSurging flips the surge flag and reports whether this call
	// performed the flip, so surge marking stays idempotent
	MarkSurging(ctx context.Context, spaceID string) (bool, error)
}

// Lifecycle is the slice of the space manager the placement service needs
type Lifecycle interface {
	ActivateOnFirstTool(ctx context.Context, spaceID string, at time.Time) error
	MarkActivity(ctx context.Context, spaceID string, at time.Time) error
}

// Notifier dispatches fire-and-forget notifications and events
type Notifier interface {
	NotifyUser(userID, kind, title, body string, data map[string]interface{})
	PublishEvent(subject string, payload interface{})
}

// ServiceConfig contains configuration for tool placement and surge
// detection
type ServiceConfig struct {
	EventsTopic    string
	SurgeThreshold float64
	SurgeHalfLife  time.Duration
}

// Service records tool placements and interactions and detects surges
type Service struct {
	tools     ToolStore
	spaces    SpaceStore
	lifecycle Lifecycle
	notifier  Notifier
	config    ServiceConfig
	now       func() time.Time
}

// NewService creates a tool placement service
func NewService(tools ToolStore, spaces SpaceStore, lifecycle Lifecycle, notifier Notifier, config ServiceConfig) *Service {
	if config.SurgeHalfLife <= 0 {
		config.SurgeHalfLife = 24 * time.Hour
	}
	return &Service{
		tools:     tools,
		spaces:    spaces,
		lifecycle: lifecycle,
		notifier:  notifier,
		config:    config,
		now:       time.Now,
	}
}

// Place persists a new tool in a space. Only approved builders of the
// space may place tools; the first placement flips a created space to
// active.
func (s *Service) Place(ctx context.Context, spaceID, builderID string, draft tool.Draft) (*tool.Tool, error) {
	if err := draft.Validate(); err != nil {
		return nil, err
	}

	sp, err := s.spaces.GetSpace(ctx, spaceID)
	if err != nil {
		return nil, fmt.Errorf("error getting space: %w", err)
	}
	if !sp.HasBuilder(builderID) {
		return nil, tool.ErrNoPermission
	}

	now := s.now()
	t := tool.Tool{
		ID:               uuid.New().String(),
		SpaceID:          spaceID,
		Name:             draft.Name,
		CreatedBy:        builderID,
		Elements:         draft.Elements,
		IsActive:         true,
		InteractionCount: 0,
		SurgeScore:       0,
		PlacedAt:         now,
	}

	if err := s.tools.SaveTool(ctx, t); err != nil {
		return nil, fmt.Errorf("error saving tool: %w", err)
	}
	if err := s.spaces.AppendCustomTool(ctx, spaceID, t.ID); err != nil {
		return nil, fmt.Errorf("error attaching tool to space: %w", err)
	}
	metrics.ToolsPlaced.Inc()

	if err := s.lifecycle.ActivateOnFirstTool(ctx, spaceID, now); err != nil {
		// The tool is placed; activation will be retried by the next
		// interaction bump.
		log.Printf("error activating space %s on first tool: %v", spaceID, err)
	}

	s.notifier.PublishEvent(fmt.Sprintf("%s.%s.tools", s.config.EventsTopic, spaceID), map[string]interface{}{
		"space_id": spaceID,
		"tool_id":  t.ID,
		"name":     t.Name,
		"event":    "placed",
	})

	return &t, nil
}

// RecordInteraction records one user interaction with a tool. It is
// best-effort end to end: every failure is logged and swallowed so the
// caller never blocks on it.
func (s *Service) RecordInteraction(ctx context.Context, toolID, userID string) {
	t, err := s.tools.GetTool(ctx, toolID)
	if err != nil {
		log.Printf("interaction: error getting tool %s: %v", toolID, err)
		return
	}

	now := s.now()
	if err := s.tools.RecordInteraction(ctx, toolID, now); err != nil {
		log.Printf("interaction: error recording for tool %s: %v", toolID, err)
		return
	}
	metrics.ToolInteractions.Inc()

	// Activity bump re-promotes a dormant space.
	if err := s.lifecycle.MarkActivity(ctx, t.SpaceID, now); err != nil {
		log.Printf("interaction: error marking space %s activity: %v", t.SpaceID, err)
	}

	score := NextSurgeScore(t.SurgeScore, t.LastInteraction, now, s.config.SurgeHalfLife)
	if err := s.tools.SetSurgeScore(ctx, toolID, score); err != nil {
		log.Printf("interaction: error saving surge score for tool %s: %v", toolID, err)
		return
	}

	if score >= s.config.SurgeThreshold {
		s.markSurging(ctx, t, score)
	}
}

// GetTool returns a tool by ID
func (s *Service) GetTool(ctx context.Context, id string) (*tool.Tool, error) {
	return s.tools.GetTool(ctx, id)
}

// ListForSpace lists a space's tools
func (s *Service) ListForSpace(ctx context.Context, spaceID string) ([]tool.Tool, error) {
	return s.tools.FindToolsForSpace(ctx, spaceID)
}

// markSurging flips the owning space's surge flag. The store reports
// whether this call did the flip; re-marking an already surging space is a
// no-op and emits nothing.
func (s *Service) markSurging(ctx context.Context, t *tool.Tool, score float64) {
	flipped, err := s.spaces.MarkSurging(ctx, t.SpaceID)
	if err != nil {
		log.Printf("interaction: error marking space %s surging: %v", t.SpaceID, err)
		return
	}
	if !flipped {
		return
	}
	metrics.SurgesDetected.Inc()

	s.notifier.PublishEvent(fmt.Sprintf("%s.%s.surge", s.config.EventsTopic, t.SpaceID), map[string]interface{}{
		"space_id":    t.SpaceID,
		"tool_id":     t.ID,
		"surge_score": score,
	})
	s.notifier.NotifyUser(
		t.CreatedBy,
		"tool_surging",
		"Your tool is surging",
		fmt.Sprintf("%s crossed the surge threshold", t.Name),
		map[string]interface{}{"tool_id": t.ID, "space_id": t.SpaceID},
	)
}
