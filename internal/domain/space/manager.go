// internal/domain/space/manager.go

package space

import (
	"context"
	"errors"
	"time"
)

// ErrSpaceNotFound is returned when a space ID resolves to nothing.
var ErrSpaceNotFound = errors.New("space not found")

// ErrInvalidTransition is returned for lifecycle moves outside the
// created → active → dormant → archived graph.
var ErrInvalidTransition = errors.New("invalid lifecycle transition")

// Manager defines the interface for space lifecycle management
type Manager interface {
	// GetSpace returns a space by ID
	GetSpace(ctx context.Context, id string) (*Space, error)

	// ListSpaces returns spaces matching the given filter
	ListSpaces(ctx context.Context, filter Filter) ([]Space, error)

	// MarkActivity bumps a space's last-activity time, re-promoting a
	// dormant space to active
	MarkActivity(ctx context.Context, spaceID string, at time.Time) error

	// ActivateOnFirstTool applies the created → active transition when the
	// first tool lands in a space
	ActivateOnFirstTool(ctx context.Context, spaceID string, at time.Time) error

	// Archive moves a space to the terminal archived state (admin only)
	Archive(ctx context.Context, spaceID, adminID string) error

	// RunDormancySweep demotes active spaces with no tool interaction
	// inside the dormancy window; safe to run repeatedly
	RunDormancySweep(ctx context.Context) (int, error)

	// RegisterLifecycleHandler registers a callback for lifecycle changes
	RegisterLifecycleHandler(handler func(Space, LifecycleState) error)
}
