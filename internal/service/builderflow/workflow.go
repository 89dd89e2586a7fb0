// internal/service/builderflow/workflow.go

package builderflow

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"hive/internal/domain/builder"
	"hive/internal/domain/space"
	"hive/internal/metrics"
)

// RequestStore defines the storage interface for builder requests
type RequestStore interface {
	// SaveRequest saves a builder request to storage
	SaveRequest(ctx context.Context, r builder.Request) error

	// GetRequest retrieves a builder request by ID
	GetRequest(ctx context.Context, id string) (*builder.Request, error)

	// FindActiveRequest finds a pending or approved request for a
	// (user, space) pair, or returns nil
	FindActiveRequest(ctx context.Context, userID, spaceID string) (*builder.Request, error)

	// FindRequestsForSpace lists requests for a space, newest first
	FindRequestsForSpace(ctx context.Context, spaceID string) ([]builder.Request, error)
}

// SpaceStore is the slice of space storage the workflow needs
type SpaceStore interface {
	GetSpace(ctx context.Context, id string) (*space.Space, error)
	AddBuilder(ctx context.Context, spaceID string, b space.Builder) error
}

// Notifier dispatches fire-and-forget notifications
type Notifier interface {
	NotifyUser(userID, kind, title, body string, data map[string]interface{})
	NotifyAdmins(kind, title, body string, data map[string]interface{})
}

// Submission is the caller-supplied portion of a builder request
type Submission struct {
	RequestType builder.RequestType `json:"request_type"`
	Message     string              `json:"message"`
}

// Workflow validates, tracks and reviews builder requests
type Workflow struct {
	requests RequestStore
	spaces   SpaceStore
	notifier Notifier
	now      func() time.Time
}

// NewWorkflow creates a builder request workflow
func NewWorkflow(requests RequestStore, spaces SpaceStore, notifier Notifier) *Workflow {
	return &Workflow{
		requests: requests,
		spaces:   spaces,
		notifier: notifier,
		now:      time.Now,
	}
}

// Submit creates a pending builder request for (userID, spaceID).
// It returns builder.ErrDuplicateRequest when an active request already
// exists for the pair and builder.ErrBuilderLimit when the space's builder
// slots are full.
func (w *Workflow) Submit(ctx context.Context, userID, spaceID string, sub Submission) (*builder.Request, error) {
	existing, err := w.requests.FindActiveRequest(ctx, userID, spaceID)
	if err != nil {
		return nil, fmt.Errorf("error checking existing requests: %w", err)
	}
	if existing != nil {
		return nil, builder.ErrDuplicateRequest
	}

	sp, err := w.spaces.GetSpace(ctx, spaceID)
	if err != nil {
		return nil, fmt.Errorf("error getting space: %w", err)
	}
	if sp.BuilderSlotsFull() {
		return nil, builder.ErrBuilderLimit
	}

	req := builder.Request{
		ID:                     uuid.New().String(),
		UserID:                 userID,
		SpaceID:                spaceID,
		RequestType:            sub.RequestType,
		Status:                 builder.StatusPending,
		Message:                sub.Message,
		RequiresExtraAttention: builder.NeedsExtraAttention(sub.RequestType),
		SubmittedAt:            w.now(),
	}

	if err := w.requests.SaveRequest(ctx, req); err != nil {
		return nil, fmt.Errorf("error saving request: %w", err)
	}
	metrics.BuilderRequestsSubmitted.Inc()

	if req.RequiresExtraAttention {
		w.notifier.NotifyAdmins(
			"builder_request_attention",
			"Builder request needs review",
			fmt.Sprintf("A %s builder request for %s needs extra attention", req.RequestType, sp.Name),
			map[string]interface{}{"request_id": req.ID, "space_id": spaceID},
		)
	}

	return &req, nil
}

// Review applies an admin decision to a pending request. Approval appends
// the requester to the space's builder list; the space's lifecycle state is
// untouched because activation is gated on the first tool placement.
func (w *Workflow) Review(ctx context.Context, requestID, adminID string, decision builder.Decision, notes string) error {
	req, err := w.requests.GetRequest(ctx, requestID)
	if err != nil {
		return fmt.Errorf("error getting request: %w", err)
	}
	if req == nil {
		return builder.ErrRequestNotFound
	}
	if req.Status != builder.StatusPending {
		return builder.ErrAlreadyReviewed
	}

	now := w.now()
	req.ReviewedAt = &now
	req.ReviewedBy = adminID
	req.ReviewNotes = notes

	switch decision {
	case builder.DecisionApprove:
		sp, err := w.spaces.GetSpace(ctx, req.SpaceID)
		if err != nil {
			return fmt.Errorf("error getting space: %w", err)
		}
		if sp.BuilderSlotsFull() {
			return builder.ErrBuilderLimit
		}

		role := space.RoleSecondary
		if len(sp.Builders) == 0 {
			role = space.RolePrimary
		}

		req.Status = builder.StatusApproved
		if err := w.requests.SaveRequest(ctx, *req); err != nil {
			return fmt.Errorf("error saving request: %w", err)
		}
		if err := w.spaces.AddBuilder(ctx, req.SpaceID, space.Builder{
			UserID:     req.UserID,
			Role:       role,
			ApprovedAt: now,
		}); err != nil {
			return fmt.Errorf("error adding builder to space: %w", err)
		}
		metrics.BuilderRequestsApproved.Inc()

		w.notifier.NotifyUser(
			req.UserID,
			"builder_request_approved",
			"Builder request approved",
			fmt.Sprintf("You are now a %s builder of %s", role, sp.Name),
			map[string]interface{}{"request_id": req.ID, "space_id": req.SpaceID},
		)

	case builder.DecisionDeny:
		req.Status = builder.StatusDenied
		if err := w.requests.SaveRequest(ctx, *req); err != nil {
			return fmt.Errorf("error saving request: %w", err)
		}
		metrics.BuilderRequestsDenied.Inc()

		w.notifier.NotifyUser(
			req.UserID,
			"builder_request_denied",
			"Builder request denied",
			"Your builder request was not approved",
			map[string]interface{}{"request_id": req.ID, "space_id": req.SpaceID},
		)

	default:
		return fmt.Errorf("unknown decision %q", decision)
	}

	return nil
}

// ListForSpace lists a space's builder requests for admin review screens.
func (w *Workflow) ListForSpace(ctx context.Context, spaceID string) ([]builder.Request, error) {
	return w.requests.FindRequestsForSpace(ctx, spaceID)
}
