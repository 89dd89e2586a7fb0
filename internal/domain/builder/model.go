package builder

import (
	"errors"
	"time"
)

// RequestType identifies how the requester relates to the space
type RequestType string

const (
	RequestStandard          RequestType = "standard"
	RequestOrgOfficer        RequestType = "org_officer"
	RequestRA                RequestType = "ra"
	RequestOrientationLeader RequestType = "orientation_leader"
)

// Status is the review state of a builder request
type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusDenied   Status = "denied"
)

// Decision is an admin's verdict on a pending request
type Decision string

const (
	DecisionApprove Decision = "approved"
	DecisionDeny    Decision = "denied"
)

// Validation errors surfaced to callers with their user-facing message.
var (
	ErrDuplicateRequest = errors.New("you already have an active builder request for this space")
	ErrBuilderLimit     = errors.New("this space already has the maximum number of builders (4)")
	ErrRequestNotFound  = errors.New("builder request not found")
	ErrAlreadyReviewed  = errors.New("this builder request has already been reviewed")
)

// Request is a user's application to become a builder for a space
type Request struct {
	ID                     string
	UserID                 string
	SpaceID                string
	RequestType            RequestType
	Status                 Status
	Message                string
	RequiresExtraAttention bool
	SubmittedAt            time.Time
	ReviewedAt             *time.Time
	ReviewedBy             string
	ReviewNotes            string
}

// NeedsExtraAttention reports whether a request type gets flagged for
// special admin review. RA and orientation-leader requests grant access
// to residence and orientation spaces, so they are held to a higher bar.
func NeedsExtraAttention(t RequestType) bool {
	return t == RequestRA || t == RequestOrientationLeader
}

// Active reports whether the request still occupies the one-active-request
// slot for its (user, space) pair.
func (r *Request) Active() bool {
	return r.Status == StatusPending || r.Status == StatusApproved
}
