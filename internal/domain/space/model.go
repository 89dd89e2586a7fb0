package space

import (
	"time"
)

// LifecycleState represents the current state in a space's lifecycle
type LifecycleState string

const (
	StateCreated  LifecycleState = "created"
	StateActive   LifecycleState = "active"
	StateDormant  LifecycleState = "dormant"
	StateArchived LifecycleState = "archived"
)

// SpaceType identifies the kind of community a space serves
type SpaceType string

const (
	TypeAcademic      SpaceType = "academic"
	TypeResidential   SpaceType = "residential"
	TypeOrg           SpaceType = "org"
	TypeCommunity     SpaceType = "community"
	TypeHiveExclusive SpaceType = "hive_exclusive"
)

// ClaimStatus tracks whether a pre-seeded space has been claimed
type ClaimStatus string

const (
	ClaimUnclaimed   ClaimStatus = "unclaimed"
	ClaimPending     ClaimStatus = "pending"
	ClaimClaimed     ClaimStatus = "claimed"
	ClaimNotRequired ClaimStatus = "not_required"
)

// BuilderRole distinguishes the first approved builder from later ones
type BuilderRole string

const (
	RolePrimary   BuilderRole = "primary"
	RoleSecondary BuilderRole = "secondary"
)

// MaxBuilders is the hard cap on builders per space.
const MaxBuilders = 4

// Builder is an approved manager of a space
type Builder struct {
	UserID     string      `json:"user_id"`
	Role       BuilderRole `json:"role"`
	ApprovedAt time.Time   `json:"approved_at"`
}

// Space represents a campus community that users join and builders manage
type Space struct {
	ID             string
	Name           string
	Description    string
	SpaceType      SpaceType
	LifecycleState LifecycleState
	ClaimStatus    ClaimStatus
	Members        []string
	Builders       []Builder
	DefaultTools   []string
	CustomTools    []string
	TopicTags      []string
	LastActivityAt *time.Time
	CreatedAt      time.Time
	MemberCount    int
	Engagement     float64
	IsSurging      bool
}

// HasBuilder reports whether userID is an approved builder of the space.
func (s *Space) HasBuilder(userID string) bool {
	for _, b := range s.Builders {
		if b.UserID == userID {
			return true
		}
	}
	return false
}

// BuilderSlotsFull reports whether the space has reached the builder cap.
func (s *Space) BuilderSlotsFull() bool {
	return len(s.Builders) >= MaxBuilders
}

// Filter defines criteria for listing spaces
type Filter struct {
	LifecycleStates []LifecycleState
	SpaceTypes      []SpaceType
	Surging         *bool
	MemberID        string
	TopicTags       []string
	ActiveBefore    time.Time
	SearchTerms     string
	Limit           int
	Offset          int
}

// Transition describes one lifecycle state change
type Transition struct {
	From LifecycleState
	To   LifecycleState
}

// validTransitions enumerates every legal lifecycle move. Archival is
// manual-only but reachable from any non-terminal state.
var validTransitions = map[Transition]bool{
	{StateCreated, StateActive}:   true,
	{StateActive, StateDormant}:   true,
	{StateDormant, StateActive}:   true,
	{StateCreated, StateArchived}: true,
	{StateActive, StateArchived}:  true,
	{StateDormant, StateArchived}: true,
}

// ValidTransition reports whether moving from one lifecycle state to
// another is allowed. Skipping states (created → dormant) is not.
func ValidTransition(from, to LifecycleState) bool {
	return validTransitions[Transition{From: from, To: to}]
}
