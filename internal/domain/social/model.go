package social

import (
	"errors"
	"time"
)

// ErrUserNotFound is returned when a user ID resolves to nothing.
var ErrUserNotFound = errors.New("user not found")

// ActivityCategory buckets tracked activity for engagement weighting
type ActivityCategory string

const (
	CategoryEvents  ActivityCategory = "events"
	CategorySpaces  ActivityCategory = "spaces"
	CategorySocial  ActivityCategory = "social"
	CategoryContent ActivityCategory = "content"
)

// Activity is one tracked user action
type Activity struct {
	ID         string
	UserID     string
	Category   ActivityCategory
	Action     string
	TargetID   string
	TargetType string
	OccurredAt time.Time
}

// Profile holds a user's identity and profile attributes
type Profile struct {
	UserID       string
	Major        string
	AcademicYear int
	Residence    string
	Interests    []string
	CreatedAt    time.Time
}

// Metrics is the derived per-user aggregate, recomputed on every tracked
// activity or follow-edge change. Last write wins.
type Metrics struct {
	UserID          string
	EngagementScore float64
	Streak          int
	LastActiveDay   *time.Time
	FollowerCount   int
	FollowingCount  int
	InfluenceScore  float64
	UpdatedAt       time.Time
}

// FollowEdge is a directed follower → followed relationship
type FollowEdge struct {
	FollowerID string
	FollowedID string
	CreatedAt  time.Time
}

// Achievement records one unlocked milestone, unique per (user, key)
type Achievement struct {
	ID         string
	UserID     string
	Key        string
	UnlockedAt time.Time
}

// StreakMilestones are the consecutive-day counts that unlock an
// achievement, each exactly once.
var StreakMilestones = []int{3, 7, 14, 30, 60, 90, 180, 365}

// Insight is one entry of a user's weekly social summary
type Insight struct {
	ID            string
	UserID        string
	WeekStart     time.Time
	FollowerDelta int
	TopMutuals    []string
	Streak        int
	GeneratedAt   time.Time
}
