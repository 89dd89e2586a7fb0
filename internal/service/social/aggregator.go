// internal/service/social/aggregator.go

package social

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"

	"hive/internal/domain/social"
)

// Store defines the storage interface for the social aggregator
type Store interface {
	// SaveActivity persists one tracked activity
	SaveActivity(ctx context.Context, a social.Activity) error

	// CountActivities returns per-category activity counts since the cutoff
	CountActivities(ctx context.Context, userID string, since time.Time) (map[social.ActivityCategory]int, error)

	// GetMetrics returns a user's aggregate row, or nil if none exists yet
	GetMetrics(ctx context.Context, userID string) (*social.Metrics, error)

	// SaveMetrics upserts the aggregate row, last write wins
	SaveMetrics(ctx context.Context, m social.Metrics) error

	// SaveFollow persists a follow edge
	SaveFollow(ctx context.Context, e social.FollowEdge) error

	// DeleteFollow removes a follow edge
	DeleteFollow(ctx context.Context, followerID, followedID string) error

	// FollowCounts returns follower and following counts for a user
	FollowCounts(ctx context.Context, userID string) (followers, following int, err error)

	// FollowerIDs lists users following the given user
	FollowerIDs(ctx context.Context, userID string) ([]string, error)

	// FollowingSet returns user IDs the user follows
	FollowingSet(ctx context.Context, userID string) (map[string]struct{}, error)

	// CountNewFollowers counts follow edges toward the user since the cutoff
	CountNewFollowers(ctx context.Context, userID string, since time.Time) (int, error)

	// TryUnlockAchievement inserts an achievement if the (user, key) pair is
	// new and reports whether this call performed the insert
	TryUnlockAchievement(ctx context.Context, a social.Achievement) (bool, error)

	// SaveInsight persists a weekly social insight
	SaveInsight(ctx context.Context, ins social.Insight) error

	// FindActiveUserIDs lists users with tracked activity since the cutoff
	FindActiveUserIDs(ctx context.Context, since time.Time, limit int) ([]string, error)
}

// Notifier dispatches fire-and-forget notifications
type Notifier interface {
	NotifyUser(userID, kind, title, body string, data map[string]interface{})
}

// AggregatorConfig contains configuration for engagement and social-graph
// aggregation
type AggregatorConfig struct {
	DecayWindow       time.Duration
	EventWeight       float64
	SpaceWeight       float64
	SocialWeight      float64
	ContentWeight     float64
	StrongConnections int
	InsightsBatch     int
}

// Aggregator maintains per-user engagement scores, streaks and
// social-graph metrics. Recomputation is last-write-wins on the aggregate
// row; concurrent triggers for the same user are tolerated.
type Aggregator struct {
	store    Store
	notifier Notifier
	config   AggregatorConfig
	subs     []*nats.Subscription
	now      func() time.Time
}

// NewAggregator creates a social aggregator
func NewAggregator(store Store, notifier Notifier, config AggregatorConfig) *Aggregator {
	if config.StrongConnections <= 0 {
		config.StrongConnections = 5
	}
	if config.InsightsBatch <= 0 {
		config.InsightsBatch = 500
	}
	return &Aggregator{
		store:    store,
		notifier: notifier,
		config:   config,
		now:      time.Now,
	}
}

// activityEvent is the wire shape of activity trigger messages.
type activityEvent struct {
	UserID     string    `json:"user_id"`
	Category   string    `json:"category"`
	Action     string    `json:"action"`
	TargetID   string    `json:"target_id"`
	TargetType string    `json:"target_type"`
	OccurredAt time.Time `json:"occurred_at"`
}

// Subscribe attaches the aggregator to the activity and follow trigger
// subjects so components that only publish (tool interactions, content
// views, other services managing the graph) still feed aggregation.
func (a *Aggregator) Subscribe(conn *nats.Conn) error {
	sub, err := conn.Subscribe("hive.activity.recorded", func(msg *nats.Msg) {
		var ev activityEvent
		if err := json.Unmarshal(msg.Data, &ev); err != nil {
			log.Printf("social: error decoding activity event: %v", err)
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := a.RecordActivity(ctx, social.Activity{
			UserID:     ev.UserID,
			Category:   social.ActivityCategory(ev.Category),
			Action:     ev.Action,
			TargetID:   ev.TargetID,
			TargetType: ev.TargetType,
			OccurredAt: ev.OccurredAt,
		}); err != nil {
			log.Printf("social: error applying activity event: %v", err)
		}
	})
	if err != nil {
		return fmt.Errorf("failed to subscribe to activity events: %w", err)
	}
	a.subs = append(a.subs, sub)

	followSub, err := conn.Subscribe("hive.follow.created", func(msg *nats.Msg) {
		a.handleFollowEvent(msg.Data, false)
	})
	if err != nil {
		return fmt.Errorf("failed to subscribe to follow events: %w", err)
	}
	a.subs = append(a.subs, followSub)

	unfollowSub, err := conn.Subscribe("hive.follow.removed", func(msg *nats.Msg) {
		a.handleFollowEvent(msg.Data, true)
	})
	if err != nil {
		return fmt.Errorf("failed to subscribe to unfollow events: %w", err)
	}
	a.subs = append(a.subs, unfollowSub)

	return nil
}

// followEvent is the wire shape of follow trigger messages.
type followEvent struct {
	FollowerID string `json:"follower_id"`
	FollowedID string `json:"followed_id"`
}

func (a *Aggregator) handleFollowEvent(data []byte, removed bool) {
	var ev followEvent
	if err := json.Unmarshal(data, &ev); err != nil {
		log.Printf("social: error decoding follow event: %v", err)
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	var err error
	if removed {
		err = a.Unfollow(ctx, ev.FollowerID, ev.FollowedID)
	} else {
		err = a.Follow(ctx, ev.FollowerID, ev.FollowedID)
	}
	if err != nil {
		log.Printf("social: error applying follow event: %v", err)
	}
}

// Unsubscribe detaches all trigger subscriptions.
func (a *Aggregator) Unsubscribe() {
	for _, sub := range a.subs {
		if err := sub.Unsubscribe(); err != nil {
			log.Printf("social: error unsubscribing: %v", err)
		}
	}
	a.subs = nil
}

// RecordActivity persists one activity and recomputes the user's
// aggregates, including the calendar-day streak.
func (a *Aggregator) RecordActivity(ctx context.Context, act social.Activity) error {
	if act.ID == "" {
		act.ID = uuid.New().String()
	}
	if act.OccurredAt.IsZero() {
		act.OccurredAt = a.now()
	}

	if err := a.store.SaveActivity(ctx, act); err != nil {
		return fmt.Errorf("error saving activity: %w", err)
	}

	m, err := a.loadOrInitMetrics(ctx, act.UserID)
	if err != nil {
		return err
	}

	streak, changed := NextStreak(m.Streak, m.LastActiveDay, act.OccurredAt)
	m.Streak = streak
	day := dayOf(act.OccurredAt)
	m.LastActiveDay = &day
	if changed {
		a.unlockMilestones(ctx, act.UserID, streak)
	}

	return a.recompute(ctx, m)
}

// Follow creates a follow edge and recomputes both endpoints' metrics.
func (a *Aggregator) Follow(ctx context.Context, followerID, followedID string) error {
	if followerID == followedID {
		return fmt.Errorf("users cannot follow themselves")
	}
	if err := a.store.SaveFollow(ctx, social.FollowEdge{
		FollowerID: followerID,
		FollowedID: followedID,
		CreatedAt:  a.now(),
	}); err != nil {
		return fmt.Errorf("error saving follow edge: %w", err)
	}

	a.notifier.NotifyUser(followedID, "new_follower", "New follower",
		"Someone started following you",
		map[string]interface{}{"follower_id": followerID})

	return a.recomputeBoth(ctx, followerID, followedID)
}

// Unfollow removes a follow edge and recomputes both endpoints' metrics.
func (a *Aggregator) Unfollow(ctx context.Context, followerID, followedID string) error {
	if err := a.store.DeleteFollow(ctx, followerID, followedID); err != nil {
		return fmt.Errorf("error deleting follow edge: %w", err)
	}
	return a.recomputeBoth(ctx, followerID, followedID)
}

// GetMetrics returns a user's aggregate metrics, zero-valued if the user
// has no activity yet.
func (a *Aggregator) GetMetrics(ctx context.Context, userID string) (*social.Metrics, error) {
	m, err := a.store.GetMetrics(ctx, userID)
	if err != nil {
		return nil, err
	}
	if m == nil {
		return &social.Metrics{UserID: userID}, nil
	}
	return m, nil
}

// MutualConnectionCount returns the size of the intersection of two users'
// following sets.
func (a *Aggregator) MutualConnectionCount(ctx context.Context, userA, userB string) (int, error) {
	fa, err := a.store.FollowingSet(ctx, userA)
	if err != nil {
		return 0, fmt.Errorf("error loading following set: %w", err)
	}
	fb, err := a.store.FollowingSet(ctx, userB)
	if err != nil {
		return 0, fmt.Errorf("error loading following set: %w", err)
	}
	n := 0
	for id := range fa {
		if _, ok := fb[id]; ok {
			n++
		}
	}
	return n, nil
}

func (a *Aggregator) recomputeBoth(ctx context.Context, userA, userB string) error {
	for _, id := range []string{userA, userB} {
		m, err := a.loadOrInitMetrics(ctx, id)
		if err != nil {
			return err
		}
		if err := a.recompute(ctx, m); err != nil {
			return err
		}
	}
	return nil
}

func (a *Aggregator) loadOrInitMetrics(ctx context.Context, userID string) (*social.Metrics, error) {
	m, err := a.store.GetMetrics(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("error loading metrics: %w", err)
	}
	if m == nil {
		m = &social.Metrics{UserID: userID}
	}
	return m, nil
}

// recompute refreshes the derived fields of one user's aggregate row and
// saves it.
func (a *Aggregator) recompute(ctx context.Context, m *social.Metrics) error {
	now := a.now()

	counts, err := a.store.CountActivities(ctx, m.UserID, now.Add(-a.config.DecayWindow))
	if err != nil {
		return fmt.Errorf("error counting activities: %w", err)
	}

	raw := float64(counts[social.CategoryEvents])*a.config.EventWeight +
		float64(counts[social.CategorySpaces])*a.config.SpaceWeight +
		float64(counts[social.CategorySocial])*a.config.SocialWeight +
		float64(counts[social.CategoryContent])*a.config.ContentWeight
	m.EngagementScore = raw * RecencyDecay(m.LastActiveDay, now, a.config.DecayWindow)

	followers, following, err := a.store.FollowCounts(ctx, m.UserID)
	if err != nil {
		return fmt.Errorf("error counting follows: %w", err)
	}
	m.FollowerCount = followers
	m.FollowingCount = following

	strong, err := a.countStrongConnections(ctx, m.UserID)
	if err != nil {
		return fmt.Errorf("error counting strong connections: %w", err)
	}
	m.InfluenceScore = float64(followers) +
		0.5*float64(counts[social.CategoryEvents]) +
		2.0*float64(strong)

	m.UpdatedAt = now
	if err := a.store.SaveMetrics(ctx, *m); err != nil {
		return fmt.Errorf("error saving metrics: %w", err)
	}
	return nil
}

// countStrongConnections counts the user's top followers by mutual
// connections. A follower with no mutuals is never a strong connection.
func (a *Aggregator) countStrongConnections(ctx context.Context, userID string) (int, error) {
	followerIDs, err := a.store.FollowerIDs(ctx, userID)
	if err != nil {
		return 0, err
	}
	if len(followerIDs) == 0 {
		return 0, nil
	}

	own, err := a.store.FollowingSet(ctx, userID)
	if err != nil {
		return 0, err
	}

	mutuals := make([]int, 0, len(followerIDs))
	for _, fid := range followerIDs {
		theirs, err := a.store.FollowingSet(ctx, fid)
		if err != nil {
			return 0, err
		}
		n := 0
		for id := range theirs {
			if _, ok := own[id]; ok {
				n++
			}
		}
		if n > 0 {
			mutuals = append(mutuals, n)
		}
	}

	sort.Sort(sort.Reverse(sort.IntSlice(mutuals)))
	if len(mutuals) > a.config.StrongConnections {
		return a.config.StrongConnections, nil
	}
	return len(mutuals), nil
}

// unlockMilestones unlocks the streak achievement for the reached count,
// at most once per milestone per user.
func (a *Aggregator) unlockMilestones(ctx context.Context, userID string, streak int) {
	for _, milestone := range social.StreakMilestones {
		if streak != milestone {
			continue
		}
		key := fmt.Sprintf("streak_%d", milestone)
		inserted, err := a.store.TryUnlockAchievement(ctx, social.Achievement{
			ID:         uuid.New().String(),
			UserID:     userID,
			Key:        key,
			UnlockedAt: a.now(),
		})
		if err != nil {
			log.Printf("social: error unlocking achievement %s for %s: %v", key, userID, err)
			return
		}
		if inserted {
			a.notifier.NotifyUser(userID, "streak_milestone",
				fmt.Sprintf("%d-day streak!", milestone),
				fmt.Sprintf("You've been active %d days in a row", milestone),
				map[string]interface{}{"milestone": milestone})
		}
	}
}
