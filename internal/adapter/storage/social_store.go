// internal/adapter/storage/social_store.go

package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"hive/internal/domain/social"
)

// SocialStore implements storage for users, activities, follow edges,
// achievements and insights
type SocialStore struct {
	db *pgxpool.Pool
}

// NewSocialStore creates a new social store
func NewSocialStore(db *pgxpool.Pool) *SocialStore {
	return &SocialStore{
		db: db,
	}
}

// SaveProfile upserts a user's profile attributes
func (s *SocialStore) SaveProfile(ctx context.Context, p social.Profile) error {
	query := `
		INSERT INTO users (id, major, academic_year, residence, interests, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO UPDATE
		SET major = $2, academic_year = $3, residence = $4, interests = $5
	`
	_, err := s.db.Exec(ctx, query, p.UserID, p.Major, p.AcademicYear, p.Residence, p.Interests, p.CreatedAt)
	if err != nil {
		return fmt.Errorf("error executing query: %w", err)
	}
	return nil
}

// GetProfile returns a user's profile attributes
func (s *SocialStore) GetProfile(ctx context.Context, userID string) (*social.Profile, error) {
	query := `
		SELECT id, major, academic_year, residence, interests, created_at
		FROM users
		WHERE id = $1
	`
	var p social.Profile
	err := s.db.QueryRow(ctx, query, userID).Scan(
		&p.UserID, &p.Major, &p.AcademicYear, &p.Residence, &p.Interests, &p.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, social.ErrUserNotFound
		}
		return nil, fmt.Errorf("error querying profile: %w", err)
	}
	return &p, nil
}

// SaveActivity persists one tracked activity
func (s *SocialStore) SaveActivity(ctx context.Context, a social.Activity) error {
	query := `
		INSERT INTO activities (id, user_id, category, action, target_id, target_type, occurred_at)
		VALUES ($1, $2, $3::activity_category, $4, $5, $6, $7)
	`
	_, err := s.db.Exec(ctx, query, a.ID, a.UserID, string(a.Category), a.Action, a.TargetID, a.TargetType, a.OccurredAt)
	if err != nil {
		return fmt.Errorf("error executing query: %w", err)
	}
	return nil
}

// CountActivities returns per-category activity counts since the cutoff
func (s *SocialStore) CountActivities(ctx context.Context, userID string, since time.Time) (map[social.ActivityCategory]int, error) {
	query := `
		SELECT category::text, COUNT(*)
		FROM activities
		WHERE user_id = $1 AND occurred_at >= $2
		GROUP BY category
	`
	rows, err := s.db.Query(ctx, query, userID, since)
	if err != nil {
		return nil, fmt.Errorf("error executing query: %w", err)
	}
	defer rows.Close()

	counts := make(map[social.ActivityCategory]int)
	for rows.Next() {
		var category string
		var count int
		if err := rows.Scan(&category, &count); err != nil {
			return nil, fmt.Errorf("error scanning count: %w", err)
		}
		counts[social.ActivityCategory(category)] = count
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating counts: %w", err)
	}
	return counts, nil
}

// FindActiveUserIDs lists users with tracked activity since the cutoff
func (s *SocialStore) FindActiveUserIDs(ctx context.Context, since time.Time, limit int) ([]string, error) {
	query := `
		SELECT DISTINCT user_id
		FROM activities
		WHERE occurred_at >= $1
		LIMIT $2
	`
	rows, err := s.db.Query(ctx, query, since, limit)
	if err != nil {
		return nil, fmt.Errorf("error executing query: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("error scanning user ID: %w", err)
		}
		ids = append(ids, id)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating user IDs: %w", err)
	}
	return ids, nil
}

// GetMetrics returns a user's aggregate row, or nil if none exists yet
func (s *SocialStore) GetMetrics(ctx context.Context, userID string) (*social.Metrics, error) {
	query := `
		SELECT user_id, engagement_score, streak, last_active_day,
			follower_count, following_count, influence_score, updated_at
		FROM user_metrics
		WHERE user_id = $1
	`
	var m social.Metrics
	err := s.db.QueryRow(ctx, query, userID).Scan(
		&m.UserID, &m.EngagementScore, &m.Streak, &m.LastActiveDay,
		&m.FollowerCount, &m.FollowingCount, &m.InfluenceScore, &m.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("error querying metrics: %w", err)
	}
	return &m, nil
}

// SaveMetrics upserts the aggregate row, last write wins
func (s *SocialStore) SaveMetrics(ctx context.Context, m social.Metrics) error {
	query := `
		INSERT INTO user_metrics (
			user_id, engagement_score, streak, last_active_day,
			follower_count, following_count, influence_score, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (user_id) DO UPDATE
		SET
			engagement_score = $2,
			streak = $3,
			last_active_day = $4,
			follower_count = $5,
			following_count = $6,
			influence_score = $7,
			updated_at = $8
	`
	_, err := s.db.Exec(
		ctx, query,
		m.UserID, m.EngagementScore, m.Streak, m.LastActiveDay,
		m.FollowerCount, m.FollowingCount, m.InfluenceScore, m.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("error executing query: %w", err)
	}
	return nil
}

// SaveFollow persists a follow edge
func (s *SocialStore) SaveFollow(ctx context.Context, e social.FollowEdge) error {
	query := `
		INSERT INTO follows (follower_id, followed_id, created_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (follower_id, followed_id) DO NOTHING
	`
	_, err := s.db.Exec(ctx, query, e.FollowerID, e.FollowedID, e.CreatedAt)
	if err != nil {
		return fmt.Errorf("error executing query: %w", err)
	}
	return nil
}

// DeleteFollow removes a follow edge
func (s *SocialStore) DeleteFollow(ctx context.Context, followerID, followedID string) error {
	_, err := s.db.Exec(
		ctx,
		`DELETE FROM follows WHERE follower_id = $1 AND followed_id = $2`,
		followerID, followedID,
	)
	if err != nil {
		return fmt.Errorf("error executing query: %w", err)
	}
	return nil
}

// FollowCounts returns follower and following counts for a user
func (s *SocialStore) FollowCounts(ctx context.Context, userID string) (int, int, error) {
	query := `
		SELECT
			(SELECT COUNT(*) FROM follows WHERE followed_id = $1),
			(SELECT COUNT(*) FROM follows WHERE follower_id = $1)
	`
	var followers, following int
	if err := s.db.QueryRow(ctx, query, userID).Scan(&followers, &following); err != nil {
		return 0, 0, fmt.Errorf("error querying follow counts: %w", err)
	}
	return followers, following, nil
}

// FollowerIDs lists users following the given user
func (s *SocialStore) FollowerIDs(ctx context.Context, userID string) ([]string, error) {
	rows, err := s.db.Query(
		ctx,
		`SELECT follower_id FROM follows WHERE followed_id = $1`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("error executing query: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("error scanning follower ID: %w", err)
		}
		ids = append(ids, id)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating followers: %w", err)
	}
	return ids, nil
}

// FollowingSet returns user IDs the user follows
func (s *SocialStore) FollowingSet(ctx context.Context, userID string) (map[string]struct{}, error) {
	rows, err := s.db.Query(
		ctx,
		`SELECT followed_id FROM follows WHERE follower_id = $1`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("error executing query: %w", err)
	}
	defer rows.Close()

	set := make(map[string]struct{})
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("error scanning followed ID: %w", err)
		}
		set[id] = struct{}{}
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating following: %w", err)
	}
	return set, nil
}

// CountNewFollowers counts follow edges toward the user since the cutoff
func (s *SocialStore) CountNewFollowers(ctx context.Context, userID string, since time.Time) (int, error) {
	var count int
	err := s.db.QueryRow(
		ctx,
		`SELECT COUNT(*) FROM follows WHERE followed_id = $1 AND created_at >= $2`,
		userID, since,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("error counting new followers: %w", err)
	}
	return count, nil
}

// TryUnlockAchievement inserts an achievement if the (user, key) pair is
// new and reports whether this call performed the insert
func (s *SocialStore) TryUnlockAchievement(ctx context.Context, a social.Achievement) (bool, error) {
	tag, err := s.db.Exec(
		ctx,
		`INSERT INTO achievements (id, user_id, key, unlocked_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_id, key) DO NOTHING`,
		a.ID, a.UserID, a.Key, a.UnlockedAt,
	)
	if err != nil {
		return false, fmt.Errorf("error executing query: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

// SaveInsight persists a weekly social insight
func (s *SocialStore) SaveInsight(ctx context.Context, ins social.Insight) error {
	query := `
		INSERT INTO social_insights (id, user_id, week_start, follower_delta, top_mutuals, streak, generated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := s.db.Exec(
		ctx, query,
		ins.ID, ins.UserID, ins.WeekStart, ins.FollowerDelta, ins.TopMutuals, ins.Streak, ins.GeneratedAt,
	)
	if err != nil {
		return fmt.Errorf("error executing query: %w", err)
	}
	return nil
}
