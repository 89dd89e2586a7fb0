// internal/adapter/storage/recommendation_store.go

package storage

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"hive/internal/domain/recommend"
	"hive/internal/domain/social"
	"hive/internal/domain/space"
)

// RecommendationStore implements storage for recommendation lists and the
// candidate reads the scorer consumes
type RecommendationStore struct {
	db *pgxpool.Pool
}

// NewRecommendationStore creates a new recommendation store
func NewRecommendationStore(db *pgxpool.Pool) *RecommendationStore {
	return &RecommendationStore{
		db: db,
	}
}

// ReplaceRecommendations swaps a user's recommendation set inside one
// transaction, so a reader never observes a half-written list.
func (s *RecommendationStore) ReplaceRecommendations(ctx context.Context, userID string, recs []recommend.Recommendation) error {
	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("error beginning transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM recommendations WHERE user_id = $1`, userID); err != nil {
		return fmt.Errorf("error deleting old recommendations: %w", err)
	}

	for _, r := range recs {
		_, err := tx.Exec(
			ctx,
			`INSERT INTO recommendations (id, user_id, item_id, item_type, score, reasons, rank, generated_at)
			VALUES ($1, $2, $3, $4::item_type, $5, $6, $7, $8)`,
			r.ID, r.UserID, r.ItemID, string(r.ItemType), r.Score, r.Reasons, r.Rank, r.GeneratedAt,
		)
		if err != nil {
			return fmt.Errorf("error inserting recommendation: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("error committing transaction: %w", err)
	}
	return nil
}

// GetForUser returns a user's current recommendations, rank ascending
func (s *RecommendationStore) GetForUser(ctx context.Context, userID string) ([]recommend.Recommendation, error) {
	query := `
		SELECT id, user_id, item_id, item_type::text, score, reasons, rank, generated_at
		FROM recommendations
		WHERE user_id = $1
		ORDER BY rank ASC
	`
	rows, err := s.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("error executing query: %w", err)
	}
	defer rows.Close()

	var recs []recommend.Recommendation
	for rows.Next() {
		var r recommend.Recommendation
		var itemType string
		if err := rows.Scan(&r.ID, &r.UserID, &r.ItemID, &itemType, &r.Score, &r.Reasons, &r.Rank, &r.GeneratedAt); err != nil {
			return nil, fmt.Errorf("error scanning recommendation: %w", err)
		}
		r.ItemType = recommend.ItemType(itemType)
		recs = append(recs, r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating recommendations: %w", err)
	}
	return recs, nil
}

// FindUpcomingEvents lists candidate events for scoring
func (s *RecommendationStore) FindUpcomingEvents(ctx context.Context, limit int) ([]recommend.Event, error) {
	query := `
		SELECT id, title, tags, host_org_id, starts_at, popularity
		FROM events
		WHERE starts_at > NOW()
		ORDER BY starts_at ASC
		LIMIT $1
	`
	rows, err := s.db.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("error executing query: %w", err)
	}
	defer rows.Close()

	var events []recommend.Event
	for rows.Next() {
		var ev recommend.Event
		var hostOrgID *string
		if err := rows.Scan(&ev.ID, &ev.Title, &ev.Tags, &hostOrgID, &ev.StartsAt, &ev.Popularity); err != nil {
			return nil, fmt.Errorf("error scanning event: %w", err)
		}
		if hostOrgID != nil {
			ev.HostOrgID = *hostOrgID
		}
		events = append(events, ev)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating events: %w", err)
	}
	return events, nil
}

// FindJoinableSpaces lists candidate spaces: active or dormant, never
// archived
func (s *RecommendationStore) FindJoinableSpaces(ctx context.Context, limit int) ([]space.Space, error) {
	query := `
		SELECT
			id, name, description, space_type::text, lifecycle_state::text, claim_status::text,
			members, builders, default_tools, custom_tools, topic_tags,
			last_activity_at, created_at, member_count, engagement, is_surging
		FROM spaces
		WHERE lifecycle_state IN ('active', 'dormant')
		ORDER BY member_count DESC
		LIMIT $1
	`
	rows, err := s.db.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("error executing query: %w", err)
	}
	defer rows.Close()

	var spaces []space.Space
	for rows.Next() {
		sp, err := scanSpace(rows)
		if err != nil {
			return nil, fmt.Errorf("error scanning space: %w", err)
		}
		spaces = append(spaces, *sp)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating spaces: %w", err)
	}
	return spaces, nil
}

// FindCandidatePeople lists candidate profiles, excluding the user
func (s *RecommendationStore) FindCandidatePeople(ctx context.Context, userID string, limit int) ([]social.Profile, error) {
	query := `
		SELECT id, major, academic_year, residence, interests, created_at
		FROM users
		WHERE id <> $1
		LIMIT $2
	`
	rows, err := s.db.Query(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("error executing query: %w", err)
	}
	defer rows.Close()

	var people []social.Profile
	for rows.Next() {
		var p social.Profile
		if err := rows.Scan(&p.UserID, &p.Major, &p.AcademicYear, &p.Residence, &p.Interests, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("error scanning profile: %w", err)
		}
		people = append(people, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating profiles: %w", err)
	}
	return people, nil
}

// EventInteractions returns event IDs the user has viewed, attended or
// saved
func (s *RecommendationStore) EventInteractions(ctx context.Context, userID string) (map[string]struct{}, error) {
	query := `
		SELECT DISTINCT target_id
		FROM activities
		WHERE user_id = $1
		AND target_type = 'event'
		AND action IN ('viewed', 'attended', 'saved')
	`
	rows, err := s.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("error executing query: %w", err)
	}
	defer rows.Close()

	set := make(map[string]struct{})
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("error scanning event ID: %w", err)
		}
		set[id] = struct{}{}
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating interactions: %w", err)
	}
	return set, nil
}

// SpaceMemberships returns space IDs the user has joined
func (s *RecommendationStore) SpaceMemberships(ctx context.Context, userID string) (map[string]struct{}, error) {
	rows, err := s.db.Query(ctx, `SELECT id FROM spaces WHERE $1 = ANY(members)`, userID)
	if err != nil {
		return nil, fmt.Errorf("error executing query: %w", err)
	}
	defer rows.Close()

	set := make(map[string]struct{})
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("error scanning space ID: %w", err)
		}
		set[id] = struct{}{}
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating memberships: %w", err)
	}
	return set, nil
}
