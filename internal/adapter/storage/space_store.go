// internal/adapter/storage/space_store.go

package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"hive/internal/domain/space"
)

// SpaceStore implements storage for spaces
type SpaceStore struct {
	db *pgxpool.Pool
}

// NewSpaceStore creates a new space store
func NewSpaceStore(db *pgxpool.Pool) *SpaceStore {
	return &SpaceStore{
		db: db,
	}
}

// SaveSpace saves a space to storage
func (s *SpaceStore) SaveSpace(ctx context.Context, sp space.Space) error {
	query := `
		INSERT INTO spaces (
			id, name, description, space_type, lifecycle_state, claim_status,
			members, builders, default_tools, custom_tools, topic_tags,
			last_activity_at, created_at, member_count, engagement, is_surging
		) VALUES (
			$1, $2, $3, $4::space_type, $5::lifecycle_state, $6::claim_status,
			$7, $8, $9, $10, $11,
			$12, $13, $14, $15, $16
		)
		ON CONFLICT (id) DO UPDATE
		SET
			name = $2,
			description = $3,
			space_type = $4::space_type,
			lifecycle_state = $5::lifecycle_state,
			claim_status = $6::claim_status,
			members = $7,
			builders = $8,
			default_tools = $9,
			custom_tools = $10,
			topic_tags = $11,
			last_activity_at = $12,
			member_count = $14,
			engagement = $15,
			is_surging = $16
	`

	buildersJSON, err := json.Marshal(sp.Builders)
	if err != nil {
		return fmt.Errorf("error marshaling builders: %w", err)
	}

	_, err = s.db.Exec(
		ctx,
		query,
		sp.ID,
		sp.Name,
		sp.Description,
		string(sp.SpaceType),
		string(sp.LifecycleState),
		string(sp.ClaimStatus),
		sp.Members,
		buildersJSON,
		sp.DefaultTools,
		sp.CustomTools,
		sp.TopicTags,
		sp.LastActivityAt,
		sp.CreatedAt,
		sp.MemberCount,
		sp.Engagement,
		sp.IsSurging,
	)

	if err != nil {
		return fmt.Errorf("error executing query: %w", err)
	}

	return nil
}

// GetSpace retrieves a space by ID
func (s *SpaceStore) GetSpace(ctx context.Context, id string) (*space.Space, error) {
	query := `
		SELECT
			id, name, description, space_type::text, lifecycle_state::text, claim_status::text,
			members, builders, default_tools, custom_tools, topic_tags,
			last_activity_at, created_at, member_count, engagement, is_surging
		FROM spaces
		WHERE id = $1
	`

	sp, err := scanSpace(s.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, space.ErrSpaceNotFound
		}
		return nil, fmt.Errorf("error querying space: %w", err)
	}
	return sp, nil
}

// FindSpaces finds spaces matching the filter
func (s *SpaceStore) FindSpaces(ctx context.Context, filter space.Filter) ([]space.Space, error) {
	queryBuilder := strings.Builder{}
	queryBuilder.WriteString(`
		SELECT
			id, name, description, space_type::text, lifecycle_state::text, claim_status::text,
			members, builders, default_tools, custom_tools, topic_tags,
			last_activity_at, created_at, member_count, engagement, is_surging
		FROM spaces
		WHERE 1=1
	`)

	args := []interface{}{}
	argIndex := 1

	if len(filter.LifecycleStates) > 0 {
		queryBuilder.WriteString(" AND lifecycle_state IN (")
		for i, state := range filter.LifecycleStates {
			if i > 0 {
				queryBuilder.WriteString(", ")
			}
			queryBuilder.WriteString(fmt.Sprintf("$%d::lifecycle_state", argIndex))
			args = append(args, string(state))
			argIndex++
		}
		queryBuilder.WriteString(")")
	}

	if len(filter.SpaceTypes) > 0 {
		queryBuilder.WriteString(" AND space_type IN (")
		for i, spaceType := range filter.SpaceTypes {
			if i > 0 {
				queryBuilder.WriteString(", ")
			}
			queryBuilder.WriteString(fmt.Sprintf("$%d::space_type", argIndex))
			args = append(args, string(spaceType))
			argIndex++
		}
		queryBuilder.WriteString(")")
	}

	if filter.Surging != nil {
		queryBuilder.WriteString(fmt.Sprintf(" AND is_surging = $%d", argIndex))
		args = append(args, *filter.Surging)
		argIndex++
	}

	if filter.MemberID != "" {
		queryBuilder.WriteString(fmt.Sprintf(" AND $%d = ANY(members)", argIndex))
		args = append(args, filter.MemberID)
		argIndex++
	}

	// Dormancy sweep filter: spaces never active, or idle past the cutoff.
	if !filter.ActiveBefore.IsZero() {
		queryBuilder.WriteString(fmt.Sprintf(
			" AND (last_activity_at IS NULL OR last_activity_at < $%d)",
			argIndex,
		))
		args = append(args, filter.ActiveBefore)
		argIndex++
	}

	if filter.SearchTerms != "" {
		queryBuilder.WriteString(fmt.Sprintf(
			" AND (name ILIKE $%d OR description ILIKE $%d)",
			argIndex, argIndex,
		))
		args = append(args, "%"+filter.SearchTerms+"%")
		argIndex++
	}

	if len(filter.TopicTags) > 0 {
		queryBuilder.WriteString(fmt.Sprintf(" AND topic_tags && $%d", argIndex))
		args = append(args, filter.TopicTags)
		argIndex++
	}

	queryBuilder.WriteString(" ORDER BY created_at DESC")

	if filter.Limit > 0 {
		queryBuilder.WriteString(fmt.Sprintf(" LIMIT $%d", argIndex))
		args = append(args, filter.Limit)
		argIndex++
	} else {
		queryBuilder.WriteString(" LIMIT 20") // Default limit
	}

	if filter.Offset > 0 {
		queryBuilder.WriteString(fmt.Sprintf(" OFFSET $%d", argIndex))
		args = append(args, filter.Offset)
	}

	rows, err := s.db.Query(ctx, queryBuilder.String(), args...)
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

// SetLifecycleState updates just the lifecycle state of a space
func (s *SpaceStore) SetLifecycleState(ctx context.Context, spaceID string, state space.LifecycleState) error {
	tag, err := s.db.Exec(
		ctx,
		`UPDATE spaces SET lifecycle_state = $2::lifecycle_state WHERE id = $1`,
		spaceID, string(state),
	)
	if err != nil {
		return fmt.Errorf("error updating lifecycle state: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return space.ErrSpaceNotFound
	}
	return nil
}

// TouchActivity updates a space's last-activity time
func (s *SpaceStore) TouchActivity(ctx context.Context, spaceID string, at time.Time) error {
	tag, err := s.db.Exec(
		ctx,
		`UPDATE spaces SET last_activity_at = $2 WHERE id = $1`,
		spaceID, at,
	)
	if err != nil {
		return fmt.Errorf("error updating activity time: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return space.ErrSpaceNotFound
	}
	return nil
}

// AddBuilder appends a builder entry to a space's builder list
func (s *SpaceStore) AddBuilder(ctx context.Context, spaceID string, b space.Builder) error {
	entry, err := json.Marshal(b)
	if err != nil {
		return fmt.Errorf("error marshaling builder: %w", err)
	}

	tag, err := s.db.Exec(
		ctx,
		`UPDATE spaces SET builders = builders || $2::jsonb WHERE id = $1`,
		spaceID, entry,
	)
	if err != nil {
		return fmt.Errorf("error adding builder: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return space.ErrSpaceNotFound
	}
	return nil
}

// AppendCustomTool appends a tool ID to a space's custom tool list
func (s *SpaceStore) AppendCustomTool(ctx context.Context, spaceID, toolID string) error {
	tag, err := s.db.Exec(
		ctx,
		`UPDATE spaces SET custom_tools = array_append(custom_tools, $2) WHERE id = $1`,
		spaceID, toolID,
	)
	if err != nil {
		return fmt.Errorf("error appending tool: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return space.ErrSpaceNotFound
	}
	return nil
}

// MarkSurging flips the surge flag. The WHERE clause makes the flip
// first-writer-wins: re-marking a surging space affects zero rows.
func (s *SpaceStore) MarkSurging(ctx context.Context, spaceID string) (bool, error) {
	tag, err := s.db.Exec(
		ctx,
		`UPDATE spaces SET is_surging = TRUE WHERE id = $1 AND is_surging = FALSE`,
		spaceID,
	)
	if err != nil {
		return false, fmt.Errorf("error marking space surging: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

// scanSpace reads one space row from a pgx row or rows cursor.
func scanSpace(row pgx.Row) (*space.Space, error) {
	var sp space.Space
	var spaceType, lifecycleState, claimStatus string
	var buildersJSON []byte

	err := row.Scan(
		&sp.ID,
		&sp.Name,
		&sp.Description,
		&spaceType,
		&lifecycleState,
		&claimStatus,
		&sp.Members,
		&buildersJSON,
		&sp.DefaultTools,
		&sp.CustomTools,
		&sp.TopicTags,
		&sp.LastActivityAt,
		&sp.CreatedAt,
		&sp.MemberCount,
		&sp.Engagement,
		&sp.IsSurging,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(buildersJSON, &sp.Builders); err != nil {
		return nil, fmt.Errorf("error unmarshaling builders: %w", err)
	}

	sp.SpaceType = space.SpaceType(spaceType)
	sp.LifecycleState = space.LifecycleState(lifecycleState)
	sp.ClaimStatus = space.ClaimStatus(claimStatus)

	return &sp, nil
}
