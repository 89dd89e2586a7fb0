// internal/adapter/storage/builder_store.go

package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"hive/internal/domain/builder"
)

// BuilderRequestStore implements storage for builder requests
type BuilderRequestStore struct {
	db *pgxpool.Pool
}

// NewBuilderRequestStore creates a new builder request store
func NewBuilderRequestStore(db *pgxpool.Pool) *BuilderRequestStore {
	return &BuilderRequestStore{
		db: db,
	}
}

// SaveRequest saves a builder request to storage
func (s *BuilderRequestStore) SaveRequest(ctx context.Context, r builder.Request) error {
	query := `
		INSERT INTO builder_requests (
			id, user_id, space_id, request_type, status, message,
			requires_extra_attention, submitted_at, reviewed_at, reviewed_by, review_notes
		) VALUES ($1, $2, $3, $4::request_type, $5::request_status, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (id) DO UPDATE
		SET
			status = $5::request_status,
			reviewed_at = $9,
			reviewed_by = $10,
			review_notes = $11
	`

	_, err := s.db.Exec(
		ctx,
		query,
		r.ID,
		r.UserID,
		r.SpaceID,
		string(r.RequestType),
		string(r.Status),
		r.Message,
		r.RequiresExtraAttention,
		r.SubmittedAt,
		r.ReviewedAt,
		nullableString(r.ReviewedBy),
		r.ReviewNotes,
	)
	if err != nil {
		return fmt.Errorf("error executing query: %w", err)
	}
	return nil
}

// GetRequest retrieves a builder request by ID, or nil when absent
func (s *BuilderRequestStore) GetRequest(ctx context.Context, id string) (*builder.Request, error) {
	query := `
		SELECT id, user_id, space_id, request_type::text, status::text, message,
			requires_extra_attention, submitted_at, reviewed_at, reviewed_by, review_notes
		FROM builder_requests
		WHERE id = $1
	`

	r, err := scanRequest(s.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("error querying request: %w", err)
	}
	return r, nil
}

// FindActiveRequest finds a pending or approved request for a
// (user, space) pair, or returns nil
func (s *BuilderRequestStore) FindActiveRequest(ctx context.Context, userID, spaceID string) (*builder.Request, error) {
	query := `
		SELECT id, user_id, space_id, request_type::text, status::text, message,
			requires_extra_attention, submitted_at, reviewed_at, reviewed_by, review_notes
		FROM builder_requests
		WHERE user_id = $1 AND space_id = $2 AND status IN ('pending', 'approved')
		LIMIT 1
	`

	r, err := scanRequest(s.db.QueryRow(ctx, query, userID, spaceID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("error querying active request: %w", err)
	}
	return r, nil
}

// FindRequestsForSpace lists requests for a space, newest first
func (s *BuilderRequestStore) FindRequestsForSpace(ctx context.Context, spaceID string) ([]builder.Request, error) {
	query := `
		SELECT id, user_id, space_id, request_type::text, status::text, message,
			requires_extra_attention, submitted_at, reviewed_at, reviewed_by, review_notes
		FROM builder_requests
		WHERE space_id = $1
		ORDER BY submitted_at DESC
	`

	rows, err := s.db.Query(ctx, query, spaceID)
	if err != nil {
		return nil, fmt.Errorf("error executing query: %w", err)
	}
	defer rows.Close()

	var requests []builder.Request
	for rows.Next() {
		r, err := scanRequest(rows)
		if err != nil {
			return nil, fmt.Errorf("error scanning request: %w", err)
		}
		requests = append(requests, *r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating requests: %w", err)
	}
	return requests, nil
}

// scanRequest reads one builder request row from a pgx row or rows cursor.
func scanRequest(row pgx.Row) (*builder.Request, error) {
	var r builder.Request
	var requestType, status string
	var reviewedBy *string

	err := row.Scan(
		&r.ID,
		&r.UserID,
		&r.SpaceID,
		&requestType,
		&status,
		&r.Message,
		&r.RequiresExtraAttention,
		&r.SubmittedAt,
		&r.ReviewedAt,
		&reviewedBy,
		&r.ReviewNotes,
	)
	if err != nil {
		return nil, err
	}

	if reviewedBy != nil {
		r.ReviewedBy = *reviewedBy
	}
	r.RequestType = builder.RequestType(requestType)
	r.Status = builder.Status(status)
	return &r, nil
}

func nullableString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
