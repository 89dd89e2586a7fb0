// internal/adapter/storage/tool_store.go

package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"hive/internal/domain/tool"
)

// ToolStore implements storage for tools
type ToolStore struct {
	db *pgxpool.Pool
}

// NewToolStore creates a new tool store
func NewToolStore(db *pgxpool.Pool) *ToolStore {
	return &ToolStore{
		db: db,
	}
}

// SaveTool saves a tool to storage
func (s *ToolStore) SaveTool(ctx context.Context, t tool.Tool) error {
	query := `
		INSERT INTO tools (
			id, space_id, name, created_by, elements, is_active,
			interaction_count, surge_score, last_interaction, placed_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (id) DO UPDATE
		SET
			name = $3,
			elements = $5,
			is_active = $6,
			interaction_count = $7,
			surge_score = $8,
			last_interaction = $9
	`

	elementsJSON, err := json.Marshal(t.Elements)
	if err != nil {
		return fmt.Errorf("error marshaling elements: %w", err)
	}

	_, err = s.db.Exec(
		ctx,
		query,
		t.ID,
		t.SpaceID,
		t.Name,
		t.CreatedBy,
		elementsJSON,
		t.IsActive,
		t.InteractionCount,
		t.SurgeScore,
		t.LastInteraction,
		t.PlacedAt,
	)
	if err != nil {
		return fmt.Errorf("error executing query: %w", err)
	}
	return nil
}

// GetTool retrieves a tool by ID
func (s *ToolStore) GetTool(ctx context.Context, id string) (*tool.Tool, error) {
	query := `
		SELECT id, space_id, name, created_by, elements, is_active,
			interaction_count, surge_score, last_interaction, placed_at
		FROM tools
		WHERE id = $1
	`

	t, err := scanTool(s.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, tool.ErrToolNotFound
		}
		return nil, fmt.Errorf("error querying tool: %w", err)
	}
	return t, nil
}

// FindToolsForSpace lists a space's tools, newest first
func (s *ToolStore) FindToolsForSpace(ctx context.Context, spaceID string) ([]tool.Tool, error) {
	query := `
		SELECT id, space_id, name, created_by, elements, is_active,
			interaction_count, surge_score, last_interaction, placed_at
		FROM tools
		WHERE space_id = $1
		ORDER BY placed_at DESC
	`

	rows, err := s.db.Query(ctx, query, spaceID)
	if err != nil {
		return nil, fmt.Errorf("error executing query: %w", err)
	}
	defer rows.Close()

	var tools []tool.Tool
	for rows.Next() {
		t, err := scanTool(rows)
		if err != nil {
			return nil, fmt.Errorf("error scanning tool: %w", err)
		}
		tools = append(tools, *t)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating tools: %w", err)
	}
	return tools, nil
}

// RecordInteraction atomically increments the interaction count and stamps
// the interaction time
func (s *ToolStore) RecordInteraction(ctx context.Context, toolID string, at time.Time) error {
	tag, err := s.db.Exec(
		ctx,
		`UPDATE tools
		SET interaction_count = interaction_count + 1, last_interaction = $2
		WHERE id = $1`,
		toolID, at,
	)
	if err != nil {
		return fmt.Errorf("error recording interaction: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return tool.ErrToolNotFound
	}
	return nil
}

// SetSurgeScore persists a recomputed surge score
func (s *ToolStore) SetSurgeScore(ctx context.Context, toolID string, score float64) error {
	tag, err := s.db.Exec(
		ctx,
		`UPDATE tools SET surge_score = $2 WHERE id = $1`,
		toolID, score,
	)
	if err != nil {
		return fmt.Errorf("error saving surge score: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return tool.ErrToolNotFound
	}
	return nil
}

// scanTool reads one tool row from a pgx row or rows cursor.
func scanTool(row pgx.Row) (*tool.Tool, error) {
	var t tool.Tool
	var elementsJSON []byte

	err := row.Scan(
		&t.ID,
		&t.SpaceID,
		&t.Name,
		&t.CreatedBy,
		&elementsJSON,
		&t.IsActive,
		&t.InteractionCount,
		&t.SurgeScore,
		&t.LastInteraction,
		&t.PlacedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(elementsJSON, &t.Elements); err != nil {
		return nil, fmt.Errorf("error unmarshaling elements: %w", err)
	}
	return &t, nil
}
