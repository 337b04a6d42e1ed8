// Package activity persists the audit trail of schedule operations.
package activity

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// DescriptionMaxLen caps stored descriptions.
const DescriptionMaxLen = 400

// Entry is one activity log row.
type Entry struct {
	ID          uuid.UUID
	Action      string
	EntityType  string
	EntityID    uuid.UUID
	Actor       string
	Description string
	Metadata    map[string]any
	CreatedAt   time.Time
}

// Repository writes activity log entries.
type Repository struct {
	pool *pgxpool.Pool
}

// New creates an activity repository.
func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Record inserts an entry and fills in its ID and CreatedAt.
func (r *Repository) Record(ctx context.Context, entry *Entry) error {
	metadata := entry.Metadata
	if metadata == nil {
		metadata = map[string]any{}
	}
	metadataJSON, err := json.Marshal(metadata)
	if err != nil {
		return fmt.Errorf("encode activity metadata: %w", err)
	}
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}

	err = r.pool.QueryRow(ctx, `
		INSERT INTO activity_log (id, action, entity_type, entity_id, actor, description, metadata)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at`,
		entry.ID, entry.Action, entry.EntityType, entry.EntityID, nullIfEmpty(entry.Actor),
		Truncate(entry.Description, DescriptionMaxLen), metadataJSON,
	).Scan(&entry.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to record activity: %w", err)
	}
	return nil
}

// ListForEntity returns the newest entries for an entity first.
func (r *Repository) ListForEntity(ctx context.Context, entityType string, entityID uuid.UUID, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.pool.Query(ctx, `
		SELECT id, action, entity_type, entity_id, COALESCE(actor, ''), description, metadata, created_at
		FROM activity_log
		WHERE entity_type = $1 AND entity_id = $2
		ORDER BY created_at DESC
		LIMIT $3`, entityType, entityID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list activity: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var (
			e   Entry
			raw []byte
		)
		if err := rows.Scan(&e.ID, &e.Action, &e.EntityType, &e.EntityID, &e.Actor, &e.Description, &raw, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan activity: %w", err)
		}
		if len(raw) > 0 {
			if err := json.Unmarshal(raw, &e.Metadata); err != nil {
				return nil, fmt.Errorf("decode activity metadata: %w", err)
			}
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Truncate trims text to maxLen runes, appending "..." on overflow.
func Truncate(text string, maxLen int) string {
	trimmed := strings.TrimSpace(text)
	runes := []rune(trimmed)
	if len(runes) > maxLen {
		return string(runes[:maxLen]) + "..."
	}
	return trimmed
}

func nullIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
