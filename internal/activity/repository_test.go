package activity

import (
	"context"
	"os"
	"strings"
	"testing"

	"scheduling_backend/migrations"
	"scheduling_backend/platform/db"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", Truncate("  short ", 10))
	assert.Equal(t, "abc...", Truncate("abcdef", 3))
	assert.Equal(t, "ééé...", Truncate(strings.Repeat("é", 5), 3))
}

func TestRecordAndList(t *testing.T) {
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}
	ctx := context.Background()
	pool, err := pgxpool.New(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(pool.Close)
	require.NoError(t, db.RunMigrations(ctx, pool, migrations.FS))

	repo := New(pool)
	recordID := uuid.New()
	entry := &Entry{
		Action:      "schedule_confirmed",
		EntityType:  "schedule_record",
		EntityID:    recordID,
		Actor:       "user-1",
		Description: "Confirmed survey",
		Metadata:    map[string]any{"zuperJobUid": "job-1"},
	}
	require.NoError(t, repo.Record(ctx, entry))
	assert.NotEqual(t, uuid.Nil, entry.ID)
	assert.False(t, entry.CreatedAt.IsZero())

	entries, err := repo.ListForEntity(ctx, "schedule_record", recordID, 10)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "job-1", entries[0].Metadata["zuperJobUid"])
	assert.Equal(t, "user-1", entries[0].Actor)
}
