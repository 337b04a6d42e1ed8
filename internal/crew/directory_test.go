package crew

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"scheduling_backend/internal/zuper"
	"scheduling_backend/platform/cache"
	"scheduling_backend/platform/logger"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const directoryYAML = `
members:
  - name: Drew Alvarez
    aliases: ["D. Alvarez"]
    user_uid: 9f1c2d3e-0000-4000-8000-000000000001
    team_uid: 9f1c2d3e-0000-4000-8000-0000000000aa
    email: drew@example.com
  - name: Sam Ortiz
    user_uid: 9f1c2d3e-0000-4000-8000-000000000002
`

type countingSearcher struct {
	calls atomic.Int32
	users []zuper.User
	err   error
	delay time.Duration
}

func (s *countingSearcher) SearchUsers(_ context.Context, _ string) ([]zuper.User, error) {
	s.calls.Add(1)
	if s.delay > 0 {
		time.Sleep(s.delay)
	}
	return s.users, s.err
}

func writeDirectory(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "crew.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func newTestCache(t *testing.T) *cache.Cache {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return cache.NewWithClient(client, "test:", time.Minute)
}

func TestLoadFileAndLookup(t *testing.T) {
	members, err := LoadFile(writeDirectory(t, directoryYAML))
	require.NoError(t, err)
	require.Len(t, members, 2)

	dir := NewDirectory(members, nil, nil, logger.Discard())

	got, err := dir.LookupByName(context.Background(), "  drew   ALVAREZ ")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "9f1c2d3e-0000-4000-8000-000000000001", got.UserUID)
	assert.Equal(t, "9f1c2d3e-0000-4000-8000-0000000000aa", got.TeamUID)
	assert.Equal(t, "drew@example.com", got.Email)

	alias, err := dir.LookupByName(context.Background(), "D. Alvarez")
	require.NoError(t, err)
	require.NotNil(t, alias)
	assert.Equal(t, got.UserUID, alias.UserUID)
}

func TestLoadFileRejectsIncompleteEntries(t *testing.T) {
	_, err := LoadFile(writeDirectory(t, "members:\n  - name: Nobody\n"))
	require.Error(t, err)
}

func TestLoadFileEmptyPath(t *testing.T) {
	members, err := LoadFile("")
	require.NoError(t, err)
	assert.Empty(t, members)
}

func TestLookupFallsBackToProviderAndCaches(t *testing.T) {
	searcher := &countingSearcher{users: []zuper.User{
		{UID: "other", FirstName: "Jordan", LastName: "Kimball"},
		{UID: "user-77", FirstName: "Jordan", LastName: "Kim", Email: "jk@example.com"},
	}}
	dir := NewDirectory(nil, searcher, newTestCache(t), logger.Discard())

	got, err := dir.LookupByName(context.Background(), "Jordan Kim")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "user-77", got.UserUID)

	again, err := dir.LookupByName(context.Background(), "jordan kim")
	require.NoError(t, err)
	require.NotNil(t, again)
	assert.Equal(t, "user-77", again.UserUID)
	assert.Equal(t, int32(1), searcher.calls.Load(), "second lookup is served from cache")
}

func TestLookupUnknownName(t *testing.T) {
	searcher := &countingSearcher{}
	dir := NewDirectory(nil, searcher, nil, logger.Discard())

	got, err := dir.LookupByName(context.Background(), "Nobody Here")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestLookupProviderError(t *testing.T) {
	dir := NewDirectory(nil, &countingSearcher{err: errors.New("boom")}, nil, logger.Discard())

	_, err := dir.LookupByName(context.Background(), "Jordan Kim")
	require.Error(t, err)
}

func TestConcurrentLookupsShareProviderCall(t *testing.T) {
	searcher := &countingSearcher{
		users: []zuper.User{{UID: "user-1", FirstName: "Pat", LastName: "Lee"}},
		delay: 50 * time.Millisecond,
	}
	dir := NewDirectory(nil, searcher, nil, logger.Discard())

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			got, err := dir.LookupByName(context.Background(), "Pat Lee")
			assert.NoError(t, err)
			if assert.NotNil(t, got) {
				assert.Equal(t, "user-1", got.UserUID)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), searcher.calls.Load())
}
