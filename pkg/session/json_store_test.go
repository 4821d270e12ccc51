package session

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestJSONStore(t *testing.T) *JSONStore {
	t.Helper()
	store, err := NewJSONStore(t.TempDir())
	require.NoError(t, err)
	return store
}

func TestJSONStoreSaveLoad(t *testing.T) {
	ctx := context.Background()
	store := newTestJSONStore(t)

	record := NewRecord("write a skill about makefiles")
	record.Phase = PhaseArchitecture
	require.NoError(t, store.Save(ctx, record))

	loaded, err := store.Load(ctx, record.ID)
	require.NoError(t, err)
	assert.Equal(t, record.ID, loaded.ID)
	assert.Equal(t, PhaseArchitecture, loaded.Phase)
	assert.Equal(t, record.Request, loaded.Request)
}

func TestJSONStoreLoadNotFound(t *testing.T) {
	store := newTestJSONStore(t)

	_, err := store.Load(context.Background(), "no-such-session")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestJSONStoreDelete(t *testing.T) {
	ctx := context.Background()
	store := newTestJSONStore(t)

	record := NewRecord("hello")
	require.NoError(t, store.Save(ctx, record))
	require.NoError(t, store.Delete(ctx, record.ID))

	_, err := store.Load(ctx, record.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	err = store.Delete(ctx, record.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestJSONStoreSaveIsAtomic(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	store, err := NewJSONStore(dir)
	require.NoError(t, err)

	record := NewRecord("hello")
	require.NoError(t, store.Save(ctx, record))

	// No temp files remain after a successful save.
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, record.ID+".json", entries[0].Name())
}

func TestJSONStorePreservesUnknownFields(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	store, err := NewJSONStore(dir)
	require.NoError(t, err)

	// Simulate a record written by a newer version.
	payload := `{
		"id": "future-1",
		"phase": "discovery",
		"request": "hello",
		"createdAt": "2026-01-02T03:04:05Z",
		"updatedAt": "2026-01-02T03:04:05Z",
		"newerField": {"keep": "me"}
	}`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "future-1.json"), []byte(payload), 0644))

	record, err := store.Load(ctx, "future-1")
	require.NoError(t, err)
	record.Phase = PhaseArchitecture
	require.NoError(t, store.Save(ctx, record))

	data, err := os.ReadFile(filepath.Join(dir, "future-1.json"))
	require.NoError(t, err)

	var raw map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(data, &raw))
	assert.JSONEq(t, `{"keep": "me"}`, string(raw["newerField"]))
	assert.Equal(t, `"architecture"`, string(raw["phase"]))
}

func TestJSONStoreQuery(t *testing.T) {
	ctx := context.Background()
	store := newTestJSONStore(t)

	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	for i, request := range []string{"git workflows", "docker builds", "git hooks"} {
		record := NewRecord(request)
		record.ID = GenerateID()
		record.CreatedAt = base.Add(time.Duration(i) * time.Hour)
		record.UpdatedAt = record.CreatedAt
		if i == 2 {
			record.Phase = PhaseComplete
		}
		require.NoError(t, store.Save(ctx, record))
	}

	t.Run("search term", func(t *testing.T) {
		summaries, err := store.Query(ctx, QueryOptions{SearchTerm: "git"})
		require.NoError(t, err)
		assert.Len(t, summaries, 2)
	})

	t.Run("phase filter", func(t *testing.T) {
		summaries, err := store.Query(ctx, QueryOptions{Phase: PhaseComplete})
		require.NoError(t, err)
		require.Len(t, summaries, 1)
		assert.Equal(t, "git hooks", summaries[0].Request)
	})

	t.Run("default sort is updated desc", func(t *testing.T) {
		summaries, err := store.Query(ctx, QueryOptions{})
		require.NoError(t, err)
		require.Len(t, summaries, 3)
		assert.Equal(t, "git hooks", summaries[0].Request)
		assert.Equal(t, "git workflows", summaries[2].Request)
	})

	t.Run("ascending sort", func(t *testing.T) {
		summaries, err := store.Query(ctx, QueryOptions{SortOrder: "asc"})
		require.NoError(t, err)
		require.Len(t, summaries, 3)
		assert.Equal(t, "git workflows", summaries[0].Request)
	})

	t.Run("pagination", func(t *testing.T) {
		summaries, err := store.Query(ctx, QueryOptions{Limit: 1, Offset: 1})
		require.NoError(t, err)
		require.Len(t, summaries, 1)
		assert.Equal(t, "docker builds", summaries[0].Request)
	})

	t.Run("date range", func(t *testing.T) {
		start := base.Add(30 * time.Minute)
		summaries, err := store.Query(ctx, QueryOptions{StartDate: &start})
		require.NoError(t, err)
		assert.Len(t, summaries, 2)
	})
}

func TestJSONStoreList(t *testing.T) {
	ctx := context.Background()
	store := newTestJSONStore(t)

	for i := 0; i < 3; i++ {
		require.NoError(t, store.Save(ctx, NewRecord("request")))
	}

	summaries, err := store.List(ctx)
	require.NoError(t, err)
	assert.Len(t, summaries, 3)
}

func TestJSONStoreSkipsCorruptedFiles(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	store, err := NewJSONStore(dir)
	require.NoError(t, err)

	require.NoError(t, store.Save(ctx, NewRecord("good")))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bad.json"), []byte("{not json"), 0644))

	summaries, err := store.List(ctx)
	require.NoError(t, err)
	assert.Len(t, summaries, 1)
}
