package ports

import (
	"context"
	"testing"
	"time"

	"github.com/aretw0/tandem/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunSearchCacheContract runs a suite of tests to verify that a SearchCache implementation
// adheres to the defined interface contract.
func RunSearchCacheContract(t *testing.T, cache SearchCache) {
	ctx := context.Background()
	query := "contract-test-query-" + time.Now().Format("20060102150405")

	t.Run("Miss", func(t *testing.T) {
		_, err := cache.Get(ctx, "never-stored-"+query)
		assert.ErrorIs(t, err, ErrCacheMiss)
	})

	t.Run("Set and Get", func(t *testing.T) {
		results := []SearchResult{
			{Title: "UK GDP", URL: "https://example.com/gdp", Content: "2.2 trillion", Score: 0.9},
			{Title: "ONS", URL: "https://example.com/ons", Content: "quarterly figures"},
		}

		err := cache.Set(ctx, query, results)
		require.NoError(t, err, "Set should not return error")

		loaded, err := cache.Get(ctx, query)
		require.NoError(t, err, "Get should not return error")
		assert.Equal(t, results, loaded)
	})

	t.Run("Overwrite", func(t *testing.T) {
		err := cache.Set(ctx, query, []SearchResult{{Title: "newer"}})
		require.NoError(t, err)

		loaded, err := cache.Get(ctx, query)
		require.NoError(t, err)
		require.Len(t, loaded, 1)
		assert.Equal(t, "newer", loaded[0].Title)
	})

	t.Run("Empty Results Are Cached", func(t *testing.T) {
		q := query + "-empty"
		require.NoError(t, cache.Set(ctx, q, []SearchResult{}))

		loaded, err := cache.Get(ctx, q)
		require.NoError(t, err)
		assert.Empty(t, loaded)
	})
}

// RunRunStoreContract runs a suite of tests to verify that a RunStore implementation
// adheres to the defined interface contract.
func RunRunStoreContract(t *testing.T, store RunStore) {
	ctx := context.Background()
	id := "contract-run-" + time.Now().Format("20060102150405")
	started := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

	rec := RunRecord{
		ID:      id,
		Request: "Fetch the UK's GDP over the past 3 years, then draw a line graph of it.",
		Messages: []domain.Message{
			domain.NewUserMessage("Fetch the UK's GDP over the past 3 years, then draw a line graph of it."),
			domain.NewAssistantMessage("researcher", "2021: 3.1T, 2022: 3.1T, 2023: 3.3T"),
			domain.NewAssistantMessage("chart_generator", "FINAL ANSWER"),
		},
		Outcome:    "ok",
		StartedAt:  started,
		FinishedAt: started.Add(42 * time.Second),
	}

	t.Run("Not Found", func(t *testing.T) {
		_, err := store.Load(ctx, "never-stored-"+id)
		assert.ErrorIs(t, err, domain.ErrRunNotFound)
	})

	t.Run("Save and Load", func(t *testing.T) {
		require.NoError(t, store.Save(ctx, rec), "Save should not return error")

		loaded, err := store.Load(ctx, id)
		require.NoError(t, err, "Load should not return error")
		assert.Equal(t, rec.Request, loaded.Request)
		assert.Equal(t, rec.Messages, loaded.Messages)
		assert.Equal(t, rec.Outcome, loaded.Outcome)
		assert.True(t, rec.StartedAt.Equal(loaded.StartedAt))
		assert.Equal(t, 42*time.Second, loaded.Duration())
	})

	t.Run("List", func(t *testing.T) {
		ids, err := store.List(ctx)
		require.NoError(t, err)
		assert.Contains(t, ids, id)
	})

	t.Run("Overwrite", func(t *testing.T) {
		failed := rec
		failed.Outcome = "agent_error"
		failed.Error = "agent \"chart_generator\" failed"
		require.NoError(t, store.Save(ctx, failed))

		loaded, err := store.Load(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, "agent_error", loaded.Outcome)
		assert.Equal(t, failed.Error, loaded.Error)
	})

	t.Run("Delete", func(t *testing.T) {
		require.NoError(t, store.Delete(ctx, id))

		_, err := store.Load(ctx, id)
		assert.ErrorIs(t, err, domain.ErrRunNotFound)

		ids, err := store.List(ctx)
		require.NoError(t, err)
		assert.NotContains(t, ids, id)

		assert.NoError(t, store.Delete(ctx, id), "deleting twice is not an error")
	})
}
