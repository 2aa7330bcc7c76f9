// Package historytest is the behaviour every photozip.HistoryRepo backend
// must share. Backend packages call Run from their own tests.
package historytest

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sagarc03/photozip"
)

// NewRepo returns an empty repository private to the calling test.
type NewRepo func(t *testing.T) photozip.HistoryRepo

var base = time.Date(2025, 3, 14, 9, 26, 53, 0, time.UTC)

func record(token string, startedAt time.Time) photozip.ArchiveRecord {
	return photozip.ArchiveRecord{
		ID:        uuid.New(),
		Token:     token,
		Producer:  "zip",
		StartedAt: startedAt,
	}
}

// Run exercises Begin, Finish, Get and List against a fresh repository
// per subtest.
func Run(t *testing.T, newRepo NewRepo) {
	t.Run("begin then get", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()
		rec := record("abc", base)

		require.NoError(t, repo.Begin(ctx, rec))

		got, err := repo.Get(ctx, rec.ID)
		require.NoError(t, err)
		assert.Equal(t, rec.ID, got.ID)
		assert.Equal(t, "abc", got.Token)
		assert.Equal(t, "zip", got.Producer)
		assert.Equal(t, photozip.OutcomeStreaming, got.Outcome)
		assert.Zero(t, got.Chunks)
		assert.True(t, base.Equal(got.StartedAt), "started_at: %v", got.StartedAt)
		assert.Nil(t, got.FinishedAt)
	})

	t.Run("begin rejects duplicate id", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()
		rec := record("abc", base)

		require.NoError(t, repo.Begin(ctx, rec))
		assert.Error(t, repo.Begin(ctx, rec))
	})

	t.Run("begin rejects incomplete record", func(t *testing.T) {
		repo := newRepo(t)

		err := repo.Begin(context.Background(), photozip.ArchiveRecord{Token: "abc"})

		assert.ErrorIs(t, err, photozip.ErrInvalidInput)
	})

	t.Run("finish records stats", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()
		rec := record("abc", base)
		require.NoError(t, repo.Begin(ctx, rec))

		stats := photozip.StreamStats{Chunks: 42, BytesSent: 1 << 20, ExitCode: 0, Outcome: photozip.OutcomeCompleted}
		require.NoError(t, repo.Finish(ctx, rec.ID, stats))

		got, err := repo.Get(ctx, rec.ID)
		require.NoError(t, err)
		assert.Equal(t, photozip.OutcomeCompleted, got.Outcome)
		assert.Equal(t, int64(42), got.Chunks)
		assert.Equal(t, int64(1<<20), got.BytesSent)
		require.NotNil(t, got.FinishedAt)
		assert.False(t, got.FinishedAt.Before(base))
	})

	t.Run("finish keeps exit code of failed stream", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()
		rec := record("abc", base)
		require.NoError(t, repo.Begin(ctx, rec))

		require.NoError(t, repo.Finish(ctx, rec.ID, photozip.StreamStats{ExitCode: 12, Outcome: photozip.OutcomeFailed}))

		got, err := repo.Get(ctx, rec.ID)
		require.NoError(t, err)
		assert.Equal(t, photozip.OutcomeFailed, got.Outcome)
		assert.Equal(t, 12, got.ExitCode)
	})

	t.Run("finish only once", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()
		rec := record("abc", base)
		require.NoError(t, repo.Begin(ctx, rec))

		stats := photozip.StreamStats{ExitCode: -1, Outcome: photozip.OutcomeCancelled}
		require.NoError(t, repo.Finish(ctx, rec.ID, stats))

		err := repo.Finish(ctx, rec.ID, photozip.StreamStats{Outcome: photozip.OutcomeCompleted})
		assert.ErrorIs(t, err, photozip.ErrNotFound)
	})

	t.Run("finish unknown id", func(t *testing.T) {
		repo := newRepo(t)

		err := repo.Finish(context.Background(), uuid.New(), photozip.StreamStats{Outcome: photozip.OutcomeCompleted})

		assert.ErrorIs(t, err, photozip.ErrNotFound)
	})

	t.Run("finish rejects non terminal outcome", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()
		rec := record("abc", base)
		require.NoError(t, repo.Begin(ctx, rec))

		err := repo.Finish(ctx, rec.ID, photozip.StreamStats{Outcome: photozip.OutcomeStreaming})

		assert.ErrorIs(t, err, photozip.ErrInvalidInput)
	})

	t.Run("get unknown id", func(t *testing.T) {
		repo := newRepo(t)

		_, err := repo.Get(context.Background(), uuid.New())

		assert.ErrorIs(t, err, photozip.ErrNotFound)
	})

	t.Run("list pages newest first", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		var ids []uuid.UUID
		for i := range 5 {
			rec := record("abc", base.Add(time.Duration(i)*time.Minute))
			require.NoError(t, repo.Begin(ctx, rec))
			ids = append(ids, rec.ID)
		}

		var got []uuid.UUID
		var pages int
		cursor := ""
		for {
			result, err := repo.List(ctx, photozip.HistoryQuery{Limit: 2, Cursor: cursor})
			require.NoError(t, err)
			pages++
			for _, item := range result.Items {
				got = append(got, item.ID)
			}
			if result.NextCursor == "" {
				break
			}
			cursor = result.NextCursor
		}

		assert.Equal(t, 3, pages)
		assert.Equal(t, []uuid.UUID{ids[4], ids[3], ids[2], ids[1], ids[0]}, got)
	})

	t.Run("list breaks ties on id", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		for range 3 {
			require.NoError(t, repo.Begin(ctx, record("abc", base)))
		}

		seen := map[uuid.UUID]bool{}
		cursor := ""
		for range 3 {
			result, err := repo.List(ctx, photozip.HistoryQuery{Limit: 1, Cursor: cursor})
			require.NoError(t, err)
			require.Len(t, result.Items, 1)
			seen[result.Items[0].ID] = true
			cursor = result.NextCursor
		}

		assert.Len(t, seen, 3)
		assert.Empty(t, cursor)
	})

	t.Run("list filters by token", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		require.NoError(t, repo.Begin(ctx, record("abc", base)))
		require.NoError(t, repo.Begin(ctx, record("xyz", base.Add(time.Second))))
		require.NoError(t, repo.Begin(ctx, record("abc", base.Add(2*time.Second))))

		result, err := repo.List(ctx, photozip.HistoryQuery{Token: "abc", Limit: 10})
		require.NoError(t, err)

		require.Len(t, result.Items, 2)
		for _, item := range result.Items {
			assert.Equal(t, "abc", item.Token)
		}
		assert.Empty(t, result.NextCursor)

		all, err := repo.List(ctx, photozip.HistoryQuery{Limit: 10})
		require.NoError(t, err)
		assert.Len(t, all.Items, 3)
	})

	t.Run("list empty", func(t *testing.T) {
		repo := newRepo(t)

		result, err := repo.List(context.Background(), photozip.HistoryQuery{Limit: 10})

		require.NoError(t, err)
		assert.NotNil(t, result.Items)
		assert.Empty(t, result.Items)
		assert.Empty(t, result.NextCursor)
	})

	t.Run("list rejects malformed cursor", func(t *testing.T) {
		repo := newRepo(t)

		_, err := repo.List(context.Background(), photozip.HistoryQuery{Limit: 10, Cursor: "!!!"})

		assert.ErrorIs(t, err, photozip.ErrInvalidInput)
	})
}
