// Package burgertest holds the behavioral suite every burger.Repository must pass.
package burgertest

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"burgerapi/pkg/burger"
)

// Factory returns an empty repository. It is called once per subtest.
type Factory func(t *testing.T) burger.Repository

// Run exercises repo construction from newRepo against the repository contract.
func Run(t *testing.T, newRepo Factory) {
	t.Helper()

	t.Run("InsertAssignsIDAndRoundTrips", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		created, err := repo.Insert(ctx, burger.Burger{Name: "Classic", Price: 5.99})
		require.NoError(t, err)
		assert.Equal(t, int64(1), created.ID)
		assert.Equal(t, int64(1), created.Version)

		got, err := repo.GetByID(ctx, created.ID)
		require.NoError(t, err)
		require.True(t, got.IsPresent())
		assert.Equal(t, created, got.MustGet())
	})

	t.Run("InsertIgnoresCallerID", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		a, err := repo.Insert(ctx, burger.Burger{ID: 500, Name: "A", Price: 1})
		require.NoError(t, err)
		b, err := repo.Insert(ctx, burger.Burger{ID: 500, Name: "B", Price: 2})
		require.NoError(t, err)
		assert.NotEqual(t, a.ID, b.ID)

		list, err := repo.ListAll(ctx)
		require.NoError(t, err)
		assert.Len(t, list, 2)
	})

	t.Run("GetMissingIsAbsent", func(t *testing.T) {
		repo := newRepo(t)

		got, err := repo.GetByID(context.Background(), 404)
		require.NoError(t, err)
		assert.True(t, got.IsAbsent())
	})

	t.Run("ListEmpty", func(t *testing.T) {
		repo := newRepo(t)

		list, err := repo.ListAll(context.Background())
		require.NoError(t, err)
		assert.NotNil(t, list)
		assert.Empty(t, list)
	})

	t.Run("ListReturnsLiveRecordsInIDOrder", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		for _, name := range []string{"Classic", "Cheese", "Bacon"} {
			_, err := repo.Insert(ctx, burger.Burger{Name: name, Price: 4.5})
			require.NoError(t, err)
		}
		removed, err := repo.Delete(ctx, 2)
		require.NoError(t, err)
		require.True(t, removed.IsPresent())

		list, err := repo.ListAll(ctx)
		require.NoError(t, err)
		require.Len(t, list, 2)
		assert.Equal(t, int64(1), list[0].ID)
		assert.Equal(t, "Classic", list[0].Name)
		assert.Equal(t, int64(3), list[1].ID)
		assert.Equal(t, "Bacon", list[1].Name)
	})

	t.Run("UpdateReplacesFields", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		created, err := repo.Insert(ctx, burger.Burger{Name: "Classic", Description: "beef", Price: 5.99})
		require.NoError(t, err)

		updated, err := repo.Update(ctx, burger.Burger{ID: created.ID, Name: "Double", Price: 8.5})
		require.NoError(t, err)
		assert.Equal(t, created.Version+1, updated.Version)

		got, err := repo.GetByID(ctx, created.ID)
		require.NoError(t, err)
		assert.Equal(t, burger.Burger{ID: created.ID, Name: "Double", Price: 8.5, Version: updated.Version}, got.MustGet())
	})

	t.Run("UpdateMissingIsNotFound", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		_, err := repo.Update(ctx, burger.Burger{ID: 9, Name: "Ghost"})
		assert.ErrorIs(t, err, burger.ErrNotFound)

		list, err := repo.ListAll(ctx)
		require.NoError(t, err)
		assert.Empty(t, list, "update must not create rows")
	})

	t.Run("UpdateWithStaleVersionConflicts", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		created, err := repo.Insert(ctx, burger.Burger{Name: "Classic", Price: 5.99})
		require.NoError(t, err)
		_, err = repo.Update(ctx, burger.Burger{ID: created.ID, Name: "First", Price: 6, Version: created.Version})
		require.NoError(t, err)

		_, err = repo.Update(ctx, burger.Burger{ID: created.ID, Name: "Second", Price: 7, Version: created.Version})
		assert.ErrorIs(t, err, burger.ErrConflict)

		got, err := repo.GetByID(ctx, created.ID)
		require.NoError(t, err)
		assert.Equal(t, "First", got.MustGet().Name)
	})

	t.Run("DeleteIsIdempotent", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		created, err := repo.Insert(ctx, burger.Burger{Name: "Classic", Price: 5.99})
		require.NoError(t, err)
		keep, err := repo.Insert(ctx, burger.Burger{Name: "Keep", Price: 3})
		require.NoError(t, err)

		removed, err := repo.Delete(ctx, created.ID)
		require.NoError(t, err)
		require.True(t, removed.IsPresent())
		assert.Equal(t, created, removed.MustGet())

		got, err := repo.GetByID(ctx, created.ID)
		require.NoError(t, err)
		assert.True(t, got.IsAbsent())

		for i := 0; i < 2; i++ {
			again, err := repo.Delete(ctx, created.ID)
			require.NoError(t, err)
			assert.True(t, again.IsAbsent())
		}

		list, err := repo.ListAll(ctx)
		require.NoError(t, err)
		assert.Equal(t, []burger.Burger{keep}, list)
	})

	t.Run("ConcurrentInsertsGetUniqueIDs", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		const n = 8
		ids := make(chan int64, n)
		var wg sync.WaitGroup
		for i := 0; i < n; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				b, err := repo.Insert(ctx, burger.Burger{Name: "Rush", Price: 1})
				if assert.NoError(t, err) {
					ids <- b.ID
				}
			}()
		}
		wg.Wait()
		close(ids)

		seen := make(map[int64]bool)
		for id := range ids {
			assert.False(t, seen[id], "duplicate id %d", id)
			seen[id] = true
		}
		assert.Len(t, seen, n)
	})
}
