package repository

import (
	"context"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFavoriteRepository_AttachIsIdempotent(t *testing.T) {
	requireDB(t)
	ctx := context.Background()
	repo := NewFavoriteRepository(testDB)

	seller := createTestUser(t, ctx, "fav-seller")
	fan := createTestUser(t, ctx, "fav-fan")
	item := createTestItem(t, ctx, seller.ID, "Poster")

	require.NoError(t, repo.Attach(ctx, fan.ID, item.ID))
	require.NoError(t, repo.Attach(ctx, fan.ID, item.ID))

	count, err := repo.Count(ctx, item.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	favorited, err := repo.IsFavorited(ctx, item.ID, fan.ID)
	require.NoError(t, err)
	assert.True(t, favorited)

	require.NoError(t, repo.Detach(ctx, fan.ID, item.ID))
	require.NoError(t, repo.Detach(ctx, fan.ID, item.ID), "detaching a missing pair is a no-op")

	favorited, err = repo.IsFavorited(ctx, item.ID, fan.ID)
	require.NoError(t, err)
	assert.False(t, favorited)
}

// Feature: flea-market, Property 4: Favorite count equals distinct attached users
func TestProperty_FavoriteCountMatchesAttachedUsers(t *testing.T) {
	requireDB(t)
	ctx := context.Background()
	repo := NewFavoriteRepository(testDB)

	seller := createTestUser(t, ctx, "count-seller")
	fans := make([]int64, 5)
	for i := range fans {
		fans[i] = createTestUser(t, ctx, "count-fan").ID
	}

	properties := gopter.NewProperties(nil)

	properties.Property("count tracks attach/detach operations", prop.ForAll(
		func(ops []int) bool {
			item := createTestItem(t, ctx, seller.ID, "Counted")
			expected := map[int64]bool{}

			// op encodes fan index in the low digit and attach/detach in the sign
			for _, op := range ops {
				fan := fans[abs(op)%len(fans)]
				if op >= 0 {
					if err := repo.Attach(ctx, fan, item.ID); err != nil {
						t.Logf("FAIL: attach: %v", err)
						return false
					}
					expected[fan] = true
				} else {
					if err := repo.Detach(ctx, fan, item.ID); err != nil {
						t.Logf("FAIL: detach: %v", err)
						return false
					}
					delete(expected, fan)
				}
			}

			count, err := repo.Count(ctx, item.ID)
			if err != nil {
				t.Logf("FAIL: count: %v", err)
				return false
			}
			if count != len(expected) {
				t.Logf("FAIL: count mismatch. Expected %d, got %d", len(expected), count)
				return false
			}
			return true
		},
		gen.SliceOfN(12, gen.IntRange(-9, 9)),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
