package graph_test

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cppla/blogfeed/graph"
	"github.com/cppla/blogfeed/models"
	"github.com/cppla/blogfeed/testutil"
)

func TestFollowIsIdempotent(t *testing.T) {
	db := testutil.NewDB(t)
	g := graph.NewGormGraph(db)
	ctx := context.Background()
	a := testutil.User(t, db, "a")
	b := testutil.User(t, db, "b")

	require.NoError(t, g.Follow(ctx, a.ID, b.ID))
	require.NoError(t, g.Follow(ctx, a.ID, b.ID))

	var n int64
	require.NoError(t, db.Model(&models.Follow{}).Count(&n).Error)
	assert.EqualValues(t, 1, n)

	ok, err := g.IsFollowing(ctx, a.ID, b.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = g.IsFollowing(ctx, b.ID, a.ID)
	require.NoError(t, err)
	assert.False(t, ok, "edges are directed")
}

func TestSelfFollowCreatesNoEdge(t *testing.T) {
	db := testutil.NewDB(t)
	g := graph.NewGormGraph(db)
	ctx := context.Background()
	a := testutil.User(t, db, "a")

	require.NoError(t, g.Follow(ctx, a.ID, a.ID))

	var n int64
	require.NoError(t, db.Model(&models.Follow{}).Count(&n).Error)
	assert.Zero(t, n)

	ok, err := g.IsFollowing(ctx, a.ID, a.ID)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestUnfollowWithoutEdgeIsNoop(t *testing.T) {
	db := testutil.NewDB(t)
	g := graph.NewGormGraph(db)
	ctx := context.Background()
	a := testutil.User(t, db, "a")
	b := testutil.User(t, db, "b")
	c := testutil.User(t, db, "c")
	require.NoError(t, g.Follow(ctx, a.ID, c.ID))

	require.NoError(t, g.Unfollow(ctx, a.ID, b.ID))
	require.NoError(t, g.Unfollow(ctx, a.ID, a.ID))

	var n int64
	require.NoError(t, db.Model(&models.Follow{}).Count(&n).Error)
	assert.EqualValues(t, 1, n)
}

func TestUnfollowRemovesEdge(t *testing.T) {
	db := testutil.NewDB(t)
	g := graph.NewGormGraph(db)
	ctx := context.Background()
	a := testutil.User(t, db, "a")
	b := testutil.User(t, db, "b")
	require.NoError(t, g.Follow(ctx, a.ID, b.ID))

	require.NoError(t, g.Unfollow(ctx, a.ID, b.ID))
	require.NoError(t, g.Unfollow(ctx, a.ID, b.ID))

	ok, err := g.IsFollowing(ctx, a.ID, b.ID)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestFollowedAuthorIDsAndCounts(t *testing.T) {
	db := testutil.NewDB(t)
	g := graph.NewGormGraph(db)
	ctx := context.Background()
	a := testutil.User(t, db, "a")
	b := testutil.User(t, db, "b")
	c := testutil.User(t, db, "c")
	require.NoError(t, g.Follow(ctx, a.ID, c.ID))
	require.NoError(t, g.Follow(ctx, a.ID, b.ID))
	require.NoError(t, g.Follow(ctx, b.ID, c.ID))

	ids, err := g.FollowedAuthorIDs(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, []uint{b.ID, c.ID}, ids)

	ids, err = g.FollowedAuthorIDs(ctx, c.ID)
	require.NoError(t, err)
	assert.Empty(t, ids)

	followers, err := g.FollowerCount(ctx, c.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 2, followers)

	following, err := g.FollowingCount(ctx, a.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 2, following)
}

func TestConcurrentFollowsLeaveOneEdge(t *testing.T) {
	db := testutil.NewDB(t)
	g := graph.NewGormGraph(db)
	ctx := context.Background()
	a := testutil.User(t, db, "a")
	b := testutil.User(t, db, "b")

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, g.Follow(ctx, a.ID, b.ID))
		}()
	}
	wg.Wait()

	var n int64
	require.NoError(t, db.Model(&models.Follow{}).Count(&n).Error)
	assert.EqualValues(t, 1, n)
}
