package feed_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cppla/blogfeed/feed"
	"github.com/cppla/blogfeed/graph"
	"github.com/cppla/blogfeed/models"
	"github.com/cppla/blogfeed/store"
	"github.com/cppla/blogfeed/testutil"
	"github.com/cppla/blogfeed/utils"
)

func ids(posts []models.Post) []uint {
	out := make([]uint, 0, len(posts))
	for _, p := range posts {
		out = append(out, p.ID)
	}
	return out
}

func TestGroupedPostAppearsInGroupAndGlobal(t *testing.T) {
	db := testutil.NewDB(t)
	s := store.New(db)
	c := feed.NewComposer(s, graph.NewGormGraph(db), 10)
	ctx := context.Background()
	author := testutil.User(t, db, "leo")
	group := testutil.Group(t, db, "cats")
	grouped := testutil.Post(t, db, author, group, "in cats")
	loose := testutil.Post(t, db, author, nil, "no group")

	res, err := c.Page(ctx, feed.ByGroup("cats"), 0, 1)
	require.NoError(t, err)
	assert.Equal(t, []uint{grouped.ID}, ids(res.Page.Items))
	require.NotNil(t, res.Group)
	assert.Equal(t, "cats", res.Group.Slug)

	res, err = c.Page(ctx, feed.Global(), 0, 1)
	require.NoError(t, err)
	assert.Equal(t, []uint{loose.ID, grouped.ID}, ids(res.Page.Items))

	require.NoError(t, s.DeleteGroup(ctx, group.ID))
	res, err = c.Page(ctx, feed.Global(), 0, 1)
	require.NoError(t, err)
	require.Len(t, res.Page.Items, 2)
	assert.Nil(t, res.Page.Items[1].Group)
	assert.Nil(t, res.Page.Items[1].GroupID)

	_, err = c.Page(ctx, feed.ByGroup("cats"), 0, 1)
	assert.ErrorIs(t, err, utils.ErrNotFound)
}

func TestByAuthorUnknownIsNotFound(t *testing.T) {
	db := testutil.NewDB(t)
	c := feed.NewComposer(store.New(db), graph.NewGormGraph(db), 10)

	_, err := c.Page(context.Background(), feed.ByAuthor("ghost"), 0, 1)
	assert.ErrorIs(t, err, utils.ErrNotFound)
}

func TestByAuthorReportsFollowState(t *testing.T) {
	db := testutil.NewDB(t)
	g := graph.NewGormGraph(db)
	c := feed.NewComposer(store.New(db), g, 10)
	ctx := context.Background()
	leo := testutil.User(t, db, "leo")
	mia := testutil.User(t, db, "mia")
	testutil.Post(t, db, leo, nil, "by leo")
	testutil.Post(t, db, mia, nil, "by mia")
	require.NoError(t, g.Follow(ctx, mia.ID, leo.ID))

	res, err := c.Page(ctx, feed.ByAuthor("leo"), mia.ID, 1)
	require.NoError(t, err)
	require.Len(t, res.Page.Items, 1)
	assert.Equal(t, leo.ID, res.Page.Items[0].UserID)
	assert.Equal(t, "leo", res.Author.Username)
	assert.True(t, res.IsFollowing)
	assert.EqualValues(t, 1, res.FollowerCount)
	assert.EqualValues(t, 0, res.FollowingCount)

	res, err = c.Page(ctx, feed.ByAuthor("leo"), 0, 1)
	require.NoError(t, err)
	assert.False(t, res.IsFollowing)
}

func TestByFollowingRequiresViewer(t *testing.T) {
	db := testutil.NewDB(t)
	c := feed.NewComposer(store.New(db), graph.NewGormGraph(db), 10)

	_, err := c.Page(context.Background(), feed.ByFollowing(0), 0, 1)
	assert.ErrorIs(t, err, utils.ErrUnauthenticated)
}

func TestByFollowingIsFollowedAuthorsNewestFirst(t *testing.T) {
	db := testutil.NewDB(t)
	g := graph.NewGormGraph(db)
	c := feed.NewComposer(store.New(db), g, 10)
	ctx := context.Background()
	viewer := testutil.User(t, db, "viewer")
	leo := testutil.User(t, db, "leo")
	mia := testutil.User(t, db, "mia")
	other := testutil.User(t, db, "other")
	p1 := testutil.Post(t, db, leo, nil, "leo 1")
	testutil.Post(t, db, other, nil, "other")
	p2 := testutil.Post(t, db, mia, nil, "mia 1")
	p3 := testutil.Post(t, db, leo, nil, "leo 2")
	testutil.Post(t, db, viewer, nil, "own")

	res, err := c.Page(ctx, feed.ByFollowing(viewer.ID), viewer.ID, 1)
	require.NoError(t, err)
	assert.Empty(t, res.Page.Items)
	assert.Equal(t, 1, res.Page.TotalPages)

	require.NoError(t, g.Follow(ctx, viewer.ID, leo.ID))
	require.NoError(t, g.Follow(ctx, viewer.ID, mia.ID))

	res, err = c.Page(ctx, feed.ByFollowing(viewer.ID), viewer.ID, 1)
	require.NoError(t, err)
	assert.Equal(t, []uint{p3.ID, p2.ID, p1.ID}, ids(res.Page.Items))

	all, err := c.Compose(ctx, feed.ByFollowing(viewer.ID))
	require.NoError(t, err)
	assert.Equal(t, ids(res.Page.Items), ids(all))
}

func TestPageThirteenPosts(t *testing.T) {
	db := testutil.NewDB(t)
	c := feed.NewComposer(store.New(db), graph.NewGormGraph(db), 10)
	ctx := context.Background()
	author := testutil.User(t, db, "leo")
	var created []*models.Post
	for i := 0; i < 13; i++ {
		created = append(created, testutil.Post(t, db, author, nil, fmt.Sprintf("post %d", i)))
	}

	p1, err := c.Page(ctx, feed.Global(), 0, 1)
	require.NoError(t, err)
	assert.Len(t, p1.Page.Items, 10)
	assert.True(t, p1.Page.HasNext)
	assert.Equal(t, created[12].ID, p1.Page.Items[0].ID)

	p2, err := c.Page(ctx, feed.Global(), 0, 2)
	require.NoError(t, err)
	assert.Len(t, p2.Page.Items, 3)
	assert.False(t, p2.Page.HasNext)
	assert.True(t, p2.Page.HasPrevious)
	assert.Equal(t, created[0].ID, p2.Page.Items[2].ID)

	p99, err := c.Page(ctx, feed.Global(), 0, 99)
	require.NoError(t, err)
	assert.Equal(t, 2, p99.Page.PageIndex)
	assert.Equal(t, ids(p2.Page.Items), ids(p99.Page.Items))

	all, err := c.Compose(ctx, feed.Global())
	require.NoError(t, err)
	assert.Len(t, all, 13)
	assert.Equal(t, ids(all[10:]), ids(feed.Paginate(all, 10, 2).Items))
}

func TestEmptyGlobalIsOneEmptyPage(t *testing.T) {
	db := testutil.NewDB(t)
	c := feed.NewComposer(store.New(db), graph.NewGormGraph(db), 0)

	res, err := c.Page(context.Background(), feed.Global(), 0, 7)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Page.PageIndex)
	assert.Equal(t, feed.DefaultPageSize, res.Page.PageSize)
	assert.NotNil(t, res.Page.Items)
	assert.Empty(t, res.Page.Items)
}
