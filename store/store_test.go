package store_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cppla/blogfeed/models"
	"github.com/cppla/blogfeed/store"
	"github.com/cppla/blogfeed/testutil"
	"github.com/cppla/blogfeed/utils"
)

func TestListPostsNewestFirst(t *testing.T) {
	db := testutil.NewDB(t)
	s := store.New(db)
	ctx := context.Background()
	author := testutil.User(t, db, "leo")
	first := testutil.Post(t, db, author, nil, "first")
	second := testutil.Post(t, db, author, nil, "second")
	third := testutil.Post(t, db, author, nil, "third")

	posts, err := s.ListPosts(ctx, store.PostFilter{}, 0, 0)
	require.NoError(t, err)
	require.Len(t, posts, 3)
	assert.Equal(t, []uint{third.ID, second.ID, first.ID}, []uint{posts[0].ID, posts[1].ID, posts[2].ID})
	assert.Equal(t, "leo", posts[0].User.Username)
}

func TestListPostsTiesBrokenByID(t *testing.T) {
	db := testutil.NewDB(t)
	s := store.New(db)
	author := testutil.User(t, db, "leo")
	p1 := testutil.Post(t, db, author, nil, "a")
	p2 := testutil.Post(t, db, author, nil, "b")
	require.NoError(t, db.Model(&models.Post{}).Where("id = ?", p2.ID).Update("created_at", p1.CreatedAt).Error)

	posts, err := s.ListPosts(context.Background(), store.PostFilter{}, 0, 0)
	require.NoError(t, err)
	require.Len(t, posts, 2)
	assert.Equal(t, p2.ID, posts[0].ID)
	assert.Equal(t, p1.ID, posts[1].ID)
}

func TestListPostsEmptyAuthorSetMatchesNothing(t *testing.T) {
	db := testutil.NewDB(t)
	s := store.New(db)
	author := testutil.User(t, db, "leo")
	testutil.Post(t, db, author, nil, "a")

	posts, err := s.ListPosts(context.Background(), store.PostFilter{AuthorIDs: []uint{}}, 0, 10)
	require.NoError(t, err)
	assert.Empty(t, posts)

	n, err := s.CountPosts(context.Background(), store.PostFilter{AuthorIDs: []uint{}})
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestLookupsReturnNotFound(t *testing.T) {
	s := store.New(testutil.NewDB(t))
	ctx := context.Background()

	_, err := s.GroupBySlug(ctx, "missing")
	assert.ErrorIs(t, err, utils.ErrNotFound)
	_, err = s.UserByUsername(ctx, "nobody")
	assert.ErrorIs(t, err, utils.ErrNotFound)
	_, err = s.PostByID(ctx, 42)
	assert.ErrorIs(t, err, utils.ErrNotFound)
}

func TestDeleteGroupKeepsPosts(t *testing.T) {
	db := testutil.NewDB(t)
	s := store.New(db)
	ctx := context.Background()
	author := testutil.User(t, db, "leo")
	group := testutil.Group(t, db, "cats")
	post := testutil.Post(t, db, author, group, "grouped")

	require.NoError(t, s.DeleteGroup(ctx, group.ID))

	got, err := s.PostByID(ctx, post.ID)
	require.NoError(t, err)
	assert.Nil(t, got.GroupID)
	assert.Nil(t, got.Group)

	all, err := s.ListPosts(ctx, store.PostFilter{}, 0, 0)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, post.ID, all[0].ID)
}

func TestDeletePostCascadesComments(t *testing.T) {
	db := testutil.NewDB(t)
	s := store.New(db)
	ctx := context.Background()
	author := testutil.User(t, db, "leo")
	post := testutil.Post(t, db, author, nil, "hello")
	require.NoError(t, s.CreateComment(ctx, &models.Comment{PostID: post.ID, UserID: author.ID, Text: "hi"}))

	require.NoError(t, s.DeletePost(ctx, post.ID))

	n, err := s.CountComments(ctx, post.ID)
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.ErrorIs(t, s.DeletePost(ctx, post.ID), utils.ErrNotFound)
}

func TestDeleteUserCascades(t *testing.T) {
	db := testutil.NewDB(t)
	s := store.New(db)
	ctx := context.Background()
	leo := testutil.User(t, db, "leo")
	mia := testutil.User(t, db, "mia")
	leoPost := testutil.Post(t, db, leo, nil, "by leo")
	miaPost := testutil.Post(t, db, mia, nil, "by mia")
	require.NoError(t, s.CreateComment(ctx, &models.Comment{PostID: leoPost.ID, UserID: mia.ID, Text: "mia on leo"}))
	require.NoError(t, s.CreateComment(ctx, &models.Comment{PostID: miaPost.ID, UserID: leo.ID, Text: "leo on mia"}))
	require.NoError(t, s.CreateComment(ctx, &models.Comment{PostID: miaPost.ID, UserID: mia.ID, Text: "mia on mia"}))
	require.NoError(t, db.Create(&models.Follow{FollowerID: mia.ID, FollowedID: leo.ID}).Error)
	require.NoError(t, db.Create(&models.Follow{FollowerID: leo.ID, FollowedID: mia.ID}).Error)

	require.NoError(t, s.DeleteUser(ctx, leo.ID))

	posts, err := s.ListPosts(ctx, store.PostFilter{}, 0, 0)
	require.NoError(t, err)
	require.Len(t, posts, 1)
	assert.Equal(t, miaPost.ID, posts[0].ID)

	comments, err := s.ListComments(ctx, miaPost.ID)
	require.NoError(t, err)
	require.Len(t, comments, 1)
	assert.Equal(t, "mia on mia", comments[0].Text)

	var leftover int64
	require.NoError(t, db.Model(&models.Comment{}).Where("post_id = ?", leoPost.ID).Count(&leftover).Error)
	assert.Zero(t, leftover)
	require.NoError(t, db.Model(&models.Follow{}).Count(&leftover).Error)
	assert.Zero(t, leftover)
}

func TestUpdatePostKeepsIdentityAndTimestamp(t *testing.T) {
	db := testutil.NewDB(t)
	s := store.New(db)
	ctx := context.Background()
	author := testutil.User(t, db, "leo")
	group := testutil.Group(t, db, "cats")
	post := testutil.Post(t, db, author, group, "before")

	edited := *post
	edited.Text = "after"
	edited.GroupID = nil
	edited.ImageRef = "posts/2024/01/00000000-0000-0000-0000-000000000000.gif"
	require.NoError(t, s.UpdatePost(ctx, &edited))

	got, err := s.PostByID(ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, "after", got.Text)
	assert.Nil(t, got.GroupID)
	assert.Equal(t, edited.ImageRef, got.ImageRef)
	assert.Equal(t, author.ID, got.UserID)
	assert.True(t, post.CreatedAt.Equal(got.CreatedAt))
}

func TestListCommentsOldestFirst(t *testing.T) {
	db := testutil.NewDB(t)
	s := store.New(db)
	ctx := context.Background()
	author := testutil.User(t, db, "leo")
	post := testutil.Post(t, db, author, nil, "hello")
	for _, text := range []string{"one", "two", "three"} {
		require.NoError(t, s.CreateComment(ctx, &models.Comment{PostID: post.ID, UserID: author.ID, Text: text}))
	}

	comments, err := s.ListComments(ctx, post.ID)
	require.NoError(t, err)
	require.Len(t, comments, 3)
	assert.Equal(t, "one", comments[0].Text)
	assert.Equal(t, "three", comments[2].Text)
	assert.Equal(t, "leo", comments[2].User.Username)
}
