package graph_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cppla/blogfeed/graph"
)

// newNeo4jGraph connects to NEO4J_URI and skips when it is unset. The ids it
// returns are unique per run and their nodes are removed afterwards.
func newNeo4jGraph(t *testing.T) (*graph.Neo4jGraph, uint, uint) {
	t.Helper()
	uri := os.Getenv("NEO4J_URI")
	if uri == "" {
		t.Skip("NEO4J_URI not set")
	}
	ctx := context.Background()
	driver, err := graph.ConnectNeo4j(ctx, uri, os.Getenv("NEO4J_USER"), os.Getenv("NEO4J_PASSWORD"))
	require.NoError(t, err)
	g := graph.NewNeo4jGraph(driver)

	base := uint(time.Now().UnixNano()%1_000_000_000) * 2
	a, b := base+1, base+2
	t.Cleanup(func() {
		_ = g.RemoveUser(ctx, a)
		_ = g.RemoveUser(ctx, b)
		_ = driver.Close(ctx)
	})
	return g, a, b
}

func TestNeo4jFollowIsIdempotent(t *testing.T) {
	g, a, b := newNeo4jGraph(t)
	ctx := context.Background()

	require.NoError(t, g.Follow(ctx, a, b))
	require.NoError(t, g.Follow(ctx, a, b))

	n, err := g.FollowerCount(ctx, b)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	ids, err := g.FollowedAuthorIDs(ctx, a)
	require.NoError(t, err)
	assert.Equal(t, []uint{b}, ids)

	ok, err := g.IsFollowing(ctx, b, a)
	require.NoError(t, err)
	assert.False(t, ok, "edges are directed")
}

func TestNeo4jSelfFollowCreatesNoEdge(t *testing.T) {
	g, a, _ := newNeo4jGraph(t)
	ctx := context.Background()

	require.NoError(t, g.Follow(ctx, a, a))

	n, err := g.FollowingCount(ctx, a)
	require.NoError(t, err)
	assert.Zero(t, n)
	ok, err := g.IsFollowing(ctx, a, a)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestNeo4jUnfollowWithoutEdgeIsNoop(t *testing.T) {
	g, a, b := newNeo4jGraph(t)
	ctx := context.Background()

	require.NoError(t, g.Unfollow(ctx, a, b))

	require.NoError(t, g.Follow(ctx, a, b))
	require.NoError(t, g.Unfollow(ctx, a, b))
	require.NoError(t, g.Unfollow(ctx, a, b))

	ok, err := g.IsFollowing(ctx, a, b)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestNeo4jRemoveUserDropsEdges(t *testing.T) {
	g, a, b := newNeo4jGraph(t)
	ctx := context.Background()
	require.NoError(t, g.Follow(ctx, a, b))

	require.NoError(t, g.RemoveUser(ctx, a))

	n, err := g.FollowerCount(ctx, b)
	require.NoError(t, err)
	assert.Zero(t, n)
}
