package controllers

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/cppla/blogfeed/graph"
	"github.com/cppla/blogfeed/store"
	"github.com/cppla/blogfeed/utils"
)

// FollowController creates and removes follow edges from the viewer to an author.
type FollowController struct {
	store *store.Store
	graph graph.Graph
}

// NewFollowController creates a new FollowController instance.
func NewFollowController(s *store.Store, g graph.Graph) *FollowController {
	return &FollowController{store: s, graph: g}
}

// Follow makes the viewer follow the author. Following yourself is silently ignored.
func (f *FollowController) Follow(ctx *gin.Context) {
	f.change(ctx, f.graph.Follow)
}

// Unfollow removes the edge when present.
func (f *FollowController) Unfollow(ctx *gin.Context) {
	f.change(ctx, f.graph.Unfollow)
}

func (f *FollowController) change(ctx *gin.Context, op func(context.Context, uint, uint) error) {
	username := ctx.Param("username")
	author, err := f.store.UserByUsername(ctx.Request.Context(), username)
	if err != nil {
		respondError(ctx, err, "")
		return
	}
	if err := op(ctx.Request.Context(), viewerID(ctx), author.ID); err != nil {
		respondError(ctx, err, "")
		return
	}
	utils.Success(ctx, gin.H{"redirect": profilePath(author.Username)})
}
