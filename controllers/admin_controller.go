package controllers

import (
	"context"
	"fmt"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/cppla/blogfeed/graph"
	"github.com/cppla/blogfeed/store"
	"github.com/cppla/blogfeed/utils"
)

// userRemover is implemented by graph backends that keep edges outside the database.
type userRemover interface {
	RemoveUser(ctx context.Context, userID uint) error
}

const removeUserAttempts = 3

// removeFromGraph retries the graph cleanup so a transient outage does not leave
// a deleted user's edges counted as followers.
func removeFromGraph(ctx context.Context, r userRemover, userID uint) error {
	var err error
	for i := 1; i <= removeUserAttempts; i++ {
		if err = r.RemoveUser(ctx, userID); err == nil {
			return nil
		}
		utils.Sugar.Warnf("remove user %d from graph, attempt %d/%d: %v", userID, i, removeUserAttempts, err)
		if i < removeUserAttempts {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(time.Duration(i) * 50 * time.Millisecond):
			}
		}
	}
	return err
}

// AdminController exposes the maintenance operations administrators need.
type AdminController struct {
	store *store.Store
	graph graph.Graph
	cache utils.ResponseCache
}

// NewAdminController creates a new AdminController instance.
func NewAdminController(s *store.Store, g graph.Graph, cache utils.ResponseCache) *AdminController {
	return &AdminController{store: s, graph: g, cache: cache}
}

// InvalidateCache drops every cached feed page so the next read recomputes.
func (a *AdminController) InvalidateCache(ctx *gin.Context) {
	a.cache.InvalidateAll(ctx.Request.Context())
	utils.Sugar.Infof("feed cache invalidated by %d", viewerID(ctx))
	utils.Success(ctx, gin.H{"message": "cache cleared"})
}

// DeleteUser removes an account with its posts, comments and follow edges.
func (a *AdminController) DeleteUser(ctx *gin.Context) {
	user, err := a.store.UserByUsername(ctx.Request.Context(), ctx.Param("username"))
	if err != nil {
		respondError(ctx, err, "")
		return
	}
	if err := a.store.DeleteUser(ctx.Request.Context(), user.ID); err != nil {
		respondError(ctx, err, "")
		return
	}
	if r, ok := a.graph.(userRemover); ok {
		if err := removeFromGraph(ctx.Request.Context(), r, user.ID); err != nil {
			respondError(ctx, fmt.Errorf("user %s deleted but graph cleanup failed: %w", user.Username, err), "")
			return
		}
	}
	utils.Sugar.Infof("user %s deleted by %d", user.Username, viewerID(ctx))
	utils.Success(ctx, gin.H{"message": "user deleted"})
}

// DeleteGroup removes a group; its posts stay in the other feeds.
func (a *AdminController) DeleteGroup(ctx *gin.Context) {
	group, err := a.store.GroupBySlug(ctx.Request.Context(), ctx.Param("slug"))
	if err != nil {
		respondError(ctx, err, "")
		return
	}
	if err := a.store.DeleteGroup(ctx.Request.Context(), group.ID); err != nil {
		respondError(ctx, err, "")
		return
	}
	utils.Success(ctx, gin.H{"message": "group deleted"})
}

// DeleteComment removes a single comment.
func (a *AdminController) DeleteComment(ctx *gin.Context) {
	id, ok := parseID(ctx, "id")
	if !ok {
		return
	}
	if err := a.store.DeleteComment(ctx.Request.Context(), id); err != nil {
		respondError(ctx, err, "")
		return
	}
	utils.Success(ctx, gin.H{"message": "comment deleted"})
}
