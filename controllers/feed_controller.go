package controllers

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/cppla/blogfeed/feed"
	"github.com/cppla/blogfeed/utils"
)

// FeedController renders the global, group, profile and follow feeds.
type FeedController struct {
	composer *feed.Composer
	cache    utils.ResponseCache
	ttl      time.Duration
}

// NewFeedController creates a FeedController. The global feed's rendered
// pages are kept in cache for ttl.
func NewFeedController(c *feed.Composer, cache utils.ResponseCache, ttl time.Duration) *FeedController {
	return &FeedController{composer: c, cache: cache, ttl: ttl}
}

func indexCacheKey(page int) string {
	return fmt.Sprintf("index:page=%d", page)
}

func requestedPage(ctx *gin.Context) int {
	page := feed.ParsePageIndex(strings.TrimSpace(ctx.Query("page")))
	if page < 1 {
		page = 1
	}
	return page
}

// Index serves the global feed. Within the cache TTL every viewer gets the
// same bytes, even if posts were added since.
func (f *FeedController) Index(ctx *gin.Context) {
	page := requestedPage(ctx)
	key := indexCacheKey(page)
	if b, ok := f.cache.Get(ctx.Request.Context(), key); ok {
		ctx.Data(http.StatusOK, "application/json; charset=utf-8", b)
		return
	}

	res, err := f.composer.Page(ctx.Request.Context(), feed.Global(), viewerID(ctx), page)
	if err != nil {
		respondError(ctx, err, "")
		return
	}
	b, err := utils.RenderSuccess(gin.H{"page": res.Page})
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50020, "failed to render feed")
		return
	}
	f.cache.Set(ctx.Request.Context(), key, b, f.ttl)
	ctx.Data(http.StatusOK, "application/json; charset=utf-8", b)
}

// Group serves the posts filed under a group.
func (f *FeedController) Group(ctx *gin.Context) {
	scope := feed.ByGroup(ctx.Param("slug"))
	res, err := f.composer.Page(ctx.Request.Context(), scope, viewerID(ctx), requestedPage(ctx))
	if err != nil {
		respondError(ctx, err, "")
		return
	}
	utils.Success(ctx, gin.H{"page": res.Page, "group": res.Group})
}

// Profile serves an author's posts plus the viewer's follow state.
func (f *FeedController) Profile(ctx *gin.Context) {
	scope := feed.ByAuthor(ctx.Param("username"))
	res, err := f.composer.Page(ctx.Request.Context(), scope, viewerID(ctx), requestedPage(ctx))
	if err != nil {
		respondError(ctx, err, "")
		return
	}
	utils.Success(ctx, gin.H{
		"page":         res.Page,
		"author":       res.Author,
		"is_following": res.IsFollowing,
		"followers":    res.FollowerCount,
		"following":    res.FollowingCount,
	})
}

// Follow serves the posts of every author the viewer follows.
func (f *FeedController) Follow(ctx *gin.Context) {
	viewer := viewerID(ctx)
	res, err := f.composer.Page(ctx.Request.Context(), feed.ByFollowing(viewer), viewer, requestedPage(ctx))
	if err != nil {
		respondError(ctx, err, "")
		return
	}
	utils.Success(ctx, gin.H{"page": res.Page})
}
