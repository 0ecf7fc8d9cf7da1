package controllers

import (
	"errors"
	"net/http"
	"regexp"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/cppla/blogfeed/models"
	"github.com/cppla/blogfeed/store"
	"github.com/cppla/blogfeed/utils"
)

var slugPattern = regexp.MustCompile(`^[-a-zA-Z0-9_]{1,100}$`)

// GroupController lists groups and lets administrators create them.
type GroupController struct {
	store *store.Store
}

// NewGroupController creates a new GroupController instance.
func NewGroupController(s *store.Store) *GroupController {
	return &GroupController{store: s}
}

// ListGroups returns every group, used to fill the post form's group choice.
func (g *GroupController) ListGroups(ctx *gin.Context) {
	groups, err := g.store.ListGroups(ctx.Request.Context())
	if err != nil {
		respondError(ctx, err, "")
		return
	}
	utils.Success(ctx, gin.H{"items": groups})
}

// CreateGroup adds a group. Admin only.
func (g *GroupController) CreateGroup(ctx *gin.Context) {
	var req struct {
		Title       string `json:"title"`
		Slug        string `json:"slug"`
		Description string `json:"description"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40040, "invalid request payload")
		return
	}
	group := &models.Group{
		Title:       utils.CleanText(req.Title),
		Slug:        strings.TrimSpace(req.Slug),
		Description: utils.Sanitize(req.Description),
	}

	verr := &utils.ValidationError{}
	if group.Title == "" || len([]rune(group.Title)) > 200 {
		verr.Add("title", "1 to 200 characters")
	}
	if !slugPattern.MatchString(group.Slug) {
		verr.Add("slug", "letters, digits, hyphens and underscores, at most 100")
	}
	if !verr.Empty() {
		respondError(ctx, verr, "")
		return
	}
	if _, err := g.store.GroupBySlug(ctx.Request.Context(), group.Slug); err == nil {
		respondError(ctx, utils.NewValidationError("slug", "group with this slug already exists"), "")
		return
	} else if !errors.Is(err, utils.ErrNotFound) {
		respondError(ctx, err, "")
		return
	}

	if err := g.store.CreateGroup(ctx.Request.Context(), group); err != nil {
		respondError(ctx, err, "")
		return
	}
	utils.Sugar.Infof("group %s created", group.Slug)
	utils.Success(ctx, gin.H{"group": group, "redirect": "/api/v1/groups/" + group.Slug + "/posts"})
}
