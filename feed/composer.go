package feed

import (
	"context"
	"fmt"

	"github.com/cppla/blogfeed/graph"
	"github.com/cppla/blogfeed/models"
	"github.com/cppla/blogfeed/store"
	"github.com/cppla/blogfeed/utils"
)

// DefaultPageSize is used when the composer is built with a non-positive size.
const DefaultPageSize = 10

// Result is the context a feed view renders. Group is set for ByGroup;
// Author and the follow fields are set for ByAuthor.
type Result struct {
	Scope          Scope             `json:"-"`
	Page           Page[models.Post] `json:"page"`
	Group          *models.Group     `json:"group,omitempty"`
	Author         *models.User      `json:"author,omitempty"`
	IsFollowing    bool              `json:"is_following"`
	FollowerCount  int64             `json:"followers"`
	FollowingCount int64             `json:"following"`
}

// Composer resolves scopes against the entity store and the social graph.
type Composer struct {
	store    *store.Store
	graph    graph.Graph
	pageSize int
}

// NewComposer returns a Composer that cuts pages of pageSize posts.
func NewComposer(s *store.Store, g graph.Graph, pageSize int) *Composer {
	if pageSize < 1 {
		pageSize = DefaultPageSize
	}
	return &Composer{store: s, graph: g, pageSize: pageSize}
}

// PageSize reports the configured page length.
func (c *Composer) PageSize() int { return c.pageSize }

// resolved is a scope turned into a concrete post filter.
type resolved struct {
	filter store.PostFilter
	group  *models.Group
	author *models.User
}

func (c *Composer) resolve(ctx context.Context, scope Scope) (*resolved, error) {
	switch scope.Kind {
	case KindGlobal:
		return &resolved{}, nil
	case KindGroup:
		g, err := c.store.GroupBySlug(ctx, scope.Slug)
		if err != nil {
			return nil, err
		}
		return &resolved{filter: store.PostFilter{GroupID: g.ID}, group: g}, nil
	case KindAuthor:
		u, err := c.store.UserByUsername(ctx, scope.Username)
		if err != nil {
			return nil, err
		}
		return &resolved{filter: store.PostFilter{AuthorID: u.ID}, author: u}, nil
	case KindFollowing:
		if scope.ViewerID == 0 {
			return nil, utils.ErrUnauthenticated
		}
		ids, err := c.graph.FollowedAuthorIDs(ctx, scope.ViewerID)
		if err != nil {
			return nil, err
		}
		if ids == nil {
			ids = []uint{}
		}
		return &resolved{filter: store.PostFilter{AuthorIDs: ids}}, nil
	default:
		return nil, fmt.Errorf("unknown feed scope %s", scope)
	}
}

// Compose returns the full ordered candidate sequence for scope, newest first.
func (c *Composer) Compose(ctx context.Context, scope Scope) ([]models.Post, error) {
	r, err := c.resolve(ctx, scope)
	if err != nil {
		return nil, err
	}
	return c.store.ListPosts(ctx, r.filter, 0, 0)
}

// Page resolves scope and returns page pageIndex of it for viewerID (0 when
// anonymous). Out of range indexes are clamped.
func (c *Composer) Page(ctx context.Context, scope Scope, viewerID uint, pageIndex int) (*Result, error) {
	r, err := c.resolve(ctx, scope)
	if err != nil {
		return nil, err
	}

	total, err := c.store.CountPosts(ctx, r.filter)
	if err != nil {
		return nil, err
	}
	index, _, offset := Window(total, c.pageSize, pageIndex)
	var posts []models.Post
	if total > 0 {
		posts, err = c.store.ListPosts(ctx, r.filter, offset, c.pageSize)
		if err != nil {
			return nil, err
		}
	}

	res := &Result{
		Scope: scope,
		Page:  NewPage(posts, total, c.pageSize, index),
		Group: r.group,
	}
	if r.author != nil {
		if err := c.fillAuthor(ctx, res, r.author, viewerID); err != nil {
			return nil, err
		}
	}
	return res, nil
}

func (c *Composer) fillAuthor(ctx context.Context, res *Result, author *models.User, viewerID uint) error {
	res.Author = author
	if viewerID != 0 {
		following, err := c.graph.IsFollowing(ctx, viewerID, author.ID)
		if err != nil {
			return err
		}
		res.IsFollowing = following
	}
	followers, err := c.graph.FollowerCount(ctx, author.ID)
	if err != nil {
		return err
	}
	followingCount, err := c.graph.FollowingCount(ctx, author.ID)
	if err != nil {
		return err
	}
	res.FollowerCount = followers
	res.FollowingCount = followingCount
	return nil
}
