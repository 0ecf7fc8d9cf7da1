// Package store is the entity access layer for users, groups, posts, comments
// and follow edges. Cascades are executed here explicitly rather than relying
// on database foreign keys.
package store

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/cppla/blogfeed/models"
	"github.com/cppla/blogfeed/utils"
)

// Store wraps a gorm connection with the operations the feed core needs.
type Store struct {
	db *gorm.DB
}

// New returns a Store over db.
func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

// DB exposes the underlying connection for components that share it.
func (s *Store) DB() *gorm.DB { return s.db }

// PostFilter narrows a post listing. Zero values mean "no constraint";
// a non-nil empty AuthorIDs matches nothing.
type PostFilter struct {
	AuthorID  uint
	GroupID   uint
	AuthorIDs []uint
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return utils.ErrNotFound
	}
	return err
}

// CreateUser inserts u.
func (s *Store) CreateUser(ctx context.Context, u *models.User) error {
	if err := s.db.WithContext(ctx).Create(u).Error; err != nil {
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

// CreateGroup inserts g. Slugs are unique.
func (s *Store) CreateGroup(ctx context.Context, g *models.Group) error {
	if err := s.db.WithContext(ctx).Create(g).Error; err != nil {
		return fmt.Errorf("create group: %w", err)
	}
	return nil
}

// CreatePost inserts p; CreatedAt is assigned by the database layer.
func (s *Store) CreatePost(ctx context.Context, p *models.Post) error {
	if err := s.db.WithContext(ctx).Omit("User", "Group").Create(p).Error; err != nil {
		return fmt.Errorf("create post: %w", err)
	}
	return nil
}

// CreateComment inserts c.
func (s *Store) CreateComment(ctx context.Context, c *models.Comment) error {
	if err := s.db.WithContext(ctx).Omit("User").Create(c).Error; err != nil {
		return fmt.Errorf("create comment: %w", err)
	}
	return nil
}

// UserByID loads a user or returns utils.ErrNotFound.
func (s *Store) UserByID(ctx context.Context, id uint) (*models.User, error) {
	var u models.User
	if err := s.db.WithContext(ctx).First(&u, id).Error; err != nil {
		return nil, notFound(err)
	}
	return &u, nil
}

// UserByUsername loads a user or returns utils.ErrNotFound.
func (s *Store) UserByUsername(ctx context.Context, username string) (*models.User, error) {
	var u models.User
	if err := s.db.WithContext(ctx).Where("username = ?", username).First(&u).Error; err != nil {
		return nil, notFound(err)
	}
	return &u, nil
}

// GroupByID loads a group or returns utils.ErrNotFound.
func (s *Store) GroupByID(ctx context.Context, id uint) (*models.Group, error) {
	var g models.Group
	if err := s.db.WithContext(ctx).First(&g, id).Error; err != nil {
		return nil, notFound(err)
	}
	return &g, nil
}

// GroupBySlug loads a group or returns utils.ErrNotFound.
func (s *Store) GroupBySlug(ctx context.Context, slug string) (*models.Group, error) {
	var g models.Group
	if err := s.db.WithContext(ctx).Where("slug = ?", slug).First(&g).Error; err != nil {
		return nil, notFound(err)
	}
	return &g, nil
}

// ListGroups returns every group ordered by title.
func (s *Store) ListGroups(ctx context.Context) ([]models.Group, error) {
	var groups []models.Group
	if err := s.db.WithContext(ctx).Order("title ASC, id ASC").Find(&groups).Error; err != nil {
		return nil, fmt.Errorf("list groups: %w", err)
	}
	return groups, nil
}

// PostByID loads a post with its author and group, or returns utils.ErrNotFound.
func (s *Store) PostByID(ctx context.Context, id uint) (*models.Post, error) {
	var p models.Post
	if err := s.db.WithContext(ctx).Preload("User").Preload("Group").First(&p, id).Error; err != nil {
		return nil, notFound(err)
	}
	return &p, nil
}

func (s *Store) postQuery(ctx context.Context, f PostFilter) *gorm.DB {
	q := s.db.WithContext(ctx).Model(&models.Post{})
	if f.AuthorID != 0 {
		q = q.Where("user_id = ?", f.AuthorID)
	}
	if f.GroupID != 0 {
		q = q.Where("group_id = ?", f.GroupID)
	}
	if f.AuthorIDs != nil {
		q = q.Where("user_id IN ?", f.AuthorIDs)
	}
	return q
}

// CountPosts counts posts matching f.
func (s *Store) CountPosts(ctx context.Context, f PostFilter) (int64, error) {
	if f.AuthorIDs != nil && len(f.AuthorIDs) == 0 {
		return 0, nil
	}
	var total int64
	if err := s.postQuery(ctx, f).Count(&total).Error; err != nil {
		return 0, fmt.Errorf("count posts: %w", err)
	}
	return total, nil
}

// ListPosts returns posts matching f newest first, ties broken by id.
// limit <= 0 returns every match.
func (s *Store) ListPosts(ctx context.Context, f PostFilter, offset, limit int) ([]models.Post, error) {
	if f.AuthorIDs != nil && len(f.AuthorIDs) == 0 {
		return []models.Post{}, nil
	}
	q := s.postQuery(ctx, f).Preload("User").Preload("Group").Order("created_at DESC").Order("id DESC")
	if limit > 0 {
		q = q.Offset(offset).Limit(limit)
	}
	posts := []models.Post{}
	if err := q.Find(&posts).Error; err != nil {
		return nil, fmt.Errorf("list posts: %w", err)
	}
	return posts, nil
}

// UpdatePost persists text, group and image of p. id, author and created_at are never written.
func (s *Store) UpdatePost(ctx context.Context, p *models.Post) error {
	res := s.db.WithContext(ctx).Model(&models.Post{}).Where("id = ?", p.ID).
		Updates(map[string]interface{}{
			"text":      p.Text,
			"group_id":  p.GroupID,
			"image_ref": p.ImageRef,
		})
	if res.Error != nil {
		return fmt.Errorf("update post %d: %w", p.ID, res.Error)
	}
	return nil
}

// ListComments returns a post's comments oldest first with authors loaded.
func (s *Store) ListComments(ctx context.Context, postID uint) ([]models.Comment, error) {
	comments := []models.Comment{}
	if err := s.db.WithContext(ctx).Where("post_id = ?", postID).
		Order("created_at ASC").Order("id ASC").Find(&comments).Error; err != nil {
		return nil, fmt.Errorf("list comments: %w", err)
	}
	if len(comments) == 0 {
		return comments, nil
	}

	userIDs := make([]uint, 0, len(comments))
	for _, c := range comments {
		userIDs = append(userIDs, c.UserID)
	}
	var users []models.User
	if err := s.db.WithContext(ctx).Find(&users, utils.UniqueUint(userIDs)).Error; err != nil {
		return nil, fmt.Errorf("load comment authors: %w", err)
	}
	byID := make(map[uint]models.User, len(users))
	for _, u := range users {
		byID[u.ID] = u
	}
	for i := range comments {
		comments[i].User = byID[comments[i].UserID]
	}
	return comments, nil
}

// CountComments counts a post's comments.
func (s *Store) CountComments(ctx context.Context, postID uint) (int64, error) {
	var n int64
	if err := s.db.WithContext(ctx).Model(&models.Comment{}).Where("post_id = ?", postID).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("count comments: %w", err)
	}
	return n, nil
}

// DeleteComment removes a single comment.
func (s *Store) DeleteComment(ctx context.Context, id uint) error {
	res := s.db.WithContext(ctx).Delete(&models.Comment{}, id)
	if res.Error != nil {
		return fmt.Errorf("delete comment %d: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return utils.ErrNotFound
	}
	return nil
}

// DeletePost removes a post and its comments.
func (s *Store) DeletePost(ctx context.Context, id uint) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("post_id = ?", id).Delete(&models.Comment{}).Error; err != nil {
			return fmt.Errorf("delete comments of post %d: %w", id, err)
		}
		res := tx.Delete(&models.Post{}, id)
		if res.Error != nil {
			return fmt.Errorf("delete post %d: %w", id, res.Error)
		}
		if res.RowsAffected == 0 {
			return utils.ErrNotFound
		}
		return nil
	})
}

// DeleteGroup removes a group; its posts survive with group_id set to NULL.
func (s *Store) DeleteGroup(ctx context.Context, id uint) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Post{}).Where("group_id = ?", id).
			Update("group_id", gorm.Expr("NULL")).Error; err != nil {
			return fmt.Errorf("detach posts from group %d: %w", id, err)
		}
		res := tx.Delete(&models.Group{}, id)
		if res.Error != nil {
			return fmt.Errorf("delete group %d: %w", id, res.Error)
		}
		if res.RowsAffected == 0 {
			return utils.ErrNotFound
		}
		return nil
	})
}

// DeleteUser removes a user together with their posts, the comments on those
// posts, their own comments and every follow edge touching them.
func (s *Store) DeleteUser(ctx context.Context, id uint) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		ownPosts := tx.Model(&models.Post{}).Select("id").Where("user_id = ?", id)
		if err := tx.Where("post_id IN (?)", ownPosts).Delete(&models.Comment{}).Error; err != nil {
			return fmt.Errorf("delete comments on posts of user %d: %w", id, err)
		}
		if err := tx.Where("user_id = ?", id).Delete(&models.Comment{}).Error; err != nil {
			return fmt.Errorf("delete comments of user %d: %w", id, err)
		}
		if err := tx.Where("user_id = ?", id).Delete(&models.Post{}).Error; err != nil {
			return fmt.Errorf("delete posts of user %d: %w", id, err)
		}
		if err := tx.Where("follower_id = ? OR followed_id = ?", id, id).Delete(&models.Follow{}).Error; err != nil {
			return fmt.Errorf("delete follows of user %d: %w", id, err)
		}
		res := tx.Delete(&models.User{}, id)
		if res.Error != nil {
			return fmt.Errorf("delete user %d: %w", id, res.Error)
		}
		if res.RowsAffected == 0 {
			return utils.ErrNotFound
		}
		return nil
	})
}
