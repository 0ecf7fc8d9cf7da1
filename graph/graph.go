// Package graph maintains the directed follow relation between users.
package graph

import (
	"context"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/cppla/blogfeed/models"
)

// Graph is the social graph the feed composer consults. Follow and Unfollow
// are idempotent, and a user can never follow themselves.
type Graph interface {
	Follow(ctx context.Context, followerID, followedID uint) error
	Unfollow(ctx context.Context, followerID, followedID uint) error
	IsFollowing(ctx context.Context, followerID, followedID uint) (bool, error)
	FollowedAuthorIDs(ctx context.Context, followerID uint) ([]uint, error)
	FollowerCount(ctx context.Context, userID uint) (int64, error)
	FollowingCount(ctx context.Context, userID uint) (int64, error)
}

// GormGraph stores edges in the follows table.
type GormGraph struct {
	db *gorm.DB
}

// NewGormGraph returns a Graph backed by db.
func NewGormGraph(db *gorm.DB) *GormGraph {
	return &GormGraph{db: db}
}

// Follow creates the edge if absent. The unique (follower, followed) index makes
// concurrent calls collapse into a single row.
func (g *GormGraph) Follow(ctx context.Context, followerID, followedID uint) error {
	if followerID == followedID {
		return nil
	}
	err := g.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "follower_id"}, {Name: "followed_id"}},
		DoNothing: true,
	}).Create(&models.Follow{FollowerID: followerID, FollowedID: followedID}).Error
	if err != nil {
		return fmt.Errorf("follow %d->%d: %w", followerID, followedID, err)
	}
	return nil
}

// Unfollow removes the edge if present.
func (g *GormGraph) Unfollow(ctx context.Context, followerID, followedID uint) error {
	if followerID == followedID {
		return nil
	}
	err := g.db.WithContext(ctx).
		Where("follower_id = ? AND followed_id = ?", followerID, followedID).
		Delete(&models.Follow{}).Error
	if err != nil {
		return fmt.Errorf("unfollow %d->%d: %w", followerID, followedID, err)
	}
	return nil
}

// IsFollowing reports whether the edge exists.
func (g *GormGraph) IsFollowing(ctx context.Context, followerID, followedID uint) (bool, error) {
	if followerID == 0 || followerID == followedID {
		return false, nil
	}
	var n int64
	err := g.db.WithContext(ctx).Model(&models.Follow{}).
		Where("follower_id = ? AND followed_id = ?", followerID, followedID).
		Count(&n).Error
	if err != nil {
		return false, fmt.Errorf("is following %d->%d: %w", followerID, followedID, err)
	}
	return n > 0, nil
}

// FollowedAuthorIDs returns the distinct ids followerID follows, ascending.
func (g *GormGraph) FollowedAuthorIDs(ctx context.Context, followerID uint) ([]uint, error) {
	ids := []uint{}
	err := g.db.WithContext(ctx).Model(&models.Follow{}).
		Where("follower_id = ?", followerID).
		Distinct().Order("followed_id ASC").
		Pluck("followed_id", &ids).Error
	if err != nil {
		return nil, fmt.Errorf("followed authors of %d: %w", followerID, err)
	}
	return ids, nil
}

// FollowerCount counts users following userID.
func (g *GormGraph) FollowerCount(ctx context.Context, userID uint) (int64, error) {
	var n int64
	if err := g.db.WithContext(ctx).Model(&models.Follow{}).Where("followed_id = ?", userID).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("follower count of %d: %w", userID, err)
	}
	return n, nil
}

// FollowingCount counts users userID follows.
func (g *GormGraph) FollowingCount(ctx context.Context, userID uint) (int64, error) {
	var n int64
	if err := g.db.WithContext(ctx).Model(&models.Follow{}).Where("follower_id = ?", userID).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("following count of %d: %w", userID, err)
	}
	return n, nil
}
