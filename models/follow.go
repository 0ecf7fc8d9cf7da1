package models

import "time"

// Follow is a directed edge: FollowerID receives FollowedID's posts in the follow feed.
// The pair is unique so concurrent follow requests cannot duplicate an edge.
type Follow struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	FollowerID uint      `gorm:"not null;uniqueIndex:idx_follow_pair,priority:1" json:"follower_id"`
	FollowedID uint      `gorm:"not null;uniqueIndex:idx_follow_pair,priority:2;index" json:"followed_id"`
	CreatedAt  time.Time `json:"created_at"`
}
