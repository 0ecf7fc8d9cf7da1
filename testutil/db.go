// Package testutil holds fixtures shared by package tests.
package testutil

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/cppla/blogfeed/config"
	"github.com/cppla/blogfeed/models"
)

// NewDB opens a private in-memory SQLite database with every model migrated.
func NewDB(t testing.TB) *gorm.DB {
	t.Helper()
	cfg := config.AppConfig{
		DBDriver:    "sqlite",
		DatabaseURI: fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString()),
		LogLevel:    "silent",
	}
	db, err := config.OpenDatabase(cfg, models.All()...)
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

// User inserts a user with the given name.
func User(t testing.TB, db *gorm.DB, username string) *models.User {
	t.Helper()
	u := &models.User{Username: username}
	require.NoError(t, db.WithContext(context.Background()).Create(u).Error)
	return u
}

// Group inserts a group with the given slug.
func Group(t testing.TB, db *gorm.DB, slug string) *models.Group {
	t.Helper()
	g := &models.Group{Title: "Group " + slug, Slug: slug, Description: "about " + slug}
	require.NoError(t, db.Create(g).Error)
	return g
}

// Post inserts a post by author, optionally in group. Each call is stamped one
// second after the previous one in the same test database so ordering is deterministic.
func Post(t testing.TB, db *gorm.DB, author *models.User, group *models.Group, text string) *models.Post {
	t.Helper()
	p := &models.Post{UserID: author.ID, Text: text, CreatedAt: nextStamp(db)}
	if group != nil {
		p.GroupID = &group.ID
	}
	require.NoError(t, db.Omit("User", "Group").Create(p).Error)
	return p
}

var base = time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

func nextStamp(db *gorm.DB) time.Time {
	var n int64
	db.Model(&models.Post{}).Count(&n)
	return base.Add(time.Duration(n) * time.Second)
}
