package middleware

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/cppla/blogfeed/models"
	"github.com/cppla/blogfeed/utils"
)

// PageViewRecorder counts successful GET reads of feeds, posts and profiles per day and path.
func PageViewRecorder(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Request.Method != http.MethodGet {
			return
		}
		status := c.Writer.Status()
		if status < 200 || status >= 300 {
			return
		}
		path := c.Request.URL.Path
		if !countedPath(path) {
			return
		}

		now := time.Now().In(time.Local)
		day := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		err := db.WithContext(ctx).Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "date"}, {Name: "path"}},
			DoUpdates: clause.Assignments(map[string]interface{}{"count": gorm.Expr("count + 1"), "updated_at": time.Now()}),
		}).Create(&models.PageView{Date: day, Path: path, Count: 1}).Error
		if err != nil {
			utils.Sugar.Warnf("record page view %s: %v", path, err)
		}
	}
}

func countedPath(path string) bool {
	for _, prefix := range []string{"/api/v1/posts", "/api/v1/groups/", "/api/v1/profile/", "/api/v1/follow", "/about/"} {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}
