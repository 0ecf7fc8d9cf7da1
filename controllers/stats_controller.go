package controllers

import (
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/cppla/blogfeed/models"
	"github.com/cppla/blogfeed/utils"
)

// StatsController reports site-wide counts and today's page views.
type StatsController struct {
	db *gorm.DB
}

// NewStatsController creates a new StatsController instance.
func NewStatsController(db *gorm.DB) *StatsController {
	return &StatsController{db: db}
}

func (s *StatsController) count(ctx *gin.Context, model interface{}) int64 {
	var n int64
	if err := s.db.WithContext(ctx.Request.Context()).Model(model).Count(&n).Error; err != nil {
		utils.Sugar.Warnf("stats count %T: %v", model, err)
		return 0
	}
	return n
}

// GetStats returns aggregate counts. A failing count reports 0 rather than failing the endpoint.
func (s *StatsController) GetStats(ctx *gin.Context) {
	// DATE columns compare cleanly against the formatted day on every driver
	today := time.Now().In(time.Local).Format("2006-01-02")
	var views int64
	if err := s.db.WithContext(ctx.Request.Context()).Model(&models.PageView{}).
		Where("date = ?", today).
		Select("COALESCE(SUM(count),0)").
		Scan(&views).Error; err != nil {
		views = 0
	}

	var top []struct {
		Path  string `json:"path"`
		Count int64  `json:"count"`
	}
	if err := s.db.WithContext(ctx.Request.Context()).Model(&models.PageView{}).
		Select("path, count").
		Where("date = ?", today).
		Order("count DESC").Limit(5).
		Scan(&top).Error; err != nil {
		top = nil
	}

	utils.Success(ctx, gin.H{
		"user_count":    s.count(ctx, &models.User{}),
		"group_count":   s.count(ctx, &models.Group{}),
		"post_count":    s.count(ctx, &models.Post{}),
		"comment_count": s.count(ctx, &models.Comment{}),
		"follow_count":  s.count(ctx, &models.Follow{}),
		"today_views":   views,
		"top_paths":     top,
	})
}
