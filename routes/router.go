package routes

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/cppla/blogfeed/config"
	"github.com/cppla/blogfeed/controllers"
	"github.com/cppla/blogfeed/feed"
	"github.com/cppla/blogfeed/graph"
	"github.com/cppla/blogfeed/middleware"
	"github.com/cppla/blogfeed/services"
	"github.com/cppla/blogfeed/store"
	"github.com/cppla/blogfeed/utils"
)

// Deps are the process-wide collaborators the handlers share.
type Deps struct {
	DB    *gorm.DB
	Graph graph.Graph
	Cache utils.ResponseCache
	Blobs *utils.BlobStore
}

func ginMode(mode string) string {
	switch strings.ToLower(mode) {
	case "debug":
		return gin.DebugMode
	case "test":
		return gin.TestMode
	default:
		return gin.ReleaseMode
	}
}

// SetupRouter wires routes, middlewares, and controllers.
func SetupRouter(deps Deps) *gin.Engine {
	cfg := config.Get()
	gin.SetMode(ginMode(cfg.GinMode))

	r := gin.New()
	if gin.Mode() == gin.TestMode {
		r.Use(utils.RecoveryWithZap(utils.Logger, false))
	} else if gl, err := utils.NewRollingFileLogger(cfg.GinPath, cfg.LogLevel, cfg.LogMaxSizeMB, cfg.LogMaxBackups, cfg.LogMaxAgeDays, cfg.LogCompress); err == nil {
		r.Use(utils.Ginzap(gl, time.RFC3339, true))
		r.Use(utils.RecoveryWithZap(gl, false))
	} else {
		utils.Sugar.Warnf("gin logger unavailable, using default recovery: %v", err)
		r.Use(gin.Recovery())
	}

	corsCfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(cfg.AllowedOrigins) == 0 || (len(cfg.AllowedOrigins) == 1 && cfg.AllowedOrigins[0] == "*") {
		corsCfg.AllowAllOrigins = true
		corsCfg.AllowCredentials = false
	} else {
		corsCfg.AllowOrigins = cfg.AllowedOrigins
	}
	r.Use(cors.New(corsCfg))
	r.Use(middleware.Identity())
	r.Use(middleware.PageViewRecorder(deps.DB))

	r.GET("/health", func(ctx *gin.Context) {
		utils.Success(ctx, gin.H{"status": "ok"})
	})

	s := store.New(deps.DB)
	composer := feed.NewComposer(s, deps.Graph, cfg.PostsPerPage)
	postService := services.NewPostService(s, deps.Blobs)
	commentService := services.NewCommentService(s)

	authController := controllers.NewAuthController(s)
	feedController := controllers.NewFeedController(composer, deps.Cache, time.Duration(cfg.FeedCacheTTLSeconds)*time.Second)
	postController := controllers.NewPostController(s, postService, commentService, deps.Blobs)
	followController := controllers.NewFollowController(s, deps.Graph)
	groupController := controllers.NewGroupController(s)
	adminController := controllers.NewAdminController(s, deps.Graph, deps.Cache)
	statsController := controllers.NewStatsController(deps.DB)
	aboutController := controllers.NewAboutController()

	r.GET("/media/*ref", postController.Media)
	r.GET("/about/author", aboutController.Author)
	r.GET("/about/tech", aboutController.Tech)

	api := r.Group("/api/v1")
	limit := middleware.RateLimit(cfg.RateLimitPerMinute)

	authGroup := api.Group("/auth")
	authGroup.Use(limit)
	authGroup.GET("/login", authController.LoginInfo)
	authGroup.POST("/register", authController.Register)
	authGroup.POST("/login", authController.Login)
	authGroup.POST("/logout", middleware.AuthRequired(), authController.Logout)
	authGroup.GET("/me", middleware.AuthRequired(), authController.Me)

	api.GET("/posts", feedController.Index)
	api.GET("/posts/:id", postController.GetPost)
	api.GET("/groups", groupController.ListGroups)
	api.GET("/groups/:slug/posts", feedController.Group)
	api.GET("/profile/:username", feedController.Profile)
	api.GET("/stats", statsController.GetStats)

	protected := api.Group("")
	protected.Use(middleware.AuthRequired(), limit)
	protected.GET("/follow", feedController.Follow)
	protected.POST("/posts", postController.CreatePost)
	protected.PUT("/posts/:id", postController.UpdatePost)
	protected.DELETE("/posts/:id", postController.DeletePost)
	protected.POST("/posts/:id/comments", postController.CreateComment)
	protected.POST("/profile/:username/follow", followController.Follow)
	protected.POST("/profile/:username/unfollow", followController.Unfollow)
	protected.POST("/upload", postController.UploadImage)

	admin := protected.Group("")
	admin.Use(middleware.AdminRequired())
	admin.POST("/groups", groupController.CreateGroup)
	admin.DELETE("/groups/:slug", adminController.DeleteGroup)
	admin.DELETE("/admin/cache", adminController.InvalidateCache)
	admin.DELETE("/admin/users/:username", adminController.DeleteUser)
	admin.DELETE("/admin/comments/:id", adminController.DeleteComment)

	r.NoRoute(func(ctx *gin.Context) {
		if strings.HasPrefix(ctx.Request.URL.Path, "/api/") {
			utils.Error(ctx, http.StatusNotFound, 40400, "api route not found")
			return
		}
		utils.Error(ctx, http.StatusNotFound, 40400, "not found")
	})

	return r
}
