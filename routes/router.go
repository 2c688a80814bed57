package routes

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/cppla/aiblog/config"
	"github.com/cppla/aiblog/controllers"
	"github.com/cppla/aiblog/middleware"
	"github.com/cppla/aiblog/services"
	"github.com/cppla/aiblog/stores"
	"github.com/cppla/aiblog/utils"
)

// SetupRouter wires routes, middlewares, and controllers.
func SetupRouter(db *gorm.DB) *gin.Engine {
	cfg := config.Get()
	switch strings.ToLower(cfg.GinMode) {
	case "debug":
		gin.SetMode(gin.DebugMode)
	case "test":
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	// Replace default console logger with file-based zap logger
	gl, err := utils.NewRollingFileLogger(cfg.GinPath, cfg)
	if err == nil {
		r.Use(utils.Ginzap(gl, time.RFC3339, true))
		r.Use(utils.RecoveryWithZap(gl, false))
	} else {
		utils.Sugar.Warnf("gin log unavailable, using default recovery: %v", err)
		r.Use(gin.Recovery())
	}

	corsCfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(cfg.AllowedOrigins) == 1 && cfg.AllowedOrigins[0] == "*" {
		corsCfg.AllowAllOrigins = true
		corsCfg.AllowCredentials = false
	} else {
		corsCfg.AllowOrigins = cfg.AllowedOrigins
	}
	r.Use(cors.New(corsCfg))

	RegisterRoutes(r, db, cfg)

	r.NoRoute(func(ctx *gin.Context) {
		utils.Error(ctx, http.StatusNotFound, 40400, "route not found")
	})
	return r
}

// RegisterRoutes mounts /health and the /api/v1 endpoints on r.
func RegisterRoutes(r *gin.Engine, db *gorm.DB, cfg config.AppConfig) {
	userStore := stores.NewUserStore(db)
	articleStore := stores.NewArticleStore(db)
	commentStore := stores.NewCommentStore(db)

	authController := controllers.NewAuthController(userStore)
	userController := controllers.NewUserController(userStore)
	articleController := controllers.NewArticleController(articleStore)
	commentController := controllers.NewCommentController(services.NewCommentService(commentStore, articleStore))
	statsController := controllers.NewStatsController(db)

	limiter := middleware.NewRateLimiter(cfg.RateLimitPerMinute)
	limit := middleware.RateLimitMiddleware(limiter)

	r.GET("/health", func(ctx *gin.Context) {
		utils.Success(ctx, gin.H{"status": "ok"})
	})

	api := r.Group("/api/v1")
	api.Use(middleware.Authenticate(userStore))

	authGroup := api.Group("/auth")
	authGroup.Use(limit)
	authGroup.POST("/register", authController.Register)
	authGroup.POST("/login", authController.Login)
	authGroup.POST("/logout", middleware.AuthRequired(), authController.Logout)
	authGroup.GET("/me", middleware.AuthRequired(), authController.Me)
	authGroup.PATCH("/profile", middleware.AuthRequired(), authController.UpdateProfile)

	// Reads are public; writes are rate limited and decided by the policies.
	articles := api.Group("/articles")
	articles.GET("", articleController.ListArticles)
	articles.GET("/:id", articleController.GetArticle)
	articles.GET("/:id/comments", commentController.ListArticleComments)
	articles.GET("/:id/stats", statsController.GetArticleStats)
	articles.POST("", limit, articleController.CreateArticle)
	articles.PUT("/:id", limit, articleController.UpdateArticle)
	articles.PATCH("/:id", limit, articleController.UpdateArticle)
	articles.DELETE("/:id", limit, articleController.DeleteArticle)
	articles.POST("/:id/comments", limit, commentController.CreateArticleComment)

	comments := api.Group("/comments")
	comments.GET("", commentController.ListComments)
	comments.GET("/:id", commentController.GetComment)
	comments.POST("", limit, commentController.CreateComment)
	comments.PUT("/:id", limit, commentController.UpdateComment)
	comments.PATCH("/:id", limit, commentController.UpdateComment)
	comments.DELETE("/:id", limit, commentController.DeleteComment)

	api.GET("/stats", statsController.GetStats)

	users := api.Group("/users")
	users.Use(middleware.SuperuserRequired())
	users.GET("", userController.ListUsers)
	users.GET("/:id", userController.GetUser)
	users.DELETE("/:id", userController.DeleteUser)
	users.PUT("/:id/groups", userController.SetGroups)
}
