package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/cppla/aiblog/models"
	"github.com/cppla/aiblog/utils"
)

// StatsController provides blog statistics such as counts per model.
type StatsController struct {
	db *gorm.DB
}

// NewStatsController creates a new StatsController instance.
func NewStatsController(db *gorm.DB) *StatsController {
	return &StatsController{db: db}
}

// GetStats returns aggregate counts for the blog.
func (s *StatsController) GetStats(ctx *gin.Context) {
	db := s.db.WithContext(ctx.Request.Context())
	var userCount, articleCount, commentCount, tagCount int64

	// a failed count reports 0 instead of failing the whole endpoint
	if err := db.Model(&models.User{}).Count(&userCount).Error; err != nil {
		userCount = 0
	}
	if err := db.Model(&models.Article{}).Count(&articleCount).Error; err != nil {
		articleCount = 0
	}
	if err := db.Model(&models.Comment{}).Count(&commentCount).Error; err != nil {
		commentCount = 0
	}
	if err := db.Model(&models.Tag{}).Count(&tagCount).Error; err != nil {
		tagCount = 0
	}

	utils.Success(ctx, gin.H{
		"user_count":    userCount,
		"article_count": articleCount,
		"comment_count": commentCount,
		"tag_count":     tagCount,
	})
}

// GetArticleStats returns comment counts for one article.
func (s *StatsController) GetArticleStats(ctx *gin.Context) {
	id, ok := pathID(ctx)
	if !ok {
		return
	}
	db := s.db.WithContext(ctx.Request.Context())

	var exists int64
	if err := db.Model(&models.Article{}).Where("id = ?", id).Count(&exists).Error; err != nil || exists == 0 {
		utils.Error(ctx, http.StatusNotFound, 40401, "not found")
		return
	}

	var comments, roots int64
	if err := db.Model(&models.Comment{}).Where("article_id = ?", id).Count(&comments).Error; err != nil {
		comments = 0
	}
	if err := db.Model(&models.Comment{}).Where("article_id = ? AND reply_to_id IS NULL", id).Count(&roots).Error; err != nil {
		roots = 0
	}

	utils.Success(ctx, gin.H{
		"article_id":     id,
		"comments_count": comments,
		"threads_count":  roots,
	})
}
