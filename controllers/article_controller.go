package controllers

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/cppla/aiblog/config"
	"github.com/cppla/aiblog/middleware"
	"github.com/cppla/aiblog/models"
	"github.com/cppla/aiblog/policy"
	"github.com/cppla/aiblog/stores"
	"github.com/cppla/aiblog/utils"
)

const maxTitleLength = 100

// ArticleController manages articles. Writes go through policy.ArticlePolicy.
type ArticleController struct {
	articles stores.ArticleStore
	policy   policy.Policy
}

// NewArticleController creates a new ArticleController instance.
func NewArticleController(articles stores.ArticleStore) *ArticleController {
	return &ArticleController{articles: articles, policy: policy.ArticlePolicy{}}
}

// ArticleView is the API representation of an article.
type ArticleView struct {
	ID               uint      `json:"id"`
	Author           string    `json:"author"`
	AuthorProfilePic *string   `json:"author_profile_pic"`
	Title            string    `json:"title"`
	Content          string    `json:"content"`
	ContentHTML      string    `json:"content_html"`
	Tags             []string  `json:"tags"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

func newArticleView(a *models.Article) ArticleView {
	v := ArticleView{
		ID:          a.ID,
		Author:      a.Author.Username,
		Title:       a.Title,
		Content:     a.Content,
		ContentHTML: utils.RenderMarkdown(a.Content),
		Tags:        a.TagNames(),
		CreatedAt:   a.CreatedAt,
		UpdatedAt:   a.UpdatedAt,
	}
	if a.Author.ProfilePic != "" {
		pic := a.Author.ProfilePic
		v.AuthorProfilePic = &pic
	}
	return v
}

type articleRequest struct {
	Title   *string  `json:"title"`
	Content *string  `json:"content"`
	Tags    []string `json:"tags"`
}

// allowed derives the action from the request verb and applies the policy.
func (c *ArticleController) allowed(ctx *gin.Context) bool {
	action := policy.ActionFromMethod(ctx.Request.Method, ctx.Param("id") != "")
	if !c.policy.Decide(middleware.CallerFrom(ctx), action, nil) {
		deny(ctx)
		return false
	}
	return true
}

// ListArticles returns a page of articles, newest first.
func (c *ArticleController) ListArticles(ctx *gin.Context) {
	if !c.allowed(ctx) {
		return
	}
	page, pageSize := utils.ParsePagination(ctx.Query("page"), ctx.Query("page_size"), config.Get().ArticlePageSize)
	search := strings.TrimSpace(ctx.Query("search"))
	tag := strings.TrimSpace(ctx.Query("tag"))

	// searches are not cached to keep the key space small
	key := fmt.Sprintf("%slist:tag=%s:page=%d:size=%d", utils.CacheArticlesPrefix, tag, page, pageSize)
	if search == "" && replayCached(ctx, key) {
		return
	}

	articles, total, err := c.articles.List(ctx.Request.Context(), stores.ArticleFilter{
		Search: search, Tag: tag, Page: page, PageSize: pageSize,
	})
	if err != nil {
		utils.Logger.Error("list articles failed", zap.Error(err))
		utils.Error(ctx, http.StatusInternalServerError, 50010, "failed to list articles")
		return
	}

	items := make([]ArticleView, 0, len(articles))
	for i := range articles {
		items = append(items, newArticleView(&articles[i]))
	}
	payload := gin.H{
		"items": items,
		"pagination": gin.H{
			"page":        page,
			"page_size":   pageSize,
			"total":       total,
			"total_pages": int((total + int64(pageSize) - 1) / int64(pageSize)),
		},
	}
	if search != "" {
		utils.Success(ctx, payload)
		return
	}
	successAndCache(ctx, key, payload)
}

// GetArticle returns a single article.
func (c *ArticleController) GetArticle(ctx *gin.Context) {
	if !c.allowed(ctx) {
		return
	}
	id, ok := pathID(ctx)
	if !ok {
		return
	}
	key := fmt.Sprintf("%sdetail:%d", utils.CacheArticlesPrefix, id)
	if replayCached(ctx, key) {
		return
	}
	a, err := c.articles.Get(ctx.Request.Context(), id)
	if err != nil {
		c.storeError(ctx, err)
		return
	}
	successAndCache(ctx, key, newArticleView(a))
}

// CreateArticle stores an article written by the caller.
func (c *ArticleController) CreateArticle(ctx *gin.Context) {
	if !c.allowed(ctx) {
		return
	}
	var req articleRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40020, "invalid request payload")
		return
	}

	a := &models.Article{AuthorID: middleware.CallerFrom(ctx).UserID}
	if fields := applyArticleFields(a, req, true); len(fields) > 0 {
		utils.FieldErrors(ctx, http.StatusBadRequest, 40031, fields)
		return
	}
	if err := c.articles.Create(ctx.Request.Context(), a, req.Tags); err != nil {
		c.storeError(ctx, err)
		return
	}
	c.invalidate(ctx)
	utils.Created(ctx, newArticleView(a))
}

// UpdateArticle edits an article. PUT requires title and content, PATCH
// changes only the fields present. Omitted tags are kept.
func (c *ArticleController) UpdateArticle(ctx *gin.Context) {
	if !c.allowed(ctx) {
		return
	}
	id, ok := pathID(ctx)
	if !ok {
		return
	}
	var req articleRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40020, "invalid request payload")
		return
	}

	a, err := c.articles.Get(ctx.Request.Context(), id)
	if err != nil {
		c.storeError(ctx, err)
		return
	}
	if fields := applyArticleFields(a, req, ctx.Request.Method == http.MethodPut); len(fields) > 0 {
		utils.FieldErrors(ctx, http.StatusBadRequest, 40031, fields)
		return
	}
	if err := c.articles.Update(ctx.Request.Context(), a, req.Tags); err != nil {
		c.storeError(ctx, err)
		return
	}
	c.invalidate(ctx)
	utils.Success(ctx, newArticleView(a))
}

// DeleteArticle removes an article and all of its comments.
func (c *ArticleController) DeleteArticle(ctx *gin.Context) {
	if !c.allowed(ctx) {
		return
	}
	id, ok := pathID(ctx)
	if !ok {
		return
	}
	if err := c.articles.Delete(ctx.Request.Context(), id); err != nil {
		c.storeError(ctx, err)
		return
	}
	c.invalidate(ctx)
	utils.InvalidateByPrefix(ctx.Request.Context(), utils.CacheCommentsPrefix)
	ctx.Status(http.StatusNoContent)
}

func (c *ArticleController) invalidate(ctx *gin.Context) {
	utils.InvalidateByPrefix(ctx.Request.Context(), utils.CacheArticlesPrefix)
}

func (c *ArticleController) storeError(ctx *gin.Context, err error) {
	switch {
	case errors.Is(err, stores.ErrNotFound):
		utils.Error(ctx, http.StatusNotFound, 40401, "not found")
	case errors.Is(err, stores.ErrTitleTaken):
		utils.FieldErrors(ctx, http.StatusBadRequest, 40031, map[string]string{"title": err.Error() + "."})
	default:
		utils.Logger.Error("article store failed", zap.String("path", ctx.FullPath()), zap.Error(err))
		utils.Error(ctx, http.StatusInternalServerError, 50011, "internal server error")
	}
}

// applyArticleFields copies the request onto a. required demands every field.
func applyArticleFields(a *models.Article, req articleRequest, required bool) map[string]string {
	fields := map[string]string{}
	if req.Title != nil {
		title := utils.Sanitize(strings.TrimSpace(*req.Title))
		switch {
		case title == "":
			fields["title"] = "This field may not be blank."
		case utf8.RuneCountInString(title) > maxTitleLength:
			fields["title"] = fmt.Sprintf("Ensure this field has no more than %d characters.", maxTitleLength)
		default:
			a.Title = title
		}
	} else if required {
		fields["title"] = "This field is required."
	}

	if req.Content != nil {
		content := utils.Sanitize(*req.Content)
		if strings.TrimSpace(content) == "" {
			fields["content"] = "This field may not be blank."
		} else {
			a.Content = content
		}
	} else if required {
		fields["content"] = "This field is required."
	}
	return fields
}
