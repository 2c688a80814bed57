package controllers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/cppla/aiblog/middleware"
	"github.com/cppla/aiblog/services"
	"github.com/cppla/aiblog/stores"
	"github.com/cppla/aiblog/utils"
)

// CommentController serves the comment endpoints.
type CommentController struct {
	svc *services.CommentService
}

// NewCommentController creates a new CommentController instance.
func NewCommentController(svc *services.CommentService) *CommentController {
	return &CommentController{svc: svc}
}

type createCommentRequest struct {
	Content string      `json:"content"`
	Article interface{} `json:"article"`
	ReplyTo interface{} `json:"reply_to"`
}

func (r createCommentRequest) input() services.CreateCommentInput {
	return services.CreateCommentInput{Content: r.Content, Article: r.Article, ReplyTo: r.ReplyTo}
}

// ListComments returns every comment as reply trees, optionally for one article.
func (c *CommentController) ListComments(ctx *gin.Context) {
	filter := stores.CommentFilter{}
	key := utils.CacheCommentsPrefix + "tree:all"
	if raw := ctx.Query("article"); raw != "" {
		id, ok := utils.TryParseUint(raw)
		if !ok {
			utils.FieldErrors(ctx, http.StatusBadRequest, 40031, map[string]string{"article": "Select a valid choice."})
			return
		}
		filter.ArticleID = &id
		key = fmt.Sprintf("%stree:article=%d", utils.CacheCommentsPrefix, id)
	}
	if replayCached(ctx, key) {
		return
	}

	tree, err := c.svc.Tree(ctx.Request.Context(), middleware.CallerFrom(ctx), filter)
	if err != nil {
		writeError(ctx, err)
		return
	}
	successAndCache(ctx, key, tree)
}

// ListArticleComments returns the flat comment list of one article, newest first.
func (c *CommentController) ListArticleComments(ctx *gin.Context) {
	articleID, ok := pathID(ctx)
	if !ok {
		return
	}
	key := fmt.Sprintf("%sflat:article=%d", utils.CacheCommentsPrefix, articleID)
	if replayCached(ctx, key) {
		return
	}

	comments, err := c.svc.ListForArticle(ctx.Request.Context(), middleware.CallerFrom(ctx), articleID)
	if err != nil {
		writeError(ctx, err)
		return
	}
	successAndCache(ctx, key, comments)
}

// GetComment returns a single comment.
func (c *CommentController) GetComment(ctx *gin.Context) {
	id, ok := pathID(ctx)
	if !ok {
		return
	}
	comment, err := c.svc.Get(ctx.Request.Context(), middleware.CallerFrom(ctx), id)
	if err != nil {
		writeError(ctx, err)
		return
	}
	utils.Success(ctx, comment)
}

// CreateComment stores a comment on the article named in the body.
func (c *CommentController) CreateComment(ctx *gin.Context) {
	var req createCommentRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40020, "invalid request payload")
		return
	}
	comment, err := c.svc.Create(ctx.Request.Context(), middleware.CallerFrom(ctx), req.input())
	if err != nil {
		writeError(ctx, err)
		return
	}
	utils.InvalidateByPrefix(ctx.Request.Context(), utils.CacheCommentsPrefix)
	utils.Created(ctx, comment)
}

// CreateArticleComment stores a comment on the article in the path.
func (c *CommentController) CreateArticleComment(ctx *gin.Context) {
	articleID, ok := pathID(ctx)
	if !ok {
		return
	}
	var req createCommentRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40020, "invalid request payload")
		return
	}
	comment, err := c.svc.CreateOnArticle(ctx.Request.Context(), middleware.CallerFrom(ctx), articleID, req.input())
	if err != nil {
		writeError(ctx, err)
		return
	}
	utils.InvalidateByPrefix(ctx.Request.Context(), utils.CacheCommentsPrefix)
	utils.Created(ctx, comment)
}

// UpdateComment edits the content of a comment. PUT requires content,
// PATCH may omit it.
func (c *CommentController) UpdateComment(ctx *gin.Context) {
	id, ok := pathID(ctx)
	if !ok {
		return
	}
	var req struct {
		Content *string `json:"content"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40020, "invalid request payload")
		return
	}
	if req.Content == nil && ctx.Request.Method == http.MethodPut {
		utils.FieldErrors(ctx, http.StatusBadRequest, 40031, map[string]string{"content": "This field is required."})
		return
	}

	comment, err := c.svc.Update(ctx.Request.Context(), middleware.CallerFrom(ctx), id, req.Content)
	if err != nil {
		writeError(ctx, err)
		return
	}
	utils.InvalidateByPrefix(ctx.Request.Context(), utils.CacheCommentsPrefix)
	utils.Success(ctx, comment)
}

// DeleteComment removes a comment and its replies.
func (c *CommentController) DeleteComment(ctx *gin.Context) {
	id, ok := pathID(ctx)
	if !ok {
		return
	}
	if err := c.svc.Delete(ctx.Request.Context(), middleware.CallerFrom(ctx), id); err != nil {
		writeError(ctx, err)
		return
	}
	utils.InvalidateByPrefix(ctx.Request.Context(), utils.CacheCommentsPrefix)
	ctx.Status(http.StatusNoContent)
}
