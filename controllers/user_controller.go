package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/cppla/aiblog/middleware"
	"github.com/cppla/aiblog/stores"
	"github.com/cppla/aiblog/utils"
)

// UserController is the superuser-only account administration.
type UserController struct {
	users stores.UserStore
}

// NewUserController creates a new UserController instance.
func NewUserController(users stores.UserStore) *UserController {
	return &UserController{users: users}
}

// ListUsers returns paginated users with their groups.
func (u *UserController) ListUsers(ctx *gin.Context) {
	page, pageSize := utils.ParsePagination(ctx.Query("page"), ctx.Query("page_size"), 10)
	users, total, err := u.users.List(ctx.Request.Context(), page, pageSize)
	if err != nil {
		utils.Logger.Error("list users failed", zap.Error(err))
		utils.Error(ctx, http.StatusInternalServerError, 50000, "failed to retrieve users")
		return
	}
	items := make([]UserView, 0, len(users))
	for i := range users {
		items = append(items, newUserView(&users[i]))
	}
	utils.Success(ctx, gin.H{
		"items": items,
		"pagination": gin.H{
			"page":        page,
			"page_size":   pageSize,
			"total":       total,
			"total_pages": int((total + int64(pageSize) - 1) / int64(pageSize)),
		},
	})
}

// GetUser returns one account.
func (u *UserController) GetUser(ctx *gin.Context) {
	id, ok := pathID(ctx)
	if !ok {
		return
	}
	user, err := u.users.GetByID(ctx.Request.Context(), id)
	if err != nil {
		u.storeError(ctx, err)
		return
	}
	utils.Success(ctx, newUserView(user))
}

// DeleteUser removes an account and its articles. Its comments stay and
// are shown as written by a deleted user.
func (u *UserController) DeleteUser(ctx *gin.Context) {
	id, ok := pathID(ctx)
	if !ok {
		return
	}
	if id == middleware.CallerFrom(ctx).UserID {
		utils.Error(ctx, http.StatusBadRequest, 40040, "cannot delete your own account")
		return
	}
	if err := u.users.Delete(ctx.Request.Context(), id); err != nil {
		u.storeError(ctx, err)
		return
	}
	utils.Logger.Info("user deleted", zap.Uint("user_id", id), zap.Uint("by", middleware.CallerFrom(ctx).UserID))
	utils.InvalidateByPrefix(ctx.Request.Context(), utils.CacheCommentsPrefix)
	utils.InvalidateByPrefix(ctx.Request.Context(), utils.CacheArticlesPrefix)
	ctx.Status(http.StatusNoContent)
}

// SetGroups replaces the groups of an account.
func (u *UserController) SetGroups(ctx *gin.Context) {
	id, ok := pathID(ctx)
	if !ok {
		return
	}
	var req struct {
		Groups []string `json:"groups"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil || req.Groups == nil {
		utils.Error(ctx, http.StatusBadRequest, 40041, "invalid request payload")
		return
	}
	user, err := u.users.SetGroups(ctx.Request.Context(), id, req.Groups)
	if err != nil {
		u.storeError(ctx, err)
		return
	}
	utils.Logger.Info("user groups changed", zap.Uint("user_id", id), zap.Strings("groups", user.GroupNames()))
	utils.Success(ctx, newUserView(user))
}

func (u *UserController) storeError(ctx *gin.Context, err error) {
	switch {
	case errors.Is(err, stores.ErrNotFound):
		utils.Error(ctx, http.StatusNotFound, 40401, "user not found")
	case errors.Is(err, stores.ErrUnknownGroup):
		utils.FieldErrors(ctx, http.StatusBadRequest, 40031, map[string]string{"groups": "Unknown group."})
	default:
		utils.Logger.Error("user store failed", zap.String("path", ctx.FullPath()), zap.Error(err))
		utils.Error(ctx, http.StatusInternalServerError, 50001, "internal server error")
	}
}
