package controllers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/cppla/aiblog/middleware"
	"github.com/cppla/aiblog/services"
	"github.com/cppla/aiblog/utils"
)

// cachedResponse mirrors utils.JSONResponse so cached bytes can be replayed verbatim.
type cachedResponse struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data"`
}

func successAndCache(ctx *gin.Context, key string, payload interface{}) {
	utils.CacheSetJSON(ctx.Request.Context(), key, cachedResponse{Code: 0, Message: "success", Data: payload}, 0)
	utils.Success(ctx, payload)
}

func replayCached(ctx *gin.Context, key string) bool {
	b, ok := utils.CacheGetBytes(ctx.Request.Context(), key)
	if !ok {
		return false
	}
	ctx.Data(http.StatusOK, "application/json; charset=utf-8", b)
	return true
}

// pathID parses the :id route parameter, answering 404 when it is not an id.
func pathID(ctx *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(ctx.Param("id"), 10, 64)
	if err != nil || id == 0 {
		utils.Error(ctx, http.StatusNotFound, 40401, "not found")
		return 0, false
	}
	return uint(id), true
}

// writeError maps service errors onto the response envelope.
func writeError(ctx *gin.Context, err error) {
	var integrity *services.ReplyIntegrityError
	var invalid *services.ValidationError
	switch {
	case errors.As(err, &integrity):
		utils.Sugar.Debugw("reply rejected", "path", ctx.FullPath(), "reason", integrity.Reason)
		utils.Reject(ctx, http.StatusBadRequest, 40030, integrity.Reason)
	case errors.As(err, &invalid):
		utils.Sugar.Debugw("validation failed", "path", ctx.FullPath(), "fields", invalid.Fields)
		utils.FieldErrors(ctx, http.StatusBadRequest, 40031, invalid.Fields)
	case errors.Is(err, services.ErrForbidden):
		deny(ctx)
	case errors.Is(err, services.ErrNotFound):
		utils.Error(ctx, http.StatusNotFound, 40401, "not found")
	default:
		utils.Logger.Error("request failed", zap.String("path", ctx.FullPath()), zap.Error(err))
		utils.Error(ctx, http.StatusInternalServerError, 50000, "internal server error")
	}
}

// deny answers a policy denial: anonymous callers are asked to authenticate.
func deny(ctx *gin.Context) {
	caller := middleware.CallerFrom(ctx)
	utils.Sugar.Debugw("authorization denied", "path", ctx.FullPath(), "method", ctx.Request.Method, "user_id", caller.UserID)
	if !caller.Authenticated {
		utils.Error(ctx, http.StatusUnauthorized, 40101, "authentication credentials were not provided")
		return
	}
	utils.Error(ctx, http.StatusForbidden, 40301, services.ErrForbidden.Error())
}
