package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/cppla/aiblog/models"
	"github.com/cppla/aiblog/policy"
	"github.com/cppla/aiblog/utils"
)

const (
	// ContextCallerKey stores the policy.Caller of the request.
	ContextCallerKey = "caller"
	// ContextClaimsKey stores the parsed JWT claims of an authenticated request.
	ContextClaimsKey = "claims"
)

// UserLoader loads the account behind a token.
type UserLoader interface {
	GetByID(ctx context.Context, id uint) (*models.User, error)
}

// Authenticate resolves the caller from an optional bearer token. Requests
// without a token continue as anonymous; a bad or revoked token is rejected.
func Authenticate(users UserLoader) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		authHeader := ctx.GetHeader("Authorization")
		if authHeader == "" {
			ctx.Set(ContextCallerKey, policy.Caller{})
			ctx.Next()
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			utils.Error(ctx, http.StatusUnauthorized, 40102, "invalid authorization header format")
			ctx.Abort()
			return
		}

		tokenString := strings.TrimSpace(parts[1])
		if tokenString == "" {
			utils.Error(ctx, http.StatusUnauthorized, 40103, "empty bearer token")
			ctx.Abort()
			return
		}

		claims, err := utils.ParseToken(tokenString)
		if err != nil {
			utils.Error(ctx, http.StatusUnauthorized, 40105, "invalid token")
			ctx.Abort()
			return
		}

		if utils.IsTokenBlacklisted(claims.ID) {
			utils.Error(ctx, http.StatusUnauthorized, 40104, "token revoked")
			ctx.Abort()
			return
		}

		user, err := users.GetByID(ctx.Request.Context(), claims.UserID)
		if err != nil {
			utils.Error(ctx, http.StatusUnauthorized, 40106, "user no longer exists")
			ctx.Abort()
			return
		}

		ctx.Set(ContextClaimsKey, claims)
		ctx.Set(ContextCallerKey, user.Caller())
		ctx.Next()
	}
}

// AuthRequired rejects anonymous callers. It must run after Authenticate.
func AuthRequired() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		if !CallerFrom(ctx).Authenticated {
			utils.Error(ctx, http.StatusUnauthorized, 40101, "authentication credentials were not provided")
			ctx.Abort()
			return
		}
		ctx.Next()
	}
}

// SuperuserRequired lets only superusers through. It must run after Authenticate.
func SuperuserRequired() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		caller := CallerFrom(ctx)
		if !caller.Authenticated {
			utils.Error(ctx, http.StatusUnauthorized, 40101, "authentication credentials were not provided")
			ctx.Abort()
			return
		}
		if !caller.IsSuperuser {
			utils.Error(ctx, http.StatusForbidden, 40301, "superuser required")
			ctx.Abort()
			return
		}
		ctx.Next()
	}
}

// CallerFrom returns the caller stored by Authenticate, or an anonymous one.
func CallerFrom(ctx *gin.Context) policy.Caller {
	if v, ok := ctx.Get(ContextCallerKey); ok {
		if caller, ok := v.(policy.Caller); ok {
			return caller
		}
	}
	return policy.Caller{}
}

// ClaimsFrom returns the token claims of an authenticated request.
func ClaimsFrom(ctx *gin.Context) (*utils.Claims, bool) {
	v, ok := ctx.Get(ContextClaimsKey)
	if !ok {
		return nil, false
	}
	claims, ok := v.(*utils.Claims)
	return claims, ok
}
