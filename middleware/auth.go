package middleware

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/cppla/blogfeed/config"
	"github.com/cppla/blogfeed/utils"
)

const (
	// ContextUserIDKey is the key used to store the viewer's user ID in Gin context.
	ContextUserIDKey = "user_id"
	// ContextUsernameKey stores the viewer's username inside Gin context.
	ContextUsernameKey = "username"
	// ContextTokenKey keeps the raw bearer token so logout can revoke it.
	ContextTokenKey = "token"
	// ContextClaimsKey keeps the parsed claims.
	ContextClaimsKey = "claims"

	// LoginPath is where unauthenticated viewers are sent.
	LoginPath = "/api/v1/auth/login"
)

func bearerToken(ctx *gin.Context) (string, bool) {
	authHeader := ctx.GetHeader("Authorization")
	if authHeader == "" {
		return "", false
	}
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}
	token := strings.TrimSpace(parts[1])
	return token, token != ""
}

// Identity resolves the viewer from an optional bearer token. Requests without
// a valid token continue anonymously.
func Identity() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		token, ok := bearerToken(ctx)
		if !ok {
			ctx.Next()
			return
		}
		claims, err := utils.ParseToken(token)
		if err != nil {
			utils.Logger.Debug("ignoring invalid bearer token")
			ctx.Next()
			return
		}
		if utils.IsTokenBlacklisted(claims.ID) {
			ctx.Next()
			return
		}
		ctx.Set(ContextUserIDKey, claims.UserID)
		ctx.Set(ContextUsernameKey, claims.Username)
		ctx.Set(ContextTokenKey, token)
		ctx.Set(ContextClaimsKey, claims)
		ctx.Next()
	}
}

// LoginRedirect is the login location that returns the viewer to path afterwards.
func LoginRedirect(path string) string {
	return LoginPath + "?next=" + url.QueryEscape(path)
}

// RespondUnauthenticated writes the 401 envelope pointing at the login route.
func RespondUnauthenticated(ctx *gin.Context) {
	utils.ErrorWithData(ctx, http.StatusUnauthorized, 40101, "authentication required",
		gin.H{"login": LoginRedirect(ctx.Request.URL.RequestURI())})
	ctx.Abort()
}

// AuthRequired rejects anonymous viewers. It must run after Identity.
func AuthRequired() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		if _, ok := ViewerID(ctx); !ok {
			RespondUnauthenticated(ctx)
			return
		}
		ctx.Next()
	}
}

// AdminRequired allows only viewers listed in AdminUsernames. It must run after AuthRequired.
func AdminRequired() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		if !IsAdmin(ctx) {
			utils.Error(ctx, http.StatusForbidden, 40301, "admin only")
			ctx.Abort()
			return
		}
		ctx.Next()
	}
}

// ViewerID returns the authenticated viewer's id.
func ViewerID(ctx *gin.Context) (uint, bool) {
	v, ok := ctx.Get(ContextUserIDKey)
	if !ok {
		return 0, false
	}
	id, ok := v.(uint)
	return id, ok && id != 0
}

// ViewerName returns the authenticated viewer's username.
func ViewerName(ctx *gin.Context) string {
	return ctx.GetString(ContextUsernameKey)
}

// IsAdmin reports whether the viewer is a configured administrator.
func IsAdmin(ctx *gin.Context) bool {
	if _, ok := ViewerID(ctx); !ok {
		return false
	}
	return config.Get().IsAdmin(ViewerName(ctx))
}
