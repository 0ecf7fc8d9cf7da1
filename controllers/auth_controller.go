package controllers

import (
	"errors"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/cppla/blogfeed/config"
	"github.com/cppla/blogfeed/middleware"
	"github.com/cppla/blogfeed/models"
	"github.com/cppla/blogfeed/store"
	"github.com/cppla/blogfeed/utils"
)

var usernamePattern = regexp.MustCompile(`^[\w.@+-]{1,150}$`)

// AuthController issues and revokes bearer tokens for local accounts.
type AuthController struct {
	store *store.Store
}

// NewAuthController creates a new AuthController instance.
func NewAuthController(s *store.Store) *AuthController {
	return &AuthController{store: s}
}

func userResponse(u *models.User) gin.H {
	return gin.H{
		"id":         u.ID,
		"username":   u.Username,
		"created_at": u.CreatedAt,
		"is_admin":   config.Get().IsAdmin(u.Username),
		"profile":    profilePath(u.Username),
	}
}

func (a *AuthController) issue(ctx *gin.Context, u *models.User) {
	token, expires, err := utils.GenerateToken(u.ID, u.Username)
	if err != nil {
		utils.Sugar.Errorf("generate token for %s: %v", u.Username, err)
		utils.Error(ctx, http.StatusInternalServerError, 50004, "failed to generate token")
		return
	}
	data := gin.H{
		"token":      token,
		"expires_at": expires,
		"user":       userResponse(u),
	}
	if next := safeNext(ctx.Query("next")); next != "" {
		data["redirect"] = next
	}
	utils.Success(ctx, data)
}

// safeNext only honors same-site absolute paths.
func safeNext(next string) string {
	if strings.HasPrefix(next, "/") && !strings.HasPrefix(next, "//") {
		return next
	}
	return ""
}

// Register creates an account and logs it in.
func (a *AuthController) Register(ctx *gin.Context) {
	var req struct {
		Username string `json:"username" binding:"required"`
		Password string `json:"password" binding:"required"`
		Confirm  string `json:"confirm"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40001, "invalid request payload")
		return
	}

	req.Username = strings.TrimSpace(req.Username)
	verr := &utils.ValidationError{}
	if !usernamePattern.MatchString(req.Username) {
		verr.Add("username", "150 characters or fewer; letters, digits and @/./+/-/_ only")
	}
	if len(req.Password) < 8 {
		verr.Add("password", "must contain at least 8 characters")
	} else if len(req.Password) > utils.MaxPasswordBytes {
		verr.Add("password", "must not exceed 72 bytes")
	} else if req.Password != req.Confirm {
		verr.Add("confirm", "passwords do not match")
	}
	if !verr.Empty() {
		respondError(ctx, verr, "")
		return
	}

	if _, err := a.store.UserByUsername(ctx.Request.Context(), req.Username); err == nil {
		utils.Error(ctx, http.StatusConflict, 40901, "username already exists")
		return
	} else if !errors.Is(err, utils.ErrNotFound) {
		respondError(ctx, err, "")
		return
	}

	hash, err := utils.HashPassword(req.Password)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50002, "failed to hash password")
		return
	}
	user := &models.User{Username: req.Username, PasswordHash: hash}
	if err := a.store.CreateUser(ctx.Request.Context(), user); err != nil {
		respondError(ctx, err, "")
		return
	}
	utils.Sugar.Infof("user %s registered", user.Username)
	a.issue(ctx, user)
}

// Login exchanges credentials for a bearer token.
func (a *AuthController) Login(ctx *gin.Context) {
	var req struct {
		Username string `json:"username" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40003, "invalid request payload")
		return
	}

	user, err := a.store.UserByUsername(ctx.Request.Context(), strings.TrimSpace(req.Username))
	if err != nil || !utils.CheckPassword(user.PasswordHash, req.Password) {
		utils.Error(ctx, http.StatusUnauthorized, 40106, "invalid username or password")
		return
	}
	a.issue(ctx, user)
}

// LoginInfo answers GET on the login route, which is where unauthenticated
// viewers are redirected to.
func (a *AuthController) LoginInfo(ctx *gin.Context) {
	utils.Success(ctx, gin.H{
		"method": http.MethodPost,
		"fields": []string{"username", "password"},
		"next":   safeNext(ctx.Query("next")),
	})
}

// Logout revokes the presented token until it would have expired. Other
// sessions of the same user keep working.
func (a *AuthController) Logout(ctx *gin.Context) {
	var tokenID string
	expiresAt := time.Now().Add(utils.TokenTTL())
	if v, ok := ctx.Get(middleware.ContextClaimsKey); ok {
		if claims, ok := v.(*utils.Claims); ok {
			tokenID = claims.ID
			if claims.ExpiresAt != nil {
				expiresAt = claims.ExpiresAt.Time
			}
		}
	}
	utils.BlacklistToken(tokenID, expiresAt)
	utils.Success(ctx, gin.H{"message": "logged out"})
}

// Me returns the authenticated viewer.
func (a *AuthController) Me(ctx *gin.Context) {
	user, err := a.store.UserByID(ctx.Request.Context(), viewerID(ctx))
	if err != nil {
		respondError(ctx, err, "")
		return
	}
	utils.Success(ctx, userResponse(user))
}
