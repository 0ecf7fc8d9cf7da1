package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cppla/blogfeed/config"
	"github.com/cppla/blogfeed/utils"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func setConfig() {
	config.Set(config.AppConfig{JWTSecret: "middleware-secret", AdminUsernames: []string{"root"}})
}

func engine(handlers ...gin.HandlerFunc) *gin.Engine {
	r := gin.New()
	r.Use(Identity())
	all := append(handlers, func(c *gin.Context) {
		id, _ := ViewerID(c)
		c.JSON(http.StatusOK, gin.H{"id": id, "name": ViewerName(c), "admin": IsAdmin(c)})
	})
	r.Any("/x", all...)
	return r
}

func get(r *gin.Engine, method, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, "/x?a=1", nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestLimiterSetBurstThenDeny(t *testing.T) {
	s := newLimiterSet(4)
	now := time.Now()
	assert.True(t, s.allow("k", now))
	assert.True(t, s.allow("k", now))
	assert.False(t, s.allow("k", now))
	assert.True(t, s.allow("other", now))
}

func TestLimiterSetForgetsIdleKeys(t *testing.T) {
	s := newLimiterSet(2)
	now := time.Now()
	assert.True(t, s.allow("k", now))
	assert.False(t, s.allow("k", now))

	later := now.Add(limiterIdle + time.Second)
	assert.True(t, s.allow("fresh", later))
	_, kept := s.limiters["k"]
	assert.False(t, kept)
}

func TestRateLimitSkipsReads(t *testing.T) {
	setConfig()
	r := engine(RateLimit(1))

	for i := 0; i < 3; i++ {
		assert.Equal(t, http.StatusOK, get(r, http.MethodGet, "").Code)
	}
	assert.Equal(t, http.StatusOK, get(r, http.MethodPost, "").Code)
	assert.Equal(t, http.StatusTooManyRequests, get(r, http.MethodPost, "").Code)
}

func TestIdentityIgnoresBadTokens(t *testing.T) {
	setConfig()
	r := engine()

	w := get(r, http.MethodGet, "not-a-jwt")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"id":0,"name":"","admin":false}`, w.Body.String())
}

func TestIdentityAndAdmin(t *testing.T) {
	setConfig()
	r := engine(AuthRequired())

	tok, _, err := utils.GenerateToken(7, "root")
	require.NoError(t, err)
	w := get(r, http.MethodGet, tok)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"id":7,"name":"root","admin":true}`, w.Body.String())
}

func TestAuthRequiredSendsToLogin(t *testing.T) {
	setConfig()
	r := engine(AuthRequired())

	w := get(r, http.MethodGet, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), `"login":"/api/v1/auth/login?next=%2Fx%3Fa%3D1"`)
}

func TestRevokedTokenIsAnonymous(t *testing.T) {
	setConfig()
	r := engine(AuthRequired())

	laptop, exp, err := utils.GenerateToken(9, "mia")
	require.NoError(t, err)
	phone, _, err := utils.GenerateToken(9, "mia")
	require.NoError(t, err)
	claims, err := utils.ParseToken(laptop)
	require.NoError(t, err)
	utils.BlacklistToken(claims.ID, exp)

	assert.Equal(t, http.StatusUnauthorized, get(r, http.MethodGet, laptop).Code)
	assert.Equal(t, http.StatusOK, get(r, http.MethodGet, phone).Code, "other sessions stay valid")
}

func TestCountedPath(t *testing.T) {
	assert.True(t, countedPath("/api/v1/posts"))
	assert.True(t, countedPath("/api/v1/profile/leo"))
	assert.False(t, countedPath("/api/v1/stats"))
	assert.False(t, countedPath("/media/posts/2024/01/x.png"))
	assert.False(t, countedPath("/health"))
}
