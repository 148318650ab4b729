package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"coconut-supply/models"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testSecret = []byte("test-secret")

func init() { gin.SetMode(gin.TestMode) }

func newRouter() *gin.Engine {
	r := gin.New()
	r.GET("/admin", AuthRequired(testSecret), RoleRequired(models.RoleAdmin), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"id": GetUserID(c), "role": GetRole(c)})
	})
	return r
}

func call(r http.Handler, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/admin", nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuthRequired(t *testing.T) {
	r := newRouter()

	admin := &models.User{ID: 1, Email: "a@x.in", Role: models.RoleAdmin}
	tok, err := GenerateToken(testSecret, admin, time.Hour)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, call(r, tok).Code)

	vendor := &models.User{ID: 2, Email: "v@x.in", Role: models.RoleVendor}
	tok, err = GenerateToken(testSecret, vendor, time.Hour)
	require.NoError(t, err)
	assert.Equal(t, http.StatusForbidden, call(r, tok).Code)

	assert.Equal(t, http.StatusUnauthorized, call(r, "").Code)
	assert.Equal(t, http.StatusUnauthorized, call(r, "garbage").Code)
}

func TestParseToken_Expired(t *testing.T) {
	u := &models.User{ID: 3, Role: models.RoleDriver}
	tok, err := GenerateToken(testSecret, u, -time.Minute)
	require.NoError(t, err)
	_, err = ParseToken(testSecret, tok)
	assert.Error(t, err)
}

func TestParseToken_WrongSecret(t *testing.T) {
	u := &models.User{ID: 3, Role: models.RoleDriver}
	tok, err := GenerateToken(testSecret, u, time.Hour)
	require.NoError(t, err)
	_, err = ParseToken([]byte("other"), tok)
	assert.Error(t, err)

	claims, err := ParseToken(testSecret, tok)
	require.NoError(t, err)
	assert.Equal(t, uint(3), claims.UserID)
	assert.Equal(t, models.RoleDriver, claims.Role)
}

func TestRateLimiter(t *testing.T) {
	rl := NewRateLimiter(2)
	r := gin.New()
	r.POST("/login", rl.Middleware(), func(c *gin.Context) { c.Status(http.StatusOK) })

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/login", nil))
		codes = append(codes, w.Code)
	}
	assert.Equal(t, []int{200, 200, 429}, codes)
}
