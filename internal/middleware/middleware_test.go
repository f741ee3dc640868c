package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"atlascrm/internal/access"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

const testSecret = "test_jwt_secret_32_chars_minimum!"

func signToken(t *testing.T, role, typ string, perms []string, dur time.Duration) string {
	t.Helper()
	claims := jwt.MapClaims{
		"user_id": uuid.NewString(), "company_id": uuid.NewString(),
		"role": role, "permissions": perms, "typ": typ,
		"exp": time.Now().Add(dur).Unix(), "iat": time.Now().Unix(),
	}
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	assert.NoError(t, err)
	return s
}

func ginTestRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestID(), JWTAuth(testSecret))
	r.GET("/protected", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"company_id": CompanyID(c).String()})
	})
	r.GET("/invoices", RequirePermission(access.ResourceInvoice, access.ActionRead), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})
	return r
}

func get(r http.Handler, path, token string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	r.ServeHTTP(w, req)
	return w
}

// ── JWT ───────────────────────────────────────────────────────────────────────

func TestJWTAuth(t *testing.T) {
	r := ginTestRouter()

	assert.Equal(t, http.StatusUnauthorized, get(r, "/protected", "").Code)
	assert.Equal(t, http.StatusUnauthorized, get(r, "/protected", signToken(t, access.RoleUser, "access", nil, -time.Second)).Code)
	assert.Equal(t, http.StatusUnauthorized, get(r, "/protected", signToken(t, access.RoleUser, "refresh", nil, time.Hour)).Code, "refresh tokens cannot call the API")

	w := get(r, "/protected", signToken(t, access.RoleUser, "access", nil, time.Hour))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}

func TestRequirePermission(t *testing.T) {
	r := ginTestRouter()

	assert.Equal(t, http.StatusForbidden, get(r, "/invoices", signToken(t, access.RoleUser, "access", []string{"quote:read"}, time.Hour)).Code)
	assert.Equal(t, http.StatusOK, get(r, "/invoices", signToken(t, access.RoleUser, "access", []string{"invoice:*"}, time.Hour)).Code)
	assert.Equal(t, http.StatusOK, get(r, "/invoices", signToken(t, access.RoleAdmin, "access", nil, time.Hour)).Code)
}

// ── Rate limiting ─────────────────────────────────────────────────────────────

type failingCounter struct{}

func (failingCounter) hit(context.Context, string, time.Duration) (int64, time.Duration, error) {
	return 0, 0, assert.AnError
}

func TestRateLimiter_InMemory(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/login", RateLimiter(nil, "login", 2, time.Minute), func(c *gin.Context) { c.Status(http.StatusOK) })

	assert.Equal(t, http.StatusOK, get(r, "/login", "").Code)
	assert.Equal(t, http.StatusOK, get(r, "/login", "").Code)
	w := get(r, "/login", "")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.NotEmpty(t, w.Header().Get("Retry-After"))
}

func TestRateLimiter_FailsOpen(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/x", rateLimit(failingCounter{}, "x", 0, time.Minute), func(c *gin.Context) { c.Status(http.StatusOK) })

	assert.Equal(t, http.StatusOK, get(r, "/x", "").Code)
}

func TestRecovery(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Recovery())
	r.GET("/boom", func(*gin.Context) { panic("boom") })

	w := get(r, "/boom", "")

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "boom")
}
