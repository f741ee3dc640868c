package router

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"atlascrm/internal/config"
	"atlascrm/internal/infra"
	"atlascrm/internal/model"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const testSecret = "router-test-secret"

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file:router?mode=memory&cache=shared"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	require.NoError(t, infra.Prepare(db))
	require.NoError(t, db.AutoMigrate(model.All()...))
	storage, err := infra.NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	cfg := &config.Config{Env: "test", JWTSecret: testSecret, JWTExpirationHours: 1, JWTRefreshHours: 1}
	return New(cfg, db, nil, NewServices(cfg, db, nil, storage, nil), nil)
}

func token(t *testing.T, role string, perms ...string) string {
	t.Helper()
	claims := jwt.MapClaims{
		"user_id": uuid.NewString(), "company_id": uuid.NewString(), "role": role,
		"permissions": perms, "typ": "access", "exp": time.Now().Add(time.Hour).Unix(),
	}
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)
	return s
}

func call(h http.Handler, method, path, tok string) int {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, strings.NewReader(""))
	if tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}
	h.ServeHTTP(w, req)
	return w.Code
}

func TestRoutes_Permissions(t *testing.T) {
	h := newTestRouter(t)
	clerk := token(t, "USER", "quote:read")

	assert.Equal(t, http.StatusUnauthorized, call(h, http.MethodGet, "/v1/invoices", ""))
	assert.Equal(t, http.StatusForbidden, call(h, http.MethodGet, "/v1/invoices", clerk))
	assert.Equal(t, http.StatusOK, call(h, http.MethodGet, "/v1/quotes", clerk))
	assert.Equal(t, http.StatusForbidden, call(h, http.MethodGet, "/v1/deletion-requests", clerk))
	assert.Equal(t, http.StatusOK, call(h, http.MethodGet, "/v1/deletion-requests", token(t, "ADMIN")))
}

func TestRoutes_UnknownDocumentIsNotFound(t *testing.T) {
	h := newTestRouter(t)
	admin := token(t, "ADMIN")

	assert.Equal(t, http.StatusNotFound, call(h, http.MethodGet, "/v1/invoices/"+uuid.NewString(), admin))
	assert.Equal(t, http.StatusBadRequest, call(h, http.MethodGet, "/v1/invoices/nope", admin))
	assert.Equal(t, http.StatusNotFound, call(h, http.MethodPost, "/v1/invoices/"+uuid.NewString()+"/convert", admin), "only quotes and delivery notes convert")
}
