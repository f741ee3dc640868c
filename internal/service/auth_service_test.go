package service

import (
	"context"
	"testing"
	"time"

	"atlascrm/internal/config"
	"atlascrm/internal/dto"
	"atlascrm/internal/model"
	"atlascrm/internal/repository"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-key-for-unit-tests"

func newAuthFixture(t *testing.T) (AuthService, *model.Company) {
	t.Helper()
	db := newTestDB(t)
	company := &model.Company{Name: "Atlas", Email: "a@atlas.test"}
	require.NoError(t, db.Create(company).Error)
	cfg := &config.Config{JWTSecret: testSecret, JWTExpirationHours: 8, JWTRefreshHours: 72}
	return NewAuthService(repository.NewUserRepository(db), cfg), company
}

func createUser(t *testing.T, svc AuthService, companyID uuid.UUID, email string, perms ...string) *dto.UserResponse {
	t.Helper()
	u, err := svc.CreateUser(context.Background(), companyID, dto.CreateUserRequest{
		Email: email, Name: "Awa", Password: "password123", Role: "USER", Permissions: perms,
	})
	require.NoError(t, err)
	return u
}

func parseClaims(t *testing.T, token string) jwt.MapClaims {
	t.Helper()
	parsed, err := jwt.Parse(token, func(*jwt.Token) (interface{}, error) { return []byte(testSecret), nil })
	require.NoError(t, err)
	return parsed.Claims.(jwt.MapClaims)
}

func TestLogin_Success(t *testing.T) {
	svc, company := newAuthFixture(t)
	createUser(t, svc, company.ID, "Awa@Atlas.test", "invoice:read")

	resp, err := svc.Login(context.Background(), dto.LoginRequest{Email: "awa@atlas.test", Password: "password123"})

	require.NoError(t, err)
	assert.Equal(t, "bearer", resp.TokenType)
	assert.Equal(t, 8*3600, resp.ExpiresIn)
	assert.Equal(t, "awa@atlas.test", resp.User.Email)

	claims := parseClaims(t, resp.AccessToken)
	assert.Equal(t, TokenAccess, claims["typ"])
	assert.Equal(t, company.ID.String(), claims["company_id"])
	assert.Contains(t, claims["permissions"], "invoice:read")
	assert.Equal(t, TokenRefresh, parseClaims(t, resp.RefreshToken)["typ"])
}

func TestLogin_InvalidCredentials(t *testing.T) {
	svc, company := newAuthFixture(t)
	createUser(t, svc, company.ID, "awa@atlas.test")

	_, err := svc.Login(context.Background(), dto.LoginRequest{Email: "awa@atlas.test", Password: "wrong-password"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.Login(context.Background(), dto.LoginRequest{Email: "nobody@atlas.test", Password: "password123"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestRefresh_Success(t *testing.T) {
	svc, company := newAuthFixture(t)
	createUser(t, svc, company.ID, "awa@atlas.test")
	login, err := svc.Login(context.Background(), dto.LoginRequest{Email: "awa@atlas.test", Password: "password123"})
	require.NoError(t, err)

	resp, err := svc.Refresh(context.Background(), login.RefreshToken)

	require.NoError(t, err)
	assert.NotEmpty(t, resp.AccessToken)
}

func TestRefresh_RejectsAccessToken(t *testing.T) {
	svc, company := newAuthFixture(t)
	createUser(t, svc, company.ID, "awa@atlas.test")
	login, err := svc.Login(context.Background(), dto.LoginRequest{Email: "awa@atlas.test", Password: "password123"})
	require.NoError(t, err)

	_, err = svc.Refresh(context.Background(), login.AccessToken)
	assert.Error(t, err)

	_, err = svc.Refresh(context.Background(), "not-a-token")
	assert.Error(t, err)
}

func TestRefresh_ExpiredToken(t *testing.T) {
	svc, _ := newAuthFixture(t)
	expired := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": uuid.NewString(),
		"typ":     TokenRefresh,
		"exp":     time.Now().Add(-time.Hour).Unix(),
	})
	token, err := expired.SignedString([]byte(testSecret))
	require.NoError(t, err)

	_, err = svc.Refresh(context.Background(), token)

	assert.Error(t, err)
}

func TestCreateUser_DuplicateEmail(t *testing.T) {
	svc, company := newAuthFixture(t)
	createUser(t, svc, company.ID, "awa@atlas.test")

	_, err := svc.CreateUser(context.Background(), company.ID, dto.CreateUserRequest{
		Email: "awa@atlas.test", Name: "Awa", Password: "password123", Role: "USER",
	})

	assert.ErrorIs(t, err, ErrDuplicate)
}

func TestCreateUser_UnknownPermission(t *testing.T) {
	svc, company := newAuthFixture(t)

	_, err := svc.CreateUser(context.Background(), company.ID, dto.CreateUserRequest{
		Email: "awa@atlas.test", Name: "Awa", Password: "password123", Role: "USER", Permissions: []string{"rocket:launch"},
	})

	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestListUsers(t *testing.T) {
	svc, company := newAuthFixture(t)
	createUser(t, svc, company.ID, "awa@atlas.test")
	createUser(t, svc, company.ID, "jean@atlas.test")

	users, err := svc.ListUsers(context.Background(), company.ID)

	require.NoError(t, err)
	assert.Len(t, users, 2)
}
