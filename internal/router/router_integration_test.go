//go:build integration

// End-to-end tests against real Postgres and Redis started with testcontainers.
// Run with: go test -tags integration ./internal/router/... -v
package router_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"atlascrm/internal/config"
	"atlascrm/internal/infra"
	"atlascrm/internal/router"
	"atlascrm/internal/worker"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcPostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	tcRedis "github.com/testcontainers/testcontainers-go/modules/redis"
)

// ── Helpers ──────────────────────────────────────────────────────────────────

type envelope struct {
	State   string          `json:"state"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Total   *int64          `json:"total"`
}

type testEnv struct {
	server *httptest.Server
	token  string // admin JWT
}

func (e *testEnv) do(t *testing.T, method, path string, body any, token string) (int, envelope) {
	t.Helper()
	var buf io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		buf = bytes.NewReader(b)
	}
	req, err := http.NewRequest(method, e.server.URL+path, buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := e.server.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var env envelope
	if resp.Header.Get("Content-Type") == "application/json; charset=utf-8" {
		require.NoError(t, json.Unmarshal(raw, &env), string(raw))
	}
	return resp.StatusCode, env
}

func (e *testEnv) login(t *testing.T, email, password string) string {
	t.Helper()
	code, env := e.do(t, http.MethodPost, "/v1/auth/login", map[string]string{"email": email, "password": password}, "")
	require.Equal(t, http.StatusOK, code, env.Message)
	var body struct {
		AccessToken string `json:"accessToken"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &body))
	require.NotEmpty(t, body.AccessToken)
	return body.AccessToken
}

func id(t *testing.T, env envelope) string {
	t.Helper()
	var body struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &body))
	require.NotEmpty(t, body.ID)
	return body.ID
}

// ── Test Suite Setup ─────────────────────────────────────────────────────────

func setupTestEnv(t *testing.T) *testEnv {
	t.Helper()
	ctx := context.Background()

	pgC, err := tcPostgres.RunContainer(ctx,
		testcontainers.WithImage("postgres:15-alpine"),
		tcPostgres.WithDatabase("atlascrm_test"),
		tcPostgres.WithUsername("atlas"),
		tcPostgres.WithPassword("atlas"),
		testcontainers.WithWaitStrategy(tcPostgres.BasicWaitStrategies()...),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = pgC.Terminate(ctx) })
	pgURL, err := pgC.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	rdC, err := tcRedis.RunContainer(ctx, testcontainers.WithImage("redis:7-alpine"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = rdC.Terminate(ctx) })
	rdURL, err := rdC.ConnectionString(ctx)
	require.NoError(t, err)

	cfg := &config.Config{
		Port:               8000,
		Env:                "test",
		JWTSecret:          "test-secret-key",
		JWTExpirationHours: 8,
		JWTRefreshHours:    24,
		DatabaseURL:        pgURL,
		RedisURL:           rdURL,
		WorkerPoolSize:     1,
		StorageDriver:      "local",
		StoragePath:        t.TempDir(),
		DefaultPhoneRegion: "GA",
	}

	db, err := infra.NewDatabase(cfg.DatabaseURL)
	require.NoError(t, err)
	rdb, err := infra.NewRedis(cfg.RedisURL)
	require.NoError(t, err)
	storage, err := infra.NewStorage(ctx, cfg)
	require.NoError(t, err)

	svcs := router.NewServices(cfg, db, rdb, storage, worker.NewDispatcher(rdb))
	srv := httptest.NewServer(router.New(cfg, db, rdb, svcs, nil))
	t.Cleanup(srv.Close)

	env := &testEnv{server: srv}
	code, resp := env.do(t, http.MethodPost, "/v1/companies", map[string]any{
		"name": "Régie E2E", "email": "contact@e2e.test", "currency": "XAF",
		"taxes":     []map[string]string{{"taxName": "TVA", "taxValue": "18"}},
		"adminName": "Admin E2E", "adminEmail": "admin@e2e.test", "adminPassword": "e2e-password",
	}, "")
	require.Equal(t, http.StatusCreated, code, resp.Message)
	env.token = env.login(t, "admin@e2e.test", "e2e-password")
	return env
}

// ── Tests ────────────────────────────────────────────────────────────────────

func TestE2E_QuoteToPaidInvoice(t *testing.T) {
	env := setupTestEnv(t)
	admin := env.token

	code, resp := env.do(t, http.MethodPost, "/v1/clients", map[string]any{"companyName": "Gabon Télécom", "email": "compta@gt.test"}, admin)
	require.Equal(t, http.StatusCreated, code, resp.Message)
	clientID := id(t, resp)

	code, resp = env.do(t, http.MethodPost, "/v1/billboards", map[string]any{"reference": "LBV-001", "name": "Rond-point de la Démocratie", "rentalPrice": "1000"}, admin)
	require.Equal(t, http.StatusCreated, code, resp.Message)
	billboardID := id(t, resp)

	quote := map[string]any{
		"clientId": clientID, "totalHT": "1000", "totalTTC": "1180", "amountType": "TTC",
		"items": []map[string]any{{
			"itemType": "billboard", "name": "Rond-point", "price": "1000", "quantity": 1, "hasTax": true,
			"billboardId": billboardID, "locationStart": "2024-03-01T00:00:00Z", "locationEnd": "2024-03-31T00:00:00Z",
		}},
	}
	code, resp = env.do(t, http.MethodPost, "/v1/quotes", quote, admin)
	require.Equal(t, http.StatusCreated, code, resp.Message)
	quoteID := id(t, resp)

	// Conversion
	code, resp = env.do(t, http.MethodPost, "/v1/quotes/"+quoteID+"/convert", nil, admin)
	require.Equal(t, http.StatusCreated, code, resp.Message)
	invoiceID := id(t, resp)

	code, _ = env.do(t, http.MethodPost, "/v1/quotes/"+quoteID+"/convert", nil, admin)
	assert.Equal(t, http.StatusConflict, code, "a quote converts once")

	// Payments
	pay := func(amount string) (int, envelope) {
		return env.do(t, http.MethodPost, "/v1/invoices/"+invoiceID+"/payments",
			map[string]any{"amount": amount, "date": "2024-04-02T00:00:00Z", "mode": "virement"}, admin)
	}
	code, resp = pay("2000")
	assert.Equal(t, http.StatusBadRequest, code, resp.Message)

	code, resp = pay("180")
	require.Equal(t, http.StatusCreated, code, resp.Message)
	code, resp = pay("1000")
	require.Equal(t, http.StatusCreated, code, resp.Message)
	var settled struct {
		IsPaid bool `json:"isPaid"`
	}
	require.NoError(t, json.Unmarshal(resp.Data, &settled))
	assert.True(t, settled.IsPaid)

	code, _ = pay("1")
	assert.Equal(t, http.StatusConflict, code)

	code, resp = env.do(t, http.MethodGet, "/v1/clients/"+clientID, nil, admin)
	require.Equal(t, http.StatusOK, code)
	var client struct {
		Due        string `json:"due"`
		PaidAmount string `json:"paidAmount"`
	}
	require.NoError(t, json.Unmarshal(resp.Data, &client))
	assert.Equal(t, "0", client.Due)

	code, resp = env.do(t, http.MethodGet, "/v1/receipts", nil, admin)
	require.Equal(t, http.StatusOK, code)
	require.NotNil(t, resp.Total)
	assert.EqualValues(t, 2, *resp.Total)

	code, _ = env.do(t, http.MethodGet, "/v1/dashboard", nil, admin)
	assert.Equal(t, http.StatusOK, code)
}

func TestE2E_InvoiceDeletionNeedsApproval(t *testing.T) {
	env := setupTestEnv(t)
	admin := env.token

	code, resp := env.do(t, http.MethodPost, "/v1/users", map[string]any{
		"email": "clerk@e2e.test", "name": "Clerk", "password": "clerk-password", "role": "USER",
		"permissions": []string{"invoice:*", "client:*"},
	}, admin)
	require.Equal(t, http.StatusCreated, code, resp.Message)
	clerk := env.login(t, "clerk@e2e.test", "clerk-password")

	code, resp = env.do(t, http.MethodPost, "/v1/clients", map[string]any{"companyName": "Total", "email": "ap@total.test"}, clerk)
	require.Equal(t, http.StatusCreated, code, resp.Message)
	clientID := id(t, resp)

	code, resp = env.do(t, http.MethodPost, "/v1/invoices", map[string]any{
		"clientId": clientID, "totalHT": "500", "totalTTC": "590", "amountType": "TTC",
		"items": []map[string]any{{"itemType": "product", "name": "Pose", "price": "500", "quantity": 1, "hasTax": true}},
	}, clerk)
	require.Equal(t, http.StatusCreated, code, resp.Message)
	invoiceID := id(t, resp)

	code, resp = env.do(t, http.MethodDelete, "/v1/invoices/"+invoiceID, nil, clerk)
	require.Equal(t, http.StatusAccepted, code, resp.Message)
	var pending struct {
		RequestID string `json:"requestId"`
	}
	require.NoError(t, json.Unmarshal(resp.Data, &pending))

	code, _ = env.do(t, http.MethodGet, "/v1/deletion-requests", nil, clerk)
	assert.Equal(t, http.StatusForbidden, code)

	code, resp = env.do(t, http.MethodPost, "/v1/deletion-requests/"+pending.RequestID+"/approve", nil, admin)
	require.Equal(t, http.StatusOK, code, resp.Message)

	code, _ = env.do(t, http.MethodGet, "/v1/invoices/"+invoiceID, nil, admin)
	assert.Equal(t, http.StatusNotFound, code)
}

func TestE2E_Health(t *testing.T) {
	env := setupTestEnv(t)

	resp, err := env.server.Client().Get(env.server.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
