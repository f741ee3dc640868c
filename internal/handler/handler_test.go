package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"atlascrm/internal/access"
	"atlascrm/internal/apierror"
	"atlascrm/internal/dto"
	"atlascrm/internal/middleware"
	"atlascrm/internal/model"
	"atlascrm/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ── Stubs ─────────────────────────────────────────────────────────────────────

type stubDeletions struct {
	pending  bool
	resource string
	perms    access.Set
}

func (s *stubDeletions) Request(_ context.Context, _, _ uuid.UUID, perms access.Set, resource string, _ uuid.UUID) (*dto.DeleteResult, error) {
	s.resource, s.perms = resource, perms
	if s.pending {
		return &dto.DeleteResult{Pending: true, RequestID: uuid.NewString()}, nil
	}
	return &dto.DeleteResult{Deleted: true}, nil
}

func (s *stubDeletions) ListPending(context.Context, uuid.UUID) ([]dto.DeletionRequestResponse, error) {
	return nil, nil
}
func (s *stubDeletions) Approve(context.Context, uuid.UUID, uuid.UUID, uuid.UUID) error { return nil }
func (s *stubDeletions) Reject(context.Context, uuid.UUID, uuid.UUID, uuid.UUID) error  { return nil }

type stubPayments struct {
	err   error
	calls []string
}

func (s *stubPayments) pay(kind string, req dto.PaymentRequest) (*dto.PaymentResponse, error) {
	s.calls = append(s.calls, kind)
	if s.err != nil {
		return nil, s.err
	}
	return &dto.PaymentResponse{ID: uuid.NewString(), Amount: req.Amount}, nil
}

func (s *stubPayments) PayInvoice(_ context.Context, _, _ uuid.UUID, req dto.PaymentRequest) (*dto.PaymentResponse, error) {
	return s.pay(model.KindInvoice, req)
}

func (s *stubPayments) PayPurchaseOrder(_ context.Context, _, _ uuid.UUID, req dto.PaymentRequest) (*dto.PaymentResponse, error) {
	return s.pay(model.KindPurchaseOrder, req)
}

func (s *stubPayments) ListInvoicePayments(context.Context, uuid.UUID, uuid.UUID) ([]dto.PaymentResponse, error) {
	return []dto.PaymentResponse{}, nil
}

func (s *stubPayments) ListPurchaseOrderPayments(context.Context, uuid.UUID, uuid.UUID) ([]dto.PaymentResponse, error) {
	return []dto.PaymentResponse{}, nil
}

// ── Helpers ───────────────────────────────────────────────────────────────────

func withClaims(role string, perms ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(middleware.ClaimsKey, &middleware.JWTClaims{
			UserID: uuid.NewString(), CompanyID: uuid.NewString(), Role: role, Perms: perms,
		})
	}
}

func do(r http.Handler, method, path, body string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req, _ := http.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) apierror.Envelope {
	t.Helper()
	var env apierror.Envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	return env
}

// ── Tests ─────────────────────────────────────────────────────────────────────

func TestRespondError_StatusMapping(t *testing.T) {
	gin.SetMode(gin.TestMode)
	cases := []struct {
		err  error
		code int
	}{
		{fmt.Errorf("%w: champ", service.ErrInvalidInput), http.StatusBadRequest},
		{service.ErrExceedsRemaining, http.StatusBadRequest},
		{service.ErrInvalidCredentials, http.StatusUnauthorized},
		{service.ErrForbidden, http.StatusForbidden},
		{fmt.Errorf("%w: facture", service.ErrNotFound), http.StatusNotFound},
		{service.ErrAlreadyPaid, http.StatusConflict},
		{service.ErrBillboardConflict, http.StatusConflict},
		{service.ErrAlreadyConverted, http.StatusConflict},
		{service.ErrDuplicate, http.StatusConflict},
		{service.ErrPaymentInProgress, http.StatusConflict},
		{errors.New("pq: connection refused"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

		respondError(c, tc.err)

		assert.Equal(t, tc.code, w.Code, tc.err.Error())
		env := decode(t, w)
		assert.Equal(t, apierror.StateError, env.State)
		if tc.code == http.StatusInternalServerError {
			assert.NotContains(t, env.Message, "pq:", "internal errors are not leaked")
		}
	}
}

func TestDelete_PendingApprovalAnswers202(t *testing.T) {
	gin.SetMode(gin.TestMode)
	dels := &stubDeletions{pending: true}
	h := NewDocumentsHandler(model.KindInvoice, nil, nil, nil, dels)
	r := gin.New()
	r.DELETE("/invoices/:id", withClaims(access.RoleUser, "invoice:delete"), h.Delete)

	w := do(r, http.MethodDelete, "/invoices/"+uuid.NewString(), "")

	assert.Equal(t, http.StatusAccepted, w.Code)
	assert.Equal(t, model.KindInvoice, dels.resource)
	assert.True(t, dels.perms.Can(access.ResourceInvoice, access.ActionDelete))

	dels.pending = false
	w = do(r, http.MethodDelete, "/invoices/"+uuid.NewString(), "")
	assert.Equal(t, http.StatusOK, w.Code)

	w = do(r, http.MethodDelete, "/invoices/not-a-uuid", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestPay_RoutesByKind(t *testing.T) {
	gin.SetMode(gin.TestMode)
	pays := &stubPayments{}
	r := gin.New()
	r.Use(withClaims(access.RoleAdmin))
	r.POST("/invoices/:id/payments", NewDocumentsHandler(model.KindInvoice, nil, nil, pays, nil).Pay)
	r.POST("/purchase-orders/:id/payments", NewDocumentsHandler(model.KindPurchaseOrder, nil, nil, pays, nil).Pay)
	body := `{"amount":"150.50","date":"2024-05-02T00:00:00Z","mode":"virement"}`

	w := do(r, http.MethodPost, "/invoices/"+uuid.NewString()+"/payments", body)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	w = do(r, http.MethodPost, "/purchase-orders/"+uuid.NewString()+"/payments", body)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	assert.Equal(t, []string{model.KindInvoice, model.KindPurchaseOrder}, pays.calls)
}

func TestPay_ValidationAndConflicts(t *testing.T) {
	gin.SetMode(gin.TestMode)
	pays := &stubPayments{}
	r := gin.New()
	r.Use(withClaims(access.RoleAdmin))
	r.POST("/invoices/:id/payments", NewDocumentsHandler(model.KindInvoice, nil, nil, pays, nil).Pay)
	path := "/invoices/" + uuid.NewString() + "/payments"

	w := do(r, http.MethodPost, path, `{"amount":"10"`)
	assert.Equal(t, http.StatusBadRequest, w.Code, "malformed JSON")

	w = do(r, http.MethodPost, path, `{"amount":"10","date":"2024-05-02T00:00:00Z"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Contains(t, w.Body.String(), "mode")

	pays.err = service.ErrAlreadyPaid
	w = do(r, http.MethodPost, path, `{"amount":"10","date":"2024-05-02T00:00:00Z","mode":"cash"}`)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, service.ErrAlreadyPaid.Error(), decode(t, w).Message)
}

func TestValidate_DecimalTags(t *testing.T) {
	req := dto.LedgerEntryRequest{Amount: decimal.Zero}
	err := validate.Struct(req)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "amount")
}
