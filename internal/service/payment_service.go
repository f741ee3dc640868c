package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"atlascrm/internal/dto"
	"atlascrm/internal/model"
	"atlascrm/internal/pricing"
	"atlascrm/internal/repository"

	"github.com/bsm/redislock"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Ledger names used when a payment request leaves them empty.
const (
	DefaultReceiptCategory     = "Règlement client"
	DefaultReceiptNature       = "Facture"
	DefaultDibursementCategory = "Règlement fournisseur"
	DefaultDibursementNature   = "Bon de commande"
)

var paidTolerance = decimal.RequireFromString("0.01")

type PaymentService interface {
	PayInvoice(ctx context.Context, companyID, invoiceID uuid.UUID, req dto.PaymentRequest) (*dto.PaymentResponse, error)
	PayPurchaseOrder(ctx context.Context, companyID, poID uuid.UUID, req dto.PaymentRequest) (*dto.PaymentResponse, error)
	ListInvoicePayments(ctx context.Context, companyID, invoiceID uuid.UUID) ([]dto.PaymentResponse, error)
	ListPurchaseOrderPayments(ctx context.Context, companyID, poID uuid.UUID) ([]dto.PaymentResponse, error)
}

type paymentService struct {
	repos     *repository.Repositories
	locker    *redislock.Client
	dashboard DashboardService
}

// NewPaymentService builds the service. locker may be nil, the row lock
// taken inside the transaction is then the only guard.
func NewPaymentService(repos *repository.Repositories, locker *redislock.Client, dashboard DashboardService) PaymentService {
	return &paymentService{repos: repos, locker: locker, dashboard: dashboard}
}

// settlement is the outcome of applying a request to a document balance.
type settlement struct {
	total    decimal.Decimal
	applied  decimal.Decimal
	newPayee decimal.Decimal
	isPaid   bool
}

// settle applies the payment rules to a document billed total and what was
// already paid on it.
func settle(total, payee decimal.Decimal, paid bool, req dto.PaymentRequest) (settlement, error) {
	remaining := total.Sub(payee)
	if paid || !remaining.IsPositive() {
		return settlement{}, ErrAlreadyPaid
	}
	applied := req.Amount
	if req.IsPaid {
		applied = remaining
	} else {
		if !req.Amount.IsPositive() {
			return settlement{}, invalid("le montant doit être positif")
		}
		if req.Amount.GreaterThan(remaining) {
			return settlement{}, ErrExceedsRemaining
		}
	}
	newPayee := payee.Add(applied)
	return settlement{
		total:    total,
		applied:  applied,
		newPayee: newPayee,
		isPaid:   req.IsPaid || newPayee.GreaterThanOrEqual(total.Sub(paidTolerance)),
	}, nil
}

// ── Invoice ───────────────────────────────────────────────────────────────────
// One transaction, invoice row locked:
//   1. payment rules (already paid, remaining)
//   2. payment row, invoice payee / is_paid
//   3. category + nature resolved by name, receipt linked to the payment
//   4. client due -= amount, paid += amount

func (s *paymentService) PayInvoice(ctx context.Context, companyID, invoiceID uuid.UUID, req dto.PaymentRequest) (*dto.PaymentResponse, error) {
	unlock, err := s.lock(ctx, model.KindInvoice, invoiceID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	var resp *dto.PaymentResponse
	err = runTx(ctx, s.repos.Invoices.DB(), func(tx *gorm.DB) error {
		inv, err := s.repos.Invoices.FindByIDForUpdateTx(ctx, tx, companyID, invoiceID)
		if err != nil {
			return notFound(err, "facture")
		}
		st, err := settle(pricing.Total(inv.AmountType, inv.TotalHT, inv.TotalTTC), inv.Payee, inv.IsPaid, req)
		if err != nil {
			return err
		}

		payment := &model.Payment{
			CompanyID:   companyID,
			InvoiceID:   &inv.ID,
			Amount:      st.applied,
			PaidAt:      req.Date,
			Mode:        req.Mode,
			Information: req.Information,
		}
		if err := s.repos.Payments.CreateTx(ctx, tx, payment); err != nil {
			return fmt.Errorf("create payment: %w", err)
		}
		if err := s.repos.Invoices.UpdateTx(ctx, tx, inv.ID, map[string]any{
			"payee":   st.newPayee,
			"is_paid": st.isPaid,
		}); err != nil {
			return fmt.Errorf("update invoice: %w", err)
		}

		category, nature, err := s.taxonomyTx(ctx, tx, companyID,
			orDefault(req.Category, DefaultReceiptCategory), orDefault(req.Nature, DefaultReceiptNature))
		if err != nil {
			return err
		}
		receipt := &model.Receipt{
			CompanyID:   companyID,
			Date:        req.Date,
			Amount:      st.applied,
			Mode:        req.Mode,
			Information: orDefault(req.Information, "Paiement "+inv.Reference),
			CategoryID:  category.ID,
			NatureID:    nature.ID,
			ClientID:    &inv.ClientID,
			InvoiceID:   &inv.ID,
			PaymentID:   &payment.ID,
		}
		if err := s.repos.Ledger.CreateReceiptTx(ctx, tx, receipt); err != nil {
			return fmt.Errorf("create receipt: %w", err)
		}

		logAmountDrift(model.KindInvoice, inv.ID, req.Amount, st.applied)
		if err := s.repos.Clients.AdjustBalanceTx(ctx, tx, companyID, inv.ClientID, req.Amount.Neg(), req.Amount); err != nil {
			return fmt.Errorf("client balance: %w", err)
		}

		resp = paymentToResponse(payment, inv.ID, st)
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Info().
		Str("invoice_id", invoiceID.String()).
		Str("amount", resp.Amount.String()).
		Bool("is_paid", resp.IsPaid).
		Msg("invoice payment recorded")
	invalidateDashboard(ctx, s.dashboard, companyID)
	return resp, nil
}

// ── Purchase order ────────────────────────────────────────────────────────────

func (s *paymentService) PayPurchaseOrder(ctx context.Context, companyID, poID uuid.UUID, req dto.PaymentRequest) (*dto.PaymentResponse, error) {
	unlock, err := s.lock(ctx, model.KindPurchaseOrder, poID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	var resp *dto.PaymentResponse
	err = runTx(ctx, s.repos.PurchaseOrders.DB(), func(tx *gorm.DB) error {
		po, err := s.repos.PurchaseOrders.FindByIDForUpdateTx(ctx, tx, companyID, poID)
		if err != nil {
			return notFound(err, "bon de commande")
		}
		st, err := settle(pricing.Total(po.AmountType, po.TotalHT, po.TotalTTC), po.Payee, po.IsPaid, req)
		if err != nil {
			return err
		}

		payment := &model.Payment{
			CompanyID:       companyID,
			PurchaseOrderID: &po.ID,
			Amount:          st.applied,
			PaidAt:          req.Date,
			Mode:            req.Mode,
			Information:     req.Information,
		}
		if err := s.repos.Payments.CreateTx(ctx, tx, payment); err != nil {
			return fmt.Errorf("create payment: %w", err)
		}
		if err := s.repos.PurchaseOrders.UpdateTx(ctx, tx, po.ID, map[string]any{
			"payee":   st.newPayee,
			"is_paid": st.isPaid,
		}); err != nil {
			return fmt.Errorf("update purchase order: %w", err)
		}

		category, nature, err := s.taxonomyTx(ctx, tx, companyID,
			orDefault(req.Category, DefaultDibursementCategory), orDefault(req.Nature, DefaultDibursementNature))
		if err != nil {
			return err
		}
		dib := &model.Dibursement{
			CompanyID:       companyID,
			Date:            req.Date,
			Amount:          st.applied,
			Mode:            req.Mode,
			Information:     orDefault(req.Information, "Paiement "+po.Reference),
			Source:          req.Source,
			Allocation:      req.Allocation,
			CategoryID:      category.ID,
			NatureID:        nature.ID,
			SupplierID:      &po.SupplierID,
			PurchaseOrderID: &po.ID,
			PaymentID:       &payment.ID,
		}
		if err := s.repos.Ledger.CreateDibursementTx(ctx, tx, dib); err != nil {
			return fmt.Errorf("create dibursement: %w", err)
		}

		logAmountDrift(model.KindPurchaseOrder, po.ID, req.Amount, st.applied)
		if err := s.repos.Suppliers.AdjustBalanceTx(ctx, tx, companyID, po.SupplierID, req.Amount.Neg(), req.Amount); err != nil {
			return fmt.Errorf("supplier balance: %w", err)
		}

		resp = paymentToResponse(payment, po.ID, st)
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Info().
		Str("purchase_order_id", poID.String()).
		Str("amount", resp.Amount.String()).
		Bool("is_paid", resp.IsPaid).
		Msg("purchase order payment recorded")
	invalidateDashboard(ctx, s.dashboard, companyID)
	return resp, nil
}

func (s *paymentService) taxonomyTx(ctx context.Context, tx *gorm.DB, companyID uuid.UUID, categoryName, natureName string) (*model.TransactionCategory, *model.TransactionNature, error) {
	category, err := s.repos.Ledger.GetOrCreateCategoryTx(ctx, tx, companyID, categoryName)
	if err != nil {
		return nil, nil, fmt.Errorf("category %q: %w", categoryName, err)
	}
	nature, err := s.repos.Ledger.GetOrCreateNatureTx(ctx, tx, companyID, category.ID, natureName)
	if err != nil {
		return nil, nil, fmt.Errorf("nature %q: %w", natureName, err)
	}
	return category, nature, nil
}

// lock serialises payments on one document across instances. Without a
// locker it is a no-op.
func (s *paymentService) lock(ctx context.Context, kind string, id uuid.UUID) (func(), error) {
	if s.locker == nil {
		return func() {}, nil
	}
	key := fmt.Sprintf("lock:payment:%s:%s", kind, id)
	lock, err := s.locker.Obtain(ctx, key, 30*time.Second, &redislock.Options{
		RetryStrategy: redislock.LimitRetry(redislock.LinearBackoff(100*time.Millisecond), 50),
	})
	if errors.Is(err, redislock.ErrNotObtained) {
		return nil, ErrPaymentInProgress
	}
	if err != nil {
		return nil, fmt.Errorf("payment lock: %w", err)
	}
	return func() {
		if err := lock.Release(context.WithoutCancel(ctx)); err != nil && !errors.Is(err, redislock.ErrLockNotHeld) {
			log.Warn().Err(err).Str("key", key).Msg("failed to release payment lock")
		}
	}, nil
}

// logAmountDrift reports when balances move by the requested amount while
// the document moved by a different one (IsPaid settles the remainder).
func logAmountDrift(kind string, id uuid.UUID, requested, applied decimal.Decimal) {
	if requested.Equal(applied) {
		return
	}
	log.Warn().
		Str("kind", kind).
		Str("document_id", id.String()).
		Str("requested", requested.String()).
		Str("applied", applied.String()).
		Msg("counterpart balance adjusted by requested amount, document by applied amount")
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

// ── Listing ───────────────────────────────────────────────────────────────────

func (s *paymentService) ListInvoicePayments(ctx context.Context, companyID, invoiceID uuid.UUID) ([]dto.PaymentResponse, error) {
	inv, err := s.repos.Invoices.FindByID(ctx, companyID, invoiceID)
	if err != nil {
		return nil, notFound(err, "facture")
	}
	rows, err := s.repos.Payments.ListByInvoice(ctx, companyID, invoiceID)
	if err != nil {
		return nil, err
	}
	return paymentHistory(rows, invoiceID, pricing.Total(inv.AmountType, inv.TotalHT, inv.TotalTTC)), nil
}

func (s *paymentService) ListPurchaseOrderPayments(ctx context.Context, companyID, poID uuid.UUID) ([]dto.PaymentResponse, error) {
	po, err := s.repos.PurchaseOrders.FindByID(ctx, companyID, poID)
	if err != nil {
		return nil, notFound(err, "bon de commande")
	}
	rows, err := s.repos.Payments.ListByPurchaseOrder(ctx, companyID, poID)
	if err != nil {
		return nil, err
	}
	return paymentHistory(rows, poID, pricing.Total(po.AmountType, po.TotalHT, po.TotalTTC)), nil
}

// paymentHistory rebuilds the running payee after each payment. rows must
// be in payment order.
func paymentHistory(rows []model.Payment, documentID uuid.UUID, total decimal.Decimal) []dto.PaymentResponse {
	out := make([]dto.PaymentResponse, len(rows))
	payee := decimal.Zero
	for i := range rows {
		payee = payee.Add(rows[i].Amount)
		out[i] = *paymentToResponse(&rows[i], documentID, settlement{
			total:    total,
			newPayee: payee,
			isPaid:   payee.GreaterThanOrEqual(total.Sub(paidTolerance)),
		})
	}
	return out
}

func paymentToResponse(p *model.Payment, documentID uuid.UUID, st settlement) *dto.PaymentResponse {
	remaining := st.total.Sub(st.newPayee)
	if remaining.IsNegative() {
		remaining = decimal.Zero
	}
	return &dto.PaymentResponse{
		ID:          p.ID.String(),
		DocumentID:  documentID.String(),
		Amount:      p.Amount,
		PaidAt:      p.PaidAt,
		Mode:        p.Mode,
		Information: p.Information,
		Payee:       st.newPayee,
		Remaining:   remaining,
		IsPaid:      st.isPaid,
	}
}
