package service

import (
	"context"
	"testing"
	"time"

	"atlascrm/internal/dto"
	"atlascrm/internal/model"
	"atlascrm/internal/pricing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func payReq(amount string) dto.PaymentRequest {
	return dto.PaymentRequest{
		Amount: dec(amount),
		Date:   time.Date(2024, 5, 2, 0, 0, 0, 0, time.UTC),
		Mode:   "cash",
	}
}

// ── Rules ─────────────────────────────────────────────────────────────────────

func TestSettle(t *testing.T) {
	cases := []struct {
		name    string
		total   string
		payee   string
		paid    bool
		req     dto.PaymentRequest
		applied string
		isPaid  bool
		err     error
	}{
		{"partial", "1000", "0", false, payReq("300"), "300", false, nil},
		{"exact remainder", "1000", "950", false, payReq("50"), "50", true, nil},
		{"within tolerance", "1000", "0", false, payReq("999.99"), "999.99", true, nil},
		{"above remaining", "1000", "400", false, payReq("700"), "", false, ErrExceedsRemaining},
		{"already paid", "1000", "1000", false, payReq("10"), "", false, ErrAlreadyPaid},
		{"flagged paid", "1000", "200", true, payReq("10"), "", false, ErrAlreadyPaid},
		{"zero amount", "1000", "0", false, payReq("0"), "", false, ErrInvalidInput},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			st, err := settle(dec(tc.total), dec(tc.payee), tc.paid, tc.req)
			if tc.err != nil {
				assert.ErrorIs(t, err, tc.err)
				return
			}
			require.NoError(t, err)
			assert.True(t, dec(tc.applied).Equal(st.applied), "applied %s", st.applied)
			assert.Equal(t, tc.isPaid, st.isPaid)
		})
	}
}

func TestSettle_IsPaidSettlesRemainderWhateverTheAmount(t *testing.T) {
	req := payReq("5000")
	req.IsPaid = true

	st, err := settle(dec("1000"), dec("400"), false, req)

	require.NoError(t, err)
	assert.True(t, dec("600").Equal(st.applied))
	assert.True(t, dec("1000").Equal(st.newPayee))
	assert.True(t, st.isPaid)
}

// ── Invoice payments ──────────────────────────────────────────────────────────

func TestPayInvoice_AmountAboveRemainingPersistsNothing(t *testing.T) {
	f := newFixture(t)
	inv := f.invoice(t, "1000", "400")
	svc := NewPaymentService(f.repos, nil, nil)

	_, err := svc.PayInvoice(context.Background(), f.company.ID, inv.ID, payReq("700"))

	assert.ErrorIs(t, err, ErrExceedsRemaining)
	var payments, receipts int64
	f.db.Model(&model.Payment{}).Count(&payments)
	f.db.Model(&model.Receipt{}).Count(&receipts)
	assert.Zero(t, payments)
	assert.Zero(t, receipts)

	stored, err := f.repos.Invoices.FindByID(context.Background(), f.company.ID, inv.ID)
	require.NoError(t, err)
	assert.True(t, dec("400").Equal(stored.Payee))
	assert.False(t, stored.IsPaid)
}

func TestPayInvoice_ReachingTotalMarksPaid(t *testing.T) {
	f := newFixture(t)
	inv := f.invoice(t, "1000", "950")
	f.db.Model(&model.Client{}).Where("id = ?", f.client.ID).Update("due", dec("50"))
	svc := NewPaymentService(f.repos, nil, nil)

	resp, err := svc.PayInvoice(context.Background(), f.company.ID, inv.ID, payReq("50"))

	require.NoError(t, err)
	assert.True(t, resp.IsPaid)
	assert.True(t, dec("1000").Equal(resp.Payee))
	assert.True(t, resp.Remaining.IsZero())

	stored, err := f.repos.Invoices.FindByID(context.Background(), f.company.ID, inv.ID)
	require.NoError(t, err)
	assert.True(t, stored.IsPaid)
	assert.True(t, dec("1000").Equal(stored.Payee))

	client := f.reloadClient(t)
	assert.True(t, client.Due.IsZero(), "due %s", client.Due)
	assert.True(t, dec("50").Equal(client.PaidAmount))

	receipts, total, err := f.repos.Ledger.ListReceipts(context.Background(), f.company.ID, dto.LedgerFilter{})
	require.NoError(t, err)
	require.EqualValues(t, 1, total)
	assert.Equal(t, DefaultReceiptCategory, receipts[0].Category.Name)
	assert.Equal(t, DefaultReceiptNature, receipts[0].Nature.Name)
	require.NotNil(t, receipts[0].PaymentID)
	assert.Equal(t, resp.ID, receipts[0].PaymentID.String())
}

func TestPayInvoice_AlreadyPaid(t *testing.T) {
	f := newFixture(t)
	inv := f.invoice(t, "1000", "1000")
	svc := NewPaymentService(f.repos, nil, nil)

	_, err := svc.PayInvoice(context.Background(), f.company.ID, inv.ID, payReq("1"))

	assert.ErrorIs(t, err, ErrAlreadyPaid)
}

func TestPayInvoice_BalanceMovesByRequestedAmount(t *testing.T) {
	f := newFixture(t)
	inv := f.invoice(t, "1000", "400")
	f.db.Model(&model.Client{}).Where("id = ?", f.client.ID).Update("due", dec("600"))
	svc := NewPaymentService(f.repos, nil, nil)

	req := payReq("100")
	req.IsPaid = true
	resp, err := svc.PayInvoice(context.Background(), f.company.ID, inv.ID, req)

	require.NoError(t, err)
	assert.True(t, dec("600").Equal(resp.Amount), "payment records the settled remainder")
	client := f.reloadClient(t)
	assert.True(t, dec("500").Equal(client.Due), "due %s", client.Due)
	assert.True(t, dec("100").Equal(client.PaidAmount))
}

func TestPayInvoice_UnknownInvoice(t *testing.T) {
	f := newFixture(t)
	svc := NewPaymentService(f.repos, nil, nil)

	_, err := svc.PayInvoice(context.Background(), f.company.ID, f.client.ID, payReq("1"))

	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListInvoicePayments_RunningBalance(t *testing.T) {
	f := newFixture(t)
	inv := f.invoice(t, "1000", "0")
	svc := NewPaymentService(f.repos, nil, nil)
	ctx := context.Background()

	first := payReq("300")
	_, err := svc.PayInvoice(ctx, f.company.ID, inv.ID, first)
	require.NoError(t, err)
	second := payReq("700")
	second.Date = first.Date.Add(24 * time.Hour)
	_, err = svc.PayInvoice(ctx, f.company.ID, inv.ID, second)
	require.NoError(t, err)

	history, err := svc.ListInvoicePayments(ctx, f.company.ID, inv.ID)

	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.True(t, dec("700").Equal(history[0].Remaining))
	assert.False(t, history[0].IsPaid)
	assert.True(t, history[1].Remaining.IsZero())
	assert.True(t, history[1].IsPaid)
}

// ── Purchase order payments ───────────────────────────────────────────────────

func TestPayPurchaseOrder_PostsDibursement(t *testing.T) {
	f := newFixture(t)
	supplier := f.supplier(t)
	po := &model.PurchaseOrder{
		DocumentHeader: model.DocumentHeader{
			CompanyID: f.company.ID, Reference: "BC-0001",
			TotalHT: dec("800"), TotalTTC: dec("944"), AmountType: string(pricing.AmountHT),
		},
		SupplierID: supplier.ID,
	}
	require.NoError(t, f.db.Create(po).Error)
	svc := NewPaymentService(f.repos, nil, nil)

	req := payReq("800")
	req.Category, req.Nature = "Achats", "Impression"
	req.Source, req.Allocation = "Caisse", "Campagne été"
	resp, err := svc.PayPurchaseOrder(context.Background(), f.company.ID, po.ID, req)

	require.NoError(t, err)
	assert.True(t, resp.IsPaid, "HT documents are settled on the amount without taxes")

	rows, _, err := f.repos.Ledger.ListDibursements(context.Background(), f.company.ID, dto.LedgerFilter{})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "Achats", rows[0].Category.Name)
	assert.Equal(t, "Impression", rows[0].Nature.Name)
	assert.Equal(t, "Caisse", rows[0].Source)
	assert.Equal(t, "Campagne été", rows[0].Allocation)

	var stored model.Supplier
	require.NoError(t, f.db.First(&stored, "id = ?", supplier.ID).Error)
	assert.True(t, dec("-800").Equal(stored.Due))
	assert.True(t, dec("800").Equal(stored.PaidAmount))
}

// ── Taxonomy ──────────────────────────────────────────────────────────────────

func TestGetOrCreateTaxonomy_IsIdempotent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	a, err := f.repos.Ledger.GetOrCreateCategoryTx(ctx, f.db, f.company.ID, "Ventes")
	require.NoError(t, err)
	b, err := f.repos.Ledger.GetOrCreateCategoryTx(ctx, f.db, f.company.ID, " Ventes ")
	require.NoError(t, err)
	assert.Equal(t, a.ID, b.ID)

	n1, err := f.repos.Ledger.GetOrCreateNatureTx(ctx, f.db, f.company.ID, a.ID, "Affichage")
	require.NoError(t, err)
	n2, err := f.repos.Ledger.GetOrCreateNatureTx(ctx, f.db, f.company.ID, a.ID, "Affichage")
	require.NoError(t, err)
	assert.Equal(t, n1.ID, n2.ID)

	var count int64
	f.db.Model(&model.TransactionCategory{}).Count(&count)
	assert.EqualValues(t, 1, count)
}

func TestGetOrCreateNature_ScopedToCategory(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	sales, err := f.repos.Ledger.GetOrCreateCategoryTx(ctx, f.db, f.company.ID, "Ventes")
	require.NoError(t, err)
	purchases, err := f.repos.Ledger.GetOrCreateCategoryTx(ctx, f.db, f.company.ID, "Achats")
	require.NoError(t, err)

	a, err := f.repos.Ledger.GetOrCreateNatureTx(ctx, f.db, f.company.ID, sales.ID, "Facture")
	require.NoError(t, err)
	b, err := f.repos.Ledger.GetOrCreateNatureTx(ctx, f.db, f.company.ID, purchases.ID, "Facture")
	require.NoError(t, err)

	assert.NotEqual(t, a.ID, b.ID)
	assert.Equal(t, sales.ID, a.CategoryID)
	assert.Equal(t, purchases.ID, b.CategoryID)
}
