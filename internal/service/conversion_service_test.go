package service

import (
	"bytes"
	"context"
	"io"
	"testing"
	"time"

	"atlascrm/internal/dto"
	"atlascrm/internal/infra"
	"atlascrm/internal/model"
	"atlascrm/internal/pricing"
	"atlascrm/internal/repository"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// quote stores a quote with one billboard line and one product line.
func (f *fixture) quote(t *testing.T, billboard *model.Billboard, product *model.ProductService, start, end *time.Time) *model.Quote {
	t.Helper()
	q := &model.Quote{
		DocumentHeader: model.DocumentHeader{
			CompanyID:    f.company.ID,
			Reference:    "DEV-0001",
			TotalHT:      dec("1200"),
			TotalTTC:     dec("1416"),
			DiscountType: string(pricing.DiscountPercent),
			AmountType:   string(pricing.AmountTTC),
			Files:        model.StringList{},
		},
		ClientID: f.client.ID,
		Items: []model.Item{
			{
				CompanyID: f.company.ID, ItemType: model.ItemTypeBillboard, Name: billboard.Name,
				Price: dec("1000"), Quantity: 1, HasTax: true, BillboardID: &billboard.ID,
				LocationStart: start, LocationEnd: end, State: model.ItemStatePending,
			},
			{
				CompanyID: f.company.ID, ItemType: model.ItemTypeProduct, Name: product.Designation,
				Price: dec("100"), Quantity: 2, HasTax: true, ProductServiceID: &product.ID,
				State: model.ItemStatePending,
			},
		},
	}
	require.NoError(t, f.db.Create(q).Error)
	return q
}

func TestConvertQuote_CreatesInvoiceAndAppliesEffects(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	billboard := f.billboard(t, "LBV-01")
	product := f.product(t, 10)
	project := &model.Project{CompanyID: f.company.ID, Name: "Campagne rentrée", Status: model.ProjectInProgress}
	require.NoError(t, f.db.Create(project).Error)
	q := f.quote(t, billboard, product, day(2024, 3, 1), day(2024, 3, 31))
	f.db.Model(&model.Quote{}).Where("id = ?", q.ID).Update("project_id", project.ID)

	svc := NewConversionService(f.repos, f.storage, nil)
	inv, err := svc.ConvertQuote(ctx, f.company.ID, q.ID, nil)

	require.NoError(t, err)
	assert.Equal(t, "FAC-0001", inv.Reference)
	assert.True(t, dec("1200").Equal(inv.TotalHT))
	assert.True(t, dec("1416").Equal(inv.TotalTTC))
	require.NotNil(t, inv.FromRecordID)
	assert.Equal(t, q.ID, *inv.FromRecordID)
	assert.Equal(t, model.KindQuote, inv.FromRecordName)
	assert.Equal(t, "DEV-0001", inv.FromRecordReference)

	stored, err := f.repos.Invoices.FindByID(ctx, f.company.ID, inv.ID)
	require.NoError(t, err)
	require.Len(t, stored.Items, 2)
	for _, it := range stored.Items {
		assert.Equal(t, model.ItemStateApproved, it.State)
	}

	client := f.reloadClient(t)
	assert.True(t, dec("1416").Equal(client.Due), "due %s", client.Due)

	var linked int64
	f.db.Table("client_billboards").Where("client_id = ?", f.client.ID).Count(&linked)
	assert.EqualValues(t, 1, linked)

	p, err := f.repos.Products.FindByID(ctx, f.company.ID, product.ID)
	require.NoError(t, err)
	assert.Equal(t, 8, p.Quantity)

	pr, err := f.repos.Projects.FindByID(ctx, f.company.ID, project.ID)
	require.NoError(t, err)
	assert.Equal(t, model.ProjectTodo, pr.Status)
	assert.True(t, dec("1416").Equal(pr.Amount))

	src, err := f.repos.Quotes.FindByID(ctx, f.company.ID, q.ID)
	require.NoError(t, err)
	assert.True(t, src.IsCompleted)

	_, err = svc.ConvertQuote(ctx, f.company.ID, q.ID, nil)
	assert.ErrorIs(t, err, ErrAlreadyConverted)
}

// deliveryNote stores a delivery note with one billboard line and three product units.
func (f *fixture) deliveryNote(t *testing.T, billboard *model.Billboard, product *model.ProductService, start, end *time.Time) *model.DeliveryNote {
	t.Helper()
	n := &model.DeliveryNote{
		DocumentHeader: model.DocumentHeader{
			CompanyID:    f.company.ID,
			Reference:    "BL-0001",
			TotalHT:      dec("1300"),
			TotalTTC:     dec("1534"),
			DiscountType: string(pricing.DiscountPercent),
			AmountType:   string(pricing.AmountTTC),
			Files:        model.StringList{},
		},
		ClientID: f.client.ID,
		Items: []model.Item{
			{
				CompanyID: f.company.ID, ItemType: model.ItemTypeBillboard, Name: billboard.Name,
				Price: dec("1000"), Quantity: 1, HasTax: true, BillboardID: &billboard.ID,
				LocationStart: start, LocationEnd: end, State: model.ItemStatePending,
			},
			{
				CompanyID: f.company.ID, ItemType: model.ItemTypeProduct, Name: product.Designation,
				Price: dec("100"), Quantity: 3, HasTax: true, ProductServiceID: &product.ID,
				State: model.ItemStatePending,
			},
		},
	}
	require.NoError(t, f.db.Create(n).Error)
	return n
}

func TestConvertDeliveryNote_CreatesInvoiceAndAppliesEffects(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	billboard := f.billboard(t, "POG-01")
	product := f.product(t, 10)
	n := f.deliveryNote(t, billboard, product, day(2024, 5, 1), day(2024, 5, 31))

	svc := NewConversionService(f.repos, f.storage, nil)
	inv, err := svc.ConvertDeliveryNote(ctx, f.company.ID, n.ID, nil)

	require.NoError(t, err)
	assert.Equal(t, "FAC-0001", inv.Reference)
	require.NotNil(t, inv.FromRecordID)
	assert.Equal(t, n.ID, *inv.FromRecordID)
	assert.Equal(t, model.KindDeliveryNote, inv.FromRecordName)
	assert.Equal(t, "BL-0001", inv.FromRecordReference)

	stored, err := f.repos.Invoices.FindByID(ctx, f.company.ID, inv.ID)
	require.NoError(t, err)
	require.Len(t, stored.Items, 2)
	for _, it := range stored.Items {
		assert.Equal(t, model.ItemStateApproved, it.State)
	}

	client := f.reloadClient(t)
	assert.True(t, dec("1534").Equal(client.Due), "due %s", client.Due)

	p, err := f.repos.Products.FindByID(ctx, f.company.ID, product.ID)
	require.NoError(t, err)
	assert.Equal(t, 7, p.Quantity)

	src, err := f.repos.DeliveryNotes.FindByID(ctx, f.company.ID, n.ID)
	require.NoError(t, err)
	assert.True(t, src.IsCompleted)

	_, err = svc.ConvertDeliveryNote(ctx, f.company.ID, n.ID, nil)
	assert.ErrorIs(t, err, ErrAlreadyConverted)
}

// lockOrder records when the company row lock and the booking lookup run.
type lockOrder struct{ calls []string }

type orderedCompanies struct {
	repository.CompanyRepository
	order *lockOrder
}

func (c orderedCompanies) NextReferenceTx(ctx context.Context, tx *gorm.DB, companyID uuid.UUID, kind string) (string, error) {
	c.order.calls = append(c.order.calls, "reference")
	return c.CompanyRepository.NextReferenceTx(ctx, tx, companyID, kind)
}

type orderedBillboards struct {
	repository.BillboardRepository
	order *lockOrder
}

func (b orderedBillboards) FindBookingsTx(ctx context.Context, tx *gorm.DB, companyID, billboardID uuid.UUID, start, end time.Time, skip []uuid.UUID) ([]model.Item, error) {
	b.order.calls = append(b.order.calls, "bookings")
	return b.BillboardRepository.FindBookingsTx(ctx, tx, companyID, billboardID, start, end, skip)
}

func TestConvert_TakesCompanyLockBeforeBookingCheck(t *testing.T) {
	f := newFixture(t)
	billboard := f.billboard(t, "POG-02")
	product := f.product(t, 10)
	q := f.quote(t, billboard, product, day(2024, 9, 1), day(2024, 9, 30))

	order := &lockOrder{}
	repos := *f.repos
	repos.Companies = orderedCompanies{CompanyRepository: f.repos.Companies, order: order}
	repos.Billboards = orderedBillboards{BillboardRepository: f.repos.Billboards, order: order}

	_, err := NewConversionService(&repos, f.storage, nil).ConvertQuote(context.Background(), f.company.ID, q.ID, nil)

	require.NoError(t, err)
	assert.Equal(t, []string{"reference", "bookings"}, order.calls)
}

func TestConvertQuote_OverridesRentalRange(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	billboard := f.billboard(t, "LBV-02")
	product := f.product(t, 5)
	q := f.quote(t, billboard, product, day(2024, 3, 1), day(2024, 3, 31))

	var billboardItem uuid.UUID
	for _, it := range q.Items {
		if it.BillboardID != nil {
			billboardItem = it.ID
		}
	}
	overrides := []dto.ConversionItemOverride{{
		ItemID:        billboardItem.String(),
		LocationStart: *day(2024, 4, 1),
		LocationEnd:   *day(2024, 4, 15),
	}}

	inv, err := NewConversionService(f.repos, f.storage, nil).ConvertQuote(ctx, f.company.ID, q.ID, overrides)

	require.NoError(t, err)
	stored, err := f.repos.Invoices.FindByID(ctx, f.company.ID, inv.ID)
	require.NoError(t, err)
	for _, it := range stored.Items {
		if it.BillboardID != nil {
			assert.True(t, it.LocationStart.Equal(*day(2024, 4, 1)))
			assert.True(t, it.LocationEnd.Equal(*day(2024, 4, 15)))
		}
	}
}

func TestConvertQuote_BillboardConflictRollsBack(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	billboard := f.billboard(t, "LBV-03")
	product := f.product(t, 10)

	booked := f.invoice(t, "500", "0")
	require.NoError(t, f.db.Create(&model.Item{
		CompanyID: f.company.ID, InvoiceID: &booked.ID, ItemType: model.ItemTypeBillboard, Name: billboard.Name,
		Price: dec("500"), Quantity: 1, BillboardID: &billboard.ID,
		LocationStart: day(2024, 3, 20), LocationEnd: day(2024, 4, 10), State: model.ItemStateApproved,
	}).Error)

	q := f.quote(t, billboard, product, day(2024, 3, 1), day(2024, 3, 31))
	attachment := infra.RecordFolder(f.company.ID, model.KindQuote, q.Reference) + "/bon.pdf"
	require.NoError(t, f.storage.Put(ctx, attachment, bytes.NewReader([]byte("%PDF-1.4"))))
	f.db.Model(&model.Quote{}).Where("id = ?", q.ID).Update("files", model.StringList{attachment})

	_, err := NewConversionService(f.repos, f.storage, nil).ConvertQuote(ctx, f.company.ID, q.ID, nil)

	assert.ErrorIs(t, err, ErrBillboardConflict)

	var invoices int64
	f.db.Model(&model.Invoice{}).Count(&invoices)
	assert.EqualValues(t, 1, invoices, "only the booking invoice remains")

	src, err := f.repos.Quotes.FindByID(ctx, f.company.ID, q.ID)
	require.NoError(t, err)
	assert.False(t, src.IsCompleted)

	p, err := f.repos.Products.FindByID(ctx, f.company.ID, product.ID)
	require.NoError(t, err)
	assert.Equal(t, 10, p.Quantity)

	c, err := f.repos.Companies.FindByID(ctx, f.company.ID)
	require.NoError(t, err)
	assert.Zero(t, c.InvoiceNumber, "reference counter rolled back")

	r, err := f.storage.Open(ctx, attachment)
	require.NoError(t, err, "source attachment untouched")
	_, _ = io.Copy(io.Discard, r)
	r.Close()
}

func TestConvertQuote_CopiesAttachments(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	billboard := f.billboard(t, "LBV-04")
	product := f.product(t, 10)
	q := f.quote(t, billboard, product, day(2024, 6, 1), day(2024, 6, 30))
	attachment := infra.RecordFolder(f.company.ID, model.KindQuote, q.Reference) + "/maquette.png"
	require.NoError(t, f.storage.Put(ctx, attachment, bytes.NewReader([]byte("png"))))
	f.db.Model(&model.Quote{}).Where("id = ?", q.ID).Update("files", model.StringList{attachment})

	inv, err := NewConversionService(f.repos, f.storage, nil).ConvertQuote(ctx, f.company.ID, q.ID, nil)

	require.NoError(t, err)
	require.Len(t, inv.Files, 1)
	assert.Equal(t, infra.RecordFolder(f.company.ID, model.KindInvoice, inv.Reference)+"/maquette.png", inv.Files[0])
	r, err := f.storage.Open(ctx, inv.Files[0])
	require.NoError(t, err)
	data, _ := io.ReadAll(r)
	r.Close()
	assert.Equal(t, "png", string(data))
}

func TestConvertDeliveryNote_NotFound(t *testing.T) {
	f := newFixture(t)

	_, err := NewConversionService(f.repos, f.storage, nil).ConvertDeliveryNote(context.Background(), f.company.ID, uuid.New(), nil)

	assert.ErrorIs(t, err, ErrNotFound)
}

func TestApplyOverrides_RejectsForeignAndProductLines(t *testing.T) {
	billboardID := uuid.New()
	items := []model.Item{
		{ID: uuid.New(), Name: "panneau", BillboardID: &billboardID},
		{ID: uuid.New(), Name: "bâche"},
	}

	_, err := applyOverrides(items, []dto.ConversionItemOverride{{ItemID: uuid.NewString(), LocationStart: *day(2024, 1, 1), LocationEnd: *day(2024, 1, 2)}})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = applyOverrides(items, []dto.ConversionItemOverride{{ItemID: items[1].ID.String(), LocationStart: *day(2024, 1, 1), LocationEnd: *day(2024, 1, 2)}})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = applyOverrides(items, []dto.ConversionItemOverride{{ItemID: items[0].ID.String(), LocationStart: *day(2024, 1, 5), LocationEnd: *day(2024, 1, 2)}})
	assert.ErrorIs(t, err, ErrInvalidInput)

	out, err := applyOverrides(items, []dto.ConversionItemOverride{{ItemID: items[0].ID.String(), LocationStart: *day(2024, 1, 1), LocationEnd: *day(2024, 1, 2)}})
	require.NoError(t, err)
	assert.Nil(t, items[0].LocationStart, "input left untouched")
	assert.NotNil(t, out[0].LocationStart)
}
