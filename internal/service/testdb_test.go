package service

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"atlascrm/internal/infra"
	"atlascrm/internal/model"
	"atlascrm/internal/pricing"
	"atlascrm/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// ── Fixtures ──────────────────────────────────────────────────────────────────

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", name)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	require.NoError(t, infra.Prepare(db))
	require.NoError(t, db.AutoMigrate(model.All()...))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

type fixture struct {
	db      *gorm.DB
	repos   *repository.Repositories
	storage *infra.LocalStorage
	company *model.Company
	client  *model.Client
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := newTestDB(t)
	storage, err := infra.NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	company := &model.Company{
		Name:     "Atlas Régie",
		Email:    "contact@atlas.test",
		Currency: "XAF",
		Taxes:    model.TaxList{{Name: "TVA", Value: "18"}},
	}
	require.NoError(t, db.Create(company).Error)
	client := &model.Client{CompanyID: company.ID, CompanyName: "Gabon Télécom", Email: "compta@gt.test"}
	require.NoError(t, db.Create(client).Error)

	return &fixture{db: db, repos: repository.New(db), storage: storage, company: company, client: client}
}

func (f *fixture) billboard(t *testing.T, ref string) *model.Billboard {
	t.Helper()
	b := &model.Billboard{CompanyID: f.company.ID, Reference: ref, Name: "Panneau " + ref, RentalPrice: decimal.NewFromInt(500), HasTax: true}
	require.NoError(t, f.db.Create(b).Error)
	return b
}

func (f *fixture) product(t *testing.T, qty int) *model.ProductService {
	t.Helper()
	p := &model.ProductService{CompanyID: f.company.ID, Reference: "IMP-01", Designation: "Impression bâche", UnitPrice: decimal.NewFromInt(100), Quantity: qty, HasTax: true}
	require.NoError(t, f.db.Create(p).Error)
	return p
}

func (f *fixture) supplier(t *testing.T) *model.Supplier {
	t.Helper()
	s := &model.Supplier{CompanyID: f.company.ID, CompanyName: "Imprimerie du Port", Email: "ventes@port.test"}
	require.NoError(t, f.db.Create(s).Error)
	return s
}

// invoice stores an invoice directly, without side effects on balances.
func (f *fixture) invoice(t *testing.T, total, payee string) *model.Invoice {
	t.Helper()
	inv := &model.Invoice{
		DocumentHeader: model.DocumentHeader{
			CompanyID:  f.company.ID,
			Reference:  "FAC-9" + uuid.NewString()[:3],
			TotalHT:    decimal.RequireFromString(total),
			TotalTTC:   decimal.RequireFromString(total),
			AmountType: string(pricing.AmountTTC),
		},
		ClientID: f.client.ID,
		Payee:    decimal.RequireFromString(payee),
	}
	require.NoError(t, f.db.Create(inv).Error)
	return inv
}

func (f *fixture) reloadClient(t *testing.T) *model.Client {
	t.Helper()
	c, err := f.repos.Clients.FindByID(context.Background(), f.company.ID, f.client.ID)
	require.NoError(t, err)
	return c
}

func day(y int, m time.Month, d int) *time.Time {
	v := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return &v
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func strPtr(s string) *string { return &s }

func mustUUID(t *testing.T, s string) uuid.UUID {
	t.Helper()
	id, err := uuid.Parse(s)
	require.NoError(t, err)
	return id
}
