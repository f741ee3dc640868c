package repository

import (
	"context"
	"time"

	"atlascrm/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// DashboardTotals are the raw per-company aggregates behind the dashboard.
type DashboardTotals struct {
	Invoiced        decimal.Decimal
	Paid            decimal.Decimal
	ClientDue       decimal.Decimal
	SupplierDue     decimal.Decimal
	UnpaidInvoices  int64
	OverdueInvoices int64
	OpenQuotes      int64
}

type ReportRepository interface {
	Dashboard(ctx context.Context, companyID uuid.UUID, now time.Time) (*DashboardTotals, error)
	// OverdueInvoices returns unpaid invoices of every company whose payment
	// limit is before now, with their client loaded.
	OverdueInvoices(ctx context.Context, now time.Time, limit int) ([]model.Invoice, error)
}

type reportRepo struct{ db *gorm.DB }

func NewReportRepository(db *gorm.DB) ReportRepository { return &reportRepo{db: db} }

type sumRow struct {
	Total decimal.NullDecimal
	Paid  decimal.NullDecimal
}

func (r *reportRepo) Dashboard(ctx context.Context, companyID uuid.UUID, now time.Time) (*DashboardTotals, error) {
	db := r.db.WithContext(ctx)
	out := &DashboardTotals{}

	var inv sumRow
	if err := db.Model(&model.Invoice{}).
		Select("SUM(CASE WHEN amount_type = 'TTC' THEN total_ttc ELSE total_ht END) AS total, SUM(payee) AS paid").
		Where("company_id = ?", companyID).
		Scan(&inv).Error; err != nil {
		return nil, err
	}
	out.Invoiced = inv.Total.Decimal
	out.Paid = inv.Paid.Decimal

	var due sumRow
	if err := db.Model(&model.Client{}).Select("SUM(due) AS total").
		Where("company_id = ?", companyID).Scan(&due).Error; err != nil {
		return nil, err
	}
	out.ClientDue = due.Total.Decimal

	var sdue sumRow
	if err := db.Model(&model.Supplier{}).Select("SUM(due) AS total").
		Where("company_id = ?", companyID).Scan(&sdue).Error; err != nil {
		return nil, err
	}
	out.SupplierDue = sdue.Total.Decimal

	if err := db.Model(&model.Invoice{}).
		Where("company_id = ? AND is_paid = ?", companyID, false).
		Count(&out.UnpaidInvoices).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&model.Invoice{}).
		Where("company_id = ? AND is_paid = ? AND payment_limit IS NOT NULL AND payment_limit < ?", companyID, false, now).
		Count(&out.OverdueInvoices).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&model.Quote{}).
		Where("company_id = ? AND is_completed = ?", companyID, false).
		Count(&out.OpenQuotes).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *reportRepo) OverdueInvoices(ctx context.Context, now time.Time, limit int) ([]model.Invoice, error) {
	var out []model.Invoice
	err := r.db.WithContext(ctx).
		Preload("Client").
		Where("is_paid = ? AND payment_limit IS NOT NULL AND payment_limit < ?", false, now).
		Order("payment_limit ASC").
		Limit(limit).
		Find(&out).Error
	return out, err
}
