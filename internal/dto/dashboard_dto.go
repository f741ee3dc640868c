package dto

import "github.com/shopspring/decimal"

type DashboardResponse struct {
	Invoiced        decimal.Decimal `json:"invoiced"`
	Paid            decimal.Decimal `json:"paid"`
	ClientDue       decimal.Decimal `json:"clientDue"`
	SupplierDue     decimal.Decimal `json:"supplierDue"`
	UnpaidInvoices  int64           `json:"unpaidInvoices"`
	OverdueInvoices int64           `json:"overdueInvoices"`
	OpenQuotes      int64           `json:"openQuotes"`
	Cached          bool            `json:"cached"`
}
