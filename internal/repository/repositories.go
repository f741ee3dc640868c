package repository

import (
	"atlascrm/internal/model"

	"gorm.io/gorm"
)

// Repositories bundles every repository built on one connection.
type Repositories struct {
	Companies      CompanyRepository
	Users          UserRepository
	Clients        ContactRepository[model.Client]
	Suppliers      ContactRepository[model.Supplier]
	Billboards     BillboardRepository
	Products       ProductServiceRepository
	Quotes         DocumentRepository[model.Quote]
	DeliveryNotes  DocumentRepository[model.DeliveryNote]
	Invoices       DocumentRepository[model.Invoice]
	PurchaseOrders DocumentRepository[model.PurchaseOrder]
	Payments       PaymentRepository
	Ledger         LedgerRepository
	Projects       ProjectRepository
	Deletions      DeletionRepository
	Reports        ReportRepository
}

func New(db *gorm.DB) *Repositories {
	return &Repositories{
		Companies:      NewCompanyRepository(db),
		Users:          NewUserRepository(db),
		Clients:        NewClientRepository(db),
		Suppliers:      NewSupplierRepository(db),
		Billboards:     NewBillboardRepository(db),
		Products:       NewProductServiceRepository(db),
		Quotes:         NewQuoteRepository(db),
		DeliveryNotes:  NewDeliveryNoteRepository(db),
		Invoices:       NewInvoiceRepository(db),
		PurchaseOrders: NewPurchaseOrderRepository(db),
		Payments:       NewPaymentRepository(db),
		Ledger:         NewLedgerRepository(db),
		Projects:       NewProjectRepository(db),
		Deletions:      NewDeletionRepository(db),
		Reports:        NewReportRepository(db),
	}
}
