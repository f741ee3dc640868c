package service

import (
	"context"
	"fmt"
	"io"

	"atlascrm/internal/dto"
	"atlascrm/internal/infra"
	"atlascrm/internal/model"
	"atlascrm/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// Ledger entry kinds, also used as deletion request resources.
const (
	LedgerReceipt     = "receipt"
	LedgerDibursement = "dibursement"
)

// exportPage is the page size used while collecting rows for an export.
const exportPage = 200

type LedgerService interface {
	CreateReceipt(ctx context.Context, companyID uuid.UUID, req dto.LedgerEntryRequest) (*dto.LedgerEntryResponse, error)
	CreateDibursement(ctx context.Context, companyID uuid.UUID, req dto.LedgerEntryRequest) (*dto.LedgerEntryResponse, error)
	ListReceipts(ctx context.Context, companyID uuid.UUID, f dto.LedgerFilter) ([]dto.LedgerEntryResponse, int64, error)
	ListDibursements(ctx context.Context, companyID uuid.UUID, f dto.LedgerFilter) ([]dto.LedgerEntryResponse, int64, error)
	Export(ctx context.Context, companyID uuid.UUID, kind string, f dto.LedgerFilter, w io.Writer) error
	Delete(ctx context.Context, companyID uuid.UUID, kind string, id uuid.UUID) error
	Reference(ctx context.Context, companyID uuid.UUID, kind string, id uuid.UUID) (string, error)
}

type ledgerService struct {
	ledger    repository.LedgerRepository
	clients   repository.ContactRepository[model.Client]
	suppliers repository.ContactRepository[model.Supplier]
	dashboard DashboardService
}

func NewLedgerService(repos *repository.Repositories, dashboard DashboardService) LedgerService {
	return &ledgerService{
		ledger:    repos.Ledger,
		clients:   repos.Clients,
		suppliers: repos.Suppliers,
		dashboard: dashboard,
	}
}

func (s *ledgerService) CreateReceipt(ctx context.Context, companyID uuid.UUID, req dto.LedgerEntryRequest) (*dto.LedgerEntryResponse, error) {
	clientID, err := parseCounterpart(req.CounterpartID)
	if err != nil {
		return nil, err
	}
	if clientID != nil {
		if _, err := s.clients.FindByID(ctx, companyID, *clientID); err != nil {
			return nil, notFound(err, "client")
		}
	}

	var rc *model.Receipt
	err = runTx(ctx, s.ledger.DB(), func(tx *gorm.DB) error {
		category, err := s.ledger.GetOrCreateCategoryTx(ctx, tx, companyID, req.Category)
		if err != nil {
			return err
		}
		nature, err := s.ledger.GetOrCreateNatureTx(ctx, tx, companyID, category.ID, req.Nature)
		if err != nil {
			return err
		}
		rc = &model.Receipt{
			CompanyID:   companyID,
			Date:        req.Date,
			Amount:      req.Amount,
			Mode:        req.Mode,
			Information: req.Information,
			CategoryID:  category.ID,
			NatureID:    nature.ID,
			ClientID:    clientID,
			Category:    category,
			Nature:      nature,
		}
		return s.ledger.CreateReceiptTx(ctx, tx, rc)
	})
	if err != nil {
		return nil, err
	}
	log.Info().Str("receipt_id", rc.ID.String()).Str("amount", rc.Amount.String()).Msg("receipt recorded")
	resp := receiptToResponse(rc)
	return &resp, nil
}

func (s *ledgerService) CreateDibursement(ctx context.Context, companyID uuid.UUID, req dto.LedgerEntryRequest) (*dto.LedgerEntryResponse, error) {
	supplierID, err := parseCounterpart(req.CounterpartID)
	if err != nil {
		return nil, err
	}
	if supplierID != nil {
		if _, err := s.suppliers.FindByID(ctx, companyID, *supplierID); err != nil {
			return nil, notFound(err, "fournisseur")
		}
	}

	var d *model.Dibursement
	err = runTx(ctx, s.ledger.DB(), func(tx *gorm.DB) error {
		category, err := s.ledger.GetOrCreateCategoryTx(ctx, tx, companyID, req.Category)
		if err != nil {
			return err
		}
		nature, err := s.ledger.GetOrCreateNatureTx(ctx, tx, companyID, category.ID, req.Nature)
		if err != nil {
			return err
		}
		d = &model.Dibursement{
			CompanyID:   companyID,
			Date:        req.Date,
			Amount:      req.Amount,
			Mode:        req.Mode,
			Information: req.Information,
			Source:      req.Source,
			Allocation:  req.Allocation,
			CategoryID:  category.ID,
			NatureID:    nature.ID,
			SupplierID:  supplierID,
			Category:    category,
			Nature:      nature,
		}
		return s.ledger.CreateDibursementTx(ctx, tx, d)
	})
	if err != nil {
		return nil, err
	}
	log.Info().Str("dibursement_id", d.ID.String()).Str("amount", d.Amount.String()).Msg("dibursement recorded")
	resp := dibursementToResponse(d)
	return &resp, nil
}

func parseCounterpart(raw *string) (*uuid.UUID, error) {
	if raw == nil || *raw == "" {
		return nil, nil
	}
	id, err := uuid.Parse(*raw)
	if err != nil {
		return nil, invalid("contrepartie invalide")
	}
	return &id, nil
}

func (s *ledgerService) ListReceipts(ctx context.Context, companyID uuid.UUID, f dto.LedgerFilter) ([]dto.LedgerEntryResponse, int64, error) {
	rows, total, err := s.ledger.ListReceipts(ctx, companyID, f)
	if err != nil {
		return nil, 0, err
	}
	out := make([]dto.LedgerEntryResponse, len(rows))
	for i := range rows {
		out[i] = receiptToResponse(&rows[i])
	}
	return out, total, nil
}

func (s *ledgerService) ListDibursements(ctx context.Context, companyID uuid.UUID, f dto.LedgerFilter) ([]dto.LedgerEntryResponse, int64, error) {
	rows, total, err := s.ledger.ListDibursements(ctx, companyID, f)
	if err != nil {
		return nil, 0, err
	}
	out := make([]dto.LedgerEntryResponse, len(rows))
	for i := range rows {
		out[i] = dibursementToResponse(&rows[i])
	}
	return out, total, nil
}

var exportHeaders = []string{"Date", "Montant", "Mode", "Catégorie", "Nature", "Source", "Affectation", "Information"}

// Export writes the filtered entries of one kind as an xlsx workbook.
func (s *ledgerService) Export(ctx context.Context, companyID uuid.UUID, kind string, f dto.LedgerFilter, w io.Writer) error {
	var (
		list  func(context.Context, uuid.UUID, dto.LedgerFilter) ([]dto.LedgerEntryResponse, int64, error)
		sheet string
	)
	switch kind {
	case LedgerReceipt:
		list, sheet = s.ListReceipts, "Encaissements"
	case LedgerDibursement:
		list, sheet = s.ListDibursements, "Décaissements"
	default:
		return invalid("type d'écriture inconnu %q", kind)
	}

	var entries []dto.LedgerEntryResponse
	f.Limit = exportPage
	for f.Page = 1; ; f.Page++ {
		batch, total, err := list(ctx, companyID, f)
		if err != nil {
			return err
		}
		entries = append(entries, batch...)
		if len(batch) < exportPage || int64(len(entries)) >= total {
			break
		}
	}

	rows := make([][]any, len(entries))
	for i, e := range entries {
		amount, _ := e.Amount.Float64()
		rows[i] = []any{e.Date.Format("2006-01-02"), amount, e.Mode, e.Category, e.Nature, e.Source, e.Allocation, e.Information}
	}
	if err := infra.WriteSheet(w, sheet, exportHeaders, rows); err != nil {
		return fmt.Errorf("export %s: %w", kind, err)
	}
	return nil
}

// Delete removes a ledger entry. Document and counterpart balances are left
// unchanged.
func (s *ledgerService) Delete(ctx context.Context, companyID uuid.UUID, kind string, id uuid.UUID) error {
	err := runTx(ctx, s.ledger.DB(), func(tx *gorm.DB) error {
		switch kind {
		case LedgerReceipt:
			return s.ledger.DeleteReceiptTx(ctx, tx, companyID, id)
		case LedgerDibursement:
			return s.ledger.DeleteDibursementTx(ctx, tx, companyID, id)
		}
		return invalid("type d'écriture inconnu %q", kind)
	})
	if err != nil {
		return notFound(err, "écriture")
	}
	log.Info().Str("kind", kind).Str("entry_id", id.String()).Msg("ledger entry deleted")
	invalidateDashboard(ctx, s.dashboard, companyID)
	return nil
}

// Reference is a human label for an entry, shown on deletion requests.
func (s *ledgerService) Reference(ctx context.Context, companyID uuid.UUID, kind string, id uuid.UUID) (string, error) {
	switch kind {
	case LedgerReceipt:
		rc, err := s.ledger.FindReceipt(ctx, companyID, id)
		if err != nil {
			return "", notFound(err, "encaissement")
		}
		return fmt.Sprintf("Encaissement %s du %s", rc.Amount.StringFixed(2), rc.Date.Format("02/01/2006")), nil
	case LedgerDibursement:
		d, err := s.ledger.FindDibursement(ctx, companyID, id)
		if err != nil {
			return "", notFound(err, "décaissement")
		}
		return fmt.Sprintf("Décaissement %s du %s", d.Amount.StringFixed(2), d.Date.Format("02/01/2006")), nil
	}
	return "", invalid("type d'écriture inconnu %q", kind)
}

func receiptToResponse(rc *model.Receipt) dto.LedgerEntryResponse {
	resp := dto.LedgerEntryResponse{
		ID:            rc.ID.String(),
		Kind:          LedgerReceipt,
		Date:          rc.Date,
		Amount:        rc.Amount,
		Mode:          rc.Mode,
		Information:   rc.Information,
		CounterpartID: uuidPtrString(rc.ClientID),
		DocumentID:    uuidPtrString(rc.InvoiceID),
		PaymentID:     uuidPtrString(rc.PaymentID),
	}
	if rc.Category != nil {
		resp.Category = rc.Category.Name
	}
	if rc.Nature != nil {
		resp.Nature = rc.Nature.Name
	}
	return resp
}

func dibursementToResponse(d *model.Dibursement) dto.LedgerEntryResponse {
	resp := dto.LedgerEntryResponse{
		ID:            d.ID.String(),
		Kind:          LedgerDibursement,
		Date:          d.Date,
		Amount:        d.Amount,
		Mode:          d.Mode,
		Information:   d.Information,
		Source:        d.Source,
		Allocation:    d.Allocation,
		CounterpartID: uuidPtrString(d.SupplierID),
		DocumentID:    uuidPtrString(d.PurchaseOrderID),
		PaymentID:     uuidPtrString(d.PaymentID),
	}
	if d.Category != nil {
		resp.Category = d.Category.Name
	}
	if d.Nature != nil {
		resp.Nature = d.Nature.Name
	}
	return resp
}
