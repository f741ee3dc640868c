package service

import (
	"context"
	"fmt"
	"path"
	"time"

	"atlascrm/internal/dto"
	"atlascrm/internal/infra"
	"atlascrm/internal/model"
	"atlascrm/internal/pricing"
	"atlascrm/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// ConversionService turns a quote or a delivery note into an invoice.
type ConversionService interface {
	ConvertQuote(ctx context.Context, companyID, quoteID uuid.UUID, overrides []dto.ConversionItemOverride) (*model.Invoice, error)
	ConvertDeliveryNote(ctx context.Context, companyID, noteID uuid.UUID, overrides []dto.ConversionItemOverride) (*model.Invoice, error)
}

type conversionService struct {
	repos     *repository.Repositories
	storage   infra.Storage
	checker   *ConflictChecker
	dashboard DashboardService
}

func NewConversionService(repos *repository.Repositories, storage infra.Storage, dashboard DashboardService) ConversionService {
	return &conversionService{
		repos:     repos,
		storage:   storage,
		checker:   NewConflictChecker(repos.Billboards),
		dashboard: dashboard,
	}
}

// conversionSource is what both source kinds share for conversion.
type conversionSource struct {
	kind        string
	id          uuid.UUID
	header      model.DocumentHeader
	clientID    uuid.UUID
	items       []model.Item
	isCompleted bool
}

func (s *conversionService) ConvertQuote(ctx context.Context, companyID, quoteID uuid.UUID, overrides []dto.ConversionItemOverride) (*model.Invoice, error) {
	q, err := s.repos.Quotes.FindByID(ctx, companyID, quoteID)
	if err != nil {
		return nil, notFound(err, "devis")
	}
	src := conversionSource{
		kind: model.KindQuote, id: q.ID, header: q.DocumentHeader,
		clientID: q.ClientID, items: q.Items, isCompleted: q.IsCompleted,
	}
	return s.convert(ctx, src, overrides)
}

func (s *conversionService) ConvertDeliveryNote(ctx context.Context, companyID, noteID uuid.UUID, overrides []dto.ConversionItemOverride) (*model.Invoice, error) {
	n, err := s.repos.DeliveryNotes.FindByID(ctx, companyID, noteID)
	if err != nil {
		return nil, notFound(err, "bon de livraison")
	}
	src := conversionSource{
		kind: model.KindDeliveryNote, id: n.ID, header: n.DocumentHeader,
		clientID: n.ClientID, items: n.Items, isCompleted: n.IsCompleted,
	}
	return s.convert(ctx, src, overrides)
}

// ── Conversion ────────────────────────────────────────────────────────────────
// One transaction:
//   1. source row locked, completion re-checked
//   2. company row locked for the invoice reference, then the billboard
//      conflict check on the overridden ranges
//   3. attachments copied to the invoice folder, before any invoice row
//   4. invoice with copied totals, approved items and back-reference
//   5. linked project reset to TODO with the invoice total
//   6. client due, billboards, stock
//   7. source marked completed
// A failed transaction removes the copied folder.

func (s *conversionService) convert(ctx context.Context, src conversionSource, overrides []dto.ConversionItemOverride) (*model.Invoice, error) {
	if src.isCompleted {
		return nil, ErrAlreadyConverted
	}
	items, err := applyOverrides(src.items, overrides)
	if err != nil {
		return nil, err
	}
	companyID := src.header.CompanyID

	var (
		inv    *model.Invoice
		folder string
	)
	err = runTx(ctx, s.repos.Companies.DB(), func(tx *gorm.DB) error {
		completed, err := s.lockSourceTx(ctx, tx, src)
		if err != nil {
			return err
		}
		if completed {
			return ErrAlreadyConverted
		}
		// The company row lock taken by NextReferenceTx must be held before
		// the billboard check, as in document creation, so concurrent
		// bookings see each other's committed items.
		ref, err := s.repos.Companies.NextReferenceTx(ctx, tx, companyID, model.KindInvoice)
		if err != nil {
			return err
		}
		if err := s.checker.CheckTx(ctx, tx, companyID, items, nil); err != nil {
			return err
		}
		folder = infra.RecordFolder(companyID, model.KindInvoice, ref)
		files, err := s.copyFiles(ctx, src.header.Files, folder)
		if err != nil {
			return err
		}

		h := src.header
		inv = &model.Invoice{
			DocumentHeader: model.DocumentHeader{
				CompanyID:    companyID,
				Reference:    ref,
				ProjectID:    h.ProjectID,
				TotalHT:      h.TotalHT,
				TotalTTC:     h.TotalTTC,
				Discount:     h.Discount,
				DiscountType: h.DiscountType,
				AmountType:   h.AmountType,
				PaymentLimit: h.PaymentLimit,
				Note:         h.Note,
				Files:        files,
			},
			ClientID:            src.clientID,
			FromRecordID:        &src.id,
			FromRecordName:      src.kind,
			FromRecordReference: h.Reference,
			Items:               invoiceItems(items),
		}
		if err := s.repos.Invoices.Create(ctx, tx, inv); err != nil {
			return fmt.Errorf("create invoice: %w", err)
		}

		if h.ProjectID != nil {
			total := pricing.Total(inv.AmountType, inv.TotalHT, inv.TotalTTC)
			err := s.repos.Projects.UpdateTx(ctx, tx, companyID, *h.ProjectID, map[string]any{
				"status": model.ProjectTodo,
				"amount": total,
			})
			if err != nil {
				return fmt.Errorf("project: %w", err)
			}
		}

		if err := applyInvoiceEffectsTx(ctx, tx, s.repos, inv, MovementConversion); err != nil {
			return err
		}
		return s.completeSourceTx(ctx, tx, src)
	})
	if err != nil {
		if folder != "" && len(src.header.Files) > 0 {
			s.removeFolder(ctx, folder)
		}
		return nil, notFound(err, "document source")
	}

	log.Info().
		Str("from_kind", src.kind).
		Str("from_id", src.id.String()).
		Str("invoice_id", inv.ID.String()).
		Str("reference", inv.Reference).
		Msg("document converted to invoice")

	invalidateDashboard(ctx, s.dashboard, companyID)
	return inv, nil
}

func (s *conversionService) lockSourceTx(ctx context.Context, tx *gorm.DB, src conversionSource) (bool, error) {
	companyID := src.header.CompanyID
	switch src.kind {
	case model.KindQuote:
		q, err := s.repos.Quotes.FindByIDForUpdateTx(ctx, tx, companyID, src.id)
		if err != nil {
			return false, err
		}
		return q.IsCompleted, nil
	default:
		n, err := s.repos.DeliveryNotes.FindByIDForUpdateTx(ctx, tx, companyID, src.id)
		if err != nil {
			return false, err
		}
		return n.IsCompleted, nil
	}
}

func (s *conversionService) completeSourceTx(ctx context.Context, tx *gorm.DB, src conversionSource) error {
	fields := map[string]any{"is_completed": true}
	if src.kind == model.KindQuote {
		return s.repos.Quotes.UpdateTx(ctx, tx, src.id, fields)
	}
	return s.repos.DeliveryNotes.UpdateTx(ctx, tx, src.id, fields)
}

// applyOverrides returns a copy of items with the requested rental ranges.
// Overrides must name billboard items of the source.
func applyOverrides(items []model.Item, overrides []dto.ConversionItemOverride) ([]model.Item, error) {
	out := make([]model.Item, len(items))
	copy(out, items)
	byID := make(map[uuid.UUID]int, len(out))
	for i, it := range out {
		byID[it.ID] = i
	}
	for _, o := range overrides {
		id, err := uuid.Parse(o.ItemID)
		if err != nil {
			return nil, invalid("ligne %q invalide", o.ItemID)
		}
		i, ok := byID[id]
		if !ok {
			return nil, invalid("la ligne %s n'appartient pas au document", o.ItemID)
		}
		if out[i].BillboardID == nil {
			return nil, invalid("la ligne %s n'est pas un panneau", out[i].Name)
		}
		if o.LocationEnd.Before(o.LocationStart) {
			return nil, invalid("période de location invalide pour %s", out[i].Name)
		}
		start, end := o.LocationStart, o.LocationEnd
		out[i].LocationStart = &start
		out[i].LocationEnd = &end
	}
	return out, nil
}

// invoiceItems copies source lines as fresh approved invoice lines.
func invoiceItems(items []model.Item) []model.Item {
	out := make([]model.Item, len(items))
	for i, it := range items {
		out[i] = model.Item{
			CompanyID:        it.CompanyID,
			ItemType:         it.ItemType,
			Name:             it.Name,
			Description:      it.Description,
			Price:            it.Price,
			Quantity:         it.Quantity,
			Discount:         it.Discount,
			DiscountType:     it.DiscountType,
			HasTax:           it.HasTax,
			Currency:         it.Currency,
			BillboardID:      it.BillboardID,
			ProductServiceID: it.ProductServiceID,
			LocationStart:    it.LocationStart,
			LocationEnd:      it.LocationEnd,
			State:            model.ItemStateApproved,
		}
	}
	return out
}

func (s *conversionService) copyFiles(ctx context.Context, files model.StringList, folder string) (model.StringList, error) {
	out := model.StringList{}
	for _, key := range files {
		dst := folder + "/" + path.Base(key)
		if err := s.storage.Copy(ctx, key, dst); err != nil {
			return nil, fmt.Errorf("copy %s: %w", key, err)
		}
		out = append(out, dst)
	}
	return out, nil
}

func (s *conversionService) removeFolder(ctx context.Context, folder string) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer cancel()
	if err := s.storage.DeleteFolder(ctx, folder); err != nil {
		log.Error().Err(err).Str("folder", folder).Msg("failed to remove copied attachments")
	}
}
