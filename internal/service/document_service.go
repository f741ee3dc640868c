package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"path"
	"strings"
	"time"

	"atlascrm/internal/dto"
	"atlascrm/internal/infra"
	"atlascrm/internal/model"
	"atlascrm/internal/pricing"
	"atlascrm/internal/repository"
	"atlascrm/internal/worker"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// DocumentService handles quotes, delivery notes, invoices and purchase
// orders. Every method takes the document kind (model.Kind*).
type DocumentService interface {
	Create(ctx context.Context, companyID uuid.UUID, kind string, req dto.CreateDocumentRequest, files []dto.Upload) (*dto.DocumentResponse, error)
	Get(ctx context.Context, companyID uuid.UUID, kind string, id uuid.UUID) (*dto.DocumentResponse, error)
	List(ctx context.Context, companyID uuid.UUID, kind string, p dto.Pagination) ([]dto.DocumentResponse, int64, error)
	Duplicate(ctx context.Context, companyID uuid.UUID, kind string, id uuid.UUID) (*dto.DocumentResponse, error)
	RenderPDF(ctx context.Context, companyID uuid.UUID, kind string, id uuid.UUID) (string, []byte, error)
	Send(ctx context.Context, companyID uuid.UUID, kind string, id uuid.UUID, req dto.SendDocumentRequest) error
	Delete(ctx context.Context, companyID uuid.UUID, kind string, id uuid.UUID) error
	Reference(ctx context.Context, companyID uuid.UUID, kind string, id uuid.UUID) (string, error)
}

type documentService struct {
	repos      *repository.Repositories
	storage    infra.Storage
	checker    *ConflictChecker
	dispatcher *worker.Dispatcher
	dashboard  DashboardService
}

func NewDocumentService(repos *repository.Repositories, storage infra.Storage, dispatcher *worker.Dispatcher, dashboard DashboardService) DocumentService {
	return &documentService{
		repos:      repos,
		storage:    storage,
		checker:    NewConflictChecker(repos.Billboards),
		dispatcher: dispatcher,
		dashboard:  dashboard,
	}
}

func isKind(kind string) bool {
	switch kind {
	case model.KindQuote, model.KindDeliveryNote, model.KindInvoice, model.KindPurchaseOrder:
		return true
	}
	return false
}

func kindLabel(kind string) string {
	switch kind {
	case model.KindQuote:
		return "devis"
	case model.KindDeliveryNote:
		return "bon de livraison"
	case model.KindInvoice:
		return "facture"
	case model.KindPurchaseOrder:
		return "bon de commande"
	}
	return "document"
}

// ── Create ────────────────────────────────────────────────────────────────────
// Totals are stored as the caller computed them. The server recomputes them
// and only logs a mismatch. Inside one transaction:
//   1. next sequential reference for the kind
//   2. attachments stored under the document folder
//   3. document + items
//   4. invoice: conflict check, client due, billboards, stock
//      purchase order: supplier due

func (s *documentService) Create(ctx context.Context, companyID uuid.UUID, kind string, req dto.CreateDocumentRequest, files []dto.Upload) (*dto.DocumentResponse, error) {
	if !isKind(kind) {
		return nil, invalid("type de document inconnu %q", kind)
	}
	company, err := s.repos.Companies.FindByID(ctx, companyID)
	if err != nil {
		return nil, notFound(err, "entreprise")
	}
	counterpartID, err := s.resolveCounterpart(ctx, companyID, kind, req)
	if err != nil {
		return nil, err
	}
	projectID, err := s.resolveProject(ctx, companyID, req.ProjectID)
	if err != nil {
		return nil, err
	}
	items, err := buildItems(companyID, kind, req.Items)
	if err != nil {
		return nil, err
	}
	checkTotals(company, kind, req, items)

	discountType := req.DiscountType
	if discountType == "" {
		discountType = string(pricing.DiscountPercent)
	}
	header := model.DocumentHeader{
		CompanyID:    companyID,
		ProjectID:    projectID,
		TotalHT:      req.TotalHT,
		TotalTTC:     req.TotalTTC,
		Discount:     req.Discount,
		DiscountType: discountType,
		AmountType:   req.AmountType,
		PaymentLimit: req.PaymentLimit,
		Note:         req.Note,
		Files:        model.StringList{},
	}

	var id uuid.UUID
	var folder string
	err = runTx(ctx, s.repos.Companies.DB(), func(tx *gorm.DB) error {
		ref, err := s.repos.Companies.NextReferenceTx(ctx, tx, companyID, kind)
		if err != nil {
			return err
		}
		header.Reference = ref
		folder = infra.RecordFolder(companyID, kind, ref)
		keys, err := s.storeUploads(ctx, folder, files)
		if err != nil {
			return err
		}
		header.Files = keys
		id, err = s.persistTx(ctx, tx, kind, header, counterpartID, items)
		return err
	})
	if err != nil {
		if len(files) > 0 && folder != "" {
			s.removeFolder(ctx, folder)
		}
		return nil, err
	}

	log.Info().
		Str("kind", kind).
		Str("document_id", id.String()).
		Str("reference", header.Reference).
		Str("company_id", companyID.String()).
		Msg("document created")

	if kind == model.KindInvoice || kind == model.KindPurchaseOrder {
		invalidateDashboard(ctx, s.dashboard, companyID)
	}
	return s.Get(ctx, companyID, kind, id)
}

func (s *documentService) resolveCounterpart(ctx context.Context, companyID uuid.UUID, kind string, req dto.CreateDocumentRequest) (uuid.UUID, error) {
	if kind == model.KindPurchaseOrder {
		id, err := uuid.Parse(req.SupplierID)
		if err != nil {
			return uuid.Nil, invalid("fournisseur requis")
		}
		if _, err := s.repos.Suppliers.FindByID(ctx, companyID, id); err != nil {
			return uuid.Nil, notFound(err, "fournisseur")
		}
		return id, nil
	}
	id, err := uuid.Parse(req.ClientID)
	if err != nil {
		return uuid.Nil, invalid("client requis")
	}
	if _, err := s.repos.Clients.FindByID(ctx, companyID, id); err != nil {
		return uuid.Nil, notFound(err, "client")
	}
	return id, nil
}

func (s *documentService) resolveProject(ctx context.Context, companyID uuid.UUID, raw *string) (*uuid.UUID, error) {
	if raw == nil || *raw == "" {
		return nil, nil
	}
	id, err := uuid.Parse(*raw)
	if err != nil {
		return nil, invalid("projet invalide")
	}
	if _, err := s.repos.Projects.FindByID(ctx, companyID, id); err != nil {
		return nil, notFound(err, "projet")
	}
	return &id, nil
}

// buildItems maps request lines to items. Invoice lines are approved
// bookings; lines of other documents stay pending.
func buildItems(companyID uuid.UUID, kind string, inputs []dto.ItemInput) ([]model.Item, error) {
	state := model.ItemStatePending
	if kind == model.KindInvoice {
		state = model.ItemStateApproved
	}
	items := make([]model.Item, 0, len(inputs))
	for _, in := range inputs {
		it := model.Item{
			CompanyID:     companyID,
			ItemType:      in.ItemType,
			Name:          in.Name,
			Description:   in.Description,
			Price:         in.Price,
			Quantity:      in.Quantity,
			Discount:      in.Discount,
			DiscountType:  in.DiscountType,
			HasTax:        in.HasTax,
			Currency:      in.Currency,
			LocationStart: in.LocationStart,
			LocationEnd:   in.LocationEnd,
			State:         state,
		}
		if it.DiscountType == "" {
			it.DiscountType = string(pricing.DiscountPercent)
		}
		if in.BillboardID != nil && *in.BillboardID != "" {
			id, err := uuid.Parse(*in.BillboardID)
			if err != nil {
				return nil, invalid("panneau invalide pour %s", in.Name)
			}
			it.BillboardID = &id
		}
		if in.ProductServiceID != nil && *in.ProductServiceID != "" {
			id, err := uuid.Parse(*in.ProductServiceID)
			if err != nil {
				return nil, invalid("produit invalide pour %s", in.Name)
			}
			it.ProductServiceID = &id
		}
		if it.ItemType == model.ItemTypeBillboard && it.BillboardID == nil {
			return nil, invalid("la ligne %s doit référencer un panneau", in.Name)
		}
		if it.LocationStart != nil && it.LocationEnd != nil && it.LocationEnd.Before(*it.LocationStart) {
			return nil, invalid("période de location invalide pour %s", in.Name)
		}
		items = append(items, it)
	}
	return items, nil
}

// checkTotals recomputes the document totals and logs when the caller's
// figures differ. It never rejects the document.
func checkTotals(company *model.Company, kind string, req dto.CreateDocumentRequest, items []model.Item) {
	res := pricing.Calculate(lineItems(items), company.Taxes, documentDiscount(req.Discount, req.DiscountType), pricing.AmountType(req.AmountType))
	if res.TotalWithoutTaxes.Equal(req.TotalHT) && res.TotalWithTaxes.Equal(req.TotalTTC) {
		return
	}
	log.Warn().
		Str("kind", kind).
		Str("company_id", company.ID.String()).
		Str("total_ht", req.TotalHT.String()).
		Str("computed_ht", res.TotalWithoutTaxes.String()).
		Str("total_ttc", req.TotalTTC.String()).
		Str("computed_ttc", res.TotalWithTaxes.String()).
		Msg("document totals differ from server computation")
}

func lineItems(items []model.Item) []pricing.LineItem {
	out := make([]pricing.LineItem, len(items))
	for i, it := range items {
		out[i] = pricing.LineItem{
			Price:        it.Price,
			Quantity:     decimal.NewFromInt(int64(it.Quantity)),
			Discount:     it.Discount,
			DiscountType: pricing.DiscountType(it.DiscountType),
			HasTax:       it.HasTax,
		}
	}
	return out
}

func documentDiscount(value decimal.Decimal, typ string) *pricing.DocumentDiscount {
	if !value.IsPositive() {
		return nil
	}
	return &pricing.DocumentDiscount{Value: value, Type: pricing.DiscountType(typ)}
}

func (s *documentService) persistTx(ctx context.Context, tx *gorm.DB, kind string, header model.DocumentHeader, counterpartID uuid.UUID, items []model.Item) (uuid.UUID, error) {
	switch kind {
	case model.KindQuote:
		q := &model.Quote{DocumentHeader: header, ClientID: counterpartID, Items: items}
		if err := s.repos.Quotes.Create(ctx, tx, q); err != nil {
			return uuid.Nil, err
		}
		return q.ID, nil

	case model.KindDeliveryNote:
		n := &model.DeliveryNote{DocumentHeader: header, ClientID: counterpartID, Items: items}
		if err := s.repos.DeliveryNotes.Create(ctx, tx, n); err != nil {
			return uuid.Nil, err
		}
		return n.ID, nil

	case model.KindInvoice:
		if err := s.checker.CheckTx(ctx, tx, header.CompanyID, items, nil); err != nil {
			return uuid.Nil, err
		}
		inv := &model.Invoice{DocumentHeader: header, ClientID: counterpartID, Items: items}
		if err := s.repos.Invoices.Create(ctx, tx, inv); err != nil {
			return uuid.Nil, err
		}
		if err := applyInvoiceEffectsTx(ctx, tx, s.repos, inv, MovementInvoice); err != nil {
			return uuid.Nil, err
		}
		return inv.ID, nil

	case model.KindPurchaseOrder:
		po := &model.PurchaseOrder{DocumentHeader: header, SupplierID: counterpartID, Items: items}
		if err := s.repos.PurchaseOrders.Create(ctx, tx, po); err != nil {
			return uuid.Nil, err
		}
		total := pricing.Total(po.AmountType, po.TotalHT, po.TotalTTC)
		if err := s.repos.Suppliers.AdjustBalanceTx(ctx, tx, po.CompanyID, po.SupplierID, total, decimal.Zero); err != nil {
			return uuid.Nil, fmt.Errorf("supplier balance: %w", err)
		}
		return po.ID, nil
	}
	return uuid.Nil, invalid("type de document inconnu %q", kind)
}

// applyInvoiceEffectsTx books a new invoice against its client: due grows
// by the billed total, rented billboards are linked to the client and
// product quantities are consumed.
func applyInvoiceEffectsTx(ctx context.Context, tx *gorm.DB, repos *repository.Repositories, inv *model.Invoice, movement string) error {
	total := pricing.Total(inv.AmountType, inv.TotalHT, inv.TotalTTC)
	if err := repos.Clients.AdjustBalanceTx(ctx, tx, inv.CompanyID, inv.ClientID, total, decimal.Zero); err != nil {
		return fmt.Errorf("client balance: %w", notFound(err, "client"))
	}

	var billboardIDs []uuid.UUID
	seen := make(map[uuid.UUID]bool)
	for _, it := range inv.Items {
		if it.BillboardID != nil && !seen[*it.BillboardID] {
			seen[*it.BillboardID] = true
			billboardIDs = append(billboardIDs, *it.BillboardID)
		}
	}
	if len(billboardIDs) > 0 {
		billboards, err := repos.Billboards.FindByIDsTx(ctx, tx, inv.CompanyID, billboardIDs)
		if err != nil {
			return err
		}
		if err := repos.Billboards.AttachToClientTx(ctx, tx, inv.ClientID, billboards); err != nil {
			return fmt.Errorf("attach billboards: %w", err)
		}
	}

	for _, it := range inv.Items {
		if it.ProductServiceID == nil {
			continue
		}
		reason := fmt.Sprintf("Facture %s", inv.Reference)
		if err := repos.Products.MoveQuantityTx(ctx, tx, inv.CompanyID, *it.ProductServiceID, -it.Quantity, movement, reason, &inv.ID); err != nil {
			return fmt.Errorf("stock %s: %w", it.Name, notFound(err, "produit/service"))
		}
	}
	return nil
}

func (s *documentService) storeUploads(ctx context.Context, folder string, files []dto.Upload) (model.StringList, error) {
	keys := model.StringList{}
	for _, f := range files {
		name := path.Base(strings.ReplaceAll(f.Name, "\\", "/"))
		if name == "." || name == "/" || name == "" {
			name = "fichier"
		}
		key := folder + "/" + name
		if err := s.storage.Put(ctx, key, bytes.NewReader(f.Data)); err != nil {
			return nil, fmt.Errorf("store %s: %w", name, err)
		}
		keys = append(keys, key)
	}
	return keys, nil
}

func (s *documentService) removeFolder(ctx context.Context, folder string) {
	if s.storage == nil {
		return
	}
	if err := s.storage.DeleteFolder(ctx, folder); err != nil {
		log.Error().Err(err).Str("folder", folder).Msg("failed to remove document folder")
	}
}

// ── Read ──────────────────────────────────────────────────────────────────────

// loaded is the kind-independent view of a stored document.
type loaded struct {
	ID          uuid.UUID
	Kind        string
	Header      model.DocumentHeader
	Items       []model.Item
	ClientID    *uuid.UUID
	SupplierID  *uuid.UUID
	Payee       *decimal.Decimal
	IsPaid      *bool
	IsCompleted *bool

	FromRecordID        *uuid.UUID
	FromRecordName      string
	FromRecordReference string
	CreatedAt           time.Time
}

func fromQuote(q *model.Quote) *loaded {
	return &loaded{ID: q.ID, Kind: model.KindQuote, Header: q.DocumentHeader, Items: q.Items,
		ClientID: &q.ClientID, IsCompleted: &q.IsCompleted, CreatedAt: q.CreatedAt}
}

func fromDeliveryNote(n *model.DeliveryNote) *loaded {
	return &loaded{ID: n.ID, Kind: model.KindDeliveryNote, Header: n.DocumentHeader, Items: n.Items,
		ClientID: &n.ClientID, IsCompleted: &n.IsCompleted, CreatedAt: n.CreatedAt}
}

func fromInvoice(inv *model.Invoice) *loaded {
	return &loaded{ID: inv.ID, Kind: model.KindInvoice, Header: inv.DocumentHeader, Items: inv.Items,
		ClientID: &inv.ClientID, Payee: &inv.Payee, IsPaid: &inv.IsPaid, CreatedAt: inv.CreatedAt,
		FromRecordID: inv.FromRecordID, FromRecordName: inv.FromRecordName, FromRecordReference: inv.FromRecordReference}
}

func fromPurchaseOrder(po *model.PurchaseOrder) *loaded {
	return &loaded{ID: po.ID, Kind: model.KindPurchaseOrder, Header: po.DocumentHeader, Items: po.Items,
		SupplierID: &po.SupplierID, Payee: &po.Payee, IsPaid: &po.IsPaid, CreatedAt: po.CreatedAt}
}

func (s *documentService) load(ctx context.Context, companyID uuid.UUID, kind string, id uuid.UUID) (*loaded, error) {
	switch kind {
	case model.KindQuote:
		q, err := s.repos.Quotes.FindByID(ctx, companyID, id)
		if err != nil {
			return nil, notFound(err, kindLabel(kind))
		}
		return fromQuote(q), nil
	case model.KindDeliveryNote:
		n, err := s.repos.DeliveryNotes.FindByID(ctx, companyID, id)
		if err != nil {
			return nil, notFound(err, kindLabel(kind))
		}
		return fromDeliveryNote(n), nil
	case model.KindInvoice:
		inv, err := s.repos.Invoices.FindByID(ctx, companyID, id)
		if err != nil {
			return nil, notFound(err, kindLabel(kind))
		}
		return fromInvoice(inv), nil
	case model.KindPurchaseOrder:
		po, err := s.repos.PurchaseOrders.FindByID(ctx, companyID, id)
		if err != nil {
			return nil, notFound(err, kindLabel(kind))
		}
		return fromPurchaseOrder(po), nil
	}
	return nil, invalid("type de document inconnu %q", kind)
}

func (s *documentService) Get(ctx context.Context, companyID uuid.UUID, kind string, id uuid.UUID) (*dto.DocumentResponse, error) {
	doc, err := s.load(ctx, companyID, kind, id)
	if err != nil {
		return nil, err
	}
	resp := doc.toResponse()
	return &resp, nil
}

func (s *documentService) Reference(ctx context.Context, companyID uuid.UUID, kind string, id uuid.UUID) (string, error) {
	doc, err := s.load(ctx, companyID, kind, id)
	if err != nil {
		return "", err
	}
	return doc.Header.Reference, nil
}

func (s *documentService) List(ctx context.Context, companyID uuid.UUID, kind string, p dto.Pagination) ([]dto.DocumentResponse, int64, error) {
	var docs []*loaded
	var total int64
	switch kind {
	case model.KindQuote:
		rows, n, err := s.repos.Quotes.List(ctx, companyID, p)
		if err != nil {
			return nil, 0, err
		}
		for i := range rows {
			docs = append(docs, fromQuote(&rows[i]))
		}
		total = n
	case model.KindDeliveryNote:
		rows, n, err := s.repos.DeliveryNotes.List(ctx, companyID, p)
		if err != nil {
			return nil, 0, err
		}
		for i := range rows {
			docs = append(docs, fromDeliveryNote(&rows[i]))
		}
		total = n
	case model.KindInvoice:
		rows, n, err := s.repos.Invoices.List(ctx, companyID, p)
		if err != nil {
			return nil, 0, err
		}
		for i := range rows {
			docs = append(docs, fromInvoice(&rows[i]))
		}
		total = n
	case model.KindPurchaseOrder:
		rows, n, err := s.repos.PurchaseOrders.List(ctx, companyID, p)
		if err != nil {
			return nil, 0, err
		}
		for i := range rows {
			docs = append(docs, fromPurchaseOrder(&rows[i]))
		}
		total = n
	default:
		return nil, 0, invalid("type de document inconnu %q", kind)
	}

	out := make([]dto.DocumentResponse, len(docs))
	for i, d := range docs {
		out[i] = d.toResponse()
	}
	return out, total, nil
}

func (d *loaded) toResponse() dto.DocumentResponse {
	h := d.Header
	files := []string(h.Files)
	if files == nil {
		files = []string{}
	}
	resp := dto.DocumentResponse{
		ID:                  d.ID.String(),
		Kind:                d.Kind,
		Reference:           h.Reference,
		ProjectID:           uuidPtrString(h.ProjectID),
		TotalHT:             h.TotalHT,
		TotalTTC:            h.TotalTTC,
		Discount:            h.Discount,
		DiscountType:        h.DiscountType,
		AmountType:          h.AmountType,
		PaymentLimit:        h.PaymentLimit,
		Note:                h.Note,
		Payee:               d.Payee,
		IsPaid:              d.IsPaid,
		IsCompleted:         d.IsCompleted,
		FromRecordID:        uuidPtrString(d.FromRecordID),
		FromRecordName:      d.FromRecordName,
		FromRecordReference: d.FromRecordReference,
		Files:               files,
		Items:               make([]dto.ItemResponse, len(d.Items)),
		CreatedAt:           d.CreatedAt,
	}
	if d.ClientID != nil {
		resp.ClientID = d.ClientID.String()
	}
	if d.SupplierID != nil {
		resp.SupplierID = d.SupplierID.String()
	}
	for i, it := range d.Items {
		resp.Items[i] = dto.ItemResponse{
			ID:               it.ID.String(),
			ItemType:         it.ItemType,
			Name:             it.Name,
			Description:      it.Description,
			Price:            it.Price,
			Quantity:         it.Quantity,
			Discount:         it.Discount,
			DiscountType:     it.DiscountType,
			HasTax:           it.HasTax,
			Currency:         it.Currency,
			BillboardID:      uuidPtrString(it.BillboardID),
			ProductServiceID: uuidPtrString(it.ProductServiceID),
			LocationStart:    it.LocationStart,
			LocationEnd:      it.LocationEnd,
			State:            it.State,
		}
	}
	return resp
}

// ── Duplicate ─────────────────────────────────────────────────────────────────

// Duplicate creates a new document of the same kind with the same lines and
// a fresh reference. It goes through Create, so an invoice copy books its
// billboards and stock again.
func (s *documentService) Duplicate(ctx context.Context, companyID uuid.UUID, kind string, id uuid.UUID) (*dto.DocumentResponse, error) {
	doc, err := s.load(ctx, companyID, kind, id)
	if err != nil {
		return nil, err
	}
	h := doc.Header
	req := dto.CreateDocumentRequest{
		ProjectID:    uuidPtrString(h.ProjectID),
		TotalHT:      h.TotalHT,
		TotalTTC:     h.TotalTTC,
		Discount:     h.Discount,
		DiscountType: h.DiscountType,
		AmountType:   h.AmountType,
		PaymentLimit: h.PaymentLimit,
		Note:         h.Note,
		Items:        make([]dto.ItemInput, len(doc.Items)),
	}
	if doc.ClientID != nil {
		req.ClientID = doc.ClientID.String()
	}
	if doc.SupplierID != nil {
		req.SupplierID = doc.SupplierID.String()
	}
	for i, it := range doc.Items {
		req.Items[i] = dto.ItemInput{
			ItemType:         it.ItemType,
			Name:             it.Name,
			Description:      it.Description,
			Price:            it.Price,
			Quantity:         it.Quantity,
			Discount:         it.Discount,
			DiscountType:     it.DiscountType,
			HasTax:           it.HasTax,
			Currency:         it.Currency,
			BillboardID:      uuidPtrString(it.BillboardID),
			ProductServiceID: uuidPtrString(it.ProductServiceID),
			LocationStart:    it.LocationStart,
			LocationEnd:      it.LocationEnd,
		}
	}
	return s.Create(ctx, companyID, kind, req, nil)
}

// ── PDF & email ───────────────────────────────────────────────────────────────

var pdfTitles = map[string]string{
	model.KindQuote:         "DEVIS",
	model.KindDeliveryNote:  "BON DE LIVRAISON",
	model.KindInvoice:       "FACTURE",
	model.KindPurchaseOrder: "BON DE COMMANDE",
}

func (s *documentService) RenderPDF(ctx context.Context, companyID uuid.UUID, kind string, id uuid.UUID) (string, []byte, error) {
	doc, err := s.load(ctx, companyID, kind, id)
	if err != nil {
		return "", nil, err
	}
	company, err := s.repos.Companies.FindByID(ctx, companyID)
	if err != nil {
		return "", nil, notFound(err, "entreprise")
	}
	h := doc.Header

	out := infra.PDFDocument{
		Title:          pdfTitles[kind],
		Reference:      h.Reference,
		Date:           doc.CreatedAt,
		PaymentLimit:   h.PaymentLimit,
		CompanyName:    company.Name,
		CompanyAddress: strings.TrimSpace(strings.Join([]string{company.Address, company.City, company.Country}, " ")),
		CompanyEmail:   company.Email,
		CompanyPhone:   company.Phone,
		Logo:           readLogo(ctx, s.storage, company),
		Currency:       company.Currency,
		TotalHT:        h.TotalHT,
		TotalTTC:       h.TotalTTC,
		AmountType:     h.AmountType,
		Payee:          doc.Payee,
		Note:           h.Note,
	}

	switch {
	case doc.ClientID != nil:
		c, err := s.repos.Clients.FindByID(ctx, companyID, *doc.ClientID)
		if err != nil {
			return "", nil, notFound(err, "client")
		}
		out.PartyLabel, out.PartyName, out.PartyAddress, out.PartyEmail = "Client", c.CompanyName, c.Address, c.Email
	case doc.SupplierID != nil:
		sp, err := s.repos.Suppliers.FindByID(ctx, companyID, *doc.SupplierID)
		if err != nil {
			return "", nil, notFound(err, "fournisseur")
		}
		out.PartyLabel, out.PartyName, out.PartyAddress, out.PartyEmail = "Fournisseur", sp.CompanyName, sp.Address, sp.Email
	}

	lines := lineItems(doc.Items)
	for i, it := range doc.Items {
		line := infra.PDFLine{
			Name:        it.Name,
			Description: it.Description,
			Quantity:    it.Quantity,
			UnitPrice:   it.Price,
			Total:       pricing.LineTotal(lines[i]),
		}
		if it.LocationStart != nil && it.LocationEnd != nil {
			line.Period = it.LocationStart.Format("02/01/2006") + " - " + it.LocationEnd.Format("02/01/2006")
		}
		line.Discount = discountLabel(it.Discount, it.DiscountType, company.Currency)
		out.Lines = append(out.Lines, line)
	}
	out.Discount = discountLabel(h.Discount, h.DiscountType, company.Currency)

	res := pricing.Calculate(lines, company.Taxes, documentDiscount(h.Discount, h.DiscountType), pricing.AmountType(h.AmountType))
	for _, t := range res.Taxes {
		out.Taxes = append(out.Taxes, infra.PDFTax{Name: t.Name, Amount: t.TotalTax})
	}

	var buf bytes.Buffer
	if err := infra.RenderDocumentPDF(&buf, out); err != nil {
		return "", nil, fmt.Errorf("render %s %s: %w", kind, h.Reference, err)
	}
	return h.Reference, buf.Bytes(), nil
}

func discountLabel(value decimal.Decimal, typ, currency string) string {
	if !value.IsPositive() {
		return ""
	}
	if typ == string(pricing.DiscountMoney) {
		return value.StringFixed(2) + " " + currency
	}
	return value.String() + " %"
}

// Send queues the document for rendering and delivery by mail.
func (s *documentService) Send(ctx context.Context, companyID uuid.UUID, kind string, id uuid.UUID, req dto.SendDocumentRequest) error {
	ref, err := s.Reference(ctx, companyID, kind, id)
	if err != nil {
		return err
	}
	err = s.dispatcher.EnqueueDocument(ctx, worker.DocumentJobPayload{
		CompanyID:  companyID.String(),
		Kind:       kind,
		DocumentID: id.String(),
		To:         req.To,
		Subject:    req.Subject,
		Message:    req.Message,
	})
	if err != nil {
		return fmt.Errorf("enqueue %s %s: %w", kind, ref, err)
	}
	log.Info().Str("kind", kind).Str("reference", ref).Strs("to", req.To).Msg("document queued for delivery")
	return nil
}

// ── Delete ────────────────────────────────────────────────────────────────────
// Deleting an invoice or purchase order reverts the counterpart due by the
// unpaid remainder and restores consumed stock. Payments and their ledger
// entries go with the document. Files are removed after commit.

func (s *documentService) Delete(ctx context.Context, companyID uuid.UUID, kind string, id uuid.UUID) error {
	var folder string
	err := runTx(ctx, s.repos.Companies.DB(), func(tx *gorm.DB) error {
		switch kind {
		case model.KindQuote:
			q, err := s.repos.Quotes.FindByIDForUpdateTx(ctx, tx, companyID, id)
			if err != nil {
				return err
			}
			folder = infra.RecordFolder(companyID, kind, q.Reference)
			return s.repos.Quotes.DeleteTx(ctx, tx, companyID, id)

		case model.KindDeliveryNote:
			n, err := s.repos.DeliveryNotes.FindByIDForUpdateTx(ctx, tx, companyID, id)
			if err != nil {
				return err
			}
			folder = infra.RecordFolder(companyID, kind, n.Reference)
			return s.repos.DeliveryNotes.DeleteTx(ctx, tx, companyID, id)

		case model.KindInvoice:
			inv, err := s.repos.Invoices.FindByIDForUpdateTx(ctx, tx, companyID, id)
			if err != nil {
				return err
			}
			folder = infra.RecordFolder(companyID, kind, inv.Reference)
			remaining := pricing.Total(inv.AmountType, inv.TotalHT, inv.TotalTTC).Sub(inv.Payee)
			if remaining.IsPositive() {
				if err := s.repos.Clients.AdjustBalanceTx(ctx, tx, companyID, inv.ClientID, remaining.Neg(), decimal.Zero); err != nil {
					return fmt.Errorf("client balance: %w", err)
				}
			}
			for _, it := range inv.Items {
				if it.ProductServiceID == nil {
					continue
				}
				reason := fmt.Sprintf("Suppression facture %s", inv.Reference)
				if err := s.repos.Products.MoveQuantityTx(ctx, tx, companyID, *it.ProductServiceID, it.Quantity, MovementRestore, reason, &inv.ID); err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
					return err
				}
			}
			if err := s.repos.Ledger.DeleteByInvoiceTx(ctx, tx, id); err != nil {
				return err
			}
			if err := s.repos.Payments.DeleteByInvoiceTx(ctx, tx, id); err != nil {
				return err
			}
			return s.repos.Invoices.DeleteTx(ctx, tx, companyID, id)

		case model.KindPurchaseOrder:
			po, err := s.repos.PurchaseOrders.FindByIDForUpdateTx(ctx, tx, companyID, id)
			if err != nil {
				return err
			}
			folder = infra.RecordFolder(companyID, kind, po.Reference)
			remaining := pricing.Total(po.AmountType, po.TotalHT, po.TotalTTC).Sub(po.Payee)
			if remaining.IsPositive() {
				if err := s.repos.Suppliers.AdjustBalanceTx(ctx, tx, companyID, po.SupplierID, remaining.Neg(), decimal.Zero); err != nil {
					return fmt.Errorf("supplier balance: %w", err)
				}
			}
			if err := s.repos.Ledger.DeleteByPurchaseOrderTx(ctx, tx, id); err != nil {
				return err
			}
			if err := s.repos.Payments.DeleteByPurchaseOrderTx(ctx, tx, id); err != nil {
				return err
			}
			return s.repos.PurchaseOrders.DeleteTx(ctx, tx, companyID, id)
		}
		return invalid("type de document inconnu %q", kind)
	})
	if err != nil {
		return notFound(err, kindLabel(kind))
	}

	s.removeFolder(ctx, folder)
	if kind == model.KindInvoice || kind == model.KindPurchaseOrder {
		invalidateDashboard(ctx, s.dashboard, companyID)
	}
	log.Info().Str("kind", kind).Str("document_id", id.String()).Msg("document deleted")
	return nil
}
