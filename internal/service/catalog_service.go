package service

import (
	"context"
	"fmt"
	"strings"

	"atlascrm/internal/dto"
	"atlascrm/internal/model"
	"atlascrm/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// Stock movement kinds.
const (
	MovementInvoice    = "invoice"
	MovementConversion = "conversion"
	MovementAdjustment = "adjustment"
	MovementRestore    = "restore"
)

type CatalogService interface {
	CreateBillboard(ctx context.Context, companyID uuid.UUID, req dto.BillboardRequest) (*dto.BillboardResponse, error)
	GetBillboard(ctx context.Context, companyID, id uuid.UUID) (*dto.BillboardResponse, error)
	ListBillboards(ctx context.Context, companyID uuid.UUID, p dto.Pagination) ([]dto.BillboardResponse, int64, error)
	UpdateBillboard(ctx context.Context, companyID, id uuid.UUID, req dto.BillboardRequest) (*dto.BillboardResponse, error)
	DeleteBillboard(ctx context.Context, companyID, id uuid.UUID) error

	CreateProduct(ctx context.Context, companyID uuid.UUID, req dto.ProductServiceRequest) (*dto.ProductServiceResponse, error)
	GetProduct(ctx context.Context, companyID, id uuid.UUID) (*dto.ProductServiceResponse, error)
	ListProducts(ctx context.Context, companyID uuid.UUID, p dto.Pagination) ([]dto.ProductServiceResponse, int64, error)
	UpdateProduct(ctx context.Context, companyID, id uuid.UUID, req dto.ProductServiceRequest) (*dto.ProductServiceResponse, error)
	DeleteProduct(ctx context.Context, companyID, id uuid.UUID) error
	AdjustStock(ctx context.Context, companyID, id uuid.UUID, req dto.StockAdjustmentRequest) (*dto.ProductServiceResponse, error)
	ListMovements(ctx context.Context, companyID, id uuid.UUID, p dto.Pagination) ([]dto.StockMovementResponse, int64, error)
}

type catalogService struct {
	billboards repository.BillboardRepository
	products   repository.ProductServiceRepository
}

func NewCatalogService(billboards repository.BillboardRepository, products repository.ProductServiceRepository) CatalogService {
	return &catalogService{billboards: billboards, products: products}
}

// ── Billboards ───────────────────────────────────────────────────────────────

func (s *catalogService) CreateBillboard(ctx context.Context, companyID uuid.UUID, req dto.BillboardRequest) (*dto.BillboardResponse, error) {
	ref := strings.TrimSpace(req.Reference)
	taken, err := s.billboards.ExistsReference(ctx, companyID, ref, uuid.Nil)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, fmt.Errorf("%w: référence %s", ErrDuplicate, ref)
	}
	b := &model.Billboard{CompanyID: companyID}
	applyBillboard(b, req)
	if err := s.billboards.Create(ctx, b); err != nil {
		return nil, err
	}
	resp := billboardToResponse(b)
	return &resp, nil
}

func (s *catalogService) GetBillboard(ctx context.Context, companyID, id uuid.UUID) (*dto.BillboardResponse, error) {
	b, err := s.billboards.FindByID(ctx, companyID, id)
	if err != nil {
		return nil, notFound(err, "panneau")
	}
	resp := billboardToResponse(b)
	return &resp, nil
}

func (s *catalogService) ListBillboards(ctx context.Context, companyID uuid.UUID, p dto.Pagination) ([]dto.BillboardResponse, int64, error) {
	rows, total, err := s.billboards.List(ctx, companyID, p)
	if err != nil {
		return nil, 0, err
	}
	out := make([]dto.BillboardResponse, len(rows))
	for i := range rows {
		out[i] = billboardToResponse(&rows[i])
	}
	return out, total, nil
}

func (s *catalogService) UpdateBillboard(ctx context.Context, companyID, id uuid.UUID, req dto.BillboardRequest) (*dto.BillboardResponse, error) {
	b, err := s.billboards.FindByID(ctx, companyID, id)
	if err != nil {
		return nil, notFound(err, "panneau")
	}
	ref := strings.TrimSpace(req.Reference)
	taken, err := s.billboards.ExistsReference(ctx, companyID, ref, id)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, fmt.Errorf("%w: référence %s", ErrDuplicate, ref)
	}
	applyBillboard(b, req)
	if err := s.billboards.Update(ctx, b); err != nil {
		return nil, err
	}
	resp := billboardToResponse(b)
	return &resp, nil
}

func (s *catalogService) DeleteBillboard(ctx context.Context, companyID, id uuid.UUID) error {
	return notFound(s.billboards.Delete(ctx, companyID, id), "panneau")
}

func applyBillboard(b *model.Billboard, req dto.BillboardRequest) {
	b.Reference = strings.TrimSpace(req.Reference)
	b.Name = req.Name
	b.City = req.City
	b.Dimensions = req.Dimensions
	b.RentalPrice = req.RentalPrice
	b.HasTax = req.HasTax == nil || *req.HasTax
}

func billboardToResponse(b *model.Billboard) dto.BillboardResponse {
	return dto.BillboardResponse{
		ID:          b.ID.String(),
		Reference:   b.Reference,
		Name:        b.Name,
		City:        b.City,
		Dimensions:  b.Dimensions,
		RentalPrice: b.RentalPrice,
		HasTax:      b.HasTax,
	}
}

// ── Products & services ──────────────────────────────────────────────────────

func (s *catalogService) CreateProduct(ctx context.Context, companyID uuid.UUID, req dto.ProductServiceRequest) (*dto.ProductServiceResponse, error) {
	ref := strings.TrimSpace(req.Reference)
	taken, err := s.products.ExistsReference(ctx, companyID, ref, uuid.Nil)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, fmt.Errorf("%w: référence %s", ErrDuplicate, ref)
	}
	p := &model.ProductService{CompanyID: companyID, Quantity: req.Quantity}
	applyProduct(p, req)
	if err := s.products.Create(ctx, p); err != nil {
		return nil, err
	}
	resp := productToResponse(p)
	return &resp, nil
}

func (s *catalogService) GetProduct(ctx context.Context, companyID, id uuid.UUID) (*dto.ProductServiceResponse, error) {
	p, err := s.products.FindByID(ctx, companyID, id)
	if err != nil {
		return nil, notFound(err, "produit/service")
	}
	resp := productToResponse(p)
	return &resp, nil
}

func (s *catalogService) ListProducts(ctx context.Context, companyID uuid.UUID, pg dto.Pagination) ([]dto.ProductServiceResponse, int64, error) {
	rows, total, err := s.products.List(ctx, companyID, pg)
	if err != nil {
		return nil, 0, err
	}
	out := make([]dto.ProductServiceResponse, len(rows))
	for i := range rows {
		out[i] = productToResponse(&rows[i])
	}
	return out, total, nil
}

// UpdateProduct edits the product description. Quantity only moves through
// AdjustStock and documents so every change leaves a movement.
func (s *catalogService) UpdateProduct(ctx context.Context, companyID, id uuid.UUID, req dto.ProductServiceRequest) (*dto.ProductServiceResponse, error) {
	p, err := s.products.FindByID(ctx, companyID, id)
	if err != nil {
		return nil, notFound(err, "produit/service")
	}
	ref := strings.TrimSpace(req.Reference)
	taken, err := s.products.ExistsReference(ctx, companyID, ref, id)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, fmt.Errorf("%w: référence %s", ErrDuplicate, ref)
	}
	applyProduct(p, req)
	if err := s.products.Update(ctx, p); err != nil {
		return nil, err
	}
	resp := productToResponse(p)
	return &resp, nil
}

func (s *catalogService) DeleteProduct(ctx context.Context, companyID, id uuid.UUID) error {
	return notFound(s.products.Delete(ctx, companyID, id), "produit/service")
}

func (s *catalogService) AdjustStock(ctx context.Context, companyID, id uuid.UUID, req dto.StockAdjustmentRequest) (*dto.ProductServiceResponse, error) {
	err := runTx(ctx, s.products.DB(), func(tx *gorm.DB) error {
		return s.products.MoveQuantityTx(ctx, tx, companyID, id, req.Delta, MovementAdjustment, req.Reason, nil)
	})
	if err != nil {
		return nil, notFound(err, "produit/service")
	}
	log.Info().Str("product_id", id.String()).Int("delta", req.Delta).Msg("stock adjusted")
	return s.GetProduct(ctx, companyID, id)
}

func (s *catalogService) ListMovements(ctx context.Context, companyID, id uuid.UUID, pg dto.Pagination) ([]dto.StockMovementResponse, int64, error) {
	rows, total, err := s.products.ListMovements(ctx, companyID, id, pg)
	if err != nil {
		return nil, 0, err
	}
	out := make([]dto.StockMovementResponse, len(rows))
	for i, m := range rows {
		out[i] = dto.StockMovementResponse{
			ID:             m.ID.String(),
			Kind:           m.Kind,
			Quantity:       m.Quantity,
			QuantityBefore: m.QuantityBefore,
			QuantityAfter:  m.QuantityAfter,
			Reason:         m.Reason,
			ReferenceID:    uuidPtrString(m.ReferenceID),
			CreatedAt:      m.CreatedAt,
		}
	}
	return out, total, nil
}

func applyProduct(p *model.ProductService, req dto.ProductServiceRequest) {
	p.Reference = strings.TrimSpace(req.Reference)
	p.Designation = req.Designation
	p.Kind = req.Kind
	if p.Kind == "" {
		p.Kind = "PRODUCT"
	}
	p.UnitPrice = req.UnitPrice
	p.HasTax = req.HasTax == nil || *req.HasTax
}

func productToResponse(p *model.ProductService) dto.ProductServiceResponse {
	return dto.ProductServiceResponse{
		ID:          p.ID.String(),
		Reference:   p.Reference,
		Designation: p.Designation,
		Kind:        p.Kind,
		UnitPrice:   p.UnitPrice,
		Quantity:    p.Quantity,
		HasTax:      p.HasTax,
	}
}

func uuidPtrString(id *uuid.UUID) *string {
	if id == nil {
		return nil
	}
	s := id.String()
	return &s
}
