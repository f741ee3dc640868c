package service

import (
	"context"
	"fmt"
	"strings"

	"atlascrm/internal/dto"
	"atlascrm/internal/infra"
	"atlascrm/internal/model"
	"atlascrm/internal/repository"

	"github.com/google/uuid"
)

// ContactService manages clients or suppliers, depending on the constructor.
type ContactService interface {
	Create(ctx context.Context, companyID uuid.UUID, req dto.ContactRequest) (*dto.ContactResponse, error)
	Get(ctx context.Context, companyID, id uuid.UUID) (*dto.ContactResponse, error)
	List(ctx context.Context, companyID uuid.UUID, p dto.Pagination) ([]dto.ContactResponse, int64, error)
	Update(ctx context.Context, companyID, id uuid.UUID, req dto.ContactRequest) (*dto.ContactResponse, error)
	Delete(ctx context.Context, companyID, id uuid.UUID) error
}

type contactService[T repository.Contact] struct {
	repo       repository.ContactRepository[T]
	region     string
	label      string
	apply      func(c *T, companyID uuid.UUID, req dto.ContactRequest)
	toResponse func(c *T) dto.ContactResponse
}

func NewClientService(repo repository.ContactRepository[model.Client], phoneRegion string) ContactService {
	return &contactService[model.Client]{
		repo:   repo,
		region: phoneRegion,
		label:  "client",
		apply: func(c *model.Client, companyID uuid.UUID, req dto.ContactRequest) {
			c.CompanyID = companyID
			c.CompanyName, c.FirstName, c.LastName = req.CompanyName, req.FirstName, req.LastName
			c.Email, c.Phone, c.Address = req.Email, req.Phone, req.Address
		},
		toResponse: clientToResponse,
	}
}

func NewSupplierService(repo repository.ContactRepository[model.Supplier], phoneRegion string) ContactService {
	return &contactService[model.Supplier]{
		repo:   repo,
		region: phoneRegion,
		label:  "fournisseur",
		apply: func(s *model.Supplier, companyID uuid.UUID, req dto.ContactRequest) {
			s.CompanyID = companyID
			s.CompanyName, s.FirstName, s.LastName = req.CompanyName, req.FirstName, req.LastName
			s.Email, s.Phone, s.Address = req.Email, req.Phone, req.Address
		},
		toResponse: supplierToResponse,
	}
}

// normalize cleans the request in place: lower-case email, E.164 phone.
func (s *contactService[T]) normalize(req *dto.ContactRequest) error {
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	req.CompanyName = strings.TrimSpace(req.CompanyName)
	phone, err := infra.NormalizePhone(req.Phone, s.region)
	if err != nil {
		return invalid("téléphone %q: %v", req.Phone, err)
	}
	req.Phone = phone
	return nil
}

func (s *contactService[T]) Create(ctx context.Context, companyID uuid.UUID, req dto.ContactRequest) (*dto.ContactResponse, error) {
	if err := s.normalize(&req); err != nil {
		return nil, err
	}
	taken, err := s.repo.ExistsEmail(ctx, companyID, req.Email, uuid.Nil)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, fmt.Errorf("%w: email %s", ErrDuplicate, req.Email)
	}

	var c T
	s.apply(&c, companyID, req)
	if err := s.repo.Create(ctx, &c); err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("%w: email %s", ErrDuplicate, req.Email)
		}
		return nil, err
	}
	resp := s.toResponse(&c)
	return &resp, nil
}

func (s *contactService[T]) Get(ctx context.Context, companyID, id uuid.UUID) (*dto.ContactResponse, error) {
	c, err := s.repo.FindByID(ctx, companyID, id)
	if err != nil {
		return nil, notFound(err, s.label)
	}
	resp := s.toResponse(c)
	return &resp, nil
}

func (s *contactService[T]) List(ctx context.Context, companyID uuid.UUID, p dto.Pagination) ([]dto.ContactResponse, int64, error) {
	rows, total, err := s.repo.List(ctx, companyID, p)
	if err != nil {
		return nil, 0, err
	}
	out := make([]dto.ContactResponse, len(rows))
	for i := range rows {
		out[i] = s.toResponse(&rows[i])
	}
	return out, total, nil
}

// Update replaces the editable fields. Balances are never touched here.
func (s *contactService[T]) Update(ctx context.Context, companyID, id uuid.UUID, req dto.ContactRequest) (*dto.ContactResponse, error) {
	if err := s.normalize(&req); err != nil {
		return nil, err
	}
	c, err := s.repo.FindByID(ctx, companyID, id)
	if err != nil {
		return nil, notFound(err, s.label)
	}
	taken, err := s.repo.ExistsEmail(ctx, companyID, req.Email, id)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, fmt.Errorf("%w: email %s", ErrDuplicate, req.Email)
	}
	s.apply(c, companyID, req)
	if err := s.repo.Update(ctx, c); err != nil {
		return nil, err
	}
	resp := s.toResponse(c)
	return &resp, nil
}

func (s *contactService[T]) Delete(ctx context.Context, companyID, id uuid.UUID) error {
	return notFound(s.repo.Delete(ctx, companyID, id), s.label)
}

func clientToResponse(c *model.Client) dto.ContactResponse {
	resp := dto.ContactResponse{
		ID:          c.ID.String(),
		CompanyName: c.CompanyName,
		FirstName:   c.FirstName,
		LastName:    c.LastName,
		Email:       c.Email,
		Phone:       c.Phone,
		Address:     c.Address,
		Due:         c.Due,
		PaidAmount:  c.PaidAmount,
		CreatedAt:   c.CreatedAt,
	}
	for _, b := range c.Billboards {
		resp.BillboardIDs = append(resp.BillboardIDs, b.ID.String())
	}
	return resp
}

func supplierToResponse(s *model.Supplier) dto.ContactResponse {
	return dto.ContactResponse{
		ID:          s.ID.String(),
		CompanyName: s.CompanyName,
		FirstName:   s.FirstName,
		LastName:    s.LastName,
		Email:       s.Email,
		Phone:       s.Phone,
		Address:     s.Address,
		Due:         s.Due,
		PaidAmount:  s.PaidAmount,
		CreatedAt:   s.CreatedAt,
	}
}
