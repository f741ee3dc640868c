package service

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"

	"atlascrm/internal/access"
	"atlascrm/internal/dto"
	"atlascrm/internal/infra"
	"atlascrm/internal/model"
	"atlascrm/internal/pricing"
	"atlascrm/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

type CompanyService interface {
	Register(ctx context.Context, req dto.RegisterCompanyRequest) (*dto.RegisterCompanyResponse, error)
	Get(ctx context.Context, id uuid.UUID) (*dto.CompanyResponse, error)
	Update(ctx context.Context, id uuid.UUID, req dto.UpdateCompanyRequest) (*dto.CompanyResponse, error)
	UploadLogo(ctx context.Context, id uuid.UUID, r io.Reader) error
	// Logo returns the stored logo PNG, or nil when the company has none.
	Logo(ctx context.Context, id uuid.UUID) ([]byte, error)
}

type companyService struct {
	repo    repository.CompanyRepository
	users   repository.UserRepository
	storage infra.Storage
}

func NewCompanyService(repo repository.CompanyRepository, users repository.UserRepository, storage infra.Storage) CompanyService {
	return &companyService{repo: repo, users: users, storage: storage}
}

func (s *companyService) Register(ctx context.Context, req dto.RegisterCompanyRequest) (*dto.RegisterCompanyResponse, error) {
	if err := pricing.ValidateTaxes(req.Taxes); err != nil {
		return nil, invalid("%v", err)
	}
	exists, err := s.repo.ExistsName(ctx, req.Name)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, fmt.Errorf("%w: entreprise %s", ErrDuplicate, req.Name)
	}
	taken, err := s.users.ExistsEmail(ctx, req.AdminEmail)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, fmt.Errorf("%w: email %s", ErrDuplicate, req.AdminEmail)
	}

	hash, err := HashPassword(req.AdminPassword)
	if err != nil {
		return nil, err
	}

	company := &model.Company{
		Name:                strings.TrimSpace(req.Name),
		Email:               req.Email,
		Phone:               req.Phone,
		Address:             req.Address,
		City:                req.City,
		Country:             req.Country,
		Currency:            strings.ToUpper(req.Currency),
		Taxes:               model.TaxList(req.Taxes),
		InvoicePrefix:       "FAC",
		QuotePrefix:         "DEV",
		DeliveryNotePrefix:  "BL",
		PurchaseOrderPrefix: "BC",
	}
	if company.Currency == "" {
		company.Currency = "XAF"
	}
	admin := &model.User{
		Email:        strings.ToLower(strings.TrimSpace(req.AdminEmail)),
		Name:         req.AdminName,
		PasswordHash: hash,
		Role:         access.RoleAdmin,
		Active:       true,
	}

	err = runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		if err := s.repo.Create(ctx, tx, company); err != nil {
			return err
		}
		admin.CompanyID = company.ID
		return s.users.Create(ctx, tx, admin)
	})
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("%w: %s", ErrDuplicate, req.Name)
		}
		return nil, err
	}

	log.Info().Str("company_id", company.ID.String()).Str("name", company.Name).Msg("company registered")
	return &dto.RegisterCompanyResponse{
		Company: companyToResponse(company),
		Admin:   userToResponse(admin),
	}, nil
}

func (s *companyService) Get(ctx context.Context, id uuid.UUID) (*dto.CompanyResponse, error) {
	c, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "entreprise")
	}
	resp := companyToResponse(c)
	return &resp, nil
}

func (s *companyService) Update(ctx context.Context, id uuid.UUID, req dto.UpdateCompanyRequest) (*dto.CompanyResponse, error) {
	c, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "entreprise")
	}
	if req.Taxes != nil {
		if err := pricing.ValidateTaxes(req.Taxes); err != nil {
			return nil, invalid("%v", err)
		}
		c.Taxes = model.TaxList(req.Taxes)
	}
	if req.Name != "" {
		c.Name = strings.TrimSpace(req.Name)
	}
	if req.Email != "" {
		c.Email = req.Email
	}
	if req.Phone != nil {
		c.Phone = *req.Phone
	}
	if req.Address != nil {
		c.Address = *req.Address
	}
	if req.City != nil {
		c.City = *req.City
	}
	if req.Country != nil {
		c.Country = *req.Country
	}
	if req.Currency != "" {
		c.Currency = strings.ToUpper(req.Currency)
	}
	if req.InvoicePrefix != "" {
		c.InvoicePrefix = req.InvoicePrefix
	}
	if req.QuotePrefix != "" {
		c.QuotePrefix = req.QuotePrefix
	}
	if req.DeliveryNotePrefix != "" {
		c.DeliveryNotePrefix = req.DeliveryNotePrefix
	}
	if req.PurchaseOrderPrefix != "" {
		c.PurchaseOrderPrefix = req.PurchaseOrderPrefix
	}
	if err := s.repo.Update(ctx, c); err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("%w: entreprise %s", ErrDuplicate, c.Name)
		}
		return nil, err
	}
	resp := companyToResponse(c)
	return &resp, nil
}

func (s *companyService) UploadLogo(ctx context.Context, id uuid.UUID, r io.Reader) error {
	c, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return notFound(err, "entreprise")
	}
	png, err := infra.NormalizeLogo(r)
	if err != nil {
		return invalid("logo illisible: %v", err)
	}
	key := fmt.Sprintf("company/%s/logo.png", id)
	if err := s.storage.Put(ctx, key, bytes.NewReader(png)); err != nil {
		return fmt.Errorf("store logo: %w", err)
	}
	c.LogoPath = &key
	return s.repo.Update(ctx, c)
}

func (s *companyService) Logo(ctx context.Context, id uuid.UUID) ([]byte, error) {
	c, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "entreprise")
	}
	return readLogo(ctx, s.storage, c), nil
}

// readLogo loads a company logo; a missing file only costs the logo.
func readLogo(ctx context.Context, storage infra.Storage, c *model.Company) []byte {
	if c.LogoPath == nil || storage == nil {
		return nil
	}
	rc, err := storage.Open(ctx, *c.LogoPath)
	if err != nil {
		log.Warn().Err(err).Str("company_id", c.ID.String()).Msg("logo unavailable")
		return nil
	}
	defer rc.Close()
	data, err := io.ReadAll(rc)
	if err != nil {
		return nil
	}
	return data
}

func companyToResponse(c *model.Company) dto.CompanyResponse {
	taxes := []pricing.TaxDefinition(c.Taxes)
	if taxes == nil {
		taxes = []pricing.TaxDefinition{}
	}
	return dto.CompanyResponse{
		ID:                  c.ID.String(),
		Name:                c.Name,
		Email:               c.Email,
		Phone:               c.Phone,
		Address:             c.Address,
		City:                c.City,
		Country:             c.Country,
		Currency:            c.Currency,
		Taxes:               taxes,
		HasLogo:             c.LogoPath != nil,
		InvoicePrefix:       c.InvoicePrefix,
		QuotePrefix:         c.QuotePrefix,
		DeliveryNotePrefix:  c.DeliveryNotePrefix,
		PurchaseOrderPrefix: c.PurchaseOrderPrefix,
	}
}
