package service

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"testing"

	"atlascrm/internal/access"
	"atlascrm/internal/dto"
	"atlascrm/internal/infra"
	"atlascrm/internal/pricing"
	"atlascrm/internal/repository"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newCompanyService(t *testing.T) CompanyService {
	t.Helper()
	db := newTestDB(t)
	storage, err := infra.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	return NewCompanyService(repository.NewCompanyRepository(db), repository.NewUserRepository(db), storage)
}

func registerReq(name, adminEmail string) dto.RegisterCompanyRequest {
	return dto.RegisterCompanyRequest{
		Name:          name,
		Email:         "contact@" + adminEmail[len("admin@"):],
		Taxes:         []pricing.TaxDefinition{{Name: "TVA", Value: "18%"}},
		AdminName:     "Admin",
		AdminEmail:    adminEmail,
		AdminPassword: "motdepasse",
	}
}

func TestRegisterCompany_CreatesAdmin(t *testing.T) {
	svc := newCompanyService(t)

	res, err := svc.Register(context.Background(), registerReq(" Régie Ouest ", "Admin@ouest.test"))

	require.NoError(t, err)
	assert.Equal(t, "Régie Ouest", res.Company.Name)
	assert.Equal(t, "XAF", res.Company.Currency)
	assert.Equal(t, "FAC", res.Company.InvoicePrefix)
	assert.Equal(t, "admin@ouest.test", res.Admin.Email)
	assert.Equal(t, access.RoleAdmin, res.Admin.Role)
	require.Len(t, res.Company.Taxes, 1)
}

func TestRegisterCompany_Duplicates(t *testing.T) {
	svc := newCompanyService(t)
	ctx := context.Background()
	_, err := svc.Register(ctx, registerReq("Régie Ouest", "admin@ouest.test"))
	require.NoError(t, err)

	_, err = svc.Register(ctx, registerReq("Régie Ouest", "admin@autre.test"))
	assert.ErrorIs(t, err, ErrDuplicate, "same name")

	_, err = svc.Register(ctx, registerReq("Régie Est", "admin@ouest.test"))
	assert.ErrorIs(t, err, ErrDuplicate, "same admin email")
}

func TestRegisterCompany_RejectsBadTaxes(t *testing.T) {
	svc := newCompanyService(t)
	req := registerReq("Régie Sud", "admin@sud.test")
	req.Taxes = []pricing.TaxDefinition{{Name: "TVA", Value: "dix"}}

	_, err := svc.Register(context.Background(), req)

	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestUpdateCompany(t *testing.T) {
	svc := newCompanyService(t)
	ctx := context.Background()
	res, err := svc.Register(ctx, registerReq("Régie Nord", "admin@nord.test"))
	require.NoError(t, err)
	id := mustUUID(t, res.Company.ID)
	city := "Libreville"

	updated, err := svc.Update(ctx, id, dto.UpdateCompanyRequest{Currency: "eur", City: &city, InvoicePrefix: "INV"})

	require.NoError(t, err)
	assert.Equal(t, "EUR", updated.Currency)
	assert.Equal(t, "Libreville", updated.City)
	assert.Equal(t, "INV", updated.InvoicePrefix)
	assert.Equal(t, "DEV", updated.QuotePrefix)

	_, err = svc.Update(ctx, uuid.New(), dto.UpdateCompanyRequest{})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCompanyLogo(t *testing.T) {
	svc := newCompanyService(t)
	ctx := context.Background()
	res, err := svc.Register(ctx, registerReq("Régie Centre", "admin@centre.test"))
	require.NoError(t, err)
	id := mustUUID(t, res.Company.ID)

	logo, err := svc.Logo(ctx, id)
	require.NoError(t, err)
	assert.Nil(t, logo)

	img := image.NewRGBA(image.Rect(0, 0, 600, 600))
	img.Set(1, 1, color.White)
	var src bytes.Buffer
	require.NoError(t, png.Encode(&src, img))
	require.NoError(t, svc.UploadLogo(ctx, id, &src))

	logo, err = svc.Logo(ctx, id)
	require.NoError(t, err)
	decoded, err := png.Decode(bytes.NewReader(logo))
	require.NoError(t, err)
	assert.Equal(t, 300, decoded.Bounds().Dx())

	got, err := svc.Get(ctx, id)
	require.NoError(t, err)
	assert.True(t, got.HasLogo)

	err = svc.UploadLogo(ctx, id, bytes.NewReader([]byte("pas une image")))
	assert.ErrorIs(t, err, ErrInvalidInput)
}
