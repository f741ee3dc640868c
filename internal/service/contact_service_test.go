package service

import (
	"context"
	"testing"

	"atlascrm/internal/dto"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClientService_NormalizesContact(t *testing.T) {
	f := newFixture(t)
	svc := NewClientService(f.repos.Clients, "FR")

	resp, err := svc.Create(context.Background(), f.company.ID, dto.ContactRequest{
		CompanyName: "  Total Énergies ", Email: " Compta@Total.GA ", Phone: "06 12 34 56 78",
	})

	require.NoError(t, err)
	assert.Equal(t, "Total Énergies", resp.CompanyName)
	assert.Equal(t, "compta@total.ga", resp.Email)
	assert.Equal(t, "+33612345678", resp.Phone)
	assert.True(t, resp.Due.IsZero())
}

func TestClientService_InvalidPhone(t *testing.T) {
	f := newFixture(t)
	svc := NewClientService(f.repos.Clients, "GA")

	_, err := svc.Create(context.Background(), f.company.ID, dto.ContactRequest{
		CompanyName: "Total", Email: "x@total.ga", Phone: "12",
	})

	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestClientService_DuplicateEmailPerCompany(t *testing.T) {
	f := newFixture(t)
	svc := NewClientService(f.repos.Clients, "GA")

	_, err := svc.Create(context.Background(), f.company.ID, dto.ContactRequest{CompanyName: "Autre", Email: "COMPTA@gt.test"})
	assert.ErrorIs(t, err, ErrDuplicate)

	second, err := svc.Create(context.Background(), f.company.ID, dto.ContactRequest{CompanyName: "Autre", Email: "autre@gt.test"})
	require.NoError(t, err)
	_, err = svc.Update(context.Background(), f.company.ID, mustUUID(t, second.ID), dto.ContactRequest{CompanyName: "Autre", Email: "compta@gt.test"})
	assert.ErrorIs(t, err, ErrDuplicate)

	_, err = svc.Update(context.Background(), f.company.ID, mustUUID(t, second.ID), dto.ContactRequest{CompanyName: "Autre SA", Email: "autre@gt.test"})
	assert.NoError(t, err, "keeping its own email is fine")
}

func TestSupplierService_GetAndDelete(t *testing.T) {
	f := newFixture(t)
	svc := NewSupplierService(f.repos.Suppliers, "GA")
	ctx := context.Background()

	created, err := svc.Create(ctx, f.company.ID, dto.ContactRequest{CompanyName: "Imprimerie", Email: "ventes@imp.test"})
	require.NoError(t, err)
	id := mustUUID(t, created.ID)

	got, err := svc.Get(ctx, f.company.ID, id)
	require.NoError(t, err)
	assert.Equal(t, "Imprimerie", got.CompanyName)

	_, err = svc.Get(ctx, uuid.New(), id)
	assert.ErrorIs(t, err, ErrNotFound, "other companies cannot see it")

	require.NoError(t, svc.Delete(ctx, f.company.ID, id))
	_, err = svc.Get(ctx, f.company.ID, id)
	assert.ErrorIs(t, err, ErrNotFound)
}
