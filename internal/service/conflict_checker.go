package service

import (
	"context"
	"fmt"

	"atlascrm/internal/model"
	"atlascrm/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ConflictChecker guards billboard rentals: a billboard cannot be rented
// twice over overlapping dates. Ranges are inclusive on both ends and only
// approved items (invoiced rentals) count as bookings.
type ConflictChecker struct {
	billboards repository.BillboardRepository
}

func NewConflictChecker(billboards repository.BillboardRepository) *ConflictChecker {
	return &ConflictChecker{billboards: billboards}
}

// CheckTx returns ErrBillboardConflict when one of items overlaps a booking
// of the same billboard, or another of items. Items listed in skip are
// ignored as existing bookings (the items being re-saved).
func (c *ConflictChecker) CheckTx(ctx context.Context, tx *gorm.DB, companyID uuid.UUID, items []model.Item, skip []uuid.UUID) error {
	var rentals []model.Item
	for _, it := range items {
		if it.BillboardID == nil || it.LocationStart == nil || it.LocationEnd == nil {
			continue
		}
		if it.LocationEnd.Before(*it.LocationStart) {
			return invalid("période de location invalide pour %s", it.Name)
		}
		rentals = append(rentals, it)
	}

	for i, a := range rentals {
		for _, b := range rentals[i+1:] {
			if *a.BillboardID == *b.BillboardID && overlaps(a, b) {
				return fmt.Errorf("%w: %s", ErrBillboardConflict, a.Name)
			}
		}
		booked, err := c.billboards.FindBookingsTx(ctx, tx, companyID, *a.BillboardID, *a.LocationStart, *a.LocationEnd, skip)
		if err != nil {
			return err
		}
		if len(booked) > 0 {
			return fmt.Errorf("%w: %s du %s au %s", ErrBillboardConflict, a.Name,
				booked[0].LocationStart.Format("02/01/2006"), booked[0].LocationEnd.Format("02/01/2006"))
		}
	}
	return nil
}

func overlaps(a, b model.Item) bool {
	return !a.LocationStart.After(*b.LocationEnd) && !b.LocationStart.After(*a.LocationEnd)
}
