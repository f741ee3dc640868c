package service

import (
	"context"
	"encoding/json"
	"time"

	"atlascrm/internal/dto"
	"atlascrm/internal/repository"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const dashboardTTL = 5 * time.Minute

type DashboardService interface {
	Get(ctx context.Context, companyID uuid.UUID) (*dto.DashboardResponse, error)
	// Invalidate drops the cached figures of a company. Failures are logged only.
	Invalidate(ctx context.Context, companyID uuid.UUID)
}

type dashboardService struct {
	reports repository.ReportRepository
	rdb     *redis.Client
	now     func() time.Time
}

// NewDashboardService caches results in rdb when it is not nil.
func NewDashboardService(reports repository.ReportRepository, rdb *redis.Client) DashboardService {
	return &dashboardService{reports: reports, rdb: rdb, now: time.Now}
}

func dashboardKey(companyID uuid.UUID) string { return "dashboard:" + companyID.String() }

func (s *dashboardService) Get(ctx context.Context, companyID uuid.UUID) (*dto.DashboardResponse, error) {
	if s.rdb != nil {
		if raw, err := s.rdb.Get(ctx, dashboardKey(companyID)).Bytes(); err == nil {
			var cached dto.DashboardResponse
			if json.Unmarshal(raw, &cached) == nil {
				cached.Cached = true
				return &cached, nil
			}
		} else if err != redis.Nil {
			log.Warn().Err(err).Msg("dashboard: cache read failed")
		}
	}

	t, err := s.reports.Dashboard(ctx, companyID, s.now())
	if err != nil {
		return nil, err
	}
	resp := &dto.DashboardResponse{
		Invoiced:        t.Invoiced,
		Paid:            t.Paid,
		ClientDue:       t.ClientDue,
		SupplierDue:     t.SupplierDue,
		UnpaidInvoices:  t.UnpaidInvoices,
		OverdueInvoices: t.OverdueInvoices,
		OpenQuotes:      t.OpenQuotes,
	}

	if s.rdb != nil {
		if raw, err := json.Marshal(resp); err == nil {
			if err := s.rdb.Set(ctx, dashboardKey(companyID), raw, dashboardTTL).Err(); err != nil {
				log.Warn().Err(err).Msg("dashboard: cache write failed")
			}
		}
	}
	return resp, nil
}

func (s *dashboardService) Invalidate(ctx context.Context, companyID uuid.UUID) {
	if s == nil || s.rdb == nil {
		return
	}
	if err := s.rdb.Del(ctx, dashboardKey(companyID)).Err(); err != nil {
		log.Warn().Err(err).Str("company_id", companyID.String()).Msg("dashboard: cache invalidation failed")
	}
}

// invalidateDashboard tolerates a nil service in tests.
func invalidateDashboard(ctx context.Context, d DashboardService, companyID uuid.UUID) {
	if d != nil {
		d.Invalidate(ctx, companyID)
	}
}
