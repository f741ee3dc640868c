package service

import (
	"context"
	"errors"

	"atlascrm/internal/access"
	"atlascrm/internal/dto"
	"atlascrm/internal/model"
	"atlascrm/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// approvalRequired lists the resources whose deletes go through a request.
var approvalRequired = map[string]bool{
	model.KindInvoice:       true,
	model.KindPurchaseOrder: true,
	LedgerReceipt:           true,
	LedgerDibursement:       true,
}

// Deleter is what the deletion workflow needs from the owning services.
type Deleter interface {
	Delete(ctx context.Context, companyID uuid.UUID, kind string, id uuid.UUID) error
	Reference(ctx context.Context, companyID uuid.UUID, kind string, id uuid.UUID) (string, error)
}

type DeletionService interface {
	// Request deletes right away when the resource needs no approval or the
	// caller may approve, otherwise it files a pending request.
	Request(ctx context.Context, companyID, userID uuid.UUID, perms access.Set, resource string, recordID uuid.UUID) (*dto.DeleteResult, error)
	ListPending(ctx context.Context, companyID uuid.UUID) ([]dto.DeletionRequestResponse, error)
	Approve(ctx context.Context, companyID, requestID, userID uuid.UUID) error
	Reject(ctx context.Context, companyID, requestID, userID uuid.UUID) error
}

type deletionService struct {
	requests  repository.DeletionRepository
	documents Deleter
	ledger    Deleter
}

func NewDeletionService(requests repository.DeletionRepository, documents, ledger Deleter) DeletionService {
	return &deletionService{requests: requests, documents: documents, ledger: ledger}
}

func (s *deletionService) owner(resource string) (Deleter, error) {
	switch resource {
	case model.KindQuote, model.KindDeliveryNote, model.KindInvoice, model.KindPurchaseOrder:
		return s.documents, nil
	case LedgerReceipt, LedgerDibursement:
		return s.ledger, nil
	}
	return nil, invalid("ressource %q non supprimable", resource)
}

func (s *deletionService) Request(ctx context.Context, companyID, userID uuid.UUID, perms access.Set, resource string, recordID uuid.UUID) (*dto.DeleteResult, error) {
	owner, err := s.owner(resource)
	if err != nil {
		return nil, err
	}
	ref, err := owner.Reference(ctx, companyID, resource, recordID)
	if err != nil {
		return nil, err
	}

	if !approvalRequired[resource] || perms.Can(access.ResourceDeletion, access.ActionApprove) {
		if err := owner.Delete(ctx, companyID, resource, recordID); err != nil {
			return nil, err
		}
		return &dto.DeleteResult{Deleted: true}, nil
	}

	if existing, err := s.requests.FindPending(ctx, companyID, resource, recordID); err == nil {
		return &dto.DeleteResult{Pending: true, RequestID: existing.ID.String()}, nil
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	req := &model.DeletionRequest{
		CompanyID:   companyID,
		Resource:    resource,
		RecordID:    recordID,
		Reference:   ref,
		RequestedBy: userID,
		Status:      model.DeletionPending,
	}
	if err := s.requests.Create(ctx, req); err != nil {
		return nil, err
	}
	log.Info().
		Str("request_id", req.ID.String()).
		Str("resource", resource).
		Str("record_id", recordID.String()).
		Str("requested_by", userID.String()).
		Msg("deletion request filed")
	return &dto.DeleteResult{Pending: true, RequestID: req.ID.String()}, nil
}

func (s *deletionService) ListPending(ctx context.Context, companyID uuid.UUID) ([]dto.DeletionRequestResponse, error) {
	rows, err := s.requests.ListPending(ctx, companyID)
	if err != nil {
		return nil, err
	}
	out := make([]dto.DeletionRequestResponse, len(rows))
	for i := range rows {
		out[i] = deletionToResponse(&rows[i])
	}
	return out, nil
}

// Approve runs the delete, then closes the request. A record that is
// already gone still closes the request as approved.
func (s *deletionService) Approve(ctx context.Context, companyID, requestID, userID uuid.UUID) error {
	req, err := s.pending(ctx, companyID, requestID)
	if err != nil {
		return err
	}
	owner, err := s.owner(req.Resource)
	if err != nil {
		return err
	}
	if err := owner.Delete(ctx, companyID, req.Resource, req.RecordID); err != nil && !errors.Is(err, ErrNotFound) {
		return err
	}
	if err := s.decide(ctx, req, userID, model.DeletionApproved); err != nil {
		return err
	}
	log.Info().Str("request_id", requestID.String()).Str("approved_by", userID.String()).Msg("deletion request approved")
	return nil
}

func (s *deletionService) Reject(ctx context.Context, companyID, requestID, userID uuid.UUID) error {
	req, err := s.pending(ctx, companyID, requestID)
	if err != nil {
		return err
	}
	if err := s.decide(ctx, req, userID, model.DeletionRejected); err != nil {
		return err
	}
	log.Info().Str("request_id", requestID.String()).Str("rejected_by", userID.String()).Msg("deletion request rejected")
	return nil
}

func (s *deletionService) pending(ctx context.Context, companyID, requestID uuid.UUID) (*model.DeletionRequest, error) {
	req, err := s.requests.FindByID(ctx, companyID, requestID)
	if err != nil {
		return nil, notFound(err, "demande de suppression")
	}
	if req.Status != model.DeletionPending {
		return nil, invalid("cette demande a déjà été traitée")
	}
	return req, nil
}

func (s *deletionService) decide(ctx context.Context, req *model.DeletionRequest, userID uuid.UUID, status string) error {
	err := runTx(ctx, s.requests.DB(), func(tx *gorm.DB) error {
		return s.requests.DecideTx(ctx, tx, req.ID, userID, status)
	})
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return invalid("cette demande a déjà été traitée")
	}
	return err
}

func deletionToResponse(d *model.DeletionRequest) dto.DeletionRequestResponse {
	return dto.DeletionRequestResponse{
		ID:          d.ID.String(),
		Resource:    d.Resource,
		RecordID:    d.RecordID.String(),
		Reference:   d.Reference,
		RequestedBy: d.RequestedBy.String(),
		Status:      d.Status,
		DecidedBy:   uuidPtrString(d.DecidedBy),
		DecidedAt:   d.DecidedAt,
		CreatedAt:   d.CreatedAt,
	}
}
