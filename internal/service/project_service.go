package service

import (
	"context"

	"atlascrm/internal/dto"
	"atlascrm/internal/model"
	"atlascrm/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

type ProjectService interface {
	Create(ctx context.Context, companyID uuid.UUID, req dto.ProjectRequest) (*dto.ProjectResponse, error)
	Get(ctx context.Context, companyID, id uuid.UUID) (*dto.ProjectResponse, error)
	List(ctx context.Context, companyID uuid.UUID, p dto.Pagination) ([]dto.ProjectResponse, int64, error)
	UpdateStatus(ctx context.Context, companyID, id uuid.UUID, req dto.ProjectStatusRequest) (*dto.ProjectResponse, error)
}

type projectService struct {
	projects repository.ProjectRepository
	clients  repository.ContactRepository[model.Client]
}

func NewProjectService(projects repository.ProjectRepository, clients repository.ContactRepository[model.Client]) ProjectService {
	return &projectService{projects: projects, clients: clients}
}

func (s *projectService) Create(ctx context.Context, companyID uuid.UUID, req dto.ProjectRequest) (*dto.ProjectResponse, error) {
	p := &model.Project{
		CompanyID: companyID,
		Name:      req.Name,
		Status:    model.ProjectTodo,
		Amount:    req.Amount,
		Deadline:  req.Deadline,
	}
	if req.ClientID != nil && *req.ClientID != "" {
		id, err := uuid.Parse(*req.ClientID)
		if err != nil {
			return nil, invalid("client invalide")
		}
		if _, err := s.clients.FindByID(ctx, companyID, id); err != nil {
			return nil, notFound(err, "client")
		}
		p.ClientID = &id
	}
	if err := s.projects.Create(ctx, p); err != nil {
		return nil, err
	}
	log.Info().Str("project_id", p.ID.String()).Str("company_id", companyID.String()).Msg("project created")
	resp := projectToResponse(p)
	return &resp, nil
}

func (s *projectService) Get(ctx context.Context, companyID, id uuid.UUID) (*dto.ProjectResponse, error) {
	p, err := s.projects.FindByID(ctx, companyID, id)
	if err != nil {
		return nil, notFound(err, "projet")
	}
	resp := projectToResponse(p)
	return &resp, nil
}

func (s *projectService) List(ctx context.Context, companyID uuid.UUID, pg dto.Pagination) ([]dto.ProjectResponse, int64, error) {
	rows, total, err := s.projects.List(ctx, companyID, pg)
	if err != nil {
		return nil, 0, err
	}
	out := make([]dto.ProjectResponse, len(rows))
	for i := range rows {
		out[i] = projectToResponse(&rows[i])
	}
	return out, total, nil
}

func (s *projectService) UpdateStatus(ctx context.Context, companyID, id uuid.UUID, req dto.ProjectStatusRequest) (*dto.ProjectResponse, error) {
	if err := s.projects.UpdateTx(ctx, nil, companyID, id, map[string]any{"status": req.Status}); err != nil {
		return nil, notFound(err, "projet")
	}
	return s.Get(ctx, companyID, id)
}

func projectToResponse(p *model.Project) dto.ProjectResponse {
	return dto.ProjectResponse{
		ID:        p.ID.String(),
		Name:      p.Name,
		ClientID:  uuidPtrString(p.ClientID),
		Status:    p.Status,
		Amount:    p.Amount,
		Deadline:  p.Deadline,
		CreatedAt: p.CreatedAt,
	}
}
