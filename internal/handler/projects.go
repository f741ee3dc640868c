package handler

import (
	"net/http"

	"atlascrm/internal/apierror"
	"atlascrm/internal/dto"
	"atlascrm/internal/middleware"
	"atlascrm/internal/service"

	"github.com/gin-gonic/gin"
)

type ProjectsHandler struct{ svc service.ProjectService }

func NewProjectsHandler(svc service.ProjectService) *ProjectsHandler {
	return &ProjectsHandler{svc: svc}
}

func (h *ProjectsHandler) Create(c *gin.Context) {
	var req dto.ProjectRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Create(c.Request.Context(), middleware.CompanyID(c), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, apierror.OK(resp))
}

func (h *ProjectsHandler) Get(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	resp, err := h.svc.Get(c.Request.Context(), middleware.CompanyID(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, apierror.OK(resp))
}

func (h *ProjectsHandler) List(c *gin.Context) {
	p, ok := bindPagination(c)
	if !ok {
		return
	}
	rows, total, err := h.svc.List(c.Request.Context(), middleware.CompanyID(c), p)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, apierror.Page(rows, total))
}

// UpdateStatus godoc
// @Summary Change le statut d'un projet
// @Tags projects
// @Security BearerAuth
// @Param id path string true "Projet"
// @Param body body dto.ProjectStatusRequest true "Statut"
// @Success 200 {object} apierror.Envelope{data=dto.ProjectResponse}
// @Router /v1/projects/{id}/status [patch]
func (h *ProjectsHandler) UpdateStatus(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req dto.ProjectStatusRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.UpdateStatus(c.Request.Context(), middleware.CompanyID(c), id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, apierror.OK(resp))
}
