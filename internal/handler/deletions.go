package handler

import (
	"net/http"

	"atlascrm/internal/apierror"
	"atlascrm/internal/middleware"
	"atlascrm/internal/service"

	"github.com/gin-gonic/gin"
)

type DeletionsHandler struct{ svc service.DeletionService }

func NewDeletionsHandler(svc service.DeletionService) *DeletionsHandler {
	return &DeletionsHandler{svc: svc}
}

// ListPending godoc
// @Summary Demandes de suppression en attente
// @Tags deletions
// @Security BearerAuth
// @Success 200 {object} apierror.Envelope{data=[]dto.DeletionRequestResponse}
// @Router /v1/deletion-requests [get]
func (h *DeletionsHandler) ListPending(c *gin.Context) {
	rows, err := h.svc.ListPending(c.Request.Context(), middleware.CompanyID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, apierror.OK(rows))
}

// Approve godoc
// @Summary Approuve une demande et supprime l'enregistrement
// @Tags deletions
// @Security BearerAuth
// @Param id path string true "Demande"
// @Success 200 {object} apierror.Envelope
// @Router /v1/deletion-requests/{id}/approve [post]
func (h *DeletionsHandler) Approve(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	if err := h.svc.Approve(c.Request.Context(), middleware.CompanyID(c), id, middleware.UserID(c)); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, apierror.OKMessage("Suppression approuvée", nil))
}

func (h *DeletionsHandler) Reject(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	if err := h.svc.Reject(c.Request.Context(), middleware.CompanyID(c), id, middleware.UserID(c)); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, apierror.OKMessage("Demande rejetée", nil))
}
