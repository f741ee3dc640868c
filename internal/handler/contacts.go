package handler

import (
	"net/http"

	"atlascrm/internal/apierror"
	"atlascrm/internal/dto"
	"atlascrm/internal/middleware"
	"atlascrm/internal/service"

	"github.com/gin-gonic/gin"
)

// ContactsHandler serves clients or suppliers, depending on the service it wraps.
type ContactsHandler struct{ svc service.ContactService }

func NewContactsHandler(svc service.ContactService) *ContactsHandler {
	return &ContactsHandler{svc: svc}
}

// Create godoc
// @Summary Crée un client ou un fournisseur
// @Tags contacts
// @Security BearerAuth
// @Param body body dto.ContactRequest true "Contact"
// @Success 201 {object} apierror.Envelope{data=dto.ContactResponse}
// @Failure 409 {object} apierror.Envelope
// @Router /v1/clients [post]
// @Router /v1/suppliers [post]
func (h *ContactsHandler) Create(c *gin.Context) {
	var req dto.ContactRequest
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

func (h *ContactsHandler) Get(c *gin.Context) {
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

// List godoc
// @Summary Liste paginée des clients ou fournisseurs
// @Tags contacts
// @Security BearerAuth
// @Param page query int false "Page"
// @Param limit query int false "Taille de page (max 200)"
// @Param search query string false "Recherche"
// @Success 200 {object} apierror.Envelope{data=[]dto.ContactResponse}
// @Router /v1/clients [get]
// @Router /v1/suppliers [get]
func (h *ContactsHandler) List(c *gin.Context) {
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

func (h *ContactsHandler) Update(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req dto.ContactRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Update(c.Request.Context(), middleware.CompanyID(c), id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, apierror.OK(resp))
}

func (h *ContactsHandler) Delete(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	if err := h.svc.Delete(c.Request.Context(), middleware.CompanyID(c), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
