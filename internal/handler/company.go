package handler

import (
	"net/http"

	"atlascrm/internal/apierror"
	"atlascrm/internal/dto"
	"atlascrm/internal/middleware"
	"atlascrm/internal/service"

	"github.com/gin-gonic/gin"
)

const maxLogoSize = 5 << 20

type CompanyHandler struct{ svc service.CompanyService }

func NewCompanyHandler(svc service.CompanyService) *CompanyHandler {
	return &CompanyHandler{svc: svc}
}

// Register godoc
// @Summary Crée une société et son premier administrateur
// @Tags company
// @Accept json
// @Produce json
// @Param body body dto.RegisterCompanyRequest true "Société"
// @Success 201 {object} apierror.Envelope{data=dto.RegisterCompanyResponse}
// @Failure 409 {object} apierror.Envelope
// @Router /v1/companies [post]
func (h *CompanyHandler) Register(c *gin.Context) {
	var req dto.RegisterCompanyRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Register(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, apierror.OK(resp))
}

// Get godoc
// @Summary Société de l'utilisateur connecté
// @Tags company
// @Security BearerAuth
// @Success 200 {object} apierror.Envelope{data=dto.CompanyResponse}
// @Router /v1/company [get]
func (h *CompanyHandler) Get(c *gin.Context) {
	resp, err := h.svc.Get(c.Request.Context(), middleware.CompanyID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, apierror.OK(resp))
}

func (h *CompanyHandler) Update(c *gin.Context) {
	var req dto.UpdateCompanyRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Update(c.Request.Context(), middleware.CompanyID(c), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, apierror.OKMessage("Société mise à jour", resp))
}

// UploadLogo godoc
// @Summary Remplace le logo imprimé sur les documents
// @Tags company
// @Security BearerAuth
// @Accept multipart/form-data
// @Param logo formData file true "Image PNG ou JPEG"
// @Success 204
// @Router /v1/company/logo [put]
func (h *CompanyHandler) UploadLogo(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxLogoSize)
	fh, err := c.FormFile("logo")
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.Fail("Fichier 'logo' manquant ou trop volumineux"))
		return
	}
	f, err := fh.Open()
	if err != nil {
		respondError(c, err)
		return
	}
	defer f.Close()

	if err := h.svc.UploadLogo(c.Request.Context(), middleware.CompanyID(c), f); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *CompanyHandler) Logo(c *gin.Context) {
	data, err := h.svc.Logo(c.Request.Context(), middleware.CompanyID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	if data == nil {
		c.Status(http.StatusNoContent)
		return
	}
	c.Data(http.StatusOK, "image/png", data)
}
