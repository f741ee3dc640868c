package handler

import (
	"net/http"

	"atlascrm/internal/apierror"
	"atlascrm/internal/dto"
	"atlascrm/internal/middleware"
	"atlascrm/internal/service"

	"github.com/gin-gonic/gin"
)

type CatalogHandler struct{ svc service.CatalogService }

func NewCatalogHandler(svc service.CatalogService) *CatalogHandler {
	return &CatalogHandler{svc: svc}
}

// ── Billboards ────────────────────────────────────────────────────────────────

// CreateBillboard godoc
// @Summary Ajoute un panneau publicitaire
// @Tags catalog
// @Security BearerAuth
// @Param body body dto.BillboardRequest true "Panneau"
// @Success 201 {object} apierror.Envelope{data=dto.BillboardResponse}
// @Router /v1/billboards [post]
func (h *CatalogHandler) CreateBillboard(c *gin.Context) {
	var req dto.BillboardRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.CreateBillboard(c.Request.Context(), middleware.CompanyID(c), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, apierror.OK(resp))
}

func (h *CatalogHandler) GetBillboard(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	resp, err := h.svc.GetBillboard(c.Request.Context(), middleware.CompanyID(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, apierror.OK(resp))
}

func (h *CatalogHandler) ListBillboards(c *gin.Context) {
	p, ok := bindPagination(c)
	if !ok {
		return
	}
	rows, total, err := h.svc.ListBillboards(c.Request.Context(), middleware.CompanyID(c), p)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, apierror.Page(rows, total))
}

func (h *CatalogHandler) UpdateBillboard(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req dto.BillboardRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.UpdateBillboard(c.Request.Context(), middleware.CompanyID(c), id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, apierror.OK(resp))
}

func (h *CatalogHandler) DeleteBillboard(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	if err := h.svc.DeleteBillboard(c.Request.Context(), middleware.CompanyID(c), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ── Products and services ─────────────────────────────────────────────────────

func (h *CatalogHandler) CreateProduct(c *gin.Context) {
	var req dto.ProductServiceRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.CreateProduct(c.Request.Context(), middleware.CompanyID(c), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, apierror.OK(resp))
}

func (h *CatalogHandler) GetProduct(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	resp, err := h.svc.GetProduct(c.Request.Context(), middleware.CompanyID(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, apierror.OK(resp))
}

func (h *CatalogHandler) ListProducts(c *gin.Context) {
	p, ok := bindPagination(c)
	if !ok {
		return
	}
	rows, total, err := h.svc.ListProducts(c.Request.Context(), middleware.CompanyID(c), p)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, apierror.Page(rows, total))
}

func (h *CatalogHandler) UpdateProduct(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req dto.ProductServiceRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.UpdateProduct(c.Request.Context(), middleware.CompanyID(c), id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, apierror.OK(resp))
}

func (h *CatalogHandler) DeleteProduct(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	if err := h.svc.DeleteProduct(c.Request.Context(), middleware.CompanyID(c), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// AdjustStock godoc
// @Summary Corrige la quantité en stock d'un produit
// @Tags catalog
// @Security BearerAuth
// @Param id path string true "Produit"
// @Param body body dto.StockAdjustmentRequest true "Correction"
// @Success 200 {object} apierror.Envelope{data=dto.ProductServiceResponse}
// @Router /v1/products/{id}/stock [patch]
func (h *CatalogHandler) AdjustStock(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req dto.StockAdjustmentRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.AdjustStock(c.Request.Context(), middleware.CompanyID(c), id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, apierror.OK(resp))
}

func (h *CatalogHandler) ListMovements(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	p, ok := bindPagination(c)
	if !ok {
		return
	}
	rows, total, err := h.svc.ListMovements(c.Request.Context(), middleware.CompanyID(c), id, p)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, apierror.Page(rows, total))
}
