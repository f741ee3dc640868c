package handler

import (
	"bytes"
	"fmt"
	"net/http"
	"time"

	"atlascrm/internal/apierror"
	"atlascrm/internal/dto"
	"atlascrm/internal/middleware"
	"atlascrm/internal/service"

	"github.com/gin-gonic/gin"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// LedgerHandler serves receipts or dibursements.
type LedgerHandler struct {
	kind      string
	svc       service.LedgerService
	deletions service.DeletionService
}

func NewLedgerHandler(kind string, svc service.LedgerService, deletions service.DeletionService) *LedgerHandler {
	return &LedgerHandler{kind: kind, svc: svc, deletions: deletions}
}

// Create godoc
// @Summary Saisit un encaissement ou un décaissement hors document
// @Tags ledger
// @Security BearerAuth
// @Param body body dto.LedgerEntryRequest true "Écriture"
// @Success 201 {object} apierror.Envelope{data=dto.LedgerEntryResponse}
// @Router /v1/receipts [post]
// @Router /v1/dibursements [post]
func (h *LedgerHandler) Create(c *gin.Context) {
	var req dto.LedgerEntryRequest
	if !bindAndValidate(c, &req) {
		return
	}
	create := h.svc.CreateReceipt
	if h.kind == service.LedgerDibursement {
		create = h.svc.CreateDibursement
	}
	resp, err := create(c.Request.Context(), middleware.CompanyID(c), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, apierror.OK(resp))
}

func (h *LedgerHandler) bindFilter(c *gin.Context) (dto.LedgerFilter, bool) {
	var f dto.LedgerFilter
	if err := c.ShouldBindQuery(&f); err != nil {
		c.JSON(http.StatusBadRequest, apierror.Fail("Filtre invalide (dates au format AAAA-MM-JJ)"))
		return f, false
	}
	f.Normalize()
	return f, true
}

// List godoc
// @Summary Liste paginée des encaissements ou décaissements
// @Tags ledger
// @Security BearerAuth
// @Param from query string false "Date de début (AAAA-MM-JJ)"
// @Param to query string false "Date de fin (AAAA-MM-JJ)"
// @Param page query int false "Page"
// @Param limit query int false "Taille de page"
// @Success 200 {object} apierror.Envelope{data=[]dto.LedgerEntryResponse}
// @Router /v1/receipts [get]
// @Router /v1/dibursements [get]
func (h *LedgerHandler) List(c *gin.Context) {
	f, ok := h.bindFilter(c)
	if !ok {
		return
	}
	list := h.svc.ListReceipts
	if h.kind == service.LedgerDibursement {
		list = h.svc.ListDibursements
	}
	rows, total, err := list(c.Request.Context(), middleware.CompanyID(c), f)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, apierror.Page(rows, total))
}

// Export godoc
// @Summary Exporte les écritures filtrées au format xlsx
// @Tags ledger
// @Security BearerAuth
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param from query string false "Date de début (AAAA-MM-JJ)"
// @Param to query string false "Date de fin (AAAA-MM-JJ)"
// @Success 200 {file} binary
// @Router /v1/receipts/export [get]
// @Router /v1/dibursements/export [get]
func (h *LedgerHandler) Export(c *gin.Context) {
	f, ok := h.bindFilter(c)
	if !ok {
		return
	}
	var buf bytes.Buffer
	if err := h.svc.Export(c.Request.Context(), middleware.CompanyID(c), h.kind, f, &buf); err != nil {
		respondError(c, err)
		return
	}
	name := fmt.Sprintf("%ss-%s.xlsx", h.kind, time.Now().Format("20060102"))
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, name))
	c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
}

func (h *LedgerHandler) Delete(c *gin.Context) {
	requestDeletion(c, h.deletions, h.kind)
}
