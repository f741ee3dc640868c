package handler

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"atlascrm/internal/apierror"
	"atlascrm/internal/dto"
	"atlascrm/internal/middleware"
	"atlascrm/internal/model"
	"atlascrm/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

const (
	maxUploadSize = 32 << 20
	maxFileCount  = 10
)

// DocumentsHandler serves one document kind: quotes, delivery notes,
// invoices or purchase orders.
type DocumentsHandler struct {
	kind       string
	docs       service.DocumentService
	conversion service.ConversionService
	payments   service.PaymentService
	deletions  service.DeletionService
}

func NewDocumentsHandler(kind string, docs service.DocumentService, conversion service.ConversionService, payments service.PaymentService, deletions service.DeletionService) *DocumentsHandler {
	return &DocumentsHandler{kind: kind, docs: docs, conversion: conversion, payments: payments, deletions: deletions}
}

// Create godoc
// @Summary Crée un document
// @Description JSON, ou multipart avec le JSON dans le champ "data" et les pièces jointes dans "files".
// @Tags documents
// @Security BearerAuth
// @Accept json,mpfd
// @Param body body dto.CreateDocumentRequest true "Document"
// @Success 201 {object} apierror.Envelope{data=dto.DocumentResponse}
// @Failure 409 {object} apierror.Envelope "Panneau déjà réservé"
// @Router /v1/invoices [post]
func (h *DocumentsHandler) Create(c *gin.Context) {
	var req dto.CreateDocumentRequest
	var files []dto.Upload

	if strings.HasPrefix(c.ContentType(), "multipart/") {
		var ok bool
		if files, ok = h.readMultipart(c, &req); !ok {
			return
		}
		if !validateStruct(c, &req) {
			return
		}
	} else if !bindAndValidate(c, &req) {
		return
	}

	resp, err := h.docs.Create(c.Request.Context(), middleware.CompanyID(c), h.kind, req, files)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, apierror.OK(resp))
}

func (h *DocumentsHandler) readMultipart(c *gin.Context, req *dto.CreateDocumentRequest) ([]dto.Upload, bool) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxUploadSize)
	form, err := c.MultipartForm()
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.Fail("Formulaire invalide ou trop volumineux"))
		return nil, false
	}
	data := form.Value["data"]
	if len(data) != 1 {
		c.JSON(http.StatusBadRequest, apierror.Fail("Champ 'data' manquant"))
		return nil, false
	}
	if err := json.Unmarshal([]byte(data[0]), req); err != nil {
		c.JSON(http.StatusBadRequest, apierror.Fail("JSON invalide: "+err.Error()))
		return nil, false
	}

	headers := form.File["files"]
	if len(headers) > maxFileCount {
		c.JSON(http.StatusBadRequest, apierror.Fail(fmt.Sprintf("%d fichiers au maximum", maxFileCount)))
		return nil, false
	}
	files := make([]dto.Upload, 0, len(headers))
	for _, fh := range headers {
		f, err := fh.Open()
		if err != nil {
			respondError(c, err)
			return nil, false
		}
		body, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			respondError(c, err)
			return nil, false
		}
		files = append(files, dto.Upload{Name: fh.Filename, Data: body})
	}
	return files, true
}

func (h *DocumentsHandler) Get(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	resp, err := h.docs.Get(c.Request.Context(), middleware.CompanyID(c), h.kind, id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, apierror.OK(resp))
}

func (h *DocumentsHandler) List(c *gin.Context) {
	p, ok := bindPagination(c)
	if !ok {
		return
	}
	rows, total, err := h.docs.List(c.Request.Context(), middleware.CompanyID(c), h.kind, p)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, apierror.Page(rows, total))
}

func (h *DocumentsHandler) Duplicate(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	resp, err := h.docs.Duplicate(c.Request.Context(), middleware.CompanyID(c), h.kind, id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, apierror.OK(resp))
}

// PDF godoc
// @Summary Télécharge le document au format PDF
// @Tags documents
// @Security BearerAuth
// @Produce application/pdf
// @Param id path string true "Document"
// @Success 200 {file} binary
// @Router /v1/invoices/{id}/pdf [get]
func (h *DocumentsHandler) PDF(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	ref, data, err := h.docs.RenderPDF(c.Request.Context(), middleware.CompanyID(c), h.kind, id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf(`inline; filename="%s.pdf"`, ref))
	c.Data(http.StatusOK, "application/pdf", data)
}

// Send godoc
// @Summary Envoie le document par email
// @Description Le PDF est généré puis envoyé en tâche de fond.
// @Tags documents
// @Security BearerAuth
// @Param id path string true "Document"
// @Param body body dto.SendDocumentRequest true "Destinataires"
// @Success 202 {object} apierror.Envelope
// @Router /v1/invoices/{id}/send [post]
func (h *DocumentsHandler) Send(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req dto.SendDocumentRequest
	if !bindAndValidate(c, &req) {
		return
	}
	if err := h.docs.Send(c.Request.Context(), middleware.CompanyID(c), h.kind, id, req); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, apierror.OKMessage("Envoi programmé", nil))
}

// Delete godoc
// @Summary Supprime un document
// @Description Factures et bons de commande passent par une demande d'approbation (202) sauf pour les approbateurs.
// @Tags documents
// @Security BearerAuth
// @Param id path string true "Document"
// @Success 200 {object} apierror.Envelope{data=dto.DeleteResult}
// @Success 202 {object} apierror.Envelope{data=dto.DeleteResult}
// @Router /v1/invoices/{id} [delete]
func (h *DocumentsHandler) Delete(c *gin.Context) {
	requestDeletion(c, h.deletions, h.kind)
}

// Convert godoc
// @Summary Convertit un devis ou un bon de livraison en facture
// @Tags documents
// @Security BearerAuth
// @Param id path string true "Devis ou bon de livraison"
// @Param body body dto.ConvertRequest false "Nouvelles périodes de location"
// @Success 201 {object} apierror.Envelope{data=dto.DocumentResponse}
// @Failure 409 {object} apierror.Envelope "Déjà converti ou panneau réservé"
// @Router /v1/quotes/{id}/convert [post]
// @Router /v1/delivery-notes/{id}/convert [post]
func (h *DocumentsHandler) Convert(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req dto.ConvertRequest
	if c.Request.ContentLength != 0 && !bindAndValidate(c, &req) {
		return
	}

	ctx := c.Request.Context()
	companyID := middleware.CompanyID(c)
	var (
		inv *model.Invoice
		err error
	)
	switch h.kind {
	case model.KindQuote:
		inv, err = h.conversion.ConvertQuote(ctx, companyID, id, req.Items)
	case model.KindDeliveryNote:
		inv, err = h.conversion.ConvertDeliveryNote(ctx, companyID, id, req.Items)
	default:
		c.JSON(http.StatusNotFound, apierror.Fail("Conversion impossible pour ce type de document"))
		return
	}
	if err != nil {
		respondError(c, err)
		return
	}

	resp, err := h.docs.Get(ctx, companyID, model.KindInvoice, inv.ID)
	if err != nil {
		log.Warn().Err(err).Str("invoice_id", inv.ID.String()).Msg("converted invoice could not be reloaded")
		c.JSON(http.StatusCreated, apierror.OK(gin.H{"id": inv.ID.String(), "reference": inv.Reference}))
		return
	}
	c.JSON(http.StatusCreated, apierror.OKMessage(fmt.Sprintf("Facture %s créée", inv.Reference), resp))
}

// Pay godoc
// @Summary Enregistre un paiement sur une facture ou un bon de commande
// @Tags payments
// @Security BearerAuth
// @Param id path string true "Document"
// @Param body body dto.PaymentRequest true "Paiement"
// @Success 201 {object} apierror.Envelope{data=dto.PaymentResponse}
// @Failure 400 {object} apierror.Envelope "Montant supérieur au reste à payer"
// @Failure 409 {object} apierror.Envelope "Document déjà payé"
// @Router /v1/invoices/{id}/payments [post]
// @Router /v1/purchase-orders/{id}/payments [post]
func (h *DocumentsHandler) Pay(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req dto.PaymentRequest
	if !bindAndValidate(c, &req) {
		return
	}

	pay := h.payments.PayInvoice
	if h.kind == model.KindPurchaseOrder {
		pay = h.payments.PayPurchaseOrder
	}
	resp, err := pay(c.Request.Context(), middleware.CompanyID(c), id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, apierror.OK(resp))
}

func (h *DocumentsHandler) Payments(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	list := h.payments.ListInvoicePayments
	if h.kind == model.KindPurchaseOrder {
		list = h.payments.ListPurchaseOrderPayments
	}
	resp, err := list(c.Request.Context(), middleware.CompanyID(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, apierror.OK(resp))
}

// requestDeletion deletes right away or files an approval request; the
// status tells which one happened.
func requestDeletion(c *gin.Context, deletions service.DeletionService, resource string) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	perms := middleware.GetClaims(c).Permissions()
	res, err := deletions.Request(c.Request.Context(), middleware.CompanyID(c), middleware.UserID(c), perms, resource, id)
	if err != nil {
		respondError(c, err)
		return
	}
	if res.Pending {
		c.JSON(http.StatusAccepted, apierror.OKMessage("Demande de suppression envoyée pour approbation", res))
		return
	}
	c.JSON(http.StatusOK, apierror.OKMessage("Supprimé", res))
}
