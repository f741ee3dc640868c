package worker

import (
	"context"
	"encoding/json"
	"fmt"

	"atlascrm/internal/infra"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// DocumentJobPayload is the job envelope sent to QueueDocuments.
type DocumentJobPayload struct {
	CompanyID  string   `json:"company_id"`
	Kind       string   `json:"kind"`
	DocumentID string   `json:"document_id"`
	To         []string `json:"to"`
	Subject    string   `json:"subject"`
	Message    string   `json:"message"`
}

// DocumentRenderer renders a stored document to PDF and returns its
// reference alongside the bytes.
type DocumentRenderer interface {
	RenderPDF(ctx context.Context, companyID uuid.UUID, kind string, id uuid.UUID) (string, []byte, error)
}

// DocumentWorker renders a quote, delivery note, invoice or purchase order
// and mails it with the PDF attached.
type DocumentWorker struct {
	renderer DocumentRenderer
	mailer   MailSender
}

func NewDocumentWorker(renderer DocumentRenderer, mailer MailSender) *DocumentWorker {
	return &DocumentWorker{renderer: renderer, mailer: mailer}
}

func (w *DocumentWorker) Process(ctx context.Context, raw json.RawMessage) error {
	var payload DocumentJobPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return fmt.Errorf("document_worker: invalid payload: %w", err)
	}
	companyID, err := uuid.Parse(payload.CompanyID)
	if err != nil {
		return fmt.Errorf("document_worker: invalid company_id: %w", err)
	}
	docID, err := uuid.Parse(payload.DocumentID)
	if err != nil {
		return fmt.Errorf("document_worker: invalid document_id: %w", err)
	}

	reference, pdf, err := w.renderer.RenderPDF(ctx, companyID, payload.Kind, docID)
	if err != nil {
		return fmt.Errorf("document_worker: render %s %s: %w", payload.Kind, payload.DocumentID, err)
	}

	subject := payload.Subject
	if subject == "" {
		subject = fmt.Sprintf("%s %s", documentLabel(payload.Kind), reference)
	}
	msg := infra.Mail{
		To:      payload.To,
		Subject: subject,
		Text:    payload.Message,
		Attachments: []infra.Attachment{{
			Name:        reference + ".pdf",
			ContentType: "application/pdf",
			Data:        pdf,
		}},
	}
	if err := w.mailer.Send(msg); err != nil {
		return fmt.Errorf("document_worker: send: %w", err)
	}

	log.Info().
		Str("kind", payload.Kind).
		Str("document_id", payload.DocumentID).
		Str("reference", reference).
		Strs("to", payload.To).
		Msg("document_worker: document sent")
	return nil
}

func documentLabel(kind string) string {
	switch kind {
	case "invoice":
		return "Facture"
	case "quote":
		return "Devis"
	case "delivery_note":
		return "Bon de livraison"
	case "purchase_order":
		return "Bon de commande"
	}
	return "Document"
}
