package infra

// pdf.go renders quotes, delivery notes, invoices and purchase orders on A4
// with go-pdf/fpdf: company header (logo when available), counterparty
// block, item table, tax breakdown, totals and an optional note.

import (
	"bytes"
	"fmt"
	"io"
	"time"

	"github.com/go-pdf/fpdf"
	"github.com/shopspring/decimal"
)

type PDFLine struct {
	Name        string
	Description string
	Period      string
	Quantity    int
	UnitPrice   decimal.Decimal
	Discount    string
	Total       decimal.Decimal
}

type PDFTax struct {
	Name   string
	Amount decimal.Decimal
}

// PDFDocument is everything printed on a commercial document.
type PDFDocument struct {
	Title        string // "FACTURE", "DEVIS", ...
	Reference    string
	Date         time.Time
	PaymentLimit *time.Time

	CompanyName    string
	CompanyAddress string
	CompanyEmail   string
	CompanyPhone   string
	Logo           []byte // PNG

	PartyLabel   string // "Client" or "Fournisseur"
	PartyName    string
	PartyAddress string
	PartyEmail   string

	Currency   string
	Lines      []PDFLine
	Taxes      []PDFTax
	Discount   string
	TotalHT    decimal.Decimal
	TotalTTC   decimal.Decimal
	AmountType string
	Payee      *decimal.Decimal
	Note       string
}

// RenderDocumentPDF writes doc as a PDF to w.
func RenderDocumentPDF(w io.Writer, doc PDFDocument) error {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(15, 15, 15)
	pdf.SetAutoPageBreak(true, 20)
	pdf.AddPage()
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pageW, _ := pdf.GetPageSize()
	contentW := pageW - 30

	// ── Header ───────────────────────────────────────────────────────────────
	top := pdf.GetY()
	if len(doc.Logo) > 0 {
		opt := fpdf.ImageOptions{ImageType: "PNG", ReadDpi: true}
		pdf.RegisterImageOptionsReader("logo", opt, bytes.NewReader(doc.Logo))
		if pdf.Ok() {
			pdf.ImageOptions("logo", 15, top, 0, 20, false, opt, 0, "")
		} else {
			// A broken logo must not block the document.
			pdf.ClearError()
		}
	}

	pdf.SetFont("Helvetica", "B", 14)
	pdf.SetXY(pageW/2, top)
	pdf.CellFormat(contentW/2, 7, tr(doc.CompanyName), "", 2, "R", false, 0, "")
	pdf.SetFont("Helvetica", "", 9)
	for _, line := range []string{doc.CompanyAddress, doc.CompanyEmail, doc.CompanyPhone} {
		if line != "" {
			pdf.CellFormat(contentW/2, 5, tr(line), "", 2, "R", false, 0, "")
		}
	}
	pdf.SetY(top + 28)

	// ── Title and party ───────────────────────────────────────────────────────
	pdf.SetFont("Helvetica", "B", 16)
	pdf.CellFormat(contentW, 8, tr(fmt.Sprintf("%s N° %s", doc.Title, doc.Reference)), "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 9)
	pdf.CellFormat(contentW, 5, "Date : "+doc.Date.Format("02/01/2006"), "", 1, "L", false, 0, "")
	if doc.PaymentLimit != nil {
		pdf.CellFormat(contentW, 5, tr("Échéance : ")+doc.PaymentLimit.Format("02/01/2006"), "", 1, "L", false, 0, "")
	}
	pdf.Ln(3)

	pdf.SetFont("Helvetica", "B", 10)
	pdf.CellFormat(contentW, 6, tr(doc.PartyLabel+" : "+doc.PartyName), "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 9)
	for _, line := range []string{doc.PartyAddress, doc.PartyEmail} {
		if line != "" {
			pdf.CellFormat(contentW, 5, tr(line), "", 1, "L", false, 0, "")
		}
	}
	pdf.Ln(4)

	// ── Items ─────────────────────────────────────────────────────────────────
	widths := []float64{contentW * 0.40, contentW * 0.10, contentW * 0.17, contentW * 0.13, contentW * 0.20}
	headers := []string{"Désignation", "Qté", "Prix unitaire", "Remise", "Total HT"}
	pdf.SetFont("Helvetica", "B", 9)
	pdf.SetFillColor(230, 230, 230)
	for i, h := range headers {
		pdf.CellFormat(widths[i], 7, tr(h), "1", 0, "C", true, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Helvetica", "", 9)
	for _, l := range doc.Lines {
		name := l.Name
		if l.Period != "" {
			name += " (" + l.Period + ")"
		}
		pdf.CellFormat(widths[0], 6, tr(truncate(name, 48)), "1", 0, "L", false, 0, "")
		pdf.CellFormat(widths[1], 6, fmt.Sprintf("%d", l.Quantity), "1", 0, "C", false, 0, "")
		pdf.CellFormat(widths[2], 6, money(l.UnitPrice, doc.Currency), "1", 0, "R", false, 0, "")
		pdf.CellFormat(widths[3], 6, l.Discount, "1", 0, "R", false, 0, "")
		pdf.CellFormat(widths[4], 6, money(l.Total, doc.Currency), "1", 1, "R", false, 0, "")
	}
	pdf.Ln(4)

	// ── Totals ────────────────────────────────────────────────────────────────
	labelW := contentW * 0.75
	valueW := contentW * 0.25
	row := func(label, value string, bold bool) {
		style := ""
		if bold {
			style = "B"
		}
		pdf.SetFont("Helvetica", style, 9)
		pdf.CellFormat(labelW, 6, tr(label), "", 0, "R", false, 0, "")
		pdf.CellFormat(valueW, 6, value, "", 1, "R", false, 0, "")
	}
	if doc.Discount != "" {
		row("Remise", doc.Discount, false)
	}
	row("Total HT", money(doc.TotalHT, doc.Currency), doc.AmountType != "TTC")
	for _, t := range doc.Taxes {
		row(t.Name, money(t.Amount, doc.Currency), false)
	}
	row("Total TTC", money(doc.TotalTTC, doc.Currency), doc.AmountType == "TTC")
	if doc.Payee != nil {
		row("Déjà réglé", money(*doc.Payee, doc.Currency), false)
	}

	if doc.Note != "" {
		pdf.Ln(6)
		pdf.SetFont("Helvetica", "I", 8)
		pdf.MultiCell(contentW, 4, tr(doc.Note), "", "L", false)
	}

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("pdf: write: %w", err)
	}
	return nil
}

func money(d decimal.Decimal, currency string) string {
	s := d.StringFixed(1)
	if currency != "" {
		s += " " + currency
	}
	return s
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "..."
}
