package render

import (
	"bytes"
	"fmt"

	"github.com/jung-kurt/gofpdf"
)

const (
	pageMargin = 15.0
	fontFamily = "Helvetica"
)

var (
	brandBlue = [3]int{30, 136, 229}
	textGray  = [3]int{102, 102, 102}
)

// PDF renders quotes with gofpdf using the core Helvetica font.
type PDF struct{}

func NewPDF() *PDF { return &PDF{} }

func (g *PDF) Render(doc QuoteDocument) ([]byte, error) {
	q := doc.Quote
	pdf := gofpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetTitle(tr("Devis "+doc.Number()), false)
	pdf.SetAuthor(tr(doc.Company()), false)
	pdf.SetMargins(pageMargin, pageMargin, pageMargin)
	pdf.SetAutoPageBreak(true, 20)
	pdf.SetFooterFunc(func() {
		pdf.SetY(-15)
		pdf.SetFont(fontFamily, "I", 8)
		pdf.SetTextColor(textGray[0], textGray[1], textGray[2])
		pdf.CellFormat(90, 5, tr("Document généré par FaciliDevis"), "", 0, "L", false, 0, "")
		pdf.CellFormat(0, 5, fmt.Sprintf("%d/{nb}", pdf.PageNo()), "", 0, "R", false, 0, "")
	})
	pdf.AliasNbPages("")
	pdf.AddPage()

	// Header: issuer on the left, reference block on the right.
	pdf.SetTextColor(brandBlue[0], brandBlue[1], brandBlue[2])
	pdf.SetFont(fontFamily, "B", 18)
	pdf.Cell(110, 9, tr(doc.Company()))
	pdf.SetFont(fontFamily, "B", 16)
	pdf.CellFormat(0, 9, "DEVIS", "", 1, "R", false, 0, "")

	pdf.SetTextColor(0, 0, 0)
	pdf.SetFont(fontFamily, "", 10)
	issuerLines := []string{}
	if doc.Issuer != nil {
		issuerLines = append(issuerLines, "Email: "+doc.Issuer.Email)
		if doc.Issuer.Phone != "" {
			issuerLines = append(issuerLines, "Tél: "+doc.Issuer.Phone)
		}
	}
	refLines := []string{
		"N° " + doc.Number(),
		"Date: " + Date(doc.IssuedOn()),
		"Valable jusqu'au: " + Date(doc.ValidUntil()),
	}
	for i := 0; i < max(len(issuerLines), len(refLines)); i++ {
		left, right := "", ""
		if i < len(issuerLines) {
			left = issuerLines[i]
		}
		if i < len(refLines) {
			right = refLines[i]
		}
		pdf.Cell(110, 5, tr(left))
		pdf.CellFormat(0, 5, tr(right), "", 1, "R", false, 0, "")
	}
	pdf.Ln(6)

	// Client block.
	if c := q.Client; c != nil {
		pdf.SetFont(fontFamily, "B", 10)
		pdf.Cell(0, 5, tr("Adresse du client"))
		pdf.Ln(5)
		pdf.SetFont(fontFamily, "", 10)
		pdf.Cell(0, 5, tr(c.Name))
		pdf.Ln(5)
		if c.Address != "" {
			pdf.MultiCell(90, 5, tr(c.Address), "", "L", false)
		}
		if c.Phone != "" {
			pdf.Cell(0, 5, tr("Tél: "+c.Phone))
			pdf.Ln(5)
		}
		if c.Email != "" {
			pdf.Cell(0, 5, tr("Email: "+c.Email))
			pdf.Ln(5)
		}
		pdf.Ln(4)
	}

	pdf.SetFont(fontFamily, "B", 13)
	pdf.MultiCell(0, 7, tr(q.Title), "", "L", false)
	if q.Description != "" {
		pdf.SetFont(fontFamily, "B", 10)
		pdf.Cell(0, 6, tr("Description du projet:"))
		pdf.Ln(6)
		pdf.SetFont(fontFamily, "", 10)
		pdf.MultiCell(0, 5, tr(q.Description), "", "L", false)
	}
	pdf.Ln(4)

	// Items table.
	widths := []float64{95, 25, 30, 30}
	pdf.SetFillColor(brandBlue[0], brandBlue[1], brandBlue[2])
	pdf.SetTextColor(255, 255, 255)
	pdf.SetFont(fontFamily, "B", 10)
	for i, h := range []string{"Désignation", "Qté", "Prix unit.", "Total HT"} {
		align := "R"
		if i == 0 {
			align = "L"
		}
		pdf.CellFormat(widths[i], 8, tr(h), "", 0, align, true, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetTextColor(0, 0, 0)
	pdf.SetFont(fontFamily, "", 10)
	for _, it := range q.Items {
		pdf.CellFormat(widths[0], 7, tr(truncate(it.Label, 55)), "B", 0, "L", false, 0, "")
		pdf.CellFormat(widths[1], 7, quantity(it.Quantity), "B", 0, "R", false, 0, "")
		pdf.CellFormat(widths[2], 7, tr(Money(it.UnitPrice)), "B", 0, "R", false, 0, "")
		pdf.CellFormat(widths[3], 7, tr(Money(it.Total)), "B", 1, "R", false, 0, "")
	}
	pdf.Ln(4)

	// Totals.
	totals := [][2]string{
		{"Total HT:", Money(q.AmountHT)},
		{"TVA (20%):", Money(doc.VAT())},
		{"Total TTC:", Money(q.AmountTTC)},
	}
	for i, row := range totals {
		style := ""
		if i == len(totals)-1 {
			style = "B"
		}
		pdf.SetFont(fontFamily, style, 11)
		pdf.CellFormat(150, 7, tr(row[0]), "", 0, "R", false, 0, "")
		pdf.CellFormat(30, 7, tr(row[1]), "", 1, "R", false, 0, "")
	}
	pdf.Ln(8)

	// Payment terms.
	deposit, balance := doc.Deposit()
	pdf.SetFont(fontFamily, "B", 9)
	pdf.Cell(0, 5, tr("Conditions de règlement:"))
	pdf.Ln(6)
	pdf.SetFont(fontFamily, "", 9)
	pdf.Cell(0, 5, tr(fmt.Sprintf("Acompte de %s%% à la commande: %s", DepositRate.Shift(2).String(), Money(deposit))))
	pdf.Ln(5)
	pdf.Cell(0, 5, tr("Solde à la livraison: "+Money(balance)))
	pdf.Ln(8)
	pdf.SetFont(fontFamily, "", 8)
	pdf.MultiCell(0, 4, tr("Merci de nous retourner un exemplaire de ce devis signé avec votre nom et revêtu de la mention « Bon pour accord et commande »."), "", "L", false)

	if sig := q.Signature; sig != nil {
		pdf.Ln(4)
		pdf.SetFont(fontFamily, "I", 9)
		pdf.Cell(0, 5, tr(fmt.Sprintf("Accepté en ligne le %s", sig.SignedAt.Format("02/01/2006 à 15:04"))))
		pdf.Ln(5)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render quote pdf: %w", err)
	}
	return buf.Bytes(), nil
}

func quantity(q float64) string {
	if q == float64(int64(q)) {
		return fmt.Sprintf("%d", int64(q))
	}
	return fmt.Sprintf("%.2f", q)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
