package pdf

import (
	"bytes"
	"fmt"
	"time"

	"github.com/jung-kurt/gofpdf"

	"github.com/aidosq/jumys-deals/internal/model"
)

type Generator struct{}

func NewGenerator() *Generator {
	return &Generator{}
}

// Generate renders the contract document handed to the contract
// parties: identifiers, parties, amount and the current lifecycle state
// of both the contract and its escrow.
func (g *Generator) Generate(doc model.ContractDocument) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(20, 20, 20)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 16)
	pdf.CellFormat(0, 10, "Freelance Work Contract", "", 1, "C", false, 0, "")

	pdf.SetFont("Helvetica", "", 10)
	pdf.CellFormat(0, 6, fmt.Sprintf("Contract %s", doc.Contract.ID), "", 1, "C", false, 0, "")
	pdf.CellFormat(0, 6, fmt.Sprintf("Concluded on %s", formatDate(doc.Contract.CreatedAt)), "", 1, "C", false, 0, "")
	pdf.Ln(6)

	addPartyBlock(pdf, "Client", doc.Contract.ClientID.String())
	pdf.Ln(2)
	addPartyBlock(pdf, "Freelancer", doc.Contract.FreelancerID.String())
	pdf.Ln(6)

	pdf.SetFont("Helvetica", "B", 12)
	pdf.CellFormat(0, 8, "Terms", "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)

	rows := [][2]string{
		{"Agreed amount", fmt.Sprintf("%.2f", doc.Contract.Amount)},
		{"Contract status", string(doc.Contract.Status)},
		{"Escrow status", string(doc.EscrowStatus)},
	}
	if doc.Contract.ProjectID != nil {
		rows = append(rows, [2]string{"Project", doc.Contract.ProjectID.String()})
	}
	for _, row := range rows {
		drawTermRow(pdf, row[0], row[1])
	}
	pdf.Ln(8)

	pdf.SetFont("Helvetica", "I", 9)
	pdf.MultiCell(0, 5, "The agreed amount is held in escrow and paid out according to the escrow lifecycle. This document reflects the state at the time of generation.", "", "L", false)

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func addPartyBlock(pdf *gofpdf.Fpdf, label, identifier string) {
	pdf.SetFont("Helvetica", "B", 11)
	pdf.CellFormat(0, 6, label, "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	pdf.CellFormat(0, 5, fmt.Sprintf("Account: %s", identifier), "", 1, "L", false, 0, "")
}

func drawTermRow(pdf *gofpdf.Fpdf, name, value string) {
	pdf.SetFont("Helvetica", "", 10)
	pdf.CellFormat(60, 7, name, "1", 0, "L", false, 0, "")
	pdf.CellFormat(110, 7, value, "1", 1, "L", false, 0, "")
}

func formatDate(t time.Time) string {
	return t.Format("02.01.2006")
}
