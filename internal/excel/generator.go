package excel

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/aidosq/jumys-deals/internal/model"
)

type Generator struct{}

func NewGenerator() *Generator {
	return &Generator{}
}

// Generate renders the escrow ledger export: a summary sheet followed
// by one row per escrow transaction in the period.
func (g *Generator) Generate(export model.EscrowLedgerExport) ([]byte, error) {
	file := excelize.NewFile()

	sheet := "Escrow Ledger"
	file.SetSheetName("Sheet1", sheet)

	summary := [][]interface{}{
		{"Period start", export.PeriodStart.Format("2006-01-02")},
		{"Period end", export.PeriodEnd.Format("2006-01-02")},
		{"Transactions", len(export.Rows)},
		{"Total amount", export.TotalAmount},
	}
	for i, row := range summary {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return nil, err
		}
		if err := file.SetSheetRow(sheet, cell, &row); err != nil {
			return nil, err
		}
	}

	headers := []interface{}{"ID", "Contract", "Client", "Freelancer", "Amount", "Status", "Created"}
	headerRow := len(summary) + 2
	cell, err := excelize.CoordinatesToCellName(1, headerRow)
	if err != nil {
		return nil, err
	}
	if err := file.SetSheetRow(sheet, cell, &headers); err != nil {
		return nil, err
	}

	for i, escrow := range export.Rows {
		values := []interface{}{
			escrow.ID.String(),
			escrow.ContractID.String(),
			escrow.ClientID.String(),
			escrow.FreelancerID.String(),
			escrow.Amount,
			string(escrow.Status),
			escrow.CreatedAt.Format("2006-01-02 15:04:05"),
		}
		cell, err := excelize.CoordinatesToCellName(1, headerRow+1+i)
		if err != nil {
			return nil, err
		}
		if err := file.SetSheetRow(sheet, cell, &values); err != nil {
			return nil, err
		}
	}

	for col, width := range map[string]float64{"A": 38, "B": 38, "C": 38, "D": 38, "E": 12, "F": 18, "G": 20} {
		if err := file.SetColWidth(sheet, col, col, width); err != nil {
			return nil, err
		}
	}

	buf, err := file.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf.Bytes(), nil
}
