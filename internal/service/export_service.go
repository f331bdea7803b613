package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/aidosq/jumys-deals/internal/model"
	"github.com/aidosq/jumys-deals/internal/repository"
)

type ContractPDFGenerator interface {
	Generate(doc model.ContractDocument) ([]byte, error)
}

type LedgerExcelGenerator interface {
	Generate(export model.EscrowLedgerExport) ([]byte, error)
}

// ExportService produces downloadable artifacts: the contract document
// for its parties and the escrow ledger spreadsheet for administrators.
type ExportService struct {
	contracts *repository.ContractRepository
	escrows   *repository.EscrowRepository
	pdf       ContractPDFGenerator
	excel     LedgerExcelGenerator
}

func NewExportService(
	contracts *repository.ContractRepository,
	escrows *repository.EscrowRepository,
	pdf ContractPDFGenerator,
	excel LedgerExcelGenerator,
) *ExportService {
	return &ExportService{contracts: contracts, escrows: escrows, pdf: pdf, excel: excel}
}

type ExportResult struct {
	FileName string
	Content  []byte
}

func (s *ExportService) ContractDocument(ctx context.Context, contractID uuid.UUID, principal model.Principal) (*ExportResult, error) {
	contract, err := s.contracts.GetByID(ctx, nil, contractID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: contract", ErrNotFound)
		}
		return nil, storeError(err)
	}

	party := principal.UserID == contract.ClientID || principal.UserID == contract.FreelancerID
	if !party && !principal.IsAdmin() {
		return nil, fmt.Errorf("%w: not a party to this contract", ErrForbidden)
	}

	escrow, err := s.escrows.GetByContractID(ctx, nil, contract.ID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: escrow for contract", ErrNotFound)
		}
		return nil, storeError(err)
	}

	content, err := s.pdf.Generate(model.ContractDocument{
		Contract:     *contract,
		EscrowStatus: escrow.Status,
	})
	if err != nil {
		return nil, err
	}
	return &ExportResult{
		FileName: fmt.Sprintf("contract-%s.pdf", contract.ID),
		Content:  content,
	}, nil
}

type LedgerExportInput struct {
	PeriodStart time.Time
	PeriodEnd   time.Time
	Principal   model.Principal
}

func (s *ExportService) EscrowLedger(ctx context.Context, input LedgerExportInput) (*ExportResult, error) {
	if !input.Principal.IsAdmin() {
		return nil, fmt.Errorf("%w: ledger export is admin-only", ErrForbidden)
	}
	if input.PeriodStart.IsZero() || input.PeriodEnd.IsZero() {
		return nil, fmt.Errorf("%w: period dates are required", ErrInvalidInput)
	}
	if input.PeriodStart.After(input.PeriodEnd) {
		return nil, fmt.Errorf("%w: period_start must be before or equal to period_end", ErrInvalidInput)
	}

	endExclusive := input.PeriodEnd.Add(24 * time.Hour)
	rows, err := s.escrows.ListByPeriod(ctx, input.PeriodStart, endExclusive)
	if err != nil {
		return nil, storeError(err)
	}

	export := model.EscrowLedgerExport{
		PeriodStart: input.PeriodStart,
		PeriodEnd:   input.PeriodEnd,
		Rows:        rows,
	}
	for _, row := range rows {
		export.TotalAmount += row.Amount
	}

	content, err := s.excel.Generate(export)
	if err != nil {
		return nil, err
	}
	fileName := fmt.Sprintf("escrow-ledger-%s-%s.xlsx",
		input.PeriodStart.Format("20060102"), input.PeriodEnd.Format("20060102"))
	return &ExportResult{FileName: fileName, Content: content}, nil
}
