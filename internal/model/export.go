package model

import "time"

// ContractDocument is the flattened view rendered into the downloadable
// contract PDF.
type ContractDocument struct {
	Contract     Contract
	EscrowStatus EscrowStatus
}

// EscrowLedgerExport is the admin-facing ledger snapshot rendered into
// a spreadsheet.
type EscrowLedgerExport struct {
	PeriodStart time.Time
	PeriodEnd   time.Time
	Rows        []EscrowTransaction
	TotalAmount float64
}
