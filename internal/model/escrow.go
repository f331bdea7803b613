package model

import (
	"time"

	"github.com/google/uuid"
)

type EscrowStatus string

const (
	EscrowStatusPendingPayment  EscrowStatus = "pending_payment"
	EscrowStatusPaymentReceived EscrowStatus = "payment_received"
	EscrowStatusWorkCompleted   EscrowStatus = "work_completed"
	EscrowStatusFundsReleased   EscrowStatus = "funds_released"
	EscrowStatusDisputed        EscrowStatus = "disputed"
	EscrowStatusRefunded        EscrowStatus = "refunded"
)

// Terminal reports whether no further transition is legal from s.
func (s EscrowStatus) Terminal() bool {
	return s == EscrowStatusFundsReleased || s == EscrowStatusRefunded
}

// EscrowTransaction is the custody ledger entry for a contract's funds.
// Exactly one escrow exists per contract; amount is copied from the
// contract and never changes.
type EscrowTransaction struct {
	ID           uuid.UUID  `gorm:"type:uuid;primaryKey"`
	ContractID   uuid.UUID  `gorm:"type:uuid;uniqueIndex"`
	ProjectID    *uuid.UUID `gorm:"type:uuid"`
	ClientID     uuid.UUID  `gorm:"type:uuid"`
	FreelancerID uuid.UUID  `gorm:"type:uuid"`
	Amount       float64
	Status       EscrowStatus
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (EscrowTransaction) TableName() string { return "escrow_transactions" }

// Party reports whether userID is the client or the freelancer on this escrow.
func (e EscrowTransaction) Party(userID uuid.UUID) bool {
	return userID == e.ClientID || userID == e.FreelancerID
}
