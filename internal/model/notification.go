package model

import (
	"time"

	"github.com/google/uuid"
)

type NotificationCategory string

const (
	NotificationProposalReceived  NotificationCategory = "proposal_received"
	NotificationProposalAccepted  NotificationCategory = "proposal_accepted"
	NotificationProposalRejected  NotificationCategory = "proposal_rejected"
	NotificationEscrowFunded      NotificationCategory = "escrow_funded"
	NotificationWorkCompleted     NotificationCategory = "work_completed"
	NotificationFundsReleased     NotificationCategory = "funds_released"
	NotificationEscrowDisputed    NotificationCategory = "escrow_disputed"
	NotificationEscrowRefunded    NotificationCategory = "escrow_refunded"
	NotificationDisputeResolved   NotificationCategory = "dispute_resolved"
	NotificationContractCompleted NotificationCategory = "contract_completed"
)

// Notification is an append-only fact produced alongside every state
// change; only the read flag is ever mutated, by the consumer endpoint.
type Notification struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey"`
	RecipientID uuid.UUID `gorm:"type:uuid;index"`
	Category    NotificationCategory
	Message     string
	Read        bool
	CreatedAt   time.Time
}

func (Notification) TableName() string { return "notifications" }
