package model

import (
	"time"

	"github.com/google/uuid"
)

type ContractStatus string

const (
	ContractStatusActive    ContractStatus = "active"
	ContractStatusCompleted ContractStatus = "completed"
)

// Contract is the binding agreement created when a proposal is accepted.
// Amount is copied from the proposal at acceptance time and never changes.
type Contract struct {
	ID           uuid.UUID  `gorm:"type:uuid;primaryKey"`
	ProposalID   uuid.UUID  `gorm:"type:uuid;uniqueIndex"`
	ProjectID    *uuid.UUID `gorm:"type:uuid"`
	ClientID     uuid.UUID  `gorm:"type:uuid"`
	FreelancerID uuid.UUID  `gorm:"type:uuid"`
	Amount       float64
	Status       ContractStatus
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (Contract) TableName() string { return "contracts" }
