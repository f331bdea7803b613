package model

import (
	"time"

	"github.com/google/uuid"
)

type ProposalKind string

const (
	ProposalKindPublic ProposalKind = "public" // freelancer bids on a posted project
	ProposalKindDirect ProposalKind = "direct" // client sends an offer to a freelancer
)

type ProposalStatus string

const (
	ProposalStatusPending  ProposalStatus = "pending"
	ProposalStatusAccepted ProposalStatus = "accepted"
	ProposalStatusRejected ProposalStatus = "rejected"
)

type Proposal struct {
	ID            uuid.UUID  `gorm:"type:uuid;primaryKey"`
	ProjectID     *uuid.UUID `gorm:"type:uuid"` // nil for direct offers without a posted project
	ClientID      uuid.UUID  `gorm:"type:uuid"`
	FreelancerID  uuid.UUID  `gorm:"type:uuid"`
	ProposedPrice float64
	Kind          ProposalKind
	CoverLetter   string
	Status        ProposalStatus
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

func (Proposal) TableName() string { return "proposals" }
