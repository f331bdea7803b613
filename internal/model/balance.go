package model

import (
	"time"

	"github.com/google/uuid"
)

// FreelancerBalance is the earnings ledger credited when escrowed funds
// are released to a freelancer.
type FreelancerBalance struct {
	FreelancerID uuid.UUID `gorm:"type:uuid;primaryKey"`
	Available    float64
	UpdatedAt    time.Time
}

func (FreelancerBalance) TableName() string { return "freelancer_balances" }
