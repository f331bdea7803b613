package model

import (
	"time"

	"github.com/google/uuid"
)

type ProjectStatus string

const (
	ProjectStatusOpen       ProjectStatus = "open"
	ProjectStatusInProgress ProjectStatus = "in_progress"
	ProjectStatusCompleted  ProjectStatus = "completed"
	ProjectStatusCancelled  ProjectStatus = "cancelled"
)

type Project struct {
	ID                uuid.UUID `gorm:"type:uuid;primaryKey"`
	ClientID          uuid.UUID `gorm:"type:uuid"`
	Title             string
	Status            ProjectStatus
	HiredFreelancerID *uuid.UUID `gorm:"type:uuid"`
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

func (Project) TableName() string { return "projects" }
