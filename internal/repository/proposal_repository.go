package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/aidosq/jumys-deals/internal/model"
)

type ProposalRepository struct {
	db *gorm.DB
}

func NewProposalRepository(db *gorm.DB) *ProposalRepository {
	return &ProposalRepository{db: db}
}

func (r *ProposalRepository) Create(ctx context.Context, tx *gorm.DB, proposal *model.Proposal) error {
	return scope(r.db, tx).WithContext(ctx).Create(proposal).Error
}

func (r *ProposalRepository) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*model.Proposal, error) {
	var proposal model.Proposal
	if err := scope(r.db, tx).WithContext(ctx).First(&proposal, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &proposal, nil
}

// LockByID reads the proposal under a pessimistic row lock so concurrent
// resolution attempts on the same id serialize on the database.
func (r *ProposalRepository) LockByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*model.Proposal, error) {
	var proposal model.Proposal
	err := lockForUpdate(scope(r.db, tx).WithContext(ctx)).
		First(&proposal, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &proposal, nil
}

// UpdateStatus advances the proposal only when it is still in the
// expected prior status. Returns false when the guard did not match.
func (r *ProposalRepository) UpdateStatus(ctx context.Context, tx *gorm.DB, id uuid.UUID, from, to model.ProposalStatus) (bool, error) {
	result := scope(r.db, tx).WithContext(ctx).
		Model(&model.Proposal{}).
		Where("id = ? AND status = ?", id, from).
		Update("status", to)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

// HasPublicForProject reports whether the freelancer already has a
// public proposal on the project, regardless of its status.
func (r *ProposalRepository) HasPublicForProject(ctx context.Context, tx *gorm.DB, projectID, freelancerID uuid.UUID) (bool, error) {
	var count int64
	err := scope(r.db, tx).WithContext(ctx).
		Model(&model.Proposal{}).
		Where("project_id = ? AND freelancer_id = ? AND kind = ?", projectID, freelancerID, model.ProposalKindPublic).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
