package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/aidosq/jumys-deals/internal/model"
)

type EscrowRepository struct {
	db *gorm.DB
}

func NewEscrowRepository(db *gorm.DB) *EscrowRepository {
	return &EscrowRepository{db: db}
}

func (r *EscrowRepository) Create(ctx context.Context, tx *gorm.DB, escrow *model.EscrowTransaction) error {
	return scope(r.db, tx).WithContext(ctx).Create(escrow).Error
}

func (r *EscrowRepository) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*model.EscrowTransaction, error) {
	var escrow model.EscrowTransaction
	if err := scope(r.db, tx).WithContext(ctx).First(&escrow, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &escrow, nil
}

func (r *EscrowRepository) LockByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*model.EscrowTransaction, error) {
	var escrow model.EscrowTransaction
	err := lockForUpdate(scope(r.db, tx).WithContext(ctx)).
		First(&escrow, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &escrow, nil
}

func (r *EscrowRepository) GetByContractID(ctx context.Context, tx *gorm.DB, contractID uuid.UUID) (*model.EscrowTransaction, error) {
	var escrow model.EscrowTransaction
	if err := scope(r.db, tx).WithContext(ctx).First(&escrow, "contract_id = ?", contractID).Error; err != nil {
		return nil, err
	}
	return &escrow, nil
}

// UpdateStatus advances the escrow only when its current status is one
// of the legal prior states for the transition.
func (r *EscrowRepository) UpdateStatus(ctx context.Context, tx *gorm.DB, id uuid.UUID, from []model.EscrowStatus, to model.EscrowStatus) (bool, error) {
	result := scope(r.db, tx).WithContext(ctx).
		Model(&model.EscrowTransaction{}).
		Where("id = ? AND status IN ?", id, from).
		Update("status", to)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

// ListByPeriod returns escrow rows created inside [from, to) ordered by
// creation time, for the admin ledger export.
func (r *EscrowRepository) ListByPeriod(ctx context.Context, from, to time.Time) ([]model.EscrowTransaction, error) {
	var rows []model.EscrowTransaction
	err := r.db.WithContext(ctx).
		Where("created_at >= ? AND created_at < ?", from, to).
		Order("created_at ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}
