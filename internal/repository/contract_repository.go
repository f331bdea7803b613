package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/aidosq/jumys-deals/internal/model"
)

type ContractRepository struct {
	db *gorm.DB
}

func NewContractRepository(db *gorm.DB) *ContractRepository {
	return &ContractRepository{db: db}
}

func (r *ContractRepository) Create(ctx context.Context, tx *gorm.DB, contract *model.Contract) error {
	return scope(r.db, tx).WithContext(ctx).Create(contract).Error
}

func (r *ContractRepository) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*model.Contract, error) {
	var contract model.Contract
	if err := scope(r.db, tx).WithContext(ctx).First(&contract, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &contract, nil
}

func (r *ContractRepository) LockByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*model.Contract, error) {
	var contract model.Contract
	err := lockForUpdate(scope(r.db, tx).WithContext(ctx)).
		First(&contract, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &contract, nil
}

// UpdateStatus moves the contract only from the expected prior status.
func (r *ContractRepository) UpdateStatus(ctx context.Context, tx *gorm.DB, id uuid.UUID, from, to model.ContractStatus) (bool, error) {
	result := scope(r.db, tx).WithContext(ctx).
		Model(&model.Contract{}).
		Where("id = ? AND status = ?", id, from).
		Update("status", to)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}
