package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/aidosq/jumys-deals/internal/model"
)

// BalanceRepository maintains the freelancer earnings ledger. Credits
// happen inside the same transaction as the escrow transition that
// releases the funds.
type BalanceRepository struct {
	db *gorm.DB
}

func NewBalanceRepository(db *gorm.DB) *BalanceRepository {
	return &BalanceRepository{db: db}
}

func (r *BalanceRepository) Credit(ctx context.Context, tx *gorm.DB, freelancerID uuid.UUID, amount float64) error {
	now := time.Now().UTC()
	return scope(r.db, tx).WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "freelancer_id"}},
			DoUpdates: clause.Assignments(map[string]interface{}{
				"available":  gorm.Expr("available + ?", amount),
				"updated_at": now,
			}),
		}).
		Create(&model.FreelancerBalance{
			FreelancerID: freelancerID,
			Available:    amount,
			UpdatedAt:    now,
		}).Error
}

func (r *BalanceRepository) Get(ctx context.Context, tx *gorm.DB, freelancerID uuid.UUID) (*model.FreelancerBalance, error) {
	var balance model.FreelancerBalance
	if err := scope(r.db, tx).WithContext(ctx).First(&balance, "freelancer_id = ?", freelancerID).Error; err != nil {
		return nil, err
	}
	return &balance, nil
}
