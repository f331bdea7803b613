package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/aidosq/jumys-deals/internal/model"
	"github.com/aidosq/jumys-deals/internal/repository"
)

// ContractService finalizes contracts. Completion is restricted to the
// client party and is deliberately independent of the escrow state: the
// two lifecycles are decoupled.
type ContractService struct {
	db        *gorm.DB
	log       zerolog.Logger
	contracts *repository.ContractRepository
	notifier  Notifier
	events    EventPublisher
}

func NewContractService(
	db *gorm.DB,
	log zerolog.Logger,
	contracts *repository.ContractRepository,
	notifier Notifier,
	events EventPublisher,
) *ContractService {
	return &ContractService{
		db:        db,
		log:       log.With().Str("service", "ContractService").Logger(),
		contracts: contracts,
		notifier:  notifier,
		events:    events,
	}
}

// Complete moves an active contract to completed, exactly once.
func (s *ContractService) Complete(ctx context.Context, contractID uuid.UUID, principal model.Principal) (model.ContractStatus, error) {
	var clientID, freelancerID uuid.UUID
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		contract, err := s.contracts.LockByID(ctx, tx, contractID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: contract", ErrNotFound)
			}
			return err
		}

		if principal.UserID != contract.ClientID {
			return fmt.Errorf("%w: only the client may complete the contract", ErrForbidden)
		}
		switch contract.Status {
		case model.ContractStatusActive:
		case model.ContractStatusCompleted:
			return fmt.Errorf("%w: contract", ErrAlreadyCompleted)
		default:
			return fmt.Errorf("%w: cannot complete a %s contract", ErrInvalidStateTransition, contract.Status)
		}

		updated, err := s.contracts.UpdateStatus(ctx, tx, contract.ID, model.ContractStatusActive, model.ContractStatusCompleted)
		if err != nil {
			return err
		}
		if !updated {
			return fmt.Errorf("%w: contract", ErrAlreadyCompleted)
		}

		clientID, freelancerID = contract.ClientID, contract.FreelancerID
		message := "Contract was marked completed"
		if err := s.notifier.Emit(ctx, tx, contract.ClientID, model.NotificationContractCompleted, message); err != nil {
			return err
		}
		return s.notifier.Emit(ctx, tx, contract.FreelancerID, model.NotificationContractCompleted, message)
	})
	if err != nil {
		return "", storeError(err)
	}

	if s.events != nil {
		data := map[string]interface{}{"contract_id": contractID.String()}
		for _, recipient := range []uuid.UUID{clientID, freelancerID} {
			if err := s.events.Publish(ctx, recipient, "contract_completed", data); err != nil {
				s.log.Warn().Err(err).Str("contract_id", contractID.String()).Msg("realtime publish failed")
			}
		}
	}
	return model.ContractStatusCompleted, nil
}
