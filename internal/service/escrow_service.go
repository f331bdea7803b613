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

type DisputeOutcome string

const (
	DisputeOutcomeRelease DisputeOutcome = "release"
	DisputeOutcomeRefund  DisputeOutcome = "refund"
)

// EscrowService drives the custody ledger through its legal state
// graph:
//
//	pending_payment → payment_received → work_completed → funds_released
//	{payment_received, work_completed} → disputed → {funds_released | refunded}
//	payment_received → refunded
//
// Each transition locks the escrow row, re-verifies actor and status
// under the lock, then performs a conditional update guarded by the
// prior status. funds_released and refunded are terminal.
type EscrowService struct {
	db       *gorm.DB
	log      zerolog.Logger
	escrows  *repository.EscrowRepository
	balances *repository.BalanceRepository
	notifier Notifier
	events   EventPublisher
}

func NewEscrowService(
	db *gorm.DB,
	log zerolog.Logger,
	escrows *repository.EscrowRepository,
	balances *repository.BalanceRepository,
	notifier Notifier,
	events EventPublisher,
) *EscrowService {
	return &EscrowService{
		db:       db,
		log:      log.With().Str("service", "EscrowService").Logger(),
		escrows:  escrows,
		balances: balances,
		notifier: notifier,
		events:   events,
	}
}

// Fund records the client's payment into escrow.
func (s *EscrowService) Fund(ctx context.Context, escrowID uuid.UUID, principal model.Principal) (model.EscrowStatus, error) {
	return s.transition(ctx, escrowID, principal, transition{
		from: []model.EscrowStatus{model.EscrowStatusPendingPayment},
		to:   model.EscrowStatusPaymentReceived,
		authorized: func(e *model.EscrowTransaction, p model.Principal) bool {
			return p.UserID == e.ClientID
		},
		effects: func(ctx context.Context, tx *gorm.DB, e *model.EscrowTransaction) error {
			return s.notifier.Emit(ctx, tx, e.FreelancerID, model.NotificationEscrowFunded,
				fmt.Sprintf("Escrow funded: %.2f is held for your contract", e.Amount))
		},
	})
}

// CompleteWork is the freelancer marking the contracted work as done.
func (s *EscrowService) CompleteWork(ctx context.Context, escrowID uuid.UUID, principal model.Principal) (model.EscrowStatus, error) {
	return s.transition(ctx, escrowID, principal, transition{
		from: []model.EscrowStatus{model.EscrowStatusPaymentReceived},
		to:   model.EscrowStatusWorkCompleted,
		authorized: func(e *model.EscrowTransaction, p model.Principal) bool {
			return p.UserID == e.FreelancerID
		},
		effects: func(ctx context.Context, tx *gorm.DB, e *model.EscrowTransaction) error {
			return s.notifier.Emit(ctx, tx, e.ClientID, model.NotificationWorkCompleted,
				"Work on your contract was marked completed; review and release the funds")
		},
	})
}

// Release pays the held amount out to the freelancer and credits the
// earnings ledger in the same transaction.
func (s *EscrowService) Release(ctx context.Context, escrowID uuid.UUID, principal model.Principal) (model.EscrowStatus, error) {
	return s.transition(ctx, escrowID, principal, transition{
		from: []model.EscrowStatus{model.EscrowStatusWorkCompleted},
		to:   model.EscrowStatusFundsReleased,
		authorized: func(e *model.EscrowTransaction, p model.Principal) bool {
			return p.UserID == e.ClientID
		},
		effects: s.creditAndNotifyRelease,
	})
}

// Dispute freezes the escrow for administrative resolution. Either
// party may raise it while funds are held.
func (s *EscrowService) Dispute(ctx context.Context, escrowID uuid.UUID, principal model.Principal) (model.EscrowStatus, error) {
	return s.transition(ctx, escrowID, principal, transition{
		from: []model.EscrowStatus{model.EscrowStatusPaymentReceived, model.EscrowStatusWorkCompleted},
		to:   model.EscrowStatusDisputed,
		authorized: func(e *model.EscrowTransaction, p model.Principal) bool {
			return e.Party(p.UserID)
		},
		effects: func(ctx context.Context, tx *gorm.DB, e *model.EscrowTransaction) error {
			message := "A dispute was opened on your escrow"
			if err := s.notifier.Emit(ctx, tx, e.ClientID, model.NotificationEscrowDisputed, message); err != nil {
				return err
			}
			return s.notifier.Emit(ctx, tx, e.FreelancerID, model.NotificationEscrowDisputed, message)
		},
	})
}

// Refund returns held funds to the client. Allowed to the client before
// work is completed, or to an administrator.
func (s *EscrowService) Refund(ctx context.Context, escrowID uuid.UUID, principal model.Principal) (model.EscrowStatus, error) {
	return s.transition(ctx, escrowID, principal, transition{
		from: []model.EscrowStatus{model.EscrowStatusPaymentReceived, model.EscrowStatusDisputed},
		to:   model.EscrowStatusRefunded,
		authorized: func(e *model.EscrowTransaction, p model.Principal) bool {
			return p.IsAdmin() || p.UserID == e.ClientID
		},
		effects: func(ctx context.Context, tx *gorm.DB, e *model.EscrowTransaction) error {
			return s.notifier.Emit(ctx, tx, e.ClientID, model.NotificationEscrowRefunded,
				fmt.Sprintf("Escrow refunded: %.2f was returned to you", e.Amount))
		},
	})
}

// ResolveDispute is the administrative verdict on a disputed escrow:
// release credits the freelancer, refund returns the funds.
func (s *EscrowService) ResolveDispute(ctx context.Context, escrowID uuid.UUID, outcome DisputeOutcome, principal model.Principal) (model.EscrowStatus, error) {
	var to model.EscrowStatus
	switch outcome {
	case DisputeOutcomeRelease:
		to = model.EscrowStatusFundsReleased
	case DisputeOutcomeRefund:
		to = model.EscrowStatusRefunded
	default:
		return "", fmt.Errorf("%w: unknown dispute outcome %q", ErrInvalidInput, outcome)
	}

	return s.transition(ctx, escrowID, principal, transition{
		from: []model.EscrowStatus{model.EscrowStatusDisputed},
		to:   to,
		authorized: func(e *model.EscrowTransaction, p model.Principal) bool {
			return p.IsAdmin()
		},
		effects: func(ctx context.Context, tx *gorm.DB, e *model.EscrowTransaction) error {
			if to == model.EscrowStatusFundsReleased {
				if err := s.balances.Credit(ctx, tx, e.FreelancerID, e.Amount); err != nil {
					return err
				}
			}
			message := fmt.Sprintf("Dispute resolved: escrow is now %s", to)
			if err := s.notifier.Emit(ctx, tx, e.ClientID, model.NotificationDisputeResolved, message); err != nil {
				return err
			}
			return s.notifier.Emit(ctx, tx, e.FreelancerID, model.NotificationDisputeResolved, message)
		},
	})
}

type transition struct {
	from       []model.EscrowStatus
	to         model.EscrowStatus
	authorized func(*model.EscrowTransaction, model.Principal) bool
	effects    func(context.Context, *gorm.DB, *model.EscrowTransaction) error
}

func (s *EscrowService) transition(ctx context.Context, escrowID uuid.UUID, principal model.Principal, t transition) (model.EscrowStatus, error) {
	var clientID, freelancerID uuid.UUID
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		escrow, err := s.escrows.LockByID(ctx, tx, escrowID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: escrow", ErrNotFound)
			}
			return err
		}

		if !t.authorized(escrow, principal) {
			return fmt.Errorf("%w: %s not permitted for this actor", ErrForbidden, t.to)
		}
		if !statusIn(escrow.Status, t.from) {
			return fmt.Errorf("%w: cannot move escrow from %s to %s", ErrInvalidStateTransition, escrow.Status, t.to)
		}

		updated, err := s.escrows.UpdateStatus(ctx, tx, escrow.ID, t.from, t.to)
		if err != nil {
			return err
		}
		if !updated {
			return fmt.Errorf("%w: escrow is no longer %s", ErrInvalidStateTransition, escrow.Status)
		}

		clientID, freelancerID = escrow.ClientID, escrow.FreelancerID
		return t.effects(ctx, tx, escrow)
	})
	if err != nil {
		return "", storeError(err)
	}

	s.publish(ctx, escrowID, t.to, clientID, freelancerID)
	return t.to, nil
}

func (s *EscrowService) creditAndNotifyRelease(ctx context.Context, tx *gorm.DB, e *model.EscrowTransaction) error {
	if err := s.balances.Credit(ctx, tx, e.FreelancerID, e.Amount); err != nil {
		return err
	}
	return s.notifier.Emit(ctx, tx, e.FreelancerID, model.NotificationFundsReleased,
		fmt.Sprintf("Funds released: %.2f was credited to your balance", e.Amount))
}

func (s *EscrowService) publish(ctx context.Context, escrowID uuid.UUID, status model.EscrowStatus, recipients ...uuid.UUID) {
	if s.events == nil {
		return
	}
	data := map[string]interface{}{
		"escrow_id": escrowID.String(),
		"status":    string(status),
	}
	for _, recipient := range recipients {
		if err := s.events.Publish(ctx, recipient, "escrow_transition", data); err != nil {
			s.log.Warn().Err(err).Str("escrow_id", escrowID.String()).Msg("realtime publish failed")
		}
	}
}

func statusIn(status model.EscrowStatus, set []model.EscrowStatus) bool {
	for _, candidate := range set {
		if status == candidate {
			return true
		}
	}
	return false
}
