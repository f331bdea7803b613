package service

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/aidosq/jumys-deals/internal/model"
)

func TestEscrowHappyPath(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()

	clientID := uuid.New()
	freelancerID := uuid.New()
	escrow := env.seedEscrow(t, clientID, freelancerID, 2400, model.EscrowStatusPendingPayment)

	status, err := env.escrows.Fund(ctx, escrow.ID, clientPrincipal(clientID))
	if err != nil {
		t.Fatalf("fund: %v", err)
	}
	if status != model.EscrowStatusPaymentReceived {
		t.Fatalf("status = %s, want payment_received", status)
	}

	status, err = env.escrows.CompleteWork(ctx, escrow.ID, freelancerPrincipal(freelancerID))
	if err != nil {
		t.Fatalf("complete work: %v", err)
	}
	if status != model.EscrowStatusWorkCompleted {
		t.Fatalf("status = %s, want work_completed", status)
	}

	status, err = env.escrows.Release(ctx, escrow.ID, clientPrincipal(clientID))
	if err != nil {
		t.Fatalf("release: %v", err)
	}
	if status != model.EscrowStatusFundsReleased {
		t.Fatalf("status = %s, want funds_released", status)
	}

	balance, err := env.balances.Get(ctx, nil, freelancerID)
	if err != nil {
		t.Fatalf("load balance: %v", err)
	}
	if balance.Available != 2400 {
		t.Errorf("balance = %.2f, want 2400 credited on release", balance.Available)
	}

	// fund, complete, release each notified the counterparty.
	if got := env.countNotifications(t, freelancerID); got != 2 {
		t.Errorf("freelancer notifications = %d, want 2 (funded, released)", got)
	}
	if got := env.countNotifications(t, clientID); got != 1 {
		t.Errorf("client notifications = %d, want 1 (work completed)", got)
	}
}

func TestEscrowAuthorization(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()

	clientID := uuid.New()
	freelancerID := uuid.New()

	cases := []struct {
		name  string
		from  model.EscrowStatus
		actor model.Principal
		call  func(ctx context.Context, id uuid.UUID, p model.Principal) (model.EscrowStatus, error)
	}{
		{"fund_by_freelancer", model.EscrowStatusPendingPayment, freelancerPrincipal(freelancerID), env.escrows.Fund},
		{"fund_by_other_client", model.EscrowStatusPendingPayment, clientPrincipal(uuid.New()), env.escrows.Fund},
		{"complete_work_by_client", model.EscrowStatusPaymentReceived, clientPrincipal(clientID), env.escrows.CompleteWork},
		{"release_by_freelancer", model.EscrowStatusWorkCompleted, freelancerPrincipal(freelancerID), env.escrows.Release},
		{"dispute_by_stranger", model.EscrowStatusPaymentReceived, freelancerPrincipal(uuid.New()), env.escrows.Dispute},
		{"refund_by_freelancer", model.EscrowStatusPaymentReceived, freelancerPrincipal(freelancerID), env.escrows.Refund},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			escrow := env.seedEscrow(t, clientID, freelancerID, 100, tc.from)

			_, err := tc.call(ctx, escrow.ID, tc.actor)
			if !errors.Is(err, ErrForbidden) {
				t.Fatalf("err = %v, want ErrForbidden", err)
			}
			if got := env.escrowStatus(t, escrow.ID); got != tc.from {
				t.Errorf("status = %s, want unchanged %s", got, tc.from)
			}
		})
	}
}

func TestEscrowIllegalTransitions(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()

	clientID := uuid.New()
	freelancerID := uuid.New()

	cases := []struct {
		name string
		from model.EscrowStatus
		call func(ctx context.Context, id uuid.UUID, p model.Principal) (model.EscrowStatus, error)
		as   model.Principal
	}{
		{"fund_twice", model.EscrowStatusPaymentReceived, env.escrows.Fund, clientPrincipal(clientID)},
		{"complete_before_funding", model.EscrowStatusPendingPayment, env.escrows.CompleteWork, freelancerPrincipal(freelancerID)},
		{"release_before_work_done", model.EscrowStatusPaymentReceived, env.escrows.Release, clientPrincipal(clientID)},
		{"dispute_before_funding", model.EscrowStatusPendingPayment, env.escrows.Dispute, clientPrincipal(clientID)},
		{"dispute_after_release", model.EscrowStatusFundsReleased, env.escrows.Dispute, clientPrincipal(clientID)},
		{"refund_after_work_done", model.EscrowStatusWorkCompleted, env.escrows.Refund, clientPrincipal(clientID)},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			escrow := env.seedEscrow(t, clientID, freelancerID, 100, tc.from)

			_, err := tc.call(ctx, escrow.ID, tc.as)
			if !errors.Is(err, ErrInvalidStateTransition) {
				t.Fatalf("err = %v, want ErrInvalidStateTransition", err)
			}
			if got := env.escrowStatus(t, escrow.ID); got != tc.from {
				t.Errorf("status = %s, want unchanged %s", got, tc.from)
			}
		})
	}
}

func TestEscrowTerminalStatesAreImmutable(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()

	clientID := uuid.New()
	freelancerID := uuid.New()

	for _, terminal := range []model.EscrowStatus{model.EscrowStatusFundsReleased, model.EscrowStatusRefunded} {
		t.Run(string(terminal), func(t *testing.T) {
			escrow := env.seedEscrow(t, clientID, freelancerID, 100, terminal)

			attempts := []func() (model.EscrowStatus, error){
				func() (model.EscrowStatus, error) { return env.escrows.Fund(ctx, escrow.ID, clientPrincipal(clientID)) },
				func() (model.EscrowStatus, error) {
					return env.escrows.CompleteWork(ctx, escrow.ID, freelancerPrincipal(freelancerID))
				},
				func() (model.EscrowStatus, error) { return env.escrows.Release(ctx, escrow.ID, clientPrincipal(clientID)) },
				func() (model.EscrowStatus, error) { return env.escrows.Dispute(ctx, escrow.ID, clientPrincipal(clientID)) },
				func() (model.EscrowStatus, error) { return env.escrows.Refund(ctx, escrow.ID, clientPrincipal(clientID)) },
				func() (model.EscrowStatus, error) {
					return env.escrows.ResolveDispute(ctx, escrow.ID, DisputeOutcomeRelease, adminPrincipal())
				},
			}
			for i, attempt := range attempts {
				if _, err := attempt(); !errors.Is(err, ErrInvalidStateTransition) {
					t.Errorf("attempt %d: err = %v, want ErrInvalidStateTransition", i, err)
				}
			}
			if got := env.escrowStatus(t, escrow.ID); got != terminal {
				t.Errorf("status = %s, want unchanged %s", got, terminal)
			}
		})
	}
}

func TestEscrowDisputeResolution(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()

	clientID := uuid.New()
	freelancerID := uuid.New()

	t.Run("release_credits_freelancer", func(t *testing.T) {
		escrow := env.seedEscrow(t, clientID, freelancerID, 700, model.EscrowStatusWorkCompleted)

		status, err := env.escrows.Dispute(ctx, escrow.ID, freelancerPrincipal(freelancerID))
		if err != nil {
			t.Fatalf("dispute: %v", err)
		}
		if status != model.EscrowStatusDisputed {
			t.Fatalf("status = %s, want disputed", status)
		}

		// Only an administrator may resolve.
		if _, err := env.escrows.ResolveDispute(ctx, escrow.ID, DisputeOutcomeRelease, clientPrincipal(clientID)); !errors.Is(err, ErrForbidden) {
			t.Fatalf("client resolve err = %v, want ErrForbidden", err)
		}

		status, err = env.escrows.ResolveDispute(ctx, escrow.ID, DisputeOutcomeRelease, adminPrincipal())
		if err != nil {
			t.Fatalf("resolve dispute: %v", err)
		}
		if status != model.EscrowStatusFundsReleased {
			t.Fatalf("status = %s, want funds_released", status)
		}

		balance, err := env.balances.Get(ctx, nil, freelancerID)
		if err != nil {
			t.Fatalf("load balance: %v", err)
		}
		if balance.Available != 700 {
			t.Errorf("balance = %.2f, want 700", balance.Available)
		}
	})

	t.Run("refund_returns_funds", func(t *testing.T) {
		otherFreelancer := uuid.New()
		escrow := env.seedEscrow(t, clientID, otherFreelancer, 300, model.EscrowStatusPaymentReceived)

		if _, err := env.escrows.Dispute(ctx, escrow.ID, clientPrincipal(clientID)); err != nil {
			t.Fatalf("dispute: %v", err)
		}

		status, err := env.escrows.ResolveDispute(ctx, escrow.ID, DisputeOutcomeRefund, adminPrincipal())
		if err != nil {
			t.Fatalf("resolve dispute: %v", err)
		}
		if status != model.EscrowStatusRefunded {
			t.Fatalf("status = %s, want refunded", status)
		}

		// No credit on refund.
		if _, err := env.balances.Get(ctx, nil, otherFreelancer); err == nil {
			t.Error("expected no balance row for refunded escrow")
		}
	})

	t.Run("unknown_outcome", func(t *testing.T) {
		escrow := env.seedEscrow(t, clientID, freelancerID, 100, model.EscrowStatusDisputed)
		_, err := env.escrows.ResolveDispute(ctx, escrow.ID, DisputeOutcome("split"), adminPrincipal())
		if !errors.Is(err, ErrInvalidInput) {
			t.Fatalf("err = %v, want ErrInvalidInput", err)
		}
	})
}

func TestEscrowRefundPaths(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()

	clientID := uuid.New()
	freelancerID := uuid.New()

	t.Run("client_refund_before_work_done", func(t *testing.T) {
		escrow := env.seedEscrow(t, clientID, freelancerID, 100, model.EscrowStatusPaymentReceived)
		status, err := env.escrows.Refund(ctx, escrow.ID, clientPrincipal(clientID))
		if err != nil {
			t.Fatalf("refund: %v", err)
		}
		if status != model.EscrowStatusRefunded {
			t.Fatalf("status = %s, want refunded", status)
		}
		if got := env.countNotifications(t, clientID); got == 0 {
			t.Error("client should be notified about the refund")
		}
	})

	t.Run("admin_refund_of_disputed", func(t *testing.T) {
		escrow := env.seedEscrow(t, clientID, freelancerID, 100, model.EscrowStatusDisputed)
		status, err := env.escrows.Refund(ctx, escrow.ID, adminPrincipal())
		if err != nil {
			t.Fatalf("refund: %v", err)
		}
		if status != model.EscrowStatusRefunded {
			t.Fatalf("status = %s, want refunded", status)
		}
	})
}

func TestEscrowDisputeNotifiesBothParties(t *testing.T) {
	recorder := &recordingNotifier{}
	env := newTestEnv(t, recorder)
	ctx := context.Background()

	clientID := uuid.New()
	freelancerID := uuid.New()
	escrow := env.seedEscrow(t, clientID, freelancerID, 100, model.EscrowStatusPaymentReceived)

	if _, err := env.escrows.Dispute(ctx, escrow.ID, clientPrincipal(clientID)); err != nil {
		t.Fatalf("dispute: %v", err)
	}

	if got := len(recorder.forRecipient(clientID)); got != 1 {
		t.Errorf("client emissions = %d, want 1", got)
	}
	if got := len(recorder.forRecipient(freelancerID)); got != 1 {
		t.Errorf("freelancer emissions = %d, want 1", got)
	}
}

func TestEscrowTransitionRollsBackOnNotifierFailure(t *testing.T) {
	env := newTestEnv(t, failingNotifier{})
	ctx := context.Background()

	clientID := uuid.New()
	escrow := env.seedEscrow(t, clientID, uuid.New(), 100, model.EscrowStatusPendingPayment)

	_, err := env.escrows.Fund(ctx, escrow.ID, clientPrincipal(clientID))
	if !errors.Is(err, ErrTransactionFailure) {
		t.Fatalf("err = %v, want ErrTransactionFailure", err)
	}
	if got := env.escrowStatus(t, escrow.ID); got != model.EscrowStatusPendingPayment {
		t.Errorf("status = %s, want pending_payment after rollback", got)
	}
}

func TestEscrowNotFound(t *testing.T) {
	env := newTestEnv(t, nil)

	_, err := env.escrows.Fund(context.Background(), uuid.New(), clientPrincipal(uuid.New()))
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}
