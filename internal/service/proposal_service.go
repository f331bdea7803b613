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

type ResolveAction string

const (
	ResolveActionAccept ResolveAction = "accept"
	ResolveActionReject ResolveAction = "reject"
)

// ProposalService owns the proposal lifecycle: submission of bids and
// offers, and the accept/reject workflow that atomically creates the
// contract and its escrow.
type ProposalService struct {
	db        *gorm.DB
	log       zerolog.Logger
	proposals *repository.ProposalRepository
	contracts *repository.ContractRepository
	escrows   *repository.EscrowRepository
	projects  *repository.ProjectRepository
	notifier  Notifier
	events    EventPublisher
}

func NewProposalService(
	db *gorm.DB,
	log zerolog.Logger,
	proposals *repository.ProposalRepository,
	contracts *repository.ContractRepository,
	escrows *repository.EscrowRepository,
	projects *repository.ProjectRepository,
	notifier Notifier,
	events EventPublisher,
) *ProposalService {
	return &ProposalService{
		db:        db,
		log:       log.With().Str("service", "ProposalService").Logger(),
		proposals: proposals,
		contracts: contracts,
		escrows:   escrows,
		projects:  projects,
		notifier:  notifier,
		events:    events,
	}
}

type SubmitProposalInput struct {
	ProjectID    *uuid.UUID
	FreelancerID uuid.UUID // direct offers: the targeted freelancer
	Price        float64
	Kind         model.ProposalKind
	CoverLetter  string
	Principal    model.Principal
}

// Submit creates a pending proposal: a freelancer bidding on an open
// project (public), or a client sending an offer to a freelancer
// (direct). A freelancer gets at most one public proposal per project.
func (s *ProposalService) Submit(ctx context.Context, input SubmitProposalInput) (*model.Proposal, error) {
	if input.Price <= 0 {
		return nil, fmt.Errorf("%w: price must be positive", ErrInvalidInput)
	}

	var proposal *model.Proposal
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		switch input.Kind {
		case model.ProposalKindPublic:
			built, err := s.buildPublic(ctx, tx, input)
			if err != nil {
				return err
			}
			proposal = built
		case model.ProposalKindDirect:
			built, err := s.buildDirect(ctx, tx, input)
			if err != nil {
				return err
			}
			proposal = built
		default:
			return fmt.Errorf("%w: unknown proposal kind %q", ErrInvalidInput, input.Kind)
		}

		if err := s.proposals.Create(ctx, tx, proposal); err != nil {
			return err
		}

		if proposal.Kind == model.ProposalKindPublic {
			return s.notifier.Emit(ctx, tx, proposal.ClientID, model.NotificationProposalReceived,
				fmt.Sprintf("New proposal for %.2f received on your project", proposal.ProposedPrice))
		}
		return s.notifier.Emit(ctx, tx, proposal.FreelancerID, model.NotificationProposalReceived,
			fmt.Sprintf("You received a direct offer for %.2f", proposal.ProposedPrice))
	})
	if err != nil {
		return nil, storeError(err)
	}
	return proposal, nil
}

func (s *ProposalService) buildPublic(ctx context.Context, tx *gorm.DB, input SubmitProposalInput) (*model.Proposal, error) {
	if !input.Principal.IsFreelancer() {
		return nil, fmt.Errorf("%w: only freelancers submit public proposals", ErrForbidden)
	}
	if input.ProjectID == nil {
		return nil, fmt.Errorf("%w: project_id is required for public proposals", ErrInvalidInput)
	}

	project, err := s.projects.GetByID(ctx, tx, *input.ProjectID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: project", ErrNotFound)
		}
		return nil, err
	}
	if project.Status != model.ProjectStatusOpen {
		return nil, fmt.Errorf("%w: project is not open for proposals", ErrInvalidInput)
	}

	exists, err := s.proposals.HasPublicForProject(ctx, tx, project.ID, input.Principal.UserID)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, fmt.Errorf("%w: proposal already submitted for this project", ErrAlreadyProcessed)
	}

	return &model.Proposal{
		ID:            uuid.New(),
		ProjectID:     &project.ID,
		ClientID:      project.ClientID,
		FreelancerID:  input.Principal.UserID,
		ProposedPrice: input.Price,
		Kind:          model.ProposalKindPublic,
		CoverLetter:   input.CoverLetter,
		Status:        model.ProposalStatusPending,
	}, nil
}

func (s *ProposalService) buildDirect(ctx context.Context, tx *gorm.DB, input SubmitProposalInput) (*model.Proposal, error) {
	if !input.Principal.IsClient() {
		return nil, fmt.Errorf("%w: only clients send direct offers", ErrForbidden)
	}
	if input.FreelancerID == uuid.Nil {
		return nil, fmt.Errorf("%w: freelancer_id is required for direct offers", ErrInvalidInput)
	}

	if input.ProjectID != nil {
		project, err := s.projects.GetByID(ctx, tx, *input.ProjectID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, fmt.Errorf("%w: project", ErrNotFound)
			}
			return nil, err
		}
		if project.ClientID != input.Principal.UserID {
			return nil, fmt.Errorf("%w: project belongs to another client", ErrForbidden)
		}
	}

	return &model.Proposal{
		ID:            uuid.New(),
		ProjectID:     input.ProjectID,
		ClientID:      input.Principal.UserID,
		FreelancerID:  input.FreelancerID,
		ProposedPrice: input.Price,
		Kind:          model.ProposalKindDirect,
		CoverLetter:   input.CoverLetter,
		Status:        model.ProposalStatusPending,
	}, nil
}

type ResolveResult struct {
	Status     model.ProposalStatus
	ContractID *uuid.UUID
	EscrowID   *uuid.UUID
}

// Resolve accepts or rejects a pending proposal. On accept it creates
// the contract and escrow in the same transaction and advances the
// project. The row lock plus the re-check under it make the operation
// safe against duplicate concurrent attempts: exactly one wins, the
// rest fail with ErrAlreadyProcessed.
func (s *ProposalService) Resolve(ctx context.Context, proposalID uuid.UUID, action ResolveAction, principal model.Principal) (*ResolveResult, error) {
	if action != ResolveActionAccept && action != ResolveActionReject {
		return nil, fmt.Errorf("%w: unknown action %q", ErrInvalidInput, action)
	}

	result := &ResolveResult{}
	var freelancerID uuid.UUID
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		proposal, err := s.proposals.LockByID(ctx, tx, proposalID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: proposal", ErrNotFound)
			}
			return err
		}

		if proposal.Status != model.ProposalStatusPending {
			return fmt.Errorf("%w: proposal is %s", ErrAlreadyProcessed, proposal.Status)
		}

		// Direct offers are answered by the targeted freelancer; public
		// proposals by the client who owns the project.
		switch proposal.Kind {
		case model.ProposalKindDirect:
			if principal.UserID != proposal.FreelancerID {
				return fmt.Errorf("%w: only the offered freelancer may respond", ErrForbidden)
			}
		default:
			if principal.UserID != proposal.ClientID {
				return fmt.Errorf("%w: only the owning client may respond", ErrForbidden)
			}
		}

		newStatus := model.ProposalStatusRejected
		if action == ResolveActionAccept {
			newStatus = model.ProposalStatusAccepted
			if err := s.acceptLocked(ctx, tx, proposal, result); err != nil {
				return err
			}
		}

		updated, err := s.proposals.UpdateStatus(ctx, tx, proposal.ID, model.ProposalStatusPending, newStatus)
		if err != nil {
			return err
		}
		if !updated {
			return fmt.Errorf("%w: proposal is no longer pending", ErrAlreadyProcessed)
		}
		result.Status = newStatus
		freelancerID = proposal.FreelancerID

		return s.notifyResolved(ctx, tx, proposal, newStatus)
	})
	if err != nil {
		return nil, storeError(err)
	}

	s.publishResolved(ctx, proposalID, freelancerID, result)
	return result, nil
}

// acceptLocked creates the contract/escrow pair and advances the
// project; runs with the proposal row lock held.
func (s *ProposalService) acceptLocked(ctx context.Context, tx *gorm.DB, proposal *model.Proposal, result *ResolveResult) error {
	contract := &model.Contract{
		ID:           uuid.New(),
		ProposalID:   proposal.ID,
		ProjectID:    proposal.ProjectID,
		ClientID:     proposal.ClientID,
		FreelancerID: proposal.FreelancerID,
		Amount:       proposal.ProposedPrice,
		Status:       model.ContractStatusActive,
	}
	if err := s.contracts.Create(ctx, tx, contract); err != nil {
		return err
	}

	escrow := &model.EscrowTransaction{
		ID:           uuid.New(),
		ContractID:   contract.ID,
		ProjectID:    contract.ProjectID,
		ClientID:     contract.ClientID,
		FreelancerID: contract.FreelancerID,
		Amount:       contract.Amount,
		Status:       model.EscrowStatusPendingPayment,
	}
	if err := s.escrows.Create(ctx, tx, escrow); err != nil {
		return err
	}

	if proposal.ProjectID != nil {
		if err := s.projects.MarkInProgress(ctx, tx, *proposal.ProjectID, proposal.FreelancerID); err != nil {
			return err
		}
	}

	result.ContractID = &contract.ID
	result.EscrowID = &escrow.ID
	return nil
}

func (s *ProposalService) notifyResolved(ctx context.Context, tx *gorm.DB, proposal *model.Proposal, newStatus model.ProposalStatus) error {
	category := model.NotificationProposalRejected
	message := "Your proposal was rejected"
	if newStatus == model.ProposalStatusAccepted {
		category = model.NotificationProposalAccepted
		message = fmt.Sprintf("Your proposal was accepted; a contract for %.2f was created", proposal.ProposedPrice)
	}
	if err := s.notifier.Emit(ctx, tx, proposal.FreelancerID, category, message); err != nil {
		return err
	}

	// For public proposals the client is the actor and needs no
	// self-notification; for direct offers the freelancer acted, so the
	// client is told the outcome.
	if proposal.Kind == model.ProposalKindDirect {
		clientMessage := "Your offer was declined"
		if newStatus == model.ProposalStatusAccepted {
			clientMessage = fmt.Sprintf("Your offer was accepted; a contract for %.2f was created", proposal.ProposedPrice)
		}
		return s.notifier.Emit(ctx, tx, proposal.ClientID, category, clientMessage)
	}
	return nil
}

func (s *ProposalService) publishResolved(ctx context.Context, proposalID, freelancerID uuid.UUID, result *ResolveResult) {
	if s.events == nil {
		return
	}
	data := map[string]interface{}{
		"proposal_id": proposalID.String(),
		"status":      string(result.Status),
	}
	if result.ContractID != nil {
		data["contract_id"] = result.ContractID.String()
	}
	if err := s.events.Publish(ctx, freelancerID, "proposal_resolved", data); err != nil {
		s.log.Warn().Err(err).Str("proposal_id", proposalID.String()).Msg("realtime publish failed")
	}
}
