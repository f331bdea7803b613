package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/aidosq/jumys-deals/internal/model"
	"github.com/aidosq/jumys-deals/internal/repository"
)

// newTestDB opens an isolated in-memory database. A single pooled
// connection keeps the shared-cache database alive and serializes
// transactions the way Postgres row locks do in production.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_busy_timeout=2000", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("open test database: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("database handle: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)

	err = db.AutoMigrate(
		&model.Project{},
		&model.Proposal{},
		&model.Contract{},
		&model.EscrowTransaction{},
		&model.Notification{},
		&model.FreelancerBalance{},
	)
	if err != nil {
		t.Fatalf("migrate test database: %v", err)
	}

	t.Cleanup(func() { _ = sqlDB.Close() })
	return db
}

type testEnv struct {
	db            *gorm.DB
	proposals     *ProposalService
	escrows       *EscrowService
	contracts     *ContractService
	notifications *repository.NotificationRepository
	balances      *repository.BalanceRepository
}

func newTestEnv(t *testing.T, notifier Notifier) *testEnv {
	t.Helper()

	db := newTestDB(t)
	log := zerolog.Nop()

	proposalRepo := repository.NewProposalRepository(db)
	contractRepo := repository.NewContractRepository(db)
	escrowRepo := repository.NewEscrowRepository(db)
	projectRepo := repository.NewProjectRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)
	balanceRepo := repository.NewBalanceRepository(db)

	if notifier == nil {
		notifier = NewStoreNotifier(notificationRepo)
	}

	return &testEnv{
		db:            db,
		proposals:     NewProposalService(db, log, proposalRepo, contractRepo, escrowRepo, projectRepo, notifier, nil),
		escrows:       NewEscrowService(db, log, escrowRepo, balanceRepo, notifier, nil),
		contracts:     NewContractService(db, log, contractRepo, notifier, nil),
		notifications: notificationRepo,
		balances:      balanceRepo,
	}
}

func (env *testEnv) seedProject(t *testing.T, clientID uuid.UUID, status model.ProjectStatus) *model.Project {
	t.Helper()
	project := &model.Project{
		ID:       uuid.New(),
		ClientID: clientID,
		Title:    "Landing page build",
		Status:   status,
	}
	if err := env.db.Create(project).Error; err != nil {
		t.Fatalf("seed project: %v", err)
	}
	return project
}

func (env *testEnv) seedProposal(t *testing.T, p *model.Proposal) *model.Proposal {
	t.Helper()
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	if p.Status == "" {
		p.Status = model.ProposalStatusPending
	}
	if err := env.db.Create(p).Error; err != nil {
		t.Fatalf("seed proposal: %v", err)
	}
	return p
}

func (env *testEnv) seedEscrow(t *testing.T, clientID, freelancerID uuid.UUID, amount float64, status model.EscrowStatus) *model.EscrowTransaction {
	t.Helper()
	contract := &model.Contract{
		ID:           uuid.New(),
		ProposalID:   uuid.New(),
		ClientID:     clientID,
		FreelancerID: freelancerID,
		Amount:       amount,
		Status:       model.ContractStatusActive,
	}
	if err := env.db.Create(contract).Error; err != nil {
		t.Fatalf("seed contract: %v", err)
	}
	escrow := &model.EscrowTransaction{
		ID:           uuid.New(),
		ContractID:   contract.ID,
		ClientID:     clientID,
		FreelancerID: freelancerID,
		Amount:       amount,
		Status:       status,
	}
	if err := env.db.Create(escrow).Error; err != nil {
		t.Fatalf("seed escrow: %v", err)
	}
	return escrow
}

func (env *testEnv) seedContract(t *testing.T, clientID, freelancerID uuid.UUID, status model.ContractStatus) *model.Contract {
	t.Helper()
	contract := &model.Contract{
		ID:           uuid.New(),
		ProposalID:   uuid.New(),
		ClientID:     clientID,
		FreelancerID: freelancerID,
		Amount:       1000,
		Status:       status,
	}
	if err := env.db.Create(contract).Error; err != nil {
		t.Fatalf("seed contract: %v", err)
	}
	return contract
}

func (env *testEnv) countNotifications(t *testing.T, recipientID uuid.UUID) int {
	t.Helper()
	rows, err := env.notifications.ListByRecipient(context.Background(), recipientID)
	if err != nil {
		t.Fatalf("list notifications: %v", err)
	}
	return len(rows)
}

func (env *testEnv) escrowStatus(t *testing.T, id uuid.UUID) model.EscrowStatus {
	t.Helper()
	var escrow model.EscrowTransaction
	if err := env.db.First(&escrow, "id = ?", id).Error; err != nil {
		t.Fatalf("load escrow: %v", err)
	}
	return escrow.Status
}

func clientPrincipal(id uuid.UUID) model.Principal {
	return model.Principal{UserID: id, Role: model.RoleClient}
}

func freelancerPrincipal(id uuid.UUID) model.Principal {
	return model.Principal{UserID: id, Role: model.RoleFreelancer}
}

func adminPrincipal() model.Principal {
	return model.Principal{UserID: uuid.New(), Role: model.RoleAdmin}
}

// recordingNotifier captures emissions in memory for interaction tests.
type recordingNotifier struct {
	mu      sync.Mutex
	emitted []emittedNotification
}

type emittedNotification struct {
	Recipient uuid.UUID
	Category  model.NotificationCategory
	Message   string
}

func (n *recordingNotifier) Emit(_ context.Context, _ *gorm.DB, recipientID uuid.UUID, category model.NotificationCategory, message string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.emitted = append(n.emitted, emittedNotification{Recipient: recipientID, Category: category, Message: message})
	return nil
}

func (n *recordingNotifier) forRecipient(recipientID uuid.UUID) []emittedNotification {
	n.mu.Lock()
	defer n.mu.Unlock()
	var out []emittedNotification
	for _, e := range n.emitted {
		if e.Recipient == recipientID {
			out = append(out, e)
		}
	}
	return out
}

// failingNotifier simulates an in-scope notification channel fault so
// tests can verify the whole transaction rolls back.
type failingNotifier struct{}

func (failingNotifier) Emit(context.Context, *gorm.DB, uuid.UUID, model.NotificationCategory, string) error {
	return errors.New("notification channel down")
}
