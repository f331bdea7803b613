package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/aidosq/jumys-deals/internal/model"
	"github.com/aidosq/jumys-deals/internal/repository"
)

// Notifier records a user-visible notification inside the caller's
// active transaction, so the notification is observable if and only if
// the triggering state change committed.
type Notifier interface {
	Emit(ctx context.Context, tx *gorm.DB, recipientID uuid.UUID, category model.NotificationCategory, message string) error
}

type storeNotifier struct {
	notifications *repository.NotificationRepository
}

func NewStoreNotifier(notifications *repository.NotificationRepository) Notifier {
	return &storeNotifier{notifications: notifications}
}

func (n *storeNotifier) Emit(ctx context.Context, tx *gorm.DB, recipientID uuid.UUID, category model.NotificationCategory, message string) error {
	return n.notifications.Create(ctx, tx, &model.Notification{
		ID:          uuid.New(),
		RecipientID: recipientID,
		Category:    category,
		Message:     message,
		CreatedAt:   time.Now().UTC(),
	})
}

// EventPublisher pushes a best-effort realtime event after the
// transaction committed. Implementations must not be wired into the
// transactional scope; a publish failure never blocks a transition.
type EventPublisher interface {
	Publish(ctx context.Context, recipientID uuid.UUID, event string, data map[string]interface{}) error
}
