package service

import (
	"context"

	"github.com/google/uuid"

	"github.com/aidosq/jumys-deals/internal/model"
	"github.com/aidosq/jumys-deals/internal/repository"
)

// NotificationService is the read side of the notification feed: the
// core only appends; this consumer lists and flips read flags.
type NotificationService struct {
	notifications *repository.NotificationRepository
}

func NewNotificationService(notifications *repository.NotificationRepository) *NotificationService {
	return &NotificationService{notifications: notifications}
}

func (s *NotificationService) List(ctx context.Context, principal model.Principal) ([]model.Notification, error) {
	rows, err := s.notifications.ListByRecipient(ctx, principal.UserID)
	if err != nil {
		return nil, storeError(err)
	}
	return rows, nil
}

func (s *NotificationService) MarkRead(ctx context.Context, notificationID uuid.UUID, principal model.Principal) error {
	updated, err := s.notifications.MarkRead(ctx, notificationID, principal.UserID)
	if err != nil {
		return storeError(err)
	}
	if !updated {
		return ErrNotFound
	}
	return nil
}
