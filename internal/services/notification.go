package services

import (
	"context"
	"fmt"
	"time"

	"campusevents/internal/domain"
)

type notificationService struct {
	store          domain.NotificationStore
	pageSize       int
	contextTimeout time.Duration
}

func NewNotificationService(store domain.NotificationStore, policy domain.ForumPolicy, timeout time.Duration) domain.NotificationService {
	pageSize := policy.NotificationPageSize
	if pageSize <= 0 {
		pageSize = domain.DefaultForumPolicy().NotificationPageSize
	}
	return &notificationService{store: store, pageSize: pageSize, contextTimeout: timeout}
}

// List returns the newest notifications of userID.
func (s *notificationService) List(ctx context.Context, userID string) ([]*domain.Notification, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	ns, err := s.store.ListByUser(ctx, userID, s.pageSize)
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	return ns, nil
}

// MarkRead marks userID's notifications read, limited to one event when
// eventID is set.
func (s *notificationService) MarkRead(ctx context.Context, userID, eventID string) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	n, err := s.store.MarkRead(ctx, userID, eventID)
	if err != nil {
		return 0, fmt.Errorf("mark notifications read: %w", err)
	}
	return n, nil
}

func (s *notificationService) UnreadCount(ctx context.Context, userID string) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	n, err := s.store.CountUnread(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("count unread notifications: %w", err)
	}
	return n, nil
}
