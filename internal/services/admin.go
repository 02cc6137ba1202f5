package services

import (
	"context"
	"fmt"
	"time"

	"campusevents/internal/domain"
)

type adminService struct {
	userRepo       domain.UserRepository
	eventRepo      domain.EventRepository
	contextTimeout time.Duration
}

// NewAdminService returns the admin-only organizer management service.
func NewAdminService(userRepo domain.UserRepository, eventRepo domain.EventRepository, timeout time.Duration) domain.AdminService {
	return &adminService{userRepo: userRepo, eventRepo: eventRepo, contextTimeout: timeout}
}

// ListOrganizers returns every organizer, disabled ones included.
func (s *adminService) ListOrganizers(ctx context.Context) ([]*domain.User, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	organizers, err := s.userRepo.ListByRole(ctx, domain.RoleOrganizer, true)
	if err != nil {
		return nil, fmt.Errorf("list organizers: %w", err)
	}
	return organizers, nil
}

func (s *adminService) ToggleOrganizerDisabled(ctx context.Context, organizerID string) (*domain.User, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	u, err := s.organizer(ctx, organizerID)
	if err != nil {
		return nil, err
	}
	if err := s.userRepo.SetDisabled(ctx, u.ID, !u.Disabled); err != nil {
		return nil, fmt.Errorf("set disabled: %w", err)
	}
	u.Disabled = !u.Disabled
	return u, nil
}

// DeleteOrganizer removes the organizer account and every event it owns.
func (s *adminService) DeleteOrganizer(ctx context.Context, organizerID string) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	u, err := s.organizer(ctx, organizerID)
	if err != nil {
		return 0, err
	}
	deleted, err := s.eventRepo.DeleteByOrganizer(ctx, u.ID)
	if err != nil {
		return 0, fmt.Errorf("delete organizer events: %w", err)
	}
	if err := s.userRepo.Delete(ctx, u.ID); err != nil {
		return deleted, fmt.Errorf("delete organizer: %w", err)
	}
	return deleted, nil
}

func (s *adminService) organizer(ctx context.Context, id string) (*domain.User, error) {
	u, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get organizer: %w", err)
	}
	if u.Role != domain.RoleOrganizer {
		return nil, fmt.Errorf("get organizer: %w", domain.ErrNotFound)
	}
	return u, nil
}
