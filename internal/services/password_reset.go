package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"campusevents/internal/domain"
)

const generatedPasswordLength = 12

// PasswordGenerator returns a random password of n characters.
type PasswordGenerator func(n int) (string, error)

type passwordResetService struct {
	resetRepo      domain.PasswordResetRepository
	userRepo       domain.UserRepository
	hasher         domain.PasswordHasher
	generate       PasswordGenerator
	contextTimeout time.Duration
	now            func() time.Time
}

func NewPasswordResetService(resetRepo domain.PasswordResetRepository,
	userRepo domain.UserRepository,
	hasher domain.PasswordHasher,
	generate PasswordGenerator,
	timeout time.Duration,
) domain.PasswordResetService {
	return &passwordResetService{
		resetRepo:      resetRepo,
		userRepo:       userRepo,
		hasher:         hasher,
		generate:       generate,
		contextTimeout: timeout,
		now:            time.Now,
	}
}

// Submit files a reset request. An organizer may have one Pending request.
func (s *passwordResetService) Submit(ctx context.Context, organizerID, reason string) (*domain.PasswordResetRequest, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, domain.Invalid("reason", "reason is required")
	}
	u, err := s.userRepo.GetByID(ctx, organizerID)
	if err != nil {
		return nil, fmt.Errorf("get organizer: %w", err)
	}
	if u.Role != domain.RoleOrganizer {
		return nil, domain.Forbidden("only organizers can request a password reset")
	}
	pending, err := s.resetRepo.HasPending(ctx, organizerID)
	if err != nil {
		return nil, fmt.Errorf("check pending requests: %w", err)
	}
	if pending {
		return nil, domain.Conflict("you already have a pending password reset request")
	}

	now := s.now().UTC()
	req := &domain.PasswordResetRequest{
		OrganizerID:   organizerID,
		OrganizerName: u.DisplayName(),
		Reason:        reason,
		Status:        domain.ResetPending,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.resetRepo.Create(ctx, req); err != nil {
		return nil, fmt.Errorf("create reset request: %w", err)
	}
	return req, nil
}

func (s *passwordResetService) ListMine(ctx context.Context, organizerID string) ([]*domain.PasswordResetRequest, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	reqs, err := s.resetRepo.ListByOrganizer(ctx, organizerID)
	if err != nil {
		return nil, fmt.Errorf("list reset requests: %w", err)
	}
	return reqs, nil
}

// List returns all requests, or those with the given status when set.
func (s *passwordResetService) List(ctx context.Context, status domain.ResetStatus) ([]*domain.PasswordResetRequest, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	switch status {
	case "", domain.ResetPending, domain.ResetApproved, domain.ResetRejected:
	default:
		return nil, domain.Invalid("status", "unknown request status")
	}
	reqs, err := s.resetRepo.List(ctx, status)
	if err != nil {
		return nil, fmt.Errorf("list reset requests: %w", err)
	}
	return reqs, nil
}

// Approve resolves the request and sets a generated password on the account.
// The plaintext password is returned once and never stored.
func (s *passwordResetService) Approve(ctx context.Context, requestID, adminNote string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	req, err := s.pending(ctx, requestID)
	if err != nil {
		return "", err
	}
	password, err := s.generate(generatedPasswordLength)
	if err != nil {
		return "", err
	}
	salt, err := s.hasher.GenerateSalt()
	if err != nil {
		return "", err
	}
	hash, err := s.hasher.Hash(salt, password)
	if err != nil {
		return "", err
	}
	if err := s.resolve(ctx, req.ID, domain.ResetApproved, adminNote); err != nil {
		return "", err
	}
	if err := s.userRepo.UpdatePassword(ctx, req.OrganizerID, hash, salt); err != nil {
		return "", fmt.Errorf("set organizer password: %w", err)
	}
	return password, nil
}

func (s *passwordResetService) Reject(ctx context.Context, requestID, adminNote string) error {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	req, err := s.pending(ctx, requestID)
	if err != nil {
		return err
	}
	return s.resolve(ctx, req.ID, domain.ResetRejected, adminNote)
}

func (s *passwordResetService) pending(ctx context.Context, id string) (*domain.PasswordResetRequest, error) {
	req, err := s.resetRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get reset request: %w", err)
	}
	if req.Status != domain.ResetPending {
		return nil, domain.Conflict("request has already been resolved")
	}
	return req, nil
}

func (s *passwordResetService) resolve(ctx context.Context, id string, status domain.ResetStatus, note string) error {
	if err := s.resetRepo.Resolve(ctx, id, status, strings.TrimSpace(note)); err != nil {
		if errors.Is(err, domain.ErrConflict) {
			return domain.Conflict("request has already been resolved")
		}
		return fmt.Errorf("resolve reset request: %w", err)
	}
	return nil
}
