package services

import (
	"context"
	"fmt"
	"net/url"
	"slices"
	"strings"
	"time"

	"campusevents/internal/domain"
)

type userService struct {
	userRepo       domain.UserRepository
	hasher         domain.PasswordHasher
	contextTimeout time.Duration
	now            func() time.Time
}

// NewUserService creates a UserService for profiles and the organizer directory.
func NewUserService(userRepo domain.UserRepository, hasher domain.PasswordHasher, timeout time.Duration) domain.UserService {
	return &userService{
		userRepo:       userRepo,
		hasher:         hasher,
		contextTimeout: timeout,
		now:            time.Now,
	}
}

func (s *userService) GetByID(ctx context.Context, id string) (*domain.User, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	return user, nil
}

// UpdateProfile applies the fields relevant to the user's role. Fields of the
// other role are ignored.
func (s *userService) UpdateProfile(ctx context.Context, id string, upd domain.ProfileUpdate) (*domain.User, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}

	switch user.Role {
	case domain.RoleParticipant:
		if err := applyParticipantProfile(user, upd); err != nil {
			return nil, err
		}
	case domain.RoleOrganizer:
		if err := applyOrganizerProfile(user, upd); err != nil {
			return nil, err
		}
	}

	if upd.NewPassword != "" {
		if err := s.changePassword(ctx, user, upd.CurrentPassword, upd.NewPassword); err != nil {
			return nil, err
		}
	}

	user.UpdatedAt = s.now().UTC()
	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("update user: %w", err)
	}
	return user, nil
}

func applyParticipantProfile(u *domain.User, upd domain.ProfileUpdate) error {
	if upd.FirstName != nil {
		name := strings.TrimSpace(*upd.FirstName)
		if name == "" {
			return domain.Invalid("first_name", "first name cannot be empty")
		}
		u.FirstName = name
	}
	if upd.LastName != nil {
		u.LastName = strings.TrimSpace(*upd.LastName)
	}
	if upd.ContactNumber != nil {
		u.ContactNumber = strings.TrimSpace(*upd.ContactNumber)
	}
	if upd.College != nil {
		u.College = strings.TrimSpace(*upd.College)
	}
	if upd.Interests != nil {
		u.Interests = compactStrings(*upd.Interests)
	}
	if upd.OnboardingComplete != nil {
		u.OnboardingComplete = *upd.OnboardingComplete
	}
	return nil
}

func applyOrganizerProfile(u *domain.User, upd domain.ProfileUpdate) error {
	if upd.OrganizerName != nil {
		name := strings.TrimSpace(*upd.OrganizerName)
		if name == "" {
			return domain.Invalid("organizer_name", "organizer name cannot be empty")
		}
		u.OrganizerName = name
	}
	if upd.Category != nil {
		u.Category = strings.TrimSpace(*upd.Category)
	}
	if upd.Description != nil {
		u.Description = strings.TrimSpace(*upd.Description)
	}
	if upd.Website != nil {
		u.Website = strings.TrimSpace(*upd.Website)
	}
	if upd.ContactEmail != nil {
		email := normalizeEmail(*upd.ContactEmail)
		if email != "" && !emailRegexp.MatchString(email) {
			return domain.Invalid("contact_email", "invalid email format")
		}
		u.ContactEmail = email
	}
	if upd.DiscordWebhook != nil {
		hook := strings.TrimSpace(*upd.DiscordWebhook)
		if hook != "" {
			parsed, err := url.Parse(hook)
			if err != nil || (parsed.Scheme != "https" && parsed.Scheme != "http") || parsed.Host == "" {
				return domain.Invalid("discord_webhook", "webhook must be an http(s) URL")
			}
		}
		u.DiscordWebhook = hook
	}
	return nil
}

// compactStrings trims entries and drops blanks and duplicates.
func compactStrings(in []string) []string {
	out := make([]string, 0, len(in))
	for _, v := range in {
		v = strings.TrimSpace(v)
		if v != "" && !slices.Contains(out, v) {
			out = append(out, v)
		}
	}
	return out
}

func (s *userService) changePassword(ctx context.Context, u *domain.User, current, next string) error {
	if u.Role != domain.RoleParticipant {
		return domain.Forbidden("organizers must request a password reset from an admin")
	}
	if current == "" {
		return domain.Invalid("current_password", "current password is required")
	}
	if err := s.hasher.Compare(u.PasswordHash, u.Salt, current); err != nil {
		return domain.Invalid("current_password", "current password is incorrect")
	}
	if err := validatePassword("new_password", next); err != nil {
		return err
	}
	salt, err := s.hasher.GenerateSalt()
	if err != nil {
		return err
	}
	hash, err := s.hasher.Hash(salt, next)
	if err != nil {
		return err
	}
	if err := s.userRepo.UpdatePassword(ctx, u.ID, hash, salt); err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	u.PasswordHash, u.Salt = hash, salt
	return nil
}

func (s *userService) ListOrganizers(ctx context.Context) ([]*domain.User, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	organizers, err := s.userRepo.ListByRole(ctx, domain.RoleOrganizer, false)
	if err != nil {
		return nil, fmt.Errorf("list organizers: %w", err)
	}
	return organizers, nil
}

func (s *userService) GetOrganizer(ctx context.Context, id string) (*domain.User, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	return s.enabledOrganizer(ctx, id)
}

func (s *userService) enabledOrganizer(ctx context.Context, id string) (*domain.User, error) {
	u, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get organizer: %w", err)
	}
	if u.Role != domain.RoleOrganizer || u.Disabled {
		return nil, fmt.Errorf("get organizer: %w", domain.ErrNotFound)
	}
	return u, nil
}

func (s *userService) FollowOrganizer(ctx context.Context, userID, organizerID string) (*domain.User, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	user, err := s.participant(ctx, userID)
	if err != nil {
		return nil, err
	}
	if _, err := s.enabledOrganizer(ctx, organizerID); err != nil {
		return nil, err
	}
	if slices.Contains(user.FollowedOrganizers, organizerID) {
		return user, nil
	}
	user.FollowedOrganizers = append(user.FollowedOrganizers, organizerID)
	user.UpdatedAt = s.now().UTC()
	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("update user: %w", err)
	}
	return user, nil
}

func (s *userService) UnfollowOrganizer(ctx context.Context, userID, organizerID string) (*domain.User, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	user, err := s.participant(ctx, userID)
	if err != nil {
		return nil, err
	}
	i := slices.Index(user.FollowedOrganizers, organizerID)
	if i < 0 {
		return user, nil
	}
	user.FollowedOrganizers = slices.Delete(user.FollowedOrganizers, i, i+1)
	user.UpdatedAt = s.now().UTC()
	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("update user: %w", err)
	}
	return user, nil
}

func (s *userService) participant(ctx context.Context, id string) (*domain.User, error) {
	u, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	if u.Role != domain.RoleParticipant {
		return nil, domain.Forbidden("only participants can follow organizers")
	}
	return u, nil
}
