package services

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"campusevents/internal/domain"
)

var emailRegexp = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

type authService struct {
	userRepo       domain.UserRepository
	hasher         domain.PasswordHasher
	issuer         domain.TokenIssuer
	verifier       domain.TokenVerifier
	tokenExpiry    time.Duration
	contextTimeout time.Duration
	now            func() time.Time
}

// NewAuthService creates an AuthService with the given repository and auth ports.
func NewAuthService(userRepo domain.UserRepository, hasher domain.PasswordHasher, issuer domain.TokenIssuer, verifier domain.TokenVerifier, tokenExpiry, timeout time.Duration) domain.AuthService {
	return &authService{
		userRepo:       userRepo,
		hasher:         hasher,
		issuer:         issuer,
		verifier:       verifier,
		tokenExpiry:    tokenExpiry,
		contextTimeout: timeout,
		now:            time.Now,
	}
}

func normalizeEmail(email string) string {
	return strings.TrimSpace(strings.ToLower(email))
}

func validatePassword(field, password string) error {
	if len(password) < domain.MinPasswordLength {
		return domain.Invalid(field, fmt.Sprintf("password must be at least %d characters", domain.MinPasswordLength))
	}
	return nil
}

// SignUp registers a participant account and returns a session token.
func (s *authService) SignUp(ctx context.Context, in domain.SignUpInput) (string, *domain.User, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	email := normalizeEmail(in.Email)
	if !emailRegexp.MatchString(email) {
		return "", nil, domain.Invalid("email", "invalid email format")
	}
	if err := validatePassword("password", in.Password); err != nil {
		return "", nil, err
	}
	firstName := strings.TrimSpace(in.FirstName)
	if firstName == "" {
		return "", nil, domain.Invalid("first_name", "first name is required")
	}
	switch in.ParticipantType {
	case domain.ParticipantIIIT:
		if !domain.IsIIITEmail(email) {
			return "", nil, domain.Invalid("email", "IIIT participants must sign up with an institute email address")
		}
	case domain.ParticipantNonIIIT:
	default:
		return "", nil, domain.Invalid("participant_type", "participant type must be IIIT or Non-IIIT")
	}

	salt, err := s.hasher.GenerateSalt()
	if err != nil {
		return "", nil, err
	}
	hash, err := s.hasher.Hash(salt, in.Password)
	if err != nil {
		return "", nil, err
	}

	user := domain.NewParticipant(email, firstName, strings.TrimSpace(in.LastName), in.ParticipantType, s.now().UTC())
	user.ContactNumber = strings.TrimSpace(in.ContactNumber)
	user.College = strings.TrimSpace(in.College)
	user.PasswordHash = hash
	user.Salt = salt
	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, domain.ErrDuplicateEmail) {
			return "", nil, err
		}
		return "", nil, fmt.Errorf("create user: %w", err)
	}

	token, err := s.issuer.Issue(user.ID, user.Email, user.Role, s.tokenExpiry)
	if err != nil {
		return "", nil, err
	}
	return token, user, nil
}

// Login verifies credentials and returns a session token.
func (s *authService) Login(ctx context.Context, email, password string) (string, *domain.User, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	user, err := s.userRepo.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return "", nil, domain.ErrInvalidCredentials
		}
		return "", nil, fmt.Errorf("get user: %w", err)
	}
	if err := s.hasher.Compare(user.PasswordHash, user.Salt, password); err != nil {
		return "", nil, domain.ErrInvalidCredentials
	}
	if user.Disabled {
		return "", nil, domain.ErrAccountDisabled
	}

	token, err := s.issuer.Issue(user.ID, user.Email, user.Role, s.tokenExpiry)
	if err != nil {
		return "", nil, err
	}
	return token, user, nil
}

// Authenticate verifies token and re-reads the account so that disabled or
// deleted users lose access immediately. The role comes from the stored user.
func (s *authService) Authenticate(ctx context.Context, token string) (*domain.Principal, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	p, err := s.verifier.Verify(token)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidCredentials, err)
	}
	user, err := s.userRepo.GetByID(ctx, p.UserID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	if user.Disabled {
		return nil, domain.ErrAccountDisabled
	}
	return &domain.Principal{UserID: user.ID, Role: user.Role}, nil
}
