package domain

import (
	"context"
	"regexp"
	"strings"
	"time"
)

// Role is the account role carried in tokens and used for route gating.
type Role string

const (
	RoleParticipant Role = "participant"
	RoleOrganizer   Role = "organizer"
	RoleAdmin       Role = "admin"
)

// ParticipantType distinguishes institute members from external participants.
type ParticipantType string

const (
	ParticipantIIIT    ParticipantType = "IIIT"
	ParticipantNonIIIT ParticipantType = "Non-IIIT"
)

// MinPasswordLength is the shortest password accepted for any account.
const MinPasswordLength = 8

var iiitEmailRegexp = regexp.MustCompile(`@([a-z0-9-]+\.)?iiit\.ac\.in$`)

// IsIIITEmail reports whether the address belongs to an institute domain.
func IsIIITEmail(email string) bool {
	return iiitEmailRegexp.MatchString(strings.ToLower(strings.TrimSpace(email)))
}

// User represents an account of any role. Participant and organizer profile
// fields share one record; fields that do not apply to the role stay empty.
// swagger:model User
type User struct {
	ID           string `json:"id"`
	Email        string `json:"email"`
	PasswordHash string `json:"-"`
	Salt         string `json:"-"`
	Role         Role   `json:"role"`

	FirstName          string          `json:"first_name,omitempty"`
	LastName           string          `json:"last_name,omitempty"`
	ParticipantType    ParticipantType `json:"participant_type,omitempty"`
	ContactNumber      string          `json:"contact_number,omitempty"`
	College            string          `json:"college,omitempty"`
	Interests          []string        `json:"interests,omitempty"`
	FollowedOrganizers []string        `json:"followed_organizers,omitempty"`
	OnboardingComplete bool            `json:"onboarding_complete"`

	OrganizerName  string `json:"organizer_name,omitempty"`
	Category       string `json:"category,omitempty"`
	Description    string `json:"description,omitempty"`
	Website        string `json:"website,omitempty"`
	ContactEmail   string `json:"contact_email,omitempty"`
	DiscordWebhook string `json:"discord_webhook,omitempty"`

	Disabled  bool      `json:"disabled"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewParticipant returns a participant User. ID is set by the repository on create.
func NewParticipant(email, firstName, lastName string, pt ParticipantType, now time.Time) *User {
	return &User{
		Email:           email,
		Role:            RoleParticipant,
		FirstName:       firstName,
		LastName:        lastName,
		ParticipantType: pt,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}

// NewOrganizer returns an organizer User. ID is set by the repository on create.
func NewOrganizer(email, name, category string, now time.Time) *User {
	return &User{
		Email:         email,
		Role:          RoleOrganizer,
		OrganizerName: name,
		Category:      category,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

// DisplayName is the name shown on tickets, forum posts and notifications.
func (u *User) DisplayName() string {
	if u.Role == RoleOrganizer && u.OrganizerName != "" {
		return u.OrganizerName
	}
	name := strings.TrimSpace(u.FirstName + " " + u.LastName)
	if name == "" {
		return u.Email
	}
	return name
}

// Principal is the authenticated caller resolved from a bearer token.
type Principal struct {
	UserID string
	Role   Role
}

// SignUpInput is the participant self-registration payload.
type SignUpInput struct {
	Email           string
	Password        string
	FirstName       string
	LastName        string
	ParticipantType ParticipantType
	ContactNumber   string
	College         string
}

// ProfileUpdate carries optional profile changes; nil fields are left unchanged.
// Which fields apply depends on the caller's role.
type ProfileUpdate struct {
	FirstName          *string
	LastName           *string
	ContactNumber      *string
	College            *string
	Interests          *[]string
	OnboardingComplete *bool

	OrganizerName  *string
	Category       *string
	Description    *string
	Website        *string
	ContactEmail   *string
	DiscordWebhook *string

	CurrentPassword string
	NewPassword     string
}

// PasswordHasher handles salt generation, hashing, and verification.
type PasswordHasher interface {
	GenerateSalt() (string, error)
	Hash(salt, password string) (hash string, err error)
	Compare(hash, salt, password string) error
}

// TokenIssuer issues tokens (e.g. JWT) for an authenticated user.
type TokenIssuer interface {
	Issue(userID, email string, role Role, expiry time.Duration) (string, error)
}

// TokenVerifier verifies a token and returns the principal it was issued for.
type TokenVerifier interface {
	Verify(token string) (*Principal, error)
}

// Authenticator resolves a bearer token to an active principal.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*Principal, error)
}

// UserRepository defines the interface for user storage
type UserRepository interface {
	Create(ctx context.Context, user *User) error
	GetByEmail(ctx context.Context, email string) (*User, error)
	GetByID(ctx context.Context, id string) (*User, error)
	GetByIDs(ctx context.Context, ids []string) (map[string]*User, error)
	ListByRole(ctx context.Context, role Role, includeDisabled bool) ([]*User, error)
	Update(ctx context.Context, user *User) error
	UpdatePassword(ctx context.Context, id, hash, salt string) error
	SetDisabled(ctx context.Context, id string, disabled bool) error
	Delete(ctx context.Context, id string) error
}

// AuthService handles sign-up, login and token authentication.
type AuthService interface {
	SignUp(ctx context.Context, in SignUpInput) (token string, user *User, err error)
	Login(ctx context.Context, email, password string) (token string, user *User, err error)
	Authenticate(ctx context.Context, token string) (*Principal, error)
}

// UserService manages profiles and the public organizer directory.
type UserService interface {
	GetByID(ctx context.Context, id string) (*User, error)
	UpdateProfile(ctx context.Context, id string, upd ProfileUpdate) (*User, error)
	ListOrganizers(ctx context.Context) ([]*User, error)
	GetOrganizer(ctx context.Context, id string) (*User, error)
	FollowOrganizer(ctx context.Context, userID, organizerID string) (*User, error)
	UnfollowOrganizer(ctx context.Context, userID, organizerID string) (*User, error)
}

// AdminService is the admin-only organizer management surface.
type AdminService interface {
	ListOrganizers(ctx context.Context) ([]*User, error)
	ToggleOrganizerDisabled(ctx context.Context, organizerID string) (*User, error)
	DeleteOrganizer(ctx context.Context, organizerID string) (deletedEvents int64, err error)
}
