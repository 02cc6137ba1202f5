package postgres

import (
	"context"
	"database/sql"
	"errors"

	"campusevents/internal/domain"

	"github.com/lib/pq"
)

const userColumns = `id, email, password_hash, salt, role, first_name, last_name, participant_type,
	contact_number, college, interests, followed_organizers, onboarding_complete,
	organizer_name, category, description, website, contact_email, discord_webhook,
	disabled, created_at, updated_at`

type userRepository struct {
	DB *sql.DB
}

func NewUserRepository(db *sql.DB) domain.UserRepository {
	return &userRepository{DB: db}
}

func scanUser(s rowScanner) (*domain.User, error) {
	u := &domain.User{}
	var role, pt string
	err := s.Scan(
		&u.ID, &u.Email, &u.PasswordHash, &u.Salt, &role, &u.FirstName, &u.LastName, &pt,
		&u.ContactNumber, &u.College, pq.Array(&u.Interests), pq.Array(&u.FollowedOrganizers), &u.OnboardingComplete,
		&u.OrganizerName, &u.Category, &u.Description, &u.Website, &u.ContactEmail, &u.DiscordWebhook,
		&u.Disabled, &u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	u.Role = domain.Role(role)
	u.ParticipantType = domain.ParticipantType(pt)
	return u, nil
}

func (r *userRepository) Create(ctx context.Context, u *domain.User) error {
	query := `
		INSERT INTO users (email, password_hash, salt, role, first_name, last_name, participant_type,
			contact_number, college, interests, followed_organizers, onboarding_complete,
			organizer_name, category, description, website, contact_email, discord_webhook,
			disabled, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21)
		RETURNING id
	`
	err := r.DB.QueryRowContext(ctx, query,
		u.Email, u.PasswordHash, u.Salt, string(u.Role), u.FirstName, u.LastName, string(u.ParticipantType),
		u.ContactNumber, u.College, pq.Array(nonNil(u.Interests)), pq.Array(nonNil(u.FollowedOrganizers)), u.OnboardingComplete,
		u.OrganizerName, u.Category, u.Description, u.Website, u.ContactEmail, u.DiscordWebhook,
		u.Disabled, u.CreatedAt, u.UpdatedAt,
	).Scan(&u.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicateEmail
		}
		return err
	}
	return nil
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	u, err := scanUser(r.DB.QueryRowContext(ctx, query, email))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return u, nil
}

func (r *userRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	u, err := scanUser(r.DB.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return u, nil
}

// GetByIDs returns the users found among ids keyed by id. Unknown ids are skipped.
func (r *userRepository) GetByIDs(ctx context.Context, ids []string) (map[string]*domain.User, error) {
	out := make(map[string]*domain.User, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	query := `SELECT ` + userColumns + ` FROM users WHERE id = ANY($1)`
	rows, err := r.DB.QueryContext(ctx, query, pq.Array(ids))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		out[u.ID] = u
	}
	return out, rows.Err()
}

func (r *userRepository) ListByRole(ctx context.Context, role domain.Role, includeDisabled bool) ([]*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE role = $1 AND ($2 OR NOT disabled) ORDER BY created_at`
	rows, err := r.DB.QueryContext(ctx, query, string(role), includeDisabled)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	users := make([]*domain.User, 0)
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// Update writes the profile fields. Credentials, role and the disabled flag
// have their own methods.
func (r *userRepository) Update(ctx context.Context, u *domain.User) error {
	query := `
		UPDATE users SET email = $1, first_name = $2, last_name = $3, participant_type = $4,
			contact_number = $5, college = $6, interests = $7, followed_organizers = $8,
			onboarding_complete = $9, organizer_name = $10, category = $11, description = $12,
			website = $13, contact_email = $14, discord_webhook = $15, updated_at = $16
		WHERE id = $17
	`
	result, err := r.DB.ExecContext(ctx, query,
		u.Email, u.FirstName, u.LastName, string(u.ParticipantType),
		u.ContactNumber, u.College, pq.Array(nonNil(u.Interests)), pq.Array(nonNil(u.FollowedOrganizers)),
		u.OnboardingComplete, u.OrganizerName, u.Category, u.Description,
		u.Website, u.ContactEmail, u.DiscordWebhook, u.UpdatedAt,
		u.ID,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicateEmail
		}
		return err
	}
	return expectOneRow(result)
}

func (r *userRepository) UpdatePassword(ctx context.Context, id, hash, salt string) error {
	result, err := r.DB.ExecContext(ctx,
		`UPDATE users SET password_hash = $1, salt = $2, updated_at = NOW() WHERE id = $3`,
		hash, salt, id)
	if err != nil {
		return err
	}
	return expectOneRow(result)
}

func (r *userRepository) SetDisabled(ctx context.Context, id string, disabled bool) error {
	result, err := r.DB.ExecContext(ctx,
		`UPDATE users SET disabled = $1, updated_at = NOW() WHERE id = $2`,
		disabled, id)
	if err != nil {
		return err
	}
	return expectOneRow(result)
}

func (r *userRepository) Delete(ctx context.Context, id string) error {
	result, err := r.DB.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return expectOneRow(result)
}

func expectOneRow(result sql.Result) error {
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
