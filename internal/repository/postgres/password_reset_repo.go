package postgres

import (
	"context"
	"database/sql"
	"errors"

	"campusevents/internal/domain"
)

const resetColumns = `r.id, r.organizer_id, COALESCE(u.organizer_name, ''), r.reason, r.status, r.admin_note, r.created_at, r.updated_at`

type passwordResetRepository struct {
	DB *sql.DB
}

func NewPasswordResetRepository(db *sql.DB) domain.PasswordResetRepository {
	return &passwordResetRepository{DB: db}
}

func scanReset(s rowScanner) (*domain.PasswordResetRequest, error) {
	req := &domain.PasswordResetRequest{}
	var status string
	if err := s.Scan(&req.ID, &req.OrganizerID, &req.OrganizerName, &req.Reason, &status, &req.AdminNote, &req.CreatedAt, &req.UpdatedAt); err != nil {
		return nil, err
	}
	req.Status = domain.ResetStatus(status)
	return req, nil
}

func (r *passwordResetRepository) Create(ctx context.Context, req *domain.PasswordResetRequest) error {
	query := `
		INSERT INTO password_reset_requests (organizer_id, reason, status, admin_note, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`
	err := r.DB.QueryRowContext(ctx, query,
		req.OrganizerID, req.Reason, string(req.Status), req.AdminNote, req.CreatedAt, req.UpdatedAt,
	).Scan(&req.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrConflict
		}
		return err
	}
	return nil
}

func (r *passwordResetRepository) GetByID(ctx context.Context, id string) (*domain.PasswordResetRequest, error) {
	query := `SELECT ` + resetColumns + `
		FROM password_reset_requests r LEFT JOIN users u ON u.id = r.organizer_id
		WHERE r.id = $1`
	req, err := scanReset(r.DB.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return req, nil
}

func (r *passwordResetRepository) ListByOrganizer(ctx context.Context, organizerID string) ([]*domain.PasswordResetRequest, error) {
	query := `SELECT ` + resetColumns + `
		FROM password_reset_requests r LEFT JOIN users u ON u.id = r.organizer_id
		WHERE r.organizer_id = $1
		ORDER BY r.created_at DESC`
	return r.list(ctx, query, organizerID)
}

// List returns requests newest first, filtered by status unless it is empty.
func (r *passwordResetRepository) List(ctx context.Context, status domain.ResetStatus) ([]*domain.PasswordResetRequest, error) {
	query := `SELECT ` + resetColumns + `
		FROM password_reset_requests r LEFT JOIN users u ON u.id = r.organizer_id
		WHERE ($1 = '' OR r.status = $1)
		ORDER BY r.created_at DESC`
	return r.list(ctx, query, string(status))
}

func (r *passwordResetRepository) list(ctx context.Context, query string, args ...any) ([]*domain.PasswordResetRequest, error) {
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	reqs := make([]*domain.PasswordResetRequest, 0)
	for rows.Next() {
		req, err := scanReset(rows)
		if err != nil {
			return nil, err
		}
		reqs = append(reqs, req)
	}
	return reqs, rows.Err()
}

func (r *passwordResetRepository) HasPending(ctx context.Context, organizerID string) (bool, error) {
	var pending bool
	err := r.DB.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM password_reset_requests WHERE organizer_id = $1 AND status = 'Pending')`,
		organizerID).Scan(&pending)
	return pending, err
}

func (r *passwordResetRepository) Resolve(ctx context.Context, id string, status domain.ResetStatus, adminNote string) error {
	result, err := r.DB.ExecContext(ctx, `
		UPDATE password_reset_requests SET status = $1, admin_note = $2, updated_at = NOW()
		WHERE id = $3 AND status = 'Pending'`,
		string(status), adminNote, id)
	if err != nil {
		return err
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		var exists bool
		if err := r.DB.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM password_reset_requests WHERE id = $1)`, id).Scan(&exists); err != nil {
			return err
		}
		if !exists {
			return domain.ErrNotFound
		}
		return domain.ErrConflict
	}
	return nil
}
