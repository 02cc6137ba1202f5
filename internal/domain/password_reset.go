package domain

import (
	"context"
	"time"
)

// ResetStatus is the state of an organizer password reset request.
type ResetStatus string

const (
	ResetPending  ResetStatus = "Pending"
	ResetApproved ResetStatus = "Approved"
	ResetRejected ResetStatus = "Rejected"
)

// PasswordResetRequest is an organizer's request for an admin to reset their password.
// swagger:model PasswordResetRequest
type PasswordResetRequest struct {
	ID            string      `json:"id"`
	OrganizerID   string      `json:"organizer_id"`
	OrganizerName string      `json:"organizer_name,omitempty"`
	Reason        string      `json:"reason"`
	Status        ResetStatus `json:"status"`
	AdminNote     string      `json:"admin_note,omitempty"`
	CreatedAt     time.Time   `json:"created_at"`
	UpdatedAt     time.Time   `json:"updated_at"`
}

// PasswordResetRepository stores reset requests.
type PasswordResetRepository interface {
	Create(ctx context.Context, req *PasswordResetRequest) error
	GetByID(ctx context.Context, id string) (*PasswordResetRequest, error)
	ListByOrganizer(ctx context.Context, organizerID string) ([]*PasswordResetRequest, error)
	List(ctx context.Context, status ResetStatus) ([]*PasswordResetRequest, error)
	HasPending(ctx context.Context, organizerID string) (bool, error)
	// Resolve moves a Pending request to status and returns ErrConflict if it
	// was already resolved.
	Resolve(ctx context.Context, id string, status ResetStatus, adminNote string) error
}

// PasswordResetService runs the organizer password reset workflow.
type PasswordResetService interface {
	Submit(ctx context.Context, organizerID, reason string) (*PasswordResetRequest, error)
	ListMine(ctx context.Context, organizerID string) ([]*PasswordResetRequest, error)
	List(ctx context.Context, status ResetStatus) ([]*PasswordResetRequest, error)
	// Approve sets a generated password on the organizer account and returns it once.
	Approve(ctx context.Context, requestID, adminNote string) (newPassword string, err error)
	Reject(ctx context.Context, requestID, adminNote string) error
}
