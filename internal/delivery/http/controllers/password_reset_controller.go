package controllers

import (
	"log/slog"
	"net/http"
	"strings"

	h "campusevents/internal/delivery/http/helpers"
	"campusevents/internal/domain"
)

// SubmitResetRequest is the body of POST /password-reset-requests.
type SubmitResetRequest struct {
	Reason string `json:"reason"`
}

// Validate implements Validator.
func (s SubmitResetRequest) Validate() []string {
	if strings.TrimSpace(s.Reason) == "" {
		return []string{"reason is required"}
	}
	return nil
}

// ApproveResetResponse carries the generated password. It is shown only once.
type ApproveResetResponse struct {
	RequestID   string `json:"request_id"`
	NewPassword string `json:"new_password"`
}

// PasswordResetController serves the organizer password reset workflow.
type PasswordResetController struct {
	Logger  *slog.Logger
	Service domain.PasswordResetService
}

func NewPasswordResetController(logger *slog.Logger, svc domain.PasswordResetService) *PasswordResetController {
	return &PasswordResetController{Logger: logger, Service: svc}
}

// Submit godoc
// @Summary Request a password reset
// @Description Organizers may have one Pending request at a time.
// @Tags password-reset
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body SubmitResetRequest true "Reason"
// @Success 201 {object} helpers.APIResponse "data contains the request"
// @Failure 409 {object} helpers.APIResponse "error.code: conflict"
// @Router /password-reset-requests [post]
func (c *PasswordResetController) Submit(w http.ResponseWriter, r *http.Request) {
	p, ok := caller(w, r)
	if !ok {
		return
	}
	var req SubmitResetRequest
	if !h.DecodeAndValidate(w, r, &req) {
		return
	}
	created, err := c.Service.Submit(r.Context(), p.UserID, req.Reason)
	if err != nil {
		h.WriteServiceError(w, r, c.Logger, err)
		return
	}
	h.WriteJSONSuccess(w, http.StatusCreated, created)
}

// ListMine godoc
// @Summary List my password reset requests
// @Tags password-reset
// @Produce json
// @Security BearerAuth
// @Success 200 {object} helpers.APIResponse "data contains the requests"
// @Router /password-reset-requests/mine [get]
func (c *PasswordResetController) ListMine(w http.ResponseWriter, r *http.Request) {
	p, ok := caller(w, r)
	if !ok {
		return
	}
	list, err := c.Service.ListMine(r.Context(), p.UserID)
	if err != nil {
		h.WriteServiceError(w, r, c.Logger, err)
		return
	}
	writeResets(w, list)
}

// List godoc
// @Summary List password reset requests
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Param status query string false "Pending, Approved or Rejected"
// @Success 200 {object} helpers.APIResponse "data contains the requests"
// @Router /admin/password-reset-requests [get]
func (c *PasswordResetController) List(w http.ResponseWriter, r *http.Request) {
	list, err := c.Service.List(r.Context(), domain.ResetStatus(r.URL.Query().Get("status")))
	if err != nil {
		h.WriteServiceError(w, r, c.Logger, err)
		return
	}
	writeResets(w, list)
}

func writeResets(w http.ResponseWriter, list []*domain.PasswordResetRequest) {
	if list == nil {
		list = []*domain.PasswordResetRequest{}
	}
	h.WriteJSONSuccess(w, http.StatusOK, list)
}

// Approve godoc
// @Summary Approve a password reset
// @Description Sets a generated password on the organizer account and returns it.
// @Tags admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param requestID path string true "Request ID"
// @Param body body NoteRequest false "Optional admin note"
// @Success 200 {object} controllers.ApproveResetResponse
// @Failure 409 {object} helpers.APIResponse "error.code: conflict"
// @Router /admin/password-reset-requests/{requestID}/approve [post]
func (c *PasswordResetController) Approve(w http.ResponseWriter, r *http.Request) {
	id, ok := pathParam(w, r, "requestID")
	if !ok {
		return
	}
	note, ok := decodeNote(w, r)
	if !ok {
		return
	}
	password, err := c.Service.Approve(r.Context(), id, note)
	if err != nil {
		h.WriteServiceError(w, r, c.Logger, err)
		return
	}
	h.WriteJSONSuccess(w, http.StatusOK, ApproveResetResponse{RequestID: id, NewPassword: password})
}

// Reject godoc
// @Summary Reject a password reset
// @Tags admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param requestID path string true "Request ID"
// @Param body body NoteRequest false "Optional admin note"
// @Success 200 {object} helpers.APIResponse
// @Failure 409 {object} helpers.APIResponse "error.code: conflict"
// @Router /admin/password-reset-requests/{requestID}/reject [post]
func (c *PasswordResetController) Reject(w http.ResponseWriter, r *http.Request) {
	id, ok := pathParam(w, r, "requestID")
	if !ok {
		return
	}
	note, ok := decodeNote(w, r)
	if !ok {
		return
	}
	if err := c.Service.Reject(r.Context(), id, note); err != nil {
		h.WriteServiceError(w, r, c.Logger, err)
		return
	}
	h.WriteJSONSuccess(w, http.StatusOK, map[string]string{"request_id": id, "status": string(domain.ResetRejected)})
}
