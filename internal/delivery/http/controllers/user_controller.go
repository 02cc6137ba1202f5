package controllers

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	h "campusevents/internal/delivery/http/helpers"
	"campusevents/internal/domain"
)

// UpdateProfileRequest is the request body for PATCH /users/me. All fields are
// optional; which ones apply depends on the caller's role.
type UpdateProfileRequest struct {
	FirstName          *string   `json:"first_name"`
	LastName           *string   `json:"last_name"`
	ContactNumber      *string   `json:"contact_number"`
	College            *string   `json:"college"`
	Interests          *[]string `json:"interests"`
	OnboardingComplete *bool     `json:"onboarding_complete"`

	OrganizerName  *string `json:"organizer_name"`
	Category       *string `json:"category"`
	Description    *string `json:"description"`
	Website        *string `json:"website"`
	ContactEmail   *string `json:"contact_email"`
	DiscordWebhook *string `json:"discord_webhook"`

	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

// Validate implements Validator.
func (u UpdateProfileRequest) Validate() []string {
	var errs []string
	if u.ContactEmail != nil && *u.ContactEmail != "" && !emailRegexp.MatchString(strings.TrimSpace(*u.ContactEmail)) {
		errs = append(errs, "invalid contact_email format")
	}
	if u.NewPassword != "" && u.CurrentPassword == "" {
		errs = append(errs, "current_password is required to change the password")
	}
	return errs
}

func (u UpdateProfileRequest) toDomain() domain.ProfileUpdate {
	return domain.ProfileUpdate{
		FirstName:          u.FirstName,
		LastName:           u.LastName,
		ContactNumber:      u.ContactNumber,
		College:            u.College,
		Interests:          u.Interests,
		OnboardingComplete: u.OnboardingComplete,
		OrganizerName:      u.OrganizerName,
		Category:           u.Category,
		Description:        u.Description,
		Website:            u.Website,
		ContactEmail:       u.ContactEmail,
		DiscordWebhook:     u.DiscordWebhook,
		CurrentPassword:    u.CurrentPassword,
		NewPassword:        u.NewPassword,
	}
}

// UserController handles profiles and the public organizer directory.
type UserController struct {
	Logger  *slog.Logger
	Service domain.UserService
}

// NewUserController creates a UserController with the given logger and service.
func NewUserController(logger *slog.Logger, svc domain.UserService) *UserController {
	return &UserController{
		Logger:  logger,
		Service: svc,
	}
}

// GetMe godoc
// @Summary Get current user
// @Description Returns the authenticated user's profile.
// @Tags users
// @Produce json
// @Security BearerAuth
// @Success 200 {object} helpers.APIResponse "data contains the user"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Router /users/me [get]
func (c *UserController) GetMe(w http.ResponseWriter, r *http.Request) {
	p, ok := caller(w, r)
	if !ok {
		return
	}
	user, err := c.Service.GetByID(r.Context(), p.UserID)
	if err != nil {
		h.WriteServiceError(w, r, c.Logger, err)
		return
	}
	h.WriteJSONSuccess(w, http.StatusOK, user)
}

// UpdateMe godoc
// @Summary Update current user
// @Description Updates role-specific profile fields. Participants may change their password by supplying the current one; organizers use the reset workflow.
// @Tags users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body UpdateProfileRequest true "Fields to update"
// @Success 200 {object} helpers.APIResponse "data contains the updated user"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Router /users/me [patch]
func (c *UserController) UpdateMe(w http.ResponseWriter, r *http.Request) {
	p, ok := caller(w, r)
	if !ok {
		return
	}
	var req UpdateProfileRequest
	if !h.DecodeAndValidate(w, r, &req) {
		return
	}
	user, err := c.Service.UpdateProfile(r.Context(), p.UserID, req.toDomain())
	if err != nil {
		h.WriteServiceError(w, r, c.Logger, err)
		return
	}
	h.WriteJSONSuccess(w, http.StatusOK, user)
}

// ListOrganizers godoc
// @Summary List organizers
// @Description Lists enabled organizer accounts.
// @Tags organizers
// @Produce json
// @Success 200 {object} helpers.APIResponse "data contains the organizers"
// @Router /organizers [get]
func (c *UserController) ListOrganizers(w http.ResponseWriter, r *http.Request) {
	organizers, err := c.Service.ListOrganizers(r.Context())
	if err != nil {
		h.WriteServiceError(w, r, c.Logger, err)
		return
	}
	h.WriteJSONSuccess(w, http.StatusOK, organizers)
}

// GetOrganizer godoc
// @Summary Get an organizer
// @Tags organizers
// @Produce json
// @Param organizerID path string true "Organizer ID"
// @Success 200 {object} helpers.APIResponse "data contains the organizer"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Router /organizers/{organizerID} [get]
func (c *UserController) GetOrganizer(w http.ResponseWriter, r *http.Request) {
	id, ok := pathParam(w, r, "organizerID")
	if !ok {
		return
	}
	organizer, err := c.Service.GetOrganizer(r.Context(), id)
	if err != nil {
		h.WriteServiceError(w, r, c.Logger, err)
		return
	}
	h.WriteJSONSuccess(w, http.StatusOK, organizer)
}

// Follow godoc
// @Summary Follow an organizer
// @Tags users
// @Produce json
// @Security BearerAuth
// @Param organizerID path string true "Organizer ID"
// @Success 200 {object} helpers.APIResponse "data contains the updated user"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Router /users/me/follows/{organizerID} [post]
func (c *UserController) Follow(w http.ResponseWriter, r *http.Request) {
	c.follow(w, r, c.Service.FollowOrganizer)
}

// Unfollow godoc
// @Summary Unfollow an organizer
// @Tags users
// @Produce json
// @Security BearerAuth
// @Param organizerID path string true "Organizer ID"
// @Success 200 {object} helpers.APIResponse "data contains the updated user"
// @Router /users/me/follows/{organizerID} [delete]
func (c *UserController) Unfollow(w http.ResponseWriter, r *http.Request) {
	c.follow(w, r, c.Service.UnfollowOrganizer)
}

func (c *UserController) follow(w http.ResponseWriter, r *http.Request, op func(ctx context.Context, userID, organizerID string) (*domain.User, error)) {
	p, ok := caller(w, r)
	if !ok {
		return
	}
	organizerID, ok := pathParam(w, r, "organizerID")
	if !ok {
		return
	}
	user, err := op(r.Context(), p.UserID, organizerID)
	if err != nil {
		h.WriteServiceError(w, r, c.Logger, err)
		return
	}
	h.WriteJSONSuccess(w, http.StatusOK, user)
}
