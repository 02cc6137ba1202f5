package controllers

import (
	"log/slog"
	"net/http"

	h "campusevents/internal/delivery/http/helpers"
	"campusevents/internal/domain"
)

// AdminController serves admin-only organizer management.
type AdminController struct {
	Logger  *slog.Logger
	Service domain.AdminService
}

func NewAdminController(logger *slog.Logger, svc domain.AdminService) *AdminController {
	return &AdminController{Logger: logger, Service: svc}
}

// ListOrganizers godoc
// @Summary List all organizers
// @Description Includes disabled organizers.
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Success 200 {object} helpers.APIResponse "data contains the organizers"
// @Router /admin/organizers [get]
func (c *AdminController) ListOrganizers(w http.ResponseWriter, r *http.Request) {
	organizers, err := c.Service.ListOrganizers(r.Context())
	if err != nil {
		h.WriteServiceError(w, r, c.Logger, err)
		return
	}
	h.WriteJSONSuccess(w, http.StatusOK, organizers)
}

// ToggleDisabled godoc
// @Summary Enable or disable an organizer
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Param organizerID path string true "Organizer ID"
// @Success 200 {object} helpers.APIResponse "data contains the organizer"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Router /admin/organizers/{organizerID}/disable [put]
func (c *AdminController) ToggleDisabled(w http.ResponseWriter, r *http.Request) {
	id, ok := pathParam(w, r, "organizerID")
	if !ok {
		return
	}
	organizer, err := c.Service.ToggleOrganizerDisabled(r.Context(), id)
	if err != nil {
		h.WriteServiceError(w, r, c.Logger, err)
		return
	}
	h.WriteJSONSuccess(w, http.StatusOK, organizer)
}

// DeleteOrganizer godoc
// @Summary Delete an organizer
// @Description Deletes the organizer and all of their events.
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Param organizerID path string true "Organizer ID"
// @Success 200 {object} helpers.APIResponse "data.deleted_events is the number of events removed"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Router /admin/organizers/{organizerID} [delete]
func (c *AdminController) DeleteOrganizer(w http.ResponseWriter, r *http.Request) {
	id, ok := pathParam(w, r, "organizerID")
	if !ok {
		return
	}
	n, err := c.Service.DeleteOrganizer(r.Context(), id)
	if err != nil {
		h.WriteServiceError(w, r, c.Logger, err)
		return
	}
	h.WriteJSONSuccess(w, http.StatusOK, map[string]int64{"deleted_events": n})
}
