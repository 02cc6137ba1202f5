package controllers

import (
	"log/slog"
	"net/http"
	"strings"

	h "campusevents/internal/delivery/http/helpers"
	"campusevents/internal/domain"
)

// CheckInRequest carries the raw text scanned from a ticket QR code.
type CheckInRequest struct {
	Payload string `json:"payload"`
}

// Validate implements Validator.
func (c CheckInRequest) Validate() []string {
	if strings.TrimSpace(c.Payload) == "" {
		return []string{"payload is required"}
	}
	return nil
}

// AttendanceController serves organizer attendance tracking.
type AttendanceController struct {
	Logger  *slog.Logger
	Service domain.TicketService
}

func NewAttendanceController(logger *slog.Logger, svc domain.TicketService) *AttendanceController {
	return &AttendanceController{
		Logger:  logger,
		Service: svc,
	}
}

// Mark godoc
// @Summary Mark attendance
// @Description Marks an Approved entry as attended. Marking twice keeps the first timestamp.
// @Tags attendance
// @Produce json
// @Security BearerAuth
// @Param eventID path string true "Event ID"
// @Param entryID path string true "Entry ID"
// @Success 200 {object} helpers.APIResponse "data contains the entry"
// @Failure 409 {object} helpers.APIResponse "error.code: conflict"
// @Router /events/{eventID}/participants/{entryID}/attendance [put]
func (c *AttendanceController) Mark(w http.ResponseWriter, r *http.Request) {
	c.toggle(w, r, true)
}

// Unmark godoc
// @Summary Clear attendance
// @Tags attendance
// @Produce json
// @Security BearerAuth
// @Param eventID path string true "Event ID"
// @Param entryID path string true "Entry ID"
// @Success 200 {object} helpers.APIResponse "data contains the entry"
// @Router /events/{eventID}/participants/{entryID}/attendance [delete]
func (c *AttendanceController) Unmark(w http.ResponseWriter, r *http.Request) {
	c.toggle(w, r, false)
}

func (c *AttendanceController) toggle(w http.ResponseWriter, r *http.Request, mark bool) {
	p, ok := caller(w, r)
	if !ok {
		return
	}
	eventID, ok := pathParam(w, r, "eventID")
	if !ok {
		return
	}
	entryID, ok := pathParam(w, r, "entryID")
	if !ok {
		return
	}
	var (
		entry *domain.Entry
		err   error
	)
	if mark {
		entry, err = c.Service.MarkAttendance(r.Context(), eventID, entryID, p.UserID)
	} else {
		entry, err = c.Service.UnmarkAttendance(r.Context(), eventID, entryID, p.UserID)
	}
	if err != nil {
		h.WriteServiceError(w, r, c.Logger, err)
		return
	}
	h.WriteJSONSuccess(w, http.StatusOK, entry)
}

// CheckIn godoc
// @Summary Check in with a ticket
// @Description Resolves a scanned ticket payload against the event and marks attendance.
// @Tags attendance
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param eventID path string true "Event ID"
// @Param body body CheckInRequest true "Scanned payload"
// @Success 200 {object} helpers.APIResponse "data contains the entry"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Router /events/{eventID}/check-in [post]
func (c *AttendanceController) CheckIn(w http.ResponseWriter, r *http.Request) {
	p, ok := caller(w, r)
	if !ok {
		return
	}
	eventID, ok := pathParam(w, r, "eventID")
	if !ok {
		return
	}
	var req CheckInRequest
	if !h.DecodeAndValidate(w, r, &req) {
		return
	}
	entry, err := c.Service.CheckIn(r.Context(), eventID, p.UserID, req.Payload)
	if err != nil {
		h.WriteServiceError(w, r, c.Logger, err)
		return
	}
	h.WriteJSONSuccess(w, http.StatusOK, entry)
}
