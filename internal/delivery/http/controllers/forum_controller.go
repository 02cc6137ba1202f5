package controllers

import (
	"log/slog"
	"net/http"

	h "campusevents/internal/delivery/http/helpers"
	"campusevents/internal/domain"
)

// ForumController serves the read side of event forums. Writes go over the WebSocket.
type ForumController struct {
	Logger  *slog.Logger
	Service domain.ForumService
}

func NewForumController(logger *slog.Logger, svc domain.ForumService) *ForumController {
	return &ForumController{Logger: logger, Service: svc}
}

// ListThreads godoc
// @Summary List forum threads
// @Description Top-level messages, pinned first, each with its replies. Only the organizer and registered participants may read.
// @Tags forum
// @Produce json
// @Security BearerAuth
// @Param eventID path string true "Event ID"
// @Success 200 {object} helpers.APIResponse "data contains the threads"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Router /events/{eventID}/forum [get]
func (c *ForumController) ListThreads(w http.ResponseWriter, r *http.Request) {
	p, ok := caller(w, r)
	if !ok {
		return
	}
	eventID, ok := pathParam(w, r, "eventID")
	if !ok {
		return
	}
	threads, err := c.Service.ListThreads(r.Context(), eventID, p.UserID)
	if err != nil {
		h.WriteServiceError(w, r, c.Logger, err)
		return
	}
	if threads == nil {
		threads = []*domain.Thread{}
	}
	h.WriteJSONSuccess(w, http.StatusOK, threads)
}
