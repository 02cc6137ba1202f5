package controllers

import (
	"log/slog"
	"net/http"

	h "campusevents/internal/delivery/http/helpers"
	"campusevents/internal/domain"
)

// MarkReadRequest limits PUT /notifications/read to one event when EventID is set.
type MarkReadRequest struct {
	EventID string `json:"event_id"`
}

type NotificationController struct {
	Logger  *slog.Logger
	Service domain.NotificationService
}

func NewNotificationController(logger *slog.Logger, svc domain.NotificationService) *NotificationController {
	return &NotificationController{Logger: logger, Service: svc}
}

// List godoc
// @Summary List my notifications
// @Tags notifications
// @Produce json
// @Security BearerAuth
// @Success 200 {object} helpers.APIResponse "data contains the newest notifications"
// @Router /notifications [get]
func (c *NotificationController) List(w http.ResponseWriter, r *http.Request) {
	p, ok := caller(w, r)
	if !ok {
		return
	}
	list, err := c.Service.List(r.Context(), p.UserID)
	if err != nil {
		h.WriteServiceError(w, r, c.Logger, err)
		return
	}
	if list == nil {
		list = []*domain.Notification{}
	}
	h.WriteJSONSuccess(w, http.StatusOK, list)
}

// UnreadCount godoc
// @Summary Count unread notifications
// @Tags notifications
// @Produce json
// @Security BearerAuth
// @Success 200 {object} helpers.APIResponse "data.count is the unread count"
// @Router /notifications/unread-count [get]
func (c *NotificationController) UnreadCount(w http.ResponseWriter, r *http.Request) {
	p, ok := caller(w, r)
	if !ok {
		return
	}
	n, err := c.Service.UnreadCount(r.Context(), p.UserID)
	if err != nil {
		h.WriteServiceError(w, r, c.Logger, err)
		return
	}
	h.WriteJSONSuccess(w, http.StatusOK, map[string]int64{"count": n})
}

// MarkRead godoc
// @Summary Mark notifications read
// @Description Marks all notifications read, or only those of event_id when given.
// @Tags notifications
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body MarkReadRequest false "Optional event filter"
// @Success 200 {object} helpers.APIResponse "data.updated is the number changed"
// @Router /notifications/read [put]
func (c *NotificationController) MarkRead(w http.ResponseWriter, r *http.Request) {
	p, ok := caller(w, r)
	if !ok {
		return
	}
	var req MarkReadRequest
	if r.ContentLength != 0 && !h.DecodeAndValidate(w, r, &req) {
		return
	}
	n, err := c.Service.MarkRead(r.Context(), p.UserID, req.EventID)
	if err != nil {
		h.WriteServiceError(w, r, c.Logger, err)
		return
	}
	h.WriteJSONSuccess(w, http.StatusOK, map[string]int64{"updated": n})
}
