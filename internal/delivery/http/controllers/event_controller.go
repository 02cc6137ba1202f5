package controllers

import (
	"log/slog"
	"net/http"
	"time"

	h "campusevents/internal/delivery/http/helpers"
	"campusevents/internal/domain"
)

// CreateEventRequest is the request body for POST /events. Status may be
// "Draft" (default) or "Published".
type CreateEventRequest struct {
	Name                 string             `json:"name"`
	Description          string             `json:"description"`
	Type                 string             `json:"type"`
	Status               string             `json:"status"`
	Eligibility          string             `json:"eligibility"`
	StartDate            *time.Time         `json:"start_date"`
	EndDate              *time.Time         `json:"end_date"`
	RegistrationDeadline *time.Time         `json:"registration_deadline"`
	RegistrationLimit    int                `json:"registration_limit"`
	Price                float64            `json:"price"`
	Location             string             `json:"location"`
	Tags                 []string           `json:"tags"`
	FormFields           []domain.FormField `json:"form_fields"`
	Stock                int                `json:"stock"`
	PurchaseLimit        int                `json:"purchase_limit"`
	Variants             []domain.Variant   `json:"variants"`
	UPIID                string             `json:"upi_id"`
}

// Validate implements Validator. Business rules are checked by the service.
func (c CreateEventRequest) Validate() []string {
	var errs []string
	if c.Name == "" {
		errs = append(errs, "name is required")
	}
	if c.RegistrationLimit < 0 {
		errs = append(errs, "registration_limit must not be negative")
	}
	if c.Stock < 0 {
		errs = append(errs, "stock must not be negative")
	}
	return errs
}

func (c CreateEventRequest) toDomain() domain.EventInput {
	status := domain.EventStatus(c.Status)
	if status == "" {
		status = domain.StatusDraft
	}
	return domain.EventInput{
		Name:                 c.Name,
		Description:          c.Description,
		Type:                 domain.EventType(c.Type),
		Status:               status,
		Eligibility:          domain.Eligibility(c.Eligibility),
		StartDate:            c.StartDate,
		EndDate:              c.EndDate,
		RegistrationDeadline: c.RegistrationDeadline,
		RegistrationLimit:    c.RegistrationLimit,
		Price:                c.Price,
		Location:             c.Location,
		Tags:                 c.Tags,
		FormFields:           c.FormFields,
		Stock:                c.Stock,
		PurchaseLimit:        c.PurchaseLimit,
		Variants:             c.Variants,
		UPIID:                c.UPIID,
	}
}

// UpdateEventRequest is the request body for PATCH /events/{eventID}. All
// fields are optional; omitted fields are unchanged. Action is one of
// "publish", "closeRegistrations" or "cancel".
type UpdateEventRequest struct {
	Name                 *string             `json:"name"`
	Description          *string             `json:"description"`
	Type                 *domain.EventType   `json:"type"`
	Eligibility          *domain.Eligibility `json:"eligibility"`
	StartDate            *time.Time          `json:"start_date"`
	EndDate              *time.Time          `json:"end_date"`
	RegistrationDeadline *time.Time          `json:"registration_deadline"`
	RegistrationLimit    *int                `json:"registration_limit"`
	Price                *float64            `json:"price"`
	Location             *string             `json:"location"`
	Tags                 *[]string           `json:"tags"`
	FormFields           *[]domain.FormField `json:"form_fields"`
	Stock                *int                `json:"stock"`
	PurchaseLimit        *int                `json:"purchase_limit"`
	Variants             *[]domain.Variant   `json:"variants"`
	UPIID                *string             `json:"upi_id"`
	Action               string              `json:"action"`
}

// Validate implements Validator.
func (u UpdateEventRequest) Validate() []string {
	var errs []string
	switch domain.EventAction(u.Action) {
	case domain.ActionNone, domain.ActionPublish, domain.ActionCloseRegistrations, domain.ActionCancel:
	default:
		errs = append(errs, `action must be "publish", "closeRegistrations" or "cancel"`)
	}
	return errs
}

func (u UpdateEventRequest) toDomain() (domain.EventPatch, domain.EventAction) {
	return domain.EventPatch{
		Name:                 u.Name,
		Description:          u.Description,
		Type:                 u.Type,
		Eligibility:          u.Eligibility,
		StartDate:            u.StartDate,
		EndDate:              u.EndDate,
		RegistrationDeadline: u.RegistrationDeadline,
		RegistrationLimit:    u.RegistrationLimit,
		Price:                u.Price,
		Location:             u.Location,
		Tags:                 u.Tags,
		FormFields:           u.FormFields,
		Stock:                u.Stock,
		PurchaseLimit:        u.PurchaseLimit,
		Variants:             u.Variants,
		UPIID:                u.UPIID,
	}, domain.EventAction(u.Action)
}

// EventController serves event authoring and browsing.
type EventController struct {
	Logger  *slog.Logger
	Service domain.EventService
}

func NewEventController(logger *slog.Logger, svc domain.EventService) *EventController {
	return &EventController{
		Logger:  logger,
		Service: svc,
	}
}

// List godoc
// @Summary List public events
// @Description Lists Published, Ongoing and Completed events, optionally for one organizer.
// @Tags events
// @Produce json
// @Param organizer query string false "Organizer ID"
// @Param page query int false "Page (default 1)"
// @Param page_size query int false "Page size (default 20, max 100)"
// @Success 200 {object} helpers.APIResponse "data contains items and pagination"
// @Router /events [get]
func (c *EventController) List(w http.ResponseWriter, r *http.Request) {
	params := h.ParsePagination(r)
	events, total, err := c.Service.ListPublic(r.Context(), r.URL.Query().Get("organizer"), params)
	if err != nil {
		h.WriteServiceError(w, r, c.Logger, err)
		return
	}
	h.WriteJSONSuccess(w, http.StatusOK, h.NewPage(events, params, total))
}

// ListMine godoc
// @Summary List my events
// @Description Lists every event of the authenticated organizer, drafts included.
// @Tags events
// @Produce json
// @Security BearerAuth
// @Param page query int false "Page (default 1)"
// @Param page_size query int false "Page size (default 20, max 100)"
// @Success 200 {object} helpers.APIResponse "data contains items and pagination"
// @Router /events/mine [get]
func (c *EventController) ListMine(w http.ResponseWriter, r *http.Request) {
	p, ok := caller(w, r)
	if !ok {
		return
	}
	params := h.ParsePagination(r)
	events, total, err := c.Service.ListMine(r.Context(), p.UserID, params)
	if err != nil {
		h.WriteServiceError(w, r, c.Logger, err)
		return
	}
	h.WriteJSONSuccess(w, http.StatusOK, h.NewPage(events, params, total))
}

// Trending godoc
// @Summary Trending events
// @Description Top events by registrations in the last 24 hours.
// @Tags events
// @Produce json
// @Success 200 {object} helpers.APIResponse "data contains the events"
// @Router /events/trending [get]
func (c *EventController) Trending(w http.ResponseWriter, r *http.Request) {
	events, err := c.Service.Trending(r.Context())
	if err != nil {
		h.WriteServiceError(w, r, c.Logger, err)
		return
	}
	if events == nil {
		events = []*domain.Event{}
	}
	h.WriteJSONSuccess(w, http.StatusOK, events)
}

// Get godoc
// @Summary Get an event by ID
// @Tags events
// @Produce json
// @Param eventID path string true "Event ID"
// @Success 200 {object} helpers.APIResponse "data contains the event"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Router /events/{eventID} [get]
func (c *EventController) Get(w http.ResponseWriter, r *http.Request) {
	eventID, ok := pathParam(w, r, "eventID")
	if !ok {
		return
	}
	event, err := c.Service.Get(r.Context(), eventID)
	if err != nil {
		h.WriteServiceError(w, r, c.Logger, err)
		return
	}
	h.WriteJSONSuccess(w, http.StatusOK, event)
}

// Create godoc
// @Summary Create an event
// @Description Creates a Draft or Published event owned by the authenticated organizer.
// @Tags events
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param event body CreateEventRequest true "Event data"
// @Success 201 {object} helpers.APIResponse "data contains the created event"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Router /events [post]
func (c *EventController) Create(w http.ResponseWriter, r *http.Request) {
	p, ok := caller(w, r)
	if !ok {
		return
	}
	var req CreateEventRequest
	if !h.DecodeAndValidate(w, r, &req) {
		return
	}
	event, err := c.Service.Create(r.Context(), p.UserID, req.toDomain())
	if err != nil {
		h.WriteServiceError(w, r, c.Logger, err)
		return
	}
	h.WriteJSONSuccess(w, http.StatusCreated, event)
}

// Update godoc
// @Summary Update an event
// @Description Applies a field patch and an optional lifecycle action. Which fields may change depends on the event's status.
// @Tags events
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param eventID path string true "Event ID"
// @Param body body UpdateEventRequest true "Patch and action"
// @Success 200 {object} helpers.APIResponse "data contains the updated event"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 409 {object} helpers.APIResponse "error.code: conflict"
// @Router /events/{eventID} [patch]
func (c *EventController) Update(w http.ResponseWriter, r *http.Request) {
	p, ok := caller(w, r)
	if !ok {
		return
	}
	eventID, ok := pathParam(w, r, "eventID")
	if !ok {
		return
	}
	var req UpdateEventRequest
	if !h.DecodeAndValidate(w, r, &req) {
		return
	}
	patch, action := req.toDomain()
	event, err := c.Service.Update(r.Context(), eventID, p.UserID, patch, action)
	if err != nil {
		h.WriteServiceError(w, r, c.Logger, err)
		return
	}
	h.WriteJSONSuccess(w, http.StatusOK, event)
}
