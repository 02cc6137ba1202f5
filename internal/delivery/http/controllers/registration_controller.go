package controllers

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	h "campusevents/internal/delivery/http/helpers"
	"campusevents/internal/domain"
)

// RegisterRequest is the request body for POST /events/{eventID}/registrations.
// Responses answer the event's form fields (normal events) or variants
// (merchandise), keyed by label or variant name.
type RegisterRequest struct {
	Responses       []domain.Response `json:"responses"`
	PaymentProofURL string            `json:"payment_proof_url"`
}

// Validate implements Validator.
func (r RegisterRequest) Validate() []string {
	var errs []string
	for i, resp := range r.Responses {
		if strings.TrimSpace(resp.Key) == "" {
			errs = append(errs, fmt.Sprintf("responses[%d].key is required", i))
		}
	}
	return errs
}

// RegistrationController serves registrations, orders and their reports.
type RegistrationController struct {
	Logger        *slog.Logger
	Registrations domain.RegistrationService
	Payments      domain.PaymentService
}

func NewRegistrationController(logger *slog.Logger, registrations domain.RegistrationService, payments domain.PaymentService) *RegistrationController {
	return &RegistrationController{
		Logger:        logger,
		Registrations: registrations,
		Payments:      payments,
	}
}

// Register godoc
// @Summary Register for an event or place an order
// @Description Normal events create an Approved registration and email a ticket. Merchandise events create a Pending order awaiting payment approval.
// @Tags registrations
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param eventID path string true "Event ID"
// @Param body body RegisterRequest true "Form responses"
// @Success 201 {object} helpers.APIResponse "data contains the entry"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 409 {object} helpers.APIResponse "error.code: conflict"
// @Router /events/{eventID}/registrations [post]
func (c *RegistrationController) Register(w http.ResponseWriter, r *http.Request) {
	p, ok := caller(w, r)
	if !ok {
		return
	}
	eventID, ok := pathParam(w, r, "eventID")
	if !ok {
		return
	}
	var req RegisterRequest
	if !h.DecodeAndValidate(w, r, &req) {
		return
	}
	entry, err := c.Registrations.Register(r.Context(), eventID, p.UserID, domain.RegistrationRequest{
		Responses:       req.Responses,
		PaymentProofURL: req.PaymentProofURL,
	})
	if err != nil {
		h.WriteServiceError(w, r, c.Logger, err)
		return
	}
	h.WriteJSONSuccess(w, http.StatusCreated, entry)
}

// ListMine godoc
// @Summary List my registrations
// @Tags registrations
// @Produce json
// @Security BearerAuth
// @Success 200 {object} helpers.APIResponse "data contains event and entry pairs"
// @Router /registrations/mine [get]
func (c *RegistrationController) ListMine(w http.ResponseWriter, r *http.Request) {
	p, ok := caller(w, r)
	if !ok {
		return
	}
	regs, err := c.Registrations.ListMine(r.Context(), p.UserID)
	if err != nil {
		h.WriteServiceError(w, r, c.Logger, err)
		return
	}
	if regs == nil {
		regs = []*domain.MyRegistration{}
	}
	h.WriteJSONSuccess(w, http.StatusOK, regs)
}

// ListParticipants godoc
// @Summary List participants of an event
// @Tags registrations
// @Produce json
// @Security BearerAuth
// @Param eventID path string true "Event ID"
// @Success 200 {object} helpers.APIResponse "data contains the participant report"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Router /events/{eventID}/participants [get]
func (c *RegistrationController) ListParticipants(w http.ResponseWriter, r *http.Request) {
	p, ok := caller(w, r)
	if !ok {
		return
	}
	eventID, ok := pathParam(w, r, "eventID")
	if !ok {
		return
	}
	report, err := c.Registrations.ListParticipants(r.Context(), eventID, p.UserID)
	if err != nil {
		h.WriteServiceError(w, r, c.Logger, err)
		return
	}
	h.WriteJSONSuccess(w, http.StatusOK, report)
}

// ListOrders godoc
// @Summary List merchandise orders of an event
// @Tags payments
// @Produce json
// @Security BearerAuth
// @Param eventID path string true "Event ID"
// @Success 200 {object} helpers.APIResponse "data contains the order report"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Router /events/{eventID}/orders [get]
func (c *RegistrationController) ListOrders(w http.ResponseWriter, r *http.Request) {
	p, ok := caller(w, r)
	if !ok {
		return
	}
	eventID, ok := pathParam(w, r, "eventID")
	if !ok {
		return
	}
	report, err := c.Registrations.ListOrders(r.Context(), eventID, p.UserID)
	if err != nil {
		h.WriteServiceError(w, r, c.Logger, err)
		return
	}
	h.WriteJSONSuccess(w, http.StatusOK, report)
}

// ApproveOrder godoc
// @Summary Approve a pending order
// @Description Takes one unit of stock and emails the ticket.
// @Tags payments
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param eventID path string true "Event ID"
// @Param orderID path string true "Order ID"
// @Param body body NoteRequest false "Optional note"
// @Success 200 {object} helpers.APIResponse "data contains the order"
// @Failure 409 {object} helpers.APIResponse "error.code: conflict"
// @Router /events/{eventID}/orders/{orderID}/approve [post]
func (c *RegistrationController) ApproveOrder(w http.ResponseWriter, r *http.Request) {
	c.resolveOrder(w, r, c.Payments.Approve)
}

// RejectOrder godoc
// @Summary Reject a pending order
// @Tags payments
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param eventID path string true "Event ID"
// @Param orderID path string true "Order ID"
// @Param body body NoteRequest false "Optional note"
// @Success 200 {object} helpers.APIResponse "data contains the order"
// @Failure 409 {object} helpers.APIResponse "error.code: conflict"
// @Router /events/{eventID}/orders/{orderID}/reject [post]
func (c *RegistrationController) RejectOrder(w http.ResponseWriter, r *http.Request) {
	c.resolveOrder(w, r, c.Payments.Reject)
}

type resolveFunc func(ctx context.Context, eventID, orderID, organizerID, note string) (*domain.Entry, error)

func (c *RegistrationController) resolveOrder(w http.ResponseWriter, r *http.Request, resolve resolveFunc) {
	p, ok := caller(w, r)
	if !ok {
		return
	}
	eventID, ok := pathParam(w, r, "eventID")
	if !ok {
		return
	}
	orderID, ok := pathParam(w, r, "orderID")
	if !ok {
		return
	}
	note, ok := decodeNote(w, r)
	if !ok {
		return
	}
	entry, err := resolve(r.Context(), eventID, orderID, p.UserID, note)
	if err != nil {
		h.WriteServiceError(w, r, c.Logger, err)
		return
	}
	h.WriteJSONSuccess(w, http.StatusOK, entry)
}
