package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"campusevents/internal/domain"
)

type paymentService struct {
	eventRepo      domain.EventRepository
	tickets        domain.TicketService
	dispatcher     *Dispatcher
	locker         *EventLocker
	contextTimeout time.Duration
}

// NewPaymentService returns a PaymentService for merchandise order approval.
func NewPaymentService(eventRepo domain.EventRepository, tickets domain.TicketService, dispatcher *Dispatcher, locker *EventLocker, timeout time.Duration) domain.PaymentService {
	return &paymentService{
		eventRepo:      eventRepo,
		tickets:        tickets,
		dispatcher:     dispatcher,
		locker:         locker,
		contextTimeout: timeout,
	}
}

// Approve accepts a Pending order, takes one unit of stock and sends the ticket.
func (s *paymentService) Approve(ctx context.Context, eventID, orderID, organizerID, note string) (*domain.Entry, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	unlock := s.locker.Lock(eventID)
	defer unlock()

	event, order, err := s.pendingOrder(ctx, eventID, orderID, organizerID)
	if err != nil {
		return nil, err
	}
	if event.Stock <= 0 {
		return nil, domain.Conflict("stock is exhausted")
	}
	if event.RegistrationLimit > 0 && event.ApprovedCount() >= event.RegistrationLimit {
		return nil, domain.Conflict("event is fully booked")
	}

	note = strings.TrimSpace(note)
	if err := s.eventRepo.ResolveOrder(ctx, event.ID, order.ID, domain.PaymentApproved, note); err != nil {
		return nil, resolveError("approve order", err)
	}
	approved := *order
	approved.PaymentStatus = domain.PaymentApproved
	approved.Note = note
	event.Stock--

	confirmTicket(ctx, s.dispatcher, s.tickets, event, &approved)
	return &approved, nil
}

// Reject declines a Pending order. Stock is not touched and no ticket is sent.
func (s *paymentService) Reject(ctx context.Context, eventID, orderID, organizerID, note string) (*domain.Entry, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	unlock := s.locker.Lock(eventID)
	defer unlock()

	event, order, err := s.pendingOrder(ctx, eventID, orderID, organizerID)
	if err != nil {
		return nil, err
	}
	note = strings.TrimSpace(note)
	if err := s.eventRepo.ResolveOrder(ctx, event.ID, order.ID, domain.PaymentRejected, note); err != nil {
		return nil, resolveError("reject order", err)
	}
	rejected := *order
	rejected.PaymentStatus = domain.PaymentRejected
	rejected.Note = note
	return &rejected, nil
}

// resolveError passes the store's rule through, so a concurrently resolved
// order is not reported as a stock problem.
func resolveError(op string, err error) error {
	var rule *domain.RuleError
	if errors.As(err, &rule) {
		return err
	}
	return fmt.Errorf("%s: %w", op, err)
}

func (s *paymentService) pendingOrder(ctx context.Context, eventID, orderID, organizerID string) (*domain.Event, *domain.Entry, error) {
	event, err := s.eventRepo.GetByID(ctx, eventID)
	if err != nil {
		return nil, nil, fmt.Errorf("get event: %w", err)
	}
	if event.OrganizerID != organizerID {
		return nil, nil, domain.ErrForbidden
	}
	if !event.IsMerchandise() {
		return nil, nil, domain.Invalid("event", "orders exist only for merchandise events")
	}
	order, ok := event.FindEntry(orderID)
	if !ok {
		return nil, nil, fmt.Errorf("get order: %w", domain.ErrNotFound)
	}
	switch order.PaymentStatus {
	case domain.PaymentApproved:
		return nil, nil, domain.Conflict("order already approved")
	case domain.PaymentRejected:
		return nil, nil, domain.Conflict("order already rejected")
	}
	return event, order, nil
}
