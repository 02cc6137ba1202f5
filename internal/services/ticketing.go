package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"campusevents/internal/domain"
)

const ticketTimeLayout = "Mon, 02 Jan 2006 15:04 MST"

type ticketService struct {
	eventRepo      domain.EventRepository
	userRepo       domain.UserRepository
	qr             domain.QREncoder
	emailService   domain.EmailService
	contextTimeout time.Duration
	now            func() time.Time
}

// NewTicketService returns a TicketService issuing QR tickets and handling check-in.
func NewTicketService(eventRepo domain.EventRepository, userRepo domain.UserRepository, qr domain.QREncoder, emailService domain.EmailService, timeout time.Duration) domain.TicketService {
	return &ticketService{
		eventRepo:      eventRepo,
		userRepo:       userRepo,
		qr:             qr,
		emailService:   emailService,
		contextTimeout: timeout,
		now:            time.Now,
	}
}

func (s *ticketService) Issue(event *domain.Event, entry *domain.Entry) (*domain.Ticket, error) {
	payload := domain.NewTicketPayload(event, entry)
	content, err := payload.Encode()
	if err != nil {
		return nil, err
	}
	png, err := s.qr.EncodePNG(content)
	if err != nil {
		return nil, fmt.Errorf("render ticket qr: %w", err)
	}
	return &domain.Ticket{Payload: payload, PNG: png}, nil
}

func (s *ticketService) Confirm(ctx context.Context, event *domain.Event, entry *domain.Entry) error {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	ticket, err := s.Issue(event, entry)
	if err != nil {
		return err
	}
	participant, err := s.userRepo.GetByID(ctx, entry.UserID)
	if err != nil {
		return fmt.Errorf("get participant: %w", err)
	}
	organizerName := ""
	organizer, err := s.userRepo.GetByID(ctx, event.OrganizerID)
	switch {
	case err == nil:
		organizerName = organizer.DisplayName()
	case !errors.Is(err, domain.ErrNotFound):
		return fmt.Errorf("get organizer: %w", err)
	}

	data := &domain.TicketEmailData{
		Email:           participant.Email,
		ParticipantName: participant.DisplayName(),
		EventName:       event.Name,
		IsMerchandise:   event.IsMerchandise(),
		Location:        event.Location,
		OrganizerName:   organizerName,
		TicketID:        entry.ID,
		RegisteredAt:    entry.RegisteredAt.UTC().Format(ticketTimeLayout),
		QRCode:          ticket.PNG,
	}
	if event.StartDate != nil {
		data.Date = event.StartDate.UTC().Format(ticketTimeLayout)
	}
	if event.IsMerchandise() {
		data.Variants = entry.Responses[:min(len(event.Variants), len(entry.Responses))]
	}
	if event.Price > 0 {
		data.Price = "₹" + strconv.FormatFloat(event.Price, 'f', -1, 64)
	}
	return s.emailService.SendTicketConfirmation(ctx, data)
}

func (s *ticketService) Resolve(ctx context.Context, eventID string, payload domain.TicketPayload) (*domain.Entry, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	event, err := s.eventRepo.GetByID(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("get event: %w", err)
	}
	return resolveTicket(event, payload)
}

// resolveTicket finds the entry a payload refers to on event.
func resolveTicket(event *domain.Event, payload domain.TicketPayload) (*domain.Entry, error) {
	entry, ok := event.FindEntry(payload.TicketID)
	if !ok {
		return nil, &domain.RuleError{Field: "ticket", Reason: "ticket not found for this event", Err: domain.ErrNotFound}
	}
	if payload.EventName != event.Name {
		return nil, domain.Invalid("ticket", "ticket was issued for a different event")
	}
	return entry, nil
}

func (s *ticketService) MarkAttendance(ctx context.Context, eventID, entryID, organizerID string) (*domain.Entry, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	event, err := s.ownedEvent(ctx, eventID, organizerID)
	if err != nil {
		return nil, err
	}
	entry, ok := event.FindEntry(entryID)
	if !ok {
		return nil, fmt.Errorf("get entry: %w", domain.ErrNotFound)
	}
	return s.mark(ctx, event, entry)
}

func (s *ticketService) mark(ctx context.Context, event *domain.Event, entry *domain.Entry) (*domain.Entry, error) {
	if entry.PaymentStatus != domain.PaymentApproved {
		return nil, domain.Conflict("only approved entries can be checked in")
	}
	if entry.AttendanceMarked {
		return entry, nil
	}
	at := s.now().UTC()
	stored, err := s.eventRepo.SetAttendance(ctx, event.ID, entry.ID, true, &at)
	if err != nil {
		return nil, fmt.Errorf("mark attendance: %w", err)
	}
	marked := *entry
	marked.AttendanceMarked = true
	marked.AttendanceAt = stored
	return &marked, nil
}

func (s *ticketService) UnmarkAttendance(ctx context.Context, eventID, entryID, organizerID string) (*domain.Entry, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	event, err := s.ownedEvent(ctx, eventID, organizerID)
	if err != nil {
		return nil, err
	}
	entry, ok := event.FindEntry(entryID)
	if !ok {
		return nil, fmt.Errorf("get entry: %w", domain.ErrNotFound)
	}
	if !entry.AttendanceMarked {
		return entry, nil
	}
	if _, err := s.eventRepo.SetAttendance(ctx, event.ID, entry.ID, false, nil); err != nil {
		return nil, fmt.Errorf("unmark attendance: %w", err)
	}
	unmarked := *entry
	unmarked.AttendanceMarked = false
	unmarked.AttendanceAt = nil
	return &unmarked, nil
}

func (s *ticketService) CheckIn(ctx context.Context, eventID, organizerID, rawPayload string) (*domain.Entry, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	payload, err := domain.ParseTicketPayload(rawPayload)
	if err != nil {
		return nil, err
	}
	event, err := s.ownedEvent(ctx, eventID, organizerID)
	if err != nil {
		return nil, err
	}
	entry, err := resolveTicket(event, payload)
	if err != nil {
		return nil, err
	}
	return s.mark(ctx, event, entry)
}

func (s *ticketService) ownedEvent(ctx context.Context, eventID, organizerID string) (*domain.Event, error) {
	event, err := s.eventRepo.GetByID(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("get event: %w", err)
	}
	if event.OrganizerID != organizerID {
		return nil, domain.ErrForbidden
	}
	return event, nil
}
