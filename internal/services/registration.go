package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"campusevents/internal/domain"

	"github.com/google/uuid"
)

type registrationService struct {
	eventRepo      domain.EventRepository
	userRepo       domain.UserRepository
	tickets        domain.TicketService
	dispatcher     *Dispatcher
	locker         *EventLocker
	contextTimeout time.Duration
	now            func() time.Time
}

// NewRegistrationService returns a RegistrationService. Entry mutations on one
// event are serialised through locker.
func NewRegistrationService(eventRepo domain.EventRepository,
	userRepo domain.UserRepository,
	tickets domain.TicketService,
	dispatcher *Dispatcher,
	locker *EventLocker,
	timeout time.Duration,
) domain.RegistrationService {
	return &registrationService{
		eventRepo:      eventRepo,
		userRepo:       userRepo,
		tickets:        tickets,
		dispatcher:     dispatcher,
		locker:         locker,
		contextTimeout: timeout,
		now:            time.Now,
	}
}

func (s *registrationService) Register(ctx context.Context, eventID, userID string, req domain.RegistrationRequest) (*domain.Entry, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	if user.Role != domain.RoleParticipant {
		return nil, domain.Forbidden("only participants can register for events")
	}

	unlock := s.locker.Lock(eventID)
	defer unlock()

	event, err := s.eventRepo.GetByID(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("get event: %w", err)
	}
	now := s.now().UTC()
	if err := domain.CheckRegistrationOpen(event, domain.CurrentStatus(event, now), user, now); err != nil {
		return nil, err
	}
	responses, err := domain.ValidateResponses(event, req.Responses)
	if err != nil {
		return nil, err
	}

	entry := &domain.Entry{
		ID:            uuid.NewString(),
		EventID:       event.ID,
		UserID:        user.ID,
		Responses:     responses,
		RegisteredAt:  now,
		PaymentStatus: domain.PaymentApproved,
	}
	if event.IsMerchandise() {
		proof := strings.TrimSpace(req.PaymentProofURL)
		if proof == "" {
			return nil, domain.Invalid("payment_proof_url", "payment proof is required")
		}
		entry.PaymentStatus = domain.PaymentPending
		entry.PaymentProofURL = proof
	}

	if err := s.eventRepo.AppendEntry(ctx, entry, domain.LimitsFor(event)); err != nil {
		var rule *domain.RuleError
		if errors.As(err, &rule) {
			return nil, err
		}
		return nil, fmt.Errorf("append entry: %w", err)
	}

	if entry.PaymentStatus == domain.PaymentApproved {
		confirmTicket(ctx, s.dispatcher, s.tickets, event, entry)
	}
	return entry, nil
}

// confirmTicket sends the ticket email for an Approved entry in the background.
func confirmTicket(ctx context.Context, d *Dispatcher, tickets domain.TicketService, event *domain.Event, entry *domain.Entry) {
	ev, en := *event, *entry
	ev.Entries = nil
	d.Go(ctx, "ticket.confirm", func(ctx context.Context) error {
		return tickets.Confirm(ctx, &ev, &en)
	})
}

func (s *registrationService) ListMine(ctx context.Context, userID string) ([]*domain.MyRegistration, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	events, err := s.eventRepo.ListByParticipant(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list participant events: %w", err)
	}
	now := s.now()
	out := make([]*domain.MyRegistration, 0, len(events))
	for _, e := range events {
		var own []*domain.Entry
		for _, en := range e.Entries {
			if en.UserID == userID {
				own = append(own, en)
			}
		}
		best := domain.BestEntry(own)
		if best == nil {
			continue
		}
		e.Status = domain.CurrentStatus(e, now)
		out = append(out, &domain.MyRegistration{Event: e, Entry: best, OrderCount: len(own)})
	}
	return out, nil
}

func (s *registrationService) ListParticipants(ctx context.Context, eventID, organizerID string) (*domain.ParticipantReport, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	event, err := s.ownedEvent(ctx, eventID, organizerID)
	if err != nil {
		return nil, err
	}
	rows, err := s.rows(ctx, event.Entries)
	if err != nil {
		return nil, err
	}
	report := &domain.ParticipantReport{
		EventID:      event.ID,
		EventName:    event.Name,
		EventType:    event.Type,
		Participants: rows,
		Total:        len(rows),
	}
	for _, en := range event.Entries {
		switch en.PaymentStatus {
		case domain.PaymentApproved:
			report.ApprovedCount++
		case domain.PaymentPending:
			report.PendingCount++
		}
	}
	if event.IsMerchandise() {
		report.Revenue = float64(report.ApprovedCount) * event.Price
	} else {
		report.Revenue = float64(report.Total) * event.Price
	}
	return report, nil
}

func (s *registrationService) ListOrders(ctx context.Context, eventID, organizerID string) (*domain.OrderReport, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	event, err := s.ownedEvent(ctx, eventID, organizerID)
	if err != nil {
		return nil, err
	}
	if !event.IsMerchandise() {
		return nil, domain.Invalid("event", "orders exist only for merchandise events")
	}
	rows, err := s.rows(ctx, event.Entries)
	if err != nil {
		return nil, err
	}
	return &domain.OrderReport{
		EventID:   event.ID,
		EventName: event.Name,
		Stock:     event.Stock,
		Orders:    rows,
	}, nil
}

func (s *registrationService) ownedEvent(ctx context.Context, eventID, organizerID string) (*domain.Event, error) {
	event, err := s.eventRepo.GetByID(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("get event: %w", err)
	}
	if event.OrganizerID != organizerID {
		return nil, domain.ErrForbidden
	}
	return event, nil
}

func (s *registrationService) rows(ctx context.Context, entries []*domain.Entry) ([]domain.ParticipantRow, error) {
	ids := make([]string, 0, len(entries))
	for _, en := range entries {
		ids = append(ids, en.UserID)
	}
	users, err := s.userRepo.GetByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("get participants: %w", err)
	}
	rows := make([]domain.ParticipantRow, 0, len(entries))
	for i, en := range entries {
		row := domain.ParticipantRow{
			SrNo:             i + 1,
			EntryID:          en.ID,
			UserID:           en.UserID,
			RegisteredAt:     en.RegisteredAt,
			PaymentStatus:    en.PaymentStatus,
			PaymentProofURL:  en.PaymentProofURL,
			Note:             en.Note,
			AttendanceMarked: en.AttendanceMarked,
			AttendanceAt:     en.AttendanceAt,
			Responses:        en.Responses,
		}
		if u, ok := users[en.UserID]; ok {
			row.Name = u.DisplayName()
			row.Email = u.Email
			row.ParticipantType = u.ParticipantType
			row.College = u.College
			row.Contact = u.ContactNumber
		}
		rows = append(rows, row)
	}
	return rows, nil
}
