package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"campusevents/internal/domain"
)

const (
	maxUpdateAttempts = 3
	trendingWindow    = 24 * time.Hour
	trendingLimit     = 5
)

var publicStatuses = []domain.EventStatus{
	domain.StatusPublished,
	domain.StatusOngoing,
	domain.StatusCompleted,
}

type eventService struct {
	eventRepo      domain.EventRepository
	userRepo       domain.UserRepository
	webhook        domain.WebhookNotifier
	dispatcher     *Dispatcher
	locker         *EventLocker
	contextTimeout time.Duration
	now            func() time.Time
}

func NewEventService(eventRepo domain.EventRepository,
	userRepo domain.UserRepository,
	webhook domain.WebhookNotifier,
	dispatcher *Dispatcher,
	locker *EventLocker,
	timeout time.Duration,
) domain.EventService {
	return &eventService{
		eventRepo:      eventRepo,
		userRepo:       userRepo,
		webhook:        webhook,
		dispatcher:     dispatcher,
		locker:         locker,
		contextTimeout: timeout,
		now:            time.Now,
	}
}

func (s *eventService) Create(ctx context.Context, organizerID string, in domain.EventInput) (*domain.Event, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if organizerID == "" {
		return nil, fmt.Errorf("event owner is required")
	}
	now := s.now().UTC()
	event := domain.NewEvent(organizerID, strings.TrimSpace(in.Name), now)
	event.Description = strings.TrimSpace(in.Description)
	if in.Type != "" {
		event.Type = in.Type
	}
	if in.Eligibility != "" {
		event.Eligibility = in.Eligibility
	}
	event.StartDate = in.StartDate
	event.EndDate = in.EndDate
	event.RegistrationDeadline = in.RegistrationDeadline
	event.RegistrationLimit = in.RegistrationLimit
	event.Price = in.Price
	event.Location = strings.TrimSpace(in.Location)
	if in.Tags != nil {
		event.Tags = in.Tags
	}
	if in.FormFields != nil {
		event.FormFields = in.FormFields
	}
	event.Stock = in.Stock
	if in.PurchaseLimit > 0 {
		event.PurchaseLimit = in.PurchaseLimit
	}
	event.Variants = in.Variants
	event.UPIID = strings.TrimSpace(in.UPIID)

	switch in.Status {
	case "", domain.StatusDraft:
	case domain.StatusPublished:
		event.Status = domain.StatusPublished
	default:
		return nil, domain.Invalid("status", "events can only be created as Draft or Published")
	}

	if err := domain.ValidateEventFields(event); err != nil {
		return nil, err
	}
	if event.Status == domain.StatusPublished {
		if err := domain.ValidateForPublish(event); err != nil {
			return nil, err
		}
	}

	if err := s.eventRepo.Create(ctx, event); err != nil {
		return nil, fmt.Errorf("create event: %w", err)
	}
	if event.Status == domain.StatusPublished {
		s.announce(ctx, event)
	}
	return event, nil
}

func (s *eventService) Get(ctx context.Context, id string) (*domain.Event, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	event, err := s.eventRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get event: %w", err)
	}
	event.Status = domain.CurrentStatus(event, s.now())
	event.RegistrationCount = len(event.Entries)
	return event, nil
}

func (s *eventService) ListPublic(ctx context.Context, organizerID string, params domain.PaginationParams) ([]*domain.Event, int, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	filter := domain.EventFilter{OrganizerID: organizerID, Statuses: publicStatuses}
	events, total, err := s.eventRepo.List(ctx, filter, params)
	if err != nil {
		return nil, 0, fmt.Errorf("list events: %w", err)
	}
	s.deriveStatuses(events)
	return events, total, nil
}

func (s *eventService) ListMine(ctx context.Context, organizerID string, params domain.PaginationParams) ([]*domain.Event, int, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	events, total, err := s.eventRepo.List(ctx, domain.EventFilter{OrganizerID: organizerID}, params)
	if err != nil {
		return nil, 0, fmt.Errorf("list organizer events: %w", err)
	}
	s.deriveStatuses(events)
	return events, total, nil
}

func (s *eventService) Trending(ctx context.Context) ([]*domain.Event, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	events, err := s.eventRepo.ListTrending(ctx, s.now().Add(-trendingWindow), trendingLimit)
	if err != nil {
		return nil, fmt.Errorf("list trending events: %w", err)
	}
	out := events[:0]
	for _, e := range events {
		if e.RecentRegistrations > 0 {
			out = append(out, e)
		}
	}
	s.deriveStatuses(out)
	return out, nil
}

// Update applies patch and action as one change set. A concurrent write
// detected by the version check causes a re-read and a fresh plan.
func (s *eventService) Update(ctx context.Context, eventID, organizerID string, patch domain.EventPatch, action domain.EventAction) (*domain.Event, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	unlock := s.locker.Lock(eventID)
	defer unlock()

	for attempt := 0; attempt < maxUpdateAttempts; attempt++ {
		event, err := s.eventRepo.GetByID(ctx, eventID)
		if err != nil {
			return nil, fmt.Errorf("get event: %w", err)
		}
		if event.OrganizerID != organizerID {
			return nil, domain.ErrForbidden
		}
		now := s.now().UTC()
		next, err := domain.PlanEdit(event, domain.CurrentStatus(event, now), patch, action, now)
		if err != nil {
			return nil, err
		}
		if err := s.eventRepo.Update(ctx, next); err != nil {
			if errors.Is(err, domain.ErrConflict) {
				continue
			}
			return nil, fmt.Errorf("update event: %w", err)
		}
		if action == domain.ActionPublish {
			s.announce(ctx, next)
		}
		next.RegistrationCount = len(next.Entries)
		return next, nil
	}
	return nil, domain.Conflict("event was modified concurrently, please retry")
}

func (s *eventService) SyncStatuses(ctx context.Context) (int64, int64, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	started, completed, err := s.eventRepo.AdvanceStatuses(ctx, s.now().UTC())
	if err != nil {
		return 0, 0, fmt.Errorf("advance event statuses: %w", err)
	}
	return started, completed, nil
}

func (s *eventService) deriveStatuses(events []*domain.Event) {
	now := s.now()
	for _, e := range events {
		e.Status = domain.CurrentStatus(e, now)
	}
}

// announce posts the "event published" webhook of the event's organizer, if any.
func (s *eventService) announce(ctx context.Context, event *domain.Event) {
	snapshot := *event
	s.dispatcher.Go(ctx, "webhook.event_published", func(ctx context.Context) error {
		organizer, err := s.userRepo.GetByID(ctx, snapshot.OrganizerID)
		if err != nil {
			return fmt.Errorf("get organizer: %w", err)
		}
		if organizer.DiscordWebhook == "" {
			return nil
		}
		return s.webhook.EventPublished(ctx, organizer.DiscordWebhook, &snapshot)
	})
}
