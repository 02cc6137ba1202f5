package services

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"
	"unicode/utf8"

	"campusevents/internal/domain"

	"github.com/google/uuid"
	"github.com/microcosm-cc/bluemonday"
)

const maxEmojiLength = 16

type forumService struct {
	eventRepo      domain.EventRepository
	userRepo       domain.UserRepository
	messages       domain.MessageStore
	notifications  domain.NotificationStore
	hub            domain.RealtimeHub
	policy         domain.ForumPolicy
	sanitizer      *bluemonday.Policy
	logger         *slog.Logger
	contextTimeout time.Duration
	now            func() time.Time
}

// NewForumService returns a ForumService that persists to the given stores and
// fans out through hub.
func NewForumService(eventRepo domain.EventRepository,
	userRepo domain.UserRepository,
	messages domain.MessageStore,
	notifications domain.NotificationStore,
	hub domain.RealtimeHub,
	policy domain.ForumPolicy,
	logger *slog.Logger,
	timeout time.Duration,
) domain.ForumService {
	if policy.MaxThreadDepth < 1 {
		policy.MaxThreadDepth = 1
	}
	return &forumService{
		eventRepo:      eventRepo,
		userRepo:       userRepo,
		messages:       messages,
		notifications:  notifications,
		hub:            hub,
		policy:         policy,
		sanitizer:      bluemonday.StrictPolicy(),
		logger:         logger,
		contextTimeout: timeout,
		now:            time.Now,
	}
}

func (s *forumService) CheckMember(ctx context.Context, eventID, userID string) error {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	_, err := s.memberEvent(ctx, eventID, userID)
	return err
}

func (s *forumService) memberEvent(ctx context.Context, eventID, userID string) (*domain.Event, error) {
	event, err := s.eventRepo.GetByID(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("get event: %w", err)
	}
	if !event.IsMember(userID) {
		return nil, domain.Forbidden("you must be registered for this event to use its forum")
	}
	return event, nil
}

func (s *forumService) Post(ctx context.Context, in domain.PostInput) (*domain.Message, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	text := strings.TrimSpace(s.sanitizer.Sanitize(in.Text))
	if text == "" {
		return nil, domain.Invalid("text", "message cannot be empty")
	}
	text = domain.Truncate(text, s.policy.MaxTextLength)

	event, err := s.memberEvent(ctx, in.EventID, in.UserID)
	if err != nil {
		return nil, err
	}
	author, err := s.userRepo.GetByID(ctx, in.UserID)
	if err != nil {
		return nil, fmt.Errorf("get author: %w", err)
	}

	var parent, replyTo *domain.Message
	if in.ParentID != "" {
		replyTo, err = s.messages.GetByID(ctx, in.ParentID)
		if err != nil {
			return nil, fmt.Errorf("get parent message: %w", err)
		}
		if replyTo.EventID != event.ID {
			return nil, domain.Invalid("parent_message_id", "parent message belongs to another event")
		}
		if replyTo.IsDeleted {
			return nil, domain.Conflict("cannot reply to a deleted message")
		}
		parent, err = s.threadParent(ctx, replyTo)
		if err != nil {
			return nil, err
		}
	}

	now := s.now().UTC()
	msg := &domain.Message{
		ID:         uuid.NewString(),
		EventID:    event.ID,
		AuthorID:   author.ID,
		AuthorName: author.DisplayName(),
		AuthorRole: author.Role,
		Text:       text,
		Reactions:  map[string][]string{},
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if parent != nil {
		msg.ParentID = parent.ID
	}
	isOrganizer := author.ID == event.OrganizerID
	msg.IsAnnouncement = s.policy.AnnounceOrganizerTopLevel && isOrganizer && parent == nil

	if err := s.messages.Create(ctx, msg); err != nil {
		return nil, fmt.Errorf("create message: %w", err)
	}
	s.hub.Broadcast(event.ID, domain.FrameNewMessage, msg)

	switch {
	case msg.IsAnnouncement:
		s.notify(ctx, event, msg, domain.NotificationAnnouncement, msg.Text, announcementRecipients(event, author.ID))
	case parent != nil:
		recipients, err := s.replyRecipients(ctx, parent, replyTo, msg)
		if err != nil {
			s.logger.ErrorContext(ctx, "resolve reply recipients", "message_id", msg.ID, "err", err)
			break
		}
		s.notify(ctx, event, msg, domain.NotificationReply, msg.Text, recipients)
	}
	return msg, nil
}

// threadParent returns the message a reply to m is attached to. Replies that
// would nest deeper than MaxThreadDepth attach to the deepest allowed ancestor.
func (s *forumService) threadParent(ctx context.Context, m *domain.Message) (*domain.Message, error) {
	chain := []*domain.Message{m}
	for cur := m; cur.ParentID != ""; {
		p, err := s.messages.GetByID(ctx, cur.ParentID)
		if err != nil {
			return nil, fmt.Errorf("get ancestor message: %w", err)
		}
		chain = append(chain, p)
		cur = p
	}
	depth := len(chain) - 1
	if depth < s.policy.MaxThreadDepth {
		return m, nil
	}
	// chain runs from m up to the root; the ancestor at depth d is chain[depth-d].
	return chain[depth-(s.policy.MaxThreadDepth-1)], nil
}

func announcementRecipients(event *domain.Event, senderID string) []string {
	seen := map[string]struct{}{senderID: {}}
	var out []string
	for _, en := range event.Entries {
		if en.PaymentStatus == domain.PaymentRejected {
			continue
		}
		if _, ok := seen[en.UserID]; ok {
			continue
		}
		seen[en.UserID] = struct{}{}
		out = append(out, en.UserID)
	}
	return out
}

// replyRecipients is the parent's author, the author of the message replied to
// and everyone who already replied in the thread, minus the sender.
func (s *forumService) replyRecipients(ctx context.Context, parent, replyTo, msg *domain.Message) ([]string, error) {
	replies, err := s.messages.ListReplies(ctx, parent.ID)
	if err != nil {
		return nil, err
	}
	seen := map[string]struct{}{msg.AuthorID: {}}
	var out []string
	add := func(id string) {
		if _, ok := seen[id]; ok {
			return
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	add(parent.AuthorID)
	add(replyTo.AuthorID)
	for _, r := range replies {
		if r.ID != msg.ID {
			add(r.AuthorID)
		}
	}
	return out, nil
}

// notify persists a notification for every recipient not watching the
// event's room and pushes it live to those connected elsewhere.
func (s *forumService) notify(ctx context.Context, event *domain.Event, msg *domain.Message, kind, text string, recipients []string) {
	now := s.now().UTC()
	var batch []*domain.Notification
	for _, uid := range recipients {
		if s.hub.InRoom(event.ID, uid) {
			continue
		}
		batch = append(batch, &domain.Notification{
			ID:         uuid.NewString(),
			UserID:     uid,
			Kind:       kind,
			EventID:    event.ID,
			EventName:  event.Name,
			MessageID:  msg.ID,
			SenderName: msg.AuthorName,
			Text:       domain.Truncate(text, s.policy.SnippetLength),
			CreatedAt:  now,
		})
	}
	if len(batch) == 0 {
		return
	}
	if err := s.notifications.CreateMany(ctx, batch); err != nil {
		s.logger.ErrorContext(ctx, "store notifications", "event_id", event.ID, "count", len(batch), "err", err)
		return
	}
	for _, n := range batch {
		if s.hub.Online(n.UserID) {
			s.hub.PushToUser(n.UserID, domain.FrameLiveNotification, n)
		}
	}
}

func (s *forumService) React(ctx context.Context, messageID, emoji, userID string) (*domain.Message, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	emoji = strings.TrimSpace(emoji)
	if emoji == "" {
		return nil, domain.Invalid("emoji", "emoji is required")
	}
	if utf8.RuneCountInString(emoji) > maxEmojiLength {
		return nil, domain.Invalid("emoji", "emoji is too long")
	}
	msg, err := s.messages.GetByID(ctx, messageID)
	if err != nil {
		return nil, fmt.Errorf("get message: %w", err)
	}
	if msg.IsDeleted {
		return nil, domain.Conflict("message has been deleted")
	}
	event, err := s.memberEvent(ctx, msg.EventID, userID)
	if err != nil {
		return nil, err
	}

	updated, added, err := s.messages.ToggleReaction(ctx, msg.ID, emoji, userID)
	if err != nil {
		return nil, fmt.Errorf("toggle reaction: %w", err)
	}
	s.hub.Broadcast(event.ID, domain.FrameReactionUpdate, map[string]any{
		"messageId": updated.ID,
		"reactions": updated.Reactions,
	})

	if added && msg.AuthorID != userID {
		reactor, err := s.userRepo.GetByID(ctx, userID)
		if err != nil {
			s.logger.ErrorContext(ctx, "get reactor", "user_id", userID, "err", err)
			return updated, nil
		}
		note := *updated
		note.AuthorName = reactor.DisplayName()
		text := fmt.Sprintf("reacted %s to: %s", emoji, domain.Truncate(msg.Text, s.policy.ReactionSnippetLength))
		s.notify(ctx, event, &note, domain.NotificationReaction, text, []string{msg.AuthorID})
	}
	return updated, nil
}

func (s *forumService) TogglePin(ctx context.Context, messageID, userID string) (*domain.Message, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	msg, event, err := s.moderated(ctx, messageID, userID, "only the organizer can pin messages")
	if err != nil {
		return nil, err
	}
	updated, err := s.messages.SetPinned(ctx, msg.ID, !msg.IsPinned)
	if err != nil {
		return nil, fmt.Errorf("pin message: %w", err)
	}
	s.hub.Broadcast(event.ID, domain.FrameMessagePinned, map[string]any{
		"messageId": updated.ID,
		"isPinned":  updated.IsPinned,
	})
	return updated, nil
}

func (s *forumService) Delete(ctx context.Context, messageID, userID string) (*domain.Message, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	msg, event, err := s.moderated(ctx, messageID, userID, "only the organizer can delete messages")
	if err != nil {
		return nil, err
	}
	updated, err := s.messages.SoftDelete(ctx, msg.ID)
	if err != nil {
		return nil, fmt.Errorf("delete message: %w", err)
	}
	s.hub.Broadcast(event.ID, domain.FrameMessageDeleted, map[string]any{"messageId": updated.ID})
	return updated, nil
}

// moderated loads a live message on an event organised by userID.
func (s *forumService) moderated(ctx context.Context, messageID, userID, denied string) (*domain.Message, *domain.Event, error) {
	msg, err := s.messages.GetByID(ctx, messageID)
	if err != nil {
		return nil, nil, fmt.Errorf("get message: %w", err)
	}
	event, err := s.eventRepo.GetByID(ctx, msg.EventID)
	if err != nil {
		return nil, nil, fmt.Errorf("get event: %w", err)
	}
	if event.OrganizerID != userID {
		return nil, nil, domain.Forbidden(denied)
	}
	if msg.IsDeleted {
		return nil, nil, domain.Conflict("message has been deleted")
	}
	return msg, event, nil
}

// ListThreads returns live top-level messages, pinned first and then oldest
// first, each with its live replies in posting order.
func (s *forumService) ListThreads(ctx context.Context, eventID, userID string) ([]*domain.Thread, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if _, err := s.memberEvent(ctx, eventID, userID); err != nil {
		return nil, err
	}
	all, err := s.messages.ListByEvent(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}

	byID := make(map[string]*domain.Message, len(all))
	for _, m := range all {
		byID[m.ID] = m
	}
	rootOf := func(m *domain.Message) string {
		for m.ParentID != "" {
			p, ok := byID[m.ParentID]
			if !ok {
				return m.ParentID
			}
			m = p
		}
		return m.ID
	}

	var tops []*domain.Message
	replies := make(map[string][]*domain.Message)
	for _, m := range all {
		if m.IsDeleted {
			continue
		}
		if m.ParentID == "" {
			tops = append(tops, m)
		} else {
			root := rootOf(m)
			replies[root] = append(replies[root], m)
		}
	}
	slices.SortStableFunc(tops, func(a, b *domain.Message) int {
		if a.IsPinned != b.IsPinned {
			if a.IsPinned {
				return -1
			}
			return 1
		}
		return a.CreatedAt.Compare(b.CreatedAt)
	})

	threads := make([]*domain.Thread, 0, len(tops))
	for _, m := range tops {
		rs := replies[m.ID]
		slices.SortStableFunc(rs, func(a, b *domain.Message) int { return a.CreatedAt.Compare(b.CreatedAt) })
		if rs == nil {
			rs = []*domain.Message{}
		}
		threads = append(threads, &domain.Thread{Message: m, Replies: rs})
	}
	return threads, nil
}
