package domain

import (
	"context"
	"time"
	"unicode/utf8"
)

// Message is a forum post. ParentID is empty for top-level posts.
// swagger:model Message
type Message struct {
	ID             string              `json:"id" bson:"_id"`
	EventID        string              `json:"event_id" bson:"event_id"`
	AuthorID       string              `json:"author_id" bson:"author_id"`
	AuthorName     string              `json:"author_name" bson:"author_name"`
	AuthorRole     Role                `json:"author_role" bson:"author_role"`
	Text           string              `json:"text" bson:"text"`
	ParentID       string              `json:"parent_id,omitempty" bson:"parent_id,omitempty"`
	IsAnnouncement bool                `json:"is_announcement" bson:"is_announcement"`
	IsPinned       bool                `json:"is_pinned" bson:"is_pinned"`
	IsDeleted      bool                `json:"is_deleted" bson:"is_deleted"`
	Reactions      map[string][]string `json:"reactions" bson:"reactions"`
	CreatedAt      time.Time           `json:"created_at" bson:"created_at"`
	UpdatedAt      time.Time           `json:"updated_at" bson:"updated_at"`
}

// Thread is a top-level message with its replies in posting order.
type Thread struct {
	*Message
	Replies []*Message `json:"replies"`
}

// Notification kinds.
const (
	NotificationAnnouncement = "announcement"
	NotificationReply        = "reply"
	NotificationReaction     = "reaction"
)

// Notification is a persisted record of forum activity a user missed live.
// swagger:model Notification
type Notification struct {
	ID         string    `json:"id" bson:"_id"`
	UserID     string    `json:"user_id" bson:"user_id"`
	Kind       string    `json:"kind" bson:"kind"`
	EventID    string    `json:"event_id" bson:"event_id"`
	EventName  string    `json:"event_name" bson:"event_name"`
	MessageID  string    `json:"message_id" bson:"message_id"`
	SenderName string    `json:"sender_name" bson:"sender_name"`
	Text       string    `json:"text" bson:"text"`
	Read       bool      `json:"read" bson:"read"`
	CreatedAt  time.Time `json:"created_at" bson:"created_at"`
}

// ForumPolicy holds the product rules of the forum.
type ForumPolicy struct {
	// AnnounceOrganizerTopLevel marks top-level posts by the event's organizer as announcements.
	AnnounceOrganizerTopLevel bool `yaml:"announce_organizer_top_level"`
	// MaxThreadDepth is the number of reply levels kept; deeper replies are
	// attached to the ancestor at this depth.
	MaxThreadDepth        int `yaml:"max_thread_depth"`
	MaxTextLength         int `yaml:"max_text_length"`
	SnippetLength         int `yaml:"snippet_length"`
	ReactionSnippetLength int `yaml:"reaction_snippet_length"`
	NotificationPageSize  int `yaml:"notification_page_size"`
}

// DefaultForumPolicy returns the stock forum rules.
func DefaultForumPolicy() ForumPolicy {
	return ForumPolicy{
		AnnounceOrganizerTopLevel: true,
		MaxThreadDepth:            1,
		MaxTextLength:             2000,
		SnippetLength:             200,
		ReactionSnippetLength:     80,
		NotificationPageSize:      100,
	}
}

// Truncate cuts s to at most n runes.
func Truncate(s string, n int) string {
	if n <= 0 || utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	return string(r[:n])
}

// Frame types exchanged over the real-time channel.
const (
	FrameJoinForum        = "join_forum"
	FrameLeaveForum       = "leave_forum"
	FrameSendMessage      = "send_message"
	FrameReact            = "react"
	FramePinMessage       = "pin_message"
	FrameDeleteMessage    = "delete_message"
	FrameJoined           = "joined"
	FrameLeft             = "left"
	FrameNewMessage       = "new_message"
	FrameReactionUpdate   = "reaction_update"
	FrameMessagePinned    = "message_pinned"
	FrameMessageDeleted   = "message_deleted"
	FrameLiveNotification = "live_notification"
	FrameError            = "error"
)

// RealtimeHub tracks live connections and pushes frames to them.
type RealtimeHub interface {
	// InRoom reports whether userID has a connection joined to the event's room.
	InRoom(eventID, userID string) bool
	// Online reports whether userID has any live connection.
	Online(userID string) bool
	Broadcast(eventID, frameType string, data any)
	PushToUser(userID, frameType string, data any)
}

// MessageStore persists forum messages.
type MessageStore interface {
	Create(ctx context.Context, m *Message) error
	GetByID(ctx context.Context, id string) (*Message, error)
	ListByEvent(ctx context.Context, eventID string) ([]*Message, error)
	ListReplies(ctx context.Context, parentID string) ([]*Message, error)
	// ToggleReaction adds or removes userID under emoji and reports whether it was added.
	ToggleReaction(ctx context.Context, id, emoji, userID string) (*Message, bool, error)
	SetPinned(ctx context.Context, id string, pinned bool) (*Message, error)
	SoftDelete(ctx context.Context, id string) (*Message, error)
}

// NotificationStore persists notifications.
type NotificationStore interface {
	CreateMany(ctx context.Context, ns []*Notification) error
	ListByUser(ctx context.Context, userID string, limit int) ([]*Notification, error)
	MarkRead(ctx context.Context, userID, eventID string) (int64, error)
	CountUnread(ctx context.Context, userID string) (int64, error)
}

// PostInput is a new forum message.
type PostInput struct {
	EventID  string
	UserID   string
	Text     string
	ParentID string
}

// ForumService implements forum membership, posting and moderation.
type ForumService interface {
	CheckMember(ctx context.Context, eventID, userID string) error
	Post(ctx context.Context, in PostInput) (*Message, error)
	React(ctx context.Context, messageID, emoji, userID string) (*Message, error)
	TogglePin(ctx context.Context, messageID, userID string) (*Message, error)
	Delete(ctx context.Context, messageID, userID string) (*Message, error)
	ListThreads(ctx context.Context, eventID, userID string) ([]*Thread, error)
}

// NotificationService exposes a user's notification feed.
type NotificationService interface {
	List(ctx context.Context, userID string) ([]*Notification, error)
	MarkRead(ctx context.Context, userID, eventID string) (int64, error)
	UnreadCount(ctx context.Context, userID string) (int64, error)
}
