package domain

import (
	"context"
	"time"
)

// EventType is either a standard registration event or a merchandise sale.
type EventType string

const (
	EventTypeNormal      EventType = "normal"
	EventTypeMerchandise EventType = "merchandise"
)

// EventStatus is the stored lifecycle state of an event.
type EventStatus string

const (
	StatusDraft     EventStatus = "Draft"
	StatusPublished EventStatus = "Published"
	StatusOngoing   EventStatus = "Ongoing"
	StatusCompleted EventStatus = "Completed"
	StatusCancelled EventStatus = "Cancelled"
)

// Eligibility restricts who may register.
type Eligibility string

const (
	EligibilityOpen     Eligibility = "Open to All"
	EligibilityIIITOnly Eligibility = "IIIT Only"
)

// FieldType is the input type of a custom registration form field.
type FieldType string

const (
	FieldText     FieldType = "text"
	FieldNumber   FieldType = "number"
	FieldDropdown FieldType = "dropdown"
	FieldCheckbox FieldType = "checkbox"
	FieldFile     FieldType = "file"
)

// FormField is one entry of an event's custom registration form.
type FormField struct {
	ID       string    `json:"id"`
	Label    string    `json:"label"`
	Type     FieldType `json:"type"`
	Options  []string  `json:"options,omitempty"`
	Required bool      `json:"required"`
}

// Variant is a merchandise option set such as size or colour.
type Variant struct {
	Name    string   `json:"name"`
	Options []string `json:"options"`
}

// Event is the event aggregate. Entries holds registrations and orders in
// insertion order and is only populated by single-event reads.
// swagger:model Event
type Event struct {
	ID                   string      `json:"id"`
	OrganizerID          string      `json:"organizer_id"`
	Name                 string      `json:"name"`
	Description          string      `json:"description"`
	Type                 EventType   `json:"type"`
	Status               EventStatus `json:"status"`
	Eligibility          Eligibility `json:"eligibility"`
	StartDate            *time.Time  `json:"start_date"`
	EndDate              *time.Time  `json:"end_date"`
	RegistrationDeadline *time.Time  `json:"registration_deadline"`
	RegistrationLimit    int         `json:"registration_limit"`
	Price                float64     `json:"price"`
	Location             string      `json:"location"`
	Tags                 []string    `json:"tags"`
	FormFields           []FormField `json:"form_fields"`

	Stock         int       `json:"stock"`
	PurchaseLimit int       `json:"purchase_limit"`
	Variants      []Variant `json:"variants,omitempty"`
	UPIID         string    `json:"upi_id,omitempty"`

	RegistrationCount   int `json:"registration_count"`
	RecentRegistrations int `json:"recent_registrations,omitempty"`

	Entries   []*Entry  `json:"-"`
	Version   int       `json:"-"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewEvent returns a Draft event owned by organizerID with defaults applied.
// ID is set by the repository on create.
func NewEvent(organizerID, name string, now time.Time) *Event {
	return &Event{
		OrganizerID:   organizerID,
		Name:          name,
		Type:          EventTypeNormal,
		Status:        StatusDraft,
		Eligibility:   EligibilityOpen,
		PurchaseLimit: 1,
		Tags:          []string{},
		FormFields:    []FormField{},
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

// IsMerchandise reports whether the event sells merchandise.
func (e *Event) IsMerchandise() bool { return e.Type == EventTypeMerchandise }

// HasRegistrations reports whether any entry exists.
func (e *Event) HasRegistrations() bool { return e.RegistrationCount > 0 || len(e.Entries) > 0 }

// FindEntry returns the entry with the given id.
func (e *Event) FindEntry(id string) (*Entry, bool) {
	for _, en := range e.Entries {
		if en.ID == id {
			return en, true
		}
	}
	return nil, false
}

// ApprovedCount returns the number of Approved entries.
func (e *Event) ApprovedCount() int {
	n := 0
	for _, en := range e.Entries {
		if en.PaymentStatus == PaymentApproved {
			n++
		}
	}
	return n
}

// ActiveEntriesOf returns the non-Rejected entries held by userID.
func (e *Event) ActiveEntriesOf(userID string) []*Entry {
	var out []*Entry
	for _, en := range e.Entries {
		if en.UserID == userID && en.PaymentStatus != PaymentRejected {
			out = append(out, en)
		}
	}
	return out
}

// IsMember reports whether userID may take part in the event's forum.
func (e *Event) IsMember(userID string) bool {
	return e.OrganizerID == userID || len(e.ActiveEntriesOf(userID)) > 0
}

// EventFilter narrows event listings.
type EventFilter struct {
	OrganizerID string
	Statuses    []EventStatus
}

// EventRepository defines the interface for event storage
type EventRepository interface {
	Create(ctx context.Context, event *Event) error
	// GetByID loads the event together with its entries.
	GetByID(ctx context.Context, id string) (*Event, error)
	List(ctx context.Context, filter EventFilter, params PaginationParams) ([]*Event, int, error)
	ListByParticipant(ctx context.Context, userID string) ([]*Event, error)
	ListTrending(ctx context.Context, since time.Time, limit int) ([]*Event, error)
	// Update writes all editable fields when the stored version still matches
	// event.Version and returns ErrConflict otherwise.
	Update(ctx context.Context, event *Event) error
	// AppendEntry inserts an entry under a row lock on the event. It re-checks
	// limits against the locked state and returns the failing rule, which
	// wraps ErrConflict, without inserting.
	AppendEntry(ctx context.Context, entry *Entry, limits EntryLimits) error
	// ResolveOrder moves a Pending order to status. Approval also takes one unit
	// of stock. Both failures wrap ErrConflict: an order that is no longer
	// Pending, and an approval with no stock left.
	ResolveOrder(ctx context.Context, eventID, entryID string, status PaymentStatus, note string) error
	// SetAttendance changes the attendance flag only when it differs from marked
	// and returns the attendance time stored afterwards. Marking an entry that
	// is already marked keeps its first check-in time.
	SetAttendance(ctx context.Context, eventID, entryID string, marked bool, at *time.Time) (*time.Time, error)
	AdvanceStatuses(ctx context.Context, now time.Time) (started, completed int64, err error)
	DeleteByOrganizer(ctx context.Context, organizerID string) (int64, error)
}

// EventService handles event authoring, listing and lifecycle.
type EventService interface {
	Create(ctx context.Context, organizerID string, in EventInput) (*Event, error)
	Get(ctx context.Context, id string) (*Event, error)
	ListPublic(ctx context.Context, organizerID string, params PaginationParams) ([]*Event, int, error)
	ListMine(ctx context.Context, organizerID string, params PaginationParams) ([]*Event, int, error)
	Trending(ctx context.Context) ([]*Event, error)
	Update(ctx context.Context, eventID, organizerID string, patch EventPatch, action EventAction) (*Event, error)
	SyncStatuses(ctx context.Context) (started, completed int64, err error)
}

// EventInput is the payload for creating an event. Status may be Draft or
// Published; a Published create must satisfy the publish requirements.
type EventInput struct {
	Name                 string
	Description          string
	Type                 EventType
	Status               EventStatus
	Eligibility          Eligibility
	StartDate            *time.Time
	EndDate              *time.Time
	RegistrationDeadline *time.Time
	RegistrationLimit    int
	Price                float64
	Location             string
	Tags                 []string
	FormFields           []FormField
	Stock                int
	PurchaseLimit        int
	Variants             []Variant
	UPIID                string
}

// WebhookNotifier announces lifecycle events to an organizer-configured webhook.
type WebhookNotifier interface {
	EventPublished(ctx context.Context, webhookURL string, event *Event) error
}
