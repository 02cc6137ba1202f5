package domain

import (
	"context"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"
)

// PaymentStatus is the approval state of an entry. Normal-event entries are
// created Approved; merchandise orders start Pending.
type PaymentStatus string

const (
	PaymentApproved PaymentStatus = "Approved"
	PaymentPending  PaymentStatus = "Pending"
	PaymentRejected PaymentStatus = "Rejected"
)

// Response is one answer on a registration form, keyed by field label or
// variant name.
type Response struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// Entry is a registration (normal events) or an order (merchandise events).
// swagger:model Entry
type Entry struct {
	ID               string        `json:"id"`
	EventID          string        `json:"event_id"`
	UserID           string        `json:"user_id"`
	Responses        []Response    `json:"responses"`
	RegisteredAt     time.Time     `json:"registered_at"`
	PaymentStatus    PaymentStatus `json:"payment_status"`
	PaymentProofURL  string        `json:"payment_proof_url,omitempty"`
	Note             string        `json:"note,omitempty"`
	AttendanceMarked bool          `json:"attendance_marked"`
	AttendanceAt     *time.Time    `json:"attendance_at,omitempty"`
}

// RegistrationRequest is a participant's registration or order submission.
type RegistrationRequest struct {
	Responses       []Response
	PaymentProofURL string
}

// CheckRegistrationOpen runs the registration preconditions in order and
// returns the first failing rule. status is the event's effective status.
func CheckRegistrationOpen(e *Event, status EventStatus, u *User, now time.Time) error {
	if status != StatusPublished {
		return Conflict("registrations are not open for this event")
	}
	if e.RegistrationDeadline != nil && now.After(*e.RegistrationDeadline) {
		return Conflict("registration deadline has passed")
	}
	if e.Eligibility == EligibilityIIITOnly && u.ParticipantType != ParticipantIIIT {
		return Forbidden("this event is open to IIIT participants only")
	}
	return LimitsFor(e).Check(e.ApprovedCount(), len(e.ActiveEntriesOf(u.ID)), e.Stock)
}

// EntryLimits are the per-event caps on new entries. The repository checks
// them again under the event row lock, so they hold across service instances.
type EntryLimits struct {
	Merchandise   bool
	Capacity      int // Approved entries; 0 means unlimited
	PurchaseLimit int // non-Rejected orders per user
}

// LimitsFor returns the entry caps of e.
func LimitsFor(e *Event) EntryLimits {
	l := EntryLimits{Merchandise: e.IsMerchandise(), Capacity: e.RegistrationLimit, PurchaseLimit: 1}
	if l.Merchandise && e.PurchaseLimit > 1 {
		l.PurchaseLimit = e.PurchaseLimit
	}
	return l
}

// Check reports the first cap a new entry would break, given the event's
// Approved count, the user's non-Rejected entries and the remaining stock.
func (l EntryLimits) Check(approved, held, stock int) error {
	if !l.Merchandise {
		if held > 0 {
			return Conflict("you are already registered for this event")
		}
		if l.Capacity > 0 && approved >= l.Capacity {
			return Conflict("event is fully booked")
		}
		return nil
	}
	if stock <= 0 {
		return Conflict("out of stock")
	}
	if l.Capacity > 0 && approved >= l.Capacity {
		return Conflict("event is fully booked")
	}
	if held >= l.PurchaseLimit {
		return Conflict(fmt.Sprintf("purchase limit reached (max %d per person)", l.PurchaseLimit))
	}
	return nil
}

// ValidateResponses checks answers against the event's form schema and, for
// merchandise, its variants. It returns the normalised responses with variant
// answers first followed by form answers in schema order. Unknown keys are
// dropped.
func ValidateResponses(e *Event, in []Response) ([]Response, error) {
	answers := make(map[string]string, len(in))
	for _, r := range in {
		answers[strings.TrimSpace(r.Key)] = strings.TrimSpace(r.Value)
	}

	var out []Response
	if e.IsMerchandise() {
		for _, v := range e.Variants {
			val := answers[v.Name]
			if val == "" {
				return nil, Invalid(v.Name, "please select an option")
			}
			if !slices.Contains(v.Options, val) {
				return nil, Invalid(v.Name, fmt.Sprintf("invalid option %q", val))
			}
			out = append(out, Response{Key: v.Name, Value: val})
		}
	}

	for _, f := range e.FormFields {
		val, ok := answers[f.Label]
		if val == "" {
			if f.Required {
				return nil, Invalid(f.Label, "required field missing")
			}
			if !ok {
				continue
			}
		}
		switch f.Type {
		case FieldDropdown:
			if val != "" && !slices.Contains(f.Options, val) {
				return nil, Invalid(f.Label, fmt.Sprintf("invalid option %q", val))
			}
		case FieldNumber:
			if val != "" {
				if _, err := strconv.ParseFloat(val, 64); err != nil {
					return nil, Invalid(f.Label, "must be a number")
				}
			}
		}
		out = append(out, Response{Key: f.Label, Value: val})
	}
	if out == nil {
		out = []Response{}
	}
	return out, nil
}

// ValidateFormSchema checks a form-field schema for structural problems.
func ValidateFormSchema(fields []FormField) error {
	seen := make(map[string]struct{}, len(fields))
	for i, f := range fields {
		label := strings.TrimSpace(f.Label)
		if label == "" {
			return Invalid("form_fields", fmt.Sprintf("field %d has no label", i+1))
		}
		if _, dup := seen[label]; dup {
			return Invalid("form_fields", fmt.Sprintf("duplicate label %q", label))
		}
		seen[label] = struct{}{}
		switch f.Type {
		case FieldText, FieldNumber, FieldCheckbox, FieldFile:
		case FieldDropdown:
			if len(f.Options) == 0 {
				return Invalid("form_fields", fmt.Sprintf("dropdown %q needs options", label))
			}
		default:
			return Invalid("form_fields", fmt.Sprintf("unknown field type %q", f.Type))
		}
	}
	return nil
}

// BestEntry picks the entry to show for a user holding several orders on one
// event: Approved over Pending over Rejected, earliest first within a status.
func BestEntry(entries []*Entry) *Entry {
	rank := map[PaymentStatus]int{PaymentApproved: 0, PaymentPending: 1, PaymentRejected: 2}
	var best *Entry
	for _, en := range entries {
		if best == nil || rank[en.PaymentStatus] < rank[best.PaymentStatus] {
			best = en
		}
	}
	return best
}

// MyRegistration is one row of a participant's registration history.
type MyRegistration struct {
	Event      *Event `json:"event"`
	Entry      *Entry `json:"entry"`
	OrderCount int    `json:"order_count"`
}

// ParticipantRow is an organizer-facing view of one entry.
type ParticipantRow struct {
	SrNo             int             `json:"sr_no"`
	EntryID          string          `json:"entry_id"`
	UserID           string          `json:"user_id"`
	Name             string          `json:"name"`
	Email            string          `json:"email"`
	ParticipantType  ParticipantType `json:"participant_type,omitempty"`
	College          string          `json:"college,omitempty"`
	Contact          string          `json:"contact,omitempty"`
	RegisteredAt     time.Time       `json:"registered_at"`
	PaymentStatus    PaymentStatus   `json:"payment_status"`
	PaymentProofURL  string          `json:"payment_proof_url,omitempty"`
	Note             string          `json:"note,omitempty"`
	AttendanceMarked bool            `json:"attendance_marked"`
	AttendanceAt     *time.Time      `json:"attendance_at,omitempty"`
	Responses        []Response      `json:"responses"`
}

// ParticipantReport lists all entries of an event with totals.
type ParticipantReport struct {
	EventID       string           `json:"event_id"`
	EventName     string           `json:"event_name"`
	EventType     EventType        `json:"event_type"`
	Participants  []ParticipantRow `json:"participants"`
	Total         int              `json:"total"`
	ApprovedCount int              `json:"approved_count"`
	PendingCount  int              `json:"pending_count"`
	Revenue       float64          `json:"revenue"`
}

// OrderReport lists merchandise orders with the current stock.
type OrderReport struct {
	EventID   string           `json:"event_id"`
	EventName string           `json:"event_name"`
	Stock     int              `json:"stock"`
	Orders    []ParticipantRow `json:"orders"`
}

// RegistrationService accepts registrations and orders and reports on them.
type RegistrationService interface {
	Register(ctx context.Context, eventID, userID string, req RegistrationRequest) (*Entry, error)
	ListMine(ctx context.Context, userID string) ([]*MyRegistration, error)
	ListParticipants(ctx context.Context, eventID, organizerID string) (*ParticipantReport, error)
	ListOrders(ctx context.Context, eventID, organizerID string) (*OrderReport, error)
}

// PaymentService resolves Pending merchandise orders.
type PaymentService interface {
	Approve(ctx context.Context, eventID, orderID, organizerID, note string) (*Entry, error)
	Reject(ctx context.Context, eventID, orderID, organizerID, note string) (*Entry, error)
}
