package domain

import (
	"slices"
	"strings"
	"time"
)

// CurrentStatus derives the effective status at now. Published events become
// Ongoing once started and Completed once ended; stored state is not touched.
func CurrentStatus(e *Event, now time.Time) EventStatus {
	switch e.Status {
	case StatusPublished, StatusOngoing:
		if e.EndDate != nil && !now.Before(*e.EndDate) {
			return StatusCompleted
		}
		if e.StartDate != nil && !now.Before(*e.StartDate) {
			return StatusOngoing
		}
	}
	return e.Status
}

// FieldPolicy says how a field may change in a given status.
type FieldPolicy int

const (
	PolicyFrozen FieldPolicy = iota
	PolicyFree
	PolicyIncreaseOnly
	PolicyLaterOnly
	PolicyFreeIfNoRegistrations
)

// EventField names an editable event attribute.
type EventField string

const (
	FieldName                 EventField = "name"
	FieldDescription          EventField = "description"
	FieldEventType            EventField = "type"
	FieldEligibility          EventField = "eligibility"
	FieldStartDate            EventField = "start_date"
	FieldEndDate              EventField = "end_date"
	FieldRegistrationDeadline EventField = "registration_deadline"
	FieldRegistrationLimit    EventField = "registration_limit"
	FieldPrice                EventField = "price"
	FieldLocation             EventField = "location"
	FieldTags                 EventField = "tags"
	FieldFormFields           EventField = "form_fields"
	FieldStock                EventField = "stock"
	FieldPurchaseLimit        EventField = "purchase_limit"
	FieldVariants             EventField = "variants"
	FieldUPIID                EventField = "upi_id"
)

var draftPolicies = map[EventField]FieldPolicy{
	FieldName:                 PolicyFree,
	FieldDescription:          PolicyFree,
	FieldEventType:            PolicyFree,
	FieldEligibility:          PolicyFree,
	FieldStartDate:            PolicyFree,
	FieldEndDate:              PolicyFree,
	FieldRegistrationDeadline: PolicyFree,
	FieldRegistrationLimit:    PolicyFree,
	FieldPrice:                PolicyFree,
	FieldLocation:             PolicyFree,
	FieldTags:                 PolicyFree,
	FieldFormFields:           PolicyFreeIfNoRegistrations,
	FieldStock:                PolicyFree,
	FieldPurchaseLimit:        PolicyFree,
	FieldVariants:             PolicyFree,
	FieldUPIID:                PolicyFree,
}

// EditPolicies is the per-status edit table. Fields missing from a status map
// are frozen.
var EditPolicies = map[EventStatus]map[EventField]FieldPolicy{
	StatusDraft: draftPolicies,
	StatusPublished: {
		FieldDescription:          PolicyFree,
		FieldFormFields:           PolicyFreeIfNoRegistrations,
		FieldRegistrationDeadline: PolicyLaterOnly,
		FieldRegistrationLimit:    PolicyIncreaseOnly,
	},
	StatusOngoing:   {},
	StatusCompleted: {},
	StatusCancelled: {},
}

// EventAction is an explicit lifecycle command sent alongside a patch.
type EventAction string

const (
	ActionNone               EventAction = ""
	ActionPublish            EventAction = "publish"
	ActionCloseRegistrations EventAction = "closeRegistrations"
	ActionCancel             EventAction = "cancel"
)

// EventPatch carries optional field changes; nil means unchanged.
type EventPatch struct {
	Name                 *string
	Description          *string
	Type                 *EventType
	Eligibility          *Eligibility
	StartDate            *time.Time
	EndDate              *time.Time
	RegistrationDeadline *time.Time
	RegistrationLimit    *int
	Price                *float64
	Location             *string
	Tags                 *[]string
	FormFields           *[]FormField
	Stock                *int
	PurchaseLimit        *int
	Variants             *[]Variant
	UPIID                *string
}

type fieldSpec struct {
	field EventField
	set   func(p *EventPatch) bool
	same  func(e *Event, p *EventPatch) bool
	apply func(e *Event, p *EventPatch)
	// grows reports whether the patched value is not smaller (or earlier) than
	// the current one. Only consulted for monotonic policies.
	grows func(e *Event, p *EventPatch) bool
}

func sameTime(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Equal(*b)
}

var fieldSpecs = []fieldSpec{
	{
		field: FieldName,
		set:   func(p *EventPatch) bool { return p.Name != nil },
		same:  func(e *Event, p *EventPatch) bool { return e.Name == *p.Name },
		apply: func(e *Event, p *EventPatch) { e.Name = strings.TrimSpace(*p.Name) },
	},
	{
		field: FieldDescription,
		set:   func(p *EventPatch) bool { return p.Description != nil },
		same:  func(e *Event, p *EventPatch) bool { return e.Description == *p.Description },
		apply: func(e *Event, p *EventPatch) { e.Description = *p.Description },
	},
	{
		field: FieldEventType,
		set:   func(p *EventPatch) bool { return p.Type != nil },
		same:  func(e *Event, p *EventPatch) bool { return e.Type == *p.Type },
		apply: func(e *Event, p *EventPatch) { e.Type = *p.Type },
	},
	{
		field: FieldEligibility,
		set:   func(p *EventPatch) bool { return p.Eligibility != nil },
		same:  func(e *Event, p *EventPatch) bool { return e.Eligibility == *p.Eligibility },
		apply: func(e *Event, p *EventPatch) { e.Eligibility = *p.Eligibility },
	},
	{
		field: FieldStartDate,
		set:   func(p *EventPatch) bool { return p.StartDate != nil },
		same:  func(e *Event, p *EventPatch) bool { return sameTime(e.StartDate, p.StartDate) },
		apply: func(e *Event, p *EventPatch) { t := *p.StartDate; e.StartDate = &t },
	},
	{
		field: FieldEndDate,
		set:   func(p *EventPatch) bool { return p.EndDate != nil },
		same:  func(e *Event, p *EventPatch) bool { return sameTime(e.EndDate, p.EndDate) },
		apply: func(e *Event, p *EventPatch) { t := *p.EndDate; e.EndDate = &t },
	},
	{
		field: FieldRegistrationDeadline,
		set:   func(p *EventPatch) bool { return p.RegistrationDeadline != nil },
		same: func(e *Event, p *EventPatch) bool {
			return sameTime(e.RegistrationDeadline, p.RegistrationDeadline)
		},
		apply: func(e *Event, p *EventPatch) { t := *p.RegistrationDeadline; e.RegistrationDeadline = &t },
		grows: func(e *Event, p *EventPatch) bool {
			return e.RegistrationDeadline == nil || !p.RegistrationDeadline.Before(*e.RegistrationDeadline)
		},
	},
	{
		field: FieldRegistrationLimit,
		set:   func(p *EventPatch) bool { return p.RegistrationLimit != nil },
		same:  func(e *Event, p *EventPatch) bool { return e.RegistrationLimit == *p.RegistrationLimit },
		apply: func(e *Event, p *EventPatch) { e.RegistrationLimit = *p.RegistrationLimit },
		grows: func(e *Event, p *EventPatch) bool {
			// 0 is unlimited: moving to 0 always grows, leaving 0 never does.
			if *p.RegistrationLimit == 0 {
				return true
			}
			return e.RegistrationLimit != 0 && *p.RegistrationLimit >= e.RegistrationLimit
		},
	},
	{
		field: FieldPrice,
		set:   func(p *EventPatch) bool { return p.Price != nil },
		same:  func(e *Event, p *EventPatch) bool { return e.Price == *p.Price },
		apply: func(e *Event, p *EventPatch) { e.Price = *p.Price },
	},
	{
		field: FieldLocation,
		set:   func(p *EventPatch) bool { return p.Location != nil },
		same:  func(e *Event, p *EventPatch) bool { return e.Location == *p.Location },
		apply: func(e *Event, p *EventPatch) { e.Location = *p.Location },
	},
	{
		field: FieldTags,
		set:   func(p *EventPatch) bool { return p.Tags != nil },
		same:  func(e *Event, p *EventPatch) bool { return slices.Equal(e.Tags, *p.Tags) },
		apply: func(e *Event, p *EventPatch) { e.Tags = slices.Clone(*p.Tags) },
	},
	{
		field: FieldFormFields,
		set:   func(p *EventPatch) bool { return p.FormFields != nil },
		same:  func(e *Event, p *EventPatch) bool { return sameFormFields(e.FormFields, *p.FormFields) },
		apply: func(e *Event, p *EventPatch) { e.FormFields = slices.Clone(*p.FormFields) },
	},
	{
		field: FieldStock,
		set:   func(p *EventPatch) bool { return p.Stock != nil },
		same:  func(e *Event, p *EventPatch) bool { return e.Stock == *p.Stock },
		apply: func(e *Event, p *EventPatch) { e.Stock = *p.Stock },
	},
	{
		field: FieldPurchaseLimit,
		set:   func(p *EventPatch) bool { return p.PurchaseLimit != nil },
		same:  func(e *Event, p *EventPatch) bool { return e.PurchaseLimit == *p.PurchaseLimit },
		apply: func(e *Event, p *EventPatch) { e.PurchaseLimit = *p.PurchaseLimit },
	},
	{
		field: FieldVariants,
		set:   func(p *EventPatch) bool { return p.Variants != nil },
		same:  func(e *Event, p *EventPatch) bool { return sameVariants(e.Variants, *p.Variants) },
		apply: func(e *Event, p *EventPatch) { e.Variants = slices.Clone(*p.Variants) },
	},
	{
		field: FieldUPIID,
		set:   func(p *EventPatch) bool { return p.UPIID != nil },
		same:  func(e *Event, p *EventPatch) bool { return e.UPIID == *p.UPIID },
		apply: func(e *Event, p *EventPatch) { e.UPIID = *p.UPIID },
	},
}

func sameFormFields(a, b []FormField) bool {
	return slices.EqualFunc(a, b, func(x, y FormField) bool {
		return x.ID == y.ID && x.Label == y.Label && x.Type == y.Type &&
			x.Required == y.Required && slices.Equal(x.Options, y.Options)
	})
}

func sameVariants(a, b []Variant) bool {
	return slices.EqualFunc(a, b, func(x, y Variant) bool {
		return x.Name == y.Name && slices.Equal(x.Options, y.Options)
	})
}

func frozenReason(status EventStatus) string {
	switch status {
	case StatusCancelled:
		return "event is cancelled and cannot be edited"
	case StatusOngoing, StatusCompleted:
		return "only cancellation is allowed once an event has started"
	default:
		return "cannot be changed after publishing"
	}
}

// PlanEdit validates the whole change set against the edit table for status
// (the event's effective status) and returns a patched copy of e. Nothing is
// applied when any rule fails, and e itself is never modified.
func PlanEdit(e *Event, status EventStatus, patch EventPatch, action EventAction, now time.Time) (*Event, error) {
	policies, ok := EditPolicies[status]
	if !ok {
		return nil, Invalid("status", "unknown event status")
	}

	var changes []fieldSpec
	for _, fs := range fieldSpecs {
		if !fs.set(&patch) || fs.same(e, &patch) {
			continue
		}
		changes = append(changes, fs)
	}
	if len(changes) == 0 && action == ActionNone {
		return nil, Invalid("", "no valid updates provided")
	}

	for _, fs := range changes {
		switch policies[fs.field] {
		case PolicyFree:
		case PolicyFreeIfNoRegistrations:
			if e.HasRegistrations() {
				return nil, Conflict(string(fs.field) + ": form cannot be changed after registrations have been received")
			}
		case PolicyIncreaseOnly:
			if !fs.grows(e, &patch) {
				return nil, Conflict(string(fs.field) + ": registration limit may only be increased")
			}
		case PolicyLaterOnly:
			if !fs.grows(e, &patch) {
				return nil, Conflict(string(fs.field) + ": deadline may only be extended")
			}
		default:
			return nil, Conflict(string(fs.field) + ": " + frozenReason(status))
		}
	}

	if err := checkAction(status, action); err != nil {
		return nil, err
	}

	next := *e
	next.Status = status
	for _, fs := range changes {
		fs.apply(&next, &patch)
	}

	switch action {
	case ActionPublish:
		next.Status = StatusPublished
	case ActionCloseRegistrations:
		t := now
		next.RegistrationDeadline = &t
	case ActionCancel:
		next.Status = StatusCancelled
	}

	if err := ValidateEventFields(&next); err != nil {
		return nil, err
	}
	if action == ActionPublish {
		if err := ValidateForPublish(&next); err != nil {
			return nil, err
		}
	}
	next.UpdatedAt = now
	return &next, nil
}

func checkAction(status EventStatus, action EventAction) error {
	switch action {
	case ActionNone:
		return nil
	case ActionPublish:
		if status != StatusDraft {
			return Conflict("only draft events can be published")
		}
	case ActionCloseRegistrations:
		if status != StatusPublished {
			return Conflict("registrations can only be closed on a published event")
		}
	case ActionCancel:
		switch status {
		case StatusPublished, StatusOngoing, StatusCompleted:
		case StatusCancelled:
			return Conflict("event is already cancelled")
		default:
			return Conflict("a draft event cannot be cancelled")
		}
	default:
		return Invalid("action", "unknown action "+string(action))
	}
	return nil
}

// ValidateEventFields checks the invariants that hold in every status.
func ValidateEventFields(e *Event) error {
	if strings.TrimSpace(e.Name) == "" {
		return Invalid("name", "name is required")
	}
	switch e.Type {
	case EventTypeNormal, EventTypeMerchandise:
	default:
		return Invalid("type", "type must be normal or merchandise")
	}
	switch e.Eligibility {
	case EligibilityOpen, EligibilityIIITOnly:
	default:
		return Invalid("eligibility", "eligibility must be \"Open to All\" or \"IIIT Only\"")
	}
	if e.RegistrationLimit < 0 {
		return Invalid("registration_limit", "must not be negative")
	}
	if e.Price < 0 {
		return Invalid("price", "must not be negative")
	}
	if e.Stock < 0 {
		return Invalid("stock", "must not be negative")
	}
	if e.PurchaseLimit < 1 {
		return Invalid("purchase_limit", "must be at least 1")
	}
	if e.StartDate != nil && e.EndDate != nil && e.EndDate.Before(*e.StartDate) {
		return Invalid("end_date", "end date must not be before start date")
	}
	if e.StartDate != nil && e.RegistrationDeadline != nil && e.RegistrationDeadline.After(*e.StartDate) {
		return Invalid("registration_deadline", "registration deadline must be on or before the start date")
	}
	if err := ValidateFormSchema(e.FormFields); err != nil {
		return err
	}
	for _, v := range e.Variants {
		if strings.TrimSpace(v.Name) == "" || len(v.Options) == 0 {
			return Invalid("variants", "each variant needs a name and at least one option")
		}
	}
	return nil
}

// ValidateForPublish checks the fields required before an event can go live.
func ValidateForPublish(e *Event) error {
	switch {
	case strings.TrimSpace(e.Description) == "":
		return Invalid("description", "required to publish")
	case e.StartDate == nil:
		return Invalid("start_date", "required to publish")
	case e.EndDate == nil:
		return Invalid("end_date", "required to publish")
	case e.RegistrationDeadline == nil:
		return Invalid("registration_deadline", "required to publish")
	case e.IsMerchandise() && strings.TrimSpace(e.UPIID) == "":
		return Invalid("upi_id", "required for merchandise events")
	}
	return ValidateEventFields(e)
}
