package domain

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// TicketPayload is the content encoded in a ticket's QR code. It carries no
// signature; check-in trusts it only after looking the entry up.
type TicketPayload struct {
	TicketID     string    `json:"ticketId"`
	EventName    string    `json:"eventName"`
	RegisteredAt time.Time `json:"registeredAt"`
}

// NewTicketPayload builds the payload for an entry.
func NewTicketPayload(e *Event, en *Entry) TicketPayload {
	return TicketPayload{
		TicketID:     en.ID,
		EventName:    e.Name,
		RegisteredAt: en.RegisteredAt.UTC(),
	}
}

// Encode returns the JSON form scanned from the QR code.
func (p TicketPayload) Encode() (string, error) {
	b, err := json.Marshal(p)
	if err != nil {
		return "", fmt.Errorf("encode ticket payload: %w", err)
	}
	return string(b), nil
}

// ParseTicketPayload decodes a scanned payload.
func ParseTicketPayload(raw string) (TicketPayload, error) {
	var p TicketPayload
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		return TicketPayload{}, Invalid("ticket", "unreadable ticket payload")
	}
	if p.TicketID == "" {
		return TicketPayload{}, Invalid("ticket", "ticket id missing")
	}
	return p, nil
}

// Ticket is an issued ticket: its payload and the rendered QR image.
type Ticket struct {
	Payload TicketPayload `json:"payload"`
	PNG     []byte        `json:"-"`
}

// QREncoder renders text as a PNG QR code.
type QREncoder interface {
	EncodePNG(content string) ([]byte, error)
}

// TicketService issues tickets and handles attendance check-in.
type TicketService interface {
	Issue(event *Event, entry *Entry) (*Ticket, error)
	// Confirm issues a ticket and emails it to the participant.
	Confirm(ctx context.Context, event *Event, entry *Entry) error
	Resolve(ctx context.Context, eventID string, payload TicketPayload) (*Entry, error)
	MarkAttendance(ctx context.Context, eventID, entryID, organizerID string) (*Entry, error)
	UnmarkAttendance(ctx context.Context, eventID, entryID, organizerID string) (*Entry, error)
	CheckIn(ctx context.Context, eventID, organizerID, rawPayload string) (*Entry, error)
}
