package domain

import "context"

// Attachment is a file attached to an email. A non-empty ContentID makes it
// an inline part referenced from the HTML body as cid:<ContentID>.
type Attachment struct {
	Filename    string
	ContentType string
	ContentID   string
	Data        []byte
}

// EmailMessage is a rendered email ready for delivery.
type EmailMessage struct {
	To      string
	ToName  string
	Subject string
	HTML    string
	Text    string
	Inline  []Attachment
}

// Mailer defines the contract for sending emails (infrastructure port).
type Mailer interface {
	Send(ctx context.Context, msg *EmailMessage) error
}

// EmailTemplateRenderer renders email content from a named template with the given data.
type EmailTemplateRenderer interface {
	Render(templateName string, data any) (subject, htmlBody, textBody string, err error)
}

// TicketEmailData holds data for the ticket confirmation email.
type TicketEmailData struct {
	Email           string
	ParticipantName string
	EventName       string
	IsMerchandise   bool
	Date            string
	Location        string
	OrganizerName   string
	TicketID        string
	RegisteredAt    string
	Variants        []Response
	Price           string
	QRCode          []byte
}

// EmailService defines the contract for sending domain-level emails.
type EmailService interface {
	SendTicketConfirmation(ctx context.Context, data *TicketEmailData) error
}
