package services

import (
	"context"
	"fmt"

	"campusevents/internal/domain"
)

const qrContentID = "qrcode.png"

type emailService struct {
	mailer   domain.Mailer
	renderer domain.EmailTemplateRenderer
}

// NewEmailService returns an EmailService that uses the given Mailer and template renderer.
func NewEmailService(mailer domain.Mailer, renderer domain.EmailTemplateRenderer) domain.EmailService {
	return &emailService{mailer: mailer, renderer: renderer}
}

// SendTicketConfirmation renders the "ticket_confirmation" template and sends
// it with the QR code attached inline.
func (s *emailService) SendTicketConfirmation(ctx context.Context, data *domain.TicketEmailData) error {
	if data == nil {
		return fmt.Errorf("ticket email data is nil")
	}
	subject, htmlBody, textBody, err := s.renderer.Render("ticket_confirmation", data)
	if err != nil {
		return fmt.Errorf("failed to render ticket_confirmation template: %w", err)
	}
	msg := &domain.EmailMessage{
		To:      data.Email,
		ToName:  data.ParticipantName,
		Subject: subject,
		HTML:    htmlBody,
		Text:    textBody,
	}
	if len(data.QRCode) > 0 {
		msg.Inline = append(msg.Inline, domain.Attachment{
			Filename:    qrContentID,
			ContentType: "image/png",
			ContentID:   qrContentID,
			Data:        data.QRCode,
		})
	}
	if err := s.mailer.Send(ctx, msg); err != nil {
		return fmt.Errorf("failed to send ticket email: %w", err)
	}
	return nil
}
