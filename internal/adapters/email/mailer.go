package email

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/base64"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"campusevents/internal/domain"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"
	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
	"gopkg.in/gomail.v2"
)

// SESConfig holds configuration for AWS SES.
type SESConfig struct {
	Region             string `yaml:"region"`
	AccessKeyID        string `yaml:"-"`
	SecretAccessKey    string `yaml:"-"`
	InsecureSkipVerify bool   `yaml:"insecure_skip_verify"`
}

// SMTPConfig holds configuration for a plain SMTP relay.
type SMTPConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Username string `yaml:"username"`
	Password string `yaml:"-"`
}

// MailerConfig holds configuration for creating a mailer.
type MailerConfig struct {
	Provider       string     `yaml:"provider"`
	FromAddress    string     `yaml:"from_address"`
	FromName       string     `yaml:"from_name"`
	SES            SESConfig  `yaml:"ses"`
	SMTP           SMTPConfig `yaml:"smtp"`
	SendGridAPIKey string     `yaml:"-"`
}

// NewMailer creates a mailer from config. Providers: "ses", "sendgrid", "smtp"
// and "noop". Unknown providers fall back to noop.
func NewMailer(config MailerConfig, logger *slog.Logger) (domain.Mailer, error) {
	switch config.Provider {
	case "ses":
		if config.SES.InsecureSkipVerify {
			logger.Warn("TLS certificate verification is disabled for SES; use only in development")
		}
		httpClient := &http.Client{
			Transport: &http.Transport{
				TLSClientConfig: &tls.Config{
					InsecureSkipVerify: config.SES.InsecureSkipVerify,
					MinVersion:         tls.VersionTLS12,
				},
			},
		}
		awsCfg := aws.Config{
			Region: config.SES.Region,
			Credentials: aws.NewCredentialsCache(
				credentials.NewStaticCredentialsProvider(config.SES.AccessKeyID, config.SES.SecretAccessKey, ""),
			),
			HTTPClient: httpClient,
		}
		return &sesMailer{
			client: ses.NewFromConfig(awsCfg),
			from:   config,
			logger: logger,
		}, nil
	case "sendgrid":
		if config.SendGridAPIKey == "" {
			return nil, fmt.Errorf("sendgrid provider requires an API key")
		}
		return &sendgridMailer{
			client: sendgrid.NewSendClient(config.SendGridAPIKey),
			from:   config,
			logger: logger,
		}, nil
	case "smtp":
		if config.SMTP.Host == "" {
			return nil, fmt.Errorf("smtp provider requires a host")
		}
		return &smtpMailer{
			dialer: gomail.NewDialer(config.SMTP.Host, config.SMTP.Port, config.SMTP.Username, config.SMTP.Password),
			from:   config,
			logger: logger,
		}, nil
	case "noop", "":
		return &noopMailer{logger: logger}, nil
	default:
		logger.Warn("unknown email provider, using noop", "provider", config.Provider)
		return &noopMailer{logger: logger}, nil
	}
}

// buildMessage renders msg as a multipart MIME message with inline parts.
func buildMessage(cfg MailerConfig, msg *domain.EmailMessage) *gomail.Message {
	m := gomail.NewMessage()
	m.SetAddressHeader("From", cfg.FromAddress, cfg.FromName)
	if msg.ToName != "" {
		m.SetAddressHeader("To", msg.To, msg.ToName)
	} else {
		m.SetHeader("To", msg.To)
	}
	m.SetHeader("Subject", msg.Subject)
	switch {
	case msg.Text != "" && msg.HTML != "":
		m.SetBody("text/plain", msg.Text)
		m.AddAlternative("text/html", msg.HTML)
	case msg.HTML != "":
		m.SetBody("text/html", msg.HTML)
	default:
		m.SetBody("text/plain", msg.Text)
	}
	for _, a := range msg.Inline {
		data := a.Data
		headers := map[string][]string{}
		if a.ContentID != "" {
			headers["Content-ID"] = []string{"<" + a.ContentID + ">"}
		}
		if a.ContentType != "" {
			headers["Content-Type"] = []string{a.ContentType}
		}
		m.Embed(a.Filename,
			gomail.SetHeader(headers),
			gomail.SetCopyFunc(func(w io.Writer) error {
				_, err := w.Write(data)
				return err
			}),
		)
	}
	return m
}

type sesMailer struct {
	client *ses.Client
	from   MailerConfig
	logger *slog.Logger
}

func (s *sesMailer) Send(ctx context.Context, msg *domain.EmailMessage) error {
	var raw bytes.Buffer
	if _, err := buildMessage(s.from, msg).WriteTo(&raw); err != nil {
		return fmt.Errorf("build mime message: %w", err)
	}
	result, err := s.client.SendRawEmail(ctx, &ses.SendRawEmailInput{
		Destinations: []string{msg.To},
		RawMessage:   &types.RawMessage{Data: raw.Bytes()},
	})
	if err != nil {
		return fmt.Errorf("send email via SES: %w", err)
	}
	s.logger.InfoContext(ctx, "email sent", "provider", "ses", "message_id", aws.ToString(result.MessageId))
	return nil
}

type sendgridMailer struct {
	client *sendgrid.Client
	from   MailerConfig
	logger *slog.Logger
}

func (s *sendgridMailer) Send(ctx context.Context, msg *domain.EmailMessage) error {
	from := mail.NewEmail(s.from.FromName, s.from.FromAddress)
	to := mail.NewEmail(msg.ToName, msg.To)
	m := mail.NewSingleEmail(from, msg.Subject, to, msg.Text, msg.HTML)
	for _, a := range msg.Inline {
		att := mail.NewAttachment()
		att.SetContent(base64.StdEncoding.EncodeToString(a.Data))
		att.SetType(a.ContentType)
		att.SetFilename(a.Filename)
		att.SetDisposition("inline")
		att.SetContentID(a.ContentID)
		m.AddAttachment(att)
	}
	resp, err := s.client.SendWithContext(ctx, m)
	if err != nil {
		return fmt.Errorf("send email via sendgrid: %w", err)
	}
	if resp.StatusCode >= 400 {
		return fmt.Errorf("sendgrid error: status %d, body: %s", resp.StatusCode, resp.Body)
	}
	s.logger.InfoContext(ctx, "email sent", "provider", "sendgrid", "status", resp.StatusCode)
	return nil
}

type smtpMailer struct {
	dialer *gomail.Dialer
	from   MailerConfig
	logger *slog.Logger
}

func (s *smtpMailer) Send(ctx context.Context, msg *domain.EmailMessage) error {
	if err := s.dialer.DialAndSend(buildMessage(s.from, msg)); err != nil {
		return fmt.Errorf("send email via smtp: %w", err)
	}
	s.logger.InfoContext(ctx, "email sent", "provider", "smtp")
	return nil
}

type noopMailer struct {
	logger *slog.Logger
}

func (n *noopMailer) Send(ctx context.Context, msg *domain.EmailMessage) error {
	n.logger.InfoContext(ctx, "email would be sent (noop)", "to", msg.To, "subject", msg.Subject, "inline", len(msg.Inline))
	return nil
}
