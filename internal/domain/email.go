package domain

import (
	"context"
	"time"
)

// Mailer defines the contract for sending emails (infrastructure port).
type Mailer interface {
	Send(to, subject, html, text string) error
}

// EmailTemplateRenderer renders email content from a named template with the given data.
type EmailTemplateRenderer interface {
	Render(templateName string, data any) (subject, htmlBody, textBody string, err error)
}

// WelcomeMessageEmailData holds data for the welcome email.
type WelcomeMessageEmailData struct {
	Email     string
	FirstName string
}

// EventReminderEmailData holds data for the upcoming-event reminder email.
type EventReminderEmailData struct {
	Email        string
	FirstName    string
	ProgramTitle string
	EventTitle   string
	Location     string
	StartsAt     time.Time
	TimeZone     string
}

// CertificateIssuedEmailData holds data for the certificate email.
type CertificateIssuedEmailData struct {
	Email        string
	FirstName    string
	ProgramTitle string
	Code         string
}

// EmailService defines the contract for sending domain-level emails.
type EmailService interface {
	SendWelcomeMessage(ctx context.Context, data *WelcomeMessageEmailData) error
	SendEventReminder(ctx context.Context, data *EventReminderEmailData) error
	SendCertificateIssued(ctx context.Context, data *CertificateIssuedEmailData) error
}
