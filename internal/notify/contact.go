package notify

import (
	"context"

	"costlaw/api/internal/email"
	"costlaw/api/internal/store"
)

// Mailer is the subset of email.Service used for contact notifications.
type Mailer interface {
	IsConfigured() bool
	SendContactNotification(to string, data email.ContactData) error
}

type ContactMailer struct {
	mailer Mailer
	to     string
}

func NewContactMailer(mailer Mailer, to string) *ContactMailer {
	return &ContactMailer{mailer: mailer, to: to}
}

func (m *ContactMailer) Notify(_ context.Context, c store.Contact) error {
	if m.mailer == nil || !m.mailer.IsConfigured() {
		return email.ErrNotConfigured
	}
	return m.mailer.SendContactNotification(m.to, email.ContactData{
		FirstName:   c.FirstName,
		LastName:    c.LastName,
		Email:       c.Email,
		Phone:       deref(c.Phone),
		Service:     deref(c.Service),
		Message:     c.Message,
		SubmittedAt: c.CreatedAt,
	})
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
