// Package email provides email sending capabilities via SMTP.
package email

import (
	"bytes"
	"errors"
	"fmt"
	"html/template"
	"net/smtp"
	"strings"
	"time"
)

var ErrNotConfigured = errors.New("email not configured")

// Config holds SMTP configuration
type Config struct {
	Host     string
	Port     string
	Username string
	Password string
	From     string
	FromName string
}

// SendFunc matches smtp.SendMail.
type SendFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

// Service provides email sending
type Service struct {
	config Config
	server string
	auth   smtp.Auth
	send   SendFunc
}

// NewService creates a new email service
func NewService(config Config) *Service {
	var auth smtp.Auth
	if config.Username != "" {
		auth = smtp.PlainAuth("", config.Username, config.Password, config.Host)
	}
	return &Service{
		config: config,
		server: config.Host + ":" + config.Port,
		auth:   auth,
		send:   smtp.SendMail,
	}
}

// WithSender replaces the SMTP transport.
func (s *Service) WithSender(send SendFunc) *Service {
	s.send = send
	return s
}

// IsConfigured returns true if email is configured
func (s *Service) IsConfigured() bool {
	return s.config.Host != "" && s.config.Port != "" && s.config.From != ""
}

func (s *Service) fromHeader() string {
	if s.config.FromName != "" {
		return fmt.Sprintf("%q <%s>", s.config.FromName, s.config.From)
	}
	return s.config.From
}

// SendEmail sends a plain text email
func (s *Service) SendEmail(to []string, subject, body string) error {
	if !s.IsConfigured() {
		return ErrNotConfigured
	}

	msg := []byte(fmt.Sprintf(
		"To: %s\r\n"+
			"From: %s\r\n"+
			"Subject: %s\r\n"+
			"Content-Type: text/plain; charset=UTF-8\r\n"+
			"\r\n"+
			"%s",
		strings.Join(to, ", "),
		s.fromHeader(),
		subject,
		body,
	))

	return s.send(s.server, s.auth, s.config.From, to, msg)
}

// SendHTMLEmail sends a multipart message with a plain text fallback.
func (s *Service) SendHTMLEmail(to []string, subject, textBody, htmlBody string) error {
	if !s.IsConfigured() {
		return ErrNotConfigured
	}
	if textBody == "" {
		textBody = "Please view this email in an HTML-capable email client."
	}

	boundary := "boundary-costlaw"

	var msg bytes.Buffer
	fmt.Fprintf(&msg, "To: %s\r\n", strings.Join(to, ", "))
	fmt.Fprintf(&msg, "From: %s\r\n", s.fromHeader())
	fmt.Fprintf(&msg, "Subject: %s\r\n", subject)
	fmt.Fprintf(&msg, "MIME-Version: 1.0\r\n")
	fmt.Fprintf(&msg, "Content-Type: multipart/alternative; boundary=\"%s\"\r\n", boundary)
	fmt.Fprintf(&msg, "\r\n")

	fmt.Fprintf(&msg, "--%s\r\n", boundary)
	fmt.Fprintf(&msg, "Content-Type: text/plain; charset=UTF-8\r\n")
	fmt.Fprintf(&msg, "\r\n")
	fmt.Fprintf(&msg, "%s\r\n", textBody)
	fmt.Fprintf(&msg, "\r\n")

	fmt.Fprintf(&msg, "--%s\r\n", boundary)
	fmt.Fprintf(&msg, "Content-Type: text/html; charset=UTF-8\r\n")
	fmt.Fprintf(&msg, "\r\n")
	fmt.Fprintf(&msg, "%s\r\n", htmlBody)
	fmt.Fprintf(&msg, "\r\n")
	fmt.Fprintf(&msg, "--%s--\r\n", boundary)

	return s.send(s.server, s.auth, s.config.From, to, msg.Bytes())
}

// ContactData is a contact form submission as rendered in the notification.
type ContactData struct {
	FirstName   string
	LastName    string
	Email       string
	Phone       string
	Service     string
	Message     string
	SubmittedAt time.Time
}

func ContactSubject(data ContactData) string {
	return fmt.Sprintf("New Contact Form Submission: %s %s", data.FirstName, data.LastName)
}

func ContactText(data ContactData) string {
	return fmt.Sprintf("New message from %s %s (%s): %s", data.FirstName, data.LastName, data.Email, data.Message)
}

// SendContactNotification emails a contact form submission to the office.
func (s *Service) SendContactNotification(to string, data ContactData) error {
	html, err := renderTemplate(contactEmailTemplate, data)
	if err != nil {
		return fmt.Errorf("render contact template: %w", err)
	}
	return s.SendHTMLEmail([]string{to}, ContactSubject(data), ContactText(data), html)
}

func renderTemplate(tmpl string, data any) (string, error) {
	t, err := template.New("email").Parse(tmpl)
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

const contactEmailTemplate = `<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto;">
  <h2 style="color: #007AFF;">New Contact Form Submission</h2>
  <p>You have received a new message from your website contact form.</p>

  <table style="width: 100%; border-collapse: collapse; margin-top: 20px; margin-bottom: 20px;">
    <tr>
      <td style="padding: 10px; border: 1px solid #ddd; font-weight: bold; width: 30%;">Name</td>
      <td style="padding: 10px; border: 1px solid #ddd;">{{.FirstName}} {{.LastName}}</td>
    </tr>
    <tr>
      <td style="padding: 10px; border: 1px solid #ddd; font-weight: bold;">Email</td>
      <td style="padding: 10px; border: 1px solid #ddd;"><a href="mailto:{{.Email}}" style="color: #007AFF;">{{.Email}}</a></td>
    </tr>
    {{- if .Phone}}
    <tr>
      <td style="padding: 10px; border: 1px solid #ddd; font-weight: bold;">Phone</td>
      <td style="padding: 10px; border: 1px solid #ddd;">{{.Phone}}</td>
    </tr>
    {{- end}}
    {{- if .Service}}
    <tr>
      <td style="padding: 10px; border: 1px solid #ddd; font-weight: bold;">Service Required</td>
      <td style="padding: 10px; border: 1px solid #ddd;">{{.Service}}</td>
    </tr>
    {{- end}}
    <tr>
      <td style="padding: 10px; border: 1px solid #ddd; font-weight: bold;">Date Submitted</td>
      <td style="padding: 10px; border: 1px solid #ddd;">{{.SubmittedAt.Format "2 January 2006 15:04 MST"}}</td>
    </tr>
  </table>

  <div style="background-color: #f7f7f7; padding: 20px; border-radius: 4px; margin-top: 20px;">
    <h3 style="margin-top: 0;">Message:</h3>
    <p style="white-space: pre-line;">{{.Message}}</p>
  </div>

  <div style="margin-top: 30px; padding-top: 20px; border-top: 1px solid #ddd; font-size: 12px; color: #666;">
    <p>This is an automated email from your website's contact form.</p>
  </div>
</div>`
