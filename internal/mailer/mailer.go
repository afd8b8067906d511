// Package mailer renders and delivers account emails.
package mailer

import (
	"bytes"
	"context"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"net/http"

	"github.com/gofiber/template/django/v3"
	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

//go:embed templates/*.html
var templateFS embed.FS

var ErrNotConfigured = errors.New("mail delivery is not configured")

type Message struct {
	To      string
	Subject string
	HTML    string
}

// Mailer delivers a rendered message. Delivery is attempted once.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// Renderer fills the embedded email templates.
type Renderer struct {
	engine *django.Engine
}

func NewRenderer() (*Renderer, error) {
	sub, err := fs.Sub(templateFS, "templates")
	if err != nil {
		return nil, fmt.Errorf("open email templates: %w", err)
	}
	engine := django.NewFileSystem(http.FS(sub), ".html")
	if err := engine.Load(); err != nil {
		return nil, fmt.Errorf("load email templates: %w", err)
	}
	return &Renderer{engine: engine}, nil
}

func (r *Renderer) Activation(to, link, clientURL string) (Message, error) {
	html, err := r.render("activation", map[string]interface{}{
		"link":       link,
		"client_url": clientURL,
	})
	if err != nil {
		return Message{}, err
	}
	return Message{To: to, Subject: "Account activation link", HTML: html}, nil
}

func (r *Renderer) PasswordReset(to, link, clientURL, expiresIn string) (Message, error) {
	html, err := r.render("reset", map[string]interface{}{
		"link":       link,
		"client_url": clientURL,
		"expires_in": expiresIn,
	})
	if err != nil {
		return Message{}, err
	}
	return Message{To: to, Subject: "Password Reset link", HTML: html}, nil
}

func (r *Renderer) render(name string, data map[string]interface{}) (string, error) {
	var buf bytes.Buffer
	if err := r.engine.Render(&buf, name, data); err != nil {
		return "", fmt.Errorf("render %s email: %w", name, err)
	}
	return buf.String(), nil
}

// SendGridMailer delivers through the SendGrid v3 API.
type SendGridMailer struct {
	client *sendgrid.Client
	from   *mail.Email
}

func NewSendGridMailer(apiKey, from string) *SendGridMailer {
	return &SendGridMailer{
		client: sendgrid.NewSendClient(apiKey),
		from:   mail.NewEmail("", from),
	}
}

func (m *SendGridMailer) Send(ctx context.Context, msg Message) error {
	email := mail.NewSingleEmail(m.from, msg.Subject, mail.NewEmail("", msg.To), "", msg.HTML)

	resp, err := m.client.SendWithContext(ctx, email)
	if err != nil {
		return fmt.Errorf("send email: %w", err)
	}
	if resp.StatusCode >= 400 {
		return fmt.Errorf("send email: sendgrid returned status %d: %s", resp.StatusCode, resp.Body)
	}
	return nil
}

// NoopMailer refuses every message. It stands in when MAIL_KEY is unset so
// the workflows fail loudly instead of pretending an email went out.
type NoopMailer struct{}

func (NoopMailer) Send(context.Context, Message) error { return ErrNotConfigured }
