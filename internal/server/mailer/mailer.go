// Package mailer renders and sends the activation and password-reset
// messages of the auth flows.
package mailer

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"io/fs"
	"net/http"

	"github.com/dmitrijs2005/soundhub/internal/logging"
	"github.com/gofiber/template/django/v3"
)

const (
	SubjectActivation    = "Activate your user account"
	SubjectPasswordReset = "Password Reset request"

	templateActivation    = "activate_account"
	templatePasswordReset = "reset_password"
)

//go:embed templates/*.html
var templates embed.FS

// Message is a rendered email.
type Message struct {
	To       string
	Subject  string
	HTMLBody string
}

// Sender delivers a rendered message.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// Link holds the values a flow email needs to build its callback URL.
type Link struct {
	Protocol string
	Domain   string
	UID      string
	Token    string
}

// Dispatcher renders flow emails and hands them to a Sender. Delivery
// failures are logged and reported as false, never returned.
type Dispatcher struct {
	sender Sender
	views  *django.Engine
	logger logging.Logger
}

func NewDispatcher(sender Sender, logger logging.Logger) (*Dispatcher, error) {
	sub, err := fs.Sub(templates, "templates")
	if err != nil {
		return nil, err
	}

	views := django.NewFileSystem(http.FS(sub), ".html")
	if err := views.Load(); err != nil {
		return nil, fmt.Errorf("load mail templates: %w", err)
	}

	return &Dispatcher{sender: sender, views: views, logger: logger.With("module", "mailer")}, nil
}

// SendActivation sends the account activation link to email.
func (d *Dispatcher) SendActivation(ctx context.Context, email string, link Link) bool {
	return d.dispatch(ctx, email, SubjectActivation, templateActivation, link)
}

// SendPasswordReset sends the password reset link to email.
func (d *Dispatcher) SendPasswordReset(ctx context.Context, email string, link Link) bool {
	return d.dispatch(ctx, email, SubjectPasswordReset, templatePasswordReset, link)
}

func (d *Dispatcher) dispatch(ctx context.Context, email, subject, name string, link Link) bool {
	var body bytes.Buffer
	err := d.views.Render(&body, name, map[string]any{
		"email":    email,
		"protocol": link.Protocol,
		"domain":   link.Domain,
		"uid":      link.UID,
		"token":    link.Token,
	})
	if err != nil {
		d.logger.Error(ctx, "render mail", "template", name, "error", err)
		return false
	}

	if err := d.sender.Send(ctx, Message{To: email, Subject: subject, HTMLBody: body.String()}); err != nil {
		d.logger.Error(ctx, "send mail", "subject", subject, "error", err)
		return false
	}

	d.logger.Info(ctx, "mail sent", "subject", subject)
	return true
}
