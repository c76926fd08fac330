package service

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	htmltmpl "html/template"
	"net/mail"
	texttmpl "text/template"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/noah-isme/olympiad-api/internal/observability"
)

const (
	mailBrand        = "Global Innovator Olympiad"
	mailSupportPhone = "+91 959 440 2916"

	templateCoordinatorRegistration = "coordinator_registration"
	templateCoordinatorApproval     = "coordinator_approval"
)

//go:embed templates/*.gohtml templates/*.txt
var mailTemplates embed.FS

var mailSubjects = map[string]string{
	templateCoordinatorRegistration: "Welcome to Global Innovator Olympiad!",
	templateCoordinatorApproval:     "Your Coordinator Account Has Been Approved!",
}

// MailDelivery sends a rendered message. Implemented by pkg/sendgrid and LogMailDelivery.
type MailDelivery interface {
	Deliver(ctx context.Context, to mail.Address, subject, html, text string) error
}

// Mailer renders and sends the transactional emails.
type Mailer interface {
	SendCoordinatorRegistration(ctx context.Context, name, email string) error
	SendCoordinatorApproval(ctx context.Context, name, email string) error
}

type mailData struct {
	Name         string
	Brand        string
	SupportPhone string
}

type mailer struct {
	delivery MailDelivery
	html     *htmltmpl.Template
	text     *texttmpl.Template
	logger   zerolog.Logger
	tracer   trace.Tracer
}

// NewMailer parses the embedded templates and wraps delivery.
func NewMailer(delivery MailDelivery, logger zerolog.Logger) (Mailer, error) {
	html, err := htmltmpl.ParseFS(mailTemplates, "templates/*.gohtml")
	if err != nil {
		return nil, fmt.Errorf("parse html templates: %w", err)
	}
	text, err := texttmpl.ParseFS(mailTemplates, "templates/*.txt")
	if err != nil {
		return nil, fmt.Errorf("parse text templates: %w", err)
	}

	return &mailer{
		delivery: delivery,
		html:     html,
		text:     text,
		logger:   logger.With().Str("component", "mailer").Logger(),
		tracer:   otel.Tracer("github.com/noah-isme/olympiad-api/internal/service/mailer"),
	}, nil
}

func (m *mailer) SendCoordinatorRegistration(ctx context.Context, name, email string) error {
	return m.send(ctx, templateCoordinatorRegistration, name, email)
}

func (m *mailer) SendCoordinatorApproval(ctx context.Context, name, email string) error {
	return m.send(ctx, templateCoordinatorApproval, name, email)
}

func (m *mailer) send(ctx context.Context, name, recipientName, address string) error {
	ctx, span := m.tracer.Start(ctx, "mail.send", trace.WithAttributes(attribute.String("mail.template", name)))
	defer span.End()

	data := mailData{Name: recipientName, Brand: mailBrand, SupportPhone: mailSupportPhone}

	var html, text bytes.Buffer
	if err := m.html.ExecuteTemplate(&html, name+".gohtml", data); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "render failed")
		observability.EmailDeliveries().WithLabelValues(name, "error").Inc()
		return fmt.Errorf("render %s: %w", name, err)
	}
	if err := m.text.ExecuteTemplate(&text, name+".txt", data); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "render failed")
		observability.EmailDeliveries().WithLabelValues(name, "error").Inc()
		return fmt.Errorf("render %s: %w", name, err)
	}

	to := mail.Address{Name: recipientName, Address: address}
	if err := m.delivery.Deliver(ctx, to, mailSubjects[name], html.String(), text.String()); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "delivery failed")
		observability.EmailDeliveries().WithLabelValues(name, "failed").Inc()
		m.logger.Warn().Err(err).Str("template", name).Str("email", maskEmailAddress(address)).Msg("email delivery failed")
		return err
	}

	observability.EmailDeliveries().WithLabelValues(name, "sent").Inc()
	m.logger.Info().Str("template", name).Str("email", maskEmailAddress(address)).Msg("email sent")
	return nil
}
