package sendgrid

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/mail"
	"strings"

	"github.com/rs/zerolog"
	"github.com/sendgrid/sendgrid-go"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"
)

const (
	defaultHost = "https://api.sendgrid.com"
	endpoint    = "/v3/mail/send"
)

// ErrRejected indicates SendGrid answered with a non-success status.
var ErrRejected = errors.New("sendgrid rejected message")

// Config contains credentials and sender identity for outgoing mail.
type Config struct {
	APIKey      string
	FromName    string
	FromAddress string
	Host        string
}

// Service sends transactional email through the SendGrid v3 API.
type Service struct {
	key    string
	host   string
	from   *sgmail.Email
	logger zerolog.Logger
}

// New constructs a SendGrid service instance.
func New(cfg Config, logger zerolog.Logger) (*Service, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("sendgrid api key must be provided")
	}
	if cfg.FromAddress == "" {
		return nil, fmt.Errorf("sender address must be provided")
	}
	host := strings.TrimRight(cfg.Host, "/")
	if host == "" {
		host = defaultHost
	}

	return &Service{
		key:    cfg.APIKey,
		host:   host,
		from:   sgmail.NewEmail(cfg.FromName, cfg.FromAddress),
		logger: logger.With().Str("component", "sendgrid").Logger(),
	}, nil
}

// Deliver sends one message with both HTML and plain-text bodies.
func (s *Service) Deliver(ctx context.Context, to mail.Address, subject, html, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	p := sgmail.NewPersonalization()
	p.Subject = subject
	p.AddTos(sgmail.NewEmail(to.Name, to.Address))

	m := sgmail.NewV3Mail()
	m.SetFrom(s.from)
	m.AddPersonalizations(p)
	m.AddContent(
		sgmail.NewContent("text/plain", text),
		sgmail.NewContent("text/html", html),
	)

	req := sendgrid.GetRequest(s.key, endpoint, s.host)
	req.Method = http.MethodPost
	req.Body = sgmail.GetRequestBody(m)

	res, err := sendgrid.API(req)
	if err != nil {
		return fmt.Errorf("send mail: %w", err)
	}
	if res.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("%w: status %d", ErrRejected, res.StatusCode)
	}

	s.logger.Debug().Int("status", res.StatusCode).Str("subject", subject).Msg("mail accepted")
	return nil
}
