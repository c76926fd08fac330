package service

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// Domain events published after the corresponding write succeeded.
const (
	EventCertificateIssued      = "certificate.issued"
	EventCoordinatorApproved    = "coordinator.approved"
	EventIncentivesRecalculated = "incentives.recalculated"
)

// EventPublisher fans domain events out to other processes. Publishing is best effort.
type EventPublisher interface {
	Publish(ctx context.Context, event string, payload any)
}

// Event is the envelope written to redis and NATS.
type Event struct {
	Source  string          `json:"source"`
	Event   string          `json:"event"`
	Payload json.RawMessage `json:"payload"`
	SentAt  time.Time       `json:"sentAt"`
}

type busPublisher struct {
	redis        *redis.Client
	redisChannel string
	nats         *nats.Conn
	natsSubject  string
	logger       zerolog.Logger
	nodeID       string
}

// NewEventPublisher publishes to the redis channel "<base>:events" and the NATS subject
// "<base>.<event>". Either transport may be nil.
func NewEventPublisher(redisClient *redis.Client, natsConn *nats.Conn, base string, logger zerolog.Logger) EventPublisher {
	channel := ""
	subject := ""
	if base != "" {
		channel = base + ":events"
		subject = strings.ReplaceAll(base, ":", ".")
	}

	return &busPublisher{
		redis:        redisClient,
		redisChannel: channel,
		nats:         natsConn,
		natsSubject:  subject,
		logger:       logger.With().Str("component", "event_publisher").Logger(),
		nodeID:       uuid.NewString(),
	}
}

func (p *busPublisher) Publish(ctx context.Context, event string, payload any) {
	body, err := json.Marshal(payload)
	if err != nil {
		p.logger.Warn().Err(err).Str("event", event).Msg("failed to encode event payload")
		return
	}

	envelope, err := json.Marshal(Event{Source: p.nodeID, Event: event, Payload: body, SentAt: time.Now().UTC()})
	if err != nil {
		p.logger.Warn().Err(err).Str("event", event).Msg("failed to encode event")
		return
	}

	if p.redis != nil && p.redisChannel != "" {
		if err := p.redis.Publish(ctx, p.redisChannel, envelope).Err(); err != nil {
			p.logger.Warn().Err(err).Str("event", event).Msg("failed to publish event to redis")
		}
	}

	if p.nats != nil && p.natsSubject != "" {
		if err := p.nats.Publish(p.natsSubject+"."+event, envelope); err != nil {
			p.logger.Warn().Err(err).Str("event", event).Msg("failed to publish event to nats")
		}
	}
}

type noopPublisher struct{}

func (noopPublisher) Publish(context.Context, string, any) {}
