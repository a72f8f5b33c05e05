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

// CourseEvent is the wire shape fanned out to other nodes and consumers
// when something graders or students care about happened.
type CourseEvent struct {
	Source  string                 `json:"source"`
	Type    string                 `json:"type"`
	Payload map[string]interface{} `json:"payload"`
	SentAt  time.Time              `json:"sent_at"`
}

// Event types emitted by the coursework services.
const (
	EventFreezeCompleted    = "freeze.completed"
	EventSubmissionReviewed = "submission.reviewed"
)

// EventPublisher broadcasts course events. Publishing is always best-effort;
// a broker outage must never fail the operation that triggered the event.
type EventPublisher interface {
	Publish(ctx context.Context, eventType string, payload map[string]interface{})
}

type brokerEventPublisher struct {
	redis   *redis.Client
	channel string
	nats    *nats.Conn
	subject string
	logger  zerolog.Logger
	nodeID  string
}

// NewEventPublisher constructs a publisher over the configured brokers.
// Either client may be nil; with both nil the publisher is a no-op.
func NewEventPublisher(redisClient *redis.Client, channelBase string, natsConn *nats.Conn, logger zerolog.Logger) EventPublisher {
	channel := ""
	subject := ""
	if channelBase != "" {
		channel = channelBase + ":events"
		subject = strings.ReplaceAll(channelBase, ":", ".") + ".events"
	}

	return &brokerEventPublisher{
		redis:   redisClient,
		channel: channel,
		nats:    natsConn,
		subject: subject,
		logger:  logger.With().Str("component", "event_publisher").Logger(),
		nodeID:  uuid.NewString(),
	}
}

func (p *brokerEventPublisher) Publish(ctx context.Context, eventType string, payload map[string]interface{}) {
	event := CourseEvent{
		Source:  p.nodeID,
		Type:    eventType,
		Payload: payload,
		SentAt:  time.Now().UTC(),
	}

	data, err := json.Marshal(event)
	if err != nil {
		p.logger.Warn().Err(err).Str("event_type", eventType).Msg("failed to encode course event")
		return
	}

	if p.redis != nil && p.channel != "" {
		if err := p.redis.Publish(ctx, p.channel, data).Err(); err != nil {
			p.logger.Warn().Err(err).Str("event_type", eventType).Msg("failed to publish course event to redis")
		}
	}

	if p.nats != nil && p.subject != "" {
		if err := p.nats.Publish(p.subject, data); err != nil {
			p.logger.Warn().Err(err).Str("event_type", eventType).Msg("failed to publish course event to nats")
		}
	}
}
