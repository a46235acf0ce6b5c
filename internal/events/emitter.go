package events

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"chat-client/internal/observability"
)

// Activity event types emitted by the store.
const (
	TypeChatOpened  = "chat_opened"
	TypeMessageSent = "message_sent"
	TypeChatDeleted = "chat_deleted"
)

// Envelope is the wire format of one activity event.
type Envelope struct {
	SchemaVersion int    `json:"schema_version"`
	EventType     string `json:"event_type"`
	EventID       string `json:"event_id"`
	OccurredAt    string `json:"occurred_at"`
	Service       string `json:"service"`
	Environment   string `json:"environment"`
	UserID        string `json:"user_id,omitempty"`
	Payload       any    `json:"payload,omitempty"`
}

// Emitter wraps a Publisher with envelope bookkeeping. A nil Emitter or nil
// publisher is a safe noop.
type Emitter struct {
	publisher   Publisher
	service     string
	environment string
	logger      zerolog.Logger
}

// NewEmitter builds an Emitter.
func NewEmitter(publisher Publisher, service, environment string, logger zerolog.Logger) *Emitter {
	return &Emitter{
		publisher:   publisher,
		service:     service,
		environment: environment,
		logger:      logger,
	}
}

// Emit publishes one activity event. Failures are logged and counted, never
// returned: event delivery is best-effort.
func (e *Emitter) Emit(ctx context.Context, eventType, userID string, payload any) {
	if e == nil || e.publisher == nil {
		return
	}

	envelope := Envelope{
		SchemaVersion: 1,
		EventType:     eventType,
		EventID:       uuid.NewString(),
		OccurredAt:    time.Now().UTC().Format(time.RFC3339Nano),
		Service:       e.service,
		Environment:   e.environment,
		UserID:        userID,
		Payload:       payload,
	}

	if err := e.publisher.Publish(ctx, "chat."+eventType, envelope); err != nil {
		observability.IncEventPublishError()
		e.logger.Warn().Err(err).Str("eventType", eventType).Msg("event publish failed")
	}
}
