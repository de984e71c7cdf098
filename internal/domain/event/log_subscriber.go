package event

import (
	"context"

	"github.com/rs/zerolog"
)

// LogSubscriber writes every dispatched event to the log. It is the default
// subscriber wired at startup; transport-facing subscribers (webhooks,
// websocket hubs) register alongside it.
type LogSubscriber struct {
	log zerolog.Logger
}

// NewLogSubscriber creates the logging subscriber.
func NewLogSubscriber(log zerolog.Logger) *LogSubscriber {
	return &LogSubscriber{
		log: log.With().Str("component", "event-log").Logger(),
	}
}

// HandleEvent implements Subscriber.
func (s *LogSubscriber) HandleEvent(ctx context.Context, evt Event) error {
	entry := s.log.Info().
		Str("event", evt.Name).
		Time("at", evt.Timestamp)
	if evt.Conversation != nil {
		entry = entry.
			Uint("conversation_id", evt.Conversation.ID).
			Str("status", evt.Conversation.Status.String())
	}
	entry.Msg("lifecycle event")
	return nil
}
