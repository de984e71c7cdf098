// Package event implements process-wide fan-out of named lifecycle events to
// registered subscribers.
package event

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"helpdesk/services/conversation-api/internal/domain/conversation"
	"helpdesk/services/conversation-api/internal/infrastructure/metrics"
)

// Named lifecycle events dispatched by the conversation core.
const (
	ConversationCreated  = conversation.EventConversationCreated
	ConversationResolved = conversation.EventConversationResolved
	ConversationRead     = conversation.EventConversationRead
	AssigneeChanged      = conversation.EventAssigneeChanged
)

// Event is the payload delivered to subscribers. It always carries the
// conversation reference.
type Event struct {
	Name         string
	Timestamp    time.Time
	Conversation *conversation.Conversation
}

// Subscriber receives dispatched events. An error return is logged and
// counted; it is never propagated into the business transaction that
// triggered the event.
type Subscriber interface {
	HandleEvent(ctx context.Context, evt Event) error
}

// SubscriberFunc adapts a function to the Subscriber interface.
type SubscriberFunc func(ctx context.Context, evt Event) error

// HandleEvent implements Subscriber.
func (f SubscriberFunc) HandleEvent(ctx context.Context, evt Event) error {
	return f(ctx, evt)
}

// Dispatcher fans events out to subscribers synchronously, in registration
// order, within the triggering operation's critical section. Subscribers must
// be registered before dispatching begins; registration is not synchronized
// against concurrent dispatch.
type Dispatcher struct {
	subscribers []Subscriber
	log         zerolog.Logger
}

// NewDispatcher creates an empty dispatcher.
func NewDispatcher(log zerolog.Logger) *Dispatcher {
	return &Dispatcher{
		log: log.With().Str("component", "event-dispatcher").Logger(),
	}
}

// Subscribe registers a subscriber for all lifecycle events.
func (d *Dispatcher) Subscribe(sub Subscriber) {
	d.subscribers = append(d.subscribers, sub)
}

// Dispatch delivers the event to every subscriber in registration order.
// A panicking or failing subscriber is isolated: the failure is logged and
// counted, remaining subscribers still run, and the caller never sees an
// error.
func (d *Dispatcher) Dispatch(ctx context.Context, name string, at time.Time, conv *conversation.Conversation) {
	evt := Event{Name: name, Timestamp: at, Conversation: conv}
	metrics.EventsDispatched.WithLabelValues(name).Inc()

	for _, sub := range d.subscribers {
		d.deliver(ctx, sub, evt)
	}
}

func (d *Dispatcher) deliver(ctx context.Context, sub Subscriber, evt Event) {
	defer func() {
		if r := recover(); r != nil {
			metrics.SubscriberFailures.WithLabelValues(evt.Name).Inc()
			d.log.Error().
				Str("event", evt.Name).
				Interface("panic", r).
				Msg("subscriber panicked")
		}
	}()

	if err := sub.HandleEvent(ctx, evt); err != nil {
		metrics.SubscriberFailures.WithLabelValues(evt.Name).Inc()
		d.log.Error().
			Err(err).
			Str("event", evt.Name).
			Msg("subscriber failed")
	}
}
