package event_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"helpdesk/services/conversation-api/internal/domain/conversation"
	"helpdesk/services/conversation-api/internal/domain/event"
)

func TestDispatcher_RegistrationOrder(t *testing.T) {
	d := event.NewDispatcher(zerolog.Nop())

	var order []string
	d.Subscribe(event.SubscriberFunc(func(ctx context.Context, evt event.Event) error {
		order = append(order, "first")
		return nil
	}))
	d.Subscribe(event.SubscriberFunc(func(ctx context.Context, evt event.Event) error {
		order = append(order, "second")
		return nil
	}))

	d.Dispatch(context.Background(), event.ConversationCreated, time.Now(), &conversation.Conversation{ID: 1})

	if len(order) != 2 || order[0] != "first" || order[1] != "second" {
		t.Fatalf("subscribers ran out of order: %v", order)
	}
}

func TestDispatcher_PayloadCarriesConversation(t *testing.T) {
	d := event.NewDispatcher(zerolog.Nop())
	conv := &conversation.Conversation{ID: 42, DisplayID: 7}

	var got event.Event
	d.Subscribe(event.SubscriberFunc(func(ctx context.Context, evt event.Event) error {
		got = evt
		return nil
	}))

	at := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	d.Dispatch(context.Background(), event.ConversationResolved, at, conv)

	if got.Name != event.ConversationResolved {
		t.Errorf("event name = %q, want %q", got.Name, event.ConversationResolved)
	}
	if !got.Timestamp.Equal(at) {
		t.Errorf("event timestamp = %v, want %v", got.Timestamp, at)
	}
	if got.Conversation != conv {
		t.Error("event payload does not carry the conversation reference")
	}
}

func TestDispatcher_SubscriberFailureIsIsolated(t *testing.T) {
	d := event.NewDispatcher(zerolog.Nop())

	ran := false
	d.Subscribe(event.SubscriberFunc(func(ctx context.Context, evt event.Event) error {
		return errors.New("mailer down")
	}))
	d.Subscribe(event.SubscriberFunc(func(ctx context.Context, evt event.Event) error {
		panic("websocket hub gone")
	}))
	d.Subscribe(event.SubscriberFunc(func(ctx context.Context, evt event.Event) error {
		ran = true
		return nil
	}))

	// Must not panic or return an error into the caller.
	d.Dispatch(context.Background(), event.AssigneeChanged, time.Now(), &conversation.Conversation{})

	if !ran {
		t.Error("later subscriber did not run after earlier failures")
	}
}
