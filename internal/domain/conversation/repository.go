package conversation

import (
	"context"
	"time"
)

// Repository is the persistence collaborator for conversations and their
// dependent records.
type Repository interface {
	// Create persists a new conversation, allocating the next per-account
	// display id atomically.
	Create(ctx context.Context, conv *Conversation) error

	// FindByID loads a conversation with its account, inbox, assignee and
	// message log.
	FindByID(ctx context.Context, id uint) (*Conversation, error)

	// Update persists the conversation's mutable fields.
	Update(ctx context.Context, conv *Conversation) error

	// Delete removes the conversation and cascades to dependent
	// notification, activity and message records.
	Delete(ctx context.Context, id uint) error

	// AppendActivity records an immutable lifecycle log entry.
	AppendActivity(ctx context.Context, entry *Activity) error

	// AppendMessage appends to the opaque message log.
	AppendMessage(ctx context.Context, msg *Message) error

	// ListActivities returns the activity log, oldest first.
	ListActivities(ctx context.Context, conversationID uint) ([]*Activity, error)

	// FindAccount and FindInbox resolve the owning context of a conversation.
	FindAccount(ctx context.Context, id uint) (*Account, error)
	FindInbox(ctx context.Context, id uint) (*Inbox, error)

	// ListAutoResolveCandidates returns ids of open conversations whose
	// account has auto-resolution enabled and whose last activity is older
	// than the configured duration.
	ListAutoResolveCandidates(ctx context.Context, now time.Time, limit int) ([]uint, error)
}

// AgentRepository resolves agents and inbox membership. Availability is
// maintained by the presence collaborator.
type AgentRepository interface {
	FindByID(ctx context.Context, id uint) (*Agent, error)

	// InboxMembers returns the inbox's agents in their fixed round-robin
	// ordering.
	InboxMembers(ctx context.Context, inboxID uint) ([]Agent, error)
}
