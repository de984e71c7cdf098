// Package conversation defines the conversation domain model and the
// lifecycle service operating on it.
package conversation

import (
	"time"

	"helpdesk/services/conversation-api/internal/domain/replywindow"
	"helpdesk/services/conversation-api/internal/domain/status"
)

// Direction marks a message as inbound from the contact or outbound from an
// agent or bot.
type Direction string

const (
	DirectionIncoming Direction = "incoming"
	DirectionOutgoing Direction = "outgoing"
)

// Actor identifies who performed a lifecycle operation. A nil ID means the
// system itself acted (scheduled jobs, automation).
type Actor struct {
	ID   *uint
	Name string
}

// SystemActor is the sentinel used when no user context is present.
func SystemActor() Actor {
	return Actor{Name: "system"}
}

// IsSystem reports whether the actor is the system sentinel.
func (a Actor) IsSystem() bool {
	return a.ID == nil
}

// Account owns conversations and carries lifecycle configuration.
type Account struct {
	ID   uint   `json:"id"`
	Name string `json:"name"`
	// AutoResolveDuration is the inactivity window in days after which open
	// conversations are resolved automatically. Zero disables auto-resolution.
	AutoResolveDuration int `json:"auto_resolve_duration"`
}

// AutoResolveEnabled reports whether the account resolves idle conversations.
func (a *Account) AutoResolveEnabled() bool {
	return a != nil && a.AutoResolveDuration > 0
}

// AutoResolveDelay converts the configured day count into a duration.
func (a *Account) AutoResolveDelay() time.Duration {
	return time.Duration(a.AutoResolveDuration) * 24 * time.Hour
}

// Inbox is the channel endpoint a conversation arrived through.
type Inbox struct {
	ID         uint                `json:"id"`
	AccountID  uint                `json:"account_id"`
	Name       string              `json:"name"`
	Channel    replywindow.Channel `json:"channel"`
	BotEnabled bool                `json:"bot_enabled"`
}

// InitialStatus returns the status a new conversation starts in for this
// inbox: pending when a bot handles the first contact, open otherwise.
func (i *Inbox) InitialStatus() status.Status {
	if i != nil && i.BotEnabled {
		return status.StatusPending
	}
	return status.StatusOpen
}

// Agent is a support agent eligible for assignment.
type Agent struct {
	ID        uint   `json:"id"`
	Name      string `json:"name"`
	Role      string `json:"role"`
	Available bool   `json:"available"`
}

// Message is an opaque append-only log entry in a conversation.
type Message struct {
	ID             uint      `json:"id"`
	ConversationID uint      `json:"conversation_id"`
	Direction      Direction `json:"direction"`
	Content        string    `json:"content"`
	CreatedAt      time.Time `json:"created_at"`
}

// Activity is an immutable system-generated log line recording a lifecycle
// side effect.
type Activity struct {
	ID             uint      `json:"id"`
	ConversationID uint      `json:"conversation_id"`
	Content        string    `json:"content"`
	ActorName      string    `json:"actor_name"`
	CreatedAt      time.Time `json:"created_at"`
}

// Conversation is the central support-thread entity.
type Conversation struct {
	ID uint `json:"-"`
	// DisplayID is the per-account numeric sequence shown to users. Assigned
	// exactly once at creation, never reused.
	DisplayID int64 `json:"display_id"`
	// UUID is the globally unique opaque identifier, immutable after creation.
	UUID string `json:"uuid"`

	AccountID  uint          `json:"account_id"`
	InboxID    uint          `json:"inbox_id"`
	Status     status.Status `json:"status"`
	AssigneeID *uint         `json:"assignee_id,omitempty"`
	Labels     []string      `json:"labels"`

	LastActivityAt    time.Time  `json:"last_activity_at"`
	ContactLastSeenAt *time.Time `json:"contact_last_seen_at,omitempty"`
	AgentLastSeenAt   *time.Time `json:"agent_last_seen_at,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relations (loaded conditionally)
	Account  *Account  `json:"-"`
	Inbox    *Inbox    `json:"-"`
	Assignee *Agent    `json:"-"`
	Messages []Message `json:"-"`
}

// LatestMessage returns the most recent message, or nil when the log is
// empty.
func (c *Conversation) LatestMessage() *Message {
	if len(c.Messages) == 0 {
		return nil
	}
	latest := &c.Messages[0]
	for i := range c.Messages {
		if c.Messages[i].CreatedAt.After(latest.CreatedAt) {
			latest = &c.Messages[i]
		}
	}
	return latest
}

// LastIncomingMessageAt returns the timestamp of the most recent incoming
// message, or nil when the contact has never written.
func (c *Conversation) LastIncomingMessageAt() *time.Time {
	var last *time.Time
	for i := range c.Messages {
		m := &c.Messages[i]
		if m.Direction != DirectionIncoming {
			continue
		}
		if last == nil || m.CreatedAt.After(*last) {
			last = &m.CreatedAt
		}
	}
	return last
}

// UnreadMessages returns messages created after the assigned agent last saw
// the conversation.
func (c *Conversation) UnreadMessages() []Message {
	if c.AgentLastSeenAt == nil {
		return c.Messages
	}
	var unread []Message
	for _, m := range c.Messages {
		if m.CreatedAt.After(*c.AgentLastSeenAt) {
			unread = append(unread, m)
		}
	}
	return unread
}

// UnreadIncomingMessages returns the incoming subset of UnreadMessages.
func (c *Conversation) UnreadIncomingMessages() []Message {
	var unread []Message
	for _, m := range c.UnreadMessages() {
		if m.Direction == DirectionIncoming {
			unread = append(unread, m)
		}
	}
	return unread
}

// CanReply reports whether an outbound reply is currently permitted on the
// conversation's channel.
func (c *Conversation) CanReply(now time.Time) bool {
	var channel replywindow.Channel
	if c.Inbox != nil {
		channel = c.Inbox.Channel
	}
	return replywindow.CanReply(channel, c.LastIncomingMessageAt(), now)
}

// HasLabel reports whether the conversation carries the given label title.
func (c *Conversation) HasLabel(title string) bool {
	for _, l := range c.Labels {
		if l == title {
			return true
		}
	}
	return false
}

// AgentSummary is the compact assignee representation used in push payloads.
type AgentSummary struct {
	ID   uint   `json:"id"`
	Name string `json:"name"`
}

// PushEventData is the read-only projection consumed by the real-time
// transport collaborator. Timestamps are integer epoch seconds.
type PushEventData struct {
	DisplayID         int64         `json:"display_id"`
	UUID              string        `json:"uuid"`
	Status            string        `json:"status"`
	InboxID           uint          `json:"inbox_id"`
	Assignee          *AgentSummary `json:"assignee,omitempty"`
	Labels            []string      `json:"labels"`
	LastActivityAt    int64         `json:"last_activity_at"`
	ContactLastSeenAt int64         `json:"contact_last_seen_at"`
	AgentLastSeenAt   int64         `json:"agent_last_seen_at"`
	CreatedAt         int64         `json:"created_at"`
	CanReply          bool          `json:"can_reply"`
	UnreadCount       int           `json:"unread_count"`
}

// ToPushEvent builds the real-time projection of the conversation.
func (c *Conversation) ToPushEvent(now time.Time) PushEventData {
	data := PushEventData{
		DisplayID:      c.DisplayID,
		UUID:           c.UUID,
		Status:         c.Status.String(),
		InboxID:        c.InboxID,
		Labels:         c.Labels,
		LastActivityAt: c.LastActivityAt.Unix(),
		CreatedAt:      c.CreatedAt.Unix(),
		CanReply:       c.CanReply(now),
		UnreadCount:    len(c.UnreadIncomingMessages()),
	}
	if data.Labels == nil {
		data.Labels = []string{}
	}
	if c.ContactLastSeenAt != nil {
		data.ContactLastSeenAt = c.ContactLastSeenAt.Unix()
	}
	if c.AgentLastSeenAt != nil {
		data.AgentLastSeenAt = c.AgentLastSeenAt.Unix()
	}
	if c.Assignee != nil {
		data.Assignee = &AgentSummary{ID: c.Assignee.ID, Name: c.Assignee.Name}
	}
	return data
}
