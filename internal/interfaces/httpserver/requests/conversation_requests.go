package requests

import (
	"time"

	"helpdesk/services/conversation-api/internal/domain/conversation"
)

// ActorRequest identifies who performs a mutation. Absent on a request, the
// operation is attributed to the system.
type ActorRequest struct {
	ID   *uint  `json:"id"`
	Name string `json:"name"`
}

// Actor converts the request field to the domain actor.
func (a *ActorRequest) Actor() conversation.Actor {
	if a == nil || a.ID == nil {
		return conversation.SystemActor()
	}
	return conversation.Actor{ID: a.ID, Name: a.Name}
}

// CreateConversationRequest is the body of POST /v1/conversations.
type CreateConversationRequest struct {
	AccountID  uint          `json:"account_id" binding:"required"`
	InboxID    uint          `json:"inbox_id" binding:"required"`
	AssigneeID *uint         `json:"assignee_id"`
	Labels     []string      `json:"labels"`
	Actor      *ActorRequest `json:"actor"`
}

// UpdateConversationRequest is the body of PATCH /v1/conversations/:id. Nil
// fields are left untouched.
type UpdateConversationRequest struct {
	Status            *string       `json:"status"`
	AssigneeID        *uint         `json:"assignee_id"`
	Unassign          bool          `json:"unassign"`
	ContactLastSeenAt *int64        `json:"contact_last_seen_at"`
	Actor             *ActorRequest `json:"actor"`
}

// ContactSeenTime converts the epoch-second field.
func (r *UpdateConversationRequest) ContactSeenTime() *time.Time {
	if r.ContactLastSeenAt == nil {
		return nil
	}
	t := time.Unix(*r.ContactLastSeenAt, 0).UTC()
	return &t
}

// UpdateLabelsRequest is the body of POST /v1/conversations/:id/labels. The
// labels field is the full desired membership, not a delta.
type UpdateLabelsRequest struct {
	Labels []string      `json:"labels"`
	Actor  *ActorRequest `json:"actor"`
}

// ActorOnlyRequest is the body of mutations that take no other input
// (toggle, mute, unmute, assignments).
type ActorOnlyRequest struct {
	Actor *ActorRequest `json:"actor"`
}

// AppendMessageRequest is the body of POST /v1/conversations/:id/messages.
type AppendMessageRequest struct {
	Direction string `json:"direction" binding:"required"`
	Content   string `json:"content"`
}

// MarkSeenRequest is the body of POST /v1/conversations/:id/seen.
type MarkSeenRequest struct {
	SeenAt *int64 `json:"seen_at"`
}

// SeenTime returns the marker time, defaulting to now.
func (r *MarkSeenRequest) SeenTime() time.Time {
	if r.SeenAt == nil {
		return time.Now().UTC()
	}
	return time.Unix(*r.SeenAt, 0).UTC()
}
