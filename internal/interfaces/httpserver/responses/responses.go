package responses

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"helpdesk/services/conversation-api/internal/domain/conversation"
	"helpdesk/services/conversation-api/internal/utils/platformerrors"
)

// ErrorResponse is the uniform error body.
type ErrorResponse struct {
	Error   string `json:"error"`
	Type    string `json:"type,omitempty"`
	Message string `json:"message,omitempty"`
}

// HandleError maps domain errors to HTTP responses.
func HandleError(reqCtx *gin.Context, err error, message string) {
	errorType := platformerrors.TypeOf(err)
	status := platformerrors.HTTPStatus(errorType)

	body := ErrorResponse{
		Error:   message,
		Type:    string(errorType),
		Message: err.Error(),
	}
	if status == http.StatusInternalServerError {
		// Internal detail stays in the logs.
		body.Message = ""
	}

	reqCtx.AbortWithStatusJSON(status, body)
}

// AgentPayload is the compact agent representation.
type AgentPayload struct {
	ID   uint   `json:"id"`
	Name string `json:"name"`
}

// ConversationPayload is returned to clients.
type ConversationPayload struct {
	DisplayID         int64         `json:"display_id"`
	UUID              string        `json:"uuid"`
	AccountID         uint          `json:"account_id"`
	InboxID           uint          `json:"inbox_id"`
	Status            string        `json:"status"`
	Assignee          *AgentPayload `json:"assignee,omitempty"`
	Labels            []string      `json:"labels"`
	LastActivityAt    int64         `json:"last_activity_at"`
	ContactLastSeenAt int64         `json:"contact_last_seen_at,omitempty"`
	AgentLastSeenAt   int64         `json:"agent_last_seen_at,omitempty"`
	CreatedAt         int64         `json:"created_at"`
	Muted             bool          `json:"muted"`
}

// MapConversation builds the client payload from the domain model.
func MapConversation(conv *conversation.Conversation, muted bool) ConversationPayload {
	payload := ConversationPayload{
		DisplayID:      conv.DisplayID,
		UUID:           conv.UUID,
		AccountID:      conv.AccountID,
		InboxID:        conv.InboxID,
		Status:         conv.Status.String(),
		Labels:         conv.Labels,
		LastActivityAt: conv.LastActivityAt.Unix(),
		CreatedAt:      conv.CreatedAt.Unix(),
		Muted:          muted,
	}
	if payload.Labels == nil {
		payload.Labels = []string{}
	}
	if conv.ContactLastSeenAt != nil {
		payload.ContactLastSeenAt = conv.ContactLastSeenAt.Unix()
	}
	if conv.AgentLastSeenAt != nil {
		payload.AgentLastSeenAt = conv.AgentLastSeenAt.Unix()
	}
	if conv.Assignee != nil {
		payload.Assignee = &AgentPayload{ID: conv.Assignee.ID, Name: conv.Assignee.Name}
	} else if conv.AssigneeID != nil {
		payload.Assignee = &AgentPayload{ID: *conv.AssigneeID}
	}
	return payload
}

// ActivityPayload is one activity log line.
type ActivityPayload struct {
	Content   string `json:"content"`
	ActorName string `json:"actor_name"`
	CreatedAt int64  `json:"created_at"`
}

// MapActivities builds the activity log payload.
func MapActivities(entries []*conversation.Activity) []ActivityPayload {
	out := make([]ActivityPayload, 0, len(entries))
	for _, a := range entries {
		out = append(out, ActivityPayload{
			Content:   a.Content,
			ActorName: a.ActorName,
			CreatedAt: a.CreatedAt.Unix(),
		})
	}
	return out
}

// LabelDeltaPayload reports a label membership change.
type LabelDeltaPayload struct {
	Added   []string `json:"added"`
	Removed []string `json:"removed"`
}

// MapLabelDelta builds the label delta payload.
func MapLabelDelta(delta *conversation.LabelDelta) LabelDeltaPayload {
	out := LabelDeltaPayload{Added: []string{}, Removed: []string{}}
	if delta != nil {
		if delta.Added != nil {
			out.Added = delta.Added
		}
		if delta.Removed != nil {
			out.Removed = delta.Removed
		}
	}
	return out
}
