package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"helpdesk/services/conversation-api/internal/domain/conversation"
	"helpdesk/services/conversation-api/internal/domain/status"
	"helpdesk/services/conversation-api/internal/interfaces/httpserver/requests"
	"helpdesk/services/conversation-api/internal/interfaces/httpserver/responses"
)

// ConversationHandler exposes the conversation lifecycle over HTTP.
type ConversationHandler struct {
	service conversation.Service
	log     zerolog.Logger
}

// NewConversationHandler constructs the handler.
func NewConversationHandler(service conversation.Service, log zerolog.Logger) *ConversationHandler {
	return &ConversationHandler{
		service: service,
		log:     log.With().Str("handler", "conversation").Logger(),
	}
}

func conversationID(c *gin.Context) (uint, bool) {
	raw := c.Param("conversation_id")
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil || id == 0 {
		c.AbortWithStatusJSON(http.StatusBadRequest, responses.ErrorResponse{
			Error: "invalid conversation id",
		})
		return 0, false
	}
	return uint(id), true
}

// Create handles POST /v1/conversations.
func (h *ConversationHandler) Create(c *gin.Context) {
	var req requests.CreateConversationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, responses.ErrorResponse{Error: "invalid request body", Message: err.Error()})
		return
	}

	conv, err := h.service.Create(c.Request.Context(), conversation.CreateParams{
		AccountID:  req.AccountID,
		InboxID:    req.InboxID,
		AssigneeID: req.AssigneeID,
		Labels:     req.Labels,
	}, req.Actor.Actor())
	if err != nil {
		responses.HandleError(c, err, "failed to create conversation")
		return
	}

	c.JSON(http.StatusCreated, responses.MapConversation(conv, false))
}

// Get handles GET /v1/conversations/:conversation_id.
func (h *ConversationHandler) Get(c *gin.Context) {
	id, ok := conversationID(c)
	if !ok {
		return
	}

	conv, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		responses.HandleError(c, err, "failed to get conversation")
		return
	}

	muted, err := h.service.Muted(c.Request.Context(), id)
	if err != nil {
		responses.HandleError(c, err, "failed to read mute flag")
		return
	}

	c.JSON(http.StatusOK, responses.MapConversation(conv, muted))
}

// Update handles PATCH /v1/conversations/:conversation_id.
func (h *ConversationHandler) Update(c *gin.Context) {
	id, ok := conversationID(c)
	if !ok {
		return
	}

	var req requests.UpdateConversationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, responses.ErrorResponse{Error: "invalid request body", Message: err.Error()})
		return
	}

	params := conversation.UpdateParams{
		AssigneeID:        req.AssigneeID,
		Unassign:          req.Unassign,
		ContactLastSeenAt: req.ContactSeenTime(),
	}
	if req.Status != nil {
		parsed, err := status.Parse(*req.Status)
		if err != nil {
			c.JSON(http.StatusBadRequest, responses.ErrorResponse{Error: "invalid conversation status", Message: err.Error()})
			return
		}
		params.Status = &parsed
	}

	conv, err := h.service.Update(c.Request.Context(), id, params, req.Actor.Actor())
	if err != nil {
		responses.HandleError(c, err, "failed to update conversation")
		return
	}

	muted, err := h.service.Muted(c.Request.Context(), id)
	if err != nil {
		responses.HandleError(c, err, "failed to read mute flag")
		return
	}

	c.JSON(http.StatusOK, responses.MapConversation(conv, muted))
}

// ToggleStatus handles POST /v1/conversations/:conversation_id/toggle_status.
func (h *ConversationHandler) ToggleStatus(c *gin.Context) {
	id, ok := conversationID(c)
	if !ok {
		return
	}

	var req requests.ActorOnlyRequest
	if err := c.ShouldBindJSON(&req); err != nil && err.Error() != "EOF" {
		c.JSON(http.StatusBadRequest, responses.ErrorResponse{Error: "invalid request body", Message: err.Error()})
		return
	}

	conv, err := h.service.ToggleStatus(c.Request.Context(), id, req.Actor.Actor())
	if err != nil {
		responses.HandleError(c, err, "failed to toggle conversation status")
		return
	}

	muted, err := h.service.Muted(c.Request.Context(), id)
	if err != nil {
		responses.HandleError(c, err, "failed to read mute flag")
		return
	}

	c.JSON(http.StatusOK, responses.MapConversation(conv, muted))
}

// Mute handles POST /v1/conversations/:conversation_id/mute.
func (h *ConversationHandler) Mute(c *gin.Context) {
	id, ok := conversationID(c)
	if !ok {
		return
	}

	var req requests.ActorOnlyRequest
	if err := c.ShouldBindJSON(&req); err != nil && err.Error() != "EOF" {
		c.JSON(http.StatusBadRequest, responses.ErrorResponse{Error: "invalid request body", Message: err.Error()})
		return
	}

	if err := h.service.Mute(c.Request.Context(), id, req.Actor.Actor()); err != nil {
		responses.HandleError(c, err, "failed to mute conversation")
		return
	}

	c.Status(http.StatusNoContent)
}

// Unmute handles POST /v1/conversations/:conversation_id/unmute.
func (h *ConversationHandler) Unmute(c *gin.Context) {
	id, ok := conversationID(c)
	if !ok {
		return
	}

	var req requests.ActorOnlyRequest
	if err := c.ShouldBindJSON(&req); err != nil && err.Error() != "EOF" {
		c.JSON(http.StatusBadRequest, responses.ErrorResponse{Error: "invalid request body", Message: err.Error()})
		return
	}

	if err := h.service.Unmute(c.Request.Context(), id, req.Actor.Actor()); err != nil {
		responses.HandleError(c, err, "failed to unmute conversation")
		return
	}

	c.Status(http.StatusNoContent)
}

// UpdateLabels handles POST /v1/conversations/:conversation_id/labels.
func (h *ConversationHandler) UpdateLabels(c *gin.Context) {
	id, ok := conversationID(c)
	if !ok {
		return
	}

	var req requests.UpdateLabelsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, responses.ErrorResponse{Error: "invalid request body", Message: err.Error()})
		return
	}

	delta, err := h.service.UpdateLabels(c.Request.Context(), id, req.Labels, req.Actor.Actor())
	if err != nil {
		responses.HandleError(c, err, "failed to update labels")
		return
	}

	c.JSON(http.StatusOK, responses.MapLabelDelta(delta))
}

// AssignNext handles POST /v1/conversations/:conversation_id/assignments.
func (h *ConversationHandler) AssignNext(c *gin.Context) {
	id, ok := conversationID(c)
	if !ok {
		return
	}

	var req requests.ActorOnlyRequest
	if err := c.ShouldBindJSON(&req); err != nil && err.Error() != "EOF" {
		c.JSON(http.StatusBadRequest, responses.ErrorResponse{Error: "invalid request body", Message: err.Error()})
		return
	}

	agent, err := h.service.AssignNext(c.Request.Context(), id, req.Actor.Actor())
	if err != nil {
		responses.HandleError(c, err, "failed to assign conversation")
		return
	}

	if agent == nil {
		c.JSON(http.StatusOK, gin.H{"assignee": nil})
		return
	}
	c.JSON(http.StatusOK, gin.H{"assignee": responses.AgentPayload{ID: agent.ID, Name: agent.Name}})
}

// AppendMessage handles POST /v1/conversations/:conversation_id/messages.
func (h *ConversationHandler) AppendMessage(c *gin.Context) {
	id, ok := conversationID(c)
	if !ok {
		return
	}

	var req requests.AppendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, responses.ErrorResponse{Error: "invalid request body", Message: err.Error()})
		return
	}

	msg, err := h.service.AppendMessage(c.Request.Context(), id, conversation.Direction(req.Direction), req.Content)
	if err != nil {
		responses.HandleError(c, err, "failed to append message")
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"id":         msg.ID,
		"direction":  msg.Direction,
		"created_at": msg.CreatedAt.Unix(),
	})
}

// MarkSeen handles POST /v1/conversations/:conversation_id/seen.
func (h *ConversationHandler) MarkSeen(c *gin.Context) {
	id, ok := conversationID(c)
	if !ok {
		return
	}

	var req requests.MarkSeenRequest
	if err := c.ShouldBindJSON(&req); err != nil && err.Error() != "EOF" {
		c.JSON(http.StatusBadRequest, responses.ErrorResponse{Error: "invalid request body", Message: err.Error()})
		return
	}

	if err := h.service.MarkAgentSeen(c.Request.Context(), id, req.SeenTime()); err != nil {
		responses.HandleError(c, err, "failed to mark conversation seen")
		return
	}

	c.Status(http.StatusNoContent)
}

// Activities handles GET /v1/conversations/:conversation_id/activities.
func (h *ConversationHandler) Activities(c *gin.Context) {
	id, ok := conversationID(c)
	if !ok {
		return
	}

	entries, err := h.service.Activities(c.Request.Context(), id)
	if err != nil {
		responses.HandleError(c, err, "failed to list activities")
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": responses.MapActivities(entries)})
}

// PushEvent handles GET /v1/conversations/:conversation_id/push_event.
func (h *ConversationHandler) PushEvent(c *gin.Context) {
	id, ok := conversationID(c)
	if !ok {
		return
	}

	data, err := h.service.PushEvent(c.Request.Context(), id)
	if err != nil {
		responses.HandleError(c, err, "failed to build push event")
		return
	}

	c.JSON(http.StatusOK, data)
}

// Delete handles DELETE /v1/conversations/:conversation_id.
func (h *ConversationHandler) Delete(c *gin.Context) {
	id, ok := conversationID(c)
	if !ok {
		return
	}

	if err := h.service.Delete(c.Request.Context(), id); err != nil {
		responses.HandleError(c, err, "failed to delete conversation")
		return
	}

	c.Status(http.StatusNoContent)
}
