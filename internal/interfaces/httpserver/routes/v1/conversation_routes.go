package v1

import (
	"github.com/gin-gonic/gin"

	"helpdesk/services/conversation-api/internal/interfaces/httpserver/handlers"
)

func registerConversationRoutes(router gin.IRoutes, handler *handlers.ConversationHandler) {
	router.POST("/conversations", handler.Create)
	router.GET("/conversations/:conversation_id", handler.Get)
	router.PATCH("/conversations/:conversation_id", handler.Update)
	router.DELETE("/conversations/:conversation_id", handler.Delete)

	router.POST("/conversations/:conversation_id/toggle_status", handler.ToggleStatus)
	router.POST("/conversations/:conversation_id/mute", handler.Mute)
	router.POST("/conversations/:conversation_id/unmute", handler.Unmute)
	router.POST("/conversations/:conversation_id/labels", handler.UpdateLabels)
	router.POST("/conversations/:conversation_id/assignments", handler.AssignNext)
	router.POST("/conversations/:conversation_id/messages", handler.AppendMessage)
	router.POST("/conversations/:conversation_id/seen", handler.MarkSeen)

	router.GET("/conversations/:conversation_id/activities", handler.Activities)
	router.GET("/conversations/:conversation_id/push_event", handler.PushEvent)
}
