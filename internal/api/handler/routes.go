package handler

import "github.com/gin-gonic/gin"

// Routes registers every endpoint on r.
func (h *Handler) Routes(r *gin.Engine) {
	r.GET("/healthz", h.Health)
	r.GET("/ws", h.ServeWebSocket)

	chats := r.Group("/chats", h.RequireAuth())
	chats.POST("", h.CreateChat)
	chats.GET("", h.ListChats)
	chats.GET("/:id", h.GetChat)
	chats.GET("/:id/messages", h.ListMessages)
	chats.POST("/:id/messages", h.SendMessage)
	chats.POST("/:id/participants", h.AddParticipant)
	chats.DELETE("/:id/participants/:uid", h.RemoveParticipant)
	chats.POST("/:id/leave", h.LeaveChat)
}
