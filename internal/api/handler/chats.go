package handler

import (
	"chatcore/backend/internal/chat"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

type listMessagesQuery struct {
	Page  int `form:"page" binding:"omitempty,min=1"`
	Limit int `form:"limit" binding:"omitempty,min=1"`
}

type sendMessageRequest struct {
	Content string `json:"content" binding:"required"`
}

type addParticipantRequest struct {
	UserID uint `json:"userId" binding:"required"`
}

// CreateChat handles POST /chats.
func (h *Handler) CreateChat(c *gin.Context) {
	var in chat.CreateChatInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, err)
		return
	}
	created, err := h.Chats.CreateChat(c.Request.Context(), identityFrom(c), in)
	if err != nil {
		h.fail(c, err)
		return
	}
	respond(c, http.StatusCreated, "Chat created", created)
}

// ListChats handles GET /chats.
func (h *Handler) ListChats(c *gin.Context) {
	chats, err := h.Chats.ListChats(c.Request.Context(), identityFrom(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	respond(c, http.StatusOK, "Chats retrieved", chats)
}

// GetChat handles GET /chats/:id.
func (h *Handler) GetChat(c *gin.Context) {
	chatID, ok := pathID(c, "id")
	if !ok {
		return
	}
	found, err := h.Chats.GetChat(c.Request.Context(), identityFrom(c), chatID)
	if err != nil {
		h.fail(c, err)
		return
	}
	respond(c, http.StatusOK, "Chat retrieved", found)
}

// ListMessages handles GET /chats/:id/messages.
func (h *Handler) ListMessages(c *gin.Context) {
	chatID, ok := pathID(c, "id")
	if !ok {
		return
	}
	var q listMessagesQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		badRequest(c, err)
		return
	}
	page, err := h.Chats.ListMessages(c.Request.Context(), identityFrom(c), chatID, q.Page, q.Limit)
	if err != nil {
		h.fail(c, err)
		return
	}
	respond(c, http.StatusOK, "Messages retrieved", page)
}

// SendMessage handles POST /chats/:id/messages.
func (h *Handler) SendMessage(c *gin.Context) {
	chatID, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req sendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	msg, err := h.Messages.SendMessage(c.Request.Context(), identityFrom(c), chatID, req.Content)
	if err != nil {
		h.fail(c, err)
		return
	}
	respond(c, http.StatusCreated, "Message sent", msg)
}

// AddParticipant handles POST /chats/:id/participants.
func (h *Handler) AddParticipant(c *gin.Context) {
	chatID, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req addParticipantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	updated, err := h.Chats.AddParticipant(c.Request.Context(), identityFrom(c), chatID, req.UserID)
	if err != nil {
		h.fail(c, err)
		return
	}
	respond(c, http.StatusOK, "Participant added", updated)
}

// RemoveParticipant handles DELETE /chats/:id/participants/:uid.
func (h *Handler) RemoveParticipant(c *gin.Context) {
	chatID, ok := pathID(c, "id")
	if !ok {
		return
	}
	userID, ok := pathID(c, "uid")
	if !ok {
		return
	}
	result, err := h.Chats.RemoveParticipant(c.Request.Context(), identityFrom(c), chatID, userID)
	if err != nil {
		h.fail(c, err)
		return
	}
	respond(c, http.StatusOK, "Participant removed", result)
}

// LeaveChat handles POST /chats/:id/leave.
func (h *Handler) LeaveChat(c *gin.Context) {
	chatID, ok := pathID(c, "id")
	if !ok {
		return
	}
	result, err := h.Chats.LeaveChat(c.Request.Context(), identityFrom(c), chatID)
	if err != nil {
		h.fail(c, err)
		return
	}
	respond(c, http.StatusOK, h.Chats.LeaveMessage(result), result)
}

// Health handles GET /healthz.
func (h *Handler) Health(c *gin.Context) {
	respond(c, http.StatusOK, "ok", gin.H{"clients": h.Hub.ClientCount()})
}

func pathID(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		invalidParam(c, name)
		return 0, false
	}
	return uint(id), true
}
