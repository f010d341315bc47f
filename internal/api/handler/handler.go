// Package handler is the HTTP surface: chat REST endpoints and the websocket
// handshake, both behind bearer authentication.
package handler

import (
	"chatcore/backend/internal/auth"
	"chatcore/backend/internal/chat"
	"chatcore/backend/internal/chathub"
	"chatcore/backend/internal/models"
	"context"
	"log/slog"

	"github.com/gorilla/websocket"
)

// ChatService is the lifecycle manager as seen by the handlers.
type ChatService interface {
	CreateChat(ctx context.Context, requester models.Identity, in chat.CreateChatInput) (*models.Chat, error)
	ListChats(ctx context.Context, requester models.Identity) ([]models.Chat, error)
	GetChat(ctx context.Context, requester models.Identity, chatID uint) (*models.Chat, error)
	ListMessages(ctx context.Context, requester models.Identity, chatID uint, page, limit int) (*chat.MessagePage, error)
	AddParticipant(ctx context.Context, requester models.Identity, chatID, userID uint) (*models.Chat, error)
	RemoveParticipant(ctx context.Context, requester models.Identity, chatID, userID uint) (*chat.LeaveResult, error)
	LeaveChat(ctx context.Context, requester models.Identity, chatID uint) (*chat.LeaveResult, error)
	LeaveMessage(result *chat.LeaveResult) string
}

// MessageService is the message service as seen by the handlers.
type MessageService interface {
	SendMessage(ctx context.Context, requester models.Identity, chatID uint, content string) (*models.Message, error)
}

// Handler holds the collaborators of every route.
type Handler struct {
	Hub      *chathub.ManagerService
	Chats    ChatService
	Messages MessageService
	Auth     auth.Authenticator

	upgrader websocket.Upgrader
	log      *slog.Logger
}

// NewHandler builds the handler. An empty allowedOrigins list, or one holding
// "*", accepts websocket upgrades from any origin.
func NewHandler(hub *chathub.ManagerService, chats ChatService, messages MessageService, authenticator auth.Authenticator, allowedOrigins []string, log *slog.Logger) *Handler {
	registerJSONFieldNames()
	return &Handler{
		Hub:      hub,
		Chats:    chats,
		Messages: messages,
		Auth:     authenticator,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     originChecker(allowedOrigins),
		},
		log: log,
	}
}
