// Package chat holds the chat business rules: the lifecycle of chats and their
// membership, and message delivery. Both the HTTP handlers and the websocket
// gateway call into the same services.
package chat

import (
	"chatcore/backend/internal/models"
	"log/slog"
)

// Notifier pushes events to connected clients. Delivery is best effort.
type Notifier interface {
	NotifyUser(userID uint, notificationType string, payload any) error
	NotifyChat(chatID uint, event string, payload any) error
}

// CreateChatInput is the body of a create chat request.
type CreateChatInput struct {
	Name           string `json:"name"`
	IsGroup        bool   `json:"isGroup"`
	ParticipantIDs []uint `json:"participantIds" binding:"required,min=1"`
	InitialMessage string `json:"initialMessage"`
}

// LeaveResult reports what happened to a chat after a member left or was removed.
type LeaveResult struct {
	ChatDeleted bool  `json:"chatDeleted"`
	NewOwnerID  *uint `json:"newOwnerId,omitempty"`
}

// ParticipantAddedEvent is broadcast to the chat group as participant-added.
type ParticipantAddedEvent struct {
	ChatID  uint            `json:"chatId"`
	User    models.User     `json:"user"`
	AddedBy uint            `json:"addedBy"`
	Message *models.Message `json:"message"`
}

// ParticipantRemovedEvent is broadcast to the chat group as participant-removed.
type ParticipantRemovedEvent struct {
	ChatID     uint            `json:"chatId"`
	UserID     uint            `json:"userId"`
	RemovedBy  uint            `json:"removedBy"`
	NewOwnerID *uint           `json:"newOwnerId,omitempty"`
	Message    *models.Message `json:"message"`
}

// RemovedFromChatPayload is the data of the removed-from-chat notification.
type RemovedFromChatPayload struct {
	ChatID    uint `json:"chatId"`
	RemovedBy uint `json:"removedBy"`
}

// ParticipantLeftEvent is broadcast to the chat group as participant-left.
type ParticipantLeftEvent struct {
	ChatID     uint            `json:"chatId"`
	UserID     uint            `json:"userId"`
	NewOwnerID *uint           `json:"newOwnerId,omitempty"`
	Message    *models.Message `json:"message"`
}

// dispatcher logs and swallows delivery failures so a committed write is
// always reported as a success.
type dispatcher struct {
	notifier Notifier
	log      *slog.Logger
}

func (d dispatcher) toUser(userID uint, notificationType string, payload any) {
	if err := d.notifier.NotifyUser(userID, notificationType, payload); err != nil {
		d.log.Warn("failed to notify user", "user_id", userID, "type", notificationType, "error", err)
	}
}

func (d dispatcher) toChat(chatID uint, event string, payload any) {
	if err := d.notifier.NotifyChat(chatID, event, payload); err != nil {
		d.log.Warn("failed to notify chat", "chat_id", chatID, "event", event, "error", err)
	}
}

func senderOf(identity models.Identity) models.User {
	return models.User{ID: identity.UserID, Name: identity.Name, Role: identity.Role}
}
