package models

import (
	"encoding/json"
	"fmt"
	"time"
)

// Inbound websocket events.
const (
	EventJoinChat    = "join-chat"
	EventLeaveChat   = "leave-chat"
	EventSendMessage = "send-message"
	EventTyping      = "typing"
)

// Outbound websocket events.
const (
	EventUserJoined         = "user-joined"
	EventUserLeft           = "user-left"
	EventUserTyping         = "user-typing"
	EventNewMessage         = "new-message"
	EventNotification       = "notification"
	EventError              = "error"
	EventParticipantAdded   = "participant-added"
	EventParticipantRemoved = "participant-removed"
	EventParticipantLeft    = "participant-left"
)

// Notification types delivered through the personal user group.
const (
	NotificationNewChat         = "new-chat"
	NotificationAddedToChat     = "added-to-chat"
	NotificationRemovedFromChat = "removed-from-chat"
)

// InboundEvent is a frame sent by a client. Data is decoded per event name.
type InboundEvent struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// OutboundEvent is a frame pushed to a client.
type OutboundEvent struct {
	Event string `json:"event"`
	Data  any    `json:"data,omitempty"`
}

// Notification wraps direct user notifications.
type Notification struct {
	Type      string    `json:"type"`
	Data      any       `json:"data"`
	Timestamp time.Time `json:"timestamp"`
}

// ErrorPayload is sent to a single client when one of its events fails.
type ErrorPayload struct {
	Message string `json:"message"`
}

type ChatRef struct {
	ChatID uint `json:"chatId"`
}

type SendMessagePayload struct {
	ChatID  uint   `json:"chatId"`
	Content string `json:"content"`
}

type TypingPayload struct {
	ChatID   uint `json:"chatId"`
	IsTyping bool `json:"isTyping"`
}

// PresencePayload is the body of user-joined and user-left.
type PresencePayload struct {
	ChatID uint   `json:"chatId"`
	UserID uint   `json:"userId"`
	Name   string `json:"name"`
}

// UserTypingPayload is the body of user-typing.
type UserTypingPayload struct {
	ChatID   uint   `json:"chatId"`
	UserID   uint   `json:"userId"`
	Name     string `json:"name"`
	IsTyping bool   `json:"isTyping"`
}

// UserGroup names the broadcast group of every connection of one user.
func UserGroup(userID uint) string {
	return fmt.Sprintf("user:%d", userID)
}

// ChatGroup names the broadcast group of connections that joined one chat.
func ChatGroup(chatID uint) string {
	return fmt.Sprintf("chat:%d", chatID)
}
