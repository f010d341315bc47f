package chat

import (
	"chatcore/backend/internal/models"
	"chatcore/backend/internal/storage"
	"context"
	"errors"
	"log/slog"
	"strings"
)

// MessageService persists user messages and fans them out to the chat group.
type MessageService struct {
	store    storage.Storage
	dispatch dispatcher
	log      *slog.Logger
}

func NewMessageService(store storage.Storage, notifier Notifier, log *slog.Logger) *MessageService {
	return &MessageService{
		store:    store,
		dispatch: dispatcher{notifier: notifier, log: log},
		log:      log,
	}
}

// SendMessage stores content from the requester and broadcasts new-message.
// Membership is checked inside the write transaction, after the chat row lock
// is taken, the same way leave and remove take it.
func (s *MessageService) SendMessage(ctx context.Context, requester models.Identity, chatID uint, content string) (*models.Message, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, validation("content", "message content is required")
	}

	msg := &models.Message{ChatID: chatID, SenderID: requester.UserID, Content: content}
	err := s.store.Transaction(ctx, func(tx storage.Storage) error {
		if err := tx.TouchChat(ctx, chatID); err != nil {
			return err
		}
		ok, err := tx.IsParticipant(ctx, chatID, requester.UserID)
		if err != nil {
			return err
		}
		if !ok {
			return ErrNotAParticipant
		}
		return tx.CreateMessage(ctx, msg)
	})
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrChatNotFound
		}
		return nil, err
	}

	saved, err := s.store.GetMessageByID(ctx, msg.ID)
	if err != nil {
		s.log.Warn("failed to reload message", "message_id", msg.ID, "error", err)
		msg.Sender = senderOf(requester)
		saved = msg
	}
	s.log.Debug("message sent", "chat_id", chatID, "message_id", saved.ID, "sender", requester.UserID)

	s.dispatch.toChat(chatID, models.EventNewMessage, saved)
	return saved, nil
}

// EnsureParticipant fails with ErrNotAParticipant unless userID currently belongs to the chat.
func (s *MessageService) EnsureParticipant(ctx context.Context, chatID, userID uint) error {
	ok, err := s.store.IsParticipant(ctx, chatID, userID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotAParticipant
	}
	return nil
}
