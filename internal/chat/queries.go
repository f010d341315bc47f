package chat

import (
	"chatcore/backend/internal/models"
	"chatcore/backend/internal/storage"
	"context"
	"errors"

	"github.com/samber/lo"
)

// Pagination describes one page of message history. Page 1 is the newest.
type Pagination struct {
	Page  int   `json:"page"`
	Limit int   `json:"limit"`
	Total int64 `json:"total"`
	Pages int   `json:"pages"`
}

// MessagePage is a page of messages in chronological order.
type MessagePage struct {
	Messages   []models.Message `json:"messages"`
	Pagination Pagination       `json:"pagination"`
}

// ListChats returns the requester's chats, most recently active first.
func (s *LifecycleService) ListChats(ctx context.Context, requester models.Identity) ([]models.Chat, error) {
	chats, err := s.store.ListChatsForUser(ctx, requester.UserID)
	if err != nil {
		return nil, err
	}
	if chats == nil {
		chats = []models.Chat{}
	}
	return chats, nil
}

// GetChat returns a chat with its participants, last message and the members
// currently online. Privileged roles can read any chat.
func (s *LifecycleService) GetChat(ctx context.Context, requester models.Identity, chatID uint) (*models.Chat, error) {
	chat, err := s.store.GetChatDetails(ctx, chatID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrChatNotFound
		}
		return nil, err
	}
	ids := chat.ParticipantIDs()
	if !requester.IsPrivileged() && !lo.Contains(ids, requester.UserID) {
		return nil, ErrNotAParticipant
	}

	online, err := s.store.OnlineUsers(ctx, ids)
	if err != nil {
		s.log.Warn("failed to read presence", "chat_id", chatID, "error", err)
	}
	chat.OnlineUserIDs = online
	return chat, nil
}

// ListMessages returns one page of the chat's history. Non-positive page and
// limit fall back to the first page and the default size.
func (s *LifecycleService) ListMessages(ctx context.Context, requester models.Identity, chatID uint, page, limit int) (*MessagePage, error) {
	if requester.IsPrivileged() {
		if _, err := s.store.GetChatByID(ctx, chatID); err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				return nil, ErrChatNotFound
			}
			return nil, err
		}
	} else if err := s.requireMember(ctx, chatID, requester.UserID, ErrNotAParticipant); err != nil {
		return nil, err
	}

	page = max(page, 1)
	if limit <= 0 {
		limit = s.opts.DefaultPageSize
	}
	limit = min(limit, s.opts.MaxPageSize)

	messages, total, err := s.store.ListMessages(ctx, chatID, (page-1)*limit, limit)
	if err != nil {
		return nil, err
	}
	if messages == nil {
		messages = []models.Message{}
	}
	return &MessagePage{
		Messages: messages,
		Pagination: Pagination{
			Page:  page,
			Limit: limit,
			Total: total,
			Pages: int((total + int64(limit) - 1) / int64(limit)),
		},
	}, nil
}
