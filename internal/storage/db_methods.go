package storage

import (
	"chatcore/backend/internal/models"
	"context"
	"slices"
	"time"

	"github.com/samber/lo"
	"gorm.io/gorm"
)

// CreateChat inserts the chat row only; participants are added separately.
func (s *Service) CreateChat(ctx context.Context, chat *models.Chat) error {
	if err := s.DB.WithContext(ctx).Omit("Participants", "Messages").Create(chat).Error; err != nil {
		return translate(err, "create chat")
	}
	return nil
}

func (s *Service) GetChatByID(ctx context.Context, id uint) (*models.Chat, error) {
	var chat models.Chat
	if err := s.DB.WithContext(ctx).First(&chat, id).Error; err != nil {
		return nil, translate(err, "get chat %d", id)
	}
	return &chat, nil
}

// GetChatDetails loads a chat with its participants (in join order) and its latest message.
func (s *Service) GetChatDetails(ctx context.Context, id uint) (*models.Chat, error) {
	var chat models.Chat
	if err := s.withParticipants(ctx).First(&chat, id).Error; err != nil {
		return nil, translate(err, "get chat %d", id)
	}

	last, err := s.lastMessages(ctx, []uint{chat.ID})
	if err != nil {
		return nil, err
	}
	chat.LastMessage = last[chat.ID]
	return &chat, nil
}

// ListChatsForUser returns every chat the user belongs to, most recently active first.
func (s *Service) ListChatsForUser(ctx context.Context, userID uint) ([]models.Chat, error) {
	memberOf := s.DB.Model(&models.ChatParticipant{}).Select("chat_id").Where("user_id = ?", userID)

	var chats []models.Chat
	if err := s.withParticipants(ctx).
		Where("id IN (?)", memberOf).
		Order("updated_at DESC, id DESC").
		Find(&chats).Error; err != nil {
		return nil, translate(err, "list chats for user %d", userID)
	}

	last, err := s.lastMessages(ctx, lo.Map(chats, func(c models.Chat, _ int) uint { return c.ID }))
	if err != nil {
		return nil, err
	}
	for i := range chats {
		chats[i].LastMessage = last[chats[i].ID]
	}
	return chats, nil
}

// FindDirectChat finds the non-group chat whose participants are exactly userA and userB.
func (s *Service) FindDirectChat(ctx context.Context, userA, userB uint) (*models.Chat, error) {
	var chatIDs []uint
	err := s.DB.WithContext(ctx).
		Table("chat_participants").
		Select("chat_participants.chat_id").
		Joins("JOIN chats ON chats.id = chat_participants.chat_id").
		Where("chats.is_group = ?", false).
		Group("chat_participants.chat_id").
		Having("COUNT(*) = 2 AND SUM(CASE WHEN chat_participants.user_id IN ? THEN 1 ELSE 0 END) = 2", []uint{userA, userB}).
		Order("chat_participants.chat_id").
		Limit(1).
		Pluck("chat_participants.chat_id", &chatIDs).Error
	if err != nil {
		return nil, translate(err, "find direct chat %d/%d", userA, userB)
	}
	if len(chatIDs) == 0 {
		return nil, translate(gorm.ErrRecordNotFound, "find direct chat %d/%d", userA, userB)
	}
	return s.GetChatByID(ctx, chatIDs[0])
}

func (s *Service) FindChatByDirectKey(ctx context.Context, key string) (*models.Chat, error) {
	var chat models.Chat
	if err := s.DB.WithContext(ctx).Where("direct_key = ?", key).First(&chat).Error; err != nil {
		return nil, translate(err, "find chat by direct key %s", key)
	}
	return &chat, nil
}

// TouchChat bumps updated_at. Inside a transaction it also holds the chat's row lock
// until commit, which serializes concurrent membership changes on that chat.
func (s *Service) TouchChat(ctx context.Context, chatID uint) error {
	res := s.DB.WithContext(ctx).Model(&models.Chat{}).Where("id = ?", chatID).Update("updated_at", time.Now())
	if res.Error != nil {
		return translate(res.Error, "touch chat %d", chatID)
	}
	if res.RowsAffected == 0 {
		return translate(gorm.ErrRecordNotFound, "touch chat %d", chatID)
	}
	return nil
}

func (s *Service) UpdateChatOwner(ctx context.Context, chatID, ownerID uint) error {
	res := s.DB.WithContext(ctx).Model(&models.Chat{}).Where("id = ?", chatID).Updates(map[string]any{
		"created_by": ownerID,
		"updated_at": time.Now(),
	})
	if res.Error != nil {
		return translate(res.Error, "update owner of chat %d", chatID)
	}
	if res.RowsAffected == 0 {
		return translate(gorm.ErrRecordNotFound, "update owner of chat %d", chatID)
	}
	return nil
}

// DeleteChat removes the chat together with its messages and participants.
func (s *Service) DeleteChat(ctx context.Context, chatID uint) error {
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("chat_id = ?", chatID).Delete(&models.Message{}).Error; err != nil {
			return translate(err, "delete messages of chat %d", chatID)
		}
		if err := tx.Where("chat_id = ?", chatID).Delete(&models.ChatParticipant{}).Error; err != nil {
			return translate(err, "delete participants of chat %d", chatID)
		}
		res := tx.Delete(&models.Chat{}, chatID)
		if res.Error != nil {
			return translate(res.Error, "delete chat %d", chatID)
		}
		if res.RowsAffected == 0 {
			return translate(gorm.ErrRecordNotFound, "delete chat %d", chatID)
		}
		return nil
	})
}

func (s *Service) AddParticipant(ctx context.Context, chatID, userID uint) error {
	p := models.ChatParticipant{ChatID: chatID, UserID: userID}
	if err := s.DB.WithContext(ctx).Omit("User").Create(&p).Error; err != nil {
		return translate(err, "add user %d to chat %d", userID, chatID)
	}
	return nil
}

func (s *Service) RemoveParticipant(ctx context.Context, chatID, userID uint) error {
	res := s.DB.WithContext(ctx).
		Where("chat_id = ? AND user_id = ?", chatID, userID).
		Delete(&models.ChatParticipant{})
	if res.Error != nil {
		return translate(res.Error, "remove user %d from chat %d", userID, chatID)
	}
	if res.RowsAffected == 0 {
		return translate(gorm.ErrRecordNotFound, "remove user %d from chat %d", userID, chatID)
	}
	return nil
}

func (s *Service) IsParticipant(ctx context.Context, chatID, userID uint) (bool, error) {
	var count int64
	if err := s.DB.WithContext(ctx).Model(&models.ChatParticipant{}).
		Where("chat_id = ? AND user_id = ?", chatID, userID).
		Count(&count).Error; err != nil {
		return false, translate(err, "check membership of user %d in chat %d", userID, chatID)
	}
	return count > 0, nil
}

func (s *Service) CountParticipants(ctx context.Context, chatID uint) (int64, error) {
	var count int64
	if err := s.DB.WithContext(ctx).Model(&models.ChatParticipant{}).
		Where("chat_id = ?", chatID).
		Count(&count).Error; err != nil {
		return 0, translate(err, "count participants of chat %d", chatID)
	}
	return count, nil
}

// NextOwner picks the earliest-joined participant other than excludeUserID.
// Ties on join time are broken by the lowest user id.
func (s *Service) NextOwner(ctx context.Context, chatID, excludeUserID uint) (*models.ChatParticipant, error) {
	var p models.ChatParticipant
	err := s.DB.WithContext(ctx).
		Where("chat_id = ? AND user_id <> ?", chatID, excludeUserID).
		Order("created_at ASC, user_id ASC").
		First(&p).Error
	if err != nil {
		return nil, translate(err, "next owner of chat %d", chatID)
	}
	return &p, nil
}

func (s *Service) CreateMessage(ctx context.Context, msg *models.Message) error {
	if err := s.DB.WithContext(ctx).Omit("Sender").Create(msg).Error; err != nil {
		return translate(err, "create message in chat %d", msg.ChatID)
	}
	return nil
}

func (s *Service) GetMessageByID(ctx context.Context, id uint) (*models.Message, error) {
	var msg models.Message
	if err := s.DB.WithContext(ctx).Preload("Sender").First(&msg, id).Error; err != nil {
		return nil, translate(err, "get message %d", id)
	}
	return &msg, nil
}

// ListMessages returns one page of history in chronological order together with the
// total message count. Offset 0 is the newest page.
func (s *Service) ListMessages(ctx context.Context, chatID uint, offset, limit int) ([]models.Message, int64, error) {
	var total int64
	if err := s.DB.WithContext(ctx).Model(&models.Message{}).
		Where("chat_id = ?", chatID).
		Count(&total).Error; err != nil {
		return nil, 0, translate(err, "count messages of chat %d", chatID)
	}

	var messages []models.Message
	if err := s.DB.WithContext(ctx).
		Preload("Sender").
		Where("chat_id = ?", chatID).
		Order("id DESC").
		Offset(offset).
		Limit(limit).
		Find(&messages).Error; err != nil {
		return nil, 0, translate(err, "list messages of chat %d", chatID)
	}
	slices.Reverse(messages)
	return messages, total, nil
}

func (s *Service) withParticipants(ctx context.Context) *gorm.DB {
	return s.DB.WithContext(ctx).
		Preload("Participants", func(db *gorm.DB) *gorm.DB {
			return db.Order("chat_participants.created_at ASC, chat_participants.user_id ASC")
		}).
		Preload("Participants.User")
}

// lastMessages returns the newest message of each chat, keyed by chat id.
func (s *Service) lastMessages(ctx context.Context, chatIDs []uint) (map[uint]*models.Message, error) {
	result := make(map[uint]*models.Message, len(chatIDs))
	if len(chatIDs) == 0 {
		return result, nil
	}

	newest := s.DB.Model(&models.Message{}).
		Select("MAX(id)").
		Where("chat_id IN ?", chatIDs).
		Group("chat_id")

	var messages []models.Message
	if err := s.DB.WithContext(ctx).
		Preload("Sender").
		Where("id IN (?)", newest).
		Find(&messages).Error; err != nil {
		return nil, translate(err, "load last messages")
	}
	for i := range messages {
		result[messages[i].ChatID] = &messages[i]
	}
	return result, nil
}
