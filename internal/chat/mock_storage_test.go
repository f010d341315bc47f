package chat_test

import (
	"chatcore/backend/internal/models"
	"chatcore/backend/internal/storage"
	"context"

	"github.com/stretchr/testify/mock"
)

type MockStorage struct {
	mock.Mock
}

// Transaction runs fn against the same mock so expectations inside the
// transaction are set on the outer store.
func (m *MockStorage) Transaction(ctx context.Context, fn func(tx storage.Storage) error) error {
	args := m.Called(ctx)
	if err := args.Error(0); err != nil {
		return err
	}
	return fn(m)
}

func (m *MockStorage) GetUserByID(ctx context.Context, id uint) (*models.User, error) {
	args := m.Called(ctx, id)
	u, _ := args.Get(0).(*models.User)
	return u, args.Error(1)
}

func (m *MockStorage) SaveUser(ctx context.Context, user *models.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockStorage) CreateChat(ctx context.Context, chat *models.Chat) error {
	args := m.Called(ctx, chat)
	return args.Error(0)
}

func (m *MockStorage) GetChatByID(ctx context.Context, id uint) (*models.Chat, error) {
	args := m.Called(ctx, id)
	c, _ := args.Get(0).(*models.Chat)
	return c, args.Error(1)
}

func (m *MockStorage) GetChatDetails(ctx context.Context, id uint) (*models.Chat, error) {
	args := m.Called(ctx, id)
	c, _ := args.Get(0).(*models.Chat)
	return c, args.Error(1)
}

func (m *MockStorage) ListChatsForUser(ctx context.Context, userID uint) ([]models.Chat, error) {
	args := m.Called(ctx, userID)
	c, _ := args.Get(0).([]models.Chat)
	return c, args.Error(1)
}

func (m *MockStorage) FindDirectChat(ctx context.Context, userA, userB uint) (*models.Chat, error) {
	args := m.Called(ctx, userA, userB)
	c, _ := args.Get(0).(*models.Chat)
	return c, args.Error(1)
}

func (m *MockStorage) FindChatByDirectKey(ctx context.Context, key string) (*models.Chat, error) {
	args := m.Called(ctx, key)
	c, _ := args.Get(0).(*models.Chat)
	return c, args.Error(1)
}

func (m *MockStorage) TouchChat(ctx context.Context, chatID uint) error {
	args := m.Called(ctx, chatID)
	return args.Error(0)
}

func (m *MockStorage) UpdateChatOwner(ctx context.Context, chatID, ownerID uint) error {
	args := m.Called(ctx, chatID, ownerID)
	return args.Error(0)
}

func (m *MockStorage) DeleteChat(ctx context.Context, chatID uint) error {
	args := m.Called(ctx, chatID)
	return args.Error(0)
}

func (m *MockStorage) AddParticipant(ctx context.Context, chatID, userID uint) error {
	args := m.Called(ctx, chatID, userID)
	return args.Error(0)
}

func (m *MockStorage) RemoveParticipant(ctx context.Context, chatID, userID uint) error {
	args := m.Called(ctx, chatID, userID)
	return args.Error(0)
}

func (m *MockStorage) IsParticipant(ctx context.Context, chatID, userID uint) (bool, error) {
	args := m.Called(ctx, chatID, userID)
	return args.Bool(0), args.Error(1)
}

func (m *MockStorage) CountParticipants(ctx context.Context, chatID uint) (int64, error) {
	args := m.Called(ctx, chatID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockStorage) NextOwner(ctx context.Context, chatID, excludeUserID uint) (*models.ChatParticipant, error) {
	args := m.Called(ctx, chatID, excludeUserID)
	p, _ := args.Get(0).(*models.ChatParticipant)
	return p, args.Error(1)
}

func (m *MockStorage) CreateMessage(ctx context.Context, msg *models.Message) error {
	args := m.Called(ctx, msg)
	return args.Error(0)
}

func (m *MockStorage) GetMessageByID(ctx context.Context, id uint) (*models.Message, error) {
	args := m.Called(ctx, id)
	msg, _ := args.Get(0).(*models.Message)
	return msg, args.Error(1)
}

func (m *MockStorage) ListMessages(ctx context.Context, chatID uint, offset, limit int) ([]models.Message, int64, error) {
	args := m.Called(ctx, chatID, offset, limit)
	msgs, _ := args.Get(0).([]models.Message)
	return msgs, args.Get(1).(int64), args.Error(2)
}

func (m *MockStorage) MarkOnline(ctx context.Context, userID uint) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

func (m *MockStorage) MarkOffline(ctx context.Context, userID uint) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

func (m *MockStorage) OnlineUsers(ctx context.Context, userIDs []uint) ([]uint, error) {
	args := m.Called(ctx, userIDs)
	ids, _ := args.Get(0).([]uint)
	return ids, args.Error(1)
}
