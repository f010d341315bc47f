package handler_test

import (
	"chatcore/backend/internal/chat"
	"chatcore/backend/internal/models"
	"context"

	"github.com/stretchr/testify/mock"
)

type MockChats struct {
	mock.Mock
}

func (m *MockChats) CreateChat(ctx context.Context, requester models.Identity, in chat.CreateChatInput) (*models.Chat, error) {
	args := m.Called(ctx, requester, in)
	c, _ := args.Get(0).(*models.Chat)
	return c, args.Error(1)
}

func (m *MockChats) ListChats(ctx context.Context, requester models.Identity) ([]models.Chat, error) {
	args := m.Called(ctx, requester)
	c, _ := args.Get(0).([]models.Chat)
	return c, args.Error(1)
}

func (m *MockChats) GetChat(ctx context.Context, requester models.Identity, chatID uint) (*models.Chat, error) {
	args := m.Called(ctx, requester, chatID)
	c, _ := args.Get(0).(*models.Chat)
	return c, args.Error(1)
}

func (m *MockChats) ListMessages(ctx context.Context, requester models.Identity, chatID uint, page, limit int) (*chat.MessagePage, error) {
	args := m.Called(ctx, requester, chatID, page, limit)
	p, _ := args.Get(0).(*chat.MessagePage)
	return p, args.Error(1)
}

func (m *MockChats) AddParticipant(ctx context.Context, requester models.Identity, chatID, userID uint) (*models.Chat, error) {
	args := m.Called(ctx, requester, chatID, userID)
	c, _ := args.Get(0).(*models.Chat)
	return c, args.Error(1)
}

func (m *MockChats) RemoveParticipant(ctx context.Context, requester models.Identity, chatID, userID uint) (*chat.LeaveResult, error) {
	args := m.Called(ctx, requester, chatID, userID)
	r, _ := args.Get(0).(*chat.LeaveResult)
	return r, args.Error(1)
}

func (m *MockChats) LeaveChat(ctx context.Context, requester models.Identity, chatID uint) (*chat.LeaveResult, error) {
	args := m.Called(ctx, requester, chatID)
	r, _ := args.Get(0).(*chat.LeaveResult)
	return r, args.Error(1)
}

func (m *MockChats) LeaveMessage(result *chat.LeaveResult) string {
	args := m.Called(result)
	return args.String(0)
}

// MockMessages serves both the HTTP handlers and the gateway.
type MockMessages struct {
	mock.Mock
}

func (m *MockMessages) SendMessage(ctx context.Context, requester models.Identity, chatID uint, content string) (*models.Message, error) {
	args := m.Called(ctx, requester, chatID, content)
	msg, _ := args.Get(0).(*models.Message)
	return msg, args.Error(1)
}

func (m *MockMessages) EnsureParticipant(ctx context.Context, chatID, userID uint) error {
	args := m.Called(ctx, chatID, userID)
	return args.Error(0)
}
