package chathub_test

import (
	"chatcore/backend/internal/models"
	"context"
	"sync"

	"github.com/stretchr/testify/mock"
)

type MockClient struct {
	sessionID   string
	identity    models.Identity
	RecvChannel chan models.OutboundEvent

	mu      sync.Mutex
	running bool
	closed  bool
}

func newMockClient(sessionID string, userID uint, name string) *MockClient {
	return newMockClientBuffered(sessionID, userID, name, 16)
}

func newMockClientBuffered(sessionID string, userID uint, name string, size int) *MockClient {
	return &MockClient{
		sessionID:   sessionID,
		identity:    models.Identity{UserID: userID, Name: name, Role: models.RoleUser},
		RecvChannel: make(chan models.OutboundEvent, size),
	}
}

func (c *MockClient) GetSessionID() string {
	return c.sessionID
}

func (c *MockClient) GetIdentity() models.Identity {
	return c.identity
}

func (c *MockClient) GetSendChannel() chan<- models.OutboundEvent {
	return c.RecvChannel
}

func (c *MockClient) Run() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.running = true
}

func (c *MockClient) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	close(c.RecvChannel)
}

func (c *MockClient) IsRunning() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.running
}

func (c *MockClient) IsClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// drain returns every event buffered so far without blocking.
func (c *MockClient) drain() []models.OutboundEvent {
	var out []models.OutboundEvent
	for {
		select {
		case ev, ok := <-c.RecvChannel:
			if !ok {
				return out
			}
			out = append(out, ev)
		default:
			return out
		}
	}
}

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

type MockPresence struct {
	mock.Mock
}

func (m *MockPresence) MarkOnline(ctx context.Context, userID uint) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

func (m *MockPresence) MarkOffline(ctx context.Context, userID uint) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}
