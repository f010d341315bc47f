package chat_test

import (
	"sync"

	"github.com/stretchr/testify/mock"
)

type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) NotifyUser(userID uint, notificationType string, payload any) error {
	args := m.Called(userID, notificationType, payload)
	return args.Error(0)
}

func (m *MockNotifier) NotifyChat(chatID uint, event string, payload any) error {
	args := m.Called(chatID, event, payload)
	return args.Error(0)
}

type sent struct {
	Target  uint
	Kind    string
	Payload any
}

// recordingNotifier keeps every dispatch for end-to-end assertions.
type recordingNotifier struct {
	mu    sync.Mutex
	users []sent
	chats []sent
}

func (r *recordingNotifier) NotifyUser(userID uint, notificationType string, payload any) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.users = append(r.users, sent{Target: userID, Kind: notificationType, Payload: payload})
	return nil
}

func (r *recordingNotifier) NotifyChat(chatID uint, event string, payload any) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.chats = append(r.chats, sent{Target: chatID, Kind: event, Payload: payload})
	return nil
}

func (r *recordingNotifier) chatEvents() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.chats))
	for _, s := range r.chats {
		out = append(out, s.Kind)
	}
	return out
}
