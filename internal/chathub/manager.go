// Package chathub is the realtime gateway: it owns the live websocket clients,
// the user:<id> and chat:<id> broadcast groups, and routes client events to the
// chat services.
package chathub

import (
	"chatcore/backend/internal/chat"
	"chatcore/backend/internal/models"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"time"
)

const (
	presenceTimeout = 2 * time.Second
	// presenceBacklog bounds queued presence updates before connects and
	// disconnects start waiting on redis.
	presenceBacklog = 1024
)

type presenceUpdate struct {
	userID uint
	online bool
}

// MessageSender is the part of the message service the gateway needs.
type MessageSender interface {
	SendMessage(ctx context.Context, requester models.Identity, chatID uint, content string) (*models.Message, error)
	EnsureParticipant(ctx context.Context, chatID, userID uint) error
}

// Presence counts open connections per user.
type Presence interface {
	MarkOnline(ctx context.Context, userID uint) error
	MarkOffline(ctx context.Context, userID uint) error
}

// ManagerService is the hub. Registration and removal go through Run; group
// maps are guarded by mu so that broadcasts (read lock) never race with a
// client's send channel being closed (write lock).
type ManagerService struct {
	RegisterCh   chan Client
	UnregisterCh chan Client

	Messages MessageSender
	Presence Presence

	mu      sync.RWMutex
	clients map[string]Client
	// groups maps a group name to its members by session id.
	groups map[string]map[string]Client
	// joined maps a session id to the groups it belongs to.
	joined map[string]map[string]struct{}

	// presence is drained in order by a single worker so a user's offline
	// update never overtakes the matching online one.
	presence chan presenceUpdate

	done chan struct{}
	log  *slog.Logger
}

func NewManagerService(messages MessageSender, presence Presence, log *slog.Logger) *ManagerService {
	return &ManagerService{
		RegisterCh:   make(chan Client),
		UnregisterCh: make(chan Client),
		Messages:     messages,
		Presence:     presence,
		clients:      make(map[string]Client),
		groups:       make(map[string]map[string]Client),
		joined:       make(map[string]map[string]struct{}),
		presence:     make(chan presenceUpdate, presenceBacklog),
		done:         make(chan struct{}),
		log:          log,
	}
}

// Run processes registrations until ctx is cancelled, then closes every client.
func (m *ManagerService) Run(ctx context.Context) {
	defer close(m.done)
	m.log.Info("realtime gateway started")

	flushed := make(chan struct{})
	go m.presenceLoop(flushed)

	for {
		select {
		case <-ctx.Done():
			m.shutdown()
			close(m.presence)
			<-flushed
			m.log.Info("realtime gateway stopped")
			return
		case client := <-m.RegisterCh:
			m.register(client)
		case client := <-m.UnregisterCh:
			m.remove(client)
		}
	}
}

// Done is closed once Run has returned.
func (m *ManagerService) Done() <-chan struct{} {
	return m.done
}

// Register hands a new client to Run. It reports false when the hub is stopped.
func (m *ManagerService) Register(client Client) bool {
	select {
	case m.RegisterCh <- client:
		return true
	case <-m.done:
		return false
	}
}

// Unregister asks Run to drop a client. It never blocks after shutdown.
func (m *ManagerService) Unregister(client Client) {
	select {
	case m.UnregisterCh <- client:
	case <-m.done:
	}
}

// Emit delivers an event to every member of group.
func (m *ManagerService) Emit(group, event string, payload any) {
	m.broadcast(group, models.OutboundEvent{Event: event, Data: payload}, "")
}

// HandleEvent routes one inbound frame. It runs on the client's read goroutine.
// Failures are reported to the sender only, as an error event.
func (m *ManagerService) HandleEvent(ctx context.Context, client Client, in models.InboundEvent) {
	identity := client.GetIdentity()

	switch in.Event {
	case models.EventJoinChat:
		var ref models.ChatRef
		if !m.decode(client, in, &ref) {
			return
		}
		if err := m.Messages.EnsureParticipant(ctx, ref.ChatID, identity.UserID); err != nil {
			m.fail(client, in.Event, err)
			return
		}
		group := models.ChatGroup(ref.ChatID)
		m.subscribe(client, group)
		m.broadcast(group, models.OutboundEvent{
			Event: models.EventUserJoined,
			Data:  models.PresencePayload{ChatID: ref.ChatID, UserID: identity.UserID, Name: identity.Name},
		}, client.GetSessionID())

	case models.EventLeaveChat:
		var ref models.ChatRef
		if !m.decode(client, in, &ref) {
			return
		}
		group := models.ChatGroup(ref.ChatID)
		m.unsubscribe(client, group)
		m.broadcast(group, models.OutboundEvent{
			Event: models.EventUserLeft,
			Data:  models.PresencePayload{ChatID: ref.ChatID, UserID: identity.UserID, Name: identity.Name},
		}, "")

	case models.EventSendMessage:
		var p models.SendMessagePayload
		if !m.decode(client, in, &p) {
			return
		}
		// The service broadcasts new-message itself.
		if _, err := m.Messages.SendMessage(ctx, identity, p.ChatID, p.Content); err != nil {
			m.fail(client, in.Event, err)
		}

	case models.EventTyping:
		var p models.TypingPayload
		if !m.decode(client, in, &p) {
			return
		}
		m.broadcast(models.ChatGroup(p.ChatID), models.OutboundEvent{
			Event: models.EventUserTyping,
			Data: models.UserTypingPayload{
				ChatID:   p.ChatID,
				UserID:   identity.UserID,
				Name:     identity.Name,
				IsTyping: p.IsTyping,
			},
		}, client.GetSessionID())

	default:
		m.SendError(client, "Unknown event: "+in.Event)
	}
}

// SendError pushes an error event to a single client.
func (m *ManagerService) SendError(client Client, message string) {
	m.sendTo(client, models.OutboundEvent{Event: models.EventError, Data: models.ErrorPayload{Message: message}})
}

// ClientCount returns the number of registered connections.
func (m *ManagerService) ClientCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.clients)
}

// GroupSize returns the number of connections subscribed to group.
func (m *ManagerService) GroupSize(group string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.groups[group])
}

func (m *ManagerService) register(client Client) {
	if client == nil {
		return
	}
	identity := client.GetIdentity()

	m.mu.Lock()
	m.clients[client.GetSessionID()] = client
	m.join(client, models.UserGroup(identity.UserID))
	total := len(m.clients)
	m.mu.Unlock()

	m.markPresence(identity.UserID, true)
	m.log.Info("client registered", "session", client.GetSessionID(), "user_id", identity.UserID, "clients", total)
	client.Run()
}

// remove drops the client from every group and closes it. Calling it for a
// client that is already gone is a no-op.
func (m *ManagerService) remove(client Client) {
	if client == nil {
		return
	}
	sessionID := client.GetSessionID()

	m.mu.Lock()
	if _, ok := m.clients[sessionID]; !ok {
		m.mu.Unlock()
		return
	}
	m.detach(sessionID)
	client.Close()
	total := len(m.clients)
	m.mu.Unlock()

	identity := client.GetIdentity()
	m.markPresence(identity.UserID, false)
	m.log.Info("client unregistered", "session", sessionID, "user_id", identity.UserID, "clients", total)
}

func (m *ManagerService) shutdown() {
	m.mu.Lock()
	closed := make([]Client, 0, len(m.clients))
	for id, client := range m.clients {
		m.detach(id)
		client.Close()
		closed = append(closed, client)
	}
	m.mu.Unlock()

	for _, client := range closed {
		m.markPresence(client.GetIdentity().UserID, false)
	}
}

// detach removes a session from every map. Callers hold the write lock.
func (m *ManagerService) detach(sessionID string) {
	for group := range m.joined[sessionID] {
		m.leave(sessionID, group)
	}
	delete(m.joined, sessionID)
	delete(m.clients, sessionID)
}

// join and leave assume the write lock is held.
func (m *ManagerService) join(client Client, group string) {
	sessionID := client.GetSessionID()
	if m.groups[group] == nil {
		m.groups[group] = make(map[string]Client)
	}
	m.groups[group][sessionID] = client
	if m.joined[sessionID] == nil {
		m.joined[sessionID] = make(map[string]struct{})
	}
	m.joined[sessionID][group] = struct{}{}
}

func (m *ManagerService) leave(sessionID, group string) {
	members := m.groups[group]
	delete(members, sessionID)
	if len(members) == 0 {
		delete(m.groups, group)
	}
	if groups, ok := m.joined[sessionID]; ok {
		delete(groups, group)
	}
}

func (m *ManagerService) subscribe(client Client, group string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.clients[client.GetSessionID()]; ok {
		m.join(client, group)
	}
}

func (m *ManagerService) unsubscribe(client Client, group string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.leave(client.GetSessionID(), group)
}

// broadcast sends ev to every member of group except the given session.
// Members whose buffer is full are dropped after the read lock is released.
func (m *ManagerService) broadcast(group string, ev models.OutboundEvent, exceptSession string) {
	var slow []Client

	m.mu.RLock()
	for sessionID, client := range m.groups[group] {
		if sessionID == exceptSession {
			continue
		}
		select {
		case client.GetSendChannel() <- ev:
		default:
			slow = append(slow, client)
		}
	}
	m.mu.RUnlock()

	m.evict(slow)
}

func (m *ManagerService) sendTo(client Client, ev models.OutboundEvent) {
	var slow []Client

	m.mu.RLock()
	if _, ok := m.clients[client.GetSessionID()]; ok {
		select {
		case client.GetSendChannel() <- ev:
		default:
			slow = append(slow, client)
		}
	}
	m.mu.RUnlock()

	m.evict(slow)
}

func (m *ManagerService) evict(slow []Client) {
	for _, client := range slow {
		m.log.Warn("dropping slow client", "session", client.GetSessionID(), "user_id", client.GetIdentity().UserID)
		m.remove(client)
	}
}

func (m *ManagerService) decode(client Client, in models.InboundEvent, v any) bool {
	if len(in.Data) == 0 {
		m.SendError(client, "Missing payload for "+in.Event)
		return false
	}
	if err := json.Unmarshal(in.Data, v); err != nil {
		m.SendError(client, "Invalid payload for "+in.Event)
		return false
	}
	return true
}

func (m *ManagerService) fail(client Client, event string, err error) {
	var ce *chat.Error
	if errors.As(err, &ce) {
		m.SendError(client, ce.Message)
		return
	}
	m.log.Error("realtime event failed", "event", event, "session", client.GetSessionID(), "error", err)
	m.SendError(client, "Internal server error")
}

// markPresence queues a presence update for presenceLoop. Only the Run
// goroutine calls it.
func (m *ManagerService) markPresence(userID uint, online bool) {
	if m.Presence == nil {
		return
	}
	m.presence <- presenceUpdate{userID: userID, online: online}
}

func (m *ManagerService) presenceLoop(flushed chan<- struct{}) {
	defer close(flushed)
	for u := range m.presence {
		ctx, cancel := context.WithTimeout(context.Background(), presenceTimeout)
		var err error
		if u.online {
			err = m.Presence.MarkOnline(ctx, u.userID)
		} else {
			err = m.Presence.MarkOffline(ctx, u.userID)
		}
		cancel()
		if err != nil {
			m.log.Warn("failed to update presence", "user_id", u.userID, "online", u.online, "error", err)
		}
	}
}
