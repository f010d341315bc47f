// Package notify fans business events out to the realtime gateway's broadcast groups.
package notify

import (
	"chatcore/backend/internal/models"
	"errors"
	"sync"
	"time"
)

// ErrGatewayNotInitialized is returned when a notification is sent before Bind.
var ErrGatewayNotInitialized = errors.New("realtime gateway not initialized")

// Broadcaster delivers one event to every connection in a group.
type Broadcaster interface {
	Emit(group, event string, payload any)
}

// Dispatcher is created before the gateway exists and bound to it once the
// gateway is built. There is no retry or queuing.
type Dispatcher struct {
	mu      sync.RWMutex
	gateway Broadcaster
	now     func() time.Time
}

func NewDispatcher() *Dispatcher {
	return &Dispatcher{now: time.Now}
}

// Bind attaches the gateway. It is called once during startup.
func (d *Dispatcher) Bind(gateway Broadcaster) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.gateway = gateway
}

// NotifyUser sends a notification envelope to every connection of userID.
func (d *Dispatcher) NotifyUser(userID uint, notificationType string, payload any) error {
	gw, err := d.bound()
	if err != nil {
		return err
	}
	gw.Emit(models.UserGroup(userID), models.EventNotification, models.Notification{
		Type:      notificationType,
		Data:      payload,
		Timestamp: d.now().UTC(),
	})
	return nil
}

// NotifyChat sends event to every connection that joined chatID this session.
func (d *Dispatcher) NotifyChat(chatID uint, event string, payload any) error {
	gw, err := d.bound()
	if err != nil {
		return err
	}
	gw.Emit(models.ChatGroup(chatID), event, payload)
	return nil
}

func (d *Dispatcher) bound() (Broadcaster, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.gateway == nil {
		return nil, ErrGatewayNotInitialized
	}
	return d.gateway, nil
}
