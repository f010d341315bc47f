package chathub

import (
	"chatcore/backend/internal/models"
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 64 << 10
	sendBufferSize = 256
)

// WebSocketClient implements Client over a gorilla websocket connection.
type WebSocketClient struct {
	SessionID string
	Identity  models.Identity
	Conn      *websocket.Conn
	Hub       *ManagerService
	Send      chan models.OutboundEvent

	// ctx outlives the upgrade request; it carries no deadline.
	ctx context.Context
	log *slog.Logger
}

func NewWebSocketClient(ctx context.Context, conn *websocket.Conn, hub *ManagerService, identity models.Identity, log *slog.Logger) *WebSocketClient {
	sessionID := uuid.NewString()
	return &WebSocketClient{
		SessionID: sessionID,
		Identity:  identity,
		Conn:      conn,
		Hub:       hub,
		Send:      make(chan models.OutboundEvent, sendBufferSize),
		ctx:       ctx,
		log:       log.With("session", sessionID, "user_id", identity.UserID),
	}
}

func (c *WebSocketClient) GetSessionID() string                        { return c.SessionID }
func (c *WebSocketClient) GetIdentity() models.Identity                { return c.Identity }
func (c *WebSocketClient) GetSendChannel() chan<- models.OutboundEvent { return c.Send }

func (c *WebSocketClient) Run() {
	go c.writePump()
	go c.readPump()
}

func (c *WebSocketClient) Close() {
	close(c.Send)
}

func (c *WebSocketClient) readPump() {
	defer func() {
		c.Hub.Unregister(c)
		_ = c.Conn.Close()
	}()

	c.Conn.SetReadLimit(maxMessageSize)
	_ = c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		return c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.log.Debug("websocket read failed", "error", err)
			}
			return
		}

		var in models.InboundEvent
		if err := json.Unmarshal(data, &in); err != nil || in.Event == "" {
			c.Hub.SendError(c, "Malformed frame")
			continue
		}
		c.Hub.HandleEvent(c.ctx, c, in)
	}
}

// writePump writes one JSON frame per event and keeps the connection alive with pings.
func (c *WebSocketClient) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.Conn.Close()
	}()

	for {
		select {
		case ev, ok := <-c.Send:
			_ = c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.Conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			if err := c.Conn.WriteJSON(ev); err != nil {
				c.log.Debug("websocket write failed", "event", ev.Event, "error", err)
				return
			}

		case <-ticker.C:
			_ = c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
