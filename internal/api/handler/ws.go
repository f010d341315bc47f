package handler

import (
	"chatcore/backend/internal/auth"
	"chatcore/backend/internal/chathub"
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"
)

// ServeWebSocket authenticates the caller and upgrades to a websocket. The
// token comes from the Authorization header or, for browsers, ?token=.
func (h *Handler) ServeWebSocket(c *gin.Context) {
	token := auth.BearerToken(c.GetHeader("Authorization"))
	if token == "" {
		token = c.Query("token")
	}
	identity, err := h.Auth.Authenticate(token)
	if err != nil {
		abortUnauthorized(c, err)
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// Upgrade has already written the error response.
		h.log.Debug("websocket upgrade failed", "user_id", identity.UserID, "error", err)
		return
	}

	// The request context ends when this handler returns; the client lives on.
	client := chathub.NewWebSocketClient(context.WithoutCancel(c.Request.Context()), conn, h.Hub, identity, h.log)
	if !h.Hub.Register(client) {
		_ = conn.Close()
	}
}

func originChecker(allowed []string) func(*http.Request) bool {
	origins := make(map[string]struct{}, len(allowed))
	for _, o := range allowed {
		o = strings.TrimSpace(o)
		if o == "*" {
			return func(*http.Request) bool { return true }
		}
		if o != "" {
			origins[strings.ToLower(strings.TrimRight(o, "/"))] = struct{}{}
		}
	}
	if len(origins) == 0 {
		return func(*http.Request) bool { return true }
	}

	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		u, err := url.Parse(origin)
		if err != nil {
			return false
		}
		_, ok := origins[strings.ToLower(u.Scheme+"://"+u.Host)]
		return ok
	}
}
