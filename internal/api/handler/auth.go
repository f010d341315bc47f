package handler

import (
	"chatcore/backend/internal/auth"
	"chatcore/backend/internal/models"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
)

const identityKey = "identity"

// RequireAuth resolves the bearer token into an identity or aborts with 401.
func (h *Handler) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		identity, err := h.Auth.Authenticate(auth.BearerToken(c.GetHeader("Authorization")))
		if err != nil {
			abortUnauthorized(c, err)
			return
		}
		c.Set(identityKey, identity)
		c.Next()
	}
}

func identityFrom(c *gin.Context) models.Identity {
	identity, _ := c.MustGet(identityKey).(models.Identity)
	return identity
}

func abortUnauthorized(c *gin.Context, err error) {
	code, message := "invalid_token", "Invalid or expired token"
	if errors.Is(err, auth.ErrMissingToken) {
		code, message = "authentication_required", "Authentication required"
	}
	c.AbortWithStatusJSON(http.StatusUnauthorized, Response{Success: false, Message: message, Code: code})
}
