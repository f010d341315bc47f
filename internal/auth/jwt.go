// Package auth verifies bearer credentials and resolves them to an Identity.
package auth

import (
	"chatcore/backend/internal/models"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrMissingToken means no credential was presented.
	ErrMissingToken = errors.New("authentication required")
	// ErrInvalidToken means the credential is malformed, badly signed or expired.
	ErrInvalidToken = errors.New("invalid or expired token")
)

// Authenticator resolves a raw bearer token to the caller's identity.
type Authenticator interface {
	Authenticate(token string) (models.Identity, error)
}

// Claims is the payload of the tokens issued for chat users.
type Claims struct {
	Name string      `json:"name"`
	Role models.Role `json:"role"`
	jwt.RegisteredClaims
}

// JWTAuthenticator issues and verifies HS256 tokens. The user id travels in the
// subject claim.
type JWTAuthenticator struct {
	secret []byte
	issuer string
	ttl    time.Duration
}

func NewJWTAuthenticator(secret, issuer string, ttl time.Duration) *JWTAuthenticator {
	return &JWTAuthenticator{
		secret: []byte(secret),
		issuer: issuer,
		ttl:    ttl,
	}
}

// Issue signs a token for user valid for the configured TTL.
func (a *JWTAuthenticator) Issue(user models.User) (string, error) {
	now := time.Now()
	claims := &Claims{
		Name: user.Name,
		Role: user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatUint(uint64(user.ID), 10),
			Issuer:    a.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(a.ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
}

// Authenticate validates signature, issuer and expiry and returns the identity.
func (a *JWTAuthenticator) Authenticate(token string) (models.Identity, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return models.Identity{}, ErrMissingToken
	}

	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return a.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(a.issuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil || !parsed.Valid {
		return models.Identity{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	id, err := strconv.ParseUint(claims.Subject, 10, 64)
	if err != nil || id == 0 {
		return models.Identity{}, fmt.Errorf("%w: bad subject %q", ErrInvalidToken, claims.Subject)
	}
	role := claims.Role
	if !role.Valid() {
		role = models.RoleUser
	}
	return models.Identity{UserID: uint(id), Name: claims.Name, Role: role}, nil
}

// BearerToken extracts the token from an Authorization header value.
func BearerToken(header string) string {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}
