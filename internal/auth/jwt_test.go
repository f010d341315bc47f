package auth_test

import (
	"chatcore/backend/internal/auth"
	"chatcore/backend/internal/models"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIssueAndAuthenticate(t *testing.T) {
	a := auth.NewJWTAuthenticator("secret", "chatcore", time.Hour)

	token, err := a.Issue(models.User{ID: 42, Name: "ann", Role: models.RoleAdmin})
	require.NoError(t, err)

	id, err := a.Authenticate(token)
	require.NoError(t, err)
	assert.Equal(t, models.Identity{UserID: 42, Name: "ann", Role: models.RoleAdmin}, id)
	assert.True(t, id.IsPrivileged())
}

func TestAuthenticate_Missing(t *testing.T) {
	a := auth.NewJWTAuthenticator("secret", "chatcore", time.Hour)

	_, err := a.Authenticate("  ")
	assert.ErrorIs(t, err, auth.ErrMissingToken)
}

func TestAuthenticate_Invalid(t *testing.T) {
	a := auth.NewJWTAuthenticator("secret", "chatcore", time.Hour)
	user := models.User{ID: 1, Name: "ann", Role: models.RoleUser}

	expired, err := auth.NewJWTAuthenticator("secret", "chatcore", -time.Minute).Issue(user)
	require.NoError(t, err)
	otherKey, err := auth.NewJWTAuthenticator("other", "chatcore", time.Hour).Issue(user)
	require.NoError(t, err)
	otherIssuer, err := auth.NewJWTAuthenticator("secret", "someone-else", time.Hour).Issue(user)
	require.NoError(t, err)
	noSubject, err := jwt.NewWithClaims(jwt.SigningMethodHS256, &auth.Claims{
		Name: "ann",
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "chatcore",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}).SignedString([]byte("secret"))
	require.NoError(t, err)
	wrongAlg, err := jwt.NewWithClaims(jwt.SigningMethodHS512, &auth.Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "1",
			Issuer:    "chatcore",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}).SignedString([]byte("secret"))
	require.NoError(t, err)

	tests := map[string]string{
		"garbage":      "not-a-jwt",
		"expired":      expired,
		"other key":    otherKey,
		"other issuer": otherIssuer,
		"no subject":   noSubject,
		"wrong alg":    wrongAlg,
	}
	for name, token := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := a.Authenticate(token)
			assert.ErrorIs(t, err, auth.ErrInvalidToken)
		})
	}
}

func TestAuthenticate_UnknownRoleFallsBack(t *testing.T) {
	a := auth.NewJWTAuthenticator("secret", "chatcore", time.Hour)
	token, err := a.Issue(models.User{ID: 3, Name: "cid", Role: models.Role("root")})
	require.NoError(t, err)

	id, err := a.Authenticate(token)
	require.NoError(t, err)
	assert.Equal(t, models.RoleUser, id.Role)
}

func TestBearerToken(t *testing.T) {
	assert.Equal(t, "abc", auth.BearerToken("Bearer abc"))
	assert.Equal(t, "abc", auth.BearerToken("bearer   abc "))
	assert.Empty(t, auth.BearerToken("Basic abc"))
	assert.Empty(t, auth.BearerToken("abc"))
	assert.Empty(t, auth.BearerToken(""))
}
