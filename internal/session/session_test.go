package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "github.com/noah-isme/sma-adp-console/pkg/errors"
)

func signed(t *testing.T, exp time.Time) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": "admin", "exp": exp.Unix()})
	raw, err := token.SignedString([]byte("secret"))
	require.NoError(t, err)
	return raw
}

func TestContextTokenWinsOverFallback(t *testing.T) {
	p := NewContextProvider("service-token")
	token, err := p.Token(WithToken(context.Background(), " user-token "))
	require.NoError(t, err)
	assert.Equal(t, "user-token", token)

	token, err = p.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "service-token", token)
}

func TestMissingCredentialIsUnauthorized(t *testing.T) {
	_, err := NewContextProvider("").Token(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, appErrors.ErrUnauthorized))
}

func TestExpiredJWTIsUnauthorized(t *testing.T) {
	p := NewContextProvider("")
	expired := signed(t, time.Now().Add(-time.Minute))
	_, err := p.Token(WithToken(context.Background(), expired))
	require.Error(t, err)
	assert.True(t, errors.Is(err, appErrors.ErrUnauthorized))

	valid := signed(t, time.Now().Add(time.Hour))
	token, err := p.Token(WithToken(context.Background(), valid))
	require.NoError(t, err)
	assert.Equal(t, valid, token)
}

func TestBearerFromHeader(t *testing.T) {
	assert.Equal(t, "abc", BearerFromHeader("Bearer abc"))
	assert.Equal(t, "abc", BearerFromHeader("bearer  abc "))
	assert.Empty(t, BearerFromHeader("Basic abc"))
	assert.Empty(t, BearerFromHeader(""))
}

func TestScopeSeparatesCredentials(t *testing.T) {
	scope := Scope(NewContextProvider(""))

	admin, err := scope(WithToken(context.Background(), "admin"))
	require.NoError(t, err)
	again, err := scope(WithToken(context.Background(), "admin"))
	require.NoError(t, err)
	other, err := scope(WithToken(context.Background(), "intruder"))
	require.NoError(t, err)

	assert.Equal(t, admin, again)
	assert.NotEqual(t, admin, other)
	assert.NotContains(t, admin, "admin")

	_, err = scope(context.Background())
	assert.True(t, errors.Is(err, appErrors.ErrUnauthorized))
}
