package auth

import (
	"crypto/ed25519"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateAndAuthenticate(t *testing.T) {
	a, err := New(time.Hour)
	require.NoError(t, err)

	token, err := a.CreateJWT("ops")
	require.NoError(t, err)

	sub, err := a.AuthenticateJWT(token)
	require.NoError(t, err)
	assert.Equal(t, "ops", sub)
}

func TestAuthenticateRejectsForeignKey(t *testing.T) {
	a, err := New(0)
	require.NoError(t, err)
	other, err := New(0)
	require.NoError(t, err)

	token, err := other.CreateJWT("ops")
	require.NoError(t, err)

	_, err = a.AuthenticateJWT(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestAuthenticateRejectsExpired(t *testing.T) {
	a, err := New(time.Hour)
	require.NoError(t, err)

	claims := jwt.MapClaims{"sub": "ops", "exp": time.Now().Add(-time.Minute).Unix()}
	token, err := jwt.NewWithClaims(jwt.SigningMethodEdDSA, claims).SignedString(a.privateKey)
	require.NoError(t, err)

	_, err = a.AuthenticateJWT(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestAuthenticateRejectsMissingSubject(t *testing.T) {
	a, err := New(0)
	require.NoError(t, err)

	token, err := jwt.NewWithClaims(jwt.SigningMethodEdDSA, jwt.MapClaims{}).SignedString(a.privateKey)
	require.NoError(t, err)

	_, err = a.AuthenticateJWT(token)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = a.AuthenticateJWT("garbage")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestNewFromPath(t *testing.T) {
	pub, priv, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)

	dir := t.TempDir()
	privPath := filepath.Join(dir, "priv")
	pubPath := filepath.Join(dir, "pub")
	require.NoError(t, os.WriteFile(privPath, priv, 0o600))
	require.NoError(t, os.WriteFile(pubPath, pub, 0o644))

	a, err := NewFromPath(privPath, pubPath, 0)
	require.NoError(t, err)
	token, err := a.CreateJWT("ops")
	require.NoError(t, err)
	sub, err := a.AuthenticateJWT(token)
	require.NoError(t, err)
	assert.Equal(t, "ops", sub)

	_, err = NewFromPath(filepath.Join(dir, "missing"), pubPath, 0)
	assert.Error(t, err)

	require.NoError(t, os.WriteFile(pubPath, []byte("short"), 0o644))
	_, err = NewFromPath(privPath, pubPath, 0)
	assert.Error(t, err)
}
