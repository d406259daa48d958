// Copyright (c) 2026 Sentra. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package sec

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/base64"
	"encoding/pem"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestKeySet generates two throwaway RSA key pairs for a single test.
func newTestKeySet(t *testing.T) *KeySet {
	t.Helper()

	accessKey, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	refreshKey, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	return &KeySet{
		AccessPrivate:  accessKey,
		AccessPublic:   &accessKey.PublicKey,
		RefreshPrivate: refreshKey,
		RefreshPublic:  &refreshKey.PublicKey,
	}
}

func newTestTokenService(t *testing.T) *TokenService {
	t.Helper()
	return NewTokenService(newTestKeySet(t), slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func testIdentity() Identity {
	now := time.Now().UTC().Truncate(time.Second)
	return Identity{
		UserID:    "0193e4a2-0000-7000-8000-000000000001",
		Email:     "jane.doe@example.com",
		FirstName: "Jane",
		LastName:  "Doe",
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func TestTokenService_AccessTokenRoundTrip(t *testing.T) {
	service := newTestTokenService(t)
	identity := testIdentity()

	token, err := service.SignAccessToken(identity, 15*time.Minute)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := service.VerifyAccessToken(token)
	require.NoError(t, err)

	assert.Equal(t, identity.UserID, claims.UserID)
	assert.Equal(t, identity.Email, claims.Email)
	assert.Equal(t, identity.FirstName, claims.FirstName)
	assert.Equal(t, identity.LastName, claims.LastName)
	assert.Equal(t, identity.UserID, claims.Subject)
	assert.NotEmpty(t, claims.ID)
}

func TestTokenService_RefreshTokenRoundTrip(t *testing.T) {
	service := newTestTokenService(t)
	sessionID := "0193e4a2-0000-7000-8000-00000000feed"

	token, err := service.SignRefreshToken(sessionID, 24*time.Hour)
	require.NoError(t, err)

	claims, err := service.VerifyRefreshToken(token)
	require.NoError(t, err)

	assert.Equal(t, sessionID, claims.Session)
	assert.Equal(t, sessionID, claims.Subject)
}

func TestTokenService_ExpiredToken(t *testing.T) {
	service := newTestTokenService(t)

	token, err := service.SignAccessToken(testIdentity(), 15*time.Minute)
	require.NoError(t, err)

	// Move the clock past the expiry instead of sleeping.
	service.now = func() time.Time { return time.Now().Add(16 * time.Minute) }

	claims, err := service.VerifyAccessToken(token)
	assert.Nil(t, claims)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenService_TamperedToken(t *testing.T) {
	service := newTestTokenService(t)

	token, err := service.SignAccessToken(testIdentity(), 15*time.Minute)
	require.NoError(t, err)

	tampered := token[:len(token)-4] + "AAAA"

	claims, err := service.VerifyAccessToken(tampered)
	assert.Nil(t, claims)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenService_GarbageToken(t *testing.T) {
	service := newTestTokenService(t)

	for _, input := range []string{"", "not-a-token", "a.b.c"} {
		claims, err := service.VerifyAccessToken(input)
		assert.Nil(t, claims)
		assert.ErrorIs(t, err, ErrInvalidToken)
	}
}

func TestTokenService_KeyPairsAreIndependent(t *testing.T) {
	service := newTestTokenService(t)

	// A refresh token must never verify as an access token.
	refreshToken, err := service.SignRefreshToken("some-session", time.Hour)
	require.NoError(t, err)

	claims, err := service.VerifyAccessToken(refreshToken)
	assert.Nil(t, claims)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestNewKeySet_ValidMaterial(t *testing.T) {
	accessKey, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	refreshKey, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	material := KeyMaterial{
		AccessTokenPrivateKey:  encodePrivateKey(t, accessKey),
		AccessTokenPublicKey:   encodePublicKey(t, &accessKey.PublicKey),
		RefreshTokenPrivateKey: encodePrivateKey(t, refreshKey),
		RefreshTokenPublicKey:  encodePublicKey(t, &refreshKey.PublicKey),
	}

	keys, err := NewKeySet(material)
	require.NoError(t, err)
	assert.True(t, accessKey.Equal(keys.AccessPrivate))
	assert.True(t, refreshKey.PublicKey.Equal(keys.RefreshPublic))
}

func TestNewKeySet_RejectsBadMaterial(t *testing.T) {
	testCases := []struct {
		name     string
		material KeyMaterial
	}{
		{name: "not base64", material: KeyMaterial{AccessTokenPrivateKey: "%%%"}},
		{name: "base64 but not pem", material: KeyMaterial{
			AccessTokenPrivateKey: base64.StdEncoding.EncodeToString([]byte("hello")),
		}},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			keys, err := NewKeySet(testCase.material)
			assert.Nil(t, keys)
			assert.Error(t, err)
		})
	}
}

func encodePrivateKey(t *testing.T, key *rsa.PrivateKey) string {
	t.Helper()

	block := &pem.Block{Type: "RSA PRIVATE KEY", Bytes: x509.MarshalPKCS1PrivateKey(key)}
	return base64.StdEncoding.EncodeToString(pem.EncodeToMemory(block))
}

func encodePublicKey(t *testing.T, key *rsa.PublicKey) string {
	t.Helper()

	der, err := x509.MarshalPKIXPublicKey(key)
	require.NoError(t, err)

	block := &pem.Block{Type: "PUBLIC KEY", Bytes: der}
	return base64.StdEncoding.EncodeToString(pem.EncodeToMemory(block))
}
