// Copyright (c) 2026 Sentra. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package sec

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/taibuivan/sentra/internal/platform/constants"
	"github.com/taibuivan/sentra/pkg/uuidv7"
)

// # Claims

// Identity is the public projection of a user embedded in every access
// token. It never carries the password hash or any pending secret code.
type Identity struct {
	UserID    string    `json:"user_id"`
	Email     string    `json:"email"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// AccessClaims is the payload of an access token.
type AccessClaims struct {
	jwt.RegisteredClaims
	Identity
}

// RefreshClaims is the payload of a refresh token. It carries only the
// session identifier; everything else is resolved server-side on refresh.
type RefreshClaims struct {
	jwt.RegisteredClaims
	Session string `json:"session"`
}

// # Token Service

// ErrInvalidToken is returned for any token that fails verification,
// regardless of the underlying cause. Callers must not distinguish a
// malformed token from an expired or forged one.
var ErrInvalidToken = errors.New("sec: invalid token")

// TokenService signs and verifies RS256 JSON Web Tokens. Access and refresh
// tokens use independent key pairs so a leaked refresh verification key
// cannot validate access tokens.
type TokenService struct {
	keys   *KeySet
	logger *slog.Logger

	// now is swapped in tests to exercise expiry without sleeping.
	now func() time.Time
}

// NewTokenService returns a TokenService backed by the given key set.
func NewTokenService(keys *KeySet, logger *slog.Logger) *TokenService {
	return &TokenService{
		keys:   keys,
		logger: logger,
		now:    time.Now,
	}
}

/*
SignAccessToken issues a short-lived access token embedding the user's
public identity.

Parameters:
  - identity: the public projection of the authenticated user.
  - timeToLive: validity window, chosen by the caller.

Returns:
  - string: the signed compact JWT.
  - error: if signing fails.
*/
func (service *TokenService) SignAccessToken(identity Identity, timeToLive time.Duration) (string, error) {
	issuedAt := service.now()

	claims := AccessClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuidv7.New(),
			Issuer:    constants.AuthIssuer,
			Subject:   identity.UserID,
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(issuedAt.Add(timeToLive)),
		},
		Identity: identity,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)

	return token.SignedString(service.keys.AccessPrivate)
}

/*
SignRefreshToken issues a long-lived refresh token bound to a server-side
session record.

Parameters:
  - sessionID: identifier of the session the token refreshes.
  - timeToLive: validity window, chosen by the caller.

Returns:
  - string: the signed compact JWT.
  - error: if signing fails.
*/
func (service *TokenService) SignRefreshToken(sessionID string, timeToLive time.Duration) (string, error) {
	issuedAt := service.now()

	claims := RefreshClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuidv7.New(),
			Issuer:    constants.AuthIssuer,
			Subject:   sessionID,
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(issuedAt.Add(timeToLive)),
		},
		Session: sessionID,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)

	return token.SignedString(service.keys.RefreshPrivate)
}

// VerifyAccessToken validates a compact access token and returns its claims.
// Every failure mode collapses into ErrInvalidToken; the specific cause is
// logged but never surfaced to the caller.
func (service *TokenService) VerifyAccessToken(tokenString string) (*AccessClaims, error) {
	claims := &AccessClaims{}

	if err := service.verify(tokenString, claims, service.keys.AccessPublic); err != nil {
		service.logger.Debug("access token verification failed", slog.Any("error", err))
		return nil, ErrInvalidToken
	}

	return claims, nil
}

// VerifyRefreshToken validates a compact refresh token and returns its claims.
func (service *TokenService) VerifyRefreshToken(tokenString string) (*RefreshClaims, error) {
	claims := &RefreshClaims{}

	if err := service.verify(tokenString, claims, service.keys.RefreshPublic); err != nil {
		service.logger.Debug("refresh token verification failed", slog.Any("error", err))
		return nil, ErrInvalidToken
	}

	return claims, nil
}

// verify parses and validates a token into claims using the given public key.
func (service *TokenService) verify(tokenString string, claims jwt.Claims, publicKey any) error {
	token, err := jwt.ParseWithClaims(
		tokenString,
		claims,
		func(token *jwt.Token) (any, error) {
			if _, ok := token.Method.(*jwt.SigningMethodRSA); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
			}
			return publicKey, nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodRS256.Alg()}),
		jwt.WithTimeFunc(service.now),
	)
	if err != nil {
		return err
	}

	if !token.Valid {
		return ErrInvalidToken
	}

	return nil
}
