// Copyright (c) 2026 Sentra. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/taibuivan/sentra/internal/platform/apperr"
	"github.com/taibuivan/sentra/internal/platform/constants"
)

// # Session Repository

// Hash field names for a session record.
const (
	sessionFieldUserID    = "user_id"
	sessionFieldValid     = "valid"
	sessionFieldCreatedAt = "created_at"
)

// RedisSessionRepository implements SessionRepository using Redis hashes.
//
// # Lifetime
//
// Every record carries [RefreshTokenTTL] as its expiration, so a session
// disappears from storage at the same moment the refresh token referencing
// it stops verifying. Invalidation flips the valid flag without deleting
// the record.
type RedisSessionRepository struct {
	client *redis.Client
}

// NewSessionRepository creates a new Redis-backed SessionRepository.
func NewSessionRepository(client *redis.Client) *RedisSessionRepository {
	return &RedisSessionRepository{client: client}
}

// sessionKey builds the namespaced Redis key for a session ID.
func sessionKey(id string) string {
	return constants.RedisPrefixSession + id
}

/*
Create persists a new session record with the refresh-token lifetime as TTL.

Parameters:
  - context: context.Context
  - session: *Session

Returns:
  - error: Persistence failures
*/
func (repository *RedisSessionRepository) Create(context context.Context, session *Session) error {
	if session.CreatedAt.IsZero() {
		session.CreatedAt = time.Now()
	}

	key := sessionKey(session.ID)

	// Write the record and its expiration atomically.
	pipeline := repository.client.TxPipeline()
	pipeline.HSet(context, key,
		sessionFieldUserID, session.UserID,
		sessionFieldValid, strconv.FormatBool(session.Valid),
		sessionFieldCreatedAt, session.CreatedAt.Format(time.RFC3339Nano),
	)
	pipeline.Expire(context, key, RefreshTokenTTL)

	if _, err := pipeline.Exec(context); err != nil {
		return fmt.Errorf("redis_session_create_failed: %w", err)
	}

	return nil
}

/*
FindByID returns the session with the given ID.

Description: Returns apperr.NotFound if the record is absent or expired.

Parameters:
  - context: context.Context
  - id: string

Returns:
  - *Session: Hydrated entity
  - error: apperr.NotFound or connectivity errors
*/
func (repository *RedisSessionRepository) FindByID(context context.Context, id string) (*Session, error) {
	fields, err := repository.client.HGetAll(context, sessionKey(id)).Result()
	if err != nil {
		return nil, fmt.Errorf("redis_session_find_failed: %w", err)
	}

	// HGetAll returns an empty map (not redis.Nil) for a missing key.
	if len(fields) == 0 {
		return nil, apperr.NotFound("Session")
	}

	valid, err := strconv.ParseBool(fields[sessionFieldValid])
	if err != nil {
		return nil, fmt.Errorf("redis_session_corrupt_valid_flag: %w", err)
	}

	createdAt, err := time.Parse(time.RFC3339Nano, fields[sessionFieldCreatedAt])
	if err != nil {
		return nil, fmt.Errorf("redis_session_corrupt_timestamp: %w", err)
	}

	return &Session{
		ID:        id,
		UserID:    fields[sessionFieldUserID],
		Valid:     valid,
		CreatedAt: createdAt,
	}, nil
}

/*
Invalidate marks a session as permanently unusable for token refresh.

Description: The record is kept (with its original TTL) so refresh attempts
against it fail the valid check instead of the existence check.

Parameters:
  - context: context.Context
  - sessionID: string

Returns:
  - error: apperr.NotFound or persistence failures
*/
func (repository *RedisSessionRepository) Invalidate(context context.Context, sessionID string) error {
	key := sessionKey(sessionID)

	exists, err := repository.client.Exists(context, key).Result()
	if err != nil {
		return fmt.Errorf("redis_session_invalidate_failed: %w", err)
	}
	if exists == 0 {
		return apperr.NotFound("Session")
	}

	if err := repository.client.HSet(context, key, sessionFieldValid, "false").Err(); err != nil {
		return fmt.Errorf("redis_session_invalidate_failed: %w", err)
	}

	return nil
}
