// Copyright (c) 2026 Sentra. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/sentra/internal/platform/apperr"
	"github.com/taibuivan/sentra/internal/platform/constants"
	"github.com/taibuivan/sentra/pkg/uuidv7"
)

// newRedisHarness spins up an in-process Redis and a repository against it.
func newRedisHarness(t *testing.T) (*miniredis.Miniredis, *RedisSessionRepository) {
	t.Helper()

	server := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: server.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return server, NewSessionRepository(client)
}

func TestRedisSessionRepository_CreateAndFind(t *testing.T) {
	server, repository := newRedisHarness(t)

	session := &Session{
		ID:     uuidv7.New(),
		UserID: uuidv7.New(),
		Valid:  true,
	}

	require.NoError(t, repository.Create(context.Background(), session))

	stored, err := repository.FindByID(context.Background(), session.ID)
	require.NoError(t, err)
	assert.Equal(t, session.ID, stored.ID)
	assert.Equal(t, session.UserID, stored.UserID)
	assert.True(t, stored.Valid)
	assert.WithinDuration(t, session.CreatedAt, stored.CreatedAt, time.Second)

	// The record expires on the refresh-token schedule.
	ttl := server.TTL(constants.RedisPrefixSession + session.ID)
	assert.Equal(t, RefreshTokenTTL, ttl)
}

func TestRedisSessionRepository_FindMissing(t *testing.T) {
	_, repository := newRedisHarness(t)

	stored, err := repository.FindByID(context.Background(), "no-such-session")
	assert.Nil(t, stored)

	appError := apperr.As(err)
	require.NotNil(t, appError)
	assert.Equal(t, 404, appError.HTTPStatus)
}

func TestRedisSessionRepository_Invalidate(t *testing.T) {
	_, repository := newRedisHarness(t)

	session := &Session{ID: uuidv7.New(), UserID: uuidv7.New(), Valid: true}
	require.NoError(t, repository.Create(context.Background(), session))

	require.NoError(t, repository.Invalidate(context.Background(), session.ID))

	// The record survives invalidation with the flag flipped.
	stored, err := repository.FindByID(context.Background(), session.ID)
	require.NoError(t, err)
	assert.False(t, stored.Valid)
}

func TestRedisSessionRepository_InvalidateMissing(t *testing.T) {
	_, repository := newRedisHarness(t)

	err := repository.Invalidate(context.Background(), "no-such-session")

	appError := apperr.As(err)
	require.NotNil(t, appError)
	assert.Equal(t, 404, appError.HTTPStatus)
}

func TestRedisSessionRepository_ExpiredSessionIsGone(t *testing.T) {
	server, repository := newRedisHarness(t)

	session := &Session{ID: uuidv7.New(), UserID: uuidv7.New(), Valid: true}
	require.NoError(t, repository.Create(context.Background(), session))

	// Simulate the refresh-token lifetime elapsing.
	server.FastForward(RefreshTokenTTL + time.Minute)

	_, err := repository.FindByID(context.Background(), session.ID)
	assert.NotNil(t, apperr.As(err))
}
