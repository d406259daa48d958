// Copyright (c) 2026 Sentra. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/sentra/internal/platform/apperr"
	"github.com/taibuivan/sentra/internal/platform/mail"
	"github.com/taibuivan/sentra/internal/platform/sec"
)

// newHarnessTokenService builds a token service with throwaway RSA key pairs.
func newHarnessTokenService(t *testing.T, logger *slog.Logger) *sec.TokenService {
	t.Helper()

	accessKey, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	refreshKey, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	return sec.NewTokenService(&sec.KeySet{
		AccessPrivate:  accessKey,
		AccessPublic:   &accessKey.PublicKey,
		RefreshPrivate: refreshKey,
		RefreshPublic:  &refreshKey.PublicKey,
	}, logger)
}

// # In-Memory Fakes

// memoryUserRepository mimics the Postgres store, including hash-on-write.
type memoryUserRepository struct {
	mu     sync.Mutex
	users  map[string]*User // keyed by ID
	hasher CredentialHasher
}

func newMemoryUserRepository(hasher CredentialHasher) *memoryUserRepository {
	return &memoryUserRepository{users: make(map[string]*User), hasher: hasher}
}

func (repository *memoryUserRepository) Create(_ context.Context, user *User) error {
	repository.mu.Lock()
	defer repository.mu.Unlock()

	user.Email = strings.ToLower(user.Email)
	for _, existing := range repository.users {
		if existing.Email == user.Email {
			return apperr.Conflict("create account: resource already exists")
		}
	}

	hash, err := repository.hasher.Hash(user.Password)
	if err != nil {
		return err
	}
	user.PasswordHash = hash
	user.Password = ""

	now := time.Now()
	user.CreatedAt = now
	user.UpdatedAt = now

	clone := *user
	repository.users[user.ID] = &clone
	return nil
}

func (repository *memoryUserRepository) Save(_ context.Context, user *User, passwordChanged bool) error {
	repository.mu.Lock()
	defer repository.mu.Unlock()

	if _, found := repository.users[user.ID]; !found {
		return apperr.NotFound("Resource")
	}

	if passwordChanged {
		hash, err := repository.hasher.Hash(user.Password)
		if err != nil {
			return err
		}
		user.PasswordHash = hash
		user.Password = ""
	}

	user.UpdatedAt = time.Now()
	clone := *user
	repository.users[user.ID] = &clone
	return nil
}

func (repository *memoryUserRepository) FindByEmail(_ context.Context, email string) (*User, error) {
	repository.mu.Lock()
	defer repository.mu.Unlock()

	for _, user := range repository.users {
		if user.Email == strings.ToLower(email) {
			clone := *user
			return &clone, nil
		}
	}
	return nil, apperr.NotFound("Resource")
}

func (repository *memoryUserRepository) FindByID(_ context.Context, id string) (*User, error) {
	repository.mu.Lock()
	defer repository.mu.Unlock()

	user, found := repository.users[id]
	if !found {
		return nil, apperr.NotFound("Resource")
	}
	clone := *user
	return &clone, nil
}

// memorySessionRepository mimics the Redis session store.
type memorySessionRepository struct {
	mu       sync.Mutex
	sessions map[string]*Session
	failNext error
}

func newMemorySessionRepository() *memorySessionRepository {
	return &memorySessionRepository{sessions: make(map[string]*Session)}
}

func (repository *memorySessionRepository) Create(_ context.Context, session *Session) error {
	repository.mu.Lock()
	defer repository.mu.Unlock()

	if repository.failNext != nil {
		err := repository.failNext
		repository.failNext = nil
		return err
	}

	session.CreatedAt = time.Now()
	clone := *session
	repository.sessions[session.ID] = &clone
	return nil
}

func (repository *memorySessionRepository) FindByID(_ context.Context, id string) (*Session, error) {
	repository.mu.Lock()
	defer repository.mu.Unlock()

	session, found := repository.sessions[id]
	if !found {
		return nil, apperr.NotFound("Session")
	}
	clone := *session
	return &clone, nil
}

func (repository *memorySessionRepository) Invalidate(_ context.Context, sessionID string) error {
	repository.mu.Lock()
	defer repository.mu.Unlock()

	session, found := repository.sessions[sessionID]
	if !found {
		return apperr.NotFound("Session")
	}
	session.Valid = false
	return nil
}

// captureDispatcher records dispatched mail without delivering anything.
type captureDispatcher struct {
	mu       sync.Mutex
	messages []mail.Message
}

func (dispatcher *captureDispatcher) Dispatch(message mail.Message) {
	dispatcher.mu.Lock()
	defer dispatcher.mu.Unlock()
	dispatcher.messages = append(dispatcher.messages, message)
}

func (dispatcher *captureDispatcher) sent() []mail.Message {
	dispatcher.mu.Lock()
	defer dispatcher.mu.Unlock()
	return append([]mail.Message(nil), dispatcher.messages...)
}

// # Test Harness

type serviceHarness struct {
	service  *Service
	users    *memoryUserRepository
	sessions *memorySessionRepository
	mailer   *captureDispatcher
	tokens   *sec.TokenService
}

func newServiceHarness(t *testing.T) *serviceHarness {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	hasher := sec.NewArgon2Hasher(logger)
	tokens := newHarnessTokenService(t, logger)
	users := newMemoryUserRepository(hasher)
	sessions := newMemorySessionRepository()
	mailer := &captureDispatcher{}

	return &serviceHarness{
		service:  NewService(users, sessions, hasher, tokens, mailer, "test@example.com", logger),
		users:    users,
		sessions: sessions,
		mailer:   mailer,
		tokens:   tokens,
	}
}

// register enrolls an account and returns it, optionally pre-verified.
func (harness *serviceHarness) register(t *testing.T, email string, verified bool) *User {
	t.Helper()

	_, err := harness.service.Register(context.Background(), RegisterInput{
		Email:     email,
		FirstName: "Jane",
		LastName:  "Doe",
		Password:  "password123",
	})
	require.NoError(t, err)

	user, err := harness.users.FindByEmail(context.Background(), email)
	require.NoError(t, err)

	if verified {
		user.Verified = true
		require.NoError(t, harness.users.Save(context.Background(), user, false))
	}

	return user
}

// # Registration

func TestService_Register(t *testing.T) {
	harness := newServiceHarness(t)

	message, err := harness.service.Register(context.Background(), RegisterInput{
		Email:     "Jane.Doe@Example.com",
		FirstName: "Jane",
		LastName:  "Doe",
		Password:  "password123",
	})
	require.NoError(t, err)
	assert.Equal(t, MessageUserCreated, message)

	user, err := harness.users.FindByEmail(context.Background(), "jane.doe@example.com")
	require.NoError(t, err)

	// New accounts start unverified with a pending verification code.
	assert.False(t, user.Verified)
	assert.NotEmpty(t, user.VerificationCode)
	assert.Nil(t, user.PasswordResetCode)

	// The plaintext never survives persistence.
	assert.Empty(t, user.Password)
	assert.True(t, strings.HasPrefix(user.PasswordHash, "$argon2id$"))

	// Verification email carries the code and the account ID.
	sent := harness.mailer.sent()
	require.Len(t, sent, 1)
	assert.Equal(t, "jane.doe@example.com", sent[0].To)
	assert.Equal(t, "Please verify your account", sent[0].Subject)
	assert.Contains(t, sent[0].Body, user.VerificationCode)
	assert.Contains(t, sent[0].Body, user.ID)
}

func TestService_Register_DuplicateEmail(t *testing.T) {
	harness := newServiceHarness(t)
	harness.register(t, "jane.doe@example.com", false)

	_, err := harness.service.Register(context.Background(), RegisterInput{
		Email:     "jane.doe@example.com",
		FirstName: "Jane",
		LastName:  "Doe",
		Password:  "password123",
	})

	appError := apperr.As(err)
	require.NotNil(t, appError)
	assert.Equal(t, 409, appError.HTTPStatus)
	assert.Equal(t, "Account already exists", appError.Message)
}

// # Verification

func TestService_VerifyUser(t *testing.T) {
	harness := newServiceHarness(t)
	user := harness.register(t, "jane.doe@example.com", false)

	message, err := harness.service.VerifyUser(context.Background(), user.ID, user.VerificationCode)
	require.NoError(t, err)
	assert.Equal(t, MessageUserVerified, message)

	stored, err := harness.users.FindByID(context.Background(), user.ID)
	require.NoError(t, err)
	assert.True(t, stored.Verified)
}

func TestService_VerifyUser_OpaqueFailures(t *testing.T) {
	harness := newServiceHarness(t)
	user := harness.register(t, "jane.doe@example.com", false)

	// Unknown account and wrong code must be indistinguishable.
	_, missErr := harness.service.VerifyUser(context.Background(), "no-such-id", user.VerificationCode)
	_, mismatchErr := harness.service.VerifyUser(context.Background(), user.ID, "wrong-code")

	for _, err := range []error{missErr, mismatchErr} {
		appError := apperr.As(err)
		require.NotNil(t, appError)
		assert.Equal(t, "Could not verify user", appError.Message)
	}

	stored, err := harness.users.FindByID(context.Background(), user.ID)
	require.NoError(t, err)
	assert.False(t, stored.Verified)
}

func TestService_VerifyUser_AlreadyVerified(t *testing.T) {
	harness := newServiceHarness(t)
	user := harness.register(t, "jane.doe@example.com", true)

	message, err := harness.service.VerifyUser(context.Background(), user.ID, user.VerificationCode)
	require.NoError(t, err)
	assert.Equal(t, MessageAlreadyVerified, message)
}

// # Login

func TestService_Login(t *testing.T) {
	harness := newServiceHarness(t)
	user := harness.register(t, "jane.doe@example.com", true)

	session, err := harness.service.Login(context.Background(), LoginInput{
		Email:    "jane.doe@example.com",
		Password: "password123",
	})
	require.NoError(t, err)
	require.NotEmpty(t, session.AccessToken)
	require.NotEmpty(t, session.RefreshToken)

	// Access token embeds the public projection only.
	accessClaims, err := harness.tokens.VerifyAccessToken(session.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, user.ID, accessClaims.UserID)
	assert.Equal(t, "jane.doe@example.com", accessClaims.Email)

	// Refresh token points at a live, valid session record.
	refreshClaims, err := harness.tokens.VerifyRefreshToken(session.RefreshToken)
	require.NoError(t, err)

	stored, err := harness.sessions.FindByID(context.Background(), refreshClaims.Session)
	require.NoError(t, err)
	assert.Equal(t, user.ID, stored.UserID)
	assert.True(t, stored.Valid)
}

func TestService_Login_EnumerationSafeFailures(t *testing.T) {
	harness := newServiceHarness(t)
	harness.register(t, "jane.doe@example.com", true)

	// Unknown email and wrong password share one generic message.
	_, unknownErr := harness.service.Login(context.Background(), LoginInput{
		Email: "nobody@example.com", Password: "password123",
	})
	_, wrongErr := harness.service.Login(context.Background(), LoginInput{
		Email: "jane.doe@example.com", Password: "not-the-password",
	})

	for _, err := range []error{unknownErr, wrongErr} {
		appError := apperr.As(err)
		require.NotNil(t, appError)
		assert.Equal(t, 401, appError.HTTPStatus)
		assert.Equal(t, "Invalid email or password", appError.Message)
	}
}

func TestService_Login_UnverifiedBeforePasswordCheck(t *testing.T) {
	harness := newServiceHarness(t)
	harness.register(t, "jane.doe@example.com", false)

	// Even the correct password is rejected while the account is unverified.
	_, err := harness.service.Login(context.Background(), LoginInput{
		Email:    "jane.doe@example.com",
		Password: "password123",
	})

	appError := apperr.As(err)
	require.NotNil(t, appError)
	assert.Equal(t, "Please verify your email", appError.Message)
}

func TestService_Login_EachLoginMintsANewSession(t *testing.T) {
	harness := newServiceHarness(t)
	harness.register(t, "jane.doe@example.com", true)

	input := LoginInput{Email: "jane.doe@example.com", Password: "password123"}

	first, err := harness.service.Login(context.Background(), input)
	require.NoError(t, err)
	second, err := harness.service.Login(context.Background(), input)
	require.NoError(t, err)

	firstClaims, err := harness.tokens.VerifyRefreshToken(first.RefreshToken)
	require.NoError(t, err)
	secondClaims, err := harness.tokens.VerifyRefreshToken(second.RefreshToken)
	require.NoError(t, err)

	assert.NotEqual(t, firstClaims.Session, secondClaims.Session)
}

func TestService_Login_SessionStoreFailure(t *testing.T) {
	harness := newServiceHarness(t)
	harness.register(t, "jane.doe@example.com", true)
	harness.sessions.failNext = errors.New("redis unavailable")

	_, err := harness.service.Login(context.Background(), LoginInput{
		Email:    "jane.doe@example.com",
		Password: "password123",
	})

	require.Error(t, err)
	assert.Nil(t, apperr.As(err), "infra failures stay untyped for the 500 path")
}

// # Token Refresh

func TestService_RefreshAccessToken(t *testing.T) {
	harness := newServiceHarness(t)
	user := harness.register(t, "jane.doe@example.com", true)

	session, err := harness.service.Login(context.Background(), LoginInput{
		Email: "jane.doe@example.com", Password: "password123",
	})
	require.NoError(t, err)

	accessToken, err := harness.service.RefreshAccessToken(context.Background(), session.RefreshToken)
	require.NoError(t, err)

	claims, err := harness.tokens.VerifyAccessToken(accessToken)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID)
}

func TestService_RefreshAccessToken_Failures(t *testing.T) {
	harness := newServiceHarness(t)
	harness.register(t, "jane.doe@example.com", true)

	session, err := harness.service.Login(context.Background(), LoginInput{
		Email: "jane.doe@example.com", Password: "password123",
	})
	require.NoError(t, err)

	refreshClaims, err := harness.tokens.VerifyRefreshToken(session.RefreshToken)
	require.NoError(t, err)

	t.Run("garbage token", func(t *testing.T) {
		_, err := harness.service.RefreshAccessToken(context.Background(), "not-a-token")
		appError := apperr.As(err)
		require.NotNil(t, appError)
		assert.Equal(t, "Could not refresh access token", appError.Message)
	})

	t.Run("invalidated session", func(t *testing.T) {
		require.NoError(t, harness.sessions.Invalidate(context.Background(), refreshClaims.Session))

		_, err := harness.service.RefreshAccessToken(context.Background(), session.RefreshToken)
		appError := apperr.As(err)
		require.NotNil(t, appError)
		assert.Equal(t, 401, appError.HTTPStatus)
		assert.Equal(t, "Could not refresh access token", appError.Message)
	})
}

// # Password Recovery

func TestService_ForgotPassword(t *testing.T) {
	harness := newServiceHarness(t)
	user := harness.register(t, "jane.doe@example.com", true)
	registrationMail := len(harness.mailer.sent())

	message, err := harness.service.ForgotPassword(context.Background(), "jane.doe@example.com")
	require.NoError(t, err)
	assert.Equal(t, MessagePasswordResetSent, message)

	stored, err := harness.users.FindByID(context.Background(), user.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.PasswordResetCode)

	sent := harness.mailer.sent()
	require.Len(t, sent, registrationMail+1)
	resetMail := sent[len(sent)-1]
	assert.Equal(t, "Reset your password", resetMail.Subject)
	assert.Contains(t, resetMail.Body, *stored.PasswordResetCode)
	assert.Contains(t, resetMail.Body, user.ID)
}

func TestService_ForgotPassword_UnknownEmailIsSilent(t *testing.T) {
	harness := newServiceHarness(t)

	message, err := harness.service.ForgotPassword(context.Background(), "nobody@example.com")
	require.NoError(t, err)
	assert.Equal(t, MessagePasswordResetSent, message)
	assert.Empty(t, harness.mailer.sent())
}

func TestService_ForgotPassword_UnverifiedAccount(t *testing.T) {
	harness := newServiceHarness(t)
	harness.register(t, "jane.doe@example.com", false)

	_, err := harness.service.ForgotPassword(context.Background(), "jane.doe@example.com")

	appError := apperr.As(err)
	require.NotNil(t, appError)
	assert.Equal(t, "User is not verified", appError.Message)
}

func TestService_ForgotPassword_NewCodeOverwritesPrevious(t *testing.T) {
	harness := newServiceHarness(t)
	user := harness.register(t, "jane.doe@example.com", true)

	_, err := harness.service.ForgotPassword(context.Background(), "jane.doe@example.com")
	require.NoError(t, err)
	first, err := harness.users.FindByID(context.Background(), user.ID)
	require.NoError(t, err)

	_, err = harness.service.ForgotPassword(context.Background(), "jane.doe@example.com")
	require.NoError(t, err)
	second, err := harness.users.FindByID(context.Background(), user.ID)
	require.NoError(t, err)

	assert.NotEqual(t, *first.PasswordResetCode, *second.PasswordResetCode)
}

func TestService_ResetPassword(t *testing.T) {
	harness := newServiceHarness(t)
	user := harness.register(t, "jane.doe@example.com", true)

	_, err := harness.service.ForgotPassword(context.Background(), "jane.doe@example.com")
	require.NoError(t, err)

	withCode, err := harness.users.FindByID(context.Background(), user.ID)
	require.NoError(t, err)
	require.NotNil(t, withCode.PasswordResetCode)

	message, err := harness.service.ResetPassword(context.Background(), user.ID, *withCode.PasswordResetCode, "newpassword456")
	require.NoError(t, err)
	assert.Equal(t, MessagePasswordUpdated, message)

	// The code is single use and the new password is live immediately.
	stored, err := harness.users.FindByID(context.Background(), user.ID)
	require.NoError(t, err)
	assert.Nil(t, stored.PasswordResetCode)

	_, err = harness.service.Login(context.Background(), LoginInput{
		Email: "jane.doe@example.com", Password: "newpassword456",
	})
	assert.NoError(t, err)

	_, err = harness.service.Login(context.Background(), LoginInput{
		Email: "jane.doe@example.com", Password: "password123",
	})
	assert.Error(t, err)
}

func TestService_ResetPassword_OpaqueFailures(t *testing.T) {
	harness := newServiceHarness(t)
	user := harness.register(t, "jane.doe@example.com", true)

	// No reset pending, wrong code, and unknown account all look identical.
	_, noPendingErr := harness.service.ResetPassword(context.Background(), user.ID, "some-code", "newpassword456")

	_, err := harness.service.ForgotPassword(context.Background(), "jane.doe@example.com")
	require.NoError(t, err)

	_, wrongCodeErr := harness.service.ResetPassword(context.Background(), user.ID, "wrong-code", "newpassword456")
	_, unknownUserErr := harness.service.ResetPassword(context.Background(), "no-such-id", "some-code", "newpassword456")

	for _, err := range []error{noPendingErr, wrongCodeErr, unknownUserErr} {
		appError := apperr.As(err)
		require.NotNil(t, appError)
		assert.Equal(t, 400, appError.HTTPStatus)
		assert.Equal(t, "Could not reset user password", appError.Message)
	}

	// The original password still works.
	_, err = harness.service.Login(context.Background(), LoginInput{
		Email: "jane.doe@example.com", Password: "password123",
	})
	assert.NoError(t, err)
}
