// Copyright (c) 2026 Sentra. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package auth implements the core identity and access management system.

It handles everything from user registration and secure password hashing to
session lifecycle management via RS256 JWTs (sessions stored in Redis).

Architecture:

  - Service: Orchestrates business logic (Register, VerifyUser, Login, ...).
  - Repository: Abstracted interfaces for Postgres (Users) and Redis (Sessions).
  - Security: Leverages Argon2id hashing and RSA-signed JWTs.

The package ensures that identity data remains consistent and secure throughout
the platform's lifecycle.
*/
package auth

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/taibuivan/sentra/internal/platform/apperr"
	"github.com/taibuivan/sentra/internal/platform/dberr"
	"github.com/taibuivan/sentra/internal/platform/mail"
	"github.com/taibuivan/sentra/internal/platform/sec"
	"github.com/taibuivan/sentra/pkg/uuidv7"
)

// # Contracts & Types

// TokenProvider defines the contract for issuing and verifying security tokens.
type TokenProvider interface {
	// SignAccessToken creates a signed JWT embedding the public identity.
	SignAccessToken(identity sec.Identity, timeToLive time.Duration) (string, error)

	// SignRefreshToken creates a signed JWT bound to a session ID.
	SignRefreshToken(sessionID string, timeToLive time.Duration) (string, error)

	// VerifyRefreshToken validates a refresh token and returns its claims.
	VerifyRefreshToken(token string) (*sec.RefreshClaims, error)
}

// MailDispatcher defines the fire-and-forget mail contract. Dispatch must
// never block or fail the calling flow.
type MailDispatcher interface {
	Dispatch(message mail.Message)
}

// # Outcome Messages

// User-facing confirmation messages returned by the flows.
const (
	MessageUserCreated       = "User successfully created"
	MessageUserVerified      = "User successfully verified"
	MessageAlreadyVerified   = "User is already verified"
	MessagePasswordResetSent = "If a user with that email is registered you will receive a password reset email"
	MessagePasswordUpdated   = "Successfully updated user password"
)

// Service implements the account authentication use cases.
//
// # Review Process
//
// This service is critical for security. Any changes to hashing, registration,
// or login logic must be reviewed by the security team.
type Service struct {
	userRepository    UserRepository
	sessionRepository SessionRepository
	credentialHasher  CredentialHasher
	tokenProvider     TokenProvider
	mailer            MailDispatcher
	mailFrom          string
	logger            *slog.Logger
}

// NewService constructs a new [Service] with necessary dependencies.
func NewService(
	userRepo UserRepository,
	sessionRepo SessionRepository,
	hasher CredentialHasher,
	tokenProv TokenProvider,
	mailer MailDispatcher,
	mailFrom string,
	logger *slog.Logger,
) *Service {
	return &Service{
		userRepository:    userRepo,
		sessionRepository: sessionRepo,
		credentialHasher:  hasher,
		tokenProvider:     tokenProv,
		mailer:            mailer,
		mailFrom:          mailFrom,
		logger:            logger,
	}
}

// # Registration Flow

// RegisterInput holds the data required to enroll a new account.
type RegisterInput struct {
	Email     string
	FirstName string
	LastName  string
	Password  string
}

/*
Register persists a brand new user account and dispatches the verification email.

Description: The account starts unverified with a fresh verification code.
Mail delivery is fire-and-forget; a relay failure never fails registration.

Parameters:
  - context: context.Context
  - input: RegisterInput

Returns:
  - string: Confirmation message
  - error: Conflict (if the email is taken) or storage errors
*/
func (service *Service) Register(context context.Context, input RegisterInput) (string, error) {

	// Every account starts with a single-purpose verification code.
	verificationCode, err := sec.GenerateCode()
	if err != nil {
		return "", fmt.Errorf("auth_service_generate_code_failed: %w", err)
	}

	// Construct the new User entity. Time-sortable ID to prevent PG index fragmentation.
	user := &User{
		ID:               uuidv7.New(),
		Email:            input.Email,
		FirstName:        input.FirstName,
		LastName:         input.LastName,
		Password:         input.Password,
		VerificationCode: verificationCode,
		Verified:         false,
	}

	// Persist the user. The store hashes the password and lower-cases the email.
	if err := service.userRepository.Create(context, user); err != nil {
		// Duplicate email surfaces distinctly from generic storage failures.
		if dberr.IsConflict(err) {
			return "", apperr.Conflict("Account already exists")
		}
		return "", fmt.Errorf("auth_service_register_failed: %w", err)
	}

	// Fire-and-forget verification email.
	service.mailer.Dispatch(mail.Message{
		From:    service.mailFrom,
		To:      user.Email,
		Subject: "Please verify your account",
		Body:    fmt.Sprintf("Verification code %s. Id: %s", user.VerificationCode, user.ID),
	})

	return MessageUserCreated, nil
}

// # Verification Flow

/*
VerifyUser confirms an account's email ownership using its verification code.

Description: A missing account and a wrong code produce the same opaque
failure. Verifying an already-verified account is reported as such without
touching the record.

Parameters:
  - context: context.Context
  - id: string
  - verificationCode: string

Returns:
  - string: Confirmation message
  - error: Opaque verification failure or storage errors
*/
func (service *Service) VerifyUser(context context.Context, id, verificationCode string) (string, error) {

	// A lookup miss and a code mismatch must be indistinguishable.
	user, err := service.userRepository.FindByID(context, id)
	if err != nil {
		return "", apperr.ValidationError("Could not verify user")
	}

	if user.Verified {
		return MessageAlreadyVerified, nil
	}

	if user.VerificationCode != verificationCode {
		return "", apperr.ValidationError("Could not verify user")
	}

	user.Verified = true

	if err := service.userRepository.Save(context, user, false); err != nil {
		return "", fmt.Errorf("auth_service_verify_save_failed: %w", err)
	}

	return MessageUserVerified, nil
}

// # Authentication Flow

// LoginInput defines credentials for an authentication attempt.
type LoginInput struct {
	Email    string
	Password string
}

// LoginSession represents a successfully established user session.
type LoginSession struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

/*
Login validates user credentials and issues security tokens.

Description: The verified check intentionally runs BEFORE password
validation; an unverified account is told to verify regardless of the
password supplied. Lookup misses and password mismatches share one generic
message to prevent account enumeration.

Parameters:
  - context: context.Context
  - input: LoginInput

Returns:
  - *LoginSession: Access and refresh tokens
  - error: Unauthorized or internal failures
*/
func (service *Service) Login(context context.Context, input LoginInput) (*LoginSession, error) {

	// Generic message for both not-found and wrong-password cases.
	user, err := service.userRepository.FindByEmail(context, input.Email)
	if err != nil {
		return nil, apperr.Unauthorized("Invalid email or password")
	}

	// Unverified accounts are rejected before the password is even checked.
	if !user.Verified {
		return nil, apperr.Unauthorized("Please verify your email")
	}

	if !service.credentialHasher.Verify(user.PasswordHash, input.Password) {
		return nil, apperr.Unauthorized("Invalid email or password")
	}

	// Mint a fresh session for this refresh-token issuance.
	session := &Session{
		ID:     uuidv7.New(),
		UserID: user.ID,
		Valid:  true,
	}

	if err := service.sessionRepository.Create(context, session); err != nil {
		return nil, fmt.Errorf("auth_service_session_creation_failed: %w", err)
	}

	accessToken, err := service.tokenProvider.SignAccessToken(user.Identity(), AccessTokenTTL)
	if err != nil {
		return nil, fmt.Errorf("auth_service_access_token_failed: %w", err)
	}

	refreshToken, err := service.tokenProvider.SignRefreshToken(session.ID, RefreshTokenTTL)
	if err != nil {
		return nil, fmt.Errorf("auth_service_refresh_token_failed: %w", err)
	}

	return &LoginSession{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
	}, nil
}

// # Session Management

/*
RefreshAccessToken exchanges a valid refresh token for a new access token.

Description: Verifies the refresh token, resolves its session, requires the
session to still be valid, and re-reads the user so the new access token
carries current identity data. The refresh token is NOT rotated. Every
failure mode collapses into one opaque unauthorized outcome.

Parameters:
  - context: context.Context
  - refreshToken: string

Returns:
  - string: New access token
  - error: Unauthorized for any verification, session, or user failure
*/
func (service *Service) RefreshAccessToken(context context.Context, refreshToken string) (string, error) {
	failure := apperr.Unauthorized("Could not refresh access token")

	claims, err := service.tokenProvider.VerifyRefreshToken(refreshToken)
	if err != nil {
		return "", failure
	}

	session, err := service.sessionRepository.FindByID(context, claims.Session)
	if err != nil || !session.Valid {
		return "", failure
	}

	user, err := service.userRepository.FindByID(context, session.UserID)
	if err != nil {
		return "", failure
	}

	accessToken, err := service.tokenProvider.SignAccessToken(user.Identity(), AccessTokenTTL)
	if err != nil {
		return "", fmt.Errorf("auth_service_refresh_access_token_failed: %w", err)
	}

	return accessToken, nil
}

// # Password Recovery

/*
ForgotPassword initiates the forgot-password flow.

Description: Responds with the same generic message whether or not the email
is registered, to prevent account enumeration. Unverified accounts receive an
explicit rejection instead; that divergence leaks account existence and is a
deliberate product decision. A new reset code overwrites any previous one.

Parameters:
  - context: context.Context
  - email: string

Returns:
  - string: Generic confirmation message
  - error: Forbidden for unverified accounts, or storage errors
*/
func (service *Service) ForgotPassword(context context.Context, email string) (string, error) {

	user, err := service.userRepository.FindByEmail(context, email)
	if err != nil {
		service.logger.DebugContext(context, "password reset requested for unknown email",
			slog.String("email", email),
		)
		return MessagePasswordResetSent, nil
	}

	if !user.Verified {
		return "", apperr.Forbidden("User is not verified")
	}

	passwordResetCode, err := sec.GenerateCode()
	if err != nil {
		return "", fmt.Errorf("auth_service_generate_reset_code_failed: %w", err)
	}

	user.PasswordResetCode = &passwordResetCode

	if err := service.userRepository.Save(context, user, false); err != nil {
		return "", fmt.Errorf("auth_service_save_reset_code_failed: %w", err)
	}

	// Fire-and-forget reset email.
	service.mailer.Dispatch(mail.Message{
		From:    service.mailFrom,
		To:      user.Email,
		Subject: "Reset your password",
		Body:    fmt.Sprintf("Password reset code: %s. Id %s", passwordResetCode, user.ID),
	})

	service.logger.DebugContext(context, "password reset email dispatched",
		slog.String("user_id", user.ID),
	)

	return MessagePasswordResetSent, nil
}

/*
ResetPassword completes the forgot-password flow.

Description: Requires a pending reset code that exactly matches the supplied
one. On success the code is cleared and the new password is re-hashed by the
store through the dirty flag. A missing account, an absent code, and a
mismatch all share one opaque failure.

Parameters:
  - context: context.Context
  - id: string
  - passwordResetCode: string
  - password: string

Returns:
  - string: Confirmation message
  - error: Opaque reset failure or storage errors
*/
func (service *Service) ResetPassword(context context.Context, id, passwordResetCode, password string) (string, error) {
	failure := apperr.ValidationError("Could not reset user password")

	user, err := service.userRepository.FindByID(context, id)
	if err != nil {
		return "", failure
	}

	if user.PasswordResetCode == nil || *user.PasswordResetCode != passwordResetCode {
		return "", failure
	}

	// Single use: clear the code before persisting the new credential.
	user.PasswordResetCode = nil
	user.Password = password

	if err := service.userRepository.Save(context, user, true); err != nil {
		return "", fmt.Errorf("auth_service_reset_password_failed: %w", err)
	}

	return MessagePasswordUpdated, nil
}
