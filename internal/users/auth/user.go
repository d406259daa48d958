// Copyright (c) 2026 Sentra. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package auth implements the user identity and session management layer.

It defines the core domain entities (User, Session) and logic for registration,
email verification, authentication, and password recovery.

# Architecture

This layer is the "Truth" of the system. Entities defined here have no external
dependencies and encapsulate all business rules related to user identity.
*/
package auth

import (
	"time"

	"github.com/taibuivan/sentra/internal/platform/sec"
)

// # Domain Entities

// User represents a registered account on the Sentra platform.
//
// Password carries the plaintext credential only between the flow layer and
// the store; the store hashes it on write and it is never serialized.
type User struct {
	ID                string    `json:"id"`
	Email             string    `json:"email"`
	FirstName         string    `json:"first_name"`
	LastName          string    `json:"last_name"`
	Password          string    `json:"-"` // Transient plaintext. Hashed by the store on write.
	PasswordHash      string    `json:"-"` // Explicitly omitted from JSON for security.
	VerificationCode  string    `json:"-"` // Single-purpose secret. Never exposed.
	PasswordResetCode *string   `json:"-"` // Nil when no reset is pending.
	Verified          bool      `json:"verified"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// Identity returns the public projection embedded in access tokens.
// Secret codes, the password hash, and the verified flag never leave
// through this path.
func (user *User) Identity() sec.Identity {
	return sec.Identity{
		UserID:    user.ID,
		Email:     user.Email,
		FirstName: user.FirstName,
		LastName:  user.LastName,
		CreatedAt: user.CreatedAt,
		UpdatedAt: user.UpdatedAt,
	}
}

// Session represents a refresh-token session. A session stays valid until
// explicitly invalidated or until its storage TTL expires alongside the
// refresh token that references it.
type Session struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Valid     bool      `json:"valid"`
	CreatedAt time.Time `json:"created_at"`
}

// # Field Identifiers

// Global field names for validation and identity mapping in the authentication domain.
const (
	FieldEmail                = "email"
	FieldFirstName            = "first_name"
	FieldLastName             = "last_name"
	FieldPassword             = "password"
	FieldPasswordConfirmation = "password_confirmation"
	FieldID                   = "id"
	FieldVerificationCode     = "verification_code"
	FieldPasswordResetCode    = "password_reset_code"
	FieldAccessToken          = "access_token"
	FieldRefreshToken         = "refresh_token"
)
