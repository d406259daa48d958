// Copyright (c) 2026 Sentra. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	"context"
)

// # Credential Hashing

// CredentialHasher abstracts the password hashing scheme used by the stores.
type CredentialHasher interface {
	// Hash derives a storable hash from a plaintext password.
	Hash(password string) (string, error)

	// Verify reports whether candidate matches the stored hash.
	// Malformed hashes count as a mismatch, never an error.
	Verify(encodedHash, candidate string) bool
}

// # User Data Access

// UserRepository defines the data access contract for user accounts.
//
// The repository owns password hashing on write: callers hand over the
// transient plaintext in [User.Password] and never see or supply a hash.
type UserRepository interface {

	/*
		Create persists a brand-new user account.

		Description: Hashes the transient plaintext password, lower-cases the
		email, and initializes timestamps before insertion.

		Parameters:
		  - context: context.Context
		  - user: *User

		Returns:
		  - error: apperr.Conflict on duplicate email, or persistence failures
	*/
	Create(context context.Context, user *User) error

	/*
		Save persists changes to an existing account.

		Description: Writes all mutable fields. When passwordChanged is true the
		transient plaintext in [User.Password] is re-hashed first, mirroring a
		hash-on-write hook.

		Parameters:
		  - context: context.Context
		  - user: *User
		  - passwordChanged: bool

		Returns:
		  - error: Persistence failures
	*/
	Save(context context.Context, user *User, passwordChanged bool) error

	/*
		FindByEmail returns the account with the given email (case-insensitive).

		Parameters:
		  - context: context.Context
		  - email: string

		Returns:
		  - *User: Hydrated entity
		  - error: apperr.NotFound or database retrieval failures
	*/
	FindByEmail(context context.Context, email string) (*User, error)

	/*
		FindByID returns the account with the given ID.

		Parameters:
		  - context: context.Context
		  - id: string

		Returns:
		  - *User: Hydrated entity
		  - error: apperr.NotFound or database retrieval failures
	*/
	FindByID(context context.Context, id string) (*User, error)
}

// # Session Data Access

// SessionRepository defines the data access contract for refresh-token sessions.
type SessionRepository interface {

	/*
		Create persists a new session for an authenticated login.

		Description: The record expires automatically alongside the refresh
		token that references it.

		Parameters:
		  - context: context.Context
		  - session: *Session

		Returns:
		  - error: Persistence failures
	*/
	Create(context context.Context, session *Session) error

	/*
		FindByID returns the session with the given ID.

		Parameters:
		  - context: context.Context
		  - id: string

		Returns:
		  - *Session: Hydrated entity
		  - error: apperr.NotFound or retrieval failures
	*/
	FindByID(context context.Context, id string) (*Session, error)

	/*
		Invalidate marks a session as permanently unusable for token refresh.

		Parameters:
		  - context: context.Context
		  - sessionID: string

		Returns:
		  - error: apperr.NotFound or persistence failures
	*/
	Invalidate(context context.Context, sessionID string) error
}
