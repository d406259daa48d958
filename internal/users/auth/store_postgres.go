// Copyright (c) 2026 Sentra. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// PostgreSQL implementation of the account storage layer.
//
// # Architecture
//
// Repositories in this file are strictly separated from domain logic. They
// implement domain-defined interfaces (e.g., [UserRepository]) using the
// [pgxpool.Pool] connection manager.
//
// # Error Mapping
//
// Storage-specific errors (like pgx.ErrNoRows and SQLSTATE 23505) are mapped
// to domain-friendly [apperr.AppError] types via dberr to avoid leaking
// storage implementation details.
package auth

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/taibuivan/sentra/internal/platform/database/schema"
	"github.com/taibuivan/sentra/internal/platform/dberr"
)

// # User Repository

// PostgresUserRepository implements the UserRepository interface using pgx.
type PostgresUserRepository struct {
	pool   *pgxpool.Pool
	hasher CredentialHasher
}

// NewUserRepository creates a new PostgreSQL implementation of the UserRepository.
func NewUserRepository(pool *pgxpool.Pool, hasher CredentialHasher) *PostgresUserRepository {
	return &PostgresUserRepository{pool: pool, hasher: hasher}
}

/*
Create persists a new user record into the users.account table.

Description: Hashes the transient plaintext password, lower-cases the email,
and initializes timestamps before insertion.

Parameters:
  - context: context.Context
  - user: *User (Entity to persist)

Returns:
  - error: apperr.Conflict on duplicate email, or connectivity errors
*/
func (repository *PostgresUserRepository) Create(context context.Context, user *User) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (%s)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		schema.UserAccount.Table,
		strings.Join(schema.UserAccount.Columns(), ", "),
	)

	// Hash-on-write: the plaintext never reaches the database.
	hash, err := repository.hasher.Hash(user.Password)
	if err != nil {
		return fmt.Errorf("postgres_user_repo_hash_failed: %w", err)
	}
	user.PasswordHash = hash
	user.Password = ""

	user.Email = strings.ToLower(user.Email)

	now := time.Now()
	if user.CreatedAt.IsZero() {
		user.CreatedAt = now
	}
	user.UpdatedAt = now

	_, err = repository.pool.Exec(context, query,
		user.ID,
		user.Email,
		user.FirstName,
		user.LastName,
		user.PasswordHash,
		user.VerificationCode,
		user.PasswordResetCode,
		user.Verified,
		user.CreatedAt,
		user.UpdatedAt,
	)

	if err != nil {
		return dberr.Wrap(err, "create account")
	}

	return nil
}

/*
Save persists changes to an existing account.

Description: Writes all mutable fields. When passwordChanged is true the
transient plaintext is re-hashed first, so callers set a new password by
assigning [User.Password] and flagging the change.

Parameters:
  - context: context.Context
  - user: *User
  - passwordChanged: bool

Returns:
  - error: apperr.NotFound if the row vanished, or persistence failures
*/
func (repository *PostgresUserRepository) Save(context context.Context, user *User, passwordChanged bool) error {
	query := fmt.Sprintf(`
		UPDATE %s
		SET %s = $2, %s = $3, %s = $4, %s = $5, %s = $6, %s = $7, %s = $8, %s = $9
		WHERE %s = $1`,
		schema.UserAccount.Table,
		schema.UserAccount.Email, schema.UserAccount.FirstName, schema.UserAccount.LastName,
		schema.UserAccount.Password, schema.UserAccount.VerificationCode,
		schema.UserAccount.PasswordResetCode, schema.UserAccount.Verified,
		schema.UserAccount.UpdatedAt,
		schema.UserAccount.ID,
	)

	if passwordChanged {
		hash, err := repository.hasher.Hash(user.Password)
		if err != nil {
			return fmt.Errorf("postgres_user_repo_rehash_failed: %w", err)
		}
		user.PasswordHash = hash
		user.Password = ""
	}

	user.UpdatedAt = time.Now()

	tag, err := repository.pool.Exec(context, query,
		user.ID,
		strings.ToLower(user.Email),
		user.FirstName,
		user.LastName,
		user.PasswordHash,
		user.VerificationCode,
		user.PasswordResetCode,
		user.Verified,
		user.UpdatedAt,
	)

	if err != nil {
		return dberr.Wrap(err, "save account")
	}

	if tag.RowsAffected() == 0 {
		return dberr.ErrNotFound
	}

	return nil
}

/*
FindByEmail retrieves a user record by their unique email address.

Description: The lookup is case-insensitive; stored emails are lower-cased
at write time.

Parameters:
  - context: context.Context
  - email: string

Returns:
  - *User: Hydrated account entity
  - error: apperr.NotFound or database errors
*/
func (repository *PostgresUserRepository) FindByEmail(context context.Context, email string) (*User, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM %s
		WHERE %s = $1`,
		strings.Join(schema.UserAccount.Columns(), ", "),
		schema.UserAccount.Table,
		schema.UserAccount.Email,
	)

	return repository.scanOne(context, query, strings.ToLower(email))
}

/*
FindByID retrieves a user record by their unique ID.

Description: Primary key resolution for user accounts.

Parameters:
  - context: context.Context
  - id: string (UUIDv7)

Returns:
  - *User: Hydrated account entity
  - error: apperr.NotFound or execution errors
*/
func (repository *PostgresUserRepository) FindByID(context context.Context, id string) (*User, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM %s
		WHERE %s = $1`,
		strings.Join(schema.UserAccount.Columns(), ", "),
		schema.UserAccount.Table,
		schema.UserAccount.ID,
	)

	return repository.scanOne(context, query, id)
}

// scanOne runs a single-row account query and hydrates the entity.
func (repository *PostgresUserRepository) scanOne(context context.Context, query string, argument any) (*User, error) {
	user := &User{}
	err := repository.pool.QueryRow(context, query, argument).Scan(
		&user.ID,
		&user.Email,
		&user.FirstName,
		&user.LastName,
		&user.PasswordHash,
		&user.VerificationCode,
		&user.PasswordResetCode,
		&user.Verified,
		&user.CreatedAt,
		&user.UpdatedAt,
	)

	if err != nil {
		return nil, dberr.Wrap(err, "find account")
	}

	return user, nil
}
