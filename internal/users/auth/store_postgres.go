// Copyright (c) 2026 Pulse. All rights reserved.
// Author: dev@pulse.app

// PostgreSQL implementations of the auth storage contracts.
//
// # Architecture
//
// Repositories in this file are strictly separated from domain logic. They
// implement domain-defined interfaces (e.g., [UserRepository]) using the
// [pgxpool.Pool] connection manager.
//
// # Error Mapping
//
// Storage-specific errors (like pgx.ErrNoRows) are mapped to domain-friendly
// [apperr.AppError] types to avoid leaking storage implementation details.
package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/pulseapp/pulse/internal/platform/apperr"
	"github.com/pulseapp/pulse/internal/platform/dberr"
)

// # User Repository

// PostgresUserRepository implements the UserRepository interface using pgx.
type PostgresUserRepository struct {
	pool *pgxpool.Pool
}

// NewUserRepository creates a new PostgreSQL implementation of the UserRepository.
func NewUserRepository(pool *pgxpool.Pool) *PostgresUserRepository {
	return &PostgresUserRepository{pool: pool}
}

// userColumns is the canonical SELECT list for hydrating a [User].
const userColumns = `id, username, email, passwordhash, displayname, avatarurl, coverurl, bio, isverified, refreshtokenhash, createdat, updatedat`

// scanUser hydrates a User from a row matching userColumns.
func scanUser(row pgx.Row) (*User, error) {
	user := &User{}
	var refreshTokenHash *string

	err := row.Scan(
		&user.ID,
		&user.Username,
		&user.Email,
		&user.PasswordHash,
		&user.DisplayName,
		&user.AvatarURL,
		&user.CoverURL,
		&user.Bio,
		&user.IsVerified,
		&refreshTokenHash,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if refreshTokenHash != nil {
		user.RefreshTokenHash = *refreshTokenHash
	}

	return user, nil
}

/*
Create persists a new user record into the users.account table.

Description: Deep-persists account metadata, ensuring timestamps are initialized
if not provided.

Parameters:
  - context: context.Context
  - user: *User (Entity to persist)

Returns:
  - error: Database constraint violations or connectivity errors
*/
func (repository *PostgresUserRepository) Create(context context.Context, user *User) error {
	const query = `
		INSERT INTO users.account (
			id, username, email, passwordhash, displayname, avatarurl, coverurl, bio, isverified, createdat, updatedat
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`

	now := time.Now()
	if user.CreatedAt.IsZero() {
		user.CreatedAt = now
	}
	user.UpdatedAt = now

	_, err := repository.pool.Exec(context, query,
		user.ID,
		user.Username,
		user.Email,
		user.PasswordHash,
		user.DisplayName,
		user.AvatarURL,
		user.CoverURL,
		user.Bio,
		user.IsVerified,
		user.CreatedAt,
		user.UpdatedAt,
	)

	if err != nil {
		// A unique-index hit on username or email must surface as a
		// conflict, not an internal failure.
		return dberr.Wrap(err, "user_create")
	}

	return nil
}

/*
FindByEmail retrieves a user record by their unique email address.

Description: Performs a lookup on the account table, filtering out soft-deleted users.

Parameters:
  - context: context.Context
  - email: string (normalized)

Returns:
  - *User: Hydrated account entity
  - error: apperr.NotFound or database errors
*/
func (repository *PostgresUserRepository) FindByEmail(context context.Context, email string) (*User, error) {
	query := `
		SELECT ` + userColumns + `
		FROM users.account
		WHERE email = $1 AND deletedat IS NULL`

	user, err := scanUser(repository.pool.QueryRow(context, query, email))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("User not found with this email")
		}
		return nil, fmt.Errorf("postgres_user_repo_find_by_email_failed: %w", err)
	}

	return user, nil
}

/*
FindByUsername retrieves a user record by their unique username.

Description: Standard lookup by username for authentication and profile resolution.

Parameters:
  - context: context.Context
  - username: string (normalized)

Returns:
  - *User: Hydrated account entity
  - error: apperr.NotFound or database errors
*/
func (repository *PostgresUserRepository) FindByUsername(context context.Context, username string) (*User, error) {
	query := `
		SELECT ` + userColumns + `
		FROM users.account
		WHERE username = $1 AND deletedat IS NULL`

	user, err := scanUser(repository.pool.QueryRow(context, query, username))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("User not found with this username")
		}
		return nil, fmt.Errorf("postgres_user_repo_find_by_username_failed: %w", err)
	}

	return user, nil
}

/*
FindByID retrieves a user record by their unique ID.

Description: Primary key resolution for user accounts.

Parameters:
  - context: context.Context
  - id: string (UUIDv7)

Returns:
  - *User: Hydrated account entity
  - error: Not found or execution errors
*/
func (repository *PostgresUserRepository) FindByID(context context.Context, id string) (*User, error) {
	query := `
		SELECT ` + userColumns + `
		FROM users.account
		WHERE id = $1 AND deletedat IS NULL`

	user, err := scanUser(repository.pool.QueryRow(context, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("User not found")
		}
		return nil, fmt.Errorf("postgres_user_repo_find_by_id_failed: %w", err)
	}

	return user, nil
}

/*
Update persists changes to a user's mutable profile fields.

Description: Synchronizes the in-memory user state with the database,
refreshing the updatedat timestamp.

Parameters:
  - context: context.Context
  - user: *User

Returns:
  - error: Update failures
*/
func (repository *PostgresUserRepository) Update(context context.Context, user *User) error {
	const query = `
		UPDATE users.account
		SET displayname = $2, avatarurl = $3, coverurl = $4, bio = $5, updatedat = $6
		WHERE id = $1 AND deletedat IS NULL`

	user.UpdatedAt = time.Now()
	_, err := repository.pool.Exec(context, query,
		user.ID,
		user.DisplayName,
		user.AvatarURL,
		user.CoverURL,
		user.Bio,
		user.UpdatedAt,
	)

	if err != nil {
		return fmt.Errorf("postgres_user_repo_update_failed: %w", err)
	}

	return nil
}

/*
UpdatePassword updates only the password hash for a specific user.

Parameters:
  - context: context.Context
  - userID: string
  - newHash: string

Returns:
  - error: Execution errors
*/
func (repository *PostgresUserRepository) UpdatePassword(context context.Context, userID, newHash string) error {
	const query = `
		UPDATE users.account
		SET passwordhash = $2, updatedat = $3
		WHERE id = $1 AND deletedat IS NULL`

	_, err := repository.pool.Exec(context, query, userID, newHash, time.Now())
	if err != nil {
		return fmt.Errorf("postgres_user_repo_update_password_failed: %w", err)
	}

	return nil
}

/*
MarkVerified updates the user's status to isverified = true.

Description: Post-verification cleanup to activate the account.

Parameters:
  - context: context.Context
  - userID: string

Returns:
  - error: Database errors
*/
func (repository *PostgresUserRepository) MarkVerified(context context.Context, userID string) error {
	const query = "UPDATE users.account SET isverified = TRUE, updatedat = $2 WHERE id = $1"
	_, err := repository.pool.Exec(context, query, userID, time.Now())
	if err != nil {
		return fmt.Errorf("postgres_user_repo_mark_verified_failed: %w", err)
	}
	return nil
}

/*
SoftDelete marks a user account as deleted using their ID.

Description: Retention-friendly deletion by setting deletedat.

Parameters:
  - context: context.Context
  - id: string

Returns:
  - error: Side-effect failures
*/
func (repository *PostgresUserRepository) SoftDelete(context context.Context, id string) error {
	const query = "UPDATE users.account SET deletedat = $2, refreshtokenhash = NULL WHERE id = $1"
	_, err := repository.pool.Exec(context, query, id, time.Now())
	if err != nil {
		return fmt.Errorf("postgres_user_repo_soft_delete_failed: %w", err)
	}
	return nil
}

// # Session Pointer Operations

/*
SetRefreshTokenHash unconditionally installs a new session hash.

Description: Used on login, where the fresh session replaces any prior one.

Parameters:
  - context: context.Context
  - userID: string
  - tokenHash: string

Returns:
  - error: Execution errors
*/
func (repository *PostgresUserRepository) SetRefreshTokenHash(context context.Context, userID, tokenHash string) error {
	const query = `
		UPDATE users.account
		SET refreshtokenhash = $2, updatedat = $3
		WHERE id = $1 AND deletedat IS NULL`

	_, err := repository.pool.Exec(context, query, userID, tokenHash, time.Now())
	if err != nil {
		return fmt.Errorf("postgres_user_repo_set_refresh_hash_failed: %w", err)
	}

	return nil
}

/*
RotateRefreshTokenHash performs the compare-and-swap session rotation.

Description: The WHERE clause carries the expected old hash, so the swap and
the comparison happen in a single statement. Under concurrent refresh attempts
with the same token, PostgreSQL row locking guarantees at most one statement
observes the old hash; all others affect zero rows.

Parameters:
  - context: context.Context
  - userID: string
  - oldHash: string
  - newHash: string

Returns:
  - error: ErrStaleRefreshToken when zero rows matched, or execution errors
*/
func (repository *PostgresUserRepository) RotateRefreshTokenHash(context context.Context, userID, oldHash, newHash string) error {
	const query = `
		UPDATE users.account
		SET refreshtokenhash = $3, updatedat = $4
		WHERE id = $1 AND refreshtokenhash = $2 AND deletedat IS NULL`

	tag, err := repository.pool.Exec(context, query, userID, oldHash, newHash, time.Now())
	if err != nil {
		return fmt.Errorf("postgres_user_repo_rotate_refresh_hash_failed: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return ErrStaleRefreshToken
	}

	return nil
}

/*
ClearRefreshTokenHash removes the stored session hash.

Description: Clearing is unconditional and safe to repeat, keeping logout idempotent.

Parameters:
  - context: context.Context
  - userID: string

Returns:
  - error: Execution errors
*/
func (repository *PostgresUserRepository) ClearRefreshTokenHash(context context.Context, userID string) error {
	const query = `
		UPDATE users.account
		SET refreshtokenhash = NULL, updatedat = $2
		WHERE id = $1`

	_, err := repository.pool.Exec(context, query, userID, time.Now())
	if err != nil {
		return fmt.Errorf("postgres_user_repo_clear_refresh_hash_failed: %w", err)
	}

	return nil
}
