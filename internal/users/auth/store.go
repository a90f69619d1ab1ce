// Copyright (c) 2026 Pulse. All rights reserved.
// Author: dev@pulse.app

package auth

import (
	"context"
	"errors"
	"time"
)

// ErrStaleRefreshToken is returned by RotateRefreshTokenHash when the expected
// hash no longer matches the stored value. It signals that the presented
// refresh token has already been rotated or revoked.
var ErrStaleRefreshToken = errors.New("refresh token hash does not match stored value")

// # User Data Access

// UserRepository defines the data access contract for user accounts.
type UserRepository interface {

	/*
		FindByID returns the account with the given ID.

		Parameters:
		  - context: context.Context
		  - id: string

		Returns:
		  - *User: Hydrated entity
		  - error: Database retrieval failures
	*/
	FindByID(context context.Context, id string) (*User, error)

	/*
		FindByEmail returns the account with the given email.

		Parameters:
		  - context: context.Context
		  - email: string

		Returns:
		  - *User: Hydrated entity
		  - error: Database retrieval failures
	*/
	FindByEmail(context context.Context, email string) (*User, error)

	/*
		FindByUsername returns the account with the given username.

		Parameters:
		  - context: context.Context
		  - username: string

		Returns:
		  - *User: Hydrated entity
		  - error: Database retrieval failures
	*/
	FindByUsername(context context.Context, username string) (*User, error)

	/*
		Create persists a brand-new user account to the storage.

		Parameters:
		  - context: context.Context
		  - user: *User

		Returns:
		  - error: Persistence failures
	*/
	Create(context context.Context, user *User) error

	/*
		Update persists changes to mutable profile fields.

		Parameters:
		  - context: context.Context
		  - user: *User

		Returns:
		  - error: Persistence failures
	*/
	Update(context context.Context, user *User) error

	/*
		UpdatePassword replaces only the user's password hash.

		Parameters:
		  - context: context.Context
		  - userID: string
		  - newHash: string

		Returns:
		  - error: Persistence failures
	*/
	UpdatePassword(context context.Context, userID, newHash string) error

	/*
		MarkVerified updates the user's status to isverified = true.

		Parameters:
		  - context: context.Context
		  - userID: string

		Returns:
		  - error: Persistence failures
	*/
	MarkVerified(context context.Context, userID string) error

	/*
		SoftDelete marks the account as deleted without removing the row.

		Parameters:
		  - context: context.Context
		  - id: string

		Returns:
		  - error: Persistence failures
	*/
	SoftDelete(context context.Context, id string) error

	/*
		SetRefreshTokenHash unconditionally stores the hash of a freshly
		issued refresh token, replacing whatever session existed before.

		Parameters:
		  - context: context.Context
		  - userID: string
		  - tokenHash: string

		Returns:
		  - error: Persistence failures
	*/
	SetRefreshTokenHash(context context.Context, userID, tokenHash string) error

	/*
		RotateRefreshTokenHash atomically replaces the stored hash, but only
		if the stored value still equals oldHash. This compare-and-swap is
		what makes a refresh token single-use under concurrent requests:
		exactly one caller wins, every other caller gets ErrStaleRefreshToken.

		Parameters:
		  - context: context.Context
		  - userID: string
		  - oldHash: string
		  - newHash: string

		Returns:
		  - error: ErrStaleRefreshToken on mismatch, or persistence failures
	*/
	RotateRefreshTokenHash(context context.Context, userID, oldHash, newHash string) error

	/*
		ClearRefreshTokenHash removes the stored session hash for a user.
		Clearing an already-empty hash is not an error, which keeps logout
		idempotent.

		Parameters:
		  - context: context.Context
		  - userID: string

		Returns:
		  - error: Persistence failures
	*/
	ClearRefreshTokenHash(context context.Context, userID string) error
}

// # Volatile Data Access

// ResetTokenRepository defines the contract for storing volatile password reset tokens.
type ResetTokenRepository interface {

	/*
		Set stores a reset token associated with a userID for a limited duration.

		Parameters:
		  - context: context.Context
		  - token: string
		  - userID: string
		  - ttl: time.Duration

		Returns:
		  - error: Persistence failures
	*/
	Set(context context.Context, token string, userID string, ttl time.Duration) error

	/*
		Get retrieves the userID associated with a given reset token.

		Parameters:
		  - context: context.Context
		  - token: string

		Returns:
		  - string: UserID
		  - error: Retrieval failures
	*/
	Get(context context.Context, token string) (string, error)

	/*
		Delete removes a reset token after successful use.

		Parameters:
		  - context: context.Context
		  - token: string

		Returns:
		  - error: Persistence failures
	*/
	Delete(context context.Context, token string) error
}

// VerificationTokenRepository defines the contract for storing volatile email verification tokens.
type VerificationTokenRepository interface {

	/*
		Set stores a verification token associated with a userID.

		Parameters:
		  - context: context.Context
		  - token: string
		  - userID: string
		  - ttl: time.Duration

		Returns:
		  - error: Persistence failures
	*/
	Set(context context.Context, token string, userID string, ttl time.Duration) error

	/*
		Get retrieves the userID associated with a given verification token.

		Parameters:
		  - context: context.Context
		  - token: string

		Returns:
		  - string: UserID
		  - error: Retrieval failures
	*/
	Get(context context.Context, token string) (string, error)

	/*
		Delete removes a verification token after successful use.

		Parameters:
		  - context: context.Context
		  - token: string

		Returns:
		  - error: Persistence failures
	*/
	Delete(context context.Context, token string) error
}
