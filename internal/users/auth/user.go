// Copyright (c) 2026 Pulse. All rights reserved.
// Author: dev@pulse.app

/*
Package auth implements the user identity and session management layer.

It defines the core domain entity (User) and logic for authentication,
authorization, and account lifecycle.

# Architecture

This layer is the "Truth" of the system. Entities defined here have no external
dependencies and encapsulate all business rules related to user identity.

# Session Model

Pulse tracks exactly one active refresh token per account. The hash of the
current refresh token lives directly on the user record, so issuing a new
token atomically invalidates the previous one.
*/
package auth

import (
	"time"
)

// # Domain Entities

// User represents a registered member of the Pulse platform.
type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"` // Explicitly omitted from JSON for security.
	DisplayName  string    `json:"display_name"`
	AvatarURL    string    `json:"avatar_url,omitempty"`
	CoverURL     string    `json:"cover_url,omitempty"`
	Bio          string    `json:"bio,omitempty"`
	IsVerified   bool      `json:"is_verified"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`

	// RefreshTokenHash is the hash of the single active refresh token, or
	// empty when the user has no session. Omitted for security.
	RefreshTokenHash string `json:"-"`
}

// # Field Identifiers

// Global field names for validation and identity mapping in the authentication domain.
const (
	FieldUsername        = "username"
	FieldEmail           = "email"
	FieldPassword        = "password"
	FieldDisplayName     = "display_name"
	FieldLogin           = "login"
	FieldToken           = "token"
	FieldCurrentPassword = "current_password"
	FieldNewPassword     = "new_password"
	FieldRefreshToken    = "refresh_token"
	FieldAccessToken     = "access_token"
	FieldTokenType       = "token_type"
	FieldExpiresIn       = "expires_in"
	FieldUser            = "user"
	FieldMessage         = "message"
)
