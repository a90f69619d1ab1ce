// Copyright (c) 2026 Pulse. All rights reserved.
// Author: dev@pulse.app

/*
Package account implements profile management for Pulse members.

It exposes the authenticated user's private profile, partial profile updates,
account deletion, and the public profile view other members see.

# Architecture

The package owns no tables. It operates on the user records defined by the
auth domain through the [auth.UserRepository] contract, adding the projection
and update rules that belong to profiles rather than to identity.
*/
package account

import (
	"time"

	"github.com/pulseapp/pulse/internal/users/auth"
)

// # Projections

// PublicProfile is the subset of a user record visible to other members.
//
// Email, password material, and session state never leave the server through
// this projection.
type PublicProfile struct {
	ID          string    `json:"id"`
	Username    string    `json:"username"`
	DisplayName string    `json:"display_name"`
	AvatarURL   string    `json:"avatar_url,omitempty"`
	CoverURL    string    `json:"cover_url,omitempty"`
	Bio         string    `json:"bio,omitempty"`
	IsVerified  bool      `json:"is_verified"`
	JoinedAt    time.Time `json:"joined_at"`
}

// NewPublicProfile projects a user record into its shareable form.
func NewPublicProfile(user *auth.User) *PublicProfile {
	return &PublicProfile{
		ID:          user.ID,
		Username:    user.Username,
		DisplayName: user.DisplayName,
		AvatarURL:   user.AvatarURL,
		CoverURL:    user.CoverURL,
		Bio:         user.Bio,
		IsVerified:  user.IsVerified,
		JoinedAt:    user.CreatedAt,
	}
}

// # Field Identifiers

const (
	FieldDisplayName = "display_name"
	FieldBio         = "bio"
	FieldAvatarURL   = "avatar_url"
	FieldCoverURL    = "cover_url"
	FieldUsername    = "username"
)

// # Constraints

const (
	// MaxDisplayNameLength bounds the display name.
	MaxDisplayNameLength = 60

	// MaxBioLength bounds the profile biography.
	MaxBioLength = 500
)
