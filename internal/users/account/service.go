// Copyright (c) 2026 Pulse. All rights reserved.
// Author: dev@pulse.app

package account

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/pulseapp/pulse/internal/users/auth"
	"github.com/pulseapp/pulse/pkg/normalize"
)

// # Service Layer

// Service orchestrates business logic for member profiles.
type Service struct {
	userRepository auth.UserRepository
	logger         *slog.Logger
}

// NewService constructs a new [Service] with its repository dependency.
func NewService(userRepo auth.UserRepository, logger *slog.Logger) *Service {
	return &Service{
		userRepository: userRepo,
		logger:         logger,
	}
}

// # Profile Management

/*
GetProfile retrieves the full private identity of a user.

Parameters:
  - context: context.Context
  - userID: string

Returns:
  - *auth.User: The hydrated user profile
  - error: Not found or execution failures
*/
func (service *Service) GetProfile(context context.Context, userID string) (*auth.User, error) {
	user, err := service.userRepository.FindByID(context, userID)
	if err != nil {
		return nil, err
	}
	return user, nil
}

// UpdateProfileInput defines the mutable subset of user profile fields.
//
// Pointer fields distinguish "leave unchanged" (nil) from "set to empty".
type UpdateProfileInput struct {
	DisplayName *string
	Bio         *string
	AvatarURL   *string
	CoverURL    *string
}

/*
UpdateProfile applies a partial set of changes to a user's account metadata.

Description: Fetches the existing user state, overrides provided fields, and
synchronizes the change to persistent storage.

Parameters:
  - context: context.Context
  - userID: string
  - input: UpdateProfileInput

Returns:
  - *auth.User: The updated user profile
  - error: Update or storage failures
*/
func (service *Service) UpdateProfile(context context.Context, userID string, input UpdateProfileInput) (*auth.User, error) {

	user, err := service.userRepository.FindByID(context, userID)
	if err != nil {
		return nil, err
	}

	// Apply delta updates
	if input.DisplayName != nil {
		user.DisplayName = *input.DisplayName
	}
	if input.Bio != nil {
		user.Bio = *input.Bio
	}
	if input.AvatarURL != nil {
		user.AvatarURL = *input.AvatarURL
	}
	if input.CoverURL != nil {
		user.CoverURL = *input.CoverURL
	}

	// Persist changes
	if err := service.userRepository.Update(context, user); err != nil {
		return nil, fmt.Errorf("account_service_update_failed: %w", err)
	}

	service.logger.Info("user_profile_updated", slog.String("user_id", userID))

	return user, nil
}

/*
DeleteAccount performs an idempotent soft-deletion of a user account.

Description: Flags the account as deleted. The soft delete also drops the
stored session hash, so outstanding tokens die with the account.

Parameters:
  - context: context.Context
  - userID: string

Returns:
  - error: Execution failures
*/
func (service *Service) DeleteAccount(context context.Context, userID string) error {
	if err := service.userRepository.SoftDelete(context, userID); err != nil {
		return fmt.Errorf("account_service_delete_failed: %w", err)
	}

	service.logger.Warn("user_account_deleted", slog.String("user_id", userID))

	return nil
}

// # Public Discovery

/*
GetPublicProfile resolves a username into the profile other members see.

Parameters:
  - context: context.Context
  - username: string (any casing)

Returns:
  - *PublicProfile: Shareable projection
  - error: Not found or execution failures
*/
func (service *Service) GetPublicProfile(context context.Context, username string) (*PublicProfile, error) {
	user, err := service.userRepository.FindByUsername(context, normalize.Username(username))
	if err != nil {
		return nil, err
	}

	return NewPublicProfile(user), nil
}
