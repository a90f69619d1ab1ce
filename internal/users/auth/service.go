// Copyright (c) 2026 Pulse. All rights reserved.
// Author: dev@pulse.app

package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/pulseapp/pulse/internal/platform/apperr"
	"github.com/pulseapp/pulse/internal/platform/events"
	"github.com/pulseapp/pulse/internal/platform/sec"
	"github.com/pulseapp/pulse/pkg/normalize"
	"github.com/pulseapp/pulse/pkg/uuidv7"
)

// # Contracts & Types

// TokenProvider defines the contract for issuing and verifying security tokens.
type TokenProvider interface {
	// GenerateAccessToken creates a signed short-lived JWT for the given user.
	//
	// # Parameters
	//   - userID: The ID of the account.
	//   - username: The username of the account.
	//   - timeToLive: The duration before the token expires.
	//
	// # Returns
	//   - A signed JWT string, or an err if signing fails.
	GenerateAccessToken(userID, username string, timeToLive time.Duration) (string, error)

	// GenerateRefreshToken creates a signed long-lived JWT for the given user.
	// Refresh tokens carry the same identity claims as access tokens but a
	// distinct type claim, so one can never stand in for the other.
	GenerateRefreshToken(userID, username string, timeToLive time.Duration) (string, error)

	// VerifyRefreshToken validates a refresh token's signature, expiry, and
	// type claim, returning the embedded identity claims.
	VerifyRefreshToken(tokenString string) (*sec.AuthClaims, error)
}

// Service implements user authentication use cases.
//
// # Review Process
//
// This service is critical for security. Any changes to hashing, registration,
// or session rotation logic must be reviewed by the security team.
type Service struct {
	userRepository              UserRepository
	resetTokenRepository        ResetTokenRepository
	verificationTokenRepository VerificationTokenRepository
	tokenProvider               TokenProvider
	eventPublisher              *events.Publisher

	accessTokenTTL  time.Duration
	refreshTokenTTL time.Duration
}

// NewService constructs a new auth [Service] with necessary dependencies.
//
// Token lifetimes are configuration, injected at wiring time rather than
// hard-coded in the domain.
func NewService(
	userRepo UserRepository,
	resetRepo ResetTokenRepository,
	verifyRepo VerificationTokenRepository,
	tokenProv TokenProvider,
	publisher *events.Publisher,
	accessTokenTTL time.Duration,
	refreshTokenTTL time.Duration,
) *Service {
	return &Service{
		userRepository:              userRepo,
		resetTokenRepository:        resetRepo,
		verificationTokenRepository: verifyRepo,
		tokenProvider:               tokenProv,
		eventPublisher:              publisher,
		accessTokenTTL:              accessTokenTTL,
		refreshTokenTTL:             refreshTokenTTL,
	}
}

// AccessTokenTTL exposes the configured access token lifetime for transport-layer metadata.
func (service *Service) AccessTokenTTL() time.Duration {
	return service.accessTokenTTL
}

// dummyPasswordHash is a throwaway bcrypt hash compared against when the
// login identifier resolves to no account. The comparison result is discarded.
const dummyPasswordHash = "$2a$10$N9qo8uLOickgx2ZMRZoMyeIjZAgcfl7p92ldGxad68LJZdL17lhWy"

// # Registration Flow

// RegisterInput holds the data required to enroll a new member.
type RegisterInput struct {
	Username    string
	Email       string
	Password    string
	DisplayName string
}

/*
Register validates, hashes, and persists a brand new user account.

Description: Deep-enrollment of a new member, handling identity normalization,
password hashing, and initial verification token state.

Parameters:
  - context: context.Context
  - input: RegisterInput

Returns:
  - *User: Created entity
  - err: Conflict (if identity exists) or storage errors
*/
func (service *Service) Register(context context.Context, input RegisterInput) (*User, error) {

	// Canonicalize identifiers so lookups are case-insensitive.
	username := normalize.Username(input.Username)
	email := normalize.Email(input.Email)

	// Verify email uniqueness. Return a client-safe Conflict err.
	_, err := service.userRepository.FindByEmail(context, email)
	if err == nil {
		return nil, apperr.Conflict("Email is already registered")
	}

	// Verify username uniqueness. Return a client-safe Conflict err.
	_, err = service.userRepository.FindByUsername(context, username)
	if err == nil {
		return nil, apperr.Conflict("Username is already taken")
	}

	// Prevent storing plain-text passwords. Default cost is used for balance
	// between security and CPU utilization during registration spikes.
	hashedPassword, err := sec.HashPassword(input.Password)
	if err != nil {
		return nil, fmt.Errorf("auth_service_hash_failed: %w", err)
	}

	// Construct the new User entity. Time-sortable ID to prevent PG index fragmentation.
	user := &User{
		ID:           uuidv7.New(),
		Username:     username,
		Email:        email,
		PasswordHash: hashedPassword,
		DisplayName:  input.DisplayName,
		IsVerified:   false,
	}

	// Persist the user to the database
	if err := service.userRepository.Create(context, user); err != nil {
		return nil, fmt.Errorf("auth_service_register_failed: %w", err)
	}

	// Generate and store a verification token in Redis as an async-ready side effect
	token, err := sec.GenerateSecureToken(VerificationTokenLength)
	if err == nil {
		_ = service.verificationTokenRepository.Set(context, token, user.ID, VerificationTokenTTL)
		// TODO: Trigger email service with the verification link
	}

	service.eventPublisher.Publish(context, events.EventUserRegistered, user.ID, map[string]any{
		FieldUsername: user.Username,
	})

	return user, nil
}

// # Authentication Flow

// LoginInput defines credentials for an authentication attempt.
type LoginInput struct {
	Login    string // Can be Username or Email
	Password string
}

// LoginSession represents a successfully established user session.
type LoginSession struct {
	AccessToken           string
	RefreshToken          string
	RefreshTokenExpiresAt time.Time
	User                  *User
}

/*
Login validates user credentials and issues security tokens.

Description: Verifies identity, performs constant-time password comparison,
and installs a new session. Because the account holds a single session slot,
a successful login displaces any session from another device.

Parameters:
  - context: context.Context
  - input: LoginInput

Returns:
  - *LoginSession: Transport-ready session identifiers
  - err: Unauthorized or internal failures
*/
func (service *Service) Login(context context.Context, input LoginInput) (*LoginSession, error) {

	// Flexible login: look up by Email or Username
	login := normalize.Email(input.Login)
	user, err := service.userRepository.FindByEmail(context, login)
	if err != nil {
		user, err = service.userRepository.FindByUsername(context, normalize.Username(input.Login))
	}

	// If (err != nil) the user does not exist. Generic message to prevent enumeration.
	if err != nil {
		// Burn a real bcrypt comparison so unknown-user and wrong-password
		// attempts take comparable time.
		sec.CheckPasswordHash(input.Password, dummyPasswordHash)
		return nil, apperr.Unauthorized("Invalid login credentials")
	}

	// Verify password hash using constant-time comparison in bcrypt to prevent timing attacks
	if !sec.CheckPasswordHash(input.Password, user.PasswordHash) {
		return nil, apperr.Unauthorized("Invalid login credentials")
	}

	return service.issueSession(context, user)
}

// issueSession generates a fresh token pair and installs the refresh token
// hash as the account's single active session.
func (service *Service) issueSession(context context.Context, user *User) (*LoginSession, error) {

	// Generate short-lived Access Token
	accessToken, err := service.tokenProvider.GenerateAccessToken(user.ID, user.Username, service.accessTokenTTL)
	if err != nil {
		return nil, fmt.Errorf("auth_service_token_generation_failed: %w", err)
	}

	// Generate long-lived Refresh Token
	refreshToken, err := service.tokenProvider.GenerateRefreshToken(user.ID, user.Username, service.refreshTokenTTL)
	if err != nil {
		return nil, fmt.Errorf("auth_service_refresh_token_failed: %w", err)
	}

	// Store only the hash. A database leak must not hand out usable tokens.
	if err := service.userRepository.SetRefreshTokenHash(context, user.ID, sec.HashToken(refreshToken)); err != nil {
		return nil, fmt.Errorf("auth_service_session_creation_failed: %w", err)
	}

	return &LoginSession{
		AccessToken:           accessToken,
		RefreshToken:          refreshToken,
		RefreshTokenExpiresAt: time.Now().Add(service.refreshTokenTTL),
		User:                  user,
	}, nil
}

/*
Logout clears the user's active session.

Description: Removes the stored refresh token hash so the outstanding refresh
token can never be exchanged again. Calling logout without an active session
is a success, making the operation idempotent.

Parameters:
  - context: context.Context
  - userID: string

Returns:
  - err: Revocation failures
*/
func (service *Service) Logout(context context.Context, userID string) error {
	if err := service.userRepository.ClearRefreshTokenHash(context, userID); err != nil {
		return fmt.Errorf("auth_service_logout_failed: %w", err)
	}
	return nil
}

// # Session Management

/*
RefreshSession implements the Refresh Token Rotation mechanism.

Description: Verifies the presented refresh token cryptographically, confirms
it is still the account's active session, and atomically swaps it for a fresh
pair. The swap is a compare-and-swap keyed on the old token hash: under
concurrent refresh attempts with the same token, exactly one succeeds and the
rest fail with Unauthorized.

Every failure mode (expired, tampered, wrong type, already rotated, revoked,
unknown user) maps to the same Unauthorized error so callers cannot probe
session state.

Parameters:
  - context: context.Context
  - refreshToken: string

Returns:
  - *LoginSession: New session credentials
  - err: Unauthorized or storage failures
*/
func (service *Service) RefreshSession(context context.Context, refreshToken string) (*LoginSession, error) {

	// 1. Cryptographic verification: signature, expiry, and type claim.
	claims, err := service.tokenProvider.VerifyRefreshToken(refreshToken)
	if err != nil {
		return nil, apperr.Unauthorized("Invalid or expired refresh token")
	}

	// 2. Resolve the account. A deleted account invalidates its tokens.
	user, err := service.userRepository.FindByID(context, claims.UserID)
	if err != nil {
		return nil, apperr.Unauthorized("Invalid or expired refresh token")
	}

	// 3. Pre-generate the replacement pair before touching the stored hash.
	accessToken, err := service.tokenProvider.GenerateAccessToken(user.ID, user.Username, service.accessTokenTTL)
	if err != nil {
		return nil, fmt.Errorf("auth_service_refresh_access_token_failed: %w", err)
	}

	newRefreshToken, err := service.tokenProvider.GenerateRefreshToken(user.ID, user.Username, service.refreshTokenTTL)
	if err != nil {
		return nil, fmt.Errorf("auth_service_refresh_token_failed: %w", err)
	}

	// 4. Rotation: conditional swap keyed on the presented token's hash.
	// A stale hash means the token was already rotated or revoked.
	oldHash := sec.HashToken(refreshToken)
	newHash := sec.HashToken(newRefreshToken)

	if err := service.userRepository.RotateRefreshTokenHash(context, user.ID, oldHash, newHash); err != nil {
		return nil, apperr.Unauthorized("Invalid or expired refresh token")
	}

	return &LoginSession{
		AccessToken:           accessToken,
		RefreshToken:          newRefreshToken,
		RefreshTokenExpiresAt: time.Now().Add(service.refreshTokenTTL),
		User:                  user,
	}, nil
}

/*
ResolveUser confirms that the given user ID maps to a live account.

Description: Called by the session gate on every authenticated request, so a
deleted account loses access as soon as its current access token is presented.

Parameters:
  - context: context.Context
  - userID: string

Returns:
  - err: NotFound for missing accounts, or storage errors
*/
func (service *Service) ResolveUser(context context.Context, userID string) error {
	_, err := service.userRepository.FindByID(context, userID)
	return err
}

// # Password Recovery

/*
RequestPasswordReset initiates the forgot-password flow.

Description: Generates a secure token and saves it to Redis.

Parameters:
  - context: context.Context
  - email: string

Returns:
  - string: Discovery token
  - err: Generation errors
*/
func (service *Service) RequestPasswordReset(context context.Context, email string) (string, error) {
	// Look up user.
	// NOTE: We don't return NOT_FOUND if the email doesn't exist to prevent user enumeration.
	user, err := service.userRepository.FindByEmail(context, normalize.Email(email))
	if err != nil {
		return "", nil
	}

	// Generate reset token
	token, err := sec.GenerateSecureToken(ResetTokenLength)
	if err != nil {
		return "", fmt.Errorf("auth_service_generate_reset_token_failed: %w", err)
	}

	// Save to Redis
	if err := service.resetTokenRepository.Set(context, token, user.ID, ResetTokenTTL); err != nil {
		return "", fmt.Errorf("auth_service_save_reset_token_failed: %w", err)
	}

	return token, nil
}

/*
ResetPassword completes the forgot-password flow.

Description: Verifies the token, hashes the new password, updates the DB,
and clears the active session for security cleanup.

Parameters:
  - context: context.Context
  - token: string
  - newPassword: string

Returns:
  - err: Validation or update failures
*/
func (service *Service) ResetPassword(context context.Context, token, newPassword string) error {

	// Retrieve the userID associated with the reset token from Redis
	userID, err := service.resetTokenRepository.Get(context, token)
	if err != nil {
		return err
	}

	// Hash the new password securely
	hashedPassword, err := sec.HashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("auth_service_reset_password_hash_failed: %w", err)
	}

	// Update the user's password in persistent storage
	if err := service.userRepository.UpdatePassword(context, userID, hashedPassword); err != nil {
		return fmt.Errorf("auth_service_reset_password_update_failed: %w", err)
	}

	// Security Cleanup: Invalidate the active session, forcing a fresh login
	_ = service.userRepository.ClearRefreshTokenHash(context, userID)

	// Delete the used token from Redis
	_ = service.resetTokenRepository.Delete(context, token)

	return nil
}

/*
ChangePassword allows an authenticated user to update their credentials.

Description: Verifies the current password before applying the new hash. The
active session survives, so the requesting device stays logged in.

Parameters:
  - context: context.Context
  - userID: string
  - currentPassword: string
  - newPassword: string

Returns:
  - err: Unauthorized or storage failures
*/
func (service *Service) ChangePassword(context context.Context, userID, currentPassword, newPassword string) error {

	// Fetch user by ID
	user, err := service.userRepository.FindByID(context, userID)
	if err != nil {
		return err
	}

	// Verify the current password before allowing change
	if !sec.CheckPasswordHash(currentPassword, user.PasswordHash) {
		return apperr.Unauthorized("Current password is incorrect")
	}

	// Hash the brand new password
	hashedPassword, err := sec.HashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("auth_service_change_password_hash_failed: %w", err)
	}

	// Update the database with the new hash
	if err := service.userRepository.UpdatePassword(context, userID, hashedPassword); err != nil {
		return fmt.Errorf("auth_service_change_password_update_failed: %w", err)
	}

	return nil
}

/*
VerifyEmail confirms a user's email address using a secure token.

Parameters:
  - context: context.Context
  - token: string

Returns:
  - err: Database or resolution errors
*/
func (service *Service) VerifyEmail(context context.Context, token string) error {

	// Retrieve the user ID associated with the verification token from Redis
	userID, err := service.verificationTokenRepository.Get(context, token)
	if err != nil {
		return err
	}

	// Update the user's status to verified in persistent storage
	if err := service.userRepository.MarkVerified(context, userID); err != nil {
		return fmt.Errorf("auth_service_verify_email_failed: %w", err)
	}

	// Cleanup the used verification token from Redis
	_ = service.verificationTokenRepository.Delete(context, token)

	return nil
}
