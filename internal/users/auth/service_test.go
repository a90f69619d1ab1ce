// Copyright (c) 2026 Pulse. All rights reserved.
// Author: dev@pulse.app

package auth_test

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pulseapp/pulse/internal/platform/apperr"
	"github.com/pulseapp/pulse/internal/platform/constants"
	"github.com/pulseapp/pulse/internal/platform/sec"
	"github.com/pulseapp/pulse/internal/users/auth"
)

// # In-Memory Fakes

// memoryUserRepository is a thread-safe in-memory UserRepository.
type memoryUserRepository struct {
	mu    sync.Mutex
	users map[string]*auth.User
}

func newMemoryUserRepository() *memoryUserRepository {
	return &memoryUserRepository{users: make(map[string]*auth.User)}
}

func (repository *memoryUserRepository) FindByID(_ context.Context, id string) (*auth.User, error) {
	repository.mu.Lock()
	defer repository.mu.Unlock()
	if user, ok := repository.users[id]; ok {
		clone := *user
		return &clone, nil
	}
	return nil, apperr.NotFound("User not found")
}

func (repository *memoryUserRepository) FindByEmail(_ context.Context, email string) (*auth.User, error) {
	repository.mu.Lock()
	defer repository.mu.Unlock()
	for _, user := range repository.users {
		if user.Email == email {
			clone := *user
			return &clone, nil
		}
	}
	return nil, apperr.NotFound("User not found with this email")
}

func (repository *memoryUserRepository) FindByUsername(_ context.Context, username string) (*auth.User, error) {
	repository.mu.Lock()
	defer repository.mu.Unlock()
	for _, user := range repository.users {
		if user.Username == username {
			clone := *user
			return &clone, nil
		}
	}
	return nil, apperr.NotFound("User not found with this username")
}

func (repository *memoryUserRepository) Create(_ context.Context, user *auth.User) error {
	repository.mu.Lock()
	defer repository.mu.Unlock()
	clone := *user
	repository.users[user.ID] = &clone
	return nil
}

func (repository *memoryUserRepository) Update(_ context.Context, user *auth.User) error {
	repository.mu.Lock()
	defer repository.mu.Unlock()
	if existing, ok := repository.users[user.ID]; ok {
		existing.DisplayName = user.DisplayName
		existing.AvatarURL = user.AvatarURL
		existing.CoverURL = user.CoverURL
		existing.Bio = user.Bio
	}
	return nil
}

func (repository *memoryUserRepository) UpdatePassword(_ context.Context, userID, newHash string) error {
	repository.mu.Lock()
	defer repository.mu.Unlock()
	if user, ok := repository.users[userID]; ok {
		user.PasswordHash = newHash
	}
	return nil
}

func (repository *memoryUserRepository) MarkVerified(_ context.Context, userID string) error {
	repository.mu.Lock()
	defer repository.mu.Unlock()
	if user, ok := repository.users[userID]; ok {
		user.IsVerified = true
	}
	return nil
}

func (repository *memoryUserRepository) SoftDelete(_ context.Context, id string) error {
	repository.mu.Lock()
	defer repository.mu.Unlock()
	delete(repository.users, id)
	return nil
}

func (repository *memoryUserRepository) SetRefreshTokenHash(_ context.Context, userID, tokenHash string) error {
	repository.mu.Lock()
	defer repository.mu.Unlock()
	if user, ok := repository.users[userID]; ok {
		user.RefreshTokenHash = tokenHash
	}
	return nil
}

func (repository *memoryUserRepository) RotateRefreshTokenHash(_ context.Context, userID, oldHash, newHash string) error {
	repository.mu.Lock()
	defer repository.mu.Unlock()
	user, ok := repository.users[userID]
	if !ok || user.RefreshTokenHash != oldHash {
		return auth.ErrStaleRefreshToken
	}
	user.RefreshTokenHash = newHash
	return nil
}

func (repository *memoryUserRepository) ClearRefreshTokenHash(_ context.Context, userID string) error {
	repository.mu.Lock()
	defer repository.mu.Unlock()
	if user, ok := repository.users[userID]; ok {
		user.RefreshTokenHash = ""
	}
	return nil
}

// storedHash reads the current session hash without going through the service.
func (repository *memoryUserRepository) storedHash(userID string) string {
	repository.mu.Lock()
	defer repository.mu.Unlock()
	if user, ok := repository.users[userID]; ok {
		return user.RefreshTokenHash
	}
	return ""
}

// memoryTokenRepository covers both volatile token contracts.
type memoryTokenRepository struct {
	mu     sync.Mutex
	tokens map[string]string
}

func newMemoryTokenRepository() *memoryTokenRepository {
	return &memoryTokenRepository{tokens: make(map[string]string)}
}

func (repository *memoryTokenRepository) Set(_ context.Context, token, userID string, _ time.Duration) error {
	repository.mu.Lock()
	defer repository.mu.Unlock()
	repository.tokens[token] = userID
	return nil
}

func (repository *memoryTokenRepository) Get(_ context.Context, token string) (string, error) {
	repository.mu.Lock()
	defer repository.mu.Unlock()
	if userID, ok := repository.tokens[token]; ok {
		return userID, nil
	}
	return "", apperr.NotFound("Token is invalid or expired")
}

func (repository *memoryTokenRepository) Delete(_ context.Context, token string) error {
	repository.mu.Lock()
	defer repository.mu.Unlock()
	delete(repository.tokens, token)
	return nil
}

// # Harness

type serviceHarness struct {
	service  *auth.Service
	tokens   *sec.TokenService
	users    *memoryUserRepository
	resets   *memoryTokenRepository
	verifies *memoryTokenRepository
}

func newServiceHarness(t *testing.T) *serviceHarness {
	t.Helper()

	privateKey, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	tokens := sec.NewTokenServiceFromKey(privateKey, constants.AuthIssuer)
	users := newMemoryUserRepository()
	resets := newMemoryTokenRepository()
	verifies := newMemoryTokenRepository()

	service := auth.NewService(users, resets, verifies, tokens, nil, 15*time.Minute, 30*24*time.Hour)

	return &serviceHarness{
		service:  service,
		tokens:   tokens,
		users:    users,
		resets:   resets,
		verifies: verifies,
	}
}

// registerUser enrolls a member for tests that need an existing account.
func (harness *serviceHarness) registerUser(t *testing.T, username, email, password string) *auth.User {
	t.Helper()

	user, err := harness.service.Register(context.Background(), auth.RegisterInput{
		Username: username,
		Email:    email,
		Password: password,
	})
	require.NoError(t, err)
	return user
}

// # Registration

/*
TestService_Register_HashesPassword verifies the plaintext never reaches storage.
*/
func TestService_Register_HashesPassword(t *testing.T) {
	harness := newServiceHarness(t)

	user := harness.registerUser(t, "alice", "alice@example.com", "s3cret-pass")

	assert.NotEmpty(t, user.ID)
	assert.NotEqual(t, "s3cret-pass", user.PasswordHash)
	assert.True(t, sec.CheckPasswordHash("s3cret-pass", user.PasswordHash))
}

/*
TestService_Register_NormalizesIdentity verifies case-insensitive identifiers.
*/
func TestService_Register_NormalizesIdentity(t *testing.T) {
	harness := newServiceHarness(t)

	user := harness.registerUser(t, "Bob_99", "Bob@Example.COM", "s3cret-pass")

	assert.Equal(t, "bob_99", user.Username)
	assert.Equal(t, "bob@example.com", user.Email)
}

/*
TestService_Register_Conflicts verifies duplicate identities are rejected.
*/
func TestService_Register_Conflicts(t *testing.T) {
	harness := newServiceHarness(t)
	harness.registerUser(t, "alice", "alice@example.com", "s3cret-pass")

	tests := []struct {
		name     string
		username string
		email    string
	}{
		{"duplicate_email", "other", "alice@example.com"},
		{"duplicate_email_case", "other", "ALICE@example.com"},
		{"duplicate_username", "alice", "other@example.com"},
		{"duplicate_username_case", "ALICE", "other@example.com"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := harness.service.Register(context.Background(), auth.RegisterInput{
				Username: tt.username,
				Email:    tt.email,
				Password: "s3cret-pass",
			})
			require.Error(t, err)

			ae := apperr.As(err)
			require.NotNil(t, ae)
			assert.Equal(t, "CONFLICT", ae.Code)
		})
	}
}

// # Login

/*
TestService_Login_Success verifies a valid credential pair yields a session.
*/
func TestService_Login_Success(t *testing.T) {
	harness := newServiceHarness(t)
	user := harness.registerUser(t, "alice", "alice@example.com", "s3cret-pass")

	tests := []struct {
		name  string
		login string
	}{
		{"by_username", "alice"},
		{"by_email", "alice@example.com"},
		{"by_email_mixed_case", "Alice@Example.com"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			session, err := harness.service.Login(context.Background(), auth.LoginInput{
				Login:    tt.login,
				Password: "s3cret-pass",
			})
			require.NoError(t, err)

			assert.NotEmpty(t, session.AccessToken)
			assert.NotEmpty(t, session.RefreshToken)
			assert.NotEqual(t, session.AccessToken, session.RefreshToken)
			assert.Equal(t, user.ID, session.User.ID)

			// The stored session pointer is the hash of the issued token.
			assert.Equal(t, sec.HashToken(session.RefreshToken), harness.users.storedHash(user.ID))
		})
	}
}

/*
TestService_Login_FailureIndistinguishable verifies an unknown identifier and a
wrong password produce byte-identical errors, so callers cannot enumerate accounts.
*/
func TestService_Login_FailureIndistinguishable(t *testing.T) {
	harness := newServiceHarness(t)
	harness.registerUser(t, "alice", "alice@example.com", "s3cret-pass")

	_, unknownErr := harness.service.Login(context.Background(), auth.LoginInput{
		Login:    "nobody",
		Password: "s3cret-pass",
	})
	_, wrongPassErr := harness.service.Login(context.Background(), auth.LoginInput{
		Login:    "alice",
		Password: "wrong-pass",
	})

	require.Error(t, unknownErr)
	require.Error(t, wrongPassErr)

	unknownAE := apperr.As(unknownErr)
	wrongAE := apperr.As(wrongPassErr)
	require.NotNil(t, unknownAE)
	require.NotNil(t, wrongAE)

	assert.Equal(t, unknownAE.Code, wrongAE.Code)
	assert.Equal(t, unknownAE.Message, wrongAE.Message)
	assert.Equal(t, unknownAE.HTTPStatus, wrongAE.HTTPStatus)
}

/*
TestService_Login_DisplacesPriorSession verifies a second login invalidates the
refresh token issued by the first.
*/
func TestService_Login_DisplacesPriorSession(t *testing.T) {
	harness := newServiceHarness(t)
	harness.registerUser(t, "alice", "alice@example.com", "s3cret-pass")

	first, err := harness.service.Login(context.Background(), auth.LoginInput{Login: "alice", Password: "s3cret-pass"})
	require.NoError(t, err)

	_, err = harness.service.Login(context.Background(), auth.LoginInput{Login: "alice", Password: "s3cret-pass"})
	require.NoError(t, err)

	// The first device's refresh token no longer matches the stored hash.
	_, err = harness.service.RefreshSession(context.Background(), first.RefreshToken)
	require.Error(t, err)
	assert.True(t, apperr.IsUnauthorized(err))
}

// # Session Rotation

/*
TestService_RefreshSession_Rotates verifies a refresh yields a new usable pair
and consumes the presented token.
*/
func TestService_RefreshSession_Rotates(t *testing.T) {
	harness := newServiceHarness(t)
	user := harness.registerUser(t, "alice", "alice@example.com", "s3cret-pass")

	session, err := harness.service.Login(context.Background(), auth.LoginInput{Login: "alice", Password: "s3cret-pass"})
	require.NoError(t, err)

	rotated, err := harness.service.RefreshSession(context.Background(), session.RefreshToken)
	require.NoError(t, err)

	assert.NotEmpty(t, rotated.AccessToken)
	assert.NotEqual(t, session.RefreshToken, rotated.RefreshToken)
	assert.Equal(t, sec.HashToken(rotated.RefreshToken), harness.users.storedHash(user.ID))

	// Replaying the consumed token must fail.
	_, err = harness.service.RefreshSession(context.Background(), session.RefreshToken)
	require.Error(t, err)
	assert.True(t, apperr.IsUnauthorized(err))

	// The rotated token remains valid.
	_, err = harness.service.RefreshSession(context.Background(), rotated.RefreshToken)
	require.NoError(t, err)
}

/*
TestService_RefreshSession_RejectsAccessToken verifies the type claim keeps an
access token from being exchanged as a refresh token.
*/
func TestService_RefreshSession_RejectsAccessToken(t *testing.T) {
	harness := newServiceHarness(t)
	harness.registerUser(t, "alice", "alice@example.com", "s3cret-pass")

	session, err := harness.service.Login(context.Background(), auth.LoginInput{Login: "alice", Password: "s3cret-pass"})
	require.NoError(t, err)

	_, err = harness.service.RefreshSession(context.Background(), session.AccessToken)
	require.Error(t, err)
	assert.True(t, apperr.IsUnauthorized(err))
}

/*
TestService_RefreshSession_GarbageToken verifies structurally invalid tokens fail closed.
*/
func TestService_RefreshSession_GarbageToken(t *testing.T) {
	harness := newServiceHarness(t)

	for _, token := range []string{"", "garbage", "a.b.c", "a.b.c.d"} {
		_, err := harness.service.RefreshSession(context.Background(), token)
		require.Error(t, err)
		assert.True(t, apperr.IsUnauthorized(err))
	}
}

/*
TestService_RefreshSession_ConcurrentSingleWinner verifies that when the same
refresh token is presented concurrently, exactly one exchange succeeds.
*/
func TestService_RefreshSession_ConcurrentSingleWinner(t *testing.T) {
	harness := newServiceHarness(t)
	harness.registerUser(t, "alice", "alice@example.com", "s3cret-pass")

	session, err := harness.service.Login(context.Background(), auth.LoginInput{Login: "alice", Password: "s3cret-pass"})
	require.NoError(t, err)

	const attempts = 16
	var wg sync.WaitGroup
	results := make(chan error, attempts)

	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := harness.service.RefreshSession(context.Background(), session.RefreshToken)
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	var successes, failures int
	for err := range results {
		if err == nil {
			successes++
		} else {
			assert.True(t, apperr.IsUnauthorized(err))
			failures++
		}
	}

	assert.Equal(t, 1, successes)
	assert.Equal(t, attempts-1, failures)
}

// # Logout

/*
TestService_Logout_Idempotent verifies logout revokes the session and stays
successful on repetition.
*/
func TestService_Logout_Idempotent(t *testing.T) {
	harness := newServiceHarness(t)
	user := harness.registerUser(t, "alice", "alice@example.com", "s3cret-pass")

	session, err := harness.service.Login(context.Background(), auth.LoginInput{Login: "alice", Password: "s3cret-pass"})
	require.NoError(t, err)

	require.NoError(t, harness.service.Logout(context.Background(), user.ID))
	assert.Empty(t, harness.users.storedHash(user.ID))

	// Second logout without a session is still a success.
	require.NoError(t, harness.service.Logout(context.Background(), user.ID))

	// The outstanding refresh token is dead after logout.
	_, err = harness.service.RefreshSession(context.Background(), session.RefreshToken)
	require.Error(t, err)
	assert.True(t, apperr.IsUnauthorized(err))
}

// # Password Management

/*
TestService_ChangePassword verifies current-password gating and hash replacement.
*/
func TestService_ChangePassword(t *testing.T) {
	harness := newServiceHarness(t)
	user := harness.registerUser(t, "alice", "alice@example.com", "old-pass-123")

	err := harness.service.ChangePassword(context.Background(), user.ID, "wrong-pass", "new-pass-123")
	require.Error(t, err)
	assert.True(t, apperr.IsUnauthorized(err))

	require.NoError(t, harness.service.ChangePassword(context.Background(), user.ID, "old-pass-123", "new-pass-123"))

	_, err = harness.service.Login(context.Background(), auth.LoginInput{Login: "alice", Password: "old-pass-123"})
	require.Error(t, err)

	_, err = harness.service.Login(context.Background(), auth.LoginInput{Login: "alice", Password: "new-pass-123"})
	require.NoError(t, err)
}

/*
TestService_ResetPassword verifies the full forgot-password round trip and the
session cleanup it triggers.
*/
func TestService_ResetPassword(t *testing.T) {
	harness := newServiceHarness(t)
	harness.registerUser(t, "alice", "alice@example.com", "old-pass-123")

	session, err := harness.service.Login(context.Background(), auth.LoginInput{Login: "alice", Password: "old-pass-123"})
	require.NoError(t, err)

	token, err := harness.service.RequestPasswordReset(context.Background(), "alice@example.com")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	require.NoError(t, harness.service.ResetPassword(context.Background(), token, "new-pass-123"))

	// Active session is revoked by the reset.
	_, err = harness.service.RefreshSession(context.Background(), session.RefreshToken)
	require.Error(t, err)

	// The reset token is single-use.
	err = harness.service.ResetPassword(context.Background(), token, "another-pass")
	require.Error(t, err)

	_, err = harness.service.Login(context.Background(), auth.LoginInput{Login: "alice", Password: "new-pass-123"})
	require.NoError(t, err)
}

/*
TestService_RequestPasswordReset_UnknownEmail verifies no error leaks for
unregistered addresses.
*/
func TestService_RequestPasswordReset_UnknownEmail(t *testing.T) {
	harness := newServiceHarness(t)

	token, err := harness.service.RequestPasswordReset(context.Background(), "ghost@example.com")
	require.NoError(t, err)
	assert.Empty(t, token)
}

/*
TestService_ResolveUser verifies the session gate hook distinguishes live and
missing accounts.
*/
func TestService_ResolveUser(t *testing.T) {
	harness := newServiceHarness(t)
	user := harness.registerUser(t, "alice", "alice@example.com", "s3cret-pass")

	require.NoError(t, harness.service.ResolveUser(context.Background(), user.ID))

	require.NoError(t, harness.users.SoftDelete(context.Background(), user.ID))
	err := harness.service.ResolveUser(context.Background(), user.ID)
	require.Error(t, err)
	assert.True(t, apperr.IsNotFound(err))
}
