// Copyright (c) 2026 Pulse. All rights reserved.
// Author: dev@pulse.app

package account_test

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pulseapp/pulse/internal/platform/apperr"
	"github.com/pulseapp/pulse/internal/users/account"
	"github.com/pulseapp/pulse/internal/users/auth"
	"github.com/pulseapp/pulse/pkg/uuidv7"
)

// fakeUserRepository implements the subset of the user contract the account
// service exercises. Everything else panics through the embedded interface.
type fakeUserRepository struct {
	auth.UserRepository
	users   map[string]*auth.User
	deleted map[string]bool
}

func newFakeUserRepository() *fakeUserRepository {
	return &fakeUserRepository{
		users:   make(map[string]*auth.User),
		deleted: make(map[string]bool),
	}
}

func (repository *fakeUserRepository) FindByID(ctx context.Context, id string) (*auth.User, error) {
	user, exists := repository.users[id]
	if !exists || repository.deleted[id] {
		return nil, apperr.NotFound("User not found")
	}
	copied := *user
	return &copied, nil
}

func (repository *fakeUserRepository) FindByUsername(ctx context.Context, username string) (*auth.User, error) {
	for id, user := range repository.users {
		if user.Username == username && !repository.deleted[id] {
			copied := *user
			return &copied, nil
		}
	}
	return nil, apperr.NotFound("User not found")
}

func (repository *fakeUserRepository) Update(ctx context.Context, user *auth.User) error {
	stored := *user
	repository.users[user.ID] = &stored
	return nil
}

func (repository *fakeUserRepository) SoftDelete(ctx context.Context, id string) error {
	repository.deleted[id] = true
	return nil
}

func newAccountHarness() (*account.Service, *fakeUserRepository) {
	repository := newFakeUserRepository()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return account.NewService(repository, logger), repository
}

func seedUser(repository *fakeUserRepository, username string) *auth.User {
	user := &auth.User{
		ID:          uuidv7.New(),
		Username:    username,
		Email:       username + "@pulse.app",
		DisplayName: "Original Name",
		Bio:         "original bio",
		CreatedAt:   time.Now(),
	}
	repository.users[user.ID] = user
	return user
}

/*
TestUpdateProfile_PartialDelta verifies only provided fields change.
*/
func TestUpdateProfile_PartialDelta(t *testing.T) {
	service, repository := newAccountHarness()
	user := seedUser(repository, "jane")

	newBio := "updated bio"
	updated, err := service.UpdateProfile(context.Background(), user.ID, account.UpdateProfileInput{
		Bio: &newBio,
	})
	require.NoError(t, err)

	assert.Equal(t, "updated bio", updated.Bio)
	// Untouched fields survive.
	assert.Equal(t, "Original Name", updated.DisplayName)

	// An explicit empty string clears a field; nil leaves it alone.
	empty := ""
	updated, err = service.UpdateProfile(context.Background(), user.ID, account.UpdateProfileInput{
		DisplayName: &empty,
	})
	require.NoError(t, err)
	assert.Empty(t, updated.DisplayName)
	assert.Equal(t, "updated bio", updated.Bio)
}

/*
TestGetPublicProfile_Projection verifies the public projection hides private
fields and resolves mixed-case handles.
*/
func TestGetPublicProfile_Projection(t *testing.T) {
	service, repository := newAccountHarness()
	user := seedUser(repository, "jane")

	profile, err := service.GetPublicProfile(context.Background(), " JANE ")
	require.NoError(t, err)

	assert.Equal(t, user.ID, profile.ID)
	assert.Equal(t, "jane", profile.Username)
	assert.Equal(t, "Original Name", profile.DisplayName)

	_, err = service.GetPublicProfile(context.Background(), "nobody")
	assert.True(t, apperr.IsNotFound(err))
}

/*
TestDeleteAccount verifies soft-deleted users stop resolving.
*/
func TestDeleteAccount(t *testing.T) {
	service, repository := newAccountHarness()
	user := seedUser(repository, "jane")

	require.NoError(t, service.DeleteAccount(context.Background(), user.ID))

	_, err := service.GetProfile(context.Background(), user.ID)
	assert.True(t, apperr.IsNotFound(err))
}
