// Copyright (c) 2026 Pulse. All rights reserved.
// Author: dev@pulse.app

package post_test

import (
	"context"
	"io"
	"log/slog"
	"sort"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pulseapp/pulse/internal/platform/apperr"
	"github.com/pulseapp/pulse/internal/social/post"
	"github.com/pulseapp/pulse/internal/users/auth"
	"github.com/pulseapp/pulse/pkg/pagination"
	"github.com/pulseapp/pulse/pkg/uuidv7"
)

// # In-Memory Fakes

// memoryPostRepository is a map-backed stand-in for the PostgreSQL repository.
// Like state and counters follow the same rules as the SQL implementation.
type memoryPostRepository struct {
	mutex sync.Mutex
	posts map[string]*post.Post
	likes map[string]map[string]bool
}

func newMemoryPostRepository() *memoryPostRepository {
	return &memoryPostRepository{
		posts: make(map[string]*post.Post),
		likes: make(map[string]map[string]bool),
	}
}

func (repository *memoryPostRepository) clone(entry *post.Post, viewerID string) *post.Post {
	copied := *entry
	copied.Liked = repository.likes[entry.ID][viewerID]
	copied.LikeCount = len(repository.likes[entry.ID])
	return &copied
}

func (repository *memoryPostRepository) Create(ctx context.Context, entry *post.Post) error {
	repository.mutex.Lock()
	defer repository.mutex.Unlock()

	stored := *entry
	repository.posts[entry.ID] = &stored
	return nil
}

func (repository *memoryPostRepository) FindByID(ctx context.Context, id, viewerID string) (*post.Post, error) {
	repository.mutex.Lock()
	defer repository.mutex.Unlock()

	entry, exists := repository.posts[id]
	if !exists {
		return nil, apperr.NotFound("Post not found")
	}
	return repository.clone(entry, viewerID), nil
}

func (repository *memoryPostRepository) UpdateContent(ctx context.Context, entry *post.Post) error {
	repository.mutex.Lock()
	defer repository.mutex.Unlock()

	stored, exists := repository.posts[entry.ID]
	if !exists {
		return apperr.NotFound("Post not found")
	}
	stored.Content = entry.Content
	stored.Images = entry.Images
	return nil
}

func (repository *memoryPostRepository) Delete(ctx context.Context, id string) error {
	repository.mutex.Lock()
	defer repository.mutex.Unlock()

	delete(repository.posts, id)
	delete(repository.likes, id)
	return nil
}

func (repository *memoryPostRepository) list(viewerID string, filter func(*post.Post) bool, limit, offset int) ([]*post.Post, int) {
	var all []*post.Post
	for _, entry := range repository.posts {
		if filter(entry) {
			all = append(all, entry)
		}
	}

	// Newest first, matching the SQL ordering. UUIDv7 ids are time-ordered.
	sort.Slice(all, func(i, j int) bool { return all[i].ID > all[j].ID })

	total := len(all)
	if offset >= total {
		return nil, total
	}
	all = all[offset:]
	if len(all) > limit {
		all = all[:limit]
	}

	page := make([]*post.Post, 0, len(all))
	for _, entry := range all {
		page = append(page, repository.clone(entry, viewerID))
	}
	return page, total
}

func (repository *memoryPostRepository) ListFeed(ctx context.Context, viewerID string, limit, offset int) ([]*post.Post, int, error) {
	repository.mutex.Lock()
	defer repository.mutex.Unlock()

	page, total := repository.list(viewerID, func(*post.Post) bool { return true }, limit, offset)
	return page, total, nil
}

func (repository *memoryPostRepository) ListByAuthor(ctx context.Context, authorID, viewerID string, limit, offset int) ([]*post.Post, int, error) {
	repository.mutex.Lock()
	defer repository.mutex.Unlock()

	page, total := repository.list(viewerID, func(entry *post.Post) bool { return entry.AuthorID == authorID }, limit, offset)
	return page, total, nil
}

func (repository *memoryPostRepository) ToggleLike(ctx context.Context, postID, userID string) (*post.LikeResult, error) {
	repository.mutex.Lock()
	defer repository.mutex.Unlock()

	if _, exists := repository.posts[postID]; !exists {
		return nil, apperr.NotFound("Post not found")
	}

	if repository.likes[postID] == nil {
		repository.likes[postID] = make(map[string]bool)
	}

	liked := !repository.likes[postID][userID]
	if liked {
		repository.likes[postID][userID] = true
	} else {
		delete(repository.likes[postID], userID)
	}

	return &post.LikeResult{Liked: liked, LikeCount: len(repository.likes[postID])}, nil
}

func (repository *memoryPostRepository) ListLikers(ctx context.Context, postID string, limit, offset int) ([]*post.AuthorSummary, int, error) {
	repository.mutex.Lock()
	defer repository.mutex.Unlock()

	var ids []string
	for userID := range repository.likes[postID] {
		ids = append(ids, userID)
	}
	sort.Strings(ids)

	total := len(ids)
	if offset >= total {
		return nil, total, nil
	}
	ids = ids[offset:]
	if len(ids) > limit {
		ids = ids[:limit]
	}

	likers := make([]*post.AuthorSummary, 0, len(ids))
	for _, userID := range ids {
		likers = append(likers, &post.AuthorSummary{ID: userID})
	}
	return likers, total, nil
}

// fakeUserRepository implements only the lookups the post service needs.
// The embedded interface panics on anything else, which is the point.
type fakeUserRepository struct {
	auth.UserRepository
	users map[string]*auth.User
}

func (repository *fakeUserRepository) FindByUsername(ctx context.Context, username string) (*auth.User, error) {
	for _, user := range repository.users {
		if user.Username == username {
			return user, nil
		}
	}
	return nil, apperr.NotFound("User not found")
}

// # Harness

func newPostHarness() (*post.Service, *memoryPostRepository, *fakeUserRepository) {
	postRepository := newMemoryPostRepository()
	userRepository := &fakeUserRepository{users: make(map[string]*auth.User)}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	return post.NewService(postRepository, userRepository, nil, logger), postRepository, userRepository
}

func seedAuthor(userRepository *fakeUserRepository, username string) *auth.User {
	user := &auth.User{ID: uuidv7.New(), Username: username}
	userRepository.users[user.ID] = user
	return user
}

// # Tests

/*
TestCreatePost_Persists verifies a created post is readable back.
*/
func TestCreatePost_Persists(t *testing.T) {
	service, _, userRepository := newPostHarness()
	author := seedAuthor(userRepository, "jane")

	entry, err := service.CreatePost(context.Background(), post.CreateInput{
		AuthorID: author.ID,
		Content:  "first post",
		Images:   []string{"uploads/a.png"},
	})
	require.NoError(t, err)
	assert.NotEmpty(t, entry.ID)
	assert.Equal(t, author.ID, entry.AuthorID)
	assert.Equal(t, "first post", entry.Content)

	found, err := service.GetPost(context.Background(), entry.ID, author.ID)
	require.NoError(t, err)
	assert.Equal(t, entry.ID, found.ID)
}

/*
TestUpdatePost_OwnershipEnforced verifies only the author can edit.
*/
func TestUpdatePost_OwnershipEnforced(t *testing.T) {
	service, _, userRepository := newPostHarness()
	author := seedAuthor(userRepository, "jane")
	intruder := seedAuthor(userRepository, "mallory")

	entry, err := service.CreatePost(context.Background(), post.CreateInput{AuthorID: author.ID, Content: "original"})
	require.NoError(t, err)

	_, err = service.UpdatePost(context.Background(), entry.ID, intruder.ID, post.UpdateInput{Content: "defaced"})
	require.Error(t, err)
	ae := apperr.As(err)
	require.NotNil(t, ae)
	assert.Equal(t, 403, ae.HTTPStatus)

	updated, err := service.UpdatePost(context.Background(), entry.ID, author.ID, post.UpdateInput{Content: "edited"})
	require.NoError(t, err)
	assert.Equal(t, "edited", updated.Content)
}

/*
TestDeletePost_OwnershipEnforced verifies only the author can delete, and
that the post is gone afterwards.
*/
func TestDeletePost_OwnershipEnforced(t *testing.T) {
	service, _, userRepository := newPostHarness()
	author := seedAuthor(userRepository, "jane")
	intruder := seedAuthor(userRepository, "mallory")

	entry, err := service.CreatePost(context.Background(), post.CreateInput{AuthorID: author.ID, Content: "ephemeral"})
	require.NoError(t, err)

	err = service.DeletePost(context.Background(), entry.ID, intruder.ID)
	require.Error(t, err)

	err = service.DeletePost(context.Background(), entry.ID, author.ID)
	require.NoError(t, err)

	_, err = service.GetPost(context.Background(), entry.ID, author.ID)
	assert.True(t, apperr.IsNotFound(err))
}

/*
TestToggleLike_RoundTrip verifies like/unlike returns to the original state
and the counter follows.
*/
func TestToggleLike_RoundTrip(t *testing.T) {
	service, _, userRepository := newPostHarness()
	author := seedAuthor(userRepository, "jane")
	fan := seedAuthor(userRepository, "felix")

	entry, err := service.CreatePost(context.Background(), post.CreateInput{AuthorID: author.ID, Content: "likeable"})
	require.NoError(t, err)

	result, err := service.ToggleLike(context.Background(), entry.ID, fan.ID)
	require.NoError(t, err)
	assert.True(t, result.Liked)
	assert.Equal(t, 1, result.LikeCount)

	result, err = service.ToggleLike(context.Background(), entry.ID, fan.ID)
	require.NoError(t, err)
	assert.False(t, result.Liked)
	assert.Equal(t, 0, result.LikeCount)

	_, err = service.ToggleLike(context.Background(), "no-such-post", fan.ID)
	assert.True(t, apperr.IsNotFound(err))
}

/*
TestFeed_NewestFirstWithViewerState verifies ordering, pagination metadata,
and per-viewer like resolution.
*/
func TestFeed_NewestFirstWithViewerState(t *testing.T) {
	service, _, userRepository := newPostHarness()
	author := seedAuthor(userRepository, "jane")
	viewer := seedAuthor(userRepository, "felix")

	first, err := service.CreatePost(context.Background(), post.CreateInput{AuthorID: author.ID, Content: "one"})
	require.NoError(t, err)
	second, err := service.CreatePost(context.Background(), post.CreateInput{AuthorID: author.ID, Content: "two"})
	require.NoError(t, err)

	_, err = service.ToggleLike(context.Background(), first.ID, viewer.ID)
	require.NoError(t, err)

	posts, meta, err := service.Feed(context.Background(), viewer.ID, pagination.Params{Page: 1, Limit: 10})
	require.NoError(t, err)
	require.Len(t, posts, 2)

	// Newest first.
	assert.Equal(t, second.ID, posts[0].ID)
	assert.Equal(t, first.ID, posts[1].ID)

	// Only the liked post carries the viewer's flag.
	assert.False(t, posts[0].Liked)
	assert.True(t, posts[1].Liked)

	assert.Equal(t, 2, meta.Total)
	assert.Equal(t, 1, meta.TotalPages)
}

/*
TestUserPosts_ResolvesUsername verifies username lookup with normalization
and author scoping.
*/
func TestUserPosts_ResolvesUsername(t *testing.T) {
	service, _, userRepository := newPostHarness()
	jane := seedAuthor(userRepository, "jane")
	felix := seedAuthor(userRepository, "felix")

	_, err := service.CreatePost(context.Background(), post.CreateInput{AuthorID: jane.ID, Content: "mine"})
	require.NoError(t, err)
	_, err = service.CreatePost(context.Background(), post.CreateInput{AuthorID: felix.ID, Content: "theirs"})
	require.NoError(t, err)

	// Mixed-case input resolves to the canonical handle.
	posts, meta, err := service.UserPosts(context.Background(), "  JANE ", "", pagination.Params{Page: 1, Limit: 10})
	require.NoError(t, err)
	require.Len(t, posts, 1)
	assert.Equal(t, jane.ID, posts[0].AuthorID)
	assert.Equal(t, 1, meta.Total)

	_, _, err = service.UserPosts(context.Background(), "nobody", "", pagination.Params{Page: 1, Limit: 10})
	assert.True(t, apperr.IsNotFound(err))
}

/*
TestPostLikers_ListsMembers verifies liker listing and unknown-post handling.
*/
func TestPostLikers_ListsMembers(t *testing.T) {
	service, _, userRepository := newPostHarness()
	author := seedAuthor(userRepository, "jane")
	fan := seedAuthor(userRepository, "felix")

	entry, err := service.CreatePost(context.Background(), post.CreateInput{AuthorID: author.ID, Content: "popular"})
	require.NoError(t, err)

	_, err = service.ToggleLike(context.Background(), entry.ID, fan.ID)
	require.NoError(t, err)

	likers, meta, err := service.PostLikers(context.Background(), entry.ID, author.ID, pagination.Params{Page: 1, Limit: 10})
	require.NoError(t, err)
	require.Len(t, likers, 1)
	assert.Equal(t, fan.ID, likers[0].ID)
	assert.Equal(t, 1, meta.Total)

	_, _, err = service.PostLikers(context.Background(), "no-such-post", author.ID, pagination.Params{Page: 1, Limit: 10})
	assert.True(t, apperr.IsNotFound(err))
}
