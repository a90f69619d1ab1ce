// Copyright (c) 2026 Pulse. All rights reserved.
// Author: dev@pulse.app

package comment_test

import (
	"context"
	"io"
	"log/slog"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pulseapp/pulse/internal/platform/apperr"
	"github.com/pulseapp/pulse/internal/social/comment"
	"github.com/pulseapp/pulse/internal/social/post"
	"github.com/pulseapp/pulse/pkg/pagination"
	"github.com/pulseapp/pulse/pkg/uuidv7"
)

// # In-Memory Fakes

// fakePostRepository implements only FindByID; the comment service never
// touches the rest of the post contract.
type fakePostRepository struct {
	post.PostRepository
	posts map[string]*post.Post
}

func (repository *fakePostRepository) FindByID(ctx context.Context, id, viewerID string) (*post.Post, error) {
	entry, exists := repository.posts[id]
	if !exists {
		return nil, apperr.NotFound("Post not found")
	}
	copied := *entry
	return &copied, nil
}

type memoryCommentRepository struct {
	mutex    sync.Mutex
	comments map[string]*comment.Comment
}

func newMemoryCommentRepository() *memoryCommentRepository {
	return &memoryCommentRepository{comments: make(map[string]*comment.Comment)}
}

func (repository *memoryCommentRepository) Create(ctx context.Context, entry *comment.Comment) error {
	repository.mutex.Lock()
	defer repository.mutex.Unlock()

	stored := *entry
	repository.comments[entry.ID] = &stored
	return nil
}

func (repository *memoryCommentRepository) FindByID(ctx context.Context, id string) (*comment.Comment, error) {
	repository.mutex.Lock()
	defer repository.mutex.Unlock()

	entry, exists := repository.comments[id]
	if !exists {
		return nil, apperr.NotFound("Comment not found")
	}
	copied := *entry
	return &copied, nil
}

func (repository *memoryCommentRepository) ListByPost(ctx context.Context, postID string, limit, offset int) ([]*comment.Comment, int, error) {
	repository.mutex.Lock()
	defer repository.mutex.Unlock()

	var all []*comment.Comment
	for _, entry := range repository.comments {
		if entry.PostID == postID {
			copied := *entry
			all = append(all, &copied)
		}
	}

	// Oldest first. UUIDv7 ids sort chronologically.
	sort.Slice(all, func(i, j int) bool { return all[i].ID < all[j].ID })

	total := len(all)
	if offset >= total {
		return nil, total, nil
	}
	all = all[offset:]
	if len(all) > limit {
		all = all[:limit]
	}
	return all, total, nil
}

func (repository *memoryCommentRepository) Delete(ctx context.Context, id, postID string) error {
	repository.mutex.Lock()
	defer repository.mutex.Unlock()

	delete(repository.comments, id)
	return nil
}

// # Harness

func newCommentHarness() (*comment.Service, *fakePostRepository, *memoryCommentRepository) {
	postRepository := &fakePostRepository{posts: make(map[string]*post.Post)}
	commentRepository := newMemoryCommentRepository()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	return comment.NewService(commentRepository, postRepository, nil, logger), postRepository, commentRepository
}

func seedPost(postRepository *fakePostRepository, authorID string) *post.Post {
	entry := &post.Post{ID: uuidv7.New(), AuthorID: authorID, Content: "parent", CreatedAt: time.Now()}
	postRepository.posts[entry.ID] = entry
	return entry
}

// # Tests

/*
TestAddComment_Persists verifies a comment lands under the right post.
*/
func TestAddComment_Persists(t *testing.T) {
	service, postRepository, _ := newCommentHarness()
	parent := seedPost(postRepository, "author-1")

	entry, err := service.AddComment(context.Background(), parent.ID, "commenter-1", "nice post")
	require.NoError(t, err)
	assert.NotEmpty(t, entry.ID)
	assert.Equal(t, parent.ID, entry.PostID)
	assert.Equal(t, "commenter-1", entry.AuthorID)
	assert.Equal(t, "nice post", entry.Content)
}

/*
TestAddComment_MissingPost verifies commenting on a vanished post is NotFound.
*/
func TestAddComment_MissingPost(t *testing.T) {
	service, _, _ := newCommentHarness()

	_, err := service.AddComment(context.Background(), "no-such-post", "commenter-1", "into the void")
	assert.True(t, apperr.IsNotFound(err))
}

/*
TestListComments_OldestFirst verifies conversation ordering and pagination.
*/
func TestListComments_OldestFirst(t *testing.T) {
	service, postRepository, _ := newCommentHarness()
	parent := seedPost(postRepository, "author-1")

	first, err := service.AddComment(context.Background(), parent.ID, "commenter-1", "first")
	require.NoError(t, err)
	second, err := service.AddComment(context.Background(), parent.ID, "commenter-2", "second")
	require.NoError(t, err)

	comments, meta, err := service.ListComments(context.Background(), parent.ID, "viewer-1", pagination.Params{Page: 1, Limit: 10})
	require.NoError(t, err)
	require.Len(t, comments, 2)
	assert.Equal(t, first.ID, comments[0].ID)
	assert.Equal(t, second.ID, comments[1].ID)
	assert.Equal(t, 2, meta.Total)
}

/*
TestDeleteComment_Permissions verifies the comment author and the post author
can delete, and nobody else can.
*/
func TestDeleteComment_Permissions(t *testing.T) {
	service, postRepository, _ := newCommentHarness()
	parent := seedPost(postRepository, "post-author")

	// A stranger cannot delete someone else's comment.
	entry, err := service.AddComment(context.Background(), parent.ID, "commenter-1", "target")
	require.NoError(t, err)

	err = service.DeleteComment(context.Background(), entry.ID, "stranger")
	require.Error(t, err)
	ae := apperr.As(err)
	require.NotNil(t, ae)
	assert.Equal(t, 403, ae.HTTPStatus)

	// The comment's own author can.
	err = service.DeleteComment(context.Background(), entry.ID, "commenter-1")
	require.NoError(t, err)

	// The post's author can moderate their thread.
	moderated, err := service.AddComment(context.Background(), parent.ID, "commenter-2", "unwelcome")
	require.NoError(t, err)

	err = service.DeleteComment(context.Background(), moderated.ID, "post-author")
	require.NoError(t, err)
}

/*
TestDeleteComment_Missing verifies deleting a nonexistent comment is NotFound.
*/
func TestDeleteComment_Missing(t *testing.T) {
	service, _, _ := newCommentHarness()

	err := service.DeleteComment(context.Background(), "no-such-comment", "anyone")
	assert.True(t, apperr.IsNotFound(err))
}
