// Copyright (c) 2026 Pulse. All rights reserved.
// Author: dev@pulse.app

package post

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/pulseapp/pulse/internal/platform/apperr"
	"github.com/pulseapp/pulse/internal/platform/events"
	"github.com/pulseapp/pulse/internal/users/auth"
	"github.com/pulseapp/pulse/pkg/normalize"
	"github.com/pulseapp/pulse/pkg/pagination"
	"github.com/pulseapp/pulse/pkg/uuidv7"
)

// # Service Layer

// Service orchestrates business logic for feed posts.
//
// Ownership is the central rule here: a post may only be modified or removed
// by its author. Ownership violations surface as Forbidden, never NotFound,
// because the resource is visible to the caller.
type Service struct {
	postRepository PostRepository
	userRepository auth.UserRepository
	eventPublisher *events.Publisher
	logger         *slog.Logger
}

// NewService constructs a new post [Service] with its dependencies.
func NewService(
	postRepo PostRepository,
	userRepo auth.UserRepository,
	publisher *events.Publisher,
	logger *slog.Logger,
) *Service {
	return &Service{
		postRepository: postRepo,
		userRepository: userRepo,
		eventPublisher: publisher,
		logger:         logger,
	}
}

// # Authoring

// CreateInput holds the data for a new post.
type CreateInput struct {
	AuthorID string
	Content  string
	Images   []string
}

/*
CreatePost validates and persists a new feed entry.

Parameters:
  - context: context.Context
  - input: CreateInput

Returns:
  - *Post: Created entity with author hydrated
  - error: Validation or storage failures
*/
func (service *Service) CreatePost(context context.Context, input CreateInput) (*Post, error) {

	entry := &Post{
		ID:       uuidv7.New(),
		AuthorID: input.AuthorID,
		Content:  input.Content,
		Images:   input.Images,
	}

	if err := service.postRepository.Create(context, entry); err != nil {
		return nil, fmt.Errorf("post_service_create_failed: %w", err)
	}

	service.logger.Info("post_created",
		slog.String("post_id", entry.ID),
		slog.String("author_id", entry.AuthorID),
	)

	service.eventPublisher.Publish(context, events.EventPostCreated, input.AuthorID, map[string]any{
		FieldPostID: entry.ID,
	})

	// Re-read through the repository so the author summary rides along.
	return service.postRepository.FindByID(context, entry.ID, input.AuthorID)
}

/*
GetPost retrieves a single post with the viewer's like state.

Parameters:
  - context: context.Context
  - postID: string
  - viewerID: string (empty for anonymous)

Returns:
  - *Post: Hydrated entity
  - error: Not found or execution failures
*/
func (service *Service) GetPost(context context.Context, postID, viewerID string) (*Post, error) {
	return service.postRepository.FindByID(context, postID, viewerID)
}

// UpdateInput holds the replacement body for an existing post.
type UpdateInput struct {
	Content string
	Images  []string
}

/*
UpdatePost replaces the content of an existing post after an ownership check.

Parameters:
  - context: context.Context
  - postID: string
  - actorID: string
  - input: UpdateInput

Returns:
  - *Post: Updated entity
  - error: Forbidden, not found, or storage failures
*/
func (service *Service) UpdatePost(context context.Context, postID, actorID string, input UpdateInput) (*Post, error) {

	entry, err := service.postRepository.FindByID(context, postID, actorID)
	if err != nil {
		return nil, err
	}

	if entry.AuthorID != actorID {
		return nil, apperr.Forbidden("Only the author can edit this post")
	}

	entry.Content = input.Content
	entry.Images = input.Images

	if err := service.postRepository.UpdateContent(context, entry); err != nil {
		return nil, fmt.Errorf("post_service_update_failed: %w", err)
	}

	return entry, nil
}

/*
DeletePost removes a post after an ownership check.

Description: The schema cascades the delete to likes and comments, so the
counters and their backing rows disappear together.

Parameters:
  - context: context.Context
  - postID: string
  - actorID: string

Returns:
  - error: Forbidden, not found, or storage failures
*/
func (service *Service) DeletePost(context context.Context, postID, actorID string) error {

	entry, err := service.postRepository.FindByID(context, postID, actorID)
	if err != nil {
		return err
	}

	if entry.AuthorID != actorID {
		return apperr.Forbidden("Only the author can delete this post")
	}

	if err := service.postRepository.Delete(context, postID); err != nil {
		return fmt.Errorf("post_service_delete_failed: %w", err)
	}

	service.logger.Info("post_deleted",
		slog.String("post_id", postID),
		slog.String("author_id", actorID),
	)

	return nil
}

// # Feed & Discovery

/*
Feed returns the global chronological feed page for a viewer.

Parameters:
  - context: context.Context
  - viewerID: string
  - params: pagination.Params

Returns:
  - []*Post: Page of posts
  - *pagination.Meta: Fully-populated pagination envelope
  - error: Execution failures
*/
func (service *Service) Feed(context context.Context, viewerID string, params pagination.Params) ([]*Post, *pagination.Meta, error) {
	posts, total, err := service.postRepository.ListFeed(context, viewerID, params.Limit, params.Offset())
	if err != nil {
		return nil, nil, fmt.Errorf("post_service_feed_failed: %w", err)
	}

	meta := pagination.NewMeta(params.Page, params.Limit, total)
	return posts, &meta, nil
}

/*
UserPosts returns one member's posts resolved by username.

Parameters:
  - context: context.Context
  - username: string
  - viewerID: string
  - params: pagination.Params

Returns:
  - []*Post: Page of the member's posts
  - *pagination.Meta: Pagination envelope
  - error: NotFound for unknown members, or execution failures
*/
func (service *Service) UserPosts(context context.Context, username, viewerID string, params pagination.Params) ([]*Post, *pagination.Meta, error) {

	author, err := service.userRepository.FindByUsername(context, normalize.Username(username))
	if err != nil {
		return nil, nil, err
	}

	posts, total, err := service.postRepository.ListByAuthor(context, author.ID, viewerID, params.Limit, params.Offset())
	if err != nil {
		return nil, nil, fmt.Errorf("post_service_user_posts_failed: %w", err)
	}

	meta := pagination.NewMeta(params.Page, params.Limit, total)
	return posts, &meta, nil
}

// # Engagement

/*
ToggleLike flips the viewer's like on a post.

Description: The toggle is atomic at the storage layer. Two rapid calls from
the same user always land back at the original state.

Parameters:
  - context: context.Context
  - postID: string
  - userID: string

Returns:
  - *LikeResult: Final liked state and counter
  - error: Not found or execution failures
*/
func (service *Service) ToggleLike(context context.Context, postID, userID string) (*LikeResult, error) {
	result, err := service.postRepository.ToggleLike(context, postID, userID)
	if err != nil {
		return nil, err
	}

	if result.Liked {
		service.eventPublisher.Publish(context, events.EventPostLiked, userID, map[string]any{
			FieldPostID: postID,
		})
	}

	return result, nil
}

/*
PostLikers lists the members who liked a post, most recent first.

Parameters:
  - context: context.Context
  - postID: string
  - viewerID: string
  - params: pagination.Params

Returns:
  - []*AuthorSummary: Page of likers
  - *pagination.Meta: Pagination envelope
  - error: NotFound for unknown posts, or execution failures
*/
func (service *Service) PostLikers(context context.Context, postID, viewerID string, params pagination.Params) ([]*AuthorSummary, *pagination.Meta, error) {
	if _, err := service.postRepository.FindByID(context, postID, viewerID); err != nil {
		return nil, nil, err
	}

	likers, total, err := service.postRepository.ListLikers(context, postID, params.Limit, params.Offset())
	if err != nil {
		return nil, nil, fmt.Errorf("post_service_likers_failed: %w", err)
	}

	meta := pagination.NewMeta(params.Page, params.Limit, total)
	return likers, &meta, nil
}
