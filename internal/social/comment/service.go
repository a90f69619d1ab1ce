// Copyright (c) 2026 Pulse. All rights reserved.
// Author: dev@pulse.app

// Business logic for commenting on posts.
package comment

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/pulseapp/pulse/internal/platform/apperr"
	"github.com/pulseapp/pulse/internal/platform/events"
	"github.com/pulseapp/pulse/internal/social/post"
	"github.com/pulseapp/pulse/pkg/pagination"
	"github.com/pulseapp/pulse/pkg/uuidv7"
)

// Service implements the comment use cases on top of the repositories.
type Service struct {
	commentRepository CommentRepository
	postRepository    post.PostRepository
	eventPublisher    *events.Publisher
	logger            *slog.Logger
}

// NewService creates a new comment service.
func NewService(
	commentRepository CommentRepository,
	postRepository post.PostRepository,
	eventPublisher *events.Publisher,
	logger *slog.Logger,
) *Service {
	return &Service{
		commentRepository: commentRepository,
		postRepository:    postRepository,
		eventPublisher:    eventPublisher,
		logger:            logger,
	}
}

/*
AddComment attaches a new comment to an existing post.

Parameters:
  - context: context.Context
  - postID: string
  - authorID: string
  - content: string

Returns:
  - *Comment: The persisted comment with its author summary
  - error: apperr.NotFound when the post is gone, or persistence errors
*/
func (service *Service) AddComment(context context.Context, postID, authorID, content string) (*Comment, error) {
	// Check the parent first so a vanished post reads as NotFound rather
	// than a constraint violation.
	if _, err := service.postRepository.FindByID(context, postID, authorID); err != nil {
		return nil, err
	}

	entry := &Comment{
		ID:        uuidv7.New(),
		PostID:    postID,
		AuthorID:  authorID,
		Content:   content,
		CreatedAt: time.Now(),
	}

	if err := service.commentRepository.Create(context, entry); err != nil {
		return nil, fmt.Errorf("comment_create_failed: %w", err)
	}

	service.eventPublisher.Publish(context, events.EventCommentAdded, authorID, map[string]any{
		"comment_id": entry.ID,
		"post_id":    postID,
	})

	return service.commentRepository.FindByID(context, entry.ID)
}

/*
ListComments returns a page of a post's comments, oldest first.

Parameters:
  - context: context.Context
  - postID: string
  - viewerID: string
  - params: pagination.Params

Returns:
  - []*Comment: Page of comments
  - *pagination.Meta: Pagination metadata
  - error: apperr.NotFound when the post is gone, or query errors
*/
func (service *Service) ListComments(context context.Context, postID, viewerID string, params pagination.Params) ([]*Comment, *pagination.Meta, error) {
	if _, err := service.postRepository.FindByID(context, postID, viewerID); err != nil {
		return nil, nil, err
	}

	comments, total, err := service.commentRepository.ListByPost(context, postID, params.Limit, params.Offset())
	if err != nil {
		return nil, nil, fmt.Errorf("comment_list_failed: %w", err)
	}

	metadata := pagination.NewMeta(params.Page, params.Limit, total)

	return comments, &metadata, nil
}

/*
DeleteComment removes a comment on behalf of an actor.

Description: Deletion is permitted for the comment's author and for the
author of the post it belongs to. Everyone else gets Forbidden.

Parameters:
  - context: context.Context
  - commentID: string
  - actorID: string

Returns:
  - error: apperr.NotFound, apperr.Forbidden, or persistence errors
*/
func (service *Service) DeleteComment(context context.Context, commentID, actorID string) error {
	entry, err := service.commentRepository.FindByID(context, commentID)
	if err != nil {
		return err
	}

	if entry.AuthorID != actorID {
		parent, err := service.postRepository.FindByID(context, entry.PostID, actorID)
		if err != nil {
			return err
		}
		if parent.AuthorID != actorID {
			return apperr.Forbidden("You cannot delete this comment")
		}
	}

	if err := service.commentRepository.Delete(context, commentID, entry.PostID); err != nil {
		return fmt.Errorf("comment_delete_failed: %w", err)
	}

	return nil
}
