// Copyright (c) 2026 Pulse. All rights reserved.
// Author: dev@pulse.app

package comment

import (
	"context"
)

// # Comment Data Access

// CommentRepository defines the data access contract for post comments.
//
// Create and Delete adjust the parent post's comment counter within the same
// transaction as the comment row.
type CommentRepository interface {

	/*
		Create persists a new comment and increments the parent counter.

		Parameters:
		  - context: context.Context
		  - comment: *Comment

		Returns:
		  - error: Missing parent post or persistence failures
	*/
	Create(context context.Context, comment *Comment) error

	/*
		FindByID returns a single comment with its author summary hydrated.

		Parameters:
		  - context: context.Context
		  - id: string

		Returns:
		  - *Comment: Hydrated entity
		  - error: Not found or execution failures
	*/
	FindByID(context context.Context, id string) (*Comment, error)

	/*
		ListByPost returns a post's comments, oldest first.

		Parameters:
		  - context: context.Context
		  - postID: string
		  - limit: int
		  - offset: int

		Returns:
		  - []*Comment: Page of comments
		  - int: Total comment count for the post
		  - error: Execution failures
	*/
	ListByPost(context context.Context, postID string, limit, offset int) ([]*Comment, int, error)

	/*
		Delete removes a comment and decrements the parent counter, floored
		at zero.

		Parameters:
		  - context: context.Context
		  - id: string
		  - postID: string

		Returns:
		  - error: Execution failures
	*/
	Delete(context context.Context, id, postID string) error
}
