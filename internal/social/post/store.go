// Copyright (c) 2026 Pulse. All rights reserved.
// Author: dev@pulse.app

package post

import (
	"context"
)

// # Post Data Access

// PostRepository defines the data access contract for feed posts.
//
// Read operations take a viewerID so the Liked flag can be resolved in the
// same query; an empty viewerID leaves Liked false.
type PostRepository interface {

	/*
		Create persists a new post.

		Parameters:
		  - context: context.Context
		  - post: *Post

		Returns:
		  - error: Persistence failures
	*/
	Create(context context.Context, post *Post) error

	/*
		FindByID returns a single post with its author summary hydrated.

		Parameters:
		  - context: context.Context
		  - id: string
		  - viewerID: string

		Returns:
		  - *Post: Hydrated entity
		  - error: Not found or execution failures
	*/
	FindByID(context context.Context, id, viewerID string) (*Post, error)

	/*
		UpdateContent replaces the post body and image list.

		Parameters:
		  - context: context.Context
		  - post: *Post

		Returns:
		  - error: Persistence failures
	*/
	UpdateContent(context context.Context, post *Post) error

	/*
		Delete removes a post. Likes and comments cascade at the schema level.

		Parameters:
		  - context: context.Context
		  - id: string

		Returns:
		  - error: Execution failures
	*/
	Delete(context context.Context, id string) error

	/*
		ListFeed returns the global chronological feed, newest first.

		Parameters:
		  - context: context.Context
		  - viewerID: string
		  - limit: int
		  - offset: int

		Returns:
		  - []*Post: Page of posts with author summaries
		  - int: Total post count
		  - error: Execution failures
	*/
	ListFeed(context context.Context, viewerID string, limit, offset int) ([]*Post, int, error)

	/*
		ListByAuthor returns one member's posts, newest first.

		Parameters:
		  - context: context.Context
		  - authorID: string
		  - viewerID: string
		  - limit: int
		  - offset: int

		Returns:
		  - []*Post: Page of posts
		  - int: Total count for the author
		  - error: Execution failures
	*/
	ListByAuthor(context context.Context, authorID, viewerID string, limit, offset int) ([]*Post, int, error)

	/*
		ToggleLike flips the viewer's like on a post and adjusts the counter,
		both inside a single transaction.

		Parameters:
		  - context: context.Context
		  - postID: string
		  - userID: string

		Returns:
		  - *LikeResult: Final liked state and counter value
		  - error: Not found or execution failures
	*/
	ToggleLike(context context.Context, postID, userID string) (*LikeResult, error)

	/*
		ListLikers returns the members who liked a post, most recent first.

		Parameters:
		  - context: context.Context
		  - postID: string
		  - limit: int
		  - offset: int

		Returns:
		  - []*AuthorSummary: Page of likers
		  - int: Total like count
		  - error: Execution failures
	*/
	ListLikers(context context.Context, postID string, limit, offset int) ([]*AuthorSummary, int, error)
}
