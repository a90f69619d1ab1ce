// Copyright (c) 2026 Pulse. All rights reserved.
// Author: dev@pulse.app

/*
Package comment implements threads attached to feed posts.

Comments are flat (no nesting) and chronological. Each write keeps the
denormalized comment counter on the parent post in step, inside the same
transaction as the comment row itself.
*/
package comment

import (
	"time"

	"github.com/pulseapp/pulse/internal/social/post"
)

// Comment represents a single reply attached to a post.
type Comment struct {
	ID        string    `json:"id"`
	PostID    string    `json:"post_id"`
	AuthorID  string    `json:"author_id"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`

	// Author is hydrated on reads via a join.
	Author *post.AuthorSummary `json:"author,omitempty"`
}

// # Field Identifiers

const (
	FieldContent   = "content"
	FieldPostID    = "post_id"
	FieldCommentID = "comment_id"
)
