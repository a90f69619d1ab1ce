// Copyright (c) 2026 Pulse. All rights reserved.
// Author: dev@pulse.app

/*
Package post implements the publishing core of the Pulse feed.

It defines the Post entity, authoring rules, the chronological feed, and the
like toggle. Comments live in the sibling comment package but maintain their
counter on the post record.

# Architecture

Posts are owned aggregates: only the author may edit or delete one. The
like and comment counters are denormalized onto the post row and kept
consistent inside repository transactions.
*/
package post

import (
	"time"
)

// # Domain Entities

// AuthorSummary is the compact author projection embedded in feed items.
type AuthorSummary struct {
	ID          string `json:"id"`
	Username    string `json:"username"`
	DisplayName string `json:"display_name"`
	AvatarURL   string `json:"avatar_url,omitempty"`
}

// Post represents a single published entry in the feed.
type Post struct {
	ID           string    `json:"id"`
	AuthorID     string    `json:"author_id"`
	Content      string    `json:"content"`
	Images       []string  `json:"images,omitempty"`
	LikeCount    int       `json:"like_count"`
	CommentCount int       `json:"comment_count"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`

	// Author is hydrated on reads via a join, never persisted from here.
	Author *AuthorSummary `json:"author,omitempty"`

	// Liked reports whether the requesting viewer has liked this post.
	Liked bool `json:"liked"`
}

// LikeResult is the outcome of a like toggle.
type LikeResult struct {
	Liked     bool `json:"liked"`
	LikeCount int  `json:"like_count"`
}

// # Field Identifiers

const (
	FieldContent  = "content"
	FieldImages   = "images"
	FieldPostID   = "post_id"
	FieldUsername = "username"
)
