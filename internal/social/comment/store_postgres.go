// Copyright (c) 2026 Pulse. All rights reserved.
// Author: dev@pulse.app

// PostgreSQL implementation of the comment storage contract.
package comment

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/pulseapp/pulse/internal/platform/apperr"
	"github.com/pulseapp/pulse/internal/platform/dberr"
	"github.com/pulseapp/pulse/internal/social/post"
)

// PostgresCommentRepository implements the CommentRepository interface using pgx.
type PostgresCommentRepository struct {
	pool *pgxpool.Pool
}

// NewCommentRepository creates a new PostgreSQL implementation of the CommentRepository.
func NewCommentRepository(pool *pgxpool.Pool) *PostgresCommentRepository {
	return &PostgresCommentRepository{pool: pool}
}

/*
Create persists a new comment and bumps the parent post's counter.

Description: Both writes share one transaction. The foreign key on postid
turns a missing parent into a NotFound through the dberr mapping.

Parameters:
  - context: context.Context
  - comment: *Comment

Returns:
  - error: Missing parent post or persistence failures
*/
func (repository *PostgresCommentRepository) Create(context context.Context, comment *Comment) error {
	transaction, err := repository.pool.Begin(context)
	if err != nil {
		return fmt.Errorf("postgres_comment_repo_begin_failed: %w", err)
	}
	defer transaction.Rollback(context)

	if comment.CreatedAt.IsZero() {
		comment.CreatedAt = time.Now()
	}

	_, err = transaction.Exec(context, `
		INSERT INTO social.comment (id, postid, authorid, content, createdat)
		VALUES ($1, $2, $3, $4, $5)`,
		comment.ID, comment.PostID, comment.AuthorID, comment.Content, comment.CreatedAt)
	if err != nil {
		return dberr.Wrap(err, "comment_create")
	}

	_, err = transaction.Exec(context,
		"UPDATE social.post SET commentcount = commentcount + 1 WHERE id = $1", comment.PostID)
	if err != nil {
		return fmt.Errorf("postgres_comment_repo_counter_failed: %w", err)
	}

	if err := transaction.Commit(context); err != nil {
		return fmt.Errorf("postgres_comment_repo_commit_failed: %w", err)
	}

	return nil
}

/*
FindByID retrieves a single comment with its author summary.

Parameters:
  - context: context.Context
  - id: string

Returns:
  - *Comment: Hydrated entity
  - error: apperr.NotFound or database errors
*/
func (repository *PostgresCommentRepository) FindByID(context context.Context, id string) (*Comment, error) {
	const query = `
		SELECT c.id, c.postid, c.authorid, c.content, c.createdat,
		       a.id, a.username, a.displayname, a.avatarurl
		FROM social.comment c
		JOIN users.account a ON a.id = c.authorid
		WHERE c.id = $1`

	entry := &Comment{Author: &post.AuthorSummary{}}
	err := repository.pool.QueryRow(context, query, id).Scan(
		&entry.ID,
		&entry.PostID,
		&entry.AuthorID,
		&entry.Content,
		&entry.CreatedAt,
		&entry.Author.ID,
		&entry.Author.Username,
		&entry.Author.DisplayName,
		&entry.Author.AvatarURL,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("Comment not found")
		}
		return nil, fmt.Errorf("postgres_comment_repo_find_failed: %w", err)
	}

	return entry, nil
}

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
func (repository *PostgresCommentRepository) ListByPost(context context.Context, postID string, limit, offset int) ([]*Comment, int, error) {
	const query = `
		SELECT c.id, c.postid, c.authorid, c.content, c.createdat,
		       a.id, a.username, a.displayname, a.avatarurl,
		       COUNT(*) OVER() AS total_count
		FROM social.comment c
		JOIN users.account a ON a.id = c.authorid
		WHERE c.postid = $1
		ORDER BY c.createdat ASC, c.id ASC
		LIMIT $2 OFFSET $3`

	rows, err := repository.pool.Query(context, query, postID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("postgres_comment_repo_list_failed: %w", err)
	}
	defer rows.Close()

	var comments []*Comment
	var total int

	for rows.Next() {
		entry := &Comment{Author: &post.AuthorSummary{}}
		err := rows.Scan(
			&entry.ID,
			&entry.PostID,
			&entry.AuthorID,
			&entry.Content,
			&entry.CreatedAt,
			&entry.Author.ID,
			&entry.Author.Username,
			&entry.Author.DisplayName,
			&entry.Author.AvatarURL,
			&total,
		)
		if err != nil {
			return nil, 0, fmt.Errorf("postgres_comment_repo_scan_failed: %w", err)
		}
		comments = append(comments, entry)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("postgres_comment_repo_rows_failed: %w", err)
	}

	return comments, total, nil
}

/*
Delete removes a comment and decrements the parent counter.

Description: The decrement is floored at zero so repair scripts or racing
deletes can never drive the counter negative.

Parameters:
  - context: context.Context
  - id: string
  - postID: string

Returns:
  - error: Execution failures
*/
func (repository *PostgresCommentRepository) Delete(context context.Context, id, postID string) error {
	transaction, err := repository.pool.Begin(context)
	if err != nil {
		return fmt.Errorf("postgres_comment_repo_delete_begin_failed: %w", err)
	}
	defer transaction.Rollback(context)

	tag, err := transaction.Exec(context, "DELETE FROM social.comment WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("postgres_comment_repo_delete_failed: %w", err)
	}

	// Only adjust the counter when a row actually went away.
	if tag.RowsAffected() > 0 {
		_, err = transaction.Exec(context,
			"UPDATE social.post SET commentcount = GREATEST(commentcount - 1, 0) WHERE id = $1", postID)
		if err != nil {
			return fmt.Errorf("postgres_comment_repo_delete_counter_failed: %w", err)
		}
	}

	if err := transaction.Commit(context); err != nil {
		return fmt.Errorf("postgres_comment_repo_delete_commit_failed: %w", err)
	}

	return nil
}
