// Copyright (c) 2026 Pulse. All rights reserved.
// Author: dev@pulse.app

// PostgreSQL implementation of the post storage contract.
//
// # Performance
//
//   - Window Function: Uses COUNT(*) OVER() to retrieve total record counts
//     in the same round trip as the page itself.
//   - Viewer Join: The Liked flag is resolved with an EXISTS subquery, so the
//     feed never needs a second per-post query.
package post

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/pulseapp/pulse/internal/platform/apperr"
)

// PostgresPostRepository implements the PostRepository interface using pgx.
type PostgresPostRepository struct {
	pool *pgxpool.Pool
}

// NewPostRepository creates a new PostgreSQL implementation of the PostRepository.
func NewPostRepository(pool *pgxpool.Pool) *PostgresPostRepository {
	return &PostgresPostRepository{pool: pool}
}

// selectPost is the shared SELECT head for hydrating a [Post] with its author
// summary and the viewer's like state. NULLIF turns an anonymous viewer into
// a NULL comparison, which EXISTS resolves to false.
const selectPost = `
	SELECT
		p.id, p.authorid, p.content, p.images, p.likecount, p.commentcount,
		p.createdat, p.updatedat,
		a.id, a.username, a.displayname, a.avatarurl,
		EXISTS(
			SELECT 1 FROM social.postlike l
			WHERE l.postid = p.id AND l.userid = NULLIF($1, '')::uuid
		) AS liked`

// scanPost hydrates one post row produced by a selectPost query.
func scanPost(row pgx.Row, withTotal bool, total *int) (*Post, error) {
	entry := &Post{Author: &AuthorSummary{}}

	targets := []any{
		&entry.ID,
		&entry.AuthorID,
		&entry.Content,
		&entry.Images,
		&entry.LikeCount,
		&entry.CommentCount,
		&entry.CreatedAt,
		&entry.UpdatedAt,
		&entry.Author.ID,
		&entry.Author.Username,
		&entry.Author.DisplayName,
		&entry.Author.AvatarURL,
		&entry.Liked,
	}
	if withTotal {
		targets = append(targets, total)
	}

	if err := row.Scan(targets...); err != nil {
		return nil, err
	}

	return entry, nil
}

/*
Create persists a new post record into the social.post table.

Parameters:
  - context: context.Context
  - post: *Post (Entity to persist)

Returns:
  - error: Database constraint violations or connectivity errors
*/
func (repository *PostgresPostRepository) Create(context context.Context, post *Post) error {
	const query = `
		INSERT INTO social.post (
			id, authorid, content, images, likecount, commentcount, createdat, updatedat
		) VALUES ($1, $2, $3, $4, 0, 0, $5, $6)`

	now := time.Now()
	if post.CreatedAt.IsZero() {
		post.CreatedAt = now
	}
	post.UpdatedAt = now

	_, err := repository.pool.Exec(context, query,
		post.ID,
		post.AuthorID,
		post.Content,
		post.Images,
		post.CreatedAt,
		post.UpdatedAt,
	)

	if err != nil {
		return fmt.Errorf("postgres_post_repo_create_failed: %w", err)
	}

	return nil
}

/*
FindByID retrieves a single post with author summary and viewer like state.

Parameters:
  - context: context.Context
  - id: string
  - viewerID: string (empty for anonymous)

Returns:
  - *Post: Hydrated entity
  - error: apperr.NotFound or database errors
*/
func (repository *PostgresPostRepository) FindByID(context context.Context, id, viewerID string) (*Post, error) {
	query := selectPost + `
		FROM social.post p
		JOIN users.account a ON a.id = p.authorid
		WHERE p.id = $2`

	entry, err := scanPost(repository.pool.QueryRow(context, query, viewerID, id), false, nil)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("Post not found")
		}
		return nil, fmt.Errorf("postgres_post_repo_find_failed: %w", err)
	}

	return entry, nil
}

/*
UpdateContent replaces the post body and image list.

Parameters:
  - context: context.Context
  - post: *Post

Returns:
  - error: Update failures
*/
func (repository *PostgresPostRepository) UpdateContent(context context.Context, post *Post) error {
	const query = `
		UPDATE social.post
		SET content = $2, images = $3, updatedat = $4
		WHERE id = $1`

	post.UpdatedAt = time.Now()
	_, err := repository.pool.Exec(context, query, post.ID, post.Content, post.Images, post.UpdatedAt)
	if err != nil {
		return fmt.Errorf("postgres_post_repo_update_failed: %w", err)
	}

	return nil
}

/*
Delete removes a post permanently.

Description: Likes and comments are removed by ON DELETE CASCADE on their
foreign keys, so a post never leaves orphans behind.

Parameters:
  - context: context.Context
  - id: string

Returns:
  - error: Execution failures
*/
func (repository *PostgresPostRepository) Delete(context context.Context, id string) error {
	const query = "DELETE FROM social.post WHERE id = $1"
	_, err := repository.pool.Exec(context, query, id)
	if err != nil {
		return fmt.Errorf("postgres_post_repo_delete_failed: %w", err)
	}
	return nil
}

/*
ListFeed returns the global chronological feed, newest first.

Parameters:
  - context: context.Context
  - viewerID: string
  - limit: int
  - offset: int

Returns:
  - []*Post: Page of hydrated posts
  - int: Total post count
  - error: Execution failures
*/
func (repository *PostgresPostRepository) ListFeed(context context.Context, viewerID string, limit, offset int) ([]*Post, int, error) {
	query := selectPost + `,
		COUNT(*) OVER() AS total_count
		FROM social.post p
		JOIN users.account a ON a.id = p.authorid
		ORDER BY p.createdat DESC, p.id DESC
		LIMIT $2 OFFSET $3`

	return repository.listPosts(context, query, viewerID, limit, offset)
}

/*
ListByAuthor returns one member's posts, newest first.

Parameters:
  - context: context.Context
  - authorID: string
  - viewerID: string
  - limit: int
  - offset: int

Returns:
  - []*Post: Page of hydrated posts
  - int: Total count for the author
  - error: Execution failures
*/
func (repository *PostgresPostRepository) ListByAuthor(context context.Context, authorID, viewerID string, limit, offset int) ([]*Post, int, error) {
	query := selectPost + `,
		COUNT(*) OVER() AS total_count
		FROM social.post p
		JOIN users.account a ON a.id = p.authorid
		WHERE p.authorid = $4
		ORDER BY p.createdat DESC, p.id DESC
		LIMIT $2 OFFSET $3`

	return repository.listPosts(context, query, viewerID, limit, offset, authorID)
}

// listPosts executes a paginated selectPost query and collects the page.
func (repository *PostgresPostRepository) listPosts(context context.Context, query, viewerID string, limit, offset int, extraArgs ...any) ([]*Post, int, error) {
	args := append([]any{viewerID, limit, offset}, extraArgs...)

	rows, err := repository.pool.Query(context, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("postgres_post_repo_list_failed: %w", err)
	}
	defer rows.Close()

	var posts []*Post
	var total int

	for rows.Next() {
		entry, err := scanPost(rows, true, &total)
		if err != nil {
			return nil, 0, fmt.Errorf("postgres_post_repo_scan_failed: %w", err)
		}
		posts = append(posts, entry)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("postgres_post_repo_rows_failed: %w", err)
	}

	return posts, total, nil
}

/*
ToggleLike flips the viewer's like on a post inside a single transaction.

Description: An INSERT with ON CONFLICT DO NOTHING decides the direction of
the toggle. When the insert lands, the counter goes up; when the row already
existed, the like is removed and the counter goes down, floored at zero.

Parameters:
  - context: context.Context
  - postID: string
  - userID: string

Returns:
  - *LikeResult: Final liked state and counter value
  - error: apperr.NotFound or execution failures
*/
func (repository *PostgresPostRepository) ToggleLike(context context.Context, postID, userID string) (*LikeResult, error) {
	transaction, err := repository.pool.Begin(context)
	if err != nil {
		return nil, fmt.Errorf("postgres_post_repo_like_begin_failed: %w", err)
	}
	defer transaction.Rollback(context)

	// Lock the post row so concurrent toggles serialize on the counter.
	var exists bool
	err = transaction.QueryRow(context,
		"SELECT TRUE FROM social.post WHERE id = $1 FOR UPDATE", postID).Scan(&exists)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("Post not found")
		}
		return nil, fmt.Errorf("postgres_post_repo_like_lock_failed: %w", err)
	}

	tag, err := transaction.Exec(context, `
		INSERT INTO social.postlike (postid, userid, createdat)
		VALUES ($1, $2, $3)
		ON CONFLICT (postid, userid) DO NOTHING`,
		postID, userID, time.Now())
	if err != nil {
		return nil, fmt.Errorf("postgres_post_repo_like_insert_failed: %w", err)
	}

	result := &LikeResult{Liked: tag.RowsAffected() == 1}

	if result.Liked {
		err = transaction.QueryRow(context, `
			UPDATE social.post SET likecount = likecount + 1
			WHERE id = $1 RETURNING likecount`, postID).Scan(&result.LikeCount)
	} else {
		_, err = transaction.Exec(context,
			"DELETE FROM social.postlike WHERE postid = $1 AND userid = $2", postID, userID)
		if err == nil {
			err = transaction.QueryRow(context, `
				UPDATE social.post SET likecount = GREATEST(likecount - 1, 0)
				WHERE id = $1 RETURNING likecount`, postID).Scan(&result.LikeCount)
		}
	}
	if err != nil {
		return nil, fmt.Errorf("postgres_post_repo_like_update_failed: %w", err)
	}

	if err := transaction.Commit(context); err != nil {
		return nil, fmt.Errorf("postgres_post_repo_like_commit_failed: %w", err)
	}

	return result, nil
}

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
func (repository *PostgresPostRepository) ListLikers(context context.Context, postID string, limit, offset int) ([]*AuthorSummary, int, error) {
	const query = `
		SELECT a.id, a.username, a.displayname, a.avatarurl,
		       COUNT(*) OVER() AS total_count
		FROM social.postlike l
		JOIN users.account a ON a.id = l.userid
		WHERE l.postid = $1
		ORDER BY l.createdat DESC
		LIMIT $2 OFFSET $3`

	rows, err := repository.pool.Query(context, query, postID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("postgres_post_repo_likers_failed: %w", err)
	}
	defer rows.Close()

	var likers []*AuthorSummary
	var total int

	for rows.Next() {
		summary := &AuthorSummary{}
		if err := rows.Scan(&summary.ID, &summary.Username, &summary.DisplayName, &summary.AvatarURL, &total); err != nil {
			return nil, 0, fmt.Errorf("postgres_post_repo_likers_scan_failed: %w", err)
		}
		likers = append(likers, summary)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("postgres_post_repo_likers_rows_failed: %w", err)
	}

	return likers, total, nil
}
