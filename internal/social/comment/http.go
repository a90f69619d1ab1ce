// Copyright (c) 2026 Pulse. All rights reserved.
// Author: dev@pulse.app

// HTTP delivery layer for comments, mounted beneath a post route.
package comment

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/pulseapp/pulse/internal/platform/constants"
	requestutil "github.com/pulseapp/pulse/internal/platform/request"
	"github.com/pulseapp/pulse/internal/platform/respond"
	"github.com/pulseapp/pulse/internal/platform/validate"
	"github.com/pulseapp/pulse/pkg/pagination"
)

// commentPageSize is the default page size for comment listings.
const commentPageSize = 20

// Handler implements the HTTP layer for comments.
type Handler struct {
	commentService *Service
}

// NewHandler constructs a new comment [Handler].
func NewHandler(service *Service) *Handler {
	return &Handler{commentService: service}
}

// Routes returns a [chi.Router] with the comment endpoints.
//
// The router is mounted at /posts/{postID}/comments, so handlers read the
// parent post from the postID path parameter. Authentication is enforced by
// the parent router.
func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()

	router.Get("/", handler.list)
	router.Post("/", handler.create)
	router.Delete("/{commentID}", handler.delete)

	return router
}

// # Request Payloads

type commentRequest struct {
	Content string `json:"content"`
}

// # Endpoints

/*
GET /api/v1/posts/{postID}/comments.

Description: Returns the post's comments in conversation order, oldest first.

Response:
  - 200: Paginated []Comment
  - 404: ErrNotFound: No such post
*/
func (handler *Handler) list(writer http.ResponseWriter, request *http.Request) {
	userID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	params := pagination.FromRequest(request, commentPageSize)

	comments, meta, err := handler.commentService.ListComments(
		request.Context(), requestutil.Param(request, "postID"), userID, params)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Paginated(writer, comments, *meta)
}

/*
POST /api/v1/posts/{postID}/comments.

Description: Adds a comment authored by the session user.

Request:
  - Body: commentRequest (Content)

Response:
  - 201: Comment: Created entry with author summary
  - 400: ErrInvalidJSON/Validation: Bad input
  - 404: ErrNotFound: No such post
*/
func (handler *Handler) create(writer http.ResponseWriter, request *http.Request) {
	userID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var input commentRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	v := &validate.Validator{}
	v.Required(FieldContent, input.Content).
		MaxLen(FieldContent, input.Content, constants.MaxCommentContentLength)
	if err := v.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	entry, err := handler.commentService.AddComment(
		request.Context(), requestutil.Param(request, "postID"), userID, input.Content)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Created(writer, entry)
}

/*
DELETE /api/v1/posts/{postID}/comments/{commentID}.

Description: Removes a comment. Permitted for the comment's author and for
the post's author.

Response:
  - 204: No Content
  - 403: ErrForbidden: Caller may not delete this comment
  - 404: ErrNotFound: No such comment
*/
func (handler *Handler) delete(writer http.ResponseWriter, request *http.Request) {
	userID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := handler.commentService.DeleteComment(
		request.Context(), requestutil.Param(request, "commentID"), userID); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.NoContent(writer)
}
