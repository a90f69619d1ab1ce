// Copyright (c) 2026 Pulse. All rights reserved.
// Author: dev@pulse.app

/*
HTTP delivery layer for the feed.

# Security

Every endpoint requires an authenticated session. The feed is a members-only
surface; there is no anonymous browsing.
*/
package post

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/pulseapp/pulse/internal/platform/constants"
	"github.com/pulseapp/pulse/internal/platform/middleware"
	requestutil "github.com/pulseapp/pulse/internal/platform/request"
	"github.com/pulseapp/pulse/internal/platform/respond"
	"github.com/pulseapp/pulse/internal/platform/validate"
	"github.com/pulseapp/pulse/pkg/pagination"
)

// feedPageSize is the default page size for feed listings.
const feedPageSize = 10

// Handler implements the HTTP layer for posts and likes.
type Handler struct {
	postService *Service
}

// NewHandler constructs a new post [Handler].
func NewHandler(service *Service) *Handler {
	return &Handler{postService: service}
}

// Routes returns a [chi.Router] with the post domain's endpoints.
//
// commentRoutes is mounted beneath each post so comment handlers can resolve
// the parent from the postID path parameter.
func (handler *Handler) Routes(commentRoutes chi.Router) chi.Router {
	router := chi.NewRouter()
	router.Use(middleware.RequireAuth)

	router.Get("/", handler.feed)
	router.Get("/feed", handler.feed)
	router.Post("/", handler.create)
	router.Get("/user/{username}", handler.userPosts)

	router.Route("/{postID}", func(r chi.Router) {
		r.Get("/", handler.get)
		r.Patch("/", handler.update)
		r.Delete("/", handler.delete)
		r.Post("/like", handler.toggleLike)
		r.Get("/likes", handler.likers)
		r.Mount("/comments", commentRoutes)
	})

	return router
}

// # Request Payloads

type postRequest struct {
	Content string   `json:"content"`
	Images  []string `json:"images"`
}

// validatePostBody enforces the shared authoring constraints.
func validatePostBody(input postRequest) error {
	v := &validate.Validator{}
	v.Required(FieldContent, input.Content).
		MaxLen(FieldContent, input.Content, constants.MaxPostContentLength).
		Custom(FieldImages, len(input.Images) > constants.MaxPostImages, "exceeds the image limit")

	return v.Err()
}

// # Endpoints

/*
GET /api/v1/posts.

Description: Returns the global chronological feed, newest first, with the
viewer's like state resolved per post.

Response:
  - 200: Paginated []Post
  - 401: ErrUnauthorized: Authentication required
*/
func (handler *Handler) feed(writer http.ResponseWriter, request *http.Request) {
	userID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	params := pagination.FromRequest(request, feedPageSize)

	posts, meta, err := handler.postService.Feed(request.Context(), userID, params)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Paginated(writer, posts, *meta)
}

/*
POST /api/v1/posts.

Description: Publishes a new post authored by the session user.

Request:
  - Body: postRequest (Content, Images)

Response:
  - 201: Post: Created entry with author summary
  - 400: ErrInvalidJSON/Validation: Bad input
  - 401: ErrUnauthorized: Authentication required
*/
func (handler *Handler) create(writer http.ResponseWriter, request *http.Request) {
	userID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var input postRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	if err := validatePostBody(input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	entry, err := handler.postService.CreatePost(request.Context(), CreateInput{
		AuthorID: userID,
		Content:  input.Content,
		Images:   input.Images,
	})
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Created(writer, entry)
}

/*
GET /api/v1/posts/{postID}.

Response:
  - 200: Post: Hydrated entry
  - 404: ErrNotFound: No such post
*/
func (handler *Handler) get(writer http.ResponseWriter, request *http.Request) {
	userID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	entry, err := handler.postService.GetPost(request.Context(), requestutil.Param(request, "postID"), userID)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, entry)
}

/*
PATCH /api/v1/posts/{postID}.

Description: Replaces the post body. Author only.

Response:
  - 200: Post: Updated entry
  - 403: ErrForbidden: Caller is not the author
  - 404: ErrNotFound: No such post
*/
func (handler *Handler) update(writer http.ResponseWriter, request *http.Request) {
	userID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var input postRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	if err := validatePostBody(input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	entry, err := handler.postService.UpdatePost(request.Context(), requestutil.Param(request, "postID"), userID, UpdateInput{
		Content: input.Content,
		Images:  input.Images,
	})
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, entry)
}

/*
DELETE /api/v1/posts/{postID}.

Description: Removes the post and everything attached to it. Author only.

Response:
  - 204: No Content
  - 403: ErrForbidden: Caller is not the author
  - 404: ErrNotFound: No such post
*/
func (handler *Handler) delete(writer http.ResponseWriter, request *http.Request) {
	userID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := handler.postService.DeletePost(request.Context(), requestutil.Param(request, "postID"), userID); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.NoContent(writer)
}

/*
POST /api/v1/posts/{postID}/like.

Description: Toggles the viewer's like on the post.

Response:
  - 200: LikeResult: Final liked state and counter
  - 404: ErrNotFound: No such post
*/
func (handler *Handler) toggleLike(writer http.ResponseWriter, request *http.Request) {
	userID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	result, err := handler.postService.ToggleLike(request.Context(), requestutil.Param(request, "postID"), userID)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, result)
}

/*
GET /api/v1/posts/user/{username}.

Description: Lists one member's posts, newest first.

Response:
  - 200: Paginated []Post
  - 404: ErrNotFound: No such member
*/
func (handler *Handler) userPosts(writer http.ResponseWriter, request *http.Request) {
	userID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	params := pagination.FromRequest(request, feedPageSize)

	posts, meta, err := handler.postService.UserPosts(request.Context(), requestutil.Param(request, FieldUsername), userID, params)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Paginated(writer, posts, *meta)
}

/*
GET /api/v1/posts/{postID}/likes.

Description: Lists the members who liked the post, most recent first.

Response:
  - 200: Paginated []AuthorSummary
  - 404: ErrNotFound: No such post
*/
func (handler *Handler) likers(writer http.ResponseWriter, request *http.Request) {
	userID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	params := pagination.FromRequest(request, feedPageSize)

	likers, meta, err := handler.postService.PostLikers(request.Context(), requestutil.Param(request, "postID"), userID, params)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Paginated(writer, likers, *meta)
}
