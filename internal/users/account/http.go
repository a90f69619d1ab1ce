// Copyright (c) 2026 Pulse. All rights reserved.
// Author: dev@pulse.app

/*
HTTP delivery layer for profile and account management.

# Security

The /me endpoints require an active authentication session provided by the
RequireAuth middleware. Public profile discovery is open.
*/
package account

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/pulseapp/pulse/internal/platform/middleware"
	requestutil "github.com/pulseapp/pulse/internal/platform/request"
	"github.com/pulseapp/pulse/internal/platform/respond"
	"github.com/pulseapp/pulse/internal/platform/validate"
)

// Handler implements the HTTP layer for user account management.
type Handler struct {
	accountService *Service
}

// NewHandler constructs a new account [Handler].
func NewHandler(service *Service) *Handler {
	return &Handler{accountService: service}
}

// Routes returns a [chi.Router] configured with the account domain's endpoints.
func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()

	// Account Management
	router.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth)
		r.Get("/me", handler.getMe)
		r.Patch("/me", handler.updateMe)
		r.Patch("/me/avatar", handler.updateAvatar)
		r.Patch("/me/cover", handler.updateCover)
		r.Delete("/me", handler.deleteMe)
	})

	// Public Profile discovery
	router.Get("/{username}", handler.getUserProfile)

	return router
}

// # User Profile Endpoints

/*
GET /api/v1/users/me.

Description: Retrieves the full private profile of the authenticated user.

Response:
  - 200: User: Fully hydrated user profile
  - 401: ErrUnauthorized: Authentication required
*/
func (handler *Handler) getMe(writer http.ResponseWriter, request *http.Request) {
	userID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	user, err := handler.accountService.GetProfile(request.Context(), userID)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, user)
}

// updateMeRequest defines the expected JSON payload for profile updates.
type updateMeRequest struct {
	DisplayName *string `json:"display_name"`
	Bio         *string `json:"bio"`
	AvatarURL   *string `json:"avatar_url"`
	CoverURL    *string `json:"cover_url"`
}

/*
PATCH /api/v1/users/me.

Description: Applies partial updates to the authenticated user's profile.
Avatar and cover values are storage URLs obtained through the media upload flow.

Request:
  - body: updateMeRequest (Partial JSON)

Response:
  - 200: User: The updated profile
  - 400: ErrInvalidJSON/Validation: Invalid input data
  - 401: ErrUnauthorized: Authentication required
*/
func (handler *Handler) updateMe(writer http.ResponseWriter, request *http.Request) {
	userID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var input updateMeRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	v := &validate.Validator{}
	if input.DisplayName != nil {
		v.MaxLen(FieldDisplayName, *input.DisplayName, MaxDisplayNameLength)
	}
	if input.Bio != nil {
		v.MaxLen(FieldBio, *input.Bio, MaxBioLength)
	}

	if err := v.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	user, err := handler.accountService.UpdateProfile(request.Context(), userID, UpdateProfileInput{
		DisplayName: input.DisplayName,
		Bio:         input.Bio,
		AvatarURL:   input.AvatarURL,
		CoverURL:    input.CoverURL,
	})
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, user)
}

/*
DELETE /api/v1/users/me.

Description: Soft-deletes the authenticated account and ends its session.

Response:
  - 204: No Content: Account deleted
  - 401: ErrUnauthorized: Authentication required
*/
func (handler *Handler) deleteMe(writer http.ResponseWriter, request *http.Request) {
	userID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := handler.accountService.DeleteAccount(request.Context(), userID); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.NoContent(writer)
}

/*
GET /api/v1/users/{username}.

Description: Resolves a username into the public profile projection.

Response:
  - 200: PublicProfile: Shareable profile data
  - 404: ErrNotFound: No such member
*/
func (handler *Handler) getUserProfile(writer http.ResponseWriter, request *http.Request) {
	username := requestutil.Param(request, FieldUsername)
	if username == "" {
		respond.Error(writer, request, validate.RequiredError(FieldUsername, "is required"))
		return
	}

	profile, err := handler.accountService.GetPublicProfile(request.Context(), username)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, profile)
}

// mediaReferenceRequest carries a single storage URL from the upload flow.
type mediaReferenceRequest struct {
	URL string `json:"url"`
}

/*
PATCH /api/v1/users/me/avatar.

Description: Replaces the authenticated user's avatar reference.

Request:
  - body: mediaReferenceRequest

Response:
  - 200: User: The updated profile
  - 400: ErrInvalidJSON/Validation: Invalid input data
  - 401: ErrUnauthorized: Authentication required
*/
func (handler *Handler) updateAvatar(writer http.ResponseWriter, request *http.Request) {
	handler.updateMediaReference(writer, request, FieldAvatarURL)
}

/*
PATCH /api/v1/users/me/cover.

Description: Replaces the authenticated user's cover image reference.

Request:
  - body: mediaReferenceRequest

Response:
  - 200: User: The updated profile
  - 400: ErrInvalidJSON/Validation: Invalid input data
  - 401: ErrUnauthorized: Authentication required
*/
func (handler *Handler) updateCover(writer http.ResponseWriter, request *http.Request) {
	handler.updateMediaReference(writer, request, FieldCoverURL)
}

// updateMediaReference is the shared body for the avatar and cover routes.
func (handler *Handler) updateMediaReference(writer http.ResponseWriter, request *http.Request, field string) {
	userID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var input mediaReferenceRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	v := &validate.Validator{}
	v.Required(field, input.URL)
	if err := v.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	delta := UpdateProfileInput{}
	if field == FieldAvatarURL {
		delta.AvatarURL = &input.URL
	} else {
		delta.CoverURL = &input.URL
	}

	user, err := handler.accountService.UpdateProfile(request.Context(), userID, delta)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, user)
}
