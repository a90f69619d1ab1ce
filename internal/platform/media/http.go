// Copyright (c) 2026 Pulse. All rights reserved.
// Author: dev@pulse.app

package media

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/pulseapp/pulse/internal/platform/middleware"
	requestutil "github.com/pulseapp/pulse/internal/platform/request"
	"github.com/pulseapp/pulse/internal/platform/respond"
	"github.com/pulseapp/pulse/internal/platform/validate"
)

// Handler exposes presigned upload and download URLs over HTTP.
type Handler struct {
	storage *Storage
}

// NewHandler constructs a new media [Handler].
func NewHandler(storage *Storage) *Handler {
	return &Handler{storage: storage}
}

// Routes returns a [chi.Router] with the media endpoints.
func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()
	router.Use(middleware.RequireAuth)

	router.Post("/uploads", handler.presignUpload)
	router.Get("/downloads/*", handler.presignDownload)

	return router
}

type presignUploadRequest struct {
	ContentType string `json:"content_type"`
}

type presignDownloadResponse struct {
	URL string `json:"url"`
}

/*
POST /api/v1/media/uploads.

Description: Issues a short-lived presigned PUT URL. The client uploads the
object directly to storage and then references the returned key.

Request:
  - Body: presignUploadRequest (ContentType, image/* only)

Response:
  - 200: Upload: Object key and presigned URL
  - 400: Validation: Unsupported content type
*/
func (handler *Handler) presignUpload(writer http.ResponseWriter, request *http.Request) {
	userID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var input presignUploadRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	v := &validate.Validator{}
	v.Required("content_type", input.ContentType).
		Custom("content_type", input.ContentType != "" && !strings.HasPrefix(input.ContentType, "image/"),
			"only image uploads are supported")
	if err := v.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	upload, err := handler.storage.PresignUpload(request.Context(), userID, input.ContentType)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, upload)
}

/*
GET /api/v1/media/downloads/{key}.

Description: Issues a short-lived presigned GET URL for a stored object.

Response:
  - 200: presignDownloadResponse
  - 400: Validation: Missing object key
*/
func (handler *Handler) presignDownload(writer http.ResponseWriter, request *http.Request) {
	key := chi.URLParam(request, "*")
	if key == "" {
		respond.Error(writer, request, validate.RequiredError("key", "object key is required"))
		return
	}

	url, err := handler.storage.PresignDownload(request.Context(), key)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, presignDownloadResponse{URL: url})
}
