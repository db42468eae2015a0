// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package account provides the HTTP delivery layer for profile management.

# Security

Every endpoint here runs behind the auth.RequireUser middleware.
*/
package account

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/taibuivan/vidtube/internal/media"
	"github.com/taibuivan/vidtube/internal/platform/constants"
	"github.com/taibuivan/vidtube/internal/platform/ctxutil"
	requestutil "github.com/taibuivan/vidtube/internal/platform/request"
	"github.com/taibuivan/vidtube/internal/platform/respond"
	"github.com/taibuivan/vidtube/internal/platform/validate"
	"github.com/taibuivan/vidtube/internal/users/auth"
)

// Handler implements the HTTP layer for profile management.
type Handler struct {
	accountService *Service
	uploader       media.Uploader
	maxUploadBytes int64
}

// NewHandler constructs a new account [Handler].
func NewHandler(service *Service, uploader media.Uploader, maxUploadBytes int64) *Handler {
	return &Handler{
		accountService: service,
		uploader:       uploader,
		maxUploadBytes: maxUploadBytes,
	}
}

// RegisterRoutes attaches the profile endpoints to router, all behind requireUser.
func (handler *Handler) RegisterRoutes(router chi.Router, requireUser func(http.Handler) http.Handler) {
	router.Group(func(r chi.Router) {
		r.Use(requireUser)

		// Own account
		r.Get("/current-user", handler.getCurrentUser)
		r.Patch("/update-account", handler.updateAccount)
		r.Patch("/avatar", handler.updateAvatar)
		r.Patch("/cover-image", handler.updateCoverImage)

		// Channel and history
		r.Get("/c/{username}", handler.getChannelProfile)
		r.Get("/history", handler.getWatchHistory)
	})
}

// # Own Account Endpoints

/*
GET /api/v1/users/current-user.

Response:
  - 200: User: Profile of the authenticated user
  - 401: Unauthorized: Authentication required
*/
func (handler *Handler) getCurrentUser(writer http.ResponseWriter, request *http.Request) {
	userID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	user, err := handler.accountService.GetCurrentUser(request.Context(), userID)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, user)
}

type updateAccountRequest struct {
	FullName string `json:"fullname"`
}

/*
PATCH /api/v1/users/update-account.

Request:
  - body: updateAccountRequest

Response:
  - 200: User: The updated profile
  - 400: ValidationError: Empty fullname
*/
func (handler *Handler) updateAccount(writer http.ResponseWriter, request *http.Request) {
	userID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var input updateAccountRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	user, err := handler.accountService.UpdateAccountDetails(request.Context(), userID, input.FullName)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, user)
}

/*
PATCH /api/v1/users/avatar.

Request:
  - body: multipart/form-data (avatar)

Response:
  - 200: User: The updated profile
  - 400: ValidationError: Missing or non-image file
*/
func (handler *Handler) updateAvatar(writer http.ResponseWriter, request *http.Request) {
	handler.replaceImage(writer, request, auth.FieldAvatar, constants.MediaPrefixAvatar, handler.accountService.UpdateAvatar)
}

/*
PATCH /api/v1/users/cover-image.

Request:
  - body: multipart/form-data (coverImage)

Response:
  - 200: User: The updated profile
  - 400: ValidationError: Missing or non-image file
*/
func (handler *Handler) updateCoverImage(writer http.ResponseWriter, request *http.Request) {
	handler.replaceImage(writer, request, auth.FieldCoverImage, constants.MediaPrefixCover, handler.accountService.UpdateCoverImage)
}

func (handler *Handler) replaceImage(
	writer http.ResponseWriter,
	request *http.Request,
	field, prefix string,
	apply func(context.Context, string, string) (*auth.User, error),
) {
	userID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := requestutil.ParseMultipart(writer, request, handler.maxUploadBytes+constants.MultipartMemory, constants.MultipartMemory); err != nil {
		respond.Error(writer, request, err)
		return
	}

	header := requestutil.FileHeader(request, field)
	if header == nil {
		respond.Error(writer, request, validate.RequiredError(field, "File is missing"))
		return
	}

	url, err := media.UploadFileHeader(request.Context(), handler.uploader, header, prefix)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	user, err := apply(request.Context(), userID, url)
	if err != nil {
		// The new object is orphaned if the row could not be updated.
		if deleteErr := handler.uploader.Delete(context.WithoutCancel(request.Context()), url); deleteErr != nil {
			ctxutil.GetLogger(request.Context()).WarnContext(request.Context(), "media_cleanup_failed",
				slog.String("url", url),
				slog.Any("error", deleteErr),
			)
		}
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, user)
}

// # Channel & History Endpoints

/*
GET /api/v1/users/c/{username}.

Response:
  - 200: ChannelProfile: Channel page with subscription counts
  - 404: NotFound: Channel does not exist
*/
func (handler *Handler) getChannelProfile(writer http.ResponseWriter, request *http.Request) {
	viewerID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	profile, err := handler.accountService.GetChannelProfile(request.Context(), viewerID, requestutil.Param(request, "username"))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, profile)
}

/*
GET /api/v1/users/history.

Response:
  - 200: []WatchedVideo: Newest first
*/
func (handler *Handler) getWatchHistory(writer http.ResponseWriter, request *http.Request) {
	userID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	videos, err := handler.accountService.GetWatchHistory(request.Context(), userID)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, videos)
}
