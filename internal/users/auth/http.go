// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/taibuivan/vidtube/internal/media"
	"github.com/taibuivan/vidtube/internal/platform/constants"
	"github.com/taibuivan/vidtube/internal/platform/ctxutil"
	requestutil "github.com/taibuivan/vidtube/internal/platform/request"
	"github.com/taibuivan/vidtube/internal/platform/respond"
	"github.com/taibuivan/vidtube/internal/platform/validate"
)

// # Definitions & Constructors

// CookieOptions controls how session cookies are written.
type CookieOptions struct {
	// Secure restricts cookies to HTTPS. Disable only for local development.
	Secure bool
}

// Handler implements the session-related HTTP endpoints.
//
// # Scope
//
// Registration, login, token refresh, logout and password change. Profile
// endpoints live in the account package under the same prefix.
type Handler struct {
	authService    *Service
	uploader       media.Uploader
	cookies        CookieOptions
	maxUploadBytes int64
}

// NewHandler constructs a new [Handler].
func NewHandler(service *Service, uploader media.Uploader, cookies CookieOptions, maxUploadBytes int64) *Handler {
	return &Handler{
		authService:    service,
		uploader:       uploader,
		cookies:        cookies,
		maxUploadBytes: maxUploadBytes,
	}
}

// RegisterRoutes attaches the session endpoints to router.
//
// # Endpoints
//   - POST /register        : Multipart account creation.
//   - POST /login           : Issues tokens and session cookies.
//   - POST /refresh-token   : Rotates the refresh token.
//   - POST /logout          : Ends the session (authenticated).
//   - POST /change-password : Replaces the password (authenticated).
func (handler *Handler) RegisterRoutes(router chi.Router, requireUser func(http.Handler) http.Handler) {
	router.Post("/register", handler.register)
	router.Post("/login", handler.login)
	router.Post("/refresh-token", handler.refresh)

	router.Group(func(r chi.Router) {
		r.Use(requireUser)
		r.Post("/logout", handler.logout)
		r.Post("/change-password", handler.changePassword)
	})
}

// # Request Payloads

type loginRequest struct {
	Email    string `json:"email"`
	Username string `json:"username"`
	Password string `json:"password"`
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type changePasswordRequest struct {
	OldPassword string `json:"oldPassword"`
	NewPassword string `json:"newPassword"`
}

/*
Register handles the creation of a new user account.

POST /api/v1/users/register

Description: Uploads the avatar (required) and cover image (optional), then
persists the account. Uploaded objects are removed again if registration fails.

Request:
  - Body: multipart/form-data (fullname, username, email, password, avatar, coverImage?)

Response:
  - 201: User: Created user profile
  - 400: ValidationError: Missing field, missing avatar or bad image
  - 409: Conflict: Username or Email already exists
*/
func (handler *Handler) register(writer http.ResponseWriter, request *http.Request) {
	// Two images plus the text fields.
	limit := 2*handler.maxUploadBytes + constants.MultipartMemory
	if err := requestutil.ParseMultipart(writer, request, limit, constants.MultipartMemory); err != nil {
		respond.Error(writer, request, err)
		return
	}

	input := RegisterInput{
		FullName: request.FormValue(FieldFullName),
		Username: request.FormValue(FieldUsername),
		Email:    request.FormValue(FieldEmail),
		Password: request.FormValue(FieldPassword),
	}

	avatarHeader := requestutil.FileHeader(request, FieldAvatar)
	coverHeader := requestutil.FileHeader(request, FieldCoverImage)

	// Reject obviously incomplete forms before anything is uploaded.
	validator := &validate.Validator{}
	validator.Required(FieldFullName, input.FullName).
		Required(FieldUsername, input.Username).
		Required(FieldEmail, input.Email).
		Required(FieldPassword, input.Password).
		Custom(FieldAvatar, avatarHeader == nil, "Avatar file is required")
	if err := validator.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	uploaded := make([]string, 0, 2)

	var err error
	input.AvatarURL, err = media.UploadFileHeader(request.Context(), handler.uploader, avatarHeader, constants.MediaPrefixAvatar)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	uploaded = append(uploaded, input.AvatarURL)

	if coverHeader != nil {
		input.CoverImageURL, err = media.UploadFileHeader(request.Context(), handler.uploader, coverHeader, constants.MediaPrefixCover)
		if err != nil {
			handler.discardUploads(request.Context(), uploaded)
			respond.Error(writer, request, err)
			return
		}
		uploaded = append(uploaded, input.CoverImageURL)
	}

	user, err := handler.authService.Register(request.Context(), input)
	if err != nil {
		handler.discardUploads(request.Context(), uploaded)
		respond.Error(writer, request, err)
		return
	}

	respond.Created(writer, user)
}

// discardUploads removes orphaned objects. Failures are only logged.
func (handler *Handler) discardUploads(ctx context.Context, urls []string) {
	for _, url := range urls {
		if err := handler.uploader.Delete(context.WithoutCancel(ctx), url); err != nil {
			ctxutil.GetLogger(ctx).WarnContext(ctx, "media_cleanup_failed",
				slog.String("url", url),
				slog.Any("error", err),
			)
		}
	}
}

/*
Login authenticates a user and establishes a session.

POST /api/v1/users/login

Request:
  - Body: loginRequest (Email or Username, Password)

Response:
  - 200: Session: User profile, access token and refresh token (also set as cookies)
  - 400: ValidationError: Neither email nor username supplied
  - 401: Unauthorized: Wrong password
  - 404: NotFound: No such user
*/
func (handler *Handler) login(writer http.ResponseWriter, request *http.Request) {
	var input loginRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	session, err := handler.authService.Login(request.Context(), LoginInput(input))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	handler.setSessionCookies(writer, &session.TokenPair)
	respond.OK(writer, session)
}

/*
Refresh issues a new token pair using a valid refresh token.

POST /api/v1/users/refresh-token

Description: Reads the refresh token from the refreshToken cookie or, failing
that, from the JSON body. A rotated-out token is rejected.

Response:
  - 200: TokenPair: New access and refresh tokens (also set as cookies)
  - 401: Unauthorized: Missing, invalid, expired or reused refresh token
*/
func (handler *Handler) refresh(writer http.ResponseWriter, request *http.Request) {
	token := requestutil.Cookie(request, constants.RefreshTokenCookieName)
	if token == "" {
		var input refreshRequest
		if err := requestutil.DecodeOptionalJSON(request, &input); err != nil {
			respond.Error(writer, request, err)
			return
		}
		token = input.RefreshToken
	}

	tokens, err := handler.authService.RefreshSession(request.Context(), token)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	handler.setSessionCookies(writer, tokens)
	respond.OK(writer, tokens)
}

/*
Logout terminates the current user session.

POST /api/v1/users/logout

Response:
  - 200: Message: Session terminated and cookies cleared
*/
func (handler *Handler) logout(writer http.ResponseWriter, request *http.Request) {
	user, err := RequiredUser(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := handler.authService.Logout(request.Context(), user.ID); err != nil {
		respond.Error(writer, request, err)
		return
	}

	handler.clearSessionCookies(writer)
	respond.Message(writer, "User logged out")
}

/*
ChangePassword replaces the authenticated user's password.

POST /api/v1/users/change-password

Response:
  - 200: Message: Password changed
  - 400: ValidationError: Empty new password
  - 401: Unauthorized: Wrong old password
*/
func (handler *Handler) changePassword(writer http.ResponseWriter, request *http.Request) {
	user, err := RequiredUser(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var input changePasswordRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	err = handler.authService.ChangePassword(request.Context(), ChangePasswordInput{
		UserID:      user.ID,
		OldPassword: input.OldPassword,
		NewPassword: input.NewPassword,
	})
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Message(writer, "Password changed successfully")
}

// # Cookies

func (handler *Handler) setSessionCookies(writer http.ResponseWriter, tokens *TokenPair) {
	http.SetCookie(writer, handler.cookie(constants.AccessTokenCookieName, tokens.AccessToken, tokens.AccessTokenExpiresAt))
	http.SetCookie(writer, handler.cookie(constants.RefreshTokenCookieName, tokens.RefreshToken, tokens.RefreshTokenExpiresAt))
}

func (handler *Handler) clearSessionCookies(writer http.ResponseWriter) {
	for _, name := range []string{constants.AccessTokenCookieName, constants.RefreshTokenCookieName} {
		cookie := handler.cookie(name, "", time.Unix(0, 0))
		cookie.MaxAge = -1
		http.SetCookie(writer, cookie)
	}
}

func (handler *Handler) cookie(name, value string, expires time.Time) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     constants.SessionCookiePath,
		Expires:  expires,
		Secure:   handler.cookies.Secure,
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
	}
}
