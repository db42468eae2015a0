// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/taibuivan/vidtube/internal/platform/apperr"
	"github.com/taibuivan/vidtube/internal/platform/constants"
	"github.com/taibuivan/vidtube/internal/platform/ctxkey"
	"github.com/taibuivan/vidtube/internal/platform/ctxutil"
	requestutil "github.com/taibuivan/vidtube/internal/platform/request"
	"github.com/taibuivan/vidtube/internal/platform/respond"
)

// Authenticator resolves an access token to a live user. [*Service]
// satisfies it.
type Authenticator interface {
	Authenticate(context context.Context, accessToken string) (*User, error)
}

// RequireUser blocks requests that do not carry a valid access token.
//
// # Flow
//  1. Read the token from the accessToken cookie, else the Authorization header.
//  2. Resolve it via [Authenticator]; reject with 401 on any failure.
//  3. Inject the sanitized [*User], its ID and a user-scoped logger into the context.
func RequireUser(authenticator Authenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			token := requestutil.Cookie(request, constants.AccessTokenCookieName)
			if token == "" {
				token = requestutil.BearerToken(request)
			}

			user, err := authenticator.Authenticate(request.Context(), token)
			if err != nil {
				respond.Error(writer, request, err)
				return
			}

			ctx := WithUser(request.Context(), user)
			ctx = ctxutil.WithLogger(ctx, ctxutil.GetLogger(ctx).With(slog.String("user_id", user.ID)))

			next.ServeHTTP(writer, request.WithContext(ctx))
		})
	}
}

// WithUser stores the authenticated user in ctx.
func WithUser(ctx context.Context, user *User) context.Context {
	ctx = context.WithValue(ctx, ctxkey.KeyUser, user)
	return ctxutil.WithUserID(ctx, user.ID)
}

// UserFromContext returns the authenticated user, or nil for anonymous requests.
func UserFromContext(ctx context.Context) *User {
	user, _ := ctx.Value(ctxkey.KeyUser).(*User)
	return user
}

// RequiredUser returns the authenticated user or an Unauthorized error.
func RequiredUser(request *http.Request) (*User, error) {
	user := UserFromContext(request.Context())
	if user == nil {
		return nil, apperr.Unauthorized("Authentication required")
	}
	return user, nil
}
