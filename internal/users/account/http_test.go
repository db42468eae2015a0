// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package account_test

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/vidtube/internal/platform/apperr"
	"github.com/taibuivan/vidtube/internal/users/account"
	"github.com/taibuivan/vidtube/internal/users/auth"
)

// tokenAuthenticator maps fixed bearer tokens to users.
type tokenAuthenticator map[string]*auth.User

func (authenticator tokenAuthenticator) Authenticate(_ context.Context, token string) (*auth.User, error) {
	if user, ok := authenticator[token]; ok {
		return user, nil
	}
	return nil, apperr.Unauthorized("Invalid access token")
}

type accountFixture struct {
	store    *memoryStore
	uploader *memoryUploader
	router   chi.Router
}

func newAccountFixture(t *testing.T) *accountFixture {
	t.Helper()

	ada := newUser("u1", "ada")
	grace := newUser("u2", "grace")
	store := newMemoryStore(ada, grace)
	uploader := newMemoryUploader()

	service := newService(store, newMemoryCache(), uploader)
	handler := account.NewHandler(service, uploader, 1<<20)

	router := chi.NewRouter()
	handler.RegisterRoutes(router, auth.RequireUser(tokenAuthenticator{"ada-token": ada, "grace-token": grace}))

	return &accountFixture{store: store, uploader: uploader, router: router}
}

func (f *accountFixture) do(request *http.Request, token string) *httptest.ResponseRecorder {
	if token != "" {
		request.Header.Set("Authorization", "Bearer "+token)
	}
	recorder := httptest.NewRecorder()
	f.router.ServeHTTP(recorder, request)
	return recorder
}

func decodeData(t *testing.T, recorder *httptest.ResponseRecorder, target any) {
	t.Helper()
	envelope := struct {
		Data json.RawMessage `json:"data"`
	}{}
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &envelope))
	require.NoError(t, json.Unmarshal(envelope.Data, target))
}

func imageForm(t *testing.T, method, target, field string, body []byte) *http.Request {
	t.Helper()

	buffer := &bytes.Buffer{}
	form := multipart.NewWriter(buffer)
	if body != nil {
		part, err := form.CreateFormFile(field, "image.png")
		require.NoError(t, err)
		_, err = part.Write(body)
		require.NoError(t, err)
	}
	require.NoError(t, form.Close())

	request := httptest.NewRequest(method, target, buffer)
	request.Header.Set("Content-Type", form.FormDataContentType())
	return request
}

var pngBytes = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

func TestHTTP_RequiresAuthentication(t *testing.T) {
	f := newAccountFixture(t)

	for _, path := range []string{"/current-user", "/history", "/c/ada"} {
		recorder := f.do(httptest.NewRequest(http.MethodGet, path, nil), "")
		assert.Equal(t, http.StatusUnauthorized, recorder.Code, path)
	}
}

func TestHTTP_CurrentUser(t *testing.T) {
	f := newAccountFixture(t)

	recorder := f.do(httptest.NewRequest(http.MethodGet, "/current-user", nil), "ada-token")
	require.Equal(t, http.StatusOK, recorder.Code)

	var user map[string]any
	decodeData(t, recorder, &user)
	assert.Equal(t, "ada", user["username"])
	assert.NotContains(t, user, "passwordHash")
}

func TestHTTP_UpdateAccount(t *testing.T) {
	f := newAccountFixture(t)

	request := httptest.NewRequest(http.MethodPatch, "/update-account", strings.NewReader(`{"fullname":"Augusta Ada King"}`))
	recorder := f.do(request, "ada-token")
	require.Equal(t, http.StatusOK, recorder.Code, recorder.Body.String())

	var user auth.User
	decodeData(t, recorder, &user)
	assert.Equal(t, "Augusta Ada King", user.FullName)

	request = httptest.NewRequest(http.MethodPatch, "/update-account", strings.NewReader(`{"fullname":""}`))
	assert.Equal(t, http.StatusBadRequest, f.do(request, "ada-token").Code)
}

func TestHTTP_UpdateAvatar(t *testing.T) {
	f := newAccountFixture(t)

	recorder := f.do(imageForm(t, http.MethodPatch, "/avatar", auth.FieldAvatar, pngBytes), "ada-token")
	require.Equal(t, http.StatusOK, recorder.Code, recorder.Body.String())

	var user auth.User
	decodeData(t, recorder, &user)
	assert.True(t, strings.HasPrefix(user.AvatarURL, "https://media.test/avatars/"))
	assert.Equal(t, []string{"https://media.test/avatars/ada"}, f.uploader.deletedURLs())
}

func TestHTTP_UpdateCoverImage_MissingFile(t *testing.T) {
	f := newAccountFixture(t)

	recorder := f.do(imageForm(t, http.MethodPatch, "/cover-image", auth.FieldCoverImage, nil), "ada-token")
	assert.Equal(t, http.StatusBadRequest, recorder.Code)
}

func TestHTTP_ChannelProfile(t *testing.T) {
	f := newAccountFixture(t)
	f.store.subscribe("u2", "u1")

	recorder := f.do(httptest.NewRequest(http.MethodGet, "/c/ada", nil), "grace-token")
	require.Equal(t, http.StatusOK, recorder.Code, recorder.Body.String())

	var profile account.ChannelProfile
	decodeData(t, recorder, &profile)
	assert.Equal(t, "ada", profile.Username)
	assert.Equal(t, int64(1), profile.SubscribersCount)
	assert.True(t, profile.IsSubscribed)

	recorder = f.do(httptest.NewRequest(http.MethodGet, "/c/nobody", nil), "grace-token")
	assert.Equal(t, http.StatusNotFound, recorder.Code)
}

func TestHTTP_WatchHistory(t *testing.T) {
	f := newAccountFixture(t)
	f.store.watch("u1", account.WatchedVideo{ID: "v1", Title: "Notes", Owner: account.VideoOwner{Username: "grace"}})

	recorder := f.do(httptest.NewRequest(http.MethodGet, "/history", nil), "ada-token")
	require.Equal(t, http.StatusOK, recorder.Code)

	var videos []account.WatchedVideo
	decodeData(t, recorder, &videos)
	require.Len(t, videos, 1)
	assert.Equal(t, "grace", videos[0].Owner.Username)
}
