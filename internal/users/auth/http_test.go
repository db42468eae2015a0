// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth_test

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/vidtube/internal/platform/constants"
	"github.com/taibuivan/vidtube/internal/users/auth"
)

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

type httpFixture struct {
	*fixture
	uploader *memoryUploader
	router   chi.Router
}

func newHTTPFixture(t *testing.T) *httpFixture {
	f := newFixture(t)
	uploader := newMemoryUploader()

	handler := auth.NewHandler(f.service, uploader, auth.CookieOptions{Secure: true}, 1<<20)
	router := chi.NewRouter()
	handler.RegisterRoutes(router, auth.RequireUser(f.service))

	return &httpFixture{fixture: f, uploader: uploader, router: router}
}

func (f *httpFixture) do(request *http.Request) *httptest.ResponseRecorder {
	recorder := httptest.NewRecorder()
	f.router.ServeHTTP(recorder, request)
	return recorder
}

func registerForm(t *testing.T, fields map[string]string, withAvatar bool) *http.Request {
	t.Helper()

	body := &bytes.Buffer{}
	form := multipart.NewWriter(body)
	for name, value := range fields {
		require.NoError(t, form.WriteField(name, value))
	}
	if withAvatar {
		part, err := form.CreateFormFile(auth.FieldAvatar, "avatar.png")
		require.NoError(t, err)
		_, err = part.Write(pngHeader)
		require.NoError(t, err)
	}
	require.NoError(t, form.Close())

	request := httptest.NewRequest(http.MethodPost, "/register", body)
	request.Header.Set("Content-Type", form.FormDataContentType())
	return request
}

func adaFields() map[string]string {
	return map[string]string{
		auth.FieldFullName: "Ada Lovelace",
		auth.FieldUsername: "ada",
		auth.FieldEmail:    "ada@example.com",
		auth.FieldPassword: "analytical-engine",
	}
}

func jsonRequest(method, target, body string) *http.Request {
	request := httptest.NewRequest(method, target, strings.NewReader(body))
	request.Header.Set("Content-Type", "application/json")
	return request
}

func decodeData(t *testing.T, recorder *httptest.ResponseRecorder, target any) {
	t.Helper()
	envelope := struct {
		Data json.RawMessage `json:"data"`
	}{}
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &envelope))
	require.NoError(t, json.Unmarshal(envelope.Data, target))
}

func cookieNamed(recorder *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, cookie := range recorder.Result().Cookies() {
		if cookie.Name == name {
			return cookie
		}
	}
	return nil
}

// # Register

func TestHTTP_Register(t *testing.T) {
	f := newHTTPFixture(t)

	recorder := f.do(registerForm(t, adaFields(), true))
	require.Equal(t, http.StatusCreated, recorder.Code, recorder.Body.String())

	var user map[string]any
	decodeData(t, recorder, &user)
	assert.Equal(t, "ada", user["username"])
	assert.NotContains(t, user, "password")
	assert.NotContains(t, user, "passwordHash")
	assert.NotContains(t, user, "refreshToken")

	require.Len(t, f.uploader.urls(), 1)
	assert.Equal(t, f.uploader.urls()[0], user["avatarUrl"])
}

func TestHTTP_Register_MissingAvatar(t *testing.T) {
	f := newHTTPFixture(t)

	recorder := f.do(registerForm(t, adaFields(), false))
	assert.Equal(t, http.StatusBadRequest, recorder.Code)
	assert.Empty(t, f.uploader.urls())
}

func TestHTTP_Register_ConflictDiscardsUploads(t *testing.T) {
	f := newHTTPFixture(t)
	require.Equal(t, http.StatusCreated, f.do(registerForm(t, adaFields(), true)).Code)

	recorder := f.do(registerForm(t, adaFields(), true))
	assert.Equal(t, http.StatusConflict, recorder.Code)
	assert.Len(t, f.uploader.urls(), 1)
}

func TestHTTP_Register_NotMultipart(t *testing.T) {
	f := newHTTPFixture(t)

	recorder := f.do(jsonRequest(http.MethodPost, "/register", `{"username":"ada"}`))
	assert.Equal(t, http.StatusBadRequest, recorder.Code)
}

// # Login, refresh and logout

func TestHTTP_LoginSetsSessionCookies(t *testing.T) {
	f := newHTTPFixture(t)
	f.register(t, "ada")

	recorder := f.do(jsonRequest(http.MethodPost, "/login", `{"username":"ada","password":"analytical-engine"}`))
	require.Equal(t, http.StatusOK, recorder.Code, recorder.Body.String())

	var session auth.Session
	decodeData(t, recorder, &session)
	require.NotNil(t, session.User)
	assert.Equal(t, "ada", session.User.Username)
	assert.NotEmpty(t, session.AccessToken)

	for _, name := range []string{constants.AccessTokenCookieName, constants.RefreshTokenCookieName} {
		cookie := cookieNamed(recorder, name)
		require.NotNil(t, cookie, name)
		assert.True(t, cookie.HttpOnly)
		assert.True(t, cookie.Secure)
		assert.Equal(t, http.SameSiteStrictMode, cookie.SameSite)
	}
	assert.Equal(t, session.RefreshToken, cookieNamed(recorder, constants.RefreshTokenCookieName).Value)
}

func TestHTTP_LoginWrongPassword(t *testing.T) {
	f := newHTTPFixture(t)
	f.register(t, "ada")

	recorder := f.do(jsonRequest(http.MethodPost, "/login", `{"email":"ada@example.com","password":"nope"}`))
	assert.Equal(t, http.StatusUnauthorized, recorder.Code)
	assert.Nil(t, cookieNamed(recorder, constants.AccessTokenCookieName))
}

func TestHTTP_RefreshFromCookieAndBody(t *testing.T) {
	f := newHTTPFixture(t)
	f.register(t, "ada")
	session := f.login(t, "ada")

	request := httptest.NewRequest(http.MethodPost, "/refresh-token", nil)
	request.AddCookie(&http.Cookie{Name: constants.RefreshTokenCookieName, Value: session.RefreshToken})
	recorder := f.do(request)
	require.Equal(t, http.StatusOK, recorder.Code, recorder.Body.String())

	var rotated auth.TokenPair
	decodeData(t, recorder, &rotated)
	assert.NotEqual(t, session.RefreshToken, rotated.RefreshToken)

	recorder = f.do(jsonRequest(http.MethodPost, "/refresh-token", `{"refreshToken":"`+rotated.RefreshToken+`"}`))
	require.Equal(t, http.StatusOK, recorder.Code, recorder.Body.String())

	// Replaying the first token is rejected.
	recorder = f.do(jsonRequest(http.MethodPost, "/refresh-token", `{"refreshToken":"`+session.RefreshToken+`"}`))
	assert.Equal(t, http.StatusUnauthorized, recorder.Code)
}

func TestHTTP_RefreshWithoutToken(t *testing.T) {
	f := newHTTPFixture(t)

	recorder := f.do(httptest.NewRequest(http.MethodPost, "/refresh-token", nil))
	assert.Equal(t, http.StatusUnauthorized, recorder.Code)
}

func TestHTTP_LogoutRequiresAuthentication(t *testing.T) {
	f := newHTTPFixture(t)

	recorder := f.do(httptest.NewRequest(http.MethodPost, "/logout", nil))
	assert.Equal(t, http.StatusUnauthorized, recorder.Code)
}

func TestHTTP_LogoutClearsSession(t *testing.T) {
	f := newHTTPFixture(t)
	user := f.register(t, "ada")
	session := f.login(t, "ada")

	request := httptest.NewRequest(http.MethodPost, "/logout", nil)
	request.Header.Set("Authorization", "Bearer "+session.AccessToken)
	recorder := f.do(request)
	require.Equal(t, http.StatusOK, recorder.Code, recorder.Body.String())

	cleared := cookieNamed(recorder, constants.RefreshTokenCookieName)
	require.NotNil(t, cleared)
	assert.Empty(t, cleared.Value)
	assert.Negative(t, cleared.MaxAge)

	assert.Empty(t, f.repository.stored(t, user.ID).RefreshTokenHash)
}

// # Change password

func TestHTTP_ChangePassword(t *testing.T) {
	f := newHTTPFixture(t)
	f.register(t, "ada")
	session := f.login(t, "ada")

	send := func(body string) *httptest.ResponseRecorder {
		request := jsonRequest(http.MethodPost, "/change-password", body)
		request.AddCookie(&http.Cookie{Name: constants.AccessTokenCookieName, Value: session.AccessToken})
		return f.do(request)
	}

	assert.Equal(t, http.StatusUnauthorized, send(`{"oldPassword":"wrong","newPassword":"p2"}`).Code)
	assert.Equal(t, http.StatusBadRequest, send(`{"oldPassword":"analytical-engine"}`).Code)
	assert.Equal(t, http.StatusOK, send(`{"oldPassword":"analytical-engine","newPassword":"p2"}`).Code)

	recorder := f.do(jsonRequest(http.MethodPost, "/login", `{"username":"ada","password":"p2"}`))
	assert.Equal(t, http.StatusOK, recorder.Code)
}
