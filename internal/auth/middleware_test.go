// Copyright (c) 2026 Passage. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/passage/internal/platform/constants"
	"github.com/taibuivan/passage/internal/platform/ctxutil"
	"github.com/taibuivan/passage/internal/platform/sec"
)

// identityProbe records what identity (if any) reached the next handler.
type identityProbe struct {
	called   bool
	identity *sec.Identity
}

func (probe *identityProbe) handler() http.Handler {
	return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		probe.called = true
		probe.identity = ctxutil.GetIdentity(request.Context())
		writer.WriteHeader(http.StatusOK)
	})
}

// findCookie returns the first Set-Cookie with the given name, or nil.
func findCookie(t *testing.T, recorder *httptest.ResponseRecorder, name string) *http.Cookie {
	t.Helper()
	for _, cookie := range recorder.Result().Cookies() {
		if cookie.Name == name {
			return cookie
		}
	}
	return nil
}

/*
TestAuthenticate_Anonymous verifies that a request without a session cookie
passes through untouched, with no identity attached.
*/
func TestAuthenticate_Anonymous(t *testing.T) {
	store := newFakeSessionStore()
	service := testService(store, time.Now())

	probe := &identityProbe{}
	handler := Authenticate(service)(probe.handler())

	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.True(t, probe.called)
	assert.Nil(t, probe.identity)
	assert.Equal(t, http.StatusOK, recorder.Code)
}

/*
TestAuthenticate_ValidSession verifies that a valid session cookie populates
the request identity and refreshes the cookie lifetime.
*/
func TestAuthenticate_ValidSession(t *testing.T) {
	now := time.Now()
	store := newFakeSessionStore()
	seedUser(store, "user-1")
	service := testService(store, now)

	_, token, err := service.CreateSession(context.Background(), "user-1")
	require.NoError(t, err)

	probe := &identityProbe{}
	handler := Authenticate(service)(probe.handler())

	request := httptest.NewRequest(http.MethodGet, "/", nil)
	request.AddCookie(&http.Cookie{Name: constants.SessionCookieName, Value: token})

	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, request)

	require.True(t, probe.called)
	require.NotNil(t, probe.identity)
	assert.Equal(t, "user-1", probe.identity.UserID)
	assert.Equal(t, sec.DeriveSessionID(token), probe.identity.SessionID)

	// Cookie refreshed with the remaining lifetime
	cookie := findCookie(t, recorder, constants.SessionCookieName)
	require.NotNil(t, cookie)
	assert.Equal(t, token, cookie.Value)
	assert.Positive(t, cookie.MaxAge)
	assert.True(t, cookie.HttpOnly)
	assert.True(t, cookie.Secure)
	assert.Equal(t, http.SameSiteLaxMode, cookie.SameSite)
}

/*
TestAuthenticate_StaleCookie verifies that an unknown token leaves the request
anonymous and instructs the browser to drop the dead cookie.
*/
func TestAuthenticate_StaleCookie(t *testing.T) {
	store := newFakeSessionStore()
	service := testService(store, time.Now())

	probe := &identityProbe{}
	handler := Authenticate(service)(probe.handler())

	request := httptest.NewRequest(http.MethodGet, "/", nil)
	request.AddCookie(&http.Cookie{Name: constants.SessionCookieName, Value: "deaddeaddeaddeaddeaddeaddeaddead"})

	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, request)

	assert.True(t, probe.called)
	assert.Nil(t, probe.identity)

	// Max-Age=0 tells the browser to delete immediately
	cookie := findCookie(t, recorder, constants.SessionCookieName)
	require.NotNil(t, cookie)
	assert.Negative(t, cookie.MaxAge)
}

/*
TestAuthenticate_StorageError verifies that a storage failure halts the
request with a server error instead of degrading to anonymous. Treating an
outage as "not signed in" would mass-logout every user behind it.
*/
func TestAuthenticate_StorageError(t *testing.T) {
	store := newFakeSessionStore()
	store.findErr = errors.New("connection refused")
	service := testService(store, time.Now())

	probe := &identityProbe{}
	handler := Authenticate(service)(probe.handler())

	request := httptest.NewRequest(http.MethodGet, "/", nil)
	request.AddCookie(&http.Cookie{Name: constants.SessionCookieName, Value: "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"})

	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, request)

	assert.False(t, probe.called)
	assert.Equal(t, http.StatusInternalServerError, recorder.Code)
}

/*
TestRequireSession verifies the route gate: anonymous requests bounce to the
signin page, authenticated ones pass.
*/
func TestRequireSession(t *testing.T) {
	signinURL := "https://ui.passage.dev/signin"

	t.Run("anonymous_redirects", func(t *testing.T) {
		probe := &identityProbe{}
		handler := RequireSession(signinURL)(probe.handler())

		recorder := httptest.NewRecorder()
		handler.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/", nil))

		assert.False(t, probe.called)
		assert.Equal(t, http.StatusFound, recorder.Code)
		assert.Equal(t, signinURL, recorder.Header().Get("Location"))
	})

	t.Run("authenticated_passes", func(t *testing.T) {
		probe := &identityProbe{}
		handler := RequireSession(signinURL)(probe.handler())

		request := httptest.NewRequest(http.MethodGet, "/", nil)
		ctx := ctxutil.WithIdentity(request.Context(), &sec.Identity{UserID: "user-1"})

		recorder := httptest.NewRecorder()
		handler.ServeHTTP(recorder, request.WithContext(ctx))

		assert.True(t, probe.called)
		assert.Equal(t, http.StatusOK, recorder.Code)
	})
}
