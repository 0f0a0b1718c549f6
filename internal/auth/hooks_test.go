// Copyright (c) 2026 Passage. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/passage/internal/oauth"
	"github.com/taibuivan/passage/internal/platform/constants"
)

// fakeUserStore is an in-memory [UserStore] keyed on the provider identity.
type fakeUserStore struct {
	byIdentity map[string]*User
	upsertErr  error
	serial     int
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{byIdentity: make(map[string]*User)}
}

func (store *fakeUserStore) FindByID(_ context.Context, id string) (*User, error) {
	for _, user := range store.byIdentity {
		if user.ID == id {
			return user, nil
		}
	}
	return nil, nil
}

func (store *fakeUserStore) Upsert(_ context.Context, user *User) (*User, error) {
	if store.upsertErr != nil {
		return nil, store.upsertErr
	}

	key := user.Provider + "/" + user.OAuthUserID
	if existing, found := store.byIdentity[key]; found {
		existing.Name = user.Name
		existing.Email = user.Email
		existing.AvatarURL = user.AvatarURL
		return existing, nil
	}

	store.serial++
	saved := *user
	saved.ID = "user-" + strconv.Itoa(store.serial)
	store.byIdentity[key] = &saved
	return &saved, nil
}

/*
TestLoginHooks_ProvisionsUserAndSession verifies the verified-hook happy path:
the user is upserted, a session is minted, the token cookie is attached, and
the redirect targets the user's profile page.
*/
func TestLoginHooks_ProvisionsUserAndSession(t *testing.T) {
	users := newFakeUserStore()
	sessions := newFakeSessionStore()
	service := testService(sessions, time.Now())
	hooks := NewLoginHooks(users, service, testUIURL)

	recorder := httptest.NewRecorder()
	request := httptest.NewRequest(http.MethodGet, "/auth/github/callback", nil)

	redirect, err := hooks.NotifyVerified(recorder, request, "github", oauth.UserDetails{
		OAuthUserID: "583231",
		Username:    "octocat",
		Avatar:      "https://avatars.githubusercontent.com/u/583231",
	})
	require.NoError(t, err)

	// One user provisioned, redirect lands on their profile
	require.Len(t, users.byIdentity, 1)
	user := users.byIdentity["github/583231"]
	assert.Equal(t, testUIURL+"/u/"+user.ID, redirect)

	// One session row, pointed at that user
	require.Len(t, sessions.sessions, 1)
	for _, session := range sessions.sessions {
		assert.Equal(t, user.ID, session.UserID)
	}

	// The raw token went out as a cookie
	cookie := findCookie(t, recorder, constants.SessionCookieName)
	require.NotNil(t, cookie)
	assert.Len(t, cookie.Value, 32)
	assert.Positive(t, cookie.MaxAge)
}

/*
TestLoginHooks_ReturningUserKeepsID verifies that logging in twice with the
same provider identity reuses the user row while refreshing the profile.
*/
func TestLoginHooks_ReturningUserKeepsID(t *testing.T) {
	users := newFakeUserStore()
	sessions := newFakeSessionStore()
	service := testService(sessions, time.Now())
	hooks := NewLoginHooks(users, service, testUIURL)

	request := httptest.NewRequest(http.MethodGet, "/auth/github/callback", nil)

	first, err := hooks.NotifyVerified(httptest.NewRecorder(), request, "github", oauth.UserDetails{
		OAuthUserID: "583231",
		Username:    "octocat",
	})
	require.NoError(t, err)

	second, err := hooks.NotifyVerified(httptest.NewRecorder(), request, "github", oauth.UserDetails{
		OAuthUserID: "583231",
		Username:    "octocat-renamed",
	})
	require.NoError(t, err)

	// Same user, same profile URL, refreshed name
	assert.Equal(t, first, second)
	require.Len(t, users.byIdentity, 1)
	assert.Equal(t, "octocat-renamed", users.byIdentity["github/583231"].Name)

	// But a fresh session per login
	assert.Len(t, sessions.sessions, 2)
}

/*
TestLoginHooks_EmptyIdentity verifies that a provider payload without a stable
user ID is treated as a login failure: back to signin with the error flag.
*/
func TestLoginHooks_EmptyIdentity(t *testing.T) {
	users := newFakeUserStore()
	sessions := newFakeSessionStore()
	service := testService(sessions, time.Now())
	hooks := NewLoginHooks(users, service, testUIURL)

	recorder := httptest.NewRecorder()
	request := httptest.NewRequest(http.MethodGet, "/auth/github/callback", nil)

	redirect, err := hooks.NotifyVerified(recorder, request, "github", oauth.UserDetails{})
	require.NoError(t, err)

	assert.Equal(t, testUIURL+"/signin/?error=true", redirect)
	assert.Empty(t, users.byIdentity)
	assert.Empty(t, sessions.sessions)
}

/*
TestLoginHooks_StorageFailure verifies that provisioning failures redirect to
the signin error page rather than bubbling a server error mid-handshake.
*/
func TestLoginHooks_StorageFailure(t *testing.T) {
	users := newFakeUserStore()
	users.upsertErr = errors.New("connection refused")
	sessions := newFakeSessionStore()
	service := testService(sessions, time.Now())
	hooks := NewLoginHooks(users, service, testUIURL)

	recorder := httptest.NewRecorder()
	request := httptest.NewRequest(http.MethodGet, "/auth/github/callback", nil)

	redirect, err := hooks.NotifyVerified(recorder, request, "github", oauth.UserDetails{OAuthUserID: "583231"})
	require.NoError(t, err)

	assert.Equal(t, testUIURL+"/signin/?error=true", redirect)
	assert.Empty(t, sessions.sessions)
}
