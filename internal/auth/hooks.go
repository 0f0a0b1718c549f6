// Copyright (c) 2026 Passage. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/taibuivan/passage/internal/oauth"
	"github.com/taibuivan/passage/internal/platform/ctxutil"
)

// # OAuth Provisioning Hooks

// LoginHooks bridges a verified OAuth identity into a Passage login: upsert
// the user row, mint a session, hand the token to the browser.
//
// It implements [oauth.Hooks]. The orchestrator stays ignorant of users and
// sessions; everything Passage-specific about "logging in" lives here.
type LoginHooks struct {
	users   UserStore
	service *Service
	uiURL   string
}

// NewLoginHooks wires the provisioning hooks.
func NewLoginHooks(users UserStore, service *Service, uiURL string) *LoginHooks {
	return &LoginHooks{
		users:   users,
		service: service,
		uiURL:   uiURL,
	}
}

// NotifyVerified provisions the user and session for a verified identity.
//
// A provisioning failure is a login failure, not a protocol failure: the
// browser is sent back to the signin page with an error flag instead of
// being shown a server error page mid-redirect.
func (hooks *LoginHooks) NotifyVerified(writer http.ResponseWriter, request *http.Request, provider string, details oauth.UserDetails) (string, error) {
	ctx := request.Context()
	logger := ctxutil.GetLogger(ctx)

	// A provider that verified the handshake but returned no stable user
	// ID cannot be provisioned; treat it like any other login failure.
	if details.OAuthUserID == "" {
		hooks.NotifyError(ctx, provider, fmt.Errorf("provider returned empty oauth_user_id"))
		return hooks.uiURL + "/signin/?error=true", nil
	}

	// 1. Upsert the user keyed on (provider, oauth_user_id)
	user, err := hooks.users.Upsert(ctx, &User{
		Name:        details.Username,
		Email:       details.Email,
		AvatarURL:   details.Avatar,
		Provider:    provider,
		OAuthUserID: details.OAuthUserID,
	})
	if err != nil {
		hooks.NotifyError(ctx, provider, err)
		return hooks.uiURL + "/signin/?error=true", nil
	}

	// 2. Mint the session and hand the raw token to the browser
	session, token, err := hooks.service.CreateSession(ctx, user.ID)
	if err != nil {
		hooks.NotifyError(ctx, provider, err)
		return hooks.uiURL + "/signin/?error=true", nil
	}

	SetSessionCookie(writer, token, session.ExpiresAt)

	logger.InfoContext(ctx, "oauth_login_succeeded",
		slog.String("provider", provider),
		slog.String("user_id", user.ID),
	)

	// 3. Land the browser on their profile page
	return hooks.uiURL + "/u/" + user.ID, nil
}

// NotifyError logs a failed handshake or provisioning attempt.
func (hooks *LoginHooks) NotifyError(ctx context.Context, provider string, err error) {
	ctxutil.GetLogger(ctx).ErrorContext(ctx, "oauth_login_failed",
		slog.String("provider", provider),
		slog.Any("error", err),
	)
}
