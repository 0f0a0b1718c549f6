// Copyright (c) 2026 Passage. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	"net/http"
	"time"

	"github.com/taibuivan/passage/internal/platform/constants"
)

// # Session Cookie Transport

// SetSessionCookie attaches the raw session token to the response.
//
// The cookie lifetime mirrors the session row's expiry so the browser drops
// the credential around the same time lazy expiry would reject it. HttpOnly
// keeps the token away from scripts; SameSite=Lax still allows the top-level
// OAuth callback navigation to carry it.
func SetSessionCookie(writer http.ResponseWriter, token string, expiresAt time.Time) {
	maxAge := int(time.Until(expiresAt).Seconds())

	http.SetCookie(writer, &http.Cookie{
		Name:     constants.SessionCookieName,
		Value:    token,
		Path:     constants.SessionCookiePath,
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteLaxMode,
	})
}

// ClearSessionCookie instructs the browser to drop the session cookie.
// MaxAge -1 serializes as Max-Age=0, the immediate-removal form.
func ClearSessionCookie(writer http.ResponseWriter) {
	http.SetCookie(writer, &http.Cookie{
		Name:     constants.SessionCookieName,
		Value:    "",
		Path:     constants.SessionCookiePath,
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteLaxMode,
	})
}

// ReadSessionToken extracts the raw session token from the request.
// The second return is false when no session cookie is present.
func ReadSessionToken(request *http.Request) (string, bool) {
	cookie, err := request.Cookie(constants.SessionCookieName)
	if err != nil || cookie.Value == "" {
		return "", false
	}
	return cookie.Value, true
}
