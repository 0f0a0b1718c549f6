// Copyright (c) 2026 Passage. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package oauth

import (
	"net/http"
	"time"

	"github.com/taibuivan/passage/internal/platform/constants"
)

// # Flow Cookies

// flowCookieTTL bounds how long an initiated flow stays redeemable. Ten
// minutes comfortably covers a consent screen plus a coffee refill.
const flowCookieTTL = 10 * time.Minute

// setFlowCookie attaches one piece of transient flow state to the response.
// SameSite=Lax is load-bearing: the provider redirects back with a top-level
// GET navigation, which Lax allows and Strict would drop.
func setFlowCookie(writer http.ResponseWriter, name, value string) {
	http.SetCookie(writer, &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		MaxAge:   int(flowCookieTTL.Seconds()),
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteLaxMode,
	})
}

// clearFlowCookie removes one transient flow cookie after redemption.
func clearFlowCookie(writer http.ResponseWriter, name string) {
	http.SetCookie(writer, &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteLaxMode,
	})
}

// clearFlowCookies removes both flow cookies, making the handshake single-use.
func clearFlowCookies(writer http.ResponseWriter) {
	clearFlowCookie(writer, constants.OAuthStateCookieName)
	clearFlowCookie(writer, constants.OAuthCodeVerifierCookieName)
}

// readFlowCookie fetches a transient flow cookie value, or "" when absent.
func readFlowCookie(request *http.Request, name string) string {
	cookie, err := request.Cookie(name)
	if err != nil {
		return ""
	}
	return cookie.Value
}
