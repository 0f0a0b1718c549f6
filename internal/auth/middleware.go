// Copyright (c) 2026 Passage. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	"net/http"

	"github.com/taibuivan/passage/internal/platform/apperr"
	"github.com/taibuivan/passage/internal/platform/ctxutil"
	"github.com/taibuivan/passage/internal/platform/respond"
	"github.com/taibuivan/passage/internal/platform/sec"
)

// # Session Middleware

// Authenticate resolves the session cookie into a request identity.
//
// It never rejects on its own: an absent or invalid credential simply leaves
// the request anonymous so public routes keep working, while the validation
// side effects (lazy expiry, sliding renewal) still run. Only a storage
// failure halts the request, because masking it as "not signed in" would
// silently log users out during a database incident.
func Authenticate(service *Service) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {

			// 1. Anonymous requests pass straight through
			token, found := ReadSessionToken(request)
			if !found {
				next.ServeHTTP(writer, request)
				return
			}

			// 2. Validate (may delete an expired row or renew the expiry)
			session, user, err := service.ValidateToken(request.Context(), token)
			if err != nil {
				respond.Error(writer, request, apperr.Internal(err))
				return
			}

			// 3. Stale cookie: clear it and continue anonymously
			if session == nil {
				ClearSessionCookie(writer)
				next.ServeHTTP(writer, request)
				return
			}

			// 4. Refresh the cookie so its lifetime tracks any renewal
			SetSessionCookie(writer, token, session.ExpiresAt)

			// 5. Attach the identity for downstream handlers
			ctx := ctxutil.WithIdentity(request.Context(), &sec.Identity{
				UserID:    user.ID,
				SessionID: session.ID,
				Name:      user.Name,
				Email:     user.Email,
				AvatarURL: user.AvatarURL,
			})

			next.ServeHTTP(writer, request.WithContext(ctx))
		})
	}
}

// RequireSession gates a route group behind a validated session.
//
// Browsers are sent to the signin page rather than handed a bare 401; the
// API surface here is consumed by top-level navigations, not fetch calls.
func RequireSession(signinURL string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			if ctxutil.GetIdentity(request.Context()) == nil {
				respond.Redirect(writer, signinURL)
				return
			}

			next.ServeHTTP(writer, request)
		})
	}
}
