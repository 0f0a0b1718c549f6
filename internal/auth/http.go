// Copyright (c) 2026 Passage. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/taibuivan/passage/internal/oauth"
	"github.com/taibuivan/passage/internal/platform/apperr"
	"github.com/taibuivan/passage/internal/platform/ctxutil"
	"github.com/taibuivan/passage/internal/platform/middleware"
	requestutil "github.com/taibuivan/passage/internal/platform/request"
	"github.com/taibuivan/passage/internal/platform/respond"
	"github.com/taibuivan/passage/internal/platform/sec"
	"github.com/taibuivan/passage/internal/platform/validate"
)

// maxInitiationsPerWindow is how many OAuth flows one IP may start inside
// the attempt window before being throttled.
const maxInitiationsPerWindow = 30

// # HTTP Handler

// Handler exposes the authentication endpoints: per-provider login and
// callback, logout, and the current-identity probe.
type Handler struct {
	service  *Service
	flows    map[string]*oauth.Flow
	attempts AttemptStore
	uiURL    string
}

// NewHandler wires the authentication [Handler].
//
// # Parameters
//   - service: Session lifecycle service.
//   - flows: Per-provider flow orchestrators, keyed by wire name.
//   - attempts: Per-IP initiation counters (may be degraded, never nil).
//   - uiURL: Public origin of the frontend, target of all redirects.
func NewHandler(service *Service, flows map[string]*oauth.Flow, attempts AttemptStore, uiURL string) *Handler {
	return &Handler{
		service:  service,
		flows:    flows,
		attempts: attempts,
		uiURL:    uiURL,
	}
}

// Routes assembles the authentication sub-router, mounted at /auth.
func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()

	router.Get("/{provider}/login", handler.login)
	router.Get("/{provider}/callback", handler.callback)
	router.Get("/logout", handler.logout)

	// Identity probe behind the session gate: anonymous browsers bounce to
	// the signin page instead of seeing a bare 401.
	router.Group(func(protected chi.Router) {
		protected.Use(RequireSession(handler.uiURL + "/signin"))
		protected.Get("/me", handler.me)
	})

	return router
}

/*
login starts the OAuth handshake for a provider.

GET /auth/{provider}/login

Responses:
  - 302: Redirect to the provider's consent screen, flow cookies attached.
  - 400: Provider name is not one we recognize at all.
  - 404: Recognized provider, but not configured in this deployment.
  - 429: This IP started too many flows recently.
*/
func (handler *Handler) login(writer http.ResponseWriter, request *http.Request) {
	providerName := requestutil.Param(request, "provider")

	validator := &validate.Validator{}
	if err := validator.
		Required("provider", providerName).
		OneOf("provider", providerName, oauth.Names()...).
		Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	flow, found := handler.flows[providerName]
	if !found {
		respond.Error(writer, request, apperr.NotFound("Provider"))
		return
	}

	// Throttle flow initiations per IP, on top of the global rate limit.
	// Counter storage being down must not take logins down with it.
	count, err := handler.attempts.Record(request.Context(), middleware.RealIP(request))
	if err != nil {
		ctxutil.GetLogger(request.Context()).WarnContext(request.Context(),
			"oauth_attempt_tracking_degraded", slog.Any("error", err))
	} else if count > maxInitiationsPerWindow {
		respond.Error(writer, request, apperr.RateLimited(600))
		return
	}

	flow.RequestAuth(writer, request)
}

/*
callback finishes the OAuth handshake when the provider redirects back.

GET /auth/{provider}/callback?code=...&state=...

Responses:
  - 302: Login succeeded (or failed at provisioning; the signin page shows why).
  - 401: Broken handshake (missing code/state, state mismatch, missing verifier).
  - 404: Unknown provider name.
  - 500: Provider-side failure during token exchange or profile fetch.
*/
func (handler *Handler) callback(writer http.ResponseWriter, request *http.Request) {
	flow, found := handler.flows[requestutil.Param(request, "provider")]
	if !found {
		respond.Error(writer, request, apperr.NotFound("Provider"))
		return
	}

	flow.VerifyAuthCallback(writer, request)
}

/*
logout terminates the current session.

GET /auth/logout

Responses:
  - 302 to {UI_URL}/signin: Session invalidated, cookie cleared.
  - 302 to {UI_URL}/signin/?: No session cookie was present.
  - 302 to {UI_URL}/signin/?error=true: Storage failure; the signin page
    surfaces it, since a logout click should never dead-end on an error page.
*/
func (handler *Handler) logout(writer http.ResponseWriter, request *http.Request) {

	// 1. Nothing to do without a cookie
	token, found := ReadSessionToken(request)
	if !found {
		respond.Redirect(writer, handler.uiURL+"/signin/?")
		return
	}

	// 2. Delete the row (idempotent; a stale cookie is fine)
	if err := handler.service.InvalidateSession(request.Context(), sec.DeriveSessionID(token)); err != nil {
		ctxutil.GetLogger(request.Context()).ErrorContext(request.Context(),
			"logout_failed", slog.Any("error", err))
		respond.Redirect(writer, handler.uiURL+"/signin/?error=true")
		return
	}

	// 3. Drop the cookie and send the browser home
	ClearSessionCookie(writer)
	respond.Redirect(writer, handler.uiURL+"/signin")
}

/*
me returns the identity attached to the current session.

GET /auth/me

Responses:
  - 200: The validated identity.
  - 401: Anonymous request.
*/
func (handler *Handler) me(writer http.ResponseWriter, request *http.Request) {
	identity, err := requestutil.RequiredIdentity(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, identity)
}
