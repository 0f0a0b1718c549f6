// Copyright (c) 2026 Passage. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package oauth

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"

	"golang.org/x/oauth2"

	"github.com/taibuivan/passage/internal/platform/apperr"
	"github.com/taibuivan/passage/internal/platform/constants"
	"github.com/taibuivan/passage/internal/platform/ctxutil"
	"github.com/taibuivan/passage/internal/platform/respond"
	"github.com/taibuivan/passage/internal/platform/sec"
)

// maxUserInfoBody caps how much of a provider's profile response we read.
const maxUserInfoBody = 1 << 20

// # Hooks

// Hooks is the seam between flow orchestration and the application.
//
// NotifyVerified fires exactly once per successful handshake, after the
// provider identity is verified and normalized. It may write to the response
// (typically a Set-Cookie for a freshly minted session) and may override the
// final redirect target by returning a non-empty URL. Returning an error
// aborts the flow with a server error; no redirect is issued.
//
// NotifyError fires on every failed handshake, for observability only.
type Hooks interface {
	NotifyVerified(writer http.ResponseWriter, request *http.Request, provider string, details UserDetails) (redirectURL string, err error)
	NotifyError(ctx context.Context, provider string, err error)
}

// LogHooks is the default [Hooks]: it provisions nothing and just logs.
type LogHooks struct{}

// NotifyVerified logs the verified identity and keeps the default redirect.
func (LogHooks) NotifyVerified(_ http.ResponseWriter, request *http.Request, provider string, details UserDetails) (string, error) {
	ctxutil.GetLogger(request.Context()).InfoContext(request.Context(), "oauth_identity_verified",
		slog.String("provider", provider),
		slog.String("oauth_user_id", details.OAuthUserID),
	)
	return "", nil
}

// NotifyError logs the failed handshake.
func (LogHooks) NotifyError(ctx context.Context, provider string, err error) {
	ctxutil.GetLogger(ctx).ErrorContext(ctx, "oauth_flow_failed",
		slog.String("provider", provider),
		slog.Any("error", err),
	)
}

// # Flow Orchestrator

// FlowConfig assembles one provider-specific [Flow].
type FlowConfig struct {
	// Provider is the wire name of a registered provider.
	Provider string

	// ClientID and ClientSecret are the credentials issued by the provider.
	ClientID     string
	ClientSecret string

	// RedirectURL is this server's callback endpoint for the provider.
	RedirectURL string

	// VerifiedRedirectURI is where the browser lands after a successful
	// handshake, unless the verified hook overrides it.
	VerifiedRedirectURI string

	// Scopes overrides the provider's default scope list when non-empty.
	Scopes []string

	// Hooks receives verification outcomes. Defaults to [LogHooks].
	Hooks Hooks

	// HTTPClient overrides the client used for the token exchange and the
	// user-info fetch. Nil means http.DefaultClient. Tests point this at
	// an httptest server.
	HTTPClient *http.Client
}

// Flow drives the authorization-code handshake for one provider.
type Flow struct {
	provider            Provider
	config              oauth2.Config
	verifiedRedirectURI string
	hooks               Hooks
	httpClient          *http.Client
}

// NewFlow builds a [Flow] from its configuration.
// It fails fast on an unregistered provider name.
func NewFlow(cfg FlowConfig) (*Flow, error) {
	provider, found := Lookup(cfg.Provider)
	if !found {
		return nil, fmt.Errorf("oauth: unknown provider %q", cfg.Provider)
	}

	hooks := cfg.Hooks
	if hooks == nil {
		hooks = LogHooks{}
	}

	scopes := provider.Scopes
	if len(cfg.Scopes) > 0 {
		scopes = cfg.Scopes
	}

	return &Flow{
		provider: provider,
		config: oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			Endpoint:     provider.Endpoint,
			RedirectURL:  cfg.RedirectURL,
			Scopes:       scopes,
		},
		verifiedRedirectURI: cfg.VerifiedRedirectURI,
		hooks:               hooks,
		httpClient:          cfg.HTTPClient,
	}, nil
}

// ProviderName returns the wire name of the flow's provider.
func (flow *Flow) ProviderName() string {
	return flow.provider.Name
}

// RequestAuth starts the handshake: it parks the anti-CSRF state and the PKCE
// verifier in short-lived cookies and bounces the browser to the provider's
// consent screen.
//
// Both cookies are set for every provider. A provider that ignores PKCE just
// never sees the challenge; keeping the cookie shape uniform means the
// callback can demand both unconditionally.
func (flow *Flow) RequestAuth(writer http.ResponseWriter, request *http.Request) {

	// 1. Fresh state nonce for CSRF binding
	state, err := sec.GenerateToken()
	if err != nil {
		flow.fail(writer, request, apperr.Internal(err))
		return
	}

	// 2. Fresh PKCE verifier
	verifier := oauth2.GenerateVerifier()

	// 3. Park both halves of the flow state in the browser
	setFlowCookie(writer, constants.OAuthStateCookieName, state)
	setFlowCookie(writer, constants.OAuthCodeVerifierCookieName, verifier)

	// 4. Build the consent URL, with an S256 challenge where supported
	options := []oauth2.AuthCodeOption{}
	if flow.provider.UsesPKCE {
		options = append(options, oauth2.S256ChallengeOption(verifier))
	}

	respond.Redirect(writer, flow.config.AuthCodeURL(state, options...))
}

// VerifyAuthCallback finishes the handshake when the provider redirects back.
//
// Rejection taxonomy:
//   - 401: the handshake itself is broken (missing code or state, state
//     mismatch, missing verifier, empty access token). Never a redirect;
//     a broken flow must not look like success to the browser.
//   - 500: the provider or our own hook failed after a well-formed callback.
//
// On success the transient cookies are cleared (single-use handshake), the
// verified hook runs exactly once, and the browser is redirected.
func (flow *Flow) VerifyAuthCallback(writer http.ResponseWriter, request *http.Request) {

	// 1. Structural check: the provider must have sent both halves
	code := request.URL.Query().Get("code")
	state := request.URL.Query().Get("state")
	if code == "" || state == "" {
		flow.fail(writer, request, apperr.ProtocolViolation("Missing code or state"))
		return
	}

	// 2. CSRF binding: query state must match the cookie we set, and the
	//    verifier cookie must have survived the round trip
	stateCookie := readFlowCookie(request, constants.OAuthStateCookieName)
	verifier := readFlowCookie(request, constants.OAuthCodeVerifierCookieName)
	if stateCookie == "" || stateCookie != state || verifier == "" {
		flow.fail(writer, request, apperr.ProtocolViolation("Invalid state or code verifier"))
		return
	}

	// 3. Redeem the authorization code
	ctx := flow.exchangeContext(request.Context())

	options := []oauth2.AuthCodeOption{}
	if flow.provider.UsesPKCE {
		options = append(options, oauth2.VerifierOption(verifier))
	}

	token, err := flow.config.Exchange(ctx, code, options...)
	if err != nil {
		flow.fail(writer, request, classifyExchangeError(err))
		return
	}

	// 4. Fetch and normalize the profile
	details, err := flow.fetchUserDetails(ctx, token.AccessToken)
	if err != nil {
		flow.fail(writer, request, apperr.Upstream(err))
		return
	}

	// 5. The handshake is single-use: drop the transient cookies
	clearFlowCookies(writer)

	// 6. Hand the verified identity to the application
	redirectURL, err := flow.hooks.NotifyVerified(writer, request, flow.provider.Name, details)
	if err != nil {
		flow.hooks.NotifyError(request.Context(), flow.provider.Name, err)
		respond.Error(writer, request, err)
		return
	}
	if redirectURL == "" {
		redirectURL = flow.verifiedRedirectURI
	}

	respond.Redirect(writer, redirectURL)
}

// classifyExchangeError maps a token-exchange failure onto the rejection
// taxonomy. The oauth2 library never hands back a token with an empty
// AccessToken field: a 2xx exchange response missing the token surfaces as a
// parse error instead, which is a broken handshake (401). A non-2xx answer
// (*oauth2.RetrieveError) or a transport failure (*url.Error, timeouts) is a
// provider-side problem (500).
func classifyExchangeError(err error) *apperr.AppError {
	var retrieveErr *oauth2.RetrieveError
	var transportErr *url.Error
	if errors.As(err, &retrieveErr) || errors.As(err, &transportErr) {
		return apperr.Upstream(fmt.Errorf("oauth_token_exchange_failed: %w", err))
	}

	return apperr.ProtocolViolation("Invalid access token")
}

// fetchUserDetails calls the provider's user-info endpoint with the access
// token and runs the provider transform over the body.
func (flow *Flow) fetchUserDetails(ctx context.Context, accessToken string) (UserDetails, error) {
	request, err := http.NewRequestWithContext(ctx, http.MethodGet, flow.provider.UserInfoURL, nil)
	if err != nil {
		return UserDetails{}, fmt.Errorf("oauth_userinfo_request_failed: %w", err)
	}
	request.Header.Set("Authorization", "Bearer "+accessToken)
	request.Header.Set("Accept", "application/json")

	client := flow.httpClient
	if client == nil {
		client = http.DefaultClient
	}

	response, err := client.Do(request)
	if err != nil {
		return UserDetails{}, fmt.Errorf("oauth_userinfo_fetch_failed: %w", err)
	}
	defer func() { _ = response.Body.Close() }()

	if response.StatusCode < 200 || response.StatusCode > 299 {
		return UserDetails{}, fmt.Errorf("oauth_userinfo_fetch_failed: provider returned status %d", response.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(response.Body, maxUserInfoBody))
	if err != nil {
		return UserDetails{}, fmt.Errorf("oauth_userinfo_read_failed: %w", err)
	}

	return flow.provider.transform(body), nil
}

// exchangeContext threads the override HTTP client (if any) into the context
// the oauth2 library uses for the token exchange.
func (flow *Flow) exchangeContext(ctx context.Context) context.Context {
	if flow.httpClient != nil {
		return context.WithValue(ctx, oauth2.HTTPClient, flow.httpClient)
	}
	return ctx
}

// fail reports a broken or failed handshake: error hook first, then the
// mapped HTTP error. Failures never redirect.
func (flow *Flow) fail(writer http.ResponseWriter, request *http.Request, err *apperr.AppError) {
	flow.hooks.NotifyError(request.Context(), flow.provider.Name, err)
	respond.Error(writer, request, err)
}
