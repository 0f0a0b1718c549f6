// Copyright (c) 2026 Passage. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package auth implements the authentication core of Passage.

It owns the full session lifecycle (creation, validation, sliding renewal,
invalidation) and the user identities that sessions point at. OAuth providers
hand verified profiles to this package; everything after that moment -
provisioning the user row, minting the session token, guarding routes - is
handled here.

Token Model:

  - Token: 20 random bytes, base32-encoded, held only by the browser.
  - Session ID: SHA-256 of the token, the only credential the server stores.
  - Renewal: validation past the lifetime midpoint slides the expiry forward.

A database leak therefore never yields usable credentials, and active users
never observe a forced logout.
*/
package auth

import "time"

// # Lifecycle Constants

const (
	// SessionExpiration is the full lifetime granted to a session at
	// creation and again at every sliding renewal.
	SessionExpiration = 30 * 24 * time.Hour

	// sessionRenewalWindow is the trailing portion of the lifetime during
	// which a successful validation renews the session. Set to the half-life:
	// any validation in the second half of the lifetime slides the expiry.
	sessionRenewalWindow = SessionExpiration / 2
)

// # Entities

// User is a person provisioned through an OAuth provider.
//
// The pair (Provider, OAuthUserID) is the stable external identity; Email and
// profile fields are refreshed from the provider on every login.
type User struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Email       string    `json:"email"`
	AvatarURL   string    `json:"avatar_url"`
	Provider    string    `json:"provider"`
	OAuthUserID string    `json:"-"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Session is a single authenticated browser session.
//
// ID is the SHA-256 hex derivation of the client-held token. The token itself
// never appears in this struct and is never persisted anywhere.
type Session struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// ExpiredAt reports whether the session is expired at the given instant.
func (s *Session) ExpiredAt(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}

// RenewableAt reports whether a validation at the given instant should slide
// the expiry forward. Only meaningful for sessions that are not yet expired.
func (s *Session) RenewableAt(now time.Time) bool {
	return !now.Before(s.ExpiresAt.Add(-sessionRenewalWindow))
}
