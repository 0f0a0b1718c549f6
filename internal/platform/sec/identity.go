// Copyright (c) 2026 Passage. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package sec

// Identity is the request-scoped result of a successful session validation.
//
// # Immutability
//
// An Identity is constructed exactly once per request by the session
// middleware and stored in the context as a pointer that is never mutated.
// A new request always starts anonymous (nil identity), so a prior request's
// identity can never leak into the next one on a reused execution context.
type Identity struct {
	// UserID is the account the session belongs to.
	UserID string `json:"user_id"`

	// SessionID is the storage identifier of the session (hash of the token,
	// never the token itself).
	SessionID string `json:"session_id"`

	// Profile subset mirrored from the user record for cheap display access.
	Name      string `json:"name"`
	Email     string `json:"email,omitempty"`
	AvatarURL string `json:"avatar_url,omitempty"`
}
