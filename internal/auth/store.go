// Copyright (c) 2026 Passage. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	"context"
	"time"
)

// # Storage Contracts

// UserStore abstracts user persistence.
//
// Implementations must treat (provider, oauth_user_id) as the stable external
// identity of a user: Upsert matches on that pair, never on email.
type UserStore interface {

	// FindByID fetches a user by primary key.
	// Returns (nil, nil) when no user exists.
	FindByID(ctx context.Context, id string) (*User, error)

	// Upsert inserts the user or, when the (provider, oauth_user_id) pair
	// already exists, refreshes the profile fields from the provider.
	// The returned user carries the authoritative row, including the
	// original ID on the update path.
	Upsert(ctx context.Context, user *User) (*User, error)
}

// SessionStore abstracts session persistence.
//
// All methods are keyed by the derived session ID (SHA-256 of the token);
// the raw token must never reach this layer.
type SessionStore interface {

	// Insert persists a freshly minted session row.
	Insert(ctx context.Context, session *Session) error

	// FindWithUser fetches a session and its owning user in one round trip.
	// Returns (nil, nil, nil) when no such session exists.
	FindWithUser(ctx context.Context, sessionID string) (*Session, *User, error)

	// UpdateExpiry slides the expiry of a session forward. Updating a
	// session that has concurrently been deleted is not an error.
	UpdateExpiry(ctx context.Context, sessionID string, expiresAt time.Time) error

	// Delete removes a session row. Deleting a session that does not
	// exist is not an error.
	Delete(ctx context.Context, sessionID string) error
}

// AttemptStore tracks per-IP OAuth initiation counters so that login-flow
// abuse can be throttled independently of the global rate limiter.
type AttemptStore interface {

	// Record increments the counter for an IP and returns the new total
	// within the current window.
	Record(ctx context.Context, ip string) (int64, error)
}
