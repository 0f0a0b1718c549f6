// Copyright (c) 2026 Passage. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	"context"
	"log/slog"
	"time"

	"github.com/taibuivan/passage/internal/platform/sec"
)

// # Session Service

// Service implements the session lifecycle: minting, validation with sliding
// renewal, and invalidation.
type Service struct {
	sessions SessionStore
	logger   *slog.Logger

	// now is swappable for deterministic lifecycle tests.
	now func() time.Time
}

// NewService constructs the session [Service].
//
// # Parameters
//   - sessions: Persistent session storage (keyed by derived IDs).
//   - logger: Structured logger for lifecycle events.
func NewService(sessions SessionStore, logger *slog.Logger) *Service {
	return &Service{
		sessions: sessions,
		logger:   logger,
		now:      time.Now,
	}
}

// CreateSession mints a fresh session for a user.
//
// It returns both the persisted session and the raw token. The token is the
// only copy that will ever exist: the store receives just its SHA-256
// derivation, so the caller must hand the token to the browser immediately.
func (service *Service) CreateSession(ctx context.Context, userID string) (*Session, string, error) {

	// 1. Mint the client-held token
	token, err := sec.GenerateToken()
	if err != nil {
		return nil, "", err
	}

	// 2. Derive the server-side ID and persist the row
	now := service.now()
	session := &Session{
		ID:        sec.DeriveSessionID(token),
		UserID:    userID,
		CreatedAt: now,
		ExpiresAt: now.Add(SessionExpiration),
	}

	if err := service.sessions.Insert(ctx, session); err != nil {
		return nil, "", err
	}

	service.logger.InfoContext(ctx, "session_created",
		slog.String("user_id", userID),
		slog.Time("expires_at", session.ExpiresAt),
	)

	return session, token, nil
}

// ValidateToken checks a raw client token against the store and applies the
// lifecycle policy in order:
//
//  1. Unknown token            -> (nil, nil, nil)
//  2. Expired session          -> row deleted, (nil, nil, nil)
//  3. Past the lifetime midpoint -> expiry slides to now + SessionExpiration
//  4. Otherwise                -> returned unchanged
//
// An invalid credential is not an error: both nil-result cases return a nil
// error so callers can distinguish "not signed in" from a storage failure.
func (service *Service) ValidateToken(ctx context.Context, token string) (*Session, *User, error) {
	sessionID := sec.DeriveSessionID(token)

	session, user, err := service.sessions.FindWithUser(ctx, sessionID)
	if err != nil {
		return nil, nil, err
	}
	if session == nil {
		return nil, nil, nil
	}

	now := service.now()

	// Lazy expiry: the row is reaped on first sight, not by a background job.
	if session.ExpiredAt(now) {
		if err := service.sessions.Delete(ctx, sessionID); err != nil {
			return nil, nil, err
		}
		return nil, nil, nil
	}

	// Sliding renewal past the half-life.
	if session.RenewableAt(now) {
		session.ExpiresAt = now.Add(SessionExpiration)
		if err := service.sessions.UpdateExpiry(ctx, sessionID, session.ExpiresAt); err != nil {
			return nil, nil, err
		}

		service.logger.DebugContext(ctx, "session_renewed",
			slog.String("user_id", session.UserID),
			slog.Time("expires_at", session.ExpiresAt),
		)
	}

	return session, user, nil
}

// InvalidateSession terminates a session by its derived ID. Invalidating a
// session that is already gone succeeds; logout must be idempotent.
func (service *Service) InvalidateSession(ctx context.Context, sessionID string) error {
	if err := service.sessions.Delete(ctx, sessionID); err != nil {
		return err
	}

	service.logger.InfoContext(ctx, "session_invalidated",
		slog.String("session_id", sessionID),
	)

	return nil
}
