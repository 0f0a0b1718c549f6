// Copyright (c) 2026 Passage. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/taibuivan/passage/pkg/uuid"
)

// # PostgreSQL User Store

// PostgresUserStore implements [UserStore] backed by PostgreSQL (pgx pool).
type PostgresUserStore struct {
	pool *pgxpool.Pool
}

// NewPostgresUserStore wires a [PostgresUserStore] to a connection pool.
func NewPostgresUserStore(pool *pgxpool.Pool) *PostgresUserStore {
	return &PostgresUserStore{pool: pool}
}

// FindByID fetches a user by primary key. Returns (nil, nil) on no row.
func (store *PostgresUserStore) FindByID(ctx context.Context, id string) (*User, error) {
	query := `
		SELECT id, name, email, avatar_url, provider, oauth_user_id, created_at, updated_at
		FROM users
		WHERE id = $1`

	user := &User{}
	err := store.pool.QueryRow(ctx, query, id).Scan(
		&user.ID,
		&user.Name,
		&user.Email,
		&user.AvatarURL,
		&user.Provider,
		&user.OAuthUserID,
		&user.CreatedAt,
		&user.UpdatedAt,
	)

	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("postgres_user_store_find_failed: %w", err)
	}

	return user, nil
}

// Upsert inserts the user or refreshes the profile of an existing one.
//
// The conflict target is the (provider, oauth_user_id) unique pair, so a
// returning user keeps their original primary key while name, email and
// avatar follow whatever the provider currently reports.
func (store *PostgresUserStore) Upsert(ctx context.Context, user *User) (*User, error) {
	query := `
		INSERT INTO users (id, name, email, avatar_url, provider, oauth_user_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW(), NOW())
		ON CONFLICT (provider, oauth_user_id) DO UPDATE SET
			name       = EXCLUDED.name,
			email      = EXCLUDED.email,
			avatar_url = EXCLUDED.avatar_url,
			updated_at = NOW()
		RETURNING id, name, email, avatar_url, provider, oauth_user_id, created_at, updated_at`

	// Candidate key for the insert path; discarded on conflict.
	candidateID := user.ID
	if candidateID == "" {
		candidateID = uuid.New()
	}

	saved := &User{}
	err := store.pool.QueryRow(ctx, query,
		candidateID,
		user.Name,
		user.Email,
		user.AvatarURL,
		user.Provider,
		user.OAuthUserID,
	).Scan(
		&saved.ID,
		&saved.Name,
		&saved.Email,
		&saved.AvatarURL,
		&saved.Provider,
		&saved.OAuthUserID,
		&saved.CreatedAt,
		&saved.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("postgres_user_store_upsert_failed: %w", err)
	}

	return saved, nil
}

// # PostgreSQL Session Store

// PostgresSessionStore implements [SessionStore] backed by PostgreSQL.
type PostgresSessionStore struct {
	pool *pgxpool.Pool
}

// NewPostgresSessionStore wires a [PostgresSessionStore] to a connection pool.
func NewPostgresSessionStore(pool *pgxpool.Pool) *PostgresSessionStore {
	return &PostgresSessionStore{pool: pool}
}

// Insert persists a freshly minted session row.
func (store *PostgresSessionStore) Insert(ctx context.Context, session *Session) error {
	query := `
		INSERT INTO sessions (id, user_id, created_at, expires_at)
		VALUES ($1, $2, $3, $4)`

	_, err := store.pool.Exec(ctx, query,
		session.ID,
		session.UserID,
		session.CreatedAt,
		session.ExpiresAt,
	)
	if err != nil {
		return fmt.Errorf("postgres_session_store_insert_failed: %w", err)
	}

	return nil
}

// FindWithUser fetches a session joined with its owning user.
// Returns (nil, nil, nil) on no row.
func (store *PostgresSessionStore) FindWithUser(ctx context.Context, sessionID string) (*Session, *User, error) {
	query := `
		SELECT
			s.id, s.user_id, s.created_at, s.expires_at,
			u.id, u.name, u.email, u.avatar_url, u.provider, u.oauth_user_id, u.created_at, u.updated_at
		FROM sessions s
		JOIN users u ON u.id = s.user_id
		WHERE s.id = $1`

	session := &Session{}
	user := &User{}
	err := store.pool.QueryRow(ctx, query, sessionID).Scan(
		&session.ID,
		&session.UserID,
		&session.CreatedAt,
		&session.ExpiresAt,
		&user.ID,
		&user.Name,
		&user.Email,
		&user.AvatarURL,
		&user.Provider,
		&user.OAuthUserID,
		&user.CreatedAt,
		&user.UpdatedAt,
	)

	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil, nil
	}
	if err != nil {
		return nil, nil, fmt.Errorf("postgres_session_store_find_failed: %w", err)
	}

	return session, user, nil
}

// UpdateExpiry slides the expiry of a session forward.
//
// The write is a plain idempotent UPDATE: two concurrent renewals land on
// effectively the same timestamp, and renewing a session that a concurrent
// logout already deleted simply affects zero rows.
func (store *PostgresSessionStore) UpdateExpiry(ctx context.Context, sessionID string, expiresAt time.Time) error {
	query := `
		UPDATE sessions
		SET expires_at = $2
		WHERE id = $1`

	_, err := store.pool.Exec(ctx, query, sessionID, expiresAt)
	if err != nil {
		return fmt.Errorf("postgres_session_store_update_expiry_failed: %w", err)
	}

	return nil
}

// Delete removes a session row. Missing rows are not an error.
func (store *PostgresSessionStore) Delete(ctx context.Context, sessionID string) error {
	query := `
		DELETE FROM sessions
		WHERE id = $1`

	_, err := store.pool.Exec(ctx, query, sessionID)
	if err != nil {
		return fmt.Errorf("postgres_session_store_delete_failed: %w", err)
	}

	return nil
}
