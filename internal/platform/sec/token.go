// Copyright (c) 2026 Passage. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package sec provides the security primitives of the platform: the session
// token codec and the per-request identity value.
//
// # Architecture
//
// This package isolates security-sensitive code from the domain logic. It has
// no dependencies on storage or transport, which keeps the primitives pure and
// trivially testable.
package sec

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base32"
	"encoding/hex"
	"fmt"
)

// # Token Codec

// tokenBytes is the amount of entropy behind every session token.
// 160 bits encode to exactly 32 base32 characters without padding.
const tokenBytes = 20

// tokenEncoding is lowercase base32 without padding. Lowercase keeps the
// cookie value stable across clients that normalize header casing.
var tokenEncoding = base32.NewEncoding("abcdefghijklmnopqrstuvwxyz234567").WithPadding(base32.NoPadding)

// GenerateToken produces a new high-entropy session token.
//
// # Failure Mode
//
// An error here means the OS CSPRNG is unavailable. Callers issuing sessions
// must treat that as fatal: the process cannot safely mint credentials.
func GenerateToken() (string, error) {
	buffer := make([]byte, tokenBytes)
	if _, err := rand.Read(buffer); err != nil {
		return "", fmt.Errorf("sec: failed to read entropy for session token: %w", err)
	}

	return tokenEncoding.EncodeToString(buffer), nil
}

// DeriveSessionID computes the storage identifier for a session token.
//
// # Security Concept
//
// The client holds the token; the server persists only this SHA-256
// derivation. A leaked sessions table therefore never yields a usable
// credential, because the hash cannot be inverted back into the token.
//
// Deterministic and pure: the same token always derives the same ID.
func DeriveSessionID(token string) string {
	digest := sha256.Sum256([]byte(token))
	return hex.EncodeToString(digest[:])
}
