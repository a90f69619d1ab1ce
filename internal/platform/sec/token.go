// Copyright (c) 2026 Pulse. All rights reserved.
// Author: dev@pulse.app

package sec

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
)

// GenerateSecureToken returns a URL-safe random token of byteLength entropy bytes.
//
// Used for opaque, single-purpose tokens (password reset, email verification)
// that are stored server-side rather than signed.
func GenerateSecureToken(byteLength int) (string, error) {
	buffer := make([]byte, byteLength)
	if _, err := rand.Read(buffer); err != nil {
		return "", fmt.Errorf("sec: failed to generate secure token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buffer), nil
}

// HashToken returns the hex-encoded SHA-256 digest of a token.
//
// Tokens are stored only as digests so a database leak never yields a
// replayable credential. SHA-256 is sufficient here because the input is
// high-entropy (random bytes or a signed JWT), unlike passwords.
func HashToken(token string) string {
	digest := sha256.Sum256([]byte(token))
	return hex.EncodeToString(digest[:])
}
