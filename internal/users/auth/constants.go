// Copyright (c) 2026 Pulse. All rights reserved.
// Author: dev@pulse.app

package auth

import "time"

// # Authentication Constraints

const (
	// ResetTokenTTL is the duration a password reset token remains valid.
	// Short-lived (1 hour) for security.
	ResetTokenTTL = 1 * time.Hour

	// ResetTokenLength is the byte length of the random password reset token.
	ResetTokenLength = 32

	// VerificationTokenTTL is the duration an email verification token remains valid.
	// Long-lived (24 hours) as users might not check email immediately.
	VerificationTokenTTL = 24 * time.Hour

	// VerificationTokenLength is the byte length of the random verification token.
	VerificationTokenLength = 32
)
