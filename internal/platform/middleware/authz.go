// Copyright (c) 2026 Pulse. All rights reserved.
// Author: dev@pulse.app

// Package middleware provides the HTTP middleware chain for the Pulse API server.
//
// # Architecture
//
// Middleware intercepts incoming HTTP requests to apply global policies
// before they reach the domain handlers. This includes cross-cutting concerns
// like Logging, AuthZ/AuthN, Rate Limiting, and CORS.
package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/pulseapp/pulse/internal/platform/apperr"
	"github.com/pulseapp/pulse/internal/platform/constants"
	"github.com/pulseapp/pulse/internal/platform/ctxutil"
	"github.com/pulseapp/pulse/internal/platform/respond"
	"github.com/pulseapp/pulse/internal/platform/sec"
)

// TokenVerifier defines the interface needed to verify access tokens in middleware.
//
// # Why an interface?
//
// Defining TokenVerifier here decouples the middleware from [sec.TokenService],
// allowing us to easily inject mocks during unit testing.
type TokenVerifier interface {
	VerifyAccessToken(tokenStr string) (*sec.AuthClaims, error)
}

// UserResolver checks that a token's embedded identity still maps to a live
// user record. A token may outlive its account (deletion, deactivation), and
// the session gate must reject it the moment that happens.
type UserResolver interface {
	ResolveUser(ctx context.Context, userID string) error
}

// Authenticate extracts and verifies the JWT carried by the request.
//
// # Flow
//  1. Look for 'Authorization: Bearer <token>', falling back to the
//     access-token cookie.
//  2. If absent, request proceeds as anonymous.
//  3. If present but structurally malformed (wrong segment count), abort 401.
//  4. Verify signature and expiry via [TokenVerifier]; abort 401 on failure.
//  5. Resolve the embedded identity to a live user via [UserResolver];
//     abort 401 if the account no longer exists.
//  6. Inject [*sec.AuthClaims] into the request context for downstream use.
//
// Failures are never silently swallowed: every rejection short-circuits with
// the generic unauthorized envelope and no internal detail.
func Authenticate(verifier TokenVerifier, resolver UserResolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {

			// ── 1. Token Location ─────────────────────────────────────────────
			tokenStr, fromHeader := bearerToken(request)

			if tokenStr == "" && !fromHeader {
				// No credentials at all: anonymous access. RequireAuth decides
				// downstream whether that is acceptable for the route.
				next.ServeHTTP(writer, request)
				return
			}

			if tokenStr == "" {
				respond.Error(writer, request, apperr.Unauthorized("Invalid authorization format"))
				return
			}

			// ── 2. Structural Validation ──────────────────────────────────────
			// A JWT is exactly three dot-separated segments. Rejecting early
			// gives garbage input a cheap exit before signature verification.
			if strings.Count(tokenStr, ".") != 2 {
				respond.Error(writer, request, apperr.Unauthorized("Malformed token"))
				return
			}

			// ── 3. Token Verification ─────────────────────────────────────────
			claims, err := verifier.VerifyAccessToken(tokenStr)
			if err != nil {
				respond.Error(writer, request, apperr.Unauthorized("Invalid or expired token"))
				return
			}

			// ── 4. Identity Resolution ────────────────────────────────────────
			// The signature only proves the token was once issued. The account
			// behind it must still exist.
			if err := resolver.ResolveUser(request.Context(), claims.UserID); err != nil {
				ctxutil.GetLogger(request.Context()).WarnContext(request.Context(),
					"auth_identity_resolution_failed",
					slog.String("user_id", claims.UserID),
				)
				respond.Error(writer, request, apperr.Unauthorized("Invalid or expired token"))
				return
			}

			// ── 5. Context Injection ──────────────────────────────────────────
			ctx := ctxutil.WithAuthUser(request.Context(), claims)
			next.ServeHTTP(writer, request.WithContext(ctx))
		})
	}
}

// RequireAuth blocks requests that are not authenticated.
//
// # Usage
//
// Must be registered in the router AFTER [Authenticate].
//
// # Flow
//  1. Check if [*sec.AuthClaims] exists in context.
//  2. If missing, abort with HTTP 401 Unauthorized.
func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		claims := GetUser(request.Context())
		if claims == nil {
			respond.Error(writer, request, apperr.Unauthorized("Authentication required"))
			return
		}
		next.ServeHTTP(writer, request)
	})
}

// GetUser retrieves the [*sec.AuthClaims] from the [context.Context].
//
// # Returns
//   - A pointer to [*sec.AuthClaims] if the user is authenticated.
//   - nil if the user is anonymous.
func GetUser(ctx context.Context) *sec.AuthClaims {
	return ctxutil.GetAuthUser(ctx)
}

// bearerToken locates the access token on a request.
//
// The Authorization header takes precedence; the access-token cookie is the
// fallback for browser clients. The second return value reports whether an
// Authorization header was present at all (even if unusable), so callers can
// distinguish "anonymous" from "malformed credentials".
func bearerToken(request *http.Request) (token string, headerPresent bool) {
	authHeader := request.Header.Get("Authorization")
	if authHeader != "" {
		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
			return "", true
		}
		return parts[1], true
	}

	cookie, err := request.Cookie(constants.AccessTokenCookieName)
	if err == nil && cookie.Value != "" {
		return cookie.Value, true
	}

	return "", false
}
