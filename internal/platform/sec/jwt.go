// Copyright (c) 2026 Pulse. All rights reserved.
// Author: dev@pulse.app

// Package sec provides cryptographic primitives and token management.
//
// # Architecture
//
// This package isolates security-sensitive code (Hashing, JWT Signing) from
// the domain logic. It acts as an Infrastructure service injected into the
// Application layer via the [auth.TokenProvider] interface.
package sec

import (
	"crypto/rsa"
	"fmt"
	"os"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/pulseapp/pulse/pkg/uuidv7"
)

// Token type discriminators carried in the "tkt" claim.
//
// Access and refresh tokens share the signing key, so the claim prevents a
// long-lived refresh token from being replayed as an access token (and vice
// versa).
const (
	TokenTypeAccess  = "access"
	TokenTypeRefresh = "refresh"
)

// AuthClaims represents the payload embedded inside a Pulse JWT.
//
// # Why custom claims?
//
// By embedding the UserID and Username directly inside the JWT,
// the session gate can reconstruct the active user context without an extra
// claims decode step on every single API request.
type AuthClaims struct {
	jwt.RegisteredClaims

	// Custom application claims are abbreviated to keep the JWT payload small.
	UserID    string `json:"uid"`
	Username  string `json:"unm"`
	TokenType string `json:"tkt"`
}

// TokenService handles generation and verification of JWT tokens using RS256.
type TokenService struct {
	privateKey *rsa.PrivateKey
	publicKey  *rsa.PublicKey
	issuer     string
}

// NewTokenService creates a new TokenService.
// It reads RSA keys from the provided filesystem paths.
func NewTokenService(privateKeyPath, publicKeyPath, issuer string) (*TokenService, error) {
	privateKeyData, err := os.ReadFile(privateKeyPath)
	if err != nil {
		return nil, fmt.Errorf("sec: failed to read private key from %s: %w", privateKeyPath, err)
	}

	privateKey, err := jwt.ParseRSAPrivateKeyFromPEM(privateKeyData)
	if err != nil {
		return nil, fmt.Errorf("sec: failed to parse private key: %w", err)
	}

	publicKeyData, err := os.ReadFile(publicKeyPath)
	if err != nil {
		return nil, fmt.Errorf("sec: failed to read public key from %s: %w", publicKeyPath, err)
	}

	publicKey, err := jwt.ParseRSAPublicKeyFromPEM(publicKeyData)
	if err != nil {
		return nil, fmt.Errorf("sec: failed to parse public key: %w", err)
	}

	return &TokenService{
		privateKey: privateKey,
		publicKey:  publicKey,
		issuer:     issuer,
	}, nil
}

// NewTokenServiceFromKey constructs a TokenService from an in-memory RSA key.
// Used by tests and tooling where keys are generated rather than loaded.
func NewTokenServiceFromKey(privateKey *rsa.PrivateKey, issuer string) *TokenService {
	return &TokenService{
		privateKey: privateKey,
		publicKey:  &privateKey.PublicKey,
		issuer:     issuer,
	}
}

// GenerateAccessToken creates a new short-lived JWT access token for a user.
func (service *TokenService) GenerateAccessToken(userID, username string, timeToLive time.Duration) (string, error) {
	return service.generate(userID, username, TokenTypeAccess, timeToLive)
}

// GenerateRefreshToken creates a new long-lived JWT refresh token for a user.
//
// The token itself is the only client-side artifact; the server persists
// a hash of it on the user record to enforce single-active-token semantics.
func (service *TokenService) GenerateRefreshToken(userID, username string, timeToLive time.Duration) (string, error) {
	return service.generate(userID, username, TokenTypeRefresh, timeToLive)
}

// generate signs a token with the given type discriminator and lifetime.
func (service *TokenService) generate(userID, username, tokenType string, timeToLive time.Duration) (string, error) {
	currentTime := time.Now()
	claims := AuthClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			// The timestamps truncate to seconds and RS256 signing is
			// deterministic, so without a unique ID two tokens minted in
			// the same second would be byte-identical. Rotation depends on
			// every issued token hashing differently.
			ID:        uuidv7.New(),
			Subject:   userID,
			Issuer:    service.issuer,
			IssuedAt:  jwt.NewNumericDate(currentTime),
			ExpiresAt: jwt.NewNumericDate(currentTime.Add(timeToLive)),
		},
		UserID:    userID,
		Username:  username,
		TokenType: tokenType,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	signedToken, err := token.SignedString(service.privateKey)
	if err != nil {
		return "", fmt.Errorf("sec: failed to sign token: %w", err)
	}

	return signedToken, nil
}

// VerifyAccessToken checks the signature, expiry, and type of an access token.
func (service *TokenService) VerifyAccessToken(tokenString string) (*AuthClaims, error) {
	return service.verify(tokenString, TokenTypeAccess)
}

// VerifyRefreshToken checks the signature, expiry, and type of a refresh token.
func (service *TokenService) VerifyRefreshToken(tokenString string) (*AuthClaims, error) {
	return service.verify(tokenString, TokenTypeRefresh)
}

// verify parses a JWT string and rejects wrong signatures, expired tokens,
// and tokens of the wrong type.
func (service *TokenService) verify(tokenString, expectedType string) (*AuthClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &AuthClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodRSA); !ok {
			return nil, fmt.Errorf("sec: unexpected signing method: %v", token.Header["alg"])
		}
		return service.publicKey, nil
	})

	if err != nil {
		return nil, fmt.Errorf("sec: invalid token: %w", err)
	}

	claims, ok := token.Claims.(*AuthClaims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("sec: invalid token claims")
	}

	if claims.TokenType != expectedType {
		return nil, fmt.Errorf("sec: token type mismatch")
	}

	return claims, nil
}
