package auth

import "docregistry/internal/domain/models"

// TokenVerifier resolves a bearer token into a caller identity.
// This abstraction keeps the middleware agnostic to the verification details
// and lets tests substitute a static verifier.
type TokenVerifier interface {
	// VerifyToken validates a token string and returns the caller identity.
	// Returns an error if the token is invalid, expired, or has an invalid
	// signature.
	VerifyToken(tokenString string) (models.Identity, error)

	// Close releases any resources held by the verifier.
	Close() error
}
