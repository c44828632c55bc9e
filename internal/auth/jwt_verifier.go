package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/MicahParks/keyfunc/v3"
	"github.com/golang-jwt/jwt/v5"

	"docregistry/internal/domain"
	"docregistry/internal/domain/models"
)

// JWKSVerifier implements TokenVerifier using keys fetched from a JWKS
// endpoint. The admin directory supplements token claims: a caller is an
// admin if either the token says so or the directory lists the username.
type JWKSVerifier struct {
	jwks   keyfunc.Keyfunc
	admins *AdminDirectory
	logger *slog.Logger
}

// NewJWKSVerifier creates a verifier that fetches public keys from the given
// JWKS endpoint. Keys are cached and refreshed by keyfunc based on HTTP cache
// headers.
func NewJWKSVerifier(jwksURL string, admins *AdminDirectory, logger *slog.Logger) (TokenVerifier, error) {
	if jwksURL == "" {
		return nil, errors.New("JWKS URL cannot be empty")
	}

	ctx := context.Background()
	jwks, err := keyfunc.NewDefaultCtx(ctx, []string{jwksURL})
	if err != nil {
		return nil, fmt.Errorf("create JWKS client: %w", err)
	}

	logger.Info("JWT verifier initialized", "jwks_url", jwksURL)

	return &JWKSVerifier{
		jwks:   jwks,
		admins: admins,
		logger: logger,
	}, nil
}

// VerifyToken validates a JWT and extracts the caller identity.
func (v *JWKSVerifier) VerifyToken(tokenString string) (models.Identity, error) {
	token, err := jwt.ParseWithClaims(tokenString, &models.RegistryClaims{}, v.jwks.Keyfunc)
	if err != nil {
		v.logger.Debug("token parse failed", "error", err)
		return models.Identity{}, domain.ErrUnauthorized
	}

	if !token.Valid {
		return models.Identity{}, domain.ErrUnauthorized
	}

	// Prevent algorithm confusion attacks - allow only RS256 or ES256
	switch token.Method.Alg() {
	case "RS256", "ES256":
		// allowed
	default:
		v.logger.Warn("token uses unexpected algorithm", "algorithm", token.Method.Alg())
		return models.Identity{}, domain.ErrUnauthorized
	}

	claims, ok := token.Claims.(*models.RegistryClaims)
	if !ok {
		return models.Identity{}, domain.ErrUnauthorized
	}

	// A token without a subject resolves to no identity at all
	if claims.Subject == "" {
		v.logger.Debug("token missing subject claim")
		return models.Identity{}, domain.ErrUnauthorized
	}

	identity := claims.Identity()
	if !identity.Admin && v.admins.IsAdmin(identity.Username) {
		identity.Admin = true
	}

	return identity, nil
}

// Close releases resources held by the verifier. keyfunc manages its own
// refresh lifecycle, so this is a no-op kept for interface symmetry.
func (v *JWKSVerifier) Close() error {
	return nil
}
