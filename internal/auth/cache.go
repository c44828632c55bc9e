package auth

import (
	"crypto/sha256"
	"encoding/hex"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"docregistry/internal/domain/models"
)

// identityTTL bounds how long a verified identity is reused without
// re-parsing the token. Kept well under typical token lifetimes; a revoked
// key is honored within this window at worst.
const identityTTL = time.Minute

// CachingVerifier wraps a TokenVerifier with a short-lived cache keyed by
// token digest, so hot callers don't pay signature verification on every
// request. Failures are never cached.
type CachingVerifier struct {
	inner TokenVerifier
	cache *gocache.Cache
}

// NewCachingVerifier wraps inner with an identity cache.
func NewCachingVerifier(inner TokenVerifier) *CachingVerifier {
	return &CachingVerifier{
		inner: inner,
		cache: gocache.New(identityTTL, 5*time.Minute),
	}
}

// VerifyToken returns the cached identity for the token when present,
// delegating to the wrapped verifier otherwise.
func (v *CachingVerifier) VerifyToken(tokenString string) (models.Identity, error) {
	key := tokenDigest(tokenString)

	if cached, ok := v.cache.Get(key); ok {
		return cached.(models.Identity), nil
	}

	identity, err := v.inner.VerifyToken(tokenString)
	if err != nil {
		return models.Identity{}, err
	}

	v.cache.Set(key, identity, gocache.DefaultExpiration)
	return identity, nil
}

// Close closes the wrapped verifier.
func (v *CachingVerifier) Close() error {
	return v.inner.Close()
}

// tokenDigest keys the cache without retaining raw bearer tokens in memory.
func tokenDigest(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
