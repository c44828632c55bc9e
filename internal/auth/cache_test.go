package auth

import (
	"errors"
	"testing"

	"docregistry/internal/domain"
	"docregistry/internal/domain/models"
)

// countingVerifier records how often each token reaches the real verifier.
type countingVerifier struct {
	calls map[string]int
}

func (v *countingVerifier) VerifyToken(tokenString string) (models.Identity, error) {
	v.calls[tokenString]++
	if tokenString == "bad" {
		return models.Identity{}, domain.ErrUnauthorized
	}
	return models.Identity{Username: "user-" + tokenString}, nil
}

func (v *countingVerifier) Close() error { return nil }

func TestCachingVerifierReusesIdentities(t *testing.T) {
	inner := &countingVerifier{calls: map[string]int{}}
	verifier := NewCachingVerifier(inner)

	for i := 0; i < 3; i++ {
		identity, err := verifier.VerifyToken("tok1")
		if err != nil {
			t.Fatalf("VerifyToken() failed: %v", err)
		}
		if identity.Username != "user-tok1" {
			t.Errorf("unexpected identity %q", identity.Username)
		}
	}

	if inner.calls["tok1"] != 1 {
		t.Errorf("inner verifier called %d times, want 1", inner.calls["tok1"])
	}

	// Distinct tokens get distinct cache entries
	if _, err := verifier.VerifyToken("tok2"); err != nil {
		t.Fatalf("VerifyToken() failed: %v", err)
	}
	if inner.calls["tok2"] != 1 {
		t.Errorf("inner verifier called %d times for tok2, want 1", inner.calls["tok2"])
	}
}

func TestCachingVerifierNeverCachesFailures(t *testing.T) {
	inner := &countingVerifier{calls: map[string]int{}}
	verifier := NewCachingVerifier(inner)

	for i := 0; i < 2; i++ {
		if _, err := verifier.VerifyToken("bad"); !errors.Is(err, domain.ErrUnauthorized) {
			t.Fatalf("expected unauthorized, got %v", err)
		}
	}

	if inner.calls["bad"] != 2 {
		t.Errorf("failures must not be cached, inner called %d times", inner.calls["bad"])
	}
}
