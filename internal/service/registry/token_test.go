package registry

import (
	"strings"
	"testing"

	"pgregory.net/rapid"
)

func TestNewTokenLengthBounds(t *testing.T) {
	tests := []struct {
		name    string
		length  int
		wantErr bool
	}{
		{name: "below minimum", length: 0, wantErr: true},
		{name: "negative", length: -1, wantErr: true},
		{name: "minimum", length: 1, wantErr: false},
		{name: "default", length: 16, wantErr: false},
		{name: "maximum", length: 128, wantErr: false},
		{name: "above maximum", length: 129, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			token, err := NewToken(tt.length)

			if tt.wantErr {
				if err == nil {
					t.Errorf("NewToken(%d) expected error, got token %q", tt.length, token)
				}
				return
			}

			if err != nil {
				t.Errorf("NewToken(%d) unexpected error: %v", tt.length, err)
				return
			}

			if len(token) != tt.length {
				t.Errorf("NewToken(%d) returned %d characters", tt.length, len(token))
			}
		})
	}
}

func TestTokenAlphabetExcludesAmbiguousSymbols(t *testing.T) {
	if len(TokenAlphabet) != 21 {
		t.Fatalf("alphabet has %d symbols, want 21", len(TokenAlphabet))
	}

	for _, banned := range "0O1liagosuzbq" {
		if strings.ContainsRune(TokenAlphabet, banned) {
			t.Errorf("alphabet contains ambiguous symbol %q", banned)
		}
	}

	// No symbol appears twice
	seen := map[rune]bool{}
	for _, r := range TokenAlphabet {
		if seen[r] {
			t.Errorf("alphabet repeats symbol %q", r)
		}
		seen[r] = true
	}
}

func TestNewTokenProperties(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		length := rapid.IntRange(MinTokenLength, MaxTokenLength).Draw(t, "length")

		token, err := NewToken(length)
		if err != nil {
			t.Fatalf("NewToken(%d) failed: %v", length, err)
		}

		if len(token) != length {
			t.Fatalf("NewToken(%d) returned %d characters", length, len(token))
		}

		for _, r := range token {
			if !strings.ContainsRune(TokenAlphabet, r) {
				t.Fatalf("token %q contains %q outside the alphabet", token, r)
			}
		}
	})
}
