package registry

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

// TokenAlphabet is the fixed symbol set for document ids and room tokens. It
// deliberately excludes characters that are easy to misread for one another:
// no 0/O, no 1/l/i, and none of the letters a, g, o, s, u, z, b, q that blur
// into digits in common fonts. 21 symbols remain.
const TokenAlphabet = "34789cdefhjkmnprtvwxy"

// Token length bounds for GenerateID requests.
const (
	MinTokenLength     = 1
	MaxTokenLength     = 128
	DefaultTokenLength = 16
)

// NewToken draws length characters independently and uniformly from
// TokenAlphabet using a cryptographically secure source. Room tokens act as
// unguessable capability tokens for session access, so a non-crypto source is
// not acceptable here.
func NewToken(length int) (string, error) {
	if length < MinTokenLength || length > MaxTokenLength {
		return "", fmt.Errorf("token length %d out of range [%d, %d]", length, MinTokenLength, MaxTokenLength)
	}

	alphabetSize := big.NewInt(int64(len(TokenAlphabet)))
	buf := make([]byte, length)
	for i := range buf {
		n, err := rand.Int(rand.Reader, alphabetSize)
		if err != nil {
			return "", fmt.Errorf("read random source: %w", err)
		}
		buf[i] = TokenAlphabet[n.Int64()]
	}

	return string(buf), nil
}
