package random

import (
	"crypto/rand"
	"encoding/base64"

	"github.com/mcoot/bingopot/internal/model"
)

// Random supplies unpredictable values and can be mocked for testing
type Random interface {
	// NextSeed returns a fresh 32-byte seed, consumed once per board generation or draw
	NextSeed() model.Seed

	// Token returns a URL-safe random string carrying n bytes of entropy
	Token(n int) string
}

// CryptoRandom implements Random using crypto/rand
type CryptoRandom struct{}

// New creates a new CryptoRandom
func New() *CryptoRandom {
	return &CryptoRandom{}
}

// NextSeed reads 32 bytes from crypto/rand
func (r *CryptoRandom) NextSeed() model.Seed {
	var s model.Seed
	// crypto/rand.Read never returns an error on supported platforms
	_, _ = rand.Read(s[:])
	return s
}

// Token generates a base64url string from n random bytes
func (r *CryptoRandom) Token(n int) string {
	if n <= 0 {
		return ""
	}
	b := make([]byte, n)
	_, _ = rand.Read(b)
	return base64.RawURLEncoding.EncodeToString(b)
}
