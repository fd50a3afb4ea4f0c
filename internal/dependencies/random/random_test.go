package random

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNextSeedVaries(t *testing.T) {
	r := New()
	a := r.NextSeed()
	b := r.NextSeed()
	assert.NotEqual(t, a, b)
}

func TestTokenLength(t *testing.T) {
	r := New()
	assert.Len(t, r.Token(16), 22)
	assert.Empty(t, r.Token(0))
}
