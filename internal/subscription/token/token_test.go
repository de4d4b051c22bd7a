package token_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bulletin/internal/subscription/token"
)

func TestGenerateLengthAndAlphabet(t *testing.T) {
	for i := 0; i < 100; i++ {
		tok, err := token.Generate()
		require.NoError(t, err)
		require.Len(t, tok, token.Length)
		for _, r := range tok {
			isAlnum := (r >= 'A' && r <= 'Z') || (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9')
			assert.True(t, isAlnum, "token %q contains non-alphanumeric %q", tok, r)
		}
	}
}

func TestGenerateDoesNotRepeat(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 1000; i++ {
		tok, err := token.Generate()
		require.NoError(t, err)
		require.False(t, seen[tok], "token %q generated twice", tok)
		seen[tok] = true
	}
}

func TestGenerateUsesBothCases(t *testing.T) {
	// Tokens are case-sensitive; across a sample all three character
	// classes should appear.
	var upper, lower, digit bool
	for i := 0; i < 50 && !(upper && lower && digit); i++ {
		tok, err := token.Generate()
		require.NoError(t, err)
		for _, r := range tok {
			switch {
			case r >= 'A' && r <= 'Z':
				upper = true
			case r >= 'a' && r <= 'z':
				lower = true
			case r >= '0' && r <= '9':
				digit = true
			}
		}
	}
	assert.True(t, upper, "expected at least one uppercase character in sample")
	assert.True(t, lower, "expected at least one lowercase character in sample")
	assert.True(t, digit, "expected at least one digit in sample")
}
