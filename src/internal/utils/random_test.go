package utils

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGeneratePassword(t *testing.T) {
	t.Run("enforces minimum length", func(t *testing.T) {
		pw, err := GeneratePassword(4)
		require.NoError(t, err)
		assert.Len(t, pw, MinPasswordLength)
	})

	t.Run("contains every character class", func(t *testing.T) {
		for i := 0; i < 20; i++ {
			pw, err := GeneratePassword(16)
			require.NoError(t, err)
			assert.Len(t, pw, 16)
			assert.True(t, strings.ContainsAny(pw, lowerChars), pw)
			assert.True(t, strings.ContainsAny(pw, upperChars), pw)
			assert.True(t, strings.ContainsAny(pw, digitChars), pw)
			assert.True(t, strings.ContainsAny(pw, symbolChars), pw)
		}
	})

	t.Run("differs between calls", func(t *testing.T) {
		a, err := GeneratePassword(20)
		require.NoError(t, err)
		b, err := GeneratePassword(20)
		require.NoError(t, err)
		assert.NotEqual(t, a, b)
	})
}
