package shortcode

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateShape(t *testing.T) {
	code, err := Generate()
	require.NoError(t, err)

	assert.Len(t, code, Length)
	for _, symbol := range code {
		assert.True(
			t,
			strings.ContainsRune(alphabet, symbol),
			"unexpected symbol %q in code %q", symbol, code,
		)
	}
}

func TestGenerateDoesNotCollideIn1000Trials(t *testing.T) {
	seen := make(map[string]bool, 1000)
	for i := 0; i < 1000; i++ {
		code, err := Generate()
		require.NoError(t, err)

		require.False(t, seen[code], "collision after %d trials: %q", i, code)
		seen[code] = true
	}
}
