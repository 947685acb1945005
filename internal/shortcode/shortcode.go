// Package shortcode generates the compact random identifiers that short
// links are addressed by.
package shortcode

import (
	"crypto/rand"
	"fmt"
)

// Length is the number of symbols in a generated code.
const Length = 6

// alphabet is URL-safe: no escaping needed when a code is used as a path
// segment.
const alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789-_"

// Generate returns a random code of Length symbols from the URL-safe
// alphabet.
func Generate() (string, error) {
	buf := make([]byte, Length)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("in internal/shortcode/shortcode.go/Generate(): error while `rand.Read()` calling: %w", err)
	}

	// len(alphabet) is 64, so masking the low six bits keeps the
	// distribution uniform.
	for i, b := range buf {
		buf[i] = alphabet[b&63]
	}

	return string(buf), nil
}
