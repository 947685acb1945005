// Package hasher turns plaintext passwords into salted, verifiable digests.
// The digest is an HMAC-SHA256 of the password keyed by a random salt;
// verification recomputes the digest and compares it in constant time.
package hasher

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// SaltLength is the number of random bytes drawn for a fresh salt.
const SaltLength = 16

// Hash computes the digest of password keyed by salt. When salt is omitted
// a cryptographically random one is generated. Both return values are
// hex-encoded.
func Hash(password string, salt ...string) (digest string, usedSalt string, err error) {
	switch len(salt) {
	case 0:
		usedSalt, err = newSalt()
		if err != nil {
			return "", "", err
		}
	case 1:
		usedSalt = salt[0]
	default:
		return "", "", fmt.Errorf("hasher: expected at most one salt, got %d", len(salt))
	}

	mac := hmac.New(sha256.New, []byte(usedSalt))
	mac.Write([]byte(password))

	return hex.EncodeToString(mac.Sum(nil)), usedSalt, nil
}

// Verify reports whether password hashed with salt matches digest.
// The comparison is constant-time.
func Verify(password, salt, digest string) bool {
	candidate, _, err := Hash(password, salt)
	if err != nil {
		return false
	}

	return hmac.Equal([]byte(candidate), []byte(digest))
}

func newSalt() (string, error) {
	buf := make([]byte, SaltLength)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("hasher: unable to read random source: %w", err)
	}

	return hex.EncodeToString(buf), nil
}
