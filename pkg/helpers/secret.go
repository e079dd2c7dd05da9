package helpers

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
)

// GenVerificationToken returns a 256-bit random secret, hex-encoded.
// It is stored as-is and compared by equality on lookup.
func GenVerificationToken() (string, error) {
	return randomHex(32)
}

// GenResetSecret returns a 64-bit random secret, hex-encoded. Short enough
// to be typed from an email; only its digest is ever persisted.
func GenResetSecret() (string, error) {
	return randomHex(8)
}

// HashResetSecret digests a reset secret for storage and lookup.
func HashResetSecret(secret string) string {
	sum := sha256.Sum256([]byte(secret))
	return hex.EncodeToString(sum[:])
}

func randomHex(n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
