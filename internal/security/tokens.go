package security

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
)

// verificationTokenBytes gives 256 bits of randomness per token.
const verificationTokenBytes = 32

// RandomTokenGenerator produces email verification tokens.
type RandomTokenGenerator struct{}

// Generate returns a hex-encoded random token.
func (RandomTokenGenerator) Generate() (string, error) {
	b := make([]byte, verificationTokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("read random bytes: %w", err)
	}
	return hex.EncodeToString(b), nil
}
