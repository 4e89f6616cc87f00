package auth

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
)

var _ SecretGenerator = (*RandomHexGenerator)(nil)

// SecretGenerator produces the single-use codes mailed for verification and reset.
type SecretGenerator interface {
	Generate() (string, error)
}

type RandomHexGenerator struct {
	size int
}

// NewRandomHexGenerator returns a generator of size random bytes; sizes below 20 are raised to 32.
func NewRandomHexGenerator(size int) *RandomHexGenerator {
	if size < 20 {
		size = 32
	}
	return &RandomHexGenerator{size: size}
}

func (g *RandomHexGenerator) Generate() (string, error) {
	b := make([]byte, g.size)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("read random bytes: %w", err)
	}
	return hex.EncodeToString(b), nil
}

func secretsEqual(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}
