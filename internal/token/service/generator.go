// Package service provides the random source for user tokens.
package service

import (
	"crypto/rand"
	"encoding/base64"
	"io"

	apperrors "github.com/allisson/usertokens/internal/errors"
)

// defaultTokenBytes is the entropy of a generated token (256 bits).
const defaultTokenBytes = 32

// Generator produces unguessable token values. Implementations own uniqueness and entropy.
type Generator interface {
	GenerateRandomToken() (string, error)
}

// randomGenerator implements Generator over a cryptographic random source.
type randomGenerator struct {
	source io.Reader
	size   int
}

// GenerateRandomToken reads size random bytes and returns them base64 URL-encoded
// without padding, so the value is safe in URLs and e-mail links.
func (g *randomGenerator) GenerateRandomToken() (string, error) {
	randomBytes := make([]byte, g.size)
	if _, err := io.ReadFull(g.source, randomBytes); err != nil {
		return "", apperrors.Wrap(err, "failed to generate random token")
	}
	return base64.RawURLEncoding.EncodeToString(randomBytes), nil
}

// NewGenerator returns a Generator backed by crypto/rand producing 32-byte tokens.
func NewGenerator() Generator {
	return &randomGenerator{source: rand.Reader, size: defaultTokenBytes}
}

// NewGeneratorWithSource returns a Generator reading size bytes from source.
// Intended for tests and deterministic fixtures.
func NewGeneratorWithSource(source io.Reader, size int) Generator {
	if size <= 0 {
		size = defaultTokenBytes
	}
	return &randomGenerator{source: source, size: size}
}
