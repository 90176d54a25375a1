package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
)

// PKCE parameters per RFC 7636.
const (
	MethodS256 = "S256"

	// VerifierLength is the verifier length used for every authorization
	// attempt; RFC 7636 allows 43-128.
	VerifierLength = 128

	minVerifierLength = 43
	maxVerifierLength = 128
)

const verifierAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"

// GenerateVerifier draws length cryptographically secure random bytes and
// maps each onto the 62-character verifier alphabet.
func GenerateVerifier(length int) (string, error) {
	if length < minVerifierLength || length > maxVerifierLength {
		return "", fmt.Errorf("verifier length %d outside [%d, %d]", length, minVerifierLength, maxVerifierLength)
	}

	buf := make([]byte, length)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to read random bytes: %w", err)
	}

	out := make([]byte, length)
	for i, b := range buf {
		out[i] = verifierAlphabet[int(b)%len(verifierAlphabet)]
	}

	return string(out), nil
}

// DeriveChallenge computes the S256 code challenge for a verifier:
// base64url(SHA-256(verifier)) without padding.
func DeriveChallenge(verifier string) string {
	digest := sha256.Sum256([]byte(verifier))
	return base64.RawURLEncoding.EncodeToString(digest[:])
}
