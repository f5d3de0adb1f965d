package utils // package utils provides helper functions for token creation and hashing

import (
	"crypto/rand"  // secure random number generation
	"encoding/hex" // hex encoding of random bytes
)

// NewSessionToken returns an opaque session identifier generated from 32
// bytes of cryptographically secure random data, hex encoded (64 characters).
// The token carries no claims; it is only meaningful while the matching
// value is stored on the user row, so clearing the row at logout revokes
// it immediately.
func NewSessionToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
