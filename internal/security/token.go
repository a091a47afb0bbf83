package security

import (
	"crypto/rand"
	"encoding/hex"
)

const sessionTokenBytes = 24

// NewSessionToken mints an opaque bearer token: 24 bytes of entropy, hex
// encoded. Resolution is by exact equality against the stored session field.
func NewSessionToken() (string, error) {
	b := make([]byte, sessionTokenBytes)

	_, err := rand.Read(b)

	if err != nil {
		return "", err
	}

	return hex.EncodeToString(b), nil
}
