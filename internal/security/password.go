package security

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"strings"

	"golang.org/x/crypto/scrypt"
)

// scrypt parameters matching the hashes already in the users collection
// (salt:derivedhex, 64-byte key). Changing these breaks existing records.
const (
	scryptN      = 32768
	scryptR      = 8
	scryptP      = 1
	scryptKeyLen = 64
	saltLen      = 16
)

var ErrMalformedHash = errors.New("malformed password hash")

// HashPassword derives an scrypt hash with a fresh random salt and encodes it
// as "salt:derivedhex".
func HashPassword(plain string) (string, error) {
	salt := make([]byte, saltLen)

	_, err := rand.Read(salt)

	if err != nil {
		return "", err
	}

	derived, err := scrypt.Key([]byte(plain), []byte(hex.EncodeToString(salt)), scryptN, scryptR, scryptP, scryptKeyLen)

	if err != nil {
		return "", err
	}

	return hex.EncodeToString(salt) + ":" + hex.EncodeToString(derived), nil
}

// CheckPassword re-derives the key for the stored salt and compares the raw
// derived bytes in constant time.
func CheckPassword(stored, plain string) error {
	salt, wantHex, ok := strings.Cut(stored, ":")

	if !ok || salt == "" || wantHex == "" {
		return ErrMalformedHash
	}

	want, err := hex.DecodeString(wantHex)

	if err != nil {
		return ErrMalformedHash
	}

	got, err := scrypt.Key([]byte(plain), []byte(salt), scryptN, scryptR, scryptP, len(want))

	if err != nil {
		return err
	}

	if subtle.ConstantTimeCompare(got, want) != 1 {
		return errors.New("password mismatch")
	}

	return nil
}
