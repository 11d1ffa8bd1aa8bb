// Package crypto implements server-side password hashing and token generation.
package crypto

import (
	"crypto/rand"
	"crypto/sha512"
	"crypto/subtle"
	"encoding/hex"

	"golang.org/x/crypto/pbkdf2"
)

// PBKDF2 parameters. The derived key is stored hex-encoded, so every stored
// hash has uniform length and direct comparison does not leak length.
const (
	pbkdf2Iter   = 100000
	pbkdf2KeyLen = 64
	saltLen      = 16
)

// RandBytes returns n cryptographically secure random bytes.
func RandBytes(n int) ([]byte, error) {
	b := make([]byte, n)
	_, err := rand.Read(b)
	return b, err
}

// NewToken returns a hex-encoded random token of nbits entropy.
// Used for session ids (256 bits) and CSRF tokens.
func NewToken(nbits int) (string, error) {
	b, err := RandBytes(nbits / 8)
	if err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// NewSalt returns a fresh hex-encoded per-user salt.
func NewSalt() (string, error) {
	b, err := RandBytes(saltLen)
	if err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// HashPassword derives a hex-encoded PBKDF2-SHA512 key from the password and
// a hex-encoded salt.
func HashPassword(password, saltHex string) string {
	salt, err := hex.DecodeString(saltHex)
	if err != nil {
		// salts are produced by NewSalt; a bad one means corrupt storage,
		// hash over the raw bytes so verification still fails closed
		salt = []byte(saltHex)
	}
	key := pbkdf2.Key([]byte(password), salt, pbkdf2Iter, pbkdf2KeyLen, sha512.New)
	return hex.EncodeToString(key)
}

// VerifyPassword verifies password against the stored salt and hash in
// constant time.
func VerifyPassword(password, saltHex, expectedHex string) bool {
	got := HashPassword(password, saltHex)
	return subtle.ConstantTimeCompare([]byte(got), []byte(expectedHex)) == 1
}
