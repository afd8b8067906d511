// Package password derives salts and salted digests for stored credentials.
package password

import (
	"crypto/subtle"
	"encoding/hex"

	"github.com/google/uuid"
	"golang.org/x/crypto/argon2"
)

// argon2id parameters (RFC 9106 second recommendation, reduced memory).
const (
	argonTime    = 1
	argonMemory  = 19 * 1024
	argonThreads = 1
	argonKeyLen  = 32
)

// MakeSalt returns a fresh salt. UUIDv7 mixes a millisecond timestamp with
// 74 random bits, so two calls never collide in practice.
func MakeSalt() string {
	return uuid.Must(uuid.NewV7()).String()
}

// Hash derives the hex digest of password keyed by salt.
// An empty password yields an empty digest.
func Hash(password, salt string) string {
	if password == "" {
		return ""
	}
	key := argon2.IDKey([]byte(password), []byte(salt), argonTime, argonMemory, argonThreads, argonKeyLen)
	return hex.EncodeToString(key)
}

// Authenticate reports whether plain hashes to stored under salt.
func Authenticate(plain, salt, stored string) bool {
	if stored == "" {
		return false
	}
	computed := Hash(plain, salt)
	return subtle.ConstantTimeCompare([]byte(computed), []byte(stored)) == 1
}
