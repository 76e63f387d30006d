package crypto

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
)

// ErrUnknownHashAlgorithm is returned when a stored hash carries an algorithm
// tag this build does not support. Unlike a malformed hash, this is a
// configuration problem the caller must not swallow.
var ErrUnknownHashAlgorithm = errors.New("unknown password hash algorithm")

const (
	argon2Algorithm = "argon2id"
	argon2Time      = 3
	argon2Memory    = 64 * 1024 // KiB
	argon2Threads   = 1
	argon2KeyLen    = 32
	argon2SaltLen   = 16
)

var randomRead = rand.Read

// HashPassword derives an argon2id hash with a fresh random salt and encodes
// it in the PHC string format: $argon2id$v=19$m=...,t=...,p=...$salt$hash
func HashPassword(password string) (string, error) {
	salt := make([]byte, argon2SaltLen)
	if _, err := randomRead(salt); err != nil {
		return "", fmt.Errorf("failed to generate salt: %w", err)
	}

	key := argon2.IDKey([]byte(password), salt, argon2Time, argon2Memory, argon2Threads, argon2KeyLen)

	encoded := fmt.Sprintf("$%s$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2Algorithm,
		argon2.Version,
		argon2Memory,
		argon2Time,
		argon2Threads,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key),
	)
	return encoded, nil
}

// VerifyPassword re-derives the key with the stored salt and parameters and
// compares in constant time. A malformed stored hash fails closed (false, nil);
// an unrecognized algorithm tag returns ErrUnknownHashAlgorithm.
func VerifyPassword(password, stored string) (bool, error) {
	parts := strings.Split(stored, "$")
	if len(parts) != 6 || parts[0] != "" {
		return false, nil
	}
	if parts[1] != argon2Algorithm {
		return false, ErrUnknownHashAlgorithm
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil || version != argon2.Version {
		return false, nil
	}

	var memory, timeCost uint32
	var threads uint8
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &memory, &timeCost, &threads); err != nil {
		return false, nil
	}
	if memory == 0 || timeCost == 0 || threads == 0 {
		return false, nil
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return false, nil
	}
	expected, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil || len(expected) == 0 {
		return false, nil
	}

	key := argon2.IDKey([]byte(password), salt, timeCost, memory, threads, uint32(len(expected)))
	return subtle.ConstantTimeCompare(key, expected) == 1, nil
}
