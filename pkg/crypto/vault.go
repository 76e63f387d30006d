package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
)

var (
	// ErrDecryptFailed is returned when authenticated decryption fails,
	// either because the blob was tampered with or the key is wrong.
	ErrDecryptFailed = errors.New("decryption failed")
	// ErrInvalidKeySize is returned for keys that are not 32 bytes.
	ErrInvalidKeySize = errors.New("encryption key must be 32 bytes")
)

var randReader io.Reader = rand.Reader

// EncryptSecret authenticated-encrypts plaintext with AES-256-GCM using a
// fresh random nonce and returns hex(nonce || ciphertext) as one blob.
func EncryptSecret(plaintext string, key []byte) (string, error) {
	if len(key) != 32 {
		return "", ErrInvalidKeySize
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return "", err
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", err
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(randReader, nonce); err != nil {
		return "", fmt.Errorf("failed to generate nonce: %w", err)
	}

	ciphertext := gcm.Seal(nonce, nonce, []byte(plaintext), nil)
	return hex.EncodeToString(ciphertext), nil
}

// DecryptSecret reverses EncryptSecret. Tampered data or a wrong key yields
// ErrDecryptFailed; partial plaintext is never returned.
func DecryptSecret(blob string, key []byte) (string, error) {
	if len(key) != 32 {
		return "", ErrInvalidKeySize
	}

	data, err := hex.DecodeString(blob)
	if err != nil {
		return "", ErrDecryptFailed
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return "", err
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", err
	}

	if len(data) < gcm.NonceSize() {
		return "", ErrDecryptFailed
	}

	nonce, ciphertext := data[:gcm.NonceSize()], data[gcm.NonceSize():]
	plaintext, err := gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return "", ErrDecryptFailed
	}
	return string(plaintext), nil
}

// HMACSign computes the hex-encoded HMAC-SHA256 of message.
func HMACSign(message []byte, secret string) string {
	h := hmac.New(sha256.New, []byte(secret))
	h.Write(message)
	return hex.EncodeToString(h.Sum(nil))
}

// HMACVerify checks a supplied hex signature against a freshly computed one.
// Malformed or length-mismatched signatures fail closed.
func HMACVerify(message []byte, signature, secret string) bool {
	if signature == "" {
		return false
	}
	supplied, err := hex.DecodeString(signature)
	if err != nil {
		return false
	}
	h := hmac.New(sha256.New, []byte(secret))
	h.Write(message)
	return hmac.Equal(h.Sum(nil), supplied)
}

// SHA256Hex returns the hex SHA-256 of value. Used only for deterministic,
// non-secret lookup keys (session token hashes, API key hashes).
func SHA256Hex(value string) string {
	sum := sha256.Sum256([]byte(value))
	return hex.EncodeToString(sum[:])
}

// RandomID generates a cryptographically secure random hex identifier of
// byteLength random bytes (2*byteLength hex characters).
func RandomID(byteLength int) (string, error) {
	buf := make([]byte, byteLength)
	if _, err := randomRead(buf); err != nil {
		return "", fmt.Errorf("failed to generate random id: %w", err)
	}
	return hex.EncodeToString(buf), nil
}
