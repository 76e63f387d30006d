package crypto

import (
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testKey = mustKey("00112233445566778899aabbccddeeff00112233445566778899aabbccddeeff")

func mustKey(h string) []byte {
	key, err := hex.DecodeString(h)
	if err != nil {
		panic(err)
	}
	return key
}

func TestEncryptSecret_RoundTrip(t *testing.T) {
	for _, plaintext := range []string{"", "a", "device-push-token-abc123", "payload with spaces and \x00 bytes"} {
		blob, err := EncryptSecret(plaintext, testKey)
		require.NoError(t, err)

		got, err := DecryptSecret(blob, testKey)
		require.NoError(t, err)
		assert.Equal(t, plaintext, got)
	}
}

func TestEncryptSecret_FreshNonce(t *testing.T) {
	b1, err := EncryptSecret("secret", testKey)
	require.NoError(t, err)
	b2, err := EncryptSecret("secret", testKey)
	require.NoError(t, err)
	assert.NotEqual(t, b1, b2)
}

func TestDecryptSecret_TamperedBlobFails(t *testing.T) {
	blob, err := EncryptSecret("secret", testKey)
	require.NoError(t, err)

	// Flip the last nibble of the ciphertext.
	tampered := []byte(blob)
	if tampered[len(tampered)-1] == 'a' {
		tampered[len(tampered)-1] = 'b'
	} else {
		tampered[len(tampered)-1] = 'a'
	}

	_, err = DecryptSecret(string(tampered), testKey)
	assert.ErrorIs(t, err, ErrDecryptFailed)
}

func TestDecryptSecret_WrongKeyFails(t *testing.T) {
	blob, err := EncryptSecret("secret", testKey)
	require.NoError(t, err)

	other := mustKey("ffeeddccbbaa99887766554433221100ffeeddccbbaa99887766554433221100")
	_, err = DecryptSecret(blob, other)
	assert.ErrorIs(t, err, ErrDecryptFailed)
}

func TestDecryptSecret_MalformedBlobs(t *testing.T) {
	for _, blob := range []string{"", "zz not hex", "abcd"} {
		_, err := DecryptSecret(blob, testKey)
		assert.ErrorIs(t, err, ErrDecryptFailed, "blob=%q", blob)
	}
}

func TestEncryptSecret_BadKeySize(t *testing.T) {
	_, err := EncryptSecret("x", []byte("short"))
	assert.ErrorIs(t, err, ErrInvalidKeySize)
	_, err = DecryptSecret("abcd", []byte("short"))
	assert.ErrorIs(t, err, ErrInvalidKeySize)
}

func TestHMACSignVerify(t *testing.T) {
	body := []byte(`{"input":"hello"}`)
	sig := HMACSign(body, "webhook-secret")

	assert.True(t, HMACVerify(body, sig, "webhook-secret"))
	assert.False(t, HMACVerify([]byte(`{"input":"hellO"}`), sig, "webhook-secret"))
	assert.False(t, HMACVerify(body, sig, "other-secret"))
	assert.False(t, HMACVerify(body, sig[:len(sig)-2], "webhook-secret"))
	assert.False(t, HMACVerify(body, "not hex!", "webhook-secret"))
	assert.False(t, HMACVerify(body, "", "webhook-secret"))
}

func TestSHA256Hex(t *testing.T) {
	// Deterministic lookup key, must match the standard digest.
	assert.Equal(t,
		"2cf24dba5fb0a30e26e83b2ac5b9e29e1b161e5c1fa7425e73043362938b9824",
		SHA256Hex("hello"))
	assert.Equal(t, SHA256Hex("token"), SHA256Hex("token"))
}

func TestRandomID(t *testing.T) {
	id, err := RandomID(32)
	require.NoError(t, err)
	assert.Len(t, id, 64)
	_, err = hex.DecodeString(id)
	assert.NoError(t, err)

	other, err := RandomID(32)
	require.NoError(t, err)
	assert.NotEqual(t, id, other)
}
