package usecases

import (
	"fmt"
	"time"

	"shortcut-relay.backend/pkg/crypto"
)

// webhookIDBytes gives 256 bits of entropy for public webhook identifiers.
const webhookIDBytes = 32

// WebhookIDStrategy produces public webhook identifiers.
type WebhookIDStrategy interface {
	Generate(deviceSecretHash, shortcutID string, now time.Time) (string, error)
}

// RandomIDStrategy is the default strategy: full-entropy random identifiers
// with no relationship to the device or shortcut.
type RandomIDStrategy struct{}

func (RandomIDStrategy) Generate(_, _ string, _ time.Time) (string, error) {
	return crypto.RandomID(webhookIDBytes)
}

// LegacyDerivedIDStrategy reproduces the old derived scheme,
// sha256(secretHash:shortcutId:timestamp). Its identifiers are guessable by
// anyone who knows the inputs, so it exists only to recognize rows created
// under the old scheme during migration. New webhooks must never use it, and
// recognized legacy identifiers get a forced rotation.
type LegacyDerivedIDStrategy struct{}

func (LegacyDerivedIDStrategy) Generate(deviceSecretHash, shortcutID string, now time.Time) (string, error) {
	return crypto.SHA256Hex(fmt.Sprintf("%s:%s:%d", deviceSecretHash, shortcutID, now.Unix())), nil
}
