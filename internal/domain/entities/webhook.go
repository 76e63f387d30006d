package entities

import (
	"time"

	"github.com/google/uuid"
	"github.com/volatiletech/null/v8"
)

// Webhook is a trigger endpoint bound to one shortcut on one device. The
// public identifier is a high-entropy random value; the optional secret is the
// HMAC key for payload signatures, stored encrypted.
type Webhook struct {
	ID              uuid.UUID   `json:"id"`
	PublicID        string      `json:"webhookId"`
	DeviceID        uuid.UUID   `json:"deviceId"`
	UserID          uuid.UUID   `json:"userId"`
	ShortcutID      string      `json:"shortcutId"`
	ShortcutName    string      `json:"shortcutName"`
	SecretEncrypted null.String `json:"-"`
	ExpiresAt       null.Time   `json:"expiresAt,omitempty"`
	MaxUses         null.Int64  `json:"maxUses,omitempty"`
	AllowedIPs      []string    `json:"allowedIps"`
	TriggerCount    int64       `json:"triggerCount"`
	LastTriggeredAt null.Time   `json:"lastTriggeredAt,omitempty"`
	IsActive        bool        `json:"isActive"`
	CreatedAt       time.Time   `json:"createdAt"`
	UpdatedAt       time.Time   `json:"updatedAt"`

	Device *Device `json:"device,omitempty"`
}

// HasSecret reports whether payload signatures are mandatory for this webhook.
func (w *Webhook) HasSecret() bool {
	return w.SecretEncrypted.Valid && w.SecretEncrypted.String != ""
}

type CreateWebhookInput struct {
	DeviceID     uuid.UUID `json:"deviceId" binding:"required"`
	ShortcutID   string    `json:"shortcutId" binding:"required"`
	ShortcutName string    `json:"shortcutName" binding:"required"`
	WithSecret   bool      `json:"withSecret"`
	ExpiresAt    *time.Time `json:"expiresAt"`
	MaxUses      *int64     `json:"maxUses"`
	AllowedIPs   []string   `json:"allowedIps"`
}

// CreateWebhookResponse returns the plaintext signing secret exactly once.
type CreateWebhookResponse struct {
	ID        uuid.UUID `json:"id"`
	WebhookID string    `json:"webhookId"`
	Secret    string    `json:"secret,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// RotateWebhookResponse links the retired public id to its replacement.
type RotateWebhookResponse struct {
	OldWebhookID string `json:"oldWebhookId"`
	NewWebhookID string `json:"newWebhookId"`
	Secret       string `json:"secret,omitempty"`
}

// WebhookRotation is an append-only historical record of one rotation.
type WebhookRotation struct {
	ID          uuid.UUID `json:"id"`
	WebhookID   uuid.UUID `json:"webhookId"`
	OldPublicID string    `json:"oldWebhookId"`
	NewPublicID string    `json:"newWebhookId"`
	ActorUserID uuid.UUID `json:"actorUserId"`
	Reason      string    `json:"reason"`
	CreatedAt   time.Time `json:"createdAt"`
}

// WebhookStats aggregates a webhook's counters with its daily analytics rows.
type WebhookStats struct {
	WebhookID       string           `json:"webhookId"`
	TriggerCount    int64            `json:"triggerCount"`
	LastTriggeredAt null.Time        `json:"lastTriggeredAt,omitempty"`
	Daily           []*AnalyticsDaily `json:"daily"`
}
