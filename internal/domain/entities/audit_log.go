package entities

import (
	"time"

	"github.com/google/uuid"
)

// Audit action tags.
const (
	AuditActionWebhookTriggered    = "webhook_triggered"
	AuditActionWebhookTriggerFail  = "webhook_trigger_failed"
	AuditActionWebhookUnauthorized = "webhook_trigger_unauthorized"
	AuditActionRateLimited         = "rate_limited"
	AuditActionWebhookCreated      = "webhook_created"
	AuditActionWebhookRevoked      = "webhook_revoked"
	AuditActionWebhookRotated      = "webhook_rotated"
	AuditActionDeviceRegistered    = "device_registered"
	AuditActionDeviceDeactivated   = "device_deactivated"
	AuditActionUserLogin           = "user_login"
	AuditActionUserLogout          = "user_logout"
	AuditActionPasswordChanged     = "password_changed"
	AuditActionApiKeyCreated       = "api_key_created"
	AuditActionApiKeyRevoked       = "api_key_revoked"
)

// AuditLogEntry is an append-only security event. UserID is null for
// unauthenticated attempts.
type AuditLogEntry struct {
	ID           uuid.UUID     `json:"id"`
	UserID       uuid.NullUUID `json:"userId,omitempty"`
	Action       string        `json:"action"`
	ResourceType string        `json:"resourceType"`
	ResourceID   string        `json:"resourceId"`
	Detail       string        `json:"detail"` // JSON blob
	IP           string        `json:"ip"`
	UserAgent    string        `json:"userAgent"`
	CreatedAt    time.Time     `json:"createdAt"`
}
