package entities

import (
	"time"

	"github.com/google/uuid"
	"github.com/volatiletech/null/v8"
)

// ExecutionStatus is the terminal state of one trigger attempt.
type ExecutionStatus string

const (
	ExecutionStatusSuccess      ExecutionStatus = "success"
	ExecutionStatusFailed       ExecutionStatus = "failed"
	ExecutionStatusPending      ExecutionStatus = "pending"
	ExecutionStatusUnauthorized ExecutionStatus = "unauthorized"
)

// AuthKind tags which credential authorized a trigger attempt.
type AuthKind string

const (
	AuthKindSession   AuthKind = "session"
	AuthKindApiKey    AuthKind = "api_key"
	AuthKindAnonymous AuthKind = "anonymous"
)

// WebhookExecution is an immutable append-only record of one trigger attempt.
type WebhookExecution struct {
	ID          uuid.UUID       `json:"id"`
	WebhookID   uuid.UUID       `json:"webhookId"`
	DeviceID    uuid.UUID       `json:"deviceId"`
	UserID      uuid.NullUUID   `json:"userId,omitempty"`
	ApiKeyID    uuid.NullUUID   `json:"apiKeyId,omitempty"`
	AuthKind    AuthKind        `json:"authKind"`
	Status      ExecutionStatus `json:"status"`
	Payload     string          `json:"payload"`
	ErrorDetail null.String     `json:"errorDetail,omitempty"`
	DurationMs  int64           `json:"durationMs"`
	CallerIP    string          `json:"callerIp"`
	UserAgent   string          `json:"userAgent"`
	CreatedAt   time.Time       `json:"createdAt"`
}

// AnalyticsDaily holds one webhook's running totals for one calendar date
// (UTC, formatted 2006-01-02). Upserted once per execution.
type AnalyticsDaily struct {
	ID           uuid.UUID `json:"id"`
	WebhookID    uuid.UUID `json:"webhookId"`
	Date         string    `json:"date"`
	TriggerCount int64     `json:"triggerCount"`
	SuccessCount int64     `json:"successCount"`
	FailureCount int64     `json:"failureCount"`
	AvgLatencyMs float64   `json:"avgLatencyMs"`
}
