package push

import (
	"context"

	"shortcut-relay.backend/internal/domain/entities"
)

// FailureReason classifies a failed dispatch so the caller can decide what to
// do with the device or webhook.
type FailureReason string

const (
	ReasonNone           FailureReason = ""
	ReasonInvalidPayload FailureReason = "invalid_payload"
	ReasonAuth           FailureReason = "auth_failed"
	// ReasonSecretInvalid means the push service no longer recognizes the
	// device secret; the caller should deactivate the device.
	ReasonSecretInvalid   FailureReason = "secret_no_longer_valid"
	ReasonPayloadTooLarge FailureReason = "payload_too_large"
	ReasonRateLimited     FailureReason = "rate_limited"
	ReasonServerError     FailureReason = "server_error"
	ReasonTransport       FailureReason = "transport_error"
)

// DispatchRequest carries one notification to the push service. SecretToken
// is the decrypted device secret and must never be logged.
type DispatchRequest struct {
	SecretToken  string
	ShortcutID   string
	ShortcutName string
	Payload      string
	Environment  entities.PushEnvironment
}

// DispatchResult is the push service's answer. Success false always carries a
// FailureReason; StatusCode is the upstream HTTP status when one was received.
type DispatchResult struct {
	Success        bool
	NotificationID string
	ExternalID     string
	FailureReason  FailureReason
	StatusCode     int
}

// Dispatcher sends one notification. Implementations map transport errors to
// a DispatchResult rather than returning them; the error return is reserved
// for programming mistakes (nil request, unusable configuration).
type Dispatcher interface {
	Send(ctx context.Context, req *DispatchRequest) (*DispatchResult, error)
}
