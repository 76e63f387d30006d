package usecases

import (
	"context"
	"errors"
	"net/http"
	"time"

	"shortcut-relay.backend/internal/domain/entities"
	domainerrors "shortcut-relay.backend/internal/domain/errors"
	"shortcut-relay.backend/internal/domain/repositories"
	"shortcut-relay.backend/pkg/crypto"
)

// ScopeTriggerWebhook is the API-key permission required to trigger webhooks.
const ScopeTriggerWebhook = "webhook:trigger"

// GateRequest is everything the gate needs to judge one trigger attempt.
type GateRequest struct {
	PublicID    string
	RawBody     []byte
	Signature   string
	ClientIP    string
	UserAgent   string
	Credentials Credentials
}

// GateDecision is an accepted attempt: the webhook with its live device, and
// the resolved caller.
type GateDecision struct {
	Webhook *entities.Webhook
	Outcome *AuthOutcome
}

// WebhookGate runs the ordered access checks a trigger request must pass:
// lookup, liveness of the owning device and user, expiry, usage cap, IP
// allow-list, payload signature, then identity resolution. The first failed
// check wins; later checks never run, so a rejection leaks nothing about the
// checks behind it.
type WebhookGate struct {
	webhookRepo   repositories.WebhookRepository
	resolver      *CredentialResolver
	encryptionKey []byte
	clock         func() time.Time
}

// NewWebhookGate creates a new webhook gate
func NewWebhookGate(webhookRepo repositories.WebhookRepository, resolver *CredentialResolver, encryptionKey []byte) *WebhookGate {
	return &WebhookGate{
		webhookRepo:   webhookRepo,
		resolver:      resolver,
		encryptionKey: encryptionKey,
		clock:         time.Now,
	}
}

// Evaluate judges one trigger attempt. Rejections come back as *AppError so
// the orchestrator can audit them and map them straight to a response.
func (u *WebhookGate) Evaluate(ctx context.Context, req *GateRequest) (*GateDecision, error) {
	webhook, err := u.webhookRepo.GetByPublicID(ctx, req.PublicID)
	if err != nil {
		if errors.Is(err, domainerrors.ErrNotFound) {
			return nil, domainerrors.NotFound("webhook not found")
		}
		return nil, err
	}

	// A webhook is usable only while its owning device and user are active.
	if webhook.Device == nil || !webhook.Device.IsActive {
		return nil, domainerrors.NotFound("webhook not found")
	}
	if webhook.Device.User == nil || !webhook.Device.User.IsActive {
		return nil, domainerrors.NotFound("webhook not found")
	}

	now := u.clock()
	if webhook.ExpiresAt.Valid && now.After(webhook.ExpiresAt.Time) {
		return nil, domainerrors.Gone("webhook has expired")
	}

	if webhook.MaxUses.Valid && webhook.TriggerCount >= webhook.MaxUses.Int64 {
		return nil, domainerrors.NewAppError(http.StatusGone, "ERR_USAGE_EXCEEDED", "webhook usage limit reached", domainerrors.ErrUsageExceeded)
	}

	if len(webhook.AllowedIPs) > 0 && !ipAllowed(req.ClientIP, webhook.AllowedIPs) {
		return nil, domainerrors.Forbidden("caller address is not allowed")
	}

	if webhook.HasSecret() {
		if req.Signature == "" {
			return nil, domainerrors.Unauthorized("payload signature required")
		}
		secret, err := crypto.DecryptSecret(webhook.SecretEncrypted.String, u.encryptionKey)
		if err != nil {
			return nil, err
		}
		if !crypto.HMACVerify(req.RawBody, req.Signature, secret) {
			return nil, domainerrors.Unauthorized("invalid payload signature")
		}
	}

	outcome, err := u.resolver.Resolve(ctx, req.Credentials, ScopeTriggerWebhook)
	if err != nil {
		return nil, err
	}

	return &GateDecision{Webhook: webhook, Outcome: outcome}, nil
}

func ipAllowed(ip string, allowed []string) bool {
	for _, a := range allowed {
		if a == ip {
			return true
		}
	}
	return false
}
