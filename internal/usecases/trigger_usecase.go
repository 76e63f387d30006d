package usecases

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/volatiletech/null/v8"
	"go.uber.org/zap"
	"shortcut-relay.backend/internal/domain/entities"
	domainerrors "shortcut-relay.backend/internal/domain/errors"
	"shortcut-relay.backend/internal/domain/repositories"
	"shortcut-relay.backend/internal/infrastructure/push"
	"shortcut-relay.backend/pkg/crypto"
	"shortcut-relay.backend/pkg/logger"
	"shortcut-relay.backend/pkg/metrics"
)

// TriggerPolicy carries the tunable limits of the trigger pipeline.
type TriggerPolicy struct {
	MaxPayloadBytes  int
	MaxRequests      int64
	AnonymousMax     int64
	SecretEncryption []byte
}

// TriggerResult is the caller-facing outcome of one admitted trigger.
type TriggerResult struct {
	ExecutionID    uuid.UUID `json:"executionId"`
	Status         string    `json:"status"`
	NotificationID string    `json:"notificationId,omitempty"`
	DurationMs     int64     `json:"durationMs"`
}

// TriggerOrchestrator composes gate, limiter, vault, dispatcher and recorder
// into the end-to-end trigger flow. Every attempt that reaches the store
// leaves a trace: rejections an audit row, admitted attempts an execution row
// plus analytics, whatever the dispatch outcome.
type TriggerOrchestrator struct {
	gate          *WebhookGate
	limiter       *RateLimiter
	recorder      *ExecutionRecorder
	webhookRepo   repositories.WebhookRepository
	rotationRepo  repositories.WebhookRotationRepository
	deviceRepo    repositories.DeviceRepository
	analyticsRepo repositories.AnalyticsRepository
	dispatcher    push.Dispatcher
	idStrategy    WebhookIDStrategy
	policy        TriggerPolicy
	clock         func() time.Time
}

// NewTriggerOrchestrator creates a new trigger orchestrator
func NewTriggerOrchestrator(
	gate *WebhookGate,
	limiter *RateLimiter,
	recorder *ExecutionRecorder,
	webhookRepo repositories.WebhookRepository,
	rotationRepo repositories.WebhookRotationRepository,
	deviceRepo repositories.DeviceRepository,
	analyticsRepo repositories.AnalyticsRepository,
	dispatcher push.Dispatcher,
	policy TriggerPolicy,
) *TriggerOrchestrator {
	return &TriggerOrchestrator{
		gate:          gate,
		limiter:       limiter,
		recorder:      recorder,
		webhookRepo:   webhookRepo,
		rotationRepo:  rotationRepo,
		deviceRepo:    deviceRepo,
		analyticsRepo: analyticsRepo,
		dispatcher:    dispatcher,
		idStrategy:    RandomIDStrategy{},
		policy:        policy,
		clock:         time.Now,
	}
}

// AuthorizeAndTrigger runs one trigger attempt end to end: gate, rate limit,
// decrypt, dispatch, record. The returned error is always an *AppError for
// expected rejections; the result is non-nil only on success.
func (u *TriggerOrchestrator) AuthorizeAndTrigger(ctx context.Context, req *GateRequest) (*TriggerResult, error) {
	if len(req.RawBody) > u.policy.MaxPayloadBytes {
		appErr := domainerrors.PayloadTooLarge("payload exceeds size limit")
		u.auditRejection(ctx, req, nil, appErr, "payload_too_large")
		metrics.TriggersTotal.WithLabelValues("payload_too_large").Inc()
		return nil, appErr
	}

	decision, err := u.gate.Evaluate(ctx, req)
	if err != nil {
		var appErr *domainerrors.AppError
		if errors.As(err, &appErr) && appErr.Status < http.StatusInternalServerError {
			u.auditRejection(ctx, req, nil, appErr, "gate")
			metrics.TriggersTotal.WithLabelValues("rejected").Inc()
			return nil, appErr
		}
		// Unexpected store or crypto failure: best-effort audit, then 500.
		u.auditRejection(ctx, req, nil, nil, "internal")
		metrics.TriggersTotal.WithLabelValues("error").Inc()
		return nil, domainerrors.InternalError(err)
	}

	webhook := decision.Webhook
	outcome := decision.Outcome

	if err := u.checkRateLimit(ctx, req, webhook, outcome); err != nil {
		return nil, err
	}

	secret, err := crypto.DecryptSecret(webhook.Device.SecretEncrypted, u.policy.SecretEncryption)
	if err != nil {
		u.auditRejection(ctx, req, webhook, nil, "internal")
		metrics.TriggersTotal.WithLabelValues("error").Inc()
		return nil, domainerrors.InternalError(err)
	}

	started := u.clock()
	result, err := u.dispatcher.Send(ctx, &push.DispatchRequest{
		SecretToken:  secret,
		ShortcutID:   webhook.ShortcutID,
		ShortcutName: webhook.ShortcutName,
		Payload:      string(req.RawBody),
		Environment:  webhook.Device.Environment,
	})
	elapsed := u.clock().Sub(started)
	metrics.DispatchDurationSeconds.Observe(elapsed.Seconds())
	if err != nil {
		u.auditRejection(ctx, req, webhook, nil, "internal")
		metrics.TriggersTotal.WithLabelValues("error").Inc()
		return nil, domainerrors.InternalError(err)
	}

	if result.Success {
		return u.recordSuccess(ctx, req, webhook, outcome, result, elapsed)
	}
	return nil, u.recordFailure(ctx, req, webhook, outcome, result, elapsed)
}

func (u *TriggerOrchestrator) checkRateLimit(ctx context.Context, req *GateRequest, webhook *entities.Webhook, outcome *AuthOutcome) error {
	identifier := WebhookScope(webhook.PublicID)
	max := u.policy.AnonymousMax
	if outcome.Authenticated() {
		identifier = IdentityScope(outcome.User.ID)
		max = u.policy.MaxRequests
		if outcome.Kind == entities.AuthKindApiKey && outcome.ApiKey.RateLimitPerMin.Valid {
			max = int64(outcome.ApiKey.RateLimitPerMin.Int)
		}
	}

	result, err := u.limiter.Check(ctx, identifier, max)
	if err != nil {
		u.auditRejection(ctx, req, webhook, nil, "internal")
		metrics.TriggersTotal.WithLabelValues("error").Inc()
		return domainerrors.InternalError(err)
	}
	if !result.Allowed {
		u.recordRejectedExecution(ctx, req, webhook, outcome, "rate_limited")
		u.recorder.Audit(ctx, u.auditEntry(req, webhook, outcome, entities.AuditActionRateLimited, map[string]interface{}{
			"identifier": identifier,
			"retryAfter": result.RetryAfter.Seconds(),
		}))
		metrics.TriggersTotal.WithLabelValues("rate_limited").Inc()
		return domainerrors.RateLimited("rate limit exceeded").WithRetryAfter(result.RetryAfter)
	}
	return nil
}

func (u *TriggerOrchestrator) recordSuccess(ctx context.Context, req *GateRequest, webhook *entities.Webhook, outcome *AuthOutcome, result *push.DispatchResult, elapsed time.Duration) (*TriggerResult, error) {
	now := u.clock()

	// The usage counter moves only on successful dispatch, atomically against
	// the cap. The notification already went out, so the execution row and
	// analytics are written whatever the counter update comes back with.
	bumped, err := u.webhookRepo.IncrementTriggerCount(ctx, webhook.ID, now)
	if err != nil {
		u.recordDispatched(ctx, req, webhook, outcome, null.StringFrom("trigger_count_update_failed"), elapsed, now)
		metrics.TriggersTotal.WithLabelValues("error").Inc()
		return nil, domainerrors.InternalError(err)
	}
	if !bumped {
		// Lost the race against the cap: still logged as a dispatched
		// execution, reported to the caller as usage exceeded.
		u.recordDispatched(ctx, req, webhook, outcome, null.StringFrom("usage_exceeded"), elapsed, now)
		appErr := domainerrors.NewAppError(http.StatusGone, "ERR_USAGE_EXCEEDED", "webhook usage limit reached", domainerrors.ErrUsageExceeded)
		u.auditRejection(ctx, req, webhook, appErr, "usage_exceeded")
		metrics.TriggersTotal.WithLabelValues("rejected").Inc()
		return nil, appErr
	}

	execution := u.executionEntity(req, webhook, outcome, entities.ExecutionStatusSuccess, null.String{}, elapsed, now)
	if err := u.recorder.Record(ctx, execution); err != nil {
		return nil, domainerrors.InternalError(err)
	}
	u.recorder.UpdateAnalytics(ctx, webhook.ID, now, true, elapsed.Milliseconds())
	u.recorder.Audit(ctx, u.auditEntry(req, webhook, outcome, entities.AuditActionWebhookTriggered, map[string]interface{}{
		"executionId":    execution.ID.String(),
		"notificationId": result.NotificationID,
	}))
	metrics.TriggersTotal.WithLabelValues("success").Inc()

	return &TriggerResult{
		ExecutionID:    execution.ID,
		Status:         string(entities.ExecutionStatusSuccess),
		NotificationID: result.NotificationID,
		DurationMs:     elapsed.Milliseconds(),
	}, nil
}

func (u *TriggerOrchestrator) recordFailure(ctx context.Context, req *GateRequest, webhook *entities.Webhook, outcome *AuthOutcome, result *push.DispatchResult, elapsed time.Duration) error {
	now := u.clock()

	if result.FailureReason == push.ReasonSecretInvalid {
		if err := u.deviceRepo.Deactivate(ctx, webhook.DeviceID); err != nil && !errors.Is(err, domainerrors.ErrNotFound) {
			logger.Warn(ctx, "device deactivation after invalid secret failed", zap.Error(err))
		} else {
			u.recorder.Audit(ctx, u.auditEntry(req, webhook, outcome, entities.AuditActionDeviceDeactivated, map[string]interface{}{
				"reason": string(push.ReasonSecretInvalid),
			}))
		}
	}

	execution := u.executionEntity(req, webhook, outcome, entities.ExecutionStatusFailed, null.StringFrom(string(result.FailureReason)), elapsed, now)
	if err := u.recorder.Record(ctx, execution); err != nil {
		return domainerrors.InternalError(err)
	}
	u.recorder.UpdateAnalytics(ctx, webhook.ID, now, false, elapsed.Milliseconds())
	u.recorder.Audit(ctx, u.auditEntry(req, webhook, outcome, entities.AuditActionWebhookTriggerFail, map[string]interface{}{
		"executionId": execution.ID.String(),
		"reason":      string(result.FailureReason),
		"statusCode":  result.StatusCode,
	}))
	metrics.TriggersTotal.WithLabelValues("dispatch_failed").Inc()

	return domainerrors.DispatchFailure("notification dispatch failed", domainerrors.ErrDispatchFailed)
}

// recordDispatched writes the execution row and analytics for a dispatch that
// already went out when a later step keeps the attempt from counting as a
// clean success. The row is best effort here; the caller is about to return
// its own error either way.
func (u *TriggerOrchestrator) recordDispatched(ctx context.Context, req *GateRequest, webhook *entities.Webhook, outcome *AuthOutcome, detail null.String, elapsed time.Duration, now time.Time) {
	execution := u.executionEntity(req, webhook, outcome, entities.ExecutionStatusSuccess, detail, elapsed, now)
	if err := u.recorder.Record(ctx, execution); err != nil {
		logger.Warn(ctx, "dispatched execution record failed", zap.Error(err))
	}
	u.recorder.UpdateAnalytics(ctx, webhook.ID, now, true, elapsed.Milliseconds())
}

// recordRejectedExecution writes an unauthorized execution row for attempts
// that were identified but denied. Failures are swallowed; the rejection
// response stands on its own.
func (u *TriggerOrchestrator) recordRejectedExecution(ctx context.Context, req *GateRequest, webhook *entities.Webhook, outcome *AuthOutcome, detail string) {
	execution := u.executionEntity(req, webhook, outcome, entities.ExecutionStatusUnauthorized, null.StringFrom(detail), 0, u.clock())
	if err := u.recorder.Record(ctx, execution); err != nil {
		logger.Warn(ctx, "rejected execution record failed", zap.Error(err))
	}
}

func (u *TriggerOrchestrator) executionEntity(req *GateRequest, webhook *entities.Webhook, outcome *AuthOutcome, status entities.ExecutionStatus, detail null.String, elapsed time.Duration, now time.Time) *entities.WebhookExecution {
	execution := &entities.WebhookExecution{
		ID:          uuid.New(),
		WebhookID:   webhook.ID,
		DeviceID:    webhook.DeviceID,
		AuthKind:    entities.AuthKindAnonymous,
		Status:      status,
		Payload:     string(req.RawBody),
		ErrorDetail: detail,
		DurationMs:  elapsed.Milliseconds(),
		CallerIP:    req.ClientIP,
		UserAgent:   req.UserAgent,
		CreatedAt:   now.UTC(),
	}
	if outcome != nil && outcome.Authenticated() {
		execution.AuthKind = outcome.Kind
		execution.UserID = uuid.NullUUID{UUID: outcome.User.ID, Valid: true}
		if outcome.Kind == entities.AuthKindApiKey {
			execution.ApiKeyID = uuid.NullUUID{UUID: outcome.ApiKey.ID, Valid: true}
		}
	}
	return execution
}

func (u *TriggerOrchestrator) auditEntry(req *GateRequest, webhook *entities.Webhook, outcome *AuthOutcome, action string, detail map[string]interface{}) *entities.AuditLogEntry {
	entry := &entities.AuditLogEntry{
		Action:       action,
		ResourceType: "webhook",
		ResourceID:   req.PublicID,
		IP:           req.ClientIP,
		UserAgent:    req.UserAgent,
		CreatedAt:    u.clock().UTC(),
	}
	if webhook != nil {
		entry.ResourceID = webhook.ID.String()
	}
	if outcome != nil && outcome.Authenticated() {
		entry.UserID = uuid.NullUUID{UUID: outcome.User.ID, Valid: true}
	}
	if detail != nil {
		if raw, err := json.Marshal(detail); err == nil {
			entry.Detail = string(raw)
		}
	}
	return entry
}

// auditRejection tags a denied attempt in the audit trail. Works with or
// without a resolved webhook; lookup failures reference the public id.
func (u *TriggerOrchestrator) auditRejection(ctx context.Context, req *GateRequest, webhook *entities.Webhook, appErr *domainerrors.AppError, stage string) {
	detail := map[string]interface{}{"stage": stage}
	if appErr != nil {
		detail["code"] = appErr.Code
	}
	u.recorder.Audit(ctx, u.auditEntry(req, webhook, nil, entities.AuditActionWebhookUnauthorized, detail))
}

// RotateWebhook retires a webhook's public identifier and signing secret and
// issues replacements. The retired identifier never resolves again; the
// rotation itself is recorded append-only with actor and reason.
func (u *TriggerOrchestrator) RotateWebhook(ctx context.Context, webhookID uuid.UUID, actor *entities.User, reason string) (*entities.RotateWebhookResponse, error) {
	webhook, err := u.webhookRepo.GetByID(ctx, webhookID)
	if err != nil {
		if errors.Is(err, domainerrors.ErrNotFound) {
			return nil, domainerrors.NotFound("webhook not found")
		}
		return nil, err
	}
	if webhook.UserID != actor.ID {
		return nil, domainerrors.Forbidden("webhook belongs to another user")
	}
	if !webhook.IsActive {
		return nil, domainerrors.Gone("webhook has been revoked")
	}

	newPublicID, err := u.idStrategy.Generate("", "", u.clock())
	if err != nil {
		return nil, domainerrors.InternalError(err)
	}

	var newSecret, newSecretEncrypted string
	if webhook.HasSecret() {
		newSecret, err = crypto.RandomID(webhookIDBytes)
		if err != nil {
			return nil, domainerrors.InternalError(err)
		}
		newSecretEncrypted, err = crypto.EncryptSecret(newSecret, u.policy.SecretEncryption)
		if err != nil {
			return nil, domainerrors.InternalError(err)
		}
	}

	if err := u.webhookRepo.ReplaceIdentity(ctx, webhook.ID, newPublicID, newSecretEncrypted); err != nil {
		if errors.Is(err, domainerrors.ErrNotFound) {
			return nil, domainerrors.NotFound("webhook not found")
		}
		return nil, err
	}

	rotation := &entities.WebhookRotation{
		WebhookID:   webhook.ID,
		OldPublicID: webhook.PublicID,
		NewPublicID: newPublicID,
		ActorUserID: actor.ID,
		Reason:      reason,
		CreatedAt:   u.clock().UTC(),
	}
	if err := u.rotationRepo.Create(ctx, rotation); err != nil {
		logger.Warn(ctx, "rotation history write failed", zap.Error(err))
	}
	u.recorder.Audit(ctx, &entities.AuditLogEntry{
		UserID:       uuid.NullUUID{UUID: actor.ID, Valid: true},
		Action:       entities.AuditActionWebhookRotated,
		ResourceType: "webhook",
		ResourceID:   webhook.ID.String(),
		Detail:       mustJSON(map[string]interface{}{"reason": reason}),
		CreatedAt:    u.clock().UTC(),
	})

	return &entities.RotateWebhookResponse{
		OldWebhookID: webhook.PublicID,
		NewWebhookID: newPublicID,
		Secret:       newSecret,
	}, nil
}

// GetWebhookStats returns a webhook's counters with its recent daily totals.
func (u *TriggerOrchestrator) GetWebhookStats(ctx context.Context, webhookID uuid.UUID, actor *entities.User) (*entities.WebhookStats, error) {
	webhook, err := u.webhookRepo.GetByID(ctx, webhookID)
	if err != nil {
		if errors.Is(err, domainerrors.ErrNotFound) {
			return nil, domainerrors.NotFound("webhook not found")
		}
		return nil, err
	}
	if webhook.UserID != actor.ID {
		return nil, domainerrors.Forbidden("webhook belongs to another user")
	}

	daily, err := u.analyticsRepo.ListByWebhook(ctx, webhook.ID, 30)
	if err != nil {
		return nil, err
	}

	return &entities.WebhookStats{
		WebhookID:       webhook.PublicID,
		TriggerCount:    webhook.TriggerCount,
		LastTriggeredAt: webhook.LastTriggeredAt,
		Daily:           daily,
	}, nil
}

func mustJSON(v map[string]interface{}) string {
	raw, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return string(raw)
}
