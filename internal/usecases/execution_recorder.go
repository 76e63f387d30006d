package usecases

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"shortcut-relay.backend/internal/domain/entities"
	"shortcut-relay.backend/internal/domain/repositories"
	"shortcut-relay.backend/pkg/logger"
)

// ExecutionRecorder persists the outcome of trigger attempts: the immutable
// execution record, the day's analytics totals, and the audit trail. Audit
// and analytics writes are best effort and never mask the pipeline outcome.
type ExecutionRecorder struct {
	executionRepo repositories.ExecutionRepository
	analyticsRepo repositories.AnalyticsRepository
	auditRepo     repositories.AuditLogRepository
}

// NewExecutionRecorder creates a new execution recorder
func NewExecutionRecorder(
	executionRepo repositories.ExecutionRepository,
	analyticsRepo repositories.AnalyticsRepository,
	auditRepo repositories.AuditLogRepository,
) *ExecutionRecorder {
	return &ExecutionRecorder{
		executionRepo: executionRepo,
		analyticsRepo: analyticsRepo,
		auditRepo:     auditRepo,
	}
}

// Record appends one execution row. This write is part of the pipeline's
// contract, so its failure surfaces to the caller.
func (u *ExecutionRecorder) Record(ctx context.Context, execution *entities.WebhookExecution) error {
	return u.executionRepo.Create(ctx, execution)
}

// UpdateAnalytics folds one completed execution into the webhook's daily
// totals. Failures are logged and swallowed; analytics never block a
// response.
func (u *ExecutionRecorder) UpdateAnalytics(ctx context.Context, webhookID uuid.UUID, at time.Time, success bool, latencyMs int64) {
	date := at.UTC().Format("2006-01-02")
	if err := u.analyticsRepo.Upsert(ctx, webhookID, date, success, latencyMs); err != nil {
		logger.Warn(ctx, "analytics upsert failed", zap.Error(err), zap.String("date", date))
	}
}

// Audit appends one security event. Audit failure is logged and swallowed so
// it never masks the original outcome.
func (u *ExecutionRecorder) Audit(ctx context.Context, entry *entities.AuditLogEntry) {
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	if err := u.auditRepo.Create(ctx, entry); err != nil {
		logger.Warn(ctx, "audit write failed", zap.Error(err), zap.String("action", entry.Action))
	}
}
