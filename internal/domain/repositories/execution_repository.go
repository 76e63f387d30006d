package repositories

import (
	"context"

	"github.com/google/uuid"
	"shortcut-relay.backend/internal/domain/entities"
)

// ExecutionRepository appends immutable trigger attempt records.
type ExecutionRepository interface {
	Create(ctx context.Context, execution *entities.WebhookExecution) error
	ListByWebhook(ctx context.Context, webhookID uuid.UUID, limit int) ([]*entities.WebhookExecution, error)
}

// AnalyticsRepository maintains per-day rolling totals per webhook.
type AnalyticsRepository interface {
	// Upsert folds one execution into the day's row: inserts count=1 on the
	// first event of the day, otherwise increments and recomputes the
	// running average latency.
	Upsert(ctx context.Context, webhookID uuid.UUID, date string, success bool, latencyMs int64) error
	ListByWebhook(ctx context.Context, webhookID uuid.UUID, limit int) ([]*entities.AnalyticsDaily, error)
	GetByDate(ctx context.Context, webhookID uuid.UUID, date string) (*entities.AnalyticsDaily, error)
}

// AuditLogRepository appends security events, append-only.
type AuditLogRepository interface {
	Create(ctx context.Context, entry *entities.AuditLogEntry) error
	ListByResource(ctx context.Context, resourceType, resourceID string, limit int) ([]*entities.AuditLogEntry, error)
}
