package repositories

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/volatiletech/null/v8"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"shortcut-relay.backend/internal/domain/entities"
	domainerrors "shortcut-relay.backend/internal/domain/errors"
	"shortcut-relay.backend/internal/infrastructure/models"
)

// ExecutionRepository implements append-only execution records
type ExecutionRepository struct {
	db *gorm.DB
}

// NewExecutionRepository creates a new execution repository
func NewExecutionRepository(db *gorm.DB) *ExecutionRepository {
	return &ExecutionRepository{db: db}
}

// Create appends one execution record
func (r *ExecutionRepository) Create(ctx context.Context, execution *entities.WebhookExecution) error {
	if execution.ID == uuid.Nil {
		execution.ID = uuid.New()
	}
	m := &models.WebhookExecution{
		ID:         execution.ID,
		WebhookID:  execution.WebhookID,
		DeviceID:   execution.DeviceID,
		AuthKind:   string(execution.AuthKind),
		Status:     string(execution.Status),
		Payload:    execution.Payload,
		DurationMs: execution.DurationMs,
		CallerIP:   execution.CallerIP,
		UserAgent:  execution.UserAgent,
		CreatedAt:  execution.CreatedAt,
	}
	if execution.UserID.Valid {
		m.UserID = &execution.UserID.UUID
	}
	if execution.ApiKeyID.Valid {
		m.ApiKeyID = &execution.ApiKeyID.UUID
	}
	if execution.ErrorDetail.Valid {
		m.ErrorDetail = &execution.ErrorDetail.String
	}
	return r.db.WithContext(ctx).Create(m).Error
}

// ListByWebhook lists recent executions, newest first
func (r *ExecutionRepository) ListByWebhook(ctx context.Context, webhookID uuid.UUID, limit int) ([]*entities.WebhookExecution, error) {
	if limit <= 0 {
		limit = 50
	}
	var executionModels []models.WebhookExecution
	err := r.db.WithContext(ctx).
		Where("webhook_id = ?", webhookID).
		Order("created_at DESC").
		Limit(limit).
		Find(&executionModels).Error
	if err != nil {
		return nil, err
	}

	executions := make([]*entities.WebhookExecution, 0, len(executionModels))
	for i := range executionModels {
		executions = append(executions, executionToEntity(&executionModels[i]))
	}
	return executions, nil
}

func executionToEntity(m *models.WebhookExecution) *entities.WebhookExecution {
	e := &entities.WebhookExecution{
		ID:          m.ID,
		WebhookID:   m.WebhookID,
		DeviceID:    m.DeviceID,
		AuthKind:    entities.AuthKind(m.AuthKind),
		Status:      entities.ExecutionStatus(m.Status),
		Payload:     m.Payload,
		ErrorDetail: null.StringFromPtr(m.ErrorDetail),
		DurationMs:  m.DurationMs,
		CallerIP:    m.CallerIP,
		UserAgent:   m.UserAgent,
		CreatedAt:   m.CreatedAt,
	}
	if m.UserID != nil {
		e.UserID = uuid.NullUUID{UUID: *m.UserID, Valid: true}
	}
	if m.ApiKeyID != nil {
		e.ApiKeyID = uuid.NullUUID{UUID: *m.ApiKeyID, Valid: true}
	}
	return e
}

// AnalyticsRepository implements daily rolling totals
type AnalyticsRepository struct {
	db *gorm.DB
}

// NewAnalyticsRepository creates a new analytics repository
func NewAnalyticsRepository(db *gorm.DB) *AnalyticsRepository {
	return &AnalyticsRepository{db: db}
}

// Upsert folds one execution into the day's row. The increment path updates
// every column in one statement so the running average reads the old counter.
func (r *AnalyticsRepository) Upsert(ctx context.Context, webhookID uuid.UUID, date string, success bool, latencyMs int64) error {
	successInc, failureInc := 0, 1
	if success {
		successInc, failureInc = 1, 0
	}

	for attempt := 0; attempt < 2; attempt++ {
		result := r.db.WithContext(ctx).Model(&models.AnalyticsDaily{}).
			Where("webhook_id = ? AND date = ?", webhookID, date).
			Updates(map[string]interface{}{
				"trigger_count":  gorm.Expr("trigger_count + 1"),
				"success_count":  gorm.Expr("success_count + ?", successInc),
				"failure_count":  gorm.Expr("failure_count + ?", failureInc),
				"avg_latency_ms": gorm.Expr("(avg_latency_ms * trigger_count + ?) / (trigger_count + 1)", latencyMs),
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 1 {
			return nil
		}

		// First event of the day. A concurrent insert may win; fall back to
		// the increment on conflict.
		insert := r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&models.AnalyticsDaily{
			ID:           uuid.New(),
			WebhookID:    webhookID,
			Date:         date,
			TriggerCount: 1,
			SuccessCount: int64(successInc),
			FailureCount: int64(failureInc),
			AvgLatencyMs: float64(latencyMs),
		})
		if insert.Error != nil {
			return insert.Error
		}
		if insert.RowsAffected == 1 {
			return nil
		}
	}
	return errors.New("analytics upsert did not converge")
}

// ListByWebhook lists daily rows, newest first
func (r *AnalyticsRepository) ListByWebhook(ctx context.Context, webhookID uuid.UUID, limit int) ([]*entities.AnalyticsDaily, error) {
	if limit <= 0 {
		limit = 30
	}
	var dailyModels []models.AnalyticsDaily
	err := r.db.WithContext(ctx).
		Where("webhook_id = ?", webhookID).
		Order("date DESC").
		Limit(limit).
		Find(&dailyModels).Error
	if err != nil {
		return nil, err
	}

	rows := make([]*entities.AnalyticsDaily, 0, len(dailyModels))
	for i := range dailyModels {
		rows = append(rows, analyticsToEntity(&dailyModels[i]))
	}
	return rows, nil
}

// GetByDate gets one webhook's row for one date
func (r *AnalyticsRepository) GetByDate(ctx context.Context, webhookID uuid.UUID, date string) (*entities.AnalyticsDaily, error) {
	var m models.AnalyticsDaily
	err := r.db.WithContext(ctx).
		Where("webhook_id = ? AND date = ?", webhookID, date).
		First(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domainerrors.ErrNotFound
		}
		return nil, err
	}
	return analyticsToEntity(&m), nil
}

func analyticsToEntity(m *models.AnalyticsDaily) *entities.AnalyticsDaily {
	return &entities.AnalyticsDaily{
		ID:           m.ID,
		WebhookID:    m.WebhookID,
		Date:         m.Date,
		TriggerCount: m.TriggerCount,
		SuccessCount: m.SuccessCount,
		FailureCount: m.FailureCount,
		AvgLatencyMs: m.AvgLatencyMs,
	}
}

// AuditLogRepository implements append-only audit events
type AuditLogRepository struct {
	db *gorm.DB
}

// NewAuditLogRepository creates a new audit log repository
func NewAuditLogRepository(db *gorm.DB) *AuditLogRepository {
	return &AuditLogRepository{db: db}
}

// Create appends one audit entry
func (r *AuditLogRepository) Create(ctx context.Context, entry *entities.AuditLogEntry) error {
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	m := &models.AuditLogEntry{
		ID:           entry.ID,
		Action:       entry.Action,
		ResourceType: entry.ResourceType,
		ResourceID:   entry.ResourceID,
		Detail:       entry.Detail,
		IP:           entry.IP,
		UserAgent:    entry.UserAgent,
		CreatedAt:    entry.CreatedAt,
	}
	if entry.UserID.Valid {
		m.UserID = &entry.UserID.UUID
	}
	return r.db.WithContext(ctx).Create(m).Error
}

// ListByResource lists audit entries for one resource, newest first
func (r *AuditLogRepository) ListByResource(ctx context.Context, resourceType, resourceID string, limit int) ([]*entities.AuditLogEntry, error) {
	if limit <= 0 {
		limit = 50
	}
	var entryModels []models.AuditLogEntry
	err := r.db.WithContext(ctx).
		Where("resource_type = ? AND resource_id = ?", resourceType, resourceID).
		Order("created_at DESC").
		Limit(limit).
		Find(&entryModels).Error
	if err != nil {
		return nil, err
	}

	entries := make([]*entities.AuditLogEntry, 0, len(entryModels))
	for i := range entryModels {
		m := entryModels[i]
		e := &entities.AuditLogEntry{
			ID:           m.ID,
			Action:       m.Action,
			ResourceType: m.ResourceType,
			ResourceID:   m.ResourceID,
			Detail:       m.Detail,
			IP:           m.IP,
			UserAgent:    m.UserAgent,
			CreatedAt:    m.CreatedAt,
		}
		if m.UserID != nil {
			e.UserID = uuid.NullUUID{UUID: *m.UserID, Valid: true}
		}
		entries = append(entries, e)
	}
	return entries, nil
}
