package repositories

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/volatiletech/null/v8"
	"shortcut-relay.backend/internal/domain/entities"
)

func TestExecutionCreateAndList(t *testing.T) {
	db := newTestDB(t)
	createExecutionTables(t, db)
	repo := NewExecutionRepository(db)

	webhookID := uuid.New()
	deviceID := uuid.New()
	userID := uuid.New()

	first := &entities.WebhookExecution{
		WebhookID:  webhookID,
		DeviceID:   deviceID,
		UserID:     uuid.NullUUID{UUID: userID, Valid: true},
		AuthKind:   entities.AuthKindSession,
		Status:     entities.ExecutionStatusSuccess,
		Payload:    `{"input":"hello"}`,
		DurationMs: 42,
		CallerIP:   "203.0.113.7",
		UserAgent:  "curl/8.0",
		CreatedAt:  time.Now().UTC().Add(-time.Minute),
	}
	require.NoError(t, repo.Create(context.Background(), first))

	second := &entities.WebhookExecution{
		WebhookID:   webhookID,
		DeviceID:    deviceID,
		AuthKind:    entities.AuthKindAnonymous,
		Status:      entities.ExecutionStatusUnauthorized,
		ErrorDetail: null.StringFrom("invalid_signature"),
		CallerIP:    "203.0.113.8",
		CreatedAt:   time.Now().UTC(),
	}
	require.NoError(t, repo.Create(context.Background(), second))

	executions, err := repo.ListByWebhook(context.Background(), webhookID, 10)
	require.NoError(t, err)
	require.Len(t, executions, 2)

	// Newest first.
	assert.Equal(t, entities.ExecutionStatusUnauthorized, executions[0].Status)
	assert.Equal(t, entities.AuthKindAnonymous, executions[0].AuthKind)
	assert.False(t, executions[0].UserID.Valid)
	assert.Equal(t, "invalid_signature", executions[0].ErrorDetail.String)

	assert.Equal(t, entities.ExecutionStatusSuccess, executions[1].Status)
	assert.Equal(t, userID, executions[1].UserID.UUID)
	assert.Equal(t, int64(42), executions[1].DurationMs)
}

func TestExecutionListRespectsLimit(t *testing.T) {
	db := newTestDB(t)
	createExecutionTables(t, db)
	repo := NewExecutionRepository(db)

	webhookID := uuid.New()
	deviceID := uuid.New()
	for i := 0; i < 5; i++ {
		require.NoError(t, repo.Create(context.Background(), &entities.WebhookExecution{
			WebhookID: webhookID,
			DeviceID:  deviceID,
			AuthKind:  entities.AuthKindApiKey,
			Status:    entities.ExecutionStatusSuccess,
			CreatedAt: time.Now().UTC().Add(time.Duration(i) * time.Second),
		}))
	}

	executions, err := repo.ListByWebhook(context.Background(), webhookID, 3)
	require.NoError(t, err)
	assert.Len(t, executions, 3)
}

func TestAnalyticsUpsert_FirstEventInsertsRow(t *testing.T) {
	db := newTestDB(t)
	createExecutionTables(t, db)
	repo := NewAnalyticsRepository(db)

	webhookID := uuid.New()
	require.NoError(t, repo.Upsert(context.Background(), webhookID, "2025-06-01", true, 120))

	row, err := repo.GetByDate(context.Background(), webhookID, "2025-06-01")
	require.NoError(t, err)
	assert.Equal(t, int64(1), row.TriggerCount)
	assert.Equal(t, int64(1), row.SuccessCount)
	assert.Equal(t, int64(0), row.FailureCount)
	assert.InDelta(t, 120.0, row.AvgLatencyMs, 0.001)
}

func TestAnalyticsUpsert_RollingAverage(t *testing.T) {
	db := newTestDB(t)
	createExecutionTables(t, db)
	repo := NewAnalyticsRepository(db)

	webhookID := uuid.New()
	require.NoError(t, repo.Upsert(context.Background(), webhookID, "2025-06-01", true, 100))
	require.NoError(t, repo.Upsert(context.Background(), webhookID, "2025-06-01", false, 200))
	require.NoError(t, repo.Upsert(context.Background(), webhookID, "2025-06-01", true, 300))

	row, err := repo.GetByDate(context.Background(), webhookID, "2025-06-01")
	require.NoError(t, err)
	assert.Equal(t, int64(3), row.TriggerCount)
	assert.Equal(t, int64(2), row.SuccessCount)
	assert.Equal(t, int64(1), row.FailureCount)
	assert.InDelta(t, 200.0, row.AvgLatencyMs, 0.001)
}

func TestAnalyticsUpsert_DatesStaySeparate(t *testing.T) {
	db := newTestDB(t)
	createExecutionTables(t, db)
	repo := NewAnalyticsRepository(db)

	webhookID := uuid.New()
	require.NoError(t, repo.Upsert(context.Background(), webhookID, "2025-06-01", true, 100))
	require.NoError(t, repo.Upsert(context.Background(), webhookID, "2025-06-02", false, 50))

	rows, err := repo.ListByWebhook(context.Background(), webhookID, 10)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "2025-06-02", rows[0].Date)
	assert.Equal(t, int64(1), rows[0].FailureCount)
	assert.Equal(t, "2025-06-01", rows[1].Date)
	assert.Equal(t, int64(1), rows[1].SuccessCount)
}

func TestAuditLogCreateAndList(t *testing.T) {
	db := newTestDB(t)
	createAuditLogTable(t, db)
	repo := NewAuditLogRepository(db)

	webhookID := uuid.New().String()
	userID := uuid.New()

	require.NoError(t, repo.Create(context.Background(), &entities.AuditLogEntry{
		UserID:       uuid.NullUUID{UUID: userID, Valid: true},
		Action:       entities.AuditActionWebhookTriggered,
		ResourceType: "webhook",
		ResourceID:   webhookID,
		Detail:       `{"status":"success"}`,
		IP:           "203.0.113.7",
		CreatedAt:    time.Now().UTC().Add(-time.Second),
	}))
	require.NoError(t, repo.Create(context.Background(), &entities.AuditLogEntry{
		Action:       entities.AuditActionWebhookUnauthorized,
		ResourceType: "webhook",
		ResourceID:   webhookID,
		Detail:       `{"reason":"invalid_signature"}`,
		IP:           "198.51.100.4",
		CreatedAt:    time.Now().UTC(),
	}))

	entries, err := repo.ListByResource(context.Background(), "webhook", webhookID, 10)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, entities.AuditActionWebhookUnauthorized, entries[0].Action)
	assert.False(t, entries[0].UserID.Valid, "anonymous attempts carry no user")
	assert.Equal(t, userID, entries[1].UserID.UUID)
}
