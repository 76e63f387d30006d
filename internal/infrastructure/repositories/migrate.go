package repositories

import (
	"gorm.io/gorm"
	"shortcut-relay.backend/internal/infrastructure/models"
)

// Migrate runs the idempotent schema step. Invoked explicitly at process
// startup; safe to run on every boot because AutoMigrate verifies against the
// store instead of tracking state in memory.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.Device{},
		&models.Webhook{},
		&models.WebhookRotation{},
		&models.Session{},
		&models.ApiKey{},
		&models.WebhookExecution{},
		&models.AnalyticsDaily{},
		&models.AuditLogEntry{},
		&models.RateLimitWindow{},
	)
}
