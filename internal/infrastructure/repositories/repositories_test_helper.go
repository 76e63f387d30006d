package repositories

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s_%d?mode=memory&cache=shared", t.Name(), time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err, "open sqlite")
	return db
}

func mustExec(t *testing.T, db *gorm.DB, q string, args ...interface{}) {
	t.Helper()
	require.NoError(t, db.Exec(q, args...).Error, "exec failed: query=%s", q)
}

func createUserTable(t *testing.T, db *gorm.DB) {
	mustExec(t, db, `CREATE TABLE users (
		id TEXT PRIMARY KEY,
		email TEXT UNIQUE,
		name TEXT,
		password_hash TEXT,
		is_active BOOLEAN,
		is_email_verified BOOLEAN,
		created_at DATETIME,
		updated_at DATETIME
	);`)
}

func createDeviceTable(t *testing.T, db *gorm.DB) {
	mustExec(t, db, `CREATE TABLE devices (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		name TEXT NOT NULL,
		secret_encrypted TEXT NOT NULL,
		secret_hash TEXT NOT NULL UNIQUE,
		environment TEXT NOT NULL,
		is_active BOOLEAN,
		created_at DATETIME,
		updated_at DATETIME
	);`)
}

func createWebhookTables(t *testing.T, db *gorm.DB) {
	mustExec(t, db, `CREATE TABLE webhooks (
		id TEXT PRIMARY KEY,
		public_id TEXT NOT NULL UNIQUE,
		device_id TEXT NOT NULL,
		user_id TEXT NOT NULL,
		shortcut_id TEXT NOT NULL,
		shortcut_name TEXT NOT NULL,
		secret_encrypted TEXT,
		expires_at DATETIME,
		max_uses INTEGER,
		allowed_ips TEXT,
		trigger_count INTEGER DEFAULT 0,
		last_triggered_at DATETIME,
		is_active BOOLEAN,
		created_at DATETIME,
		updated_at DATETIME
	);`)
	mustExec(t, db, `CREATE TABLE webhook_rotations (
		id TEXT PRIMARY KEY,
		webhook_id TEXT NOT NULL,
		old_public_id TEXT NOT NULL,
		new_public_id TEXT NOT NULL,
		actor_user_id TEXT NOT NULL,
		reason TEXT,
		created_at DATETIME
	);`)
}

func createSessionTable(t *testing.T, db *gorm.DB) {
	mustExec(t, db, `CREATE TABLE sessions (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		token_hash TEXT NOT NULL UNIQUE,
		expires_at DATETIME NOT NULL,
		is_active BOOLEAN,
		created_at DATETIME
	);`)
}

func createAPIKeyTable(t *testing.T, db *gorm.DB) {
	mustExec(t, db, `CREATE TABLE api_keys (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		name TEXT NOT NULL,
		key_prefix TEXT NOT NULL,
		key_hash TEXT NOT NULL UNIQUE,
		permissions TEXT NOT NULL,
		rate_limit_per_min INTEGER,
		is_active BOOLEAN,
		last_used_at DATETIME,
		last_used_ip TEXT,
		expires_at DATETIME,
		created_at DATETIME,
		updated_at DATETIME
	);`)
}

func createExecutionTables(t *testing.T, db *gorm.DB) {
	mustExec(t, db, `CREATE TABLE webhook_executions (
		id TEXT PRIMARY KEY,
		webhook_id TEXT NOT NULL,
		device_id TEXT NOT NULL,
		user_id TEXT,
		api_key_id TEXT,
		auth_kind TEXT NOT NULL,
		status TEXT NOT NULL,
		payload TEXT,
		error_detail TEXT,
		duration_ms INTEGER DEFAULT 0,
		caller_ip TEXT,
		user_agent TEXT,
		created_at DATETIME
	);`)
	mustExec(t, db, `CREATE TABLE analytics_dailies (
		id TEXT PRIMARY KEY,
		webhook_id TEXT NOT NULL,
		date TEXT NOT NULL,
		trigger_count INTEGER DEFAULT 0,
		success_count INTEGER DEFAULT 0,
		failure_count INTEGER DEFAULT 0,
		avg_latency_ms REAL DEFAULT 0,
		UNIQUE(webhook_id, date)
	);`)
}

func createAuditLogTable(t *testing.T, db *gorm.DB) {
	mustExec(t, db, `CREATE TABLE audit_log_entries (
		id TEXT PRIMARY KEY,
		user_id TEXT,
		action TEXT NOT NULL,
		resource_type TEXT NOT NULL,
		resource_id TEXT NOT NULL,
		detail TEXT,
		ip TEXT,
		user_agent TEXT,
		created_at DATETIME
	);`)
}

func createRateLimitTable(t *testing.T, db *gorm.DB) {
	mustExec(t, db, `CREATE TABLE rate_limit_windows (
		identifier TEXT NOT NULL,
		window_start DATETIME NOT NULL,
		request_count INTEGER DEFAULT 0,
		PRIMARY KEY (identifier, window_start)
	);`)
}
