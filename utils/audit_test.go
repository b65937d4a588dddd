package utils

import (
	"testing"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"rivaaz-backend/models"
)

func setupAuditDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatal(err)
	}
	err = db.Exec(`CREATE TABLE IF NOT EXISTS "audit_logs" (
		"id" TEXT PRIMARY KEY, "table_name" TEXT, "record_id" TEXT, "action" TEXT,
		"old_values" TEXT, "new_values" TEXT, "user_id" TEXT, "user_email" TEXT, "created_at" DATETIME
	)`).Error
	if err != nil {
		t.Fatal(err)
	}
	return db
}

func TestAuditLoggerWritesEntries(t *testing.T) {
	db := setupAuditDB(t)
	logger := NewAuditLogger(db)

	userID := uuid.New()
	logger.Record("bookings", "rec-1", "update",
		map[string]interface{}{"status": "returned"},
		map[string]interface{}{"status": "Settled"},
		&userID, "staff@rivaaz.test")
	logger.Close()

	var logs []models.AuditLog
	if err := db.Find(&logs).Error; err != nil {
		t.Fatal(err)
	}
	if len(logs) != 1 {
		t.Fatalf("expected 1 audit log, got %d", len(logs))
	}
	if logs[0].Table != "bookings" || logs[0].Action != "update" {
		t.Errorf("unexpected entry: %+v", logs[0])
	}
	if logs[0].NewValues == "" {
		t.Error("new_values should carry the JSON snapshot")
	}
}

func TestAuditLoggerCloseIsIdempotent(t *testing.T) {
	logger := NewAuditLogger(setupAuditDB(t))
	logger.Close()
	logger.Close()
}

func TestMarshalAuditValue(t *testing.T) {
	if got := marshalAuditValue(nil); got != "" {
		t.Errorf("expected empty string for nil, got %q", got)
	}
	if got := marshalAuditValue(map[string]int{"qty": 3}); got != `{"qty":3}` {
		t.Errorf("unexpected JSON: %q", got)
	}
}
