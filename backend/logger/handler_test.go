package logger

import (
	"log/slog"
	"testing"

	"neurostack/backend/models"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupLoggerDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatal(err)
	}
	db.AutoMigrate(&models.AppLog{})
	return db
}

func TestDBHandler_WritesRow(t *testing.T) {
	db := setupLoggerDB(t)
	log := slog.New(NewDBHandler(db))

	log.Info("user logged in", "source", "auth", "user_id", "abc-123", "email", "me@example.com")

	var rows []models.AppLog
	db.Find(&rows)
	if len(rows) != 1 {
		t.Fatalf("Expected 1 row, got %d", len(rows))
	}
	row := rows[0]
	if row.Message != "user logged in" || row.Level != "INFO" {
		t.Errorf("Unexpected row: %+v", row)
	}
	if row.Source != "auth" || row.UserID != "abc-123" {
		t.Errorf("Expected source and user_id lifted into columns, got %+v", row)
	}
	if row.Data == "" {
		t.Error("Expected leftover attrs serialized into data")
	}
}

func TestDBHandler_WithAttrs(t *testing.T) {
	db := setupLoggerDB(t)
	log := slog.New(NewDBHandler(db)).With("source", "storage")

	log.Warn("failed to import log")

	var row models.AppLog
	db.First(&row)
	if row.Source != "storage" {
		t.Errorf("Expected handler-level attrs applied, got %+v", row)
	}
	if row.Level != "WARN" {
		t.Errorf("Expected WARN level, got %s", row.Level)
	}
}
