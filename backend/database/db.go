package database

import (
	"neurostack/backend/config"
	"neurostack/backend/models"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

var DB *gorm.DB

// Init opens the server database. A configured Postgres DSN wins;
// otherwise a local SQLite file is used.
func Init() error {
	var dial gorm.Dialector
	if dsn := config.C.Database.DSN; dsn != "" {
		dial = postgres.Open(dsn)
	} else {
		dial = sqlite.Open(config.C.Database.Path)
	}

	var err error
	DB, err = gorm.Open(dial, &gorm.Config{})
	if err != nil {
		return err
	}
	return DB.AutoMigrate(&models.User{}, &models.LogEntry{}, &models.AppLog{})
}
