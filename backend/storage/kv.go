package storage

import (
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// kvRecord is one key/blob pair in the on-device store. The local
// adapter and the pharmacy store keep whole serialized lists under
// single keys, localStorage-style.
type kvRecord struct {
	Key   string `gorm:"primaryKey"`
	Value string
}

func (kvRecord) TableName() string { return "kv" }

// KVStore is the device-local key-value store, backed by a SQLite file.
type KVStore struct {
	db *gorm.DB
}

// OpenKV opens (creating if needed) the on-device store at path.
// Use ":memory:" for tests.
func OpenKV(path string) (*KVStore, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{})
	if err != nil {
		return nil, err
	}
	if err := db.AutoMigrate(&kvRecord{}); err != nil {
		return nil, err
	}
	return &KVStore{db: db}, nil
}

// NewKVStore wraps an already-open gorm handle.
func NewKVStore(db *gorm.DB) (*KVStore, error) {
	if err := db.AutoMigrate(&kvRecord{}); err != nil {
		return nil, err
	}
	return &KVStore{db: db}, nil
}

// Get returns the value for key and whether it exists.
func (s *KVStore) Get(key string) (string, bool) {
	var rec kvRecord
	err := s.db.First(&rec, "key = ?", key).Error
	if err != nil {
		return "", false
	}
	return rec.Value, true
}

func (s *KVStore) Set(key, value string) error {
	return s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value"}),
	}).Create(&kvRecord{Key: key, Value: value}).Error
}

func (s *KVStore) Delete(key string) error {
	return s.db.Delete(&kvRecord{}, "key = ?", key).Error
}

// Probe checks that the store accepts writes by writing and removing
// a throwaway key.
func (s *KVStore) Probe() bool {
	const probeKey = "__storage_test__"
	if err := s.Set(probeKey, probeKey); err != nil {
		return false
	}
	return s.Delete(probeKey) == nil
}
