package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Compound is one substance+dose pair inside a log entry. Dose is
// free text ("150mg", "2 pills") and is deliberately not parsed.
type Compound struct {
	Name string `json:"name"`
	Dose string `json:"dose"`
}

// LogEntry is one user-reported dose event. OccurredAt is when the
// user says it happened, not when the row was written.
type LogEntry struct {
	ID             uuid.UUID                     `json:"id" gorm:"type:uuid;primaryKey"`
	UserID         uuid.UUID                     `json:"user_id" gorm:"type:uuid;index"`
	OccurredAt     time.Time                     `json:"occurred_at" gorm:"index"`
	Compounds      datatypes.JSONSlice[Compound] `json:"compounds"`
	SentimentScore *int                          `json:"sentiment_score"`
	TagsCognitive  datatypes.JSONSlice[string]   `json:"tags_cognitive"`
	TagsPhysical   datatypes.JSONSlice[string]   `json:"tags_physical"`
	TagsMood       datatypes.JSONSlice[string]   `json:"tags_mood"`
	Notes          string                        `json:"notes"`
	CreatedAt      time.Time                     `json:"created_at"`
}

func (l *LogEntry) BeforeCreate(tx *gorm.DB) error {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	return nil
}
