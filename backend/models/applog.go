package models

import "time"

// AppLog is a server-side application log row written by the slog handler.
type AppLog struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at" gorm:"index"`
	Level     string    `json:"level" gorm:"index"`
	Message   string    `json:"message"`
	Source    string    `json:"source" gorm:"index"`
	UserID    string    `json:"user_id,omitempty" gorm:"index"`
	Data      string    `json:"data"`
}
