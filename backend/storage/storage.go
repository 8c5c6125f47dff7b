package storage

import (
	"context"
	"time"

	"neurostack/backend/models"

	"github.com/google/uuid"
)

type Mode string

const (
	ModeLocal  Mode = "local"
	ModeRemote Mode = "remote"
)

// BundleVersion is stamped on every export.
const BundleVersion = "2.0.0"

// Session is the minimal identity projection both backends agree on.
// Local mode mints a synthetic id; remote mode echoes the server account.
type Session struct {
	ID    string `json:"id"`
	Email string `json:"email,omitempty"`
}

// Bundle is the backup/restore format shared by both adapters.
type Bundle struct {
	Logs       []models.LogEntry `json:"logs"`
	User       *Session          `json:"user"`
	ExportedAt time.Time         `json:"exportedAt"`
	Version    string            `json:"version"`
	Source     string            `json:"source,omitempty"`
}

// LogPatch is a partial update. Nil fields are left untouched; slices
// replace the stored value wholesale when non-nil.
type LogPatch struct {
	OccurredAt     *time.Time        `json:"occurred_at,omitempty"`
	Compounds      []models.Compound `json:"compounds,omitempty"`
	SentimentScore *int              `json:"sentiment_score,omitempty"`
	TagsCognitive  []string          `json:"tags_cognitive,omitempty"`
	TagsPhysical   []string          `json:"tags_physical,omitempty"`
	TagsMood       []string          `json:"tags_mood,omitempty"`
	Notes          *string           `json:"notes,omitempty"`
}

// Apply merges the patch over an entry in place.
func (p LogPatch) Apply(entry *models.LogEntry) {
	if p.OccurredAt != nil {
		entry.OccurredAt = *p.OccurredAt
	}
	if p.Compounds != nil {
		entry.Compounds = p.Compounds
	}
	if p.SentimentScore != nil {
		entry.SentimentScore = p.SentimentScore
	}
	if p.TagsCognitive != nil {
		entry.TagsCognitive = p.TagsCognitive
	}
	if p.TagsPhysical != nil {
		entry.TagsPhysical = p.TagsPhysical
	}
	if p.TagsMood != nil {
		entry.TagsMood = p.TagsMood
	}
	if p.Notes != nil {
		entry.Notes = *p.Notes
	}
}

// Adapter is the capability contract both persistence backends
// implement. Every mutating method returns the canonical record as
// persisted, never an echo of the caller's input. GetLogs ordering
// (occurred_at descending) is a hard contract: consumers rely on
// index 0 being the most recent entry.
type Adapter interface {
	Mode() Mode

	// IsAvailable is a cheap capability probe with no lasting side
	// effects. Callers consult it before trusting any other method.
	IsAvailable() bool

	SignUp(ctx context.Context, email, password string) error
	SignIn(ctx context.Context, email, password string) error
	SignOut(ctx context.Context) error
	GetUser(ctx context.Context) (*Session, error)

	CreateLog(ctx context.Context, entry models.LogEntry) (*models.LogEntry, error)
	UpdateLog(ctx context.Context, id uuid.UUID, patch LogPatch) (*models.LogEntry, error)
	// GetLogs returns at most limit entries, newest first. limit <= 0
	// means no limit.
	GetLogs(ctx context.Context, limit int) ([]models.LogEntry, error)
	GetLastLog(ctx context.Context) (*models.LogEntry, error)
	DeleteLog(ctx context.Context, id uuid.UUID) error

	ExportData(ctx context.Context) (*Bundle, error)
	ImportData(ctx context.Context, raw []byte) error
}
