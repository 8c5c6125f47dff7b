package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"neurostack/backend/models"

	"github.com/google/uuid"
)

const (
	keyLogs = "neurostack-logs"
	keyUser = "neurostack-user"
	keyPIN  = "neurostack-pin"
	keyMode = "storage-mode"
)

// LocalAdapter persists everything on-device. The whole log list
// lives as one JSON blob under a single key: reads deserialize it,
// writes re-serialize it. O(n) per operation, which is fine for one
// person's history.
//
// Auth is a convenience lock, not a security boundary: the last four
// characters of the sign-up secret are kept as a PIN and compared
// verbatim on sign-in. Hardening this would break the zero-backend
// guarantee of local mode, so it stays as-is.
type LocalAdapter struct {
	kv *KVStore
}

func NewLocal(kv *KVStore) *LocalAdapter {
	return &LocalAdapter{kv: kv}
}

func (a *LocalAdapter) Mode() Mode { return ModeLocal }

func (a *LocalAdapter) IsAvailable() bool {
	return a.kv != nil && a.kv.Probe()
}

// KV exposes the underlying store for co-located state (pharmacy
// data, the persisted mode preference).
func (a *LocalAdapter) KV() *KVStore { return a.kv }

func pinFromSecret(secret string) string {
	if len(secret) <= 4 {
		return secret
	}
	return secret[len(secret)-4:]
}

func (a *LocalAdapter) SignUp(ctx context.Context, email, password string) error {
	if !a.IsAvailable() {
		return &AuthError{Message: "local storage not available"}
	}

	if err := a.kv.Set(keyPIN, pinFromSecret(password)); err != nil {
		return &AuthError{Message: "local storage not available"}
	}

	user := Session{
		ID:    fmt.Sprintf("local-%d", time.Now().UnixMilli()),
		Email: email,
	}
	data, _ := json.Marshal(user)
	if err := a.kv.Set(keyUser, string(data)); err != nil {
		return &AuthError{Message: "local storage not available"}
	}
	return nil
}

func (a *LocalAdapter) SignIn(ctx context.Context, email, password string) error {
	if !a.IsAvailable() {
		return &AuthError{Message: "local storage not available"}
	}

	storedPIN, ok := a.kv.Get(keyPIN)
	if !ok {
		return &AuthError{Message: "no account found, please sign up first"}
	}
	if storedPIN != pinFromSecret(password) {
		return &AuthError{Message: "incorrect password"}
	}
	return nil
}

// SignOut ends the session only; on-device data persists.
func (a *LocalAdapter) SignOut(ctx context.Context) error {
	return nil
}

func (a *LocalAdapter) GetUser(ctx context.Context) (*Session, error) {
	if !a.IsAvailable() {
		return nil, nil
	}
	raw, ok := a.kv.Get(keyUser)
	if !ok {
		return nil, nil
	}
	var user Session
	if err := json.Unmarshal([]byte(raw), &user); err != nil {
		return nil, nil
	}
	return &user, nil
}

func (a *LocalAdapter) loadLogs() []models.LogEntry {
	raw, ok := a.kv.Get(keyLogs)
	if !ok {
		return nil
	}
	var logs []models.LogEntry
	if err := json.Unmarshal([]byte(raw), &logs); err != nil {
		return nil
	}
	return logs
}

func (a *LocalAdapter) saveLogs(logs []models.LogEntry) error {
	data, err := json.Marshal(logs)
	if err != nil {
		return err
	}
	return a.kv.Set(keyLogs, string(data))
}

func (a *LocalAdapter) CreateLog(ctx context.Context, entry models.LogEntry) (*models.LogEntry, error) {
	logs := a.loadLogs()

	entry.ID = uuid.New()
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now()
	}
	logs = append(logs, entry)

	// A degraded store behaves as a no-op rather than failing the form.
	_ = a.saveLogs(logs)
	return &entry, nil
}

func (a *LocalAdapter) UpdateLog(ctx context.Context, id uuid.UUID, patch LogPatch) (*models.LogEntry, error) {
	logs := a.loadLogs()
	for i := range logs {
		if logs[i].ID == id {
			patch.Apply(&logs[i])
			if err := a.saveLogs(logs); err != nil {
				return nil, ErrUnavailable
			}
			updated := logs[i]
			return &updated, nil
		}
	}
	return nil, ErrNotFound
}

func (a *LocalAdapter) GetLogs(ctx context.Context, limit int) ([]models.LogEntry, error) {
	logs := a.loadLogs()

	sort.Slice(logs, func(i, j int) bool {
		return logs[i].OccurredAt.After(logs[j].OccurredAt)
	})

	if limit > 0 && len(logs) > limit {
		logs = logs[:limit]
	}
	return logs, nil
}

func (a *LocalAdapter) GetLastLog(ctx context.Context) (*models.LogEntry, error) {
	logs, err := a.GetLogs(ctx, 1)
	if err != nil || len(logs) == 0 {
		return nil, err
	}
	return &logs[0], nil
}

func (a *LocalAdapter) DeleteLog(ctx context.Context, id uuid.UUID) error {
	logs := a.loadLogs()
	filtered := logs[:0]
	for _, l := range logs {
		if l.ID != id {
			filtered = append(filtered, l)
		}
	}
	return a.saveLogs(filtered)
}

func (a *LocalAdapter) ExportData(ctx context.Context) (*Bundle, error) {
	user, _ := a.GetUser(ctx)
	logs, _ := a.GetLogs(ctx, 0)
	return &Bundle{
		Logs:       logs,
		User:       user,
		ExportedAt: time.Now(),
		Version:    BundleVersion,
		Source:     string(ModeLocal),
	}, nil
}

func (a *LocalAdapter) ImportData(ctx context.Context, raw []byte) error {
	var bundle struct {
		Logs *[]models.LogEntry `json:"logs"`
	}
	if err := json.Unmarshal(raw, &bundle); err != nil {
		return ErrInvalidFormat
	}
	if bundle.Logs == nil {
		return ErrInvalidFormat
	}
	return a.saveLogs(*bundle.Logs)
}
