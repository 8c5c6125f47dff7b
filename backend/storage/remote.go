package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"strconv"
	"time"

	"neurostack/backend/models"

	"github.com/google/uuid"
)

// PlaceholderBaseURL is the value scaffolding tools leave in unconfigured
// deployments; it counts as "not configured".
const PlaceholderBaseURL = "https://placeholder.invalid"

// exportPageSize trades latency for completeness on bulk export.
const exportPageSize = 1000

// RemoteAdapter talks to a hosted neurostack server. Authentication is
// delegated entirely to the server; the session rides in a cookie jar.
// Create/update go through the server's intermediary endpoint so the
// caller's identity is re-verified and ownership stamped server-side.
type RemoteAdapter struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

func NewRemote(baseURL, apiKey string) *RemoteAdapter {
	jar, _ := cookiejar.New(nil)
	return &RemoteAdapter{
		baseURL: baseURL,
		apiKey:  apiKey,
		client: &http.Client{
			Jar:     jar,
			Timeout: 30 * time.Second,
		},
	}
}

func (a *RemoteAdapter) Mode() Mode { return ModeRemote }

// IsAvailable only checks configuration; it deliberately makes no
// network call so the probe stays cheap and synchronous.
func (a *RemoteAdapter) IsAvailable() bool {
	return a.baseURL != "" && a.baseURL != PlaceholderBaseURL &&
		a.apiKey != "" && a.apiKey != "placeholder"
}

func (a *RemoteAdapter) do(ctx context.Context, method, path string, body any) (*http.Response, error) {
	var buf *bytes.Buffer
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		buf = bytes.NewBuffer(data)
	} else {
		buf = &bytes.Buffer{}
	}

	req, err := http.NewRequestWithContext(ctx, method, a.baseURL+path, buf)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-API-Key", a.apiKey)

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return resp, nil
}

// serverError extracts the {"error": ...} message the server sends.
func serverError(resp *http.Response) string {
	var body struct {
		Error string `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err == nil && body.Error != "" {
		return body.Error
	}
	return resp.Status
}

func (a *RemoteAdapter) auth(ctx context.Context, path, email, password string) error {
	resp, err := a.do(ctx, http.MethodPost, path, map[string]string{
		"email":    email,
		"password": password,
	})
	if err != nil {
		return &AuthError{Message: err.Error()}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return &AuthError{Message: serverError(resp)}
	}
	return nil
}

func (a *RemoteAdapter) SignUp(ctx context.Context, email, password string) error {
	return a.auth(ctx, "/api/auth/register", email, password)
}

func (a *RemoteAdapter) SignIn(ctx context.Context, email, password string) error {
	return a.auth(ctx, "/api/auth/login", email, password)
}

func (a *RemoteAdapter) SignOut(ctx context.Context) error {
	resp, err := a.do(ctx, http.MethodPost, "/api/auth/logout", nil)
	if err != nil {
		return err
	}
	resp.Body.Close()
	return nil
}

func (a *RemoteAdapter) GetUser(ctx context.Context) (*Session, error) {
	resp, err := a.do(ctx, http.MethodGet, "/api/auth/me", nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, nil
	}
	var user Session
	if err := json.NewDecoder(resp.Body).Decode(&user); err != nil {
		return nil, err
	}
	return &user, nil
}

func (a *RemoteAdapter) CreateLog(ctx context.Context, entry models.LogEntry) (*models.LogEntry, error) {
	user, err := a.GetUser(ctx)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUnauthorized
	}

	resp, err := a.do(ctx, http.MethodPost, "/api/logs", entry)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK, http.StatusCreated:
	case http.StatusUnauthorized:
		return nil, ErrUnauthorized
	default:
		return nil, fmt.Errorf("create log failed: %s", serverError(resp))
	}

	var created models.LogEntry
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		return nil, err
	}
	return &created, nil
}

func (a *RemoteAdapter) UpdateLog(ctx context.Context, id uuid.UUID, patch LogPatch) (*models.LogEntry, error) {
	payload := struct {
		ID uuid.UUID `json:"id"`
		LogPatch
	}{ID: id, LogPatch: patch}

	resp, err := a.do(ctx, http.MethodPatch, "/api/logs", payload)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusUnauthorized:
		return nil, ErrUnauthorized
	case http.StatusNotFound:
		return nil, ErrNotFound
	default:
		return nil, fmt.Errorf("update log failed: %s", serverError(resp))
	}

	var updated models.LogEntry
	if err := json.NewDecoder(resp.Body).Decode(&updated); err != nil {
		return nil, err
	}
	return &updated, nil
}

func (a *RemoteAdapter) GetLogs(ctx context.Context, limit int) ([]models.LogEntry, error) {
	path := "/api/logs"
	if limit > 0 {
		path += "?limit=" + strconv.Itoa(limit)
	}
	resp, err := a.do(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		// Listing without a session yields an empty set, not an error.
		return nil, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("get logs failed: %s", serverError(resp))
	}

	var logs []models.LogEntry
	if err := json.NewDecoder(resp.Body).Decode(&logs); err != nil {
		return nil, err
	}
	return logs, nil
}

func (a *RemoteAdapter) GetLastLog(ctx context.Context) (*models.LogEntry, error) {
	logs, err := a.GetLogs(ctx, 1)
	if err != nil || len(logs) == 0 {
		return nil, err
	}
	return &logs[0], nil
}

func (a *RemoteAdapter) DeleteLog(ctx context.Context, id uuid.UUID) error {
	resp, err := a.do(ctx, http.MethodDelete, "/api/logs/"+id.String(), nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK, http.StatusNoContent:
		return nil
	case http.StatusUnauthorized:
		return ErrUnauthorized
	case http.StatusNotFound:
		return ErrNotFound
	default:
		return fmt.Errorf("delete log failed: %s", serverError(resp))
	}
}

func (a *RemoteAdapter) ExportData(ctx context.Context) (*Bundle, error) {
	user, err := a.GetUser(ctx)
	if err != nil {
		return nil, err
	}
	logs, err := a.GetLogs(ctx, exportPageSize)
	if err != nil {
		return nil, err
	}
	return &Bundle{
		Logs:       logs,
		User:       user,
		ExportedAt: time.Now(),
		Version:    BundleVersion,
		Source:     string(ModeRemote),
	}, nil
}

// ImportData re-creates bundle entries one at a time. Individual
// failures are logged and skipped; the batch as a whole still succeeds.
func (a *RemoteAdapter) ImportData(ctx context.Context, raw []byte) error {
	var bundle struct {
		Logs *[]models.LogEntry `json:"logs"`
	}
	if err := json.Unmarshal(raw, &bundle); err != nil {
		return ErrInvalidFormat
	}
	if bundle.Logs == nil {
		return ErrInvalidFormat
	}

	user, err := a.GetUser(ctx)
	if err != nil {
		return err
	}
	if user == nil {
		return ErrUnauthorized
	}

	for _, entry := range *bundle.Logs {
		entry.ID = uuid.Nil
		entry.UserID = uuid.Nil
		if _, err := a.CreateLog(ctx, entry); err != nil {
			slog.Warn("failed to import log", "source", "storage", "error", err.Error())
		}
	}
	return nil
}
