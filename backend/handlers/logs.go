package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"neurostack/backend/database"
	"neurostack/backend/models"
	"neurostack/backend/schema"
	"neurostack/backend/storage"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// CreateLog is the intermediary mutation endpoint: the session is
// re-verified here and the ownership column is stamped server-side,
// never trusted from the request body.
func CreateLog(w http.ResponseWriter, r *http.Request) {
	user := GetCurrentUser(r)
	if user == nil {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var entry models.LogEntry
	if err := json.NewDecoder(r.Body).Decode(&entry); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request")
		return
	}

	if errs := schema.Validate(entry); len(errs) > 0 {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]any{"errors": errs})
		return
	}

	entry.ID = uuid.Nil
	entry.UserID = user.ID
	entry.CreatedAt = time.Time{}

	if err := database.DB.Create(&entry).Error; err != nil {
		slog.Error("failed to create log", "source", "logs", "user_id", user.ID.String(), "error", err.Error())
		writeError(w, http.StatusInternalServerError, "Failed to create log")
		return
	}

	writeJSON(w, http.StatusCreated, entry)
}

type updateRequest struct {
	ID uuid.UUID `json:"id"`
	storage.LogPatch
}

// UpdateLog merges a partial over the owned record. An unowned or
// missing id is a 404 either way, so existence never leaks.
func UpdateLog(w http.ResponseWriter, r *http.Request) {
	user := GetCurrentUser(r)
	if user == nil {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var req updateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request")
		return
	}
	if req.ID == uuid.Nil {
		writeError(w, http.StatusBadRequest, "Log ID is required")
		return
	}

	var entry models.LogEntry
	err := database.DB.Where("id = ? AND user_id = ?", req.ID, user.ID).First(&entry).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			writeError(w, http.StatusNotFound, "Log not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to update log")
		return
	}

	req.LogPatch.Apply(&entry)

	if errs := schema.Validate(entry); len(errs) > 0 {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]any{"errors": errs})
		return
	}

	if err := database.DB.Save(&entry).Error; err != nil {
		slog.Error("failed to update log", "source", "logs", "user_id", user.ID.String(), "error", err.Error())
		writeError(w, http.StatusInternalServerError, "Failed to update log")
		return
	}

	writeJSON(w, http.StatusOK, entry)
}

// GetLogs lists the session's entries, newest first. limit <= 0 or
// absent returns everything.
func GetLogs(w http.ResponseWriter, r *http.Request) {
	user := GetCurrentUser(r)
	if user == nil {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	q := database.DB.Where("user_id = ?", user.ID).Order("occurred_at DESC")
	if limit, _ := strconv.Atoi(r.URL.Query().Get("limit")); limit > 0 {
		q = q.Limit(limit)
	}

	var logs []models.LogEntry
	if err := q.Find(&logs).Error; err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to fetch logs")
		return
	}
	if logs == nil {
		logs = []models.LogEntry{}
	}
	writeJSON(w, http.StatusOK, logs)
}

func DeleteLog(w http.ResponseWriter, r *http.Request) {
	user := GetCurrentUser(r)
	if user == nil {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid log ID")
		return
	}

	result := database.DB.Where("id = ? AND user_id = ?", id, user.ID).Delete(&models.LogEntry{})
	if result.Error != nil {
		writeError(w, http.StatusInternalServerError, "Failed to delete log")
		return
	}
	if result.RowsAffected == 0 {
		writeError(w, http.StatusNotFound, "Log not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

type HeatmapPoint struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
}

type TrendPoint struct {
	Date      string  `json:"date"`
	Sentiment float64 `json:"sentiment"`
	Count     int     `json:"count"`
}

func rangeDays(r *http.Request, fallback int) int {
	days, _ := strconv.Atoi(r.URL.Query().Get("days"))
	if days < 1 || days > 366 {
		return fallback
	}
	return days
}

// GetHeatmap feeds the consistency heatmap: entries per calendar day
// over the requested window. Bucketing happens in Go so the query
// stays portable across SQLite and Postgres.
func GetHeatmap(w http.ResponseWriter, r *http.Request) {
	user := GetCurrentUser(r)
	if user == nil {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	days := rangeDays(r, 90)
	since := time.Now().AddDate(0, 0, -days)

	var logs []models.LogEntry
	err := database.DB.Select("occurred_at").
		Where("user_id = ? AND occurred_at >= ?", user.ID, since).
		Find(&logs).Error
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to fetch logs")
		return
	}

	counts := make(map[string]int)
	for _, l := range logs {
		counts[l.OccurredAt.Format("2006-01-02")]++
	}

	points := make([]HeatmapPoint, 0, days)
	for d := 0; d < days; d++ {
		date := since.AddDate(0, 0, d+1).Format("2006-01-02")
		points = append(points, HeatmapPoint{Date: date, Count: counts[date]})
	}
	writeJSON(w, http.StatusOK, points)
}

// GetTrends feeds the trend chart: average sentiment per day. Days
// without a scored entry are omitted.
func GetTrends(w http.ResponseWriter, r *http.Request) {
	user := GetCurrentUser(r)
	if user == nil {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	days := rangeDays(r, 30)
	since := time.Now().AddDate(0, 0, -days)

	var logs []models.LogEntry
	err := database.DB.Select("occurred_at", "sentiment_score").
		Where("user_id = ? AND occurred_at >= ?", user.ID, since).
		Order("occurred_at ASC").
		Find(&logs).Error
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to fetch logs")
		return
	}

	type bucket struct {
		sum   int
		count int
	}
	buckets := make(map[string]*bucket)
	var order []string
	for _, l := range logs {
		if l.SentimentScore == nil {
			continue
		}
		date := l.OccurredAt.Format("2006-01-02")
		b, ok := buckets[date]
		if !ok {
			b = &bucket{}
			buckets[date] = b
			order = append(order, date)
		}
		b.sum += *l.SentimentScore
		b.count++
	}

	points := make([]TrendPoint, 0, len(order))
	for _, date := range order {
		b := buckets[date]
		points = append(points, TrendPoint{
			Date:      date,
			Sentiment: float64(b.sum) / float64(b.count),
			Count:     b.count,
		})
	}
	writeJSON(w, http.StatusOK, points)
}
