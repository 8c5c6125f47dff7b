package storage

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"neurostack/backend/models"

	"github.com/google/uuid"
)

func newTestLocal(t *testing.T) *LocalAdapter {
	kv, err := OpenKV(":memory:")
	if err != nil {
		t.Fatal(err)
	}
	return NewLocal(kv)
}

func testEntry(occurredAt time.Time) models.LogEntry {
	score := 3
	return models.LogEntry{
		OccurredAt:     occurredAt,
		Compounds:      []models.Compound{{Name: "Caffeine", Dose: "150mg"}},
		SentimentScore: &score,
		TagsCognitive:  []string{"Sharp"},
		Notes:          "test",
	}
}

func TestLocal_SignUpDerivesPIN(t *testing.T) {
	a := newTestLocal(t)
	ctx := context.Background()

	if err := a.SignUp(ctx, "me@example.com", "abcd1234"); err != nil {
		t.Fatalf("SignUp failed: %v", err)
	}

	pin, ok := a.KV().Get("neurostack-pin")
	if !ok || pin != "1234" {
		t.Errorf("Expected PIN 1234, got %q (ok=%v)", pin, ok)
	}
}

func TestLocal_SignInMatchesPINSuffix(t *testing.T) {
	a := newTestLocal(t)
	ctx := context.Background()

	if err := a.SignUp(ctx, "me@example.com", "abcd1234"); err != nil {
		t.Fatal(err)
	}

	// Wrong suffix fails with an auth error
	err := a.SignIn(ctx, "me@example.com", "zzzz9999")
	if err == nil {
		t.Fatal("Expected sign-in with wrong PIN to fail")
	}
	if !IsAuthError(err) {
		t.Errorf("Expected AuthError, got %T", err)
	}

	// Any secret ending in the stored PIN succeeds
	if err := a.SignIn(ctx, "me@example.com", "completely-different-1234"); err != nil {
		t.Errorf("Expected sign-in with matching suffix to succeed, got %v", err)
	}
}

func TestLocal_SignInWithoutAccount(t *testing.T) {
	a := newTestLocal(t)
	err := a.SignIn(context.Background(), "me@example.com", "abcd1234")
	if err == nil || !IsAuthError(err) {
		t.Errorf("Expected AuthError without account, got %v", err)
	}
}

func TestLocal_GetUserAfterSignUp(t *testing.T) {
	a := newTestLocal(t)
	ctx := context.Background()

	if user, _ := a.GetUser(ctx); user != nil {
		t.Fatalf("Expected no user before sign-up, got %+v", user)
	}

	if err := a.SignUp(ctx, "me@example.com", "abcd1234"); err != nil {
		t.Fatal(err)
	}
	user, err := a.GetUser(ctx)
	if err != nil || user == nil {
		t.Fatalf("Expected user after sign-up, got %v, %v", user, err)
	}
	if user.Email != "me@example.com" {
		t.Errorf("Expected email to round-trip, got %q", user.Email)
	}
	if user.ID == "" {
		t.Error("Expected a synthetic user id")
	}
}

func TestLocal_SignOutKeepsData(t *testing.T) {
	a := newTestLocal(t)
	ctx := context.Background()

	a.SignUp(ctx, "me@example.com", "abcd1234")
	a.CreateLog(ctx, testEntry(time.Now()))

	if err := a.SignOut(ctx); err != nil {
		t.Fatal(err)
	}

	logs, _ := a.GetLogs(ctx, 0)
	if len(logs) != 1 {
		t.Errorf("Expected data to survive sign-out, got %d logs", len(logs))
	}
}

func TestLocal_CreateAssignsID(t *testing.T) {
	a := newTestLocal(t)
	ctx := context.Background()

	input := testEntry(time.Now())
	created, err := a.CreateLog(ctx, input)
	if err != nil {
		t.Fatal(err)
	}
	if created.ID == uuid.Nil {
		t.Error("Expected an assigned id")
	}

	logs, _ := a.GetLogs(ctx, 1)
	if len(logs) != 1 {
		t.Fatalf("Expected 1 log, got %d", len(logs))
	}
	got := logs[0]
	if got.ID != created.ID {
		t.Error("Expected the persisted record back")
	}
	if got.Notes != input.Notes || len(got.Compounds) != 1 || got.Compounds[0].Dose != "150mg" {
		t.Errorf("Expected input fields to round-trip, got %+v", got)
	}
}

func TestLocal_GetLogsOrderingAndLimit(t *testing.T) {
	a := newTestLocal(t)
	ctx := context.Background()
	now := time.Now()

	// Insert out of order
	a.CreateLog(ctx, testEntry(now.Add(-2*time.Hour)))
	a.CreateLog(ctx, testEntry(now))
	a.CreateLog(ctx, testEntry(now.Add(-1*time.Hour)))

	logs, err := a.GetLogs(ctx, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(logs) != 3 {
		t.Fatalf("Expected 3 logs, got %d", len(logs))
	}
	for i := 1; i < len(logs); i++ {
		if logs[i].OccurredAt.After(logs[i-1].OccurredAt) {
			t.Error("Expected occurred_at descending order")
		}
	}

	limited, _ := a.GetLogs(ctx, 2)
	if len(limited) != 2 {
		t.Errorf("Expected limit to apply, got %d", len(limited))
	}

	last, _ := a.GetLastLog(ctx)
	if last == nil || !last.OccurredAt.Equal(logs[0].OccurredAt) {
		t.Error("Expected GetLastLog to match GetLogs index 0")
	}
}

func TestLocal_UpdateMergesSequentially(t *testing.T) {
	a := newTestLocal(t)
	ctx := context.Background()

	created, _ := a.CreateLog(ctx, testEntry(time.Now()))

	notes := "first pass"
	if _, err := a.UpdateLog(ctx, created.ID, LogPatch{Notes: &notes}); err != nil {
		t.Fatal(err)
	}

	score := 5
	updated, err := a.UpdateLog(ctx, created.ID, LogPatch{SentimentScore: &score})
	if err != nil {
		t.Fatal(err)
	}

	// Most recent partial merged over the original, nothing lost
	if updated.Notes != "first pass" {
		t.Errorf("Expected earlier partial preserved, got notes %q", updated.Notes)
	}
	if updated.SentimentScore == nil || *updated.SentimentScore != 5 {
		t.Error("Expected later partial applied")
	}
	if len(updated.Compounds) != 1 {
		t.Error("Expected untouched fields preserved")
	}
	if updated.ID != created.ID {
		t.Error("Expected id to be stable across updates")
	}
}

func TestLocal_UpdateMissingIsNotFound(t *testing.T) {
	a := newTestLocal(t)
	notes := "x"
	_, err := a.UpdateLog(context.Background(), uuid.New(), LogPatch{Notes: &notes})
	if err != ErrNotFound {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestLocal_DeleteLog(t *testing.T) {
	a := newTestLocal(t)
	ctx := context.Background()

	keep, _ := a.CreateLog(ctx, testEntry(time.Now()))
	drop, _ := a.CreateLog(ctx, testEntry(time.Now().Add(-time.Hour)))

	if err := a.DeleteLog(ctx, drop.ID); err != nil {
		t.Fatal(err)
	}
	logs, _ := a.GetLogs(ctx, 0)
	if len(logs) != 1 || logs[0].ID != keep.ID {
		t.Errorf("Expected only the kept log, got %+v", logs)
	}
}

func TestLocal_ExportImportRoundTrip(t *testing.T) {
	a := newTestLocal(t)
	ctx := context.Background()

	a.SignUp(ctx, "me@example.com", "abcd1234")
	a.CreateLog(ctx, testEntry(time.Now()))
	a.CreateLog(ctx, testEntry(time.Now().Add(-time.Hour)))

	bundle, err := a.ExportData(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if bundle.Version != BundleVersion || bundle.User == nil || len(bundle.Logs) != 2 {
		t.Fatalf("Unexpected bundle: %+v", bundle)
	}

	raw, err := json.Marshal(bundle)
	if err != nil {
		t.Fatal(err)
	}
	if err := a.ImportData(ctx, raw); err != nil {
		t.Fatal(err)
	}

	after, _ := a.GetLogs(ctx, 0)
	if len(after) != 2 {
		t.Fatalf("Expected 2 logs after re-import, got %d", len(after))
	}
	for i := range after {
		if after[i].ID != bundle.Logs[i].ID {
			t.Error("Expected ids preserved across export/import")
		}
	}
}

func TestLocal_ImportRejectsGarbage(t *testing.T) {
	a := newTestLocal(t)
	ctx := context.Background()

	if err := a.ImportData(ctx, []byte("not json")); err != ErrInvalidFormat {
		t.Errorf("Expected ErrInvalidFormat for malformed JSON, got %v", err)
	}
	if err := a.ImportData(ctx, []byte(`{"something":"else"}`)); err != ErrInvalidFormat {
		t.Errorf("Expected ErrInvalidFormat without logs key, got %v", err)
	}
}

func TestLocal_DegradesWhenStoreBroken(t *testing.T) {
	a := newTestLocal(t)
	ctx := context.Background()
	a.CreateLog(ctx, testEntry(time.Now()))

	// Simulate the host environment yanking storage away.
	sqlDB, err := a.KV().db.DB()
	if err != nil {
		t.Fatal(err)
	}
	sqlDB.Close()

	if a.IsAvailable() {
		t.Error("Expected IsAvailable to report the broken store")
	}

	logs, err := a.GetLogs(ctx, 0)
	if err != nil || len(logs) != 0 {
		t.Errorf("Expected empty results, not an error: %v, %v", logs, err)
	}
	if user, err := a.GetUser(ctx); err != nil || user != nil {
		t.Errorf("Expected nil user, not an error: %v, %v", user, err)
	}
	if _, err := a.CreateLog(ctx, testEntry(time.Now())); err != nil {
		t.Errorf("Expected create to degrade to a no-op, got %v", err)
	}
}
