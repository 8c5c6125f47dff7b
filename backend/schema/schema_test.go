package schema

import (
	"testing"
	"time"

	"neurostack/backend/models"
)

func validEntry() models.LogEntry {
	score := 4
	return models.LogEntry{
		OccurredAt:     time.Now(),
		Compounds:      []models.Compound{{Name: "Caffeine", Dose: "150mg"}},
		SentimentScore: &score,
		TagsCognitive:  []string{"Sharp"},
		TagsPhysical:   []string{"High Energy"},
		TagsMood:       []string{"Calm"},
		Notes:          "morning stack",
	}
}

func TestValidate_ValidEntry(t *testing.T) {
	if errs := Validate(validEntry()); len(errs) != 0 {
		t.Errorf("Expected no errors, got %v", errs)
	}
}

func TestValidate_SentimentOutOfRange(t *testing.T) {
	for _, score := range []int{0, 6, -1, 100} {
		entry := validEntry()
		entry.SentimentScore = &score
		errs := Validate(entry)
		if len(errs) != 1 || errs[0].Field != "sentiment_score" {
			t.Errorf("Expected sentiment_score error for %d, got %v", score, errs)
		}
	}
}

func TestValidate_SentimentAbsentIsFine(t *testing.T) {
	entry := validEntry()
	entry.SentimentScore = nil
	if errs := Validate(entry); len(errs) != 0 {
		t.Errorf("Expected no errors, got %v", errs)
	}
}

func TestValidate_EmptyCompounds(t *testing.T) {
	entry := validEntry()
	entry.Compounds = nil
	errs := Validate(entry)
	if len(errs) != 1 || errs[0].Field != "compounds" {
		t.Errorf("Expected compounds error, got %v", errs)
	}
}

func TestValidate_CompoundMissingFields(t *testing.T) {
	entry := validEntry()
	entry.Compounds = []models.Compound{{Name: "", Dose: "150mg"}, {Name: "Theanine", Dose: ""}}
	errs := Validate(entry)
	if len(errs) != 2 {
		t.Fatalf("Expected 2 errors, got %v", errs)
	}
	if errs[0].Field != "compounds[0].name" || errs[1].Field != "compounds[1].dose" {
		t.Errorf("Unexpected fields: %v", errs)
	}
}

func TestValidate_UnknownTag(t *testing.T) {
	entry := validEntry()
	entry.TagsMood = []string{"Calm", "Blissful"}
	errs := Validate(entry)
	if len(errs) != 1 || errs[0].Field != "tags_mood" {
		t.Errorf("Expected tags_mood error, got %v", errs)
	}
}

func TestValidate_ZeroOccurredAt(t *testing.T) {
	entry := validEntry()
	entry.OccurredAt = time.Time{}
	errs := Validate(entry)
	if len(errs) != 1 || errs[0].Field != "occurred_at" {
		t.Errorf("Expected occurred_at error, got %v", errs)
	}
}

func TestValidate_CollectsAllErrors(t *testing.T) {
	score := 9
	entry := models.LogEntry{
		SentimentScore: &score,
		TagsCognitive:  []string{"Psychic"},
	}
	errs := Validate(entry)
	// occurred_at, compounds, sentiment_score, tags_cognitive
	if len(errs) != 4 {
		t.Errorf("Expected 4 errors, got %d: %v", len(errs), errs)
	}
}

func TestTagGroups_SixTermsEach(t *testing.T) {
	for name, group := range map[string][]string{
		"cognitive": CognitiveTags,
		"physical":  PhysicalTags,
		"mood":      MoodTags,
	} {
		if len(group) != 6 {
			t.Errorf("Expected 6 %s tags, got %d", name, len(group))
		}
	}
}
