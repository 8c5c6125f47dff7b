package schema

import (
	"fmt"

	"neurostack/backend/models"
)

// The three tag groups are fixed vocabularies. Anything outside them
// is a validation error, not a new tag.
var (
	CognitiveTags = []string{"Flow State", "Brain Fog", "Sharp", "Distracted", "Motivation", "Creative"}
	PhysicalTags  = []string{"High Energy", "Jittery", "Headache", "Nausea", "Insomnia", "Muscle Tension"}
	MoodTags      = []string{"Anxious", "Calm", "Irritable", "Euphoric", "Social", "Numb"}
)

const (
	SentimentMin = 1
	SentimentMax = 5
)

// FieldError is one inline validation message. Validation never panics
// or aborts; callers collect the list and block submission on it.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e FieldError) Error() string {
	return e.Field + ": " + e.Message
}

// Validate checks a log entry against the schema rules and returns
// every violation. An empty result means the entry may be persisted.
func Validate(entry models.LogEntry) []FieldError {
	var errs []FieldError

	if entry.OccurredAt.IsZero() {
		errs = append(errs, FieldError{Field: "occurred_at", Message: "must be a valid date-time"})
	}

	if len(entry.Compounds) == 0 {
		errs = append(errs, FieldError{Field: "compounds", Message: "at least one compound is required"})
	}
	for i, c := range entry.Compounds {
		if c.Name == "" {
			errs = append(errs, FieldError{Field: fmt.Sprintf("compounds[%d].name", i), Message: "compound name is required"})
		}
		if c.Dose == "" {
			errs = append(errs, FieldError{Field: fmt.Sprintf("compounds[%d].dose", i), Message: "dose is required"})
		}
	}

	if entry.SentimentScore != nil {
		if s := *entry.SentimentScore; s < SentimentMin || s > SentimentMax {
			errs = append(errs, FieldError{
				Field:   "sentiment_score",
				Message: fmt.Sprintf("must be between %d and %d", SentimentMin, SentimentMax),
			})
		}
	}

	errs = append(errs, validateTags("tags_cognitive", entry.TagsCognitive, CognitiveTags)...)
	errs = append(errs, validateTags("tags_physical", entry.TagsPhysical, PhysicalTags)...)
	errs = append(errs, validateTags("tags_mood", entry.TagsMood, MoodTags)...)

	return errs
}

func validateTags(field string, tags []string, allowed []string) []FieldError {
	var errs []FieldError
	for _, tag := range tags {
		ok := false
		for _, a := range allowed {
			if tag == a {
				ok = true
				break
			}
		}
		if !ok {
			errs = append(errs, FieldError{Field: field, Message: fmt.Sprintf("%q is not a recognized tag", tag)})
		}
	}
	return errs
}
