// Package autosave debounces the logging form's create-or-update
// traffic. Each open form owns one Saver: the first flush creates the
// record, every later flush updates the same id. A single pending
// slot plus an in-flight flag serialize the requests, so two edits
// inside the debounce window collapse into one persisted mutation and
// a re-fired timer can never race a request already on the wire.
package autosave

import (
	"context"
	"sync"
	"time"

	"neurostack/backend/models"
	"neurostack/backend/storage"

	"github.com/google/uuid"
)

const DefaultDelay = time.Second

type Saver struct {
	adapter storage.Adapter
	delay   time.Duration

	// OnSave, when set, observes the outcome of every flush.
	OnSave func(*models.LogEntry, error)

	mu       sync.Mutex
	pending  *models.LogEntry
	timer    *time.Timer
	id       uuid.UUID
	inflight bool
	closed   bool
}

func NewSaver(adapter storage.Adapter, delay time.Duration) *Saver {
	if delay <= 0 {
		delay = DefaultDelay
	}
	return &Saver{adapter: adapter, delay: delay}
}

// Submit replaces the pending draft and restarts the debounce timer.
// A second edit within the window never enqueues a second request.
func (s *Saver) Submit(entry models.LogEntry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}

	s.pending = &entry
	if s.timer == nil {
		s.timer = time.AfterFunc(s.delay, s.flush)
	} else {
		s.timer.Reset(s.delay)
	}
}

// ID returns the persisted record id, or uuid.Nil before the first
// successful flush.
func (s *Saver) ID() uuid.UUID {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.id
}

func (s *Saver) flush() {
	s.mu.Lock()
	if s.inflight || s.pending == nil {
		// An in-flight request picks the pending draft up when it
		// finishes; nothing to do here.
		s.mu.Unlock()
		return
	}
	entry := *s.pending
	s.pending = nil
	s.inflight = true
	id := s.id
	s.mu.Unlock()

	ctx := context.Background()
	var saved *models.LogEntry
	var err error
	if id == uuid.Nil {
		saved, err = s.adapter.CreateLog(ctx, entry)
	} else {
		saved, err = s.adapter.UpdateLog(ctx, id, patchFrom(entry))
	}

	s.mu.Lock()
	if err == nil && saved != nil {
		s.id = saved.ID
	}
	s.inflight = false
	again := s.pending != nil
	s.mu.Unlock()

	if s.OnSave != nil {
		s.OnSave(saved, err)
	}
	if again {
		s.flush()
	}
}

func patchFrom(entry models.LogEntry) storage.LogPatch {
	occurredAt := entry.OccurredAt
	notes := entry.Notes
	return storage.LogPatch{
		OccurredAt:     &occurredAt,
		Compounds:      entry.Compounds,
		SentimentScore: entry.SentimentScore,
		TagsCognitive:  entry.TagsCognitive,
		TagsPhysical:   entry.TagsPhysical,
		TagsMood:       entry.TagsMood,
		Notes:          &notes,
	}
}

// Flush persists any pending draft immediately.
func (s *Saver) Flush() {
	s.mu.Lock()
	if s.timer != nil {
		s.timer.Stop()
	}
	s.mu.Unlock()
	s.flush()
}

// Close stops the timer and flushes whatever is left.
func (s *Saver) Close() {
	s.mu.Lock()
	s.closed = true
	if s.timer != nil {
		s.timer.Stop()
	}
	s.mu.Unlock()
	s.flush()
}
