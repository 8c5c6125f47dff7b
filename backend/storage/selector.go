package storage

import (
	"fmt"
	"log/slog"
	"sync"
)

// Selector picks one adapter per application session and hands it to
// everything downstream. It is constructed and injected explicitly
// rather than living as package state, so initialization order is
// visible at the composition root.
//
// Decision procedure: prefer remote when its probe passes, unless the
// persisted preference explicitly asks for local; otherwise fall back
// to local unconditionally.
type Selector struct {
	mu     sync.RWMutex
	local  Adapter
	remote Adapter
	prefs  *KVStore

	adapter Adapter
	mode    Mode
	ready   bool
}

func NewSelector(local, remote Adapter, prefs *KVStore) *Selector {
	return &Selector{local: local, remote: remote, prefs: prefs}
}

// Init resolves the adapter. Consumers must not call Adapter() before
// Ready() reports true.
func (s *Selector) Init() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.adapter, s.mode = s.local, ModeLocal
	if s.remote.IsAvailable() {
		pref, _ := s.prefs.Get(keyMode)
		if Mode(pref) != ModeLocal {
			s.adapter, s.mode = s.remote, ModeRemote
		}
	}
	s.ready = true

	slog.Info("storage mode selected", "source", "storage", "mode", string(s.mode))
}

func (s *Selector) Adapter() Adapter {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.adapter
}

func (s *Selector) Mode() Mode {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.mode
}

// Ready reports whether selection has completed, so consumers can
// defer adapter calls instead of racing startup.
func (s *Selector) Ready() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ready
}

// SwitchMode changes the active adapter if the target's probe passes
// and persists the preference. Data is not migrated: callers export
// from one backend and import into the other explicitly.
func (s *Selector) SwitchMode(mode Mode) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var target Adapter
	switch mode {
	case ModeLocal:
		target = s.local
	case ModeRemote:
		target = s.remote
	default:
		return fmt.Errorf("unknown storage mode %q", mode)
	}

	if !target.IsAvailable() {
		return fmt.Errorf("cannot switch to %s mode: %w", mode, ErrUnavailable)
	}

	s.adapter, s.mode = target, mode
	if err := s.prefs.Set(keyMode, string(mode)); err != nil {
		slog.Warn("failed to persist storage mode preference", "source", "storage", "error", err.Error())
	}
	return nil
}
