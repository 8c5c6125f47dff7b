// Package pharmacy holds the device-local compound catalog, stack
// presets and the dose log they feed. It is a deliberate second "dose"
// representation: here doses are numeric with a unit enum, while the
// storage adapters' log entries keep dose as free text. The two are
// inconsistent in the product and are kept that way on purpose.
package pharmacy

import (
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"neurostack/backend/storage"

	"github.com/google/uuid"
)

type Unit string

const (
	UnitMg    Unit = "mg"
	UnitMl    Unit = "ml"
	UnitG     Unit = "g"
	UnitPills Unit = "pills"
	UnitMcg   Unit = "mcg"
	UnitIU    Unit = "IU"
)

var validUnits = map[Unit]bool{
	UnitMg: true, UnitMl: true, UnitG: true,
	UnitPills: true, UnitMcg: true, UnitIU: true,
}

// Compound is a catalog item. Deactivating hides it from logging
// without touching historical references; deleting cascades.
type Compound struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	DefaultDose float64   `json:"defaultDose"`
	Unit        Unit      `json:"unit"`
	ColorHex    string    `json:"colorHex"`
	IsActive    bool      `json:"isActive"`
	CreatedAt   time.Time `json:"createdAt"`
}

type DoseItem struct {
	CompoundID uuid.UUID `json:"compoundId"`
	Dose       float64   `json:"dose"`
	Timestamp  time.Time `json:"timestamp,omitzero"`
}

// StackPreset is a named, colored bundle of doses for one-tap logging.
type StackPreset struct {
	ID        uuid.UUID  `json:"id"`
	Name      string     `json:"name"`
	DoseItems []DoseItem `json:"doseItems"`
	ColorHex  string     `json:"colorHex"`
	CreatedAt time.Time  `json:"createdAt"`
}

// DoseLog is one logged intake with subjective scores.
type DoseLog struct {
	ID            uuid.UUID  `json:"id"`
	Date          string     `json:"date"` // YYYY-MM-DD
	Timestamp     time.Time  `json:"timestamp"`
	DoseItems     []DoseItem `json:"doseItems"`
	Anxiety       int        `json:"anxiety"`       // 1-10
	Functionality int        `json:"functionality"` // 1-10
	Notes         string     `json:"notes"`
	PresetID      *uuid.UUID `json:"presetId,omitempty"`
}

const (
	keyCompounds = "neurostack-compounds"
	keyPresets   = "neurostack-presets"
	keyDoseLogs  = "neurostack-doselogs"
)

// Store keeps the pharmacy state in the same on-device key-value
// store the local adapter uses, one JSON blob per collection.
type Store struct {
	kv *storage.KVStore
}

func NewStore(kv *storage.KVStore) *Store {
	return &Store{kv: kv}
}

func load[T any](kv *storage.KVStore, key string) []T {
	raw, ok := kv.Get(key)
	if !ok {
		return nil
	}
	var items []T
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		return nil
	}
	return items
}

func save[T any](kv *storage.KVStore, key string, items []T) error {
	data, err := json.Marshal(items)
	if err != nil {
		return err
	}
	return kv.Set(key, string(data))
}

// Compounds

func (s *Store) Compounds() []Compound {
	return load[Compound](s.kv, keyCompounds)
}

func (s *Store) AddCompound(c Compound) (*Compound, error) {
	if c.Name == "" {
		return nil, fmt.Errorf("compound name is required")
	}
	if !validUnits[c.Unit] {
		return nil, fmt.Errorf("unknown unit %q", c.Unit)
	}

	c.ID = uuid.New()
	c.CreatedAt = time.Now()
	compounds := append(s.Compounds(), c)
	if err := save(s.kv, keyCompounds, compounds); err != nil {
		return nil, err
	}
	return &c, nil
}

func (s *Store) UpdateCompound(id uuid.UUID, apply func(*Compound)) (*Compound, error) {
	compounds := s.Compounds()
	for i := range compounds {
		if compounds[i].ID == id {
			apply(&compounds[i])
			if !validUnits[compounds[i].Unit] {
				return nil, fmt.Errorf("unknown unit %q", compounds[i].Unit)
			}
			if err := save(s.kv, keyCompounds, compounds); err != nil {
				return nil, err
			}
			c := compounds[i]
			return &c, nil
		}
	}
	return nil, storage.ErrNotFound
}

// DeleteCompound removes the compound and scrubs its dose items out of
// every preset and every dose log. The presets and logs themselves
// survive; only the references go.
func (s *Store) DeleteCompound(id uuid.UUID) error {
	compounds := s.Compounds()
	kept := compounds[:0]
	for _, c := range compounds {
		if c.ID != id {
			kept = append(kept, c)
		}
	}
	if err := save(s.kv, keyCompounds, kept); err != nil {
		return err
	}

	presets := s.Presets()
	for i := range presets {
		presets[i].DoseItems = withoutCompound(presets[i].DoseItems, id)
	}
	if err := save(s.kv, keyPresets, presets); err != nil {
		return err
	}

	logs := s.DoseLogs()
	for i := range logs {
		logs[i].DoseItems = withoutCompound(logs[i].DoseItems, id)
	}
	return save(s.kv, keyDoseLogs, logs)
}

func withoutCompound(items []DoseItem, id uuid.UUID) []DoseItem {
	kept := items[:0]
	for _, item := range items {
		if item.CompoundID != id {
			kept = append(kept, item)
		}
	}
	return kept
}

// Presets

func (s *Store) Presets() []StackPreset {
	return load[StackPreset](s.kv, keyPresets)
}

func (s *Store) AddPreset(p StackPreset) (*StackPreset, error) {
	if p.Name == "" {
		return nil, fmt.Errorf("preset name is required")
	}
	p.ID = uuid.New()
	p.CreatedAt = time.Now()
	presets := append(s.Presets(), p)
	if err := save(s.kv, keyPresets, presets); err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *Store) UpdatePreset(id uuid.UUID, apply func(*StackPreset)) (*StackPreset, error) {
	presets := s.Presets()
	for i := range presets {
		if presets[i].ID == id {
			apply(&presets[i])
			if err := save(s.kv, keyPresets, presets); err != nil {
				return nil, err
			}
			p := presets[i]
			return &p, nil
		}
	}
	return nil, storage.ErrNotFound
}

func (s *Store) DeletePreset(id uuid.UUID) error {
	presets := s.Presets()
	kept := presets[:0]
	for _, p := range presets {
		if p.ID != id {
			kept = append(kept, p)
		}
	}
	return save(s.kv, keyPresets, kept)
}

// Dose logs

func (s *Store) DoseLogs() []DoseLog {
	logs := load[DoseLog](s.kv, keyDoseLogs)
	sort.Slice(logs, func(i, j int) bool {
		return logs[i].Timestamp.After(logs[j].Timestamp)
	})
	return logs
}

func (s *Store) AddDoseLog(l DoseLog) (*DoseLog, error) {
	l.ID = uuid.New()
	if l.Timestamp.IsZero() {
		l.Timestamp = time.Now()
	}
	if l.Date == "" {
		l.Date = l.Timestamp.Format("2006-01-02")
	}
	logs := append(load[DoseLog](s.kv, keyDoseLogs), l)
	if err := save(s.kv, keyDoseLogs, logs); err != nil {
		return nil, err
	}
	return &l, nil
}

func (s *Store) DeleteDoseLog(id uuid.UUID) error {
	logs := load[DoseLog](s.kv, keyDoseLogs)
	kept := logs[:0]
	for _, l := range logs {
		if l.ID != id {
			kept = append(kept, l)
		}
	}
	return save(s.kv, keyDoseLogs, kept)
}

// LogPreset records one intake of every dose in the preset, stamped now.
func (s *Store) LogPreset(presetID uuid.UUID, anxiety, functionality int, notes string) (*DoseLog, error) {
	var preset *StackPreset
	for _, p := range s.Presets() {
		if p.ID == presetID {
			preset = &p
			break
		}
	}
	if preset == nil {
		return nil, storage.ErrNotFound
	}

	now := time.Now()
	items := make([]DoseItem, len(preset.DoseItems))
	for i, item := range preset.DoseItems {
		items[i] = DoseItem{CompoundID: item.CompoundID, Dose: item.Dose, Timestamp: now}
	}

	return s.AddDoseLog(DoseLog{
		Date:          now.Format("2006-01-02"),
		Timestamp:     now,
		DoseItems:     items,
		Anxiety:       anxiety,
		Functionality: functionality,
		Notes:         notes,
		PresetID:      &presetID,
	})
}

// Bundle is the pharmacy backup format. Import accepts any subset of
// the keys and overwrites the matching collections.
type Bundle struct {
	Compounds    *[]Compound    `json:"compounds,omitempty"`
	StackPresets *[]StackPreset `json:"stackPresets,omitempty"`
	LogEntries   *[]DoseLog     `json:"logEntries,omitempty"`
	ExportedAt   time.Time      `json:"exportedAt,omitzero"`
	Version      string         `json:"version,omitempty"`
}

func (s *Store) Export() Bundle {
	compounds := s.Compounds()
	presets := s.Presets()
	logs := s.DoseLogs()
	return Bundle{
		Compounds:    &compounds,
		StackPresets: &presets,
		LogEntries:   &logs,
		ExportedAt:   time.Now(),
		Version:      storage.BundleVersion,
	}
}

func (s *Store) Import(raw []byte) error {
	var bundle Bundle
	if err := json.Unmarshal(raw, &bundle); err != nil {
		return storage.ErrInvalidFormat
	}
	if bundle.Compounds == nil && bundle.StackPresets == nil && bundle.LogEntries == nil {
		return storage.ErrInvalidFormat
	}

	if bundle.Compounds != nil {
		if err := save(s.kv, keyCompounds, *bundle.Compounds); err != nil {
			return err
		}
	}
	if bundle.StackPresets != nil {
		if err := save(s.kv, keyPresets, *bundle.StackPresets); err != nil {
			return err
		}
	}
	if bundle.LogEntries != nil {
		if err := save(s.kv, keyDoseLogs, *bundle.LogEntries); err != nil {
			return err
		}
	}
	return nil
}
