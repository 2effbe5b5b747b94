// Package history keeps the bounded, most-recent-first list of woken devices.
package history

import (
	"encoding/json"
	"sync"

	"github.com/fgeck/gowol-homelab/internal/models"
	"github.com/rs/zerolog"
)

const (
	// MaxItems bounds the history length.
	MaxItems = 5

	// StorageKey is the backend slot holding the serialized history.
	StorageKey = "wolHistory"
)

// Backend is a persistent key-value slot.
type Backend interface {
	Get(key string) (string, error)
	Set(key, value string) error
}

// Add returns list with item inserted. An entry with the same MAC is replaced
// in place; otherwise item is prepended and the tail beyond MaxItems dropped.
// list is never modified.
func Add(list []models.HistoryItem, item models.HistoryItem) []models.HistoryItem {
	for i, existing := range list {
		if existing.MAC == item.MAC {
			out := make([]models.HistoryItem, len(list))
			copy(out, list)
			out[i] = item
			return out
		}
	}

	out := make([]models.HistoryItem, 0, min(len(list)+1, MaxItems))
	out = append(out, item)
	for _, existing := range list {
		if len(out) == MaxItems {
			break
		}
		out = append(out, existing)
	}
	return out
}

// Remove returns list without the entry at index. An out-of-range index
// returns an unchanged copy.
func Remove(list []models.HistoryItem, index int) []models.HistoryItem {
	if index < 0 || index >= len(list) {
		return clone(list)
	}

	out := make([]models.HistoryItem, 0, len(list)-1)
	out = append(out, list[:index]...)
	return append(out, list[index+1:]...)
}

// Store owns the in-memory history and writes every change through to the
// backend. Change listeners run after the write, in registration order, and
// must not call back into Add or Remove.
type Store struct {
	backend Backend
	logger  zerolog.Logger

	writeMu sync.Mutex // serializes mutate, save, notify

	mu        sync.RWMutex
	items     []models.HistoryItem
	listeners []func([]models.HistoryItem)
}

// New creates a history store on top of backend.
func New(logger zerolog.Logger, backend Backend) *Store {
	return &Store{
		backend: backend,
		logger:  logger,
		items:   []models.HistoryItem{},
	}
}

// Load reads the persisted history. It never fails: a missing, unreadable or
// corrupt value yields an empty list.
func (s *Store) Load() []models.HistoryItem {
	raw, err := s.backend.Get(StorageKey)
	if err != nil {
		s.logger.Warn().Err(err).Msg("failed to read history, starting empty")
		return []models.HistoryItem{}
	}
	if raw == "" {
		return []models.HistoryItem{}
	}

	var items []models.HistoryItem
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		s.logger.Warn().Err(err).Msg("failed to decode history, starting empty")
		return []models.HistoryItem{}
	}
	if items == nil {
		return []models.HistoryItem{}
	}
	if len(items) > MaxItems {
		s.logger.Warn().
			Int("stored", len(items)).
			Int("max", MaxItems).
			Msg("stored history exceeds limit, truncating")
		items = items[:MaxItems]
	}

	return items
}

// Save persists items. Failures are logged and otherwise ignored.
func (s *Store) Save(items []models.HistoryItem) {
	if items == nil {
		items = []models.HistoryItem{}
	}

	data, err := json.Marshal(items)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to encode history")
		return
	}

	if err := s.backend.Set(StorageKey, string(data)); err != nil {
		s.logger.Error().Err(err).Msg("failed to save history")
		return
	}

	s.logger.Debug().Int("items", len(items)).Msg("history saved")
}

// Restore loads the persisted history into memory and notifies listeners.
func (s *Store) Restore() []models.HistoryItem {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	items := s.Load()
	s.set(items)
	s.notify(items)

	return clone(items)
}

// Items returns a copy of the current history.
func (s *Store) Items() []models.HistoryItem {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return clone(s.items)
}

// Get returns the entry at index.
func (s *Store) Get(index int) (models.HistoryItem, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if index < 0 || index >= len(s.items) {
		return models.HistoryItem{}, false
	}
	return s.items[index], true
}

// Add inserts or updates item and persists the result.
func (s *Store) Add(item models.HistoryItem) []models.HistoryItem {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	next := Add(s.Items(), item)
	s.commit(next)

	return clone(next)
}

// Remove deletes the entry at index and persists the result. An out-of-range
// index changes nothing.
func (s *Store) Remove(index int) []models.HistoryItem {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	current := s.Items()
	if index < 0 || index >= len(current) {
		return current
	}

	next := Remove(current, index)
	s.commit(next)

	return clone(next)
}

// OnChange registers fn to receive the history after every change.
func (s *Store) OnChange(fn func([]models.HistoryItem)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, fn)
}

func (s *Store) commit(items []models.HistoryItem) {
	s.set(items)
	s.Save(items)
	s.notify(items)
}

func (s *Store) set(items []models.HistoryItem) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = clone(items)
}

func (s *Store) notify(items []models.HistoryItem) {
	s.mu.RLock()
	listeners := make([]func([]models.HistoryItem), len(s.listeners))
	copy(listeners, s.listeners)
	s.mu.RUnlock()

	for _, fn := range listeners {
		fn(clone(items))
	}
}

func clone(items []models.HistoryItem) []models.HistoryItem {
	out := make([]models.HistoryItem, len(items))
	copy(out, items)
	return out
}
