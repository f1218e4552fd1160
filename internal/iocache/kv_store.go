package iocache

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/huangsam/tiercache/internal/contract"
	"github.com/huangsam/tiercache/schema"
)

// kvFileEntry is the on-disk form of a fallback entry.
type kvFileEntry struct {
	Value     json.RawMessage `json:"value"`
	UpdatedAt time.Time       `json:"updatedAt"`
}

// KVStore is the synchronous fallback tier. Entries live in memory and are
// flushed to a single JSON file after every mutation. An empty path keeps the
// store memory-only. Usage is the sum of key and value lengths, and a write
// that would push usage past the limit is rejected without changing state.
type KVStore struct {
	mu      sync.RWMutex
	path    string
	limit   int64
	used    int64
	entries map[string]kvFileEntry
	now     func() time.Time
}

var _ contract.FallbackStore = &KVStore{} // Compile-time check

// NewKVStore loads the store at path. A missing file starts empty and a
// corrupt file is discarded. limit <= 0 uses contract.DefaultFallbackLimit.
func NewKVStore(path string, limit int64) (*KVStore, error) {
	if limit <= 0 {
		limit = contract.DefaultFallbackLimit
	}
	s := &KVStore{
		path:    path,
		limit:   limit,
		entries: map[string]kvFileEntry{},
		now:     time.Now,
	}
	if path == "" {
		return s, nil
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create fallback directory for %q: %w", path, err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return s, nil
		}
		return nil, fmt.Errorf("failed to read fallback store %q: %w", path, err)
	}
	var loaded map[string]kvFileEntry
	if err := json.Unmarshal(data, &loaded); err != nil {
		contract.LogWarn("Discarding unreadable fallback store "+path, err)
		return s, nil
	}
	for key, entry := range loaded {
		s.entries[key] = entry
		s.used += entrySize(key, entry.Value)
	}
	return s, nil
}

func entrySize(key string, value []byte) int64 {
	return int64(len(key) + len(value))
}

// Get returns the value for key or contract.ErrNotFound.
func (s *KVStore) Get(key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entry, ok := s.entries[key]
	if !ok {
		return nil, contract.ErrNotFound
	}
	return append([]byte(nil), entry.Value...), nil
}

// Set stores value under key. Values must be valid JSON and are stored compacted.
func (s *KVStore) Set(key string, value []byte) error {
	var compact bytes.Buffer
	if err := json.Compact(&compact, value); err != nil {
		return fmt.Errorf("fallback value for %q is not valid JSON: %w", key, err)
	}
	value = compact.Bytes()

	s.mu.Lock()
	defer s.mu.Unlock()

	prev, existed := s.entries[key]
	used := s.used + entrySize(key, value)
	if existed {
		used -= entrySize(key, prev.Value)
	}
	if used > s.limit {
		return fmt.Errorf("writing %q needs %d of %d bytes: %w", key, used, s.limit, contract.ErrQuotaExceeded)
	}

	s.entries[key] = kvFileEntry{Value: json.RawMessage(value), UpdatedAt: s.now()}
	if err := s.flush(); err != nil {
		if existed {
			s.entries[key] = prev
		} else {
			delete(s.entries, key)
		}
		return err
	}
	s.used = used
	return nil
}

// Remove deletes key. Missing keys are not an error.
func (s *KVStore) Remove(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev, ok := s.entries[key]
	if !ok {
		return nil
	}
	delete(s.entries, key)
	if err := s.flush(); err != nil {
		s.entries[key] = prev
		return err
	}
	s.used -= entrySize(key, prev.Value)
	return nil
}

// Keys returns the stored keys in sorted order.
func (s *KVStore) Keys() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	keys := make([]string, 0, len(s.entries))
	for key := range s.entries {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// Usage returns the bytes in use and the configured limit.
func (s *KVStore) Usage() (used, limit int64) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.used, s.limit
}

// Entries returns a copy of every entry sorted by key.
func (s *KVStore) Entries() []contract.KVEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make([]contract.KVEntry, 0, len(s.entries))
	for key, entry := range s.entries {
		result = append(result, contract.KVEntry{
			Key:       key,
			Value:     append([]byte(nil), entry.Value...),
			UpdatedAt: entry.UpdatedAt,
		})
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Key < result[j].Key })
	return result
}

// Status reports usage for the status command.
func (s *KVStore) Status() schema.FallbackStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return schema.FallbackStatus{
		Path:       s.path,
		Entries:    len(s.entries),
		UsedBytes:  s.used,
		LimitBytes: s.limit,
	}
}

// Close flushes pending state. The store stays usable in memory.
func (s *KVStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.flush()
}

// flush writes the store to disk through a temp file and rename. Callers hold the lock.
func (s *KVStore) flush() error {
	if s.path == "" {
		return nil
	}
	data, err := json.Marshal(s.entries)
	if err != nil {
		return fmt.Errorf("failed to encode fallback store: %w", err)
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("failed to write fallback store %q: %w", s.path, err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return errors.Join(fmt.Errorf("failed to replace fallback store %q: %w", s.path, err), os.Remove(tmp))
	}
	return nil
}

// ClearFallback removes the fallback file. Missing files are not an error.
func ClearFallback(path string) error {
	if path == "" {
		return nil
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove fallback store %s: %w", path, err)
	}
	return nil
}
