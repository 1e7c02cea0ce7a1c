package cache

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"growth-calculator/internal/types"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// ErrEmptySymbol is returned when a record is stored without a key.
var ErrEmptySymbol = errors.New("cache symbol cannot be empty")

// Store keeps CAGR records in memory and mirrors them to a single JSON file.
// Every Put rewrites the whole file; the key set is a handful of indices.
type Store struct {
	path string

	// mu guards records. Readers never wait on disk I/O.
	mu      sync.RWMutex
	records map[string]types.CacheRecord

	// writeMu serializes Put/Purge so the file is rewritten by one writer at a time.
	writeMu sync.Mutex
}

// NewStore returns an empty store backed by path. Call Load to read the file.
func NewStore(path string) *Store {
	return &Store{
		path:    path,
		records: make(map[string]types.CacheRecord),
	}
}

// Open creates a store and loads it from disk.
func Open(path string) *Store {
	s := NewStore(path)
	s.Load()
	return s
}

// Load replaces the in-memory records with the file contents.
// A missing or unparseable file yields an empty store.
func (s *Store) Load() {
	records := make(map[string]types.CacheRecord)

	data, err := os.ReadFile(s.path)
	switch {
	case os.IsNotExist(err):
		log.WithField("path", s.path).Debug("cache file not found, starting empty")
	case err != nil:
		log.WithField("path", s.path).Warnf("failed to read cache file, starting empty: %v", err)
	default:
		if err := json.Unmarshal(data, &records); err != nil {
			log.WithField("path", s.path).Warnf("cache file is corrupt, starting empty: %v", err)
			records = make(map[string]types.CacheRecord)
		}
		if records == nil {
			records = make(map[string]types.CacheRecord)
		}
	}

	s.mu.Lock()
	s.records = records
	s.mu.Unlock()

	log.WithField("path", s.path).Debugf("cache loaded with %d records", len(records))
}

// Get returns the record stored under symbol.
func (s *Store) Get(symbol string) (types.CacheRecord, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.records[symbol]
	return rec, ok
}

// Put stores rec under symbol and rewrites the cache file.
func (s *Store) Put(symbol string, rec types.CacheRecord) error {
	if symbol == "" {
		return ErrEmptySymbol
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	s.mu.Lock()
	s.records[symbol] = rec
	snapshot := s.copyLocked()
	s.mu.Unlock()

	return s.persist(snapshot)
}

// Purge drops every record and rewrites the cache file.
func (s *Store) Purge() error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	s.mu.Lock()
	s.records = make(map[string]types.CacheRecord)
	s.mu.Unlock()

	return s.persist(map[string]types.CacheRecord{})
}

// Snapshot returns a copy of all records.
func (s *Store) Snapshot() map[string]types.CacheRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.copyLocked()
}

// Len returns the number of stored records.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

// Path returns the backing file path.
func (s *Store) Path() string {
	return s.path
}

func (s *Store) copyLocked() map[string]types.CacheRecord {
	out := make(map[string]types.CacheRecord, len(s.records))
	for k, v := range s.records {
		out[k] = v
	}
	return out
}

// persist writes to a temporary file first, then renames it over the cache file.
func (s *Store) persist(records map[string]types.CacheRecord) error {
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return errors.Wrap(err, "failed to marshal cache")
	}

	if dir := filepath.Dir(s.path); dir != "" {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return errors.Wrap(err, "failed to create cache directory")
		}
	}

	tempPath := s.path + ".tmp"
	if err := os.WriteFile(tempPath, data, 0600); err != nil {
		return errors.Wrap(err, "failed to write cache file")
	}

	if err := os.Rename(tempPath, s.path); err != nil {
		_ = os.Remove(tempPath)
		return errors.Wrap(err, "failed to rename cache file")
	}

	log.WithField("path", s.path).Debugf("cache persisted with %d records", len(records))
	return nil
}
