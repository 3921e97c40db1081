package store

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/goccy/go-json"
	bolt "go.etcd.io/bbolt"

	"github.com/mmcdole/folio/internal/domain"
)

// Bucket names
var (
	bucketEntries   = []byte("entries")
	bucketCooldowns = []byte("cooldowns")
)

// RecommendationStore implements domain.RecommendationStore using BoltDB.
//
// Entries are held in memory as decoded values so that repeated reads of a
// key hand back the same *RecommendationResult. BoltDB only backs the
// memory layer across restarts.
type RecommendationStore struct {
	db     *bolt.DB
	logger *slog.Logger

	mu        sync.RWMutex
	entries   map[domain.CacheKey]domain.CacheEntry
	cooldowns map[domain.CacheKey]time.Time
}

// NewMemoryStore returns a store without persistence
func NewMemoryStore() *RecommendationStore {
	return &RecommendationStore{
		logger:    slog.New(slog.DiscardHandler),
		entries:   make(map[domain.CacheKey]domain.CacheEntry),
		cooldowns: make(map[domain.CacheKey]time.Time),
	}
}

// NewRecommendationStore opens a store under baseCacheDir, namespaced per server.
// An empty baseCacheDir yields a memory-only store.
func NewRecommendationStore(baseCacheDir, serverURL string, logger *slog.Logger) (*RecommendationStore, error) {
	s := NewMemoryStore()
	if logger != nil {
		s.logger = logger
	}
	if baseCacheDir == "" {
		return s, nil
	}

	dir := baseCacheDir
	if serverURL != "" {
		dir = filepath.Join(baseCacheDir, hashServerURL(serverURL))
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}

	db, err := bolt.Open(filepath.Join(dir, "folio.db"), 0600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open bolt db: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		for _, bucket := range [][]byte{bucketEntries, bucketCooldowns} {
			if _, err := tx.CreateBucketIfNotExists(bucket); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	s.db = db
	return s, nil
}

func hashServerURL(serverURL string) string {
	normalized := strings.TrimRight(strings.ToLower(serverURL), "/")
	hash := sha256.Sum256([]byte(normalized))
	return hex.EncodeToString(hash[:6])
}

func (s *RecommendationStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// === Generic helpers ===

func (s *RecommendationStore) load(bucket []byte, key domain.CacheKey, dest any) bool {
	if s.db == nil {
		return false
	}

	var data []byte
	s.db.View(func(tx *bolt.Tx) error {
		if v := tx.Bucket(bucket).Get([]byte(key.String())); v != nil {
			data = make([]byte, len(v))
			copy(data, v)
		}
		return nil
	})
	if data == nil {
		return false
	}

	if err := json.Unmarshal(data, dest); err != nil {
		s.logger.Warn("discarding unreadable cache record", "bucket", string(bucket), "key", key.String(), "error", err)
		return false
	}
	return true
}

func (s *RecommendationStore) persist(bucket []byte, key domain.CacheKey, value any) error {
	if s.db == nil {
		return nil // Memory-only mode
	}

	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucket).Put([]byte(key.String()), data)
	})
}

// === Cache entries ===

func (s *RecommendationStore) GetEntry(key domain.CacheKey) (domain.CacheEntry, bool) {
	s.mu.RLock()
	entry, ok := s.entries[key]
	s.mu.RUnlock()
	if ok {
		return entry, true
	}

	if !s.load(bucketEntries, key, &entry) || entry.Result == nil {
		return domain.CacheEntry{}, false
	}

	// Promote to memory; a concurrent save wins over the disk copy
	s.mu.Lock()
	defer s.mu.Unlock()
	if current, ok := s.entries[key]; ok {
		return current, true
	}
	s.entries[key] = entry
	return entry, true
}

func (s *RecommendationStore) SaveEntry(key domain.CacheKey, entry domain.CacheEntry) error {
	s.mu.Lock()
	s.entries[key] = entry
	s.mu.Unlock()

	return s.persist(bucketEntries, key, entry)
}

// === Cooldown ===

func (s *RecommendationStore) GetLastRefresh(key domain.CacheKey) (time.Time, bool) {
	s.mu.RLock()
	at, ok := s.cooldowns[key]
	s.mu.RUnlock()
	if ok {
		return at, true
	}

	if !s.load(bucketCooldowns, key, &at) {
		return time.Time{}, false
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if current, ok := s.cooldowns[key]; ok && !current.Before(at) {
		return current, true
	}
	s.cooldowns[key] = at
	return at, true
}

// SaveLastRefresh records a refresh time. Earlier times than the stored
// one are ignored so the cooldown never moves backward.
func (s *RecommendationStore) SaveLastRefresh(key domain.CacheKey, at time.Time) error {
	if prev, ok := s.GetLastRefresh(key); ok && !at.After(prev) {
		return nil
	}

	s.mu.Lock()
	if prev, ok := s.cooldowns[key]; ok && !at.After(prev) {
		s.mu.Unlock()
		return nil
	}
	s.cooldowns[key] = at
	s.mu.Unlock()

	return s.persist(bucketCooldowns, key, at)
}

// === Invalidation ===

// InvalidateAll drops every cached entry and refresh timestamp
func (s *RecommendationStore) InvalidateAll() {
	s.mu.Lock()
	s.entries = make(map[domain.CacheKey]domain.CacheEntry)
	s.cooldowns = make(map[domain.CacheKey]time.Time)
	s.mu.Unlock()

	if s.db == nil {
		return
	}

	err := s.db.Update(func(tx *bolt.Tx) error {
		for _, bucket := range [][]byte{bucketEntries, bucketCooldowns} {
			if err := tx.DeleteBucket(bucket); err != nil && err != bolt.ErrBucketNotFound {
				return err
			}
			if _, err := tx.CreateBucket(bucket); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		s.logger.Error("failed to clear persisted cache", "error", err)
	}
}

var _ domain.RecommendationStore = (*RecommendationStore)(nil)
