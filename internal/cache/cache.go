// Package cache keeps backend reference data (country lists and the like)
// between runs so repeated imports do not refetch static tables.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/ppiankov/crmimport/internal/model"
)

// Store is a byte-oriented cache with per-entry TTL
type Store interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte, ttl time.Duration) error
	Delete(key string) error
	Clear() error
}

// Key derives a cache key for one reference table of one backend.
// Different backends never share entries.
func Key(backendURL, table string) string {
	hash := sha256.Sum256([]byte(backendURL + "|" + table))
	return "crmimport:v1:" + table + ":" + hex.EncodeToString(hash[:8])
}

// New builds the store described by cfg. A disabled cache still memoizes
// within the run so the reference tables are fetched at most once.
func New(cfg model.CacheConfig) Store {
	if !cfg.Enabled || cfg.Dir == "" {
		return NewMemoryCache(cfg.TTL, 10*time.Minute)
	}
	return NewLayeredCache(cfg.TTL, cfg.Dir, cfg.TTL)
}

// GetJSON decodes a cached value into v
func GetJSON(s Store, key string, v any) bool {
	data, ok := s.Get(key)
	if !ok {
		return false
	}
	return json.Unmarshal(data, v) == nil
}

// SetJSON encodes v and stores it
func SetJSON(s Store, key string, v any, ttl time.Duration) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", key, err)
	}
	return s.Set(key, data, ttl)
}
