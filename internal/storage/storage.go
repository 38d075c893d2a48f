// Package storage is the persisted key-value area shared by every tasktrack
// context. Values are JSON documents addressed by string keys.
package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
)

// Persisted keys.
const (
	KeyTasks              = "todoApp_tasks"
	KeyDarkMode           = "todoApp_darkMode"
	KeyNotifications      = "todoApp_notifications"
	KeyAnalytics          = "todoApp_analytics"
	KeyAchievements       = "todoApp_achievements"
	KeyChatHistory        = "todoApp_aiChatHistory"
	KeyAutomationSettings = "todoApp_automationSettings"
	KeyRecentActivity     = "recentActivity"
)

// Backend names accepted by Open.
const (
	BackendFile   = "file"
	BackendSQLite = "sqlite"
	BackendMemory = "memory"
)

// DefaultQuotaBytes mirrors the usual browser local-storage allowance.
const DefaultQuotaBytes = 5 * 1024 * 1024

var (
	// ErrNotFound is returned by Get for keys that hold no value.
	ErrNotFound = errors.New("key not found")
	// ErrQuotaExceeded is returned by Set when the write would exceed the area quota.
	ErrQuotaExceeded = errors.New("storage quota exceeded")
	// ErrInvalidKey is returned for keys that cannot be stored.
	ErrInvalidKey = errors.New("invalid storage key")
)

// Store is a string-keyed persistent area.
type Store interface {
	// Get returns the raw value for key or ErrNotFound.
	Get(key string) ([]byte, error)
	// Set replaces the value for key. A failed Set leaves the prior value in place.
	Set(key string, value []byte) error
	// Remove deletes key. Removing a missing key is not an error.
	Remove(key string) error
	// Keys lists the keys currently holding a value.
	Keys() ([]string, error)
	Close() error
}

// Change describes a write observed on the shared area by another context.
type Change struct {
	Key     string
	Value   []byte
	Removed bool
}

// Watcher is implemented by stores that can report writes made by other
// contexts. Writes made through the watching store itself are not reported.
type Watcher interface {
	Watch(ctx context.Context) (<-chan Change, error)
}

// Open opens the named backend rooted at dir.
func Open(backend, dir string, quota int64, logger *log.Logger) (Store, error) {
	switch strings.ToLower(strings.TrimSpace(backend)) {
	case "", BackendFile:
		return NewFileStore(dir, quota, logger)
	case BackendSQLite:
		return NewSQLiteStore(filepath.Join(dir, "tasktrack.db"), quota, logger)
	case BackendMemory:
		s := NewMemoryStore()
		s.SetQuota(quota)
		return s, nil
	default:
		return nil, fmt.Errorf("unknown storage backend %q (want file, sqlite or memory)", backend)
	}
}

// GetJSON decodes the value at key into v. It returns ErrNotFound when the key is empty.
func GetJSON(s Store, key string, v any) error {
	data, err := s.Get(key)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decode %s: %w", key, err)
	}
	return nil
}

// SetJSON encodes v and stores it at key.
func SetJSON(s Store, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	return s.Set(key, data)
}

// Size returns the total number of bytes held by the store.
func Size(s Store) (int64, error) {
	keys, err := s.Keys()
	if err != nil {
		return 0, err
	}
	var total int64
	for _, k := range keys {
		v, err := s.Get(k)
		if errors.Is(err, ErrNotFound) {
			continue
		}
		if err != nil {
			return 0, err
		}
		total += int64(len(v))
	}
	return total, nil
}

func validateKey(key string) error {
	if key == "" {
		return ErrInvalidKey
	}
	for i := 0; i < len(key); i++ {
		c := key[i]
		valid := (c >= 'A' && c <= 'Z') ||
			(c >= 'a' && c <= 'z') ||
			(c >= '0' && c <= '9') ||
			c == '_' || c == '-' || c == '.'
		if !valid {
			return fmt.Errorf("%w: %q", ErrInvalidKey, key)
		}
	}
	if strings.HasPrefix(key, ".") {
		return fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	return nil
}
