package storage

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/fsnotify/fsnotify"
	"github.com/gofrs/flock"

	"github.com/nibzard/tasktrack-go/internal/logging"
)

const (
	fileExt      = ".json"
	lockFileName = ".tasktrack.lock"
	removedHash  = "-"
)

// FileStore keeps one <key>.json file per key inside a directory.
// Writes go to a temp file that is renamed into place while holding an flock,
// so a failed write never leaves a partially written value.
type FileStore struct {
	dir    string
	quota  int64
	lock   *flock.Flock
	logger *log.Logger

	mu      sync.Mutex
	written map[string]string // key -> content hash of this handle's last write
}

// NewFileStore opens (creating if needed) a file store rooted at dir.
func NewFileStore(dir string, quota int64, logger *log.Logger) (*FileStore, error) {
	if dir == "" {
		return nil, fmt.Errorf("storage dir is empty")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create storage dir %s: %w", dir, err)
	}
	return &FileStore{
		dir:     dir,
		quota:   quota,
		lock:    flock.New(filepath.Join(dir, lockFileName)),
		logger:  logging.OrDiscard(logger),
		written: make(map[string]string),
	}, nil
}

// Dir returns the directory backing the store.
func (s *FileStore) Dir() string {
	return s.dir
}

func (s *FileStore) path(key string) string {
	return filepath.Join(s.dir, key+fileExt)
}

// Get reads the value at key.
func (s *FileStore) Get(key string) ([]byte, error) {
	if err := validateKey(key); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(s.path(key))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("read %s: %w", key, err)
	}
	return data, nil
}

// Set atomically replaces the value at key.
func (s *FileStore) Set(key string, value []byte) error {
	if err := validateKey(key); err != nil {
		return err
	}

	if err := s.lock.Lock(); err != nil {
		return fmt.Errorf("lock storage: %w", err)
	}
	defer func() { _ = s.lock.Unlock() }()

	if s.quota > 0 {
		used, err := s.usedExcept(key)
		if err != nil {
			return err
		}
		if used+int64(len(value)) > s.quota {
			return ErrQuotaExceeded
		}
	}

	tmp, err := os.CreateTemp(s.dir, "."+key+"-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	cleanup := func() { _ = os.Remove(tmpName) }

	if _, err := tmp.Write(value); err != nil {
		tmp.Close()
		cleanup()
		return fmt.Errorf("write %s: %w", key, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		cleanup()
		return fmt.Errorf("sync %s: %w", key, err)
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return fmt.Errorf("close %s: %w", key, err)
	}

	s.remember(key, hashBytes(value))
	if err := os.Rename(tmpName, s.path(key)); err != nil {
		cleanup()
		s.forget(key)
		return fmt.Errorf("replace %s: %w", key, err)
	}
	return nil
}

// Remove deletes the file for key.
func (s *FileStore) Remove(key string) error {
	if err := validateKey(key); err != nil {
		return err
	}
	if err := s.lock.Lock(); err != nil {
		return fmt.Errorf("lock storage: %w", err)
	}
	defer func() { _ = s.lock.Unlock() }()

	s.remember(key, removedHash)
	if err := os.Remove(s.path(key)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		s.forget(key)
		return fmt.Errorf("remove %s: %w", key, err)
	}
	return nil
}

// Keys lists the stored keys in sorted order.
func (s *FileStore) Keys() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("read storage dir: %w", err)
	}
	keys := make([]string, 0, len(entries))
	for _, e := range entries {
		if key, ok := keyFromFileName(e.Name()); ok && !e.IsDir() {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)
	return keys, nil
}

// Close is a no-op; watchers stop with their context.
func (s *FileStore) Close() error {
	return nil
}

func (s *FileStore) usedExcept(key string) (int64, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return 0, fmt.Errorf("read storage dir: %w", err)
	}
	var total int64
	for _, e := range entries {
		k, ok := keyFromFileName(e.Name())
		if !ok || k == key {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		total += info.Size()
	}
	return total, nil
}

func (s *FileStore) remember(key, hash string) {
	s.mu.Lock()
	s.written[key] = hash
	s.mu.Unlock()
}

func (s *FileStore) forget(key string) {
	s.mu.Lock()
	delete(s.written, key)
	s.mu.Unlock()
}

// ownWrite reports whether an observed value is the one this handle last
// wrote. The record is consumed by the first event seen for key, so a later
// write of the same bytes by another context is still reported.
func (s *FileStore) ownWrite(key, hash string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	want, ok := s.written[key]
	if !ok {
		return false
	}
	delete(s.written, key)
	return want == hash
}

// Watch reports changes to key files made by other processes or handles.
// A value may be reported more than once; consumers apply changes idempotently.
func (s *FileStore) Watch(ctx context.Context) (<-chan Change, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	if err := w.Add(s.dir); err != nil {
		w.Close()
		return nil, fmt.Errorf("watch %s: %w", s.dir, err)
	}

	out := make(chan Change, 16)
	go func() {
		defer close(out)
		defer w.Close()

		for {
			select {
			case <-ctx.Done():
				return
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				s.logger.Warn("storage watcher error", "dir", s.dir, "err", err)
			case ev, ok := <-w.Events:
				if !ok {
					return
				}
				change, hash, ok := s.changeFor(ev)
				if !ok || s.ownWrite(change.Key, hash) {
					continue
				}
				select {
				case out <- change:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, nil
}

// changeFor turns a filesystem event into a Change and the hash of its value.
func (s *FileStore) changeFor(ev fsnotify.Event) (Change, string, bool) {
	key, ok := keyFromFileName(filepath.Base(ev.Name))
	if !ok {
		return Change{}, "", false
	}
	if !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Write) &&
		!ev.Has(fsnotify.Remove) && !ev.Has(fsnotify.Rename) {
		return Change{}, "", false
	}

	data, err := os.ReadFile(ev.Name)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Change{Key: key, Removed: true}, removedHash, true
		}
		s.logger.Warn("read changed key", "key", key, "err", err)
		return Change{}, "", false
	}
	return Change{Key: key, Value: data}, hashBytes(data), true
}

func keyFromFileName(name string) (string, bool) {
	if strings.HasPrefix(name, ".") || !strings.HasSuffix(name, fileExt) {
		return "", false
	}
	key := strings.TrimSuffix(name, fileExt)
	if validateKey(key) != nil {
		return "", false
	}
	return key, true
}

func hashBytes(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}
