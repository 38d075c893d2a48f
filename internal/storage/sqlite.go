package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/nibzard/tasktrack-go/internal/logging"
)

// DefaultPollInterval is how often SQLiteStore.Watch looks for foreign writes.
const DefaultPollInterval = 500 * time.Millisecond

// SQLiteStore keeps keys in a single SQLite table. Removed keys are kept as
// tombstones so watchers in other processes can observe the removal.
type SQLiteStore struct {
	db     *sql.DB
	quota  int64
	writer string
	logger *log.Logger

	// PollInterval controls Watch; zero uses DefaultPollInterval.
	PollInterval time.Duration
}

// NewSQLiteStore opens (creating if needed) the database at path.
func NewSQLiteStore(path string, quota int64, logger *log.Logger) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create storage dir: %w", err)
	}

	db, err := sql.Open("sqlite3", path+"?_busy_timeout=5000&_journal_mode=WAL&_txlock=immediate")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	s := &SQLiteStore{
		db:     db,
		quota:  quota,
		writer: uuid.NewString(),
		logger: logging.OrDiscard(logger),
	}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate sqlite: %w", err)
	}
	return s, nil
}

// nextVersion assigns updated_at from inside the writing statement, so rows
// commit in increasing order and a watcher cursor never skips one.
const nextVersion = `(SELECT COALESCE(MAX(updated_at), 0) + 1 FROM kv)`

// migrate creates the key-value table. updated_at is a change sequence, not
// a wall-clock time.
func (s *SQLiteStore) migrate() error {
	schema := `
		CREATE TABLE IF NOT EXISTS kv (
			key TEXT PRIMARY KEY,
			value BLOB,
			deleted INTEGER NOT NULL DEFAULT 0,
			writer TEXT NOT NULL,
			updated_at INTEGER NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_kv_updated ON kv(updated_at);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Get returns the value at key.
func (s *SQLiteStore) Get(key string) ([]byte, error) {
	var value []byte
	err := s.db.QueryRow(`SELECT value FROM kv WHERE key = ? AND deleted = 0`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", key, err)
	}
	return value, nil
}

// Set replaces the value at key inside a transaction.
func (s *SQLiteStore) Set(key string, value []byte) error {
	if err := validateKey(key); err != nil {
		return err
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	if s.quota > 0 {
		var used sql.NullInt64
		if err := tx.QueryRow(
			`SELECT SUM(LENGTH(value)) FROM kv WHERE deleted = 0 AND key != ?`, key,
		).Scan(&used); err != nil {
			return fmt.Errorf("measure usage: %w", err)
		}
		if used.Int64+int64(len(value)) > s.quota {
			return ErrQuotaExceeded
		}
	}

	if _, err := tx.Exec(`
		INSERT INTO kv (key, value, deleted, writer, updated_at) VALUES (?, ?, 0, ?, `+nextVersion+`)
		ON CONFLICT(key) DO UPDATE SET
			value = excluded.value,
			deleted = 0,
			writer = excluded.writer,
			updated_at = excluded.updated_at
	`, key, value, s.writer); err != nil {
		return fmt.Errorf("write %s: %w", key, err)
	}
	return tx.Commit()
}

// Remove marks key as deleted.
func (s *SQLiteStore) Remove(key string) error {
	_, err := s.db.Exec(
		`UPDATE kv SET value = NULL, deleted = 1, writer = ?, updated_at = `+nextVersion+` WHERE key = ? AND deleted = 0`,
		s.writer, key,
	)
	if err != nil {
		return fmt.Errorf("remove %s: %w", key, err)
	}
	return nil
}

// Keys lists live keys in sorted order.
func (s *SQLiteStore) Keys() ([]string, error) {
	rows, err := s.db.Query(`SELECT key FROM kv WHERE deleted = 0 ORDER BY key`)
	if err != nil {
		return nil, fmt.Errorf("list keys: %w", err)
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, err
		}
		keys = append(keys, k)
	}
	return keys, rows.Err()
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Watch polls for rows written by other SQLiteStore instances.
func (s *SQLiteStore) Watch(ctx context.Context) (<-chan Change, error) {
	var cursor sql.NullInt64
	if err := s.db.QueryRowContext(ctx, `SELECT MAX(updated_at) FROM kv`).Scan(&cursor); err != nil {
		return nil, fmt.Errorf("read watch cursor: %w", err)
	}

	interval := s.PollInterval
	if interval <= 0 {
		interval = DefaultPollInterval
	}

	out := make(chan Change, 16)
	go func() {
		defer close(out)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		last := cursor.Int64
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				changes, next, err := s.changesSince(ctx, last)
				if err != nil {
					if ctx.Err() == nil {
						s.logger.Warn("poll sqlite changes", "err", err)
					}
					continue
				}
				last = next
				for _, c := range changes {
					select {
					case out <- c:
					case <-ctx.Done():
						return
					}
				}
			}
		}
	}()
	return out, nil
}

func (s *SQLiteStore) changesSince(ctx context.Context, since int64) ([]Change, int64, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT key, value, deleted, writer, updated_at FROM kv WHERE updated_at > ? ORDER BY updated_at`,
		since,
	)
	if err != nil {
		return nil, since, err
	}
	defer rows.Close()

	var changes []Change
	last := since
	for rows.Next() {
		var (
			key     string
			value   []byte
			deleted bool
			writer  string
			updated int64
		)
		if err := rows.Scan(&key, &value, &deleted, &writer, &updated); err != nil {
			return nil, since, err
		}
		last = updated
		if writer == s.writer {
			continue
		}
		changes = append(changes, Change{Key: key, Value: value, Removed: deleted})
	}
	return changes, last, rows.Err()
}
