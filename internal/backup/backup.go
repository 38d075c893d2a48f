// Package backup exports every persisted collection to a single JSON
// document and restores from one.
package backup

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	jsonschema "github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/nibzard/tasktrack-go/internal/analytics"
	"github.com/nibzard/tasktrack-go/internal/clock"
	"github.com/nibzard/tasktrack-go/internal/logging"
	"github.com/nibzard/tasktrack-go/internal/notify"
	"github.com/nibzard/tasktrack-go/internal/prefs"
	"github.com/nibzard/tasktrack-go/internal/storage"
	"github.com/nibzard/tasktrack-go/internal/task"
	"github.com/nibzard/tasktrack-go/internal/utils"
)

// Version is written into every export.
const Version = "1.0"

const schemaURL = "https://schemas.tasktrack.dev/backup.json"

//go:embed backup.schema.json
var schemaJSON []byte

var (
	schemaOnce sync.Once
	schema     *jsonschema.Schema
	schemaErr  error
)

func compiledSchema() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		compiler.Draft = jsonschema.Draft2020
		compiler.AssertFormat = true
		if err := compiler.AddResource(task.SchemaURL, bytes.NewReader(task.Schema)); err != nil {
			schemaErr = fmt.Errorf("load task schema: %w", err)
			return
		}
		if err := compiler.AddResource(schemaURL, bytes.NewReader(schemaJSON)); err != nil {
			schemaErr = fmt.Errorf("load backup schema: %w", err)
			return
		}
		schema, schemaErr = compiler.Compile(schemaURL)
	})
	return schema, schemaErr
}

// Settings is the exported settings block.
type Settings struct {
	DarkMode      bool `json:"darkMode"`
	Notifications bool `json:"notifications"`
}

// Backup is the export document.
type Backup struct {
	Tasks        []task.Task                 `json:"tasks"`
	Analytics    map[string]analytics.Record `json:"analytics,omitempty"`
	Achievements []analytics.Achievement     `json:"achievements,omitempty"`
	Settings     Settings                    `json:"settings"`
	ExportDate   time.Time                   `json:"exportDate"`
	Version      string                      `json:"version"`
}

// Encode renders b with 2-space indentation and a trailing newline.
func (b *Backup) Encode() ([]byte, error) {
	data, err := json.MarshalIndent(b, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal backup: %w", err)
	}
	return append(data, '\n'), nil
}

// FileName names a backup written on now's date.
func FileName(now time.Time) string {
	return fmt.Sprintf("todo-backup-%s.json", clock.Date(now))
}

// ImportError reports why a backup document was rejected or only partly applied.
type ImportError struct {
	Path string // dotted path to the offending field, if any
	Err  error
}

func (e *ImportError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("import backup: %s: %s", e.Path, e.Err)
	}
	return fmt.Sprintf("import backup: %s", e.Err)
}

// Unwrap returns the underlying error.
func (e *ImportError) Unwrap() error {
	return e.Err
}

// Result summarizes an applied import.
type Result struct {
	Tasks int
	// Keys lists the storage keys that were written.
	Keys []string
}

// Manager reads and writes backups against a store.
type Manager struct {
	store    storage.Store
	clock    clock.Clock
	prefs    *prefs.Prefs
	notifier *notify.Notifier
	logger   *log.Logger
}

// New creates a Manager. clk defaults to the system clock.
func New(store storage.Store, clk clock.Clock, notifier *notify.Notifier, logger *log.Logger) *Manager {
	if clk == nil {
		clk = clock.System{}
	}
	return &Manager{
		store:    store,
		clock:    clk,
		prefs:    prefs.New(store, notifier, logger),
		notifier: notifier,
		logger:   logging.OrDiscard(logger),
	}
}

// Export collects the persisted state. Unreadable collections export empty.
func (m *Manager) Export() (*Backup, error) {
	now := m.clock.Now()
	b := &Backup{
		Tasks: []task.Task{},
		Settings: Settings{
			DarkMode:      m.prefs.DarkMode(),
			Notifications: m.prefs.Notifications(),
		},
		ExportDate: now,
		Version:    Version,
	}

	data, err := m.store.Get(storage.KeyTasks)
	switch {
	case err == nil:
		res, err := task.DecodeCollection(data, now)
		if err != nil {
			m.logger.Warn("task collection unreadable, exporting none", "err", err)
			break
		}
		for _, d := range res.Dropped {
			m.logger.Warn("invalid task left out of backup", "err", d)
		}
		b.Tasks = res.Tasks
	case errors.Is(err, storage.ErrNotFound):
	default:
		return nil, fmt.Errorf("read tasks: %w", err)
	}

	if err := storage.GetJSON(m.store, storage.KeyAnalytics, &b.Analytics); err != nil &&
		!errors.Is(err, storage.ErrNotFound) {
		m.logger.Warn("analytics unreadable, exporting none", "err", err)
		b.Analytics = nil
	}
	if err := storage.GetJSON(m.store, storage.KeyAchievements, &b.Achievements); err != nil &&
		!errors.Is(err, storage.ErrNotFound) {
		m.logger.Warn("achievements unreadable, exporting none", "err", err)
		b.Achievements = nil
	}
	return b, nil
}

// document mirrors Backup with every field optional.
type document struct {
	Tasks        json.RawMessage `json:"tasks"`
	Analytics    json.RawMessage `json:"analytics"`
	Achievements json.RawMessage `json:"achievements"`
	Settings     *struct {
		DarkMode      *bool `json:"darkMode"`
		Notifications *bool `json:"notifications"`
	} `json:"settings"`
}

// Import validates data in full and then writes the fields it contains.
// Absent fields leave the stored value untouched; unknown fields are ignored.
func (m *Manager) Import(data []byte) (*Result, error) {
	var raw interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, &ImportError{Err: fmt.Errorf("invalid JSON: %w", err)}
	}
	sch, err := compiledSchema()
	if err != nil {
		return nil, &ImportError{Err: err}
	}
	if err := sch.Validate(raw); err != nil {
		return nil, schemaError(err)
	}

	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, &ImportError{Err: err}
	}

	type write struct {
		key   string
		value []byte
	}
	var writes []write
	result := &Result{}

	if isPresent(doc.Tasks) {
		res, err := task.DecodeCollection(doc.Tasks, m.clock.Now())
		if err != nil {
			return nil, &ImportError{Path: "tasks", Err: err}
		}
		if len(res.Dropped) > 0 {
			return nil, &ImportError{Path: "tasks", Err: res.Dropped[0]}
		}
		encoded, err := json.Marshal(res.Tasks)
		if err != nil {
			return nil, &ImportError{Path: "tasks", Err: err}
		}
		writes = append(writes, write{storage.KeyTasks, encoded})
		result.Tasks = len(res.Tasks)
	}
	if isPresent(doc.Analytics) {
		writes = append(writes, write{storage.KeyAnalytics, compact(doc.Analytics)})
	}
	if isPresent(doc.Achievements) {
		writes = append(writes, write{storage.KeyAchievements, compact(doc.Achievements)})
	}
	if doc.Settings != nil {
		if v := doc.Settings.DarkMode; v != nil {
			writes = append(writes, write{storage.KeyDarkMode, boolJSON(*v)})
		}
		if v := doc.Settings.Notifications; v != nil {
			writes = append(writes, write{storage.KeyNotifications, boolJSON(*v)})
		}
	}

	for _, w := range writes {
		if err := m.store.Set(w.key, w.value); err != nil {
			return result, &ImportError{Err: fmt.Errorf("write %s: %w", w.key, err)}
		}
		result.Keys = append(result.Keys, w.key)
		if m.notifier != nil {
			m.notifier.Publish(w.key, w.value)
		}
	}
	m.logger.Info("backup imported", "keys", len(result.Keys), "tasks", result.Tasks)
	return result, nil
}

func isPresent(v json.RawMessage) bool {
	return len(v) > 0 && !bytes.Equal(v, []byte("null"))
}

func compact(v json.RawMessage) []byte {
	var buf bytes.Buffer
	if err := json.Compact(&buf, v); err != nil {
		return v
	}
	return buf.Bytes()
}

func boolJSON(v bool) []byte {
	if v {
		return []byte("true")
	}
	return []byte("false")
}

func schemaError(err error) error {
	ve, ok := err.(*jsonschema.ValidationError)
	if !ok {
		return &ImportError{Err: err}
	}
	for len(ve.Causes) > 0 {
		ve = ve.Causes[0]
	}
	return &ImportError{
		Path: utils.JSONPointerToPath(ve.InstanceLocation),
		Err:  errors.New(ve.Message),
	}
}
