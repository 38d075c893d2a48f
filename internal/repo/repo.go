// Package repo owns a context's in-memory copy of the task collection and
// keeps it in step with the shared storage area.
//
// Every mutation follows the same cycle: reconcile with storage, apply the
// change to the in-memory copy, write the full collection back, publish the
// new value to same-context listeners, and notify observers. Two contexts
// that mutate concurrently overwrite each other; the last write wins.
package repo

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/nibzard/tasktrack-go/internal/clock"
	"github.com/nibzard/tasktrack-go/internal/logging"
	"github.com/nibzard/tasktrack-go/internal/notify"
	"github.com/nibzard/tasktrack-go/internal/storage"
	"github.com/nibzard/tasktrack-go/internal/task"
)

// ErrNotFound is returned when no task (or subtask) has the requested id.
var ErrNotFound = errors.New("task not found")

// SaveError reports a failed write of the collection. The in-memory copy
// still holds the change.
type SaveError struct {
	Err error
}

func (e *SaveError) Error() string {
	return fmt.Sprintf("save tasks: %s", e.Err)
}

// Unwrap returns the underlying storage error.
func (e *SaveError) Unwrap() error {
	return e.Err
}

// Options configures a Repository.
type Options struct {
	Store    storage.Store
	Clock    clock.Clock
	IDs      clock.IDGenerator
	Notifier *notify.Notifier
	Logger   *log.Logger
}

// Repository is the task collection for one context. It is safe for
// concurrent use; observers and listeners run without its lock held.
type Repository struct {
	store    storage.Store
	clock    clock.Clock
	ids      clock.IDGenerator
	notifier *notify.Notifier
	logger   *log.Logger

	mu        sync.Mutex
	tasks     []task.Task
	dirty     bool
	observers []func(Event)
}

// New creates a Repository and loads the persisted collection.
func New(opts Options) *Repository {
	r := &Repository{
		store:    opts.Store,
		clock:    opts.Clock,
		ids:      opts.IDs,
		notifier: opts.Notifier,
		logger:   logging.OrDiscard(opts.Logger),
	}
	if r.clock == nil {
		r.clock = clock.System{}
	}
	if r.ids == nil {
		r.ids = clock.UUIDs{}
	}
	if r.notifier == nil {
		r.notifier = notify.New(r.logger)
	}
	r.tasks = r.Load()
	return r
}

// Load reads the persisted collection. It never fails: a missing key yields
// an empty collection, malformed data is logged and treated as empty, and
// individual invalid tasks are dropped with a warning.
func (r *Repository) Load() []task.Task {
	data, err := r.store.Get(storage.KeyTasks)
	if errors.Is(err, storage.ErrNotFound) {
		return []task.Task{}
	}
	if err != nil {
		r.logger.Error("read tasks", "err", err)
		return []task.Task{}
	}
	return r.decode(data)
}

func (r *Repository) decode(data []byte) []task.Task {
	res, err := task.DecodeCollection(data, r.clock.Now())
	if err != nil {
		r.logger.Error("malformed task collection, starting empty", "err", err)
		return []task.Task{}
	}
	for _, d := range res.Dropped {
		r.logger.Warn("dropped invalid task", "err", d)
	}
	for _, id := range res.Repaired {
		r.logger.Warn("repaired completion timestamp", "id", id)
	}
	return res.Tasks
}

// Save writes tasks as the full collection and makes them the in-memory
// copy. On failure it returns a *SaveError and keeps the in-memory copy
// authoritative until a later save succeeds.
func (r *Repository) Save(tasks []task.Task) error {
	r.mu.Lock()
	r.tasks = cloneAll(tasks)
	data, err := r.saveLocked()
	r.mu.Unlock()

	if data != nil {
		r.notifier.Publish(storage.KeyTasks, data)
	}
	return err
}

// saveLocked persists r.tasks and returns the encoded collection.
func (r *Repository) saveLocked() (json.RawMessage, error) {
	data, err := json.Marshal(r.tasks)
	if err != nil {
		r.dirty = true
		return nil, &SaveError{Err: err}
	}
	if err := r.store.Set(storage.KeyTasks, data); err != nil {
		r.dirty = true
		r.logger.Error("save tasks", "err", err, "tasks", len(r.tasks))
		return data, &SaveError{Err: err}
	}
	if r.dirty {
		r.logger.Info("tasks saved after earlier failure", "tasks", len(r.tasks))
	}
	r.dirty = false
	return data, nil
}

// Reload replaces the in-memory copy with the persisted collection, unless
// an unsaved change is pending.
func (r *Repository) Reload() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reconcileLocked()
}

// Apply replaces the in-memory copy with a collection received from another
// context. It is ignored while an unsaved change is pending.
func (r *Repository) Apply(value json.RawMessage) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.dirty {
		return
	}
	if value == nil {
		r.tasks = []task.Task{}
		return
	}
	r.tasks = r.decode(value)
}

func (r *Repository) reconcileLocked() {
	if r.dirty {
		return
	}
	r.tasks = r.Load()
}

// Dirty reports whether the in-memory copy has changes that failed to save.
func (r *Repository) Dirty() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.dirty
}

// Tasks returns a copy of the in-memory collection, most recent first.
func (r *Repository) Tasks() []task.Task {
	r.mu.Lock()
	defer r.mu.Unlock()
	return cloneAll(r.tasks)
}

// Get returns the task with id.
func (r *Repository) Get(id string) (task.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	i := indexOf(r.tasks, id)
	if i < 0 {
		return task.Task{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return r.tasks[i].Clone(), nil
}

// OnEvent registers fn to receive every applied mutation, including ones
// whose write failed.
func (r *Repository) OnEvent(fn func(Event)) {
	r.mu.Lock()
	r.observers = append(r.observers, fn)
	r.mu.Unlock()
}

// Notifier returns the notifier the repository publishes to.
func (r *Repository) Notifier() *notify.Notifier {
	return r.notifier
}

// mutate runs fn against a private copy of the reconciled collection. When fn
// succeeds the copy replaces the in-memory collection and is persisted. The
// returned error is fn's error, or a *SaveError when only the write failed.
func (r *Repository) mutate(fn func(tasks []task.Task) ([]task.Task, []Event, error)) error {
	r.mu.Lock()
	r.reconcileLocked()
	next, events, err := fn(cloneAll(r.tasks))
	if err != nil {
		r.mu.Unlock()
		return err
	}
	r.tasks = next
	data, saveErr := r.saveLocked()
	snapshot := cloneAll(next)
	observers := append(([]func(Event))(nil), r.observers...)
	r.mu.Unlock()

	if data != nil {
		r.notifier.Publish(storage.KeyTasks, data)
	}
	for _, ev := range events {
		ev.Tasks = snapshot
		for _, fn := range observers {
			fn(ev)
		}
	}
	return saveErr
}

func indexOf(tasks []task.Task, id string) int {
	for i := range tasks {
		if tasks[i].ID == id {
			return i
		}
	}
	return -1
}

func cloneAll(tasks []task.Task) []task.Task {
	out := make([]task.Task, len(tasks))
	for i := range tasks {
		out[i] = tasks[i].Clone()
	}
	return out
}
