// Package activity keeps the short recent-activity feed shown on the dashboard.
package activity

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/nibzard/tasktrack-go/internal/clock"
	"github.com/nibzard/tasktrack-go/internal/logging"
	"github.com/nibzard/tasktrack-go/internal/notify"
	"github.com/nibzard/tasktrack-go/internal/storage"
)

// Recorded actions.
const (
	ActionCreated     = "created"
	ActionCompleted   = "completed"
	ActionUncompleted = "uncompleted"
	ActionEdited      = "edited"
	ActionDeleted     = "deleted"
	ActionDuplicated  = "duplicated"
	ActionCleared     = "cleared"
)

// MaxEntries is the number of entries kept in storage.
const MaxEntries = 10

// DefaultShown is the number of entries the dashboard lists.
const DefaultShown = 5

// Entry is one feed item.
type Entry struct {
	ID        string    `json:"id"`
	Action    string    `json:"action"`
	TaskText  string    `json:"taskText"`
	Timestamp time.Time `json:"timestamp"`
}

// Label returns the display verb for the entry's action.
func (e Entry) Label() string {
	return Label(e.Action)
}

// Label returns the display verb for action.
func Label(action string) string {
	switch action {
	case ActionCreated:
		return "Created"
	case ActionCompleted:
		return "Completed"
	case ActionUncompleted:
		return "Reopened"
	case ActionEdited:
		return "Edited"
	case ActionDeleted:
		return "Deleted"
	case ActionDuplicated:
		return "Duplicated"
	case ActionCleared:
		return "Cleared"
	default:
		return "Updated"
	}
}

// Log persists the feed newest first.
type Log struct {
	store    storage.Store
	clock    clock.Clock
	ids      clock.IDGenerator
	notifier *notify.Notifier
	logger   *log.Logger

	mu sync.Mutex
}

// New creates a Log. clk and ids default to the system clock and UUIDs.
func New(store storage.Store, clk clock.Clock, ids clock.IDGenerator, notifier *notify.Notifier, logger *log.Logger) *Log {
	if clk == nil {
		clk = clock.System{}
	}
	if ids == nil {
		ids = clock.UUIDs{}
	}
	return &Log{store: store, clock: clk, ids: ids, notifier: notifier, logger: logging.OrDiscard(logger)}
}

// Entries returns every stored entry, newest first.
func (l *Log) Entries() []Entry {
	var entries []Entry
	err := storage.GetJSON(l.store, storage.KeyRecentActivity, &entries)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		l.logger.Warn("recent activity unreadable", "err", err)
		return nil
	}
	return entries
}

// Recent returns up to n entries, newest first. n <= 0 returns them all.
func (l *Log) Recent(n int) []Entry {
	entries := l.Entries()
	if n > 0 && len(entries) > n {
		entries = entries[:n]
	}
	return entries
}

// Record prepends an entry and trims the feed to MaxEntries. Write failures
// are logged; the returned entry is valid either way.
func (l *Log) Record(action, taskText string) Entry {
	e := Entry{
		ID:        l.ids.NewID(),
		Action:    action,
		TaskText:  taskText,
		Timestamp: l.clock.Now(),
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	entries := append([]Entry{e}, l.Entries()...)
	if len(entries) > MaxEntries {
		entries = entries[:MaxEntries]
	}
	data, err := json.Marshal(entries)
	if err != nil {
		l.logger.Warn("encode recent activity", "err", err)
		return e
	}
	if err := l.store.Set(storage.KeyRecentActivity, data); err != nil {
		l.logger.Warn("save recent activity", "err", err)
		return e
	}
	if l.notifier != nil {
		l.notifier.Publish(storage.KeyRecentActivity, data)
	}
	return e
}

// TimeAgo renders the age of t relative to now.
func TimeAgo(t, now time.Time) string {
	d := now.Sub(t)
	switch {
	case d < time.Minute:
		return "Just now"
	case d < time.Hour:
		return fmt.Sprintf("%dm ago", int(d/time.Minute))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(d/time.Hour))
	default:
		return fmt.Sprintf("%dd ago", int(d/(24*time.Hour)))
	}
}
