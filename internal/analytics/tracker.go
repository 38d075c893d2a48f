// Package analytics keeps per-day activity counters, unlocks achievements,
// derives insights and produces the analytics summary export.
//
// Analytics are advisory: read failures degrade to empty data and write
// failures are logged, never returned to task operations.
package analytics

import (
	"encoding/json"
	"errors"
	"sort"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/nibzard/tasktrack-go/internal/clock"
	"github.com/nibzard/tasktrack-go/internal/logging"
	"github.com/nibzard/tasktrack-go/internal/notify"
	"github.com/nibzard/tasktrack-go/internal/storage"
)

// Action is a counted event.
type Action string

const (
	ActionTaskAdded     Action = "taskAdded"
	ActionTaskCompleted Action = "taskCompleted"
	ActionTaskDeleted   Action = "taskDeleted"
)

// Record holds one day's counters. TimeSpent is in minutes.
type Record struct {
	TasksAdded     int `json:"tasksAdded" yaml:"tasksAdded"`
	TasksCompleted int `json:"tasksCompleted" yaml:"tasksCompleted"`
	TasksDeleted   int `json:"tasksDeleted" yaml:"tasksDeleted"`
	TimeSpent      int `json:"timeSpent" yaml:"timeSpent"`
}

// Tracker maintains the date-to-Record map under the analytics key.
type Tracker struct {
	store    storage.Store
	clock    clock.Clock
	notifier *notify.Notifier
	logger   *log.Logger

	mu sync.Mutex
}

// NewTracker creates a Tracker. notifier and logger may be nil.
func NewTracker(store storage.Store, clk clock.Clock, notifier *notify.Notifier, logger *log.Logger) *Tracker {
	if clk == nil {
		clk = clock.System{}
	}
	return &Tracker{store: store, clock: clk, notifier: notifier, logger: logging.OrDiscard(logger)}
}

// Load returns the persisted records keyed by YYYY-MM-DD.
func (t *Tracker) Load() map[string]Record {
	records := make(map[string]Record)
	err := storage.GetJSON(t.store, storage.KeyAnalytics, &records)
	switch {
	case err == nil:
	case errors.Is(err, storage.ErrNotFound):
	default:
		t.logger.Warn("analytics unreadable, starting fresh", "err", err)
		records = make(map[string]Record)
	}
	return records
}

// Today returns today's record.
func (t *Tracker) Today() Record {
	return t.Load()[clock.Today(t.clock)]
}

// Track increments today's counter for action. Unknown actions still create
// today's record.
func (t *Tracker) Track(action Action) {
	t.update(func(r *Record) {
		switch action {
		case ActionTaskAdded:
			r.TasksAdded++
		case ActionTaskCompleted:
			r.TasksCompleted++
		case ActionTaskDeleted:
			r.TasksDeleted++
		}
	})
}

// TrackUsage adds one minute of usage to today's record.
func (t *Tracker) TrackUsage() {
	t.update(func(r *Record) { r.TimeSpent++ })
}

func (t *Tracker) update(fn func(*Record)) {
	t.mu.Lock()
	defer t.mu.Unlock()

	records := t.Load()
	today := clock.Today(t.clock)
	r := records[today]
	fn(&r)
	records[today] = r

	data, err := json.Marshal(records)
	if err != nil {
		t.logger.Warn("encode analytics", "err", err)
		return
	}
	if err := t.store.Set(storage.KeyAnalytics, data); err != nil {
		t.logger.Warn("save analytics", "err", err)
		return
	}
	if t.notifier != nil {
		t.notifier.Publish(storage.KeyAnalytics, data)
	}
}

// ActiveDays returns the dates holding a record, oldest first.
func (t *Tracker) ActiveDays() []string {
	records := t.Load()
	days := make([]string, 0, len(records))
	for d := range records {
		days = append(days, d)
	}
	sort.Strings(days)
	return days
}

// UsageStreak counts consecutive days with a record, ending today.
func (t *Tracker) UsageStreak() int {
	records := t.Load()
	today := clock.Today(t.clock)
	streak := 0
	for day := today; streak < len(records); day = clock.AddDays(day, -1) {
		if _, ok := records[day]; !ok {
			break
		}
		streak++
	}
	return streak
}
