// Package prefs stores the shared user settings: dark mode, notifications
// and automation toggles.
package prefs

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/charmbracelet/log"

	"github.com/nibzard/tasktrack-go/internal/logging"
	"github.com/nibzard/tasktrack-go/internal/notify"
	"github.com/nibzard/tasktrack-go/internal/storage"
)

// Automation ids.
const (
	AutoPrioritize       = "auto-prioritize"
	SmartScheduling      = "smart-scheduling"
	ReminderOptimization = "reminder-optimization"
)

var automationNames = map[string]string{
	AutoPrioritize:       "Auto-Prioritize Tasks",
	SmartScheduling:      "Smart Scheduling",
	ReminderOptimization: "Intelligent Reminders",
}

// ErrUnknownAutomation is returned for automation ids outside the known set.
var ErrUnknownAutomation = errors.New("unknown automation")

// AutomationIDs lists the known automations in display order.
func AutomationIDs() []string {
	return []string{AutoPrioritize, SmartScheduling, ReminderOptimization}
}

// AutomationName returns the display name for id.
func AutomationName(id string) string {
	if name, ok := automationNames[id]; ok {
		return name
	}
	return "Automation"
}

// Prefs reads and writes settings. Every write is published on the notifier
// so listeners in the same context update without re-reading storage.
type Prefs struct {
	store    storage.Store
	notifier *notify.Notifier
	logger   *log.Logger
}

// New creates a Prefs. A nil notifier disables publishing.
func New(store storage.Store, notifier *notify.Notifier, logger *log.Logger) *Prefs {
	return &Prefs{store: store, notifier: notifier, logger: logging.OrDiscard(logger)}
}

// DarkMode reports the dark mode flag; false when unset or unreadable.
func (p *Prefs) DarkMode() bool {
	return p.loadBool(storage.KeyDarkMode, false)
}

// SetDarkMode persists the dark mode flag and publishes it.
func (p *Prefs) SetDarkMode(on bool) error {
	return p.saveBool(storage.KeyDarkMode, on)
}

// ToggleDarkMode flips dark mode and returns the new value.
func (p *Prefs) ToggleDarkMode() (bool, error) {
	on := !p.DarkMode()
	return on, p.SetDarkMode(on)
}

// Notifications reports whether notifications are enabled; true when unset.
func (p *Prefs) Notifications() bool {
	return p.loadBool(storage.KeyNotifications, true)
}

// SetNotifications persists the notifications flag and publishes it.
func (p *Prefs) SetNotifications(on bool) error {
	return p.saveBool(storage.KeyNotifications, on)
}

// Automations returns the stored automation toggles. Known automations that
// were never set report false.
func (p *Prefs) Automations() map[string]bool {
	settings := make(map[string]bool)
	if err := storage.GetJSON(p.store, storage.KeyAutomationSettings, &settings); err != nil &&
		!errors.Is(err, storage.ErrNotFound) {
		p.logger.Warn("automation settings unreadable", "err", err)
		settings = make(map[string]bool)
	}
	for _, id := range AutomationIDs() {
		if _, ok := settings[id]; !ok {
			settings[id] = false
		}
	}
	return settings
}

// SetAutomation enables or disables the automation id.
func (p *Prefs) SetAutomation(id string, enabled bool) error {
	if _, ok := automationNames[id]; !ok {
		return fmt.Errorf("%w: %q", ErrUnknownAutomation, id)
	}
	settings := p.Automations()
	settings[id] = enabled
	data, err := json.Marshal(settings)
	if err != nil {
		return fmt.Errorf("encode automation settings: %w", err)
	}
	if err := p.store.Set(storage.KeyAutomationSettings, data); err != nil {
		return fmt.Errorf("save automation settings: %w", err)
	}
	p.publish(storage.KeyAutomationSettings, data)
	return nil
}

// ClearAll removes the task collection and the dark mode and notification
// settings, publishing each removal.
func (p *Prefs) ClearAll() error {
	var errs []error
	for _, key := range []string{storage.KeyTasks, storage.KeyDarkMode, storage.KeyNotifications} {
		if err := p.store.Remove(key); err != nil {
			errs = append(errs, fmt.Errorf("remove %s: %w", key, err))
			continue
		}
		p.publish(key, nil)
	}
	return errors.Join(errs...)
}

// StorageStats summarizes the persisted task collection.
type StorageStats struct {
	Tasks     int   `json:"tasks"`
	Completed int   `json:"completed"`
	TaskBytes int64 `json:"taskBytes"`
	// TotalBytes covers every key in the store.
	TotalBytes int64 `json:"totalBytes"`
}

// KB formats TaskBytes in kilobytes with two decimals.
func (s StorageStats) KB() string {
	return fmt.Sprintf("%.2f KB", float64(s.TaskBytes)/1024)
}

// Stats reads the persisted collection and reports its size.
func (p *Prefs) Stats() StorageStats {
	var stats StorageStats
	data, err := p.store.Get(storage.KeyTasks)
	if err == nil {
		stats.TaskBytes = int64(len(data))
		var tasks []struct {
			Completed bool `json:"completed"`
		}
		if err := json.Unmarshal(data, &tasks); err != nil {
			p.logger.Warn("task collection unreadable", "err", err)
		}
		stats.Tasks = len(tasks)
		for _, t := range tasks {
			if t.Completed {
				stats.Completed++
			}
		}
	}
	if total, err := storage.Size(p.store); err == nil {
		stats.TotalBytes = total
	}
	return stats
}

// Snapshot returns every setting in a stable order, for display.
func (p *Prefs) Snapshot() []Setting {
	out := []Setting{
		{Key: storage.KeyDarkMode, Name: "Dark mode", Enabled: p.DarkMode()},
		{Key: storage.KeyNotifications, Name: "Notifications", Enabled: p.Notifications()},
	}
	autos := p.Automations()
	ids := make([]string, 0, len(autos))
	for id := range autos {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		out = append(out, Setting{Key: id, Name: AutomationName(id), Enabled: autos[id]})
	}
	return out
}

// Setting is one named flag.
type Setting struct {
	Key     string
	Name    string
	Enabled bool
}

func (p *Prefs) loadBool(key string, def bool) bool {
	var v bool
	err := storage.GetJSON(p.store, key, &v)
	switch {
	case err == nil:
		return v
	case errors.Is(err, storage.ErrNotFound):
		return def
	default:
		p.logger.Warn("setting unreadable, using default", "key", key, "err", err)
		return def
	}
}

func (p *Prefs) saveBool(key string, v bool) error {
	data, _ := json.Marshal(v)
	if err := p.store.Set(key, data); err != nil {
		return fmt.Errorf("save %s: %w", key, err)
	}
	p.publish(key, data)
	return nil
}

func (p *Prefs) publish(key string, value json.RawMessage) {
	if p.notifier != nil {
		p.notifier.Publish(key, value)
	}
}
