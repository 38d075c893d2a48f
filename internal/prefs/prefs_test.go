package prefs

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/nibzard/tasktrack-go/internal/notify"
	"github.com/nibzard/tasktrack-go/internal/storage"
)

func TestDarkMode(t *testing.T) {
	store := storage.NewMemoryStore()
	n := notify.New(nil)
	var seen []string
	n.Subscribe(storage.KeyDarkMode, notify.ListenerFunc(func(_ string, v json.RawMessage) {
		seen = append(seen, string(v))
	}))
	p := New(store, n, nil)

	if p.DarkMode() {
		t.Error("dark mode should default to off")
	}
	on, err := p.ToggleDarkMode()
	if err != nil || !on {
		t.Fatalf("ToggleDarkMode: %v %v", on, err)
	}
	if !p.DarkMode() {
		t.Error("dark mode not persisted")
	}
	if err := p.SetDarkMode(false); err != nil {
		t.Fatal(err)
	}
	if len(seen) != 2 || seen[0] != "true" || seen[1] != "false" {
		t.Errorf("published values: %v", seen)
	}

	// Another context sees the persisted value.
	other := New(store.Sibling(), nil, nil)
	if other.DarkMode() {
		t.Error("sibling context read stale dark mode")
	}
}

func TestUnreadableSettingUsesDefault(t *testing.T) {
	store := storage.NewMemoryStore()
	if err := store.Set(storage.KeyDarkMode, []byte(`"yes"`)); err != nil {
		t.Fatal(err)
	}
	if err := store.Set(storage.KeyNotifications, []byte(`{`)); err != nil {
		t.Fatal(err)
	}
	p := New(store, nil, nil)
	if p.DarkMode() {
		t.Error("bad dark mode should read as false")
	}
	if !p.Notifications() {
		t.Error("bad notifications should read as true")
	}
}

func TestSetFailsWithoutPublishing(t *testing.T) {
	store := storage.NewMemoryStore()
	n := notify.New(nil)
	calls := 0
	n.Subscribe(notify.AllKeys, notify.ListenerFunc(func(string, json.RawMessage) { calls++ }))
	p := New(store, n, nil)

	store.SetWriteError(storage.ErrQuotaExceeded)
	if err := p.SetNotifications(false); !errors.Is(err, storage.ErrQuotaExceeded) {
		t.Errorf("got %v", err)
	}
	if calls != 0 {
		t.Error("failed write should not publish")
	}
	if !p.Notifications() {
		t.Error("failed write changed the stored value")
	}
}

func TestAutomations(t *testing.T) {
	p := New(storage.NewMemoryStore(), nil, nil)
	autos := p.Automations()
	for _, id := range AutomationIDs() {
		if on, ok := autos[id]; !ok || on {
			t.Errorf("%s: got %v %v, want present and off", id, on, ok)
		}
	}

	if err := p.SetAutomation(SmartScheduling, true); err != nil {
		t.Fatal(err)
	}
	if !p.Automations()[SmartScheduling] {
		t.Error("automation not enabled")
	}
	if err := p.SetAutomation("teleport", true); !errors.Is(err, ErrUnknownAutomation) {
		t.Errorf("unknown automation: got %v", err)
	}

	if AutomationName(ReminderOptimization) != "Intelligent Reminders" {
		t.Errorf("name: %s", AutomationName(ReminderOptimization))
	}
	if AutomationName("x") != "Automation" {
		t.Errorf("fallback name: %s", AutomationName("x"))
	}
}

func TestClearAllAndStats(t *testing.T) {
	store := storage.NewMemoryStore()
	n := notify.New(nil)
	removed := map[string]bool{}
	n.Subscribe(notify.AllKeys, notify.ListenerFunc(func(k string, v json.RawMessage) {
		if v == nil {
			removed[k] = true
		}
	}))
	p := New(store, n, nil)

	tasks := `[{"id":"1","completed":true},{"id":"2","completed":false}]`
	if err := store.Set(storage.KeyTasks, []byte(tasks)); err != nil {
		t.Fatal(err)
	}
	if err := p.SetDarkMode(true); err != nil {
		t.Fatal(err)
	}
	if err := p.SetAutomation(AutoPrioritize, true); err != nil {
		t.Fatal(err)
	}

	stats := p.Stats()
	if stats.Tasks != 2 || stats.Completed != 1 || stats.TaskBytes != int64(len(tasks)) {
		t.Errorf("stats: %+v", stats)
	}
	if stats.TotalBytes <= stats.TaskBytes {
		t.Errorf("TotalBytes should include settings: %+v", stats)
	}
	if stats.KB() != "0.06 KB" {
		t.Errorf("KB: %s", stats.KB())
	}

	if err := p.ClearAll(); err != nil {
		t.Fatal(err)
	}
	if p.DarkMode() || !p.Notifications() {
		t.Error("settings not reset to defaults")
	}
	if _, err := store.Get(storage.KeyTasks); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("tasks not removed: %v", err)
	}
	if !p.Automations()[AutoPrioritize] {
		t.Error("ClearAll should keep automation settings")
	}
	for _, k := range []string{storage.KeyTasks, storage.KeyDarkMode, storage.KeyNotifications} {
		if !removed[k] {
			t.Errorf("removal of %s not published", k)
		}
	}
}
