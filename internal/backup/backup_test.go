package backup

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/nibzard/tasktrack-go/internal/analytics"
	"github.com/nibzard/tasktrack-go/internal/clock"
	"github.com/nibzard/tasktrack-go/internal/notify"
	"github.com/nibzard/tasktrack-go/internal/prefs"
	"github.com/nibzard/tasktrack-go/internal/repo"
	"github.com/nibzard/tasktrack-go/internal/storage"
	"github.com/nibzard/tasktrack-go/internal/task"
)

var testNow = time.Date(2024, 3, 10, 9, 30, 0, 0, time.UTC)

func seed(t *testing.T) (*storage.MemoryStore, *clock.Fixed) {
	t.Helper()
	store := storage.NewMemoryStore()
	clk := clock.NewFixed(testNow)
	r := repo.New(repo.Options{Store: store, Clock: clk, IDs: &clock.Sequence{Prefix: "t"}})
	for _, d := range []task.Draft{
		{Text: "Write report #work", Date: "2024-03-11", Time: "10:00", Priority: "high", Category: "work"},
		{Text: "Buy milk", Subtasks: []string{"whole", "oat"}},
	} {
		if _, err := r.Add(d); err != nil {
			t.Fatal(err)
		}
	}
	if _, err := r.Toggle("t2"); err != nil {
		t.Fatal(err)
	}
	analytics.NewTracker(store, clk, nil, nil).Track(analytics.ActionTaskAdded)
	if err := prefs.New(store, nil, nil).SetDarkMode(true); err != nil {
		t.Fatal(err)
	}
	return store, clk
}

func TestExport(t *testing.T) {
	store, clk := seed(t)
	b, err := New(store, clk, nil, nil).Export()
	if err != nil {
		t.Fatal(err)
	}
	if len(b.Tasks) != 2 || b.Version != Version || !b.ExportDate.Equal(testNow) {
		t.Errorf("backup: %+v", b)
	}
	if !b.Settings.DarkMode || !b.Settings.Notifications {
		t.Errorf("settings: %+v", b.Settings)
	}
	if b.Analytics["2024-03-10"].TasksAdded != 1 {
		t.Errorf("analytics: %+v", b.Analytics)
	}

	data, err := b.Encode()
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasSuffix(string(data), "}\n") || !strings.Contains(string(data), "\n  \"tasks\": [") {
		t.Errorf("encoding is not indented JSON with trailing newline:\n%s", data)
	}
	if got := FileName(testNow); got != "todo-backup-2024-03-10.json" {
		t.Errorf("FileName: %s", got)
	}
}

func TestRoundTripReproducesTasks(t *testing.T) {
	store, clk := seed(t)
	before, err := store.Get(storage.KeyTasks)
	if err != nil {
		t.Fatal(err)
	}

	m := New(store, clk, nil, nil)
	b, err := m.Export()
	if err != nil {
		t.Fatal(err)
	}
	data, err := b.Encode()
	if err != nil {
		t.Fatal(err)
	}

	fresh := storage.NewMemoryStore()
	res, err := New(fresh, clk, nil, nil).Import(data)
	if err != nil {
		t.Fatalf("Import: %v", err)
	}
	if res.Tasks != 2 {
		t.Errorf("imported %d tasks", res.Tasks)
	}
	after, err := fresh.Get(storage.KeyTasks)
	if err != nil {
		t.Fatal(err)
	}
	if string(before) != string(after) {
		t.Errorf("task collection changed:\nbefore %s\nafter  %s", before, after)
	}
	if !prefs.New(fresh, nil, nil).DarkMode() {
		t.Error("dark mode not restored")
	}
}

func TestImportAppliesOnlyPresentFields(t *testing.T) {
	store, clk := seed(t)
	tasksBefore, _ := store.Get(storage.KeyTasks)

	n := notify.New(nil)
	var published []string
	n.Subscribe(notify.AllKeys, notify.ListenerFunc(func(k string, _ json.RawMessage) {
		published = append(published, k)
	}))

	res, err := New(store, clk, n, nil).Import([]byte(`{"settings":{"notifications":false},"theme":"ignored"}`))
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Keys) != 1 || res.Keys[0] != storage.KeyNotifications {
		t.Errorf("keys: %v", res.Keys)
	}
	if len(published) != 1 || published[0] != storage.KeyNotifications {
		t.Errorf("published: %v", published)
	}
	p := prefs.New(store, nil, nil)
	if p.Notifications() || !p.DarkMode() {
		t.Error("only notifications should change")
	}
	tasksAfter, _ := store.Get(storage.KeyTasks)
	if string(tasksBefore) != string(tasksAfter) {
		t.Error("absent tasks field changed the collection")
	}
}

func TestImportRejectsInvalidWithoutApplying(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		path string
	}{
		{"not json", `{`, ""},
		{"not an object", `[1]`, ""},
		{"bad priority", `{"settings":{"darkMode":false},"tasks":[{"id":"1","text":"x","completed":false,"createdAt":"2024-03-10T09:00:00Z","priority":"critical"}]}`, "tasks[0].priority"},
		{"missing text", `{"tasks":[{"id":"1","completed":false,"createdAt":"2024-03-10T09:00:00Z"}]}`, "tasks[0]"},
		{"bad analytics date", `{"analytics":{"yesterday":{"tasksAdded":1}}}`, ""},
		{"dark mode not bool", `{"settings":{"darkMode":"yes"}}`, "settings.darkMode"},
		{"duplicate ids", `{"tasks":[{"id":"1","text":"a","completed":false,"createdAt":"2024-03-10T09:00:00Z"},{"id":"1","text":"b","completed":false,"createdAt":"2024-03-10T09:00:00Z"}]}`, "tasks"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store, clk := seed(t)
			before, _ := store.Get(storage.KeyTasks)

			_, err := New(store, clk, nil, nil).Import([]byte(tt.doc))
			var ie *ImportError
			if !errors.As(err, &ie) {
				t.Fatalf("got %v, want *ImportError", err)
			}
			if tt.path != "" && ie.Path != tt.path {
				t.Errorf("path: got %q, want %q (%v)", ie.Path, tt.path, err)
			}
			after, _ := store.Get(storage.KeyTasks)
			if string(before) != string(after) {
				t.Error("rejected import modified tasks")
			}
			if !prefs.New(store, nil, nil).DarkMode() {
				t.Error("rejected import modified settings")
			}
		})
	}
}

func TestImportWriteFailure(t *testing.T) {
	store, clk := seed(t)
	store.SetWriteError(storage.ErrQuotaExceeded)
	_, err := New(store, clk, nil, nil).Import([]byte(`{"settings":{"darkMode":false}}`))
	if !errors.Is(err, storage.ErrQuotaExceeded) {
		t.Errorf("got %v", err)
	}
}
