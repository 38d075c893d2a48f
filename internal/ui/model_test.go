package ui

import (
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/nibzard/tasktrack-go/internal/app"
	"github.com/nibzard/tasktrack-go/internal/clock"
	"github.com/nibzard/tasktrack-go/internal/query"
	"github.com/nibzard/tasktrack-go/internal/storage"
	"github.com/nibzard/tasktrack-go/internal/task"
)

var start = time.Date(2024, 5, 15, 9, 0, 0, 0, time.UTC)

func newTestModel(t *testing.T, drafts ...task.Draft) *model {
	t.Helper()
	cfg := app.DefaultConfig()
	cfg.ChatDelayMS = 0
	a := app.New(app.Options{
		Config: &cfg,
		Store:  storage.NewMemoryStore(),
		Clock:  clock.NewFixed(start),
		IDs:    &clock.Sequence{Prefix: "t"},
	})
	for _, d := range drafts {
		if _, err := a.Repo.Add(d); err != nil {
			t.Fatal(err)
		}
	}
	return newModel(a)
}

func press(m *model, key string) {
	var msg tea.KeyMsg
	switch key {
	case " ":
		msg = tea.KeyMsg{Type: tea.KeySpace}
	case "down":
		msg = tea.KeyMsg{Type: tea.KeyDown}
	default:
		msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(key)}
	}
	m.Update(msg)
}

func TestViewShowsTasksAndSummary(t *testing.T) {
	m := newTestModel(t,
		task.Draft{Text: "Plan sprint", Date: "2024-05-14", Priority: task.PriorityHigh},
		task.Draft{Text: "Buy milk", Category: "shopping"},
	)
	view := m.View()
	for _, want := range []string{"Task Tracker", "Plan sprint", "Buy milk", "Total: 2", "Overdue: 1", "Recent Activity"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q:\n%s", want, view)
		}
	}
}

func TestFilterKeys(t *testing.T) {
	m := newTestModel(t, task.Draft{Text: "first"}, task.Draft{Text: "second"})
	press(m, " ")

	tests := []struct {
		key    string
		filter query.FilterName
		count  int
	}{
		{"1", query.FilterCompleted, 1},
		{"2", query.FilterPending, 1},
		{"3", query.FilterOverdue, 0},
		{"0", query.FilterAll, 2},
	}
	for _, tt := range tests {
		press(m, tt.key)
		if m.filter != tt.filter {
			t.Errorf("key %s: filter %s, want %s", tt.key, m.filter, tt.filter)
		}
		if len(m.tasks) != tt.count {
			t.Errorf("key %s: %d tasks, want %d", tt.key, len(m.tasks), tt.count)
		}
	}
}

func TestSortCycles(t *testing.T) {
	m := newTestModel(t)
	seen := []query.SortKey{m.sort}
	for range query.SortKeys {
		press(m, "s")
		seen = append(seen, m.sort)
	}
	if seen[0] != seen[len(seen)-1] {
		t.Errorf("sort did not wrap: %v", seen)
	}
	if seen[1] != query.SortOldest {
		t.Errorf("second sort: %s", seen[1])
	}
}

func TestToggleSelectedAndDuplicate(t *testing.T) {
	m := newTestModel(t, task.Draft{Text: "older"}, task.Draft{Text: "newer"})

	press(m, "down")
	press(m, " ")
	got, err := m.app.Repo.Get(m.tasks[1].ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Text != "older" || !got.Completed {
		t.Errorf("toggled task: %+v", got)
	}
	if !strings.Contains(m.status, "older") {
		t.Errorf("status: %q", m.status)
	}

	press(m, "y")
	if n := len(m.app.Repo.Tasks()); n != 3 {
		t.Fatalf("after duplicate: %d tasks", n)
	}
	if m.app.Repo.Tasks()[0].Text != "older (Copy)" {
		t.Errorf("duplicate: %+v", m.app.Repo.Tasks()[0])
	}

	press(m, "c")
	if n := len(m.app.Repo.Tasks()); n != 2 {
		t.Errorf("after clear completed: %d tasks", n)
	}
}

func TestDarkModeToggle(t *testing.T) {
	m := newTestModel(t)
	press(m, "d")
	if !m.app.Prefs.DarkMode() || !m.dash.DarkMode {
		t.Fatal("dark mode not enabled")
	}
	if !strings.Contains(m.View(), "(dark)") {
		t.Error("title does not show dark mode")
	}
}

func TestStateMessageRefreshes(t *testing.T) {
	m := newTestModel(t)
	other := m.app
	if _, err := other.Repo.Add(task.Draft{Text: "from elsewhere"}); err != nil {
		t.Fatal(err)
	}
	m.Update(stateMsg{key: storage.KeyTasks})
	if len(m.tasks) != 1 {
		t.Errorf("tasks after state change: %d", len(m.tasks))
	}
}

func TestHelpAndQuit(t *testing.T) {
	m := newTestModel(t)
	press(m, "?")
	if !strings.Contains(m.View(), "Keyboard Shortcuts") {
		t.Error("help not shown")
	}
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	if cmd == nil {
		t.Fatal("q returned no command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("q did not quit")
	}
}
