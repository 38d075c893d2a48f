package ui

import (
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/nibzard/tasktrack-go/internal/app"
	"github.com/nibzard/tasktrack-go/internal/query"
	"github.com/nibzard/tasktrack-go/internal/storage"
	"github.com/nibzard/tasktrack-go/internal/task"
	"github.com/nibzard/tasktrack-go/internal/utils"
)

// refreshMsg is sent by the session refresh timer.
type refreshMsg struct{}

// stateMsg reports a shared key change from this or another context.
type stateMsg struct {
	key string
}

type model struct {
	app *app.App

	filter   query.FilterName
	sort     query.SortKey
	cursor   int
	showHelp bool
	status   string
	err      error

	dash  app.Dashboard
	tasks []task.Task
	theme theme
}

func newModel(a *app.App) *model {
	m := &model{
		app:    a,
		filter: query.FilterAll,
		sort:   query.SortNewest,
	}
	m.refresh()
	return m
}

func (m *model) Init() tea.Cmd {
	return nil
}

func (m *model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)
	case refreshMsg:
		m.refresh()
	case stateMsg:
		if msg.key == storage.KeyDarkMode || msg.key == storage.KeyTasks ||
			msg.key == storage.KeyRecentActivity || msg.key == storage.KeyAchievements {
			m.refresh()
		}
	}
	return m, nil
}

func (m *model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()
	switch key {
	case "ctrl+c", "q":
		return m, tea.Quit
	case "r", "f5":
		m.refresh()
	case "h", "?":
		m.showHelp = !m.showHelp
	case "0", "1", "2", "3", "4":
		m.filter = query.Filters[int(key[0]-'0')]
		m.cursor = 0
		m.refresh()
	case "s":
		m.sort = nextSort(m.sort)
		m.refresh()
	case "d":
		if _, err := m.app.Prefs.ToggleDarkMode(); err != nil {
			m.err = err
		}
		m.refresh()
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(m.tasks)-1 {
			m.cursor++
		}
	case " ", "x":
		m.withSelected(func(t task.Task) error {
			updated, err := m.app.Repo.Toggle(t.ID)
			if err == nil {
				m.status = "Marked " + strings.ToLower(completionWord(updated.Completed)) + ": " + updated.Text
			}
			return err
		})
	case "y":
		m.withSelected(func(t task.Task) error {
			dup, err := m.app.Repo.Duplicate(t.ID)
			if err == nil {
				m.status = "Duplicated: " + dup.Text
			}
			return err
		})
	case "c":
		n, err := m.app.Repo.ClearCompleted()
		m.err = err
		if err == nil {
			m.status = utils.Count(n, "completed task") + " cleared"
		}
		m.refresh()
	}
	return m, nil
}

func (m *model) withSelected(fn func(task.Task) error) {
	if m.cursor < 0 || m.cursor >= len(m.tasks) {
		return
	}
	m.err = fn(m.tasks[m.cursor])
	m.refresh()
}

// refresh recomputes the dashboard and the visible task list.
func (m *model) refresh() {
	now := m.app.Clock.Now()
	m.dash = m.app.Dashboard()
	m.theme = newTheme(m.dash.DarkMode)

	visible := query.Filter(m.app.Repo.Tasks(), m.filter, now)
	m.tasks = query.Sort(visible, m.sort, now.Location())
	if m.cursor >= len(m.tasks) {
		m.cursor = max(len(m.tasks)-1, 0)
	}
}

func nextSort(current query.SortKey) query.SortKey {
	for i, k := range query.SortKeys {
		if k == current {
			return query.SortKeys[(i+1)%len(query.SortKeys)]
		}
	}
	return query.SortKeys[0]
}

func completionWord(done bool) string {
	if done {
		return "Done"
	}
	return "Pending"
}

// now is the clock used for relative times in the view.
func (m *model) now() time.Time {
	return m.app.Clock.Now()
}
