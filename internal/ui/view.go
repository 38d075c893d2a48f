package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/nibzard/tasktrack-go/internal/activity"
	"github.com/nibzard/tasktrack-go/internal/app"
	"github.com/nibzard/tasktrack-go/internal/query"
	"github.com/nibzard/tasktrack-go/internal/task"
	"github.com/nibzard/tasktrack-go/internal/utils"
)

// maxTextWidth bounds task text in the list.
const maxTextWidth = 60

// theme holds the styles for one color scheme.
type theme struct {
	title    lipgloss.Style
	heading  lipgloss.Style
	muted    lipgloss.Style
	done     lipgloss.Style
	overdue  lipgloss.Style
	selected lipgloss.Style
	errText  lipgloss.Style
	priority map[task.Priority]lipgloss.Style
}

func newTheme(dark bool) theme {
	fg, accent, subtle := lipgloss.Color("#1f2937"), lipgloss.Color("#4f46e5"), lipgloss.Color("#6b7280")
	if dark {
		fg, accent, subtle = lipgloss.Color("#e5e7eb"), lipgloss.Color("#a5b4fc"), lipgloss.Color("#9ca3af")
	}
	base := lipgloss.NewStyle().Foreground(fg)
	return theme{
		title:    base.Bold(true).Foreground(accent),
		heading:  base.Bold(true).Underline(true),
		muted:    base.Foreground(subtle),
		done:     base.Foreground(subtle).Strikethrough(true),
		overdue:  base.Foreground(lipgloss.Color("#dc2626")),
		selected: base.Bold(true).Foreground(accent),
		errText:  base.Foreground(lipgloss.Color("#dc2626")),
		priority: map[task.Priority]lipgloss.Style{
			task.PriorityUrgent: base.Foreground(lipgloss.Color("#dc2626")).Bold(true),
			task.PriorityHigh:   base.Foreground(lipgloss.Color("#ea580c")),
			task.PriorityMedium: base.Foreground(lipgloss.Color("#ca8a04")),
			task.PriorityLow:    base.Foreground(lipgloss.Color("#16a34a")),
		},
	}
}

func (m *model) View() string {
	var b strings.Builder
	m.writeTitle(&b)

	if m.showHelp {
		writeHelp(&b, m.theme)
		m.writeFooter(&b)
		return b.String()
	}

	m.writeSummary(&b)
	m.writeTasks(&b)
	m.writeUpcoming(&b)
	m.writeRecent(&b)
	m.writeInsights(&b)
	m.writeFooter(&b)
	return b.String()
}

func (m *model) writeTitle(b *strings.Builder) {
	mode := "light"
	if m.dash.DarkMode {
		mode = "dark"
	}
	title := "Task Tracker"
	b.WriteString(m.theme.title.Render(title) + " " + m.theme.muted.Render("("+mode+")") + "\n")
	b.WriteString(strings.Repeat("=", len(title)) + "\n\n")
}

func (m *model) writeSummary(b *strings.Builder) {
	s := m.dash.Summary
	fmt.Fprintf(b, "  Total: %d  Done: %d  Pending: %d  Overdue: %d  Today: %d\n",
		s.Total, s.Completed, s.Pending, s.Overdue, s.Today)
	fmt.Fprintf(b, "  Completion: %d%%  Score: %d  Streak: %s\n\n",
		s.CompletionRate, s.Score, utils.Count(s.Streak, "day"))
}

func (m *model) writeTasks(b *strings.Builder) {
	b.WriteString(m.theme.heading.Render("Tasks") + " ")
	b.WriteString(m.theme.muted.Render(fmt.Sprintf("[filter: %s | sort: %s]", m.filter, m.sort)) + "\n\n")

	if len(m.tasks) == 0 {
		b.WriteString("  " + emptyMessage(m.filter) + "\n\n")
		return
	}
	now := m.now()
	for i, t := range m.tasks {
		cursor := "  "
		if i == m.cursor {
			cursor = m.theme.selected.Render("> ")
		}
		line := formatTask(t, m.theme, query.IsOverdue(t, now))
		b.WriteString(cursor + line + "\n")
	}
	b.WriteString("\n")
}

func (m *model) writeUpcoming(b *strings.Builder) {
	if len(m.dash.Upcoming) == 0 {
		return
	}
	b.WriteString(m.theme.heading.Render("Upcoming") + "\n\n")
	for _, t := range m.dash.Upcoming {
		fmt.Fprintf(b, "  %s %s  %s\n", task.CategoryIcon(t.Category), t.Text, m.theme.muted.Render(schedule(t)))
	}
	b.WriteString("\n")
}

func (m *model) writeRecent(b *strings.Builder) {
	b.WriteString(m.theme.heading.Render("Recent Activity") + "\n\n")
	if len(m.dash.Recent) == 0 {
		b.WriteString("  No recent activity.\n\n")
		return
	}
	now := m.now()
	for _, e := range m.dash.Recent {
		fmt.Fprintf(b, "  %s: %s  %s\n", e.Label(), e.TaskText, m.theme.muted.Render(activity.TimeAgo(e.Timestamp, now)))
	}
	b.WriteString("\n")
}

func (m *model) writeInsights(b *strings.Builder) {
	b.WriteString(m.theme.heading.Render("Insights") + "\n\n")
	for _, in := range m.dash.Insights {
		b.WriteString("  - " + in.Text + "\n")
	}
	writeMilestones(b, m.dash, m.theme)
	if m.dash.Tip != "" {
		b.WriteString("  Tip: " + m.theme.muted.Render(m.dash.Tip) + "\n")
	}
	b.WriteString("\n")
}

func writeMilestones(b *strings.Builder, d app.Dashboard, th theme) {
	for _, ms := range d.Milestones {
		mark := " "
		if ms.Unlocked {
			mark = "*"
		}
		fmt.Fprintf(b, "  [%s] %s %s\n", mark, ms.Title, th.muted.Render(fmt.Sprintf("%d/%d", ms.Progress, ms.Total)))
	}
}

func writeHelp(b *strings.Builder, th theme) {
	b.WriteString(th.heading.Render("Keyboard Shortcuts") + "\n\n")
	b.WriteString("  q, ctrl+c    Quit\n")
	b.WriteString("  r, F5        Refresh data\n")
	b.WriteString("  h, ?         Toggle this help screen\n")
	b.WriteString("  up/k down/j  Move selection\n")
	b.WriteString("  space, x     Toggle selected task\n")
	b.WriteString("  y            Duplicate selected task\n")
	b.WriteString("  c            Clear completed tasks\n")
	b.WriteString("  s            Cycle sort order\n")
	b.WriteString("  d            Toggle dark mode\n")
	b.WriteString("  0            Show all tasks\n")
	b.WriteString("  1            Filter by completed\n")
	b.WriteString("  2            Filter by pending\n")
	b.WriteString("  3            Filter by overdue\n")
	b.WriteString("  4            Filter by due today\n\n")
}

func (m *model) writeFooter(b *strings.Builder) {
	if m.err != nil {
		b.WriteString(m.theme.errText.Render("Error: "+m.err.Error()) + "\n")
	} else if m.status != "" {
		b.WriteString(m.status + "\n")
	}
	fmt.Fprintf(b, "Press h for help | q to quit | Refreshing every %s\n", m.app.Config.RefreshInterval())
}

func formatTask(t task.Task, th theme, overdue bool) string {
	check := "[ ]"
	if t.Completed {
		check = "[x]"
	}
	text := utils.Truncate(t.Text, maxTextWidth)
	switch {
	case t.Completed:
		text = th.done.Render(text)
	case overdue:
		text = th.overdue.Render(text)
	}

	var parts []string
	parts = append(parts, check, th.priority[t.Priority].Render(string(t.Priority)), task.CategoryIcon(t.Category), text)
	if sched := schedule(t); sched != "" {
		parts = append(parts, th.muted.Render(sched))
	}
	if n := len(t.Subtasks); n > 0 {
		parts = append(parts, th.muted.Render(fmt.Sprintf("%d/%d subtasks", t.CompletedSubtasks(), n)))
	}
	return strings.Join(parts, " ")
}

func schedule(t task.Task) string {
	if t.Date == "" {
		return ""
	}
	if t.Time == "" {
		return t.Date
	}
	return t.Date + " " + t.Time
}

func emptyMessage(f query.FilterName) string {
	switch f {
	case query.FilterCompleted:
		return "No completed tasks yet."
	case query.FilterOverdue:
		return "Nothing overdue."
	case query.FilterToday:
		return "Nothing due today."
	default:
		return "No tasks yet. Add one with `tasktrack add`."
	}
}
