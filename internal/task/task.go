package task

import (
	"regexp"
	"strings"
	"time"

	"github.com/nibzard/tasktrack-go/internal/clock"
)

// Priority is the urgency of a task.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

// Priorities lists every priority from most to least urgent.
var Priorities = []Priority{PriorityUrgent, PriorityHigh, PriorityMedium, PriorityLow}

// Rank orders priorities: urgent=4, high=3, medium=2, low=1. Unknown values rank 0.
func (p Priority) Rank() int {
	switch p {
	case PriorityUrgent:
		return 4
	case PriorityHigh:
		return 3
	case PriorityMedium:
		return 2
	case PriorityLow:
		return 1
	default:
		return 0
	}
}

// Valid reports whether p is a known priority.
func (p Priority) Valid() bool {
	return p.Rank() > 0
}

// ParsePriority parses s case-insensitively. Empty input yields PriorityMedium.
func ParsePriority(s string) (Priority, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return PriorityMedium, true
	}
	p := Priority(s)
	return p, p.Valid()
}

// DefaultCategory is used when a task is created without a category.
const DefaultCategory = "general"

// Categories is the default category set offered to users.
var Categories = []string{"general", "work", "personal", "health", "learning", "shopping", "finance"}

var categoryIcons = map[string]string{
	"general":  "📋",
	"work":     "💼",
	"personal": "👤",
	"health":   "💪",
	"learning": "📚",
	"shopping": "🛒",
	"finance":  "💰",
}

// CategoryIcon returns the icon for category, falling back to the general icon.
func CategoryIcon(category string) string {
	if icon, ok := categoryIcons[category]; ok {
		return icon
	}
	return categoryIcons[DefaultCategory]
}

// Subtask is a checklist item nested in a task.
type Subtask struct {
	ID        string `json:"id"`
	Text      string `json:"text"`
	Completed bool   `json:"completed"`
}

// Task is a single tracked item.
type Task struct {
	ID            string     `json:"id"`
	Text          string     `json:"text"`
	Completed     bool       `json:"completed"`
	Date          string     `json:"date,omitempty"`
	Time          string     `json:"time,omitempty"`
	Priority      Priority   `json:"priority"`
	Category      string     `json:"category"`
	Subtasks      []Subtask  `json:"subtasks"`
	Tags          []string   `json:"tags"`
	CreatedAt     time.Time  `json:"createdAt"`
	CompletedAt   *time.Time `json:"completedAt"`
	UpdatedAt     *time.Time `json:"updatedAt,omitempty"`
	EstimatedTime int        `json:"estimatedTime,omitempty"`
}

// HasDeadline reports whether the task carries a date.
func (t *Task) HasDeadline() bool {
	return t.Date != ""
}

// Deadline returns the task's date and time in loc. A missing time defaults to 23:59.
func (t *Task) Deadline(loc *time.Location) (time.Time, bool) {
	if t.Date == "" {
		return time.Time{}, false
	}
	hm := t.Time
	if hm == "" {
		hm = "23:59"
	}
	d, err := time.ParseInLocation(clock.DateLayout+" "+clock.TimeLayout, t.Date+" "+hm, loc)
	if err != nil {
		return time.Time{}, false
	}
	return d, true
}

// SetCompleted marks the task completed or pending and keeps CompletedAt in step.
func (t *Task) SetCompleted(done bool, now time.Time) {
	t.Completed = done
	if done {
		at := now
		t.CompletedAt = &at
		return
	}
	t.CompletedAt = nil
}

// SubtaskIndex returns the index of the subtask with id, or -1.
func (t *Task) SubtaskIndex(id string) int {
	for i := range t.Subtasks {
		if t.Subtasks[i].ID == id {
			return i
		}
	}
	return -1
}

// CompletedSubtasks counts finished subtasks.
func (t *Task) CompletedSubtasks() int {
	n := 0
	for _, s := range t.Subtasks {
		if s.Completed {
			n++
		}
	}
	return n
}

// Clone returns a deep copy of t.
func (t Task) Clone() Task {
	c := t
	if t.Subtasks != nil {
		c.Subtasks = make([]Subtask, len(t.Subtasks))
		copy(c.Subtasks, t.Subtasks)
	}
	if t.Tags != nil {
		c.Tags = make([]string, len(t.Tags))
		copy(c.Tags, t.Tags)
	}
	if t.CompletedAt != nil {
		at := *t.CompletedAt
		c.CompletedAt = &at
	}
	if t.UpdatedAt != nil {
		at := *t.UpdatedAt
		c.UpdatedAt = &at
	}
	return c
}

// Duplicate returns a pending copy of t with a new id, a fresh CreatedAt and
// " (Copy)" appended to the text. Subtasks keep their ids and state.
func (t Task) Duplicate(id string, now time.Time) Task {
	c := t.Clone()
	c.ID = id
	c.Text = t.Text + " (Copy)"
	c.Completed = false
	c.CompletedAt = nil
	c.UpdatedAt = nil
	c.CreatedAt = now
	return c
}

var tagPattern = regexp.MustCompile(`#(\w+)`)

// ExtractTags returns the words following '#' in text, in order of appearance.
func ExtractTags(text string) []string {
	matches := tagPattern.FindAllStringSubmatch(text, -1)
	tags := make([]string, 0, len(matches))
	for _, m := range matches {
		tags = append(tags, m[1])
	}
	return tags
}

// EstimateMinutes guesses a duration from the number of words in text.
func EstimateMinutes(text string) int {
	words := len(strings.Fields(text))
	switch {
	case words <= 3:
		return 15
	case words <= 6:
		return 30
	case words <= 10:
		return 60
	default:
		return 120
	}
}
