package task

import (
	"fmt"
	"strings"
	"time"

	"github.com/nibzard/tasktrack-go/internal/clock"
)

// Draft holds user input for a new task.
type Draft struct {
	Text     string
	Date     string
	Time     string
	Priority Priority
	Category string
	Subtasks []string
}

// New builds a task from d. Blank text is rejected with ErrEmptyText.
func New(d Draft, now time.Time, ids clock.IDGenerator) (Task, error) {
	text := strings.TrimSpace(d.Text)
	if text == "" {
		return Task{}, &ValidationError{Path: "text", Err: ErrEmptyText}
	}
	if err := validateSchedule(d.Date, d.Time); err != nil {
		return Task{}, err
	}

	priority := d.Priority
	if priority == "" {
		priority = PriorityMedium
	}
	if !priority.Valid() {
		return Task{}, &ValidationError{Path: "priority", Err: ErrInvalidPriority}
	}

	category := normalizeCategory(d.Category)

	t := Task{
		ID:            ids.NewID(),
		Text:          text,
		Date:          d.Date,
		Time:          d.Time,
		Priority:      priority,
		Category:      category,
		Subtasks:      []Subtask{},
		Tags:          ExtractTags(text),
		CreatedAt:     now,
		EstimatedTime: EstimateMinutes(text),
	}
	for i, s := range d.Subtasks {
		sub, err := NewSubtask(s, ids)
		if err != nil {
			if ve, ok := err.(*ValidationError); ok {
				ve.Path = fmt.Sprintf("subtasks[%d].%s", i, ve.Path)
			}
			return Task{}, err
		}
		t.Subtasks = append(t.Subtasks, sub)
	}
	return t, nil
}

// NewSubtask builds a pending subtask. Blank text is rejected with ErrEmptySubtask.
func NewSubtask(text string, ids clock.IDGenerator) (Subtask, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return Subtask{}, &ValidationError{Path: "text", Err: ErrEmptySubtask}
	}
	return Subtask{ID: ids.NewID(), Text: text}, nil
}

// Patch is a partial edit. Nil fields are left unchanged.
type Patch struct {
	Text     *string
	Date     *string
	Time     *string
	Priority *Priority
	Category *string
}

// IsEmpty reports whether p changes nothing.
func (p Patch) IsEmpty() bool {
	return p.Text == nil && p.Date == nil && p.Time == nil && p.Priority == nil && p.Category == nil
}

// Apply validates p and applies it to t, stamping UpdatedAt.
// On error t is left unchanged.
func (t *Task) Apply(p Patch, now time.Time) error {
	next := t.Clone()

	if p.Text != nil {
		text := strings.TrimSpace(*p.Text)
		if text == "" {
			return &ValidationError{Path: "text", Err: ErrEmptyText}
		}
		next.Text = text
		next.Tags = ExtractTags(text)
		next.EstimatedTime = EstimateMinutes(text)
	}
	if p.Date != nil {
		next.Date = strings.TrimSpace(*p.Date)
	}
	if p.Time != nil {
		next.Time = strings.TrimSpace(*p.Time)
	}
	if err := validateSchedule(next.Date, next.Time); err != nil {
		return err
	}
	if p.Priority != nil {
		if !p.Priority.Valid() {
			return &ValidationError{Path: "priority", Err: ErrInvalidPriority}
		}
		next.Priority = *p.Priority
	}
	if p.Category != nil {
		next.Category = normalizeCategory(*p.Category)
	}

	at := now
	next.UpdatedAt = &at
	*t = next
	return nil
}

func normalizeCategory(c string) string {
	c = strings.ToLower(strings.TrimSpace(c))
	if c == "" {
		return DefaultCategory
	}
	return c
}

func validateSchedule(date, hm string) error {
	if date != "" {
		if _, err := time.Parse(clock.DateLayout, date); err != nil {
			return &ValidationError{Path: "date", Err: ErrInvalidDate}
		}
	}
	if hm != "" {
		if _, err := time.Parse(clock.TimeLayout, hm); err != nil {
			return &ValidationError{Path: "time", Err: ErrInvalidTime}
		}
	}
	return nil
}
