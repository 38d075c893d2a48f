// Package query filters, searches, sorts and summarizes task collections.
// Every function is pure: inputs are never modified and time is passed in.
package query

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/nibzard/tasktrack-go/internal/clock"
	"github.com/nibzard/tasktrack-go/internal/task"
)

// FilterName selects a subset of tasks.
type FilterName string

const (
	FilterAll       FilterName = "all"
	FilterCompleted FilterName = "completed"
	FilterPending   FilterName = "pending"
	FilterOverdue   FilterName = "overdue"
	FilterToday     FilterName = "today"
)

// Filters lists the supported filters in display order.
var Filters = []FilterName{FilterAll, FilterCompleted, FilterPending, FilterOverdue, FilterToday}

// ParseFilter parses a filter name. Empty input yields FilterAll.
func ParseFilter(s string) (FilterName, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return FilterAll, nil
	}
	for _, f := range Filters {
		if string(f) == s {
			return f, nil
		}
	}
	return "", fmt.Errorf("unknown filter %q (want all, completed, pending, overdue or today)", s)
}

// SortKey orders tasks.
type SortKey string

const (
	SortNewest       SortKey = "newest"
	SortOldest       SortKey = "oldest"
	SortPriority     SortKey = "priority"
	SortDeadline     SortKey = "deadline"
	SortAlphabetical SortKey = "alphabetical"
)

// SortKeys lists the supported sort keys in display order.
var SortKeys = []SortKey{SortNewest, SortOldest, SortPriority, SortDeadline, SortAlphabetical}

// ParseSortKey parses a sort key. Empty input yields SortNewest.
func ParseSortKey(s string) (SortKey, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return SortNewest, nil
	}
	for _, k := range SortKeys {
		if string(k) == s {
			return k, nil
		}
	}
	return "", fmt.Errorf("unknown sort key %q (want newest, oldest, priority, deadline or alphabetical)", s)
}

// Filter returns the tasks matching name. Today is the calendar date of now
// in now's location.
func Filter(tasks []task.Task, name FilterName, now time.Time) []task.Task {
	today := clock.Date(now)
	out := make([]task.Task, 0, len(tasks))
	for _, t := range tasks {
		var keep bool
		switch name {
		case FilterCompleted:
			keep = t.Completed
		case FilterPending:
			keep = !t.Completed
		case FilterOverdue:
			keep = !t.Completed && IsOverdue(t, now)
		case FilterToday:
			keep = t.Date == today
		default:
			keep = true
		}
		if keep {
			out = append(out, t)
		}
	}
	return out
}

// IsOverdue reports whether t's deadline has passed. Completed tasks and
// tasks without a date are never overdue. A missing time counts as 23:59 and
// an unparseable date counts as no date.
func IsOverdue(t task.Task, now time.Time) bool {
	if t.Completed {
		return false
	}
	deadline, ok := t.Deadline(now.Location())
	if !ok {
		return false
	}
	return deadline.Before(now)
}

// Search returns tasks whose text, category or any tag contains q,
// ignoring case. A blank query matches everything.
func Search(tasks []task.Task, q string) []task.Task {
	q = strings.ToLower(strings.TrimSpace(q))
	if q == "" {
		return append([]task.Task(nil), tasks...)
	}
	out := make([]task.Task, 0, len(tasks))
	for _, t := range tasks {
		if matches(t, q) {
			out = append(out, t)
		}
	}
	return out
}

func matches(t task.Task, q string) bool {
	if strings.Contains(strings.ToLower(t.Text), q) || strings.Contains(strings.ToLower(t.Category), q) {
		return true
	}
	for _, tag := range t.Tags {
		if strings.Contains(strings.ToLower(tag), q) {
			return true
		}
	}
	return false
}

// Sort returns a sorted copy of tasks. Equal elements keep their original
// order. Deadlines are compared in loc; tasks without a usable date go last.
func Sort(tasks []task.Task, key SortKey, loc *time.Location) []task.Task {
	out := append([]task.Task(nil), tasks...)
	if loc == nil {
		loc = time.Local
	}

	var less func(a, b *task.Task) bool
	switch key {
	case SortOldest:
		less = func(a, b *task.Task) bool { return a.CreatedAt.Before(b.CreatedAt) }
	case SortPriority:
		less = func(a, b *task.Task) bool { return a.Priority.Rank() > b.Priority.Rank() }
	case SortDeadline:
		less = func(a, b *task.Task) bool {
			da, okA := a.Deadline(loc)
			db, okB := b.Deadline(loc)
			switch {
			case !okA:
				return false
			case !okB:
				return true
			default:
				return da.Before(db)
			}
		}
	case SortAlphabetical:
		c := collate.New(language.English)
		less = func(a, b *task.Task) bool { return c.CompareString(a.Text, b.Text) < 0 }
	default:
		less = func(a, b *task.Task) bool { return a.CreatedAt.After(b.CreatedAt) }
	}

	sort.SliceStable(out, func(i, j int) bool { return less(&out[i], &out[j]) })
	return out
}
