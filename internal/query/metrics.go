package query

import (
	"math"
	"time"

	"github.com/nibzard/tasktrack-go/internal/clock"
	"github.com/nibzard/tasktrack-go/internal/task"
)

// DefaultStreakWindow bounds how many days ProductivityStreak looks back.
const DefaultStreakWindow = 30

// CompletionPercentage is the rounded share of finished subtasks, or 0 when
// the task has none.
func CompletionPercentage(t task.Task) int {
	if len(t.Subtasks) == 0 {
		return 0
	}
	return percent(t.CompletedSubtasks(), len(t.Subtasks))
}

// ProductivityScore rewards completed tasks and penalizes overdue ones:
// max(0, round(100*completed/total - 20*overdue/total)). Empty input scores 0.
func ProductivityScore(tasks []task.Task, now time.Time) int {
	if len(tasks) == 0 {
		return 0
	}
	var completed, overdue int
	for _, t := range tasks {
		if t.Completed {
			completed++
		} else if IsOverdue(t, now) {
			overdue++
		}
	}
	total := float64(len(tasks))
	score := math.Round(100*float64(completed)/total - 20*float64(overdue)/total)
	if score < 0 {
		return 0
	}
	return int(score)
}

// ProductivityStreak counts consecutive days, walking back from today, that
// have at least one completed task dated that day. Today without completions
// does not break the streak; the first earlier empty day does. At most
// window days are examined; window <= 0 uses DefaultStreakWindow.
func ProductivityStreak(tasks []task.Task, today string, window int) int {
	if window <= 0 {
		window = DefaultStreakWindow
	}
	done := make(map[string]bool, len(tasks))
	for _, t := range tasks {
		if t.Completed && t.Date != "" {
			done[t.Date] = true
		}
	}

	streak := 0
	for i := 0; i < window; i++ {
		if done[clock.AddDays(today, -i)] {
			streak++
		} else if i > 0 {
			break
		}
	}
	return streak
}

// CompletionRate is the rounded percentage of completed tasks.
func CompletionRate(tasks []task.Task) int {
	completed := 0
	for _, t := range tasks {
		if t.Completed {
			completed++
		}
	}
	return percent(completed, len(tasks))
}

// AverageCompletionHours is the mean time from creation to completion in
// whole hours, over completed tasks that carry a completion time.
func AverageCompletionHours(tasks []task.Task) int {
	var total time.Duration
	n := 0
	for _, t := range tasks {
		if !t.Completed || t.CompletedAt == nil {
			continue
		}
		total += t.CompletedAt.Sub(t.CreatedAt)
		n++
	}
	if n == 0 {
		return 0
	}
	return int(math.Round((total / time.Duration(n)).Hours()))
}

// CategoryCount pairs a category with its number of tasks.
type CategoryCount struct {
	Category string `json:"category" yaml:"category"`
	Count    int    `json:"count" yaml:"count"`
}

// CategoryBreakdown counts tasks per category in order of first appearance.
func CategoryBreakdown(tasks []task.Task) []CategoryCount {
	index := make(map[string]int)
	var out []CategoryCount
	for _, t := range tasks {
		cat := t.Category
		if cat == "" {
			cat = task.DefaultCategory
		}
		i, ok := index[cat]
		if !ok {
			i = len(out)
			index[cat] = i
			out = append(out, CategoryCount{Category: cat})
		}
		out[i].Count++
	}
	return out
}

// TopCategory returns the category with the most tasks. Ties go to the
// category seen first; an empty collection yields the default category.
func TopCategory(tasks []task.Task) CategoryCount {
	top := CategoryCount{Category: task.DefaultCategory}
	for _, c := range CategoryBreakdown(tasks) {
		if c.Count > top.Count {
			top = c
		}
	}
	return top
}

// DayCount pairs a calendar date with a number of completions.
type DayCount struct {
	Date      string `json:"date" yaml:"date"`
	Weekday   string `json:"weekday" yaml:"weekday"`
	Completed int    `json:"completed" yaml:"completed"`
}

// WeeklyTrend counts completions per day for the seven days ending on now's
// date, oldest first, using each task's completion time.
func WeeklyTrend(tasks []task.Task, now time.Time) []DayCount {
	loc := now.Location()
	today := clock.Date(now)
	days := make([]DayCount, 7)
	index := make(map[string]int, 7)
	for i := 0; i < 7; i++ {
		date := clock.AddDays(today, i-6)
		wd := ""
		if d, err := clock.ParseDate(date, loc); err == nil {
			wd = d.Weekday().String()[:3]
		}
		days[i] = DayCount{Date: date, Weekday: wd}
		index[date] = i
	}
	for _, t := range tasks {
		if t.CompletedAt == nil {
			continue
		}
		if i, ok := index[clock.Date(t.CompletedAt.In(loc))]; ok {
			days[i].Completed++
		}
	}
	return days
}

var weekOrder = []time.Weekday{
	time.Monday, time.Tuesday, time.Wednesday, time.Thursday,
	time.Friday, time.Saturday, time.Sunday,
}

// BestWeekday returns the weekday with the most completions in loc.
// Ties and an empty history resolve to the earliest day from Monday.
func BestWeekday(tasks []task.Task, loc *time.Location) time.Weekday {
	if loc == nil {
		loc = time.Local
	}
	var counts [7]int
	for _, t := range tasks {
		if t.Completed && t.CompletedAt != nil {
			counts[t.CompletedAt.In(loc).Weekday()]++
		}
	}
	best := time.Monday
	for _, d := range weekOrder {
		if counts[d] > counts[best] {
			best = d
		}
	}
	return best
}

var peakWindows = []struct {
	start int
	label string
}{
	{9, "9:00 AM - 11:00 AM"},
	{10, "10:00 AM - 12:00 PM"},
	{14, "2:00 PM - 4:00 PM"},
	{15, "3:00 PM - 5:00 PM"},
}

// PeakHours names the two-hour window with the most completions in loc.
// Without completions it reports the first window.
func PeakHours(tasks []task.Task, loc *time.Location) string {
	if loc == nil {
		loc = time.Local
	}
	var hours [24]int
	for _, t := range tasks {
		if t.Completed && t.CompletedAt != nil {
			hours[t.CompletedAt.In(loc).Hour()]++
		}
	}
	best, bestCount := 0, 0
	for i, w := range peakWindows {
		if n := hours[w.start] + hours[w.start+1]; n > bestCount {
			best, bestCount = i, n
		}
	}
	return peakWindows[best].label
}

// Summary is a snapshot of collection-wide counters.
type Summary struct {
	Total          int `json:"totalTasks" yaml:"totalTasks"`
	Completed      int `json:"completedTasks" yaml:"completedTasks"`
	Pending        int `json:"pendingTasks" yaml:"pendingTasks"`
	Overdue        int `json:"overdueTasks" yaml:"overdueTasks"`
	Today          int `json:"todayTasks" yaml:"todayTasks"`
	CompletionRate int `json:"completionRate" yaml:"completionRate"`
	Score          int `json:"productivityScore" yaml:"productivityScore"`
	Streak         int `json:"streak" yaml:"streak"`
}

// Summarize computes a Summary as of now. window bounds the streak scan.
func Summarize(tasks []task.Task, now time.Time, window int) Summary {
	s := Summary{Total: len(tasks)}
	today := clock.Date(now)
	for _, t := range tasks {
		if t.Completed {
			s.Completed++
		} else if IsOverdue(t, now) {
			s.Overdue++
		}
		if t.Date == today {
			s.Today++
		}
	}
	s.Pending = s.Total - s.Completed
	s.CompletionRate = percent(s.Completed, s.Total)
	s.Score = ProductivityScore(tasks, now)
	s.Streak = ProductivityStreak(tasks, today, window)
	return s
}

func percent(part, total int) int {
	if total == 0 {
		return 0
	}
	return int(math.Round(100 * float64(part) / float64(total)))
}
