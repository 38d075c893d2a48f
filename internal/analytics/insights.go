package analytics

import (
	"fmt"
	"math"
	"time"

	"github.com/nibzard/tasktrack-go/internal/clock"
	"github.com/nibzard/tasktrack-go/internal/task"
	"github.com/nibzard/tasktrack-go/internal/utils"
)

// Insight kinds.
const (
	KindAchievement = "achievement"
	KindReminder    = "reminder"
	KindTip         = "tip"
	KindPerformance = "performance"
	KindBalance     = "balance"
	KindActivity    = "activity"
)

// Insight is a short observation about the collection.
type Insight struct {
	Kind  string `json:"type" yaml:"type"`
	Title string `json:"title,omitempty" yaml:"title,omitempty"`
	Text  string `json:"description" yaml:"description"`
	Badge string `json:"badge,omitempty" yaml:"badge,omitempty"`
}

// MaxDashboardInsights caps DashboardInsights.
const MaxDashboardInsights = 3

// Tips rotate through the dashboard.
var Tips = []string{
	"Try breaking large tasks into smaller, manageable chunks.",
	"Set specific time blocks for focused work sessions.",
	"Review and prioritize your tasks each morning.",
	"Celebrate small wins to maintain motivation.",
}

// PerformanceInsights describes completion rate, work balance and recent
// activity as of now.
func PerformanceInsights(tasks []task.Task, now time.Time) []Insight {
	total := len(tasks)
	completed, work, recent := 0, 0, 0
	threeDaysAgo := now.AddDate(0, 0, -3)
	for _, t := range tasks {
		if t.Completed {
			completed++
		}
		if t.Category == "work" {
			work++
		}
		if t.CreatedAt.After(threeDaysAgo) {
			recent++
		}
	}

	rate := 0.0
	workShare := 0.0
	if total > 0 {
		rate = 100 * float64(completed) / float64(total)
		workShare = 100 * float64(work) / float64(total)
	}
	rounded := int(math.Round(rate))

	var out []Insight
	switch {
	case rate >= 80:
		out = append(out, Insight{
			Kind:  KindPerformance,
			Title: "Excellent Performance!",
			Text:  fmt.Sprintf("You're completing %d%% of your tasks. Keep up the great work!", rounded),
		})
	case rate >= 60:
		out = append(out, Insight{
			Kind:  KindPerformance,
			Title: "Good Progress",
			Text:  fmt.Sprintf("You're completing %d%% of tasks. Consider breaking larger tasks into smaller ones.", rounded),
		})
	default:
		out = append(out, Insight{
			Kind:  KindPerformance,
			Title: "Room for Improvement",
			Text:  fmt.Sprintf("Your completion rate is %d%%. Try prioritizing fewer, more important tasks.", rounded),
		})
	}

	if workShare > 70 {
		out = append(out, Insight{
			Kind:  KindBalance,
			Title: "Work-Life Balance",
			Text:  "Your tasks are heavily work-focused. Consider adding personal activities for better balance.",
		})
	}

	if recent > 5 {
		out = append(out, Insight{
			Kind:  KindActivity,
			Title: "High Activity",
			Text:  fmt.Sprintf("You've been very active with %d tasks created in the last 3 days!", recent),
		})
	}
	return out
}

// DashboardInsights returns at most MaxDashboardInsights short notes for the
// dashboard. The tip changes once per day.
func DashboardInsights(tasks []task.Task, now time.Time) []Insight {
	today := clock.Date(now)
	completed, completedToday, overdue := 0, 0, 0
	for _, t := range tasks {
		if t.Completed {
			completed++
			if t.Date == today {
				completedToday++
			}
			continue
		}
		if t.Date != "" && t.Date < today {
			overdue++
		}
	}

	var out []Insight
	if completed >= 10 {
		out = append(out, Insight{
			Kind:  KindAchievement,
			Text:  fmt.Sprintf("Congratulations! You've completed %d tasks total.", completed),
			Badge: "Achievement",
		})
	}
	if completedToday > 0 {
		out = append(out, Insight{
			Kind:  KindAchievement,
			Text:  fmt.Sprintf("You've completed %d %s today. Keep it up!", completedToday, utils.Plural(completedToday, "task")),
			Badge: "Daily Win",
		})
	}
	if overdue > 0 {
		out = append(out, Insight{
			Kind:  KindReminder,
			Text:  fmt.Sprintf("You have %d overdue %s. Consider updating or completing them.", overdue, utils.Plural(overdue, "task")),
			Badge: "Action Needed",
		})
	}
	out = append(out, Insight{
		Kind:  KindTip,
		Text:  Tips[now.YearDay()%len(Tips)],
		Badge: "Pro Tip",
	})

	if len(out) > MaxDashboardInsights {
		out = out[:MaxDashboardInsights]
	}
	return out
}
