package app

import (
	"github.com/nibzard/tasktrack-go/internal/activity"
	"github.com/nibzard/tasktrack-go/internal/analytics"
	"github.com/nibzard/tasktrack-go/internal/clock"
	"github.com/nibzard/tasktrack-go/internal/query"
	"github.com/nibzard/tasktrack-go/internal/task"
)

// Dashboard is everything the overview screen shows.
type Dashboard struct {
	Summary    query.Summary
	Upcoming   []task.Task
	Recent     []activity.Entry
	Insights   []analytics.Insight
	Milestones []analytics.Milestone
	Categories []query.CategoryCount
	Trend      []query.DayCount
	Tip        string
	DarkMode   bool
}

// maxUpcoming bounds the upcoming-deadline list.
const maxUpcoming = 5

// Dashboard computes the overview from the current collection.
func (a *App) Dashboard() Dashboard {
	now := a.Clock.Now()
	tasks := a.Repo.Tasks()
	window := a.Config.StreakWindowDays

	pending := query.Filter(tasks, query.FilterPending, now)
	var dated []task.Task
	for _, t := range pending {
		if t.HasDeadline() {
			dated = append(dated, t)
		}
	}
	upcoming := query.Sort(dated, query.SortDeadline, now.Location())
	if len(upcoming) > maxUpcoming {
		upcoming = upcoming[:maxUpcoming]
	}

	return Dashboard{
		Summary:    query.Summarize(tasks, now, window),
		Upcoming:   upcoming,
		Recent:     a.Activity.Recent(activity.DefaultShown),
		Insights:   analytics.DashboardInsights(tasks, now),
		Milestones: analytics.Milestones(tasks, clock.Date(now), window),
		Categories: query.CategoryBreakdown(tasks),
		Trend:      query.WeeklyTrend(tasks, now),
		Tip:        analytics.Tips[now.YearDay()%len(analytics.Tips)],
		DarkMode:   a.Prefs.DarkMode(),
	}
}
