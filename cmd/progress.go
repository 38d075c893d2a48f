package cmd

import (
	"context"
	"flag"
	"fmt"
	"strings"

	"github.com/nibzard/tasktrack-go/internal/activity"
	"github.com/nibzard/tasktrack-go/internal/analytics"
	"github.com/nibzard/tasktrack-go/internal/app"
	"github.com/nibzard/tasktrack-go/internal/clock"
	"github.com/nibzard/tasktrack-go/internal/query"
	"github.com/nibzard/tasktrack-go/internal/task"
)

// statsCommand prints the collection summary.
func statsCommand(_ context.Context, a *app.App, args []string) error {
	if len(args) > 0 {
		return fmt.Errorf("unexpected arguments: %v", args)
	}
	now := a.Clock.Now()
	tasks := a.Repo.Tasks()
	s := query.Summarize(tasks, now, a.Config.StreakWindowDays)

	fmt.Fprintln(stdout, "Overview")
	fmt.Fprintf(stdout, "  Total: %d  Completed: %d  Pending: %d  Overdue: %d  Due today: %d\n",
		s.Total, s.Completed, s.Pending, s.Overdue, s.Today)
	fmt.Fprintf(stdout, "  Completion rate: %d%%  Productivity score: %d  Streak: %d day(s)\n",
		s.CompletionRate, s.Score, s.Streak)
	fmt.Fprintf(stdout, "  Average completion time: %dh  Best day: %s  Peak hours: %s\n",
		query.AverageCompletionHours(tasks), query.BestWeekday(tasks, now.Location()), query.PeakHours(tasks, now.Location()))
	fmt.Fprintln(stdout)

	today := a.Tracker.Today()
	fmt.Fprintln(stdout, "Today")
	fmt.Fprintf(stdout, "  Added: %d  Completed: %d  Deleted: %d  Time spent: %dm  Active streak: %d day(s)\n",
		today.TasksAdded, today.TasksCompleted, today.TasksDeleted, today.TimeSpent, a.Tracker.UsageStreak())
	if days := a.Tracker.ActiveDays(); len(days) > 0 {
		fmt.Fprintf(stdout, "  Active days: %d since %s\n", len(days), days[0])
	}
	fmt.Fprintln(stdout)

	fmt.Fprintln(stdout, "Last 7 days")
	for _, d := range query.WeeklyTrend(tasks, now) {
		fmt.Fprintf(stdout, "  %s %s %s %d\n", d.Weekday, d.Date, strings.Repeat("#", d.Completed), d.Completed)
	}
	fmt.Fprintln(stdout)

	if cats := query.CategoryBreakdown(tasks); len(cats) > 0 {
		fmt.Fprintln(stdout, "Categories")
		for _, c := range cats {
			fmt.Fprintf(stdout, "  %s %-10s %d\n", task.CategoryIcon(c.Category), c.Category, c.Count)
		}
		top := query.TopCategory(tasks)
		fmt.Fprintf(stdout, "  Top: %s (%d)\n", top.Category, top.Count)
	}
	return nil
}

// insightsCommand prints performance insights, dashboard notes and milestones.
func insightsCommand(_ context.Context, a *app.App, args []string) error {
	if len(args) > 0 {
		return fmt.Errorf("unexpected arguments: %v", args)
	}
	now := a.Clock.Now()
	tasks := a.Repo.Tasks()

	fmt.Fprintln(stdout, "Insights")
	for _, in := range analytics.PerformanceInsights(tasks, now) {
		fmt.Fprintf(stdout, "  %s: %s\n", in.Title, in.Text)
	}
	for _, in := range analytics.DashboardInsights(tasks, now) {
		fmt.Fprintf(stdout, "  [%s] %s\n", in.Badge, in.Text)
	}
	fmt.Fprintln(stdout)

	fmt.Fprintln(stdout, "Milestones")
	for _, m := range analytics.Milestones(tasks, clock.Date(now), a.Config.StreakWindowDays) {
		mark := " "
		if m.Unlocked {
			mark = "x"
		}
		fmt.Fprintf(stdout, "  [%s] %s - %s (%d/%d)\n", mark, m.Title, m.Description, m.Progress, m.Total)
	}
	return nil
}

// achievementsCommand lists badges.
func achievementsCommand(_ context.Context, a *app.App, args []string) error {
	if len(args) > 0 {
		return fmt.Errorf("unexpected arguments: %v", args)
	}
	list := a.Achievements.List()
	unlocked := 0
	for _, ach := range list {
		mark := " "
		if ach.Unlocked {
			mark = "x"
			unlocked++
		}
		fmt.Fprintf(stdout, "  [%s] %s - %s\n", mark, ach.Name, ach.Description)
	}
	fmt.Fprintf(stdout, "%d of %d unlocked\n", unlocked, len(list))
	return nil
}

// recentCommand prints the activity feed.
func recentCommand(_ context.Context, a *app.App, args []string) error {
	fs := flag.NewFlagSet("tasktrack recent", flag.ContinueOnError)
	n := fs.Int("n", activity.DefaultShown, "Number of entries (0 for all)")
	if _, err := parseFlags(fs, args); err != nil {
		return err
	}
	entries := a.Activity.Recent(*n)
	if len(entries) == 0 {
		fmt.Fprintln(stdout, "No recent activity.")
		return nil
	}
	now := a.Clock.Now()
	for _, e := range entries {
		fmt.Fprintf(stdout, "  %-10s %s  (%s)\n", e.Label(), e.TaskText, activity.TimeAgo(e.Timestamp, now))
	}
	return nil
}

// analyticsCommand writes the analytics report.
func analyticsCommand(_ context.Context, a *app.App, args []string) error {
	fs := flag.NewFlagSet("tasktrack analytics", flag.ContinueOnError)
	formatName := fs.String("format", "json", "Report format (json|yaml)")
	out := fs.String("o", "-", "Output file ('-' for stdout, empty for the dated default name)")
	if _, err := parseFlags(fs, args); err != nil {
		return err
	}
	format, err := analytics.ParseFormat(*formatName)
	if err != nil {
		return err
	}

	now := a.Clock.Now()
	data, err := analytics.BuildReport(a.Repo.Tasks(), now).Encode(format)
	if err != nil {
		return err
	}
	path := *out
	if path == "" {
		path = analytics.ReportFileName(now, format)
	}
	return writeOutput(path, data, "Analytics exported to")
}
