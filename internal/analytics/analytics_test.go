package analytics

import (
	"encoding/json"
	"fmt"
	"strings"
	"testing"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/nibzard/tasktrack-go/internal/clock"
	"github.com/nibzard/tasktrack-go/internal/notify"
	"github.com/nibzard/tasktrack-go/internal/storage"
	"github.com/nibzard/tasktrack-go/internal/task"
)

var now = time.Date(2024, 5, 15, 14, 0, 0, 0, time.UTC)

func at(t time.Time) *time.Time { return &t }

func TestTrackerCounts(t *testing.T) {
	store := storage.NewMemoryStore()
	clk := clock.NewFixed(now)
	n := notify.New(nil)
	published := 0
	n.Subscribe(storage.KeyAnalytics, notify.ListenerFunc(func(string, json.RawMessage) { published++ }))

	tr := NewTracker(store, clk, n, nil)
	tr.Track(ActionTaskAdded)
	tr.Track(ActionTaskAdded)
	tr.Track(ActionTaskCompleted)
	tr.Track(ActionTaskDeleted)
	tr.TrackUsage()

	want := Record{TasksAdded: 2, TasksCompleted: 1, TasksDeleted: 1, TimeSpent: 1}
	if got := tr.Today(); got != want {
		t.Errorf("Today = %+v, want %+v", got, want)
	}
	if published != 5 {
		t.Errorf("publishes: got %d, want 5", published)
	}

	clk.Advance(24 * time.Hour)
	tr.TrackUsage()
	days := tr.ActiveDays()
	if len(days) != 2 || days[0] != "2024-05-15" || days[1] != "2024-05-16" {
		t.Errorf("ActiveDays = %v", days)
	}
}

func TestTrackerDegradesOnBadData(t *testing.T) {
	store := storage.NewMemoryStore()
	if err := store.Set(storage.KeyAnalytics, []byte(`[1,2,3]`)); err != nil {
		t.Fatal(err)
	}
	tr := NewTracker(store, clock.NewFixed(now), nil, nil)
	if got := tr.Load(); len(got) != 0 {
		t.Errorf("Load on bad data: got %v", got)
	}
	tr.Track(ActionTaskAdded)
	if got := tr.Today().TasksAdded; got != 1 {
		t.Errorf("TasksAdded after recovery: got %d", got)
	}

	store.SetWriteError(storage.ErrQuotaExceeded)
	tr.Track(ActionTaskAdded) // logged, not returned
	store.SetWriteError(nil)
	if got := tr.Today().TasksAdded; got != 1 {
		t.Errorf("failed write should leave the record unchanged, got %d", got)
	}
}

func TestUsageStreak(t *testing.T) {
	store := storage.NewMemoryStore()
	records := map[string]Record{
		"2024-05-15": {TimeSpent: 1},
		"2024-05-14": {TimeSpent: 3},
		"2024-05-13": {TasksAdded: 1},
		"2024-05-11": {TimeSpent: 9},
	}
	if err := storage.SetJSON(store, storage.KeyAnalytics, records); err != nil {
		t.Fatal(err)
	}
	tr := NewTracker(store, clock.NewFixed(now), nil, nil)
	if got := tr.UsageStreak(); got != 3 {
		t.Errorf("UsageStreak = %d, want 3", got)
	}
}

func TestAchievementsCheck(t *testing.T) {
	store := storage.NewMemoryStore()
	clk := clock.NewFixed(now)
	tr := NewTracker(store, clk, nil, nil)
	ach := NewAchievements(store, clk, tr, nil, nil)

	if list := ach.List(); len(list) != 5 {
		t.Fatalf("default list: got %d", len(list))
	}

	unlocked := ach.Check([]task.Task{{ID: "1", Category: "work"}})
	if len(unlocked) != 1 || unlocked[0].ID != AchievementFirstTask {
		t.Fatalf("first check: got %+v", unlocked)
	}
	if again := ach.Check([]task.Task{{ID: "1"}}); len(again) != 0 {
		t.Errorf("already unlocked badges returned again: %+v", again)
	}

	var tasks []task.Task
	categories := []string{"general", "work", "personal", "health", "learning"}
	for i := 0; i < 10; i++ {
		tasks = append(tasks, task.Task{
			ID:          fmt.Sprint(i),
			Completed:   true,
			CompletedAt: at(now.Add(-time.Duration(i) * time.Minute)),
			Category:    categories[i%len(categories)],
		})
	}
	got := map[string]bool{}
	for _, a := range ach.Check(tasks) {
		got[a.ID] = true
	}
	for _, id := range []string{AchievementTaskMaster, AchievementProductiveDay, AchievementOrganizer} {
		if !got[id] {
			t.Errorf("expected %s to unlock, got %v", id, got)
		}
	}
	if got[AchievementStreakKeeper] {
		t.Error("streak_keeper unlocked without usage history")
	}

	records := map[string]Record{}
	for i := 0; i < 7; i++ {
		records[clock.AddDays("2024-05-15", -i)] = Record{TimeSpent: 1}
	}
	if err := storage.SetJSON(store, storage.KeyAnalytics, records); err != nil {
		t.Fatal(err)
	}
	if u := ach.Check(tasks); len(u) != 1 || u[0].ID != AchievementStreakKeeper {
		t.Errorf("streak check: got %+v", u)
	}

	for _, a := range ach.List() {
		if !a.Unlocked {
			t.Errorf("%s still locked", a.ID)
		}
	}
}

func TestMilestones(t *testing.T) {
	tasks := []task.Task{
		{Completed: true, Date: "2024-05-15"},
		{Completed: true, Date: "2024-05-14"},
		{Completed: false},
	}
	ms := Milestones(tasks, "2024-05-15", 30)
	if len(ms) != 3 {
		t.Fatalf("len = %d", len(ms))
	}
	if !ms[0].Unlocked || ms[0].Progress != 1 || ms[0].Total != 1 {
		t.Errorf("first-steps: %+v", ms[0])
	}
	if ms[1].Unlocked || ms[1].Progress != 2 || ms[1].Total != 7 {
		t.Errorf("week-warrior: %+v", ms[1])
	}
	if ms[2].Unlocked || ms[2].Progress != 2 || ms[2].Total != 100 {
		t.Errorf("productivity-king: %+v", ms[2])
	}
}

func TestPerformanceInsights(t *testing.T) {
	tests := []struct {
		name      string
		tasks     []task.Task
		wantTitle []string
	}{
		{
			name:      "empty",
			tasks:     nil,
			wantTitle: []string{"Room for Improvement"},
		},
		{
			name: "excellent and work heavy",
			tasks: []task.Task{
				{Completed: true, Category: "work"},
				{Completed: true, Category: "work"},
				{Completed: true, Category: "work"},
				{Completed: true, Category: "work"},
				{Completed: false, Category: "home"},
			},
			wantTitle: []string{"Excellent Performance!", "Work-Life Balance"},
		},
		{
			name: "good progress",
			tasks: []task.Task{
				{Completed: true}, {Completed: true}, {Completed: true}, {},
				{}, {Completed: true}, {Completed: true}, {Completed: true}, {},
				{Completed: true},
			},
			wantTitle: []string{"Good Progress"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := PerformanceInsights(tt.tasks, now)
			var titles []string
			for _, in := range got {
				titles = append(titles, in.Title)
			}
			if strings.Join(titles, "|") != strings.Join(tt.wantTitle, "|") {
				t.Errorf("titles = %v, want %v", titles, tt.wantTitle)
			}
		})
	}
}

func TestPerformanceInsightsHighActivity(t *testing.T) {
	var tasks []task.Task
	for i := 0; i < 6; i++ {
		tasks = append(tasks, task.Task{CreatedAt: now.Add(-time.Duration(i) * time.Hour)})
	}
	tasks = append(tasks, task.Task{CreatedAt: now.AddDate(0, 0, -5)})
	got := PerformanceInsights(tasks, now)
	last := got[len(got)-1]
	if last.Title != "High Activity" || !strings.Contains(last.Text, "6 tasks") {
		t.Errorf("last insight: %+v", last)
	}
}

func TestDashboardInsights(t *testing.T) {
	var tasks []task.Task
	for i := 0; i < 10; i++ {
		tasks = append(tasks, task.Task{Completed: true, Date: "2024-05-01"})
	}
	tasks = append(tasks, task.Task{Completed: true, Date: "2024-05-15"})
	tasks = append(tasks, task.Task{Date: "2024-05-10"})

	got := DashboardInsights(tasks, now)
	if len(got) != MaxDashboardInsights {
		t.Fatalf("len = %d, want cap of %d", len(got), MaxDashboardInsights)
	}
	if got[0].Badge != "Achievement" || got[1].Badge != "Daily Win" || got[2].Badge != "Action Needed" {
		t.Errorf("badges: %+v", got)
	}
	if !strings.Contains(got[1].Text, "1 task today") {
		t.Errorf("singular wording: %q", got[1].Text)
	}

	onlyTip := DashboardInsights(nil, now)
	if len(onlyTip) != 1 || onlyTip[0].Kind != KindTip {
		t.Fatalf("empty collection: %+v", onlyTip)
	}
	if again := DashboardInsights(nil, now.Add(time.Hour)); again[0].Text != onlyTip[0].Text {
		t.Error("tip should be stable within a day")
	}
}

func TestReport(t *testing.T) {
	tasks := []task.Task{
		{Completed: true, Category: "work"},
		{Category: "work"},
		{Category: "health"},
	}
	r := BuildReport(tasks, now)
	if r.Summary != (ReportSummary{TotalTasks: 3, CompletedTasks: 1, PendingTasks: 2, CompletionRate: 33}) {
		t.Errorf("summary: %+v", r.Summary)
	}
	if r.Categories["work"] != 2 || r.Categories["health"] != 1 {
		t.Errorf("categories: %v", r.Categories)
	}

	data, err := r.Encode(FormatJSON)
	if err != nil {
		t.Fatal(err)
	}
	var doc map[string]any
	if err := json.Unmarshal(data, &doc); err != nil {
		t.Fatalf("json output: %v", err)
	}
	for _, key := range []string{"summary", "categories", "insights", "exportDate"} {
		if _, ok := doc[key]; !ok {
			t.Errorf("json missing %s", key)
		}
	}
	if !strings.HasSuffix(string(data), "}\n") {
		t.Error("json should end with a newline")
	}

	data, err = r.Encode(FormatYAML)
	if err != nil {
		t.Fatal(err)
	}
	var ydoc map[string]any
	if err := yaml.Unmarshal(data, &ydoc); err != nil {
		t.Fatalf("yaml output: %v", err)
	}
	summary, ok := ydoc["summary"].(map[string]any)
	if !ok || summary["completionRate"] != 33 {
		t.Errorf("yaml summary: %v", ydoc["summary"])
	}

	if _, err := r.Encode("xml"); err == nil {
		t.Error("expected error for unknown format")
	}
}

func TestReportFileNameAndFormat(t *testing.T) {
	if got := ReportFileName(now, FormatJSON); got != "todo-analytics-2024-05-15.json" {
		t.Errorf("json name: %s", got)
	}
	if got := ReportFileName(now, FormatYAML); got != "todo-analytics-2024-05-15.yaml" {
		t.Errorf("yaml name: %s", got)
	}
	if f, err := ParseFormat("YML"); err != nil || f != FormatYAML {
		t.Errorf("ParseFormat(YML) = %s, %v", f, err)
	}
	if _, err := ParseFormat("csv"); err == nil {
		t.Error("ParseFormat accepted csv")
	}
}
