package app

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/nibzard/tasktrack-go/internal/activity"
	"github.com/nibzard/tasktrack-go/internal/analytics"
	"github.com/nibzard/tasktrack-go/internal/clock"
	"github.com/nibzard/tasktrack-go/internal/storage"
	"github.com/nibzard/tasktrack-go/internal/task"
)

var start = time.Date(2024, 5, 15, 9, 0, 0, 0, time.UTC)

func newApp(t *testing.T, store storage.Store) (*App, *clock.Fixed) {
	t.Helper()
	clk := clock.NewFixed(start)
	cfg := DefaultConfig()
	cfg.ChatDelayMS = 0
	a := New(Options{Config: &cfg, Store: store, Clock: clk, IDs: &clock.Sequence{Prefix: "t"}})
	return a, clk
}

func TestEventsFeedAnalyticsActivityAndAchievements(t *testing.T) {
	a, _ := newApp(t, storage.NewMemoryStore())

	var unlocked []string
	a.OnAchievement(func(ach analytics.Achievement) { unlocked = append(unlocked, ach.ID) })

	tk, err := a.Repo.Add(task.Draft{Text: "Write tests"})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := a.Repo.Toggle(tk.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := a.Repo.Toggle(tk.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := a.Repo.Delete(tk.ID); err != nil {
		t.Fatal(err)
	}

	today := a.Tracker.Today()
	if today.TasksAdded != 1 || today.TasksCompleted != 1 || today.TasksDeleted != 1 {
		t.Errorf("analytics: %+v", today)
	}

	var actions []string
	for _, e := range a.Activity.Recent(0) {
		actions = append(actions, e.Action)
	}
	want := []string{activity.ActionDeleted, activity.ActionUncompleted, activity.ActionCompleted, activity.ActionCreated}
	if len(actions) != len(want) {
		t.Fatalf("activity: %v", actions)
	}
	for i := range want {
		if actions[i] != want[i] {
			t.Errorf("activity[%d]: got %s, want %s", i, actions[i], want[i])
		}
	}

	if len(unlocked) != 1 || unlocked[0] != analytics.AchievementFirstTask {
		t.Errorf("unlocked: %v", unlocked)
	}
}

func TestImportAndClearAllReachRepository(t *testing.T) {
	source, _ := newApp(t, storage.NewMemoryStore())
	for _, text := range []string{"one", "two"} {
		if _, err := source.Repo.Add(task.Draft{Text: text}); err != nil {
			t.Fatal(err)
		}
	}
	b, err := source.Backup.Export()
	if err != nil {
		t.Fatal(err)
	}
	data, err := b.Encode()
	if err != nil {
		t.Fatal(err)
	}

	target, _ := newApp(t, storage.NewMemoryStore())
	if _, err := target.Backup.Import(data); err != nil {
		t.Fatal(err)
	}
	if n := len(target.Repo.Tasks()); n != 2 {
		t.Fatalf("repository has %d tasks after import", n)
	}

	if err := target.Prefs.ClearAll(); err != nil {
		t.Fatal(err)
	}
	if n := len(target.Repo.Tasks()); n != 0 {
		t.Errorf("repository has %d tasks after clear-all", n)
	}
}

func TestWatchReloadsOnOtherContextWrites(t *testing.T) {
	storeA := storage.NewMemoryStore()
	a, _ := newApp(t, storeA)
	b, _ := newApp(t, storeA.Sibling())

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- a.Watch(ctx) }()

	// The watcher registers asynchronously, so keep writing until it sees one.
	tick := time.NewTicker(10 * time.Millisecond)
	defer tick.Stop()
	for len(a.Repo.Tasks()) == 0 {
		select {
		case <-ctx.Done():
			t.Fatal("context A never saw the write from context B")
		case <-tick.C:
			if _, err := b.Repo.Add(task.Draft{Text: "from B"}); err != nil {
				t.Fatal(err)
			}
		}
	}
	if got := a.Repo.Tasks()[0].Text; got != "from B" {
		t.Errorf("task text: %q", got)
	}

	cancel()
	if err := <-done; !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Watch returned %v", err)
	}
}

type plainStore struct{ storage.Store }

func TestWatchUnsupported(t *testing.T) {
	a, _ := newApp(t, plainStore{storage.NewMemoryStore()})
	if err := a.Watch(context.Background()); !errors.Is(err, ErrWatchUnsupported) {
		t.Errorf("got %v", err)
	}
}

func TestDashboard(t *testing.T) {
	a, _ := newApp(t, storage.NewMemoryStore())
	drafts := []task.Draft{
		{Text: "later", Date: "2024-05-20"},
		{Text: "soon", Date: "2024-05-16", Priority: "high"},
		{Text: "undated"},
		{Text: "done already", Date: "2024-05-15"},
	}
	var doneID string
	for _, d := range drafts {
		tk, err := a.Repo.Add(d)
		if err != nil {
			t.Fatal(err)
		}
		doneID = tk.ID
	}
	if _, err := a.Repo.Toggle(doneID); err != nil {
		t.Fatal(err)
	}

	d := a.Dashboard()
	if d.Summary.Total != 4 || d.Summary.Completed != 1 {
		t.Errorf("summary: %+v", d.Summary)
	}
	if len(d.Upcoming) != 2 || d.Upcoming[0].Text != "soon" || d.Upcoming[1].Text != "later" {
		t.Errorf("upcoming: %+v", d.Upcoming)
	}
	if len(d.Recent) != activity.DefaultShown {
		t.Errorf("recent: %d entries", len(d.Recent))
	}
	if d.Tip == "" || len(d.Trend) != 7 {
		t.Errorf("tip %q, trend %d days", d.Tip, len(d.Trend))
	}
	if d.DarkMode {
		t.Error("dark mode should default to off")
	}
}

func TestRunSessionCountsUsage(t *testing.T) {
	a, _ := newApp(t, storage.NewMemoryStore())
	a.Config.UsageIntervalSeconds = 1
	ctx, cancel := context.WithTimeout(context.Background(), 1500*time.Millisecond)
	defer cancel()

	refreshed := make(chan struct{}, 1)
	err := a.RunSession(ctx, nil, func() {
		select {
		case refreshed <- struct{}{}:
		default:
		}
	})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("RunSession: %v", err)
	}
	if a.Tracker.Today().TimeSpent != 1 {
		t.Errorf("TimeSpent: %d", a.Tracker.Today().TimeSpent)
	}
}
