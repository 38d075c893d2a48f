package analytics

import (
	"errors"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/nibzard/tasktrack-go/internal/clock"
	"github.com/nibzard/tasktrack-go/internal/logging"
	"github.com/nibzard/tasktrack-go/internal/notify"
	"github.com/nibzard/tasktrack-go/internal/query"
	"github.com/nibzard/tasktrack-go/internal/storage"
	"github.com/nibzard/tasktrack-go/internal/task"
)

// Achievement ids.
const (
	AchievementFirstTask     = "first_task"
	AchievementTaskMaster    = "task_master"
	AchievementProductiveDay = "productive_day"
	AchievementStreakKeeper  = "streak_keeper"
	AchievementOrganizer     = "organizer"
)

// Achievement is a persisted badge.
type Achievement struct {
	ID          string `json:"id" yaml:"id"`
	Name        string `json:"name" yaml:"name"`
	Description string `json:"description" yaml:"description"`
	Unlocked    bool   `json:"unlocked" yaml:"unlocked"`
}

// DefaultAchievements returns the full badge set, all locked.
func DefaultAchievements() []Achievement {
	return []Achievement{
		{ID: AchievementFirstTask, Name: "Getting Started", Description: "Add your first task"},
		{ID: AchievementTaskMaster, Name: "Task Master", Description: "Complete 10 tasks"},
		{ID: AchievementProductiveDay, Name: "Productive Day", Description: "Complete 5 tasks in one day"},
		{ID: AchievementStreakKeeper, Name: "Streak Keeper", Description: "Use the app for 7 consecutive days"},
		{ID: AchievementOrganizer, Name: "Super Organizer", Description: "Use 5 different categories"},
	}
}

// Achievements unlocks badges from the task collection and usage history.
type Achievements struct {
	store    storage.Store
	clock    clock.Clock
	tracker  *Tracker
	notifier *notify.Notifier
	logger   *log.Logger

	mu sync.Mutex
}

// NewAchievements creates an Achievements checker. tracker supplies usage
// history for the streak badge.
func NewAchievements(store storage.Store, clk clock.Clock, tracker *Tracker, notifier *notify.Notifier, logger *log.Logger) *Achievements {
	if clk == nil {
		clk = clock.System{}
	}
	return &Achievements{
		store:    store,
		clock:    clk,
		tracker:  tracker,
		notifier: notifier,
		logger:   logging.OrDiscard(logger),
	}
}

// List returns every badge with its persisted state. Badges missing from
// storage are added locked; unknown stored badges are kept.
func (a *Achievements) List() []Achievement {
	var stored []Achievement
	err := storage.GetJSON(a.store, storage.KeyAchievements, &stored)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		a.logger.Warn("achievements unreadable, resetting", "err", err)
		stored = nil
	}

	byID := make(map[string]bool, len(stored))
	for _, s := range stored {
		byID[s.ID] = true
	}
	list := stored
	for _, d := range DefaultAchievements() {
		if !byID[d.ID] {
			list = append(list, d)
		}
	}
	return list
}

// Check unlocks every badge whose condition now holds, persists the result
// and returns the badges unlocked by this call.
func (a *Achievements) Check(tasks []task.Task) []Achievement {
	a.mu.Lock()
	defer a.mu.Unlock()

	list := a.List()
	met := a.conditions(tasks)

	var unlocked []Achievement
	for i := range list {
		if !list[i].Unlocked && met[list[i].ID] {
			list[i].Unlocked = true
			unlocked = append(unlocked, list[i])
			a.logger.Info("achievement unlocked", "id", list[i].ID, "name", list[i].Name)
		}
	}

	if err := storage.SetJSON(a.store, storage.KeyAchievements, list); err != nil {
		a.logger.Warn("save achievements", "err", err)
		return unlocked
	}
	if a.notifier != nil && len(unlocked) > 0 {
		if data, err := a.store.Get(storage.KeyAchievements); err == nil {
			a.notifier.Publish(storage.KeyAchievements, data)
		}
	}
	return unlocked
}

func (a *Achievements) conditions(tasks []task.Task) map[string]bool {
	now := a.clock.Now()
	today := clock.Date(now)

	completed, completedToday := 0, 0
	categories := make(map[string]bool)
	for _, t := range tasks {
		categories[t.Category] = true
		if !t.Completed {
			continue
		}
		completed++
		if t.CompletedAt != nil && clock.Date(t.CompletedAt.In(now.Location())) == today {
			completedToday++
		}
	}

	streak := 0
	if a.tracker != nil {
		streak = a.tracker.UsageStreak()
	}

	return map[string]bool{
		AchievementFirstTask:     len(tasks) >= 1,
		AchievementTaskMaster:    completed >= 10,
		AchievementProductiveDay: completedToday >= 5,
		AchievementStreakKeeper:  streak >= 7,
		AchievementOrganizer:     len(categories) >= 5,
	}
}

// Milestone is a badge shown with progress toward its goal.
type Milestone struct {
	ID          string `json:"id" yaml:"id"`
	Title       string `json:"title" yaml:"title"`
	Description string `json:"description" yaml:"description"`
	Unlocked    bool   `json:"unlocked" yaml:"unlocked"`
	Progress    int    `json:"progress" yaml:"progress"`
	Total       int    `json:"total" yaml:"total"`
}

// Milestones computes progress badges from completed tasks and the completion streak.
func Milestones(tasks []task.Task, today string, window int) []Milestone {
	completed := 0
	for _, t := range tasks {
		if t.Completed {
			completed++
		}
	}
	streak := query.ProductivityStreak(tasks, today, window)

	return []Milestone{
		milestone("first-steps", "First Steps", "Complete your first task", completed, 1),
		milestone("week-warrior", "Week Warrior", "7-day completion streak", streak, 7),
		milestone("productivity-king", "Productivity King", "Complete 100 tasks", completed, 100),
	}
}

func milestone(id, title, desc string, value, total int) Milestone {
	return Milestone{
		ID:          id,
		Title:       title,
		Description: desc,
		Unlocked:    value >= total,
		Progress:    min(value, total),
		Total:       total,
	}
}
