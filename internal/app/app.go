// Package app wires the task repository and its satellite services into one
// controller per context. Commands and the dashboard talk to an App rather
// than to the packages underneath it.
package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/nibzard/tasktrack-go/internal/activity"
	"github.com/nibzard/tasktrack-go/internal/analytics"
	"github.com/nibzard/tasktrack-go/internal/assistant"
	"github.com/nibzard/tasktrack-go/internal/backup"
	"github.com/nibzard/tasktrack-go/internal/clock"
	"github.com/nibzard/tasktrack-go/internal/config"
	"github.com/nibzard/tasktrack-go/internal/logging"
	"github.com/nibzard/tasktrack-go/internal/notify"
	"github.com/nibzard/tasktrack-go/internal/prefs"
	"github.com/nibzard/tasktrack-go/internal/repo"
	"github.com/nibzard/tasktrack-go/internal/session"
	"github.com/nibzard/tasktrack-go/internal/storage"
)

// ErrWatchUnsupported is returned by Watch for stores that cannot report
// changes made by other contexts.
var ErrWatchUnsupported = errors.New("storage backend does not support watching")

// Options holds the injected dependencies of an App. Zero values fall back
// to the system clock, UUIDs, a discard logger and default configuration.
type Options struct {
	Config *config.Config
	Store  storage.Store
	Clock  clock.Clock
	IDs    clock.IDGenerator
	Logger *log.Logger
}

// App is one context's view of the shared state.
type App struct {
	Config   *config.Config
	Store    storage.Store
	Clock    clock.Clock
	Logger   *log.Logger
	Notifier *notify.Notifier

	Repo         *repo.Repository
	Tracker      *analytics.Tracker
	Achievements *analytics.Achievements
	Activity     *activity.Log
	Prefs        *prefs.Prefs
	Assistant    *assistant.Assistant
	Backup       *backup.Manager

	mu         sync.Mutex
	onUnlocked []func(analytics.Achievement)
	cancels    []func()
}

// New builds an App over opts.Store.
func New(opts Options) *App {
	cfg := opts.Config
	if cfg == nil {
		cfg = &config.Config{}
		*cfg = DefaultConfig()
	}
	clk := opts.Clock
	if clk == nil {
		clk = clock.System{}
	}
	ids := opts.IDs
	if ids == nil {
		ids = clock.UUIDs{}
	}
	logger := logging.OrDiscard(opts.Logger)
	n := notify.New(logger)

	a := &App{
		Config:   cfg,
		Store:    opts.Store,
		Clock:    clk,
		Logger:   logger,
		Notifier: n,
	}
	a.Repo = repo.New(repo.Options{
		Store:    opts.Store,
		Clock:    clk,
		IDs:      ids,
		Notifier: n,
		Logger:   logger.WithPrefix("repo"),
	})
	a.Tracker = analytics.NewTracker(opts.Store, clk, n, logger.WithPrefix("analytics"))
	a.Achievements = analytics.NewAchievements(opts.Store, clk, a.Tracker, n, logger.WithPrefix("analytics"))
	a.Activity = activity.New(opts.Store, clk, ids, n, logger.WithPrefix("activity"))
	a.Prefs = prefs.New(opts.Store, n, logger.WithPrefix("prefs"))
	a.Assistant = assistant.New(assistant.Options{
		Store:    opts.Store,
		Clock:    clk,
		Prefs:    a.Prefs,
		Notifier: n,
		Logger:   logger.WithPrefix("assistant"),
		Delay:    cfg.ChatDelay(),
	})
	a.Backup = backup.New(opts.Store, clk, n, logger.WithPrefix("backup"))

	a.Repo.OnEvent(a.handleEvent)
	// Collections written outside the repository (imports, clear-all and
	// other contexts) replace the in-memory copy.
	a.cancels = append(a.cancels, n.Subscribe(storage.KeyTasks, notify.ListenerFunc(
		func(_ string, value json.RawMessage) { a.Repo.Apply(value) },
	)))
	return a
}

// DefaultConfig returns the built-in configuration without reading files,
// environment or flags.
func DefaultConfig() config.Config {
	return config.Config{
		DataDir:                config.DefaultDataDir,
		Backend:                config.DefaultBackend,
		QuotaBytes:             config.DefaultQuotaBytes,
		UsageIntervalSeconds:   config.DefaultUsageIntervalSeconds,
		RefreshIntervalSeconds: config.DefaultRefreshIntervalSeconds,
		ChatDelayMS:            config.DefaultChatDelayMS,
		StreakWindowDays:       config.DefaultStreakWindowDays,
		LogDir:                 config.DefaultLogDir,
		LogLevel:               "info",
		LogFormat:              "text",
	}
}

// Open opens the configured store and builds an App over it.
func Open(cfg *config.Config, logger *log.Logger) (*App, error) {
	logger = logging.OrDiscard(logger)
	store, err := storage.Open(cfg.Backend, cfg.DataDir, cfg.QuotaBytes, logger.WithPrefix("storage"))
	if err != nil {
		return nil, fmt.Errorf("open storage: %w", err)
	}
	return New(Options{Config: cfg, Store: store, Logger: logger}), nil
}

// Close releases subscriptions and the store.
func (a *App) Close() error {
	a.mu.Lock()
	cancels := a.cancels
	a.cancels = nil
	a.mu.Unlock()
	for _, cancel := range cancels {
		cancel()
	}
	return a.Store.Close()
}

// OnAchievement registers fn to be called for every badge unlocked by a
// repository mutation in this context.
func (a *App) OnAchievement(fn func(analytics.Achievement)) {
	a.mu.Lock()
	a.onUnlocked = append(a.onUnlocked, fn)
	a.mu.Unlock()
}

// handleEvent feeds repository events into analytics, the activity feed and
// the achievement checker.
func (a *App) handleEvent(ev repo.Event) {
	switch ev.Kind {
	case repo.EventAdded:
		a.Tracker.Track(analytics.ActionTaskAdded)
		a.Activity.Record(activity.ActionCreated, ev.Task.Text)
	case repo.EventDuplicated:
		a.Tracker.Track(analytics.ActionTaskAdded)
		a.Activity.Record(activity.ActionDuplicated, ev.Task.Text)
	case repo.EventCompleted:
		a.Tracker.Track(analytics.ActionTaskCompleted)
		a.Activity.Record(activity.ActionCompleted, ev.Task.Text)
	case repo.EventReopened:
		a.Activity.Record(activity.ActionUncompleted, ev.Task.Text)
	case repo.EventEdited:
		a.Activity.Record(activity.ActionEdited, ev.Task.Text)
	case repo.EventDeleted:
		a.Tracker.Track(analytics.ActionTaskDeleted)
		a.Activity.Record(activity.ActionDeleted, ev.Task.Text)
	case repo.EventCleared:
		a.Tracker.Track(analytics.ActionTaskDeleted)
		a.Activity.Record(activity.ActionCleared, ev.Task.Text)
	}

	unlocked := a.Achievements.Check(ev.Tasks)
	if len(unlocked) == 0 {
		return
	}
	a.mu.Lock()
	hooks := append([]func(analytics.Achievement){}, a.onUnlocked...)
	a.mu.Unlock()
	for _, ach := range unlocked {
		for _, fn := range hooks {
			fn(ach)
		}
	}
}

// Watch forwards changes made by other contexts into the notifier until ctx
// is done. Task collection changes reload the repository.
func (a *App) Watch(ctx context.Context) error {
	w, ok := a.Store.(storage.Watcher)
	if !ok {
		return ErrWatchUnsupported
	}
	return notify.Bridge(ctx, w, a.Notifier)
}

// RunSession drives the usage and refresh timers until ctx is done. visible
// and onRefresh may be nil.
func (a *App) RunSession(ctx context.Context, visible func() bool, onRefresh func()) error {
	return session.Run(ctx, session.Options{
		UsageInterval:   a.Config.UsageInterval(),
		RefreshInterval: a.Config.RefreshInterval(),
		Visible:         visible,
		OnUsage:         a.Tracker.TrackUsage,
		OnRefresh:       onRefresh,
	})
}
