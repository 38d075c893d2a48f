// Package ui provides the terminal dashboard.
package ui

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/nibzard/tasktrack-go/internal/app"
	"github.com/nibzard/tasktrack-go/internal/notify"
)

// Option configures the dashboard.
type Option func(*tuiConfig)

type tuiConfig struct {
	watch bool
}

// WithWatch enables following changes made by other contexts.
func WithWatch(enabled bool) Option {
	return func(c *tuiConfig) {
		c.watch = enabled
	}
}

// Run shows the dashboard for a until the user quits or ctx is done.
func Run(ctx context.Context, a *app.App, opts ...Option) error {
	c := &tuiConfig{watch: true}
	for _, opt := range opts {
		opt(c)
	}

	if !IsTTY(os.Stdout) {
		return fmt.Errorf("tui requires a TTY")
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	model := newModel(a)
	program := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))

	// Listeners run inside Update when this context mutates state, so the
	// message is handed off instead of sent inline.
	unsubscribe := a.Notifier.Subscribe("", notify.ListenerFunc(func(key string, _ json.RawMessage) {
		go program.Send(stateMsg{key: key})
	}))
	defer unsubscribe()

	go func() {
		_ = a.RunSession(ctx, nil, func() { program.Send(refreshMsg{}) })
	}()
	if c.watch {
		go func() {
			err := a.Watch(ctx)
			if err != nil && !errors.Is(err, context.Canceled) {
				a.Logger.Warn("watch stopped", "err", err)
			}
		}()
	}

	_, err := program.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}

// IsTTY returns true if w is a terminal.
func IsTTY(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	info, err := f.Stat()
	if err != nil {
		return false
	}
	return (info.Mode() & os.ModeCharDevice) != 0
}
