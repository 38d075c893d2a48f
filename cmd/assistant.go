package cmd

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"sort"
	"strings"

	"github.com/nibzard/tasktrack-go/internal/app"
	"github.com/nibzard/tasktrack-go/internal/assistant"
	"github.com/nibzard/tasktrack-go/internal/prefs"
)

// chatCommand talks to the assistant. Without a message or action it reads
// one message per line from stdin until EOF or "exit".
func chatCommand(ctx context.Context, a *app.App, args []string) error {
	fs := flag.NewFlagSet("tasktrack chat", flag.ContinueOnError)
	quick := fs.String("quick", "", "Quick action ("+strings.Join(assistant.QuickActions(), "|")+")")
	suggest := fs.String("suggest", "", "Apply a suggestion (break-down|time-blocks|categories)")
	tips := fs.Int("tips", 0, "Show this many productivity tips")
	history := fs.Bool("history", false, "Print the chat history")
	clearHistory := fs.Bool("clear", false, "Clear the chat history")

	positional, err := parseFlags(fs, args)
	if err != nil {
		return err
	}

	switch {
	case *clearHistory:
		if err := a.Assistant.ClearHistory(); err != nil {
			return err
		}
		fmt.Fprintln(stdout, "Chat history cleared.")
		return nil
	case *history:
		for _, m := range a.Assistant.History() {
			fmt.Fprintf(stdout, "[%s] %s: %s\n", m.Timestamp.Format("2006-01-02 15:04"), m.Sender, m.Message)
		}
		return nil
	case *tips > 0:
		for _, tip := range assistant.Suggestions(*tips, a.Clock.Now().YearDay()) {
			fmt.Fprintln(stdout, "- "+tip)
		}
		return nil
	case *quick != "":
		msgs, err := a.Assistant.QuickAction(ctx, *quick)
		for _, m := range msgs {
			fmt.Fprintln(stdout, m)
		}
		return err
	case *suggest != "":
		reply, err := a.Assistant.ApplySuggestion(*suggest)
		if err != nil {
			return err
		}
		fmt.Fprintln(stdout, reply)
		return nil
	}

	if msg := joinArgs(positional); msg != "" {
		return ask(ctx, a, msg)
	}

	scanner := bufio.NewScanner(stdin)
	for {
		fmt.Fprint(stdout, "> ")
		if !scanner.Scan() {
			fmt.Fprintln(stdout)
			return scanner.Err()
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "exit" || line == "quit" {
			return nil
		}
		if line == "" {
			continue
		}
		if err := ask(ctx, a, line); err != nil {
			return err
		}
	}
}

func ask(ctx context.Context, a *app.App, msg string) error {
	reply, err := a.Assistant.Ask(ctx, msg)
	if err != nil {
		return err
	}
	fmt.Fprintln(stdout, reply)
	return nil
}

// automationCommand lists automations or toggles one.
func automationCommand(_ context.Context, a *app.App, args []string) error {
	switch len(args) {
	case 0:
		autos := a.Prefs.Automations()
		ids := make([]string, 0, len(autos))
		for id := range autos {
			ids = append(ids, id)
		}
		sort.Strings(ids)
		for _, id := range ids {
			fmt.Fprintf(stdout, "  %-22s %-22s %s\n", id, prefs.AutomationName(id), onOff(autos[id]))
		}
		return nil
	case 2:
		enabled, err := parseOnOff(args[1])
		if err != nil {
			return err
		}
		msg, err := a.Assistant.SetAutomation(args[0], enabled)
		if err != nil {
			return err
		}
		if msg == "" {
			msg = prefs.AutomationName(args[0]) + " disabled."
		}
		fmt.Fprintln(stdout, msg)
		return nil
	default:
		return errors.New("usage: tasktrack automation [<id> on|off]")
	}
}

// darkModeCommand shows or changes dark mode.
func darkModeCommand(_ context.Context, a *app.App, args []string) error {
	if len(args) == 0 {
		fmt.Fprintf(stdout, "Dark mode: %s\n", onOff(a.Prefs.DarkMode()))
		return nil
	}
	if len(args) > 1 {
		return errors.New("usage: tasktrack darkmode [on|off|toggle]")
	}

	var on bool
	var err error
	if args[0] == "toggle" {
		on, err = a.Prefs.ToggleDarkMode()
	} else {
		on, err = parseOnOff(args[0])
		if err == nil {
			err = a.Prefs.SetDarkMode(on)
		}
	}
	if err != nil {
		return err
	}
	fmt.Fprintf(stdout, "Dark mode: %s\n", onOff(on))
	return nil
}

// notificationsCommand shows or changes notifications.
func notificationsCommand(_ context.Context, a *app.App, args []string) error {
	if len(args) == 0 {
		fmt.Fprintf(stdout, "Notifications: %s\n", onOff(a.Prefs.Notifications()))
		return nil
	}
	if len(args) > 1 {
		return errors.New("usage: tasktrack notifications [on|off]")
	}
	on, err := parseOnOff(args[0])
	if err != nil {
		return err
	}
	if err := a.Prefs.SetNotifications(on); err != nil {
		return err
	}
	fmt.Fprintf(stdout, "Notifications: %s\n", onOff(on))
	return nil
}

// settingsCommand prints every setting and storage usage.
func settingsCommand(_ context.Context, a *app.App, args []string) error {
	if len(args) > 0 {
		return fmt.Errorf("unexpected arguments: %v", args)
	}
	fmt.Fprintln(stdout, "Settings")
	for _, s := range a.Prefs.Snapshot() {
		fmt.Fprintf(stdout, "  %-22s %s\n", s.Name, onOff(s.Enabled))
	}
	fmt.Fprintln(stdout)

	stats := a.Prefs.Stats()
	fmt.Fprintln(stdout, "Storage")
	fmt.Fprintf(stdout, "  Backend: %s  Location: %s\n", a.Config.Backend, a.Config.DataDir)
	fmt.Fprintf(stdout, "  Tasks: %d (%d completed)  Size: %s  Total: %d bytes\n",
		stats.Tasks, stats.Completed, stats.KB(), stats.TotalBytes)
	return nil
}

func parseOnOff(s string) (bool, error) {
	switch strings.ToLower(s) {
	case "on", "true", "yes", "1":
		return true, nil
	case "off", "false", "no", "0":
		return false, nil
	default:
		return false, fmt.Errorf("expected on or off, got %q", s)
	}
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}
