package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"strings"

	"github.com/nibzard/tasktrack-go/internal/app"
	"github.com/nibzard/tasktrack-go/internal/config"
	"github.com/nibzard/tasktrack-go/internal/logging"
	"github.com/nibzard/tasktrack-go/internal/notify"
	"github.com/nibzard/tasktrack-go/internal/storage"
	"github.com/nibzard/tasktrack-go/internal/ui"
)

// watchCommand prints shared-state changes from other contexts until
// interrupted. Usage time is tracked while it runs.
func watchCommand(ctx context.Context, a *app.App, args []string) error {
	if len(args) > 0 {
		return fmt.Errorf("unexpected arguments: %v", args)
	}
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	unsubscribe := a.Notifier.Subscribe("", notify.ListenerFunc(func(key string, value json.RawMessage) {
		if key == storage.KeyTasks {
			fmt.Fprintf(stdout, "%s changed: %d task(s)\n", key, len(a.Repo.Tasks()))
			return
		}
		if value == nil {
			fmt.Fprintf(stdout, "%s removed\n", key)
			return
		}
		fmt.Fprintf(stdout, "%s changed\n", key)
	}))
	defer unsubscribe()

	go func() {
		_ = a.RunSession(ctx, nil, nil)
	}()

	fmt.Fprintf(stdout, "Watching %s (%s). Press Ctrl+C to stop.\n", a.Config.DataDir, a.Config.Backend)
	err := a.Watch(ctx)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// tuiCommand launches the dashboard.
func tuiCommand(ctx context.Context, a *app.App, args []string) error {
	fs := flag.NewFlagSet("tasktrack tui", flag.ContinueOnError)
	watch := fs.Bool("watch", true, "Follow changes made by other contexts")
	if _, err := parseFlags(fs, args); err != nil {
		return err
	}
	return ui.Run(ctx, a, ui.WithWatch(*watch))
}

// configCommand prints the effective configuration and where each value came from.
func configCommand(cws *config.ConfigWithSources, args []string) error {
	fs := flag.NewFlagSet("tasktrack config", flag.ContinueOnError)
	example := fs.Bool("example", false, "Print an example config file")
	if _, err := parseFlags(fs, args); err != nil {
		return err
	}
	if *example {
		fmt.Fprint(stdout, config.ExampleConfig())
		return nil
	}

	fmt.Fprintln(stdout, "Effective configuration")
	for _, field := range config.Fields() {
		fmt.Fprintf(stdout, "  %-26s %-40s (%s)\n", field, cws.Config.Value(field), cws.Sources[field])
	}
	fmt.Fprintln(stdout)
	if len(cws.Files) == 0 {
		fmt.Fprintln(stdout, "No config files found.")
	} else {
		fmt.Fprintln(stdout, "Config files: "+strings.Join(cws.Files, ", "))
	}
	fmt.Fprintln(stdout, "Environment variables: "+strings.Join(config.EnvVars(), ", "))
	return nil
}

// logCommand prints the latest session log.
func logCommand(ctx context.Context, cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("tasktrack log", flag.ContinueOnError)
	follow := fs.Bool("f", false, "Follow the log (like tail -f)")
	fs.BoolVar(follow, "follow", false, "Follow the log (like tail -f)")
	n := fs.Int("n", 0, "Number of lines to show (0 = all)")
	if _, err := parseFlags(fs, args); err != nil {
		return err
	}

	logPath, err := logging.FindLatestLog(cfg.LogDir)
	if err != nil {
		return fmt.Errorf("finding latest log: %w", err)
	}
	if logPath == "" {
		fmt.Fprintln(stdout, "No log files found.")
		return nil
	}

	fmt.Fprintf(stdout, "Tailing: %s\n", logPath)
	if *follow {
		fmt.Fprintln(stdout, "(Ctrl+C to stop)")
	}
	fmt.Fprintln(stdout)
	return logging.TailLog(ctx, stdout, logPath, *n, *follow)
}
