// Package cmd implements the CLI command structure for tasktrack.
package cmd

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/nibzard/tasktrack-go/internal/analytics"
	"github.com/nibzard/tasktrack-go/internal/app"
	"github.com/nibzard/tasktrack-go/internal/config"
	"github.com/nibzard/tasktrack-go/internal/logging"
)

// Version is set via ldflags at build time.
var Version = "dev"

// Output streams; tests replace them.
var (
	stdout io.Writer = os.Stdout
	stderr io.Writer = os.Stderr
	stdin  io.Reader = os.Stdin
)

// appCommand runs against an opened App.
type appCommand func(ctx context.Context, a *app.App, args []string) error

// appCommands are the commands that need the shared state.
var appCommands = map[string]appCommand{
	"add":           addCommand,
	"ls":            lsCommand,
	"done":          doneCommand,
	"edit":          editCommand,
	"rm":            rmCommand,
	"dup":           dupCommand,
	"clear":         clearCommand,
	"subtask":       subtaskCommand,
	"stats":         statsCommand,
	"insights":      insightsCommand,
	"achievements":  achievementsCommand,
	"recent":        recentCommand,
	"export":        exportCommand,
	"import":        importCommand,
	"analytics":     analyticsCommand,
	"chat":          chatCommand,
	"automation":    automationCommand,
	"darkmode":      darkModeCommand,
	"notifications": notificationsCommand,
	"settings":      settingsCommand,
	"reset":         resetCommand,
	"watch":         watchCommand,
	"tui":           tuiCommand,
}

// Run executes the tasktrack CLI.
func Run(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("tasktrack", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		printUsage(fs, stderr)
	}
	help := fs.Bool("help", false, "Show help")
	fs.BoolVar(help, "h", false, "Show help")
	showVersion := fs.Bool("version", false, "Show version")
	fs.BoolVar(showVersion, "v", false, "Show version")

	cws, err := config.LoadWithSources(fs, args)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil
		}
		return fmt.Errorf("loading config: %w", err)
	}
	cfg := cws.Config
	if *help {
		printUsage(fs, stdout)
		return nil
	}
	if *showVersion {
		return versionCommand()
	}

	subcommand := "ls"
	remaining := fs.Args()
	if len(remaining) > 0 {
		subcommand = remaining[0]
		remaining = remaining[1:]
	}

	switch subcommand {
	case "config":
		return configCommand(cws, remaining)
	case "log":
		return logCommand(ctx, cfg, remaining)
	case "version":
		return versionCommand()
	case "help":
		printUsage(fs, stdout)
		return nil
	}

	run, ok := appCommands[subcommand]
	if !ok {
		fmt.Fprintf(stderr, "Unknown command: %s\n", subcommand)
		printUsage(fs, stderr)
		return fmt.Errorf("unknown command: %s", subcommand)
	}

	logger, closeLog, err := newLogger(cfg, subcommand)
	if err != nil {
		return err
	}
	defer closeLog()

	a, err := app.Open(cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()
	a.OnAchievement(func(ach analytics.Achievement) {
		fmt.Fprintf(stdout, "🏆 Achievement unlocked: %s (%s)\n", ach.Name, ach.Description)
	})

	return run(ctx, a, remaining)
}

// newLogger builds the console logger. Long-running commands also write a
// session log; the dashboard logs only to that file since it owns the screen.
func newLogger(cfg *config.Config, subcommand string) (*log.Logger, func(), error) {
	opts := logging.Options{
		Level:           cfg.LogLevel,
		Format:          cfg.LogFormat,
		ReportTimestamp: cfg.LogTimestamps,
		ReportCaller:    cfg.LogCaller,
		Output:          stderr,
	}
	if subcommand != "tui" && subcommand != "watch" {
		return logging.New(opts), func() {}, nil
	}

	session, err := logging.NewSessionLog(cfg.LogDir)
	if err != nil {
		return nil, nil, fmt.Errorf("opening session log: %w", err)
	}
	if subcommand == "tui" {
		opts.Output = session.Writer()
	} else {
		opts.Output = io.MultiWriter(stderr, session.Writer())
	}
	opts.ReportTimestamp = true
	return logging.New(opts), func() { _ = session.Close() }, nil
}

func versionCommand() error {
	fmt.Fprintf(stdout, "tasktrack version %s\n", Version)
	return nil
}

// printUsage prints the usage message.
func printUsage(fs *flag.FlagSet, w io.Writer) {
	fmt.Fprintln(w, "tasktrack - a personal task tracker")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Usage:")
	fmt.Fprintln(w, "  tasktrack [global options] [command] [options]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Task Commands:")
	fmt.Fprintln(w, "  add <text>                 Add a task (-date, -time, -priority, -category, -subtasks)")
	fmt.Fprintln(w, "  ls                         List tasks (default command; -filter, -sort, -search, -v)")
	fmt.Fprintln(w, "  done <id>                  Mark a task completed (-undo to reopen)")
	fmt.Fprintln(w, "  edit <id>                  Edit a task (-text, -date, -time, -priority, -category)")
	fmt.Fprintln(w, "  rm [-yes] <id>             Delete a task after confirmation")
	fmt.Fprintln(w, "  dup <id>                   Duplicate a task")
	fmt.Fprintln(w, "  clear                      Remove completed tasks")
	fmt.Fprintln(w, "  subtask add|done|rm        Manage subtasks")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Progress Commands:")
	fmt.Fprintln(w, "  stats                      Show the summary, streak and weekly trend")
	fmt.Fprintln(w, "  insights                   Show performance insights and milestones")
	fmt.Fprintln(w, "  achievements               List achievements")
	fmt.Fprintln(w, "  recent                     Show recent activity (-n)")
	fmt.Fprintln(w, "  analytics                  Export the analytics report (-format json|yaml, -o)")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Data Commands:")
	fmt.Fprintln(w, "  export                     Write a full backup (-o)")
	fmt.Fprintln(w, "  import <file>              Restore a backup ('-' reads stdin)")
	fmt.Fprintln(w, "  reset -yes                 Clear tasks and settings")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Assistant and Settings:")
	fmt.Fprintln(w, "  chat [message]             Talk to the assistant (-quick, -suggest, -history, -clear)")
	fmt.Fprintln(w, "  automation [id on|off]     List or toggle automations")
	fmt.Fprintln(w, "  darkmode [on|off|toggle]   Show or change dark mode")
	fmt.Fprintln(w, "  notifications [on|off]     Show or change notifications")
	fmt.Fprintln(w, "  settings                   Show settings and storage usage")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Other Commands:")
	fmt.Fprintln(w, "  watch                      Follow changes made by other contexts")
	fmt.Fprintln(w, "  tui                        Launch the terminal dashboard")
	fmt.Fprintln(w, "  config                     Show effective configuration (-example)")
	fmt.Fprintln(w, "  log                        Show the latest session log (-n, -f)")
	fmt.Fprintln(w, "  version                    Show version information")
	fmt.Fprintln(w, "  help                       Show this help message")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Task ids may be abbreviated to any unique prefix.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Global Options:")
	fs.SetOutput(w)
	fs.PrintDefaults()
	fs.SetOutput(stderr)
}

// parseFlags parses a subcommand's flags, allowing flags after positional
// arguments.
func parseFlags(fs *flag.FlagSet, args []string) ([]string, error) {
	fs.SetOutput(stderr)
	var positional []string
	for {
		if err := fs.Parse(args); err != nil {
			return nil, err
		}
		args = fs.Args()
		if len(args) == 0 {
			return positional, nil
		}
		if args[0] == "--" {
			return append(positional, args[1:]...), nil
		}
		positional = append(positional, args[0])
		args = args[1:]
	}
}

// joinArgs joins positional words into one line of text.
func joinArgs(args []string) string {
	return strings.TrimSpace(strings.Join(args, " "))
}
