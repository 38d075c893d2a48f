package cmd

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/nibzard/tasktrack-go/internal/app"
	"github.com/nibzard/tasktrack-go/internal/backup"
)

// exportCommand writes a full backup.
func exportCommand(_ context.Context, a *app.App, args []string) error {
	fs := flag.NewFlagSet("tasktrack export", flag.ContinueOnError)
	out := fs.String("o", "", "Output file ('-' for stdout, default todo-backup-<date>.json)")
	if _, err := parseFlags(fs, args); err != nil {
		return err
	}

	b, err := a.Backup.Export()
	if err != nil {
		return err
	}
	data, err := b.Encode()
	if err != nil {
		return err
	}
	path := *out
	if path == "" {
		path = backup.FileName(b.ExportDate)
	}
	return writeOutput(path, data, "Backup written to")
}

// importCommand restores a backup file.
func importCommand(_ context.Context, a *app.App, args []string) error {
	if len(args) != 1 {
		return errors.New("usage: tasktrack import <file|->")
	}

	var data []byte
	var err error
	if args[0] == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(args[0])
	}
	if err != nil {
		return fmt.Errorf("reading backup: %w", err)
	}

	res, err := a.Backup.Import(data)
	if err != nil {
		return err
	}
	fmt.Fprintf(stdout, "Imported %d task(s); restored %s\n", res.Tasks, strings.Join(res.Keys, ", "))
	return nil
}

// resetCommand clears tasks and settings.
func resetCommand(_ context.Context, a *app.App, args []string) error {
	fs := flag.NewFlagSet("tasktrack reset", flag.ContinueOnError)
	yes := fs.Bool("yes", false, "Confirm clearing all data")
	if _, err := parseFlags(fs, args); err != nil {
		return err
	}
	if !*yes {
		return errors.New("refusing to clear all data without -yes")
	}
	if err := a.Prefs.ClearAll(); err != nil {
		return err
	}
	fmt.Fprintln(stdout, "All data cleared.")
	return nil
}

// writeOutput writes data to path, or to stdout when path is "-".
func writeOutput(path string, data []byte, label string) error {
	if path == "-" {
		_, err := stdout.Write(data)
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	fmt.Fprintf(stdout, "%s %s\n", label, path)
	return nil
}
