package cmd

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"strconv"
	"strings"

	"github.com/nibzard/tasktrack-go/internal/app"
	"github.com/nibzard/tasktrack-go/internal/query"
	"github.com/nibzard/tasktrack-go/internal/repo"
	"github.com/nibzard/tasktrack-go/internal/task"
	"github.com/nibzard/tasktrack-go/internal/utils"
)

// shortIDLen is how many id characters listings show.
const shortIDLen = 8

// addCommand creates a task.
func addCommand(_ context.Context, a *app.App, args []string) error {
	fs := flag.NewFlagSet("tasktrack add", flag.ContinueOnError)
	date := fs.String("date", "", "Due date (YYYY-MM-DD)")
	hm := fs.String("time", "", "Due time (HH:MM)")
	priority := fs.String("priority", "", "Priority (low|medium|high|urgent)")
	category := fs.String("category", "", "Category (default general)")
	subtasks := fs.String("subtasks", "", "Comma-separated subtasks")

	positional, err := parseFlags(fs, args)
	if err != nil {
		return err
	}

	p, ok := task.ParsePriority(*priority)
	if !ok {
		return &task.ValidationError{Path: "priority", Err: task.ErrInvalidPriority}
	}
	created, err := a.Repo.Add(task.Draft{
		Text:     joinArgs(positional),
		Date:     *date,
		Time:     *hm,
		Priority: p,
		Category: *category,
		Subtasks: utils.SplitAndTrim(*subtasks, ","),
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(stdout, "Added %s %s\n", shortID(created.ID), created.Text)
	return nil
}

// lsCommand lists tasks.
func lsCommand(_ context.Context, a *app.App, args []string) error {
	fs := flag.NewFlagSet("tasktrack ls", flag.ContinueOnError)
	filterName := fs.String("filter", "all", "Filter (all|completed|pending|overdue|today)")
	sortName := fs.String("sort", "newest", "Sort (newest|oldest|priority|deadline|alphabetical)")
	search := fs.String("search", "", "Case-insensitive text, category or tag search")
	verbose := fs.Bool("v", false, "Show subtasks and tags")

	positional, err := parseFlags(fs, args)
	if err != nil {
		return err
	}
	if len(positional) > 1 {
		return fmt.Errorf("unexpected arguments: %v", positional[1:])
	}
	if len(positional) == 1 && *filterName == "all" {
		*filterName = positional[0]
	}

	filter, err := query.ParseFilter(*filterName)
	if err != nil {
		return err
	}
	sortKey, err := query.ParseSortKey(*sortName)
	if err != nil {
		return err
	}

	now := a.Clock.Now()
	tasks := query.Filter(a.Repo.Tasks(), filter, now)
	tasks = query.Search(tasks, *search)
	tasks = query.Sort(tasks, sortKey, now.Location())

	if len(tasks) == 0 {
		fmt.Fprintln(stdout, "No tasks found.")
		return nil
	}
	for _, t := range tasks {
		printTask(t, query.IsOverdue(t, now), *verbose)
	}
	return nil
}

// doneCommand marks a task completed, or pending with -undo.
func doneCommand(_ context.Context, a *app.App, args []string) error {
	fs := flag.NewFlagSet("tasktrack done", flag.ContinueOnError)
	undo := fs.Bool("undo", false, "Reopen the task instead")
	positional, err := parseFlags(fs, args)
	if err != nil {
		return err
	}
	id, err := taskArg(a, positional)
	if err != nil {
		return err
	}
	t, err := a.Repo.SetCompleted(id, !*undo)
	if err != nil {
		return err
	}
	if t.Completed {
		fmt.Fprintf(stdout, "Completed %s %s\n", shortID(t.ID), t.Text)
	} else {
		fmt.Fprintf(stdout, "Reopened %s %s\n", shortID(t.ID), t.Text)
	}
	return nil
}

// editCommand changes the fields given as flags.
func editCommand(_ context.Context, a *app.App, args []string) error {
	fs := flag.NewFlagSet("tasktrack edit", flag.ContinueOnError)
	text := fs.String("text", "", "New text")
	date := fs.String("date", "", "New due date (YYYY-MM-DD, empty to clear)")
	hm := fs.String("time", "", "New due time (HH:MM, empty to clear)")
	priority := fs.String("priority", "", "New priority")
	category := fs.String("category", "", "New category")

	positional, err := parseFlags(fs, args)
	if err != nil {
		return err
	}
	id, err := taskArg(a, positional)
	if err != nil {
		return err
	}

	var patch task.Patch
	var badPriority bool
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "text":
			patch.Text = text
		case "date":
			patch.Date = date
		case "time":
			patch.Time = hm
		case "priority":
			p, ok := task.ParsePriority(*priority)
			badPriority = !ok
			patch.Priority = &p
		case "category":
			patch.Category = category
		}
	})
	if badPriority {
		return &task.ValidationError{Path: "priority", Err: task.ErrInvalidPriority}
	}
	if patch.IsEmpty() {
		return errors.New("nothing to change: pass at least one of -text, -date, -time, -priority, -category")
	}

	t, err := a.Repo.Edit(id, patch)
	if err != nil {
		return err
	}
	fmt.Fprintf(stdout, "Updated %s %s\n", shortID(t.ID), t.Text)
	return nil
}

// rmCommand deletes a task.
func rmCommand(_ context.Context, a *app.App, args []string) error {
	fs := flag.NewFlagSet("tasktrack rm", flag.ContinueOnError)
	yes := fs.Bool("yes", false, "Delete without asking")
	rest, err := parseFlags(fs, args)
	if err != nil {
		return err
	}
	id, err := taskArg(a, rest)
	if err != nil {
		return err
	}
	if !*yes {
		t, err := a.Repo.Get(id)
		if err != nil {
			return err
		}
		if !confirm(fmt.Sprintf("Delete %q?", t.Text)) {
			fmt.Fprintln(stdout, "Not deleted.")
			return nil
		}
	}
	t, err := a.Repo.Delete(id)
	if err != nil {
		return err
	}
	fmt.Fprintf(stdout, "Deleted %s %s\n", shortID(t.ID), t.Text)
	return nil
}

// confirm asks a yes/no question on stdin. Anything but y or yes, including
// end of input, is a no.
func confirm(question string) bool {
	fmt.Fprintf(stdout, "%s [y/N] ", question)
	line, err := bufio.NewReader(stdin).ReadString('\n')
	if err != nil {
		fmt.Fprintln(stdout)
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true
	}
	return false
}

// dupCommand duplicates a task.
func dupCommand(_ context.Context, a *app.App, args []string) error {
	id, err := taskArg(a, args)
	if err != nil {
		return err
	}
	t, err := a.Repo.Duplicate(id)
	if err != nil {
		return err
	}
	fmt.Fprintf(stdout, "Added %s %s\n", shortID(t.ID), t.Text)
	return nil
}

// clearCommand removes completed tasks.
func clearCommand(_ context.Context, a *app.App, args []string) error {
	if len(args) > 0 {
		return fmt.Errorf("unexpected arguments: %v", args)
	}
	n, err := a.Repo.ClearCompleted()
	if err != nil {
		return err
	}
	if n == 0 {
		fmt.Fprintln(stdout, "No completed tasks to clear.")
		return nil
	}
	fmt.Fprintf(stdout, "Cleared %d completed task(s).\n", n)
	return nil
}

// subtaskCommand dispatches subtask add|done|rm.
func subtaskCommand(_ context.Context, a *app.App, args []string) error {
	if len(args) < 2 {
		return errors.New("usage: tasktrack subtask add <task> <text> | done <task> <subtask> | rm <task> <subtask>")
	}
	action, rest := args[0], args[1:]
	id, err := taskArg(a, rest[:1])
	if err != nil {
		return err
	}

	switch action {
	case "add":
		s, err := a.Repo.AddSubtask(id, joinArgs(rest[1:]))
		if err != nil {
			return err
		}
		fmt.Fprintf(stdout, "Added subtask %s %s\n", shortID(s.ID), s.Text)
		return nil
	case "done", "rm":
		if len(rest) != 2 {
			return fmt.Errorf("usage: tasktrack subtask %s <task> <subtask>", action)
		}
		t, err := a.Repo.Get(id)
		if err != nil {
			return err
		}
		sid, err := resolveSubtask(t, rest[1])
		if err != nil {
			return err
		}
		if action == "rm" {
			if err := a.Repo.RemoveSubtask(id, sid); err != nil {
				return err
			}
			fmt.Fprintln(stdout, "Removed subtask.")
			return nil
		}
		s, err := a.Repo.ToggleSubtask(id, sid)
		if err != nil {
			return err
		}
		state := "pending"
		if s.Completed {
			state = "done"
		}
		fmt.Fprintf(stdout, "Subtask %s is %s\n", s.Text, state)
		return nil
	default:
		return fmt.Errorf("unknown subtask action: %s", action)
	}
}

// taskArg resolves the single positional task reference in args.
func taskArg(a *app.App, args []string) (string, error) {
	if len(args) != 1 {
		return "", errors.New("expected exactly one task id")
	}
	return resolveTask(a.Repo.Tasks(), args[0])
}

// resolveTask expands a unique id prefix to the full id.
func resolveTask(tasks []task.Task, ref string) (string, error) {
	var matches []string
	for _, t := range tasks {
		if t.ID == ref {
			return t.ID, nil
		}
		if strings.HasPrefix(t.ID, ref) {
			matches = append(matches, t.ID)
		}
	}
	switch len(matches) {
	case 0:
		return "", fmt.Errorf("%w: %s", repo.ErrNotFound, ref)
	case 1:
		return matches[0], nil
	default:
		return "", fmt.Errorf("task id %q is ambiguous (%d matches)", ref, len(matches))
	}
}

// resolveSubtask accepts a 1-based position or a unique id prefix.
func resolveSubtask(t task.Task, ref string) (string, error) {
	if n, err := strconv.Atoi(ref); err == nil && n >= 1 && n <= len(t.Subtasks) {
		return t.Subtasks[n-1].ID, nil
	}
	var match string
	for _, s := range t.Subtasks {
		if strings.HasPrefix(s.ID, ref) {
			if match != "" {
				return "", fmt.Errorf("subtask id %q is ambiguous", ref)
			}
			match = s.ID
		}
	}
	if match == "" {
		return "", fmt.Errorf("%w: subtask %s", repo.ErrNotFound, ref)
	}
	return match, nil
}

func shortID(id string) string {
	if len(id) > shortIDLen {
		return id[:shortIDLen]
	}
	return id
}

func printTask(t task.Task, overdue, verbose bool) {
	check := "[ ]"
	if t.Completed {
		check = "[x]"
	}
	line := fmt.Sprintf("%-8s %s %-6s %s %s", shortID(t.ID), check, t.Priority, task.CategoryIcon(t.Category), t.Text)
	if t.Date != "" {
		line += "  (" + strings.TrimSpace(t.Date+" "+t.Time) + ")"
	}
	if overdue {
		line += "  OVERDUE"
	}
	if n := len(t.Subtasks); n > 0 {
		line += fmt.Sprintf("  [%d/%d, %d%%]", t.CompletedSubtasks(), n, query.CompletionPercentage(t))
	}
	fmt.Fprintln(stdout, line)

	if !verbose {
		return
	}
	if len(t.Tags) > 0 {
		fmt.Fprintf(stdout, "         tags: #%s\n", strings.Join(t.Tags, " #"))
	}
	fmt.Fprintf(stdout, "         category: %s  estimate: %dm\n", t.Category, t.EstimatedTime)
	for i, s := range t.Subtasks {
		mark := " "
		if s.Completed {
			mark = "x"
		}
		fmt.Fprintf(stdout, "         %d. [%s] %s\n", i+1, mark, s.Text)
	}
}
