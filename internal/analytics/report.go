package analytics

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/nibzard/tasktrack-go/internal/clock"
	"github.com/nibzard/tasktrack-go/internal/query"
	"github.com/nibzard/tasktrack-go/internal/task"
)

// Export formats.
const (
	FormatJSON = "json"
	FormatYAML = "yaml"
)

// ReportSummary holds the headline counters of a Report.
type ReportSummary struct {
	TotalTasks     int `json:"totalTasks" yaml:"totalTasks"`
	CompletedTasks int `json:"completedTasks" yaml:"completedTasks"`
	PendingTasks   int `json:"pendingTasks" yaml:"pendingTasks"`
	CompletionRate int `json:"completionRate" yaml:"completionRate"`
}

// Report is the analytics-only export document.
type Report struct {
	Summary    ReportSummary  `json:"summary" yaml:"summary"`
	Categories map[string]int `json:"categories" yaml:"categories"`
	Insights   []Insight      `json:"insights" yaml:"insights"`
	ExportDate time.Time      `json:"exportDate" yaml:"exportDate"`
}

// BuildReport summarizes tasks as of now.
func BuildReport(tasks []task.Task, now time.Time) Report {
	completed := 0
	for _, t := range tasks {
		if t.Completed {
			completed++
		}
	}
	categories := make(map[string]int)
	for _, c := range query.CategoryBreakdown(tasks) {
		categories[c.Category] = c.Count
	}
	return Report{
		Summary: ReportSummary{
			TotalTasks:     len(tasks),
			CompletedTasks: completed,
			PendingTasks:   len(tasks) - completed,
			CompletionRate: query.CompletionRate(tasks),
		},
		Categories: categories,
		Insights:   PerformanceInsights(tasks, now),
		ExportDate: now,
	}
}

// ParseFormat validates an export format name. Empty input yields JSON.
func ParseFormat(s string) (string, error) {
	switch f := strings.ToLower(strings.TrimSpace(s)); f {
	case "", FormatJSON:
		return FormatJSON, nil
	case FormatYAML, "yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("unknown format %q (want json or yaml)", s)
	}
}

// Encode renders r in format. JSON uses 2-space indentation; both end in a newline.
func (r Report) Encode(format string) ([]byte, error) {
	switch format {
	case FormatYAML:
		data, err := yaml.Marshal(r)
		if err != nil {
			return nil, fmt.Errorf("marshal analytics yaml: %w", err)
		}
		return data, nil
	case FormatJSON, "":
		data, err := json.MarshalIndent(r, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("marshal analytics json: %w", err)
		}
		return append(data, '\n'), nil
	default:
		return nil, fmt.Errorf("unknown format %q", format)
	}
}

// ReportFileName names an analytics export written on now's date.
func ReportFileName(now time.Time, format string) string {
	ext := FormatJSON
	if format == FormatYAML {
		ext = FormatYAML
	}
	return fmt.Sprintf("todo-analytics-%s.%s", clock.Date(now), ext)
}
