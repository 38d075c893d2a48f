package task

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	jsonschema "github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/nibzard/tasktrack-go/internal/utils"
)

var (
	// ErrEmptyText is returned when a task's text is blank.
	ErrEmptyText = errors.New("task text must not be empty")
	// ErrEmptySubtask is returned when a subtask's text is blank.
	ErrEmptySubtask = errors.New("subtask text must not be empty")
	// ErrInvalidPriority is returned for priorities outside low, medium, high, urgent.
	ErrInvalidPriority = errors.New("priority must be one of: low, medium, high, urgent")
	// ErrInvalidDate is returned for dates not in YYYY-MM-DD form.
	ErrInvalidDate = errors.New("date must be YYYY-MM-DD")
	// ErrInvalidTime is returned for times not in HH:MM form.
	ErrInvalidTime = errors.New("time must be HH:MM")
)

// ValidationError represents a validation error with context.
type ValidationError struct {
	Path string // dotted path to the offending field
	Err  error  // underlying error
}

func (e *ValidationError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("%s: %s", e.Path, e.Err)
	}
	return e.Err.Error()
}

// Unwrap returns the underlying error.
func (e *ValidationError) Unwrap() error {
	return e.Err
}

// SchemaURL identifies the embedded task schema. Other schemas may $ref it
// after registering Schema with their compiler under this URL.
const SchemaURL = "https://schemas.tasktrack.dev/task.json"

// Schema is the JSON Schema for a single persisted task.
//
//go:embed task.schema.json
var Schema []byte

var (
	schemaOnce sync.Once
	schema     *jsonschema.Schema
	schemaErr  error
)

func compiledSchema() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		compiler.Draft = jsonschema.Draft2020
		compiler.AssertFormat = true
		if err := compiler.AddResource(SchemaURL, bytes.NewReader(Schema)); err != nil {
			schemaErr = fmt.Errorf("load task schema: %w", err)
			return
		}
		schema, schemaErr = compiler.Compile(SchemaURL)
	})
	return schema, schemaErr
}

// CollectionResult is the outcome of decoding a persisted collection.
type CollectionResult struct {
	Tasks []Task
	// Dropped holds one error per element that failed validation.
	Dropped []error
	// Repaired lists the ids whose CompletedAt was fixed up to match Completed.
	Repaired []string
}

// DecodeCollection parses a JSON array of tasks. Elements that fail schema
// validation are dropped and reported; duplicate ids keep the first element.
// A document that is not a JSON array returns an error.
func DecodeCollection(data []byte, now time.Time) (*CollectionResult, error) {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse task collection: %w", err)
	}

	sch, err := compiledSchema()
	if err != nil {
		return nil, err
	}

	result := &CollectionResult{Tasks: make([]Task, 0, len(raw))}
	seen := make(map[string]bool, len(raw))
	for i, elem := range raw {
		prefix := fmt.Sprintf("[%d]", i)

		var doc interface{}
		if err := json.Unmarshal(elem, &doc); err != nil {
			result.Dropped = append(result.Dropped, &ValidationError{Path: prefix, Err: err})
			continue
		}
		if err := sch.Validate(doc); err != nil {
			result.Dropped = append(result.Dropped, schemaError(prefix, err))
			continue
		}

		var t Task
		if err := json.Unmarshal(elem, &t); err != nil {
			result.Dropped = append(result.Dropped, &ValidationError{Path: prefix, Err: err})
			continue
		}
		if seen[t.ID] {
			result.Dropped = append(result.Dropped, &ValidationError{
				Path: prefix + ".id",
				Err:  fmt.Errorf("duplicate id %q", t.ID),
			})
			continue
		}
		seen[t.ID] = true

		if normalize(&t, now) {
			result.Repaired = append(result.Repaired, t.ID)
		}
		result.Tasks = append(result.Tasks, t)
	}
	return result, nil
}

// Validate checks a single task against the schema.
func Validate(t Task) error {
	sch, err := compiledSchema()
	if err != nil {
		return err
	}
	data, err := json.Marshal(t)
	if err != nil {
		return fmt.Errorf("marshal task: %w", err)
	}
	var doc interface{}
	if err := json.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("unmarshal task: %w", err)
	}
	if err := sch.Validate(doc); err != nil {
		return schemaError("", err)
	}
	return nil
}

// normalize fills defaults and restores the CompletedAt invariant.
// It reports whether the invariant needed repair.
func normalize(t *Task, now time.Time) bool {
	if t.Priority == "" {
		t.Priority = PriorityMedium
	}
	if t.Category == "" {
		t.Category = DefaultCategory
	}
	if t.Subtasks == nil {
		t.Subtasks = []Subtask{}
	}
	if t.Tags == nil {
		t.Tags = ExtractTags(t.Text)
	}

	switch {
	case t.Completed && t.CompletedAt == nil:
		at := now
		if t.UpdatedAt != nil {
			at = *t.UpdatedAt
		}
		t.CompletedAt = &at
		return true
	case !t.Completed && t.CompletedAt != nil:
		t.CompletedAt = nil
		return true
	}
	return false
}

// schemaError flattens a jsonschema error into the first leaf cause.
func schemaError(prefix string, err error) error {
	ve, ok := err.(*jsonschema.ValidationError)
	if !ok {
		return &ValidationError{Path: prefix, Err: err}
	}
	for len(ve.Causes) > 0 {
		ve = ve.Causes[0]
	}
	path := utils.JSONPointerToPath(ve.InstanceLocation)
	if path != "" && prefix != "" && path[0] != '[' {
		path = prefix + "." + path
	} else {
		path = prefix + path
	}
	return &ValidationError{Path: path, Err: errors.New(ve.Message)}
}
