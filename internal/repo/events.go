package repo

import "github.com/nibzard/tasktrack-go/internal/task"

// EventKind names a repository mutation.
type EventKind string

const (
	EventAdded      EventKind = "added"
	EventCompleted  EventKind = "completed"
	EventReopened   EventKind = "reopened"
	EventEdited     EventKind = "edited"
	EventDeleted    EventKind = "deleted"
	EventDuplicated EventKind = "duplicated"
	EventCleared    EventKind = "cleared"
)

// Event describes one mutation. Task is the affected task after the change
// (or as it was, for deletions).
type Event struct {
	Kind EventKind
	Task task.Task
	// Tasks is the collection after the mutation.
	Tasks []task.Task
}
