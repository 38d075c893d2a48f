package repo

import (
	"errors"
	"fmt"

	"github.com/nibzard/tasktrack-go/internal/task"
)

// Add creates a task from d and prepends it to the collection. Blank text,
// or any value Load would reject, yields a *task.ValidationError and leaves
// the collection unchanged.
func (r *Repository) Add(d task.Draft) (task.Task, error) {
	var created task.Task
	err := r.mutate(func(tasks []task.Task) ([]task.Task, []Event, error) {
		t, err := task.New(d, r.clock.Now(), r.ids)
		if err != nil {
			return nil, nil, err
		}
		if err := task.Validate(t); err != nil {
			return nil, nil, err
		}
		created = t
		next := append([]task.Task{t}, tasks...)
		return next, []Event{{Kind: EventAdded, Task: t.Clone()}}, nil
	})
	return created, err
}

// Toggle flips the completion state of the task with id.
func (r *Repository) Toggle(id string) (task.Task, error) {
	var toggled task.Task
	err := r.mutate(func(tasks []task.Task) ([]task.Task, []Event, error) {
		i, err := find(tasks, id)
		if err != nil {
			return nil, nil, err
		}
		tasks[i].SetCompleted(!tasks[i].Completed, r.clock.Now())
		toggled = tasks[i].Clone()
		kind := EventReopened
		if toggled.Completed {
			kind = EventCompleted
		}
		return tasks, []Event{{Kind: kind, Task: toggled}}, nil
	})
	return toggled, err
}

// SetCompleted marks the task with id completed or pending. It is a no-op
// when the task is already in that state.
func (r *Repository) SetCompleted(id string, done bool) (task.Task, error) {
	t, err := r.Get(id)
	if err != nil {
		return task.Task{}, err
	}
	if t.Completed == done {
		return t, nil
	}
	return r.Toggle(id)
}

// Edit applies p to the task with id.
func (r *Repository) Edit(id string, p task.Patch) (task.Task, error) {
	var edited task.Task
	err := r.mutate(func(tasks []task.Task) ([]task.Task, []Event, error) {
		i, err := find(tasks, id)
		if err != nil {
			return nil, nil, err
		}
		if err := tasks[i].Apply(p, r.clock.Now()); err != nil {
			return nil, nil, err
		}
		if err := task.Validate(tasks[i]); err != nil {
			return nil, nil, err
		}
		edited = tasks[i].Clone()
		return tasks, []Event{{Kind: EventEdited, Task: edited}}, nil
	})
	return edited, err
}

// Delete removes the task with id and returns it.
func (r *Repository) Delete(id string) (task.Task, error) {
	var removed task.Task
	err := r.mutate(func(tasks []task.Task) ([]task.Task, []Event, error) {
		i, err := find(tasks, id)
		if err != nil {
			return nil, nil, err
		}
		removed = tasks[i]
		next := append(tasks[:i:i], tasks[i+1:]...)
		return next, []Event{{Kind: EventDeleted, Task: removed.Clone()}}, nil
	})
	return removed, err
}

// Duplicate prepends a pending copy of the task with id.
func (r *Repository) Duplicate(id string) (task.Task, error) {
	var dup task.Task
	err := r.mutate(func(tasks []task.Task) ([]task.Task, []Event, error) {
		i, err := find(tasks, id)
		if err != nil {
			return nil, nil, err
		}
		dup = tasks[i].Duplicate(r.ids.NewID(), r.clock.Now())
		next := append([]task.Task{dup}, tasks...)
		return next, []Event{{Kind: EventDuplicated, Task: dup.Clone()}}, nil
	})
	return dup, err
}

// ClearCompleted removes every completed task and returns how many were removed.
// Nothing is written when no task is completed.
func (r *Repository) ClearCompleted() (int, error) {
	var cleared int
	err := r.mutate(func(tasks []task.Task) ([]task.Task, []Event, error) {
		next := make([]task.Task, 0, len(tasks))
		var events []Event
		for _, t := range tasks {
			if t.Completed {
				events = append(events, Event{Kind: EventCleared, Task: t})
				continue
			}
			next = append(next, t)
		}
		cleared = len(events)
		if cleared == 0 {
			return nil, nil, errNothingToDo
		}
		return next, events, nil
	})
	if errors.Is(err, errNothingToDo) {
		return 0, nil
	}
	return cleared, err
}

// AddSubtask appends a subtask to the task with id.
func (r *Repository) AddSubtask(id, text string) (task.Subtask, error) {
	var sub task.Subtask
	err := r.mutate(func(tasks []task.Task) ([]task.Task, []Event, error) {
		i, err := find(tasks, id)
		if err != nil {
			return nil, nil, err
		}
		sub, err = task.NewSubtask(text, r.ids)
		if err != nil {
			return nil, nil, err
		}
		tasks[i].Subtasks = append(tasks[i].Subtasks, sub)
		touch(&tasks[i], r)
		return tasks, []Event{{Kind: EventEdited, Task: tasks[i].Clone()}}, nil
	})
	return sub, err
}

// ToggleSubtask flips the completion state of subtask sid on task id.
func (r *Repository) ToggleSubtask(id, sid string) (task.Subtask, error) {
	var sub task.Subtask
	err := r.mutate(func(tasks []task.Task) ([]task.Task, []Event, error) {
		i, j, err := findSubtask(tasks, id, sid)
		if err != nil {
			return nil, nil, err
		}
		tasks[i].Subtasks[j].Completed = !tasks[i].Subtasks[j].Completed
		sub = tasks[i].Subtasks[j]
		touch(&tasks[i], r)
		return tasks, []Event{{Kind: EventEdited, Task: tasks[i].Clone()}}, nil
	})
	return sub, err
}

// RemoveSubtask deletes subtask sid from task id.
func (r *Repository) RemoveSubtask(id, sid string) error {
	return r.mutate(func(tasks []task.Task) ([]task.Task, []Event, error) {
		i, j, err := findSubtask(tasks, id, sid)
		if err != nil {
			return nil, nil, err
		}
		subs := tasks[i].Subtasks
		tasks[i].Subtasks = append(subs[:j:j], subs[j+1:]...)
		touch(&tasks[i], r)
		return tasks, []Event{{Kind: EventEdited, Task: tasks[i].Clone()}}, nil
	})
}

var errNothingToDo = errors.New("nothing to do")

func touch(t *task.Task, r *Repository) {
	now := r.clock.Now()
	t.UpdatedAt = &now
}

func find(tasks []task.Task, id string) (int, error) {
	i := indexOf(tasks, id)
	if i < 0 {
		return -1, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return i, nil
}

func findSubtask(tasks []task.Task, id, sid string) (int, int, error) {
	i, err := find(tasks, id)
	if err != nil {
		return -1, -1, err
	}
	j := tasks[i].SubtaskIndex(sid)
	if j < 0 {
		return -1, -1, fmt.Errorf("%w: subtask %s of %s", ErrNotFound, sid, id)
	}
	return i, j, nil
}
