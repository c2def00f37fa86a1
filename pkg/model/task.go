package model

import (
	"fmt"

	"github.com/google/uuid"
)

// Status is a kanban column.
type Status string

const (
	StatusTodo       Status = "todo"
	StatusInProgress Status = "in-progress"
	StatusDone       Status = "done"
)

// ParseStatus validates a status string.
func ParseStatus(s string) (Status, error) {
	switch Status(s) {
	case StatusTodo, StatusInProgress, StatusDone:
		return Status(s), nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidStatus, s)
}

// SubTask is owned by its parent task.
type SubTask struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Completed bool   `json:"completed"`
}

// Task is a unit of work. Status is the source of truth; Completed mirrors
// Status == done and is kept on the wire for older readers.
type Task struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Urgent    bool      `json:"urgent"`
	Important bool      `json:"important"`
	Completed bool      `json:"completed"`
	Duration  int       `json:"duration"`
	GoalID    string    `json:"goalId,omitempty"`
	Status    Status    `json:"status,omitempty"`
	Subtasks  []SubTask `json:"subtasks"`
}

// NewTask returns a todo task with the default 30 minute duration.
func NewTask(title string) Task {
	return Task{
		ID:       uuid.NewString(),
		Title:    title,
		Duration: 30,
		Status:   StatusTodo,
		Subtasks: []SubTask{},
	}
}

// Column returns the board column, deriving it from Completed when Status is unset.
func (t Task) Column() Status {
	if t.Status != "" {
		return t.Status
	}
	if t.Completed {
		return StatusDone
	}
	return StatusTodo
}

// SetStatus moves the task to a column and keeps Completed in step.
func (t *Task) SetStatus(s Status) error {
	if _, err := ParseStatus(string(s)); err != nil {
		return err
	}
	t.Status = s
	t.Completed = s == StatusDone
	return nil
}

// Toggle flips completion. A done task goes back to todo; anything else,
// including in-progress, becomes done.
func (t *Task) Toggle() {
	if t.Column() == StatusDone {
		t.SetStatus(StatusTodo)
		return
	}
	t.SetStatus(StatusDone)
}

// TogglePriority flips the urgent or important flag.
func (t *Task) TogglePriority(field string) error {
	switch field {
	case "urgent":
		t.Urgent = !t.Urgent
	case "important":
		t.Important = !t.Important
	default:
		return fmt.Errorf("%w: %q", ErrInvalidField, field)
	}
	return nil
}

// AddSubTask appends a sub-task and returns it.
func (t *Task) AddSubTask(title string) SubTask {
	st := SubTask{ID: uuid.NewString(), Title: title}
	t.Subtasks = append(t.Subtasks, st)
	return st
}

// ToggleSubTask flips a sub-task's completion.
func (t *Task) ToggleSubTask(id string) error {
	for i := range t.Subtasks {
		if t.Subtasks[i].ID == id {
			t.Subtasks[i].Completed = !t.Subtasks[i].Completed
			return nil
		}
	}
	return ErrNotFound
}

// SubTaskProgress returns the share of completed sub-tasks as a percentage.
func (t Task) SubTaskProgress() int {
	if len(t.Subtasks) == 0 {
		return 0
	}
	done := 0
	for _, st := range t.Subtasks {
		if st.Completed {
			done++
		}
	}
	return done * 100 / len(t.Subtasks)
}
