package state

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/mklimuk/focus-pilot/pkg/model"
)

// ErrEmptyTitle is returned when a goal, task or key result has no title.
var ErrEmptyTitle = errors.New("title must not be empty")

// AddGoal appends a goal. Missing ids and key result ids are generated.
func (o *Orchestrator) AddGoal(g model.Goal) (model.Goal, error) {
	g.Title = strings.TrimSpace(g.Title)
	if g.Title == "" {
		return model.Goal{}, ErrEmptyTitle
	}
	if g.ID == "" {
		g.ID = uuid.NewString()
	}
	if g.Category == "" {
		g.Category = model.CategoryPersonal
	}
	for i := range g.KeyResults {
		if g.KeyResults[i].ID == "" {
			g.KeyResults[i].ID = uuid.NewString()
		}
	}
	g = model.SanitizeGoals([]model.Goal{g})[0]

	err := o.UpdateGoals(func(goals []model.Goal) ([]model.Goal, error) {
		return append(goals, g), nil
	})
	return g, err
}

// UpdateGoal applies fn to the goal with id.
func (o *Orchestrator) UpdateGoal(id string, fn func(*model.Goal) error) (model.Goal, error) {
	var out model.Goal
	err := o.UpdateGoals(func(goals []model.Goal) ([]model.Goal, error) {
		i := model.FindGoal(goals, id)
		if i < 0 {
			return nil, fmt.Errorf("goal %s: %w", id, model.ErrNotFound)
		}
		if err := fn(&goals[i]); err != nil {
			return nil, err
		}
		goals[i].Recompute()
		out = goals[i]
		return goals, nil
	})
	return out, err
}

// DeleteGoal removes a goal. Tasks linked to it keep their dangling goal id.
func (o *Orchestrator) DeleteGoal(id string) error {
	return o.UpdateGoals(func(goals []model.Goal) ([]model.Goal, error) {
		i := model.FindGoal(goals, id)
		if i < 0 {
			return nil, fmt.Errorf("goal %s: %w", id, model.ErrNotFound)
		}
		return append(goals[:i], goals[i+1:]...), nil
	})
}

// ToggleKeyResult flips a key result and recomputes the goal's progress.
func (o *Orchestrator) ToggleKeyResult(goalID, krID string) (model.Goal, error) {
	return o.UpdateGoal(goalID, func(g *model.Goal) error {
		if err := g.ToggleKeyResult(krID); err != nil {
			return fmt.Errorf("key result %s: %w", krID, err)
		}
		return nil
	})
}

// AddKeyResult appends an open key result to a goal.
func (o *Orchestrator) AddKeyResult(goalID, text string) (model.Goal, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return model.Goal{}, ErrEmptyTitle
	}
	return o.UpdateGoal(goalID, func(g *model.Goal) error {
		g.KeyResults = append(g.KeyResults, model.KeyResult{ID: uuid.NewString(), Text: text})
		return nil
	})
}

// AddTask appends a task after sanitizing it. An empty id is generated.
func (o *Orchestrator) AddTask(t model.Task) (model.Task, error) {
	t.Title = strings.TrimSpace(t.Title)
	if t.Title == "" {
		return model.Task{}, ErrEmptyTitle
	}
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	if t.Duration <= 0 {
		t.Duration = 30
	}
	if t.Status != "" {
		if _, err := model.ParseStatus(string(t.Status)); err != nil {
			return model.Task{}, err
		}
	}
	t = model.SanitizeTasks([]model.Task{t})[0]

	err := o.UpdateTasks(func(tasks []model.Task) ([]model.Task, error) {
		return append(tasks, t), nil
	})
	return t, err
}

// UpdateTask applies fn to the task with id.
func (o *Orchestrator) UpdateTask(id string, fn func(*model.Task) error) (model.Task, error) {
	var out model.Task
	err := o.UpdateTasks(func(tasks []model.Task) ([]model.Task, error) {
		i := model.FindTask(tasks, id)
		if i < 0 {
			return nil, fmt.Errorf("task %s: %w", id, model.ErrNotFound)
		}
		if err := fn(&tasks[i]); err != nil {
			return nil, err
		}
		out = tasks[i]
		return tasks, nil
	})
	return out, err
}

// DeleteTask removes a task and its sub-tasks.
func (o *Orchestrator) DeleteTask(id string) error {
	return o.UpdateTasks(func(tasks []model.Task) ([]model.Task, error) {
		i := model.FindTask(tasks, id)
		if i < 0 {
			return nil, fmt.Errorf("task %s: %w", id, model.ErrNotFound)
		}
		return append(tasks[:i], tasks[i+1:]...), nil
	})
}

// ToggleTask flips completion: done goes back to todo, anything else is done.
func (o *Orchestrator) ToggleTask(id string) (model.Task, error) {
	return o.UpdateTask(id, func(t *model.Task) error {
		t.Toggle()
		return nil
	})
}

// SetTaskStatus moves a task to a kanban column.
func (o *Orchestrator) SetTaskStatus(id string, s model.Status) (model.Task, error) {
	return o.UpdateTask(id, func(t *model.Task) error {
		return t.SetStatus(s)
	})
}

// ToggleTaskPriority flips the urgent or important flag.
func (o *Orchestrator) ToggleTaskPriority(id, field string) (model.Task, error) {
	return o.UpdateTask(id, func(t *model.Task) error {
		return t.TogglePriority(field)
	})
}

// AddSubTask appends a sub-task to a task.
func (o *Orchestrator) AddSubTask(taskID, title string) (model.Task, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return model.Task{}, ErrEmptyTitle
	}
	return o.UpdateTask(taskID, func(t *model.Task) error {
		t.AddSubTask(title)
		return nil
	})
}

// ToggleSubTask flips a sub-task's completion.
func (o *Orchestrator) ToggleSubTask(taskID, subID string) (model.Task, error) {
	return o.UpdateTask(taskID, func(t *model.Task) error {
		if err := t.ToggleSubTask(subID); err != nil {
			return fmt.Errorf("subtask %s: %w", subID, err)
		}
		return nil
	})
}

// Profile holds the editable profile fields. Nil fields are left unchanged.
type Profile struct {
	Mission *string `json:"mission"`
	Vision  *string `json:"vision"`
	Name    *string `json:"name"`
	Avatar  *string `json:"avatar"`
}

// UpdateProfile edits mission, vision, name and avatar.
func (o *Orchestrator) UpdateProfile(p Profile) (model.UserState, error) {
	var out model.UserState
	err := o.UpdateUserStats(func(u model.UserState) (model.UserState, error) {
		if p.Mission != nil {
			u.Mission = *p.Mission
		}
		if p.Vision != nil {
			u.Vision = *p.Vision
		}
		if p.Name != nil {
			u.Name = *p.Name
		}
		if p.Avatar != nil {
			u.Avatar = *p.Avatar
		}
		out = u
		return u, nil
	})
	return out, err
}

// AddXP awards experience points.
func (o *Orchestrator) AddXP(n int) (model.UserState, error) {
	var out model.UserState
	err := o.UpdateUserStats(func(u model.UserState) (model.UserState, error) {
		u.AddXP(n)
		out = u
		return u, nil
	})
	return out, err
}

// SetWeeklyVictory replaces the weekly victory.
func (o *Orchestrator) SetWeeklyVictory(v model.WeeklyVictory) (model.UserState, error) {
	if strings.TrimSpace(v.Title) == "" {
		return model.UserState{}, ErrEmptyTitle
	}
	var out model.UserState
	err := o.UpdateUserStats(func(u model.UserState) (model.UserState, error) {
		u.WeeklyVictory = &v
		u = model.SanitizeUserState(u)
		out = u
		return u, nil
	})
	return out, err
}

// MarkReviewed stamps the last weekly review date.
func (o *Orchestrator) MarkReviewed(date string) (model.UserState, error) {
	var out model.UserState
	err := o.UpdateUserStats(func(u model.UserState) (model.UserState, error) {
		u.LastReviewDate = date
		out = u
		return u, nil
	})
	return out, err
}
