package model

// SanitizeTasks normalizes tasks read from any ingestion boundary: missing
// subtasks become an empty slice, a missing status is derived from Completed,
// and Completed is re-derived from the status.
func SanitizeTasks(tasks []Task) []Task {
	out := make([]Task, 0, len(tasks))
	for _, t := range tasks {
		if t.Subtasks == nil {
			t.Subtasks = []SubTask{}
		}
		if _, err := ParseStatus(string(t.Status)); err != nil {
			t.Status = ""
		}
		t.Status = t.Column()
		t.Completed = t.Status == StatusDone
		out = append(out, t)
	}
	return out
}

// SanitizeGoals gives goals a non-nil key result list and recomputes progress.
func SanitizeGoals(goals []Goal) []Goal {
	out := make([]Goal, 0, len(goals))
	for _, g := range goals {
		if g.KeyResults == nil {
			g.KeyResults = []KeyResult{}
		}
		g.Progress = clamp(g.Progress, 0, 100)
		g.Recompute()
		out = append(out, g)
	}
	return out
}

// SanitizeUserState clamps numeric fields into their valid ranges.
func SanitizeUserState(u UserState) UserState {
	if u.XP < 0 {
		u.XP = 0
	}
	if u.WeeklyVictory != nil {
		v := *u.WeeklyVictory
		v.Progress = clamp(v.Progress, 0, 100)
		u.WeeklyVictory = &v
	}
	return u
}

// CloneGoals returns a deep copy.
func CloneGoals(goals []Goal) []Goal {
	out := make([]Goal, len(goals))
	for i, g := range goals {
		g.KeyResults = append([]KeyResult(nil), g.KeyResults...)
		if g.KeyResults == nil {
			g.KeyResults = []KeyResult{}
		}
		out[i] = g
	}
	return out
}

// CloneTasks returns a deep copy.
func CloneTasks(tasks []Task) []Task {
	out := make([]Task, len(tasks))
	for i, t := range tasks {
		t.Subtasks = append([]SubTask(nil), t.Subtasks...)
		if t.Subtasks == nil {
			t.Subtasks = []SubTask{}
		}
		out[i] = t
	}
	return out
}

// CloneUserState returns a deep copy.
func CloneUserState(u UserState) UserState {
	if u.WeeklyVictory != nil {
		v := *u.WeeklyVictory
		u.WeeklyVictory = &v
	}
	return u
}

// FindGoal returns the index of the goal with id, or -1.
func FindGoal(goals []Goal, id string) int {
	for i := range goals {
		if goals[i].ID == id {
			return i
		}
	}
	return -1
}

// FindTask returns the index of the task with id, or -1.
func FindTask(tasks []Task, id string) int {
	for i := range tasks {
		if tasks[i].ID == id {
			return i
		}
	}
	return -1
}

// GoalTitle resolves a task's goal link. Dangling links resolve to "".
func GoalTitle(goals []Goal, goalID string) string {
	if goalID == "" {
		return ""
	}
	if i := FindGoal(goals, goalID); i >= 0 {
		return goals[i].Title
	}
	return ""
}
