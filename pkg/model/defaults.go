package model

// DefaultGoals seeds a fresh install.
func DefaultGoals() []Goal {
	return []Goal{
		{
			ID:        "1",
			Title:     "Creative Kids curriculum 2.0",
			Objective: "Update the learning content for the digital shift",
			Category:  CategoryWork,
			Deadline:  "2024-06-30",
			Progress:  33,
			KeyResults: []KeyResult{
				{ID: "k1", Text: "Finish 10 new learning units", Completed: true},
				{ID: "k2", Text: "Design the new user interface"},
				{ID: "k3", Text: "Pilot the curriculum with 50 children"},
			},
		},
		{
			ID:        "2",
			Title:     "The Last Hero novel",
			Objective: "Publish the first draft of the novel",
			Category:  CategoryCreative,
			Deadline:  "2024-12-15",
			Progress:  50,
			KeyResults: []KeyResult{
				{ID: "k4", Text: "Write the first 5 chapters", Completed: true},
				{ID: "k5", Text: "Build the main characters"},
			},
		},
	}
}

// DefaultTasks seeds a fresh install.
func DefaultTasks() []Task {
	return []Task{
		{ID: "t1", Title: "Review the Q2 plan", Urgent: true, Important: true, Duration: 60, Status: StatusTodo, Subtasks: []SubTask{}},
		{ID: "t2", Title: "Prepare the investor pitch", Important: true, Duration: 90, Status: StatusTodo, Subtasks: []SubTask{}},
	}
}

// DefaultUserState seeds a fresh install.
func DefaultUserState() UserState {
	return UserState{
		XP:             1250,
		Level:          12,
		Mission:        "Empower the next generations through purposeful creative education that links technology with values.",
		Vision:         "Lead creative education in the region by 2030.",
		LastReviewDate: "2024-05-22",
		WeeklyVictory: &WeeklyVictory{
			Title:       "Ship the Creative Kids beta",
			Description: "Finish and test the first 5 interactive lessons.",
			Reward:      "The pride of the week",
			Progress:    35,
		},
	}
}

// DefaultBackendConfig is remote sync switched off.
func DefaultBackendConfig() BackendConfig {
	return BackendConfig{}
}
