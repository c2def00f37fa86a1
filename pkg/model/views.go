package model

// Quadrant is a cell of the Eisenhower matrix.
type Quadrant string

const (
	QuadrantDo        Quadrant = "do"
	QuadrantSchedule  Quadrant = "schedule"
	QuadrantDelegate  Quadrant = "delegate"
	QuadrantEliminate Quadrant = "eliminate"
)

// Quadrants lists the matrix cells in display order.
var Quadrants = []Quadrant{QuadrantDo, QuadrantSchedule, QuadrantDelegate, QuadrantEliminate}

// QuadrantOf places a task by its urgent/important flags.
func QuadrantOf(t Task) Quadrant {
	switch {
	case t.Urgent && t.Important:
		return QuadrantDo
	case t.Important:
		return QuadrantSchedule
	case t.Urgent:
		return QuadrantDelegate
	default:
		return QuadrantEliminate
	}
}

// Matrix groups tasks by quadrant. Every quadrant is present, possibly empty.
func Matrix(tasks []Task) map[Quadrant][]Task {
	m := make(map[Quadrant][]Task, len(Quadrants))
	for _, q := range Quadrants {
		m[q] = []Task{}
	}
	for _, t := range tasks {
		q := QuadrantOf(t)
		m[q] = append(m[q], t)
	}
	return m
}

// Board groups tasks by kanban column.
func Board(tasks []Task) map[Status][]Task {
	b := map[Status][]Task{
		StatusTodo:       {},
		StatusInProgress: {},
		StatusDone:       {},
	}
	for _, t := range tasks {
		c := t.Column()
		b[c] = append(b[c], t)
	}
	return b
}

// Filter selects tasks for the list view.
type Filter string

const (
	FilterAll       Filter = "all"
	FilterActive    Filter = "active"
	FilterCompleted Filter = "completed"
)

// FilterTasks applies a list filter. Unknown filters behave like all.
func FilterTasks(tasks []Task, f Filter) []Task {
	out := make([]Task, 0, len(tasks))
	for _, t := range tasks {
		switch f {
		case FilterActive:
			if t.Completed {
				continue
			}
		case FilterCompleted:
			if !t.Completed {
				continue
			}
		}
		out = append(out, t)
	}
	return out
}

// Summary aggregates counts shown on the dashboard.
type Summary struct {
	Goals            int `json:"goals"`
	AverageProgress  int `json:"averageProgress"`
	Tasks            int `json:"tasks"`
	CompletedTasks   int `json:"completedTasks"`
	CompletionRate   int `json:"completionRate"`
	PlannedMinutes   int `json:"plannedMinutes"`
	RemainingMinutes int `json:"remainingMinutes"`
}

// Summarize computes dashboard percentages.
func Summarize(goals []Goal, tasks []Task) Summary {
	s := Summary{Goals: len(goals), Tasks: len(tasks)}
	if len(goals) > 0 {
		total := 0
		for _, g := range goals {
			total += g.Progress
		}
		s.AverageProgress = total / len(goals)
	}
	for _, t := range tasks {
		s.PlannedMinutes += t.Duration
		if t.Completed {
			s.CompletedTasks++
		} else {
			s.RemainingMinutes += t.Duration
		}
	}
	if len(tasks) > 0 {
		s.CompletionRate = s.CompletedTasks * 100 / len(tasks)
	}
	return s
}

// PlaceholderVictory is shown when no weekly victory has been set.
var PlaceholderVictory = WeeklyVictory{
	Title:       "Set this week's sovereign victory",
	Description: "What single outcome would make this week a success?",
	Reward:      "The joy of achievement",
}

// VictoryOrPlaceholder returns the user's weekly victory or the placeholder.
func VictoryOrPlaceholder(u UserState) WeeklyVictory {
	if u.WeeklyVictory == nil {
		return PlaceholderVictory
	}
	return *u.WeeklyVictory
}

// TimeBlock is a fixed slot of the planner's day structure.
type TimeBlock struct {
	Time  string `json:"time"`
	Label string `json:"label"`
}

// DefaultTimeBlocks is the day structure used by the planner.
var DefaultTimeBlocks = []TimeBlock{
	{Time: "07:00", Label: "Dawn and mental quiet"},
	{Time: "09:00", Label: "Deep work"},
	{Time: "11:00", Label: "Operations"},
	{Time: "14:00", Label: "Meetings and calls"},
	{Time: "17:00", Label: "Learning"},
	{Time: "20:00", Label: "Family"},
}

// PlannerTask is a task annotated with the title of its linked goal.
type PlannerTask struct {
	Task
	GoalTitle string `json:"goalTitle,omitempty"`
}

// Plan is the planner view of a day.
type Plan struct {
	Victory    WeeklyVictory `json:"victory"`
	TimeBlocks []TimeBlock   `json:"timeBlocks"`
	Tasks      []PlannerTask `json:"tasks"`
	Remaining  int           `json:"remaining"`
}

// Planner builds the planner view.
func Planner(goals []Goal, tasks []Task, u UserState) Plan {
	p := Plan{
		Victory:    VictoryOrPlaceholder(u),
		TimeBlocks: DefaultTimeBlocks,
		Tasks:      make([]PlannerTask, 0, len(tasks)),
	}
	for _, t := range tasks {
		p.Tasks = append(p.Tasks, PlannerTask{Task: t, GoalTitle: GoalTitle(goals, t.GoalID)})
		if !t.Completed {
			p.Remaining++
		}
	}
	return p
}
