package ai

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mklimuk/focus-pilot/pkg/model"
)

// AdvicePrompt asks for three or four pieces of advice, at least one of them
// about the weekly victory.
func AdvicePrompt(goals []model.Goal, tasks []model.Task, user model.UserState) string {
	focus := "Not set yet"
	if v := user.WeeklyVictory; v != nil {
		focus = fmt.Sprintf("%s - %s. Expected outcome: %s", v.Title, v.Description, v.Reward)
	}
	who := "an entrepreneur and educator"
	if user.Name != "" {
		who = fmt.Sprintf("%q, an entrepreneur and educator", user.Name)
	}

	goalsJSON, _ := json.Marshal(goals)
	tasksJSON, _ := json.Marshal(tasks)

	return fmt.Sprintf(`
You are an AI strategy partner for %s influenced by Peter Drucker and Stephen Covey.

Mission: %s
Vision: %s

CRITICAL FOCUS FOR THE WEEK (the weekly victory): %s.

Overall strategic goals: %s
Daily tasks: %s

Instructions:
1. Give 3-4 pieces of advice in a witty, professional and encouraging tone.
2. At least one piece of advice must directly relate to achieving the weekly victory.
3. Focus on the 80/20 rule.

Output as a JSON array of objects with "title" and "content" properties.
`, who, user.Mission, user.Vision, focus, goalsJSON, tasksJSON)
}

// ReviewPrompt asks for a short weekly review of the dashboard.
func ReviewPrompt(summary model.Summary, victory model.WeeklyVictory, openTasks []string) string {
	var list strings.Builder
	for _, t := range openTasks {
		fmt.Fprintf(&list, "- %s\n", t)
	}

	return fmt.Sprintf(`
You are a productivity coach. Help me write this week's review.

Context:
- Goals: %d, average progress %d%%
- Tasks done: %d of %d
- Weekly victory: %s (%d%%)
- Open tasks:
%s
Instructions:
1. Summarize where the week stands in two sentences.
2. Suggest the 3 priorities for next week.
3. End with one reflection question.

Output as plain Markdown.
`, summary.Goals, summary.AverageProgress, summary.CompletedTasks, summary.Tasks, victory.Title, victory.Progress, list.String())
}
