package automation

import (
	"context"
	"fmt"
	"time"

	"github.com/mklimuk/focus-pilot/pkg/model"
)

// ReviewState is the part of the orchestrator the weekly review touches.
type ReviewState interface {
	Snapshot() model.Snapshot
	MarkReviewed(date string) (model.UserState, error)
}

// Reviewer writes a narrative review. *ai.Advisor implements it.
type Reviewer interface {
	Review(ctx context.Context, goals []model.Goal, tasks []model.Task, user model.UserState) (string, error)
}

// ReviewLog stores review summaries.
type ReviewLog interface {
	LogReview(weekOf, summary string) error
}

// WeeklyReview returns the job that stamps lastReviewDate and logs a review
// row. reviewer may be nil; a plain statistics summary is logged then, and
// also when the reviewer fails.
func WeeklyReview(state ReviewState, reviewer Reviewer, reviews ReviewLog, now func() time.Time) ActionFunc {
	if now == nil {
		now = time.Now
	}
	return func(ctx context.Context) (string, error) {
		today := now()
		weekOf := startOfWeek(today).Format("2006-01-02")
		snap := state.Snapshot()

		summary := plainSummary(snap)
		if reviewer != nil {
			if text, err := reviewer.Review(ctx, snap.Goals, snap.Tasks, snap.UserStats); err == nil && text != "" {
				summary = text
			}
		}

		if err := reviews.LogReview(weekOf, summary); err != nil {
			return "", err
		}
		if _, err := state.MarkReviewed(today.Format("2006-01-02")); err != nil {
			return "", fmt.Errorf("failed to stamp review date: %w", err)
		}
		return "review logged for week of " + weekOf, nil
	}
}

func plainSummary(snap model.Snapshot) string {
	s := model.Summarize(snap.Goals, snap.Tasks)
	v := model.VictoryOrPlaceholder(snap.UserStats)
	return fmt.Sprintf("Goals: %d (average progress %d%%). Tasks done: %d of %d. Weekly victory: %s (%d%%).",
		s.Goals, s.AverageProgress, s.CompletedTasks, s.Tasks, v.Title, v.Progress)
}

// startOfWeek returns the Monday of t's week at midnight.
func startOfWeek(t time.Time) time.Time {
	offset := (int(t.Weekday()) + 6) % 7
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location()).AddDate(0, 0, -offset)
}
