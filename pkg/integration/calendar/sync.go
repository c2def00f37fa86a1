package calendar

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/mklimuk/focus-pilot/pkg/db"
	"github.com/mklimuk/focus-pilot/pkg/model"
)

// Mappings stores which event carries which goal's deadline.
type Mappings interface {
	GetCalendarSyncByGoalID(goalID string) (*db.CalendarSync, error)
	InsertCalendarSync(goalID, eventID, syncKey string) error
	UpdateCalendarSync(goalID, syncKey string) error
	ListCalendarSyncs() ([]db.CalendarSync, error)
	DeleteCalendarSync(goalID string) error
}

// GoalSource provides the goals to mirror.
type GoalSource interface {
	Goals() []model.Goal
}

// Report counts the outcome of one sync pass.
type Report struct {
	Created int
	Updated int
	Removed int
	Skipped int
	Failed  int
}

func (r Report) String() string {
	return fmt.Sprintf("created %d, updated %d, removed %d, skipped %d, failed %d",
		r.Created, r.Updated, r.Removed, r.Skipped, r.Failed)
}

// Syncer mirrors goal deadlines into a calendar as all-day events.
type Syncer struct {
	service CalendarAPI
	repo    Mappings
	logger  *zap.Logger
}

// NewSyncer creates a new calendar syncer.
func NewSyncer(service CalendarAPI, repo Mappings, logger *zap.Logger) *Syncer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Syncer{service: service, repo: repo, logger: logger}
}

// Sync creates an event for every goal with a deadline and updates events
// whose goal changed since the last pass. Goals without a valid deadline are
// skipped, and an event mirroring a goal that was deleted or lost its
// deadline is removed.
func (s *Syncer) Sync(ctx context.Context, goals []model.Goal) (Report, error) {
	var rep Report
	dated := make(map[string]bool, len(goals))
	for _, g := range goals {
		if err := ctx.Err(); err != nil {
			return rep, err
		}
		deadline, err := time.Parse(dateLayout, g.Deadline)
		if err != nil {
			rep.Skipped++
			continue
		}
		dated[g.ID] = true

		rec, err := s.repo.GetCalendarSyncByGoalID(g.ID)
		if err != nil {
			return rep, err
		}

		key := syncKey(g)
		evt := goalEvent(g, deadline)
		switch {
		case rec == nil:
			id, err := s.service.CreateEvent(ctx, evt)
			if err != nil {
				s.logger.Warn("calendar create failed", zap.String("goal", g.ID), zap.Error(err))
				rep.Failed++
				continue
			}
			if err := s.repo.InsertCalendarSync(g.ID, id, key); err != nil {
				return rep, err
			}
			rep.Created++
		case rec.SyncKey != key:
			if err := s.service.UpdateEvent(ctx, rec.EventID, evt); err != nil {
				s.logger.Warn("calendar update failed", zap.String("goal", g.ID), zap.Error(err))
				rep.Failed++
				continue
			}
			if err := s.repo.UpdateCalendarSync(g.ID, key); err != nil {
				return rep, err
			}
			rep.Updated++
		}
	}

	if err := s.prune(ctx, dated, &rep); err != nil {
		return rep, err
	}
	return rep, nil
}

func (s *Syncer) prune(ctx context.Context, dated map[string]bool, rep *Report) error {
	mappings, err := s.repo.ListCalendarSyncs()
	if err != nil {
		return err
	}
	for _, m := range mappings {
		if dated[m.GoalID] {
			continue
		}
		if err := s.service.DeleteEvent(ctx, m.EventID); err != nil {
			s.logger.Warn("calendar delete failed", zap.String("goal", m.GoalID), zap.Error(err))
			rep.Failed++
			continue
		}
		if err := s.repo.DeleteCalendarSync(m.GoalID); err != nil {
			return err
		}
		rep.Removed++
	}
	return nil
}

// Job returns a scheduler action syncing the current goals.
func Job(src GoalSource, s *Syncer) func(ctx context.Context) (string, error) {
	return func(ctx context.Context) (string, error) {
		rep, err := s.Sync(ctx, src.Goals())
		if err != nil {
			return rep.String(), fmt.Errorf("calendar sync: %w", err)
		}
		return rep.String(), nil
	}
}

func goalEvent(g model.Goal, deadline time.Time) Event {
	var desc strings.Builder
	if g.Objective != "" {
		fmt.Fprintf(&desc, "%s\n\n", g.Objective)
	}
	fmt.Fprintf(&desc, "Progress: %d%%\n", g.Progress)
	for _, kr := range g.KeyResults {
		mark := " "
		if kr.Completed {
			mark = "x"
		}
		fmt.Fprintf(&desc, "[%s] %s\n", mark, kr.Text)
	}
	return Event{
		Summary:     "Goal deadline: " + g.Title,
		Description: desc.String(),
		Date:        deadline,
	}
}

func syncKey(g model.Goal) string {
	return fmt.Sprintf("%s|%s|%d|%d", g.Title, g.Deadline, g.Progress, len(g.KeyResults))
}
