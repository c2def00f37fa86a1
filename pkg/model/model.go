package model

import (
	"errors"
	"math"
)

var (
	// ErrNotFound is returned when an entity id does not exist in a collection.
	ErrNotFound = errors.New("not found")
	// ErrInvalidStatus is returned for a kanban status outside todo/in-progress/done.
	ErrInvalidStatus = errors.New("invalid task status")
	// ErrInvalidField is returned when a priority field name is not urgent or important.
	ErrInvalidField = errors.New("invalid priority field")
)

// Category groups goals on the tracker.
type Category string

const (
	CategoryPersonal Category = "Personal"
	CategoryWork     Category = "Work"
	CategoryCreative Category = "Creative"
)

// Valid reports whether c is one of the known categories.
func (c Category) Valid() bool {
	switch c {
	case CategoryPersonal, CategoryWork, CategoryCreative:
		return true
	}
	return false
}

// KeyResult is a measurable completion criterion of a goal.
type KeyResult struct {
	ID        string `json:"id"`
	Text      string `json:"text"`
	Completed bool   `json:"completed"`
}

// Goal is an OKR: an objective with key results.
type Goal struct {
	ID         string      `json:"id"`
	Title      string      `json:"title"`
	Objective  string      `json:"objective"`
	KeyResults []KeyResult `json:"keyResults"`
	Category   Category    `json:"category"`
	Deadline   string      `json:"deadline"`
	Progress   int         `json:"progress"`
}

// Recompute derives progress from key results. Goals without key results keep
// their manually set progress.
func (g *Goal) Recompute() {
	if len(g.KeyResults) == 0 {
		return
	}
	done := 0
	for _, kr := range g.KeyResults {
		if kr.Completed {
			done++
		}
	}
	g.Progress = int(math.Round(100 * float64(done) / float64(len(g.KeyResults))))
}

// ToggleKeyResult flips one key result and recomputes progress.
func (g *Goal) ToggleKeyResult(krID string) error {
	for i := range g.KeyResults {
		if g.KeyResults[i].ID == krID {
			g.KeyResults[i].Completed = !g.KeyResults[i].Completed
			g.Recompute()
			return nil
		}
	}
	return ErrNotFound
}

// WeeklyVictory is the single highlighted priority of the current week.
type WeeklyVictory struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Reward      string `json:"reward"`
	Progress    int    `json:"progress"`
}

// UserState holds the profile and gamification stats.
type UserState struct {
	XP             int            `json:"xp"`
	Level          int            `json:"level"`
	Mission        string         `json:"mission"`
	Vision         string         `json:"vision"`
	LastReviewDate string         `json:"lastReviewDate"`
	Name           string         `json:"name,omitempty"`
	Avatar         string         `json:"avatar,omitempty"`
	WeeklyVictory  *WeeklyVictory `json:"weeklyVictory,omitempty"`
}

// Snapshot is the full state pushed to the remote endpoint.
type Snapshot struct {
	Goals     []Goal    `json:"goals"`
	Tasks     []Task    `json:"tasks"`
	UserStats UserState `json:"userStats"`
}

// RemoteSnapshot is a pulled snapshot. Nil fields were absent from the response.
type RemoteSnapshot struct {
	Goals     *[]Goal    `json:"goals,omitempty"`
	Tasks     *[]Task    `json:"tasks,omitempty"`
	UserStats *UserState `json:"userStats,omitempty"`
}

// BackendConfig configures the remote mirror.
type BackendConfig struct {
	BaseURL string `json:"baseUrl"`
	Token   string `json:"token"`
	UserID  string `json:"userId"`
	Enabled bool   `json:"enabled"`
}

// Active reports whether remote sync should run at all.
func (c BackendConfig) Active() bool {
	return c.Enabled && c.BaseURL != ""
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// AddXP adds experience points, never dropping below zero, and recomputes the
// level at one level per hundred points.
func (u *UserState) AddXP(n int) {
	u.XP += n
	if u.XP < 0 {
		u.XP = 0
	}
	u.Level = u.XP / 100
	if u.Level < 1 {
		u.Level = 1
	}
}
