package api

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/mklimuk/focus-pilot/pkg/model"
	"github.com/mklimuk/focus-pilot/pkg/state"
)

// DashboardResponse is the landing view.
type DashboardResponse struct {
	User    model.UserState     `json:"userStats"`
	Victory model.WeeklyVictory `json:"victory"`
	Summary model.Summary       `json:"summary"`
	Sync    state.Status        `json:"sync"`
}

func (s *Server) handleDashboard(c echo.Context) error {
	snap := s.deps.State.Snapshot()
	return c.JSON(http.StatusOK, DashboardResponse{
		User:    snap.UserStats,
		Victory: model.VictoryOrPlaceholder(snap.UserStats),
		Summary: model.Summarize(snap.Goals, snap.Tasks),
		Sync:    s.deps.State.Status(),
	})
}

func (s *Server) handleUpdateProfile(c echo.Context) error {
	var req state.Profile
	if err := c.Bind(&req); err != nil {
		return badRequest("invalid request body")
	}
	u, err := s.deps.State.UpdateProfile(req)
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, u)
}

type xpRequest struct {
	Amount int `json:"amount"`
}

func (s *Server) handleAddXP(c echo.Context) error {
	var req xpRequest
	if err := c.Bind(&req); err != nil {
		return badRequest("invalid request body")
	}
	if req.Amount <= 0 {
		return badRequest("amount must be positive")
	}
	u, err := s.deps.State.AddXP(req.Amount)
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, u)
}

func (s *Server) handlePlanner(c echo.Context) error {
	snap := s.deps.State.Snapshot()
	return c.JSON(http.StatusOK, model.Planner(snap.Goals, snap.Tasks, snap.UserStats))
}

type plannerTaskRequest struct {
	Title    string `json:"title"`
	GoalID   string `json:"goalId"`
	Duration int    `json:"duration"`
}

// handleCreatePlannerTask adds an important task, optionally linked to a goal.
func (s *Server) handleCreatePlannerTask(c echo.Context) error {
	var req plannerTaskRequest
	if err := c.Bind(&req); err != nil {
		return badRequest("invalid request body")
	}
	if req.GoalID != "" && model.FindGoal(s.deps.State.Goals(), req.GoalID) < 0 {
		return toHTTPError(model.ErrNotFound)
	}
	t, err := s.deps.State.AddTask(model.Task{
		Title:     req.Title,
		GoalID:    req.GoalID,
		Duration:  req.Duration,
		Important: true,
	})
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusCreated, t)
}

func (s *Server) handleSetVictory(c echo.Context) error {
	var req model.WeeklyVictory
	if err := c.Bind(&req); err != nil {
		return badRequest("invalid request body")
	}
	u, err := s.deps.State.SetWeeklyVictory(req)
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, u.WeeklyVictory)
}
