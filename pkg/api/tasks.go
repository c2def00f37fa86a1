package api

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/mklimuk/focus-pilot/pkg/model"
)

type taskRequest struct {
	Title     string       `json:"title"`
	Urgent    bool         `json:"urgent"`
	Important bool         `json:"important"`
	Duration  int          `json:"duration"`
	GoalID    string       `json:"goalId"`
	Status    model.Status `json:"status"`
}

func (s *Server) handleListTasks(c echo.Context) error {
	filter := model.Filter(c.QueryParam("filter"))
	switch filter {
	case "", model.FilterAll, model.FilterActive, model.FilterCompleted:
	default:
		return badRequest("filter must be one of all, active, completed")
	}
	return c.JSON(http.StatusOK, model.FilterTasks(s.deps.State.Tasks(), filter))
}

func (s *Server) handleCreateTask(c echo.Context) error {
	var req taskRequest
	if err := c.Bind(&req); err != nil {
		return badRequest("invalid request body")
	}
	t, err := s.deps.State.AddTask(model.Task{
		Title:     req.Title,
		Urgent:    req.Urgent,
		Important: req.Important,
		Duration:  req.Duration,
		GoalID:    req.GoalID,
		Status:    req.Status,
	})
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusCreated, t)
}

func (s *Server) handleDeleteTask(c echo.Context) error {
	if err := s.deps.State.DeleteTask(c.Param("id")); err != nil {
		return toHTTPError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) handleToggleTask(c echo.Context) error {
	t, err := s.deps.State.ToggleTask(c.Param("id"))
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, t)
}

type statusRequest struct {
	Status model.Status `json:"status"`
}

func (s *Server) handleSetTaskStatus(c echo.Context) error {
	var req statusRequest
	if err := c.Bind(&req); err != nil {
		return badRequest("invalid request body")
	}
	t, err := s.deps.State.SetTaskStatus(c.Param("id"), req.Status)
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, t)
}

func (s *Server) handleTogglePriority(c echo.Context) error {
	t, err := s.deps.State.ToggleTaskPriority(c.Param("id"), c.Param("field"))
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, t)
}

type subTaskRequest struct {
	Title string `json:"title"`
}

func (s *Server) handleAddSubTask(c echo.Context) error {
	var req subTaskRequest
	if err := c.Bind(&req); err != nil {
		return badRequest("invalid request body")
	}
	t, err := s.deps.State.AddSubTask(c.Param("id"), req.Title)
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusCreated, t)
}

func (s *Server) handleToggleSubTask(c echo.Context) error {
	t, err := s.deps.State.ToggleSubTask(c.Param("id"), c.Param("subId"))
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, t)
}

func (s *Server) handleBoard(c echo.Context) error {
	return c.JSON(http.StatusOK, model.Board(s.deps.State.Tasks()))
}

func (s *Server) handleMatrix(c echo.Context) error {
	return c.JSON(http.StatusOK, model.Matrix(s.deps.State.Tasks()))
}
