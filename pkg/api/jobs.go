package api

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/mklimuk/focus-pilot/pkg/automation"
)

// JobRunResponse reports a manual job run.
type JobRunResponse struct {
	Job    string `json:"job"`
	Output string `json:"output"`
	Error  string `json:"error,omitempty"`
}

func (s *Server) handleListJobs(c echo.Context) error {
	return c.JSON(http.StatusOK, s.deps.Jobs.Jobs())
}

func (s *Server) handleRunJob(c echo.Context) error {
	name := c.Param("name")
	out, err := s.deps.Jobs.RunNow(c.Request().Context(), name)
	if errors.Is(err, automation.ErrUnknownJob) {
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	}
	resp := JobRunResponse{Job: name, Output: out}
	if err != nil {
		resp.Error = err.Error()
		return c.JSON(http.StatusInternalServerError, resp)
	}
	return c.JSON(http.StatusOK, resp)
}
