package api

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/mklimuk/focus-pilot/pkg/model"
	"github.com/mklimuk/focus-pilot/pkg/state"
)

type goalRequest struct {
	Title      string   `json:"title"`
	Objective  string   `json:"objective"`
	Category   string   `json:"category"`
	Deadline   string   `json:"deadline"`
	KeyResults []string `json:"keyResults"`
}

// goalPatch edits a goal. Nil fields are left unchanged.
type goalPatch struct {
	Title     *string `json:"title"`
	Objective *string `json:"objective"`
	Category  *string `json:"category"`
	Deadline  *string `json:"deadline"`
}

func (s *Server) handleListGoals(c echo.Context) error {
	return c.JSON(http.StatusOK, s.deps.State.Goals())
}

func (s *Server) handleCreateGoal(c echo.Context) error {
	var req goalRequest
	if err := c.Bind(&req); err != nil {
		return badRequest("invalid request body")
	}
	cat := model.Category(req.Category)
	if cat != "" && !cat.Valid() {
		return toHTTPError(errInvalidCategory)
	}

	g := model.Goal{
		Title:     req.Title,
		Objective: req.Objective,
		Category:  cat,
		Deadline:  req.Deadline,
	}
	for _, text := range req.KeyResults {
		if text = strings.TrimSpace(text); text != "" {
			g.KeyResults = append(g.KeyResults, model.KeyResult{Text: text})
		}
	}

	created, err := s.deps.State.AddGoal(g)
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusCreated, created)
}

func (s *Server) handleUpdateGoal(c echo.Context) error {
	var req goalPatch
	if err := c.Bind(&req); err != nil {
		return badRequest("invalid request body")
	}

	g, err := s.deps.State.UpdateGoal(c.Param("id"), func(g *model.Goal) error {
		if req.Title != nil {
			title := strings.TrimSpace(*req.Title)
			if title == "" {
				return state.ErrEmptyTitle
			}
			g.Title = title
		}
		if req.Objective != nil {
			g.Objective = *req.Objective
		}
		if req.Category != nil {
			cat := model.Category(*req.Category)
			if !cat.Valid() {
				return errInvalidCategory
			}
			g.Category = cat
		}
		if req.Deadline != nil {
			g.Deadline = *req.Deadline
		}
		return nil
	})
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, g)
}

func (s *Server) handleDeleteGoal(c echo.Context) error {
	if err := s.deps.State.DeleteGoal(c.Param("id")); err != nil {
		return toHTTPError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

type keyResultRequest struct {
	Text string `json:"text"`
}

func (s *Server) handleAddKeyResult(c echo.Context) error {
	var req keyResultRequest
	if err := c.Bind(&req); err != nil {
		return badRequest("invalid request body")
	}
	g, err := s.deps.State.AddKeyResult(c.Param("id"), req.Text)
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusCreated, g)
}

func (s *Server) handleToggleKeyResult(c echo.Context) error {
	g, err := s.deps.State.ToggleKeyResult(c.Param("id"), c.Param("krId"))
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, g)
}
