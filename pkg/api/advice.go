package api

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/mklimuk/focus-pilot/pkg/ai"
)

// AdviceResponse carries the advice list. Fallback is set when the provider
// failed and the canned advice is shown instead.
type AdviceResponse struct {
	Advice   []ai.Advice `json:"advice"`
	Fallback bool        `json:"fallback"`
}

func (s *Server) handleAdvice(c echo.Context) error {
	if !s.limiter.Allow() {
		s.countAdvice("limited")
		return echo.NewHTTPError(http.StatusTooManyRequests, "advice requested too often, try again in a minute")
	}

	var advice []ai.Advice
	var err error
	if s.deps.Advisor == nil {
		advice, err = ai.FallbackAdvice, ai.ErrNoProvider
	} else {
		snap := s.deps.State.Snapshot()
		advice, err = s.deps.Advisor.Advise(c.Request().Context(), snap.Goals, snap.Tasks, snap.UserStats)
	}

	if err != nil {
		s.logger.Warn("serving fallback advice", zap.Error(err))
		s.countAdvice("fallback")
		return c.JSON(http.StatusOK, AdviceResponse{Advice: advice, Fallback: true})
	}
	s.countAdvice("success")
	return c.JSON(http.StatusOK, AdviceResponse{Advice: advice})
}

func (s *Server) countAdvice(status string) {
	if s.deps.Metrics != nil {
		s.deps.Metrics.AdviceTotal.WithLabelValues(status).Inc()
	}
}
