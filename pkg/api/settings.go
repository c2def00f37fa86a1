package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/mklimuk/focus-pilot/pkg/model"
	"github.com/mklimuk/focus-pilot/pkg/remote"
)

const redacted = "********"

// BackendResponse is the sync configuration with the token hidden.
type BackendResponse struct {
	BaseURL  string `json:"baseUrl"`
	UserID   string `json:"userId"`
	Enabled  bool   `json:"enabled"`
	Token    string `json:"token"`
	HasToken bool   `json:"hasToken"`
}

func (s *Server) handleGetBackend(c echo.Context) error {
	cfg, err := s.deps.Backend.BackendConfig()
	if err != nil {
		return toHTTPError(err)
	}
	resp := BackendResponse{
		BaseURL:  cfg.BaseURL,
		UserID:   cfg.UserID,
		Enabled:  cfg.Enabled,
		HasToken: cfg.Token != "",
	}
	if resp.HasToken {
		resp.Token = redacted
	}
	return c.JSON(http.StatusOK, resp)
}

// handlePutBackend replaces the sync configuration. Sending back the redacted
// placeholder keeps the stored token.
func (s *Server) handlePutBackend(c echo.Context) error {
	var req model.BackendConfig
	if err := c.Bind(&req); err != nil {
		return badRequest("invalid request body")
	}
	req.BaseURL = strings.TrimSpace(req.BaseURL)
	if req.Enabled && req.BaseURL == "" {
		return badRequest("baseUrl is required when sync is enabled")
	}

	if req.Token == redacted {
		current, err := s.deps.Backend.BackendConfig()
		if err != nil {
			return toHTTPError(err)
		}
		req.Token = current.Token
	}
	if err := s.deps.Backend.SaveBackendConfig(req); err != nil {
		return toHTTPError(err)
	}
	s.logger.Info("sync settings updated", zap.Bool("enabled", req.Enabled), zap.String("base_url", req.BaseURL))
	return s.handleGetBackend(c)
}

// handleSync pushes immediately. A disabled backend is reported as such with
// 200; a failed push returns the result with 502.
func (s *Server) handleSync(c echo.Context) error {
	res, err := s.deps.State.PushNow(c.Request().Context())
	if err != nil {
		if errors.Is(err, remote.ErrPushFailed) {
			return c.JSON(http.StatusBadGateway, res)
		}
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, res)
}

func (s *Server) handleSyncStatus(c echo.Context) error {
	return c.JSON(http.StatusOK, s.deps.State.Status())
}
