package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/mklimuk/focus-pilot/pkg/auth"
)

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginResponse is returned by POST /api/login.
type LoginResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
	Username  string    `json:"username"`
}

func (s *Server) handleLogin(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return badRequest("invalid request body")
	}
	if req.Username == "" || req.Password == "" {
		return badRequest("username and password are required")
	}

	if err := s.deps.Verifier.Verify(req.Username, req.Password); err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			s.logger.Info("login rejected", zap.String("user", req.Username))
			return echo.NewHTTPError(http.StatusUnauthorized, "invalid username or password")
		}
		return toHTTPError(err)
	}

	token, exp, err := s.deps.Sessions.Issue(req.Username)
	if err != nil {
		return toHTTPError(err)
	}
	c.SetCookie(&http.Cookie{
		Name:     auth.CookieName,
		Value:    token,
		Path:     "/",
		Expires:  exp,
		HttpOnly: true,
		Secure:   s.config.SecureCookie,
		SameSite: http.SameSiteStrictMode,
	})
	return c.JSON(http.StatusOK, LoginResponse{Token: token, ExpiresAt: exp, Username: req.Username})
}

func (s *Server) handleLogout(c echo.Context) error {
	if err := s.deps.Sessions.Revoke(auth.TokenFrom(c)); err != nil {
		s.logger.Debug("logout of unknown session", zap.Error(err))
	}
	c.SetCookie(&http.Cookie{
		Name:     auth.CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   s.config.SecureCookie,
	})
	return c.NoContent(http.StatusNoContent)
}
