package auth

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
)

// CookieName carries the session token for browser clients.
const CookieName = "focus_session"

const subjectKey = "auth_subject"

// Middleware rejects requests without a valid session. The token is read from
// the Authorization bearer header, then from the session cookie.
func Middleware(s *Sessions) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token := TokenFrom(c)
			if token == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "login required")
			}
			subject, err := s.Validate(token)
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "session expired, please log in again")
			}
			c.Set(subjectKey, subject)
			return next(c)
		}
	}
}

// TokenFrom extracts the session token from a request.
func TokenFrom(c echo.Context) string {
	if h := c.Request().Header.Get(echo.HeaderAuthorization); strings.HasPrefix(h, "Bearer ") {
		return strings.TrimPrefix(h, "Bearer ")
	}
	if cookie, err := c.Cookie(CookieName); err == nil {
		return cookie.Value
	}
	return ""
}

// Subject returns the authenticated username set by Middleware.
func Subject(c echo.Context) string {
	s, _ := c.Get(subjectKey).(string)
	return s
}
