package api

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/mklimuk/focus-pilot/pkg/model"
	"github.com/mklimuk/focus-pilot/pkg/remote"
	"github.com/mklimuk/focus-pilot/pkg/state"
)

// errInvalidCategory is returned for a goal category outside the known set.
var errInvalidCategory = errors.New("invalid goal category")

// toHTTPError maps domain errors to HTTP status codes.
func toHTTPError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, model.ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.Is(err, model.ErrInvalidStatus),
		errors.Is(err, model.ErrInvalidField),
		errors.Is(err, state.ErrEmptyTitle),
		errors.Is(err, errInvalidCategory):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, remote.ErrPushFailed):
		return echo.NewHTTPError(http.StatusBadGateway, err.Error())
	}
	return echo.NewHTTPError(http.StatusInternalServerError, err.Error()).SetInternal(err)
}

func badRequest(msg string) error {
	return echo.NewHTTPError(http.StatusBadRequest, msg)
}
