package httpserver

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/Skotchmaster/marketplace/internal/service"
	"github.com/Skotchmaster/marketplace/pkg/logging"
	authmw "github.com/Skotchmaster/marketplace/pkg/middleware/auth"
	"github.com/labstack/echo/v4"
)

var sentinels = []struct {
	err    error
	status int
}{
	{service.ErrValidation, http.StatusBadRequest},
	{service.ErrConflict, http.StatusBadRequest},
	{service.ErrUnauthorized, http.StatusUnauthorized},
	{service.ErrForbidden, http.StatusForbidden},
	{service.ErrNotFound, http.StatusNotFound},
	{service.ErrPaymentGateway, http.StatusBadGateway},
}

// statusOf maps a service error to a status code and the message shown to
// the client, with the sentinel prefix removed.
func statusOf(err error) (int, string) {
	for _, s := range sentinels {
		if errors.Is(err, s.err) {
			msg := err.Error()
			if i := strings.LastIndex(msg, s.err.Error()+": "); i >= 0 {
				msg = msg[i+len(s.err.Error())+2:]
			}
			return s.status, msg
		}
	}
	return http.StatusInternalServerError, "internal error"
}

// fail logs err under event and converts it to an echo error.
func fail(l *slog.Logger, event string, err error) error {
	status, msg := statusOf(err)
	if status >= 500 {
		l.Error(event, "status", status, "reason", msg, "error", err)
	} else {
		l.Warn(event, "status", status, "reason", msg, "error", err)
	}
	return echo.NewHTTPError(status, msg)
}

func badRequest(l *slog.Logger, event, reason string, err error) error {
	l.Warn(event, "status", 400, "reason", reason, "error", err)
	return echo.NewHTTPError(http.StatusBadRequest, reason)
}

// userID reads the authenticated subject stored by the auth middleware.
func userID(c echo.Context) (uint, error) {
	s, ok := c.Get(authmw.CtxUserID).(string)
	if !ok || s == "" {
		return 0, echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	id, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	return uint(id), nil
}

func actor(c echo.Context) (service.Actor, error) {
	id, err := userID(c)
	if err != nil {
		return service.Actor{}, err
	}
	role, _ := c.Get(authmw.CtxRole).(string)
	return service.Actor{ID: id, Role: role}, nil
}

func paramID(c echo.Context, name string) (uint, error) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		return 0, errors.New(name + " is not a positive integer")
	}
	return uint(id), nil
}

// ErrorHandler renders every error as {"error": message}. Errors that are
// not HTTP errors are hidden behind a generic 500.
func ErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}
	code, msg := http.StatusInternalServerError, any("internal error")
	var he *echo.HTTPError
	if errors.As(err, &he) {
		code, msg = he.Code, he.Message
	} else {
		logging.FromContext(c.Request().Context()).Error("unhandled_error", "status", code, "error", err)
	}

	if c.Request().Method == http.MethodHead {
		err = c.NoContent(code)
	} else {
		err = c.JSON(code, echo.Map{"error": msg})
	}
	if err != nil {
		logging.FromContext(c.Request().Context()).Warn("error_response_failed", "error", err)
	}
}
