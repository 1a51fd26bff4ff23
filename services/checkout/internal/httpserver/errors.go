package httpserver

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/storefront/services/checkout/internal/domain"
)

type errorBody struct {
	Status  string            `json:"status"`
	Message any               `json:"message"`
	Details map[string]string `json:"details,omitempty"`
}

func statusOf(err error) int {
	switch {
	case errors.Is(err, domain.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrConflict), errors.Is(err, domain.ErrInactive):
		return http.StatusConflict
	case errors.Is(err, domain.ErrExternalDependency):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// fail logs err under op and turns it into an echo error. Server-side
// failures keep their detail in the log only.
func fail(l *slog.Logger, op string, err error) error {
	status := statusOf(err)
	switch {
	case status == http.StatusBadGateway:
		l.Error(op, "status", status, "error", err)
		return echo.NewHTTPError(status, "upstream service unavailable, please retry").SetInternal(err)
	case status >= http.StatusInternalServerError:
		l.Error(op, "status", status, "error", err)
		return echo.NewHTTPError(status, "internal error").SetInternal(err)
	}
	l.Warn(op, "status", status, "reason", err.Error())
	return echo.NewHTTPError(status, err.Error()).SetInternal(err)
}

func badRequest(l *slog.Logger, op, reason string, err error) error {
	l.Warn(op, "status", http.StatusBadRequest, "reason", reason, "error", err)
	return echo.NewHTTPError(http.StatusBadRequest, reason)
}

// ErrorHandler renders every error as {"status":"error","message":...}.
func ErrorHandler(e *echo.Echo) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		body := errorBody{Status: "error", Message: http.StatusText(http.StatusInternalServerError)}
		code := http.StatusInternalServerError

		var he *echo.HTTPError
		var ve *ValidationError
		switch {
		case errors.As(err, &ve):
			code = http.StatusBadRequest
			body.Message = "validation failed"
			body.Details = ve.Fields
		case errors.As(err, &he):
			code = he.Code
			body.Message = he.Message
			if errors.As(he.Internal, &ve) {
				body.Details = ve.Fields
			}
		default:
			code = statusOf(err)
			if code < http.StatusInternalServerError {
				body.Message = err.Error()
			}
		}

		var werr error
		if c.Request().Method == http.MethodHead {
			werr = c.NoContent(code)
		} else {
			werr = c.JSON(code, body)
		}
		if werr != nil {
			e.Logger.Error(werr)
		}
	}
}
