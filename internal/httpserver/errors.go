package httpserver

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/storefront/internal/service"
	"github.com/Skotchmaster/storefront/internal/transport"
	"github.com/Skotchmaster/storefront/internal/validation"
	middleware "github.com/Skotchmaster/storefront/pkg/middleware/auth"
)

func statusOf(err error) (int, string) {
	var redirect *service.RedirectError
	switch {
	case errors.As(err, &redirect):
		return http.StatusPreconditionFailed, redirect.Decision.Message
	case errors.Is(err, service.ErrOutOfStock):
		return http.StatusBadRequest, service.MsgOutOfStock
	case errors.Is(err, service.ErrValidation):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, service.ErrInvalidCredentials):
		return http.StatusUnauthorized, "invalid email or password"
	case errors.Is(err, middleware.ErrAuth):
		return http.StatusUnauthorized, "unauthorized"
	case errors.Is(err, service.ErrForbidden):
		return http.StatusForbidden, "forbidden"
	case errors.Is(err, service.ErrNotFound):
		return http.StatusNotFound, err.Error()
	case errors.Is(err, service.ErrAlreadyPaid),
		errors.Is(err, service.ErrAlreadyDelivered),
		errors.Is(err, service.ErrConflict):
		return http.StatusConflict, err.Error()
	}
	return http.StatusInternalServerError, "internal error"
}

// fail logs err under event and turns it into an HTTP error whose body
// carries an error notice. Clients show the notice as is.
func fail(l *slog.Logger, event string, err error, notice string) error {
	status, msg := statusOf(err)
	if notice == "" {
		notice = msg
	}
	body := transport.ErrorResponse{Message: msg, Notice: transport.Failure(notice)}

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		body.Fields = validation.Fields(verrs)
	}
	var redirect *service.RedirectError
	if errors.As(err, &redirect) {
		body.Redirect = redirect.Decision.Redirect
	}
	body.AlreadyPaid = errors.Is(err, service.ErrAlreadyPaid)

	if status >= http.StatusInternalServerError {
		l.Error(event, "status", status, "error", err)
	} else {
		l.Warn(event, "status", status, "error", err)
	}
	return echo.NewHTTPError(status, body)
}

// badRequest reports a body that could not be bound or validated.
func badRequest(l *slog.Logger, event string, err error) error {
	body := transport.ErrorResponse{Message: "invalid body", Notice: transport.Failure("invalid body")}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		body.Fields = validation.Fields(verrs)
	}
	l.Warn(event, "status", http.StatusBadRequest, "reason", "invalid body", "error", err)
	return echo.NewHTTPError(http.StatusBadRequest, body)
}
