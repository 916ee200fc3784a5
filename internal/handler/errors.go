package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/travel-reservation/internal/reservation"
)

// statusByKind maps engine error kinds to HTTP status codes.
var statusByKind = map[reservation.Kind]int{
	reservation.KindInvalidInput:     http.StatusBadRequest,
	reservation.KindNotFound:         http.StatusNotFound,
	reservation.KindCapacityExceeded: http.StatusUnprocessableEntity,
	reservation.KindConflict:         http.StatusConflict,
	reservation.KindInvalidState:     http.StatusConflict,
	reservation.KindNotCancellable:   http.StatusConflict,
	reservation.KindUnauthorized:     http.StatusForbidden,
	reservation.KindInternal:         http.StatusInternalServerError,
}

// writeError renders an engine error as {"error", "message", "retryable"}.
func writeError(c echo.Context, err error) error {
	kind := reservation.KindOf(err)
	status, ok := statusByKind[kind]
	if !ok {
		status = http.StatusInternalServerError
	}
	return c.JSON(status, echo.Map{
		"error":     kind,
		"message":   reservation.PublicMessage(err),
		"retryable": reservation.Retryable(err),
	})
}

// badRequest reports a malformed request before it reaches the engine.
func badRequest(c echo.Context, msg string) error {
	return c.JSON(http.StatusBadRequest, echo.Map{
		"error":     reservation.KindInvalidInput,
		"message":   msg,
		"retryable": false,
	})
}
